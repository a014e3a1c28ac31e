// Package repository implements the MySQL persistence layer behind the
// engine's storage contract (service.Store / service.Tx).  This file
// holds the transient-conflict classification the storage adapter is
// responsible for: driver-specific deadlock and lock-wait errors are
// mapped to service.ErrTransientConflict so upper layers can retry
// without ever pattern-matching driver error codes or text.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/slot-reservation/internal/service"
)

// MySQL server error numbers that indicate a retryable conflict between
// concurrent transactions rather than a real failure.
const (
    mysqlErrLockDeadlock    = 1213 // ER_LOCK_DEADLOCK
    mysqlErrLockWaitTimeout = 1205 // ER_LOCK_WAIT_TIMEOUT
)

// classifyConflict wraps driver-level deadlock and lock-wait errors
// with service.ErrTransientConflict.  Any other error passes through
// unchanged.
func classifyConflict(err error) error {
    if err == nil {
        return nil
    }
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        switch me.Number {
        case mysqlErrLockDeadlock, mysqlErrLockWaitTimeout:
            return errors.Join(service.ErrTransientConflict, err)
        }
    }
    return err
}
