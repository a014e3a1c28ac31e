package model

import "time"

// AuditRecord is one immutable line in the audit log.  Every
// state-changing operation emits exactly one record; writes are
// best-effort and never participate in the business transaction.
type AuditRecord struct {
    ID        uint64    // audit_log.id
    Action    string    // audit_log.action (e.g. "slot.archived")
    Actor     string    // audit_log.actor ("scheduler" for automatic transitions)
    Details   string    // audit_log.details
    CreatedAt time.Time // audit_log.created_at
}
