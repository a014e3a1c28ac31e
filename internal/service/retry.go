package service

import (
    "context"
    "errors"
    "fmt"
    "time"
)

// Retry policy for serializable transactions.  The entire transaction
// body is re-run on a transient conflict, never just the commit: the
// predicate the body evaluated may have changed between attempts.
const (
    maxTxAttempts    = 5
    retryBackoffStep = 50 * time.Millisecond
)

// runSerializable executes fn through store.InTx, retrying on transient
// serialization conflicts with a short increasing backoff (50ms ×
// attempt number).  Business outcomes and fatal errors return
// immediately.  When the retry budget is exhausted the last conflict is
// wrapped in ErrMaxRetriesExceeded; the caller is guaranteed that no
// attempt committed in that case.
func runSerializable(ctx context.Context, store Store, fn func(Tx) error) error {
    var err error
    for attempt := 1; attempt <= maxTxAttempts; attempt++ {
        err = store.InTx(ctx, fn)
        if err == nil || !errors.Is(err, ErrTransientConflict) {
            return err
        }
        if attempt == maxTxAttempts {
            break
        }
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(retryBackoffStep * time.Duration(attempt)):
        }
    }
    return fmt.Errorf("%w after %d attempts: %v", ErrMaxRetriesExceeded, maxTxAttempts, err)
}
