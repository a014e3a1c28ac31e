package service

import (
    "context"

    "github.com/iliyamo/slot-reservation/internal/model"
)

// Store is the persistence contract the engine runs against.  The
// production implementation wraps MySQL (internal/repository); tests
// use an in-memory implementation with the same atomic semantics.
//
// InTx runs fn inside one storage transaction at serializable (or
// equivalent) isolation and returns ErrTransientConflict, possibly
// wrapped, when the transaction loses a serialization race and should
// be re-run from the top.
type Store interface {
    InTx(ctx context.Context, fn func(Tx) error) error

    GetSlot(ctx context.Context, id uint64) (*model.Slot, error)
    GetRegistration(ctx context.Context, id uint64) (*model.Registration, error)
    // ListBookableSlots returns published, unarchived slots dated on or
    // after fromDate ("2006-01-02"), ordered by date then start time.
    ListBookableSlots(ctx context.Context, fromDate string) ([]model.Slot, error)
    // SetCheckInToken persists the scannable token for a registration.
    // It runs outside any transaction as a post-commit side effect.
    SetCheckInToken(ctx context.Context, regID uint64, token string) error
}

// Tx is the set of operations available inside one transaction.  The
// remaining counter is mutated exclusively through ReserveSeats and
// AdjustRemaining, each a single atomic conditional update.
type Tx interface {
    // SlotForUpdate loads a slot under an exclusive row lock so state
    // re-checks are serialized against concurrent transitions.
    SlotForUpdate(ctx context.Context, id uint64) (*model.Slot, error)
    // ReserveSeats subtracts seats where remaining >= seats, in one
    // round-trip.  Returns ErrSeatsUnavailable when the predicate fails.
    ReserveSeats(ctx context.Context, slotID uint64, seats int) error
    // AdjustRemaining applies a signed delta bounded to [0, capacity].
    // Returns ErrCapacityExceeded on a bound violation.
    AdjustRemaining(ctx context.Context, slotID uint64, delta int) error

    CreateSlot(ctx context.Context, s *model.Slot) error
    SetPublished(ctx context.Context, slotID uint64, published bool) error
    MarkAutoPublished(ctx context.Context, slotID uint64) error
    ArchiveSlot(ctx context.Context, slotID uint64) error
    RestoreSlot(ctx context.Context, slotID uint64) error
    // DeleteSlot removes a slot with zero registrations; otherwise it
    // returns ErrSlotHasRegistrations.
    DeleteSlot(ctx context.Context, slotID uint64) error

    CreateRegistration(ctx context.Context, reg *model.Registration) error
    RegistrationForUpdate(ctx context.Context, id uint64) (*model.Registration, error)
    RecordCheckIn(ctx context.Context, regID uint64, count int) error
}

// AuditSink receives one immutable record per state-changing operation.
// Implementations are best-effort: they log their own failures and
// never propagate them into the business operation.
type AuditSink interface {
    Record(ctx context.Context, action, actor, details string)
}

// Notifier delivers a booking confirmation to the attendee.  Delivery
// is fire-and-forget: the allocator logs and swallows any error, and a
// notifier outage must never fail or roll back a reservation.
type Notifier interface {
    Send(ctx context.Context, contact model.Contact, message string) error
}
