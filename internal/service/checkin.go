package service

import (
    "context"
    "errors"
    "fmt"

    "github.com/iliyamo/slot-reservation/internal/model"
)

// Reconciler adjusts a slot's remaining counter when actual attendance
// differs from the booked party size.  It shares the slot counter's
// atomic update path with the Allocator, so a check-in's capacity
// release is immediately visible to, and consumable by, a subsequent
// booking.
type Reconciler struct {
    store            Store
    audit            AuditSink
    allowCorrections bool
}

// NewReconciler constructs a Reconciler.  When allowCorrections is
// false, a re-check-in with a different count is rejected with
// ErrCheckInFinal instead of being applied as a correction.
func NewReconciler(store Store, audit AuditSink, allowCorrections bool) *Reconciler {
    if store == nil || audit == nil {
        panic("nil dependency passed to NewReconciler")
    }
    return &Reconciler{store: store, audit: audit, allowCorrections: allowCorrections}
}

// ConfirmCheckIn records that count attendees out of the registration's
// party actually showed up, releasing the difference back to the slot.
//
// The operation is idempotent: repeating the identical call is a no-op.
// A differing repeat is a correction whose delta may release more seats
// or reclaim previously released ones; a reclaim that would push the
// counter outside [0, capacity] is rejected with ErrCapacityConflict,
// never clamped.
func (r *Reconciler) ConfirmCheckIn(ctx context.Context, regID uint64, count int) (*model.Registration, error) {
    if count < 1 {
        return nil, ErrInvalidCheckInCount
    }

    var (
        out     *model.Registration
        action  string
        details string
    )
    err := runSerializable(ctx, r.store, func(tx Tx) error {
        out, action, details = nil, "", ""

        reg, err := tx.RegistrationForUpdate(ctx, regID)
        if err != nil {
            return err
        }
        if count > reg.PartySize {
            return ErrInvalidCheckInCount
        }

        if !reg.CheckedIn {
            // First check-in: release the seats the party did not use.
            if err := tx.RecordCheckIn(ctx, regID, count); err != nil {
                return err
            }
            if delta := reg.PartySize - count; delta > 0 && reg.SlotID != nil {
                if err := tx.AdjustRemaining(ctx, *reg.SlotID, delta); err != nil {
                    if errors.Is(err, ErrCapacityExceeded) {
                        return ErrCapacityConflict
                    }
                    return err
                }
            }
            action = "registration.checked_in"
            details = fmt.Sprintf("registration %d: %d of %d attended", regID, count, reg.PartySize)
            out = applyCheckIn(reg, count)
            return nil
        }

        prev := 0
        if reg.CheckInCount != nil {
            prev = *reg.CheckInCount
        }
        if count == prev {
            // Identical repeat: nothing to reconcile.
            out = reg
            return nil
        }
        if !r.allowCorrections {
            return ErrCheckInFinal
        }

        // Correction: positive delta releases more seats, negative
        // reclaims previously released ones.
        if err := tx.RecordCheckIn(ctx, regID, count); err != nil {
            return err
        }
        if reg.SlotID != nil {
            if err := tx.AdjustRemaining(ctx, *reg.SlotID, prev-count); err != nil {
                if errors.Is(err, ErrCapacityExceeded) {
                    return ErrCapacityConflict
                }
                return err
            }
        }
        action = "registration.checkin_corrected"
        details = fmt.Sprintf("registration %d: corrected %d -> %d of %d", regID, prev, count, reg.PartySize)
        out = applyCheckIn(reg, count)
        return nil
    })
    if err != nil {
        return nil, err
    }

    if action != "" {
        r.audit.Record(ctx, action, auditActor(out.Contact), details)
    }
    return out, nil
}

// applyCheckIn returns a copy of reg reflecting the committed check-in
// state, so callers see the row as it now exists without a re-read.
func applyCheckIn(reg *model.Registration, count int) *model.Registration {
    updated := *reg
    updated.CheckedIn = true
    c := count
    updated.CheckInCount = &c
    return &updated
}
