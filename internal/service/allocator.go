package service

import (
    "context"
    "errors"
    "fmt"
    "log"

    "github.com/iliyamo/slot-reservation/internal/model"
    "github.com/iliyamo/slot-reservation/internal/utils"
)

// Allocator is the transactional core of the engine.  Reserve attempts
// to take N seats on a slot and durably record a registration in one
// serializable transaction, retrying the whole sequence on transient
// storage conflicts.  Side effects (check-in token, notification,
// audit) happen strictly after commit and can never fail or roll back a
// reservation.
type Allocator struct {
    store        Store
    notifier     Notifier
    audit        AuditSink
    maxPartySize int
}

// NewAllocator constructs an Allocator.  maxPartySize is the
// operator-configured ceiling on seats per booking.
func NewAllocator(store Store, notifier Notifier, audit AuditSink, maxPartySize int) *Allocator {
    if store == nil || notifier == nil || audit == nil {
        panic("nil dependency passed to NewAllocator")
    }
    return &Allocator{store: store, notifier: notifier, audit: audit, maxPartySize: maxPartySize}
}

// Reserve books partySize seats on the slot for the given contact.
//
// Outcomes: ErrInvalidPartySize (precondition), ErrSlotNotBookable
// (unpublished or archived, re-checked inside the transaction),
// ErrSlotFull (conditional decrement predicate failed, nothing was
// written), ErrMaxRetriesExceeded (persistent contention, no
// registration exists).  Any other error is fatal.
func (a *Allocator) Reserve(ctx context.Context, slotID uint64, contact model.Contact, partySize int) (*model.Registration, error) {
    if partySize < 1 || partySize > a.maxPartySize {
        return nil, ErrInvalidPartySize
    }

    var reg *model.Registration
    err := runSerializable(ctx, a.store, func(tx Tx) error {
        // Rebuild attempt-local state from scratch: an earlier attempt
        // may have partially populated it before losing its race.
        reg = nil

        slot, err := tx.SlotForUpdate(ctx, slotID)
        if err != nil {
            return err
        }
        // The slot can be archived or unpublished between the client's
        // read and this booking; the in-transaction re-check under the
        // row lock closes that race.
        if !slot.Bookable() {
            return ErrSlotNotBookable
        }
        if err := tx.ReserveSeats(ctx, slotID, partySize); err != nil {
            if errors.Is(err, ErrSeatsUnavailable) {
                return ErrSlotFull
            }
            return err
        }
        r := &model.Registration{SlotID: &slotID, Contact: contact, PartySize: partySize}
        if err := tx.CreateRegistration(ctx, r); err != nil {
            return err
        }
        reg = r
        return nil
    })
    if err != nil {
        return nil, err
    }

    a.afterReserve(ctx, reg)
    return reg, nil
}

// afterReserve performs the post-commit side effects of a successful
// reservation.  Every step is best-effort: failures are logged and
// swallowed so a downstream outage never turns a committed booking into
// a reported failure.
func (a *Allocator) afterReserve(ctx context.Context, reg *model.Registration) {
    token, err := utils.NewCheckInToken()
    if err != nil {
        log.Printf("allocator: generate check-in token for registration %d failed: %v", reg.ID, err)
    } else if err := a.store.SetCheckInToken(ctx, reg.ID, token); err != nil {
        log.Printf("allocator: store check-in token for registration %d failed: %v", reg.ID, err)
    } else {
        reg.CheckInToken = token
    }

    msg := fmt.Sprintf("Your booking for %d seat(s) is confirmed. Registration #%d.", reg.PartySize, reg.ID)
    if err := a.notifier.Send(ctx, reg.Contact, msg); err != nil {
        log.Printf("allocator: notify %s for registration %d failed: %v", reg.Contact.Email, reg.ID, err)
    }

    a.audit.Record(ctx, "registration.created", auditActor(reg.Contact),
        fmt.Sprintf("registration %d: %d seat(s) on slot %d", reg.ID, reg.PartySize, derefSlotID(reg.SlotID)))
}

// auditActor names the actor for attendee-initiated operations.  The
// booking surface is public, so the contact email is the closest thing
// to an identity.
func auditActor(c model.Contact) string {
    if c.Email != "" {
        return c.Email
    }
    return "guest"
}

func derefSlotID(id *uint64) uint64 {
    if id == nil {
        return 0
    }
    return *id
}
