package service

import (
    "context"
    "fmt"
    "time"

    "github.com/iliyamo/slot-reservation/internal/model"
)

// Lifecycle implements the operator-facing slot transitions.  The per
// slot state machine is Draft -> Published -> Archived, plus
// Draft -> Archived, Published -> Draft (manual unpublish) and
// Archived -> Draft (manual restore).  Nothing ever re-enters
// Published automatically once archived.
type Lifecycle struct {
    store Store
    audit AuditSink
    tz    TimezoneProvider
    now   func() time.Time
}

// NewLifecycle constructs a Lifecycle.  now may be nil, in which case
// time.Now is used; tests inject a fixed clock.
func NewLifecycle(store Store, audit AuditSink, tz TimezoneProvider, now func() time.Time) *Lifecycle {
    if store == nil || audit == nil || tz == nil {
        panic("nil dependency passed to NewLifecycle")
    }
    if now == nil {
        now = time.Now
    }
    return &Lifecycle{store: store, audit: audit, tz: tz, now: now}
}

// CreateSlotInput carries the operator's parameters for a new slot.
// At most one auto-publish descriptor may be set.
type CreateSlotInput struct {
    Date               string
    StartTime          string
    EndTime            string
    Capacity           int
    PublishMode        string
    PublishAt          *time.Time
    PublishHoursBefore *int
}

// validate checks formats and descriptor exclusivity.  Every failure
// wraps ErrInvalidSlotInput so callers map the whole family at once.
func (in *CreateSlotInput) validate() error {
    if _, err := time.Parse(model.DateLayout, in.Date); err != nil {
        return fmt.Errorf("%w: invalid date %q", ErrInvalidSlotInput, in.Date)
    }
    start, err := time.Parse(model.TimeLayout, in.StartTime)
    if err != nil {
        return fmt.Errorf("%w: invalid start time %q", ErrInvalidSlotInput, in.StartTime)
    }
    end, err := time.Parse(model.TimeLayout, in.EndTime)
    if err != nil {
        return fmt.Errorf("%w: invalid end time %q", ErrInvalidSlotInput, in.EndTime)
    }
    if !end.After(start) {
        return fmt.Errorf("%w: end time %q must be after start time %q", ErrInvalidSlotInput, in.EndTime, in.StartTime)
    }
    if in.Capacity < 1 {
        return fmt.Errorf("%w: capacity must be a positive integer", ErrInvalidSlotInput)
    }
    switch in.PublishMode {
    case model.PublishModeNone:
        if in.PublishAt != nil || in.PublishHoursBefore != nil {
            return fmt.Errorf("%w: auto-publish parameters require a publish mode", ErrInvalidSlotInput)
        }
    case model.PublishModeAt:
        if in.PublishAt == nil || in.PublishHoursBefore != nil {
            return fmt.Errorf("%w: publish mode %q requires exactly a publish_at timestamp", ErrInvalidSlotInput, in.PublishMode)
        }
    case model.PublishModeHoursBefore:
        if in.PublishHoursBefore == nil || in.PublishAt != nil {
            return fmt.Errorf("%w: publish mode %q requires exactly publish_hours_before", ErrInvalidSlotInput, in.PublishMode)
        }
        if *in.PublishHoursBefore < 1 {
            return fmt.Errorf("%w: publish_hours_before must be a positive integer", ErrInvalidSlotInput)
        }
    default:
        return fmt.Errorf("%w: unknown publish mode %q", ErrInvalidSlotInput, in.PublishMode)
    }
    return nil
}

// CreateSlot creates a draft slot with remaining equal to capacity.
func (l *Lifecycle) CreateSlot(ctx context.Context, actor string, in CreateSlotInput) (*model.Slot, error) {
    if err := in.validate(); err != nil {
        return nil, err
    }
    slot := &model.Slot{
        Date:               in.Date,
        StartTime:          in.StartTime,
        EndTime:            in.EndTime,
        Capacity:           in.Capacity,
        PublishMode:        in.PublishMode,
        PublishAt:          in.PublishAt,
        PublishHoursBefore: in.PublishHoursBefore,
    }
    err := runSerializable(ctx, l.store, func(tx Tx) error {
        return tx.CreateSlot(ctx, slot)
    })
    if err != nil {
        return nil, err
    }
    l.audit.Record(ctx, "slot.created", actor,
        fmt.Sprintf("slot %d: %s %s-%s, capacity %d", slot.ID, slot.Date, slot.StartTime, slot.EndTime, slot.Capacity))
    return slot, nil
}

// SetPublished publishes or unpublishes a slot manually.  Publishing an
// archived slot is rejected; it must be restored to draft first.
// Publishing a slot whose window already started is rejected as well: a
// restored past slot stays in draft forever.  Unpublishing is always
// allowed and does not touch the auto-publish descriptor, so a consumed
// descriptor never re-triggers.
func (l *Lifecycle) SetPublished(ctx context.Context, actor string, slotID uint64, published bool) (*model.Slot, error) {
    loc, err := l.tz.CurrentTimezone(ctx)
    if err != nil {
        return nil, fmt.Errorf("resolve organization timezone: %w", err)
    }
    var out *model.Slot
    err = runSerializable(ctx, l.store, func(tx Tx) error {
        out = nil
        slot, err := tx.SlotForUpdate(ctx, slotID)
        if err != nil {
            return err
        }
        if published {
            if slot.Archived {
                return ErrSlotNotBookable
            }
            past, err := slot.IsPast(l.now(), loc)
            if err != nil {
                return err
            }
            if past {
                return ErrSlotNotBookable
            }
        }
        if err := tx.SetPublished(ctx, slotID, published); err != nil {
            return err
        }
        slot.Published = published
        out = slot
        return nil
    })
    if err != nil {
        return nil, err
    }
    action := "slot.published"
    if !published {
        action = "slot.unpublished"
    }
    l.audit.Record(ctx, action, actor, fmt.Sprintf("slot %d", slotID))
    return out, nil
}

// ArchiveSlot retires a slot, force-clearing its published flag.
func (l *Lifecycle) ArchiveSlot(ctx context.Context, actor string, slotID uint64) error {
    err := runSerializable(ctx, l.store, func(tx Tx) error {
        return tx.ArchiveSlot(ctx, slotID)
    })
    if err != nil {
        return err
    }
    l.audit.Record(ctx, "slot.archived", actor, fmt.Sprintf("slot %d", slotID))
    return nil
}

// RestoreSlot returns an archived slot to draft.  The slot always lands
// unpublished regardless of its state before archiving, and a restored
// slot whose date already passed cannot be re-published.
func (l *Lifecycle) RestoreSlot(ctx context.Context, actor string, slotID uint64) error {
    err := runSerializable(ctx, l.store, func(tx Tx) error {
        return tx.RestoreSlot(ctx, slotID)
    })
    if err != nil {
        return err
    }
    l.audit.Record(ctx, "slot.restored", actor, fmt.Sprintf("slot %d", slotID))
    return nil
}

// DeleteSlot removes a slot permanently.  Deletion is refused with
// ErrSlotHasRegistrations while any registration references the slot;
// the operator should archive instead.
func (l *Lifecycle) DeleteSlot(ctx context.Context, actor string, slotID uint64) error {
    err := runSerializable(ctx, l.store, func(tx Tx) error {
        return tx.DeleteSlot(ctx, slotID)
    })
    if err != nil {
        return err
    }
    l.audit.Record(ctx, "slot.deleted", actor, fmt.Sprintf("slot %d", slotID))
    return nil
}

// ListBookableSlots returns the slots an attendee may book as of the
// given instant, evaluated against the organization's timezone:
// published, unarchived, dated today or later, ordered by date then
// start time.
func (l *Lifecycle) ListBookableSlots(ctx context.Context, asOf time.Time) ([]model.Slot, error) {
    loc, err := l.tz.CurrentTimezone(ctx)
    if err != nil {
        return nil, fmt.Errorf("resolve organization timezone: %w", err)
    }
    return l.store.ListBookableSlots(ctx, asOf.In(loc).Format(model.DateLayout))
}

// GetRegistration returns a registration for operator inspection.
func (l *Lifecycle) GetRegistration(ctx context.Context, id uint64) (*model.Registration, error) {
    return l.store.GetRegistration(ctx, id)
}
