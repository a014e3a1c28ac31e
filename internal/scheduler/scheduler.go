// Package scheduler drives the time-based slot lifecycle: publishing
// slots whose auto-publish trigger has elapsed and archiving slots
// whose window has passed in the organization's timezone.  It runs as
// an independent periodic task and contends on the same slot rows as
// the allocator and the reconciler; every transition is one narrow
// single-row transaction, never a lock over the whole scan.
package scheduler

import (
    "context"
    "fmt"
    "log"
    "time"

    "github.com/iliyamo/slot-reservation/internal/model"
    "github.com/iliyamo/slot-reservation/internal/service"
)

// Store is the slice of persistence the scheduler needs: the two
// read-mostly scans plus the transactional transitions.  The production
// repository.Store satisfies it.
type Store interface {
    InTx(ctx context.Context, fn func(service.Tx) error) error
    ListAutoPublishCandidates(ctx context.Context) ([]model.Slot, error)
    ListUnarchivedSlots(ctx context.Context) ([]model.Slot, error)
}

// Scheduler owns the recurring auto-publish and auto-archive passes.
type Scheduler struct {
    Store    Store
    Audit    service.AuditSink
    Timezone service.TimezoneProvider

    // PublishEvery and ArchiveEvery control the pass cadences; the
    // reference values are a couple of minutes and an hour.
    PublishEvery time.Duration
    ArchiveEvery time.Duration

    // Now is the clock; nil means time.Now.  Tests inject fixed clocks.
    Now func() time.Time
}

func (s *Scheduler) clock() time.Time {
    if s.Now != nil {
        return s.Now()
    }
    return time.Now()
}

// Run blocks until ctx is cancelled.  The archive pass runs once
// immediately at startup so slots which became stale while the process
// was offline are corrected before serving traffic; after that both
// passes run on their tickers.
func (s *Scheduler) Run(ctx context.Context) error {
    s.ArchivePass(ctx)

    publish := time.NewTicker(s.PublishEvery)
    defer publish.Stop()
    archive := time.NewTicker(s.ArchiveEvery)
    defer archive.Stop()

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-publish.C:
            s.PublishPass(ctx)
        case <-archive.C:
            s.ArchivePass(ctx)
        }
    }
}

// PublishPass publishes every draft slot whose auto-publish trigger has
// elapsed.  Publishing consumes the descriptor, so a slot that is later
// unpublished manually is never re-published automatically.
func (s *Scheduler) PublishPass(ctx context.Context) {
    loc, err := s.Timezone.CurrentTimezone(ctx)
    if err != nil {
        log.Printf("scheduler: resolve organization timezone failed: %v", err)
        return
    }
    candidates, err := s.Store.ListAutoPublishCandidates(ctx)
    if err != nil {
        log.Printf("scheduler: auto-publish scan failed: %v", err)
        return
    }
    now := s.clock()
    for i := range candidates {
        slot := &candidates[i]
        due, err := publishDue(slot, now, loc)
        if err != nil {
            log.Printf("scheduler: slot %d: evaluate auto-publish: %v", slot.ID, err)
            continue
        }
        if !due {
            continue
        }
        if err := s.publishOne(ctx, slot.ID); err != nil {
            log.Printf("scheduler: slot %d: auto-publish failed: %v", slot.ID, err)
        }
    }
}

// publishDue evaluates the slot's descriptor against now.
func publishDue(slot *model.Slot, now time.Time, loc *time.Location) (bool, error) {
    switch slot.PublishMode {
    case model.PublishModeAt:
        if slot.PublishAt == nil {
            return false, fmt.Errorf("publish mode %q without timestamp", slot.PublishMode)
        }
        return !now.Before(*slot.PublishAt), nil
    case model.PublishModeHoursBefore:
        if slot.PublishHoursBefore == nil {
            return false, fmt.Errorf("publish mode %q without hours", slot.PublishMode)
        }
        starts, err := slot.StartsAt(loc)
        if err != nil {
            return false, err
        }
        publishAt := starts.Add(-time.Duration(*slot.PublishHoursBefore) * time.Hour)
        return !now.Before(publishAt), nil
    default:
        return false, nil
    }
}

// publishOne performs a single publish transition.  The slot state is
// re-checked under the row lock: the operator may have published,
// archived or consumed the descriptor since the scan.
func (s *Scheduler) publishOne(ctx context.Context, slotID uint64) error {
    changed := false
    err := s.Store.InTx(ctx, func(tx service.Tx) error {
        changed = false
        slot, err := tx.SlotForUpdate(ctx, slotID)
        if err != nil {
            return err
        }
        if slot.Published || slot.Archived || slot.AutoPublished {
            return nil
        }
        if err := tx.SetPublished(ctx, slotID, true); err != nil {
            return err
        }
        if err := tx.MarkAutoPublished(ctx, slotID); err != nil {
            return err
        }
        changed = true
        return nil
    })
    if err != nil {
        return err
    }
    if changed {
        s.Audit.Record(ctx, "slot.auto_published", "scheduler", fmt.Sprintf("slot %d", slotID))
    }
    return nil
}

// ArchivePass archives every slot whose window has begun in the
// organization's timezone.  The same instant can be past in one zone
// and future in another, so the comparison never uses the server's
// local zone.
func (s *Scheduler) ArchivePass(ctx context.Context) {
    loc, err := s.Timezone.CurrentTimezone(ctx)
    if err != nil {
        log.Printf("scheduler: resolve organization timezone failed: %v", err)
        return
    }
    slots, err := s.Store.ListUnarchivedSlots(ctx)
    if err != nil {
        log.Printf("scheduler: auto-archive scan failed: %v", err)
        return
    }
    now := s.clock()
    for i := range slots {
        slot := &slots[i]
        past, err := slot.IsPast(now, loc)
        if err != nil {
            log.Printf("scheduler: slot %d: evaluate auto-archive: %v", slot.ID, err)
            continue
        }
        if !past {
            continue
        }
        if err := s.archiveOne(ctx, slot.ID); err != nil {
            log.Printf("scheduler: slot %d: auto-archive failed: %v", slot.ID, err)
        }
    }
}

// archiveOne performs a single archive transition with a re-check under
// the row lock, mirroring publishOne.
func (s *Scheduler) archiveOne(ctx context.Context, slotID uint64) error {
    changed := false
    err := s.Store.InTx(ctx, func(tx service.Tx) error {
        changed = false
        slot, err := tx.SlotForUpdate(ctx, slotID)
        if err != nil {
            return err
        }
        if slot.Archived {
            return nil
        }
        if err := tx.ArchiveSlot(ctx, slotID); err != nil {
            return err
        }
        changed = true
        return nil
    })
    if err != nil {
        return err
    }
    if changed {
        s.Audit.Record(ctx, "slot.auto_archived", "scheduler", fmt.Sprintf("slot %d", slotID))
    }
    return nil
}
