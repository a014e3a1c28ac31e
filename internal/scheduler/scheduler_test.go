package scheduler_test

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/iliyamo/slot-reservation/internal/model"
    "github.com/iliyamo/slot-reservation/internal/repository/memory"
    "github.com/iliyamo/slot-reservation/internal/scheduler"
    "github.com/iliyamo/slot-reservation/internal/service"
)

type recordingAudit struct {
    mu      sync.Mutex
    actions []string
}

func (a *recordingAudit) Record(ctx context.Context, action, actor, details string) {
    a.mu.Lock()
    defer a.mu.Unlock()
    a.actions = append(a.actions, action)
}

func (a *recordingAudit) count(action string) int {
    a.mu.Lock()
    defer a.mu.Unlock()
    n := 0
    for _, got := range a.actions {
        if got == action {
            n++
        }
    }
    return n
}

func newScheduler(store *memory.Store, loc *time.Location, now time.Time) (*scheduler.Scheduler, *recordingAudit) {
    audit := &recordingAudit{}
    return &scheduler.Scheduler{
        Store:        store,
        Audit:        audit,
        Timezone:     service.FixedTimezone{Loc: loc},
        PublishEvery: time.Minute,
        ArchiveEvery: time.Hour,
        Now:          func() time.Time { return now },
    }, audit
}

func slotState(t *testing.T, store *memory.Store, id uint64) *model.Slot {
    t.Helper()
    slot, err := store.GetSlot(context.Background(), id)
    if err != nil {
        t.Fatalf("GetSlot: %v", err)
    }
    return slot
}

func TestPublishPassAtTimestamp(t *testing.T) {
    store := memory.NewStore()
    at := time.Date(2026, 11, 19, 8, 0, 0, 0, time.UTC)
    early := store.PutSlot(model.Slot{
        Date: "2026-11-25", StartTime: "10:00", EndTime: "11:00", Capacity: 5, Remaining: 5,
        PublishMode: model.PublishModeAt, PublishAt: &at,
    })
    later := time.Date(2026, 11, 21, 8, 0, 0, 0, time.UTC)
    pending := store.PutSlot(model.Slot{
        Date: "2026-11-25", StartTime: "14:00", EndTime: "15:00", Capacity: 5, Remaining: 5,
        PublishMode: model.PublishModeAt, PublishAt: &later,
    })

    s, audit := newScheduler(store, time.UTC, time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC))
    s.PublishPass(context.Background())

    if got := slotState(t, store, early.ID); !got.Published || !got.AutoPublished {
        t.Errorf("due slot: published=%v auto=%v, want true/true", got.Published, got.AutoPublished)
    }
    if got := slotState(t, store, pending.ID); got.Published {
        t.Errorf("slot with a future publish_at must stay draft")
    }
    if n := audit.count("slot.auto_published"); n != 1 {
        t.Errorf("audit slot.auto_published = %d, want 1", n)
    }
}

func TestPublishPassHoursBefore(t *testing.T) {
    store := memory.NewStore()
    hours := 48
    slot := store.PutSlot(model.Slot{
        Date: "2026-11-22", StartTime: "10:00", EndTime: "11:00", Capacity: 5, Remaining: 5,
        PublishMode: model.PublishModeHoursBefore, PublishHoursBefore: &hours,
    })

    // The slot starts 2026-11-22 10:00 org time; 48h before is
    // 2026-11-20 10:00 org time.
    org := time.FixedZone("UTC+2", 2*3600)

    s, _ := newScheduler(store, org, time.Date(2026, 11, 20, 9, 0, 0, 0, org))
    s.PublishPass(context.Background())
    if got := slotState(t, store, slot.ID); got.Published {
        t.Fatalf("slot published an hour early")
    }

    s.Now = func() time.Time { return time.Date(2026, 11, 20, 10, 30, 0, 0, org) }
    s.PublishPass(context.Background())
    if got := slotState(t, store, slot.ID); !got.Published || !got.AutoPublished {
        t.Errorf("due slot: published=%v auto=%v, want true/true", got.Published, got.AutoPublished)
    }
}

// TestDescriptorConsumedByAutoPublish pins the one-shot behavior: once
// the scheduler has published a slot, a manual unpublish keeps it in
// draft through later passes.
func TestDescriptorConsumedByAutoPublish(t *testing.T) {
    store := memory.NewStore()
    at := time.Date(2026, 11, 19, 8, 0, 0, 0, time.UTC)
    slot := store.PutSlot(model.Slot{
        Date: "2026-11-25", StartTime: "10:00", EndTime: "11:00", Capacity: 5, Remaining: 5,
        PublishMode: model.PublishModeAt, PublishAt: &at,
    })

    s, _ := newScheduler(store, time.UTC, time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC))
    s.PublishPass(context.Background())
    if got := slotState(t, store, slot.ID); !got.Published {
        t.Fatalf("expected the pass to publish the slot")
    }

    // operator pulls it back
    lc := service.NewLifecycle(store, &recordingAudit{}, service.FixedTimezone{Loc: time.UTC}, s.Now)
    if _, err := lc.SetPublished(context.Background(), "ops", slot.ID, false); err != nil {
        t.Fatalf("manual unpublish: %v", err)
    }

    s.PublishPass(context.Background())
    if got := slotState(t, store, slot.ID); got.Published {
        t.Errorf("consumed descriptor re-published the slot")
    }
}

// TestArchivePassUsesOrgTimezone covers both directions of the date
// line: the same instant is past for an eastern organization and still
// future for a western one.
func TestArchivePassUsesOrgTimezone(t *testing.T) {
    now := time.Date(2026, 11, 20, 1, 0, 0, 0, time.UTC)

    // In UTC+3 it is 04:00 on Nov 20, past the 03:00 start: archive.
    east := memory.NewStore()
    eastSlot := east.PutSlot(model.Slot{
        Date: "2026-11-20", StartTime: "03:00", EndTime: "04:00", Capacity: 5, Remaining: 5, Published: true,
    })
    s, audit := newScheduler(east, time.FixedZone("UTC+3", 3*3600), now)
    s.ArchivePass(context.Background())
    if got := slotState(t, east, eastSlot.ID); !got.Archived || got.Published {
        t.Errorf("east org: archived=%v published=%v, want true/false", got.Archived, got.Published)
    }
    if n := audit.count("slot.auto_archived"); n != 1 {
        t.Errorf("audit slot.auto_archived = %d, want 1", n)
    }

    // In UTC-8 it is still 17:00 on Nov 19; the same slot is a day away.
    west := memory.NewStore()
    westSlot := west.PutSlot(model.Slot{
        Date: "2026-11-20", StartTime: "03:00", EndTime: "04:00", Capacity: 5, Remaining: 5, Published: true,
    })
    s, _ = newScheduler(west, time.FixedZone("UTC-8", -8*3600), now)
    s.ArchivePass(context.Background())
    if got := slotState(t, west, westSlot.ID); got.Archived {
        t.Errorf("west org: slot archived a day early")
    }
}

func TestArchivePassSkipsArchived(t *testing.T) {
    store := memory.NewStore()
    store.PutSlot(model.Slot{
        Date: "2026-01-01", StartTime: "09:00", EndTime: "10:00", Capacity: 5, Remaining: 5, Archived: true,
    })
    s, audit := newScheduler(store, time.UTC, time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC))
    s.ArchivePass(context.Background())
    if n := audit.count("slot.auto_archived"); n != 0 {
        t.Errorf("audit slot.auto_archived = %d, want 0", n)
    }
}

// TestRunCatchUpArchive verifies the startup pass: slots that became
// stale while the process was down are archived before the first tick.
func TestRunCatchUpArchive(t *testing.T) {
    store := memory.NewStore()
    stale := store.PutSlot(model.Slot{
        Date: "2026-11-01", StartTime: "09:00", EndTime: "10:00", Capacity: 5, Remaining: 5, Published: true,
    })
    s, _ := newScheduler(store, time.UTC, time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC))
    s.PublishEvery = time.Hour
    s.ArchiveEvery = time.Hour

    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan struct{})
    go func() {
        _ = s.Run(ctx)
        close(done)
    }()

    deadline := time.After(2 * time.Second)
    for {
        if got := slotState(t, store, stale.ID); got.Archived {
            break
        }
        select {
        case <-deadline:
            cancel()
            <-done
            t.Fatalf("startup pass never archived the stale slot")
        case <-time.After(10 * time.Millisecond):
        }
    }
    cancel()
    <-done
}
