package service_test

import (
    "context"
    "errors"
    "sync"
    "testing"

    "github.com/iliyamo/slot-reservation/internal/model"
    "github.com/iliyamo/slot-reservation/internal/repository/memory"
    "github.com/iliyamo/slot-reservation/internal/service"
)

// recordingAudit captures audit actions for assertions.
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

// fakeNotifier counts deliveries and can simulate a broker outage.
type fakeNotifier struct {
    mu   sync.Mutex
    sent int
    fail bool
}

func (n *fakeNotifier) Send(ctx context.Context, contact model.Contact, message string) error {
    n.mu.Lock()
    defer n.mu.Unlock()
    if n.fail {
        return errors.New("broker unavailable")
    }
    n.sent++
    return nil
}

func bookableSlot(store *memory.Store, capacity int) *model.Slot {
    return store.PutSlot(model.Slot{
        Date:      "2026-10-01",
        StartTime: "10:00",
        EndTime:   "11:00",
        Capacity:  capacity,
        Remaining: capacity,
        Published: true,
    })
}

func TestReserveSucceeds(t *testing.T) {
    store := memory.NewStore()
    audit := &recordingAudit{}
    notifier := &fakeNotifier{}
    slot := bookableSlot(store, 10)
    alloc := service.NewAllocator(store, notifier, audit, 8)

    contact := model.Contact{Name: "Dana", Email: "dana@example.com"}
    reg, err := alloc.Reserve(context.Background(), slot.ID, contact, 3)
    if err != nil {
        t.Fatalf("Reserve returned error: %v", err)
    }
    if reg.PartySize != 3 {
        t.Errorf("PartySize = %d, want 3", reg.PartySize)
    }
    if reg.CheckInToken == "" {
        t.Errorf("expected a check-in token after booking")
    }

    got, err := store.GetSlot(context.Background(), slot.ID)
    if err != nil {
        t.Fatalf("GetSlot: %v", err)
    }
    if got.Remaining != 7 {
        t.Errorf("Remaining = %d, want 7", got.Remaining)
    }
    if notifier.sent != 1 {
        t.Errorf("notifier sent = %d, want 1", notifier.sent)
    }
    if audit.count("registration.created") != 1 {
        t.Errorf("audit registration.created = %d, want 1", audit.count("registration.created"))
    }
}

func TestReserveInvalidPartySize(t *testing.T) {
    store := memory.NewStore()
    slot := bookableSlot(store, 10)
    alloc := service.NewAllocator(store, &fakeNotifier{}, &recordingAudit{}, 8)

    for _, size := range []int{0, -1, 9} {
        if _, err := alloc.Reserve(context.Background(), slot.ID, model.Contact{Name: "x"}, size); !errors.Is(err, service.ErrInvalidPartySize) {
            t.Errorf("Reserve(size=%d) = %v, want ErrInvalidPartySize", size, err)
        }
    }
    got, _ := store.GetSlot(context.Background(), slot.ID)
    if got.Remaining != 10 {
        t.Errorf("Remaining = %d, want 10 (no seats taken)", got.Remaining)
    }
}

func TestReserveUnpublishedSlot(t *testing.T) {
    store := memory.NewStore()
    slot := store.PutSlot(model.Slot{
        Date: "2026-10-01", StartTime: "10:00", EndTime: "11:00",
        Capacity: 5, Remaining: 5, Published: false,
    })
    alloc := service.NewAllocator(store, &fakeNotifier{}, &recordingAudit{}, 8)

    if _, err := alloc.Reserve(context.Background(), slot.ID, model.Contact{Name: "x"}, 1); !errors.Is(err, service.ErrSlotNotBookable) {
        t.Errorf("Reserve on draft slot = %v, want ErrSlotNotBookable", err)
    }
}

func TestReserveArchivedSlot(t *testing.T) {
    store := memory.NewStore()
    slot := store.PutSlot(model.Slot{
        Date: "2026-10-01", StartTime: "10:00", EndTime: "11:00",
        Capacity: 5, Remaining: 5, Published: false, Archived: true,
    })
    alloc := service.NewAllocator(store, &fakeNotifier{}, &recordingAudit{}, 8)

    if _, err := alloc.Reserve(context.Background(), slot.ID, model.Contact{Name: "x"}, 1); !errors.Is(err, service.ErrSlotNotBookable) {
        t.Errorf("Reserve on archived slot = %v, want ErrSlotNotBookable", err)
    }
}

func TestReserveMissingSlot(t *testing.T) {
    store := memory.NewStore()
    alloc := service.NewAllocator(store, &fakeNotifier{}, &recordingAudit{}, 8)

    if _, err := alloc.Reserve(context.Background(), 42, model.Contact{Name: "x"}, 1); !errors.Is(err, service.ErrSlotNotFound) {
        t.Errorf("Reserve on missing slot = %v, want ErrSlotNotFound", err)
    }
}

func TestReserveSlotFull(t *testing.T) {
    store := memory.NewStore()
    slot := bookableSlot(store, 2)
    alloc := service.NewAllocator(store, &fakeNotifier{}, &recordingAudit{}, 8)

    if _, err := alloc.Reserve(context.Background(), slot.ID, model.Contact{Name: "a"}, 2); err != nil {
        t.Fatalf("first Reserve: %v", err)
    }
    if _, err := alloc.Reserve(context.Background(), slot.ID, model.Contact{Name: "b"}, 1); !errors.Is(err, service.ErrSlotFull) {
        t.Errorf("Reserve on full slot = %v, want ErrSlotFull", err)
    }
}

// TestReserveNeverOversells hammers one small slot from many goroutines
// and verifies exactly capacity seats were sold.
func TestReserveNeverOversells(t *testing.T) {
    const (
        capacity = 3
        clients  = 50
    )
    store := memory.NewStore()
    audit := &recordingAudit{}
    slot := bookableSlot(store, capacity)
    alloc := service.NewAllocator(store, &fakeNotifier{}, audit, 8)

    var (
        wg        sync.WaitGroup
        mu        sync.Mutex
        succeeded int
        full      int
    )
    for i := 0; i < clients; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            _, err := alloc.Reserve(context.Background(), slot.ID, model.Contact{Name: "c"}, 1)
            mu.Lock()
            defer mu.Unlock()
            switch {
            case err == nil:
                succeeded++
            case errors.Is(err, service.ErrSlotFull):
                full++
            default:
                t.Errorf("unexpected error: %v", err)
            }
        }()
    }
    wg.Wait()

    if succeeded != capacity {
        t.Errorf("succeeded = %d, want %d", succeeded, capacity)
    }
    if full != clients-capacity {
        t.Errorf("full = %d, want %d", full, clients-capacity)
    }
    got, _ := store.GetSlot(context.Background(), slot.ID)
    if got.Remaining != 0 {
        t.Errorf("Remaining = %d, want 0", got.Remaining)
    }
    if audit.count("registration.created") != capacity {
        t.Errorf("audit registration.created = %d, want %d", audit.count("registration.created"), capacity)
    }
}

// TestReserveRetriesTransientConflicts verifies the transaction is
// re-run after serialization failures and still books exactly once.
func TestReserveRetriesTransientConflicts(t *testing.T) {
    store := memory.NewStore()
    slot := bookableSlot(store, 5)
    alloc := service.NewAllocator(store, &fakeNotifier{}, &recordingAudit{}, 8)

    store.FailTx(2)
    reg, err := alloc.Reserve(context.Background(), slot.ID, model.Contact{Name: "r"}, 2)
    if err != nil {
        t.Fatalf("Reserve after transient conflicts: %v", err)
    }
    if reg == nil || reg.ID == 0 {
        t.Fatalf("expected a committed registration")
    }
    got, _ := store.GetSlot(context.Background(), slot.ID)
    if got.Remaining != 3 {
        t.Errorf("Remaining = %d, want 3 (decremented exactly once)", got.Remaining)
    }
}

// TestReserveRetryExhaustion verifies that persistent contention fails
// the booking with ErrMaxRetriesExceeded and leaves nothing behind.
func TestReserveRetryExhaustion(t *testing.T) {
    store := memory.NewStore()
    notifier := &fakeNotifier{}
    slot := bookableSlot(store, 5)
    alloc := service.NewAllocator(store, notifier, &recordingAudit{}, 8)

    store.FailTx(5)
    _, err := alloc.Reserve(context.Background(), slot.ID, model.Contact{Name: "r"}, 1)
    if !errors.Is(err, service.ErrMaxRetriesExceeded) {
        t.Fatalf("Reserve = %v, want ErrMaxRetriesExceeded", err)
    }
    got, _ := store.GetSlot(context.Background(), slot.ID)
    if got.Remaining != 5 {
        t.Errorf("Remaining = %d, want 5 (no partial effects)", got.Remaining)
    }
    if notifier.sent != 0 {
        t.Errorf("notifier sent = %d, want 0", notifier.sent)
    }
}

// TestReserveSurvivesNotifierOutage verifies that a failed confirmation
// delivery never fails the committed booking.
func TestReserveSurvivesNotifierOutage(t *testing.T) {
    store := memory.NewStore()
    notifier := &fakeNotifier{fail: true}
    slot := bookableSlot(store, 5)
    alloc := service.NewAllocator(store, notifier, &recordingAudit{}, 8)

    reg, err := alloc.Reserve(context.Background(), slot.ID, model.Contact{Name: "n", Email: "n@example.com"}, 2)
    if err != nil {
        t.Fatalf("Reserve with failing notifier: %v", err)
    }
    got, _ := store.GetSlot(context.Background(), slot.ID)
    if got.Remaining != 3 {
        t.Errorf("Remaining = %d, want 3", got.Remaining)
    }
    stored, err := store.GetRegistration(context.Background(), reg.ID)
    if err != nil {
        t.Fatalf("GetRegistration: %v", err)
    }
    if stored.PartySize != 2 {
        t.Errorf("stored PartySize = %d, want 2", stored.PartySize)
    }
}
