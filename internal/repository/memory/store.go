// Package memory provides an in-memory Store with the same atomic
// semantics as the MySQL repository.  A single mutex serializes whole
// transactions, so every interleaving a test produces is one the
// serializable production store could also produce.  Transaction
// rollback restores a snapshot taken at begin, and FailTx injects
// transient conflicts to exercise the engine's retry path.
package memory

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/iliyamo/slot-reservation/internal/model"
    "github.com/iliyamo/slot-reservation/internal/service"
)

// Store holds all state behind one mutex.  It satisfies both
// service.Store and the scheduler's store interface.
type Store struct {
    mu         sync.Mutex
    slots      map[uint64]*model.Slot
    regs       map[uint64]*model.Registration
    nextSlotID uint64
    nextRegID  uint64

    // failTx counts down transactions that fail at commit with
    // service.ErrTransientConflict, after their effects are rolled
    // back.  Set via FailTx.
    failTx int
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
    return &Store{
        slots: make(map[uint64]*model.Slot),
        regs:  make(map[uint64]*model.Registration),
    }
}

// FailTx arranges for the next n transactions to fail with
// ErrTransientConflict after rolling back, as a storage engine losing
// a serialization race would.
func (s *Store) FailTx(n int) {
    s.mu.Lock()
    s.failTx = n
    s.mu.Unlock()
}

// PutSlot seeds a slot directly, assigning an ID when the slot has
// none.  Test setup helper; production code creates slots through a
// transaction.
func (s *Store) PutSlot(slot model.Slot) *model.Slot {
    s.mu.Lock()
    defer s.mu.Unlock()
    if slot.ID == 0 {
        s.nextSlotID++
        slot.ID = s.nextSlotID
    } else if slot.ID > s.nextSlotID {
        s.nextSlotID = slot.ID
    }
    s.slots[slot.ID] = &slot
    return &slot
}

// PutRegistration seeds a registration directly.  Test setup helper.
func (s *Store) PutRegistration(reg model.Registration) *model.Registration {
    s.mu.Lock()
    defer s.mu.Unlock()
    if reg.ID == 0 {
        s.nextRegID++
        reg.ID = s.nextRegID
    } else if reg.ID > s.nextRegID {
        s.nextRegID = reg.ID
    }
    s.regs[reg.ID] = &reg
    return &reg
}

// InTx runs fn while holding the store mutex.  On error the state
// snapshot taken at begin is restored, so a failed transaction leaves
// no trace, exactly like a rolled-back database transaction.
func (s *Store) InTx(ctx context.Context, fn func(service.Tx) error) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    s.mu.Lock()
    defer s.mu.Unlock()

    snapSlots, snapRegs := s.snapshot()
    snapSlotID, snapRegID := s.nextSlotID, s.nextRegID

    err := fn(&memTx{store: s})
    if err == nil && s.failTx > 0 {
        s.failTx--
        err = service.ErrTransientConflict
    }
    if err != nil {
        s.slots, s.regs = snapSlots, snapRegs
        s.nextSlotID, s.nextRegID = snapSlotID, snapRegID
        return err
    }
    return nil
}

func (s *Store) snapshot() (map[uint64]*model.Slot, map[uint64]*model.Registration) {
    slots := make(map[uint64]*model.Slot, len(s.slots))
    for id, sl := range s.slots {
        cp := *sl
        slots[id] = &cp
    }
    regs := make(map[uint64]*model.Registration, len(s.regs))
    for id, r := range s.regs {
        cp := *r
        regs[id] = &cp
    }
    return slots, regs
}

// GetSlot returns a copy of the slot.
func (s *Store) GetSlot(ctx context.Context, id uint64) (*model.Slot, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    sl, ok := s.slots[id]
    if !ok {
        return nil, service.ErrSlotNotFound
    }
    cp := *sl
    return &cp, nil
}

// GetRegistration returns a copy of the registration.
func (s *Store) GetRegistration(ctx context.Context, id uint64) (*model.Registration, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.regs[id]
    if !ok {
        return nil, service.ErrRegistrationNotFound
    }
    cp := *r
    return &cp, nil
}

// ListBookableSlots filters published, unarchived slots dated on or
// after fromDate, ordered by date then start time.
func (s *Store) ListBookableSlots(ctx context.Context, fromDate string) ([]model.Slot, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.Slot, 0)
    for _, sl := range s.slots {
        if sl.Published && !sl.Archived && sl.Date >= fromDate {
            out = append(out, *sl)
        }
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].Date != out[j].Date {
            return out[i].Date < out[j].Date
        }
        return out[i].StartTime < out[j].StartTime
    })
    return out, nil
}

// SetCheckInToken stores the token outside any transaction.
func (s *Store) SetCheckInToken(ctx context.Context, regID uint64, token string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.regs[regID]
    if !ok {
        return service.ErrRegistrationNotFound
    }
    r.CheckInToken = token
    r.UpdatedAt = time.Now().UTC()
    return nil
}

// ListAutoPublishCandidates returns draft slots carrying an unconsumed
// auto-publish descriptor, ordered by ID.
func (s *Store) ListAutoPublishCandidates(ctx context.Context) ([]model.Slot, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.Slot, 0)
    for _, sl := range s.slots {
        if !sl.Published && !sl.Archived && !sl.AutoPublished && sl.PublishMode != model.PublishModeNone {
            out = append(out, *sl)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

// ListUnarchivedSlots returns every slot not yet archived, ordered by ID.
func (s *Store) ListUnarchivedSlots(ctx context.Context) ([]model.Slot, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.Slot, 0)
    for _, sl := range s.slots {
        if !sl.Archived {
            out = append(out, *sl)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

// memTx operates on the store maps directly; InTx already holds the
// mutex for the whole transaction.
type memTx struct {
    store *Store
}

func (t *memTx) SlotForUpdate(ctx context.Context, id uint64) (*model.Slot, error) {
    sl, ok := t.store.slots[id]
    if !ok {
        return nil, service.ErrSlotNotFound
    }
    cp := *sl
    return &cp, nil
}

func (t *memTx) ReserveSeats(ctx context.Context, slotID uint64, seats int) error {
    sl, ok := t.store.slots[slotID]
    if !ok {
        return service.ErrSlotNotFound
    }
    if sl.Remaining < seats {
        return service.ErrSeatsUnavailable
    }
    sl.Remaining -= seats
    sl.UpdatedAt = time.Now().UTC()
    return nil
}

func (t *memTx) AdjustRemaining(ctx context.Context, slotID uint64, delta int) error {
    if delta == 0 {
        return nil
    }
    sl, ok := t.store.slots[slotID]
    if !ok {
        return service.ErrSlotNotFound
    }
    next := sl.Remaining + delta
    if next < 0 || next > sl.Capacity {
        return service.ErrCapacityExceeded
    }
    sl.Remaining = next
    sl.UpdatedAt = time.Now().UTC()
    return nil
}

func (t *memTx) CreateSlot(ctx context.Context, s *model.Slot) error {
    t.store.nextSlotID++
    s.ID = t.store.nextSlotID
    s.Remaining = s.Capacity
    now := time.Now().UTC()
    s.CreatedAt, s.UpdatedAt = now, now
    cp := *s
    t.store.slots[s.ID] = &cp
    return nil
}

func (t *memTx) SetPublished(ctx context.Context, slotID uint64, published bool) error {
    sl, ok := t.store.slots[slotID]
    if !ok {
        return service.ErrSlotNotFound
    }
    if published && sl.Archived {
        return service.ErrSlotNotBookable
    }
    sl.Published = published
    sl.UpdatedAt = time.Now().UTC()
    return nil
}

func (t *memTx) MarkAutoPublished(ctx context.Context, slotID uint64) error {
    sl, ok := t.store.slots[slotID]
    if !ok {
        return service.ErrSlotNotFound
    }
    sl.AutoPublished = true
    sl.UpdatedAt = time.Now().UTC()
    return nil
}

func (t *memTx) ArchiveSlot(ctx context.Context, slotID uint64) error {
    sl, ok := t.store.slots[slotID]
    if !ok {
        return service.ErrSlotNotFound
    }
    sl.Archived = true
    sl.Published = false
    sl.UpdatedAt = time.Now().UTC()
    return nil
}

func (t *memTx) RestoreSlot(ctx context.Context, slotID uint64) error {
    sl, ok := t.store.slots[slotID]
    if !ok {
        return service.ErrSlotNotFound
    }
    sl.Archived = false
    sl.Published = false
    sl.UpdatedAt = time.Now().UTC()
    return nil
}

func (t *memTx) DeleteSlot(ctx context.Context, slotID uint64) error {
    if _, ok := t.store.slots[slotID]; !ok {
        return service.ErrSlotNotFound
    }
    for _, r := range t.store.regs {
        if r.SlotID != nil && *r.SlotID == slotID {
            return service.ErrSlotHasRegistrations
        }
    }
    delete(t.store.slots, slotID)
    return nil
}

func (t *memTx) CreateRegistration(ctx context.Context, reg *model.Registration) error {
    t.store.nextRegID++
    reg.ID = t.store.nextRegID
    now := time.Now().UTC()
    reg.CreatedAt, reg.UpdatedAt = now, now
    cp := *reg
    t.store.regs[reg.ID] = &cp
    return nil
}

func (t *memTx) RegistrationForUpdate(ctx context.Context, id uint64) (*model.Registration, error) {
    r, ok := t.store.regs[id]
    if !ok {
        return nil, service.ErrRegistrationNotFound
    }
    cp := *r
    return &cp, nil
}

func (t *memTx) RecordCheckIn(ctx context.Context, regID uint64, count int) error {
    r, ok := t.store.regs[regID]
    if !ok {
        return service.ErrRegistrationNotFound
    }
    r.CheckedIn = true
    c := count
    r.CheckInCount = &c
    r.UpdatedAt = time.Now().UTC()
    return nil
}
