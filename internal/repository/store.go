package repository

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/iliyamo/slot-reservation/internal/model"
    "github.com/iliyamo/slot-reservation/internal/service"
)

// Store aggregates the slot and registration repositories behind the
// engine's storage contract.  Every transaction opened through InTx
// runs at serializable isolation: the seat decrement is a
// read-modify-write on a counter contended by arbitrarily many callers
// and anything weaker would let two transactions observe the same
// remaining value.
type Store struct {
    db    *sql.DB
    slots *SlotRepo
    regs  *RegistrationRepo
}

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store {
    return &Store{
        db:    db,
        slots: NewSlotRepo(db),
        regs:  NewRegistrationRepo(db),
    }
}

// InTx runs fn inside one serializable transaction.  The transaction is
// rolled back unless fn returns nil and the commit succeeds.  Commit
// and statement errors caused by serialization races surface as
// service.ErrTransientConflict so the caller can re-run fn from the
// top.
func (s *Store) InTx(ctx context.Context, fn func(service.Tx) error) error {
    tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
    if err != nil {
        return fmt.Errorf("begin transaction: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&storeTx{tx: tx, slots: s.slots, regs: s.regs}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return classifyConflict(err)
    }
    committed = true
    return nil
}

// GetSlot implements service.Store.
func (s *Store) GetSlot(ctx context.Context, id uint64) (*model.Slot, error) {
    return s.slots.GetByID(ctx, id)
}

// GetRegistration implements service.Store.
func (s *Store) GetRegistration(ctx context.Context, id uint64) (*model.Registration, error) {
    return s.regs.GetByID(ctx, id)
}

// ListBookableSlots implements service.Store.
func (s *Store) ListBookableSlots(ctx context.Context, fromDate string) ([]model.Slot, error) {
    return s.slots.ListBookable(ctx, fromDate)
}

// SetCheckInToken implements service.Store.
func (s *Store) SetCheckInToken(ctx context.Context, regID uint64, token string) error {
    return s.regs.SetCheckInToken(ctx, regID, token)
}

// ListAutoPublishCandidates exposes the scheduler's publish-pass scan.
func (s *Store) ListAutoPublishCandidates(ctx context.Context) ([]model.Slot, error) {
    return s.slots.ListAutoPublishCandidates(ctx)
}

// ListUnarchivedSlots exposes the scheduler's archive-pass scan.
func (s *Store) ListUnarchivedSlots(ctx context.Context) ([]model.Slot, error) {
    return s.slots.ListUnarchived(ctx)
}

// storeTx adapts one *sql.Tx to the service.Tx contract.
type storeTx struct {
    tx    *sql.Tx
    slots *SlotRepo
    regs  *RegistrationRepo
}

func (t *storeTx) SlotForUpdate(ctx context.Context, id uint64) (*model.Slot, error) {
    return t.slots.GetForUpdateTx(ctx, t.tx, id)
}

func (t *storeTx) ReserveSeats(ctx context.Context, slotID uint64, seats int) error {
    return t.slots.ReserveSeatsTx(ctx, t.tx, slotID, seats)
}

func (t *storeTx) AdjustRemaining(ctx context.Context, slotID uint64, delta int) error {
    return t.slots.AdjustRemainingTx(ctx, t.tx, slotID, delta)
}

func (t *storeTx) CreateSlot(ctx context.Context, s *model.Slot) error {
    return t.slots.CreateTx(ctx, t.tx, s)
}

func (t *storeTx) SetPublished(ctx context.Context, slotID uint64, published bool) error {
    return t.slots.SetPublishedTx(ctx, t.tx, slotID, published)
}

func (t *storeTx) MarkAutoPublished(ctx context.Context, slotID uint64) error {
    return t.slots.MarkAutoPublishedTx(ctx, t.tx, slotID)
}

func (t *storeTx) ArchiveSlot(ctx context.Context, slotID uint64) error {
    return t.slots.ArchiveTx(ctx, t.tx, slotID)
}

func (t *storeTx) RestoreSlot(ctx context.Context, slotID uint64) error {
    return t.slots.RestoreTx(ctx, t.tx, slotID)
}

func (t *storeTx) DeleteSlot(ctx context.Context, slotID uint64) error {
    return t.slots.DeleteTx(ctx, t.tx, slotID)
}

func (t *storeTx) CreateRegistration(ctx context.Context, reg *model.Registration) error {
    return t.regs.CreateTx(ctx, t.tx, reg)
}

func (t *storeTx) RegistrationForUpdate(ctx context.Context, id uint64) (*model.Registration, error) {
    return t.regs.GetForUpdateTx(ctx, t.tx, id)
}

func (t *storeTx) RecordCheckIn(ctx context.Context, regID uint64, count int) error {
    return t.regs.RecordCheckInTx(ctx, t.tx, regID, count)
}
