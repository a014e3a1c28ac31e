package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/slot-reservation/internal/model"
    "github.com/iliyamo/slot-reservation/internal/service"
)

// slotColumns is the canonical column list used by every slot query so
// that scanSlot stays in sync with a single SELECT shape.
const slotColumns = `id, slot_date, start_time, end_time, capacity, remaining,
    published, archived, publish_mode, publish_at, publish_hours_before,
    auto_published, created_at, updated_at`

// SlotRepo provides persistence for bookable slots.  The remaining
// counter is never read-modified-written in application code; it is
// mutated exclusively through the conditional single-statement updates
// ReserveSeatsTx and AdjustRemainingTx.
type SlotRepo struct {
    db *sql.DB
}

// NewSlotRepo returns a new SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

type rowScanner interface {
    Scan(dest ...interface{}) error
}

// scanSlot populates a model.Slot from a row selected with slotColumns.
func scanSlot(row rowScanner, s *model.Slot) error {
    var publishAt sql.NullTime
    var hoursBefore sql.NullInt64
    err := row.Scan(
        &s.ID, &s.Date, &s.StartTime, &s.EndTime, &s.Capacity, &s.Remaining,
        &s.Published, &s.Archived, &s.PublishMode, &publishAt, &hoursBefore,
        &s.AutoPublished, &s.CreatedAt, &s.UpdatedAt,
    )
    if err != nil {
        return err
    }
    if publishAt.Valid {
        t := publishAt.Time.UTC()
        s.PublishAt = &t
    }
    if hoursBefore.Valid {
        n := int(hoursBefore.Int64)
        s.PublishHoursBefore = &n
    }
    return nil
}

// CreateTx inserts a new slot within the scope of an existing
// transaction and populates the generated ID.  Remaining starts equal
// to Capacity; the slot is created unpublished (draft).
func (r *SlotRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Slot) error {
    const q = `INSERT INTO slots
        (slot_date, start_time, end_time, capacity, remaining, published, archived,
         publish_mode, publish_at, publish_hours_before, auto_published)
        VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?, ?, 0)`
    var publishAt interface{}
    if s.PublishAt != nil {
        publishAt = s.PublishAt.UTC()
    }
    var hoursBefore interface{}
    if s.PublishHoursBefore != nil {
        hoursBefore = *s.PublishHoursBefore
    }
    res, err := tx.ExecContext(ctx, q,
        s.Date, s.StartTime, s.EndTime, s.Capacity, s.Capacity,
        s.PublishMode, publishAt, hoursBefore,
    )
    if err != nil {
        return classifyConflict(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    s.Remaining = s.Capacity
    return nil
}

// GetByID returns a single slot or service.ErrSlotNotFound.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (*model.Slot, error) {
    const q = `SELECT ` + slotColumns + ` FROM slots WHERE id = ?`
    var s model.Slot
    if err := scanSlot(r.db.QueryRowContext(ctx, q, id), &s); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, service.ErrSlotNotFound
        }
        return nil, err
    }
    return &s, nil
}

// GetForUpdateTx loads a slot inside a transaction with an exclusive
// row lock.  The lock serializes the bookable re-check against
// concurrent lifecycle transitions on the same row.
func (r *SlotRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Slot, error) {
    const q = `SELECT ` + slotColumns + ` FROM slots WHERE id = ? FOR UPDATE`
    var s model.Slot
    if err := scanSlot(tx.QueryRowContext(ctx, q, id), &s); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, service.ErrSlotNotFound
        }
        return nil, classifyConflict(err)
    }
    return &s, nil
}

// ReserveSeatsTx atomically subtracts seats from the slot's remaining
// counter, but only when remaining >= seats.  The predicate and the
// decrement execute as one statement so no other transaction can
// observe an intermediate state.  When the predicate fails the method
// returns service.ErrSeatsUnavailable and the counter is untouched.
func (r *SlotRepo) ReserveSeatsTx(ctx context.Context, tx *sql.Tx, slotID uint64, seats int) error {
    const q = `UPDATE slots SET remaining = remaining - ? WHERE id = ? AND remaining >= ?`
    res, err := tx.ExecContext(ctx, q, seats, slotID, seats)
    if err != nil {
        return classifyConflict(err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return service.ErrSeatsUnavailable
    }
    return nil
}

// AdjustRemainingTx applies a signed adjustment to the remaining
// counter, bounded so it never leaves [0, capacity].  It is used by the
// check-in reconciler to restore (or reclaim) previously reserved
// capacity.  A delta of zero is a no-op.  A bound violation returns
// service.ErrCapacityExceeded.
func (r *SlotRepo) AdjustRemainingTx(ctx context.Context, tx *sql.Tx, slotID uint64, delta int) error {
    if delta == 0 {
        return nil
    }
    const q = `UPDATE slots SET remaining = remaining + ?
        WHERE id = ? AND remaining + ? >= 0 AND remaining + ? <= capacity`
    res, err := tx.ExecContext(ctx, q, delta, slotID, delta, delta)
    if err != nil {
        return classifyConflict(err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return service.ErrCapacityExceeded
    }
    return nil
}

// ListBookable returns published, unarchived slots whose date is on or
// after fromDate ("2006-01-02"), ordered by date then start time.
func (r *SlotRepo) ListBookable(ctx context.Context, fromDate string) ([]model.Slot, error) {
    const q = `SELECT ` + slotColumns + ` FROM slots
        WHERE published = 1 AND archived = 0 AND slot_date >= ?
        ORDER BY slot_date, start_time`
    return r.list(ctx, q, fromDate)
}

// ListAutoPublishCandidates returns draft slots with an active,
// unconsumed auto-publish descriptor.  The scheduler evaluates due
// times in application code because hours_before depends on the
// organization's timezone.
func (r *SlotRepo) ListAutoPublishCandidates(ctx context.Context) ([]model.Slot, error) {
    const q = `SELECT ` + slotColumns + ` FROM slots
        WHERE published = 0 AND archived = 0 AND auto_published = 0 AND publish_mode <> ''
        ORDER BY id`
    return r.list(ctx, q)
}

// ListUnarchived returns every slot that has not been archived yet,
// for the scheduler's archive pass.
func (r *SlotRepo) ListUnarchived(ctx context.Context) ([]model.Slot, error) {
    const q = `SELECT ` + slotColumns + ` FROM slots WHERE archived = 0 ORDER BY id`
    return r.list(ctx, q)
}

func (r *SlotRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Slot, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    slots := make([]model.Slot, 0)
    for rows.Next() {
        var s model.Slot
        if err := scanSlot(rows, &s); err != nil {
            return nil, err
        }
        slots = append(slots, s)
    }
    return slots, rows.Err()
}

// SetPublishedTx flips the published flag.  Publishing an archived slot
// is rejected by the service layer before reaching here; the repository
// still refuses to publish archived rows as a last line of defence.
func (r *SlotRepo) SetPublishedTx(ctx context.Context, tx *sql.Tx, slotID uint64, published bool) error {
    var res sql.Result
    var err error
    if published {
        res, err = tx.ExecContext(ctx,
            `UPDATE slots SET published = 1 WHERE id = ? AND archived = 0`, slotID)
    } else {
        res, err = tx.ExecContext(ctx,
            `UPDATE slots SET published = 0 WHERE id = ?`, slotID)
    }
    if err != nil {
        return classifyConflict(err)
    }
    // The driver reports changed rows, so zero can mean "missing",
    // "already in the requested state" or, for publish, "archived".
    if n, _ := res.RowsAffected(); n == 0 {
        s, gerr := r.GetForUpdateTx(ctx, tx, slotID)
        if gerr != nil {
            return gerr
        }
        if published && s.Archived {
            return service.ErrSlotNotBookable
        }
    }
    return nil
}

// MarkAutoPublishedTx consumes the slot's auto-publish descriptor so
// the scheduler never evaluates it again, even after a manual
// unpublish.
func (r *SlotRepo) MarkAutoPublishedTx(ctx context.Context, tx *sql.Tx, slotID uint64) error {
    _, err := tx.ExecContext(ctx, `UPDATE slots SET auto_published = 1 WHERE id = ?`, slotID)
    return classifyConflict(err)
}

// ArchiveTx retires a slot.  Archiving force-clears the published flag
// so a slot is never both published and archived.
func (r *SlotRepo) ArchiveTx(ctx context.Context, tx *sql.Tx, slotID uint64) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE slots SET archived = 1, published = 0 WHERE id = ?`, slotID)
    if err != nil {
        return classifyConflict(err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        // Archiving an already-archived slot changes nothing; only a
        // missing row is an error.
        if _, gerr := r.GetForUpdateTx(ctx, tx, slotID); gerr != nil {
            return gerr
        }
    }
    return nil
}

// RestoreTx returns an archived slot to draft.  Restoration never
// republishes: the slot lands unpublished regardless of its state
// before archiving.
func (r *SlotRepo) RestoreTx(ctx context.Context, tx *sql.Tx, slotID uint64) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE slots SET archived = 0, published = 0 WHERE id = ?`, slotID)
    if err != nil {
        return classifyConflict(err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        if _, gerr := r.GetForUpdateTx(ctx, tx, slotID); gerr != nil {
            return gerr
        }
    }
    return nil
}

// DeleteTx removes a slot permanently.  Deletion is only permitted when
// no registration references the slot; otherwise service.ErrSlotHasRegistrations is
// returned and the caller should archive instead.
func (r *SlotRepo) DeleteTx(ctx context.Context, tx *sql.Tx, slotID uint64) error {
    var count int
    if err := tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM registrations WHERE slot_id = ?`, slotID).Scan(&count); err != nil {
        return classifyConflict(err)
    }
    if count > 0 {
        return service.ErrSlotHasRegistrations
    }
    res, err := tx.ExecContext(ctx, `DELETE FROM slots WHERE id = ?`, slotID)
    if err != nil {
        return classifyConflict(err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return service.ErrSlotNotFound
    }
    return nil
}
