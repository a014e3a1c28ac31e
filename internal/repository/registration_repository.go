package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/slot-reservation/internal/model"
    "github.com/iliyamo/slot-reservation/internal/service"
)

const registrationColumns = `id, slot_id, name, email, phone, party_size,
    checked_in, check_in_count, check_in_token, created_at, updated_at`

// RegistrationRepo provides persistence for registrations.  Rows are
// created inside the booking transaction, mutated once (or idempotently
// re-confirmed) at check-in and never deleted.
type RegistrationRepo struct {
    db *sql.DB
}

// NewRegistrationRepo returns a new RegistrationRepo bound to the given
// database.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

func scanRegistration(row rowScanner, reg *model.Registration) error {
    var slotID sql.NullInt64
    var count sql.NullInt64
    var token sql.NullString
    err := row.Scan(
        &reg.ID, &slotID, &reg.Contact.Name, &reg.Contact.Email, &reg.Contact.Phone,
        &reg.PartySize, &reg.CheckedIn, &count, &token, &reg.CreatedAt, &reg.UpdatedAt,
    )
    if err != nil {
        return err
    }
    if slotID.Valid {
        id := uint64(slotID.Int64)
        reg.SlotID = &id
    }
    if count.Valid {
        n := int(count.Int64)
        reg.CheckInCount = &n
    }
    if token.Valid {
        reg.CheckInToken = token.String
    }
    return nil
}

// CreateTx inserts a new registration within the scope of an existing
// transaction and populates the generated ID.  The check-in token is
// intentionally absent here; it is generated after the booking
// transaction commits so token generation can never roll back a
// reservation.
func (r *RegistrationRepo) CreateTx(ctx context.Context, tx *sql.Tx, reg *model.Registration) error {
    const q = `INSERT INTO registrations (slot_id, name, email, phone, party_size, checked_in)
        VALUES (?, ?, ?, ?, ?, 0)`
    res, err := tx.ExecContext(ctx, q,
        reg.SlotID, reg.Contact.Name, reg.Contact.Email, reg.Contact.Phone, reg.PartySize)
    if err != nil {
        return classifyConflict(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    reg.ID = uint64(id)
    return nil
}

// GetByID returns a single registration or service.ErrRegistrationNotFound.
func (r *RegistrationRepo) GetByID(ctx context.Context, id uint64) (*model.Registration, error) {
    const q = `SELECT ` + registrationColumns + ` FROM registrations WHERE id = ?`
    var reg model.Registration
    if err := scanRegistration(r.db.QueryRowContext(ctx, q, id), &reg); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, service.ErrRegistrationNotFound
        }
        return nil, err
    }
    return &reg, nil
}

// GetForUpdateTx loads a registration inside a transaction with an
// exclusive row lock, serializing concurrent check-in attempts for the
// same registration.
func (r *RegistrationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Registration, error) {
    const q = `SELECT ` + registrationColumns + ` FROM registrations WHERE id = ? FOR UPDATE`
    var reg model.Registration
    if err := scanRegistration(tx.QueryRowContext(ctx, q, id), &reg); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, service.ErrRegistrationNotFound
        }
        return nil, classifyConflict(err)
    }
    return &reg, nil
}

// RecordCheckInTx marks the registration as checked in with the given
// attendee count.  The checked_in flag is monotonic; repeated calls
// only ever update the count.
func (r *RegistrationRepo) RecordCheckInTx(ctx context.Context, tx *sql.Tx, id uint64, count int) error {
    const q = `UPDATE registrations SET checked_in = 1, check_in_count = ? WHERE id = ?`
    res, err := tx.ExecContext(ctx, q, count, id)
    if err != nil {
        return classifyConflict(err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return service.ErrRegistrationNotFound
    }
    return nil
}

// SetCheckInToken stores the scannable token generated for a
// registration.  It runs outside the booking transaction as a
// best-effort post-commit step.
func (r *RegistrationRepo) SetCheckInToken(ctx context.Context, id uint64, token string) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE registrations SET check_in_token = ? WHERE id = ?`, token, id)
    return err
}
