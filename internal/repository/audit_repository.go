package repository

import (
    "context"
    "database/sql"
    "log"
    "time"

    "github.com/iliyamo/slot-reservation/internal/model"
)

// AuditRepo appends immutable records to the audit log.  Audit writes
// are best-effort side effects: they run outside the business
// transaction and a failed insert is logged and swallowed so a
// successful operation is never reported as failed because of it.
type AuditRepo struct {
    db *sql.DB
}

// NewAuditRepo returns a new AuditRepo bound to the given database.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Record inserts one audit row.  Errors are logged, never returned.
func (r *AuditRepo) Record(ctx context.Context, action, actor, details string) {
    const q = `INSERT INTO audit_log (action, actor, details) VALUES (?, ?, ?)`
    if _, err := r.db.ExecContext(ctx, q, action, actor, details); err != nil {
        log.Printf("audit: record %s by %s failed: %v", action, actor, err)
    }
}

// ListRecent returns the newest audit records up to limit, newest
// first.  Display of the audit trail belongs to the surrounding
// application; this accessor exists for operational inspection.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]model.AuditRecord, error) {
    const q = `SELECT id, action, actor, details, created_at FROM audit_log
        ORDER BY id DESC LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    records := make([]model.AuditRecord, 0, limit)
    for rows.Next() {
        var rec model.AuditRecord
        var at time.Time
        if err := rows.Scan(&rec.ID, &rec.Action, &rec.Actor, &rec.Details, &at); err != nil {
            return nil, err
        }
        rec.CreatedAt = at.UTC()
        records = append(records, rec)
    }
    return records, rows.Err()
}
