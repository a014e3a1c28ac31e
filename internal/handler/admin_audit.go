package handler

import (
    "net/http" // HTTP status codes
    "strconv"  // parsing the limit query parameter

    "github.com/iliyamo/slot-reservation/internal/repository" // audit log access
    "github.com/labstack/echo/v4"                             // Echo web framework
)

// AdminAuditHandler exposes the audit trail to operators.
type AdminAuditHandler struct {
    Audit *repository.AuditRepo // audit log repository
}

// NewAdminAuditHandler constructs an AdminAuditHandler.  The repository
// must be non-nil.
func NewAdminAuditHandler(audit *repository.AuditRepo) *AdminAuditHandler {
    if audit == nil {
        panic("nil audit repo passed to NewAdminAuditHandler")
    }
    return &AdminAuditHandler{Audit: audit}
}

// ListAudit handles GET /v1/admin/audit.  It returns the newest audit
// records, newest first.  The optional ?limit query parameter caps the
// page size at 500; the default is 100.
func (h *AdminAuditHandler) ListAudit(c echo.Context) error {
    limit := 100
    if s := c.QueryParam("limit"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil || n < 1 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
        }
        limit = n
    }
    if limit > 500 {
        limit = 500
    }
    records, err := h.Audit.ListRecent(c.Request().Context(), limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load audit log"})
    }
    items := make([]echo.Map, 0, len(records))
    for _, rec := range records {
        items = append(items, echo.Map{
            "id":         rec.ID,
            "action":     rec.Action,
            "actor":      rec.Actor,
            "details":    rec.Details,
            "created_at": rec.CreatedAt,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}
