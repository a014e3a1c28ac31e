package handler

import (
    "errors"   // for errors.Is comparisons
    "net/http" // HTTP status codes
    "strconv"  // parsing path parameters
    "time"     // parsing the publish_at timestamp

    "github.com/iliyamo/slot-reservation/internal/middleware" // actor extraction for the audit trail
    "github.com/iliyamo/slot-reservation/internal/service"    // slot lifecycle service
    "github.com/labstack/echo/v4"                             // Echo web framework
)

// AdminSlotHandler groups the operator-facing slot lifecycle
// endpoints.  All methods assume JWT authentication and role
// validation have already been performed by middleware.  The acting
// operator's identity is taken from the token claims and recorded in
// the audit trail.
type AdminSlotHandler struct {
    Lifecycle *service.Lifecycle // slot lifecycle service
}

// NewAdminSlotHandler constructs an AdminSlotHandler.  The lifecycle
// service must be non-nil.
func NewAdminSlotHandler(lc *service.Lifecycle) *AdminSlotHandler {
    if lc == nil {
        panic("nil lifecycle passed to NewAdminSlotHandler")
    }
    return &AdminSlotHandler{Lifecycle: lc}
}

// CreateSlot handles POST /v1/admin/slots.  The body carries a date
// ("2006-01-02"), start and end times ("15:04"), a positive capacity
// and an optional auto-publish descriptor: either publish_mode "at"
// with an RFC 3339 publish_at, or publish_mode "hours_before" with a
// positive publish_hours_before.  New slots start as unpublished
// drafts with remaining equal to capacity.
func (h *AdminSlotHandler) CreateSlot(c echo.Context) error {
    var body struct {
        Date               string `json:"date"`
        StartTime          string `json:"start_time"`
        EndTime            string `json:"end_time"`
        Capacity           int    `json:"capacity"`
        PublishMode        string `json:"publish_mode"`
        PublishAt          string `json:"publish_at"`
        PublishHoursBefore *int   `json:"publish_hours_before"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    in := service.CreateSlotInput{
        Date:               body.Date,
        StartTime:          body.StartTime,
        EndTime:            body.EndTime,
        Capacity:           body.Capacity,
        PublishMode:        body.PublishMode,
        PublishHoursBefore: body.PublishHoursBefore,
    }
    if body.PublishAt != "" {
        at, err := time.Parse(time.RFC3339, body.PublishAt)
        if err != nil {
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid publish_at timestamp"})
        }
        in.PublishAt = &at
    }
    slot, err := h.Lifecycle.CreateSlot(c.Request().Context(), middleware.Actor(c), in)
    if err != nil {
        if errors.Is(err, service.ErrInvalidSlotInput) {
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create slot"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "id":        slot.ID,
        "date":      slot.Date,
        "capacity":  slot.Capacity,
        "remaining": slot.Remaining,
        "published": slot.Published,
    })
}

// SetPublished handles PATCH /v1/admin/slots/:id/publish.  The body
// carries a boolean "published".  Publishing an archived slot or a
// slot whose window already started returns 409; the slot must be
// restored or rescheduled instead.  Unpublishing always succeeds and
// never re-arms a consumed auto-publish descriptor.
func (h *AdminSlotHandler) SetPublished(c echo.Context) error {
    slotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || slotID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
    }
    var body struct {
        Published bool `json:"published"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    slot, err := h.Lifecycle.SetPublished(c.Request().Context(), middleware.Actor(c), slotID, body.Published)
    if err != nil {
        switch {
        case errors.Is(err, service.ErrSlotNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
        case errors.Is(err, service.ErrSlotNotBookable):
            return c.JSON(http.StatusConflict, echo.Map{"error": "slot cannot be published"})
        case errors.Is(err, service.ErrMaxRetriesExceeded):
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unavailable, please retry"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update slot"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "id":        slot.ID,
        "published": slot.Published,
    })
}

// ArchiveSlot handles POST /v1/admin/slots/:id/archive.  Archiving
// retires the slot from booking and clears its published flag; it is
// idempotent, so archiving an already archived slot returns 204.
func (h *AdminSlotHandler) ArchiveSlot(c echo.Context) error {
    slotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || slotID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
    }
    if err := h.Lifecycle.ArchiveSlot(c.Request().Context(), middleware.Actor(c), slotID); err != nil {
        if errors.Is(err, service.ErrSlotNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to archive slot"})
    }
    return c.NoContent(http.StatusNoContent)
}

// RestoreSlot handles POST /v1/admin/slots/:id/restore.  The slot
// returns to an unpublished draft; it must be published explicitly to
// become bookable again.
func (h *AdminSlotHandler) RestoreSlot(c echo.Context) error {
    slotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || slotID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
    }
    if err := h.Lifecycle.RestoreSlot(c.Request().Context(), middleware.Actor(c), slotID); err != nil {
        if errors.Is(err, service.ErrSlotNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to restore slot"})
    }
    return c.NoContent(http.StatusNoContent)
}

// DeleteSlot handles DELETE /v1/admin/slots/:id.  Deletion is refused
// with 409 while registrations reference the slot; such slots should
// be archived instead so the booking history survives.
func (h *AdminSlotHandler) DeleteSlot(c echo.Context) error {
    slotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || slotID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
    }
    if err := h.Lifecycle.DeleteSlot(c.Request().Context(), middleware.Actor(c), slotID); err != nil {
        switch {
        case errors.Is(err, service.ErrSlotNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
        case errors.Is(err, service.ErrSlotHasRegistrations):
            return c.JSON(http.StatusConflict, echo.Map{"error": "slot has registrations, archive it instead"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete slot"})
    }
    return c.NoContent(http.StatusNoContent)
}

// GetRegistration handles GET /v1/admin/registrations/:id.  Operators
// use it to inspect a booking and its check-in state.
func (h *AdminSlotHandler) GetRegistration(c echo.Context) error {
    regID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || regID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
    }
    reg, err := h.Lifecycle.GetRegistration(c.Request().Context(), regID)
    if err != nil {
        if errors.Is(err, service.ErrRegistrationNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch registration"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "id":             reg.ID,
        "slot_id":        reg.SlotID,
        "name":           reg.Contact.Name,
        "email":          reg.Contact.Email,
        "phone":          reg.Contact.Phone,
        "party_size":     reg.PartySize,
        "checked_in":     reg.CheckedIn,
        "check_in_count": reg.CheckInCount,
        "created_at":     reg.CreatedAt,
    })
}
