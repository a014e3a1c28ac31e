package handler

import (
    "net/http" // HTTP status codes
    "time"     // evaluation instant for the bookable filter

    "github.com/iliyamo/slot-reservation/internal/service" // lifecycle service for listing
    "github.com/labstack/echo/v4"                          // Echo web framework
)

// PublicSlotHandler serves the unauthenticated slot listing that
// attendees browse before booking.
type PublicSlotHandler struct {
    Lifecycle *service.Lifecycle // slot lifecycle service
}

// NewPublicSlotHandler constructs a PublicSlotHandler.  The lifecycle
// service must be non-nil.
func NewPublicSlotHandler(lc *service.Lifecycle) *PublicSlotHandler {
    if lc == nil {
        panic("nil lifecycle passed to NewPublicSlotHandler")
    }
    return &PublicSlotHandler{Lifecycle: lc}
}

// ListSlots handles GET /v1/slots.  It returns the currently bookable
// slots: published, not archived, dated today or later in the
// organization's timezone, ordered by date then start time.  Seats
// remaining are included so clients can show availability, though the
// authoritative check still happens at booking time.
func (h *PublicSlotHandler) ListSlots(c echo.Context) error {
    slots, err := h.Lifecycle.ListBookableSlots(c.Request().Context(), time.Now())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load slots"})
    }
    items := make([]echo.Map, 0, len(slots))
    for _, s := range slots {
        items = append(items, echo.Map{
            "id":         s.ID,
            "date":       s.Date,
            "start_time": s.StartTime,
            "end_time":   s.EndTime,
            "capacity":   s.Capacity,
            "remaining":  s.Remaining,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}
