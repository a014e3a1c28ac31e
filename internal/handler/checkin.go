package handler

import (
    "errors"   // for errors.Is comparisons
    "net/http" // HTTP status codes
    "strconv"  // parsing path parameters

    "github.com/iliyamo/slot-reservation/internal/service" // check-in reconciler and sentinel errors
    "github.com/labstack/echo/v4"                          // Echo web framework
)

// CheckInHandler exposes the on-site check-in endpoint.  Repeated
// identical submissions are harmless; the reconciler treats them as
// confirmations of the recorded state.
type CheckInHandler struct {
    Reconciler *service.Reconciler // idempotent check-in reconciler
}

// NewCheckInHandler constructs a CheckInHandler.  The reconciler must
// be non-nil.
func NewCheckInHandler(rec *service.Reconciler) *CheckInHandler {
    if rec == nil {
        panic("nil reconciler passed to NewCheckInHandler")
    }
    return &CheckInHandler{Reconciler: rec}
}

// ConfirmCheckIn handles POST /v1/registrations/:id/checkin.  The body
// carries a "count" of attendees actually present, between one and the
// registration's party size.  Re-submitting the same count is a no-op
// returning 200.  A differing count is applied as a correction when
// corrections are enabled, releasing or reclaiming seats on the slot;
// a correction that would violate the slot's capacity bounds, and a
// differing count while corrections are disabled, both return 409.
func (h *CheckInHandler) ConfirmCheckIn(c echo.Context) error {
    regID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || regID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
    }
    var body struct {
        Count int `json:"count"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    reg, err := h.Reconciler.ConfirmCheckIn(c.Request().Context(), regID, body.Count)
    if err != nil {
        switch {
        case errors.Is(err, service.ErrInvalidCheckInCount):
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid check-in count"})
        case errors.Is(err, service.ErrRegistrationNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
        case errors.Is(err, service.ErrCheckInFinal):
            return c.JSON(http.StatusConflict, echo.Map{"error": "check-in already recorded"})
        case errors.Is(err, service.ErrCapacityConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "correction conflicts with slot capacity"})
        case errors.Is(err, service.ErrMaxRetriesExceeded):
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unable to check in, please retry"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record check-in"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "registration_id": reg.ID,
        "checked_in":      reg.CheckedIn,
        "check_in_count":  reg.CheckInCount,
    })
}
