package handler

import (
    "errors"   // for errors.Is comparisons
    "net/http" // HTTP status codes
    "strconv"  // parsing path parameters

    "github.com/iliyamo/slot-reservation/internal/model"   // contact value passed to the allocator
    "github.com/iliyamo/slot-reservation/internal/service" // reservation engine and its sentinel errors
    "github.com/labstack/echo/v4"                          // Echo web framework
)

// BookingHandler exposes the attendee-facing reservation endpoint.  All
// concurrency control lives in the allocator; the handler only binds
// the request, invokes it and translates the outcome into a status
// code.  Reservations are anonymous, so no authentication middleware
// runs in front of these routes.
type BookingHandler struct {
    Allocator *service.Allocator // transactional seat allocator
}

// NewBookingHandler constructs a BookingHandler.  The allocator must
// be non-nil.
func NewBookingHandler(alloc *service.Allocator) *BookingHandler {
    if alloc == nil {
        panic("nil allocator passed to NewBookingHandler")
    }
    return &BookingHandler{Allocator: alloc}
}

// Reserve handles POST /v1/slots/:id/reservations.  The request body
// must contain the attendee's contact details and a positive
// party_size.  On success it returns 201 Created with the registration
// ID and the check-in token.  A full slot and an unpublished or
// archived slot both return 409; a party size outside the allowed
// range returns 422; exhausted storage retries return 503, in which
// case no registration was created and the client may simply retry.
func (h *BookingHandler) Reserve(c echo.Context) error {
    slotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || slotID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
    }
    var body struct {
        Name      string `json:"name"`
        Email     string `json:"email"`
        Phone     string `json:"phone"`
        PartySize int    `json:"party_size"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }
    contact := model.Contact{Name: body.Name, Email: body.Email, Phone: body.Phone}
    reg, err := h.Allocator.Reserve(c.Request().Context(), slotID, contact, body.PartySize)
    if err != nil {
        switch {
        case errors.Is(err, service.ErrInvalidPartySize):
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid party size"})
        case errors.Is(err, service.ErrSlotNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
        case errors.Is(err, service.ErrSlotNotBookable):
            return c.JSON(http.StatusConflict, echo.Map{"error": "slot is not open for booking"})
        case errors.Is(err, service.ErrSlotFull):
            return c.JSON(http.StatusConflict, echo.Map{"error": "not enough seats remaining"})
        case errors.Is(err, service.ErrMaxRetriesExceeded):
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unable to book, please retry"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "registration_id": reg.ID,
        "slot_id":         slotID,
        "party_size":      reg.PartySize,
        "check_in_token":  reg.CheckInToken,
    })
}
