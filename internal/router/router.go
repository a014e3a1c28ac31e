package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/slot-reservation/internal/config"     // rate limit configuration
    "github.com/iliyamo/slot-reservation/internal/handler"    // import the handlers that implement business logic
    "github.com/iliyamo/slot-reservation/internal/middleware" // import middleware for JWT authentication, roles and rate limiting
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health
// check, which load balancers and monitoring systems use to verify the
// service is up.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated attendee-facing routes:
// browsing bookable slots, creating a reservation and checking in.
// The reservation endpoint is rate limited per client to damp
// hot-slot stampedes; when rdb is nil the limiter degrades to a
// pass-through, so the routes work without Redis in development.
func RegisterPublic(e *echo.Echo, slots *handler.PublicSlotHandler, booking *handler.BookingHandler, checkin *handler.CheckInHandler, rdb *redis.Client) {
    e.GET("/v1/slots", slots.ListSlots)

    limited := e.Group("/v1/slots/:id/reservations")
    limited.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    limited.POST("", booking.Reserve)

    // Check-in is idempotent, so it carries no limiter; staff devices
    // may retry freely on flaky venue networks.
    e.POST("/v1/registrations/:id/checkin", checkin.ConfirmCheckIn)
}

// RegisterAdmin registers the operator-facing lifecycle routes under
// /v1/admin.  Every route requires a valid access token with the
// admin role; the JWTAuth middleware stores the token claims on the
// context so handlers can attribute audit records to the operator.
func RegisterAdmin(e *echo.Echo, admin *handler.AdminSlotHandler, audit *handler.AdminAuditHandler, jwtSecret string) {
    g := e.Group("/v1/admin")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole("admin"))

    g.POST("/slots", admin.CreateSlot)
    g.PATCH("/slots/:id/publish", admin.SetPublished)
    g.POST("/slots/:id/archive", admin.ArchiveSlot)
    g.POST("/slots/:id/restore", admin.RestoreSlot)
    g.DELETE("/slots/:id", admin.DeleteSlot)
    g.GET("/registrations/:id", admin.GetRegistration)
    g.GET("/audit", audit.ListAudit)
}
