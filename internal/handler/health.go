package handler // package handler implements the HTTP endpoints

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health answers liveness probes with a plain "ok".  It deliberately
// touches no dependencies: the service can accept traffic while Redis
// or the broker are degraded.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}
