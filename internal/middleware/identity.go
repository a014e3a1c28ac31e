package middleware

// identity.go defines helper functions shared across middleware and
// handlers.  It provides an actor extraction function that pulls the
// subject claim stored by JWTAuth out of the Echo context; the value
// feeds the audit log's actor column.  When no token is present or no
// relevant claim exists, "guest" is returned.

import (
    "fmt"

    "github.com/labstack/echo/v4"
)

// Actor extracts the authenticated operator's identifier from context.
// It returns "guest" when no user is authenticated or the claim is
// missing.
func Actor(c echo.Context) string {
    v := c.Get("user_id")
    if v == nil {
        return "guest"
    }
    switch s := v.(type) {
    case string:
        if s != "" {
            return s
        }
    case float64:
        // JWT numeric claims decode as float64.
        return fmt.Sprintf("%.0f", s)
    }
    return "guest"
}
