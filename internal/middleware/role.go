package middleware

import (
    "net/http" // standard HTTP status codes

    "github.com/labstack/echo/v4"
)

// RequireRole returns a middleware that rejects requests whose "role"
// claim is not in the allowed set.  It assumes JWTAuth already stored
// the claim on the context; a missing or non-string role is treated as
// forbidden, never as a pass.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
