package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "database/sql" // sentinel for missing user rows
    "net/http"     // HTTP status codes for responses
    "strings"      // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/renovation-appeals/internal/repository" // user lookups for the freshness check
    "github.com/iliyamo/renovation-appeals/internal/utils"      // token parsing
)

// Auth returns an Echo middleware that validates a Bearer access token,
// re-loads the user it names and injects identity into the request
// context.  Beyond signature and expiry checks, the middleware enforces
// two freshness rules against the current users row: the account must
// still be active, and the role stored in the database must match the
// role embedded in the token.  The role check invalidates tokens issued
// before a role change, so a demoted inspector cannot keep acting on a
// stale token.  Handlers downstream read `c.Get("user_id")` (uint64),
// `c.Get("username")` and `c.Get("role")` (strings).
func Auth(secret string, users *repository.UserRepo) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // Read the Authorization header.  A valid header starts with
            // "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            u, err := users.GetByUsername(c.Request().Context(), claims.Username)
            if err != nil {
                if err == sql.ErrNoRows {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
                }
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
            }
            if !u.IsActive {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "inactive user"})
            }
            // A role mismatch means the token predates a role change.
            if u.Role != claims.Role {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            c.Set("user_id", u.ID)
            c.Set("username", u.Username)
            c.Set("role", u.Role)
            return next(c)
        }
    }
}
