package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel values used in getUserID
    "strconv" // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/renovation-appeals/internal/model" // role constants
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// getRole returns the role string stored by the auth middleware, or ""
// when absent.
func getRole(c echo.Context) string {
    if s, ok := c.Get("role").(string); ok {
        return s
    }
    return ""
}

// getUsername returns the username stored by the auth middleware.
func getUsername(c echo.Context) string {
    if s, ok := c.Get("username").(string); ok {
        return s
    }
    return ""
}

// isInspector is a shorthand for the recurring role check.
func isInspector(c echo.Context) bool { return getRole(c) == model.RoleInspector }

// pagination reads skip/limit query parameters with the API-wide
// defaults (skip 0, limit 100).  Negative or malformed values fall back
// to the defaults.
func pagination(c echo.Context) (skip, limit int) {
    skip, limit = 0, 100
    if v := c.QueryParam("skip"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n >= 0 {
            skip = n
        }
    }
    if v := c.QueryParam("limit"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            limit = n
        }
    }
    return skip, limit
}

// pathID parses the numeric :id (or other named) path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    return strconv.ParseUint(c.Param(name), 10, 64)
}
