package handler

import (
	"database/sql" // sentinel for missing user rows
	"net/http"     // HTTP status codes and primitives
	"strings"      // string manipulation utilities

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/renovation-appeals/internal/config"     // app configuration
	"github.com/iliyamo/renovation-appeals/internal/repository" // DB repositories
	"github.com/iliyamo/renovation-appeals/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for the token endpoint.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token handles POST /token.  Credentials arrive as form fields
// (username, password) the way OAuth2 password flows post them.  Both a
// wrong password and an unknown username answer with the same 401 so the
// endpoint does not leak which usernames exist; an inactive account is
// reported distinctly since the client already proved the credentials.
func (h *AuthHandler) Token(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	if username == "" || password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	u, err := h.Users.GetByUsername(c.Request().Context(), username)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "incorrect username or password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "incorrect username or password"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user is inactive"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.Username, u.Role, u.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{AccessToken: access.Token, TokenType: "bearer"})
}
