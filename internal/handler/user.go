package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/renovation-appeals/internal/config"
	"github.com/iliyamo/renovation-appeals/internal/model"
	"github.com/iliyamo/renovation-appeals/internal/repository"
	"github.com/iliyamo/renovation-appeals/internal/utils"
)

// UserHandler bundles dependencies for user management endpoints.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type registerReq struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Role            string `json:"role"` // accepted but ignored: registration always creates citizens
}

type userPatchReq struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

type userResp struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResp(u model.User) userResp {
	return userResp{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// validatePassword enforces the registration password policy: at least 8
// characters, one digit and one uppercase letter.
func validatePassword(pw string) string {
	if len(pw) < 8 {
		return "password must be at least 8 characters"
	}
	var digit, upper bool
	for _, r := range pw {
		if unicode.IsDigit(r) {
			digit = true
		}
		if unicode.IsUpper(r) {
			upper = true
		}
	}
	if !digit {
		return "password must contain at least one digit"
	}
	if !upper {
		return "password must contain at least one uppercase letter"
	}
	return ""
}

// Register handles POST /users/ — public self-registration.  The role
// field in the payload is ignored; everyone registers as a citizen and
// only an inspector can promote them later.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if len(req.Username) < 3 || len(req.Username) > 20 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username must be 3-20 characters"})
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email required"})
	}
	if msg := validatePassword(req.Password); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if req.Password != req.PasswordConfirm {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	}

	ctx := c.Request().Context()
	if taken, err := h.Users.UsernameTaken(ctx, req.Username, 0); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if taken {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already registered"})
	}
	if taken, err := h.Users.EmailTaken(ctx, req.Email, 0); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if taken {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	u := model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         model.RoleCitizen,
		IsActive:     true,
	}
	if err := h.Users.Create(ctx, &u); err != nil {
		switch err {
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already registered"})
		case repository.ErrEmailExists:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	// re-select so the response carries the DB-assigned timestamp
	created, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusCreated, toUserResp(created))
}

// List handles GET /users/ — inspectors only.  Supports skip/limit,
// sort_by (username/email/role/created_at), sort_order (asc/desc) and an
// is_active filter that defaults to active accounts.
func (h *UserHandler) List(c echo.Context) error {
	if !isInspector(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized to view user list"})
	}
	skip, limit := pagination(c)
	p := repository.ListUsersParams{
		Skip:      skip,
		Limit:     limit,
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
	}
	// is_active defaults to showing active accounts; "all" disables the
	// filter entirely.
	if q := strings.ToLower(c.QueryParam("is_active")); q != "all" {
		active := q != "false" && q != "0"
		p.IsActive = &active
	}

	users, err := h.Users.List(c.Request().Context(), p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /users/:id — inspectors may view anyone, citizens only
// themselves.
func (h *UserHandler) Get(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if !isInspector(c) && callerID != id {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized to view this user"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// Update handles PUT /users/:id — partial update.  Citizens may edit only
// their own profile fields; role and is_active changes are reserved for
// inspectors.  Username/email uniqueness is re-checked when either value
// changes.
func (h *UserHandler) Update(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if !isInspector(c) && callerID != id {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized to update this user"})
	}
	var req userPatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if (req.Role != nil || req.IsActive != nil) && !isInspector(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized to change role or active flag"})
	}
	if req.Role != nil && *req.Role != model.RoleCitizen && *req.Role != model.RoleInspector {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx := c.Request().Context()
	current, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if req.Username != nil && strings.TrimSpace(*req.Username) != current.Username {
		if len(strings.TrimSpace(*req.Username)) < 3 || len(strings.TrimSpace(*req.Username)) > 20 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username must be 3-20 characters"})
		}
		if taken, err := h.Users.UsernameTaken(ctx, *req.Username, id); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		} else if taken {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already registered"})
		}
	}
	if req.Email != nil && strings.ToLower(strings.TrimSpace(*req.Email)) != current.Email {
		if taken, err := h.Users.EmailTaken(ctx, *req.Email, id); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		} else if taken {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
	}

	patch := repository.UserPatch{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: req.IsActive,
	}
	if err := h.Users.Update(ctx, id, patch); err != nil {
		switch err {
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already registered"})
		case repository.ErrEmailExists:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toUserResp(updated))
}

// Delete handles DELETE /users/:id — inspectors only.  Deactivation is
// soft and refused while the user owns any appeal outside the terminal
// statuses; a demoted inspector is also forced back to the citizen role
// so the account cannot act on stale permissions if reactivated.
func (h *UserHandler) Delete(c echo.Context) error {
	if !isInspector(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized to delete users"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	open, err := h.Users.HasOpenAppeals(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if open {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete user: user has active appeals"})
	}
	if err := h.Users.Deactivate(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deactivated"})
}
