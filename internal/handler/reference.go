package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/renovation-appeals/internal/repository"
)

// ReferenceHandler serves CRUD for one reference table (statuses or
// categories).  Two instances are registered, one per table; reads are
// public, mutations are restricted to inspectors at the routing layer.
type ReferenceHandler struct {
	Repo *repository.RefRepo

	// noun appears in error messages ("status not found").
	noun string
}

func NewStatusHandler(repo *repository.RefRepo) *ReferenceHandler {
	return &ReferenceHandler{Repo: repo, noun: "status"}
}

func NewCategoryHandler(repo *repository.RefRepo) *ReferenceHandler {
	return &ReferenceHandler{Repo: repo, noun: "category"}
}

type refNameReq struct {
	Name string `json:"name"`
}

// Create handles POST — inspectors only.
func (h *ReferenceHandler) Create(c echo.Context) error {
	var req refNameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must be 1-100 characters"})
	}
	id, err := h.Repo.Create(c.Request().Context(), name)
	if err != nil {
		if err == repository.ErrNameExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": h.noun + " with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, refResp{ID: id, Name: name})
}

// List handles GET — public, so citizens can fill the submission form
// before logging in.
func (h *ReferenceHandler) List(c echo.Context) error {
	skip, limit := pagination(c)
	rows, err := h.Repo.List(c.Request().Context(), skip, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]refResp, 0, len(rows))
	for _, r := range rows {
		out = append(out, refResp{ID: r.ID, Name: r.Name})
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET by id — public.
func (h *ReferenceHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	row, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": h.noun + " not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, refResp{ID: row.ID, Name: row.Name})
}

// Update handles PUT — inspectors only.
func (h *ReferenceHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req refNameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must be 1-100 characters"})
	}
	if err := h.Repo.UpdateName(c.Request().Context(), id, name); err != nil {
		switch err {
		case repository.ErrNameExists:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": h.noun + " with this name already exists"})
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": h.noun + " not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, refResp{ID: id, Name: name})
}

// Delete handles DELETE — inspectors only.  A row still referenced by an
// appeal is refused so historical appeals never point at nothing.
func (h *ReferenceHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case repository.ErrInUse:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete " + h.noun + ": it is used by existing appeals"})
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": h.noun + " not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": h.noun + " deleted"})
}
