package handler

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/renovation-appeals/internal/config"
	"github.com/iliyamo/renovation-appeals/internal/model"
	"github.com/iliyamo/renovation-appeals/internal/notify"
	"github.com/iliyamo/renovation-appeals/internal/queue"
	"github.com/iliyamo/renovation-appeals/internal/repository"
	queue_publisher "github.com/iliyamo/renovation-appeals/internal/service"
	"github.com/iliyamo/renovation-appeals/internal/storage"
)

// Pusher delivers a push notification to one user's devices.  Satisfied
// by *notify.Notifier; tests substitute a recording fake.
type Pusher interface {
	Notify(ctx context.Context, userID uint64, title, body string, data map[string]string) notify.DeliveryReport
}

// AppealHandler bundles everything the appeal and chat endpoints need:
// repositories, the blob store and the push notifier.
type AppealHandler struct {
	Cfg        config.Config
	Appeals    *repository.AppealRepo
	Messages   *repository.MessageRepo
	Users      *repository.UserRepo
	Statuses   *repository.RefRepo
	Categories *repository.RefRepo
	Store      *storage.Store
	Notifier   Pusher
}

func NewAppealHandler(cfg config.Config, appeals *repository.AppealRepo, messages *repository.MessageRepo, users *repository.UserRepo, statuses, categories *repository.RefRepo, store *storage.Store, notifier Pusher) *AppealHandler {
	return &AppealHandler{
		Cfg:        cfg,
		Appeals:    appeals,
		Messages:   messages,
		Users:      users,
		Statuses:   statuses,
		Categories: categories,
		Store:      store,
		Notifier:   notifier,
	}
}

// ----- DTOs -----

type refResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type appealResp struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	Status      refResp   `json:"status"`
	Category    refResp   `json:"category"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	FilePaths   []string  `json:"file_paths"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type appealPatchReq struct {
	Address     *string `json:"address"`
	Description *string `json:"description"`
	CategoryID  *uint64 `json:"category_id"`
	StatusID    *uint64 `json:"status_id"`
}

// refNames loads one reference table into an id->name map.  Both tables
// hold a handful of rows, so loading them whole per request is cheaper
// than joining on every listing.
func refNames(c echo.Context, repo *repository.RefRepo) (map[uint64]string, error) {
	rows, err := repo.List(c.Request().Context(), 0, 1000)
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Name
	}
	return out, nil
}

func toAppealResp(a model.Appeal, atts []model.Attachment, statusNames, categoryNames map[uint64]string) appealResp {
	urls := make([]string, 0, len(atts))
	for _, att := range atts {
		urls = append(urls, att.URL)
	}
	return appealResp{
		ID:          a.ID,
		UserID:      a.UserID,
		Status:      refResp{ID: a.StatusID, Name: statusNames[a.StatusID]},
		Category:    refResp{ID: a.CategoryID, Name: categoryNames[a.CategoryID]},
		Address:     a.Address,
		Description: a.Description,
		FilePaths:   urls,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// Create handles POST /appeals/.  The request is multipart: address and
// category_id fields, an optional description, and exactly two files (one
// image, one PDF).  The submitter is always the authenticated caller and
// the initial status is always "New".  Appeal row, attachment rows and
// blob uploads succeed or fail together; on success every active
// inspector gets a push notification.
func (h *AppealHandler) Create(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	username := getUsername(c)

	address := strings.TrimSpace(c.FormValue("address"))
	if len(address) < 5 || len(address) > 255 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "address must be 5-255 characters"})
	}
	categoryID, err := strconv.ParseUint(c.FormValue("category_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category_id is required"})
	}
	description := c.FormValue("description")

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "multipart form required"})
	}
	image, pdf, errMsg := classifyAppealFiles(form.File["files"])
	if errMsg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": errMsg})
	}

	ctx := c.Request().Context()
	if _, err := h.Categories.GetByID(ctx, categoryID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "category not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	newStatus, err := h.Statuses.GetByName(ctx, model.StatusNew)
	if err != nil {
		// The seed guarantees this row; losing it is an operational fault.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "default status missing"})
	}

	appeal := model.Appeal{
		UserID:      callerID,
		CategoryID:  categoryID,
		StatusID:    newStatus.ID,
		Address:     address,
		Description: description,
	}
	err = h.Appeals.CreateWithAttachments(ctx, &appeal, func(appealID uint64) ([]model.Attachment, error) {
		var atts []model.Attachment
		for _, fh := range []*multipart.FileHeader{image, pdf} {
			key := storage.AppealObjectKey(username, appealID, address, fh.Filename)
			att, err := h.uploadOne(c, fh, key)
			if err != nil {
				return nil, err
			}
			atts = append(atts, att)
		}
		return atts, nil
	})
	if err != nil {
		log.Printf("appeal create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create appeal failed"})
	}

	// Side effects after commit: pushes and the event stream.  Both are
	// best-effort and never fail the request.
	h.notifyInspectors(c, "New appeal",
		fmt.Sprintf("New appeal '%s' submitted by %s.", appeal.Address, username),
		appeal.ID, 0)
	_ = queue_publisher.PublishAppealEvent(ctx, queue.AppealEvent{
		Kind:     queue.KindAppealCreated,
		AppealID: appeal.ID,
		UserID:   callerID,
		Username: username,
		Address:  appeal.Address,
	})

	atts, err := h.Appeals.Attachments(ctx, appeal.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	statusNames := map[uint64]string{newStatus.ID: newStatus.Name}
	categoryNames, err := refNames(c, h.Categories)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	created, err := h.Appeals.GetByID(ctx, appeal.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusCreated, toAppealResp(created, atts, statusNames, categoryNames))
}

// uploadOne streams one multipart file into the blob store and describes
// it as an attachment.
func (h *AppealHandler) uploadOne(c echo.Context, fh *multipart.FileHeader, key string) (model.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return model.Attachment{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	url, err := h.Store.Put(c.Request().Context(), key, f, fh.Header.Get("Content-Type"))
	if err != nil {
		return model.Attachment{}, fmt.Errorf("upload %s: %w", fh.Filename, err)
	}
	return model.Attachment{URL: url, FileSize: fh.Size, FileType: fileExt(fh)}, nil
}

// List handles GET /appeals/.  Citizens see only their own appeals,
// inspectors see everything, any other role is rejected.  Supports
// skip/limit, sorting (address/status_id/category_id/created_at, default
// created_at desc) and status_id/category_id filters.
func (h *AppealHandler) List(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	skip, limit := pagination(c)
	p := repository.ListAppealsParams{
		Skip:      skip,
		Limit:     limit,
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
	}
	switch getRole(c) {
	case model.RoleCitizen:
		p.UserID = &callerID
	case model.RoleInspector:
		// unrestricted
	default:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not enough permissions"})
	}
	if v := c.QueryParam("status_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			p.StatusID = &id
		}
	}
	if v := c.QueryParam("category_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			p.CategoryID = &id
		}
	}

	ctx := c.Request().Context()
	appeals, err := h.Appeals.List(ctx, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	ids := make([]uint64, 0, len(appeals))
	for _, a := range appeals {
		ids = append(ids, a.ID)
	}
	attsByAppeal, err := h.Appeals.AttachmentsByAppeal(ctx, ids)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	statusNames, err := refNames(c, h.Statuses)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	categoryNames, err := refNames(c, h.Categories)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]appealResp, 0, len(appeals))
	for _, a := range appeals {
		out = append(out, toAppealResp(a, attsByAppeal[a.ID], statusNames, categoryNames))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /appeals/:id.  A missing appeal is 404 for everyone;
// an existing appeal someone else submitted is 403 for citizens.
func (h *AppealHandler) Get(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	a, err := h.Appeals.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "appeal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !isInspector(c) && a.UserID != callerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized to access this appeal"})
	}

	atts, err := h.Appeals.Attachments(ctx, a.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	statusNames, err := refNames(c, h.Statuses)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	categoryNames, err := refNames(c, h.Categories)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toAppealResp(a, atts, statusNames, categoryNames))
}

// Update handles PUT /appeals/:id — inspectors only.  Fields absent from
// the JSON payload stay untouched.  A status change notifies the
// submitting citizen; moving to "Needs Clarification" additionally pings
// every active inspector and asks the citizen to check the chat.
func (h *AppealHandler) Update(c echo.Context) error {
	if !isInspector(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized to update this appeal"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req appealPatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Address != nil {
		trimmed := strings.TrimSpace(*req.Address)
		if len(trimmed) < 5 || len(trimmed) > 255 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "address must be 5-255 characters"})
		}
	}

	ctx := c.Request().Context()
	a, err := h.Appeals.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "appeal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if req.CategoryID != nil {
		if _, err := h.Categories.GetByID(ctx, *req.CategoryID); err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "category not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}
	var newStatusName string
	statusChanged := false
	if req.StatusID != nil {
		status, err := h.Statuses.GetByID(ctx, *req.StatusID)
		if err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "status not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		statusChanged = a.StatusID != *req.StatusID
		newStatusName = status.Name
	}

	patch := repository.AppealPatch{
		Address:     req.Address,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		StatusID:    req.StatusID,
	}
	if err := h.Appeals.Update(ctx, id, patch); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, err := h.Appeals.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if statusChanged {
		body := fmt.Sprintf("The status of your appeal '%s' changed to '%s'.", updated.Address, newStatusName)
		if newStatusName == model.StatusNeedsClarification {
			body += " Please check the chat."
		}
		h.notifyUser(c, updated.UserID, "Appeal status updated", body, updated.ID)
		if newStatusName == model.StatusNeedsClarification {
			h.notifyInspectors(c, "Appeal needs clarification",
				fmt.Sprintf("Appeal '%s' was moved to '%s'.", updated.Address, newStatusName),
				updated.ID, 0)
		}
		_ = queue_publisher.PublishAppealEvent(ctx, queue.AppealEvent{
			Kind:       queue.KindStatusChanged,
			AppealID:   updated.ID,
			UserID:     updated.UserID,
			Username:   getUsername(c),
			Address:    updated.Address,
			StatusName: newStatusName,
		})
	}

	atts, err := h.Appeals.Attachments(ctx, updated.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	statusNames, err := refNames(c, h.Statuses)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	categoryNames, err := refNames(c, h.Categories)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toAppealResp(updated, atts, statusNames, categoryNames))
}

// notifyUser pushes one notification to a single user, best-effort.
func (h *AppealHandler) notifyUser(c echo.Context, userID uint64, title, body string, appealID uint64) {
	data := map[string]string{"appeal_id": strconv.FormatUint(appealID, 10)}
	h.Notifier.Notify(c.Request().Context(), userID, title, body, data)
}

// notifyInspectors pushes a notification to every active inspector,
// skipping excludeID (used so a sender does not notify themselves).
func (h *AppealHandler) notifyInspectors(c echo.Context, title, body string, appealID, excludeID uint64) {
	inspectors, err := h.Users.ListActiveInspectors(c.Request().Context())
	if err != nil {
		log.Printf("listing inspectors for notification failed: %v", err)
		return
	}
	data := map[string]string{"appeal_id": strconv.FormatUint(appealID, 10)}
	for _, insp := range inspectors {
		if insp.ID == excludeID {
			continue
		}
		h.Notifier.Notify(c.Request().Context(), insp.ID, title, body, data)
	}
}
