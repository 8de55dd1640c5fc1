package handler

import (
	"database/sql"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/renovation-appeals/internal/model"
	"github.com/iliyamo/renovation-appeals/internal/queue"
	queue_publisher "github.com/iliyamo/renovation-appeals/internal/service"
	"github.com/iliyamo/renovation-appeals/internal/storage"
)

type messageResp struct {
	ID        uint64    `json:"id"`
	AppealID  uint64    `json:"appeal_id"`
	SenderID  uint64    `json:"sender_id"`
	Content   string    `json:"content"`
	FilePaths []string  `json:"file_paths"`
	CreatedAt time.Time `json:"created_at"`
}

func toMessageResp(m model.Message, atts []model.Attachment) messageResp {
	urls := make([]string, 0, len(atts))
	for _, att := range atts {
		urls = append(urls, att.URL)
	}
	return messageResp{
		ID:        m.ID,
		AppealID:  m.AppealID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		FilePaths: urls,
		CreatedAt: m.CreatedAt,
	}
}

// loadAppealForChat fetches the appeal behind a chat route and applies
// the shared access rule: the submitting citizen and any inspector may
// read or write the chat, everyone else gets 403.  The returned error is
// already a JSON response.
func (h *AppealHandler) loadAppealForChat(c echo.Context) (model.Appeal, error) {
	callerID, err := getUserID(c)
	if err != nil {
		return model.Appeal{}, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return model.Appeal{}, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	a, err := h.Appeals.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Appeal{}, c.JSON(http.StatusNotFound, echo.Map{"error": "appeal not found"})
		}
		return model.Appeal{}, c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !isInspector(c) && a.UserID != callerID {
		return model.Appeal{}, c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized to access this appeal"})
	}
	return a, nil
}

// ListMessages handles GET /appeals/:id/messages/.  Messages come back
// oldest first.  Besides skip/limit, clients may pass last_message_id to
// fetch only messages newer than the ones they already have; mobile
// clients poll the chat with that cursor.
func (h *AppealHandler) ListMessages(c echo.Context) error {
	a, err := h.loadAppealForChat(c)
	if err != nil {
		return err
	}
	skip, limit := pagination(c)
	var sinceID uint64
	if v := c.QueryParam("last_message_id"); v != "" {
		if n, perr := strconv.ParseUint(v, 10, 64); perr == nil {
			sinceID = n
		}
	}

	ctx := c.Request().Context()
	msgs, err := h.Messages.ListByAppeal(ctx, a.ID, skip, limit, sinceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	ids := make([]uint64, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	attsByMsg, err := h.Messages.AttachmentsByMessage(ctx, ids)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]messageResp, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResp(m, attsByMsg[m.ID]))
	}
	return c.JSON(http.StatusOK, out)
}

// CreateMessage handles POST /appeals/:id/messages/.  The request is
// multipart with an optional content field and any number of files; a
// message carrying neither text nor files is rejected.  Chat blobs are
// renamed to generated unique filenames so concurrent uploads in one
// conversation never collide.  Delivery fan-out depends on who wrote:
// a citizen's message notifies the inspectors, an inspector's message
// notifies the submitting citizen.  Nobody is ever notified about their
// own message, including an inspector chatting on an appeal they
// submitted themselves.
func (h *AppealHandler) CreateMessage(c echo.Context) error {
	a, err := h.loadAppealForChat(c)
	if err != nil {
		return err
	}
	callerID, _ := getUserID(c)

	content := strings.TrimSpace(c.FormValue("content"))
	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File["files"]
	}
	if content == "" && len(files) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message must contain text or files"})
	}

	ctx := c.Request().Context()
	owner, err := h.Users.GetByID(ctx, a.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	msg := model.Message{AppealID: a.ID, SenderID: callerID, Content: content}
	err = h.Messages.CreateWithAttachments(ctx, &msg, func(messageID uint64) ([]model.Attachment, error) {
		var atts []model.Attachment
		for _, fh := range files {
			// keep the original extension, replace the rest of the name
			name := uuid.NewString() + fileExt(fh)
			key := storage.ChatObjectKey(owner.Username, a.ID, a.Address, messageID, name)
			att, err := h.uploadOne(c, fh, key)
			if err != nil {
				return nil, err
			}
			atts = append(atts, att)
		}
		return atts, nil
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create message failed"})
	}

	suffix := ""
	if len(files) > 0 {
		suffix = " (attachments)"
	}
	sender := getUsername(c)
	if isInspector(c) {
		// an inspector writing on their own appeal gets no self-push
		if a.UserID != callerID {
			h.notifyUser(c, a.UserID, "New message",
				fmt.Sprintf("Inspector %s sent a message on your appeal '%s'.%s", sender, a.Address, suffix),
				a.ID)
		}
	} else {
		h.notifyInspectors(c, "New message from citizen",
			fmt.Sprintf("User %s sent a message on appeal '%s'.%s", sender, a.Address, suffix),
			a.ID, callerID)
	}
	_ = queue_publisher.PublishAppealEvent(ctx, queue.AppealEvent{
		Kind:      queue.KindMessageCreated,
		AppealID:  a.ID,
		UserID:    callerID,
		Username:  sender,
		Address:   a.Address,
		MessageID: msg.ID,
	})

	atts, err := h.Messages.AttachmentsByMessage(ctx, []uint64{msg.ID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	// re-select so the response carries the DB-assigned timestamp
	created, err := h.Messages.GetByID(ctx, msg.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusCreated, toMessageResp(created, atts[msg.ID]))
}
