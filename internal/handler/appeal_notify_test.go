package handler

import (
	"context"
	"database/sql/driver"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/renovation-appeals/internal/notify"
	"github.com/iliyamo/renovation-appeals/internal/repository"
)

// fakePusher records every push instead of talking to FCM.
type fakePusher struct{ sent []pushRecord }

type pushRecord struct {
	userID uint64
	title  string
	body   string
	data   map[string]string
}

func (f *fakePusher) Notify(ctx context.Context, userID uint64, title, body string, data map[string]string) notify.DeliveryReport {
	f.sent = append(f.sent, pushRecord{userID: userID, title: title, body: body, data: data})
	return notify.DeliveryReport{SuccessCount: 1}
}

const (
	appealSelect     = "SELECT id,user_id,category_id,status_id,address,description,created_at,updated_at FROM appeals WHERE id=? LIMIT 1"
	appealAttsSelect = "SELECT id,appeal_id,url,file_size,file_type,position FROM appeal_attachments WHERE appeal_id=? ORDER BY position"
	statusByID       = "SELECT id,name FROM appeal_statuses WHERE id=? LIMIT 1"
	statusList       = "SELECT id,name FROM appeal_statuses ORDER BY id LIMIT ? OFFSET ?"
	categoryList     = "SELECT id,name FROM appeal_categories ORDER BY id LIMIT ? OFFSET ?"
	userByID         = "SELECT id,username,email,password_hash,full_name,role,is_active,created_at FROM users WHERE id=? LIMIT 1"
	inspectorsSelect = "SELECT id,username,email,password_hash,full_name,role,is_active,created_at FROM users WHERE role=? AND is_active=1"
	msgInsert        = "INSERT INTO messages (appeal_id, sender_id, content) VALUES (?,?,?)"
	msgAttsSelect    = "SELECT id,message_id,url,file_size,file_type,position FROM message_attachments WHERE message_id IN (?) ORDER BY message_id, position"
	msgByID          = "SELECT id,appeal_id,sender_id,content,created_at FROM messages WHERE id=? LIMIT 1"
)

var testTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newAppealHandler(t *testing.T) (*AppealHandler, sqlmock.Sqlmock, *fakePusher) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	fp := &fakePusher{}
	h := &AppealHandler{
		Appeals:    repository.NewAppealRepo(db),
		Messages:   repository.NewMessageRepo(db),
		Users:      repository.NewUserRepo(db),
		Statuses:   repository.NewStatusRepo(db),
		Categories: repository.NewCategoryRepo(db),
		Notifier:   fp,
	}
	return h, mock, fp
}

func appealRow(statusID uint64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "category_id", "status_id", "address", "description", "created_at", "updated_at"}).
		AddRow(7, 10, 1, statusID, "Lenina 10", "", testTime, testTime)
}

func userRows(cols ...[]driver.Value) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "full_name", "role", "is_active", "created_at"})
	for _, c := range cols {
		rows.AddRow(c...)
	}
	return rows
}

func citizenOwnerRow() *sqlmock.Rows {
	return userRows([]driver.Value{10, "ivan", "ivan@example.com", "x", "", "citizen", true, testTime})
}

func emptyAttachments(cols ...string) *sqlmock.Rows {
	return sqlmock.NewRows(cols)
}

func appealCtx(method, target, body, contentType string, userID uint64, username, role string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("7")
	c.Set("user_id", userID)
	c.Set("username", username)
	c.Set("role", role)
	return c, rec
}

func TestUpdateStatusToNeedsClarificationNotifiesOwnerAndInspectors(t *testing.T) {
	h, mock, fp := newAppealHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(appealSelect)).WithArgs(uint64(7)).WillReturnRows(appealRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(statusByID)).WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "Needs Clarification"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE appeals SET status_id=? WHERE id=?")).
		WithArgs(uint64(3), uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(appealSelect)).WithArgs(uint64(7)).WillReturnRows(appealRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(inspectorsSelect)).WithArgs("inspector").
		WillReturnRows(userRows(
			[]driver.Value{2, "kate", "k@example.com", "x", "", "inspector", true, testTime},
			[]driver.Value{5, "pavel", "p@example.com", "x", "", "inspector", true, testTime},
		))
	mock.ExpectQuery(regexp.QuoteMeta(appealAttsSelect)).WithArgs(uint64(7)).
		WillReturnRows(emptyAttachments("id", "appeal_id", "url", "file_size", "file_type", "position"))
	mock.ExpectQuery(regexp.QuoteMeta(statusList)).WithArgs(1000, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "New").AddRow(3, "Needs Clarification"))
	mock.ExpectQuery(regexp.QuoteMeta(categoryList)).WithArgs(1000, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Other"))

	c, rec := appealCtx(http.MethodPut, "/appeals/7", `{"status_id":3}`, echo.MIMEApplicationJSON, 2, "kate", "inspector")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, fp.sent, 3)
	// the owner's push carries the chat hint
	assert.Equal(t, uint64(10), fp.sent[0].userID)
	assert.Equal(t, "Appeal status updated", fp.sent[0].title)
	assert.Contains(t, fp.sent[0].body, "'Needs Clarification'")
	assert.Contains(t, fp.sent[0].body, "Please check the chat")
	assert.Equal(t, "7", fp.sent[0].data["appeal_id"])
	// every active inspector gets the clarification ping
	assert.Equal(t, uint64(2), fp.sent[1].userID)
	assert.Equal(t, uint64(5), fp.sent[2].userID)
	assert.Equal(t, "Appeal needs clarification", fp.sent[1].title)
	assert.Equal(t, "Appeal needs clarification", fp.sent[2].title)
}

func TestUpdateStatusOrdinaryChangeNotifiesOwnerOnly(t *testing.T) {
	h, mock, fp := newAppealHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(appealSelect)).WithArgs(uint64(7)).WillReturnRows(appealRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(statusByID)).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(5, "Completed"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE appeals SET status_id=? WHERE id=?")).
		WithArgs(uint64(5), uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(appealSelect)).WithArgs(uint64(7)).WillReturnRows(appealRow(5))
	mock.ExpectQuery(regexp.QuoteMeta(appealAttsSelect)).WithArgs(uint64(7)).
		WillReturnRows(emptyAttachments("id", "appeal_id", "url", "file_size", "file_type", "position"))
	mock.ExpectQuery(regexp.QuoteMeta(statusList)).WithArgs(1000, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(5, "Completed"))
	mock.ExpectQuery(regexp.QuoteMeta(categoryList)).WithArgs(1000, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Other"))

	c, rec := appealCtx(http.MethodPut, "/appeals/7", `{"status_id":5}`, echo.MIMEApplicationJSON, 2, "kate", "inspector")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, fp.sent, 1)
	assert.Equal(t, uint64(10), fp.sent[0].userID)
	assert.NotContains(t, fp.sent[0].body, "Please check the chat")
}

func expectMessageInsert(mock sqlmock.Sqlmock, senderID uint64) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(msgInsert)).
		WithArgs(uint64(7), senderID, "hello").
		WillReturnResult(sqlmock.NewResult(33, 1))
	mock.ExpectCommit()
}

func expectMessageReadback(mock sqlmock.Sqlmock, senderID uint64) {
	mock.ExpectQuery(regexp.QuoteMeta(msgAttsSelect)).WithArgs(uint64(33)).
		WillReturnRows(emptyAttachments("id", "message_id", "url", "file_size", "file_type", "position"))
	mock.ExpectQuery(regexp.QuoteMeta(msgByID)).WithArgs(uint64(33)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "appeal_id", "sender_id", "content", "created_at"}).
			AddRow(33, 7, senderID, "hello", testTime))
}

func TestInspectorMessageNotifiesOwner(t *testing.T) {
	h, mock, fp := newAppealHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(appealSelect)).WithArgs(uint64(7)).WillReturnRows(appealRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(userByID)).WithArgs(uint64(10)).WillReturnRows(citizenOwnerRow())
	expectMessageInsert(mock, 2)
	expectMessageReadback(mock, 2)

	c, rec := appealCtx(http.MethodPost, "/appeals/7/messages",
		url.Values{"content": {"hello"}}.Encode(), echo.MIMEApplicationForm, 2, "kate", "inspector")
	require.NoError(t, h.CreateMessage(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	// response carries the stored timestamp, not one minted by the handler
	assert.Contains(t, rec.Body.String(), "2026-08-01T12:00:00Z")

	require.Len(t, fp.sent, 1)
	assert.Equal(t, uint64(10), fp.sent[0].userID)
	assert.Equal(t, "New message", fp.sent[0].title)
	assert.Contains(t, fp.sent[0].body, "Inspector kate")
}

func TestInspectorMessageOnOwnAppealSendsNoPush(t *testing.T) {
	h, mock, fp := newAppealHandler(t)

	// appeal submitted by the same inspector who is now writing in its chat
	ownAppeal := sqlmock.NewRows([]string{"id", "user_id", "category_id", "status_id", "address", "description", "created_at", "updated_at"}).
		AddRow(7, 2, 1, 1, "Lenina 10", "", testTime, testTime)
	mock.ExpectQuery(regexp.QuoteMeta(appealSelect)).WithArgs(uint64(7)).WillReturnRows(ownAppeal)
	mock.ExpectQuery(regexp.QuoteMeta(userByID)).WithArgs(uint64(2)).
		WillReturnRows(userRows([]driver.Value{2, "kate", "k@example.com", "x", "", "inspector", true, testTime}))
	expectMessageInsert(mock, 2)
	expectMessageReadback(mock, 2)

	c, rec := appealCtx(http.MethodPost, "/appeals/7/messages",
		url.Values{"content": {"hello"}}.Encode(), echo.MIMEApplicationForm, 2, "kate", "inspector")
	require.NoError(t, h.CreateMessage(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	// no self-notification
	assert.Empty(t, fp.sent)
}

func TestCitizenMessageNotifiesInspectors(t *testing.T) {
	h, mock, fp := newAppealHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(appealSelect)).WithArgs(uint64(7)).WillReturnRows(appealRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(userByID)).WithArgs(uint64(10)).WillReturnRows(citizenOwnerRow())
	expectMessageInsert(mock, 10)
	mock.ExpectQuery(regexp.QuoteMeta(inspectorsSelect)).WithArgs("inspector").
		WillReturnRows(userRows(
			[]driver.Value{2, "kate", "k@example.com", "x", "", "inspector", true, testTime},
			[]driver.Value{5, "pavel", "p@example.com", "x", "", "inspector", true, testTime},
		))
	expectMessageReadback(mock, 10)

	c, rec := appealCtx(http.MethodPost, "/appeals/7/messages",
		url.Values{"content": {"hello"}}.Encode(), echo.MIMEApplicationForm, 10, "ivan", "citizen")
	require.NoError(t, h.CreateMessage(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, fp.sent, 2)
	assert.Equal(t, uint64(2), fp.sent[0].userID)
	assert.Equal(t, uint64(5), fp.sent[1].userID)
	assert.Equal(t, "New message from citizen", fp.sent[0].title)
	assert.Contains(t, fp.sent[0].body, "User ivan")
}
