package handler

import (
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

	"github.com/iliyamo/renovation-appeals/internal/config"
	"github.com/iliyamo/renovation-appeals/internal/repository"
	"github.com/iliyamo/renovation-appeals/internal/utils"
)

const userSelectByName = "SELECT id,username,email,password_hash,full_name,role,is_active,created_at FROM users WHERE username=? LIMIT 1"

func userRow(t *testing.T, username, password, role string, active bool) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "full_name", "role", "is_active", "created_at"}).
		AddRow(1, username, username+"@example.com", hash, "", role, active, time.Now())
}

func postToken(t *testing.T, mock func(sqlmock.Sqlmock), form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	db, m, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, m.ExpectationsWereMet())
		db.Close()
	})
	mock(m)

	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 30}
	h := NewAuthHandler(cfg, repository.NewUserRepo(db))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Token(e.NewContext(req, rec)))
	return rec
}

func TestTokenIssuesAccessToken(t *testing.T) {
	rec := postToken(t, func(m sqlmock.Sqlmock) {
		m.ExpectQuery(regexp.QuoteMeta(userSelectByName)).
			WithArgs("alice").
			WillReturnRows(userRow(t, "alice", "Passw0rd", "citizen", true))
	}, url.Values{"username": {"alice"}, "password": {"Passw0rd"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_token")
	assert.Contains(t, rec.Body.String(), `"token_type":"bearer"`)
}

func TestTokenWrongPassword(t *testing.T) {
	rec := postToken(t, func(m sqlmock.Sqlmock) {
		m.ExpectQuery(regexp.QuoteMeta(userSelectByName)).
			WithArgs("alice").
			WillReturnRows(userRow(t, "alice", "Passw0rd", "citizen", true))
	}, url.Values{"username": {"alice"}, "password": {"wrong"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "incorrect username or password")
}

func TestTokenUnknownUserSameError(t *testing.T) {
	rec := postToken(t, func(m sqlmock.Sqlmock) {
		m.ExpectQuery(regexp.QuoteMeta(userSelectByName)).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "full_name", "role", "is_active", "created_at"}))
	}, url.Values{"username": {"ghost"}, "password": {"whatever"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// identical message to the wrong-password case: no username probing
	assert.Contains(t, rec.Body.String(), "incorrect username or password")
}

func TestTokenInactiveUser(t *testing.T) {
	rec := postToken(t, func(m sqlmock.Sqlmock) {
		m.ExpectQuery(regexp.QuoteMeta(userSelectByName)).
			WithArgs("alice").
			WillReturnRows(userRow(t, "alice", "Passw0rd", "citizen", false))
	}, url.Values{"username": {"alice"}, "password": {"Passw0rd"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "user is inactive")
}

func TestTokenMissingFields(t *testing.T) {
	rec := postToken(t, func(sqlmock.Sqlmock) {}, url.Values{"username": {"alice"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
