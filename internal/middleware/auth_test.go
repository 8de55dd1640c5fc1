package middleware

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/renovation-appeals/internal/repository"
	"github.com/iliyamo/renovation-appeals/internal/utils"
)

const secret = "test-secret"

func callAuth(t *testing.T, token string, setup func(sqlmock.Sqlmock)) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	setup(mock)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/appeals", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	require.NoError(t, Auth(secret, repository.NewUserRepo(db))(next)(c))
	return rec, c
}

func aliceRow(role string, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "full_name", "role", "is_active", "created_at"}).
		AddRow(7, "alice", "a@b.c", "x", "Alice", role, active, time.Now())
}

func expectUserLookup(m sqlmock.Sqlmock, rows *sqlmock.Rows) {
	m.ExpectQuery(regexp.QuoteMeta(
		"SELECT id,username,email,password_hash,full_name,role,is_active,created_at FROM users WHERE username=? LIMIT 1")).
		WithArgs("alice").
		WillReturnRows(rows)
}

func TestAuthInjectsIdentity(t *testing.T) {
	tok, err := utils.NewAccessToken(secret, "alice", "citizen", 7, 30)
	require.NoError(t, err)

	rec, c := callAuth(t, tok.Token, func(m sqlmock.Sqlmock) {
		expectUserLookup(m, aliceRow("citizen", true))
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), c.Get("user_id"))
	assert.Equal(t, "alice", c.Get("username"))
	assert.Equal(t, "citizen", c.Get("role"))
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	rec, _ := callAuth(t, "", func(sqlmock.Sqlmock) {})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsBadToken(t *testing.T) {
	rec, _ := callAuth(t, "garbage", func(sqlmock.Sqlmock) {})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsInactiveUser(t *testing.T) {
	tok, err := utils.NewAccessToken(secret, "alice", "citizen", 7, 30)
	require.NoError(t, err)

	rec, _ := callAuth(t, tok.Token, func(m sqlmock.Sqlmock) {
		expectUserLookup(m, aliceRow("citizen", false))
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsStaleRoleToken(t *testing.T) {
	// token minted while alice was an inspector; she has since been demoted
	tok, err := utils.NewAccessToken(secret, "alice", "inspector", 7, 30)
	require.NoError(t, err)

	rec, _ := callAuth(t, tok.Token, func(m sqlmock.Sqlmock) {
		expectUserLookup(m, aliceRow("citizen", true))
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
