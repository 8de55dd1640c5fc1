package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/renovation-appeals/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var (
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

const userColumns = "id,username,email,password_hash,full_name,role,is_active,created_at"

// userSortColumns whitelists the sortable columns for List.  Anything not
// in the map falls back to username.
var userSortColumns = map[string]string{
	"username":   "username",
	"email":      "email",
	"role":       "role",
	"created_at": "created_at",
}

// Create inserts the user and fills in its ID.  The caller is expected to
// have checked username/email availability already; the unique indexes are
// the final guard against races.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, full_name, role) VALUES (?,?,?,?,?)",
		u.Username, u.Email, u.PasswordHash, u.FullName, u.Role)
	if err != nil {
		return dupUserErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.TrimSpace(username)
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt)
	return u, err
}

// UsernameTaken reports whether another user (excluding excludeID) already
// holds the given username.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string, excludeID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username=? AND id<>?",
		strings.TrimSpace(username), excludeID).Scan(&n)
	return n > 0, err
}

// EmailTaken reports whether another user (excluding excludeID) already
// holds the given email.
func (r *UserRepo) EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=? AND id<>?",
		strings.ToLower(strings.TrimSpace(email)), excludeID).Scan(&n)
	return n > 0, err
}

// ListUsersParams carries pagination, sorting and filtering options for
// the inspector-facing user listing.
type ListUsersParams struct {
	Skip      int
	Limit     int
	SortBy    string
	SortOrder string // "asc" or "desc"
	IsActive  *bool  // nil means no filter
}

// List returns users ordered and filtered per params.
func (r *UserRepo) List(ctx context.Context, p ListUsersParams) ([]model.User, error) {
	col, ok := userSortColumns[p.SortBy]
	if !ok {
		col = "username"
	}
	dir := "ASC"
	if strings.EqualFold(p.SortOrder, "desc") {
		dir = "DESC"
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}
	q := "SELECT " + userColumns + " FROM users"
	args := []any{}
	if p.IsActive != nil {
		q += " WHERE is_active=?"
		args = append(args, *p.IsActive)
	}
	q += " ORDER BY " + col + " " + dir + " LIMIT ? OFFSET ?"
	args = append(args, p.Limit, p.Skip)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UserPatch lists the updatable user fields.  Nil pointers mean "leave as
// is"; the SET clause is built only from the fields that are present.
type UserPatch struct {
	Username *string
	Email    *string
	FullName *string
	Role     *string
	IsActive *bool
}

// Update applies a partial update to one user row.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UserPatch) error {
	sets := []string{}
	args := []any{}
	if p.Username != nil {
		sets = append(sets, "username=?")
		args = append(args, strings.TrimSpace(*p.Username))
	}
	if p.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*p.Email)))
	}
	if p.FullName != nil {
		sets = append(sets, "full_name=?")
		args = append(args, *p.FullName)
	}
	if p.Role != nil {
		sets = append(sets, "role=?")
		args = append(args, *p.Role)
	}
	if p.IsActive != nil {
		sets = append(sets, "is_active=?")
		args = append(args, *p.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	return dupUserErr(err)
}

// HasOpenAppeals reports whether the user owns at least one appeal whose
// status is not terminal (Completed or Rejected).  Such users cannot be
// deactivated.
func (r *UserRepo) HasOpenAppeals(ctx context.Context, userID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appeals a
		 JOIN appeal_statuses s ON s.id = a.status_id
		 WHERE a.user_id=? AND s.name NOT IN (?,?)`,
		userID, model.StatusCompleted, model.StatusRejected).Scan(&n)
	return n > 0, err
}

// Deactivate soft-deletes a user: the row stays, is_active flips to false
// and the role is forced back to citizen.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=0, role=? WHERE id=?", model.RoleCitizen, id)
	return err
}

// ListActiveInspectors returns every active inspector.  Used for the
// notification fan-out on new appeals, status changes and citizen
// messages.
func (r *UserRepo) ListActiveInspectors(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role=? AND is_active=1", model.RoleInspector)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// dupUserErr maps MySQL duplicate-key errors (1062) onto the per-field
// sentinels by inspecting the violated index name.
func dupUserErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !strings.Contains(msg, "1062") {
		return err
	}
	switch {
	case strings.Contains(msg, "uq_users_username"):
		return ErrUsernameExists
	case strings.Contains(msg, "uq_users_email"):
		return ErrEmailExists
	}
	return ErrDuplicate
}
