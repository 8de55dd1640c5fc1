package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/renovation-appeals/internal/model"
)

var ErrNameExists = errors.New("name already exists")

// RefRepo provides CRUD over one of the two reference tables
// (appeal_statuses, appeal_categories).  Both tables share the same
// two-column shape, so a single repository parameterized by table and
// referencing column covers them.  Use NewStatusRepo / NewCategoryRepo
// to construct the concrete variants.
type RefRepo struct {
	DB *sql.DB

	table     string // reference table name
	refColumn string // column in appeals that points at this table
}

func NewStatusRepo(db *sql.DB) *RefRepo {
	return &RefRepo{DB: db, table: "appeal_statuses", refColumn: "status_id"}
}

func NewCategoryRepo(db *sql.DB) *RefRepo {
	return &RefRepo{DB: db, table: "appeal_categories", refColumn: "category_id"}
}

// Create inserts a named row and returns its id.
func (r *RefRepo) Create(ctx context.Context, name string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO "+r.table+" (name) VALUES (?)", strings.TrimSpace(name))
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return 0, ErrNameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one row; sql.ErrNoRows passes through for the handler
// to translate into 404.
func (r *RefRepo) GetByID(ctx context.Context, id uint64) (model.AppealStatus, error) {
	var row model.AppealStatus
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name FROM "+r.table+" WHERE id=? LIMIT 1", id).Scan(&row.ID, &row.Name)
	return row, err
}

// GetByName fetches one row by its unique name.
func (r *RefRepo) GetByName(ctx context.Context, name string) (model.AppealStatus, error) {
	var row model.AppealStatus
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name FROM "+r.table+" WHERE name=? LIMIT 1", name).Scan(&row.ID, &row.Name)
	return row, err
}

// List returns rows with simple pagination, ordered by id so the seed
// order is stable.
func (r *RefRepo) List(ctx context.Context, skip, limit int) ([]model.AppealStatus, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name FROM "+r.table+" ORDER BY id LIMIT ? OFFSET ?", limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AppealStatus
	for rows.Next() {
		var row model.AppealStatus
		if err := rows.Scan(&row.ID, &row.Name); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpdateName renames a row.  Duplicate names map to ErrNameExists, a
// missing row to sql.ErrNoRows.
func (r *RefRepo) UpdateName(ctx context.Context, id uint64, name string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE "+r.table+" SET name=? WHERE id=?", strings.TrimSpace(name), id)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrNameExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the row does not exist or the name was unchanged;
		// disambiguate with a lookup.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a row unless at least one appeal references it, in
// which case ErrInUse is returned and nothing changes.
func (r *RefRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM appeals WHERE "+r.refColumn+"=?", id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrInUse
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM "+r.table+" WHERE id=?", id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
