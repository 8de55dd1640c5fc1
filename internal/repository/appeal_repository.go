package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/renovation-appeals/internal/model"
)

type AppealRepo struct{ DB *sql.DB }

func NewAppealRepo(db *sql.DB) *AppealRepo { return &AppealRepo{DB: db} }

const appealColumns = "id,user_id,category_id,status_id,address,description,created_at,updated_at"

// appealSortColumns whitelists the sortable columns for List.  Anything
// not in the map falls back to created_at.
var appealSortColumns = map[string]string{
	"address":     "address",
	"status_id":   "status_id",
	"category_id": "category_id",
	"created_at":  "created_at",
}

// CreateWithAttachments inserts the appeal and its attachment rows in one
// transaction.  The upload callback runs after the appeal row exists (so
// the id is available for the object-storage key scheme) and returns the
// attachments to persist.  Any error from the callback rolls the whole
// transaction back; blobs already written by the callback are orphaned,
// an accepted inconsistency since object storage is not transactional
// with the database.
func (r *AppealRepo) CreateWithAttachments(ctx context.Context, a *model.Appeal, upload func(appealID uint64) ([]model.Attachment, error)) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO appeals (user_id, category_id, status_id, address, description) VALUES (?,?,?,?,?)",
		a.UserID, a.CategoryID, a.StatusID, a.Address, a.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)

	atts, err := upload(a.ID)
	if err != nil {
		return err
	}
	for i, att := range atts {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO appeal_attachments (appeal_id, url, file_size, file_type, position) VALUES (?,?,?,?,?)",
			a.ID, att.URL, att.FileSize, att.FileType, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID fetches one appeal; sql.ErrNoRows passes through.
func (r *AppealRepo) GetByID(ctx context.Context, id uint64) (model.Appeal, error) {
	var a model.Appeal
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+appealColumns+" FROM appeals WHERE id=? LIMIT 1",
		id).Scan(&a.ID, &a.UserID, &a.CategoryID, &a.StatusID, &a.Address, &a.Description, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// ListAppealsParams carries scoping, pagination, sorting and filters for
// the appeal listing.  UserID restricts the result to one submitter
// (citizen view); nil means all appeals (inspector view).
type ListAppealsParams struct {
	UserID     *uint64
	StatusID   *uint64
	CategoryID *uint64
	Skip       int
	Limit      int
	SortBy     string
	SortOrder  string // "asc" or "desc"; default desc
}

// List returns appeals per params, default ordering created_at DESC.
func (r *AppealRepo) List(ctx context.Context, p ListAppealsParams) ([]model.Appeal, error) {
	col, ok := appealSortColumns[p.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(p.SortOrder, "asc") {
		dir = "ASC"
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}

	where := []string{}
	args := []any{}
	if p.UserID != nil {
		where = append(where, "user_id=?")
		args = append(args, *p.UserID)
	}
	if p.StatusID != nil {
		where = append(where, "status_id=?")
		args = append(args, *p.StatusID)
	}
	if p.CategoryID != nil {
		where = append(where, "category_id=?")
		args = append(args, *p.CategoryID)
	}

	q := "SELECT " + appealColumns + " FROM appeals"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + col + " " + dir + " LIMIT ? OFFSET ?"
	args = append(args, p.Limit, p.Skip)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appeal
	for rows.Next() {
		var a model.Appeal
		if err := rows.Scan(&a.ID, &a.UserID, &a.CategoryID, &a.StatusID, &a.Address, &a.Description, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Attachments returns the ordered attachment list for one appeal.
func (r *AppealRepo) Attachments(ctx context.Context, appealID uint64) ([]model.Attachment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,appeal_id,url,file_size,file_type,position FROM appeal_attachments WHERE appeal_id=? ORDER BY position",
		appealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttachments(rows)
}

// AttachmentsByAppeal batch-loads attachments for a page of appeals and
// groups them by appeal id, keeping upload order within each group.
func (r *AppealRepo) AttachmentsByAppeal(ctx context.Context, appealIDs []uint64) (map[uint64][]model.Attachment, error) {
	out := make(map[uint64][]model.Attachment, len(appealIDs))
	if len(appealIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(appealIDs)), ",")
	args := make([]any, len(appealIDs))
	for i, id := range appealIDs {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,appeal_id,url,file_size,file_type,position FROM appeal_attachments WHERE appeal_id IN ("+placeholders+") ORDER BY appeal_id, position",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	atts, err := scanAttachments(rows)
	if err != nil {
		return nil, err
	}
	for _, att := range atts {
		out[att.OwnerID] = append(out[att.OwnerID], att)
	}
	return out, nil
}

// AppealPatch lists the fields an inspector may change.  Nil pointers are
// left untouched (partial update, not full replace).
type AppealPatch struct {
	Address     *string
	Description *string
	CategoryID  *uint64
	StatusID    *uint64
}

// Update applies a partial update to one appeal row.
func (r *AppealRepo) Update(ctx context.Context, id uint64, p AppealPatch) error {
	sets := []string{}
	args := []any{}
	if p.Address != nil {
		sets = append(sets, "address=?")
		args = append(args, strings.TrimSpace(*p.Address))
	}
	if p.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *p.Description)
	}
	if p.CategoryID != nil {
		sets = append(sets, "category_id=?")
		args = append(args, *p.CategoryID)
	}
	if p.StatusID != nil {
		sets = append(sets, "status_id=?")
		args = append(args, *p.StatusID)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE appeals SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	return err
}

func scanAttachments(rows *sql.Rows) ([]model.Attachment, error) {
	var out []model.Attachment
	for rows.Next() {
		var att model.Attachment
		if err := rows.Scan(&att.ID, &att.OwnerID, &att.URL, &att.FileSize, &att.FileType, &att.Position); err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	return out, rows.Err()
}
