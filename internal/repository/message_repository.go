package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/renovation-appeals/internal/model"
)

type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

// CreateWithAttachments inserts the message and its attachment rows in
// one transaction.  The upload callback runs once the message id exists
// (chat blobs are keyed by it) and returns the attachments to persist.
// A callback error rolls everything back; see AppealRepo for the blob
// orphaning caveat.
func (r *MessageRepo) CreateWithAttachments(ctx context.Context, m *model.Message, upload func(messageID uint64) ([]model.Attachment, error)) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO messages (appeal_id, sender_id, content) VALUES (?,?,?)",
		m.AppealID, m.SenderID, m.Content)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	atts, err := upload(m.ID)
	if err != nil {
		return err
	}
	for i, att := range atts {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO message_attachments (message_id, url, file_size, file_type, position) VALUES (?,?,?,?,?)",
			m.ID, att.URL, att.FileSize, att.FileType, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID fetches one message; sql.ErrNoRows passes through.  Used to
// read back the DB-assigned timestamp after an insert.
func (r *MessageRepo) GetByID(ctx context.Context, id uint64) (model.Message, error) {
	var m model.Message
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,appeal_id,sender_id,content,created_at FROM messages WHERE id=? LIMIT 1",
		id).Scan(&m.ID, &m.AppealID, &m.SenderID, &m.Content, &m.CreatedAt)
	return m, err
}

// ListByAppeal returns messages of one appeal ordered ascending by id.
// When sinceID is non-zero only messages with a strictly greater id are
// returned; this is the incremental cursor mobile clients poll with.
func (r *MessageRepo) ListByAppeal(ctx context.Context, appealID uint64, skip, limit int, sinceID uint64) ([]model.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	q := "SELECT id,appeal_id,sender_id,content,created_at FROM messages WHERE appeal_id=?"
	args := []any{appealID}
	if sinceID > 0 {
		q += " AND id>?"
		args = append(args, sinceID)
	}
	q += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, skip)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.AppealID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AttachmentsByMessage batch-loads attachments for a page of messages,
// grouped by message id in upload order.
func (r *MessageRepo) AttachmentsByMessage(ctx context.Context, messageIDs []uint64) (map[uint64][]model.Attachment, error) {
	out := make(map[uint64][]model.Attachment, len(messageIDs))
	if len(messageIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(messageIDs)), ",")
	args := make([]any, len(messageIDs))
	for i, id := range messageIDs {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,message_id,url,file_size,file_type,position FROM message_attachments WHERE message_id IN ("+placeholders+") ORDER BY message_id, position",
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
