package repository

import (
	"context"
	"database/sql"
)

type DeviceTokenRepo struct{ DB *sql.DB }

func NewDeviceTokenRepo(db *sql.DB) *DeviceTokenRepo { return &DeviceTokenRepo{DB: db} }

// RegisterOutcome tells the handler which of the three idempotent-upsert
// paths Register took, so the response message can match.
type RegisterOutcome int

const (
	RegisterNoop       RegisterOutcome = iota // token already belongs to the caller
	RegisterReassigned                        // token moved from another user to the caller
	RegisterCreated                           // token inserted for the first time
)

// Register upserts a push token for the user.  A token string is globally
// unique: if it already exists for the same user nothing happens, if it
// belongs to someone else ownership moves to the caller (the device was
// handed over or the user logged in to a different account), otherwise a
// new row is inserted.
func (r *DeviceTokenRepo) Register(ctx context.Context, userID uint64, token, deviceType string) (RegisterOutcome, error) {
	var id, ownerID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id FROM device_tokens WHERE fcm_token=? LIMIT 1", token).Scan(&id, &ownerID)
	switch {
	case err == sql.ErrNoRows:
		if _, err := r.DB.ExecContext(ctx,
			"INSERT INTO device_tokens (user_id, fcm_token, device_type) VALUES (?,?,?)",
			userID, token, deviceType); err != nil {
			return 0, err
		}
		return RegisterCreated, nil
	case err != nil:
		return 0, err
	case ownerID == userID:
		return RegisterNoop, nil
	default:
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE device_tokens SET user_id=? WHERE id=?", userID, id); err != nil {
			return 0, err
		}
		return RegisterReassigned, nil
	}
}

// TokensForUser returns all push tokens registered for a user.  An empty
// slice is not an error; the notifier treats it as a no-op.
func (r *DeviceTokenRepo) TokensForUser(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT fcm_token FROM device_tokens WHERE user_id=?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
