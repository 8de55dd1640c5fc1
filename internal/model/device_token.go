package model

import "time"

// DeviceToken maps a push-delivery token to its owning user, mirroring the
// `device_tokens` table.  A token string is globally unique: re-registering
// an existing token moves it to the new owner instead of inserting a
// duplicate row.
type DeviceToken struct {
    ID         uint64    // device_tokens.id
    UserID     uint64    // device_tokens.user_id
    FCMToken   string    // device_tokens.fcm_token (unique)
    DeviceType string    // device_tokens.device_type ("android", "ios", ...)
    CreatedAt  time.Time // device_tokens.created_at
}
