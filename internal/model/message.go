package model

import "time"

// Message is one chat entry on an appeal, stored in the `messages` table.
// Messages are append-only and immutable once created; the auto-increment
// id is the canonical ordering, which is what the incremental
// last_message_id cursor in the listing endpoint relies on.
//
// Fields:
//  ID        – primary key identifier.
//  AppealID  – appeal this message belongs to.
//  SenderID  – authoring user (appeal owner or an inspector).
//  Content   – message text; may be empty only when attachments exist.
//  CreatedAt – creation timestamp.
type Message struct {
    ID        uint64    // messages.id
    AppealID  uint64    // messages.appeal_id
    SenderID  uint64    // messages.sender_id
    Content   string    // messages.content
    CreatedAt time.Time // messages.created_at
}
