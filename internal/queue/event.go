// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds published to the appeal.events queue.
const (
    KindAppealCreated = "appeal.created"
    KindStatusChanged = "appeal.status_changed"
    KindMessageCreated = "message.created"
)

// AppealEvent is published whenever an appeal is created, changes status,
// or receives a chat message.  It carries enough information for
// downstream consumers to build an audit trail or trigger analytics
// without querying the primary database.  Fields that do not apply to a
// given kind are left at their zero values.
type AppealEvent struct {
    Kind       string `json:"kind"`        // one of the Kind* constants
    AppealID   uint64 `json:"appeal_id"`
    UserID     uint64 `json:"user_id"`     // submitter (or sender for messages)
    Username   string `json:"username"`
    Address    string `json:"address"`
    StatusName string `json:"status_name,omitempty"` // new status for status_changed
    MessageID  uint64 `json:"message_id,omitempty"`  // set for message.created
    OccurredAt string `json:"occurred_at"`           // RFC3339 UTC
}
