package model

import "time"

// Appeal is a citizen's renovation-permission request as stored in the
// `appeals` table.  Every appeal references exactly one submitting user,
// one status row and one category row.  Attachments live in the
// `appeal_attachments` table as an ordered list (see Attachment).
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – submitting citizen.
//  CategoryID  – reference into appeal_categories.
//  StatusID    – reference into appeal_statuses.
//  Address     – address of the property, required.
//  Description – optional free-text description.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Appeal struct {
    ID          uint64    // appeals.id
    UserID      uint64    // appeals.user_id
    CategoryID  uint64    // appeals.category_id
    StatusID    uint64    // appeals.status_id
    Address     string    // appeals.address
    Description string    // appeals.description
    CreatedAt   time.Time // appeals.created_at
    UpdatedAt   time.Time // appeals.updated_at
}

// Attachment is one uploaded file belonging to either an appeal or a chat
// message.  The upload order is preserved through Position; listing always
// orders by it.  URL is the full public object-storage link, FileSize and
// FileType describe the stored blob.
type Attachment struct {
    ID       uint64 // appeal_attachments.id / message_attachments.id
    OwnerID  uint64 // appeal_id or message_id depending on the table
    URL      string // public object URL
    FileSize int64  // size in bytes
    FileType string // lowercase file extension, e.g. ".pdf"
    Position int    // zero-based upload order
}
