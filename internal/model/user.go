package model

import "time"

// Role names stored in users.role and embedded in access tokens.  The
// workflow rules compare against these literals, so they are defined once
// here instead of being retyped in handlers.
const (
    RoleCitizen   = "citizen"
    RoleInspector = "inspector"
)

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  Handlers
// define separate response types with JSON tags; this struct is used by
// the repository layer only.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  FullName     – optional display name.
//  Role         – role name (citizen or inspector).
//  IsActive     – whether the account is active; deactivation is soft,
//                 rows are never removed.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    FullName     string    // users.full_name
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
}
