package model

// Reference data: appeal lifecycle stages and classification categories.
// Both tables are seeded once at startup and afterwards managed by
// inspectors.  Rows referenced by at least one appeal cannot be deleted.

// Status names the workflow rules test against.  The full seed set also
// includes "In Progress"; that label carries no special behavior so it is
// not named here.
const (
    StatusNew                = "New"
    StatusNeedsClarification = "Needs Clarification"
    StatusRejected           = "Rejected"
    StatusCompleted          = "Completed"
)

// AppealStatus is a row of the `appeal_statuses` table.
type AppealStatus struct {
    ID   uint64 // appeal_statuses.id
    Name string // appeal_statuses.name (unique)
}

// AppealCategory is a row of the `appeal_categories` table.
type AppealCategory struct {
    ID   uint64 // appeal_categories.id
    Name string // appeal_categories.name (unique)
}
