package models

// WorkflowState is the validation state of a parcel and its fiscal notices.
type WorkflowState string

// Workflow states in their normal forward order.
const (
	StateDraft     WorkflowState = "draft"
	StateValidated WorkflowState = "validated"
	StatePublished WorkflowState = "published"
	StateArchived  WorkflowState = "archived"
)

// Valid reports whether s is a known workflow state.
func (s WorkflowState) Valid() bool {
	switch s {
	case StateDraft, StateValidated, StatePublished, StateArchived:
		return true
	}
	return false
}

// Role is the application role of an authenticated caller.
type Role string

// Roles known to the default permission table.
const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
	RoleViewer     Role = "viewer"
)

// Operation is a state-gated action on a parcel record.
type Operation string

// Operations checked against the workflow permission table.
const (
	OpRead    Operation = "read"
	OpCreate  Operation = "create"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
	OpCompute Operation = "compute"
)

// Caller identifies who is performing a request, as supplied by the identity provider.
type Caller struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
