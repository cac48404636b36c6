package reconcile

// Action is the mutation class the differ assigns to a request after
// comparing desired and current state.
type Action string

const (
	// ActionNone means current state already matches the desired state.
	ActionNone Action = "none"
	// ActionCreate means no assignment exists for the (principal, role) pair.
	ActionCreate Action = "create"
	// ActionModify means an assignment exists with a different scope.
	ActionModify Action = "modify"
	// ActionRemove means the caller asked for the assignment to be deleted.
	ActionRemove Action = "remove"
)

// Status is the terminal state of a single reconciliation request.
type Status string

const (
	StatusComplete  Status = "complete"
	StatusFailed    Status = "failed"
	StatusWarning   Status = "warning"
	StatusCancelled Status = "cancelled"
)

// Request asks for one role to be bound to one principal with the given
// scope. ScopeGroupNames empty means the entire workspace.
type Request struct {
	// PrincipalRef is the email of a user or the name of a group.
	PrincipalRef string `json:"principal"`
	// RoleDisplayName is the human-facing role name; the engine resolves it
	// to a canonical identifier.
	RoleDisplayName string `json:"role"`
	// ScopeGroupNames are the display names of the scope groups to bind the
	// role to. Empty means the entire workspace.
	ScopeGroupNames []string `json:"scope_groups,omitempty"`
	// AssignmentId is accepted by the removal flow as an alternative to the
	// (principal, role) pair.
	AssignmentId string `json:"assignment_id,omitempty"`
}

// Result is the outcome of reconciling one Request. Every request produces
// exactly one Result, even on failure.
type Result struct {
	Principal string `json:"principal"`
	Role      string `json:"role"`
	// Scope holds the resolved scope group GRNs; empty means the entire
	// workspace.
	Scope     []string `json:"scope,omitempty"`
	Action    Action   `json:"action"`
	Status    Status   `json:"status"`
	Detail    string   `json:"detail,omitempty"`
	ErrorCode string   `json:"error_code,omitempty"`
}

func (r Result) failed(code Code, detail string) Result {
	r.Status = StatusFailed
	r.ErrorCode = string(code)
	r.Detail = detail
	return r
}
