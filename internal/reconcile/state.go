package reconcile

import (
	"context"
)

// CurrentAssignment is one existing assignment normalized to the comparable
// form the differ works on: the role's canonical identifier and a scope
// descriptor, never raw display names.
type CurrentAssignment struct {
	Id      string
	RoleGrn string
	Version uint32
	Scope   ScopeDescriptor
}

// ReadAssignmentState fetches the principal's current assignments through
// the gateway and normalizes them, keyed by role GRN. A principal with no
// assignments yields an empty map, not an error; only transport or platform
// failures are errors.
func ReadAssignmentState(ctx context.Context, gateway DirectoryGateway, principalId string) (map[string]*CurrentAssignment, error) {
	items, err := gateway.ListAssignments(ctx, principalId)
	if err != nil {
		return nil, wrapError(CodeTransientLookup, err, "listing assignments for principal %q", principalId)
	}

	state := make(map[string]*CurrentAssignment, len(items))
	for _, a := range items {
		state[a.RoleGrn] = &CurrentAssignment{
			Id:      a.Id,
			RoleGrn: a.RoleGrn,
			Version: a.Version,
			Scope:   ScopeOf(a.ScopeGroupGrns...),
		}
	}

	return state, nil
}
