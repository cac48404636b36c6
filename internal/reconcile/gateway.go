package reconcile

import (
	"context"
	"fmt"

	"github.com/gatehouse-project/gatehouse/api"
	"github.com/gatehouse-project/gatehouse/api/assignments"
	"github.com/gatehouse-project/gatehouse/api/principals"
	"github.com/gatehouse-project/gatehouse/api/roles"
	"github.com/gatehouse-project/gatehouse/api/scopegroups"
)

// DirectoryGateway is the engine's view of the platform directory. Lookups
// are read-only and always return lists of the natural cardinality; the three
// mutators are the only calls that change platform state. Implementations
// report missing resources with an error matching api.ErrNotFound and
// otherwise surface the platform's error untouched.
type DirectoryGateway interface {
	LookupPrincipal(ctx context.Context, ref string) (*principals.Principal, error)
	LookupRole(ctx context.Context, displayName string) ([]*roles.Role, error)
	LookupScopeGroup(ctx context.Context, name string) (*scopegroups.ScopeGroup, error)
	ListAssignments(ctx context.Context, principalId string) ([]*assignments.Assignment, error)

	CreateAssignment(ctx context.Context, principalId, roleGrn string, scopeGroupGrns []string) (*assignments.Assignment, error)
	SetAssignmentScope(ctx context.Context, assignmentId string, version uint32, scopeGroupGrns []string) (*assignments.Assignment, error)
	DeleteAssignment(ctx context.Context, assignmentId string) (bool, error)
}

// apiGateway adapts the api resource clients to the DirectoryGateway
// contract. Response-shape normalization (single object vs. list) happens in
// the clients, so nothing here branches on cardinality.
type apiGateway struct {
	principals  *principals.Client
	roles       *roles.Client
	scopeGroups *scopegroups.Client
	assignments *assignments.Client
}

// NewGateway returns a DirectoryGateway backed by the given API client.
func NewGateway(client *api.Client) DirectoryGateway {
	return &apiGateway{
		principals:  principals.NewClient(client),
		roles:       roles.NewClient(client),
		scopeGroups: scopegroups.NewClient(client),
		assignments: assignments.NewClient(client),
	}
}

func (g *apiGateway) LookupPrincipal(ctx context.Context, ref string) (*principals.Principal, error) {
	items, apiErr, err := g.principals.List(ctx, principals.WithReference(ref))
	if err != nil {
		return nil, fmt.Errorf("error looking up principal %q: %w", ref, err)
	}
	if apiErr != nil {
		return nil, apiErr
	}
	if len(items) == 0 {
		return nil, notFoundErr("principal %q not found", ref)
	}
	return items[0], nil
}

func (g *apiGateway) LookupRole(ctx context.Context, displayName string) ([]*roles.Role, error) {
	items, apiErr, err := g.roles.List(ctx, roles.WithDisplayName(displayName))
	if err != nil {
		return nil, fmt.Errorf("error looking up role %q: %w", displayName, err)
	}
	if apiErr != nil {
		return nil, apiErr
	}
	if len(items) == 0 {
		return nil, notFoundErr("role %q not found", displayName)
	}
	return items, nil
}

func (g *apiGateway) LookupScopeGroup(ctx context.Context, name string) (*scopegroups.ScopeGroup, error) {
	items, apiErr, err := g.scopeGroups.List(ctx, scopegroups.WithName(name))
	if err != nil {
		return nil, fmt.Errorf("error looking up scope group %q: %w", name, err)
	}
	if apiErr != nil {
		return nil, apiErr
	}
	if len(items) == 0 {
		return nil, notFoundErr("scope group %q not found", name)
	}
	return items[0], nil
}

func (g *apiGateway) ListAssignments(ctx context.Context, principalId string) ([]*assignments.Assignment, error) {
	items, apiErr, err := g.assignments.List(ctx, principalId)
	if err != nil {
		return nil, fmt.Errorf("error listing assignments for %q: %w", principalId, err)
	}
	if apiErr != nil {
		return nil, apiErr
	}
	return items, nil
}

func (g *apiGateway) CreateAssignment(ctx context.Context, principalId, roleGrn string, scopeGroupGrns []string) (*assignments.Assignment, error) {
	created, apiErr, err := g.assignments.Create(ctx, principalId, roleGrn, scopeGroupGrns)
	if err != nil {
		return nil, fmt.Errorf("error creating assignment: %w", err)
	}
	if apiErr != nil {
		return nil, apiErr
	}
	return created, nil
}

func (g *apiGateway) SetAssignmentScope(ctx context.Context, assignmentId string, version uint32, scopeGroupGrns []string) (*assignments.Assignment, error) {
	updated, apiErr, err := g.assignments.SetScope(ctx, assignmentId, version, scopeGroupGrns)
	if err != nil {
		return nil, fmt.Errorf("error updating assignment scope: %w", err)
	}
	if apiErr != nil {
		return nil, apiErr
	}
	return updated, nil
}

func (g *apiGateway) DeleteAssignment(ctx context.Context, assignmentId string) (bool, error) {
	existed, apiErr, err := g.assignments.Delete(ctx, assignmentId)
	if err != nil {
		return false, fmt.Errorf("error deleting assignment: %w", err)
	}
	if apiErr != nil {
		return false, apiErr
	}
	return existed, nil
}

// notFoundErr builds an error that matches api.ErrNotFound so the engine's
// classification does not depend on whether the platform answered 404 or an
// empty list.
func notFoundErr(format string, args ...any) error {
	return &api.Error{
		Status:  api.ErrNotFound.Status,
		Code:    api.ErrNotFound.Code,
		Message: fmt.Sprintf(format, args...),
	}
}
