package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/gatehouse-project/gatehouse/api"
	"github.com/gatehouse-project/gatehouse/api/assignments"
	"github.com/gatehouse-project/gatehouse/api/principals"
	"github.com/gatehouse-project/gatehouse/api/roles"
	"github.com/gatehouse-project/gatehouse/api/scopegroups"
)

// fakeGateway is an in-memory DirectoryGateway with counters for asserting
// exactly how many lookups and mutating calls the engine issued.
type fakeGateway struct {
	mu sync.Mutex

	principals  map[string]*principals.Principal
	roles       map[string][]*roles.Role
	scopeGroups map[string]*scopegroups.ScopeGroup
	assignments map[string]*assignments.Assignment

	nextId int

	roleLookups   int
	mutatingCalls int

	createErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		principals:  make(map[string]*principals.Principal),
		roles:       make(map[string][]*roles.Role),
		scopeGroups: make(map[string]*scopegroups.ScopeGroup),
		assignments: make(map[string]*assignments.Assignment),
	}
}

func (f *fakeGateway) addPrincipal(ref, id, authSource string) {
	f.principals[ref] = &principals.Principal{
		Id:         id,
		Type:       principals.TypeUser,
		Email:      ref,
		AuthSource: authSource,
	}
}

func (f *fakeGateway) addRole(displayName, grnStr string, workspaceLevel bool) {
	f.roles[displayName] = append(f.roles[displayName], &roles.Role{
		Id:             grnStr,
		Grn:            grnStr,
		DisplayName:    displayName,
		WorkspaceLevel: workspaceLevel,
	})
}

func (f *fakeGateway) addScopeGroup(name, grnStr string) {
	f.scopeGroups[name] = &scopegroups.ScopeGroup{
		Id:   grnStr,
		Grn:  grnStr,
		Name: name,
	}
}

func (f *fakeGateway) addAssignment(principalId, roleGrn string, scopeGrns []string) *assignments.Assignment {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextId++
	a := &assignments.Assignment{
		Id:             fmt.Sprintf("asgmt_%04d", f.nextId),
		PrincipalId:    principalId,
		RoleGrn:        roleGrn,
		ScopeGroupGrns: scopeGrns,
		Version:        1,
	}
	f.assignments[a.Id] = a
	return a
}

func (f *fakeGateway) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mutatingCalls
}

func (f *fakeGateway) LookupPrincipal(_ context.Context, ref string) (*principals.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.principals[ref]
	if !ok {
		return nil, notFoundErr("principal %q not found", ref)
	}
	return p, nil
}

func (f *fakeGateway) LookupRole(_ context.Context, displayName string) ([]*roles.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roleLookups++
	rs, ok := f.roles[displayName]
	if !ok {
		return nil, notFoundErr("role %q not found", displayName)
	}
	return rs, nil
}

func (f *fakeGateway) LookupScopeGroup(_ context.Context, name string) (*scopegroups.ScopeGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sg, ok := f.scopeGroups[name]
	if !ok {
		return nil, notFoundErr("scope group %q not found", name)
	}
	return sg, nil
}

func (f *fakeGateway) ListAssignments(_ context.Context, principalId string) ([]*assignments.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*assignments.Assignment
	for _, a := range f.assignments {
		if a.PrincipalId == principalId {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeGateway) CreateAssignment(_ context.Context, principalId, roleGrn string, scopeGroupGrns []string) (*assignments.Assignment, error) {
	f.mu.Lock()
	f.mutatingCalls++
	if f.createErr != nil {
		err := f.createErr
		f.mu.Unlock()
		return nil, err
	}
	for _, a := range f.assignments {
		if a.PrincipalId == principalId && a.RoleGrn == roleGrn {
			f.mu.Unlock()
			return nil, &api.Error{Status: api.ErrConflict.Status, Code: api.ErrConflict.Code, Message: "assignment already exists"}
		}
	}
	f.mu.Unlock()
	return f.addAssignment(principalId, roleGrn, scopeGroupGrns), nil
}

func (f *fakeGateway) SetAssignmentScope(_ context.Context, assignmentId string, version uint32, scopeGroupGrns []string) (*assignments.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutatingCalls++
	a, ok := f.assignments[assignmentId]
	if !ok {
		return nil, notFoundErr("assignment %q not found", assignmentId)
	}
	if version != a.Version {
		return nil, &api.Error{Status: 400, Code: "FailedPrecondition", Message: "version mismatch"}
	}
	a.ScopeGroupGrns = scopeGroupGrns
	a.Version++
	return a, nil
}

func (f *fakeGateway) DeleteAssignment(_ context.Context, assignmentId string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutatingCalls++
	if _, ok := f.assignments[assignmentId]; !ok {
		return false, nil
	}
	delete(f.assignments, assignmentId)
	return true, nil
}
