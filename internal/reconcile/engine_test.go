package reconcile

import (
	"context"
	"testing"

	"github.com/gatehouse-project/gatehouse/api"
	"github.com/gatehouse-project/gatehouse/api/principals"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	operatorGrn = "grn:iam:ws_1:role/builtin.operator"
	auditorGrn  = "grn:iam:ws_1:role/builtin.auditor"
	adminGrn    = "grn:iam:ws_1:role/builtin.workspace-admin"
	prodGrn     = "grn:directory:ws_1:scope-group/sg_prod"
	stagingGrn  = "grn:directory:ws_1:scope-group/sg_staging"
)

func testGateway() *fakeGateway {
	gw := newFakeGateway()
	gw.addPrincipal("jane@example.com", "u_jane", principals.AuthSourceLocal)
	gw.addPrincipal("omar@example.com", "u_omar", principals.AuthSourceLocal)
	gw.addPrincipal("sso-user@example.com", "u_sso", principals.AuthSourceSso)
	gw.addRole("Operator", operatorGrn, false)
	gw.addRole("Auditor", auditorGrn, false)
	gw.addRole("Workspace Admin", adminGrn, true)
	gw.addScopeGroup("Prod", prodGrn)
	gw.addScopeGroup("Staging", stagingGrn)
	return gw
}

func TestReconcile_CreateNew(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	gw := testGateway()
	eng := New(gw)

	res := eng.Reconcile(context.Background(), Request{
		PrincipalRef:    "jane@example.com",
		RoleDisplayName: "Operator",
	})

	assert.Equal(ActionCreate, res.Action)
	assert.Equal(StatusComplete, res.Status)
	assert.Empty(res.Scope)
	assert.Equal(1, gw.mutations())

	state, err := ReadAssignmentState(context.Background(), gw, "u_jane")
	require.NoError(err)
	require.Contains(state, operatorGrn)
	assert.True(state[operatorGrn].Scope.IsEntireWorkspace())
}

func TestReconcile_Idempotence(t *testing.T) {
	assert := assert.New(t)
	gw := testGateway()

	first := New(gw).Reconcile(context.Background(), Request{
		PrincipalRef:    "jane@example.com",
		RoleDisplayName: "Operator",
		ScopeGroupNames: []string{"Prod"},
	})
	assert.Equal(ActionCreate, first.Action)
	assert.Equal(StatusComplete, first.Status)

	// A fresh engine sees the state the first call wrote.
	second := New(gw).Reconcile(context.Background(), Request{
		PrincipalRef:    "jane@example.com",
		RoleDisplayName: "Operator",
		ScopeGroupNames: []string{"Prod"},
	})
	assert.Equal(ActionNone, second.Action)
	assert.Equal(StatusWarning, second.Status)
	assert.Equal("already in the desired state", second.Detail)

	assert.Equal(1, gw.mutations())
}

func TestReconcile_ScopeOrderIndependent(t *testing.T) {
	assert := assert.New(t)
	gw := testGateway()

	first := New(gw).Reconcile(context.Background(), Request{
		PrincipalRef:    "jane@example.com",
		RoleDisplayName: "Operator",
		ScopeGroupNames: []string{"Prod", "Staging"},
	})
	assert.Equal(StatusComplete, first.Status)

	second := New(gw).Reconcile(context.Background(), Request{
		PrincipalRef:    "jane@example.com",
		RoleDisplayName: "Operator",
		ScopeGroupNames: []string{"Staging", "Prod"},
	})
	assert.Equal(ActionNone, second.Action)
	assert.Equal(StatusWarning, second.Status)
	assert.Equal(1, gw.mutations())
}

func TestReconcile_ModifyScope(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	gw := testGateway()
	gw.addAssignment("u_jane", operatorGrn, []string{prodGrn})

	res := New(gw).Reconcile(context.Background(), Request{
		PrincipalRef:    "jane@example.com",
		RoleDisplayName: "Operator",
		ScopeGroupNames: []string{"Staging"},
	})

	assert.Equal(ActionModify, res.Action)
	assert.Equal(StatusComplete, res.Status)
	assert.Equal([]string{stagingGrn}, res.Scope)
	assert.Equal(1, gw.mutations())

	state, err := ReadAssignmentState(context.Background(), gw, "u_jane")
	require.NoError(err)
	require.Contains(state, operatorGrn)
	assert.True(state[operatorGrn].Scope.Equal(ScopeOf(stagingGrn)))
}

func TestReconcile_WorkspaceLevelRoleRejectsScope(t *testing.T) {
	assert := assert.New(t)
	gw := testGateway()

	res := New(gw).Reconcile(context.Background(), Request{
		PrincipalRef:    "jane@example.com",
		RoleDisplayName: "Workspace Admin",
		ScopeGroupNames: []string{"Prod"},
	})

	assert.Equal(StatusFailed, res.Status)
	assert.Equal(string(CodeIncompatibleScope), res.ErrorCode)
	assert.Zero(gw.mutations())
}

func TestReconcile_WorkspaceLevelRoleDefaultScope(t *testing.T) {
	assert := assert.New(t)
	gw := testGateway()

	res := New(gw).Reconcile(context.Background(), Request{
		PrincipalRef:    "jane@example.com",
		RoleDisplayName: "Workspace Admin",
	})

	assert.Equal(ActionCreate, res.Action)
	assert.Equal(StatusComplete, res.Status)
	assert.Equal(1, gw.mutations())
}

func TestReconcile_SsoPrincipalRejected(t *testing.T) {
	assert := assert.New(t)
	gw := testGateway()
	eng := New(gw)

	res := eng.Reconcile(context.Background(), Request{
		PrincipalRef:    "sso-user@example.com",
		RoleDisplayName: "Operator",
	})
	assert.Equal(StatusFailed, res.Status)
	assert.Equal(string(CodeUnauthorized), res.ErrorCode)

	res = eng.Unassign(context.Background(), Request{
		PrincipalRef:    "sso-user@example.com",
		RoleDisplayName: "Operator",
	})
	assert.Equal(StatusFailed, res.Status)
	assert.Equal(string(CodeUnauthorized), res.ErrorCode)

	assert.Zero(gw.mutations())
}

func TestReconcile_UnknownNames(t *testing.T) {
	assert := assert.New(t)
	gw := testGateway()
	eng := New(gw)

	for _, req := range []Request{
		{PrincipalRef: "ghost@example.com", RoleDisplayName: "Operator"},
		{PrincipalRef: "jane@example.com", RoleDisplayName: "No Such Role"},
		{PrincipalRef: "jane@example.com", RoleDisplayName: "Operator", ScopeGroupNames: []string{"NoSuchScope"}},
	} {
		res := eng.Reconcile(context.Background(), req)
		assert.Equal(StatusFailed, res.Status)
		assert.Equal(string(CodeNotFound), res.ErrorCode)
	}
	assert.Zero(gw.mutations())
}

func TestReconcile_ConflictDowngradedToWarning(t *testing.T) {
	assert := assert.New(t)
	gw := testGateway()
	gw.createErr = &api.Error{Status: api.ErrConflict.Status, Code: api.ErrConflict.Code, Message: "assignment already exists"}

	res := New(gw).Reconcile(context.Background(), Request{
		PrincipalRef:    "jane@example.com",
		RoleDisplayName: "Operator",
	})

	assert.Equal(ActionCreate, res.Action)
	assert.Equal(StatusWarning, res.Status)
	assert.Equal(string(CodeConflict), res.ErrorCode)
}

func TestReconcile_PlatformFailurePreservesCode(t *testing.T) {
	assert := assert.New(t)
	gw := testGateway()
	gw.createErr = &api.Error{Status: 503, Code: "Unavailable", Message: "directory overloaded"}

	res := New(gw).Reconcile(context.Background(), Request{
		PrincipalRef:    "jane@example.com",
		RoleDisplayName: "Operator",
	})

	assert.Equal(StatusFailed, res.Status)
	assert.Equal(string(CodeTransientLookup), res.ErrorCode)
	assert.Contains(res.Detail, "HTTP 503")
	assert.Contains(res.Detail, "Unavailable")
}

func TestUnassign(t *testing.T) {
	t.Run("existing assignment", func(t *testing.T) {
		assert := assert.New(t)
		gw := testGateway()
		gw.addAssignment("u_jane", operatorGrn, []string{prodGrn})

		res := New(gw).Unassign(context.Background(), Request{
			PrincipalRef:    "jane@example.com",
			RoleDisplayName: "Operator",
		})
		assert.Equal(ActionRemove, res.Action)
		assert.Equal(StatusComplete, res.Status)
		assert.Equal([]string{prodGrn}, res.Scope)
		assert.Equal(1, gw.mutations())
	})

	t.Run("nothing to remove", func(t *testing.T) {
		assert := assert.New(t)
		gw := testGateway()

		res := New(gw).Unassign(context.Background(), Request{
			PrincipalRef:    "jane@example.com",
			RoleDisplayName: "Operator",
		})
		assert.Equal(ActionNone, res.Action)
		assert.Equal(StatusWarning, res.Status)
		assert.Zero(gw.mutations())
	})

	t.Run("by assignment id", func(t *testing.T) {
		assert := assert.New(t)
		gw := testGateway()
		a := gw.addAssignment("u_jane", operatorGrn, nil)

		res := New(gw).Unassign(context.Background(), Request{AssignmentId: a.Id})
		assert.Equal(ActionRemove, res.Action)
		assert.Equal(StatusComplete, res.Status)
		assert.Equal(1, gw.mutations())
	})

	t.Run("by unknown assignment id", func(t *testing.T) {
		assert := assert.New(t)
		gw := testGateway()

		res := New(gw).Unassign(context.Background(), Request{AssignmentId: "asgmt_nope"})
		assert.Equal(StatusWarning, res.Status)
		assert.Equal("assignment was already gone", res.Detail)
	})
}

func TestReconcileBatch_IsolatesFailures(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	gw := testGateway()

	reqs := []Request{
		{PrincipalRef: "jane@example.com", RoleDisplayName: "Operator", ScopeGroupNames: []string{"Prod"}},
		{PrincipalRef: "jane@example.com", RoleDisplayName: "No Such Role"},
		{PrincipalRef: "omar@example.com", RoleDisplayName: "Auditor"},
	}
	results := New(gw).ReconcileBatch(context.Background(), reqs)

	require.Len(results, len(reqs))
	assert.Equal(StatusComplete, results[0].Status)
	assert.Equal(StatusFailed, results[1].Status)
	assert.Equal(string(CodeNotFound), results[1].ErrorCode)
	assert.Equal(StatusComplete, results[2].Status)

	// Results stay 1:1 with inputs, in order.
	for i, req := range reqs {
		assert.Equal(req.PrincipalRef, results[i].Principal)
		assert.Equal(req.RoleDisplayName, results[i].Role)
	}

	err := SummaryError(results)
	require.Error(err)
	assert.Contains(err.Error(), "No Such Role")
}

func TestReconcileBatch_Cancelled(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	gw := testGateway()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := New(gw).ReconcileBatch(ctx, []Request{
		{PrincipalRef: "jane@example.com", RoleDisplayName: "Operator"},
		{PrincipalRef: "omar@example.com", RoleDisplayName: "Auditor"},
	})

	require.Len(results, 2)
	for _, res := range results {
		assert.Equal(StatusCancelled, res.Status)
	}
	assert.Zero(gw.mutations())
}

func TestReconcileBatch_Parallel(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	gw := testGateway()

	reqs := []Request{
		{PrincipalRef: "jane@example.com", RoleDisplayName: "Operator", ScopeGroupNames: []string{"Prod"}},
		{PrincipalRef: "omar@example.com", RoleDisplayName: "Operator", ScopeGroupNames: []string{"Prod"}},
		{PrincipalRef: "jane@example.com", RoleDisplayName: "Auditor"},
		{PrincipalRef: "omar@example.com", RoleDisplayName: "Auditor"},
	}
	results := New(gw, WithParallelism(4)).ReconcileBatch(context.Background(), reqs)

	require.Len(results, len(reqs))
	want := []Status{StatusComplete, StatusComplete, StatusComplete, StatusComplete}
	got := make([]Status, len(results))
	for i, res := range results {
		got[i] = res.Status
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected statuses (-want +got):\n%s", diff)
	}
	for i, req := range reqs {
		assert.Equal(req.PrincipalRef, results[i].Principal)
		assert.Equal(req.RoleDisplayName, results[i].Role)
	}
	assert.Equal(4, gw.mutations())
}

func TestEngine_Stats(t *testing.T) {
	assert := assert.New(t)
	gw := testGateway()
	eng := New(gw)

	eng.ReconcileBatch(context.Background(), []Request{
		{PrincipalRef: "jane@example.com", RoleDisplayName: "Operator"},
		{PrincipalRef: "jane@example.com", RoleDisplayName: "No Such Role"},
	})

	assert.EqualValues(2, eng.Stats().Requests.Load())
	assert.EqualValues(1, eng.Stats().MutatingCalls.Load())
	assert.EqualValues(1, eng.Stats().Completed.Load())
	assert.EqualValues(1, eng.Stats().Failures.Load())
}
