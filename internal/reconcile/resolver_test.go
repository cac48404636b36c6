package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRole_DuplicateDisplayName(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	gw := newFakeGateway()
	gw.addRole("Reader", "grn:storage:ws_1:role/svc.reader", false)
	gw.addRole("Reader", "grn:iam:ws_1:role/builtin.reader", false)
	gw.addRole("Reader", "grn:compute:ws_1:role/svc.reader", false)

	r := NewResolver(gw, nil)
	role, err := r.ResolveRole(context.Background(), "Reader")
	require.NoError(err)

	// The platform-defined role wins over service-defined ones.
	assert.Equal("grn:iam:ws_1:role/builtin.reader", role.Grn)
}

func TestResolveRole_DuplicateDisplayNameNoBuiltin(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	// Same candidates seeded in two different orders resolve identically.
	for _, grns := range [][]string{
		{"grn:storage:ws_1:role/svc.reader", "grn:compute:ws_1:role/svc.reader"},
		{"grn:compute:ws_1:role/svc.reader", "grn:storage:ws_1:role/svc.reader"},
	} {
		gw := newFakeGateway()
		for _, g := range grns {
			gw.addRole("Reader", g, false)
		}
		role, err := NewResolver(gw, nil).ResolveRole(context.Background(), "Reader")
		require.NoError(err)
		assert.Equal("grn:compute:ws_1:role/svc.reader", role.Grn)
	}
}

func TestResolveRole_Caching(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	gw := newFakeGateway()
	gw.addRole("Operator", operatorGrn, false)

	r := NewResolver(gw, nil)
	for i := 0; i < 3; i++ {
		role, err := r.ResolveRole(context.Background(), "Operator")
		require.NoError(err)
		assert.Equal(operatorGrn, role.Grn)
	}
	assert.Equal(1, gw.roleLookups)
}

func TestResolveRole_NotFound(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	gw := newFakeGateway()

	_, err := NewResolver(gw, nil).ResolveRole(context.Background(), "Ghost")
	require.Error(err)
	assert.Equal(CodeNotFound, CodeOf(err))

	_, err = NewResolver(gw, nil).ResolveRole(context.Background(), "")
	require.Error(err)
	assert.Equal(CodeNotFound, CodeOf(err))
}

func TestResolveScopeGroups(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	gw := newFakeGateway()
	gw.addScopeGroup("Prod", prodGrn)
	gw.addScopeGroup("Staging", stagingGrn)

	r := NewResolver(gw, nil)

	grns, err := r.ResolveScopeGroups(context.Background(), []string{"Prod", "Staging"})
	require.NoError(err)
	assert.Equal([]string{prodGrn, stagingGrn}, grns)

	grns, err = r.ResolveScopeGroups(context.Background(), nil)
	require.NoError(err)
	assert.Nil(grns)

	// The failure names the scope group that did not resolve.
	_, err = r.ResolveScopeGroups(context.Background(), []string{"Prod", "Nope"})
	require.Error(err)
	assert.Equal(CodeNotFound, CodeOf(err))
	assert.Contains(err.Error(), `"Nope"`)
}

func TestResolvePrincipal(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	gw := testGateway()

	r := NewResolver(gw, nil)
	p, err := r.ResolvePrincipal(context.Background(), "jane@example.com")
	require.NoError(err)
	assert.Equal("u_jane", p.Id)

	_, err = r.ResolvePrincipal(context.Background(), "ghost@example.com")
	require.Error(err)
	assert.Equal(CodeNotFound, CodeOf(err))
}
