package grn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("round-trip", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		in := "grn:iam:ws_x1y2z3:role/builtin.operator"
		g, err := Parse(in)
		require.NoError(err)
		assert.Equal("iam", g.Service)
		assert.Equal("ws_x1y2z3", g.Workspace)
		assert.Equal(KindRole, g.Kind)
		assert.Equal("builtin.operator", g.Id)
		assert.Equal(in, g.String())
	})

	t.Run("scope group", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		g, err := Parse("grn:directory:ws_x1y2z3:scope-group/sg_9f8e7d")
		require.NoError(err)
		assert.Equal(KindScopeGroup, g.Kind)
		assert.False(g.IsBuiltinRole())
	})

	t.Run("id may contain slashes", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		g, err := Parse("grn:iam:ws_1:role/svc/nested.id")
		require.NoError(err)
		assert.Equal("svc/nested.id", g.Id)
	})

	t.Run("invalid", func(t *testing.T) {
		assert := assert.New(t)
		for _, tc := range []string{
			"",
			"role/op",
			"grn:iam:role/op",
			"grn:iam:ws_1:op",
			"grn::ws_1:role/op",
			"grn:iam::role/op",
			"grn:iam:ws_1:role/",
			"grn:iam:ws_1:widget/op",
			"arn:iam:ws_1:role/op",
		} {
			_, err := Parse(tc)
			assert.Error(err, "input %q", tc)
		}
	})
}

func TestIsBuiltinRole(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsBuiltinRoleGrn("grn:iam:ws_1:role/builtin.operator"))
	assert.False(IsBuiltinRoleGrn("grn:iam:ws_1:role/r_0p3r4t0r"))
	assert.False(IsBuiltinRoleGrn("grn:directory:ws_1:scope-group/builtin.all"))
	assert.False(IsBuiltinRoleGrn("not-a-grn"))
}
