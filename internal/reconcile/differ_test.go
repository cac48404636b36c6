package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		desired ScopeDescriptor
		current *CurrentAssignment
		want    Action
	}{
		{
			name:    "no current assignment",
			desired: ScopeOf(prodGrn),
			want:    ActionCreate,
		},
		{
			name:    "scopes match",
			desired: ScopeOf(prodGrn, stagingGrn),
			current: &CurrentAssignment{Scope: ScopeOf(stagingGrn, prodGrn)},
			want:    ActionNone,
		},
		{
			name:    "entire workspace matches",
			desired: EntireWorkspace(),
			current: &CurrentAssignment{},
			want:    ActionNone,
		},
		{
			name:    "scopes differ",
			desired: ScopeOf(stagingGrn),
			current: &CurrentAssignment{Scope: ScopeOf(prodGrn)},
			want:    ActionModify,
		},
		{
			name:    "narrowing from entire workspace",
			desired: ScopeOf(prodGrn),
			current: &CurrentAssignment{},
			want:    ActionModify,
		},
		{
			name:    "widening to entire workspace",
			desired: EntireWorkspace(),
			current: &CurrentAssignment{Scope: ScopeOf(prodGrn)},
			want:    ActionModify,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.desired, tt.current))
		})
	}
}

func TestClassifyRemoval(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(ActionNone, ClassifyRemoval(nil))
	assert.Equal(ActionRemove, ClassifyRemoval(&CurrentAssignment{Id: "asgmt_0001"}))
}

func TestValidateCompatibility(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	scopable := &ResolvedRole{DisplayName: "Operator"}
	assert.NoError(ValidateCompatibility(scopable, EntireWorkspace()))
	assert.NoError(ValidateCompatibility(scopable, ScopeOf(prodGrn)))

	workspaceLevel := &ResolvedRole{DisplayName: "Workspace Admin", WorkspaceLevel: true}
	assert.NoError(ValidateCompatibility(workspaceLevel, EntireWorkspace()))

	err := ValidateCompatibility(workspaceLevel, ScopeOf(prodGrn))
	require.Error(err)
	assert.Equal(CodeIncompatibleScope, CodeOf(err))
	assert.Contains(err.Error(), "Workspace Admin")
}
