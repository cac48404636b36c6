package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestScopeOf(t *testing.T) {
	assert := assert.New(t)

	assert.True(ScopeOf().IsEntireWorkspace())
	assert.True(EntireWorkspace().IsEntireWorkspace())
	assert.Nil(EntireWorkspace().Grns())

	s := ScopeOf(stagingGrn, prodGrn, stagingGrn)
	assert.False(s.IsEntireWorkspace())
	if diff := cmp.Diff([]string{prodGrn, stagingGrn}, s.Grns()); diff != "" {
		t.Fatalf("unexpected grns (-want +got):\n%s", diff)
	}
}

func TestScopeDescriptor_Equal(t *testing.T) {
	assert := assert.New(t)

	assert.True(ScopeOf(prodGrn, stagingGrn).Equal(ScopeOf(stagingGrn, prodGrn)))
	assert.True(EntireWorkspace().Equal(ScopeOf()))
	assert.False(ScopeOf(prodGrn).Equal(ScopeOf(stagingGrn)))
	assert.False(ScopeOf(prodGrn).Equal(EntireWorkspace()))
	assert.False(ScopeOf(prodGrn).Equal(ScopeOf(prodGrn, stagingGrn)))
}

func TestScopeDescriptor_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("entire workspace", EntireWorkspace().String())
	assert.Equal(prodGrn+", "+stagingGrn, ScopeOf(stagingGrn, prodGrn).String())
}
