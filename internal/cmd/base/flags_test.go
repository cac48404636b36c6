package base

import (
	"testing"

	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringVar(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	sets := NewFlagSets(cli.NewMockUi())
	f := sets.NewFlagSet("Test Options")

	var target string
	f.StringVar(&StringVar{
		Name:    "role",
		Target:  &target,
		Default: NotSetValue,
		Usage:   "The display name of the role.",
	})

	require.NoError(sets.Parse([]string{"-role", "Operator"}))
	assert.Equal("Operator", target)
}

func TestStringVar_EnvDefault(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	t.Setenv("GATEHOUSE_TEST_ROLE", "Auditor")

	sets := NewFlagSets(cli.NewMockUi())
	f := sets.NewFlagSet("Test Options")

	var target string
	f.StringVar(&StringVar{
		Name:   "role",
		Target: &target,
		EnvVar: "GATEHOUSE_TEST_ROLE",
	})

	require.NoError(sets.Parse(nil))
	assert.Equal("Auditor", target)

	// An explicit flag wins over the env var.
	require.NoError(sets.Parse([]string{"-role", "Operator"}))
	assert.Equal("Operator", target)
}

func TestStringSliceVar(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	sets := NewFlagSets(cli.NewMockUi())
	f := sets.NewFlagSet("Test Options")

	var target []string
	f.StringSliceVar(&StringSliceVar{
		Name:   "scope-group",
		Target: &target,
	})

	require.NoError(sets.Parse([]string{"-scope-group", "Prod", "-scope-group", "Staging"}))
	assert.Equal([]string{"Prod", "Staging"}, target)
}

func TestBoolVar(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	sets := NewFlagSets(cli.NewMockUi())
	f := sets.NewFlagSet("Test Options")

	var target bool
	f.BoolVar(&BoolVar{
		Name:   "verbose",
		Target: &target,
	})

	require.NoError(sets.Parse([]string{"-verbose"}))
	assert.True(target)
}

func TestIntVar(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	sets := NewFlagSets(cli.NewMockUi())
	f := sets.NewFlagSet("Test Options")

	var target int
	f.IntVar(&IntVar{
		Name:    "parallelism",
		Target:  &target,
		Default: 1,
	})

	require.NoError(sets.Parse(nil))
	assert.Equal(1, target)

	require.NoError(sets.Parse([]string{"-parallelism", "8"}))
	assert.Equal(8, target)
}
