package scopegroupscmd

import (
	"fmt"

	"github.com/gatehouse-project/gatehouse/api/scopegroups"
	"github.com/gatehouse-project/gatehouse/internal/cmd/base"
	"github.com/mitchellh/cli"
	"github.com/posener/complete"
)

var (
	_ cli.Command             = (*ListCommand)(nil)
	_ cli.CommandAutocomplete = (*ListCommand)(nil)
)

type ListCommand struct {
	*base.Command

	flagName   string
	flagRegion string
}

func (c *ListCommand) Synopsis() string {
	return "List the scope groups defined in the workspace"
}

func (c *ListCommand) Help() string {
	return base.WrapForHelpText([]string{
		"Usage: gatehouse scope-groups list [options]",
		"",
		"  List the scope groups defined in the workspace, optionally filtered",
		"  by name or region:",
		"",
		`      $ gatehouse scope-groups list -region eu-west-1`,
		"",
	}) + c.Flags().Help()
}

func (c *ListCommand) Flags() *base.FlagSets {
	set := c.FlagSet(base.FlagSetHTTP | base.FlagSetClient | base.FlagSetOutputFormat)
	f := set.NewFlagSet("Command Options")

	f.StringVar(&base.StringVar{
		Name:       "name",
		Target:     &c.flagName,
		Completion: complete.PredictAnything,
		Usage:      "Only list scope groups with the given name.",
	})

	f.StringVar(&base.StringVar{
		Name:       "region",
		Target:     &c.flagRegion,
		Completion: complete.PredictAnything,
		Usage:      "Only list scope groups in the given region.",
	})

	return set
}

func (c *ListCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *ListCommand) AutocompleteFlags() complete.Flags {
	return c.Flags().Completions()
}

func (c *ListCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}

	client, err := c.Client()
	if err != nil {
		c.PrintCliError(fmt.Errorf("Error creating API client: %w", err))
		return base.CommandCliError
	}

	var opts []scopegroups.Option
	if c.flagName != "" {
		opts = append(opts, scopegroups.WithName(c.flagName))
	}
	if c.flagRegion != "" {
		opts = append(opts, scopegroups.WithRegion(c.flagRegion))
	}

	items, apiErr, err := scopegroups.NewClient(client).List(c.Context, opts...)
	if err != nil {
		c.PrintCliError(fmt.Errorf("Error listing scope groups: %w", err))
		return base.CommandCliError
	}
	if apiErr != nil {
		c.PrintApiError(apiErr, "Error from control plane when listing scope groups")
		return base.CommandApiError
	}

	switch base.Format(c.UI) {
	case "json":
		if !c.PrintJsonItems(items) {
			return base.CommandCliError
		}
	default:
		c.UI.Output(printListTable(items))
	}

	return base.CommandSuccess
}

func printListTable(items []*scopegroups.ScopeGroup) string {
	if len(items) == 0 {
		return "No scope groups found"
	}

	output := []string{
		"",
		"Scope Group information:",
	}
	for i, item := range items {
		if i > 0 {
			output = append(output, "")
		}
		output = append(output,
			fmt.Sprintf("  GRN:             %s", item.Grn),
		)
		if item.Name != "" {
			output = append(output,
				fmt.Sprintf("    Name:          %s", item.Name),
			)
		}
		if item.Region != "" {
			output = append(output,
				fmt.Sprintf("    Region:        %s", item.Region),
			)
		}
		if item.Description != "" {
			output = append(output,
				fmt.Sprintf("    Description:   %s", item.Description),
			)
		}
	}

	return base.WrapForHelpText(output)
}
