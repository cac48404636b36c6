package rolescmd

import (
	"fmt"

	"github.com/gatehouse-project/gatehouse/api/roles"
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

	flagDisplayName string
	flagService     string
}

func (c *ListCommand) Synopsis() string {
	return "List the roles defined in the workspace"
}

func (c *ListCommand) Help() string {
	return base.WrapForHelpText([]string{
		"Usage: gatehouse roles list [options]",
		"",
		"  List the roles defined in the workspace, optionally filtered by",
		"  display name or owning service:",
		"",
		`      $ gatehouse roles list -display-name "Operator"`,
		"",
	}) + c.Flags().Help()
}

func (c *ListCommand) Flags() *base.FlagSets {
	set := c.FlagSet(base.FlagSetHTTP | base.FlagSetClient | base.FlagSetOutputFormat)
	f := set.NewFlagSet("Command Options")

	f.StringVar(&base.StringVar{
		Name:       "display-name",
		Target:     &c.flagDisplayName,
		Completion: complete.PredictAnything,
		Usage:      "Only list roles with the given display name.",
	})

	f.StringVar(&base.StringVar{
		Name:       "service",
		Target:     &c.flagService,
		Completion: complete.PredictAnything,
		Usage:      "Only list roles defined by the given service.",
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

	var opts []roles.Option
	if c.flagDisplayName != "" {
		opts = append(opts, roles.WithDisplayName(c.flagDisplayName))
	}
	if c.flagService != "" {
		opts = append(opts, roles.WithService(c.flagService))
	}

	items, apiErr, err := roles.NewClient(client).List(c.Context, opts...)
	if err != nil {
		c.PrintCliError(fmt.Errorf("Error listing roles: %w", err))
		return base.CommandCliError
	}
	if apiErr != nil {
		c.PrintApiError(apiErr, "Error from control plane when listing roles")
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

func printListTable(items []*roles.Role) string {
	if len(items) == 0 {
		return "No roles found"
	}

	output := []string{
		"",
		"Role information:",
	}
	for i, item := range items {
		if i > 0 {
			output = append(output, "")
		}
		output = append(output,
			fmt.Sprintf("  GRN:                 %s", item.Grn),
		)
		if item.DisplayName != "" {
			output = append(output,
				fmt.Sprintf("    Display Name:      %s", item.DisplayName),
			)
		}
		if item.Service != "" {
			output = append(output,
				fmt.Sprintf("    Service:           %s", item.Service),
			)
		}
		output = append(output,
			fmt.Sprintf("    Workspace Level:   %t", item.WorkspaceLevel),
		)
		if item.Description != "" {
			output = append(output,
				fmt.Sprintf("    Description:       %s", item.Description),
			)
		}
	}

	return base.WrapForHelpText(output)
}
