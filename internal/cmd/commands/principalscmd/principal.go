package principalscmd

import (
	"fmt"

	"github.com/gatehouse-project/gatehouse/api/principals"
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

	flagReference string
	flagType      string
}

func (c *ListCommand) Synopsis() string {
	return "List the principals known to the workspace directory"
}

func (c *ListCommand) Help() string {
	return base.WrapForHelpText([]string{
		"Usage: gatehouse principals list [options]",
		"",
		"  List the users and groups known to the workspace directory:",
		"",
		`      $ gatehouse principals list -type group`,
		"",
	}) + c.Flags().Help()
}

func (c *ListCommand) Flags() *base.FlagSets {
	set := c.FlagSet(base.FlagSetHTTP | base.FlagSetClient | base.FlagSetOutputFormat)
	f := set.NewFlagSet("Command Options")

	f.StringVar(&base.StringVar{
		Name:       "reference",
		Target:     &c.flagReference,
		Completion: complete.PredictAnything,
		Usage:      "Only list the principal with the given email (for users) or name (for groups).",
	})

	f.StringVar(&base.StringVar{
		Name:       "type",
		Target:     &c.flagType,
		Completion: complete.PredictSet(principals.TypeUser, principals.TypeGroup),
		Usage:      `Only list principals of the given type; one of "user" or "group".`,
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

	var opts []principals.Option
	if c.flagReference != "" {
		opts = append(opts, principals.WithReference(c.flagReference))
	}
	if c.flagType != "" {
		opts = append(opts, principals.WithType(c.flagType))
	}

	items, apiErr, err := principals.NewClient(client).List(c.Context, opts...)
	if err != nil {
		c.PrintCliError(fmt.Errorf("Error listing principals: %w", err))
		return base.CommandCliError
	}
	if apiErr != nil {
		c.PrintApiError(apiErr, "Error from control plane when listing principals")
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

func printListTable(items []*principals.Principal) string {
	if len(items) == 0 {
		return "No principals found"
	}

	output := []string{
		"",
		"Principal information:",
	}
	for i, item := range items {
		if i > 0 {
			output = append(output, "")
		}
		output = append(output,
			fmt.Sprintf("  GRN:             %s", item.Grn),
			fmt.Sprintf("    Type:          %s", item.Type),
		)
		if ref := item.Reference(); ref != "" {
			output = append(output,
				fmt.Sprintf("    Reference:     %s", ref),
			)
		}
		if item.AuthSource != "" {
			output = append(output,
				fmt.Sprintf("    Auth Source:   %s", item.AuthSource),
			)
		}
	}

	return base.WrapForHelpText(output)
}
