package assignmentscmd

import (
	"fmt"
	"os"

	"github.com/gatehouse-project/gatehouse/internal/cmd/base"
	"github.com/gatehouse-project/gatehouse/internal/reconcile"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/posener/complete"
)

var (
	_ cli.Command             = (*RemoveCommand)(nil)
	_ cli.CommandAutocomplete = (*RemoveCommand)(nil)
)

type RemoveCommand struct {
	*base.Command

	flagPrincipal string
	flagRole      string
	flagId        string
	flagLogLevel  string
}

func (c *RemoveCommand) Synopsis() string {
	return "Remove a role assignment from a principal"
}

func (c *RemoveCommand) Help() string {
	return base.WrapForHelpText([]string{
		"Usage: gatehouse assignments remove [options]",
		"",
		"  Remove the assignment binding a role to a principal. Removing a role",
		"  the principal does not hold is reported as a warning, not an error.",
		"",
		"  Remove by principal and role:",
		"",
		`      $ gatehouse assignments remove -principal jane@example.com -role "Operator"`,
		"",
		"  Remove by assignment ID:",
		"",
		"      $ gatehouse assignments remove -id asgmt_1234567890",
		"",
	}) + c.Flags().Help()
}

func (c *RemoveCommand) Flags() *base.FlagSets {
	set := c.FlagSet(base.FlagSetHTTP | base.FlagSetClient | base.FlagSetOutputFormat)
	f := set.NewFlagSet("Command Options")

	f.StringVar(&base.StringVar{
		Name:       "principal",
		Target:     &c.flagPrincipal,
		Completion: complete.PredictAnything,
		Usage:      "The email of the user or the name of the group holding the role.",
	})

	f.StringVar(&base.StringVar{
		Name:       "role",
		Target:     &c.flagRole,
		Completion: complete.PredictAnything,
		Usage:      "The display name of the role to remove.",
	})

	f.StringVar(&base.StringVar{
		Name:       "id",
		Target:     &c.flagId,
		Completion: complete.PredictAnything,
		Usage:      "The ID of the assignment to remove. Mutually exclusive with -principal and -role.",
	})

	f.StringVar(&base.StringVar{
		Name:       "log-level",
		Target:     &c.flagLogLevel,
		EnvVar:     "GATEHOUSE_LOG_LEVEL",
		Completion: complete.PredictSet("trace", "debug", "info", "warn", "error"),
		Usage:      "Log each reconciliation step to stderr at this level. Logging is off when unset.",
	})

	return set
}

func (c *RemoveCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *RemoveCommand) AutocompleteFlags() complete.Flags {
	return c.Flags().Completions()
}

func (c *RemoveCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}

	req := reconcile.Request{
		PrincipalRef:    c.flagPrincipal,
		RoleDisplayName: c.flagRole,
		AssignmentId:    c.flagId,
	}
	switch {
	case c.flagId != "":
		if c.flagPrincipal != "" || c.flagRole != "" {
			c.PrintCliError(fmt.Errorf("-id cannot be combined with -principal or -role"))
			return base.CommandUserError
		}
	case c.flagPrincipal == "" || c.flagRole == "":
		c.PrintCliError(fmt.Errorf("either -id or both -principal and -role are required"))
		return base.CommandUserError
	}

	client, err := c.Client()
	if err != nil {
		c.PrintCliError(fmt.Errorf("Error creating API client: %w", err))
		return base.CommandCliError
	}

	level, err := base.ProcessLogLevel(c.flagLogLevel)
	if err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}
	logger := hclog.NewNullLogger()
	if level != hclog.Off {
		logger = hclog.New(&hclog.LoggerOptions{
			Name:   "reconcile",
			Level:  level,
			Output: os.Stderr,
		})
	}

	engine := reconcile.New(reconcile.NewGateway(client), reconcile.WithLogger(logger))
	result := engine.Unassign(c.Context, req)

	switch base.Format(c.UI) {
	case "json":
		if !c.PrintJson(result) {
			return base.CommandCliError
		}
	default:
		c.UI.Output(printResultsTable([]reconcile.Result{result}))
	}

	if result.Status == reconcile.StatusFailed {
		return base.CommandApiError
	}
	return base.CommandSuccess
}
