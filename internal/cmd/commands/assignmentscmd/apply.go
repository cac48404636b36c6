package assignmentscmd

import (
	"fmt"
	"os"

	"github.com/gatehouse-project/gatehouse/internal/cmd/base"
	"github.com/gatehouse-project/gatehouse/internal/reconcile"
	"github.com/hashicorp/go-hclog"
	"github.com/kr/pretty"
	"github.com/mitchellh/cli"
	"github.com/posener/complete"
)

var (
	_ cli.Command             = (*ApplyCommand)(nil)
	_ cli.CommandAutocomplete = (*ApplyCommand)(nil)
)

type ApplyCommand struct {
	*base.Command

	flagPrincipal   string
	flagRole        string
	flagScopeGroups []string
	flagLogLevel    string
}

func (c *ApplyCommand) Synopsis() string {
	return "Apply desired role assignments, creating or updating as needed"
}

func (c *ApplyCommand) Help() string {
	return base.WrapForHelpText([]string{
		"Usage: gatehouse assignments apply [options]",
		"",
		"  Converge role assignments to the desired state. For each request the",
		"  current assignment is read and the minimal action is taken: a missing",
		"  assignment is created, an assignment with a different scope is updated,",
		"  and an assignment already in the desired state is left alone.",
		"",
		"  Assign a role across the entire workspace:",
		"",
		`      $ gatehouse assignments apply -principal jane@example.com -role "Operator"`,
		"",
		"  Assign a role restricted to scope groups:",
		"",
		`      $ gatehouse assignments apply -principal jane@example.com -role "Operator" -scope-group "Prod" -scope-group "Staging"`,
		"",
	}) + c.Flags().Help()
}

func (c *ApplyCommand) Flags() *base.FlagSets {
	set := c.FlagSet(base.FlagSetHTTP | base.FlagSetClient | base.FlagSetOutputFormat)
	f := set.NewFlagSet("Command Options")

	f.StringVar(&base.StringVar{
		Name:       "principal",
		Target:     &c.flagPrincipal,
		Completion: complete.PredictAnything,
		Usage:      "The email of the user or the name of the group to assign the role to.",
	})

	f.StringVar(&base.StringVar{
		Name:       "role",
		Target:     &c.flagRole,
		Completion: complete.PredictAnything,
		Usage:      "The display name of the role to assign.",
	})

	f.StringSliceVar(&base.StringSliceVar{
		Name:       "scope-group",
		Target:     &c.flagScopeGroups,
		Completion: complete.PredictAnything,
		Usage:      "The name of a scope group to restrict the assignment to. May be specified multiple times. If not specified, the role applies to the entire workspace.",
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

func (c *ApplyCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *ApplyCommand) AutocompleteFlags() complete.Flags {
	return c.Flags().Completions()
}

func (c *ApplyCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}

	reqs, err := c.buildRequests()
	if err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}

	client, err := c.Client()
	if err != nil {
		c.PrintCliError(fmt.Errorf("Error creating API client: %w", err))
		return base.CommandCliError
	}

	logger, err := c.logger()
	if err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}
	logger.Debug("parsed assignment requests", "requests", pretty.Sprint(reqs))

	engine := reconcile.New(reconcile.NewGateway(client),
		reconcile.WithLogger(logger),
	)

	results := engine.ReconcileBatch(c.Context, reqs)

	switch base.Format(c.UI) {
	case "json":
		if !c.PrintJsonItems(results) {
			return base.CommandCliError
		}
	default:
		c.UI.Output(printResultsTable(results))
	}

	if err := reconcile.SummaryError(results); err != nil {
		return base.CommandApiError
	}
	return base.CommandSuccess
}

func (c *ApplyCommand) buildRequests() ([]reconcile.Request, error) {
	if c.flagPrincipal == "" {
		return nil, fmt.Errorf("-principal is required")
	}
	if c.flagRole == "" {
		return nil, fmt.Errorf("-role is required")
	}

	return []reconcile.Request{
		{
			PrincipalRef:    c.flagPrincipal,
			RoleDisplayName: c.flagRole,
			ScopeGroupNames: c.flagScopeGroups,
		},
	}, nil
}

func (c *ApplyCommand) logger() (hclog.Logger, error) {
	level, err := base.ProcessLogLevel(c.flagLogLevel)
	if err != nil {
		return nil, err
	}
	if level == hclog.Off {
		return hclog.NewNullLogger(), nil
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "reconcile",
		Level:  level,
		Output: os.Stderr,
	}), nil
}
