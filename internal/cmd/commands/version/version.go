package version

import (
	"fmt"

	"github.com/gatehouse-project/gatehouse/internal/cmd/base"
	ver "github.com/gatehouse-project/gatehouse/version"
	"github.com/mitchellh/cli"
	"github.com/posener/complete"
)

var (
	_ cli.Command             = (*Command)(nil)
	_ cli.CommandAutocomplete = (*Command)(nil)
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version of the local Gatehouse binary"
}

func (c *Command) Help() string {
	return base.WrapForHelpText([]string{
		"Usage: gatehouse version",
		"",
		"  This command displays the version of the local Gatehouse binary.",
	}) + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSets {
	return c.FlagSet(base.FlagSetOutputFormat)
}

func (c *Command) AutocompleteArgs() complete.Predictor {
	return complete.PredictAnything
}

func (c *Command) AutocompleteFlags() complete.Flags {
	return c.Flags().Completions()
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}

	verInfo := ver.Get()

	if base.Format(c.UI) == "json" {
		b, err := base.JsonFormatter{}.Format(verInfo)
		if err != nil {
			c.UI.Error(fmt.Errorf("Error formatting as JSON: %w", err).Error())
			return base.CommandCliError
		}
		c.UI.Output(string(b))
		return base.CommandSuccess
	}

	c.UI.Output(verInfo.FullVersionNumber(true))
	return base.CommandSuccess
}
