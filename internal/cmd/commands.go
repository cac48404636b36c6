package cmd

import (
	"github.com/gatehouse-project/gatehouse/internal/cmd/base"
	"github.com/gatehouse-project/gatehouse/internal/cmd/commands/assignmentscmd"
	"github.com/gatehouse-project/gatehouse/internal/cmd/commands/principalscmd"
	"github.com/gatehouse-project/gatehouse/internal/cmd/commands/rolescmd"
	"github.com/gatehouse-project/gatehouse/internal/cmd/commands/scopegroupscmd"
	"github.com/gatehouse-project/gatehouse/internal/cmd/commands/version"

	"github.com/mitchellh/cli"
)

// Commands is the mapping of all the available commands.
var Commands map[string]cli.CommandFactory

func initCommands(ui cli.Ui) {
	Commands = map[string]cli.CommandFactory{
		"assignments apply": func() (cli.Command, error) {
			return &assignmentscmd.ApplyCommand{
				Command: base.NewCommand(ui),
			}, nil
		},
		"assignments remove": func() (cli.Command, error) {
			return &assignmentscmd.RemoveCommand{
				Command: base.NewCommand(ui),
			}, nil
		},
		"roles list": func() (cli.Command, error) {
			return &rolescmd.ListCommand{
				Command: base.NewCommand(ui),
			}, nil
		},
		"scope-groups list": func() (cli.Command, error) {
			return &scopegroupscmd.ListCommand{
				Command: base.NewCommand(ui),
			}, nil
		},
		"principals list": func() (cli.Command, error) {
			return &principalscmd.ListCommand{
				Command: base.NewCommand(ui),
			}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{
				Command: base.NewCommand(ui),
			}, nil
		},
	}
}
