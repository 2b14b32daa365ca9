package cmd

import (
	"fmt"
	"os"

	"emperror.dev/errors"
	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/pterodactyl/sandboxfs/config"
	"github.com/pterodactyl/sandboxfs/filesystem"
)

var configureArgs struct {
	Root         string
	Backend      string
	Capabilities []string
	StrictPaths  bool
	Override     bool
}

func newConfigureCommand(args *rootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactively write a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return configureCmdRun(cmd, args)
		},
	}
}

func configureCmdRun(cmd *cobra.Command, args *rootArgs) error {
	current := config.Get()
	p := args.configPath
	if current.Path() != "" && p == config.DefaultLocation {
		p = current.Path()
	}

	if _, err := os.Stat(p); err == nil {
		err := survey.AskOne(&survey.Confirm{Message: "Override existing configuration file"}, &configureArgs.Override)
		if errors.Is(err, terminal.InterruptErr) {
			return nil
		} else if err != nil {
			return errors.WithStack(err)
		}
		if !configureArgs.Override {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	var names []string
	for _, c := range filesystem.AllCapabilities().List() {
		names = append(names, c.String())
	}

	questions := []*survey.Question{
		{
			Name:     "Root",
			Prompt:   &survey.Input{Message: "Root directory:", Default: current.Filesystem.Root},
			Validate: survey.Required,
		},
		{
			Name: "Backend",
			Prompt: &survey.Select{
				Message: "Storage backend:",
				Options: []string{string(filesystem.BackendUnix), string(filesystem.BackendOS), string(filesystem.BackendMemory)},
				Default: current.Filesystem.Backend,
			},
		},
		{
			Name: "Capabilities",
			Prompt: &survey.MultiSelect{
				Message: "Capabilities:",
				Options: names,
				Default: current.Filesystem.Capabilities,
			},
		},
		{
			Name:   "StrictPaths",
			Prompt: &survey.Confirm{Message: "Refuse paths which move above the root at any point?", Default: current.Filesystem.StrictPaths},
		},
	}

	err := survey.Ask(questions, &configureArgs)
	if errors.Is(err, terminal.InterruptErr) {
		return nil
	} else if err != nil {
		return errors.WithStack(err)
	}

	c, err := config.NewAtPath(p)
	if err != nil {
		return err
	}
	c.Debug = current.Debug
	c.System = current.System
	c.Filesystem = current.Filesystem
	c.Filesystem.Root = configureArgs.Root
	c.Filesystem.Backend = configureArgs.Backend
	c.Filesystem.Capabilities = configureArgs.Capabilities
	c.Filesystem.StrictPaths = configureArgs.StrictPaths

	if err := config.WriteToDisk(c); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Successfully wrote configuration to %s.\n", p)
	return nil
}
