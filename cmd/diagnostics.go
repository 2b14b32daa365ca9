package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pterodactyl/sandboxfs/config"
	"github.com/pterodactyl/sandboxfs/filesystem"
	"github.com/pterodactyl/sandboxfs/system"
)

func newDiagnosticsCommand(args *rootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnostics",
		Short: "Report information about this host and configuration to assist in debugging",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return diagnosticsCmdRun(cmd.OutOrStdout(), args)
		},
	}
}

// diagnosticsCmdRun prints the versions, configuration and the filesystem
// that would be opened with the current flags. A filesystem that cannot be
// opened is reported rather than failing the command.
func diagnosticsCmdRun(output io.Writer, args *rootArgs) error {
	fmt.Fprintln(output, "sandboxfs - Diagnostics Report")

	printHeader(output, "Versions")
	fmt.Fprintln(output, "           sandboxfs:", system.Version)
	if info, err := system.GetSystemInformation(); err == nil {
		fmt.Fprintln(output, "              Kernel:", info.KernelVersion)
		fmt.Fprintln(output, "                  OS:", info.OS, info.Architecture)
		if info.Distribution != "" {
			fmt.Fprintln(output, "        Distribution:", info.Distribution)
		}
	}

	cfg := config.Get()
	printHeader(output, "Configuration")
	fmt.Fprintln(output, "  Configuration File:", system.FirstNotEmpty(cfg.Path(), "<defaults>"))
	fmt.Fprintln(output, "      Root Directory:", cfg.Filesystem.Root)
	fmt.Fprintln(output, "             Backend:", cfg.Filesystem.Backend)
	fmt.Fprintln(output, "        Capabilities:", strings.Join(cfg.Filesystem.Capabilities, ","))
	fmt.Fprintln(output, "        Strict Paths:", cfg.Filesystem.StrictPaths)
	fmt.Fprintln(output, "         Use openat2:", cfg.Filesystem.UseOpenat2)
	fmt.Fprintln(output, "            Denylist:", len(cfg.Filesystem.Denylist), "pattern(s)")
	fmt.Fprintln(output, "      Logs Directory:", cfg.System.LogDirectory)
	fmt.Fprintln(output, "          Debug Mode:", cfg.Debug)
	fmt.Fprintln(output, "         Server Time:", time.Now().Format(time.RFC1123Z))

	printHeader(output, "Filesystem")
	err := args.withFilesystem(func(fs *filesystem.Filesystem) error {
		fmt.Fprintln(output, "                  ID:", fs.ID())
		fmt.Fprintln(output, "                Root:", fs.Root())
		fmt.Fprintln(output, "        Capabilities:", fs.Capabilities())
		m, err := fs.Metadata(".")
		if err != nil {
			return err
		}
		fmt.Fprintln(output, "     Root Accessible:", m.IsDir())
		return nil
	})
	if err != nil {
		fmt.Fprintln(output, color.RedString("    Failed to open filesystem: %s", err))
	}

	return nil
}

func printHeader(w io.Writer, title string) {
	fmt.Fprintln(w, "\n|\n|", color.New(color.Bold).Sprint(title))
	fmt.Fprintln(w, "| ------------------------------")
}
