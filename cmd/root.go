package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/NYTimes/logrotate"
	"github.com/apex/log"
	"github.com/apex/log/handlers/multi"
	"github.com/spf13/cobra"

	"github.com/pterodactyl/sandboxfs/config"
	"github.com/pterodactyl/sandboxfs/filesystem"
	"github.com/pterodactyl/sandboxfs/loggers/cli"
	"github.com/pterodactyl/sandboxfs/system"
)

// rootArgs holds the persistent flags shared by every command. Values left
// empty fall back to the configuration file.
type rootArgs struct {
	configPath  string
	debug       bool
	showVersion bool

	root    string
	backend string
	caps    string
	strict  bool
	openat2 bool

	// Closes the log file opened by configureLogging, if any.
	closeLog func()
}

func newRootCommand() (*cobra.Command, *rootArgs) {
	args := &rootArgs{configPath: config.DefaultLocation}

	command := &cobra.Command{
		Use:           "sandboxfs",
		Short:         "Work with files confined to a sandboxed root directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return args.initConfig()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if args.showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), system.Version)
				return nil
			}
			return cmd.Help()
		},
	}

	flags := command.PersistentFlags()
	flags.BoolVar(&args.showVersion, "version", false, "show the version and exit")
	flags.StringVar(&args.configPath, "config", config.DefaultLocation, "set the location for the configuration file")
	flags.BoolVar(&args.debug, "debug", false, "pass in order to enable debug logging")
	flags.StringVar(&args.root, "root", "", "the directory the filesystem is confined to")
	flags.StringVar(&args.backend, "backend", "", "the storage backend to use: unix, os or memory")
	flags.StringVar(&args.caps, "caps", "", "comma separated capabilities, e.g. readable,writable")
	flags.BoolVar(&args.strict, "strict", false, "refuse paths which move above the root at any point")
	flags.BoolVar(&args.openat2, "openat2", false, "use openat2 to confine path resolution (Linux 5.6+)")

	command.AddCommand(
		newVersionCommand(),
		newConfigureCommand(args),
		newDiagnosticsCommand(args),
		newCapsCommand(args),
		newStatCommand(args),
		newLsCommand(args),
		newCatCommand(args),
		newWriteCommand(args),
		newTruncateCommand(args),
		newMkdirCommand(args),
		newRmCommand(args),
	)

	return command, args
}

// Execute calls cobra to handle cli commands
func Execute() error {
	log.SetHandler(cli.Default)
	return run(newRootCommand())
}

// run executes command and closes the log file once it returns, whether or
// not the command failed.
func run(command *cobra.Command, args *rootArgs) error {
	defer args.closeLogFile()
	err := command.Execute()
	if err != nil {
		log.WithField("error", err).Error("command failed")
	}
	return err
}

func (a *rootArgs) closeLogFile() {
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
}

// initConfig loads the configuration file and sets up logging. A missing
// file at the default location is not an error, the defaults are used.
func (a *rootArgs) initConfig() error {
	c, err := a.readConfiguration()
	if err != nil {
		return err
	}
	if a.debug {
		c.Debug = true
	}
	config.Set(c)

	closeLog, err := configureLogging(c.System.LogDirectory, c.Debug)
	if err != nil {
		// Logging to disk is best effort, the console still receives every
		// entry.
		log.SetHandler(cli.Default)
		log.WithField("error", err).WithField("path", c.System.LogDirectory).Debug("not writing log files to disk")
	} else {
		a.closeLog = closeLog
	}

	if c.Path() != "" {
		log.WithField("path", c.Path()).Debug("loaded configuration from path")
	}
	return nil
}

// Get the configuration path based on the arguments provided.
func (a *rootArgs) readConfiguration() (*config.Configuration, error) {
	p := a.configPath
	if p == config.DefaultLocation {
		found, err := findConfiguration()
		if errors.Is(err, os.ErrNotExist) {
			return config.NewAtPath("")
		} else if err != nil {
			return nil, err
		}
		p = found
	}

	if !filepath.IsAbs(p) {
		d, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		p = filepath.Clean(filepath.Join(d, p))
	}

	if s, err := os.Stat(p); err != nil {
		return nil, err
	} else if s.IsDir() {
		return nil, errors.New("cannot use directory as configuration file path")
	}

	return config.FromFile(p)
}

// openFilesystem creates the filesystem described by the configuration and
// the persistent flags.
func (a *rootArgs) openFilesystem() (*filesystem.Filesystem, error) {
	c := config.Get().Filesystem
	if a.backend != "" {
		c.Backend = a.backend
	}
	if a.caps != "" {
		c.Capabilities = system.SplitList(a.caps)
	}
	c.StrictPaths = c.StrictPaths || a.strict
	c.UseOpenat2 = c.UseOpenat2 || a.openat2

	f, caps, err := filesystem.FactoryFromConfig(c)
	if err != nil {
		return nil, err
	}
	f.Logger = log.WithField("subsystem", "filesystem")
	return f.MakeWith(system.FirstNotEmpty(a.root, c.Root), caps)
}

// configureLogging sends log entries to the console and to a rotated log
// file in logDir.
func configureLogging(logDir string, debug bool) (func(), error) {
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if err := os.MkdirAll(logDir, 0o700); err != nil {
		return nil, err
	}

	p := filepath.Join(logDir, "sandboxfs.log")
	w, err := logrotate.NewFile(p)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to open process log file")
	}

	log.SetHandler(multi.New(
		cli.Default,
		cli.New(w.File, false),
	))

	log.WithField("path", p).Debug("writing log files to disk")

	return func() {
		log.SetHandler(cli.Default)
		_ = w.Close()
	}, nil
}
