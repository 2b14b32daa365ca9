package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"emperror.dev/errors"
	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/apex/log"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pterodactyl/sandboxfs/filesystem"
	"github.com/pterodactyl/sandboxfs/system"
)

// withFilesystem opens the configured filesystem for the duration of fn.
func (a *rootArgs) withFilesystem(fn func(fs *filesystem.Filesystem) error) error {
	fs, err := a.openFilesystem()
	if err != nil {
		return err
	}
	defer func() {
		if err := fs.Close(); err != nil {
			log.WithField("error", err).Warn("failed to close filesystem")
		}
	}()
	return fn(fs)
}

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func newCapsCommand(args *rootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "caps",
		Short: "Show the root and capabilities of the filesystem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return args.withFilesystem(func(fs *filesystem.Filesystem) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "root\t%s\n", fs.Root())
				fmt.Fprintf(w, "readable\t%t\n", fs.IsReadable())
				fmt.Fprintf(w, "writable\t%t\n", fs.IsWritable())
				fmt.Fprintf(w, "appendable\t%t\n", fs.IsAppendable())
				fmt.Fprintf(w, "truncatable\t%t\n", fs.IsTruncatable())
				fmt.Fprintf(w, "removable\t%t\n", fs.IsRemovable())
				return w.Flush()
			})
		},
	}
}

func newStatCommand(args *rootArgs) *cobra.Command {
	var asJSON bool
	command := &cobra.Command{
		Use:   "stat <path>",
		Short: "Describe a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return args.withFilesystem(func(fs *filesystem.Filesystem) error {
				st, err := fs.Stat(argv[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), st)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "path\t%s\n", st.Path)
				fmt.Fprintf(w, "type\t%s\n", map[bool]string{true: "dir", false: "file"}[st.IsDir()])
				fmt.Fprintf(w, "size\t%d (%s)\n", st.Size(), system.FormatBytes(st.Size()))
				fmt.Fprintf(w, "mode\t%s\n", st.Mode())
				fmt.Fprintf(w, "mime\t%s\n", st.Mimetype)
				return w.Flush()
			})
		},
	}
	command.Flags().BoolVar(&asJSON, "json", false, "print the result as json")
	return command
}

func newLsCommand(args *rootArgs) *cobra.Command {
	var asJSON bool
	command := &cobra.Command{
		Use:   "ls [path]",
		Short: "List the contents of a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			p := "."
			if len(argv) == 1 {
				p = argv[0]
			}
			return args.withFilesystem(func(fs *filesystem.Filesystem) error {
				d, err := fs.OpenDir(p)
				if err != nil {
					return err
				}
				it, err := d.Entries()
				if err != nil {
					return err
				}
				defer it.Close()

				var out []filesystem.Metadata
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for it.Next() {
					e, err := it.Entry()
					if err != nil {
						// A single unreadable entry does not end the listing.
						log.WithField("error", err).Warn("failed to read directory entry")
						continue
					}
					if asJSON {
						out = append(out, e.Metadata())
						continue
					}
					size, _ := e.Size()
					fmt.Fprintf(w, "%s\t%s\t%s\n", e.Type(), system.FormatBytes(size), e.Path())
				}
				if asJSON {
					if out == nil {
						out = []filesystem.Metadata{}
					}
					return writeJSON(cmd.OutOrStdout(), out)
				}
				return w.Flush()
			})
		},
	}
	command.Flags().BoolVar(&asJSON, "json", false, "print the result as json")
	return command
}

func newCatCommand(args *rootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print the contents of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return args.withFilesystem(func(fs *filesystem.Filesystem) error {
				f, err := fs.OpenFile(argv[0])
				if err != nil {
					return err
				}
				defer f.Close()
				_, err = io.Copy(cmd.OutOrStdout(), f)
				return errors.WithStack(err)
			})
		},
	}
}

func newWriteCommand(args *rootArgs) *cobra.Command {
	var createNew, appendTo bool
	command := &cobra.Command{
		Use:   "write <path>",
		Short: "Write standard input to a file, creating it when missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			if createNew && appendTo {
				return errors.New("--new and --append cannot be used together")
			}
			return args.withFilesystem(func(fs *filesystem.Filesystem) error {
				var f *filesystem.File
				var err error
				switch {
				case createNew:
					f, err = fs.CreateNewFile(argv[0])
				case appendTo:
					f, err = fs.AppendFile(argv[0])
				default:
					f, err = fs.CreateFile(argv[0])
				}
				if err != nil {
					return err
				}
				n, err := io.Copy(f, cmd.InOrStdin())
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					return errors.WithStack(err)
				}
				log.WithField("path", f.Name()).WithField("bytes", n).Info("wrote file")
				return nil
			})
		},
	}
	command.Flags().BoolVar(&createNew, "new", false, "fail if the file already exists")
	command.Flags().BoolVar(&appendTo, "append", false, "append to an existing file")
	return command
}

func newTruncateCommand(args *rootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "truncate <path> <size>",
		Short: "Change the size of an existing file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, argv []string) error {
			size, err := strconv.ParseInt(argv[1], 10, 64)
			if err != nil || size < 0 {
				return errors.Errorf("invalid size %q", argv[1])
			}
			return args.withFilesystem(func(fs *filesystem.Filesystem) error {
				return fs.TruncateFile(argv[0], size)
			})
		},
	}
}

func newMkdirCommand(args *rootArgs) *cobra.Command {
	var createNew bool
	command := &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a directory along with any missing parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return args.withFilesystem(func(fs *filesystem.Filesystem) error {
				create := fs.CreateDir
				if createNew {
					create = fs.CreateNewDir
				}
				d, err := create(argv[0])
				if err != nil {
					return err
				}
				log.WithField("path", d.Name()).Info("created directory")
				return nil
			})
		},
	}
	command.Flags().BoolVar(&createNew, "new", false, "fail if the directory already exists")
	return command
}

func newRmCommand(args *rootArgs) *cobra.Command {
	var recursive, force bool
	command := &cobra.Command{
		Use:   "rm <path>",
		Short: "Remove a file, or a directory and everything in it with -r",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return args.withFilesystem(func(fs *filesystem.Filesystem) error {
				if !force {
					var confirmed bool
					msg := fmt.Sprintf("Remove %s", argv[0])
					if recursive {
						msg += " and everything in it"
					}
					err := survey.AskOne(&survey.Confirm{Message: msg}, &confirmed)
					if errors.Is(err, terminal.InterruptErr) {
						return nil
					} else if err != nil {
						return errors.WithStack(err)
					}
					if !confirmed {
						fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
						return nil
					}
				}
				if recursive {
					return fs.RemoveDir(argv[0])
				}
				return fs.RemoveFile(argv[0])
			})
		},
	}
	command.Flags().BoolVarP(&recursive, "recursive", "r", false, "remove a directory and its contents")
	command.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")
	return command
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), system.Version)
		},
	}
}
