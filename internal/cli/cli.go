// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command tree for webchat.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath   string
	conversation string
	verbose      bool
	json         bool
	noColor      bool
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		DisplayError(os.Stderr, err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "webchat",
		Short: "Terminal chat client",
		Long: `webchat is a terminal client for a simple group chat.

Run without arguments to open the full-screen interface. When stdin or stdout
is not a terminal, the line-mode REPL is started instead.

Messages are stored in a local SQLite database by default; set
store.backend = "http" in the config file to use a hosted chat API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				ForceColorsEnabled(false)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if Interactive() {
				return runTUI(cmd.Context(), opts)
			}
			return runLine(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default ~/.webchat/config.toml)")
	flags.StringVarP(&opts.conversation, "conversation", "c", "", "Conversation to open at startup")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level")
	flags.BoolVar(&opts.json, "json", false, "Print machine-readable output where supported")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newLineCommand(opts),
		newSeedCommand(opts),
		newConversationsCommand(opts),
		newHistoryCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	return root
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "webchat %s\n", Version)
	fmt.Fprintf(w, "  %s %s\n", RenderLabel("Commit:"), GitCommit)
	fmt.Fprintf(w, "  %s %s\n", RenderLabel("Built:"), BuildDate)
	fmt.Fprintf(w, "  %s %s %s/%s\n", RenderLabel("Go:"), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
