// Command bloom serves, exports and inspects the demo bloom application.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	berrors "github.com/bloom-go/bloom/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var be *berrors.BloomError
		if errors.As(err, &be) {
			berrors.Fprint(os.Stderr, be)
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "bloom",
		Short: "Pull-based UI rendering for Go",
		Long: `Bloom renders UI trees pulled from long-lived producers.

Each page and custom element is driven by a render session that
pulls a tree, applies it, and waits for the next render request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "Directory holding bloom.yaml or bloom.json")

	rootCmd.AddCommand(
		serveCmd(&configDir),
		exportCmd(&configDir),
		routesCmd(&configDir),
		versionCmd(),
	)
	return rootCmd
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", fmt.Sprintf(format, args...))
}

func usageError(format string, args ...any) error {
	return berrors.New("E140").WithDetailf(format, args...)
}
