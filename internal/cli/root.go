package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
)

// NewRootCmd creates the root command for keywheel
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "keywheel",
		Short: "keywheel - rotating signing-key store and JWKS publisher",
		Long: `keywheel maintains an in-process set of signing keys, cycles through them
round-robin when issuing signed tokens, and publishes the public half of
every key as a JWK Set for downstream verifiers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default: ./configs/keywheel.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewGenerateCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
