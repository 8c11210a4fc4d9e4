package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keywheel/keywheel/internal/config"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the keywheel server",
		Long: `Start the keywheel HTTP server.

The server will:
  - Publish the public key set at /.well-known/jwks.json
  - Issue signed tokens at /v1/token, rotating through the key set
  - Accept key generation requests at /v1/keys

Configuration precedence (highest to lowest):
  1. Command-line flags
  2. Environment variables (KEYWHEEL_*)
  3. Configuration file`,
		RunE: runServe,
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Determine config file path
	configPath := configFile
	if configPath == "" {
		configPath = os.Getenv("KEYWHEEL_CONFIG")
	}
	if configPath == "" {
		// Default, but only when it exists; keywheel runs fine on defaults
		if _, err := os.Stat("./configs/keywheel.yaml"); err == nil {
			configPath = "./configs/keywheel.yaml"
		}
	}

	// 2. Load configuration (file + env vars + flags)
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 3. Build components via provider
	provider := config.NewProvider(cfg)

	log, err := provider.Logger()
	if err != nil {
		return err
	}

	store, err := provider.Store(ctx)
	if err != nil {
		return fmt.Errorf("failed to build key store: %w", err)
	}

	sgn, err := provider.Signer(store)
	if err != nil {
		return fmt.Errorf("failed to build signer: %w", err)
	}

	// 4. Create and start server
	srv := provider.Server(store, sgn, log)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	fmt.Println("keywheel is running")
	fmt.Printf("  JWKS:   http://localhost:%d/.well-known/jwks.json\n", cfg.Server.HTTPPort)
	fmt.Printf("  Tokens: http://localhost:%d/v1/token\n", cfg.Server.HTTPPort)
	fmt.Printf("  Keys:   %d in rotation\n", store.Len())
	if configPath != "" {
		fmt.Printf("  Config: %s\n", configPath)
	}

	// 5. Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")

	// 6. Graceful shutdown
	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}

	fmt.Println("Shutdown complete")
	return nil
}
