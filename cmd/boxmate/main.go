package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hession/boxmate/internal/cli"
	"github.com/hession/boxmate/internal/config"
	"github.com/hession/boxmate/internal/homebox"
	"github.com/hession/boxmate/internal/logger"
	"github.com/hession/boxmate/internal/server"
	"github.com/hession/boxmate/internal/store"
	"github.com/hession/boxmate/internal/tools"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "boxmate",
		Short: "Boxmate - Chat with your Homebox inventory",
		Long: `Boxmate connects an LLM to your self-hosted Homebox inventory.

It can:
  • Search your inventory in natural language
  • Show item details, locations and quantities
  • Add new items and adjust stock counts
  • Serve the inventory tools over HTTP for other LLM frontends`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logConfigInfo(cfg)

			return cli.Run(cfg)
		},
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// newServeCmd exposes the inventory tools over HTTP
func newServeCmd() *cobra.Command {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP tool server for LLM frontends",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logConfigInfo(cfg)

			if addr != "" {
				cfg.Server.Addr = addr
			}

			st, err := store.NewSQLiteStore(cfg.Store.DBPath)
			if err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}
			defer st.Close()

			client, err := buildHomeboxClient(cfg, st)
			if err != nil {
				return err
			}

			// The server has no interactive confirm, API key auth gates writes
			registry := tools.NewDefaultRegistry(client, cfg.Homebox.PageSize, nil)
			registry.SetAuditor(st, "server")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(cfg.Server.Addr, cfg.Server.APIKey, registry, st)
			fmt.Printf("Boxmate tool server listening on %s\n", cfg.Server.Addr)
			if err := srv.Start(ctx); err != nil && err != ctx.Err() {
				return err
			}
			return nil
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return serveCmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fmt.Println(cfg.String())

			path, _ := config.ConfigPath()
			fmt.Printf("\nConfig file path: %s\n", path)
			return nil
		},
	}
}

// newToolsCmd lists the registered inventory tools
func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List available inventory tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			client, err := buildHomeboxClient(cfg, nil)
			if err != nil {
				return err
			}

			registry := tools.NewDefaultRegistry(client, cfg.Homebox.PageSize, nil)
			for _, tool := range registry.List() {
				fmt.Printf("%-22s %s\n", tool.Name(), tool.Description())
				for _, param := range tool.Parameters() {
					required := ""
					if param.Required {
						required = " (required)"
					}
					fmt.Printf("    %s %s%s: %s\n", param.Name, param.Type, required, param.Description)
				}
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Boxmate v%s\n", version)
		},
	}
}

// buildHomeboxClient wires the API client with the optional response cache.
func buildHomeboxClient(cfg *config.Config, st store.Store) (*homebox.Client, error) {
	if !cfg.IsHomeboxConfigured() {
		return nil, fmt.Errorf("homebox is not configured, set homebox.base_url and a token or username/password in the config file")
	}

	var cache homebox.Cache
	if st != nil {
		if rc := store.NewResponseCache(st, time.Duration(cfg.Store.CacheTTLMinutes)*time.Minute); rc != nil {
			cache = rc
		}
	}

	client, err := homebox.NewClient(homebox.ClientConfig{
		BaseURL:              cfg.Homebox.BaseURL,
		Token:                cfg.Homebox.Token,
		Username:             cfg.Homebox.Username,
		Password:             cfg.Homebox.Password,
		CFAccessClientID:     cfg.Homebox.CFAccessClientID,
		CFAccessClientSecret: cfg.Homebox.CFAccessClientSecret,
		UserAgent:            cfg.Homebox.UserAgent,
		Timeout:              time.Duration(cfg.Homebox.TimeoutSeconds) * time.Second,
		Cache:                cache,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create homebox client: %w", err)
	}
	return client, nil
}

// logConfigInfo records the effective configuration at startup
func logConfigInfo(cfg *config.Config) {
	logger.Info("homebox base URL: %s", cfg.Homebox.BaseURL)
	logger.Info("model: %s @ %s", cfg.Model.Model, cfg.Model.BaseURL)
	logger.Info("store: %s (context window %d messages)", cfg.Store.DBPath, cfg.Store.MaxContextMessages)
	logger.Info("confirm writes: %v", cfg.Safety.ConfirmWrites)
}
