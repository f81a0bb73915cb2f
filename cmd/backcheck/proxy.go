package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/backcheck/backcheck/internal/config"
	"github.com/backcheck/backcheck/internal/log"
	"github.com/backcheck/backcheck/internal/proxy"
)

// NewProxyCmd creates the proxy command with its subcommands.
func NewProxyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Manage the working proxy pool",
		Long: `Proxy manages the pool of working proxies used for fetch retries.

The pool is persisted under the XDG data directory and shared by all
projects. Provider credentials come from the configuration file:

  provider:
    url: https://example.com/api/getproxy/
    api_key: your-key
    perpage: 20
    country: US`,
	}

	cmd.AddCommand(newProxyFetchCmd())
	cmd.AddCommand(newProxyCheckCmd())
	cmd.AddCommand(newProxyListCmd())
	return cmd
}

func newProxyFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a new batch of proxies from the provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := proxyConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.FileSettings == nil {
				return config.ErrConfigNotFound
			}

			provider := proxy.NewProvider(cfg.FileSettings.Provider, logger)
			proxies, err := provider.Fetch(cmd.Context())
			if err != nil {
				return err
			}

			pool := proxy.NewPool()
			if err := pool.Load(proxy.DefaultPoolPath()); err != nil {
				logger.Warn("failed to load existing pool", "error", err)
			}
			before := pool.Len()
			pool.Add(proxies...)
			if err := pool.Save(proxy.DefaultPoolPath()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "fetched %d proxies, pool now holds %d (%d new)\n",
				len(proxies), pool.Len(), pool.Len()-before)
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Configuration file path")
	return cmd
}

func newProxyCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Health-check the pool and keep only working proxies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, err := proxyConfig(cmd)
			if err != nil {
				return err
			}

			pool := proxy.NewPool()
			if err := pool.Load(proxy.DefaultPoolPath()); err != nil {
				return err
			}
			if pool.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "proxy pool is empty, run 'backcheck proxy fetch' first")
				return nil
			}

			probeURL, err := cmd.Flags().GetString("probe-url")
			if err != nil {
				return err
			}

			checker := proxy.NewChecker(probeURL, logger)
			before := pool.Len()
			working := checker.Check(cmd.Context(), pool.Snapshot())
			pool.Replace(working)
			if err := pool.Save(proxy.DefaultPoolPath()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d proxies working\n", pool.Len(), before)
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Configuration file path")
	cmd.Flags().String("probe-url", config.DefaultProbeURL, "URL fetched through each proxy")
	return cmd
}

func newProxyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the proxies currently in the pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool := proxy.NewPool()
			if err := pool.Load(proxy.DefaultPoolPath()); err != nil {
				return err
			}
			for _, p := range pool.Snapshot() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total: %d\n", pool.Len())
			return nil
		},
	}
}

// proxyConfig loads the configuration file and builds a logger for
// proxy subcommands.
func proxyConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg := config.NewConfig()
	if path, err := cmd.Flags().GetString("config"); err == nil {
		cfg.ConfigFilePath = path
	}
	if err := cfg.Load(); err != nil {
		return nil, nil, err
	}

	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)
	return cfg, logger, nil
}
