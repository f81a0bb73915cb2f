package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backcheck/backcheck/internal/checkpoint"
	"github.com/backcheck/backcheck/internal/config"
	"github.com/backcheck/backcheck/internal/crawl"
	"github.com/backcheck/backcheck/internal/fetch"
	"github.com/backcheck/backcheck/internal/input"
	"github.com/backcheck/backcheck/internal/log"
	"github.com/backcheck/backcheck/internal/model"
	"github.com/backcheck/backcheck/internal/proxy"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <input-file>",
		Short: "Check donor pages for backlink placements",
		Long: `Check fetches every donor page from the input spreadsheet and looks
for the target URL, the anchor text, and the configured domains, in
that order of precedence.

Results are checkpointed into a per-input project directory. Interrupt
the run with Ctrl-C and restart with --resume to continue from the
last persisted row.

Examples:
  # Check with donor and target columns from an xlsx file
  backcheck check donors.xlsx --donor-column "Donor URL" --target-column "Target URL"

  # Match by anchor text and domains
  backcheck check donors.csv --donor-column url --anchor-column anchor --domains example.com,example.org

  # Resume an interrupted run
  backcheck check donors.xlsx --donor-column "Donor URL" --resume`,
		Args: cobra.ExactArgs(1),
		RunE: runCheckCmd,
	}

	cmd.Flags().StringP("donor-column", "D", "", "Header name of the donor URL column (required)")
	cmd.Flags().StringP("target-column", "T", "", "Header name of the target URL column")
	cmd.Flags().StringP("anchor-column", "A", "", "Header name of the anchor text column")
	cmd.Flags().StringSlice("domains", nil, "Domains for stage-3 matching (comma-separated)")
	cmd.Flags().Bool("domains-from-targets", false, "Also match domains derived from the target column")
	cmd.Flags().Int("start-row", 0, "Input row to start from")
	cmd.Flags().BoolP("resume", "r", false, "Resume from the project's last persisted row")
	cmd.Flags().IntP("threads", "n", config.DefaultThreads, "Number of concurrent workers")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout per fetch attempt")
	cmd.Flags().String("project-dir", "", "Base directory for project data (default: XDG data dir)")
	cmd.Flags().StringP("config", "c", "", "Configuration file path (default: .backcheck in current or home directory)")
	cmd.Flags().Bool("monotonic-last-row", false, "Never move the persisted resume position backwards")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCheckConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Load(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	monotonic, err := cmd.Flags().GetBool("monotonic-last-row")
	if err != nil {
		return err
	}

	return runCheck(cmd, cfg, logger, monotonic)
}

// buildCheckConfig builds the run configuration from flags.
func buildCheckConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.InputFile = args[0]

	var err error
	if cfg.DonorColumn, err = cmd.Flags().GetString("donor-column"); err != nil {
		return nil, err
	}
	if cfg.TargetColumn, err = cmd.Flags().GetString("target-column"); err != nil {
		return nil, err
	}
	if cfg.AnchorColumn, err = cmd.Flags().GetString("anchor-column"); err != nil {
		return nil, err
	}
	if cfg.Domains, err = cmd.Flags().GetStringSlice("domains"); err != nil {
		return nil, err
	}
	if cfg.DomainsFromTargets, err = cmd.Flags().GetBool("domains-from-targets"); err != nil {
		return nil, err
	}
	if cfg.StartRow, err = cmd.Flags().GetInt("start-row"); err != nil {
		return nil, err
	}
	if cfg.Resume, err = cmd.Flags().GetBool("resume"); err != nil {
		return nil, err
	}
	if cfg.Threads, err = cmd.Flags().GetInt("threads"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ProjectDir, err = cmd.Flags().GetString("project-dir"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its root.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runCheck wires the project, the input, the proxy pool, and the
// coordinator together and runs the verification.
func runCheck(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, monotonic bool) error {
	project, err := checkpoint.OpenProject(cfg.InputFile, cfg.ProjectDir)
	if err != nil {
		return err
	}

	store, err := checkpoint.NewStore(project, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	tasks, err := loadTasks(project.InputFile, cfg, store.State().LastRow)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to do")
		return nil
	}

	pool := proxy.NewPool()
	if err := pool.Load(proxy.DefaultPoolPath()); err != nil {
		logger.Warn("failed to load proxy pool", "error", err)
	}
	logger.Debug("proxy pool loaded", "proxies", pool.Len())

	client := fetch.NewClient(
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	)

	out := cmd.OutOrStdout()
	opts := []crawl.Option{
		crawl.WithPicker(pool),
		crawl.WithDomains(cfg.Domains),
		crawl.WithThreads(cfg.Threads),
		crawl.WithLogger(logger),
		crawl.WithRecorder(store),
		crawl.WithProgress(func(percent float64, result model.Result, index int) {
			fmt.Fprintf(out, "[%5.1f%%] row %d: %s %s\n", percent, index, result.Status, result.DonorURL)
		}),
	}
	if monotonic {
		opts = append(opts, crawl.WithMonotonicLastRow())
	}
	coordinator := crawl.NewCoordinator(client, opts...)

	// First interrupt requests a cooperative stop; in-flight fetches
	// finish and the run finalizes normally.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Warn("received shutdown signal, stopping after in-flight pages")
		coordinator.Stop()
	}()

	runErr := coordinator.Run(ctx, tasks)

	if err := store.Finalize(); err != nil {
		return fmt.Errorf("finalize project: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	state := store.State()
	outcome := "completed"
	if coordinator.Stopped() {
		outcome = "stopped"
	}
	fmt.Fprintf(out, "%s: %d processed (%d dofollow, %d nofollow, %d text, %d not found, %d errors)\n",
		outcome,
		state.Stats.TotalProcessed,
		state.Stats.Dofollow,
		state.Stats.Nofollow,
		state.Stats.Text,
		state.Stats.NotFound,
		state.Stats.Errors,
	)
	fmt.Fprintf(out, "reports in %s\n", project.Dir)
	return nil
}

// loadTasks reads the project's input copy and builds the task list.
func loadTasks(path string, cfg *config.Config, persistedLastRow int) ([]model.Task, error) {
	sheet, err := input.LoadSheet(path)
	if err != nil {
		return nil, err
	}

	donors, err := sheet.Column(cfg.DonorColumn)
	if err != nil {
		return nil, fmt.Errorf("donor column: %w (available: %s)", err, strings.Join(sheet.Header, ", "))
	}

	var targets, anchors []string
	if cfg.TargetColumn != "" {
		if targets, err = sheet.Column(cfg.TargetColumn); err != nil {
			return nil, fmt.Errorf("target column: %w", err)
		}
		if cfg.DomainsFromTargets {
			cfg.Domains = append(cfg.Domains, input.Domains(targets)...)
		}
	}
	if cfg.AnchorColumn != "" {
		if anchors, err = sheet.Column(cfg.AnchorColumn); err != nil {
			return nil, fmt.Errorf("anchor column: %w", err)
		}
	}

	startRow := cfg.StartRow
	if cfg.Resume {
		startRow = persistedLastRow
	}
	return input.Tasks(donors, targets, anchors, startRow), nil
}
