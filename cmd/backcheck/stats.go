package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/backcheck/backcheck/internal/config"
	"github.com/backcheck/backcheck/internal/database"
	"github.com/backcheck/backcheck/internal/report"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <input-file>",
		Short: "Show statistics for a project",
		Long: `Stats renders the persisted counters of the project belonging to the
given input file as a Markdown table: processed rows, category counts,
and the resume position.`,
		Args: cobra.ExactArgs(1),
		RunE: runStatsCmd,
	}

	cmd.Flags().String("project-dir", "", "Base directory for project data (default: XDG data dir)")
	cmd.Flags().StringP("output", "o", "", "Write the summary to a file instead of stdout")
	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, args []string) error {
	baseDir, err := cmd.Flags().GetString("project-dir")
	if err != nil {
		return err
	}
	if baseDir == "" {
		baseDir = filepath.Join(config.XDGDataDir(), "projects")
	}

	filename := filepath.Base(args[0])
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	projectDir := filepath.Join(baseDir, name)

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(projectDir, opts)
	if err != nil {
		return fmt.Errorf("no project found for %s: %w", args[0], err)
	}
	defer db.Close()

	state, err := db.LoadState(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path, err := cmd.Flags().GetString("output"); err == nil && path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return report.NewMarkdownWriter(out).WriteStats(name, state)
}
