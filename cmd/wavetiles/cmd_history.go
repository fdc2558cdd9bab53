package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/wavetiles/internal/database"
)

var (
	historyLimit      int
	migrateFromSQLite string
	migrateDryRun     bool

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, most recent first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}

	historyShowCmd = &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded run and the tiles it used",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}

	historyDeleteCmd = &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDelete,
	}

	historyMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Copy runs from a SQLite history file into the configured database",
		Args:  cobra.NoArgs,
		RunE:  runHistoryMigrate,
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list, 0 for all")

	historyMigrateCmd.Flags().StringVar(&migrateFromSQLite, "from-sqlite", "data/wavetiles.db", "Path to the source SQLite history")
	historyMigrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "Show what would be copied without writing")

	historyCmd.AddCommand(historyShowCmd, historyDeleteCmd, historyMigrateCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	db, err := requireHistory(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

func printRuns(out io.Writer, runs []*database.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tGRID\tSEED\tSTATE\tATTEMPTS\tCOLLAPSED\tDURATION\tOUTPUT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%s\t%d\t%d/%d\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime),
			r.Width, r.Height, r.Seed, r.State, r.Attempts,
			r.Collapsed, r.Width*r.Height, r.Duration.Round(time.Millisecond), r.OutputPath)
	}
	tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	db, err := requireHistory(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRun(args[0])
	if err != nil {
		return err
	}
	cells, err := db.GetRunCells(run.ID)
	if err != nil {
		return err
	}
	printRun(cmd.OutOrStdout(), run, cells)
	return nil
}

// printRun writes a run's details and its tile usage, most used first.
func printRun(out io.Writer, run *database.Run, cells []database.RunCell) {
	fmt.Fprintf(out, "Run:         %s\n", run.ID)
	fmt.Fprintf(out, "Created:     %s\n", run.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Grid:        %dx%d\n", run.Width, run.Height)
	fmt.Fprintf(out, "Seed:        %d\n", run.Seed)
	fmt.Fprintf(out, "State:       %s\n", run.State)
	fmt.Fprintf(out, "Attempts:    %d\n", run.Attempts)
	fmt.Fprintf(out, "Steps:       %d\n", run.Steps)
	fmt.Fprintf(out, "Collapsed:   %d/%d\n", run.Collapsed, run.Width*run.Height)
	fmt.Fprintf(out, "Duration:    %s\n", run.Duration)
	fmt.Fprintf(out, "Fingerprint: %s\n", run.CatalogFingerprint)
	if run.OutputPath != "" {
		fmt.Fprintf(out, "Output:      %s\n", run.OutputPath)
	}

	counts := make(map[string]int)
	contradictions := 0
	for _, c := range cells {
		counts[c.Tile]++
		if c.Contradiction {
			contradictions++
			fmt.Fprintf(out, "Contradiction at (%d,%d)\n", c.X, c.Y)
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	fmt.Fprintf(out, "\nTile usage (%d cells, %d contradictions):\n", len(cells), contradictions)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%d\t%.1f%%\n", name, counts[name], 100*float64(counts[name])/float64(len(cells)))
	}
	tw.Flush()
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	db, err := requireHistory(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteRun(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
	return nil
}

func runHistoryMigrate(cmd *cobra.Command, args []string) error {
	dst, err := requireHistory(cfg)
	if err != nil {
		return err
	}
	defer dst.Close()

	if cfg.Database.Driver == string(database.DialectSQLite) && cfg.Database.SQLitePath == migrateFromSQLite {
		return fmt.Errorf("source and destination are the same SQLite file %s", migrateFromSQLite)
	}

	src, err := database.Open(migrateFromSQLite)
	if err != nil {
		return fmt.Errorf("open source history: %w", err)
	}
	defer src.Close()

	stats, err := database.CopyRuns(src, dst, migrateDryRun)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Copied %d runs (%d cells), skipped %d already present\n", stats.Runs, stats.Cells, stats.Skipped)
	if migrateDryRun {
		fmt.Fprintln(out, "(DRY RUN - No actual changes were made)")
	}
	return nil
}
