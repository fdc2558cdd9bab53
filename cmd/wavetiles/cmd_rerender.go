package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/wavetiles/internal/config"
	"github.com/lawnchairsociety/wavetiles/internal/database"
	"github.com/lawnchairsociety/wavetiles/internal/logger"
	"github.com/lawnchairsociety/wavetiles/internal/render"
)

var (
	rerenderOut   string
	rerenderForce bool

	rerenderCmd = &cobra.Command{
		Use:   "rerender <run-id>",
		Short: "Render a recorded run again from its stored placements",
		Args:  cobra.ExactArgs(1),
		RunE:  runRerender,
	}
)

func init() {
	rerenderCmd.Flags().StringVarP(&rerenderOut, "out", "o", "", "Output PNG path (default: the run's recorded output)")
	rerenderCmd.Flags().BoolVar(&rerenderForce, "force", false, "Render even if the tile library changed since the run")
	rootCmd.AddCommand(rerenderCmd)
}

func runRerender(cmd *cobra.Command, args []string) error {
	db, err := requireHistory(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	path, err := rerender(db, cfg, args[0], rerenderOut, rerenderForce)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// rerender rebuilds the image of a stored run with the current tile library.
func rerender(db *database.Database, c *config.Config, id, out string, force bool) (string, error) {
	run, err := db.GetRun(id)
	if err != nil {
		return "", err
	}
	cells, err := db.GetRunCells(run.ID)
	if err != nil {
		return "", err
	}

	set, err := loadTileSet(c)
	if err != nil {
		return "", err
	}
	if set.Fingerprint != run.CatalogFingerprint {
		if !force {
			return "", fmt.Errorf("tile library in %s changed since run %s (use --force to render anyway)", c.Tiles.Dir, run.ID)
		}
		logger.Warning("Tile library changed since run", "run", run.ID, "recorded", run.CatalogFingerprint, "current", set.Fingerprint)
	}

	placements, missing := database.Placements(cells, set.Catalog)
	if len(missing) > 0 {
		return "", fmt.Errorf("tiles no longer in %s: %s", c.Tiles.Dir, strings.Join(missing, ", "))
	}

	img, err := render.Compose(run.Width, run.Height, placements, set, renderOptions(c.Output))
	if err != nil {
		return "", err
	}

	if out == "" {
		out = run.OutputPath
	}
	if out == "" {
		out = c.Output.OutputPath()
	}
	if err := render.WritePNG(out, img); err != nil {
		return "", err
	}
	logger.Info("Run rerendered", "run", run.ID, "output", out)
	return out, nil
}
