package main

import (
	"fmt"
	"time"

	"github.com/lawnchairsociety/wavetiles/internal/config"
	"github.com/lawnchairsociety/wavetiles/internal/database"
	"github.com/lawnchairsociety/wavetiles/internal/logger"
	"github.com/lawnchairsociety/wavetiles/internal/render"
	"github.com/lawnchairsociety/wavetiles/internal/tileset"
)

// loadTileSet scans the configured tile directory with its probability file.
func loadTileSet(c *config.Config) (*tileset.Set, error) {
	probs, err := tileset.LoadProbabilities(c.Tiles.Probabilities)
	if err != nil {
		return nil, err
	}

	set, err := tileset.Scan(c.Tiles.Dir, tileset.Options{
		Sockets:        c.Tiles.Sockets,
		Probabilities:  probs,
		FallbackNames:  c.Tiles.FallbackNames,
		ColorTolerance: c.Tiles.ColorTolerance,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Tiles scanned",
		"dir", c.Tiles.Dir,
		"tiles", set.Catalog.Len(),
		"colors", set.Palette.Len(),
		"fallback", set.Catalog.Fallback().Name,
		"fingerprint", set.Fingerprint)
	return set, nil
}

// openHistory opens the run history store, or returns nil when it is disabled.
func openHistory(c *config.Config) (*database.Database, error) {
	if !c.Database.Enabled {
		return nil, nil
	}
	db, err := database.OpenWithConfig(c.Database.Config)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	return db, nil
}

// requireHistory is openHistory for commands that cannot work without it.
func requireHistory(c *config.Config) (*database.Database, error) {
	if !c.Database.Enabled {
		return nil, fmt.Errorf("run history is disabled (database.enabled: false)")
	}
	return openHistory(c)
}

// renderOptions builds the canvas settings from the output section.
func renderOptions(o config.OutputConfig) render.Options {
	return render.Options{
		Width:      o.Width,
		Height:     o.Height,
		Background: o.BackgroundColor(),
		Scaler:     o.Scaler,
	}
}

// resolveSeed returns seed, or a time based one when it is zero.
func resolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
