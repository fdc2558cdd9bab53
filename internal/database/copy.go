package database

import (
	"errors"
	"fmt"

	"github.com/lawnchairsociety/wavetiles/internal/logger"
)

// CopyStats counts the outcome of CopyRuns
type CopyStats struct {
	Runs    int // runs written (or that would be written in a dry run)
	Cells   int
	Skipped int // runs already present in the destination
}

// CopyRuns copies every run and its cells from src into dst, oldest first.
// Runs whose id already exists in dst are skipped, so an interrupted copy can
// be rerun. With dryRun nothing is written.
func CopyRuns(src, dst *Database, dryRun bool) (CopyStats, error) {
	var stats CopyStats

	runs, err := src.ListRuns(0)
	if err != nil {
		return stats, fmt.Errorf("list source runs: %w", err)
	}

	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]

		if _, err := dst.GetRun(run.ID); err == nil {
			stats.Skipped++
			continue
		} else if !errors.Is(err, ErrRunNotFound) {
			return stats, fmt.Errorf("check run %s: %w", run.ID, err)
		}

		cells, err := src.GetRunCells(run.ID)
		if err != nil {
			return stats, fmt.Errorf("read cells of run %s: %w", run.ID, err)
		}

		if !dryRun {
			if err := dst.RecordRun(run, cells); err != nil {
				return stats, fmt.Errorf("copy run %s: %w", run.ID, err)
			}
		}
		stats.Runs++
		stats.Cells += len(cells)
		logger.Debug("Run copied", "id", run.ID, "cells", len(cells), "dry_run", dryRun)
	}

	return stats, nil
}
