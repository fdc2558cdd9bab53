package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRunNotFound  = errors.New("database: run not found")
	ErrDuplicateRun = errors.New("database: run already recorded")
)

// Run is one recorded solve.
type Run struct {
	ID                 string
	Seed               int64
	Width              int
	Height             int
	State              string
	Attempts           int
	Steps              int
	Collapsed          int
	CatalogFingerprint string
	OutputPath         string
	Duration           time.Duration
	CreatedAt          time.Time
}

// RunCell is the tile placed at one grid position of a run.
type RunCell struct {
	X, Y          int
	Tile          string
	Contradiction bool
}

const runColumns = `id, seed, width, height, state, attempts, steps, collapsed,
	catalog_fingerprint, output_path, duration_ms, created_at`

// RecordRun stores a run and its placed cells in one transaction.
// An empty ID is filled with a new UUID, a zero CreatedAt with the current time.
func (d *Database) RecordRun(run *Run, cells []RunCell) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(d.qb.Build(`
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), run.ID, run.Seed, run.Width, run.Height, run.State, run.Attempts, run.Steps,
		run.Collapsed, run.CatalogFingerprint, run.OutputPath, run.Duration.Milliseconds(), run.CreatedAt)
	if err != nil {
		if d.dialect.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateRun, run.ID)
		}
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(cells) > 0 {
		stmt, err := tx.Prepare(d.qb.Build(`
			INSERT INTO run_cells (run_id, x, y, tile, contradiction) VALUES (?, ?, ?, ?, ?)
		`))
		if err != nil {
			return fmt.Errorf("failed to prepare cell insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range cells {
			if _, err := stmt.Exec(run.ID, c.X, c.Y, c.Tile, boolToInt(c.Contradiction)); err != nil {
				return fmt.Errorf("failed to insert cell (%d,%d): %w", c.X, c.Y, err)
			}
		}
	}

	return tx.Commit()
}

// GetRun loads a run by ID.
func (d *Database) GetRun(id string) (*Run, error) {
	row := d.db.QueryRow(d.qb.Build(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ListRuns returns the most recent runs first. A non-positive limit returns all.
func (d *Database) ListRuns(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.Query(d.qb.Build(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRunCells returns the placed cells of a run in row-major order.
func (d *Database) GetRunCells(id string) ([]RunCell, error) {
	rows, err := d.db.Query(d.qb.Build(`
		SELECT x, y, tile, contradiction FROM run_cells
		WHERE run_id = ?
		ORDER BY y, x
	`), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []RunCell
	for rows.Next() {
		var (
			c             RunCell
			contradiction int
		)
		if err := rows.Scan(&c.X, &c.Y, &c.Tile, &contradiction); err != nil {
			return nil, err
		}
		c.Contradiction = contradiction != 0
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

// DeleteRun removes a run and its cells.
func (d *Database) DeleteRun(id string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(d.qb.Build(`DELETE FROM run_cells WHERE run_id = ?`), id); err != nil {
		return err
	}
	result, err := tx.Exec(d.qb.Build(`DELETE FROM runs WHERE id = ?`), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		durationMS int64
	)
	err := row.Scan(&run.ID, &run.Seed, &run.Width, &run.Height, &run.State, &run.Attempts,
		&run.Steps, &run.Collapsed, &run.CatalogFingerprint, &run.OutputPath, &durationMS, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
