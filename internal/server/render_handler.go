package server

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/lawnchairsociety/wavetiles/internal/logger"
	"github.com/lawnchairsociety/wavetiles/internal/render"
)

// maxCellPixels caps the per-cell size a /render request may ask for
const maxCellPixels = 64

// handleRender solves a grid and answers with its PNG.
//
//	GET /render?width=20&height=20[&seed=1][&cell=8][&attempts=3]
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	width, err1 := intParam(q.Get("width"), 0)
	height, err2 := intParam(q.Get("height"), 0)
	cell, err3 := intParam(q.Get("cell"), s.defaultCellPixels())
	attempts, err4 := intParam(q.Get("attempts"), 0)
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.checkSize(width, height); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if cell < 1 || cell > maxCellPixels {
		http.Error(w, fmt.Sprintf("cell must be between 1 and %d", maxCellPixels), http.StatusBadRequest)
		return
	}

	seed := time.Now().UnixNano()
	if v := q.Get("seed"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, fmt.Sprintf("seed: %v", err), http.StatusBadRequest)
			return
		}
		seed = parsed
	}

	clientIP := getRealIP(r)
	release, ok := s.connLimiter.Acquire(clientIP)
	if !ok {
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}
	defer release()

	result, runID, err := s.solve(r.Context(), width, height, seed, s.attempts(attempts), nil)
	if result == nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err != nil {
		logger.Warning("Render solve stopped early", "seed", seed, "error", err)
	}

	img, err := render.Compose(width, height, result.Placements, s.set, render.Options{
		Width:      width * cell,
		Height:     height * cell,
		Background: s.cfg.Output.BackgroundColor(),
		Scaler:     s.cfg.Output.Scaler,
	})
	if err != nil {
		logger.Error("Render failed", "seed", seed, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "image/png")
	h.Set("X-Wavetiles-Seed", strconv.FormatInt(result.Seed, 10))
	h.Set("X-Wavetiles-State", result.State.String())
	h.Set("X-Wavetiles-Attempts", strconv.Itoa(result.Attempts))
	if runID != "" {
		h.Set("X-Wavetiles-Run", runID)
	}
	w.Write(buf.Bytes())
}

// defaultCellPixels keeps the configured output-to-grid ratio
func (s *Server) defaultCellPixels() int {
	if s.cfg.Grid.Width <= 0 {
		return 1
	}
	cell := s.cfg.Output.Width / s.cfg.Grid.Width
	if cell < 1 {
		return 1
	}
	if cell > maxCellPixels {
		return maxCellPixels
	}
	return cell
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}
