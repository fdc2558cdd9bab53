package server

import (
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

// Message types sent to websocket clients
const (
	MessageStep   = "step"
	MessageResult = "result"
	MessageError  = "error"
)

// SolveRequest is the JSON a websocket client sends to start a solve.
type SolveRequest struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Seed        *int64 `json:"seed,omitempty"` // nil picks a time based seed
	MaxAttempts int    `json:"max_attempts,omitempty"`
	Quiet       bool   `json:"quiet,omitempty"` // only send the result
}

// StepMessage reports one collapse.
type StepMessage struct {
	Type      string `json:"type"`
	Attempt   int    `json:"attempt"`
	Step      int    `json:"step"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Entropy   int    `json:"entropy"`
	Tile      string `json:"tile"`
	Outcome   string `json:"outcome"`
	Removed   [4]int `json:"removed"`
	Collapsed int    `json:"collapsed"`
	State     string `json:"state"`
}

// PlacementMessage is one collapsed cell of a result.
type PlacementMessage struct {
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Tile          string `json:"tile"`
	Contradiction bool   `json:"contradiction,omitempty"`
}

// ResultMessage closes a solve.
type ResultMessage struct {
	Type       string             `json:"type"`
	RunID      string             `json:"run_id,omitempty"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	Seed       int64              `json:"seed"`
	State      string             `json:"state"`
	Attempts   int                `json:"attempts"`
	Steps      int                `json:"steps"`
	Collapsed  int                `json:"collapsed"`
	DurationMS int64              `json:"duration_ms"`
	Error      string             `json:"error,omitempty"`
	Placements []PlacementMessage `json:"placements"`
}

// ErrorMessage rejects a request.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func newStepMessage(attempt int, ev wfc.StepEvent) StepMessage {
	msg := StepMessage{
		Type:      MessageStep,
		Attempt:   attempt,
		Step:      ev.Step,
		X:         ev.X,
		Y:         ev.Y,
		Entropy:   ev.Entropy,
		Outcome:   ev.Outcome.String(),
		Removed:   ev.Removed,
		Collapsed: ev.CollapsedCount,
		State:     ev.State.String(),
	}
	if ev.Tile != nil {
		msg.Tile = ev.Tile.Name
	}
	return msg
}

func newResultMessage(result *wfc.Result, runID string, err error) ResultMessage {
	msg := ResultMessage{
		Type:       MessageResult,
		RunID:      runID,
		Width:      result.Width,
		Height:     result.Height,
		Seed:       result.Seed,
		State:      result.State.String(),
		Attempts:   result.Attempts,
		Steps:      result.Steps,
		Collapsed:  result.CollapsedCount,
		DurationMS: result.Duration.Milliseconds(),
		Placements: make([]PlacementMessage, 0, len(result.Placements)),
	}
	if err != nil {
		msg.Error = err.Error()
	}
	for _, p := range result.Placements {
		msg.Placements = append(msg.Placements, PlacementMessage{
			X:             p.X,
			Y:             p.Y,
			Tile:          p.Tile.Name,
			Contradiction: p.Contradiction,
		})
	}
	return msg
}
