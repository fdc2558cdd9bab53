package wfc

import (
	"errors"
	"fmt"
)

var (
	ErrContradiction = errors.New("wfc: contradiction - no valid tiles for cell")
	ErrMaxIterations = errors.New("wfc: exceeded maximum iterations")
	ErrInvalidSize   = errors.New("wfc: invalid grid size")
	ErrNoSolution    = errors.New("wfc: failed to find valid solution")
	ErrNilCatalog    = errors.New("wfc: nil catalog")
)

// State is the solver's position in its lifecycle
type State int

const (
	StateRunning State = iota // some cell is still uncollapsed
	StateDone                 // every cell collapsed
	StateHalted               // a contradiction stopped the solve
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further steps will happen
func (s State) Terminal() bool {
	return s == StateDone || s == StateHalted
}

// StepEvent describes one iteration of the collapse loop
type StepEvent struct {
	Step           int
	X, Y           int
	Entropy        int // domain size of the selected cell before collapsing
	Tile           *Tile
	Outcome        Outcome
	Removed        [4]int // candidates removed from the neighbour in each direction
	CollapsedCount int
	State          State
}

// Placement is a collapsed cell as seen by renderers and storage
type Placement struct {
	X, Y          int
	Tile          *Tile
	Contradiction bool
}

// Solver implements the Wave Function Collapse algorithm over a fixed grid
type Solver struct {
	Width, Height int
	Grid          [][]*Cell
	Catalog       *Catalog

	// Observer, when set, is called after every step
	Observer func(StepEvent)

	rng       Rand
	collapsed int
	steps     int
	state     State

	// scratch buffer for tie candidates, reused across steps
	ties []*Cell
}

// NewSolver creates a solver with every cell holding the full catalog
func NewSolver(width, height int, catalog *Catalog, rng Rand) (*Solver, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if catalog == nil {
		return nil, ErrNilCatalog
	}

	s := &Solver{
		Width:   width,
		Height:  height,
		Catalog: catalog,
		rng:     rng,
		state:   StateRunning,
	}
	s.initializeGrid()
	return s, nil
}

// initializeGrid sets up a blank grid
func (s *Solver) initializeGrid() {
	s.Grid = make([][]*Cell, s.Height)
	for y := 0; y < s.Height; y++ {
		s.Grid[y] = make([]*Cell, s.Width)
		for x := 0; x < s.Width; x++ {
			s.Grid[y][x] = newCell(x, y, s.Catalog)
		}
	}
}

// State returns the current solver state
func (s *Solver) State() State { return s.state }

// CollapsedCount returns how many cells resolved successfully
func (s *Solver) CollapsedCount() int { return s.collapsed }

// Steps returns how many collapse steps have run
func (s *Solver) Steps() int { return s.steps }

// Cell returns the cell at (x, y), or nil when out of bounds
func (s *Solver) Cell(x, y int) *Cell {
	if x < 0 || x >= s.Width || y < 0 || y >= s.Height {
		return nil
	}
	return s.Grid[y][x]
}

// Run steps until the solve is done or halted
func (s *Solver) Run() State {
	for {
		if _, ok := s.Step(); !ok {
			return s.state
		}
	}
}

// Step selects the lowest entropy cell, collapses it and restricts its four
// neighbours. It returns false once the solver is in a terminal state.
func (s *Solver) Step() (StepEvent, bool) {
	if s.state.Terminal() {
		return StepEvent{}, false
	}

	cell := s.pickLowestEntropyCell()
	s.steps++

	ev := StepEvent{
		Step:    s.steps,
		X:       cell.X,
		Y:       cell.Y,
		Entropy: cell.Entropy(),
	}

	ev.Outcome = cell.Collapse(s.rng, s.Catalog.Fallback())
	ev.Tile = cell.Tile

	switch ev.Outcome {
	case OutcomeContradiction:
		// Hard stop: the rest of the grid keeps whatever state it has now
		s.state = StateHalted
	case OutcomeResolved:
		s.collapsed++
		ev.Removed = s.propagateFrom(cell)
		if s.collapsed == s.Width*s.Height {
			s.state = StateDone
		}
	}

	ev.CollapsedCount = s.collapsed
	ev.State = s.state
	if s.Observer != nil {
		s.Observer(ev)
	}
	return ev, true
}

// pickLowestEntropyCell returns a uniformly random cell among the uncollapsed
// cells sharing the minimum entropy.
func (s *Solver) pickLowestEntropyCell() *Cell {
	s.ties = s.ties[:0]
	best := -1

	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			c := s.Grid[y][x]
			if c.Collapsed {
				continue
			}
			e := c.Entropy()
			switch {
			case best < 0 || e < best:
				best = e
				s.ties = append(s.ties[:0], c)
			case e == best:
				s.ties = append(s.ties, c)
			}
		}
	}

	if len(s.ties) == 0 {
		panic("wfc: no uncollapsed cell left to select")
	}
	return s.ties[s.rng.Intn(len(s.ties))]
}

// propagateFrom restricts the immediate neighbours of a freshly resolved cell.
// Neighbours of neighbours are not revisited.
func (s *Solver) propagateFrom(cell *Cell) [4]int {
	var removed [4]int
	for _, dir := range AllDirections() {
		neighbor := s.getNeighbor(cell.X, cell.Y, dir)
		if neighbor == nil || neighbor.Collapsed {
			continue
		}
		removed[dir] = neighbor.Restrict(dir.Opposite(), cell.Tile)
	}
	return removed
}

// neighborCoords returns the coordinates of a neighbor in the given direction
func (s *Solver) neighborCoords(x, y int, dir Direction) (int, int) {
	dx, dy := dir.Offset()
	return x + dx, y + dy
}

// getNeighbor returns the neighbor cell in the given direction
func (s *Solver) getNeighbor(x, y int, dir Direction) *Cell {
	nx, ny := s.neighborCoords(x, y, dir)
	return s.Cell(nx, ny)
}

// Placements lists collapsed cells in row-major order
func (s *Solver) Placements() []Placement {
	out := make([]Placement, 0, s.collapsed+1)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			c := s.Grid[y][x]
			if !c.Collapsed || c.Tile == nil {
				continue
			}
			out = append(out, Placement{X: x, Y: y, Tile: c.Tile, Contradiction: c.Contradiction})
		}
	}
	return out
}

// Contradictions returns the cells that collapsed onto the fallback tile
func (s *Solver) Contradictions() []*Cell {
	var out []*Cell
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			if s.Grid[y][x].Contradiction {
				out = append(out, s.Grid[y][x])
			}
		}
	}
	return out
}
