package tileset

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

var ErrInvalidProbabilities = errors.New("tileset: invalid probabilities file")

// LoadProbabilities reads a map of tile file name to selection weight.
// The file may be JSON or YAML. A missing file yields an empty map, so every
// tile gets the default weight.
func LoadProbabilities(path string) (map[string]float64, error) {
	probs := make(map[string]float64)
	if path == "" {
		return probs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return probs, nil
		}
		return nil, fmt.Errorf("tileset: read probabilities: %w", err)
	}

	if err := yaml.Unmarshal(data, &probs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProbabilities, path, err)
	}
	for name, w := range probs {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: %s has weight %v", ErrInvalidProbabilities, name, w)
		}
	}
	return probs, nil
}

// weightFor looks a tile up in probs, falling back to wfc.DefaultWeight
func weightFor(probs map[string]float64, name string) float64 {
	if w, ok := probs[name]; ok {
		return w
	}
	return wfc.DefaultWeight
}
