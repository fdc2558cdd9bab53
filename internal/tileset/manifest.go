package tileset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

var ErrInvalidManifest = errors.New("tileset: invalid manifest")

// ManifestYAML is an image-free tile library: every edge is given as socket ids.
type ManifestYAML struct {
	Sockets int            `yaml:"sockets"`
	Tiles   []ManifestTile `yaml:"tiles"`
}

// ManifestTile is one tile of a manifest
type ManifestTile struct {
	Name     string        `yaml:"name"`
	Weight   *float64      `yaml:"weight,omitempty"`
	Fallback bool          `yaml:"fallback,omitempty"`
	Edges    ManifestEdges `yaml:"edges"`
}

// ManifestEdges holds the four signatures of a manifest tile
type ManifestEdges struct {
	Up    []uint32 `yaml:"up"`
	Right []uint32 `yaml:"right"`
	Down  []uint32 `yaml:"down"`
	Left  []uint32 `yaml:"left"`
}

// LoadManifest reads a YAML manifest and returns its tile specs and socket count.
// A tile without a weight gets wfc.DefaultWeight; a manifest without sockets
// gets wfc.DefaultSockets. Signature lengths are checked by wfc.NewCatalog.
func LoadManifest(path string) ([]wfc.TileSpec, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("tileset: read manifest: %w", err)
	}

	var m ManifestYAML
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
	}

	sockets := m.Sockets
	if sockets == 0 {
		sockets = wfc.DefaultSockets
	}

	specs := make([]wfc.TileSpec, 0, len(m.Tiles))
	for i, t := range m.Tiles {
		if t.Name == "" {
			return nil, 0, fmt.Errorf("%w: tile %d has no name", ErrInvalidManifest, i)
		}
		weight := wfc.DefaultWeight
		if t.Weight != nil {
			weight = *t.Weight
		}
		specs = append(specs, wfc.TileSpec{
			Name:     t.Name,
			Edges:    [4]wfc.Signature{t.Edges.Up, t.Edges.Right, t.Edges.Down, t.Edges.Left},
			Weight:   weight,
			Fallback: t.Fallback,
		})
	}
	return specs, sockets, nil
}

// LoadManifestCatalog reads a manifest straight into a catalog
func LoadManifestCatalog(path string) (*wfc.Catalog, error) {
	specs, sockets, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return wfc.NewCatalog(sockets, specs)
}

// WriteManifest writes a catalog as a manifest, keeping catalog order and
// printing each signature on one line.
func WriteManifest(w io.Writer, c *wfc.Catalog, source string) error {
	if source != "" {
		fmt.Fprintf(w, "# Exported from %s\n", source)
	}
	fmt.Fprintf(w, "# Tiles: %d, fingerprint: %s\n\n", c.Len(), Fingerprint(c))

	tiles := &yaml.Node{Kind: yaml.SequenceNode}
	for _, t := range c.Tiles() {
		node := &yaml.Node{Kind: yaml.MappingNode}
		addStringField(node, "name", t.Name)
		addScalarField(node, "weight", strconv.FormatFloat(t.Weight, 'g', -1, 64))
		if t.Fallback {
			addScalarField(node, "fallback", "true")
		}

		edges := &yaml.Node{Kind: yaml.MappingNode}
		for _, dir := range wfc.AllDirections() {
			addSignatureField(edges, dir.String(), t.Edges[dir])
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "edges"}, edges)

		tiles.Content = append(tiles.Content, node)
	}

	doc := struct {
		Sockets int        `yaml:"sockets"`
		Tiles   *yaml.Node `yaml:"tiles"`
	}{
		Sockets: c.Sockets(),
		Tiles:   tiles,
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// addStringField tags the value so names like "true" or "1.png" stay strings
func addStringField(node *yaml.Node, key, value string) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}

func addScalarField(node *yaml.Node, key, value string) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value},
	)
}

func addSignatureField(node *yaml.Node, key string, sig wfc.Signature) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, id := range sig {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatUint(uint64(id), 10)})
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		seq,
	)
}
