package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/wavetiles/internal/tileset"
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

var (
	catalogManifest string

	catalogCmd = &cobra.Command{
		Use:   "catalog",
		Short: "Show the tiles, edge signatures and adjacency counts of the tile library",
		Args:  cobra.NoArgs,
		RunE:  runCatalog,
	}

	catalogExportCmd = &cobra.Command{
		Use:   "export [file]",
		Short: "Write the scanned tile library as a YAML manifest (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCatalogExport,
	}
)

func init() {
	catalogCmd.Flags().StringVar(&catalogManifest, "manifest", "", "Inspect a YAML manifest instead of scanning images")
	catalogCmd.AddCommand(catalogExportCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	var (
		catalog *wfc.Catalog
		source  string
		palette int
		err     error
	)
	if catalogManifest != "" {
		catalog, err = tileset.LoadManifestCatalog(catalogManifest)
		source = catalogManifest
	} else {
		var set *tileset.Set
		set, err = loadTileSet(cfg)
		if err == nil {
			catalog, palette = set.Catalog, set.Palette.Len()
		}
		source = cfg.Tiles.Dir
	}
	if err != nil {
		return err
	}

	printCatalog(cmd.OutOrStdout(), catalog, source, palette)
	return nil
}

// printCatalog writes one row per tile followed by any isolated tiles.
func printCatalog(out io.Writer, catalog *wfc.Catalog, source string, palette int) {
	fmt.Fprintf(out, "Source:      %s\n", source)
	fmt.Fprintf(out, "Tiles:       %d\n", catalog.Len())
	fmt.Fprintf(out, "Sockets:     %d\n", catalog.Sockets())
	if palette > 0 {
		fmt.Fprintf(out, "Colors:      %d\n", palette)
	}
	fmt.Fprintf(out, "Fallback:    %s\n", catalog.Fallback().Name)
	fmt.Fprintf(out, "Fingerprint: %s\n\n", tileset.Fingerprint(catalog))

	table := catalog.AdjacencyTable()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tWEIGHT\tUP\tRIGHT\tDOWN\tLEFT\tNEIGHBOURS U/R/D/L")
	for _, t := range catalog.Tiles() {
		name := t.Name
		if t.Fallback {
			name += " *"
		}
		counts := table[t.Index]
		fmt.Fprintf(tw, "%d\t%s\t%g\t%s\t%s\t%s\t%s\t%d/%d/%d/%d\n",
			t.Index, name, t.Weight,
			formatSignature(t.Edges[wfc.Up]),
			formatSignature(t.Edges[wfc.Right]),
			formatSignature(t.Edges[wfc.Down]),
			formatSignature(t.Edges[wfc.Left]),
			len(counts[wfc.Up]), len(counts[wfc.Right]), len(counts[wfc.Down]), len(counts[wfc.Left]))
	}
	tw.Flush()

	if isolated := catalog.Isolated(); len(isolated) > 0 {
		names := make([]string, len(isolated))
		for i, t := range isolated {
			names[i] = t.Name
		}
		fmt.Fprintf(out, "\nTiles with an unmatched side: %s\n", strings.Join(names, ", "))
	}
}

func formatSignature(sig wfc.Signature) string {
	parts := make([]string, len(sig))
	for i, id := range sig {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	set, err := loadTileSet(cfg)
	if err != nil {
		return err
	}

	if len(args) == 0 || args[0] == "-" {
		return tileset.WriteManifest(cmd.OutOrStdout(), set.Catalog, cfg.Tiles.Dir)
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := tileset.WriteManifest(f, set.Catalog, cfg.Tiles.Dir); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d tiles to %s\n", set.Catalog.Len(), args[0])
	return nil
}
