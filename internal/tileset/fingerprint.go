package tileset

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"golang.org/x/crypto/blake2b"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

// Fingerprint hashes everything about a catalog that affects a solve: tile
// order, names, edge signatures, weights and fallback flags. Two catalogs
// with the same fingerprint produce the same grid for the same seed.
func Fingerprint(c *wfc.Catalog) string {
	h, _ := blake2b.New256(nil)

	var buf [8]byte
	writeUint := func(v uint64) {
		binary.BigEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	writeUint(uint64(c.Sockets()))
	writeUint(uint64(c.Len()))
	for _, t := range c.Tiles() {
		writeUint(uint64(len(t.Name)))
		h.Write([]byte(t.Name))
		for _, dir := range wfc.AllDirections() {
			for _, id := range t.Edges[dir] {
				writeUint(uint64(id))
			}
		}
		writeUint(math.Float64bits(t.Weight))
		if t.Fallback {
			writeUint(1)
		} else {
			writeUint(0)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
