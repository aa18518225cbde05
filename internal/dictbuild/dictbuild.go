/*
Package dictbuild writes the binary files consumed by the analyzer:
char.bin, sys.dic/unk.dic and matrix.bin. It is meant for tests and small
fixtures; it does not train costs.
*/
package dictbuild

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Layout constants of dictionary files.
const (
	MagicID    = 0xef718f77
	Version    = 102
	HeaderSize = 72
	EntrySize  = 16
)

// Word is one lexicon entry.
type Word struct {
	Surface string
	LeftID  uint16
	RightID uint16
	PosID   uint16
	Cost    int16
	Feature string
}

// BuildDictionary serializes words into the sys.dic/unk.dic format.
// Homonyms (equal surfaces) keep their relative order. lsize and rsize
// are recorded in the header.
func BuildDictionary(words []Word, lsize, rsize int) ([]byte, error) {
	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Surface < sorted[j].Surface
	})
	tb := newTrieBuilder()
	var features []byte
	entries := make([]byte, 0, len(sorted)*EntrySize)
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j].Surface == sorted[i].Surface {
			j++
		}
		if err := tb.insert(sorted[i].Surface, i, j-i); err != nil {
			return nil, err
		}
		i = j
	}
	for _, w := range sorted {
		var e [EntrySize]byte
		binary.LittleEndian.PutUint16(e[0:], w.LeftID)
		binary.LittleEndian.PutUint16(e[2:], w.RightID)
		binary.LittleEndian.PutUint16(e[4:], w.PosID)
		binary.LittleEndian.PutUint16(e[6:], uint16(w.Cost))
		binary.LittleEndian.PutUint32(e[8:], uint32(len(features)))
		entries = append(entries, e[:]...)
		features = append(features, w.Feature...)
		features = append(features, 0)
	}
	units := tb.freeze()
	total := HeaderSize + len(units) + len(entries) + len(features)
	out := make([]byte, HeaderSize, total)
	le := binary.LittleEndian
	le.PutUint32(out[0:], uint32(total)^MagicID)
	le.PutUint32(out[4:], Version)
	le.PutUint32(out[8:], 0) // type
	le.PutUint32(out[12:], uint32(len(sorted)))
	le.PutUint32(out[16:], uint32(lsize))
	le.PutUint32(out[20:], uint32(rsize))
	le.PutUint32(out[24:], uint32(len(units)))
	le.PutUint32(out[28:], uint32(len(entries)))
	le.PutUint32(out[32:], uint32(len(features)))
	copy(out[40:], "utf-8")
	out = append(out, units...)
	out = append(out, entries...)
	out = append(out, features...)
	return out, nil
}

// BuildMatrix serializes an lsize x rsize connection matrix. cost is called
// with (right id of the preceding node, left id of the following node).
func BuildMatrix(lsize, rsize int, cost func(right, left int) int16) ([]byte, error) {
	if lsize <= 0 || rsize <= 0 || lsize > 0x7FFF || rsize > 0x7FFF {
		return nil, fmt.Errorf("invalid matrix dimensions %dx%d", lsize, rsize)
	}
	out := make([]byte, 4+2*lsize*rsize)
	binary.LittleEndian.PutUint16(out[0:], uint16(lsize))
	binary.LittleEndian.PutUint16(out[2:], uint16(rsize))
	for left := 0; left < rsize; left++ {
		for right := 0; right < lsize; right++ {
			var c int16
			if cost != nil {
				c = cost(right, left)
			}
			binary.LittleEndian.PutUint16(out[4+2*(right+lsize*left):], uint16(c))
		}
	}
	return out, nil
}
