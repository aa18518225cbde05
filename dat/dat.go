package dat

import (
	"encoding/binary"
	"fmt"
)

// Array is a frozen double-array trie in the layout used by MeCab dictionaries.
//   - The array is a sequence of units {int32 base, uint32 check}, 8 bytes each,
//     little endian. It is read in place and never copied.
//   - A trie state is identified by its base value b. The root state is the
//     base of unit 0.
//   - Transition: p := b + label + 1; valid if check[p] == b; the next state
//     is base[p].
//   - A state b carries a value iff unit b has check == b and base < 0.
//     The value v = -base-1 packs the index of the first entry (v >> 8) and
//     the number of entries (v & 0xFF).
//
// Every access is bounds checked, out-of-range slots behave like empty ones.
type Array struct {
	units []byte
}

// UnitSize is the size of one {base, check} unit in bytes.
const UnitSize = 8

// New wraps raw unit data. len(units) must be a multiple of UnitSize.
func New(units []byte) (*Array, error) {
	if len(units)%UnitSize != 0 {
		return nil, fmt.Errorf("double array size %d is not a multiple of %d", len(units), UnitSize)
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("double array is empty")
	}
	return &Array{units: units}, nil
}

// NUnits returns the number of allocated units.
func (a *Array) NUnits() int { return len(a.units) / UnitSize }

// Unit returns the unit at slot p.
func (a *Array) Unit(p uint32) (base int32, check uint32, ok bool) {
	off := uint64(p) * UnitSize
	if off+UnitSize > uint64(len(a.units)) {
		return 0, 0, false
	}
	u := a.units[off : off+UnitSize]
	return int32(binary.LittleEndian.Uint32(u)), binary.LittleEndian.Uint32(u[4:]), true
}

// Root returns the root state.
func (a *Array) Root() uint32 {
	base, _, _ := a.Unit(0)
	return uint32(base)
}

// Transition returns (nextState, ok).
func (a *Array) Transition(b uint32, label byte) (uint32, bool) {
	p := uint64(b) + uint64(label) + 1
	if p > 0xFFFFFFFF {
		return 0, false
	}
	base, check, ok := a.Unit(uint32(p))
	if !ok || check != b {
		return 0, false
	}
	return uint32(base), true
}

// Kind tags a Node.
type Kind uint8

const (
	Internal Kind = iota // state without a value
	Terminal             // state with a run of entries; it may have children as well
)

// Node is the decoded view of a trie state.
type Node struct {
	Kind  Kind
	Base  uint32
	Start int // first entry, Terminal only
	Count int // number of entries, Terminal only
}

// Node decodes state b.
func (a *Array) Node(b uint32) Node {
	n := Node{Kind: Internal, Base: b}
	base, check, ok := a.Unit(b)
	if ok && check == b && base < 0 {
		v := -int64(base) - 1
		n.Kind = Terminal
		n.Start = int(v >> 8)
		n.Count = int(v & 0xFF)
	}
	return n
}

// Match is a run of entries found for a key prefix of Length bytes.
type Match struct {
	Start  int
	Count  int
	Length int
}

// ExactMatch looks up key as a whole.
func (a *Array) ExactMatch(key string) (Match, bool) {
	b := a.Root()
	for i := 0; i < len(key); i++ {
		next, ok := a.Transition(b, key[i])
		if !ok {
			return Match{}, false
		}
		b = next
	}
	if n := a.Node(b); n.Kind == Terminal {
		return Match{Start: n.Start, Count: n.Count, Length: len(key)}, true
	}
	return Match{}, false
}

// CommonPrefixMatch appends a Match for every prefix of key which is in the
// trie, shortest first, and returns the extended slice.
func (a *Array) CommonPrefixMatch(key string, dst []Match) []Match {
	b := a.Root()
	for i := 0; i < len(key); i++ {
		if n := a.Node(b); n.Kind == Terminal {
			dst = append(dst, Match{Start: n.Start, Count: n.Count, Length: i})
		}
		next, ok := a.Transition(b, key[i])
		if !ok {
			return dst
		}
		b = next
	}
	if n := a.Node(b); n.Kind == Terminal {
		dst = append(dst, Match{Start: n.Start, Count: n.Count, Length: len(key)})
	}
	return dst
}

// Validate checks that every entry run addressed by the trie lies within
// [0, entries).
func (a *Array) Validate(entries int) error {
	for p := 0; p < a.NUnits(); p++ {
		n := a.Node(uint32(p))
		if n.Kind != Terminal {
			continue
		}
		if n.Start+n.Count > entries {
			return fmt.Errorf("slot %d addresses entries [%d,%d), have %d", p, n.Start, n.Start+n.Count, entries)
		}
	}
	return nil
}

// Stats describes the fill state of the array.
type Stats struct {
	TotalSlots int
	UsedSlots  int
	Terminals  int
}

// FillRatio returns UsedSlots/TotalSlots.
func (s Stats) FillRatio() float64 {
	if s.TotalSlots == 0 {
		return 0
	}
	return float64(s.UsedSlots) / float64(s.TotalSlots)
}

// Stats counts used slots, i.e. slots with a non-zero check or a non-zero base.
func (a *Array) Stats() Stats {
	stats := Stats{TotalSlots: a.NUnits()}
	for p := 0; p < stats.TotalSlots; p++ {
		base, check, _ := a.Unit(uint32(p))
		if p == 0 || check != 0 || base != 0 {
			stats.UsedSlots++
		}
		if check == uint32(p) && base < 0 {
			stats.Terminals++
		}
	}
	return stats
}
