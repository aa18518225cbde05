package dictbuild

import (
	"encoding/binary"
	"fmt"
)

// Category is a character category definition.
type Category struct {
	Name   string
	Invoke bool
	Group  bool
	Length int
}

// CharTable assembles a char.bin classification table. Code points not
// covered by any range belong to the first category.
type CharTable struct {
	cats  []Category
	index map[string]int
	info  []uint32
}

// NewCharTable creates a table with the given categories. The first one is
// the fallback category.
func NewCharTable(cats ...Category) (*CharTable, error) {
	if len(cats) == 0 || len(cats) > 18 {
		return nil, fmt.Errorf("need 1 to 18 categories, have %d", len(cats))
	}
	t := &CharTable{
		cats:  cats,
		index: make(map[string]int, len(cats)),
		info:  make([]uint32, 0x10000),
	}
	for i, c := range cats {
		if len(c.Name) >= 32 {
			return nil, fmt.Errorf("category name %q too long", c.Name)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate category %q", c.Name)
		}
		t.index[c.Name] = i
	}
	fallback := t.pack(1, 0)
	for cp := range t.info {
		t.info[cp] = fallback
	}
	return t, nil
}

// SetRange assigns code points lo..hi to the named categories. The first
// name is the default category; its flags apply to the range.
func (t *CharTable) SetRange(lo, hi rune, names ...string) error {
	if lo < 0 || hi > 0xFFFF || lo > hi {
		return fmt.Errorf("invalid range %U..%U", lo, hi)
	}
	if len(names) == 0 {
		return fmt.Errorf("range %U..%U without category", lo, hi)
	}
	var mask uint32
	for _, name := range names {
		id, ok := t.index[name]
		if !ok {
			return fmt.Errorf("unknown category %q", name)
		}
		mask |= 1 << id
	}
	info := t.pack(mask, t.index[names[0]])
	for cp := lo; cp <= hi; cp++ {
		t.info[cp] = info
	}
	return nil
}

func (t *CharTable) pack(mask uint32, def int) uint32 {
	c := t.cats[def]
	v := mask | uint32(def)<<18 | uint32(c.Length&0xF)<<26
	if c.Group {
		v |= 1 << 30
	}
	if c.Invoke {
		v |= 1 << 31
	}
	return v
}

// Bytes serializes the table.
func (t *CharTable) Bytes() []byte {
	out := make([]byte, 4+32*len(t.cats)+4*len(t.info))
	binary.LittleEndian.PutUint32(out, uint32(len(t.cats)))
	for i, c := range t.cats {
		copy(out[4+32*i:], c.Name)
	}
	p := 4 + 32*len(t.cats)
	for _, v := range t.info {
		binary.LittleEndian.PutUint32(out[p:], v)
		p += 4
	}
	return out
}
