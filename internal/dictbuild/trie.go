package dictbuild

import (
	"encoding/binary"
	"fmt"
	"sort"
)

type buildNode struct {
	pos      uint32
	children map[byte]*buildNode
	terminal bool
	value    int32
}

type trieBuilder struct {
	root  *buildNode
	base  []int32
	check []uint32
	used  []bool
	bases map[int]bool
}

func newTrieBuilder() *trieBuilder {
	return &trieBuilder{
		root:  &buildNode{children: make(map[byte]*buildNode)},
		bases: make(map[int]bool),
	}
}

// insert adds key with a run of count entries starting at start.
func (tb *trieBuilder) insert(key string, start, count int) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	if count < 1 || count > 0xFF {
		return fmt.Errorf("key %q: %d entries, must be in [1,255]", key, count)
	}
	if start >= 1<<23 {
		return fmt.Errorf("key %q: entry index %d too large", key, start)
	}
	n := tb.root
	for i := 0; i < len(key); i++ {
		child := n.children[key[i]]
		if child == nil {
			child = &buildNode{children: make(map[byte]*buildNode)}
			n.children[key[i]] = child
		}
		n = child
	}
	if n.terminal {
		return fmt.Errorf("duplicate key %q", key)
	}
	n.terminal = true
	n.value = int32(start<<8 | count)
	return nil
}

// freeze lays the trie out breadth first and returns the unit array.
// Slot 0 holds the root. Each state gets a unique base >= 1; its value,
// if any, lives at slot base, a child for byte c at base+c+1.
func (tb *trieBuilder) freeze() []byte {
	tb.ensure(0)
	tb.used[0] = true
	queue := []*buildNode{tb.root}
	for q := 0; q < len(queue); q++ {
		n := queue[q]
		codes := nodeCodes(n)
		base := tb.findBase(codes)
		tb.bases[base] = true
		tb.base[n.pos] = int32(base)
		for _, code := range codes {
			t := base + code
			tb.ensure(t)
			tb.used[t] = true
			tb.check[t] = uint32(base)
			if code == 0 {
				tb.base[t] = -n.value - 1
				continue
			}
			child := n.children[byte(code-1)]
			child.pos = uint32(t)
			queue = append(queue, child)
		}
	}
	out := make([]byte, len(tb.base)*8)
	for i := range tb.base {
		binary.LittleEndian.PutUint32(out[i*8:], uint32(tb.base[i]))
		binary.LittleEndian.PutUint32(out[i*8+4:], tb.check[i])
	}
	return out
}

func nodeCodes(n *buildNode) []int {
	codes := make([]int, 0, len(n.children)+1)
	if n.terminal {
		codes = append(codes, 0)
	}
	labels := make([]int, 0, len(n.children))
	for c := range n.children {
		labels = append(labels, int(c)+1)
	}
	sort.Ints(labels)
	return append(codes, labels...)
}

func (tb *trieBuilder) findBase(codes []int) int {
	for base := 1; ; base++ {
		if tb.bases[base] {
			continue
		}
		ok := true
		for _, code := range codes {
			t := base + code
			if t < len(tb.used) && tb.used[t] {
				ok = false
				break
			}
		}
		if ok {
			return base
		}
	}
}

func (tb *trieBuilder) ensure(idx int) {
	if idx < len(tb.base) {
		return
	}
	grow := idx + 1 - len(tb.base)
	tb.base = append(tb.base, make([]int32, grow)...)
	tb.check = append(tb.check, make([]uint32, grow)...)
	tb.used = append(tb.used, make([]bool, grow)...)
}
