package morpheme

import (
	"math"

	"github.com/npillmayer/morpheme/dat"
	"github.com/npillmayer/morpheme/dictionary"
	"github.com/npillmayer/morpheme/format"
)

// BOSFeature is the feature string of BOS and EOS nodes.
const BOSFeature = "BOS/EOS,*,*,*,*,*,*,*,*,*,*,*,*,*,*,*,*"

// node is the arena representation of a lattice node. Links are indices
// into the arena, -1 meaning none.
type node struct {
	kind    format.Kind
	begin   int32 // offset of the node including preceding whitespace
	length  int32 // surface length
	rlength int32 // length including preceding whitespace
	lid     uint16
	rid     uint16
	posid   uint16
	wcost   int16
	cost    int64
	entry   int32 // index into the dictionary of kind, -1 for BOS/EOS
	prev    int32
	next    int32
}

// Lattice is the per-sentence state of an analysis. A Lattice is not safe
// for concurrent use; it is reused by calling SetSentence.
type Lattice struct {
	model    *Model
	sentence string
	nodes    []node    // arena
	ends     [][]int32 // nodes by end offset
	tokens   []int32   // nodes created at the current offset
	matches  []dat.Match
	eos      int32
}

// NewLattice creates an empty lattice for m.
func (m *Model) NewLattice() *Lattice {
	l := &Lattice{model: m}
	l.SetSentence("")
	return l
}

// SetSentence clears the lattice and prepares it for s. Nodes of a previous
// sentence become invalid.
func (l *Lattice) SetSentence(s string) {
	l.sentence = s
	l.nodes = l.nodes[:0]
	n := len(s) + 1
	if cap(l.ends) < n {
		ends := make([][]int32, n)
		copy(ends, l.ends[:cap(l.ends)])
		l.ends = ends
	}
	l.ends = l.ends[:n]
	for i := range l.ends {
		l.ends[i] = l.ends[i][:0]
	}
	bos := l.newNode(node{kind: format.BOS, entry: -1})
	l.ends[0] = append(l.ends[0], bos)
	l.eos = -1
}

// Sentence returns the current sentence.
func (l *Lattice) Sentence() string { return l.sentence }

func (l *Lattice) newNode(n node) int32 {
	assert(len(l.nodes) < math.MaxInt32, "lattice node arena overflow")
	n.prev, n.next = -1, -1
	l.nodes = append(l.nodes, n)
	return int32(len(l.nodes) - 1)
}

// Analyze builds the lattice for the current sentence and selects the best
// path. Tokenization and cost relaxation are interleaved: candidates
// starting at an offset are scored as soon as the offset is reached, when
// all nodes ending there are final. Repeated calls have no effect.
func (l *Lattice) Analyze() {
	if l.eos >= 0 {
		return
	}
	length := len(l.sentence)
	for pos := 0; pos < length; pos++ {
		if len(l.ends[pos]) == 0 {
			continue
		}
		l.tokenize(pos)
		for i := len(l.tokens) - 1; i >= 0; i-- {
			l.connect(pos, l.tokens[i])
		}
	}
	l.eos = l.newNode(node{kind: format.EOS, entry: -1})
	for pos := length; pos >= 0; pos-- {
		if len(l.ends[pos]) == 0 {
			continue
		}
		l.nodes[l.eos].begin = int32(pos)
		l.connect(pos, l.eos)
		break
	}
	for n := l.eos; l.nodes[n].prev >= 0; n = l.nodes[n].prev {
		l.nodes[l.nodes[n].prev].next = n
	}
	tracer().Debugf("lattice: %d nodes, cost %d", len(l.nodes), l.nodes[l.eos].cost)
}

// connect selects the best predecessor for node r among the nodes ending at
// pos and files r under its end offset. The most recently filed predecessor
// wins ties.
func (l *Lattice) connect(pos int, r int32) {
	rn := &l.nodes[r]
	best, bestNode := int64(math.MaxInt64), int32(-1)
	bucket := l.ends[pos]
	for i := len(bucket) - 1; i >= 0; i-- {
		ln := &l.nodes[bucket[i]]
		cost := ln.cost + int64(l.model.matrix.Cost(ln.rid, rn.lid)) + int64(rn.wcost)
		if best > cost {
			best, bestNode = cost, bucket[i]
		}
	}
	rn.prev, rn.next, rn.cost = bestNode, -1, best
	end := pos + int(rn.rlength)
	assert(end < len(l.ends), "node exceeds sentence")
	l.ends[end] = append(l.ends[end], r)
}

// BOS returns the beginning-of-sentence node.
func (l *Lattice) BOS() Node { return Node{l: l, i: 0} }

// EOS returns the end-of-sentence node. It is valid after Analyze.
func (l *Lattice) EOS() (Node, bool) {
	if l.eos < 0 {
		return Node{}, false
	}
	return Node{l: l, i: l.eos}, true
}

// Cost returns the accumulated cost of the best path, or 0 before Analyze.
func (l *Lattice) Cost() int64 {
	if l.eos < 0 {
		return 0
	}
	return l.nodes[l.eos].cost
}

// Path returns the best path from BOS to EOS.
func (l *Lattice) Path() []Node {
	var path []Node
	for i := int32(0); i >= 0; i = l.nodes[i].next {
		path = append(path, Node{l: l, i: i})
	}
	return path
}

// EndNodes returns the nodes ending at byte offset pos, most recent first.
func (l *Lattice) EndNodes(pos int) []Node {
	if pos < 0 || pos >= len(l.ends) {
		return nil
	}
	bucket := l.ends[pos]
	nodes := make([]Node, 0, len(bucket))
	for i := len(bucket) - 1; i >= 0; i-- {
		nodes = append(nodes, Node{l: l, i: bucket[i]})
	}
	return nodes
}

// BeginNodes returns the candidate nodes whose surface starts at byte
// offset pos, in order of creation.
func (l *Lattice) BeginNodes(pos int) []Node {
	var nodes []Node
	for i := range l.nodes {
		n := &l.nodes[i]
		if n.kind != format.Normal && n.kind != format.Unknown {
			continue
		}
		if int(n.begin+n.rlength-n.length) == pos {
			nodes = append(nodes, Node{l: l, i: int32(i)})
		}
	}
	return nodes
}

// Render appends the best path, formatted by f, to dst.
func (l *Lattice) Render(dst []byte, f *format.Formatter) ([]byte, error) {
	var err error
	for _, n := range l.Path() {
		if dst, err = f.Render(dst, n, l.sentence); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

var defaultFormatter = format.NewWithTemplates(format.DefaultNodeFormat,
	format.DefaultNodeFormat, format.DefaultBOSFormat, format.DefaultEOSFormat)

// String renders the best path with the default templates.
func (l *Lattice) String() string {
	b, err := l.Render(nil, defaultFormatter)
	if err != nil {
		return string(b) + "<" + err.Error() + ">"
	}
	return string(b)
}

// --- Nodes -----------------------------------------------------------------

// Node is a handle to a node of a lattice. It is valid until the next call
// of SetSentence.
type Node struct {
	l *Lattice
	i int32
}

var _ format.Node = Node{}

func (n Node) node() *node { return &n.l.nodes[n.i] }

// Kind returns the status of n.
func (n Node) Kind() Kind { return n.node().kind }

// Surface returns the text of n without preceding whitespace.
func (n Node) Surface() string {
	x := n.node()
	end := x.begin + x.rlength
	return n.l.sentence[end-x.length : end]
}

// Padded returns the text of n including preceding whitespace.
func (n Node) Padded() string {
	x := n.node()
	return n.l.sentence[x.begin : x.begin+x.rlength]
}

// Start returns the byte offset of the surface.
func (n Node) Start() int {
	x := n.node()
	return int(x.begin + x.rlength - x.length)
}

// End returns the byte offset after the surface.
func (n Node) End() int {
	x := n.node()
	return int(x.begin + x.rlength)
}

func (n Node) Length() int  { return int(n.node().length) }
func (n Node) RLength() int { return int(n.node().rlength) }

func (n Node) LeftID() uint16  { return n.node().lid }
func (n Node) RightID() uint16 { return n.node().rid }
func (n Node) PosID() uint16   { return n.node().posid }
func (n Node) WordCost() int16 { return n.node().wcost }

// Cost returns the accumulated cost of the best path ending with n.
func (n Node) Cost() int64 { return n.node().cost }

// ConnectionCost returns the cost of the transition from the predecessor.
func (n Node) ConnectionCost() int64 {
	x := n.node()
	if x.prev < 0 {
		return 0
	}
	return x.cost - n.l.nodes[x.prev].cost - int64(x.wcost)
}

// Feature returns the feature string of n.
func (n Node) Feature() string {
	x := n.node()
	var d *dictionary.Dictionary
	switch x.kind {
	case format.Normal:
		d = n.l.model.sys
	case format.Unknown:
		if n.l.model.unkFeature != "" {
			return n.l.model.unkFeature
		}
		d = n.l.model.unk
	default:
		return BOSFeature
	}
	return d.Feature(d.Entry(int(x.entry)))
}

// Prev returns the best predecessor of n.
func (n Node) Prev() (Node, bool) {
	if p := n.node().prev; p >= 0 {
		return Node{l: n.l, i: p}, true
	}
	return Node{}, false
}

// Next returns the successor of n on the best path.
func (n Node) Next() (Node, bool) {
	if p := n.node().next; p >= 0 {
		return Node{l: n.l, i: p}, true
	}
	return Node{}, false
}
