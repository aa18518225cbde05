package morpheme

import (
	"github.com/npillmayer/morpheme/charclass"
	"github.com/npillmayer/morpheme/dat"
	"github.com/npillmayer/morpheme/format"
)

// MaxGroupingSize is the maximum number of characters of an unknown word
// made from a run of characters of the same category.
const MaxGroupingSize = 24

// tokenize creates the candidate nodes starting at byte offset pos and
// collects them in l.tokens.
//
// Whitespace at pos is skipped and accounted to the candidates. Candidates
// are all prefixes of the remaining text found in the system dictionary.
// Unknown words are added if there are none, or if the category of the first
// character asks for it: the run of characters of the same category (if the
// category groups), and words of 1 to n characters, where n is the
// category's length. If this yields nothing, a single character becomes an
// unknown word, so every offset reachable by a path can be left again.
func (l *Lattice) tokenize(pos int) {
	l.tokens = l.tokens[:0]
	m := l.model
	text := l.sentence[pos:]
	info, mlen, _, slen := m.chars.ScanSameCategory(text, m.space)
	if slen == len(text) {
		return // trailing whitespace
	}
	surface := text[slen:]
	l.matches = m.sys.CommonPrefixMatch(surface, l.matches[:0])
	for _, match := range l.matches {
		if match.Length > 0 {
			l.addNormal(match, pos, slen)
		}
	}
	if len(l.tokens) > 0 && !info.Invoke() {
		return
	}
	groupEnd := -1
	if info.Group() {
		_, _, chars, blen := m.chars.ScanSameCategory(surface[mlen:], info)
		if chars+1 <= MaxGroupingSize {
			l.addUnknown(info, pos, slen, mlen+blen)
		}
		groupEnd = mlen + blen
	}
	ulen := mlen
	for i := 0; i < info.MaxGroup(); i++ {
		if ulen != groupEnd {
			l.addUnknown(info, pos, slen, ulen)
		}
		if ulen >= len(surface) {
			break
		}
		next, nlen := m.chars.Lookup(surface[ulen:])
		if !info.Overlaps(next) {
			break
		}
		ulen += nlen
	}
	if len(l.tokens) == 0 {
		l.addUnknown(info, pos, slen, mlen)
	}
}

func (l *Lattice) addNormal(match dat.Match, pos, slen int) {
	sys := l.model.sys
	for i := match.Start; i < match.Start+match.Count; i++ {
		e := sys.Entry(i)
		l.tokens = append(l.tokens, l.newNode(node{
			kind:    format.Normal,
			begin:   int32(pos),
			length:  int32(match.Length),
			rlength: int32(slen + match.Length),
			lid:     e.LeftID,
			rid:     e.RightID,
			posid:   e.PosID,
			wcost:   e.Cost,
			entry:   int32(i),
		}))
	}
}

func (l *Lattice) addUnknown(info charclass.Info, pos, slen, length int) {
	unk := l.model.unk
	run := l.model.unkRuns[info.Default()]
	for i := run.Start; i < run.Start+run.Count; i++ {
		e := unk.Entry(i)
		l.tokens = append(l.tokens, l.newNode(node{
			kind:    format.Unknown,
			begin:   int32(pos),
			length:  int32(length),
			rlength: int32(slen + length),
			lid:     e.LeftID,
			rid:     e.RightID,
			posid:   e.PosID,
			wcost:   e.Cost,
			entry:   int32(i),
		}))
	}
}
