package dictbuild

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LexiconReader streams words from MeCab-style CSV lexicon sources:
//
//	surface,left-id,right-id,cost,feature...
//
// Everything after the fourth comma is the feature string. Blank lines and
// lines starting with '#' are skipped.
type LexiconReader struct {
	scanner *bufio.Scanner
	line    int
}

func NewLexiconReader(reader io.Reader) *LexiconReader {
	return &LexiconReader{scanner: bufio.NewScanner(reader)}
}

// Next returns the next word. It returns io.EOF when exhausted.
func (r *LexiconReader) Next() (Word, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimRight(r.scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return r.decodeLine(line)
	}
	if err := r.scanner.Err(); err != nil {
		return Word{}, err
	}
	return Word{}, io.EOF
}

func (r *LexiconReader) decodeLine(line string) (Word, error) {
	cols := strings.SplitN(line, ",", 5)
	if len(cols) < 5 {
		return Word{}, fmt.Errorf("line %d: need 5 columns, have %d", r.line, len(cols))
	}
	var w Word
	w.Surface = cols[0]
	left, err := strconv.ParseUint(cols[1], 10, 16)
	if err != nil {
		return Word{}, fmt.Errorf("line %d: left id: %w", r.line, err)
	}
	right, err := strconv.ParseUint(cols[2], 10, 16)
	if err != nil {
		return Word{}, fmt.Errorf("line %d: right id: %w", r.line, err)
	}
	cost, err := strconv.ParseInt(cols[3], 10, 16)
	if err != nil {
		return Word{}, fmt.Errorf("line %d: cost: %w", r.line, err)
	}
	w.LeftID, w.RightID, w.Cost = uint16(left), uint16(right), int16(cost)
	w.Feature = cols[4]
	return w, nil
}

// ReadLexicon collects all words of a lexicon source.
func ReadLexicon(reader io.Reader) ([]Word, error) {
	r := NewLexiconReader(reader)
	var words []Word
	for {
		w, err := r.Next()
		if err == io.EOF {
			return words, nil
		}
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
}

// ReadCharDef builds a CharTable from a char.def style source. Category
// lines have the form
//
//	NAME INVOKE GROUP LENGTH
//
// and range lines the form
//
//	0xLLLL[..0xHHHH] NAME [NAME...]
//
// Text after '#' is a comment. The first category defined is the fallback.
func ReadCharDef(reader io.Reader) (*CharTable, error) {
	scanner := bufio.NewScanner(reader)
	var cats []Category
	type span struct {
		lo, hi rune
		names  []string
	}
	var spans []span
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if strings.HasPrefix(fields[0], "0x") {
			lo, hi, err := parseRange(fields[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineno, err)
			}
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: range without category", lineno)
			}
			spans = append(spans, span{lo: lo, hi: hi, names: fields[1:]})
			continue
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: need NAME INVOKE GROUP LENGTH", lineno)
		}
		length, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: length: %w", lineno, err)
		}
		cats = append(cats, Category{
			Name:   fields[0],
			Invoke: fields[1] == "1",
			Group:  fields[2] == "1",
			Length: length,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	t, err := NewCharTable(cats...)
	if err != nil {
		return nil, err
	}
	for _, s := range spans {
		if err := t.SetRange(s.lo, s.hi, s.names...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func parseRange(s string) (rune, rune, error) {
	lo, hi := s, s
	if i := strings.Index(s, ".."); i >= 0 {
		lo, hi = s[:i], s[i+2:]
	}
	l, err := strconv.ParseUint(lo, 0, 32)
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.ParseUint(hi, 0, 32)
	if err != nil {
		return 0, 0, err
	}
	return rune(l), rune(h), nil
}
