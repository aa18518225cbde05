package dictbuild

import (
	"encoding/binary"
	"io"
	"strings"
	"testing"
)

func TestLexiconReader(t *testing.T) {
	src := "# comment\n" +
		"東京,1,2,-100,名詞,固有名詞,地域,一般,*,*,東京\r\n" +
		"\n" +
		"は,2,2,300,\n"
	r := NewLexiconReader(strings.NewReader(src))
	w, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	want := Word{Surface: "東京", LeftID: 1, RightID: 2, Cost: -100, Feature: "名詞,固有名詞,地域,一般,*,*,東京"}
	if w != want {
		t.Fatalf("word mismatch: got %+v, want %+v", w, want)
	}
	if w, err = r.Next(); err != nil || w.Surface != "は" || w.Feature != "" {
		t.Fatalf("second word mismatch: %+v, %v", w, err)
	}
	if _, err = r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestLexiconErrors(t *testing.T) {
	tests := []string{
		"東京,1,1,100",
		"東京,x,1,100,名詞",
		"東京,1,70000,100,名詞",
		"東京,1,1,40000,名詞",
	}
	for _, src := range tests {
		if _, err := ReadLexicon(strings.NewReader("\n" + src + "\n")); err == nil {
			t.Fatalf("%q: expected an error", src)
		} else if !strings.Contains(err.Error(), "line 2") {
			t.Fatalf("%q: error should name the line: %v", src, err)
		}
	}
}

func info(t *testing.T, table []byte, ncats int, cp rune) uint32 {
	t.Helper()
	return binary.LittleEndian.Uint32(table[4+32*ncats+4*int(cp):])
}

func TestReadCharDef(t *testing.T) {
	src := `
DEFAULT 0 1 0   # fallback
SPACE   0 1 0
KANJI   0 0 2
NUMERIC 1 1 0
0x0020        SPACE
0x0030..0x0039 NUMERIC
0x4E00..0x9FFF KANJI
0x4E00        KANJI NUMERIC
`
	table, err := ReadCharDef(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	data := table.Bytes()
	if n := binary.LittleEndian.Uint32(data); n != 4 {
		t.Fatalf("category count mismatch: got %d, want 4", n)
	}
	if name := strings.TrimRight(string(data[4+32*2:4+32*3]), "\x00"); name != "KANJI" {
		t.Fatalf("category 2 mismatch: got %q", name)
	}
	if len(data) != 4+32*4+4*0x10000 {
		t.Fatalf("table size mismatch: got %d", len(data))
	}
	tests := []struct {
		cp   rune
		want uint32
	}{
		{'x', 1 | 1<<30},
		{' ', 1<<1 | 1<<18 | 1<<30},
		{'5', 1<<3 | 3<<18 | 1<<30 | 1<<31},
		{0x4E8C, 1<<2 | 2<<18 | 2<<26},
		{0x4E00, 1<<2 | 1<<3 | 2<<18 | 2<<26},
	}
	for _, tt := range tests {
		if got := info(t, data, 4, tt.cp); got != tt.want {
			t.Fatalf("%U: info mismatch: got %#x, want %#x", tt.cp, got, tt.want)
		}
	}
}

func TestCharDefErrors(t *testing.T) {
	tests := []string{
		"DEFAULT 0 1",
		"DEFAULT 0 1 x",
		"DEFAULT 0 1 0\n0x0020",
		"DEFAULT 0 1 0\n0x0020 SPACE",
		"DEFAULT 0 1 0\n0x0040..0x0020 DEFAULT",
		"DEFAULT 0 1 0\n0x10000 DEFAULT",
		"DEFAULT 0 1 0\nDEFAULT 1 1 0",
		"0x0020 DEFAULT",
	}
	for _, src := range tests {
		if _, err := ReadCharDef(strings.NewReader(src)); err == nil {
			t.Fatalf("%q: expected an error", src)
		}
	}
}

func TestBuildMatrix(t *testing.T) {
	data, err := BuildMatrix(3, 2, func(right, left int) int16 {
		return int16(10*right - left)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 4+2*3*2 {
		t.Fatalf("matrix size mismatch: got %d", len(data))
	}
	for left := 0; left < 2; left++ {
		for right := 0; right < 3; right++ {
			got := int16(binary.LittleEndian.Uint16(data[4+2*(right+3*left):]))
			if want := int16(10*right - left); got != want {
				t.Fatalf("cost(%d,%d) mismatch: got %d, want %d", right, left, got, want)
			}
		}
	}
	for _, dim := range [][2]int{{0, 1}, {1, 0}, {0x8000, 1}} {
		if _, err := BuildMatrix(dim[0], dim[1], nil); err == nil {
			t.Fatalf("%dx%d: expected an error", dim[0], dim[1])
		}
	}
}

func TestBuildDictionaryHeader(t *testing.T) {
	words := []Word{
		{Surface: "b", Feature: "B"},
		{Surface: "a", Feature: "A1"},
		{Surface: "a", Feature: "A2"},
	}
	data, err := BuildDictionary(words, 5, 6)
	if err != nil {
		t.Fatal(err)
	}
	le := binary.LittleEndian
	if got := le.Uint32(data[0:]) ^ MagicID; int(got) != len(data) {
		t.Fatalf("magic does not encode the file size: %d != %d", got, len(data))
	}
	if le.Uint32(data[4:]) != Version || le.Uint32(data[12:]) != 3 {
		t.Fatalf("header mismatch: version %d, entries %d", le.Uint32(data[4:]), le.Uint32(data[12:]))
	}
	if le.Uint32(data[16:]) != 5 || le.Uint32(data[20:]) != 6 {
		t.Fatalf("context sizes mismatch: %d, %d", le.Uint32(data[16:]), le.Uint32(data[20:]))
	}
	dsize, tsize, fsize := le.Uint32(data[24:]), le.Uint32(data[28:]), le.Uint32(data[32:])
	if tsize != 3*EntrySize || HeaderSize+int(dsize+tsize+fsize) != len(data) {
		t.Fatalf("section sizes mismatch: %d+%d+%d for %d bytes", dsize, tsize, fsize, len(data))
	}
	// homonyms stay in input order, after sorting by surface
	if got := string(data[HeaderSize+dsize+tsize:]); got != "A1\x00A2\x00B\x00" {
		t.Fatalf("feature section mismatch: got %q", got)
	}
}

func TestBuildDictionaryErrors(t *testing.T) {
	if _, err := BuildDictionary([]Word{{Surface: ""}}, 1, 1); err == nil {
		t.Fatalf("expected an error for an empty surface")
	}
	many := make([]Word, 256)
	for i := range many {
		many[i].Surface = "a"
	}
	if _, err := BuildDictionary(many, 1, 1); err == nil {
		t.Fatalf("expected an error for 256 homonyms")
	}
}
