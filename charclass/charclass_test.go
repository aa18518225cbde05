package charclass

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/morpheme/internal/dictbuild"
	"github.com/npillmayer/morpheme/internal/errs"
)

func mustBuildTable(t *testing.T) []byte {
	t.Helper()
	tab, err := dictbuild.NewCharTable(
		dictbuild.Category{Name: "DEFAULT", Group: true},
		dictbuild.Category{Name: "SPACE", Group: true},
		dictbuild.Category{Name: "KANJI", Length: 2},
		dictbuild.Category{Name: "ALPHA", Invoke: true, Group: true},
		dictbuild.Category{Name: "KANJINUMERIC", Invoke: true, Group: true},
	)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range []struct {
		lo, hi rune
		names  []string
	}{
		{0x20, 0x20, []string{"SPACE"}},
		{0x09, 0x09, []string{"SPACE"}},
		{'a', 'z', []string{"ALPHA"}},
		{0x4E00, 0x9FFF, []string{"KANJI"}},
		{0x4E00, 0x4E00, []string{"KANJINUMERIC", "KANJI"}},
		{0x4E8C, 0x4E8C, []string{"KANJINUMERIC", "KANJI"}},
	} {
		if err := tab.SetRange(r.lo, r.hi, r.names...); err != nil {
			t.Fatal(err)
		}
	}
	return tab.Bytes()
}

func TestInfoBitFields(t *testing.T) {
	i := Pack(0x3FFFF, 0xAB, 0xF, true, false)
	if i.Mask() != 0x3FFFF || i.Default() != 0xAB || i.MaxGroup() != 0xF || !i.Group() || i.Invoke() {
		t.Fatalf("unexpected fields in %#08x", uint32(i))
	}
	i = Pack(1<<18|1, 3, 2, false, true)
	if i.Mask() != 1 {
		t.Fatalf("mask overflow leaked into default: %#08x", uint32(i))
	}
	if uint32(i) != 1|3<<18|2<<26|1<<31 {
		t.Fatalf("packed layout mismatch: got %#08x", uint32(i))
	}
	if !Pack(0b0110, 0, 0, false, false).Overlaps(Pack(0b0100, 0, 0, false, false)) {
		t.Fatalf("expected overlap")
	}
	if Pack(0b0010, 0, 0, false, false).Overlaps(Pack(0b0100, 0, 0, false, false)) {
		t.Fatalf("expected no overlap")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		in     string
		cp     uint16
		length int
	}{
		{"a", 'a', 1},
		{"\x00", 0, 1},
		{"é", 0xE9, 2},
		{"東京", 0x6771, 3},
		{"\uffff", 0xFFFF, 3},
		{"😀x", 0, 4},
		{"\xf8\x88\x80\x80\x80", 0, 5},
		{"\xfc\x84\x80\x80\x80\x80", 0, 6},
		{"\xff", 0, 1},
		{"\x80abc", 0, 1},
		{"\xe6\x9d", 0, 1},     // truncated 3-byte sequence
		{"\xf0\x9f\x98", 0, 1}, // truncated 4-byte sequence
	}
	for _, tt := range tests {
		cp, n := Decode(tt.in)
		if cp != tt.cp || n != tt.length {
			t.Fatalf("Decode(%q) mismatch: got (%#x,%d), want (%#x,%d)", tt.in, cp, n, tt.cp, tt.length)
		}
	}
}

func TestLoadAndClassify(t *testing.T) {
	c, err := Load("char.bin", mustBuildTable(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := c.Categories(); len(got) != 5 || got[0] != "DEFAULT" || got[4] != "KANJINUMERIC" {
		t.Fatalf("categories mismatch: %v", got)
	}
	if id, ok := c.CategoryID("KANJI"); !ok || id != 2 {
		t.Fatalf("KANJI id mismatch: got %d/%v", id, ok)
	}
	space := c.Classify(0x20)
	if space.Default() != 1 || !space.Group() || space.Mask() != 1<<1 {
		t.Fatalf("space info unexpected: %#08x", uint32(space))
	}
	kanji, n := c.Lookup("東")
	if n != 3 || kanji.Default() != 2 || kanji.MaxGroup() != 2 || kanji.Group() {
		t.Fatalf("kanji info unexpected: %#08x/%d", uint32(kanji), n)
	}
	one := c.Classify(0x4E00)
	if one.Default() != 4 || one.Mask() != 1<<4|1<<2 || !one.Invoke() {
		t.Fatalf("kanji numeric info unexpected: %#08x", uint32(one))
	}
	if emoji, n := c.Lookup("😀"); n != 4 || emoji.Default() != 0 {
		t.Fatalf("emoji should fall back to DEFAULT, got %#08x/%d", uint32(emoji), n)
	}
}

func TestScanSameCategory(t *testing.T) {
	c, err := Load("char.bin", mustBuildTable(t))
	if err != nil {
		t.Fatal(err)
	}
	space := c.Classify(0x20)
	tests := []struct {
		text    string
		ref     Info
		stopDef int
		stopLen int
		chars   int
		n       int
	}{
		{" \t abc", space, 3, 1, 3, 3},
		{"   ", space, 0, 0, 3, 3},
		{"abc", space, 3, 1, 0, 0},
		{"bc東", c.Classify('a'), 2, 3, 2, 2},
		// chained: 一 shares KANJI with 東, 二 shares with 一
		{"一二東a", c.Classify(0x6771), 3, 1, 3, 9},
		{"", space, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		stop, stopLen, chars, n := c.ScanSameCategory(tt.text, tt.ref)
		if stop.Default() != tt.stopDef || stopLen != tt.stopLen || chars != tt.chars || n != tt.n {
			t.Fatalf("scan %q mismatch: got (%d,%d,%d,%d), want (%d,%d,%d,%d)", tt.text,
				stop.Default(), stopLen, chars, n, tt.stopDef, tt.stopLen, tt.chars, tt.n)
		}
	}
	if stop, _, _, _ := c.ScanSameCategory("   ", space); stop != 0 {
		t.Fatalf("exhausted scan must report zero info, got %#08x", uint32(stop))
	}
}

func TestLoadSizes(t *testing.T) {
	data := mustBuildTable(t)
	legacy := data[:len(data)-4]
	c, err := Load("legacy", legacy)
	if err != nil {
		t.Fatalf("legacy table rejected: %v", err)
	}
	if c.Classify(0xFFFF) != 0 || c.Classify(0x20).Default() != 1 {
		t.Fatalf("legacy table misread")
	}
	tests := []struct {
		name string
		data []byte
		kind errs.Kind
	}{
		{"empty", nil, errs.Size},
		{"short", data[:2], errs.Size},
		{"truncated", data[:len(data)-8], errs.Size},
		{"padded", append(append([]byte{}, data...), 0, 0, 0, 0), errs.Size},
		{"huge-count", []byte{0xFF, 0xFF, 0xFF, 0x0F}, errs.Size},
	}
	for _, tt := range tests {
		if _, err := Load(tt.name, tt.data); errs.KindOf(err) != tt.kind {
			t.Fatalf("%s: expected %v error, got %v", tt.name, tt.kind, err)
		}
	}
}

func TestLoadRejectsBadDefaultCategory(t *testing.T) {
	data := append([]byte{}, mustBuildTable(t)...)
	off := 4 + 32*5 + 4*int('x')
	data[off+2] = 0xFC // default category 63
	if _, err := Load("corrupt", data); errs.KindOf(err) != errs.Corrupt {
		t.Fatalf("expected corruption error, got %v", err)
	}
}

func TestOpenFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "char.bin")
	if err := os.WriteFile(path, mustBuildTable(t), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()
	if info, _ := c.Lookup("q"); info.Default() != 3 {
		t.Fatalf("q should be ALPHA, got default %d", info.Default())
	}
}
