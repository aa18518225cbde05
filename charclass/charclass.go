/*
Package charclass reads character classification tables (char.bin) and
classifies text for unknown-word processing.

A table starts with the number of categories, followed by one 32 byte
NUL-padded name per category and one packed Info record per 16-bit code point.
Text is decoded with Decode, which maps every UTF-8 sequence onto the
16-bit key space of the table.
*/
package charclass

import (
	"bytes"
	"encoding/binary"

	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/morpheme/internal/errs"
	"github.com/npillmayer/morpheme/internal/mapped"
)

// tracer writes to trace with key 'morpheme'
func tracer() tracing.Trace {
	return tracing.Select("morpheme")
}

const (
	nameSize = 32
	infoSize = 4
	// TableSize is the number of code point records in a table.
	TableSize = 0x10000
	// Tables written by older tools omit the record for U+FFFF.
	legacyTableSize = 0xFFFF
)

// Info is a packed classification record:
//
//	bits  0–17  category mask
//	bits 18–25  default category id
//	bits 26–29  max group length
//	bit  30     group flag
//	bit  31     invoke flag
type Info uint32

const maskBits = 1<<18 - 1

// Pack assembles an Info. Out-of-range values are truncated to their field width.
func Pack(mask uint32, def, length int, group, invoke bool) Info {
	i := Info(mask & maskBits)
	i |= Info(def&0xFF) << 18
	i |= Info(length&0xF) << 26
	if group {
		i |= 1 << 30
	}
	if invoke {
		i |= 1 << 31
	}
	return i
}

// Mask returns the category bit set.
func (i Info) Mask() uint32 { return uint32(i) & maskBits }

// Default returns the id of the category used for unknown-word lookup.
func (i Info) Default() int { return int(i>>18) & 0xFF }

// MaxGroup returns how many characters may be grouped incrementally.
func (i Info) MaxGroup() int { return int(i>>26) & 0xF }

func (i Info) Group() bool  { return i>>30&1 == 1 }
func (i Info) Invoke() bool { return i>>31 == 1 }

// Overlaps reports whether i and o share at least one category.
func (i Info) Overlaps(o Info) bool { return i.Mask()&o.Mask() != 0 }

// Classifier maps code points to Info records. It is immutable after
// loading and may be shared between goroutines.
type Classifier struct {
	file  *mapped.File
	names []string
	table []byte
}

// Open maps a char.bin file.
func Open(path string) (*Classifier, error) {
	f, err := mapped.Open(path)
	if err != nil {
		return nil, err
	}
	c, err := load(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// Load reads a classification table from memory. name is used in error
// messages only.
func Load(name string, data []byte) (*Classifier, error) {
	return load(mapped.FromBytes(name, data))
}

func load(f *mapped.File) (*Classifier, error) {
	data := f.Bytes()
	if len(data) < 4 {
		return nil, errs.New(errs.Size, f.Name(), "file too short (%d bytes)", len(data))
	}
	csize := int(binary.LittleEndian.Uint32(data))
	head := 4 + nameSize*csize
	if head > len(data) {
		return nil, errs.New(errs.Size, f.Name(), "category count %d exceeds file size %d", csize, len(data))
	}
	switch len(data) {
	case head + infoSize*TableSize, head + infoSize*legacyTableSize:
	default:
		return nil, errs.New(errs.Size, f.Name(), "invalid file size %d for %d categories, want %d",
			len(data), csize, head+infoSize*TableSize)
	}
	c := &Classifier{
		file:  f,
		names: make([]string, csize),
		table: data[head:],
	}
	for i := 0; i < csize; i++ {
		rec := data[4+i*nameSize : 4+(i+1)*nameSize]
		if n := bytes.IndexByte(rec, 0); n >= 0 {
			rec = rec[:n]
		}
		c.names[i] = string(rec)
	}
	for cp := 0; cp < len(c.table)/infoSize; cp++ {
		if d := c.Classify(uint16(cp)).Default(); d >= csize {
			return nil, errs.New(errs.Corrupt, f.Name(), "code point U+%04X has default category %d, only %d defined",
				cp, d, csize)
		}
	}
	tracer().Infof("char table %s: %d categories", f.Name(), csize)
	return c, nil
}

// Categories returns the category names, indexed by category id.
func (c *Classifier) Categories() []string {
	return c.names
}

// CategoryID returns the id of a named category.
func (c *Classifier) CategoryID(name string) (int, bool) {
	for i, n := range c.names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Classify returns the record for a code point.
func (c *Classifier) Classify(cp uint16) Info {
	off := int(cp) * infoSize
	if off+infoSize > len(c.table) {
		return 0
	}
	return Info(binary.LittleEndian.Uint32(c.table[off:]))
}

// Lookup classifies the first character of s and returns its byte length.
// s must not be empty.
func (c *Classifier) Lookup(s string) (Info, int) {
	cp, n := Decode(s)
	return c.Classify(cp), n
}

// ScanSameCategory consumes characters from the start of text as long as each
// one shares a category with its predecessor, starting with ref. It returns
// the classification and byte length of the character which stopped the scan,
// the number of characters consumed and their total byte length.
// If text is exhausted, the stop classification is zero.
func (c *Classifier) ScanSameCategory(text string, ref Info) (stop Info, stopLen, chars, n int) {
	for n < len(text) {
		info, l := c.Lookup(text[n:])
		if !ref.Overlaps(info) {
			return info, l, chars, n
		}
		n += l
		chars++
		ref = info
	}
	return 0, 0, chars, n
}

// Close releases the underlying file mapping.
func (c *Classifier) Close() error {
	return c.file.Close()
}

// Decode decodes the first UTF-8 sequence of s into the 16-bit key space of
// a classification table. Sequences of 4 to 6 bytes encode code points above
// that range and decode to 0 with their full length. A malformed or truncated
// lead byte decodes to 0 with length 1. s must not be empty.
func Decode(s string) (uint16, int) {
	b0 := s[0]
	switch {
	case b0 < 0x80:
		return uint16(b0), 1
	case len(s) >= 2 && b0&0xE0 == 0xC0:
		return uint16(b0&0x1F)<<6 | uint16(s[1]&0x3F), 2
	case len(s) >= 3 && b0&0xF0 == 0xE0:
		return uint16(b0&0x0F)<<12 | uint16(s[1]&0x3F)<<6 | uint16(s[2]&0x3F), 3
	case len(s) >= 4 && b0&0xF8 == 0xF0:
		return 0, 4
	case len(s) >= 5 && b0&0xFC == 0xF8:
		return 0, 5
	case len(s) >= 6 && b0&0xFE == 0xFC:
		return 0, 6
	}
	return 0, 1
}
