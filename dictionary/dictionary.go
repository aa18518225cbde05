/*
Package dictionary reads MeCab binary dictionaries (sys.dic, unk.dic).

A dictionary file consists of a fixed 72 byte header followed by three
regions: a double-array trie keyed by surface bytes, an array of entries
and a blob of NUL-terminated feature strings. Files are memory mapped and
never copied; a Dictionary is immutable and safe for concurrent use.
*/
package dictionary

import (
	"bytes"
	"encoding/binary"

	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/morpheme/dat"
	"github.com/npillmayer/morpheme/internal/errs"
	"github.com/npillmayer/morpheme/internal/mapped"
)

// tracer writes to trace with key 'morpheme'
func tracer() tracing.Trace {
	return tracing.Select("morpheme")
}

const (
	MagicID    = 0xef718f77
	Version    = 102
	HeaderSize = 72
	EntrySize  = 16
)

// Header is the fixed file header.
type Header struct {
	Magic       uint32
	Version     uint32
	Type        uint32
	LexSize     uint32 // number of entries
	LeftSize    uint32
	RightSize   uint32
	TrieSize    uint32 // bytes
	EntriesSize uint32 // bytes
	FeatureSize uint32 // bytes
	Charset     string
}

// Entry is a dictionary entry ("token").
type Entry struct {
	LeftID   uint16 // left context id
	RightID  uint16 // right context id
	PosID    uint16
	Cost     int16 // word cost
	Feature  uint32
	Compound uint32
}

// Dictionary is a loaded sys.dic or unk.dic.
type Dictionary struct {
	file     *mapped.File
	header   Header
	trie     *dat.Array
	entries  []byte
	features []byte
}

// Open maps and validates a dictionary file.
func Open(path string) (*Dictionary, error) {
	f, err := mapped.Open(path)
	if err != nil {
		return nil, err
	}
	d, err := load(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

// Load reads a dictionary from memory. name is used in error messages only.
func Load(name string, data []byte) (*Dictionary, error) {
	return load(mapped.FromBytes(name, data))
}

func load(f *mapped.File) (*Dictionary, error) {
	data := f.Bytes()
	name := f.Name()
	if len(data) < HeaderSize {
		return nil, errs.New(errs.Size, name, "file too short (%d bytes)", len(data))
	}
	h := parseHeader(data)
	if uint64(h.Magic^MagicID) != uint64(len(data)) {
		return nil, errs.New(errs.Magic, name, "magic %#x does not match file size %d", h.Magic, len(data))
	}
	if h.Version != Version {
		return nil, errs.New(errs.Version, name, "incompatible version %d, want %d", h.Version, Version)
	}
	total := uint64(HeaderSize) + uint64(h.TrieSize) + uint64(h.EntriesSize) + uint64(h.FeatureSize)
	if total != uint64(len(data)) {
		return nil, errs.New(errs.Size, name, "regions add up to %d bytes, file has %d", total, len(data))
	}
	if h.EntriesSize%EntrySize != 0 {
		return nil, errs.New(errs.Corrupt, name, "entry region size %d is not a multiple of %d", h.EntriesSize, EntrySize)
	}
	p := HeaderSize
	trie, err := dat.New(data[p : p+int(h.TrieSize)])
	if err != nil {
		return nil, errs.Wrap(errs.Corrupt, name, err, "trie region")
	}
	p += int(h.TrieSize)
	d := &Dictionary{
		file:     f,
		header:   h,
		trie:     trie,
		entries:  data[p : p+int(h.EntriesSize)],
		features: data[p+int(h.EntriesSize):],
	}
	if int(h.LexSize) != d.Len() {
		return nil, errs.New(errs.Corrupt, name, "header announces %d entries, found %d", h.LexSize, d.Len())
	}
	if err := trie.Validate(d.Len()); err != nil {
		return nil, errs.Wrap(errs.Corrupt, name, err, "trie")
	}
	for i := 0; i < d.Len(); i++ {
		if e := d.Entry(i); e.Feature > h.FeatureSize {
			return nil, errs.New(errs.Corrupt, name, "entry %d: feature offset %d beyond %d", i, e.Feature, h.FeatureSize)
		}
	}
	stats := trie.Stats()
	tracer().Infof("dictionary %s: %d entries, trie used=%d total=%d fill=%.2f",
		name, d.Len(), stats.UsedSlots, stats.TotalSlots, stats.FillRatio())
	tracing.With(tracer()).Dump("header", h)
	return d, nil
}

func parseHeader(data []byte) Header {
	le := binary.LittleEndian
	cs := data[40:72]
	if n := bytes.IndexByte(cs, 0); n >= 0 {
		cs = cs[:n]
	}
	return Header{
		Magic:       le.Uint32(data[0:]),
		Version:     le.Uint32(data[4:]),
		Type:        le.Uint32(data[8:]),
		LexSize:     le.Uint32(data[12:]),
		LeftSize:    le.Uint32(data[16:]),
		RightSize:   le.Uint32(data[20:]),
		TrieSize:    le.Uint32(data[24:]),
		EntriesSize: le.Uint32(data[28:]),
		FeatureSize: le.Uint32(data[32:]),
		Charset:     string(cs),
	}
}

// Name returns the file name the dictionary was loaded from.
func (d *Dictionary) Name() string { return d.file.Name() }

func (d *Dictionary) Header() Header { return d.header }

// Len returns the number of entries.
func (d *Dictionary) Len() int { return len(d.entries) / EntrySize }

// Entry returns entry i. Out-of-range indices yield a zero Entry.
func (d *Dictionary) Entry(i int) Entry {
	if i < 0 || i >= d.Len() {
		return Entry{}
	}
	b := d.entries[i*EntrySize : (i+1)*EntrySize]
	le := binary.LittleEndian
	return Entry{
		LeftID:   le.Uint16(b[0:]),
		RightID:  le.Uint16(b[2:]),
		PosID:    le.Uint16(b[4:]),
		Cost:     int16(le.Uint16(b[6:])),
		Feature:  le.Uint32(b[8:]),
		Compound: le.Uint32(b[12:]),
	}
}

// ExactMatch looks up key as a whole.
func (d *Dictionary) ExactMatch(key string) (dat.Match, bool) {
	return d.trie.ExactMatch(key)
}

// CommonPrefixMatch appends all prefixes of key found in the dictionary to
// dst, shortest first.
func (d *Dictionary) CommonPrefixMatch(key string, dst []dat.Match) []dat.Match {
	return d.trie.CommonPrefixMatch(key, dst)
}

// FeatureBytes returns the feature string of e without copying. It ends at
// the first NUL or at the end of the feature region.
func (d *Dictionary) FeatureBytes(e Entry) []byte {
	if int(e.Feature) >= len(d.features) {
		return nil
	}
	f := d.features[e.Feature:]
	if n := bytes.IndexByte(f, 0); n >= 0 {
		f = f[:n]
	}
	return f
}

// Feature returns the feature string of e.
func (d *Dictionary) Feature(e Entry) string {
	return string(d.FeatureBytes(e))
}

// CheckContextIDs verifies that every entry can be looked up in a connection
// matrix with lsize right ids of preceding nodes and rsize left ids of
// following nodes.
func (d *Dictionary) CheckContextIDs(lsize, rsize int) error {
	for i := 0; i < d.Len(); i++ {
		e := d.Entry(i)
		if int(e.RightID) >= lsize || int(e.LeftID) >= rsize {
			return errs.New(errs.Corrupt, d.Name(), "entry %d: context ids (%d,%d) exceed matrix %dx%d",
				i, e.LeftID, e.RightID, lsize, rsize)
		}
	}
	return nil
}

// Close releases the underlying file mapping.
func (d *Dictionary) Close() error {
	return d.file.Close()
}
