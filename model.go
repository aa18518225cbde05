package morpheme

import (
	"path/filepath"

	"github.com/npillmayer/schuko"

	"github.com/npillmayer/morpheme/charclass"
	"github.com/npillmayer/morpheme/dat"
	"github.com/npillmayer/morpheme/dictionary"
	"github.com/npillmayer/morpheme/internal/errs"
	"github.com/npillmayer/morpheme/matrix"
	"github.com/npillmayer/morpheme/rcfile"
)

// File names within a dictionary directory.
const (
	CharFile   = "char.bin"
	SysDicFile = "sys.dic"
	UnkDicFile = "unk.dic"
	MatrixFile = "matrix.bin"
)

// Model holds the resources shared by all analyses: the character
// classifier, the system and unknown-word dictionaries and the connection
// matrix. It is immutable after construction.
type Model struct {
	chars      *charclass.Classifier
	sys        *dictionary.Dictionary
	unk        *dictionary.Dictionary
	matrix     *matrix.Matrix
	unkRuns    []dat.Match // unk.dic entries per category id
	space      charclass.Info
	unkFeature string
}

// Option configures a Model.
type Option func(*Model)

// UnknownFeature makes unknown words render with feature f instead of the
// feature of their unk.dic entry.
func UnknownFeature(f string) Option {
	return func(m *Model) {
		m.unkFeature = f
	}
}

// Open loads a model from the directory given by configuration key dicdir.
// Key unk-feature is honored.
func Open(conf schuko.Configuration) (*Model, error) {
	dicdir := rcfile.String(conf, rcfile.KeyDicDir, ".")
	chars, err := charclass.Open(filepath.Join(dicdir, CharFile))
	if err != nil {
		return nil, err
	}
	sys, err := dictionary.Open(filepath.Join(dicdir, SysDicFile))
	if err != nil {
		chars.Close()
		return nil, err
	}
	unk, err := dictionary.Open(filepath.Join(dicdir, UnkDicFile))
	if err != nil {
		chars.Close()
		sys.Close()
		return nil, err
	}
	mat, err := matrix.Open(filepath.Join(dicdir, MatrixFile))
	if err != nil {
		chars.Close()
		sys.Close()
		unk.Close()
		return nil, err
	}
	var opts []Option
	if f := rcfile.String(conf, "unk-feature", ""); f != "" {
		opts = append(opts, UnknownFeature(f))
	}
	m, err := NewModel(chars, sys, unk, mat, opts...)
	if err != nil {
		chars.Close()
		sys.Close()
		unk.Close()
		mat.Close()
		return nil, err
	}
	tracer().Infof("model loaded from %s", dicdir)
	return m, nil
}

// NewModel assembles a model from loaded parts. Every category of chars must
// be a key of unk, and the context ids of both dictionaries must be valid
// indices into mat.
func NewModel(chars *charclass.Classifier, sys, unk *dictionary.Dictionary, mat *matrix.Matrix,
	opts ...Option) (*Model, error) {
	//
	m := &Model{
		chars:  chars,
		sys:    sys,
		unk:    unk,
		matrix: mat,
		space:  chars.Classify(0x20),
	}
	for _, name := range chars.Categories() {
		run, ok := unk.ExactMatch(name)
		if !ok {
			return nil, errs.New(errs.Config, unk.Name(), "cannot find unknown-word category %q", name)
		}
		m.unkRuns = append(m.unkRuns, run)
	}
	if err := sys.CheckContextIDs(mat.LeftSize(), mat.RightSize()); err != nil {
		return nil, err
	}
	if err := unk.CheckContextIDs(mat.LeftSize(), mat.RightSize()); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Classifier returns the character classifier.
func (m *Model) Classifier() *charclass.Classifier { return m.chars }

// System returns the system dictionary.
func (m *Model) System() *dictionary.Dictionary { return m.sys }

// UnknownWords returns the unknown-word dictionary.
func (m *Model) UnknownWords() *dictionary.Dictionary { return m.unk }

// Matrix returns the connection matrix.
func (m *Model) Matrix() *matrix.Matrix { return m.matrix }

// Close releases all resources. The model must not be used afterwards.
func (m *Model) Close() error {
	var first error
	for _, c := range []interface{ Close() error }{m.chars, m.sys, m.unk, m.matrix} {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
