package morpheme

import (
	"bufio"
	"context"
	"io"
	"runtime"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/npillmayer/schuko"
	"golang.org/x/text/unicode/norm"

	"github.com/npillmayer/morpheme/format"
	"github.com/npillmayer/morpheme/internal/errs"
	"github.com/npillmayer/morpheme/rcfile"
)

// Morph is a word of an analyzed sentence.
type Morph struct {
	Surface  string
	Feature  string
	Start    int // byte offset in the (normalized) sentence
	End      int
	Kind     Kind
	WordCost int16
	Cost     int64 // accumulated
}

// Tagger analyzes sentences with a model and renders the results. It is safe
// for concurrent use.
type Tagger struct {
	model     *Model
	formatter *format.Formatter
	lattices  sync.Pool
	cache     *lru.Cache[string, string] // rendered output by sentence, may be nil
	form      norm.Form
	normalize bool
	workers   int
}

// NewTagger creates a tagger for m. Output templates are read from conf, as
// are the keys
//
//	cache-size           number of rendered sentences to cache (default 0)
//	input-normalization  none, nfc, nfkc, nfd or nfkd (default none)
//	workers              goroutines used by ParseAll and Stream (default GOMAXPROCS)
func NewTagger(m *Model, conf schuko.Configuration) (*Tagger, error) {
	f, err := format.New(conf)
	if err != nil {
		return nil, err
	}
	t := &Tagger{
		model:     m,
		formatter: f,
		workers:   rcfile.Int(conf, "workers", 0),
	}
	t.lattices.New = func() interface{} {
		return m.NewLattice()
	}
	if n := rcfile.Int(conf, "cache-size", 0); n > 0 {
		if t.cache, err = lru.New[string, string](n); err != nil {
			return nil, errs.Wrap(errs.Config, "cache-size", err, "cannot create cache")
		}
	}
	switch mode := strings.ToLower(rcfile.String(conf, "input-normalization", "")); mode {
	case "", "none":
	case "nfc":
		t.form, t.normalize = norm.NFC, true
	case "nfkc":
		t.form, t.normalize = norm.NFKC, true
	case "nfd":
		t.form, t.normalize = norm.NFD, true
	case "nfkd":
		t.form, t.normalize = norm.NFKD, true
	default:
		return nil, errs.New(errs.Config, "input-normalization", "unknown normalization %q", mode)
	}
	if t.workers <= 0 {
		t.workers = runtime.GOMAXPROCS(0)
	}
	return t, nil
}

// Model returns the model of t.
func (t *Tagger) Model() *Model { return t.model }

func (t *Tagger) prepare(sentence string) string {
	if t.normalize {
		return t.form.String(sentence)
	}
	return sentence
}

// analyze runs the analysis of sentence on a pooled lattice and hands the
// lattice to fn.
func (t *Tagger) analyze(sentence string, fn func(*Lattice) error) error {
	l := t.lattices.Get().(*Lattice)
	defer t.lattices.Put(l)
	l.SetSentence(sentence)
	l.Analyze()
	return fn(l)
}

// Parse analyzes a sentence and returns the rendered best path.
func (t *Tagger) Parse(sentence string) (string, error) {
	sentence = t.prepare(sentence)
	if t.cache != nil {
		if out, ok := t.cache.Get(sentence); ok {
			return out, nil
		}
	}
	var out string
	err := t.analyze(sentence, func(l *Lattice) error {
		b, err := l.Render(nil, t.formatter)
		out = string(b)
		return err
	})
	if err != nil {
		return "", err
	}
	if t.cache != nil {
		t.cache.Add(sentence, out)
	}
	return out, nil
}

// ParseNodes analyzes a sentence and returns the words of the best path.
func (t *Tagger) ParseNodes(sentence string) ([]Morph, error) {
	var morphs []Morph
	err := t.analyze(t.prepare(sentence), func(l *Lattice) error {
		for _, n := range l.Path() {
			if k := n.Kind(); k == BOS || k == EOS {
				continue
			}
			morphs = append(morphs, Morph{
				Surface:  n.Surface(),
				Feature:  n.Feature(),
				Start:    n.Start(),
				End:      n.End(),
				Kind:     n.Kind(),
				WordCost: n.WordCost(),
				Cost:     n.Cost(),
			})
		}
		return nil
	})
	return morphs, err
}

// ParseAll parses sentences concurrently with the given number of workers
// (the tagger's default if workers <= 0). Results are in input order. The
// first error, or the cancellation of ctx, stops all workers.
func (t *Tagger) ParseAll(ctx context.Context, sentences []string, workers int) ([]string, error) {
	if workers <= 0 {
		workers = t.workers
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	results := make([]string, len(sentences))
	jobs := make(chan int)
	var once sync.Once
	var failure error
	fail := func(err error) {
		once.Do(func() {
			failure = err
			cancel()
		})
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				out, err := t.Parse(sentences[i])
				if err != nil {
					fail(err)
					return
				}
				results[i] = out
			}
		}()
	}
dispatch:
	for i := range sentences {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	if failure != nil {
		return nil, failure
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Stream reads one sentence per line from r and writes the rendered results
// to w, in input order. A sentence which fails to render is logged and
// skipped. Reading, writing and cancellation errors end the stream.
func (t *Tagger) Stream(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	bw := bufio.NewWriter(w)
	const batchSize = 256
	batch := make([]string, 0, batchSize)
	flush := func() error {
		outs, err := t.ParseAll(ctx, batch, 0)
		if err != nil {
			if errs.KindOf(err) != errs.Render {
				return err
			}
			// a template failed somewhere: render line by line
			outs = outs[:0]
			for _, s := range batch {
				out, err := t.Parse(s)
				if err != nil {
					tracer().Errorf("cannot render %q: %v", s, err)
					continue
				}
				outs = append(outs, out)
			}
		}
		for _, out := range outs {
			if _, err := bw.WriteString(out); err != nil {
				return err
			}
		}
		batch = batch[:0]
		return nil
	}
	for scanner.Scan() {
		batch = append(batch, strings.TrimSuffix(scanner.Text(), "\r"))
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}
	return bw.Flush()
}
