/*
Package morpheme is a morphological analyzer for text in unsegmented scripts.

It reads MeCab binary dictionaries: a character classification table
(char.bin), a system and an unknown-word dictionary (sys.dic, unk.dic), both
indexed by a double-array trie, and a matrix of connection costs
(matrix.bin). For every sentence a lattice of candidate words is built and
the path of lowest cost is selected with the Viterbi algorithm. Words not
found in the system dictionary are synthesized from runs of characters of the
same category.

A Model holds the loaded resources. It is immutable and may be shared by any
number of goroutines, each working on its own Lattice. A Tagger wraps a Model
with an output formatter and a pool of lattices:

	conf, err := rcfile.Load(rcfile.Overrides(map[string]interface{}{"dicdir": dir}))
	…
	model, err := morpheme.Open(conf)
	…
	defer model.Close()
	tagger, err := morpheme.NewTagger(model, conf)
	…
	out, err := tagger.Parse("すもももももももものうち")

Further Reading

	https://taku910.github.io/mecab/
	http://chasen.org/~taku/software/darts/

----------------------------------------------------------------------

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer@com>

All rights reserved.

License information is available in the LICENSE file.
*/
package morpheme

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'morpheme'
func tracer() tracing.Trace {
	return tracing.Select("morpheme")
}

func assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
