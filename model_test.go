package morpheme

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/npillmayer/morpheme/charclass"
	"github.com/npillmayer/morpheme/dictionary"
	"github.com/npillmayer/morpheme/internal/dictbuild"
	"github.com/npillmayer/morpheme/matrix"
	"github.com/npillmayer/morpheme/rcfile"
)

func mustLoadFixture(t *testing.T, file string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", file))
	if err != nil {
		t.Fatalf("cannot read fixture %s: %v", file, err)
	}
	return data
}

// dictionaryFiles holds the binary files of a test dictionary.
type dictionaryFiles struct {
	chars, sys, unk, matrix []byte
}

// connection costs of the test dictionary are 0 unless given by cost.
const contextIDs = 4

func mustBuildFiles(t *testing.T, cost func(right, left int) int16) dictionaryFiles {
	t.Helper()
	table, err := dictbuild.ReadCharDef(bytes.NewReader(mustLoadFixture(t, "char.def")))
	if err != nil {
		t.Fatalf("cannot read char.def: %v", err)
	}
	var files dictionaryFiles
	files.chars = table.Bytes()
	for _, d := range []struct {
		fixture string
		out     *[]byte
	}{{"sys.csv", &files.sys}, {"unk.csv", &files.unk}} {
		words, err := dictbuild.ReadLexicon(bytes.NewReader(mustLoadFixture(t, d.fixture)))
		if err != nil {
			t.Fatalf("cannot read %s: %v", d.fixture, err)
		}
		if *d.out, err = dictbuild.BuildDictionary(words, contextIDs, contextIDs); err != nil {
			t.Fatalf("cannot build dictionary from %s: %v", d.fixture, err)
		}
	}
	if files.matrix, err = dictbuild.BuildMatrix(contextIDs, contextIDs, cost); err != nil {
		t.Fatalf("cannot build matrix: %v", err)
	}
	return files
}

func mustLoadModel(t *testing.T, files dictionaryFiles, opts ...Option) *Model {
	t.Helper()
	chars, err := charclass.Load(CharFile, files.chars)
	if err != nil {
		t.Fatalf("cannot load classifier: %v", err)
	}
	sys, err := dictionary.Load(SysDicFile, files.sys)
	if err != nil {
		t.Fatalf("cannot load system dictionary: %v", err)
	}
	unk, err := dictionary.Load(UnkDicFile, files.unk)
	if err != nil {
		t.Fatalf("cannot load unknown-word dictionary: %v", err)
	}
	mat, err := matrix.Load(MatrixFile, files.matrix)
	if err != nil {
		t.Fatalf("cannot load matrix: %v", err)
	}
	m, err := NewModel(chars, sys, unk, mat, opts...)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return m
}

func mustBuildModel(t *testing.T, cost func(right, left int) int16, opts ...Option) *Model {
	t.Helper()
	return mustLoadModel(t, mustBuildFiles(t, cost), opts...)
}

func TestNewModelRequiresUnknownCategories(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "morpheme")
	defer teardown()
	//
	files := mustBuildFiles(t, nil)
	var lines []string
	for _, line := range strings.Split(string(mustLoadFixture(t, "unk.csv")), "\n") {
		if !strings.HasPrefix(line, "HIRAGANA,") {
			lines = append(lines, line)
		}
	}
	words, err := dictbuild.ReadLexicon(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	if files.unk, err = dictbuild.BuildDictionary(words, contextIDs, contextIDs); err != nil {
		t.Fatal(err)
	}
	chars, _ := charclass.Load(CharFile, files.chars)
	sys, _ := dictionary.Load(SysDicFile, files.sys)
	unk, _ := dictionary.Load(UnkDicFile, files.unk)
	mat, _ := matrix.Load(MatrixFile, files.matrix)
	_, err = NewModel(chars, sys, unk, mat)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "HIRAGANA") {
		t.Fatalf("error should name the category: %v", err)
	}
}

func TestNewModelChecksContextIDs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "morpheme")
	defer teardown()
	//
	files := mustBuildFiles(t, nil)
	var err error
	// 京都 has left id 3
	if files.matrix, err = dictbuild.BuildMatrix(contextIDs, 3, nil); err != nil {
		t.Fatal(err)
	}
	chars, _ := charclass.Load(CharFile, files.chars)
	sys, _ := dictionary.Load(SysDicFile, files.sys)
	unk, _ := dictionary.Load(UnkDicFile, files.unk)
	mat, err := matrix.Load(MatrixFile, files.matrix)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = NewModel(chars, sys, unk, mat); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected corruption error, got %v", err)
	}
}

func writeDictionary(t *testing.T, dir string, files dictionaryFiles) {
	t.Helper()
	for name, data := range map[string][]byte{
		CharFile:     files.chars,
		SysDicFile:   files.sys,
		UnkDicFile:   files.unk,
		MatrixFile:   files.matrix,
		rcfile.DicRC: mustLoadFixture(t, "dicrc"),
	} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOpenFromDisk(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "morpheme")
	defer teardown()
	//
	dir := t.TempDir()
	writeDictionary(t, dir, mustBuildFiles(t, nil))
	rc := filepath.Join(t.TempDir(), "mecabrc")
	content := string(mustLoadFixture(t, "mecabrc")) + "dicdir = " + dir + "\n"
	if err := os.WriteFile(rc, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	conf, err := rcfile.Load(rcfile.Overrides(map[string]interface{}{rcfile.KeyRCFile: rc}))
	if err != nil {
		t.Fatalf("cannot load configuration: %v", err)
	}
	m, err := Open(conf)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer m.Close()
	tagger, err := NewTagger(m, conf)
	if err != nil {
		t.Fatal(err)
	}
	out, err := tagger.Parse("東京都")
	if err != nil {
		t.Fatal(err)
	}
	if out != "東京 都 \n" {
		t.Fatalf("wakati output mismatch: got %q, want %q", out, "東京 都 \n")
	}
}

func TestOpenUnknownFeature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "morpheme")
	defer teardown()
	//
	dir := t.TempDir()
	writeDictionary(t, dir, mustBuildFiles(t, nil))
	conf, err := rcfile.Load(rcfile.Overrides(map[string]interface{}{
		rcfile.KeyRCFile: "",
		rcfile.KeyDicDir: dir,
		"unk-feature":    "未知語",
		"node-format":    `%m/%H\n`,
	}))
	if err != nil {
		t.Fatal(err)
	}
	m, err := Open(conf)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer m.Close()
	tagger, err := NewTagger(m, conf)
	if err != nil {
		t.Fatal(err)
	}
	out, err := tagger.Parse("テスト")
	if err != nil {
		t.Fatal(err)
	}
	if want := "テスト/未知語\nEOS\n"; out != want {
		t.Fatalf("output mismatch: got %q, want %q", out, want)
	}
}

func TestOpenMissingFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "morpheme")
	defer teardown()
	//
	dir := t.TempDir()
	writeDictionary(t, dir, mustBuildFiles(t, nil))
	if err := os.Remove(filepath.Join(dir, MatrixFile)); err != nil {
		t.Fatal(err)
	}
	conf, err := rcfile.Load(rcfile.Overrides(map[string]interface{}{
		rcfile.KeyRCFile: "",
		rcfile.KeyDicDir: dir,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Open(conf); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected open error, got %v", err)
	}
}
