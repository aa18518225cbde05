/*
Package rcfile reads analyzer resource files (mecabrc, dicrc) and assembles
the configuration of an analyzer.

Resource files consist of lines

	key = value

Lines starting with '#' or ';' are comments. Surrounding whitespace of the
key and leading whitespace of the value are removed; trailing whitespace of
the value is significant. If a key occurs more than once, the first
occurrence wins.
*/
package rcfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/npillmayer/schuko"
	"github.com/npillmayer/schuko/schukonf/koanfadapter"
	"github.com/npillmayer/schuko/tracing"
	"github.com/pkg/errors"

	"github.com/npillmayer/morpheme/internal/errs"
)

// tracer writes to trace with key 'morpheme'
func tracer() tracing.Trace {
	return tracing.Select("morpheme")
}

// Configuration keys with special meaning during loading.
const (
	KeyRCFile = "rcfile"
	KeyDicDir = "dicdir"
)

// AppTag is used to locate a user resource file in the platform's
// configuration directories.
const AppTag = "morpheme"

// DicRC is the name of the resource file in a dictionary directory.
const DicRC = "dicrc"

const delim = "."

// Reader streams key/value pairs from a resource file.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

func NewReader(reader io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(reader)}
}

// Next returns the next key/value pair. It returns io.EOF when exhausted.
func (r *Reader) Next() (key, value string, err error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSuffix(r.scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return "", "", fmt.Errorf("line %d: format error: %q", r.line, line)
		}
		key = strings.TrimSpace(line[:eq])
		if key == "" {
			return "", "", fmt.Errorf("line %d: empty key: %q", r.line, line)
		}
		value = strings.TrimLeft(line[eq+1:], " \t\v\f")
		return key, value, nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", "", err
	}
	return "", "", io.EOF
}

// Parser implements koanf.Parser for resource files.
type Parser struct{}

// Unmarshal parses resource file content into a flat map of strings.
func (Parser) Unmarshal(b []byte) (map[string]interface{}, error) {
	m := make(map[string]interface{})
	r := NewReader(bytes.NewReader(b))
	for {
		key, value, err := r.Next()
		if err == io.EOF {
			return m, nil
		}
		if err != nil {
			return nil, errs.Wrap(errs.Config, "", err, "resource file")
		}
		if _, seen := m[key]; !seen {
			m[key] = value
		}
	}
}

// Marshal writes a flat map in resource file syntax, sorted by key.
func (Parser) Marshal(m map[string]interface{}) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s = %v\n", k, m[k])
	}
	return buf.Bytes(), nil
}

// Load assembles a configuration. Values from overrides take precedence over
// the resource file, which takes precedence over the dicrc of the dictionary
// directory.
//
// The resource file is the one named by key rcfile, if set. Otherwise
// $HOME/.mecabrc is used if it exists, or a file found by
// schuko.LocateConfig. Having no resource file is not an error.
// The dictionary directory is given by key dicdir and defaults to ".";
// its dicrc must exist.
func Load(overrides ...koanf.Provider) (*koanfadapter.KConf, error) {
	top := koanf.New(delim)
	for _, p := range overrides {
		if err := top.Load(p, nil); err != nil {
			return nil, errs.Wrap(errs.Config, "", err, "overrides")
		}
	}
	rcpath := top.String(KeyRCFile)
	if !top.Exists(KeyRCFile) {
		rcpath = findRCFile()
	}
	rc := koanf.New(delim)
	if rcpath != "" {
		if err := loadFile(rc, rcpath); err != nil {
			return nil, err
		}
	}
	dicdir := "."
	if top.Exists(KeyDicDir) {
		dicdir = top.String(KeyDicDir)
	} else if rc.Exists(KeyDicDir) {
		dicdir = rc.String(KeyDicDir)
	}
	k := koanf.New(delim)
	if err := loadFile(k, filepath.Join(dicdir, DicRC)); err != nil {
		return nil, err
	}
	if err := k.Merge(rc); err != nil {
		return nil, errs.Wrap(errs.Config, rcpath, err, "merge")
	}
	if err := k.Merge(top); err != nil {
		return nil, errs.Wrap(errs.Config, "", err, "merge")
	}
	k.Load(confmap.Provider(map[string]interface{}{
		KeyDicDir: dicdir,
		KeyRCFile: rcpath,
	}, delim), nil)
	tracer().Infof("configuration: rcfile=%q dicdir=%q", rcpath, dicdir)
	return koanfadapter.New(k, AppTag, nil), nil
}

// Overrides wraps a flat map of values for Load.
func Overrides(m map[string]interface{}) koanf.Provider {
	return confmap.Provider(m, delim)
}

func loadFile(k *koanf.Koanf, path string) error {
	err := k.Load(file.Provider(path), Parser{})
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) || errs.KindOf(err) == 0 {
		return errs.Wrap(errs.Open, path, err, "resource file")
	}
	return errs.Wrap(errs.Config, path, err, "resource file")
}

func findRCFile() string {
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".mecabrc")
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path
		}
	}
	if found := schuko.LocateConfig(AppTag, "", []string{"rc"}); len(found) > 0 {
		return found[0]
	}
	return ""
}

// String returns the value of key, or def if the key is not set.
func String(conf schuko.Configuration, key, def string) string {
	if conf == nil || !conf.IsSet(key) {
		return def
	}
	return conf.GetString(key)
}

// Int returns the value of key, or def if the key is not set.
func Int(conf schuko.Configuration, key string, def int) int {
	if conf == nil || !conf.IsSet(key) {
		return def
	}
	return conf.GetInt(key)
}

// Dump writes all settings of k in resource file syntax.
func Dump(w io.Writer, k *koanf.Koanf) error {
	b, err := k.Marshal(Parser{})
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
