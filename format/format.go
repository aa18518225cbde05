/*
Package format renders lattice nodes to text using printf-like templates.

Templates are selected by node kind and read from the configuration keys
node-format, unk-format, bos-format and eos-format. If output-format-type is
set to T, the keys with suffix "-T" take precedence.

Macros:

	%%      percent sign
	%S      input sentence
	%L      length of the input sentence in bytes
	%m      surface
	%M      surface including preceding whitespace
	%H      feature string
	%h      part-of-speech id
	%c      word cost
	%s      node status (0 normal, 1 unknown, 2 BOS, 3 EOS)
	%pS     whitespace preceding the surface
	%ps     start offset
	%pe     end offset
	%pl     surface length
	%pL     surface length including preceding whitespace
	%pc     accumulated cost
	%pC     connection cost from the predecessor
	%pw     word cost
	%phl    left context id
	%phr    right context id
	%f[N,…] feature fields N,… of the CSV feature string, tab separated
	%FC[N,…] like %f, separated by C (C may be an escape like \t)

Fields starting with '*' are omitted. The escapes \0 \a \b \t \n \v \f \r
\s (space) and \\ are recognized. Other macros are copied literally.
*/
package format

import (
	"strconv"
	"strings"

	"github.com/npillmayer/schuko"

	"github.com/npillmayer/morpheme/internal/errs"
)

// Kind is the status of a node.
type Kind uint8

const (
	Normal  Kind = iota // found in the system dictionary
	Unknown             // synthesized from a character category
	BOS                 // beginning of sentence
	EOS                 // end of sentence
)

func (k Kind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Unknown:
		return "unknown"
	case BOS:
		return "BOS"
	case EOS:
		return "EOS"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Node is what a Formatter needs to know about a lattice node.
type Node interface {
	Kind() Kind
	Surface() string
	Padded() string // surface including preceding whitespace
	Feature() string
	PosID() uint16
	LeftID() uint16
	RightID() uint16
	Start() int // byte offset of the surface
	End() int   // byte offset after the surface
	WordCost() int16
	Cost() int64           // accumulated
	ConnectionCost() int64 // from the predecessor
}

// Default templates.
const (
	DefaultNodeFormat = `%m\t%H\n`
	DefaultBOSFormat  = ``
	DefaultEOSFormat  = `EOS\n`
)

// Formatter holds one template per node kind. It is immutable and may be
// shared between goroutines.
type Formatter struct {
	templates [4]string
}

// New reads the templates from conf. A nil conf yields the defaults.
// An output-format-type without a matching node-format-<type> is a
// configuration error.
func New(conf schuko.Configuration) (*Formatter, error) {
	get := func(key, def string) string {
		if conf != nil && conf.IsSet(key) {
			return conf.GetString(key)
		}
		return def
	}
	node := get("node-format", DefaultNodeFormat)
	unk := get("unk-format", node)
	bos := get("bos-format", DefaultBOSFormat)
	eos := get("eos-format", DefaultEOSFormat)
	if typ := get("output-format-type", ""); typ != "" {
		suffix := "-" + typ
		if get("node-format"+suffix, "") == "" {
			return nil, errs.New(errs.Config, "output-format-type", "unknown format type %q", typ)
		}
		node = get("node-format"+suffix, node)
		unk = get("unk-format"+suffix, node)
		bos = get("bos-format"+suffix, bos)
		eos = get("eos-format"+suffix, eos)
	}
	return NewWithTemplates(node, unk, bos, eos), nil
}

// NewWithTemplates creates a Formatter from explicit templates.
func NewWithTemplates(node, unk, bos, eos string) *Formatter {
	return &Formatter{templates: [4]string{Normal: node, Unknown: unk, BOS: bos, EOS: eos}}
}

// Template returns the template used for nodes of kind k.
func (f *Formatter) Template(k Kind) string {
	if int(k) >= len(f.templates) {
		return ""
	}
	return f.templates[k]
}

func renderError(format string, args ...interface{}) error {
	return errs.New(errs.Render, "", format, args...)
}

// Render appends the text for n to dst.
func (f *Formatter) Render(dst []byte, n Node, sentence string) ([]byte, error) {
	tmpl := f.Template(n.Kind())
	var csv []string
	for i := 0; i < len(tmpl); i++ {
		switch c := tmpl[i]; c {
		default:
			dst = append(dst, c)
		case '\\':
			if i++; i >= len(tmpl) {
				return dst, renderError("template ends with a backslash: %q", tmpl)
			}
			e, ok := escaped(tmpl[i])
			if !ok {
				return dst, renderError("unknown escape \\%c in %q", tmpl[i], tmpl)
			}
			dst = append(dst, e)
		case '%':
			if i++; i >= len(tmpl) {
				return dst, renderError("template ends with '%%': %q", tmpl)
			}
			switch m := tmpl[i]; m {
			default:
				dst = append(dst, '%', m)
			case '%':
				dst = append(dst, '%')
			case 'S':
				dst = append(dst, sentence...)
			case 'L':
				dst = strconv.AppendInt(dst, int64(len(sentence)), 10)
			case 'm':
				dst = append(dst, n.Surface()...)
			case 'M':
				dst = append(dst, n.Padded()...)
			case 'H':
				dst = append(dst, n.Feature()...)
			case 'h':
				dst = strconv.AppendUint(dst, uint64(n.PosID()), 10)
			case 'c':
				dst = strconv.AppendInt(dst, int64(n.WordCost()), 10)
			case 's':
				dst = strconv.AppendUint(dst, uint64(n.Kind()), 10)
			case 'p':
				var err error
				if dst, i, err = appendNodeMacro(dst, tmpl, i+1, n); err != nil {
					return dst, err
				}
			case 'f', 'F':
				feature := n.Feature()
				if feature == "" {
					return dst, renderError("no feature information available")
				}
				if csv == nil {
					csv = SplitCSV(feature)
				}
				separator := byte('\t')
				if m == 'F' {
					if i++; i >= len(tmpl) {
						return dst, renderError("missing separator after %%F in %q", tmpl)
					}
					separator = tmpl[i]
					if separator == '\\' {
						if i++; i >= len(tmpl) {
							return dst, renderError("template ends with a backslash: %q", tmpl)
						}
						e, ok := escaped(tmpl[i])
						if !ok {
							return dst, renderError("unknown escape \\%c in %q", tmpl[i], tmpl)
						}
						separator = e
					}
				}
				if i++; i >= len(tmpl) || tmpl[i] != '[' {
					return dst, renderError("cannot find '[' in %q", tmpl)
				}
				var err error
				if dst, i, err = appendFields(dst, tmpl, i+1, csv, separator); err != nil {
					return dst, err
				}
			}
		}
	}
	return dst, nil
}

// appendNodeMacro handles %p… macros; i is the index after 'p'. It returns
// the index of the last character consumed.
func appendNodeMacro(dst []byte, tmpl string, i int, n Node) ([]byte, int, error) {
	if i >= len(tmpl) {
		return dst, i, renderError("template ends with '%%p': %q", tmpl)
	}
	switch tmpl[i] {
	default:
		dst = append(dst, '%', 'p', tmpl[i])
	case 'S':
		padded := n.Padded()
		dst = append(dst, padded[:len(padded)-len(n.Surface())]...)
	case 's':
		dst = strconv.AppendInt(dst, int64(n.Start()), 10)
	case 'e':
		dst = strconv.AppendInt(dst, int64(n.End()), 10)
	case 'l':
		dst = strconv.AppendInt(dst, int64(len(n.Surface())), 10)
	case 'L':
		dst = strconv.AppendInt(dst, int64(len(n.Padded())), 10)
	case 'c':
		dst = strconv.AppendInt(dst, n.Cost(), 10)
	case 'C':
		dst = strconv.AppendInt(dst, n.ConnectionCost(), 10)
	case 'w':
		dst = strconv.AppendInt(dst, int64(n.WordCost()), 10)
	case 'h':
		if i+1 >= len(tmpl) {
			return dst, i, renderError("template ends with '%%ph': %q", tmpl)
		}
		i++
		switch tmpl[i] {
		case 'l':
			dst = strconv.AppendUint(dst, uint64(n.LeftID()), 10)
		case 'r':
			dst = strconv.AppendUint(dst, uint64(n.RightID()), 10)
		default:
			dst = append(dst, '%', 'p', 'h', tmpl[i])
		}
	}
	return dst, i, nil
}

// appendFields handles the index list of %f and %F; i is the index after
// '['. It returns the index of the closing ']'.
func appendFields(dst []byte, tmpl string, i int, csv []string, separator byte) ([]byte, int, error) {
	n := 0
	wrote := false
	for ; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c >= '0' && c <= '9':
			n = n*10 + int(c-'0')
		case c == ',' || c == ']':
			if n >= len(csv) {
				return dst, i, renderError("field index %d out of range, feature has %d fields", n, len(csv))
			}
			if strings.HasPrefix(csv[n], "*") {
				wrote = false
			} else {
				if wrote {
					dst = append(dst, separator)
				}
				dst = append(dst, csv[n]...)
				wrote = true
			}
			if c == ']' {
				return dst, i, nil
			}
			n = 0
		default:
			return dst, i, renderError("cannot find ']' in %q", tmpl)
		}
	}
	return dst, i, renderError("cannot find ']' in %q", tmpl)
}

func escaped(c byte) (byte, bool) {
	switch c {
	case '0':
		return 0, true
	case 'a':
		return '\a', true
	case 'b':
		return '\b', true
	case 't':
		return '\t', true
	case 'n':
		return '\n', true
	case 'v':
		return '\v', true
	case 'f':
		return '\f', true
	case 'r':
		return '\r', true
	case 's':
		return ' ', true
	case '\\':
		return '\\', true
	}
	return 0, false
}

// SplitCSV splits a feature string into fields. Leading whitespace of a
// field is skipped; a field may be quoted with '"', with "" standing for a
// literal quote.
func SplitCSV(s string) []string {
	var fields []string
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) {
			continue
		}
		if s[i] == '"' {
			var val []byte
			for i++; i < len(s); i++ {
				if s[i] == '"' {
					if i++; i >= len(s) || s[i] != '"' {
						break
					}
				}
				val = append(val, s[i])
			}
			fields = append(fields, string(val))
			if i < len(s) {
				if j := strings.IndexByte(s[i:], ','); j >= 0 {
					i += j
				} else {
					i = len(s)
				}
			}
			continue
		}
		end := len(s)
		if j := strings.IndexByte(s[i:], ','); j >= 0 {
			end = i + j
		}
		fields = append(fields, s[i:end])
		i = end
	}
	return fields
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
