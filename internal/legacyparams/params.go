// Package legacyparams reads the plain-text parameter files used by the
// dune model core: `key = value` lines with `#` comments. Keys may be
// dotted (`veget.growthrate`); the `dontsave.<field>` group collects the
// per-field output suppression flags.
package legacyparams

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.\-]*$`)

// File holds the parsed contents of one parameter file.
type File struct {
	name     string
	values   map[string]cty.Value
	raw      map[string]string
	dontsave map[string]bool
}

// Parse reads and parses the parameter file at path.
func Parse(path string) (*File, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ParseReader(fp, path)
}

// ParseReader parses parameter lines from r; name is used in error messages.
func ParseReader(r io.Reader, name string) (*File, error) {
	f := &File{
		name:     name,
		values:   make(map[string]cty.Value),
		raw:      make(map[string]string),
		dontsave: make(map[string]bool),
	}

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()

		// Strip inline comments before interpreting anything else.
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("%s:%d: expected 'key = value', got %q", name, lineno, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !keyPattern.MatchString(key) {
			return nil, fmt.Errorf("%s:%d: invalid parameter name %q", name, lineno, key)
		}

		if field, ok := strings.CutPrefix(key, "dontsave."); ok {
			switch value {
			case "0":
				f.dontsave[field] = false
			case "1":
				f.dontsave[field] = true
			default:
				return nil, fmt.Errorf("%s:%d: %s must be 0 or 1, got %q", name, lineno, key, value)
			}
			continue
		}

		// Repeated keys follow last-wins, matching the legacy reader.
		f.raw[key] = value
		f.values[key] = typedValue(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return f, nil
}

// typedValue infers the strongest type a bare token supports.
func typedValue(s string) cty.Value {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return cty.NumberIntVal(v)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return cty.NumberFloatVal(v)
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return cty.BoolVal(v)
	}
	return cty.StringVal(strings.Trim(s, `"'`))
}

// Name returns the file name the parameters were read from.
func (f *File) Name() string { return f.name }

// Has reports whether the parameter is present.
func (f *File) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Value returns the typed parameter value, cty.NilVal if absent.
func (f *File) Value(key string) cty.Value {
	v, ok := f.values[key]
	if !ok {
		return cty.NilVal
	}
	return v
}

// Float returns the parameter as a float64, or def when absent or non-numeric.
func (f *File) Float(key string, def float64) float64 {
	v, ok := f.values[key]
	if !ok || v.Type() != cty.Number {
		return def
	}
	out, _ := v.AsBigFloat().Float64()
	return out
}

// Int returns the parameter as an int, or def when absent or non-numeric.
func (f *File) Int(key string, def int) int {
	v, ok := f.values[key]
	if !ok || v.Type() != cty.Number {
		return def
	}
	out, _ := v.AsBigFloat().Int64()
	return int(out)
}

// Bool returns the parameter as a bool; numeric values follow the legacy
// 0/1 convention.
func (f *File) Bool(key string, def bool) bool {
	v, ok := f.values[key]
	if !ok {
		return def
	}
	switch v.Type() {
	case cty.Bool:
		return v.True()
	case cty.Number:
		out, _ := v.AsBigFloat().Float64()
		return out != 0
	default:
		return def
	}
}

// String returns the raw parameter text, or def when absent.
func (f *File) String(key string, def string) string {
	s, ok := f.raw[key]
	if !ok {
		return def
	}
	return strings.Trim(s, `"'`)
}

// Fields returns all parameter names in sorted order.
func (f *File) Fields() []string {
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Suppressed reports whether output of the named field is disabled via a
// `dontsave.<field> = 1` flag.
func (f *File) Suppressed(field string) bool {
	return f.dontsave[field]
}
