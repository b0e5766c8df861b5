// Package assemble builds combined_data.json from a template and the
// artifacts of the earlier stages.
package assemble

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

//go:embed template.json
var defaultTemplate []byte

// DefaultTemplate returns the embedded template.
func DefaultTemplate() []byte { return defaultTemplate }

// LoadTemplate reads the template at path, or returns the embedded one when
// path is empty.
func LoadTemplate(path string) ([]byte, error) {
	if path == "" {
		return defaultTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "assemble: read template %s", path)
	}
	return data, nil
}

func decodeTemplate(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "assemble: template is not a JSON object")
	}
	return doc, nil
}

var tokenRe = regexp.MustCompile(`\{\{([A-Z0-9_]+)\}\}`)

// substitute replaces {{NAME}} tokens in every string of v. A string that
// is exactly one token takes the value's own JSON type, so "{{LAT}}"
// becomes a number. Unknown tokens are removed and their names collected
// into leftover.
func substitute(v any, vals map[string]any, leftover map[string]bool) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = substitute(child, vals, leftover)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = substitute(child, vals, leftover)
		}
		return t
	case string:
		if m := tokenRe.FindStringSubmatch(t); m != nil && m[0] == t {
			if val, ok := vals[m[1]]; ok {
				return val
			}
		}
		return tokenRe.ReplaceAllStringFunc(t, func(tok string) string {
			name := tok[2 : len(tok)-2]
			val, ok := vals[name]
			if !ok {
				leftover[name] = true
				return ""
			}
			return fmt.Sprint(val)
		})
	default:
		return v
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// setPath stores value at the nested key path, creating objects as needed.
func setPath(doc map[string]any, value any, path ...string) error {
	cur := doc
	for _, key := range path[:len(path)-1] {
		next, ok := cur[key]
		if !ok || next == nil {
			m := make(map[string]any)
			cur[key] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return eris.Errorf("assemble: template key %s is not an object", strings.Join(path, "."))
		}
		cur = m
	}
	cur[path[len(path)-1]] = value
	return nil
}

// getPath returns the value at the nested key path.
func getPath(doc map[string]any, path ...string) (any, bool) {
	var cur any = doc
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}
