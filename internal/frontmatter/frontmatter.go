// Package frontmatter implements a minimal YAML-subset codec for the
// metadata block prefixed to Markdown notes.
//
// The grammar is deliberately small: top-level scalars, block sequences of
// scalars, and inline arrays. Nested mappings are not supported. The codec
// never fails: malformed input degrades to "no frontmatter" so that a single
// bad note cannot abort a vault-wide scan.
package frontmatter

import (
	"regexp"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Mapping is an insertion-ordered frontmatter mapping. Values are one of
// string, int, float64, bool, nil, or []any of those.
type Mapping = orderedmap.OrderedMap[string, any]

// NewMapping returns an empty ordered mapping.
func NewMapping() *Mapping {
	return orderedmap.New[string, any]()
}

const delimiter = "---"

var (
	intRe   = regexp.MustCompile(`^-?\d+$`)
	floatRe = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// Parse splits content into frontmatter and body.
//
// A metadata block is recognized only when the content starts at byte 0 with
// a "---" delimiter line closed by a second "---" line. Anything else — no
// opening delimiter, no closing delimiter, or a malformed line inside the
// block — yields an empty mapping and the entire input as body. rawBlock is
// the original block text including both delimiter lines (empty when no
// block was recognized).
func Parse(content string) (fm *Mapping, body string, rawBlock string) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || !isDelimiter(lines[0]) {
		return NewMapping(), content, ""
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if isDelimiter(lines[i]) {
			end = i
			break
		}
	}
	if end < 0 {
		return NewMapping(), content, ""
	}

	fm, ok := parseBlock(lines[1:end])
	if !ok {
		return NewMapping(), content, ""
	}

	body = strings.Join(lines[end+1:], "\n")
	rawBlock = strings.Join(lines[:end+1], "\n") + "\n"
	return fm, body, rawBlock
}

// isDelimiter reports whether line is a frontmatter delimiter, tolerating a
// trailing carriage return from CRLF content.
func isDelimiter(line string) bool {
	return strings.TrimRight(line, "\r") == delimiter
}

// parseBlock applies the per-line grammar. ok is false when a line is
// neither "key: value" nor a sequence item under a pending key.
func parseBlock(lines []string) (*Mapping, bool) {
	fm := NewMapping()
	pending := "" // key whose block sequence is being collected

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Sequence item under the pending key.
		if strings.HasPrefix(trimmed, "- ") || trimmed == "-" {
			if pending == "" {
				return nil, false
			}
			item := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
			seq, _ := fm.Get(pending)
			items, _ := seq.([]any)
			fm.Set(pending, append(items, coerce(item)))
			continue
		}

		idx := strings.Index(line, ":")
		if idx <= 0 {
			return nil, false
		}
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			return nil, false
		}
		value := strings.TrimSpace(line[idx+1:])

		if value == "" {
			// Empty value opens a pending block sequence.
			pending = key
			fm.Set(key, []any{})
			continue
		}
		pending = ""
		fm.Set(key, coerce(value))
	}

	return fm, true
}

// coerce converts a raw scalar token to its typed value. The order is a
// documented contract: quoted string, boolean, null, integer, float, inline
// array, raw string. A quoted "42" therefore stays a string while a bare 42
// becomes an integer.
func coerce(raw string) any {
	if len(raw) >= 2 {
		if raw[0] == '"' && raw[len(raw)-1] == '"' {
			return strings.ReplaceAll(raw[1:len(raw)-1], `\"`, `"`)
		}
		if raw[0] == '\'' && raw[len(raw)-1] == '\'' {
			return raw[1 : len(raw)-1]
		}
	}

	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	case "null", "~":
		return nil
	}

	if intRe.MatchString(raw) {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	if floatRe.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}

	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		inner := strings.TrimSpace(raw[1 : len(raw)-1])
		if inner == "" {
			return []any{}
		}
		parts := strings.Split(inner, ",")
		items := make([]any, 0, len(parts))
		for _, p := range parts {
			items = append(items, coerce(strings.TrimSpace(p)))
		}
		return items
	}

	return raw
}

// Stringify renders fm as a frontmatter block including both delimiter
// lines. An empty or nil mapping yields the empty string. Non-empty
// sequences render as block sequences; empty sequences render inline as [].
func Stringify(fm *Mapping) string {
	if fm == nil || fm.Len() == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(delimiter)
	b.WriteByte('\n')
	for pair := fm.Oldest(); pair != nil; pair = pair.Next() {
		switch v := pair.Value.(type) {
		case []any:
			if len(v) == 0 {
				b.WriteString(pair.Key + ": []\n")
				continue
			}
			b.WriteString(pair.Key + ":\n")
			for _, item := range v {
				b.WriteString("  - " + formatScalar(item) + "\n")
			}
		case []string:
			if len(v) == 0 {
				b.WriteString(pair.Key + ": []\n")
				continue
			}
			b.WriteString(pair.Key + ":\n")
			for _, item := range v {
				b.WriteString("  - " + formatScalar(item) + "\n")
			}
		default:
			b.WriteString(pair.Key + ": " + formatScalar(v) + "\n")
		}
	}
	b.WriteString(delimiter)
	b.WriteByte('\n')
	return b.String()
}

// formatScalar renders a single scalar, quoting strings that would
// otherwise be misread on the next parse.
func formatScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		// Integral floats keep a ".0" so the next parse yields a float
		// again, not an int.
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case string:
		if needsQuoting(val) {
			return `"` + strings.ReplaceAll(val, `"`, `\"`) + `"`
		}
		return val
	default:
		return ""
	}
}

// needsQuoting reports whether a string scalar must be quoted to survive a
// round trip: YAML-significant content, or a lexeme that coerce would turn
// into a non-string (bare numbers, booleans, null).
func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	if strings.ContainsAny(s, ":#\n") {
		return true
	}
	if s != strings.TrimSpace(s) {
		return true
	}
	if strings.ContainsRune("[]{}>|*&!%@`", rune(s[0])) {
		return true
	}
	switch strings.ToLower(s) {
	case "true", "false", "null", "~":
		return true
	}
	return intRe.MatchString(s) || floatRe.MatchString(s)
}
