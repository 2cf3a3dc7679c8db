// Package parser reads identifier and name lists supplied by the CLI and the
// HTTP API: plain text (one item per line or comma-separated) or a YAML list.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	separatorRe = regexp.MustCompile(`[,\n]`)
	cidRe       = regexp.MustCompile(`^[0-9]+$`)
)

// Result holds the output of parsing a list.
type Result struct {
	Items   []string
	Invalid []string // only populated by ParseCIDs
}

// Parse extracts a deduplicated item list from raw bytes. Content whose
// first meaningful line starts with "-" or "[" is read as YAML; anything else
// is read as plain text where "#" starts a comment.
func Parse(data []byte) (*Result, error) {
	if isYAMLList(data) {
		items, err := parseYAML(data)
		if err != nil {
			return nil, err
		}
		return &Result{Items: dedupe(items)}, nil
	}
	return &Result{Items: dedupe(parsePlain(string(data)))}, nil
}

// ParseCIDs is Parse restricted to numeric identifiers. Non-numeric items are
// reported in Result.Invalid instead of Items.
func ParseCIDs(data []byte) (*Result, error) {
	r, err := Parse(data)
	if err != nil {
		return nil, err
	}
	out := &Result{}
	for _, item := range r.Items {
		if cidRe.MatchString(item) {
			out.Items = append(out.Items, item)
		} else {
			out.Invalid = append(out.Invalid, item)
		}
	}
	return out, nil
}

// SplitList splits a comma-separated query value such as "1,2, 3".
func SplitList(s string) []string {
	return dedupe(parsePlain(s))
}

func isYAMLList(data []byte) bool {
	for _, line := range bytes.Split(data, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 || trimmed[0] == '#' {
			continue
		}
		if trimmed[0] == '[' {
			return true
		}
		return trimmed[0] == '-' && (len(trimmed) == 1 || trimmed[1] == ' ')
	}
	return false
}

func parseYAML(data []byte) ([]string, error) {
	var raw []any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parser: yaml list: %w", err)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch x := v.(type) {
		case nil:
			continue
		case string:
			out = append(out, strings.TrimSpace(x))
		case int, int64, uint64, float64, bool:
			out = append(out, fmt.Sprint(x))
		default:
			return nil, fmt.Errorf("parser: yaml list: unsupported item %v", v)
		}
	}
	return out, nil
}

func parsePlain(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		lines = append(lines, line)
	}
	return separatorRe.Split(strings.Join(lines, "\n"), -1)
}

// dedupe trims items, drops empties and keeps the first occurrence.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
