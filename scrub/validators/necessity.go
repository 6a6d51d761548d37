package validators

import "strings"

const wildcard = "*"

// NecessityTable maps procedure codes to the diagnosis patterns accepted as
// supporting evidence. The "*" entry applies to procedures not listed.
type NecessityTable struct {
	entries map[string][]string
}

func NewNecessityTable(entries map[string][]string) NecessityTable {
	t := NecessityTable{entries: make(map[string][]string, len(entries))}
	for code, patterns := range entries {
		normalized := make([]string, 0, len(patterns))
		for _, p := range patterns {
			normalized = append(normalized, normalizeCode(p))
		}
		t.entries[strings.TrimSpace(code)] = normalized
	}
	return t
}

// Restricts reports whether the table constrains the given procedure at all.
func (t NecessityTable) Restricts(procedureCode string) bool {
	_, ok := t.patterns(procedureCode)
	return ok
}

// Supports reports whether diagnosisCode supports procedureCode.
func (t NecessityTable) Supports(procedureCode, diagnosisCode string) bool {
	patterns, ok := t.patterns(procedureCode)
	if !ok {
		return true
	}

	dx := normalizeCode(diagnosisCode)
	if dx == "" {
		return false
	}
	for _, p := range patterns {
		switch {
		case p == wildcard:
			return true
		case strings.HasSuffix(p, wildcard):
			if strings.HasPrefix(dx, strings.TrimSuffix(p, wildcard)) {
				return true
			}
		case p == dx:
			return true
		}
	}
	return false
}

func (t NecessityTable) patterns(procedureCode string) ([]string, bool) {
	if p, ok := t.entries[strings.TrimSpace(procedureCode)]; ok {
		return p, true
	}
	p, ok := t.entries[wildcard]
	return p, ok
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), ".", ""))
}
