// internal/prompt/compare.go
package prompt

import "strings"

// Diff is a line-set difference between two contents. Not a minimal
// ordered diff: duplicate and reordered lines are not specially handled.
type Diff struct {
	AddedLines   []string `json:"addedLines"`
	RemovedLines []string `json:"removedLines"`
	Changed      bool     `json:"changed"`
}

// Comparison pairs two loaded versions with their content diff. Nothing
// is persisted.
type Comparison struct {
	From *PromptVersion `json:"from"`
	To   *PromptVersion `json:"to"`
	Diff Diff           `json:"diff"`
}

// diffContent reports the lines only in b (added), only in a (removed),
// and whether the contents differ at all.
func diffContent(a, b string) Diff {
	linesA := splitLines(a)
	linesB := splitLines(b)

	setA := lineSet(linesA)
	setB := lineSet(linesB)

	var added, removed []string
	for _, line := range linesB {
		if !setA[line] {
			added = append(added, line)
			setA[line] = true // dedupe in output
		}
	}
	seen := make(map[string]bool)
	for _, line := range linesA {
		if !setB[line] && !seen[line] {
			removed = append(removed, line)
			seen[line] = true
		}
	}

	return Diff{
		AddedLines:   added,
		RemovedLines: removed,
		Changed:      a != b,
	}
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

func lineSet(lines []string) map[string]bool {
	set := make(map[string]bool, len(lines))
	for _, line := range lines {
		set[line] = true
	}
	return set
}
