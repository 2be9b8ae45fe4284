package testutil

import "strings"

// Dedent removes an indentation margin common to every line in text, after
// blanking lines that hold only whitespace. An initial newline is removed,
// so that a raw string may open right after the backtick and still line up
// with the left edge when rendered.
func Dedent(text string) string {
	lines := strings.Split(strings.TrimPrefix(text, "\n"), "\n")
	margin := ""
	found := false
	for i, line := range lines {
		content := strings.TrimLeft(line, " \t")
		if content == "" {
			lines[i] = ""
			continue
		}
		indent := line[:len(line)-len(content)]
		switch {
		case !found:
			margin, found = indent, true
		case strings.HasPrefix(indent, margin):
			// Indented deeper than the margin so far; keeps it.
		case strings.HasPrefix(margin, indent):
			margin = indent
		default:
			margin = ""
		}
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}
