// Package render formats a structured errs.Report as the caret-underlined
// source snippet spec.md §7 describes as the user-visible convention:
// "<ErrorName>: <message>" followed by the offending line with a caret
// under the bad span. It is the terminal-rendering collaborator spec.md §1
// calls out as external to the core and left to the driver/CLI.
package render

import (
	"fmt"
	"strings"

	"hinton/errs"
)

// Report renders one error against the full source text it came from.
func Report(source string, r *errs.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", r.Kind, r.Message)

	line := sourceLine(source, r.Line)
	if line == "" {
		return b.String()
	}
	b.WriteString(line)
	b.WriteByte('\n')
	b.WriteString(caretLine(line, r.Column, r.LexemeLen))
	b.WriteByte('\n')
	return b.String()
}

// Batch renders every report in b, in order, separated by a blank line.
func Batch(source string, b *errs.Batch) string {
	var out strings.Builder
	for i, r := range b.Reports {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(Report(source, r))
	}
	return out.String()
}

// sourceLine returns the 1-indexed line of source, or "" if line is out of
// range (a defensive fallback — an Internal error may carry a synthesized
// position that doesn't map cleanly onto source).
func sourceLine(source string, line int32) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	idx := int(line) - 1
	if idx >= len(lines) {
		return ""
	}
	return lines[idx]
}

// caretLine builds a line of spaces (tabs preserved so alignment survives
// mixed indentation) with caret(s) under [column, column+lexemeLen).
func caretLine(line string, column, lexemeLen int32) string {
	if lexemeLen < 1 {
		lexemeLen = 1
	}
	runes := []rune(line)
	var b strings.Builder
	for i := int32(0); i < column && int(i) < len(runes); i++ {
		if runes[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	for i := int32(0); i < lexemeLen; i++ {
		b.WriteByte('^')
	}
	return b.String()
}
