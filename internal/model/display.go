package model

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// LineWidth is the console width used for separators and description wrapping.
const LineWidth = 80

// Rule returns the separator line printed between tasks.
func Rule() string {
	return strings.Repeat("-", LineWidth)
}

// FormattedDisplay renders a task for the console: a separator, a fixed-width
// header line and, when present, the wrapped description.
func FormattedDisplay(t Task) string {
	deadline := ""
	if t.Deadline != nil {
		deadline = FormatDeadline(*t.Deadline)
	}

	var b strings.Builder
	b.WriteString(Rule())
	fmt.Fprintf(&b, "\n%-20s | %-19s | %-32s\n", t.Name, deadline, t.Hash)

	if t.Description != nil && *t.Description != "" {
		b.WriteString("\n")
		for _, line := range wrap(*t.Description, LineWidth) {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// wrap splits text into lines of at most width runes. Tabs are expanded and
// other whitespace becomes a space. Runs of spaces inside a line are kept,
// whitespace at a line break is dropped. Words may break after a hyphen;
// words longer than width are broken.
func wrap(text string, width int) []string {
	chunks := splitChunks(expandWhitespace(text))

	var lines []string
	for len(chunks) > 0 {
		// пробелы в начале строки отбрасываются, кроме самой первой
		if len(lines) > 0 && isBlank(chunks[0]) {
			chunks = chunks[1:]
			continue
		}

		var (
			line   [][]rune
			curLen int
		)
		for len(chunks) > 0 && curLen+len(chunks[0]) <= width {
			line = append(line, chunks[0])
			curLen += len(chunks[0])
			chunks = chunks[1:]
		}

		if len(chunks) > 0 && len(chunks[0]) > width {
			chunk := chunks[0]
			end := width - curLen
			if h := lastIndex(chunk[:end], '-'); h > 0 && slices.ContainsFunc(chunk[:h], func(r rune) bool { return r != '-' }) {
				end = h + 1
			}
			line = append(line, chunk[:end])
			chunks[0] = chunk[end:]
		}

		if n := len(line); n > 0 && isBlank(line[n-1]) {
			line = line[:n-1]
		}
		if len(line) > 0 {
			var b strings.Builder
			for _, c := range line {
				b.WriteString(string(c))
			}
			lines = append(lines, b.String())
		}
	}
	return lines
}

const tabSize = 8

func expandWhitespace(text string) []rune {
	out := make([]rune, 0, len(text))
	col := 0
	for _, r := range text {
		switch r {
		case '\t':
			pad := tabSize - col%tabSize
			for range pad {
				out = append(out, ' ')
			}
			col += pad
		case '\n', '\r':
			out = append(out, ' ')
			col = 0
		case '\v', '\f':
			out = append(out, ' ')
			col++
		default:
			out = append(out, r)
			col++
		}
	}
	return out
}

// splitChunks cuts text into runs of spaces, words and em-dashes. A
// hyphenated word is cut after each hyphen that joins two letter runs.
func splitChunks(text []rune) [][]rune {
	at := func(i int) rune {
		if i < 0 || i >= len(text) {
			return 0
		}
		return text[i]
	}

	var chunks [][]rune
	for p := 0; p < len(text); {
		if text[p] == ' ' {
			q := p
			for q < len(text) && text[q] == ' ' {
				q++
			}
			chunks = append(chunks, text[p:q])
			p = q
			continue
		}

		if isWordPunct(at(p-1)) && emDashAt(text, p) {
			q := dashRunEnd(text, p)
			chunks = append(chunks, text[p:q])
			p = q
			continue
		}

		for q := p + 1; ; q++ {
			if at(q) == '-' && hyphenBreak(at, q) {
				chunks = append(chunks, text[p:q+1])
				p = q + 1
				break
			}
			if q == len(text) || text[q] == ' ' || isWordPunct(at(q-1)) && emDashAt(text, q) {
				chunks = append(chunks, text[p:q])
				p = q
				break
			}
		}
	}
	return chunks
}

// hyphenBreak reports whether a word may break after the hyphen at q: two
// letters (or letter-hyphen-letter) before it and a letter pair after it.
func hyphenBreak(at func(int) rune, q int) bool {
	before := isLetter(at(q-2)) && isLetter(at(q-1)) ||
		isLetter(at(q-3)) && at(q-2) == '-' && isLetter(at(q-1))
	after := isLetter(at(q+1)) &&
		(isLetter(at(q+2)) || at(q+2) == '-' && isLetter(at(q+3)))
	return before && after
}

// emDashAt reports whether two or more hyphens followed by a word rune start at p.
func emDashAt(text []rune, p int) bool {
	q := dashRunEnd(text, p)
	return q-p >= 2 && q < len(text) && isWordRune(text[q])
}

func dashRunEnd(text []rune, p int) int {
	for p < len(text) && text[p] == '-' {
		p++
	}
	return p
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isLetter(r rune) bool {
	return isWordRune(r) && !unicode.IsDigit(r)
}

func isWordPunct(r rune) bool {
	return isWordRune(r) || strings.ContainsRune(`!"'&.,?`, r)
}

func isBlank(chunk []rune) bool {
	for _, r := range chunk {
		if r != ' ' {
			return false
		}
	}
	return true
}

func lastIndex(s []rune, r rune) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == r {
			return i
		}
	}
	return -1
}
