package vfs

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"lspkit/internal/protocol"
)

// lineStarts returns the byte offset of every line start. Lines end at
// "\r\n", "\n" or a lone "\r". There is always at least one line, and a
// trailing terminator opens an empty last line.
func lineStarts(text string) []int {
	starts := make([]int, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			starts = append(starts, i+1)
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineEnd returns the byte offset where line ends, excluding its terminator.
func lineEnd(text string, starts []int, line int) int {
	if line+1 >= len(starts) {
		return len(text)
	}
	end := starts[line+1]
	if text[end-1] == '\n' {
		end--
	}
	if end > starts[line] && text[end-1] == '\r' {
		end--
	}
	return end
}

// offsetAt converts an LSP position into a byte offset. Positions past the end
// of a line, past the last line, or inside a surrogate pair are rejected.
func offsetAt(text string, starts []int, pos protocol.Position) (int, error) {
	if pos.Line < 0 || pos.Character < 0 {
		return 0, fmt.Errorf("%w: negative position %s", ErrInvalidRange, pos)
	}
	if pos.Line >= len(starts) {
		return 0, fmt.Errorf("%w: line %d beyond last line %d", ErrInvalidRange, pos.Line, len(starts)-1)
	}
	i := starts[pos.Line]
	end := lineEnd(text, starts, pos.Line)
	units := 0
	for i < end && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[i:end])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			return 0, fmt.Errorf("%w: position %s splits a surrogate pair", ErrInvalidRange, pos)
		}
		units += need
		i += size
	}
	if units < pos.Character {
		return 0, fmt.Errorf("%w: character %d beyond end of line %d", ErrInvalidRange, pos.Character, pos.Line)
	}
	return i, nil
}

// positionAt converts a byte offset into an LSP position, clamping to the text.
func positionAt(text string, starts []int, offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	line := 0
	lo, hi := 0, len(starts)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if starts[mid] <= offset {
			line = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	units := 0
	for _, r := range text[starts[line]:offset] {
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return protocol.Position{Line: line, Character: units}
}

// splice replaces the text covered by r with insert.
func splice(text string, r protocol.Range, insert string) (string, error) {
	if !r.Valid() {
		return "", fmt.Errorf("%w: range %s ends before it starts", ErrInvalidRange, r)
	}
	starts := lineStarts(text)
	start, err := offsetAt(text, starts, r.Start)
	if err != nil {
		return "", err
	}
	end, err := offsetAt(text, starts, r.End)
	if err != nil {
		return "", err
	}
	return text[:start] + insert + text[end:], nil
}
