package compiler

import (
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Offset converts a zero-based line and UTF-16 character into a byte offset
// in content. The character count may run past the end of the line into the
// following ones; only running out of input is an error.
func Offset(content string, line, char uint32) (int, error) {
	offset := 0
	for l := uint32(0); l < line; {
		if offset >= len(content) {
			return 0, fmt.Errorf("%w: reached end of file before line %d", ErrPositionOutOfRange, line)
		}
		if content[offset] == '\n' {
			l++
		}
		offset++
	}

	for c := uint32(0); c < char; {
		if offset >= len(content) {
			return 0, fmt.Errorf("%w: reached end of file before character %d of line %d", ErrPositionOutOfRange, char, line)
		}
		r, size := utf8.DecodeRuneInString(content[offset:])
		c += utf16Len(r)
		offset += size
	}

	return offset, nil
}

// PositionAt converts a byte offset into an LSP position. Offsets past the
// end are clamped.
func PositionAt(content string, offset int) protocol.Position {
	if offset > len(content) {
		offset = len(content)
	}

	var line, char uint32
	for i, r := range content {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
			char = 0
			continue
		}
		char += utf16Len(r)
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(char)}
}

// rangeOf returns the LSP range spanned by n.
func rangeOf(content string, n *sitter.Node) protocol.Range {
	return protocol.Range{
		Start: PositionAt(content, int(n.StartByte())),
		End:   PositionAt(content, int(n.EndByte())),
	}
}

func utf16Len(r rune) uint32 {
	if r > 0xFFFF {
		return 2
	}
	return 1
}
