package sourcepath

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// applyChange applies one didChange content change to document. Positions
// past the end of a line or of the document are clamped.
func applyChange(document string, change any) string {
	switch c := change.(type) {
	case protocol.TextDocumentContentChangeEvent:
		if c.Range == nil {
			return c.Text
		}
		start := clampedOffset(document, c.Range.Start)
		end := clampedOffset(document, c.Range.End)
		if end < start {
			start, end = end, start
		}
		return document[:start] + c.Text + document[end:]
	case protocol.TextDocumentContentChangeEventWhole:
		return c.Text
	case *protocol.TextDocumentContentChangeEvent:
		return applyChange(document, *c)
	case *protocol.TextDocumentContentChangeEventWhole:
		return applyChange(document, *c)
	}
	return document
}

// clampedOffset converts an LSP position into a byte offset in document.
func clampedOffset(document string, pos protocol.Position) int {
	lines := strings.SplitAfter(document, "\n")
	if int(pos.Line) >= len(lines) {
		return len(document)
	}

	offset := 0
	for i := 0; i < int(pos.Line); i++ {
		offset += len(lines[i])
	}

	line := strings.TrimSuffix(lines[pos.Line], "\n")
	var units uint32
	for i, r := range line {
		if units >= uint32(pos.Character) {
			return offset + i
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return offset + len(line)
}
