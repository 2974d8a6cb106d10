package sourcepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func change(startLine, startChar, endLine, endChar uint32, text string) protocol.TextDocumentContentChangeEvent {
	return protocol.TextDocumentContentChangeEvent{
		Range: &protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(startLine), Character: protocol.UInteger(startChar)},
			End:   protocol.Position{Line: protocol.UInteger(endLine), Character: protocol.UInteger(endChar)},
		},
		Text: text,
	}
}

func TestApplyChange(t *testing.T) {
	tests := []struct {
		name     string
		document string
		change   any
		want     string
	}{
		{name: "insert", document: "fun a() {}", change: change(0, 4, 0, 4, "b"), want: "fun ba() {}"},
		{name: "replace across lines", document: "one\ntwo\nthree", change: change(0, 1, 2, 2, "X"), want: "oXree"},
		{name: "delete line", document: "a\nb\nc", change: change(1, 0, 2, 0, ""), want: "a\nc"},
		{name: "append at end", document: "a\n", change: change(1, 0, 1, 0, "b"), want: "a\nb"},
		{name: "clamped past end", document: "ab", change: change(5, 0, 9, 9, "!"), want: "ab!"},
		{name: "utf16 units", document: "\U0001F600x", change: change(0, 2, 0, 3, "y"), want: "\U0001F600y"},
		{name: "whole document", document: "old", change: protocol.TextDocumentContentChangeEventWhole{Text: "new"}, want: "new"},
		{name: "range-less event", document: "old", change: protocol.TextDocumentContentChangeEvent{Text: "new"}, want: "new"},
		{name: "unknown change", document: "old", change: 42, want: "old"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, applyChange(tt.document, tt.change))
		})
	}
}
