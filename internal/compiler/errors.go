package compiler

import "fmt"

var (
	// ErrPositionOutOfRange is returned when a line/character pair lies past
	// the end of the document
	ErrPositionOutOfRange = fmt.Errorf("position out of range")

	// ErrCompilerClosed is returned when compiling after Close
	ErrCompilerClosed = fmt.Errorf("compiler is closed")
)
