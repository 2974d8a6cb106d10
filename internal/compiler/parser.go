package compiler

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/kotlin"
)

var lang = kotlin.GetLanguage()

// ParserPool maintains a pool of tree-sitter parsers. A parser is not safe
// for concurrent use, so each Parse borrows one for its duration.
type ParserPool struct {
	pool   chan *sitter.Parser
	lang   *sitter.Language
	mu     sync.RWMutex
	closed bool
}

// NewParserPool creates a ParserPool with n parsers for the specified language.
func NewParserPool(n int, lang *sitter.Language) *ParserPool {
	if n < 1 {
		n = 1
	}
	pp := &ParserPool{
		pool: make(chan *sitter.Parser, n),
		lang: lang,
	}
	for i := 0; i < n; i++ {
		p := sitter.NewParser()
		p.SetLanguage(lang)
		pp.pool <- p
	}
	return pp
}

// Parse builds a fresh syntax tree for document.
func (pp *ParserPool) Parse(ctx context.Context, document []byte) (*sitter.Tree, error) {
	pp.mu.RLock()
	defer pp.mu.RUnlock()
	if pp.closed {
		return nil, ErrCompilerClosed
	}

	var p *sitter.Parser
	select {
	case p = <-pp.pool:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { pp.pool <- p }()

	tree, err := p.ParseCtx(ctx, nil, document)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return tree, nil
}

// Close releases all parsers in the pool. Parses in progress finish first.
func (pp *ParserPool) Close() error {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if pp.closed {
		return nil
	}
	pp.closed = true

	close(pp.pool)
	for p := range pp.pool {
		p.Close()
	}
	return nil
}
