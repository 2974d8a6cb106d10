package compiler

import (
	"context"
	"net/url"
	"path"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// CompiledFile is an immutable snapshot of one document version together
// with its syntax tree.
type CompiledFile struct {
	URI     string
	Name    string // base file name, e.g. Main.kt
	Content string
	Version int32

	tree   *sitter.Tree
	source []byte

	// Nodes are cached by the tree-sitter binding in an unsynchronized map,
	// so every walk over the tree holds mu.
	mu sync.Mutex
}

type Compiler struct {
	parsers *ParserPool
}

// New creates a Compiler able to parse up to parallelism documents at once.
func New(parallelism int) *Compiler {
	return &Compiler{parsers: NewParserPool(parallelism, lang)}
}

// Compile parses content as the given version of the document at u.
func (c *Compiler) Compile(ctx context.Context, u *url.URL, content string, version int32) (*CompiledFile, error) {
	source := []byte(content)
	tree, err := c.parsers.Parse(ctx, source)
	if err != nil {
		return nil, err
	}

	p := u.Path
	if p == "" {
		p = u.Opaque
	}

	return &CompiledFile{
		URI:     u.String(),
		Name:    path.Base(p),
		Content: content,
		Version: version,
		tree:    tree,
		source:  source,
	}, nil
}

func (c *Compiler) Close() error {
	return c.parsers.Close()
}

// HasErrors reports whether the parser had to recover from syntax errors.
func (f *CompiledFile) HasErrors() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tree.RootNode().HasError()
}

func (f *CompiledFile) root() *sitter.Node {
	return f.tree.RootNode()
}

func (f *CompiledFile) text(n *sitter.Node) string {
	return n.Content(f.source)
}
