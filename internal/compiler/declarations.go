package compiler

import (
	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Declaration kinds reported by Declarations.
const (
	KindClass     = "class"
	KindInterface = "interface"
	KindEnum      = "enum"
	KindObject    = "object"
	KindFunction  = "function"
	KindProperty  = "property"
)

type Declaration struct {
	FqName string
	Name   string
	Kind   string
	Range  protocol.Range
}

// Declarations lists the named top-level and member declarations of file,
// outermost first. Local declarations inside function bodies are skipped.
func Declarations(file *CompiledFile) []Declaration {
	file.mu.Lock()
	defer file.mu.Unlock()

	var out []Declaration
	file.collectDeclarations(namedChildren(file.root()), file.packageName(), &out)
	return out
}

func (f *CompiledFile) collectDeclarations(nodes []*sitter.Node, scope string, out *[]Declaration) {
	for _, n := range nodes {
		kind := f.declarationKind(n)
		if kind == "" {
			continue
		}

		name := f.declarationName(n)
		if name == "" && n.Type() == nodeCompanion {
			name = "Companion"
		}
		if name == "" {
			continue
		}

		fq := qualify(scope, name)
		*out = append(*out, Declaration{
			FqName: fq,
			Name:   name,
			Kind:   kind,
			Range:  rangeOf(f.Content, n),
		})

		if body := classBody(n); body != nil {
			f.collectDeclarations(members(body), fq, out)
		}
	}
}

func (f *CompiledFile) declarationKind(n *sitter.Node) string {
	switch n.Type() {
	case nodeClass:
		switch {
		case hasKeyword(n, "interface"):
			return KindInterface
		case hasKeyword(n, "enum") || f.modifierSet(n)["enum"]:
			return KindEnum
		default:
			return KindClass
		}
	case nodeObject, nodeCompanion:
		return KindObject
	case nodeFunction:
		return KindFunction
	case nodeProperty:
		return KindProperty
	}
	return ""
}
