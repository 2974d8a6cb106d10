package compiler

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Node types of the Kotlin grammar used by the analyses.
const (
	nodeSourceFile      = "source_file"
	nodePackageHeader   = "package_header"
	nodeFileAnnotation  = "file_annotation"
	nodeIdentifier      = "identifier"
	nodeClass           = "class_declaration"
	nodeObject          = "object_declaration"
	nodeCompanion       = "companion_object"
	nodeFunction        = "function_declaration"
	nodeProperty        = "property_declaration"
	nodeClassBody       = "class_body"
	nodeEnumClassBody   = "enum_class_body"
	nodeModifiers       = "modifiers"
	nodeAnnotation      = "annotation"
	nodeTypeIdentifier  = "type_identifier"
	nodeSimpleIdent     = "simple_identifier"
	nodeDelegation      = "delegation_specifier"
	nodeDelegations     = "delegation_specifiers"
	nodeUserType        = "user_type"
	nodeConstructorCall = "constructor_invocation"
	nodeParameters      = "function_value_parameters"
	nodeParameter       = "parameter"
	nodeFunctionBody    = "function_body"
	nodeVariable        = "variable_declaration"
	nodeTypeConstraints = "type_constraints"
)

func children(n *sitter.Node) []*sitter.Node {
	count := int(n.ChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.Child(i))
	}
	return out
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func childOfType(n *sitter.Node, types ...string) *sitter.Node {
	for _, c := range children(n) {
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

func childrenOfType(n *sitter.Node, typ string) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range children(n) {
		if c.Type() == typ {
			out = append(out, c)
		}
	}
	return out
}

// hasKeyword reports whether n has an anonymous child with the given text,
// such as the "interface" keyword of a class declaration.
func hasKeyword(n *sitter.Node, keyword string) bool {
	for _, c := range children(n) {
		if !c.IsNamed() && c.Type() == keyword {
			return true
		}
	}
	return false
}

// modifierSet collects the modifiers of a declaration. Annotations are
// recorded by their simple name with a leading @, e.g. "@JvmStatic".
func (f *CompiledFile) modifierSet(decl *sitter.Node) map[string]bool {
	set := make(map[string]bool)
	mods := childOfType(decl, nodeModifiers)
	if mods == nil {
		return set
	}
	for _, m := range namedChildren(mods) {
		text := strings.TrimSpace(f.text(m))
		if m.Type() == nodeAnnotation {
			text = strings.TrimPrefix(text, "@")
			if i := strings.IndexAny(text, "(<"); i >= 0 {
				text = text[:i]
			}
			if i := strings.LastIndex(text, "."); i >= 0 {
				text = text[i+1:]
			}
			set["@"+strings.TrimSpace(text)] = true
			continue
		}
		set[text] = true
	}
	return set
}

// declarationName returns the declared name of a class, object, function or
// property node, or "" for anonymous declarations.
func (f *CompiledFile) declarationName(decl *sitter.Node) string {
	switch decl.Type() {
	case nodeClass, nodeObject, nodeCompanion:
		if id := childOfType(decl, nodeTypeIdentifier); id != nil {
			return f.text(id)
		}
	case nodeFunction:
		if id := childOfType(decl, nodeSimpleIdent); id != nil {
			return f.text(id)
		}
	case nodeProperty:
		if v := childOfType(decl, nodeVariable); v != nil {
			if id := childOfType(v, nodeSimpleIdent); id != nil {
				return f.text(id)
			}
		}
	}
	return ""
}

// packageName returns the package declared by the file, or "".
func (f *CompiledFile) packageName() string {
	header := childOfType(f.root(), nodePackageHeader)
	if header == nil {
		return ""
	}
	if id := childOfType(header, nodeIdentifier); id != nil {
		return strings.Join(strings.Fields(f.text(id)), "")
	}
	return ""
}

// classBody returns the body of a class or object declaration, or nil.
func classBody(decl *sitter.Node) *sitter.Node {
	return childOfType(decl, nodeClassBody, nodeEnumClassBody)
}

// members returns the declarations inside a class body, skipping comments.
func members(body *sitter.Node) []*sitter.Node {
	if body == nil {
		return nil
	}
	var out []*sitter.Node
	for _, c := range namedChildren(body) {
		if strings.HasSuffix(c.Type(), "comment") {
			continue
		}
		out = append(out, c)
	}
	return out
}

// supertypeNames lists the simple names of the types a class extends or
// implements, in declaration order.
func (f *CompiledFile) supertypeNames(decl *sitter.Node) []string {
	specs := childrenOfType(decl, nodeDelegation)
	if group := childOfType(decl, nodeDelegations); group != nil {
		specs = append(specs, childrenOfType(group, nodeDelegation)...)
	}

	var names []string
	for _, spec := range specs {
		typ := childOfType(spec, nodeUserType)
		if typ == nil {
			if call := childOfType(spec, nodeConstructorCall); call != nil {
				typ = childOfType(call, nodeUserType)
			}
		}
		if typ == nil {
			continue
		}
		ids := childrenOfType(typ, nodeTypeIdentifier)
		if len(ids) == 0 {
			continue
		}
		names = append(names, f.text(ids[len(ids)-1]))
	}
	return names
}

func isClassLike(n *sitter.Node) bool {
	return n.Type() == nodeClass || n.Type() == nodeObject
}

// walk visits n and its descendants depth first until visit returns false.
func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range namedChildren(n) {
		walk(c, visit)
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
