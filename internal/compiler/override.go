package compiler

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const defaultTabSize = 4

// Members every class inherits from Any.
var anyMembers = []member{
	{name: "equals", stub: "override fun equals(other: Any?): Boolean { }"},
	{name: "hashCode", stub: "override fun hashCode(): Int { }"},
	{name: "toString", stub: "override fun toString(): String { }"},
}

type member struct {
	name string
	stub string
}

// ListOverridableMembers offers one code action per member that the class
// enclosing offset may override but does not yet. Supertypes are looked up
// among the declarations of the same file. The result is empty, never nil,
// when the offset is not inside a class.
func ListOverridableMembers(file *CompiledFile, offset int) []protocol.CodeAction {
	file.mu.Lock()
	defer file.mu.Unlock()

	actions := []protocol.CodeAction{}
	class := file.classAt(offset)
	if class == nil {
		return actions
	}

	stubs := file.unimplementedMembers(class)
	if len(stubs) == 0 {
		return actions
	}

	insertAt, padding, wrap := file.insertionPoint(class)
	pos := PositionAt(file.Content, insertAt)
	for _, m := range stubs {
		text := "\n\n" + padding + m.stub
		if wrap {
			text = " {" + text + "\n}"
		}
		actions = append(actions, protocol.CodeAction{
			Title: m.stub,
			Edit: &protocol.WorkspaceEdit{
				Changes: map[protocol.DocumentUri][]protocol.TextEdit{
					protocol.DocumentUri(file.URI): {{
						Range:   protocol.Range{Start: pos, End: pos},
						NewText: text,
					}},
				},
			},
		})
	}
	return actions
}

// classAt returns the innermost class or object declaration containing offset.
func (f *CompiledFile) classAt(offset int) *sitter.Node {
	var found *sitter.Node
	n := f.root()
	for n != nil {
		if isClassLike(n) {
			found = n
		}
		var next *sitter.Node
		for _, c := range namedChildren(n) {
			if int(c.StartByte()) <= offset && offset <= int(c.EndByte()) {
				next = c
				break
			}
		}
		n = next
	}
	return found
}

func (f *CompiledFile) unimplementedMembers(class *sitter.Node) []member {
	declared := make(map[string]bool)
	for _, m := range members(classBody(class)) {
		if name := f.declarationName(m); name != "" {
			declared[name] = true
		}
	}

	var out []member
	seen := make(map[string]bool)
	add := func(m member) {
		if declared[m.name] || seen[m.name] {
			return
		}
		seen[m.name] = true
		out = append(out, m)
	}

	types := f.typesByName()
	visited := map[string]bool{f.declarationName(class): true}
	var visit func(decl *sitter.Node)
	visit = func(decl *sitter.Node) {
		for _, name := range f.supertypeNames(decl) {
			if visited[name] {
				continue
			}
			visited[name] = true
			super, ok := types[name]
			if !ok {
				continue
			}
			for _, m := range f.overridableMembers(super) {
				add(m)
			}
			visit(super)
		}
	}
	visit(class)

	for _, m := range anyMembers {
		add(m)
	}
	return out
}

// typesByName indexes every class declared in the file by simple name.
func (f *CompiledFile) typesByName() map[string]*sitter.Node {
	types := make(map[string]*sitter.Node)
	walk(f.root(), func(n *sitter.Node) bool {
		if n.Type() == nodeClass {
			if name := f.declarationName(n); name != "" {
				if _, ok := types[name]; !ok {
					types[name] = n
				}
			}
		}
		return true
	})
	return types
}

// overridableMembers lists the members of super a subclass may override:
// every non-private member of an interface, open or abstract ones otherwise.
func (f *CompiledFile) overridableMembers(super *sitter.Node) []member {
	iface := hasKeyword(super, "interface")

	var out []member
	for _, decl := range members(classBody(super)) {
		if decl.Type() != nodeFunction && decl.Type() != nodeProperty {
			continue
		}
		mods := f.modifierSet(decl)
		if mods["private"] || mods["final"] {
			continue
		}
		if !iface && !mods["open"] && !mods["abstract"] && !mods["override"] {
			continue
		}

		name := f.declarationName(decl)
		if name == "" {
			continue
		}
		if decl.Type() == nodeFunction {
			out = append(out, member{name: name, stub: f.functionStub(decl, name)})
		} else {
			out = append(out, member{name: name, stub: f.propertyStub(decl, name)})
		}
	}
	return out
}

func (f *CompiledFile) functionStub(fn *sitter.Node, name string) string {
	var params []string
	if list := childOfType(fn, nodeParameters); list != nil {
		for _, p := range childrenOfType(list, nodeParameter) {
			params = append(params, collapseSpace(f.text(p)))
		}
	}

	var b strings.Builder
	b.WriteString("override fun ")
	b.WriteString(name)
	b.WriteString("(")
	b.WriteString(strings.Join(params, ", "))
	b.WriteString(")")
	if ret := f.returnType(fn); ret != "" && ret != "Unit" {
		b.WriteString(": ")
		b.WriteString(ret)
	}
	b.WriteString(" { }")
	return b.String()
}

func (f *CompiledFile) propertyStub(prop *sitter.Node, name string) string {
	typ := ""
	if v := childOfType(prop, nodeVariable); v != nil {
		typ = f.typeAfterColon(v, nil)
	}

	stub := "override val " + name
	if typ != "" && typ != "Unit" {
		stub += ": " + typ
	}
	return stub + ` = TODO("SET VALUE")`
}

// returnType is the declared return type of fn, or "" when omitted.
func (f *CompiledFile) returnType(fn *sitter.Node) string {
	params := childOfType(fn, nodeParameters)
	if params == nil {
		return ""
	}
	return f.typeAfterColon(fn, params)
}

// typeAfterColon returns the text of the first node following a ":" child of
// n, considering only children after the node after (if any).
func (f *CompiledFile) typeAfterColon(n, after *sitter.Node) string {
	started := after == nil
	colon := false
	for _, c := range children(n) {
		if !started {
			started = sameNode(c, after)
			continue
		}
		if colon {
			return collapseSpace(f.text(c))
		}
		switch c.Type() {
		case ":":
			colon = true
		case nodeFunctionBody, nodeTypeConstraints, "=":
			return ""
		}
	}
	return ""
}

// insertionPoint returns where new members go: after the last member of the
// class, or right after its opening brace. padding indents the new member.
// wrap is set when the class has no body and one must be created.
func (f *CompiledFile) insertionPoint(class *sitter.Node) (offset int, padding string, wrap bool) {
	body := classBody(class)
	if decls := members(body); len(decls) > 0 {
		last := decls[len(decls)-1]
		col := PositionAt(f.Content, int(last.StartByte())).Character
		return int(last.EndByte()), strings.Repeat(" ", int(col)), false
	}

	col := PositionAt(f.Content, int(class.StartByte())).Character
	padding = strings.Repeat(" ", int(col)+defaultTabSize)
	if body == nil {
		return int(class.EndByte()), padding, true
	}
	return int(body.StartByte()) + 1, padding, false
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}
