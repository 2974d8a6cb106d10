package compiler

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
)

var jvmNamePattern = regexp.MustCompile(`JvmName\s*\(\s*"([^"]+)"\s*\)`)

// ResolveMain finds the program entry point declared in file. A top-level
// main function resolves to the file's facade class, a @JvmStatic main in a
// companion object to the enclosing class. The result holds "mainClass" and
// "range", or is empty when the file declares no entry point.
func ResolveMain(file *CompiledFile) map[string]any {
	file.mu.Lock()
	defer file.mu.Unlock()

	pkg := file.packageName()
	decls := namedChildren(file.root())

	for _, decl := range decls {
		if decl.Type() == nodeFunction && file.declarationName(decl) == "main" {
			return map[string]any{
				"mainClass": qualify(pkg, file.facadeClassName()),
				"range":     rangeOf(file.Content, decl),
			}
		}
	}

	for _, decl := range decls {
		if decl.Type() != nodeClass {
			continue
		}
		if fn := file.companionMain(decl); fn != nil {
			return map[string]any{
				"mainClass": qualify(pkg, file.declarationName(decl)),
				"range":     rangeOf(file.Content, fn),
			}
		}
	}

	return map[string]any{}
}

func (f *CompiledFile) companionMain(class *sitter.Node) *sitter.Node {
	for _, m := range members(classBody(class)) {
		if m.Type() != nodeCompanion {
			continue
		}
		for _, fn := range members(classBody(m)) {
			if fn.Type() == nodeFunction &&
				f.declarationName(fn) == "main" &&
				f.modifierSet(fn)["@JvmStatic"] {
				return fn
			}
		}
	}
	return nil
}

// facadeClassName is the JVM class holding the file's top-level functions:
// Main.kt compiles to MainKt unless the file is annotated with @file:JvmName.
func (f *CompiledFile) facadeClassName() string {
	for _, a := range childrenOfType(f.root(), nodeFileAnnotation) {
		if m := jvmNamePattern.FindStringSubmatch(f.text(a)); m != nil {
			return m[1]
		}
	}

	name := strings.TrimSuffix(f.Name, path.Ext(f.Name))
	if name == "" {
		return "_Kt"
	}

	var b strings.Builder
	for i, r := range name {
		switch {
		case i == 0 && !isJavaIdentifierStart(r):
			b.WriteRune('_')
			if isJavaIdentifierPart(r) {
				b.WriteRune(r)
			}
		case isJavaIdentifierPart(r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	sanitized := []rune(b.String())
	if sanitized[0] < unicode.MaxASCII {
		sanitized[0] = unicode.ToUpper(sanitized[0])
	}
	return string(sanitized) + "Kt"
}

func isJavaIdentifierStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isJavaIdentifierPart(r rune) bool {
	return isJavaIdentifierStart(r) || unicode.IsDigit(r)
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
