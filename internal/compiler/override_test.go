package compiler_test

import (
	"strings"
	"testing"

	"kotlinls/internal/compiler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const overrideSource = `package demo

interface Greeter {
    fun greet(name: String): String
    val id: Int
}

open class Base {
    open fun close() {}
    fun fixed() {}
    protected open fun reset(force: Boolean, times: Int): Unit {}
}

class Impl : Base(), Greeter {
    override fun greet(name: String): String = "hi $name"
}
`

func titles(actions []protocol.CodeAction) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Title)
	}
	return out
}

func singleEdit(t *testing.T, file *compiler.CompiledFile, action protocol.CodeAction) protocol.TextEdit {
	t.Helper()
	require.NotNil(t, action.Edit)
	edits := action.Edit.Changes[protocol.DocumentUri(file.URI)]
	require.Len(t, edits, 1)
	return edits[0]
}

func TestListOverridableMembers(t *testing.T) {
	file := compile(t, "Impl.kt", overrideSource)

	offset, err := compiler.Offset(file.Content, 13, 7)
	require.NoError(t, err)

	actions := compiler.ListOverridableMembers(file, offset)
	assert.Equal(t, []string{
		"override fun close() { }",
		"override fun reset(force: Boolean, times: Int) { }",
		`override val id: Int = TODO("SET VALUE")`,
		"override fun equals(other: Any?): Boolean { }",
		"override fun hashCode(): Int { }",
		"override fun toString(): String { }",
	}, titles(actions))

	// New members go right after the last one, with the same indentation.
	lastMember := `"hi $name"`
	insertAt := strings.Index(file.Content, lastMember) + len(lastMember)
	want := compiler.PositionAt(file.Content, insertAt)

	for _, action := range actions {
		edit := singleEdit(t, file, action)
		assert.Equal(t, want, edit.Range.Start)
		assert.Equal(t, want, edit.Range.End)
		assert.Equal(t, "\n\n    "+action.Title, edit.NewText)
	}
}

func TestListOverridableMembersCursorInsideMember(t *testing.T) {
	file := compile(t, "Impl.kt", overrideSource)

	offset, err := compiler.Offset(file.Content, 14, 20)
	require.NoError(t, err)

	actions := compiler.ListOverridableMembers(file, offset)
	assert.Len(t, actions, 6)
}

func TestListOverridableMembersEmptyBody(t *testing.T) {
	content := "package demo\n\nclass Plain {\n}\n"
	file := compile(t, "Plain.kt", content)

	offset, err := compiler.Offset(content, 2, 7)
	require.NoError(t, err)

	actions := compiler.ListOverridableMembers(file, offset)
	require.Len(t, actions, 3)

	edit := singleEdit(t, file, actions[0])
	assert.Equal(t, protocol.Position{Line: 2, Character: 13}, edit.Range.Start)
	assert.Equal(t, "\n\n    override fun equals(other: Any?): Boolean { }", edit.NewText)
}

func TestListOverridableMembersNoBody(t *testing.T) {
	content := "interface Shape {\n    fun area(): Double\n}\n\nclass Square : Shape\n"
	file := compile(t, "Square.kt", content)

	offset, err := compiler.Offset(content, 4, 8)
	require.NoError(t, err)

	actions := compiler.ListOverridableMembers(file, offset)
	require.NotEmpty(t, actions)
	assert.Equal(t, "override fun area(): Double { }", actions[0].Title)

	edit := singleEdit(t, file, actions[0])
	assert.Equal(t, protocol.Position{Line: 4, Character: 20}, edit.Range.Start)
	assert.Equal(t, " {\n\n    override fun area(): Double { }\n}", edit.NewText)
}

func TestListOverridableMembersAlreadyOverridden(t *testing.T) {
	content := `class Value {
    override fun equals(other: Any?): Boolean = true
    override fun hashCode(): Int = 1
}
`
	file := compile(t, "Value.kt", content)

	actions := compiler.ListOverridableMembers(file, 2)
	assert.Equal(t, []string{"override fun toString(): String { }"}, titles(actions))
}

func TestListOverridableMembersOutsideClass(t *testing.T) {
	content := "package demo\n\nfun top() {}\n"
	file := compile(t, "Top.kt", content)

	actions := compiler.ListOverridableMembers(file, len(content)-2)
	assert.NotNil(t, actions)
	assert.Empty(t, actions)
}
