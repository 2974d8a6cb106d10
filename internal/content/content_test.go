package content_test

import (
	"os"
	"path/filepath"
	"testing"

	"kotlinls/internal/content"
	"kotlinls/internal/uri"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJar(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, body := range entries {
		e, err := w.Create(name)
		require.NoError(t, err)
		_, err = e.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func newProvider(t *testing.T) *content.Provider {
	t.Helper()
	p, err := content.NewProvider(1 << 20)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestContentOf(t *testing.T) {
	dir := t.TempDir()

	source := filepath.Join(dir, "Main.kt")
	require.NoError(t, os.WriteFile(source, []byte("fun main() {}"), 0644))

	jar := filepath.Join(dir, "lib.jar")
	writeJar(t, jar, map[string]string{
		"com/example/Foo.kt":    "class Foo",
		"com/example/Foo.class": "\xca\xfe\xba\xbe",
		"com/example/Bar.class": "\xca\xfe\xba\xbe",
	})
	writeJar(t, filepath.Join(dir, "lib-sources.jar"), map[string]string{
		"com/example/Bar.java": "public class Bar {}",
		"com/example/Baz.kt":   "class Baz { class Inner }",
	})

	jarURI := "file://" + filepath.ToSlash(jar)

	tests := []struct {
		name string
		raw  string
		want *string
	}{
		{name: "file on disk", raw: uri.FromPath(source), want: ptr("fun main() {}")},
		{name: "missing file", raw: uri.FromPath(filepath.Join(dir, "Nope.kt")), want: nil},
		{name: "archive source entry", raw: "kls:" + jarURI + "!/com/example/Foo.kt", want: ptr("class Foo")},
		{name: "jar scheme", raw: "jar:" + jarURI + "!/com/example/Foo.kt", want: ptr("class Foo")},
		{name: "class entry prefers archive", raw: "kls:" + jarURI + "!/com/example/Foo.class", want: ptr("\xca\xfe\xba\xbe")},
		{name: "missing class falls back to sources jar", raw: "kls:" + jarURI + "!/com/example/Baz$Inner.class", want: ptr("class Baz { class Inner }")},
		{name: "missing entry", raw: "kls:" + jarURI + "!/com/example/Missing.kt", want: nil},
		{name: "missing archive", raw: "kls:file:///definitely/not/here.jar!/A.kt", want: nil},
	}

	p := newProvider(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := uri.Parse(tt.raw)
			require.NoError(t, err)

			got, err := p.ContentOf(u)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)

			// A second lookup returns the same text, cached or not.
			again, err := p.ContentOf(u)
			require.NoError(t, err)
			require.NotNil(t, again)
			assert.Equal(t, *tt.want, *again)
		})
	}
}

func TestContentOfInvalidArchiveURI(t *testing.T) {
	p := newProvider(t)

	u, err := uri.Parse("kls:file:///lib.jar")
	require.NoError(t, err)

	_, err = p.ContentOf(u)
	assert.ErrorIs(t, err, uri.ErrInvalidURI)
}

func ptr(s string) *string {
	return &s
}
