// Package content reads the text behind document URIs: plain files on disk
// and source entries inside jar archives.
package content

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"

	"kotlinls/internal/uri"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/klauspost/compress/zip"
)

// Source extensions tried, in order, when a .class entry is looked up in a
// -sources.jar.
var sourceExtensions = []string{".kt", ".java"}

type Provider struct {
	cache *ristretto.Cache[string, string]
}

// NewProvider creates a Provider caching archive entries up to maxCostBytes
// of text.
func NewProvider(maxCostBytes int64) (*Provider, error) {
	if maxCostBytes <= 0 {
		maxCostBytes = 1 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: max(maxCostBytes/100*10, 1000),
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create content cache: %w", err)
	}
	return &Provider{cache: c}, nil
}

// ContentOf returns the text addressed by u, or nil if there is none. Files
// are read from disk on every call; archive entries are cached.
func (p *Provider) ContentOf(u *url.URL) (*string, error) {
	switch u.Scheme {
	case "file":
		path, err := uri.ToPath(u)
		if err != nil {
			return nil, err
		}
		return readFile(path)
	case "kls", "jar":
		return p.archiveContent(u)
	}
	return nil, fmt.Errorf("%w: unsupported scheme %q", uri.ErrInvalidURI, u.Scheme)
}

func (p *Provider) Close() {
	p.cache.Close()
}

func readFile(path string) (*string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	text := string(data)
	return &text, nil
}

func (p *Provider) archiveContent(u *url.URL) (*string, error) {
	archive, entry, err := uri.SplitArchive(u)
	if err != nil {
		return nil, err
	}

	key := archive + "!" + entry
	if text, ok := p.cache.Get(key); ok {
		return &text, nil
	}

	text, found, err := readEntry(archive, entry)
	if err == nil && !found && strings.HasSuffix(entry, ".class") {
		text, found, err = readAttachedSource(archive, entry)
	}
	if err != nil || !found {
		return nil, err
	}

	p.cache.Set(key, text, int64(len(text)))
	return &text, nil
}

// readAttachedSource looks up the source of a compiled class in the
// -sources.jar next to its archive. Nested classes map to the source of
// their outermost class.
func readAttachedSource(archive, classEntry string) (string, bool, error) {
	sources := strings.TrimSuffix(archive, ".jar") + "-sources.jar"

	dir, file := path.Split(strings.TrimSuffix(classEntry, ".class"))
	if i := strings.IndexByte(file, '$'); i > 0 {
		file = file[:i]
	}

	for _, ext := range sourceExtensions {
		text, found, err := readEntry(sources, dir+file+ext)
		if err != nil || found {
			return text, found, err
		}
	}
	return "", false, nil
}

// readEntry reads one entry of a zip archive. A missing archive or entry is
// not an error.
func readEntry(archive, entry string) (string, bool, error) {
	r, err := zip.OpenReader(archive)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to open archive %s: %w", archive, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != entry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", false, fmt.Errorf("failed to open %s in %s: %w", entry, archive, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return "", false, fmt.Errorf("failed to read %s in %s: %w", entry, archive, err)
		}
		return string(data), true, nil
	}
	return "", false, nil
}
