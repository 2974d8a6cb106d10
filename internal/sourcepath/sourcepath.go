// Package sourcepath tracks the Kotlin sources of the workspace: documents
// open in the editor and files found under the workspace roots. It hands out
// compiled snapshots of their current versions.
package sourcepath

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"kotlinls/internal/compiler"
	"kotlinls/internal/database"
	"kotlinls/internal/scanner"
	"kotlinls/internal/uri"
	"kotlinls/internal/workspace"
)

// Indexer receives the declarations of every compiled workspace file.
type Indexer interface {
	UpsertSymbols(uri string, symbols []database.SymbolRecord) error
	DeleteSymbols(uri string) error
}

type sourceFile struct {
	uri      *url.URL
	content  string
	version  int32
	open     bool // open in the editor
	onDisk   bool // found by a workspace scan
	compiled *compiler.CompiledFile
}

type SourcePath struct {
	mu         sync.Mutex
	files      map[string]*sourceFile
	compiler   *compiler.Compiler
	index      Indexer
	extensions []string
	workers    int
}

// New creates a SourcePath tracking files with the given extensions and
// scanning roots with up to workers goroutines.
func New(c *compiler.Compiler, extensions []string, workers int) *SourcePath {
	return &SourcePath{
		files:      make(map[string]*sourceFile),
		compiler:   c,
		extensions: slices.Clone(extensions),
		workers:    workers,
	}
}

// SetIndex makes every later compilation update idx. A nil idx disables
// indexing.
func (sp *SourcePath) SetIndex(idx Indexer) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.index = idx
}

// IsSource reports whether path has one of the tracked extensions.
func (sp *SourcePath) IsSource(path string) bool {
	for _, ext := range sp.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Open starts tracking an editor document. It replaces any version read from
// disk until the document is closed.
func (sp *SourcePath) Open(u *url.URL, content string, version int32) {
	key := uri.Key(u)

	sp.mu.Lock()
	defer sp.mu.Unlock()

	f, ok := sp.files[key]
	if !ok {
		f = &sourceFile{}
		sp.files[key] = f
	}
	f.uri = u
	f.content = content
	f.version = version
	f.open = true
	f.compiled = nil
}

// Edit applies didChange content changes in order and moves the document to
// version.
func (sp *SourcePath) Edit(u *url.URL, version int32, changes []any) error {
	key := uri.Key(u)

	sp.mu.Lock()
	defer sp.mu.Unlock()

	f, ok := sp.files[key]
	if !ok || !f.open {
		return fmt.Errorf("%w: %s", ErrDocumentNotTracked, key)
	}
	for _, change := range changes {
		f.content = applyChange(f.content, change)
	}
	f.version = version
	f.compiled = nil
	return nil
}

// Close stops tracking an editor document. Files belonging to a scanned root
// fall back to their contents on disk.
func (sp *SourcePath) Close(u *url.URL) {
	key := uri.Key(u)

	sp.mu.Lock()
	f, ok := sp.files[key]
	if !ok {
		sp.mu.Unlock()
		return
	}
	f.open = false
	onDisk := f.onDisk
	sp.mu.Unlock()

	if onDisk {
		if path, err := uri.ToPath(u); err == nil {
			if data, err := os.ReadFile(path); err == nil {
				sp.Put(u, string(data))
				return
			}
		}
	}
	sp.Delete(u)
}

// Put records the on-disk contents of a workspace file. Open documents keep
// their editor contents.
func (sp *SourcePath) Put(u *url.URL, content string) {
	key := uri.Key(u)

	sp.mu.Lock()
	defer sp.mu.Unlock()

	f, ok := sp.files[key]
	if !ok {
		sp.files[key] = &sourceFile{uri: u, content: content, onDisk: true}
		return
	}
	f.onDisk = true
	if f.open || f.content == content {
		return
	}
	f.content = content
	f.version++
	f.compiled = nil
}

// Delete forgets a file and drops its indexed symbols.
func (sp *SourcePath) Delete(u *url.URL) {
	key := uri.Key(u)

	sp.mu.Lock()
	delete(sp.files, key)
	idx := sp.index
	sp.mu.Unlock()

	if idx != nil {
		if err := idx.DeleteSymbols(key); err != nil {
			log.Printf("sourcepath: failed to drop symbols of %s: %v", key, err)
		}
	}
}

// ScanRoot tracks every source file under root and returns how many were
// found. With an index set, each file is compiled and indexed right away.
// The scan stops early when ctx is cancelled.
func (sp *SourcePath) ScanRoot(ctx context.Context, root string) int {
	sp.mu.Lock()
	indexing := sp.index != nil
	sp.mu.Unlock()

	match := func(path string, info fs.FileInfo) bool {
		return sp.IsSource(path)
	}
	return scanner.Scan(ctx, root, sp.workers, match, func(path string, document []byte) {
		u, err := url.Parse(uri.FromPath(path))
		if err != nil {
			log.Printf("sourcepath: skipping %s: %v", path, err)
			return
		}
		sp.Put(u, string(document))
		if indexing {
			if _, err := sp.CurrentVersion(u); err != nil {
				log.Printf("sourcepath: failed to compile %s: %v", path, err)
			}
		}
	})
}

// RemoveRoot forgets the files found under root that are not open.
func (sp *SourcePath) RemoveRoot(root string) {
	root = filepath.Clean(root)

	var removed []*url.URL
	sp.mu.Lock()
	for _, f := range sp.files {
		if f.open || !f.onDisk {
			continue
		}
		path, err := uri.ToPath(f.uri)
		if err == nil && workspace.HasPathPrefix(path, root) {
			removed = append(removed, f.uri)
		}
	}
	sp.mu.Unlock()

	for _, u := range removed {
		sp.Delete(u)
	}
}

// Len returns the number of tracked files.
func (sp *SourcePath) Len() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return len(sp.files)
}

// CurrentVersion returns a compiled snapshot of the current contents of u,
// compiling it first if the contents changed since the last call.
func (sp *SourcePath) CurrentVersion(u *url.URL) (*compiler.CompiledFile, error) {
	key := uri.Key(u)

	sp.mu.Lock()
	f, ok := sp.files[key]
	if !ok {
		sp.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotTracked, key)
	}
	if f.compiled != nil {
		compiled := f.compiled
		sp.mu.Unlock()
		return compiled, nil
	}
	source, content, version := f.uri, f.content, f.version
	sp.mu.Unlock()

	// Compile outside the lock; a concurrent edit simply makes this
	// snapshot stale.
	compiled, err := sp.compiler.Compile(context.Background(), source, content, version)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", key, err)
	}

	sp.mu.Lock()
	stored := false
	if cur, ok := sp.files[key]; ok && cur.compiled == nil && cur.version == version && cur.content == content {
		cur.compiled = compiled
		stored = true
	}
	idx := sp.index
	sp.mu.Unlock()

	if stored && idx != nil {
		sp.indexFile(idx, key, compiled)
	}
	return compiled, nil
}

// Reindex sends the declarations of every compiled snapshot to the index
// again, for instance after the index was wiped. It returns how many files
// were indexed. Files not compiled yet are indexed on their next compile.
func (sp *SourcePath) Reindex() int {
	type entry struct {
		key  string
		file *compiler.CompiledFile
	}

	sp.mu.Lock()
	idx := sp.index
	var compiled []entry
	if idx != nil {
		for key, f := range sp.files {
			if f.compiled != nil {
				compiled = append(compiled, entry{key, f.compiled})
			}
		}
	}
	sp.mu.Unlock()

	for _, e := range compiled {
		sp.indexFile(idx, e.key, e.file)
	}
	return len(compiled)
}

func (sp *SourcePath) indexFile(idx Indexer, key string, file *compiler.CompiledFile) {
	decls := compiler.Declarations(file)
	records := make([]database.SymbolRecord, 0, len(decls))
	for _, d := range decls {
		records = append(records, database.SymbolRecord{
			FqName:    d.FqName,
			ShortName: d.Name,
			Kind:      d.Kind,
			URI:       key,
			StartLine: uint32(d.Range.Start.Line),
			StartChar: uint32(d.Range.Start.Character),
			EndLine:   uint32(d.Range.End.Line),
			EndChar:   uint32(d.Range.End.Character),
		})
	}
	if err := idx.UpsertSymbols(key, records); err != nil {
		log.Printf("sourcepath: failed to index %s: %v", key, err)
	}
}
