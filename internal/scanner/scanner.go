// Package scanner walks workspace roots for source files.
package scanner

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// Build and tooling directories that never hold workspace sources.
var ignoredDirs = map[string]bool{
	"build":        true,
	"out":          true,
	"target":       true,
	"bin":          true,
	"node_modules": true,
}

// IgnoreDir reports whether the directory at path is skipped during a scan.
// Hidden directories (.git, .gradle, .idea, ...) are always skipped.
func IgnoreDir(path string) bool {
	base := filepath.Base(path)
	return (strings.HasPrefix(base, ".") && base != "." && base != "..") || ignoredDirs[base]
}

// Scan walks the subtree under root. Every regular file accepted by match is
// read on one of workers goroutines and handed to callback. Scan returns the
// number of files delivered once all callbacks have completed. Cancelling ctx
// ends the walk early; files not yet read are dropped.
func Scan(
	ctx context.Context,
	root string,
	workers int,
	match func(path string, info fs.FileInfo) bool,
	callback func(path string, document []byte),
) int {
	if workers < 1 {
		workers = 1
	}

	fileCh := make(chan string, 100)
	var wg sync.WaitGroup
	var delivered atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range fileCh {
				if ctx.Err() != nil {
					continue
				}
				data, err := os.ReadFile(path)
				if err != nil {
					log.Println("scanner: read error:", path, err)
					continue
				}
				callback(path, data)
				delivered.Add(1)
			}
		}()
	}

	log.Printf("scanner: starting WalkDir at %q", root)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			log.Println("scanner: walk error:", err)
			return nil
		}

		if d.IsDir() {
			if path != root && IgnoreDir(path) {
				return fs.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !match(path, info) {
			return nil
		}

		select {
		case fileCh <- path:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		log.Println("scanner: WalkDir finished with error:", err)
	}

	close(fileCh)
	wg.Wait()
	return int(delivered.Load())
}
