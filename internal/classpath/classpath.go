// Package classpath holds the workspace roots and the build output
// location of the current session.
package classpath

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

type Service struct {
	mu         sync.RWMutex
	roots      []string
	outputDir  string
	ownsOutput bool
}

// New creates a Service writing build output to outputDir. An empty
// outputDir gets a fresh temporary directory that Close removes again.
func New(outputDir string) (*Service, error) {
	s := &Service{}
	if outputDir == "" {
		dir, err := os.MkdirTemp("", "klsBuildOutput")
		if err != nil {
			return nil, fmt.Errorf("failed to create build output directory: %w", err)
		}
		outputDir = dir
		s.ownsOutput = true
	}

	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve build output directory: %w", err)
	}
	s.outputDir = abs
	return s, nil
}

// OutputDirectory is the absolute path compiled classes are written to.
func (s *Service) OutputDirectory() string {
	return s.outputDir
}

// WorkspaceRoots returns a copy of the roots in the order they were added.
func (s *Service) WorkspaceRoots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.roots)
}

// AddWorkspaceRoot registers root and reports whether it was new.
func (s *Service) AddWorkspaceRoot(root string) bool {
	root, err := filepath.Abs(root)
	if err != nil {
		log.Printf("Ignoring workspace root %q: %v", root, err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.roots, root) {
		return false
	}
	log.Printf("Adding workspace root %s", root)
	s.roots = append(s.roots, root)
	return true
}

// RemoveWorkspaceRoot forgets root and reports whether it was registered.
func (s *Service) RemoveWorkspaceRoot(root string) bool {
	root, err := filepath.Abs(root)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.roots, root)
	if i < 0 {
		return false
	}
	log.Printf("Removing workspace root %s", root)
	s.roots = slices.Delete(s.roots, i, i+1)
	return true
}

func (s *Service) Close() error {
	if !s.ownsOutput {
		return nil
	}
	return os.RemoveAll(s.outputDir)
}
