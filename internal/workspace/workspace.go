// Package workspace decides which configured workspace root owns a file.
package workspace

import (
	"path/filepath"
	"strings"
)

// SelectRoot returns the root in roots that contains filePath. Nested
// workspaces (a project and one of its modules) both contain the file, so the
// longest root wins; the first one listed wins a tie. Files outside every
// root resolve to "".
func SelectRoot(filePath string, roots []string) string {
	selected := ""
	for _, root := range roots {
		if root == "" || !HasPathPrefix(filePath, root) {
			continue
		}
		root = filepath.Clean(root)
		if len(root) > len(selected) {
			selected = root
		}
	}
	return selected
}

// HasPathPrefix reports whether prefix is path itself or one of its parent
// directories. Unlike strings.HasPrefix, /a/bc is not under /a/b.
func HasPathPrefix(path string, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if path == prefix {
		return true
	}
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
