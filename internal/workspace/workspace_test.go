package workspace_test

import (
	"testing"

	"kotlinls/internal/workspace"
)

func TestSelectRoot(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		roots    []string
		expected string
	}{
		{
			name:     "innermost root wins",
			file:     "/a/b/c.kt",
			roots:    []string{"/a", "/a/b"},
			expected: "/a/b",
		},
		{
			name:     "order does not matter",
			file:     "/a/b/c.kt",
			roots:    []string{"/a/b", "/a"},
			expected: "/a/b",
		},
		{
			name:     "no root matches",
			file:     "/y/c.kt",
			roots:    []string{"/x"},
			expected: "",
		},
		{
			name:     "no roots at all",
			file:     "/y/c.kt",
			roots:    nil,
			expected: "",
		},
		{
			name:     "sibling with common string prefix",
			file:     "/a/bc/d.kt",
			roots:    []string{"/a/b"},
			expected: "",
		},
		{
			name:     "trailing separator on root",
			file:     "/a/b/c.kt",
			roots:    []string{"/a/"},
			expected: "/a",
		},
		{
			name:     "filesystem root",
			file:     "/a/b/c.kt",
			roots:    []string{"/"},
			expected: "/",
		},
		{
			name:     "equal length tie keeps the first",
			file:     "/a/b/c.kt",
			roots:    []string{"/a/b", "/a/b/"},
			expected: "/a/b",
		},
		{
			name:     "empty roots are ignored",
			file:     "/a/b/c.kt",
			roots:    []string{"", "/a"},
			expected: "/a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := workspace.SelectRoot(tt.file, tt.roots); got != tt.expected {
				t.Errorf("SelectRoot(%q, %v) = %q, want %q", tt.file, tt.roots, got, tt.expected)
			}
		})
	}
}

func TestHasPathPrefix(t *testing.T) {
	tests := []struct {
		path   string
		prefix string
		want   bool
	}{
		{"/a/b/c.kt", "/a", true},
		{"/a/b/c.kt", "/a/b/c.kt", true},
		{"/a/b", "/a/b/", true},
		{"/a/bc", "/a/b", false},
		{"/a", "/a/b", false},
	}

	for _, tt := range tests {
		if got := workspace.HasPathPrefix(tt.path, tt.prefix); got != tt.want {
			t.Errorf("HasPathPrefix(%q, %q) = %v, want %v", tt.path, tt.prefix, got, tt.want)
		}
	}
}
