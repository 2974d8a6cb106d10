// Package uri turns the document identifiers sent by the client into URLs
// and file system paths.
package uri

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

var ErrInvalidURI = fmt.Errorf("invalid uri")

// Schemes understood by the server. "kls" and "jar" address entries inside
// archives, e.g. kls:file:///lib/foo.jar!/com/example/Foo.kt
var supportedSchemes = map[string]bool{
	"file": true,
	"kls":  true,
	"jar":  true,
}

// Parse decodes a client URI. Clients are inconsistent about percent
// encoding, so the string is decoded first and spaces re-escaped; if
// decoding fails the raw string is used.
func Parse(raw string) (*url.URL, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	decoded = strings.ReplaceAll(decoded, " ", "%20")

	u, err := url.Parse(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidURI, raw, err)
	}
	if !supportedSchemes[u.Scheme] {
		return nil, fmt.Errorf("%w: %q: unsupported scheme %q", ErrInvalidURI, raw, u.Scheme)
	}
	if u.Scheme == "file" && u.Path == "" {
		return nil, fmt.Errorf("%w: %q: missing path", ErrInvalidURI, raw)
	}
	if u.Scheme != "file" && u.Opaque == "" {
		return nil, fmt.Errorf("%w: %q: missing archive location", ErrInvalidURI, raw)
	}
	return u, nil
}

// ToPath returns the cleaned absolute path of a file URI.
func ToPath(u *url.URL) (string, error) {
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %s is not a file uri", ErrInvalidURI, u)
	}
	return filepath.Clean(filepath.FromSlash(u.Path)), nil
}

// FromPath converts an absolute file system path to a file URI.
func FromPath(path string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(filepath.Clean(path)),
	}
	return u.String()
}

// Key is the canonical string form used to look documents up.
func Key(u *url.URL) string {
	if u.Scheme == "file" {
		return FromPath(u.Path)
	}
	return u.String()
}

// SplitArchive splits a kls or jar URI into the archive path and the entry
// name inside it.
func SplitArchive(u *url.URL) (archive string, entry string, err error) {
	if u.Scheme != "kls" && u.Scheme != "jar" {
		return "", "", fmt.Errorf("%w: %s is not an archive uri", ErrInvalidURI, u)
	}

	location, inner, found := strings.Cut(u.Opaque, "!")
	if !found {
		return "", "", fmt.Errorf("%w: %s has no archive entry", ErrInvalidURI, u)
	}
	// The query part carries client-side hints (e.g. ?source=true).
	inner, _, _ = strings.Cut(inner, "?")

	archiveURL, err := url.Parse(location)
	if err != nil || archiveURL.Scheme != "file" || archiveURL.Path == "" {
		return "", "", fmt.Errorf("%w: %s has no file archive location", ErrInvalidURI, u)
	}

	entry = strings.TrimPrefix(inner, "/")
	if entry == "" {
		return "", "", fmt.Errorf("%w: %s has an empty archive entry", ErrInvalidURI, u)
	}
	return filepath.FromSlash(archiveURL.Path), entry, nil
}
