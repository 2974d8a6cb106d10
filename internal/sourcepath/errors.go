package sourcepath

import "fmt"

// ErrDocumentNotTracked is returned for documents that are neither open in
// the editor nor part of a scanned workspace root.
var ErrDocumentNotTracked = fmt.Errorf("document not tracked")
