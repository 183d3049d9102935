package catalog

import (
	"errors"
	"strings"
)

// ErrImportFailed is returned by BulkImport when no row could be stored
var ErrImportFailed = errors.New("no books could be imported")

// ValidationError lists every constraint a book input violated
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid book: " + strings.Join(e.Messages, "; ")
}
