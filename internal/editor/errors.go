package editor

import (
	"fmt"
	"strings"
)

// ValidationError reports the required fields that were blank or not
// parseable as numbers. Nothing is uploaded or persisted when it occurs.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid fields: %s", strings.Join(e.Fields, ", "))
}

// UploadError wraps a failed image finalize. The editor keeps all of its
// state so the admin can retry the submission.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("image upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
