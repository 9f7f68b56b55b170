package pipeline

import "errors"

// Document-level failures returned to callers. Row- and table-level problems
// are absorbed into stats instead.
var (
	ErrHeaderNotFound   = errors.New("anchor header not found in any table")
	ErrExtractionFailed = errors.New("document extraction failed")
)
