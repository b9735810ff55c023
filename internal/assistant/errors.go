package assistant

import "errors"

// Caller errors: the request was structurally invalid and no retrieval or
// generation work happened.
var (
	ErrEmptyQuestion = errors.New("question must not be empty")
	ErrEmptyTopic    = errors.New("topic must not be empty")
)
