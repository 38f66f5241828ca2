package analysis

import "errors"

// ErrInvalidInput marks a malformed request; surfaced before any external
// call is made.
var ErrInvalidInput = errors.New("invalid analysis input")

// ErrRecognitionFailed marks an unreachable or unusable recognition vendor.
// It aborts the whole pipeline; nothing downstream can run without an
// identification.
var ErrRecognitionFailed = errors.New("plant recognition failed")
