package resolver

import (
	"errors"
	"fmt"
)

// ErrNotFound means no entry matched a request segment case-insensitively,
// or the path resolved to something other than a regular file.
var ErrNotFound = errors.New("no matching file")

// InvalidPathError means the request path itself is malformed: an empty,
// "." or ".." segment, or a segment carrying a path separator after
// percent-decoding. It maps to a client error, never to a lookup failure.
type InvalidPathError struct {
	Segment string
	Reason  string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path segment %q: %s", e.Segment, e.Reason)
}

func (e *InvalidPathError) Is(target error) bool {
	// nolint: errorlint // implementing type equality for errors.Is
	_, ok := target.(*InvalidPathError)
	return ok
}

// IsInvalidPath reports whether err is an InvalidPathError.
func IsInvalidPath(err error) bool {
	var invalid *InvalidPathError
	return errors.As(err, &invalid)
}
