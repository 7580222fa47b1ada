package documents

import "errors"

// ErrInvalidInput marks a request the client has to fix: an unusable
// userId or file name.
var ErrInvalidInput = errors.New("invalid input")
