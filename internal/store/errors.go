package store

import "errors"

// ErrNotFound is returned by FetchByID for unknown topic ids.
var ErrNotFound = errors.New("not found")
