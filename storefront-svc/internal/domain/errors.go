package domain

import "errors"

// ErrStateNotFound is returned by state stores when a key holds no document.
var ErrStateNotFound = errors.New("state not found")
