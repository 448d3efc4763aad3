package store

import "errors"

// ErrNotFound is returned when a row does not exist or is owned by a
// different user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("record not found")
