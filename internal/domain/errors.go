package domain

import "errors"

// ErrNotFound is returned when a translation request lookup finds no record.
var ErrNotFound = errors.New("translation request not found")
