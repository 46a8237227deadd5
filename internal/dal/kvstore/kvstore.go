// Package kvstore holds what the local key-value backends have in common.
package kvstore

import "errors"

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("key not found")
