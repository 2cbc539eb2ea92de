// Package persistence defines the storage contract shared by the state
// store implementations.
package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicateMessage is returned when a webhook message id was already
	// registered, signalling a redelivery that must not be processed again.
	ErrDuplicateMessage = errors.New("persistence: message already processed")
)
