// Package repository keeps the objects served by the stub API server.
package repository

import (
	"context"
	"time"
)

// Object states.
const (
	StateOpen    = "open"
	StateClosing = "closing"
	StateClosed  = "closed"
)

// Object is a stored data object or container.
type Object struct {
	ID         string
	Class      string
	Project    string
	Name       string
	State      string
	Tags       []string
	Properties map[string]string
	Details    any
	Created    time.Time
	Modified   time.Time
}

// CreateInput holds the caller-settable fields of a new object.
type CreateInput struct {
	Project    string
	Name       string
	Tags       []string
	Properties map[string]string
	Details    any
}

// Filter selects objects in Find. Empty fields match everything.
type Filter struct {
	Class   string
	State   string
	Project string
}

// Store provides read/write access to objects. Returned objects are copies.
type Store interface {
	// Create stores a new object of class and returns it.
	Create(ctx context.Context, class string, in CreateInput) (Object, error)

	// Get returns the object with id or ErrNotFound.
	Get(ctx context.Context, id string) (Object, error)

	// Update applies fn to the stored object under its shard lock. When fn
	// returns an error nothing is changed.
	Update(ctx context.Context, id string, fn func(*Object) error) (Object, error)

	// Find returns matching objects ordered by ID.
	Find(ctx context.Context, f Filter) []Object

	// Count returns the number of stored objects.
	Count(ctx context.Context) int
}
