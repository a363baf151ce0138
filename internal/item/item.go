// internal/item/item.go
package item

import (
	"github.com/newthinker/recstore/internal/core"
	"github.com/newthinker/recstore/internal/id"
)

// Item is a versioned record that a storage can persist.
type Item interface {
	// Version identifies the tuple schema. It is constant per concrete type.
	Version() int

	// AsTuple flattens the item. The result must be accepted by the
	// matching Class.FromTuple.
	AsTuple() core.Tuple
}

// Class describes a concrete item type: its schema version and how to
// rebuild an item from a tuple of that version.
type Class[T Item] interface {
	Version() int

	// FromTuple reconstructs an item. Tuples of another version are not
	// supported; callers gate on Version first. A tuple of the wrong shape
	// yields an error wrapping core.ErrMalformedData.
	FromTuple(t core.Tuple) (T, error)
}

// Keyed is implemented by items that carry their own unique id.
type Keyed interface {
	UniqueID() string
}

// NewUniqueID returns a random item id.
func NewUniqueID() string {
	return id.NewUniqueID()
}

// UniqueIDFromString returns a deterministic item id for s.
func UniqueIDFromString(s string) string {
	return id.UniqueIDFromString(s)
}
