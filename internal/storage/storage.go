// Package storage defines the contract shared by all item storages: an
// in-memory collection of versioned items, persisted when the owning plugin
// is cleaned up.
package storage

import (
	"context"
	"iter"
	"regexp"
	"strings"
	"unicode"

	"github.com/newthinker/recstore/internal/item"
)

// CleanupEvent is fired by the host when a plugin is torn down.
const CleanupEvent = "cleanup"

// Hook is invoked when a host event fires.
type Hook func(ctx context.Context) error

// Observable is the host side of a plugin: it accepts subscriptions to named
// events.
type Observable interface {
	AddObserver(event string, hook Hook)
}

// Saver persists a collection to its backing store.
type Saver interface {
	// SaveToDisk writes the current items. Calling it again with unchanged
	// items produces the same on-disk state.
	SaveToDisk(ctx context.Context) error
}

// Storage is a mutable collection of items with a persistence strategy.
type Storage[T item.Item] interface {
	Saver

	// Add inserts an item. A following iteration observes it.
	Add(it T)

	// Delete removes an item. A following iteration does not observe it.
	// Removing an absent item is a no-op.
	Delete(it T)

	// Items returns a snapshot of the collection in iteration order.
	Items() []T

	// All iterates the collection; equivalent to ranging over Items.
	All() iter.Seq[T]

	// LoadFromDisk repopulates the collection from the backing store. It is
	// never called by constructors; owners decide when to load.
	LoadFromDisk(ctx context.Context) error
}

// Attach subscribes s to the cleanup event of plugin, so that every fired
// cleanup saves s exactly once. There is no way to detach; the subscription
// lives as long as the plugin.
func Attach(plugin Observable, s Saver) {
	plugin.AddObserver(CleanupEvent, func(ctx context.Context) error {
		return s.SaveToDisk(ctx)
	})
}

var invalidFilenameChars = regexp.MustCompile(`[^-_a-zA-Z0-9.]`)

// GetValidFilename converts name into a string safe to use as a file name:
// surrounding whitespace is removed, inner whitespace becomes underscores and
// anything that is not alphanumeric, dash, underscore or dot is dropped.
//
//	GetValidFilename("john's portrait in 2004.jpg") == "johns_portrait_in_2004.jpg"
func GetValidFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, name)
	return invalidFilenameChars.ReplaceAllString(name, "")
}
