// Package sections provides the ordered, copy-on-write collections used for
// every repeated part of a resume (work history, education, skills, ...).
//
// A Section never changes after it is built. Editing operations return a new
// Section that reuses the *Item pointers of every untouched entry, so callers
// can detect changes with a pointer comparison.
package sections

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Entry is implemented by every value type stored in a Section.
// WithField returns a copy of the receiver with one field replaced.
type Entry[T any] interface {
	WithField(field string, value any) (T, error)
}

// Item is one entry of a section together with its local identifier.
// The identifier is assigned when the entry is created on the client and
// stays with the entry across reorders and removals of its neighbours.
type Item[T any] struct {
	id    string
	value T
}

// NewItem wraps a value with the given local ID. An empty id gets a fresh one.
func NewItem[T any](id string, value T) *Item[T] {
	if id == "" {
		id = NewID()
	}
	return &Item[T]{id: id, value: value}
}

// ID returns the local identifier of the entry.
func (it *Item[T]) ID() string { return it.id }

// Value returns the entry value.
func (it *Item[T]) Value() T { return it.value }

// NewID returns a creation-time-unique local identifier.
func NewID() string {
	return uuid.NewString()
}

// Section is an immutable ordered sequence of items.
// The zero value is an empty section.
type Section[T any] struct {
	items []*Item[T]
}

// Of builds a section from plain values, assigning each a fresh local ID.
func Of[T any](values ...T) Section[T] {
	items := make([]*Item[T], len(values))
	for i, v := range values {
		items[i] = NewItem("", v)
	}
	return Section[T]{items: items}
}

// Len returns the number of entries.
func (s Section[T]) Len() int { return len(s.items) }

// Items returns the entries in display order. The returned slice is a copy;
// the items themselves are shared.
func (s Section[T]) Items() []*Item[T] {
	cp := make([]*Item[T], len(s.items))
	copy(cp, s.items)
	return cp
}

// At returns the entry at position i.
func (s Section[T]) At(i int) (*Item[T], error) {
	if i < 0 || i >= len(s.items) {
		return nil, &IndexOutOfRangeError{Index: i, Length: len(s.items)}
	}
	return s.items[i], nil
}

// IndexOf returns the display position of the entry with the given ID, or -1.
func (s Section[T]) IndexOf(id string) int {
	for i, it := range s.items {
		if it.id == id {
			return i
		}
	}
	return -1
}

// Get returns the entry with the given ID.
func (s Section[T]) Get(id string) (*Item[T], error) {
	i := s.IndexOf(id)
	if i < 0 {
		return nil, ErrEntryNotFound
	}
	return s.items[i], nil
}

// Values returns the entry values in order. The result is never nil.
func (s Section[T]) Values() []T {
	values := make([]T, len(s.items))
	for i, it := range s.items {
		values[i] = it.value
	}
	return values
}

// MarshalJSON encodes the section as a plain array of values; local IDs are
// client-only and never leave the process this way.
func (s Section[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON decodes a plain array of values, assigning fresh local IDs.
func (s *Section[T]) UnmarshalJSON(data []byte) error {
	var values []T
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = Of(values...)
	return nil
}

// Stored is the on-disk form of an item, used where local IDs must survive
// a round trip (e.g. editing drafts).
type Stored[T any] struct {
	ID    string `json:"id"`
	Value T      `json:"value"`
}

// Export returns the section with its local IDs.
func (s Section[T]) Export() []Stored[T] {
	out := make([]Stored[T], len(s.items))
	for i, it := range s.items {
		out[i] = Stored[T]{ID: it.id, Value: it.value}
	}
	return out
}

// Import rebuilds a section from its exported form. Entries without an ID
// get a fresh one.
func Import[T any](stored []Stored[T]) Section[T] {
	items := make([]*Item[T], len(stored))
	for i, st := range stored {
		items[i] = NewItem(st.ID, st.Value)
	}
	return Section[T]{items: items}
}
