package sections

// Editor implements append/update/remove for one entry type.
// The same editor is used for every section holding that type.
type Editor[T Entry[T]] struct {
	newEntry func() T
	newID    func() string
}

// NewEditor returns an editor whose Append uses newEntry for the default value.
func NewEditor[T Entry[T]](newEntry func() T) *Editor[T] {
	return &Editor[T]{newEntry: newEntry, newID: NewID}
}

// WithIDGenerator returns a copy of the editor that draws local IDs from fn.
func (e *Editor[T]) WithIDGenerator(fn func() string) *Editor[T] {
	cp := *e
	cp.newID = fn
	return &cp
}

// Append returns s with one default entry added at the end.
// Existing items are carried over as the same pointers.
func (e *Editor[T]) Append(s Section[T]) (Section[T], *Item[T]) {
	item := &Item[T]{id: e.newID(), value: e.newEntry()}
	items := make([]*Item[T], len(s.items), len(s.items)+1)
	copy(items, s.items)
	items = append(items, item)
	return Section[T]{items: items}, item
}

// UpdateField returns s with field of the entry identified by id set to value.
// Only that entry is replaced; every other item is the same pointer as before.
func (e *Editor[T]) UpdateField(s Section[T], id, field string, value any) (Section[T], error) {
	i := s.IndexOf(id)
	if i < 0 {
		return s, ErrEntryNotFound
	}
	return e.replaceAt(s, i, field, value)
}

// UpdateFieldAt is UpdateField addressed by display position.
func (e *Editor[T]) UpdateFieldAt(s Section[T], index int, field string, value any) (Section[T], error) {
	if index < 0 || index >= len(s.items) {
		return s, &IndexOutOfRangeError{Index: index, Length: len(s.items)}
	}
	return e.replaceAt(s, index, field, value)
}

func (e *Editor[T]) replaceAt(s Section[T], i int, field string, value any) (Section[T], error) {
	old := s.items[i]
	updated, err := old.value.WithField(field, value)
	if err != nil {
		return s, err
	}

	items := make([]*Item[T], len(s.items))
	copy(items, s.items)
	items[i] = &Item[T]{id: old.id, value: updated}
	return Section[T]{items: items}, nil
}

// Remove returns s without the entry identified by id. Later entries shift
// down by one and keep their relative order.
func (e *Editor[T]) Remove(s Section[T], id string) (Section[T], error) {
	i := s.IndexOf(id)
	if i < 0 {
		return s, ErrEntryNotFound
	}
	return removeAt(s, i), nil
}

// RemoveAt is Remove addressed by display position.
func (e *Editor[T]) RemoveAt(s Section[T], index int) (Section[T], error) {
	if index < 0 || index >= len(s.items) {
		return s, &IndexOutOfRangeError{Index: index, Length: len(s.items)}
	}
	return removeAt(s, index), nil
}

func removeAt[T any](s Section[T], i int) Section[T] {
	items := make([]*Item[T], 0, len(s.items)-1)
	items = append(items, s.items[:i]...)
	items = append(items, s.items[i+1:]...)
	return Section[T]{items: items}
}
