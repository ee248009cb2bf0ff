// Package store holds the in-memory entity collections behind the dashboard
// views, the derived filter over them and the id-only selection.
package store

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Schema describes how a collection identifies and validates its records.
type Schema[K comparable, T any] struct {
	// Kind names the collection in errors and mutation reports.
	Kind string
	// ID reads the identifier of a record.
	ID func(T) K
	// WithID returns the record carrying id.
	WithID func(T, K) T
	// Next produces a fresh identifier. Identifiers are never reused.
	Next func() K
	// Validate rejects malformed records. Optional.
	Validate func(T) error
	// Append inserts new records at the back instead of the front.
	Append bool
	// Observe is told about every applied mutation ("create", "update",
	// "replace", "delete"). Optional.
	Observe func(kind, op string)
	// Discard removes a persisted record whose store-assigned id turned out
	// to be taken. Optional.
	Discard func(K) error
}

// UUIDs is an id source of random v4 uuids.
func UUIDs() func() string {
	return func() string { return uuid.NewString() }
}

// Counter is a monotonic id source starting after start.
func Counter(start int64) func() int64 {
	var n atomic.Int64
	n.Store(start)
	return func() int64 { return n.Add(1) }
}

// Collection is an ordered set of records with unique ids. Every mutation
// happens under one lock and is applied whole or not at all.
type Collection[K comparable, T any] struct {
	schema Schema[K, T]

	mu    sync.RWMutex
	items []T
}

func New[K comparable, T any](schema Schema[K, T]) *Collection[K, T] {
	return &Collection[K, T]{schema: schema}
}

// Load replaces the contents with items in the given order. Records with a
// zero id get a fresh one.
func (c *Collection[K, T]) Load(items []T) error {
	var zero K
	loaded := make([]T, 0, len(items))
	seen := make(map[K]struct{}, len(items))
	for _, item := range items {
		if c.schema.ID(item) == zero {
			item = c.schema.WithID(item, c.schema.Next())
		}
		if err := c.validate(item); err != nil {
			return err
		}
		id := c.schema.ID(item)
		if _, dup := seen[id]; dup {
			return fmt.Errorf("load %s %v: %w", c.schema.Kind, id, ErrDuplicate)
		}
		seen[id] = struct{}{}
		loaded = append(loaded, item)
	}

	c.mu.Lock()
	c.items = loaded
	c.mu.Unlock()
	return nil
}

// Create assigns a fresh id to draft, validates it and inserts it.
func (c *Collection[K, T]) Create(draft T) (T, error) {
	return c.CreateWith(draft, nil)
}

// CreateWith is Create with a persistence step that runs before the record
// becomes visible. persist may return the record with a store-assigned id. A
// persist error or an id conflict leaves both the collection and the store
// unchanged.
func (c *Collection[K, T]) CreateWith(draft T, persist func(T) (T, error)) (T, error) {
	var zero T
	item := c.schema.WithID(draft, c.schema.Next())
	if err := c.validate(item); err != nil {
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexLocked(c.schema.ID(item)) >= 0 {
		return zero, fmt.Errorf("create %s %v: %w", c.schema.Kind, c.schema.ID(item), ErrDuplicate)
	}
	if persist != nil {
		stored, err := persist(item)
		if err != nil {
			return zero, fmt.Errorf("persist %s: %w", c.schema.Kind, err)
		}
		item = stored
	}
	if id := c.schema.ID(item); c.indexLocked(id) >= 0 {
		err := fmt.Errorf("create %s %v: %w", c.schema.Kind, id, ErrDuplicate)
		if c.schema.Discard != nil {
			if derr := c.schema.Discard(id); derr != nil {
				err = fmt.Errorf("%w (discard: %v)", err, derr)
			}
		}
		return zero, err
	}

	if c.schema.Append {
		c.items = append(c.items, item)
	} else {
		c.items = append([]T{item}, c.items...)
	}
	c.observe("create")
	return item, nil
}

// Update applies patch to a copy of the record, re-validates it and stores it
// in place. The id cannot be changed by the patch.
func (c *Collection[K, T]) Update(id K, patch func(*T)) (T, error) {
	return c.UpdateWith(id, patch, nil)
}

// UpdateWith is Update with a persistence step run before the change is applied.
func (c *Collection[K, T]) UpdateWith(id K, patch func(*T), persist func(T) error) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	idx := c.indexLocked(id)
	if idx < 0 {
		return zero, fmt.Errorf("update %s %v: %w", c.schema.Kind, id, ErrNotFound)
	}
	item := c.items[idx]
	patch(&item)
	item = c.schema.WithID(item, id)
	if err := c.validate(item); err != nil {
		return zero, err
	}
	if persist != nil {
		if err := persist(item); err != nil {
			return zero, fmt.Errorf("persist %s: %w", c.schema.Kind, err)
		}
	}
	c.items[idx] = item
	c.observe("update")
	return item, nil
}

// Replace swaps the whole record stored under id, keeping id.
func (c *Collection[K, T]) Replace(id K, next T) (T, error) {
	next = c.schema.WithID(next, id)
	if err := c.validate(next); err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(id)
	if idx < 0 {
		var zero T
		return zero, fmt.Errorf("replace %s %v: %w", c.schema.Kind, id, ErrNotFound)
	}
	c.items[idx] = next
	c.observe("replace")
	return next, nil
}

// Delete removes the record with id. Deleting an unknown id is a no-op that
// reports false.
func (c *Collection[K, T]) Delete(id K) bool {
	removed, _ := c.DeleteWith(id, nil)
	return removed
}

// DeleteWith is Delete with a persistence step run before the record is removed.
func (c *Collection[K, T]) DeleteWith(id K, persist func(K) error) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(id)
	if idx < 0 {
		return false, nil
	}
	if persist != nil {
		if err := persist(id); err != nil {
			return false, fmt.Errorf("persist %s delete: %w", c.schema.Kind, err)
		}
	}
	c.items = append(c.items[:idx:idx], c.items[idx+1:]...)
	c.observe("delete")
	return true, nil
}

// All returns a copy of the records in collection order.
func (c *Collection[K, T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[K, T]) Get(id K) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx := c.indexLocked(id)
	if idx < 0 {
		var zero T
		return zero, false
	}
	return c.items[idx], true
}

func (c *Collection[K, T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Resolve re-reads the selected record. A selection whose record is gone is
// cleared and resolves to nothing.
func (c *Collection[K, T]) Resolve(sel *Selection[K]) (T, bool) {
	var zero T
	id, ok := sel.ID()
	if !ok {
		return zero, false
	}
	item, found := c.Get(id)
	if !found {
		sel.ClearIf(id)
		return zero, false
	}
	return item, true
}

func (c *Collection[K, T]) indexLocked(id K) int {
	for i, item := range c.items {
		if c.schema.ID(item) == id {
			return i
		}
	}
	return -1
}

func (c *Collection[K, T]) validate(item T) error {
	if c.schema.Validate == nil {
		return nil
	}
	if err := c.schema.Validate(item); err != nil {
		return fmt.Errorf("%s: %w: %v", c.schema.Kind, ErrValidation, err)
	}
	return nil
}

func (c *Collection[K, T]) observe(op string) {
	if c.schema.Observe != nil {
		c.schema.Observe(c.schema.Kind, op)
	}
}
