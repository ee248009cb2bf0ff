// Package view models what a dashboard page is showing: the plain list, a
// record in the detail panel, or one of the add/edit forms.
package view

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrInvalidTransition is returned for a mode change the page cannot make,
// such as editing while an add form is open.
var ErrInvalidTransition = errors.New("invalid view transition")

type Mode int

const (
	Browsing Mode = iota
	Inspecting
	Adding
	Editing
)

func (m Mode) String() string {
	switch m {
	case Browsing:
		return "browse"
	case Inspecting:
		return "inspect"
	case Adding:
		return "add"
	case Editing:
		return "edit"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// State is the view state of one page. Inspecting and Editing carry the id
// of their record; Browsing and Adding carry none.
type State[K comparable] struct {
	mode Mode
	id   K
}

func Browse[K comparable]() State[K] { return State[K]{} }

func (s State[K]) Mode() Mode { return s.mode }

// Selected returns the id shown in the detail panel or edit form.
func (s State[K]) Selected() (K, bool) {
	return s.id, s.mode == Inspecting || s.mode == Editing
}

// Inspect opens the detail panel for id, replacing any previous selection.
func (s State[K]) Inspect(id K) (State[K], error) {
	switch s.mode {
	case Browsing, Inspecting:
		return State[K]{mode: Inspecting, id: id}, nil
	}
	return s, fmt.Errorf("%w: inspect while %s", ErrInvalidTransition, s.mode)
}

// Add opens the add form. The detail panel closes.
func (s State[K]) Add() (State[K], error) {
	switch s.mode {
	case Browsing, Inspecting:
		return State[K]{mode: Adding}, nil
	}
	return s, fmt.Errorf("%w: add while %s", ErrInvalidTransition, s.mode)
}

// Edit opens the edit form for the record currently inspected.
func (s State[K]) Edit() (State[K], error) {
	if s.mode != Inspecting {
		return s, fmt.Errorf("%w: edit while %s", ErrInvalidTransition, s.mode)
	}
	return State[K]{mode: Editing, id: s.id}, nil
}

// Close leaves a form or the detail panel. Closing an edit form returns to
// the inspected record.
func (s State[K]) Close() State[K] {
	if s.mode == Editing {
		return State[K]{mode: Inspecting, id: s.id}
	}
	return State[K]{}
}

// Forget drops a selection pointing at a record that no longer exists.
func (s State[K]) Forget(id K) State[K] {
	if (s.mode == Inspecting || s.mode == Editing) && s.id == id {
		return State[K]{}
	}
	return s
}

// Parse reads the state from the "mode" and "selected" query parameters.
func Parse[K comparable](q url.Values, parseID func(string) (K, error)) (State[K], error) {
	mode := q.Get("mode")
	raw := q.Get("selected")

	var id K
	if raw != "" {
		parsed, err := parseID(raw)
		if err != nil {
			return Browse[K](), fmt.Errorf("parse selected id: %w", err)
		}
		id = parsed
	}

	switch mode {
	case "", "browse", "inspect":
		if raw == "" {
			if mode == "inspect" {
				return Browse[K](), fmt.Errorf("%w: inspect without a selection", ErrInvalidTransition)
			}
			return Browse[K](), nil
		}
		return State[K]{mode: Inspecting, id: id}, nil
	case "add":
		if raw != "" {
			return Browse[K](), fmt.Errorf("%w: add with a selection", ErrInvalidTransition)
		}
		return State[K]{mode: Adding}, nil
	case "edit":
		if raw == "" {
			return Browse[K](), fmt.Errorf("%w: edit without a selection", ErrInvalidTransition)
		}
		return State[K]{mode: Editing, id: id}, nil
	}
	return Browse[K](), fmt.Errorf("%w: unknown mode %q", ErrInvalidTransition, mode)
}

// Query renders the state back into query parameters, keeping extra ones.
func (s State[K]) Query(extra url.Values, formatID func(K) string) url.Values {
	q := url.Values{}
	for k, v := range extra {
		if k == "mode" || k == "selected" {
			continue
		}
		q[k] = append([]string(nil), v...)
	}
	switch s.mode {
	case Inspecting:
		q.Set("selected", formatID(s.id))
	case Adding:
		q.Set("mode", "add")
	case Editing:
		q.Set("mode", "edit")
		q.Set("selected", formatID(s.id))
	}
	return q
}

// StringID is the identity parser for string-keyed pages.
func StringID(raw string) (string, error) { return raw, nil }
