package view

import (
	"errors"
	"net/url"
	"strconv"
	"testing"
)

func TestTransitions(t *testing.T) {
	s := Browse[string]()

	s, err := s.Inspect("a")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	s, err = s.Inspect("b")
	if err != nil {
		t.Fatalf("re-inspect: %v", err)
	}
	if id, ok := s.Selected(); !ok || id != "b" {
		t.Fatalf("new selection did not replace old: %q %v", id, ok)
	}

	s, err = s.Edit()
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if _, err := s.Add(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("add while editing: %v", err)
	}
	if _, err := s.Inspect("c"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("inspect while editing: %v", err)
	}

	s = s.Close()
	if s.Mode() != Inspecting {
		t.Fatalf("closing edit should return to inspecting, got %s", s.Mode())
	}
	s = s.Close()
	if s.Mode() != Browsing {
		t.Fatalf("expected browsing, got %s", s.Mode())
	}
	if _, err := s.Edit(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("edit without selection: %v", err)
	}
}

func TestForget(t *testing.T) {
	s, _ := Browse[string]().Inspect("gone")
	if s.Forget("other").Mode() != Inspecting {
		t.Fatalf("forget cleared an unrelated selection")
	}
	if s.Forget("gone").Mode() != Browsing {
		t.Fatalf("forget kept a deleted selection")
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		query   string
		mode    Mode
		id      int64
		wantErr bool
	}{
		{query: "", mode: Browsing},
		{query: "selected=4", mode: Inspecting, id: 4},
		{query: "mode=add", mode: Adding},
		{query: "mode=edit&selected=7", mode: Editing, id: 7},
		{query: "mode=add&selected=7", wantErr: true},
		{query: "mode=edit", wantErr: true},
		{query: "mode=inspect", wantErr: true},
		{query: "mode=zoom", wantErr: true},
		{query: "selected=abc", wantErr: true},
	}
	parseInt := func(raw string) (int64, error) { return strconv.ParseInt(raw, 10, 64) }

	for _, tc := range cases {
		q, _ := url.ParseQuery(tc.query)
		s, err := Parse(q, parseInt)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.query)
			}
			if s.Mode() != Browsing {
				t.Fatalf("%q: failed parse should browse, got %s", tc.query, s.Mode())
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.query, err)
		}
		if s.Mode() != tc.mode {
			t.Fatalf("%q: mode %s, want %s", tc.query, s.Mode(), tc.mode)
		}
		if id, _ := s.Selected(); id != tc.id {
			t.Fatalf("%q: id %d, want %d", tc.query, id, tc.id)
		}
	}
}

func TestQueryRoundTrip(t *testing.T) {
	s, _ := Browse[string]().Inspect("abc")
	s, _ = s.Edit()
	extra := url.Values{"q": {"lock"}, "mode": {"stale"}}

	q := s.Query(extra, func(id string) string { return id })
	if q.Get("q") != "lock" || q.Get("mode") != "edit" || q.Get("selected") != "abc" {
		t.Fatalf("unexpected query: %v", q)
	}
	back, err := Parse(q, StringID)
	if err != nil || back != s {
		t.Fatalf("round trip: %#v %v", back, err)
	}
}
