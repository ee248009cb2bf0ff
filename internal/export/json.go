package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Document wraps an exported collection with its metadata.
type Document[T any] struct {
	Kind       string    `json:"kind"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Items      []T       `json:"items"`
}

func NewDocument[T any](kind string, at time.Time, items []T) Document[T] {
	if items == nil {
		items = []T{}
	}
	return Document[T]{Kind: kind, ExportedAt: at.UTC(), Count: len(items), Items: items}
}

// JSON writes v as an indented JSON document.
func JSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
