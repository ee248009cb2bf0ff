package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// Column is one exported field of a record.
type Column[T any] struct {
	Name  string
	Value func(T) string
}

// CSV writes a header row and one row per item. Every field is quoted and
// embedded quotes are doubled; records end with "\n".
func CSV[T any](w io.Writer, columns []Column[T], items []T) error {
	bw := bufio.NewWriter(w)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Name
	}
	if err := writeRecord(bw, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(columns))
	for _, item := range items {
		for i, col := range columns {
			row[i] = col.Value(item)
		}
		if err := writeRecord(bw, row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeRecord(w *bufio.Writer, fields []string) error {
	for i, field := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(quote(field)); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
