package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// Banner heads a plain-text report.
type Banner struct {
	Title   string
	Date    time.Time
	Summary []string
	Section string
}

// Report writes the banner, a blank line, the section heading and one line
// per entry. With no lines only the banner is written.
func Report(w io.Writer, banner Banner, lines []string) error {
	var b strings.Builder
	b.WriteString(banner.Title + "\n")
	b.WriteString(strings.Repeat("=", len(banner.Title)) + "\n")
	fmt.Fprintf(&b, "Date: %s\n", banner.Date.Format("2006-01-02"))
	for _, s := range banner.Summary {
		b.WriteString(s + "\n")
	}
	if len(lines) > 0 {
		b.WriteString("\n")
		if banner.Section != "" {
			b.WriteString(banner.Section + ":\n")
		}
		for _, line := range lines {
			b.WriteString(line + "\n")
		}
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Table writes items as aligned columns for terminal output.
func Table[T any](w io.Writer, columns []Column[T], items []T) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = strings.ToUpper(col.Name)
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))

	row := make([]string, len(columns))
	for _, item := range items {
		for i, col := range columns {
			row[i] = strings.ReplaceAll(col.Value(item), "\n", " ")
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	return nil
}
