package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"ram/internal/domain/query"
	"ram/internal/errs"
)

var outputFormat string

// listing is a table rendered in the format chosen by --output.
type listing struct {
	writer table.Writer
}

func newListing(header ...any) *listing {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row(header))
	return &listing{writer: w}
}

func (l *listing) row(vals ...any) {
	l.writer.AppendRow(table.Row(vals))
}

// wrap limits column (1-based) to width runes, wrapping longer cells.
func (l *listing) wrap(column, width int) {
	l.writer.SetColumnConfigs([]table.ColumnConfig{{Number: column, WidthMax: width, Align: text.AlignLeft}})
}

func (l *listing) render(w io.Writer) error {
	var out string
	switch strings.ToLower(outputFormat) {
	case "", "table":
		out = l.writer.Render()
	case "markdown", "md":
		out = l.writer.RenderMarkdown()
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
	if _, err := fmt.Fprintln(w, out); err != nil {
		return errs.Wrap(err, "write table")
	}
	return nil
}

func writePageFooter[T any](w io.Writer, p query.Page[T]) error {
	_, err := fmt.Fprintf(w, "page %d (size %d): %d of %d, last page: %v\n", p.Number, p.Size, len(p.Items), p.TotalCount, p.IsLastPage())
	return errs.Wrap(err, "write page footer")
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 0, "Zero-based page number")
	cmd.Flags().Int("size", 0, "Page size (0 uses the configured default)")
}

func pageFromFlags(cmd *cobra.Command) query.PageRequest {
	number, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("size")
	return query.PageRequest{Number: number, Size: size}
}

func addSortFlag(cmd *cobra.Command, keys []query.SortKey) {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, string(k))
	}
	cmd.Flags().StringSlice("sort", nil, "Sort keys, '-key' for descending: "+strings.Join(names, ", "))
}

func sortsFromFlags(cmd *cobra.Command) ([]query.Sort, error) {
	specs, _ := cmd.Flags().GetStringSlice("sort")
	return query.ParseSorts(specs)
}

// optionalBool reads a tri-state flag: nil when it was not given.
func optionalBool(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

func timeFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errs.Wrapf(err, "parse --%s", name)
	}
	return &t, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
