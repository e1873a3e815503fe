package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/seenimoa/pynvestor/internal/chart"
	"github.com/seenimoa/pynvestor/internal/grid"
	"github.com/seenimoa/pynvestor/internal/view"
)

// parseFilter reads a name=min:max flag into a checked filter row. Bounds are
// left as text; the screening request builder validates them.
func parseFilter(s string) (view.FilterRow, error) {
	name, bounds, ok := strings.Cut(s, "=")
	if !ok {
		return view.FilterRow{}, fmt.Errorf("filter %q: want name=min:max", s)
	}
	lo, hi, ok := strings.Cut(bounds, ":")
	if !ok {
		return view.FilterRow{}, fmt.Errorf("filter %q: want name=min:max", s)
	}
	return view.FilterRow{
		Checked:   true,
		FieldName: strings.TrimSpace(name),
		MinValue:  strings.TrimSpace(lo),
		MaxValue:  strings.TrimSpace(hi),
	}, nil
}

func formFromFlags(period string, filters []string) (view.ScreenerForm, error) {
	form := view.ScreenerForm{Period: period}
	for _, f := range filters {
		row, err := parseFilter(f)
		if err != nil {
			return form, err
		}
		form.Rows = append(form.Rows, row)
	}
	return form, nil
}

// formFromFile reads a saved screener form. The first <form> element is used,
// or the whole document when there is none.
func formFromFile(path string) (view.ScreenerForm, error) {
	f, err := os.Open(path)
	if err != nil {
		return view.ScreenerForm{}, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return view.ScreenerForm{}, fmt.Errorf("parse %s: %w", path, err)
	}
	sel := doc.Find("form").First()
	if sel.Length() == 0 {
		sel = doc.Selection
	}
	return view.ReadScreenerForm(sel), nil
}

// renderTable formats grid options for the terminal.
func renderTable(opts *grid.Options) string {
	cols := opts.Columns()

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, 0, len(cols))
	for i, c := range cols {
		header[i] = c.Header()
		if isNumericColumn(opts, c.Field) {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, r := range opts.RowData {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			row[i] = grid.FormatValue(r[c.Field])
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d rows", len(opts.RowData))})
	return t.Render()
}

func isNumericColumn(opts *grid.Options, field string) bool {
	seen := false
	for _, r := range opts.RowData {
		switch r[field].(type) {
		case nil:
		case float64, int, int64, json.Number:
			seen = true
		default:
			return false
		}
	}
	return seen
}

func readInputs(path string, stdin io.Reader) (chart.Inputs, error) {
	var in chart.Inputs
	r := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return in, err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return in, fmt.Errorf("decode chart inputs: %w", err)
	}
	return in, nil
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, cfg.Backend.Timeout())
}
