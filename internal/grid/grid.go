// Package grid renders tabular results into mount points.
//
// Options mirrors the grid configuration the scoring backend returns
// (columnDefs + rowData). Named cell renderers are registered through
// Options.Components and referenced by ColumnDef.CellRenderer.
package grid

import (
	"encoding/json"
	"fmt"
	"html/template"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Row is one record of the grid, keyed by column field.
type Row map[string]any

// ColumnDef describes one column.
type ColumnDef struct {
	Field        string `json:"field"`
	HeaderName   string `json:"headerName,omitempty"`
	CellRenderer string `json:"cellRenderer,omitempty"`
	Sortable     bool   `json:"sortable,omitempty"`
	Width        int    `json:"width,omitempty"`
}

// Header returns the column caption.
func (c ColumnDef) Header() string {
	if c.HeaderName != "" {
		return c.HeaderName
	}
	return c.Field
}

// CellParams is passed to a CellRenderer.
type CellParams struct {
	Value  any
	Data   Row
	ColDef ColumnDef
}

// CellRenderer formats one cell. The returned markup is inserted verbatim, so
// a renderer must escape every value it interpolates.
type CellRenderer func(p CellParams) template.HTML

// Options is a grid configuration.
type Options struct {
	ColumnDefs []ColumnDef             `json:"columnDefs"`
	RowData    []Row                   `json:"rowData"`
	Components map[string]CellRenderer `json:"-"`
}

// Clone returns a copy that shares no slices or maps with o. Row values are
// copied shallowly.
func (o *Options) Clone() *Options {
	out := &Options{
		ColumnDefs: slices.Clone(o.ColumnDefs),
		Components: maps.Clone(o.Components),
	}
	if o.RowData != nil {
		out.RowData = make([]Row, len(o.RowData))
		for i, r := range o.RowData {
			out.RowData[i] = maps.Clone(r)
		}
	}
	return out
}

// Columns returns the column definitions, deriving them from the first row's
// keys in sorted order when none are configured.
func (o *Options) Columns() []ColumnDef {
	if len(o.ColumnDefs) > 0 || len(o.RowData) == 0 {
		return o.ColumnDefs
	}
	keys := make([]string, 0, len(o.RowData[0]))
	for k := range o.RowData[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]ColumnDef, len(keys))
	for i, k := range keys {
		cols[i] = ColumnDef{Field: k}
	}
	return cols
}

// Mounter appends markup to a mount point.
type Mounter interface {
	Inject(id, fragment string) error
}

// Engine renders grid options as an HTML table appended to a mount point.
// It does not clear the mount first; callers that re-render must clear it.
type Engine struct {
	page Mounter
	log  zerolog.Logger
}

// NewEngine creates a grid engine writing into page.
func NewEngine(page Mounter, log zerolog.Logger) *Engine {
	return &Engine{
		page: page,
		log:  log.With().Str("component", "grid_engine").Logger(),
	}
}

// Render appends the grid to mountID.
func (e *Engine) Render(mountID string, opts *Options) error {
	markup, err := e.HTML(opts)
	if err != nil {
		return err
	}
	if err := e.page.Inject(mountID, markup); err != nil {
		return fmt.Errorf("render grid: %w", err)
	}
	e.log.Debug().Str("mount", mountID).Int("rows", len(opts.RowData)).Msg("grid rendered")
	return nil
}

var tableTmpl = template.Must(template.New("grid").Parse(
	`<div class="grid-wrapper"><table class="table table-sm table-striped grid">` +
		`<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>` +
		`<tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody>` +
		`</table></div>`))

type tableData struct {
	Headers []string
	Rows    [][]any // string cells are escaped by the template; template.HTML is not
}

// HTML renders the grid markup. A column naming an unregistered renderer falls
// back to plain escaped text.
func (e *Engine) HTML(opts *Options) (string, error) {
	cols := opts.Columns()

	data := tableData{Headers: make([]string, len(cols))}
	for i, c := range cols {
		data.Headers[i] = c.Header()
		if c.CellRenderer != "" && opts.Components[c.CellRenderer] == nil {
			e.log.Warn().Str("renderer", c.CellRenderer).Str("field", c.Field).Msg("unknown cell renderer, using text")
		}
	}

	for _, row := range opts.RowData {
		cells := make([]any, len(cols))
		for i, c := range cols {
			v := row[c.Field]
			if render := opts.Components[c.CellRenderer]; c.CellRenderer != "" && render != nil {
				cells[i] = render(CellParams{Value: v, Data: row, ColDef: c})
				continue
			}
			cells[i] = FormatValue(v)
		}
		data.Rows = append(data.Rows, cells)
	}

	var sb strings.Builder
	if err := tableTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render grid template: %w", err)
	}
	return sb.String(), nil
}

// FormatValue renders a decoded JSON value as cell text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
