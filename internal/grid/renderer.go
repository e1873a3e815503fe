package grid

import (
	"html/template"
	"net/url"
	"strings"
)

// ISINRendererName is the component name backend column defs refer to.
const ISINRendererName = "isinCellRenderer"

var isinTmpl = template.Must(template.New("isin").Parse(`<a href="{{.Href}}" target="_blank">{{.Text}}</a>`))

// ISINCellRenderer links a cell to the chart detail page of its ISIN.
func ISINCellRenderer(chartPath string) CellRenderer {
	return func(p CellParams) template.HTML {
		isin := FormatValue(p.Value)
		if isin == "" {
			return ""
		}

		var sb strings.Builder
		err := isinTmpl.Execute(&sb, struct{ Href, Text string }{
			Href: chartPath + "?" + url.Values{"isin": {isin}}.Encode(),
			Text: isin,
		})
		if err != nil {
			return template.HTML(template.HTMLEscapeString(isin))
		}
		return template.HTML(sb.String())
	}
}

// Renderer is the table renderer used by the controllers: it registers the
// dashboard's cell renderers and hands the grid to the engine.
type Renderer struct {
	engine     *Engine
	components map[string]CellRenderer
}

// NewRenderer creates a Renderer whose ISIN links point at chartPath.
func NewRenderer(engine *Engine, chartPath string) *Renderer {
	return &Renderer{
		engine: engine,
		components: map[string]CellRenderer{
			ISINRendererName: ISINCellRenderer(chartPath),
		},
	}
}

// Render renders opts at mountID. opts is not modified.
func (r *Renderer) Render(mountID string, opts *Options) error {
	o := opts.Clone()
	if o.Components == nil {
		o.Components = make(map[string]CellRenderer, len(r.components))
	}
	for name, fn := range r.components {
		o.Components[name] = fn
	}
	return r.engine.Render(mountID, o)
}
