// Package web embeds the dashboard markup and the browser bootstrap script.
//
// The server renders the templates once into a view.Page; afterwards every
// change reaches the browser as a mount update over the WebSocket.
//
// Usage in the API server:
//
//	html, err := web.Dashboard(web.DefaultDashboard(bindings))
//	static := web.StaticFS() // served under /static/
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/seenimoa/pynvestor/internal/view"
)

//go:embed templates static
var assets embed.FS

var pages = template.Must(template.ParseFS(assets, "templates/*.html"))

// Choice is one period radio button.
type Choice struct {
	Value   string
	Label   string
	Checked bool
}

// Field is one screener filter row.
type Field struct {
	Name  string
	Label string
}

// DashboardData feeds the dashboard template.
type DashboardData struct {
	Title    string
	Bindings view.Bindings
	Periods  []Choice
	Fields   []Field
}

// DefaultDashboard returns the stock screener layout bound to b.
func DefaultDashboard(b view.Bindings) DashboardData {
	return DashboardData{
		Title:    "pynvestor",
		Bindings: b,
		Periods: []Choice{
			{Value: "annual", Label: "Annual", Checked: true},
			{Value: "interim", Label: "Interim"},
		},
		Fields: []Field{
			{Name: "eps", Label: "EPS"},
			{Name: "per", Label: "P/E ratio"},
			{Name: "roe", Label: "Return on equity"},
			{Name: "gearing", Label: "Gearing"},
			{Name: "operating_margin", Label: "Operating margin"},
		},
	}
}

// ChartPageData feeds the chart detail template.
type ChartPageData struct {
	Title   string
	ISIN    string
	MountID string
}

// Dashboard renders the dashboard page.
func Dashboard(d DashboardData) (string, error) {
	return render("dashboard.html", d)
}

// ChartPage renders the empty chart detail page; the chart is mounted into
// MountID afterwards.
func ChartPage(d ChartPageData) (string, error) {
	return render("chart.html", d)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// StaticFS returns the browser assets rooted at static/.
func StaticFS() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(fmt.Sprintf("web.StaticFS: %v", err))
	}
	return sub
}
