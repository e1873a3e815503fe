package web

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/pynvestor/internal/view"
)

func TestDashboardCarriesBindings(t *testing.T) {
	b := view.DefaultBindings()
	html, err := Dashboard(DefaultDashboard(b))
	require.NoError(t, err)

	page, err := view.NewPageFromHTML(html)
	require.NoError(t, err)
	assert.NoError(t, b.Check(page))

	form, err := page.ReadScreenerForm(b.ScreenerForm)
	require.NoError(t, err)
	assert.Equal(t, "annual", form.Period)
	require.Len(t, form.Rows, 5)
	assert.Equal(t, "eps", form.Rows[0].FieldName)
	assert.False(t, form.Rows[0].Checked)

	block, err := page.State(b.ResultBlock)
	require.NoError(t, err)
	assert.True(t, block.Hidden)
}

func TestDashboardCustomBindings(t *testing.T) {
	b := view.DefaultBindings()
	b.ScreenerResult = "results"
	html, err := Dashboard(DefaultDashboard(b))
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("#results").Length())
	assert.Equal(t, 0, doc.Find("#screenerResult").Length())

	// Browser-side failures are written into the bound result mounts.
	target, _ := doc.Find("#" + b.ScreenerForm).Attr("data-result")
	assert.Equal(t, "results", target)
	target, _ = doc.Find("#" + b.OptimizerChart).Attr("data-result")
	assert.Equal(t, b.WeightsData, target)
}

func TestChartPageEscapes(t *testing.T) {
	html, err := ChartPage(ChartPageData{Title: "<b>x</b>", ISIN: "FR0000120271", MountID: "stockChart"})
	require.NoError(t, err)
	assert.Contains(t, html, `id="stockChart"`)
	assert.Contains(t, html, "&lt;b&gt;x&lt;/b&gt;")
}

func TestStaticFS(t *testing.T) {
	data, err := fs.ReadFile(StaticFS(), "dashboard.js")
	require.NoError(t, err)
	assert.Contains(t, string(data), "/ui/charts/")
	assert.Contains(t, string(data), "/ws")
	// Reconnects resync from the mount snapshot; failed posts are shown.
	assert.Contains(t, string(data), `fetch("/ui/mounts")`)
	assert.Contains(t, string(data), ".catch(")
	assert.Contains(t, string(data), "update.rev")
}
