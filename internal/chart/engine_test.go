package chart

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/pynvestor/internal/view"
)

func newEnginePage(t *testing.T) (*view.Page, *HTMLEngine) {
	t.Helper()
	page, err := view.NewPageFromHTML(`<html><body><div id="stock"></div><div id="optimizerChart"><p>stale</p></div></body></html>`)
	require.NoError(t, err)
	return page, NewHTMLEngine(page, zerolog.Nop())
}

func mountedConfig(t *testing.T, page *view.Page, id string) (string, map[string]any) {
	t.Helper()
	inner, err := page.InnerHTML(id)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(inner))
	require.NoError(t, err)
	box := doc.Find("div.hc-chart")
	require.Equal(t, 1, box.Length(), "exactly one chart container")

	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(box.Find("script").Text()), &cfg))
	return box.AttrOr("data-constructor", ""), cfg
}

func TestLoaderMountsStockChart(t *testing.T) {
	page, engine := newEnginePage(t)
	loader := NewLoader(engine)

	require.NoError(t, loader.LoadStock("stock", "Apple", "AAPL", sampleOHLC(), sampleVolume()))

	ctor, cfg := mountedConfig(t, page, "stock")
	assert.Equal(t, "stockChart", ctor)
	assert.Equal(t, "AAPL", cfg["title"].(map[string]any)["text"])

	live, ok := engine.Mounted("stock")
	require.True(t, ok)
	assert.Equal(t, "Apple", live.Series[0].Name)
}

func TestLoaderReplacesPreviousChart(t *testing.T) {
	page, engine := newEnginePage(t)
	loader := NewLoader(engine)

	require.NoError(t, loader.LoadValueAtRisk("optimizerChart", []float64{1}, 5, []string{"a"}, 0, 1))
	require.NoError(t, loader.LoadValueAtRisk("optimizerChart", []float64{2}, 6, []string{"b"}, 0, 1))

	ctor, cfg := mountedConfig(t, page, "optimizerChart")
	assert.Equal(t, "chart", ctor)
	assert.Equal(t, []any{"b"}, cfg["xAxis"].(map[string]any)["categories"])
}

func TestLoaderUnknownMount(t *testing.T) {
	_, engine := newEnginePage(t)
	loader := NewLoader(engine)

	err := loader.LoadPortfolio("missing", "NAV", nil)
	assert.ErrorIs(t, err, view.ErrMountNotFound)

	_, ok := engine.Mounted("missing")
	assert.False(t, ok)
}

func TestLoaderLoadByKind(t *testing.T) {
	page, engine := newEnginePage(t)
	loader := NewLoader(engine)

	cfg, err := loader.Load("stock", KindPortfolio, Inputs{Title: "NAV"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "NAV", cfg.Title.Text)

	ctor, _ := mountedConfig(t, page, "stock")
	assert.Equal(t, "stockChart", ctor)

	_, err = loader.Load("stock", "pie", Inputs{}, nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestEngineClickDispatch(t *testing.T) {
	_, engine := newEnginePage(t)
	loader := NewLoader(engine)

	got := make(chan ScatterPoint, 1)
	h := &PointClickHandler{Name: "optimizerPointClick", Fn: func(_ context.Context, p ScatterPoint) { got <- p }}
	require.NoError(t, loader.LoadOptimizer("optimizerChart", "Frontier", nil, sampleScatter(), h))

	require.NoError(t, engine.Click(context.Background(), "optimizerChart", 1, 1))
	p := <-got
	assert.Equal(t, []float64{0.1, 0.9}, p.Weights)

	err := engine.Click(context.Background(), "stock", 1, 0)
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestFragmentEscapesMarkup(t *testing.T) {
	cfg := StockParams("</script><script>alert(1)</script>", "t", nil, nil)
	frag, err := Fragment(`x" onload="y`, ConstructorStockChart, cfg)
	require.NoError(t, err)

	assert.NotContains(t, frag, "</script><script>")
	assert.Contains(t, frag, `</script>`)
	assert.Contains(t, frag, `data-mount="x&#34; onload=&#34;y"`)
}
