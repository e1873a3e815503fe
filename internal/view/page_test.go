package view

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<!DOCTYPE html>
<html><body>
<form id="screenerForm">
  <div class="form-check">
    <input class="form-check-input" type="radio" name="periodBtn" value="6M">
    <input class="form-check-input" type="radio" name="periodBtn" value="1Y" checked>
  </div>
  <div class="form-check">
    <input class="form-check-input" type="checkbox" name="fieldName" value="pe_ratio" checked>
    <input class="form-control" name="minValue" value="5">
    <input class="form-control" name="maxValue" value="20">
  </div>
  <div class="form-check">
    <input class="form-check-input" type="checkbox" name="fieldName" value="roe">
    <input class="form-control" name="minValue" value="0.1">
    <input class="form-control" name="maxValue" value="1">
  </div>
  <div class="form-check">
    <input class="form-check-input" type="checkbox" name="fieldName" value="dividend_yield" checked>
    <input class="form-control" name="minValue" value="0">
    <input class="form-control" name="maxValue" value="5">
  </div>
  <button type="submit">Run</button>
</form>
<div id="resultBlock" hidden><div id="screenerResult"><p>old</p></div></div>
<div id="onClickDisplay" hidden><div id="onClickWeightsData"></div></div>
<div id="optimizerChart"></div>
</body></html>`

func newTestPage(t *testing.T) *Page {
	t.Helper()
	p, err := NewPageFromHTML(testPage)
	require.NoError(t, err)
	return p
}

// ════════════════════════════════════════════════════════════════════
// Mount operations
// ════════════════════════════════════════════════════════════════════

func TestPageClearAndInject(t *testing.T) {
	p := newTestPage(t)

	require.NoError(t, p.Clear("screenerResult"))
	inner, err := p.InnerHTML("screenerResult")
	require.NoError(t, err)
	assert.Empty(t, inner)

	require.NoError(t, p.Inject("screenerResult", "<table></table>"))
	require.NoError(t, p.Inject("screenerResult", "<p>second</p>"))
	inner, _ = p.InnerHTML("screenerResult")
	assert.Equal(t, "<table></table><p>second</p>", inner)
}

func TestPageReplaceDoesNotStack(t *testing.T) {
	p := newTestPage(t)

	require.NoError(t, p.Replace("screenerResult", "<table id=\"a\"></table>"))
	require.NoError(t, p.Replace("screenerResult", "<table id=\"b\"></table>"))

	inner, _ := p.InnerHTML("screenerResult")
	assert.Equal(t, `<table id="b"></table>`, inner)
}

func TestPageMissingMount(t *testing.T) {
	p := newTestPage(t)

	err := p.Inject("nope", "<p></p>")
	assert.True(t, errors.Is(err, ErrMountNotFound))
	assert.False(t, p.Has("nope"))
	assert.False(t, p.Has(""))

	_, err = p.InnerHTML("nope")
	assert.ErrorIs(t, err, ErrMountNotFound)
}

func TestPageErrorIsEscaped(t *testing.T) {
	p := newTestPage(t)

	require.NoError(t, p.Error("screenerResult", `<script>alert("x")</script>`))

	inner, _ := p.InnerHTML("screenerResult")
	assert.NotContains(t, inner, "<script>")
	assert.Contains(t, inner, "&lt;script&gt;")
	assert.Contains(t, inner, `role="alert"`)
}

func TestPageShowHideBusy(t *testing.T) {
	p := newTestPage(t)

	st, err := p.State("resultBlock")
	require.NoError(t, err)
	assert.True(t, st.Hidden)

	require.NoError(t, p.Show("resultBlock"))
	st, _ = p.State("resultBlock")
	assert.False(t, st.Hidden)

	require.NoError(t, p.SetBusy("screenerForm", true))
	st, _ = p.State("screenerForm")
	assert.True(t, st.Busy)
	assert.Contains(t, st.HTML, "disabled")

	require.NoError(t, p.SetBusy("screenerForm", false))
	st, _ = p.State("screenerForm")
	assert.False(t, st.Busy)
	assert.NotContains(t, st.HTML, "disabled")

	require.NoError(t, p.Hide("resultBlock"))
	st, _ = p.State("resultBlock")
	assert.True(t, st.Hidden)
}

func TestPageLoading(t *testing.T) {
	p := newTestPage(t)
	require.NoError(t, p.Loading("screenerResult"))

	inner, _ := p.InnerHTML("screenerResult")
	assert.Contains(t, inner, `class="loading`)
	assert.NotContains(t, inner, "old")
}

func TestPageSubscribe(t *testing.T) {
	p := newTestPage(t)

	var got []Update
	unsubscribe := p.Subscribe(func(u Update) { got = append(got, u) })

	require.NoError(t, p.Replace("onClickWeightsData", "<b>w</b>"))
	require.NoError(t, p.Show("onClickDisplay"))
	unsubscribe()
	require.NoError(t, p.Clear("onClickWeightsData"))

	require.Len(t, got, 2)
	assert.Equal(t, Update{ID: "onClickWeightsData", Rev: 1, HTML: "<b>w</b>"}, got[0])
	assert.Equal(t, "onClickDisplay", got[1].ID)
	assert.Equal(t, uint64(2), got[1].Rev)
	assert.False(t, got[1].Hidden)
}

func TestPageRevisions(t *testing.T) {
	p := newTestPage(t)

	st, err := p.State("screenerResult")
	require.NoError(t, err)
	assert.Zero(t, st.Rev)

	require.NoError(t, p.Loading("screenerResult"))
	require.NoError(t, p.Show("resultBlock"))
	require.NoError(t, p.Replace("screenerResult", "<table></table>"))

	result, _ := p.State("screenerResult")
	block, _ := p.State("resultBlock")
	assert.Equal(t, uint64(3), result.Rev)
	assert.Equal(t, uint64(2), block.Rev)

	assert.Error(t, p.Clear("missing"))
	result, _ = p.State("screenerResult")
	assert.Equal(t, uint64(3), result.Rev)
}

func TestPageConcurrentMutation(t *testing.T) {
	p := newTestPage(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Replace("screenerResult", "<table></table>")
		}()
	}
	wg.Wait()

	inner, _ := p.InnerHTML("screenerResult")
	assert.Equal(t, "<table></table>", inner)
}

func TestPageCloneIsIndependent(t *testing.T) {
	p := newTestPage(t)
	c, err := p.Clone()
	require.NoError(t, err)

	require.NoError(t, c.Replace("screenerResult", "<i>clone</i>"))
	inner, _ := p.InnerHTML("screenerResult")
	assert.Equal(t, "<p>old</p>", inner)

	doc, err := c.HTML()
	require.NoError(t, err)
	assert.True(t, strings.Contains(doc, "<i>clone</i>"))
}

// ════════════════════════════════════════════════════════════════════
// Bindings and form reading
// ════════════════════════════════════════════════════════════════════

func TestBindingsCheck(t *testing.T) {
	p := newTestPage(t)
	assert.NoError(t, DefaultBindings().Check(p))

	b := DefaultBindings()
	b.WeightsData = "missing"
	err := b.Check(p)
	assert.ErrorIs(t, err, ErrMountNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestBindingsChartMounts(t *testing.T) {
	b := DefaultBindings()
	assert.True(t, b.IsChartMount("optimizerChart"))
	for _, id := range []string{"screenerResult", "screenerForm", "onClickWeightsData", ""} {
		assert.False(t, b.IsChartMount(id), id)
	}
	assert.Len(t, b.IDs(), 6)
}

func TestReadScreenerForm(t *testing.T) {
	p := newTestPage(t)

	form, err := p.ReadScreenerForm("screenerForm")
	require.NoError(t, err)

	assert.Equal(t, "1Y", form.Period)
	assert.Equal(t, []FilterRow{
		{Checked: true, FieldName: "pe_ratio", MinValue: "5", MaxValue: "20"},
		{Checked: false, FieldName: "roe", MinValue: "0.1", MaxValue: "1"},
		{Checked: true, FieldName: "dividend_yield", MinValue: "0", MaxValue: "5"},
	}, form.Rows)
}

func TestReadScreenerFormNoPeriod(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<form><input type="radio" name="periodBtn" value="1Y"></form>`))
	require.NoError(t, err)

	form := ReadScreenerForm(doc.Find("form"))
	assert.Empty(t, form.Period)
	assert.Empty(t, form.Rows)
}
