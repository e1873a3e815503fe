package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/pynvestor/internal/backend"
	"github.com/seenimoa/pynvestor/internal/grid"
	"github.com/seenimoa/pynvestor/internal/view"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

const dashboardHTML = `<html><body>
<form id="screenerForm">
  <input type="radio" name="periodBtn" value="6M">
  <input type="radio" name="periodBtn" value="1Y" checked>
  <div class="form-check">
    <input class="form-check-input" type="checkbox" name="fieldName" value="pe_ratio" checked>
    <input class="form-control" name="minValue" value="5">
    <input class="form-control" name="maxValue" value="20">
  </div>
  <div class="form-check">
    <input class="form-check-input" type="checkbox" name="fieldName" value="beta">
    <input class="form-control" name="minValue" value="">
    <input class="form-control" name="maxValue" value="">
  </div>
  <div class="form-check">
    <input class="form-check-input" type="checkbox" name="fieldName" value="dividend_yield" checked>
    <input class="form-control" name="minValue" value="0">
    <input class="form-control" name="maxValue" value="5">
  </div>
  <button type="submit">Run</button>
</form>
<div id="resultBlock" hidden><div id="screenerResult"></div></div>
<div id="onClickDisplay" hidden><div id="onClickWeightsData"><p class="old">previous</p></div></div>
<div id="optimizerChart"></div>
</body></html>`

type result struct {
	opts *grid.Options
	err  error
}

type pendingCall struct {
	screening backend.ScreeningRequest
	weights   backend.WeightsRequest
	reply     chan result
}

// gatedClient blocks every call until the test replies to it.
type gatedClient struct {
	calls chan pendingCall
}

func newGatedClient() *gatedClient {
	return &gatedClient{calls: make(chan pendingCall, 8)}
}

func (g *gatedClient) RunScreener(ctx context.Context, req backend.ScreeningRequest) (*grid.Options, error) {
	p := pendingCall{screening: req, reply: make(chan result, 1)}
	g.calls <- p
	select {
	case r := <-p.reply:
		return r.opts, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedClient) PortfolioWeights(ctx context.Context, req backend.WeightsRequest) (*grid.Options, error) {
	p := pendingCall{weights: req, reply: make(chan result, 1)}
	g.calls <- p
	select {
	case r := <-p.reply:
		return r.opts, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedClient) next(t *testing.T) pendingCall {
	t.Helper()
	select {
	case p := <-g.calls:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no backend call")
		return pendingCall{}
	}
}

func newDashboard(t *testing.T) (*view.Page, *grid.Renderer) {
	t.Helper()
	page, err := view.NewPageFromHTML(dashboardHTML)
	require.NoError(t, err)
	return page, grid.NewRenderer(grid.NewEngine(page, zerolog.Nop()), "/chart")
}

func wait(t *testing.T, tk *Ticket) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := tk.Wait(ctx)
	require.NoError(t, err)
	return out
}

func gridWithName(name string) *grid.Options {
	return &grid.Options{
		ColumnDefs: []grid.ColumnDef{{Field: "isin", CellRenderer: grid.ISINRendererName}, {Field: "name"}},
		RowData:    []grid.Row{{"isin": "US0378331005", "name": name}},
	}
}

func mountDoc(t *testing.T, page *view.Page, id string) *goquery.Document {
	t.Helper()
	inner, err := page.InnerHTML(id)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(inner))
	require.NoError(t, err)
	return doc
}

func readForm(t *testing.T, page *view.Page) view.ScreenerForm {
	t.Helper()
	form, err := page.ReadScreenerForm("screenerForm")
	require.NoError(t, err)
	return form
}

// ════════════════════════════════════════════════════════════════════
// Sequencer
// ════════════════════════════════════════════════════════════════════

func TestSequencerTokensIncrease(t *testing.T) {
	var s Sequencer
	assert.Equal(t, Idle, s.State())

	a := s.Next(nil)
	prepared := false
	b := s.Next(func() { prepared = true })
	assert.Less(t, a, b)
	assert.True(t, prepared)
	assert.Equal(t, Requesting, s.State())

	ran := false
	assert.Equal(t, Stale, s.Settle(a, func() State { ran = true; return Succeeded }))
	assert.False(t, ran)
	assert.Equal(t, Requesting, s.State())

	assert.Equal(t, Succeeded, s.Settle(b, func() State { ran = true; return Succeeded }))
	assert.True(t, ran)
	assert.Equal(t, Idle, s.State())
}

func TestSequencerIdleWhenStaleSettlesLast(t *testing.T) {
	var s Sequencer
	a := s.Next(nil)
	b := s.Next(nil)

	assert.Equal(t, Succeeded, s.Settle(b, func() State { return Succeeded }))
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, Stale, s.Settle(a, func() State { return Succeeded }))
	assert.Equal(t, Idle, s.State())

	s.Collect()
	assert.Equal(t, Collecting, s.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "requesting", Requesting.String())
	assert.Equal(t, "stale", Stale.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestTicketWaitHonoursContext(t *testing.T) {
	tk := newTicket(7)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := tk.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(7), out.Token)
}

// ════════════════════════════════════════════════════════════════════
// Validation
// ════════════════════════════════════════════════════════════════════

func TestBuildScreeningRequestFromPage(t *testing.T) {
	page, _ := newDashboard(t)

	req, err := BuildScreeningRequest(readForm(t, page))
	require.NoError(t, err)

	assert.Equal(t, "1Y", req.Period)
	require.Len(t, req.Fields, 2, "one entry per checked row")
	assert.Equal(t, "pe_ratio", req.Fields[0].Name)
	assert.Equal(t, "dividend_yield", req.Fields[1].Name)
}

func TestBuildScreeningRequestDuplicateField(t *testing.T) {
	req, err := BuildScreeningRequest(view.ScreenerForm{
		Period: "1Y",
		Rows: []view.FilterRow{
			{Checked: true, FieldName: "pe_ratio", MinValue: "1", MaxValue: "2"},
			{Checked: true, FieldName: "beta", MinValue: "0", MaxValue: "1"},
			{Checked: true, FieldName: "pe_ratio", MinValue: "3", MaxValue: "4"},
		},
	})
	require.NoError(t, err)
	require.Len(t, req.Fields, 2)
	assert.Equal(t, backend.FieldRange{Name: "pe_ratio", Min: 3, Max: 4}, req.Fields[0])
}

func TestBuildScreeningRequestRejects(t *testing.T) {
	tests := []struct {
		name  string
		form  view.ScreenerForm
		field string
	}{
		{
			name:  "no period",
			form:  view.ScreenerForm{},
			field: "period",
		},
		{
			name: "non-numeric min",
			form: view.ScreenerForm{Period: "1Y", Rows: []view.FilterRow{
				{Checked: true, FieldName: "pe_ratio", MinValue: "abc", MaxValue: "2"},
			}},
			field: "pe_ratio min",
		},
		{
			name: "empty max",
			form: view.ScreenerForm{Period: "1Y", Rows: []view.FilterRow{
				{Checked: true, FieldName: "pe_ratio", MinValue: "1", MaxValue: " "},
			}},
			field: "pe_ratio max",
		},
		{
			name: "NaN literal",
			form: view.ScreenerForm{Period: "1Y", Rows: []view.FilterRow{
				{Checked: true, FieldName: "pe_ratio", MinValue: "NaN", MaxValue: "2"},
			}},
			field: "pe_ratio min",
		},
		{
			name: "empty field name",
			form: view.ScreenerForm{Period: "1Y", Rows: []view.FilterRow{
				{Checked: true, FieldName: "  ", MinValue: "1", MaxValue: "2"},
			}},
			field: "row 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildScreeningRequest(tt.form)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestBuildScreeningRequestIgnoresUncheckedRows(t *testing.T) {
	req, err := BuildScreeningRequest(view.ScreenerForm{
		Period: "1Y",
		Rows:   []view.FilterRow{{Checked: false, FieldName: "", MinValue: "x", MaxValue: "y"}},
	})
	require.NoError(t, err)
	assert.Empty(t, req.Fields)
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, userMessage(&ValidationError{Field: "weights", Reason: "empty"}), "Invalid input")
	assert.Contains(t, userMessage(&backend.StatusError{Code: 502}), "Bad Gateway")
	assert.Contains(t, userMessage(fmt.Errorf("%w: boom", backend.ErrMalformedResponse)), "unreadable")
	assert.Contains(t, userMessage(fmt.Errorf("%w: dial", backend.ErrTransport)), "unreachable")
	assert.Contains(t, userMessage(errors.New("other")), "other")
}
