package controller

import (
	"context"

	"github.com/seenimoa/pynvestor/internal/backend"
	"github.com/seenimoa/pynvestor/internal/grid"
	"github.com/seenimoa/pynvestor/internal/view"
)

// ScreenerClient runs screening requests.
type ScreenerClient interface {
	RunScreener(ctx context.Context, req backend.ScreeningRequest) (*grid.Options, error)
}

// ScreenerController handles screener form submissions.
type ScreenerController struct {
	core
	client ScreenerClient
	bind   view.Bindings
}

// NewScreener creates a screener controller rendering into the mounts named
// by bind.
func NewScreener(client ScreenerClient, page Page, renderer GridRenderer, bind view.Bindings, opts ...Option) *ScreenerController {
	c := &ScreenerController{client: client, bind: bind}
	c.init("screener", page, renderer, opts)
	return c
}

// Submit validates the form and sends one screening request. Invalid input is
// shown in the result mount and returned as a *ValidationError; no request is
// sent in that case, and responses to earlier submits are discarded.
func (c *ScreenerController) Submit(ctx context.Context, form view.ScreenerForm) (*Ticket, error) {
	c.seq.Collect()
	req, err := BuildScreeningRequest(form)

	r := request{
		container: c.bind.ResultBlock,
		mount:     c.bind.ScreenerResult,
		before: func() {
			c.warn(c.page.SetBusy(c.bind.ScreenerForm, true), c.bind.ScreenerForm)
		},
		after: func() {
			c.warn(c.page.SetBusy(c.bind.ScreenerForm, false), c.bind.ScreenerForm)
		},
	}
	if err != nil {
		c.reject(r, err)
		return nil, err
	}

	c.log.Info().
		Str("period", req.Period).
		Int("fields", len(req.Fields)).
		Msg("screening submitted")

	r.call = func(ctx context.Context) (*grid.Options, error) {
		return c.client.RunScreener(ctx, req)
	}
	return c.start(ctx, r), nil
}
