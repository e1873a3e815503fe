package controller

import (
	"context"
	"slices"

	"github.com/seenimoa/pynvestor/internal/backend"
	"github.com/seenimoa/pynvestor/internal/chart"
	"github.com/seenimoa/pynvestor/internal/grid"
	"github.com/seenimoa/pynvestor/internal/view"
)

// PointClickHandlerName is the name the optimizer click handler is
// registered under in chart configurations.
const PointClickHandlerName = "optimizerPointClick"

// WeightsClient resolves a portfolio weights vector into a grid.
type WeightsClient interface {
	PortfolioWeights(ctx context.Context, req backend.WeightsRequest) (*grid.Options, error)
}

// OptimizerController handles clicks on optimizer scatter points.
type OptimizerController struct {
	core
	client WeightsClient
	bind   view.Bindings
}

// NewOptimizer creates an optimizer controller.
func NewOptimizer(client WeightsClient, page Page, renderer GridRenderer, bind view.Bindings, opts ...Option) *OptimizerController {
	c := &OptimizerController{client: client, bind: bind}
	c.init("optimizer", page, renderer, opts)
	return c
}

// Click requests the weights breakdown of a clicked portfolio and renders it
// into the weights mount.
func (c *OptimizerController) Click(ctx context.Context, weights []float64) (*Ticket, error) {
	c.seq.Collect()
	r := request{container: c.bind.WeightsDisplay, mount: c.bind.WeightsData}
	if err := validateWeights(weights); err != nil {
		c.reject(r, err)
		return nil, err
	}

	req := backend.WeightsRequest{Weights: slices.Clone(weights)}
	r.call = func(ctx context.Context) (*grid.Options, error) {
		return c.client.PortfolioWeights(ctx, req)
	}
	return c.start(ctx, r), nil
}

// Reset discards the displayed weights and any click still in flight. Call it
// when the optimizer chart is replaced, since the old points are gone.
func (c *OptimizerController) Reset() {
	c.reset(c.bind.WeightsDisplay, c.bind.WeightsData)
}

// PointClickHandler returns the handler to attach to the optimizer scatter
// series.
func (c *OptimizerController) PointClickHandler() *chart.PointClickHandler {
	return &chart.PointClickHandler{
		Name: PointClickHandlerName,
		Fn: func(ctx context.Context, p chart.ScatterPoint) {
			if _, err := c.Click(ctx, p.Weights); err != nil {
				c.log.Warn().Err(err).Str("point", p.Name).Msg("point click rejected")
			}
		},
	}
}
