package view

import (
	"errors"
	"fmt"
)

// Bindings names the elements the controllers read from and render into.
type Bindings struct {
	ScreenerForm   string `json:"screenerForm"`
	ScreenerResult string `json:"screenerResult"`
	ResultBlock    string `json:"resultBlock"`
	WeightsData    string `json:"weightsData"`
	WeightsDisplay string `json:"weightsDisplay"`
	OptimizerChart string `json:"optimizerChart"`
}

// DefaultBindings returns the ids used by the stock dashboard markup.
func DefaultBindings() Bindings {
	return Bindings{
		ScreenerForm:   "screenerForm",
		ScreenerResult: "screenerResult",
		ResultBlock:    "resultBlock",
		WeightsData:    "onClickWeightsData",
		WeightsDisplay: "onClickDisplay",
		OptimizerChart: "optimizerChart",
	}
}

// IDs lists every bound element id.
func (b Bindings) IDs() []string {
	return []string{b.ScreenerForm, b.ScreenerResult, b.ResultBlock, b.WeightsData, b.WeightsDisplay, b.OptimizerChart}
}

// IsChartMount reports whether id may host a chart. Result mounts and forms
// belong to the controllers and never do.
func (b Bindings) IsChartMount(id string) bool {
	return id != "" && id == b.OptimizerChart
}

// Check verifies that every bound id exists on the page.
func (b Bindings) Check(p *Page) error {
	var errs []error
	for _, id := range b.IDs() {
		if !p.Has(id) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrMountNotFound, id))
		}
	}
	return errors.Join(errs...)
}
