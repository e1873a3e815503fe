// Package chart builds Highcharts configuration objects for the dashboard
// widgets and loads them into mount points through a rendering Engine.
//
// Builders are pure: they splice caller data into a fixed set of display
// options without validating or reordering it. Input slices are copied so a
// Config never shares backing arrays with the caller or with another Config.
package chart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

var (
	ErrUnknownKind     = errors.New("unknown chart kind")
	ErrNoClickHandler  = errors.New("series has no point click handler")
	ErrPointNotFound   = errors.New("point not found")
	ErrNotMounted      = errors.New("no chart mounted")
	errScatterRequired = errors.New("series data is not a scatter point list")
)

// Constructor selects the engine entry point.
type Constructor string

const (
	ConstructorChart      Constructor = "chart"
	ConstructorStockChart Constructor = "stockChart"
)

// Kind identifies one of the dashboard chart variants.
type Kind string

const (
	KindStock       Kind = "stock"
	KindPortfolio   Kind = "portfolio"
	KindValueAtRisk Kind = "value_at_risk"
	KindOptimizer   Kind = "optimizer"
)

// Kinds lists every chart variant.
func Kinds() []Kind {
	return []Kind{KindStock, KindPortfolio, KindValueAtRisk, KindOptimizer}
}

// Constructor returns the engine entry point the kind is rendered with.
func (k Kind) Constructor() Constructor {
	switch k {
	case KindStock, KindPortfolio:
		return ConstructorStockChart
	default:
		return ConstructorChart
	}
}

// OHLC is a [time, open, high, low, close] quintuple.
type OHLC [5]float64

// Point is an [x, y] pair; x is a millisecond timestamp on time axes.
type Point [2]float64

// ScatterPoint is a candidate portfolio on the optimizer chart.
type ScatterPoint struct {
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Name    string    `json:"name,omitempty"`
	Weights []float64 `json:"weights"`
}

// Config is the engine-facing chart configuration.
type Config struct {
	Chart         *ChartOptions  `json:"chart,omitempty"`
	Title         *Title         `json:"title,omitempty"`
	Legend        *Toggle        `json:"legend,omitempty"`
	RangeSelector *RangeSelector `json:"rangeSelector,omitempty"`
	Navigator     *Toggle        `json:"navigator,omitempty"`
	Scrollbar     *Toggle        `json:"scrollbar,omitempty"`
	PlotOptions   *PlotOptions   `json:"plotOptions,omitempty"`
	XAxis         *XAxis         `json:"xAxis,omitempty"`
	YAxis         []YAxis        `json:"yAxis,omitempty"`
	Tooltip       *Tooltip       `json:"tooltip,omitempty"`
	Responsive    *Responsive    `json:"responsive,omitempty"`
	Series        []Series       `json:"series,omitempty"`
}

type ChartOptions struct {
	Type     string `json:"type,omitempty"`
	ZoomType string `json:"zoomType,omitempty"`
}

type Title struct {
	Text string `json:"text"`
}

type Toggle struct {
	Enabled bool `json:"enabled"`
}

type RangeSelector struct {
	Selected     *int  `json:"selected,omitempty"`
	InputEnabled *bool `json:"inputEnabled,omitempty"`
}

type PlotOptions struct {
	Series      *SeriesPlotOptions  `json:"series,omitempty"`
	Candlestick *CandlestickOptions `json:"candlestick,omitempty"`
	Column      *ColumnOptions      `json:"column,omitempty"`
}

type SeriesPlotOptions struct {
	TurboThreshold int `json:"turboThreshold"`
}

type CandlestickOptions struct {
	Color   string   `json:"color"`
	UpColor string   `json:"upColor"`
	Tooltip *Tooltip `json:"tooltip,omitempty"`
}

type ColumnOptions struct {
	PointPadding float64 `json:"pointPadding"`
	BorderWidth  float64 `json:"borderWidth"`
	GroupPadding float64 `json:"groupPadding"`
	Shadow       bool    `json:"shadow"`
	ColorByPoint bool    `json:"colorByPoint"`
}

type XAxis struct {
	Categories []string   `json:"categories,omitempty"`
	PlotBands  []PlotBand `json:"plotBands,omitempty"`
}

type PlotBand struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Color string  `json:"color"`
	Label *Label  `json:"label,omitempty"`
}

type Label struct {
	Text  string `json:"text"`
	Align string `json:"align,omitempty"`
	X     int    `json:"x,omitempty"`
	Y     int    `json:"y,omitempty"`
	Style *Style `json:"style,omitempty"`
}

type Style struct {
	FontSize   int    `json:"fontSize,omitempty"`
	FontWeight string `json:"fontWeight,omitempty"`
}

type YAxis struct {
	Labels *AxisLabels `json:"labels,omitempty"`
	Height string      `json:"height,omitempty"`
	Top    string      `json:"top,omitempty"`
	Offset *int        `json:"offset,omitempty"`
	Resize *Toggle     `json:"resize,omitempty"`
}

type AxisLabels struct {
	Align string `json:"align"`
}

type Tooltip struct {
	Shape         string `json:"shape,omitempty"`
	HeaderShape   string `json:"headerShape,omitempty"`
	HeaderFormat  string `json:"headerFormat,omitempty"`
	BorderWidth   *int   `json:"borderWidth,omitempty"`
	Shadow        *bool  `json:"shadow,omitempty"`
	ValueDecimals *int   `json:"valueDecimals,omitempty"`
}

type Responsive struct {
	Rules []ResponsiveRule `json:"rules"`
}

type ResponsiveRule struct {
	Condition    Condition `json:"condition"`
	ChartOptions *Config   `json:"chartOptions"`
}

type Condition struct {
	MaxWidth int `json:"maxWidth"`
}

// Series is one plotted series. Data holds []OHLC, []Point, []float64 or
// []ScatterPoint as built; series decoded from JSON keep whatever shape the
// caller sent.
type Series struct {
	Type    string        `json:"type,omitempty"`
	Name    string        `json:"name,omitempty"`
	Data    any           `json:"data"`
	YAxis   *int          `json:"yAxis,omitempty"`
	Color   string        `json:"color,omitempty"`
	Opacity *float64      `json:"opacity,omitempty"`
	Tooltip *Tooltip      `json:"tooltip,omitempty"`
	Marker  *Marker       `json:"marker,omitempty"`
	Point   *PointOptions `json:"point,omitempty"`
}

type Marker struct {
	Symbol string `json:"symbol"`
}

type PointOptions struct {
	Events PointEvents `json:"events"`
}

type PointEvents struct {
	Click *PointClickHandler `json:"click,omitempty"`
}

// PointClickFunc handles a click on a scatter point.
type PointClickFunc func(ctx context.Context, p ScatterPoint)

// PointClickHandler is a named click callback. It marshals as its name so the
// browser bootstrap can route the click back to the server.
type PointClickHandler struct {
	Name string
	Fn   PointClickFunc
}

func (h PointClickHandler) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Name)
}

// FirePointClick invokes the click handler registered on a series with the
// point at pointIndex.
func (c *Config) FirePointClick(ctx context.Context, seriesIndex, pointIndex int) error {
	if seriesIndex < 0 || seriesIndex >= len(c.Series) {
		return fmt.Errorf("%w: series %d", ErrPointNotFound, seriesIndex)
	}
	s := c.Series[seriesIndex]
	if s.Point == nil || s.Point.Events.Click == nil || s.Point.Events.Click.Fn == nil {
		return fmt.Errorf("%w: series %d", ErrNoClickHandler, seriesIndex)
	}

	points, ok := s.Data.([]ScatterPoint)
	if !ok {
		return fmt.Errorf("series %d: %w", seriesIndex, errScatterRequired)
	}
	if pointIndex < 0 || pointIndex >= len(points) {
		return fmt.Errorf("%w: series %d point %d", ErrPointNotFound, seriesIndex, pointIndex)
	}

	p := points[pointIndex]
	p.Weights = slices.Clone(p.Weights)
	s.Point.Events.Click.Fn(ctx, p)
	return nil
}

func ptr[T any](v T) *T { return &v }
