package chart

import (
	"fmt"
	"slices"
	"strconv"
)

// Fixed display options shared by the builders.
const (
	candleDown   = "#ff2626"
	candleUp     = "#03F71B"
	varBandColor = "#ff9999"
	varBarColor  = "#99c2ff"

	// ValueAtRiskTitle is the fixed title of the VaR histogram.
	ValueAtRiskTitle = "Value At Risk 95%"
	// FrontierSeriesName names the efficient frontier line.
	FrontierSeriesName = "Efficient Frontier"
	// VolumeSeriesName names the volume bars under a stock chart.
	VolumeSeriesName = "Volume"
)

// Inputs carries the raw inputs of every chart kind; Build reads the fields
// that belong to the requested kind.
type Inputs struct {
	Title     string `json:"title,omitempty"`
	StockName string `json:"stockName,omitempty"`

	OHLC   []OHLC  `json:"ohlc,omitempty"`
	Volume []Point `json:"volume,omitempty"`

	Series []Series `json:"series,omitempty"`

	Data        []float64 `json:"data,omitempty"`
	ValueAtRisk float64   `json:"valueAtRisk,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	VaRPosition float64   `json:"varPosition,omitempty"`
	EndPosition float64   `json:"endPosition,omitempty"`

	Frontier []Point        `json:"frontier,omitempty"`
	Scatter  []ScatterPoint `json:"scatter,omitempty"`
}

// Build dispatches to the builder of kind. onClick is only used by the
// optimizer chart and may be nil.
func Build(kind Kind, in Inputs, onClick *PointClickHandler) (*Config, error) {
	switch kind {
	case KindStock:
		return StockParams(in.StockName, in.Title, in.OHLC, in.Volume), nil
	case KindPortfolio:
		return PortfolioParams(in.Title, in.Series), nil
	case KindValueAtRisk:
		return ValueAtRiskParams(in.Data, in.ValueAtRisk, in.Categories, in.VaRPosition, in.EndPosition), nil
	case KindOptimizer:
		return OptimizerParams(in.Title, in.Frontier, in.Scatter, onClick), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// StockParams builds a candlestick chart with a volume pane below it.
func StockParams(stockName, title string, ohlc []OHLC, volume []Point) *Config {
	return &Config{
		Series: []Series{
			{
				Type: "candlestick",
				Name: stockName,
				Data: slices.Clone(ohlc),
			},
			{
				Type:  "column",
				Name:  VolumeSeriesName,
				Data:  slices.Clone(volume),
				YAxis: ptr(1),
			},
		},
		Scrollbar: &Toggle{Enabled: false},
		PlotOptions: &PlotOptions{
			Series: &SeriesPlotOptions{TurboThreshold: 0},
			Candlestick: &CandlestickOptions{
				Color:   candleDown,
				UpColor: candleUp,
				Tooltip: &Tooltip{ValueDecimals: ptr(2)},
			},
		},
		RangeSelector: &RangeSelector{Selected: ptr(4)},
		Title:         &Title{Text: title},
		YAxis: []YAxis{
			{
				Labels: &AxisLabels{Align: "left"},
				Height: "80%",
				Resize: &Toggle{Enabled: true},
			},
			{
				Labels: &AxisLabels{Align: "left"},
				Top:    "80%",
				Height: "20%",
				Offset: ptr(0),
			},
		},
		Tooltip: &Tooltip{
			Shape:       "square",
			HeaderShape: "callout",
			BorderWidth: ptr(0),
			Shadow:      ptr(false),
		},
		Responsive: &Responsive{
			Rules: []ResponsiveRule{{
				Condition: Condition{MaxWidth: 800},
				ChartOptions: &Config{
					RangeSelector: &RangeSelector{InputEnabled: ptr(false)},
				},
			}},
		},
	}
}

// PortfolioParams builds the portfolio history chart. series is used as given.
func PortfolioParams(title string, series []Series) *Config {
	return &Config{
		Chart:         &ChartOptions{ZoomType: "x"},
		RangeSelector: &RangeSelector{Selected: ptr(5)},
		Navigator:     &Toggle{Enabled: false},
		Scrollbar:     &Toggle{Enabled: false},
		Title:         &Title{Text: title},
		Series:        slices.Clone(series),
		YAxis:         []YAxis{{Offset: ptr(30)}},
	}
}

// ValueAtRiskParams builds the P&L histogram with the VaR tail highlighted
// between varPosition and endPosition on the category axis.
func ValueAtRiskParams(data []float64, valueAtRisk float64, categories []string, varPosition, endPosition float64) *Config {
	return &Config{
		Chart: &ChartOptions{ZoomType: "x"},
		Title: &Title{Text: ValueAtRiskTitle},
		PlotOptions: &PlotOptions{
			Column: &ColumnOptions{},
		},
		XAxis: &XAxis{
			Categories: slices.Clone(categories),
			PlotBands: []PlotBand{{
				From:  varPosition,
				To:    endPosition,
				Color: varBandColor,
				Label: &Label{
					Text:  VaRLabel(valueAtRisk),
					Align: "left",
					X:     30,
					Y:     50,
					Style: &Style{FontSize: 12, FontWeight: "bold"},
				},
			}},
		},
		YAxis: []YAxis{{
			Labels: &AxisLabels{Align: "left"},
			Resize: &Toggle{Enabled: true},
		}},
		Series: []Series{{
			Type:  "column",
			Data:  slices.Clone(data),
			Color: varBarColor,
		}},
	}
}

// VaRLabel formats the plot band label of the VaR chart.
func VaRLabel(valueAtRisk float64) string {
	return "VaR 95%: " + strconv.FormatFloat(valueAtRisk, 'f', -1, 64) + " EUR"
}

// OptimizerParams builds the efficient frontier chart with the candidate
// portfolios as a scatter cloud. onClick, when set, is attached to the scatter
// points; the handler value is copied so the caller may reuse it.
func OptimizerParams(title string, frontier []Point, scatter []ScatterPoint, onClick *PointClickHandler) *Config {
	points := make([]ScatterPoint, len(scatter))
	for i, p := range scatter {
		p.Weights = slices.Clone(p.Weights)
		points[i] = p
	}
	if scatter == nil {
		points = nil
	}

	cloud := Series{
		Type:    "scatter",
		Opacity: ptr(0.5),
		Tooltip: &Tooltip{HeaderFormat: "{point.key}<br>"},
		Marker:  &Marker{Symbol: "circle"},
		Data:    points,
	}
	if onClick != nil {
		h := *onClick
		cloud.Point = &PointOptions{Events: PointEvents{Click: &h}}
	}

	return &Config{
		Chart:  &ChartOptions{Type: "spline", ZoomType: "x"},
		Legend: &Toggle{Enabled: false},
		Title:  &Title{Text: title},
		Series: []Series{
			{
				Type: "line",
				Name: FrontierSeriesName,
				Data: slices.Clone(frontier),
			},
			cloud,
		},
	}
}
