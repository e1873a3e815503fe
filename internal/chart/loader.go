package chart

// Engine renders a configuration at a mount point.
type Engine interface {
	Chart(mountID string, cfg *Config) error
	StockChart(mountID string, cfg *Config) error
}

// Loader builds chart configurations and hands them to an Engine. Mount ids
// are not checked here; the engine reports unknown mounts.
type Loader struct {
	engine Engine
}

// NewLoader creates a Loader rendering through engine.
func NewLoader(engine Engine) *Loader {
	return &Loader{engine: engine}
}

// LoadStock renders an OHLC + volume chart.
func (l *Loader) LoadStock(mountID, stockName, title string, ohlc []OHLC, volume []Point) error {
	return l.engine.StockChart(mountID, StockParams(stockName, title, ohlc, volume))
}

// LoadPortfolio renders the portfolio history chart.
func (l *Loader) LoadPortfolio(mountID, title string, series []Series) error {
	return l.engine.StockChart(mountID, PortfolioParams(title, series))
}

// LoadValueAtRisk renders the VaR histogram.
func (l *Loader) LoadValueAtRisk(mountID string, data []float64, valueAtRisk float64, categories []string, varPosition, endPosition float64) error {
	return l.engine.Chart(mountID, ValueAtRiskParams(data, valueAtRisk, categories, varPosition, endPosition))
}

// LoadOptimizer renders the efficient frontier chart.
func (l *Loader) LoadOptimizer(mountID, title string, frontier []Point, scatter []ScatterPoint, onClick *PointClickHandler) error {
	return l.engine.Chart(mountID, OptimizerParams(title, frontier, scatter, onClick))
}

// Load builds kind from in and renders it with the matching constructor.
func (l *Loader) Load(mountID string, kind Kind, in Inputs, onClick *PointClickHandler) (*Config, error) {
	cfg, err := Build(kind, in, onClick)
	if err != nil {
		return nil, err
	}
	if kind.Constructor() == ConstructorStockChart {
		err = l.engine.StockChart(mountID, cfg)
	} else {
		err = l.engine.Chart(mountID, cfg)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
