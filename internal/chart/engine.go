package chart

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"sync"

	"github.com/rs/zerolog"
)

// Mounter replaces the content of a mount point.
type Mounter interface {
	Replace(id, fragment string) error
}

// HTMLEngine renders configurations as a chart container carrying the JSON
// config for the browser bootstrap, and remembers the live config of every
// mount so point clicks can be routed back through it.
type HTMLEngine struct {
	page Mounter
	log  zerolog.Logger

	mu   sync.RWMutex
	live map[string]*Config
}

// NewHTMLEngine creates an engine writing into page.
func NewHTMLEngine(page Mounter, log zerolog.Logger) *HTMLEngine {
	return &HTMLEngine{
		page: page,
		log:  log.With().Str("component", "chart_engine").Logger(),
		live: make(map[string]*Config),
	}
}

// Chart mounts cfg as a plain chart.
func (e *HTMLEngine) Chart(mountID string, cfg *Config) error {
	return e.mount(mountID, ConstructorChart, cfg)
}

// StockChart mounts cfg as a time-series stock chart.
func (e *HTMLEngine) StockChart(mountID string, cfg *Config) error {
	return e.mount(mountID, ConstructorStockChart, cfg)
}

// Mounted returns the live config at mountID.
func (e *HTMLEngine) Mounted(mountID string) (*Config, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cfg, ok := e.live[mountID]
	return cfg, ok
}

// Click dispatches a point click to the chart mounted at mountID.
func (e *HTMLEngine) Click(ctx context.Context, mountID string, seriesIndex, pointIndex int) error {
	cfg, ok := e.Mounted(mountID)
	if !ok {
		return fmt.Errorf("%w at %q", ErrNotMounted, mountID)
	}
	return cfg.FirePointClick(ctx, seriesIndex, pointIndex)
}

func (e *HTMLEngine) mount(mountID string, ctor Constructor, cfg *Config) error {
	fragment, err := Fragment(mountID, ctor, cfg)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.page.Replace(mountID, fragment); err != nil {
		return fmt.Errorf("mount %s chart: %w", ctor, err)
	}
	e.live[mountID] = cfg

	e.log.Debug().
		Str("mount", mountID).
		Str("constructor", string(ctor)).
		Int("series", len(cfg.Series)).
		Msg("chart mounted")
	return nil
}

// Fragment renders the chart container markup. encoding/json escapes <, > and
// & so the config cannot terminate the script element.
func Fragment(mountID string, ctor Constructor, cfg *Config) (string, error) {
	body, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode chart config: %w", err)
	}
	return fmt.Sprintf(`<div class="hc-chart" data-constructor="%s" data-mount="%s"><script type="application/json">%s</script></div>`,
		html.EscapeString(string(ctor)), html.EscapeString(mountID), body), nil
}
