package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/pynvestor/internal/backend"
	"github.com/seenimoa/pynvestor/internal/chart"
	"github.com/seenimoa/pynvestor/internal/view"
	"github.com/seenimoa/pynvestor/web"
)

// stockMount is the mount id of the chart detail page.
const stockMount = "stockChart"

// handleChartPage renders the price chart of one instrument, the target of the
// ISIN links in the screener grid.
func (s *Server) handleChartPage(w http.ResponseWriter, r *http.Request) {
	isin := r.URL.Query().Get("isin")
	if isin == "" {
		http.Error(w, "isin is required", http.StatusBadRequest)
		return
	}

	data, err := s.client.StockData(r.Context(), isin)
	if err != nil {
		s.log.Warn().Err(err).Str("isin", isin).Msg("stock data")
		status := http.StatusBadGateway
		var se *backend.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			status = http.StatusNotFound
		}
		http.Error(w, "price history unavailable for "+isin, status)
		return
	}

	title := data.Title
	if title == "" {
		title = data.Name
	}
	markup, err := web.ChartPage(web.ChartPageData{Title: title, ISIN: isin, MountID: stockMount})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	page, err := view.NewPageFromHTML(markup)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	loader := chart.NewLoader(chart.NewHTMLEngine(page, s.log))
	if err := loader.LoadStock(stockMount, data.Name, title, data.OHLC, data.Volume); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out, err := page.HTML()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, out)
}

// handleLoadChart builds a chart from JSON inputs and mounts it on the
// dashboard. Only chart mounts are accepted; the result mounts belong to the
// controllers. Optimizer charts get the weights drill-down attached.
func (s *Server) handleLoadChart(w http.ResponseWriter, r *http.Request) {
	kind := chart.Kind(chi.URLParam(r, "kind"))
	mountID := chi.URLParam(r, "mountID")

	if !s.bind.IsChartMount(mountID) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%q is not a chart mount", mountID))
		return
	}

	var in chart.Inputs
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := s.loader.Load(mountID, kind, in, s.clickHandler(kind))
	switch {
	case err == nil:
		// Weights shown for points of the previous chart no longer apply.
		if mountID == s.bind.OptimizerChart {
			s.optimizer.Reset()
		}
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: cfg})
	case errors.Is(err, chart.ErrUnknownKind):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, view.ErrMountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleChartParams returns the configuration a builder produces, without
// mounting it.
func (s *Server) handleChartParams(w http.ResponseWriter, r *http.Request) {
	kind := chart.Kind(chi.URLParam(r, "kind"))

	var in chart.Inputs
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := chart.Build(kind, in, s.clickHandler(kind))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"constructor": kind.Constructor(),
			"config":      cfg,
		},
	})
}

func (s *Server) clickHandler(kind chart.Kind) *chart.PointClickHandler {
	if kind == chart.KindOptimizer {
		return s.optimizer.PointClickHandler()
	}
	return nil
}
