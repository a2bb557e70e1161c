package httpserver

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/synthlab/alphalog/internal/positionrisk"
	"github.com/synthlab/alphalog/internal/probability"
	"github.com/synthlab/alphalog/internal/tracker"
	"github.com/synthlab/alphalog/internal/trends"
	"github.com/synthlab/alphalog/pkg/types"
	"go.uber.org/zap"
)

// SnapshotLoader reads stored snapshots, oldest first.
type SnapshotLoader interface {
	LoadAll() ([]*types.Snapshot, error)
}

// APIHandler serves the query API.
type APIHandler struct {
	engine     *probability.Engine
	risk       *positionrisk.Analyzer
	tracker    *tracker.Tracker
	trends     *trends.Analyzer
	snapshots  SnapshotLoader
	assets     []string
	hourlyPcts map[string]bool
	logger     *zap.Logger
}

// NewAPIHandler creates a new API handler from the server config.
func NewAPIHandler(cfg *Config, logger *zap.Logger) *APIHandler {
	hourly := make(map[string]bool, len(cfg.Percentiles1hAssets))
	for _, a := range cfg.Percentiles1hAssets {
		hourly[a] = true
	}
	return &APIHandler{
		engine:     cfg.Engine,
		risk:       cfg.RiskAnalyzer,
		tracker:    cfg.Tracker,
		trends:     cfg.Trends,
		snapshots:  cfg.Snapshots,
		assets:     cfg.Assets,
		hourlyPcts: hourly,
		logger:     logger,
	}
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error             string            `json:"error"`
	Detail            string            `json:"detail,omitempty"`
	ValidAssets       []string          `json:"valid_assets,omitempty"`
	SupportedHorizons []string          `json:"supported_horizons,omitempty"`
	Errors            []ValidationError `json:"errors,omitempty"`
}

// ProbabilityRequest asks for the probability of finishing above lower,
// below upper, or between both.
type ProbabilityRequest struct {
	Asset   string   `json:"asset" validate:"required"`
	Lower   *float64 `json:"lower" validate:"omitempty,gt=0"`
	Upper   *float64 `json:"upper" validate:"omitempty,gt=0"`
	Horizon string   `json:"horizon" validate:"oneof=1h 24h"`
}

// PositionRiskRequest describes a leveraged position.
type PositionRiskRequest struct {
	Asset      string   `json:"asset" validate:"required"`
	EntryPrice float64  `json:"entry_price" validate:"gt=0"`
	Leverage   float64  `json:"leverage" validate:"gte=1,lte=200"`
	Direction  string   `json:"direction" validate:"required,oneof=LONG SHORT"`
	TakeProfit *float64 `json:"take_profit" validate:"omitempty,gt=0"`
	StopLoss   *float64 `json:"stop_loss" validate:"omitempty,gt=0"`
	Horizon    string   `json:"horizon" validate:"oneof=1h 24h"`
}

// ProbabilityResponse is a single-bound answer with the forecast cone.
type ProbabilityResponse struct {
	*probability.Result
	Cone *probability.Cone `json:"cone"`
}

// RangeProbabilityResponse is a two-bound answer with the forecast cone.
type RangeProbabilityResponse struct {
	*probability.RangeResult
	Cone *probability.Cone `json:"cone"`
}

// AssetInfo lists an asset's supported horizons and spot price.
type AssetInfo struct {
	Symbol       string   `json:"symbol"`
	CurrentPrice *float64 `json:"current_price"`
	Horizons     []string `json:"horizons"`
}

// EdgesResponse lists open and recently resolved edges.
type EdgesResponse struct {
	OpenEdges     []tracker.Record `json:"open_edges"`
	ResolvedEdges []tracker.Record `json:"resolved_edges"`
}

func normalizeHorizon(h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return types.Horizon24h
	}
	return h
}

// horizonsFor returns the horizons published for an asset.
func (h *APIHandler) horizonsFor(asset string) []string {
	if h.hourlyPcts[asset] {
		return []string{types.Horizon1h, types.Horizon24h}
	}
	return []string{types.Horizon24h}
}

// checkAssetHorizon writes a 400 and returns false for unknown assets or
// unsupported horizons.
func (h *APIHandler) checkAssetHorizon(w http.ResponseWriter, asset, horizon string) bool {
	if !slices.Contains(h.assets, asset) {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:       "invalid asset '" + asset + "'",
			ValidAssets: h.assets,
		})
		return false
	}
	supported := h.horizonsFor(asset)
	if !slices.Contains(supported, horizon) {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:             "asset '" + asset + "' does not support horizon '" + horizon + "'",
			SupportedHorizons: supported,
		})
		return false
	}
	return true
}

// decodeAndValidate reads a JSON body into req and validates it.
func (h *APIHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any, normalize func()) bool {
	err := json.NewDecoder(r.Body).Decode(req)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Detail: err.Error()})
		return false
	}
	normalize()
	err = validate.StructCtx(r.Context(), req)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Errors: validationErrors(err)})
		return false
	}
	return true
}

// HandleAssets handles GET /api/assets.
func (h *APIHandler) HandleAssets(w http.ResponseWriter, r *http.Request) {
	out := make([]AssetInfo, 0, len(h.assets))
	for _, asset := range h.assets {
		info := AssetInfo{Symbol: asset, Horizons: h.horizonsFor(asset)}
		d, err := h.engine.PercentileData(r.Context(), asset, types.Horizon24h)
		if err == nil {
			price := d.CurrentPrice
			info.CurrentPrice = &price
		} else {
			h.logger.Debug("asset-price-unavailable", zap.String("asset", asset), zap.Error(err))
		}
		out = append(out, info)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"assets": out})
}

// HandleProbability handles POST /api/probability.
func (h *APIHandler) HandleProbability(w http.ResponseWriter, r *http.Request) {
	var req ProbabilityRequest
	ok := h.decodeAndValidate(w, r, &req, func() {
		req.Asset = strings.ToUpper(strings.TrimSpace(req.Asset))
		req.Horizon = normalizeHorizon(req.Horizon)
	})
	if !ok {
		return
	}
	if req.Lower == nil && req.Upper == nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "at least one of 'lower' or 'upper' is required"})
		return
	}
	if req.Lower != nil && req.Upper != nil && *req.Lower >= *req.Upper {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "'lower' must be less than 'upper'"})
		return
	}
	if !h.checkAssetHorizon(w, req.Asset, req.Horizon) {
		return
	}

	d, err := h.engine.PercentileData(r.Context(), req.Asset, req.Horizon)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	cone := &probability.Cone{
		Asset:        d.Asset,
		CurrentPrice: d.CurrentPrice,
		Horizon:      d.Horizon,
		Points:       probability.BuildCone(d, probability.DefaultConePoints),
	}

	switch {
	case req.Lower != nil && req.Upper != nil:
		res, err := h.engine.BetweenData(d, *req.Lower, *req.Upper, probability.LastTimepoint)
		if err != nil {
			h.writeUpstreamError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, RangeProbabilityResponse{RangeResult: res, Cone: cone})
	case req.Lower != nil:
		res, err := h.engine.AboveData(d, *req.Lower, probability.LastTimepoint)
		if err != nil {
			h.writeUpstreamError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, ProbabilityResponse{Result: res, Cone: cone})
	default:
		res, err := h.engine.BelowData(d, *req.Upper, probability.LastTimepoint)
		if err != nil {
			h.writeUpstreamError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, ProbabilityResponse{Result: res, Cone: cone})
	}
}

// HandlePositionRisk handles POST /api/position-risk.
func (h *APIHandler) HandlePositionRisk(w http.ResponseWriter, r *http.Request) {
	var req PositionRiskRequest
	ok := h.decodeAndValidate(w, r, &req, func() {
		req.Asset = strings.ToUpper(strings.TrimSpace(req.Asset))
		req.Direction = strings.ToUpper(strings.TrimSpace(req.Direction))
		req.Horizon = normalizeHorizon(req.Horizon)
	})
	if !ok {
		return
	}
	if !h.checkAssetHorizon(w, req.Asset, req.Horizon) {
		return
	}

	direction, err := positionrisk.ParseDirection(req.Direction)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	analysis, err := h.risk.Analyze(r.Context(), positionrisk.Position{
		Asset:      req.Asset,
		EntryPrice: req.EntryPrice,
		Leverage:   req.Leverage,
		Direction:  direction,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
		Horizon:    req.Horizon,
	})
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}

	h.logger.Debug("position-risk-served",
		zap.String("asset", req.Asset),
		zap.Float64("leverage", req.Leverage),
		zap.Int("risk-score", analysis.RiskScore.Score))
	h.writeJSON(w, http.StatusOK, analysis)
}

// HandleCone handles GET /api/cone/{asset}?horizon=24h&points=50.
func (h *APIHandler) HandleCone(w http.ResponseWriter, r *http.Request) {
	asset := strings.ToUpper(chi.URLParam(r, "asset"))
	horizon := normalizeHorizon(r.URL.Query().Get("horizon"))
	if !h.checkAssetHorizon(w, asset, horizon) {
		return
	}

	points := probability.DefaultConePoints
	if raw := r.URL.Query().Get("points"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 2 {
			h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "points must be an integer of at least 2"})
			return
		}
		points = n
	}

	cone, err := h.engine.Cone(r.Context(), asset, horizon, points)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cone)
}

// HandleEdges handles GET /api/edges?limit=50.
func (h *APIHandler) HandleEdges(w http.ResponseWriter, r *http.Request) {
	limit := tracker.DefaultResolvedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	open, err := h.tracker.OpenEdges()
	if err != nil {
		h.writeInternalError(w, "edges-load-failed", err)
		return
	}
	resolved, err := h.tracker.ResolvedEdges(limit)
	if err != nil {
		h.writeInternalError(w, "edges-load-failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, EdgesResponse{OpenEdges: open, ResolvedEdges: resolved})
}

// HandleEdgeStats handles GET /api/edges/stats.
func (h *APIHandler) HandleEdgeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tracker.Stats()
	if err != nil {
		h.writeInternalError(w, "edge-stats-failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// HandleTrends handles GET /api/trends.
func (h *APIHandler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.snapshots.LoadAll()
	if err != nil {
		h.writeInternalError(w, "snapshots-load-failed", err)
		return
	}

	var resolved []tracker.Record
	if h.tracker != nil {
		resolved, err = h.tracker.ResolvedHistory()
		if err != nil {
			h.writeInternalError(w, "edges-load-failed", err)
			return
		}
	}
	h.writeJSON(w, http.StatusOK, h.trends.GenerateReport(snaps, resolved))
}

// writeUpstreamError maps query failures onto status codes.
func (h *APIHandler) writeUpstreamError(w http.ResponseWriter, err error) {
	var apiErr *types.APIError
	switch {
	case errors.Is(err, positionrisk.ErrInvalidPosition):
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.As(err, &apiErr):
		h.logger.Error("synth-api-error", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "synth api unavailable", Detail: err.Error()})
	case errors.Is(err, probability.ErrNoTimepoints), errors.Is(err, probability.ErrMalformedForecast):
		h.logger.Warn("forecast-unusable", zap.Error(err))
		h.writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "forecast unusable", Detail: err.Error()})
	default:
		h.writeInternalError(w, "query-failed", err)
	}
}

func (h *APIHandler) writeInternalError(w http.ResponseWriter, event string, err error) {
	h.logger.Error(event, zap.Error(err))
	h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		h.logger.Error("response-encode-failed", zap.Error(err))
	}
}
