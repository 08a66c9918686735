package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/internal/scanconfig"
	"github.com/wonny/pocscan/internal/storage"
	"github.com/wonny/pocscan/internal/universe"
	"github.com/wonny/pocscan/pkg/logger"
)

// ScanService runs scans and remembers the latest one
type ScanService interface {
	Run(ctx context.Context, cond contracts.ScanConditions) (*contracts.ScanResult, error)
	Latest(ctx context.Context) (*contracts.ScanResult, error)
	SourceName() string
	Registry() *universe.Registry
}

// RunLister lists persisted scan runs
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]storage.RunSummary, error)
}

// ScanHandler handles scan API endpoints
// ⭐ SSOT: 스캔 API 핸들러는 이 구조체에서만
type ScanHandler struct {
	service ScanService
	presets *scanconfig.Config
	runs    RunLister
	logger  *logger.Logger
}

// NewScanHandler creates a new scan handler; runs may be nil
func NewScanHandler(service ScanService, presets *scanconfig.Config, runs RunLister, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		service: service,
		presets: presets,
		runs:    runs,
		logger:  log.Component("scan_handler"),
	}
}

// 쿼리 파라미터 → 조건 필드
var conditionParams = []struct {
	name  string
	field func(c *contracts.ScanConditions) *float64
}{
	{"pocTolerance", func(c *contracts.ScanConditions) *float64 { return &c.POCTolerancePct }},
	{"bounceStrength", func(c *contracts.ScanConditions) *float64 { return &c.BounceStrengthPct }},
	{"volumeMultiplier", func(c *contracts.ScanConditions) *float64 { return &c.VolumeMultiplier }},
	{"minPrice", func(c *contracts.ScanConditions) *float64 { return &c.MinPrice }},
	{"maxPrice", func(c *contracts.ScanConditions) *float64 { return &c.MaxPrice }},
	{"minTradeValue", func(c *contracts.ScanConditions) *float64 { return &c.MinTradeValueMillions }},
}

// parseConditions starts from the requested preset and applies overrides
// (query parameters for GET, JSON body for POST)
func (h *ScanHandler) parseConditions(r *http.Request) (contracts.ScanConditions, error) {
	query := r.URL.Query()

	cond, err := h.presets.Preset(query.Get("preset"))
	if err != nil {
		return cond, err
	}

	for _, p := range conditionParams {
		raw := query.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cond, fmt.Errorf("%w: %s=%q is not a number", contracts.ErrInvalidConditions, p.name, raw)
		}
		*p.field(&cond) = v
	}

	if r.Method == http.MethodPost && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&cond); err != nil {
			return cond, fmt.Errorf("%w: invalid JSON body: %v", contracts.ErrInvalidConditions, err)
		}
	}

	return cond, nil
}

// Scan runs a scan with the requested conditions
// GET|POST /api/scan?preset=standard&pocTolerance=2&bounceStrength=1&...
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	cond, err := h.parseConditions(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Run(r.Context(), cond)
	if err != nil {
		var verr scanconfig.ValidationError
		switch {
		case errors.Is(err, contracts.ErrInvalidConditions), errors.As(err, &verr):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.WithError(err).Error("Scan failed")
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Latest returns the most recent completed scan
// GET /api/scans/latest
func (h *ScanHandler) Latest(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Latest(r.Context())
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no scan has completed yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest scan")
		respondError(w, http.StatusInternalServerError, "Failed to load latest scan")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Runs lists persisted scan runs
// GET /api/scans?limit=20
func (h *ScanHandler) Runs(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "scan history requires DATABASE_URL")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}

	runs, err := h.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list scan runs")
		respondError(w, http.StatusInternalServerError, "Failed to list scan runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    runs,
	})
}

// Universe returns the scanned instruments
// GET /api/universe
func (h *ScanHandler) Universe(w http.ResponseWriter, r *http.Request) {
	reg := h.service.Registry()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"dataSource": h.service.SourceName(),
		"count":      reg.Len(),
		"data":       reg.Instruments(),
	})
}

// Presets returns the named condition presets
// GET /api/presets
func (h *ScanHandler) Presets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"default": h.presets.Default,
		"data":    h.presets.Presets,
	})
}
