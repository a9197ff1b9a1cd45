package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"organigram/internal/codec"
	"organigram/internal/domain"
	"organigram/internal/service"
)

// ChartHandler handles chart API requests
type ChartHandler struct {
	svc *service.ChartService
	log logrus.FieldLogger
}

// NewChartHandler creates a new chart handler
func NewChartHandler(svc *service.ChartService, log logrus.FieldLogger) *ChartHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ChartHandler{svc: svc, log: log}
}

// Register adds the chart routes to mux
func (h *ChartHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/chart", h.GetChart)
	mux.HandleFunc("GET /api/agents/{id}", h.GetAgent)
	mux.HandleFunc("GET /api/containers/attribute", h.GetAttribute)
	mux.HandleFunc("GET /api/warnings", h.GetWarnings)
	mux.HandleFunc("GET /api/export/{format}", h.Export)
	mux.HandleFunc("POST /api/rebuild", h.Rebuild)
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AttributeResponse answers an inherited attribute query
type AttributeResponse struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// WarningsResponse lists the warnings of one run
type WarningsResponse struct {
	RunID    string                     `json:"run_id"`
	Warnings []domain.Warning           `json:"warnings"`
	Counts   map[domain.WarningKind]int `json:"counts"`
}

// RebuildResponse summarizes a run started through the API
type RebuildResponse struct {
	RunID    string `json:"run_id"`
	Agents   int    `json:"agents"`
	Warnings int    `json:"warnings"`
}

// GetChart returns the current chart view
func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	res, ok := h.current(w)
	if !ok {
		return
	}
	h.writeJSON(w, res.View, http.StatusOK)
}

// GetAgent returns one agent by numeric id
func (h *ChartHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, "Invalid agent ID", err.Error(), http.StatusBadRequest)
		return
	}

	node, err := h.svc.Agent(id)
	switch {
	case errors.Is(err, service.ErrNoResult):
		h.writeError(w, "Chart not ready", err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, domain.ErrUnknownAgent):
		h.writeError(w, "Not found", err.Error(), http.StatusNotFound)
	case err != nil:
		h.log.WithError(err).Error("failed to get agent")
		h.writeError(w, "Failed to get agent", err.Error(), http.StatusInternalServerError)
	default:
		h.writeJSON(w, node, http.StatusOK)
	}
}

// GetAttribute resolves an inherited container attribute
func (h *ChartHandler) GetAttribute(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	name := r.URL.Query().Get("name")
	if path == "" || name == "" {
		h.writeError(w, "Invalid query", "path and name are required", http.StatusBadRequest)
		return
	}

	value, found, err := h.svc.AttributeValue(path, name)
	if err != nil {
		h.writeError(w, "Chart not ready", err.Error(), http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, AttributeResponse{Path: path, Name: name, Value: value, Found: found}, http.StatusOK)
}

// GetWarnings returns the warnings of the current run
func (h *ChartHandler) GetWarnings(w http.ResponseWriter, r *http.Request) {
	res, ok := h.current(w)
	if !ok {
		return
	}

	warnings := res.Warnings()
	if warnings == nil {
		warnings = []domain.Warning{}
	}
	kind := r.URL.Query().Get("kind")
	if kind != "" {
		filtered := make([]domain.Warning, 0, len(warnings))
		for _, wn := range warnings {
			if string(wn.Kind) == kind {
				filtered = append(filtered, wn)
			}
		}
		warnings = filtered
	}

	h.writeJSON(w, WarningsResponse{
		RunID:    res.RunID,
		Warnings: warnings,
		Counts:   domain.CountWarnings(res.Warnings()),
	}, http.StatusOK)
}

// Export writes the current chart in the requested format
func (h *ChartHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	exp, err := codec.ExporterFor(format)
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	// Buffer so that a failed export can still produce an error reply
	var buf bytes.Buffer
	if err := h.svc.Export(format, &buf); err != nil {
		if errors.Is(err, service.ErrNoResult) {
			h.writeError(w, "Chart not ready", err.Error(), http.StatusServiceUnavailable)
			return
		}
		h.log.WithError(err).WithField("format", format).Error("failed to export chart")
		h.writeError(w, "Failed to export chart", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", exp.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=organigram."+exp.Format())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.log.WithError(err).Warn("failed to write export")
	}
}

// Rebuild runs the pipeline again and returns the new run summary
func (h *ChartHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Build(r.Context())
	if err != nil {
		h.writeError(w, "Rebuild failed", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, RebuildResponse{
		RunID:    res.RunID,
		Agents:   res.Stats.Agents,
		Warnings: len(res.Warnings()),
	}, http.StatusOK)
}

// Helper methods

func (h *ChartHandler) current(w http.ResponseWriter) (*service.Result, bool) {
	res, err := h.svc.Current()
	if err != nil {
		h.writeError(w, "Chart not ready", err.Error(), http.StatusServiceUnavailable)
		return nil, false
	}
	return res, true
}

func (h *ChartHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.WithError(err).Warn("failed to encode JSON")
	}
}

func (h *ChartHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}
