package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/fscore/internal/report"
	"github.com/wonny/fscore/pkg/logger"
)

// ResultsHandler serves persisted scan artifacts
// ⭐ SSOT: 결과 파일 조회 API는 이 핸들러에서만
type ResultsHandler struct {
	dir    string
	logger *logger.Logger
}

// NewResultsHandler creates a handler over the artifact directory
func NewResultsHandler(dir string, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{dir: dir, logger: log}
}

// List returns the artifacts, newest first
// GET /api/results
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	artifacts, err := report.List(h.dir)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list artifacts")
		respondError(w, http.StatusInternalServerError, "Failed to list results")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(artifacts),
		"artifacts": artifacts,
	})
}

// Get returns the rows of one artifact
// GET /api/results/{name}?limit=N
func (h *ResultsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".csv") {
		respondError(w, http.StatusBadRequest, "Invalid artifact name")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	path := filepath.Join(h.dir, name)
	rows, total, err := readArtifact(path, name, limit)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			respondError(w, http.StatusNotFound, "Artifact not found")
			return
		}
		h.logger.WithError(err).WithField("name", name).Error("Failed to read artifact")
		respondError(w, http.StatusInternalServerError, "Failed to read artifact")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":  name,
		"total": total,
		"rows":  rows,
	})
}

// readArtifact decodes score rows or timing rows depending on the artifact kind
func readArtifact(path, name string, limit int) (interface{}, int, error) {
	if report.IsTimingArtifact(name) {
		var rows []*report.TimingRow
		if err := report.ReadCSV(path, &rows); err != nil {
			return nil, 0, err
		}
		total := len(rows)
		if limit > 0 && limit < total {
			rows = rows[:limit]
		}
		out := make([]interface{}, len(rows))
		for i, row := range rows {
			out[i] = row.ToTiming()
		}
		return out, total, nil
	}

	var rows []*report.ResultRow
	if err := report.ReadCSV(path, &rows); err != nil {
		return nil, 0, err
	}
	ranked := report.ToRanked(rows)
	total := len(ranked)
	if limit > 0 && limit < total {
		ranked = ranked[:limit]
	}
	return ranked, total, nil
}
