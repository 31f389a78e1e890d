// Package api exposes report generation, point balances, mileage conversion,
// challenges and college battles over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/superdango/ecojourney"
	"github.com/superdango/ecojourney/internal/gamify"
	"github.com/superdango/ecojourney/internal/report"
)

// Generator produces daily reports.
type Generator interface {
	Generate(ctx context.Context, userID string, day time.Time, activities []ecojourney.Activity) (*report.Result, error)
}

// Store is satisfied by store.Store.
type Store interface {
	ecojourney.Store
	ListMileage(ctx context.Context, userID string) ([]ecojourney.MileageRequest, error)
	SaveChallenge(ctx context.Context, challenge gamify.Challenge) error
	Challenge(ctx context.Context, challengeID string) (gamify.Challenge, error)
	ListChallenges(ctx context.Context) ([]gamify.Challenge, error)
	UpdateProgress(ctx context.Context, userID, challengeID string, update func(gamify.Progress) (gamify.Progress, error)) (gamify.Progress, error)
	SaveBattle(ctx context.Context, battle gamify.Battle) error
	Battle(ctx context.Context, battleID string) (gamify.Battle, error)
	UpdateBattle(ctx context.Context, battleID string, update func(gamify.Battle) (gamify.Battle, error)) (gamify.Battle, error)
}

type Handler struct {
	generator Generator
	store     Store
}

func NewHandler(generator Generator, store Store) *Handler {
	return &Handler{generator: generator, store: store}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /reports", h.createReport)
	mux.HandleFunc("GET /reports", h.listReports)
	mux.HandleFunc("GET /points", h.points)
	mux.HandleFunc("POST /mileage", h.convertMileage)
	mux.HandleFunc("GET /mileage", h.listMileage)
	mux.HandleFunc("GET /challenges", h.listChallenges)
	mux.HandleFunc("POST /challenges", h.createChallenge)
	mux.HandleFunc("POST /challenges/{id}/progress", h.advanceChallenge)
	mux.HandleFunc("POST /battles", h.createBattle)
	mux.HandleFunc("GET /battles/{id}", h.battle)
	mux.HandleFunc("POST /battles/{id}/join", h.joinBattle)
	mux.HandleFunc("GET /healthz", healthz)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) createReport(w http.ResponseWriter, r *http.Request) {
	req := new(CreateReportRequest)
	if err := decode(r, req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	day := time.Now()
	if req.Day != "" {
		day, _ = time.Parse(time.DateOnly, req.Day)
	}

	result, err := h.generator.Generate(r.Context(), req.UserID, day, req.activities())
	if result == nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := CreateReportResponse{
		Snapshot: newSnapshotResponse(result.Snapshot),
		Balance:  result.Balance,
	}
	if result.Narrative != nil {
		resp.Analysis = result.Narrative.Analysis
		resp.Suggestions = result.Narrative.Suggestions
	}
	if err != nil {
		slog.Warn("report generated with collaborator failures", "user_id", req.UserID, "err", err.Error())
		resp.Warnings = []string{err.Error()}
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	snapshots, err := h.store.ListReports(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := make([]SnapshotResponse, len(snapshots))
	for i, snapshot := range snapshots {
		resp[i] = newSnapshotResponse(snapshot)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) points(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	balance, err := h.store.Points(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, PointsResponse{UserID: userID, Balance: balance})
}

func (h *Handler) convertMileage(w http.ResponseWriter, r *http.Request) {
	req := new(MileageRequest)
	if err := decode(r, req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "user_id is required")
		return
	}

	request, err := gamify.ConvertMileage(r.Context(), h.store, req.UserID, req.Points)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newMileageResponse(request))
}

func (h *Handler) listMileage(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	requests, err := h.store.ListMileage(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := make([]MileageResponse, len(requests))
	for i, request := range requests {
		resp[i] = newMileageResponse(request)
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "err", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
