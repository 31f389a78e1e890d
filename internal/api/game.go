package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/superdango/ecojourney/internal/gamify"
	"github.com/superdango/ecojourney/internal/store"
)

func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrObjectNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, gamify.ErrInvalidPoints),
		errors.Is(err, gamify.ErrInsufficientPoints),
		errors.Is(err, gamify.ErrInvalidIncrement),
		errors.Is(err, gamify.ErrUnknownCollege),
		errors.Is(err, store.ErrNegativeBalance):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, gamify.ErrBattleClosed),
		errors.Is(err, gamify.ErrAlreadyJoined),
		errors.Is(err, gamify.ErrChallengeClosed):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// listChallenges returns the active challenges.
func (h *Handler) listChallenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := h.store.ListChallenges(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := make([]ChallengeResponse, 0, len(challenges))
	for _, challenge := range challenges {
		if challenge.Active {
			resp = append(resp, newChallengeResponse(challenge))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) createChallenge(w http.ResponseWriter, r *http.Request) {
	req := new(ChallengeRequest)
	if err := decode(r, req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	challenge := gamify.Challenge{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Kind:         req.Kind,
		Goal:         req.Goal,
		RewardPoints: req.RewardPoints,
		Active:       true,
	}
	if err := h.store.SaveChallenge(r.Context(), challenge); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, newChallengeResponse(challenge))
}

func (h *Handler) advanceChallenge(w http.ResponseWriter, r *http.Request) {
	req := new(ProgressRequest)
	if err := decode(r, req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "user_id is required")
		return
	}
	if req.Increment == 0 {
		req.Increment = 1
	}

	result, err := gamify.AdvanceChallenge(r.Context(), h.store, req.UserID, r.PathValue("id"), req.Increment, time.Now())
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProgressResponse{
		ChallengeID: result.Challenge.ID,
		UserID:      req.UserID,
		Current:     result.Progress.Current,
		Goal:        result.Challenge.Goal,
		Completed:   result.Progress.Completed,
		Reward:      result.Reward,
		Balance:     result.Balance,
	})
}

func (h *Handler) createBattle(w http.ResponseWriter, r *http.Request) {
	req := new(BattleRequest)
	if err := decode(r, req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	start, end, err := req.period(time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	battle := gamify.Battle{
		ID:       uuid.NewString(),
		CollegeA: req.CollegeA,
		CollegeB: req.CollegeB,
		Start:    start,
		End:      end,
	}
	if err := h.store.SaveBattle(r.Context(), battle); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, newBattleResponse(battle, time.Now()))
}

func (h *Handler) battle(w http.ResponseWriter, r *http.Request) {
	battle, err := h.store.Battle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newBattleResponse(battle, time.Now()))
}

func (h *Handler) joinBattle(w http.ResponseWriter, r *http.Request) {
	req := new(JoinBattleRequest)
	if err := decode(r, req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.UserID == "" || req.College == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "user_id and college are required")
		return
	}

	now := time.Now()
	battle, balance, err := gamify.JoinBattle(r.Context(), h.store, r.PathValue("id"), req.UserID, req.College, req.Bet, now)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, JoinBattleResponse{
		Battle:  newBattleResponse(battle, now),
		Balance: balance,
	})
}
