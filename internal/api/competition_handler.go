package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tradearena/backend/internal/domain/competition"
	"github.com/tradearena/backend/internal/store"
)

// ── Request / Response types ────────────────────────────────────────────────

type CreateCompetitionRequest struct {
	Name            string `json:"name" example:"Q3 Momentum Cup"`
	Description     string `json:"description,omitempty" example:"Three weeks, one symbol universe."`
	StartingBalance int64  `json:"starting_balance" example:"10000000"`
	StartsAt        string `json:"starts_at" example:"2025-07-01T00:00:00Z"`
	EndsAt          string `json:"ends_at" example:"2025-07-21T00:00:00Z"`
}

func (r *CreateCompetitionRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.StartingBalance <= 0 {
		return errors.New("starting_balance must be positive")
	}
	starts, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return errors.New("starts_at must be RFC 3339")
	}
	ends, err := time.Parse(time.RFC3339, r.EndsAt)
	if err != nil {
		return errors.New("ends_at must be RFC 3339")
	}
	if !ends.After(starts) {
		return errors.New("ends_at must be after starts_at")
	}
	return nil
}

type CompetitionResponse struct {
	ID              string `json:"id" example:"x9y8z7w6v5u4t3s2"`
	Name            string `json:"name" example:"Q3 Momentum Cup"`
	Description     string `json:"description,omitempty"`
	StartingBalance int64  `json:"starting_balance" example:"10000000"`
	StartsAt        string `json:"starts_at" example:"2025-07-01T00:00:00Z"`
	EndsAt          string `json:"ends_at" example:"2025-07-21T00:00:00Z"`
	Status          string `json:"status" example:"active"`
}

type EntryResponse struct {
	ID            string `json:"id" example:"e1f2g3h4i5j6k7l8"`
	CompetitionID string `json:"competition_id" example:"x9y8z7w6v5u4t3s2"`
	Cash          int64  `json:"cash" example:"10000000"`
}

type LeaderboardRowResponse struct {
	Rank        int    `json:"rank" example:"1"`
	DisplayName string `json:"display_name" example:"margin_call_mary"`
	Cash        int64  `json:"cash" example:"12345600"`
}

func toCompetitionResponse(c *competition.Competition, now time.Time) CompetitionResponse {
	return CompetitionResponse{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		StartingBalance: c.StartingBalance,
		StartsAt:        c.StartsAt.Format(time.RFC3339),
		EndsAt:          c.EndsAt.Format(time.RFC3339),
		Status:          string(c.StatusAt(now)),
	}
}

// ── Handlers ────────────────────────────────────────────────────────────────

// createCompetition creates a new competition.
// @Summary      Create a competition
// @Tags         Competitions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      CreateCompetitionRequest  true  "Competition to create"
// @Success      201   {object}  CompetitionResponse
// @Failure      400   {object}  map[string]string
// @Router       /competitions [post]
func (h *Handler) createCompetition(w http.ResponseWriter, r *http.Request) {
	var req CreateCompetitionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	starts, _ := time.Parse(time.RFC3339, req.StartsAt)
	ends, _ := time.Parse(time.RFC3339, req.EndsAt)
	c := competition.New(req.Name, req.Description, req.StartingBalance, starts, ends)

	if err := h.store.SaveCompetition(r.Context(), c); err != nil {
		h.logger.Error("failed to save competition", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save competition")
		return
	}

	respondJSON(w, http.StatusCreated, toCompetitionResponse(c, time.Now().UTC()))
}

// listCompetitions lists all competitions, newest first.
// @Summary      List competitions
// @Tags         Competitions
// @Produce      json
// @Success      200  {array}  CompetitionResponse
// @Router       /competitions [get]
func (h *Handler) listCompetitions(w http.ResponseWriter, r *http.Request) {
	competitions, err := h.store.ListCompetitions(r.Context())
	if err != nil {
		h.logger.Error("failed to list competitions", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list competitions")
		return
	}

	now := time.Now().UTC()
	out := make([]CompetitionResponse, 0, len(competitions))
	for _, c := range competitions {
		out = append(out, toCompetitionResponse(c, now))
	}
	respondJSON(w, http.StatusOK, out)
}

// getCompetition returns one competition.
// @Summary      Get a competition
// @Tags         Competitions
// @Produce      json
// @Param        competitionID  path      string  true  "Competition ID"
// @Success      200            {object}  CompetitionResponse
// @Failure      404            {object}  map[string]string
// @Router       /competitions/{competitionID} [get]
func (h *Handler) getCompetition(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetCompetition(r.Context(), r.PathValue("competitionID"))
	if h.handleStoreError(w, err, "competition") {
		return
	}
	respondJSON(w, http.StatusOK, toCompetitionResponse(c, time.Now().UTC()))
}

// joinCompetition enters the authenticated user into a competition.
// @Summary      Join a competition
// @Tags         Competitions
// @Security     BearerAuth
// @Produce      json
// @Param        competitionID  path      string  true  "Competition ID"
// @Success      201            {object}  EntryResponse
// @Failure      404            {object}  map[string]string
// @Failure      409            {object}  map[string]string  "already joined"
// @Router       /competitions/{competitionID}/join [post]
func (h *Handler) joinCompetition(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetCompetition(r.Context(), r.PathValue("competitionID"))
	if h.handleStoreError(w, err, "competition") {
		return
	}

	if c.StatusAt(time.Now().UTC()) == competition.StatusFinished {
		respondError(w, http.StatusBadRequest, "competition has finished")
		return
	}

	entry := competition.NewEntry(c, CurrentUser(r.Context()).ID)
	if err := h.store.SaveEntry(r.Context(), entry); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, "already joined")
			return
		}
		h.logger.Error("failed to save entry", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to join competition")
		return
	}

	respondJSON(w, http.StatusCreated, EntryResponse{
		ID:            entry.ID,
		CompetitionID: entry.CompetitionID,
		Cash:          entry.Cash,
	})
}

// leaderboard ranks a competition's entries.
// @Summary      Leaderboard
// @Tags         Competitions
// @Produce      json
// @Param        competitionID  path     string  true  "Competition ID"
// @Success      200            {array}  LeaderboardRowResponse
// @Failure      404            {object} map[string]string
// @Router       /competitions/{competitionID}/leaderboard [get]
func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	competitionID := r.PathValue("competitionID")
	if _, err := h.store.GetCompetition(r.Context(), competitionID); h.handleStoreError(w, err, "competition") {
		return
	}

	rows, err := h.store.Leaderboard(r.Context(), competitionID)
	if err != nil {
		h.logger.Error("failed to build leaderboard", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to build leaderboard")
		return
	}

	out := make([]LeaderboardRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, LeaderboardRowResponse{
			Rank:        row.Rank,
			DisplayName: row.DisplayName,
			Cash:        row.Cash,
		})
	}
	respondJSON(w, http.StatusOK, out)
}
