package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tradearena/backend/internal/domain/competition"
)

// ── Request / Response types ────────────────────────────────────────────────

type PlaceOrderRequest struct {
	Symbol   string `json:"symbol" example:"ACME"`
	Side     string `json:"side" example:"buy"`
	Quantity int64  `json:"quantity" example:"10"`
	Price    int64  `json:"price" example:"15250"`
}

func (r *PlaceOrderRequest) Validate() error {
	if r.Symbol == "" {
		return errors.New("symbol is required")
	}
	side := competition.Side(r.Side)
	if side != competition.SideBuy && side != competition.SideSell {
		return errors.New("side must be buy or sell")
	}
	if r.Quantity <= 0 {
		return errors.New("quantity must be positive")
	}
	if r.Price <= 0 {
		return errors.New("price must be positive")
	}
	return nil
}

type OrderResponse struct {
	ID       string `json:"id" example:"o1p2q3r4s5t6u7v8"`
	Symbol   string `json:"symbol" example:"ACME"`
	Side     string `json:"side" example:"buy"`
	Quantity int64  `json:"quantity" example:"10"`
	Price    int64  `json:"price" example:"15250"`
	PlacedAt string `json:"placed_at" example:"2025-07-02T09:30:00Z"`
	Cash     int64  `json:"cash,omitempty" example:"9847500"`
}

func toOrderResponse(o *competition.Order) OrderResponse {
	return OrderResponse{
		ID:       o.ID,
		Symbol:   o.Symbol,
		Side:     string(o.Side),
		Quantity: o.Quantity,
		Price:    o.Price,
		PlacedAt: o.PlacedAt.Format(time.RFC3339),
	}
}

// ── Handlers ────────────────────────────────────────────────────────────────

// placeOrder fills a market order against the caller's entry.
// @Summary      Place an order
// @Tags         Orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        competitionID  path      string             true  "Competition ID"
// @Param        body           body      PlaceOrderRequest  true  "Order"
// @Success      201            {object}  OrderResponse
// @Failure      400            {object}  map[string]string
// @Failure      404            {object}  map[string]string  "not entered"
// @Router       /competitions/{competitionID}/orders [post]
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req PlaceOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.store.GetCompetition(ctx, r.PathValue("competitionID"))
	if h.handleStoreError(w, err, "competition") {
		return
	}
	if c.StatusAt(time.Now().UTC()) != competition.StatusActive {
		respondError(w, http.StatusBadRequest, "competition is not active")
		return
	}

	entry, err := h.store.GetEntryByUser(ctx, c.ID, CurrentUser(ctx).ID)
	if h.handleStoreError(w, err, "entry") {
		return
	}

	symbol := strings.ToUpper(req.Symbol)
	held, err := h.store.GetPosition(ctx, entry.ID, symbol)
	if err != nil {
		h.logger.Error("failed to load position", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to place order")
		return
	}

	order := competition.NewOrder(entry.ID, symbol, competition.Side(req.Side), req.Quantity, req.Price)
	if err := order.Apply(entry, held); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.SaveOrder(ctx, order); err != nil {
		h.logger.Error("failed to save order", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to place order")
		return
	}
	if err := h.store.UpdateEntryCash(ctx, entry.ID, entry.Cash); err != nil {
		h.logger.Error("failed to update entry cash", "error", err, "entry_id", entry.ID)
		respondError(w, http.StatusInternalServerError, "failed to place order")
		return
	}

	resp := toOrderResponse(order)
	resp.Cash = entry.Cash
	respondJSON(w, http.StatusCreated, resp)
}

// listOrders returns the caller's fills in a competition, oldest first.
// @Summary      List my orders
// @Tags         Orders
// @Security     BearerAuth
// @Produce      json
// @Param        competitionID  path     string  true  "Competition ID"
// @Success      200            {array}  OrderResponse
// @Failure      404            {object} map[string]string
// @Router       /competitions/{competitionID}/orders [get]
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entry, err := h.store.GetEntryByUser(ctx, r.PathValue("competitionID"), CurrentUser(ctx).ID)
	if h.handleStoreError(w, err, "entry") {
		return
	}

	orders, err := h.store.ListOrders(ctx, entry.ID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	respondJSON(w, http.StatusOK, out)
}
