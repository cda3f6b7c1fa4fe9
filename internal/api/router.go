package api

import "net/http"

// RegisterRoutes wires every handler onto the mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Ops
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /pool/stats", h.poolStats)

	// Auth
	mux.HandleFunc("POST /auth/register", h.register)
	mux.HandleFunc("POST /auth/login", h.login)
	mux.HandleFunc("POST /auth/logout", h.RequireAuth(h.logout))
	mux.HandleFunc("GET /auth/me", h.RequireAuth(h.currentUser))

	// Competitions
	mux.HandleFunc("POST /competitions", h.RequireAuth(h.createCompetition))
	mux.HandleFunc("GET /competitions", h.listCompetitions)
	mux.HandleFunc("GET /competitions/{competitionID}", h.getCompetition)
	mux.HandleFunc("POST /competitions/{competitionID}/join", h.RequireAuth(h.joinCompetition))
	mux.HandleFunc("GET /competitions/{competitionID}/leaderboard", h.leaderboard)

	// Orders
	mux.HandleFunc("POST /competitions/{competitionID}/orders", h.RequireAuth(h.placeOrder))
	mux.HandleFunc("GET /competitions/{competitionID}/orders", h.RequireAuth(h.listOrders))
}
