package server

import (
	"net/http"
	"time"

	"github.com/cmorneau/maple/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Aggregates
	mux.HandleFunc("/api/networth", s.handleNetWorth)
	mux.HandleFunc("/api/rates", s.handleRates)

	// Entity lists
	mux.HandleFunc("/api/accounts", s.handleAccounts)
	mux.HandleFunc("/api/accounts/", s.routeAccount)
	mux.HandleFunc("/api/debts", s.handleDebts)
	mux.HandleFunc("/api/debts/", s.routeDebt)
	mux.HandleFunc("/api/belongings", s.handleBelongings)
	mux.HandleFunc("/api/belongings/", s.routeBelonging)

	// Portfolio
	mux.HandleFunc("/api/portfolio", s.handlePortfolio)
	mux.HandleFunc("/api/portfolio/trades", s.handleTrades)
	mux.HandleFunc("/api/portfolio/chart", s.handlePortfolioChart)
	mux.HandleFunc("/api/portfolio/refresh", s.handlePortfolioRefresh)
	mux.HandleFunc("/api/portfolio/", s.routeHolding)
	mux.HandleFunc("/api/symbols/search", s.handleSymbolSearch)

	// TFSA
	mux.HandleFunc("/api/tfsa", s.handleTFSA)
	mux.HandleFunc("/api/tfsa/years", s.handleTFSAYears)
	mux.HandleFunc("/api/tfsa/years/", s.routeTFSAYear)

	// Profile
	mux.HandleFunc("/api/profile", s.handleProfile)
}

// userID resolves the request's user scope.
func (s *Server) userID(r *http.Request) string {
	return common.ResolveUserID(r.Context())
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	summary, err := s.app.FinanceService.NetWorth(r.Context(), s.userID(r))
	if err != nil {
		s.logger.Error().Err(err).Msg("Net worth computation failed")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"base":  "CAD",
		"rates": s.app.RateService.Rates(),
	})
}

func (s *Server) handleSymbolSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	query := r.URL.Query().Get("q")
	matches := s.app.QuoteService.Search(r.Context(), query)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":  query,
		"result": matches,
	})
}
