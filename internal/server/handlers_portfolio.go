package server

import (
	"net/http"

	"github.com/cmorneau/maple/internal/models"
)

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	holdings, summary, err := s.app.FinanceService.Portfolio(r.Context(), s.userID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": holdings,
		"summary":  summary,
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.TradeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	holding, err := s.app.FinanceService.AddTrade(r.Context(), s.userID(r), req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, holding)
}

func (s *Server) routeHolding(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "/api/portfolio/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Holding ID is required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var holding models.Holding
		if !DecodeJSON(w, r, &holding) {
			return
		}
		updated, err := s.app.FinanceService.UpdateHolding(r.Context(), s.userID(r), id, holding)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.app.FinanceService.DeleteHolding(r.Context(), s.userID(r), id); err != nil {
			WriteServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		RequireMethod(w, r, http.MethodPut, http.MethodDelete)
	}
}

// handlePortfolioRefresh re-fetches quotes for every held symbol.
func (s *Server) handlePortfolioRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := s.app.FinanceService.RefreshPortfolio(r.Context(), s.userID(r)); err != nil {
		s.logger.Warn().Err(err).Msg("Portfolio refresh failed")
		WriteServiceError(w, err)
		return
	}

	holdings, summary, err := s.app.FinanceService.Portfolio(r.Context(), s.userID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": holdings,
		"summary":  summary,
	})
}

func (s *Server) handlePortfolioChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	png, err := s.app.FinanceService.AllocationChartPNG(r.Context(), s.userID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
