package server

import (
	"net/http"
	"strconv"
	"strings"
)

func (s *Server) handleTFSA(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	records, summary, err := s.app.FinanceService.TFSA(r.Context(), s.userID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"years":   records,
		"summary": summary,
	})
}

type tfsaYearRequest struct {
	Year int `json:"year"`
}

type tfsaAmountRequest struct {
	Amount float64 `json:"amount"`
}

func (s *Server) handleTFSAYears(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req tfsaYearRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	record, err := s.app.FinanceService.AddTFSAYear(r.Context(), s.userID(r), req.Year)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, record)
}

// routeTFSAYear dispatches /api/tfsa/years/{year} and its nested
// contributions/withdrawals paths.
func (s *Server) routeTFSAYear(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tfsa/years/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid year: "+parts[0])
		return
	}

	switch len(parts) {
	case 1:
		// /api/tfsa/years/{year}
		if !RequireMethod(w, r, http.MethodDelete) {
			return
		}
		if err := s.app.FinanceService.DeleteTFSAYear(r.Context(), s.userID(r), year); err != nil {
			WriteServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case 2:
		// /api/tfsa/years/{year}/contributions or /withdrawals
		if !RequireMethod(w, r, http.MethodPost) {
			return
		}
		var req tfsaAmountRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		switch parts[1] {
		case "contributions":
			record, err := s.app.FinanceService.AddContribution(r.Context(), s.userID(r), year, req.Amount)
			if err != nil {
				WriteServiceError(w, err)
				return
			}
			WriteJSON(w, http.StatusCreated, record)
		case "withdrawals":
			record, err := s.app.FinanceService.AddWithdrawal(r.Context(), s.userID(r), year, req.Amount)
			if err != nil {
				WriteServiceError(w, err)
				return
			}
			WriteJSON(w, http.StatusCreated, record)
		default:
			WriteError(w, http.StatusNotFound, "Unknown resource: "+parts[1])
		}

	case 3:
		// /api/tfsa/years/{year}/contributions/{index} or /withdrawals/{index}
		if !RequireMethod(w, r, http.MethodDelete) {
			return
		}
		index, err := strconv.Atoi(parts[2])
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid index: "+parts[2])
			return
		}
		switch parts[1] {
		case "contributions":
			record, err := s.app.FinanceService.DeleteContribution(r.Context(), s.userID(r), year, index)
			if err != nil {
				WriteServiceError(w, err)
				return
			}
			WriteJSON(w, http.StatusOK, record)
		case "withdrawals":
			record, err := s.app.FinanceService.DeleteWithdrawal(r.Context(), s.userID(r), year, index)
			if err != nil {
				WriteServiceError(w, err)
				return
			}
			WriteJSON(w, http.StatusOK, record)
		default:
			WriteError(w, http.StatusNotFound, "Unknown resource: "+parts[1])
		}

	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}
