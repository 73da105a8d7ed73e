package server

import (
	"net/http"

	"github.com/cmorneau/maple/internal/models"
)

// --- Accounts ---

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ledger, err := s.app.FinanceService.Ledger(r.Context(), s.userID(r))
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ledger.Accounts)
	case http.MethodPost:
		var account models.Account
		if !DecodeJSON(w, r, &account) {
			return
		}
		created, err := s.app.FinanceService.AddAccount(r.Context(), s.userID(r), account)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, created)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) routeAccount(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "/api/accounts/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Account ID is required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var account models.Account
		if !DecodeJSON(w, r, &account) {
			return
		}
		updated, err := s.app.FinanceService.UpdateAccount(r.Context(), s.userID(r), id, account)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.app.FinanceService.DeleteAccount(r.Context(), s.userID(r), id); err != nil {
			WriteServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		RequireMethod(w, r, http.MethodPut, http.MethodDelete)
	}
}

// --- Debts ---

func (s *Server) handleDebts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ledger, err := s.app.FinanceService.Ledger(r.Context(), s.userID(r))
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ledger.Debts)
	case http.MethodPost:
		var debt models.Debt
		if !DecodeJSON(w, r, &debt) {
			return
		}
		created, err := s.app.FinanceService.AddDebt(r.Context(), s.userID(r), debt)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, created)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) routeDebt(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "/api/debts/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Debt ID is required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var debt models.Debt
		if !DecodeJSON(w, r, &debt) {
			return
		}
		updated, err := s.app.FinanceService.UpdateDebt(r.Context(), s.userID(r), id, debt)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.app.FinanceService.DeleteDebt(r.Context(), s.userID(r), id); err != nil {
			WriteServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		RequireMethod(w, r, http.MethodPut, http.MethodDelete)
	}
}

// --- Belongings ---

func (s *Server) handleBelongings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ledger, err := s.app.FinanceService.Ledger(r.Context(), s.userID(r))
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ledger.Belongings)
	case http.MethodPost:
		var belonging models.Belonging
		if !DecodeJSON(w, r, &belonging) {
			return
		}
		created, err := s.app.FinanceService.AddBelonging(r.Context(), s.userID(r), belonging)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, created)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) routeBelonging(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "/api/belongings/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Belonging ID is required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var belonging models.Belonging
		if !DecodeJSON(w, r, &belonging) {
			return
		}
		updated, err := s.app.FinanceService.UpdateBelonging(r.Context(), s.userID(r), id, belonging)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.app.FinanceService.DeleteBelonging(r.Context(), s.userID(r), id); err != nil {
			WriteServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		RequireMethod(w, r, http.MethodPut, http.MethodDelete)
	}
}
