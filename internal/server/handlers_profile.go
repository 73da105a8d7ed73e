package server

import (
	"net/http"

	"github.com/cmorneau/maple/internal/models"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		state, err := s.app.FinanceService.Profile(r.Context(), s.userID(r))
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, state)
	case http.MethodPut:
		var profile models.Profile
		if !DecodeJSON(w, r, &profile) {
			return
		}
		saved, err := s.app.FinanceService.SaveProfile(r.Context(), s.userID(r), profile)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, saved)
	case http.MethodDelete:
		if err := s.app.FinanceService.DeleteUserData(r.Context(), s.userID(r)); err != nil {
			WriteServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
