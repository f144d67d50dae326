package handlers

import (
	"net/http"

	"github.com/go-chi/chi"
)

func WalletState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "id",
			Message: "wallet id required",
		}, http.StatusBadRequest)
		return
	}

	responseJSON(w, &APIWalletResponse{
		Status: "ok",
		State:  walletTracker.Snapshot(id),
	}, http.StatusOK)
}
