package handlers

import (
	"net/http"
)

func State(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, &APIStateResponse{
		Status:  "ok",
		Wallets: walletTracker.Wallets(),
	}, http.StatusOK)
}
