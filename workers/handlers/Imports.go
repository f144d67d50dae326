package handlers

import (
	"net/http"

	"gometwallet/redis"
	"gometwallet/types"
)

// PendingImports lists burns whose paired import has not completed yet.
func PendingImports(w http.ResponseWriter, r *http.Request) {
	var records []*types.BurnRecord
	for _, status := range []string{"exported", "importing", "importfail"} {
		recs, err := redis.FindAllBurnRecordsByStatus(status)
		if err != nil {
			responseJSON(w, &APIResponse{
				Status:  "error",
				Message: err.Error(),
			}, http.StatusInternalServerError)
			return
		}
		records = append(records, recs...)
	}

	responseJSON(w, &APIPendingImportsResponse{
		Status:  "ok",
		Records: records,
	}, http.StatusOK)
}
