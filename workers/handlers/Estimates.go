package handlers

import (
	"math/big"
	"net/http"

	"gometwallet/redis"

	"github.com/ethereum/go-ethereum/common"
)

func ConvertEstimate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("value")
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() <= 0 {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "value",
			Message: "positive wei value required",
		}, http.StatusBadRequest)
		return
	}

	result, err := estimator.GetConvertCoinEstimate(r.Context(), value)
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: err.Error(),
		}, http.StatusBadGateway)
		return
	}

	responseJSON(w, &APIEstimateResponse{
		Status: "ok",
		Value:  value.String(),
		Result: result.String(),
	}, http.StatusOK)
}

// ImportGasEstimate prices the destination-chain import of a retained
// burn, looked up by its current burn hash.
func ImportGasEstimate(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("hash")
	if hash == "" {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "hash",
			Message: "burn hash required",
		}, http.StatusBadRequest)
		return
	}
	from := r.URL.Query().Get("from")
	if !common.IsHexAddress(from) {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "from",
			Message: "valid sender address required",
		}, http.StatusBadRequest)
		return
	}

	rec, err := redis.FindBurnRecordByHash(hash)
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: err.Error(),
		}, http.StatusInternalServerError)
		return
	}
	if rec == nil || rec.Burn == nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "hash",
			Message: "no retained burn for this hash",
		}, http.StatusNotFound)
		return
	}

	gas, err := met.EstimateImportGas(r.Context(), from, rec.Burn)
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: err.Error(),
		}, http.StatusBadGateway)
		return
	}

	responseJSON(w, &APIGasResponse{
		Status:   "ok",
		Hash:     hash,
		GasLimit: gas,
	}, http.StatusOK)
}
