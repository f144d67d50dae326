package handlers

import "gometwallet/types"

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

type APIStateResponse struct {
	Status  string   `json:"status"`
	Wallets []string `json:"wallets"`
}

type APIWalletResponse struct {
	Status string                    `json:"status"`
	State  *types.WalletStateChanged `json:"state"`
}

type APIEstimateResponse struct {
	Status string `json:"status"`
	Value  string `json:"value"`
	Result string `json:"result"`
}

type APIGasResponse struct {
	Status   string `json:"status"`
	Hash     string `json:"hash"`
	GasLimit uint64 `json:"gas_limit"`
}

type APIPendingImportsResponse struct {
	Status  string              `json:"status"`
	Records []*types.BurnRecord `json:"records"`
}
