package handler

import (
	dErrors "atelier/pkg/domain-errors"
)

// DeductRequest is the HTTP request body for POST /credits/deduct.
type DeductRequest struct {
	Amount int `json:"amount"`
}

// Validate validates the request.
func (r *DeductRequest) Validate() error {
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return nil
}

// BalanceResponse is the HTTP response for GET /credits.
type BalanceResponse struct {
	Balance int `json:"balance"`
}

// DeductResponse is the HTTP response for POST /credits/deduct. Balance is
// omitted when the cached balance is unknown.
type DeductResponse struct {
	Applied bool `json:"applied"`
	Balance *int `json:"balance,omitempty"`
}
