// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/tellerapp/teller/internal/model"
)

// Credentials is the request body for login and register.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Amount is the raw text of a money amount. The client always sends it as
// a JSON string; on decode a JSON number or null is accepted too.
type Amount string

// ErrAmountType is returned when an amount is neither a string nor a number.
var ErrAmountType = errors.New("amount must be a string or number")

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*a = ""
	case string:
		*a = Amount(x)
	case json.Number:
		*a = Amount(x.String())
	default:
		return ErrAmountType
	}
	return nil
}

// AmountRequest is the request body for deposit and withdraw.
// Amount carries the raw input text; the server parses it.
type AmountRequest struct {
	Amount Amount `json:"amount"`
}

// TransferRequest is the request body for a transfer.
type TransferRequest struct {
	ToUsername string `json:"to_username"`
	Amount     Amount `json:"amount"`
}

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OKResponse is the acknowledgement returned by mutating endpoints.
type OKResponse struct {
	OK bool `json:"ok"`
}

// MeResponse is the body of GET /api/me.
type MeResponse struct {
	Username string           `json:"username" validate:"required"`
	Balance  *decimal.Decimal `json:"balance" validate:"required"`
}

// TransactionItem is one element of a transaction list response.
type TransactionItem struct {
	CreatedAt    string           `json:"created_at" validate:"required"`
	Type         string           `json:"type" validate:"required"`
	Amount       *decimal.Decimal `json:"amount" validate:"required"`
	Counterparty *string          `json:"counterparty"`
}

// TransactionListResponse is the body of GET /api/transactions.
type TransactionListResponse struct {
	Items []TransactionItem `json:"items" validate:"required,dive"`
}

// ToUserSummary converts a validated MeResponse to the domain model.
func (r *MeResponse) ToUserSummary() model.UserSummary {
	u := model.UserSummary{Username: r.Username}
	if r.Balance != nil {
		u.Balance = *r.Balance
	}
	return u
}

// ToTransactions converts a validated list response to domain models.
// Server order is preserved.
func (r *TransactionListResponse) ToTransactions() []model.Transaction {
	txs := make([]model.Transaction, len(r.Items))
	for i, item := range r.Items {
		tx := model.Transaction{
			CreatedAt:    item.CreatedAt,
			Type:         item.Type,
			Counterparty: item.Counterparty,
		}
		if item.Amount != nil {
			tx.Amount = *item.Amount
		}
		txs[i] = tx
	}
	return txs
}
