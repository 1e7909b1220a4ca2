package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionLimit is the number of recent transactions the dashboard shows.
const TransactionLimit = 10

// Transaction types reported by the backend.
const (
	TypeDeposit     = "deposit"
	TypeWithdraw    = "withdraw"
	TypeTransferOut = "transfer_out"
	TypeTransferIn  = "transfer_in"
)

// Sign characters used when rendering amounts.
const (
	SignCredit = "+"
	SignDebit  = "-"
)

// Transaction is one ledger entry as seen by the account owner.
type Transaction struct {
	CreatedAt    string          `json:"created_at"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Counterparty *string         `json:"counterparty"`
}

// Direction returns the display sign for the transaction.
func (t Transaction) Direction() string {
	return Direction(t.Type)
}

// HasCounterparty reports whether the entry names another user.
func (t Transaction) HasCounterparty() bool {
	return t.Counterparty != nil && *t.Counterparty != ""
}

// Direction derives the sign for a transaction type. Withdrawals and any
// type containing "out" are debits; everything else is a credit.
func Direction(txType string) string {
	if txType == TypeWithdraw || strings.Contains(txType, "out") {
		return SignDebit
	}
	return SignCredit
}
