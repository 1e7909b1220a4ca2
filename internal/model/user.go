// Package model defines domain entities for the application.
package model

import "github.com/shopspring/decimal"

// UserSummary is a read-only snapshot of the signed-in user.
// It replaces any prior value on every refresh.
type UserSummary struct {
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

// BalanceString formats the balance with cent precision.
func (u UserSummary) BalanceString() string {
	return u.Balance.StringFixed(2)
}
