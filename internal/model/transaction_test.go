package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		txType string
		want   string
	}{
		{TypeDeposit, SignCredit},
		{TypeWithdraw, SignDebit},
		{TypeTransferOut, SignDebit},
		{TypeTransferIn, SignCredit},
		{"payout", SignDebit},
		{"withdrawal", SignCredit},
		{"", SignCredit},
		{"OUT", SignCredit},
	}

	for _, tt := range tests {
		t.Run(tt.txType, func(t *testing.T) {
			t.Parallel()
			if got := Direction(tt.txType); got != tt.want {
				t.Errorf("Direction(%q) = %s, want %s", tt.txType, got, tt.want)
			}
		})
	}
}

func TestTransaction_HasCounterparty(t *testing.T) {
	t.Parallel()

	bob := "bob"
	empty := ""

	if (Transaction{Type: TypeDeposit}).HasCounterparty() {
		t.Error("expected no counterparty for nil pointer")
	}
	if (Transaction{Counterparty: &empty}).HasCounterparty() {
		t.Error("expected no counterparty for empty name")
	}
	if !(Transaction{Counterparty: &bob}).HasCounterparty() {
		t.Error("expected counterparty bob")
	}
}

func TestUserSummary_BalanceString(t *testing.T) {
	t.Parallel()

	u := UserSummary{Username: "alice", Balance: decimal.RequireFromString("12.5")}
	if got := u.BalanceString(); got != "12.50" {
		t.Errorf("BalanceString() = %s, want 12.50", got)
	}
}
