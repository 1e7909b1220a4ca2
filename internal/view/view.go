// Package view projects dashboard state onto what the user sees.
package view

import (
	"strings"

	"github.com/tellerapp/teller/internal/app"
	"github.com/tellerapp/teller/internal/model"
)

// Element identifiers of the dashboard surface.
const (
	IDUserName   = "userName"
	IDBalance    = "balance"
	IDDashboard  = "dashboard"
	IDWelcome    = "welcome"
	IDLoginBlock = "loginBlock"
	IDTxList     = "txList"
	IDAuthMsg    = "authMsg"
	IDDashMsg    = "dashMsg"
)

// View is the rendered form of a State. It carries no behavior and is
// rebuilt from scratch on every change.
type View struct {
	UserName string
	Balance  string

	ShowDashboard bool
	ShowWelcome   bool
	ShowLogin     bool

	TxList []string

	AuthMsg string
	DashMsg string
}

// Project builds the View for s. The dashboard and welcome sections are
// shown exactly when the login block is hidden.
func Project(s app.State) View {
	v := View{
		AuthMsg: s.AuthMsg,
		DashMsg: s.DashMsg,
	}

	if !s.LoggedIn() || s.User == nil {
		v.ShowLogin = true
		return v
	}

	v.ShowDashboard = true
	v.ShowWelcome = true
	v.UserName = s.User.Username
	v.Balance = s.User.BalanceString()

	v.TxList = make([]string, 0, len(s.Transactions))
	for _, tx := range s.Transactions {
		v.TxList = append(v.TxList, FormatTransaction(tx))
	}
	return v
}

// Text returns the text content of the element with the given id.
func (v View) Text(id string) string {
	switch id {
	case IDUserName:
		return v.UserName
	case IDBalance:
		return v.Balance
	case IDTxList:
		return strings.Join(v.TxList, "\n")
	case IDAuthMsg:
		return v.AuthMsg
	case IDDashMsg:
		return v.DashMsg
	}
	return ""
}

// Visible reports whether the section with the given id is shown.
// Unknown ids and text-only elements are always visible.
func (v View) Visible(id string) bool {
	switch id {
	case IDDashboard:
		return v.ShowDashboard
	case IDWelcome:
		return v.ShowWelcome
	case IDLoginBlock:
		return v.ShowLogin
	}
	return true
}

// FormatTransaction renders one list line:
//
//	[2024-05-01 10:00:00] transfer_out -$5.00 (bob)
func FormatTransaction(tx model.Transaction) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(tx.CreatedAt)
	b.WriteString("] ")
	b.WriteString(tx.Type)
	b.WriteString(" ")
	b.WriteString(tx.Direction())
	b.WriteString("$")
	b.WriteString(tx.Amount.StringFixed(2))
	if tx.HasCounterparty() {
		b.WriteString(" (")
		b.WriteString(*tx.Counterparty)
		b.WriteString(")")
	}
	return b.String()
}
