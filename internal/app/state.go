// Package app holds the dashboard state and the operations that change it.
package app

import "github.com/tellerapp/teller/internal/model"

// Session is derived from the last applied /api/me result. It is never
// tracked separately.
type Session int

const (
	LoggedOut Session = iota
	LoggedIn
)

func (s Session) String() string {
	if s == LoggedIn {
		return "logged_in"
	}
	return "logged_out"
}

// Action names a user-triggered operation.
type Action string

const (
	ActionLogin    Action = "login"
	ActionRegister Action = "register"
	ActionLogout   Action = "logout"
	ActionDeposit  Action = "deposit"
	ActionWithdraw Action = "withdraw"
	ActionTransfer Action = "transfer"
)

// Success messages shown in the dashboard message area.
const (
	MsgDepositOK  = "Deposit successful"
	MsgWithdrawOK = "Withdraw successful"
	MsgTransferOK = "Transfer successful"
)

// State is everything the UI shows. Renderers receive copies.
type State struct {
	Session      Session
	User         *model.UserSummary
	Transactions []model.Transaction

	// AuthMsg and DashMsg are the two feedback areas.
	AuthMsg string
	DashMsg string
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s State) Clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Transactions != nil {
		out.Transactions = append([]model.Transaction(nil), s.Transactions...)
	}
	return out
}

// LoggedIn reports whether the dashboard should be visible.
func (s State) LoggedIn() bool {
	return s.Session == LoggedIn
}

// messageArea selects which feedback line an action writes to.
type messageArea int

const (
	authArea messageArea = iota
	dashArea
)

func (s *State) setMessage(area messageArea, msg string) {
	switch area {
	case authArea:
		s.AuthMsg = msg
	case dashArea:
		s.DashMsg = msg
	}
}

// logOut drops the dashboard wholesale.
func (s *State) logOut() {
	s.Session = LoggedOut
	s.User = nil
	s.Transactions = nil
}
