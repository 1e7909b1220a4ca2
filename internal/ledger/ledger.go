// Package ledger is the in-memory account store behind bankd.
//
// All state changes happen under a single mutex so that a transfer debits and
// credits both sides atomically. Balances are held in integer cents.
package ledger

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tellerapp/teller/internal/auth"
	"github.com/tellerapp/teller/internal/model"
)

// Account is a read-only snapshot of a user's account.
type Account struct {
	UserID       string
	Username     string
	BalanceCents int64
}

// Entry is one line in a user's transaction history.
type Entry struct {
	ID           string
	Type         string
	AmountCents  int64
	Counterparty string
	CreatedAt    time.Time
}

type account struct {
	id           string
	username     string
	passwordHash string
	balance      int64
	entries      []Entry
}

// Ledger holds every account. The zero value is not usable; call New.
type Ledger struct {
	mu         sync.Mutex
	byUsername map[string]*account
	byID       map[string]*account
	now        func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		byUsername: make(map[string]*account),
		byID:       make(map[string]*account),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register creates a zero-balance account. The username is trimmed.
func (l *Ledger) Register(_ context.Context, username, password string) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	l.mu.Lock()
	_, taken := l.byUsername[username]
	l.mu.Unlock()
	if taken {
		return nil, ErrUsernameTaken
	}

	// Hashing is slow; keep it outside the lock.
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.byUsername[username]; taken {
		return nil, ErrUsernameTaken
	}
	a := &account{id: ulid.Make().String(), username: username, passwordHash: hash}
	l.byUsername[username] = a
	l.byID[a.id] = a
	return a.snapshot(), nil
}

// Authenticate checks a username and password pair.
func (l *Ledger) Authenticate(_ context.Context, username, password string) (*Account, error) {
	username = strings.TrimSpace(username)

	l.mu.Lock()
	a, ok := l.byUsername[username]
	var hash string
	if ok {
		hash = a.passwordHash
	}
	l.mu.Unlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}
	match, err := auth.VerifyPassword(password, hash)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return a.snapshot(), nil
}

// Account returns the current snapshot of userID's account.
func (l *Ledger) Account(_ context.Context, userID string) (*Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.byID[userID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a.snapshot(), nil
}

// Deposit credits cents to userID.
func (l *Ledger) Deposit(_ context.Context, userID string, cents int64) error {
	if cents <= 0 {
		return ErrNonPositiveAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.byID[userID]
	if !ok {
		return ErrAccountNotFound
	}
	if a.balance > math.MaxInt64-cents {
		return ErrInvalidAmount
	}
	a.balance += cents
	a.record(model.TypeDeposit, cents, "", l.now())
	return nil
}

// Withdraw debits cents from userID. The balance never goes negative.
func (l *Ledger) Withdraw(_ context.Context, userID string, cents int64) error {
	if cents <= 0 {
		return ErrNonPositiveAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.byID[userID]
	if !ok {
		return ErrAccountNotFound
	}
	if cents > a.balance {
		return ErrInsufficientFunds
	}
	a.balance -= cents
	a.record(model.TypeWithdraw, cents, "", l.now())
	return nil
}

// Transfer moves cents from userID to the account named toUsername. Either
// both sides change or neither does.
func (l *Ledger) Transfer(_ context.Context, userID, toUsername string, cents int64) error {
	toUsername = strings.TrimSpace(toUsername)
	if toUsername == "" || cents <= 0 {
		return ErrTransferInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	from, ok := l.byID[userID]
	if !ok {
		return ErrAccountNotFound
	}
	to, ok := l.byUsername[toUsername]
	if !ok {
		return ErrRecipientNotFound
	}
	if to.id == from.id {
		return ErrSelfTransfer
	}
	if cents > from.balance {
		return ErrInsufficientFunds
	}
	if to.balance > math.MaxInt64-cents {
		return ErrInvalidAmount
	}

	now := l.now()
	from.balance -= cents
	from.record(model.TypeTransferOut, cents, to.username, now)
	to.balance += cents
	to.record(model.TypeTransferIn, cents, from.username, now)
	return nil
}

// Recent returns up to limit entries for userID, newest first.
func (l *Ledger) Recent(_ context.Context, userID string, limit int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.byID[userID]
	if !ok {
		return nil, ErrAccountNotFound
	}

	n := len(a.entries)
	if limit < n {
		n = max(limit, 0)
	}
	out := make([]Entry, 0, n)
	for i := len(a.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, a.entries[i])
	}
	return out, nil
}

func (a *account) record(txType string, cents int64, counterparty string, at time.Time) {
	a.entries = append(a.entries, Entry{
		ID:           ulid.Make().String(),
		Type:         txType,
		AmountCents:  cents,
		Counterparty: counterparty,
		CreatedAt:    at.UTC(),
	})
}

func (a *account) snapshot() *Account {
	return &Account{UserID: a.id, Username: a.username, BalanceCents: a.balance}
}
