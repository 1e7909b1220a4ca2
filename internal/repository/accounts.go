package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"

	"github.com/tellerapp/teller/internal/auth"
	"github.com/tellerapp/teller/internal/ledger"
	"github.com/tellerapp/teller/internal/model"
)

// PostgreSQL error codes.
const (
	codeUniqueViolation = "23505"
	codeNumericOverflow = "22003"
	codeCheckViolation  = "23514"
)

// Register creates a zero-balance account. The username is trimmed.
func (r *Repository) Register(ctx context.Context, username, password string) (*ledger.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ledger.ErrMissingCredentials
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	acct := &ledger.Account{UserID: ulid.Make().String(), Username: username}
	query := `
		INSERT INTO bank_users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.pool.Exec(ctx, query, acct.UserID, username, hash, r.now().UTC()); err != nil {
		if pgCode(err) == codeUniqueViolation {
			return nil, ledger.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acct, nil
}

// Authenticate checks a username and password pair.
func (r *Repository) Authenticate(ctx context.Context, username, password string) (*ledger.Account, error) {
	query := `
		SELECT id, username, password_hash, balance_cents
		FROM bank_users
		WHERE username = $1
	`

	var acct ledger.Account
	var hash string
	err := r.pool.QueryRow(ctx, query, strings.TrimSpace(username)).Scan(
		&acct.UserID,
		&acct.Username,
		&hash,
		&acct.BalanceCents,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	match, err := auth.VerifyPassword(password, hash)
	if err != nil || !match {
		return nil, ledger.ErrInvalidCredentials
	}
	return &acct, nil
}

// Account returns the current snapshot of userID's account.
func (r *Repository) Account(ctx context.Context, userID string) (*ledger.Account, error) {
	query := `
		SELECT id, username, balance_cents
		FROM bank_users
		WHERE id = $1
	`

	var acct ledger.Account
	err := r.pool.QueryRow(ctx, query, userID).Scan(&acct.UserID, &acct.Username, &acct.BalanceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &acct, nil
}

// Deposit credits cents to userID.
func (r *Repository) Deposit(ctx context.Context, userID string, cents int64) error {
	if cents <= 0 {
		return ledger.ErrNonPositiveAmount
	}

	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE bank_users SET balance_cents = balance_cents + $2 WHERE id = $1`,
			userID, cents,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ledger.ErrAccountNotFound
		}
		return r.insertEntry(ctx, tx, userID, model.TypeDeposit, cents, "")
	})
}

// Withdraw debits cents from userID. The balance never goes negative.
func (r *Repository) Withdraw(ctx context.Context, userID string, cents int64) error {
	if cents <= 0 {
		return ledger.ErrNonPositiveAmount
	}

	return r.inTx(ctx, func(tx pgx.Tx) error {
		balance, err := lockBalance(ctx, tx, userID)
		if err != nil {
			return err
		}
		if cents > balance {
			return ledger.ErrInsufficientFunds
		}

		if _, err := tx.Exec(ctx,
			`UPDATE bank_users SET balance_cents = balance_cents - $2 WHERE id = $1`,
			userID, cents,
		); err != nil {
			return err
		}
		return r.insertEntry(ctx, tx, userID, model.TypeWithdraw, cents, "")
	})
}

// Transfer moves cents from userID to the account named toUsername in one
// database transaction.
func (r *Repository) Transfer(ctx context.Context, userID, toUsername string, cents int64) error {
	toUsername = strings.TrimSpace(toUsername)
	if toUsername == "" || cents <= 0 {
		return ledger.ErrTransferInput
	}

	return r.inTx(ctx, func(tx pgx.Tx) error {
		// Lock both rows in id order so opposing transfers cannot deadlock.
		rows, err := tx.Query(ctx, `
			SELECT id, username, balance_cents
			FROM bank_users
			WHERE id = $1 OR username = $2
			ORDER BY id
			FOR UPDATE
		`, userID, toUsername)
		if err != nil {
			return err
		}
		var from, to *ledger.Account
		for rows.Next() {
			var a ledger.Account
			if err := rows.Scan(&a.UserID, &a.Username, &a.BalanceCents); err != nil {
				rows.Close()
				return err
			}
			if a.UserID == userID {
				from = &a
			}
			if a.Username == toUsername {
				to = &a
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		switch {
		case from == nil:
			return ledger.ErrAccountNotFound
		case to == nil:
			return ledger.ErrRecipientNotFound
		case to.UserID == from.UserID:
			return ledger.ErrSelfTransfer
		case cents > from.BalanceCents:
			return ledger.ErrInsufficientFunds
		}

		if _, err := tx.Exec(ctx,
			`UPDATE bank_users SET balance_cents = balance_cents - $2 WHERE id = $1`,
			from.UserID, cents,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE bank_users SET balance_cents = balance_cents + $2 WHERE id = $1`,
			to.UserID, cents,
		); err != nil {
			return err
		}

		if err := r.insertEntry(ctx, tx, from.UserID, model.TypeTransferOut, cents, to.Username); err != nil {
			return err
		}
		return r.insertEntry(ctx, tx, to.UserID, model.TypeTransferIn, cents, from.Username)
	})
}

// Recent returns up to limit entries for userID, newest first.
func (r *Repository) Recent(ctx context.Context, userID string, limit int) ([]ledger.Entry, error) {
	if _, err := r.Account(ctx, userID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, type, amount_cents, COALESCE(counterparty, ''), created_at
		FROM bank_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]ledger.Entry, 0, limit)
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.ID, &e.Type, &e.AmountCents, &e.Counterparty, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func (r *Repository) insertEntry(ctx context.Context, tx pgx.Tx, userID, txType string, cents int64, counterparty string) error {
	var cp *string
	if counterparty != "" {
		cp = &counterparty
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO bank_entries (id, user_id, type, amount_cents, counterparty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ulid.Make().String(), userID, txType, cents, cp, r.now().UTC().Truncate(time.Microsecond))
	return err
}

// inTx runs fn in a transaction. Ledger sentinel errors pass through
// unchanged; database errors are wrapped.
func (r *Repository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	err := pgx.BeginFunc(ctx, r.pool, fn)
	switch {
	case err == nil:
		return nil
	case isLedgerError(err):
		return err
	case pgCode(err) == codeNumericOverflow, pgCode(err) == codeCheckViolation:
		return ledger.ErrInvalidAmount
	default:
		return fmt.Errorf("ledger transaction failed: %w", err)
	}
}

func lockBalance(ctx context.Context, tx pgx.Tx, userID string) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx,
		`SELECT balance_cents FROM bank_users WHERE id = $1 FOR UPDATE`, userID,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ledger.ErrAccountNotFound
	}
	return balance, err
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isLedgerError(err error) bool {
	for _, target := range []error{
		ledger.ErrAccountNotFound,
		ledger.ErrInsufficientFunds,
		ledger.ErrRecipientNotFound,
		ledger.ErrSelfTransfer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
