package ledger

import "errors"

// Domain errors. Their text is what bankd returns to clients verbatim.
var (
	ErrMissingCredentials = errors.New("username and password required")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNonPositiveAmount  = errors.New("amount must be > 0")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrTransferInput      = errors.New("to_username and positive amount required")
	ErrRecipientNotFound  = errors.New("recipient not found")
	ErrSelfTransfer       = errors.New("cannot transfer to self")
)
