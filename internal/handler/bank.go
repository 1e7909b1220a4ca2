package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tellerapp/teller/internal/auth"
	"github.com/tellerapp/teller/internal/dto"
	"github.com/tellerapp/teller/internal/ledger"
	"github.com/tellerapp/teller/internal/middleware"
)

// Transaction list limits.
const (
	DefaultTransactionLimit = 10
	MaxTransactionLimit     = 100
)

// createdAtLayout is the wire format of transaction timestamps (UTC).
const createdAtLayout = time.DateTime

// Ledger is the account store the bank endpoints operate on.
// Implementations return the ledger package's sentinel errors.
type Ledger interface {
	Register(ctx context.Context, username, password string) (*ledger.Account, error)
	Authenticate(ctx context.Context, username, password string) (*ledger.Account, error)
	Account(ctx context.Context, userID string) (*ledger.Account, error)
	Deposit(ctx context.Context, userID string, cents int64) error
	Withdraw(ctx context.Context, userID string, cents int64) error
	Transfer(ctx context.Context, userID, toUsername string, cents int64) error
	Recent(ctx context.Context, userID string, limit int) ([]ledger.Entry, error)
}

// BankHandler serves the /api endpoints.
type BankHandler struct {
	ledger   Ledger
	sessions *auth.Sessions
	logger   *slog.Logger
}

// NewBankHandler creates a BankHandler.
func NewBankHandler(l Ledger, sessions *auth.Sessions, logger *slog.Logger) *BankHandler {
	return &BankHandler{ledger: l, sessions: sessions, logger: logger}
}

// Register handles POST /api/register. A new account is signed in at once.
func (h *BankHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.Credentials
	if !h.decode(w, r, &req) {
		return
	}

	acct, err := h.ledger.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleLedgerError(w, r, err)
		return
	}

	h.logger.Info("account_registered",
		slog.String("user_id", acct.UserID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.startSession(w, r, acct)
}

// Login handles POST /api/login.
func (h *BankHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.Credentials
	if !h.decode(w, r, &req) {
		return
	}

	acct, err := h.ledger.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleLedgerError(w, r, err)
		return
	}
	h.startSession(w, r, acct)
}

// Logout handles POST /api/logout. It succeeds with or without a session.
func (h *BankHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(w, r); err != nil {
		h.internalError(w, r, err)
		return
	}
	writeOK(w)
}

// Me handles GET /api/me.
func (h *BankHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := auth.MustPrincipalFromContext(r.Context())

	acct, err := h.ledger.Account(r.Context(), p.UserID)
	if err != nil {
		h.handleLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Username: acct.Username,
		Balance:  ledger.FormatCents(acct.BalanceCents),
	})
}

// Deposit handles POST /api/deposit.
func (h *BankHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.amountAction(w, r, "deposit", h.ledger.Deposit)
}

// Withdraw handles POST /api/withdraw.
func (h *BankHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.amountAction(w, r, "withdraw", h.ledger.Withdraw)
}

// Transfer handles POST /api/transfer.
func (h *BankHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	p := auth.MustPrincipalFromContext(r.Context())

	var req dto.TransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	cents, err := ledger.ParseCents(string(req.Amount))
	if err != nil {
		h.handleLedgerError(w, r, err)
		return
	}

	if err := h.ledger.Transfer(r.Context(), p.UserID, req.ToUsername, cents); err != nil {
		h.handleLedgerError(w, r, err)
		return
	}

	h.logger.Info("transfer_completed",
		slog.String("user_id", p.UserID),
		slog.Int64("amount_cents", cents),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	writeOK(w)
}

// Transactions handles GET /api/transactions?limit=N.
func (h *BankHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	p := auth.MustPrincipalFromContext(r.Context())

	entries, err := h.ledger.Recent(r.Context(), p.UserID, ParseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		h.handleLedgerError(w, r, err)
		return
	}

	resp := transactionListResponse{Items: make([]transactionItem, len(entries))}
	for i, e := range entries {
		item := transactionItem{
			Type:      e.Type,
			Amount:    ledger.FormatCents(e.AmountCents),
			CreatedAt: e.CreatedAt.UTC().Format(createdAtLayout),
		}
		if e.Counterparty != "" {
			cp := e.Counterparty
			item.Counterparty = &cp
		}
		resp.Items[i] = item
	}
	writeJSON(w, http.StatusOK, resp)
}

// ParseLimit reads the limit query parameter: empty or non-numeric falls
// back to the default, anything else is clamped to [1, MaxTransactionLimit].
func ParseLimit(raw string) int {
	if raw == "" {
		return DefaultTransactionLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultTransactionLimit
	}
	return min(max(n, 1), MaxTransactionLimit)
}

func (h *BankHandler) amountAction(w http.ResponseWriter, r *http.Request, action string, apply func(context.Context, string, int64) error) {
	p := auth.MustPrincipalFromContext(r.Context())

	var req dto.AmountRequest
	if !h.decode(w, r, &req) {
		return
	}
	cents, err := ledger.ParseCents(string(req.Amount))
	if err != nil {
		h.handleLedgerError(w, r, err)
		return
	}

	if err := apply(r.Context(), p.UserID, cents); err != nil {
		h.handleLedgerError(w, r, err)
		return
	}

	h.logger.Info(action+"_completed",
		slog.String("user_id", p.UserID),
		slog.Int64("amount_cents", cents),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	writeOK(w)
}

func (h *BankHandler) startSession(w http.ResponseWriter, r *http.Request, acct *ledger.Account) {
	p := auth.Principal{UserID: acct.UserID, Username: acct.Username}
	if err := h.sessions.Start(w, r, p); err != nil {
		h.internalError(w, r, err)
		return
	}
	writeOK(w)
}

// decode reads a JSON body into v. An empty body decodes as {}.
func (h *BankHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return true
	case errors.Is(err, dto.ErrAmountType):
		writeError(w, http.StatusBadRequest, ledger.ErrInvalidAmount.Error())
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
	}
	return false
}

func (h *BankHandler) handleLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		// Session outlived its account (e.g. bankd restarted).
		middleware.WriteUnauthenticated(w)
	case errors.Is(err, ledger.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ledger.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrRecipientNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrMissingCredentials),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrNonPositiveAmount),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrTransferInput),
		errors.Is(err, ledger.ErrSelfTransfer):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.internalError(w, r, err)
	}
}

func (h *BankHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("internal_error",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

type meResponse struct {
	Username string `json:"username"`
	Balance  string `json:"balance"`
}

type transactionItem struct {
	Type         string  `json:"type"`
	Amount       string  `json:"amount"`
	Counterparty *string `json:"counterparty"`
	CreatedAt    string  `json:"created_at"`
}

type transactionListResponse struct {
	Items []transactionItem `json:"items"`
}

var _ Ledger = (*ledger.Ledger)(nil)
