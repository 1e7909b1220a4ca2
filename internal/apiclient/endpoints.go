package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tellerapp/teller/internal/dto"
	"github.com/tellerapp/teller/internal/model"
)

// API paths.
const (
	PathMe           = "/api/me"
	PathLogin        = "/api/login"
	PathRegister     = "/api/register"
	PathLogout       = "/api/logout"
	PathDeposit      = "/api/deposit"
	PathWithdraw     = "/api/withdraw"
	PathTransfer     = "/api/transfer"
	PathTransactions = "/api/transactions"
)

// Me returns the signed-in user. It fails with a 401 when there is no session.
func (c *Client) Me(ctx context.Context) (model.UserSummary, error) {
	var resp dto.MeResponse
	if err := c.Do(ctx, http.MethodGet, PathMe, nil, &resp); err != nil {
		return model.UserSummary{}, err
	}
	return resp.ToUserSummary(), nil
}

// Login starts a session for username.
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.Do(ctx, http.MethodPost, PathLogin, dto.Credentials{Username: username, Password: password}, nil)
}

// Register creates an account and starts a session for it.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.Do(ctx, http.MethodPost, PathRegister, dto.Credentials{Username: username, Password: password}, nil)
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, PathLogout, nil, nil)
}

// Deposit credits amount, passed through as typed by the user.
func (c *Client) Deposit(ctx context.Context, amount string) error {
	return c.Do(ctx, http.MethodPost, PathDeposit, dto.AmountRequest{Amount: dto.Amount(amount)}, nil)
}

// Withdraw debits amount.
func (c *Client) Withdraw(ctx context.Context, amount string) error {
	return c.Do(ctx, http.MethodPost, PathWithdraw, dto.AmountRequest{Amount: dto.Amount(amount)}, nil)
}

// Transfer moves amount to another user.
func (c *Client) Transfer(ctx context.Context, toUsername, amount string) error {
	return c.Do(ctx, http.MethodPost, PathTransfer, dto.TransferRequest{ToUsername: toUsername, Amount: dto.Amount(amount)}, nil)
}

// Transactions returns up to limit recent transactions in server order.
func (c *Client) Transactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var resp dto.TransactionListResponse
	if err := c.Do(ctx, http.MethodGet, PathTransactions+"?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.ToTransactions(), nil
}
