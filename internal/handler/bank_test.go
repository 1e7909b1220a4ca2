package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tellerapp/teller/internal/auth"
	"github.com/tellerapp/teller/internal/ledger"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type bankFixture struct {
	h      *BankHandler
	ledger *ledger.Ledger
	alice  *ledger.Account
}

func newBankFixture(t *testing.T) *bankFixture {
	t.Helper()

	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	l := ledger.New(ledger.WithClock(func() time.Time { return at }))
	alice, err := l.Register(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if _, err := l.Register(context.Background(), "bob", "secret"); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &bankFixture{
		h:      NewBankHandler(l, auth.NewSessions(testSecret, false), logger),
		ledger: l,
		alice:  alice,
	}
}

// asAlice builds a request that has already passed the session middleware.
func (f *bankFixture) asAlice(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	p := &auth.Principal{UserID: f.alice.UserID, Username: f.alice.Username}
	return req.WithContext(auth.ContextWithPrincipal(req.Context(), p))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestParseLimit(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		"":    10,
		"5":   5,
		"0":   1,
		"-3":  1,
		"100": 100,
		"500": 100,
		"abc": 10,
		"2.5": 10,
	}
	for raw, want := range tests {
		if got := ParseLimit(raw); got != want {
			t.Errorf("ParseLimit(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestBankHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
		wantCookie bool
	}{
		{name: "success", body: `{"username":"carol","password":"pw"}`, wantStatus: http.StatusOK, wantCookie: true},
		{name: "taken", body: `{"username":"alice","password":"pw"}`, wantStatus: http.StatusConflict, wantError: "username taken"},
		{name: "missing password", body: `{"username":"dave"}`, wantStatus: http.StatusBadRequest, wantError: "username and password required"},
		{name: "empty body", body: ``, wantStatus: http.StatusBadRequest, wantError: "username and password required"},
		{name: "malformed json", body: `{"username":`, wantStatus: http.StatusBadRequest, wantError: "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newBankFixture(t)
			rec := httptest.NewRecorder()
			f.h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeBody(t, rec)
			if tt.wantError != "" && body["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", body["error"], tt.wantError)
			}
			if tt.wantCookie {
				if body["ok"] != true {
					t.Errorf("body = %v, want ok:true", body)
				}
				if len(rec.Result().Cookies()) == 0 {
					t.Error("expected a session cookie")
				}
			}
		})
	}
}

func TestBankHandler_Login(t *testing.T) {
	t.Parallel()

	f := newBankFixture(t)

	rec := httptest.NewRecorder()
	f.h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"alice","password":"bad"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "invalid credentials" {
		t.Errorf("error = %v", body["error"])
	}

	rec = httptest.NewRecorder()
	f.h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":" alice ","password":"secret"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
}

func TestBankHandler_AmountActions(t *testing.T) {
	tests := []struct {
		name       string
		action     func(*BankHandler) http.HandlerFunc
		body       string
		wantStatus int
		wantError  string
		wantCents  int64
	}{
		{name: "deposit string", action: depositOf, body: `{"amount":"100"}`, wantStatus: http.StatusOK, wantCents: 10000},
		{name: "deposit number", action: depositOf, body: `{"amount":50}`, wantStatus: http.StatusOK, wantCents: 5000},
		{name: "deposit truncates", action: depositOf, body: `{"amount":"1.239"}`, wantStatus: http.StatusOK, wantCents: 123},
		{name: "deposit zero", action: depositOf, body: `{"amount":"0"}`, wantStatus: http.StatusBadRequest, wantError: "amount must be > 0"},
		{name: "deposit missing", action: depositOf, body: `{}`, wantStatus: http.StatusBadRequest, wantError: "amount must be > 0"},
		{name: "deposit garbage", action: depositOf, body: `{"amount":"ten"}`, wantStatus: http.StatusBadRequest, wantError: "invalid amount"},
		{name: "deposit bool", action: depositOf, body: `{"amount":true}`, wantStatus: http.StatusBadRequest, wantError: "invalid amount"},
		{name: "withdraw overdraw", action: withdrawOf, body: `{"amount":"1"}`, wantStatus: http.StatusBadRequest, wantError: "insufficient funds"},
		{name: "withdraw negative", action: withdrawOf, body: `{"amount":"-5"}`, wantStatus: http.StatusBadRequest, wantError: "amount must be > 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newBankFixture(t)
			rec := httptest.NewRecorder()
			tt.action(f.h)(rec, f.asAlice(http.MethodPost, "/api/x", tt.body))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantError != "" {
				if body := decodeBody(t, rec); body["error"] != tt.wantError {
					t.Errorf("error = %v, want %q", body["error"], tt.wantError)
				}
				return
			}
			acct, _ := f.ledger.Account(context.Background(), f.alice.UserID)
			if acct.BalanceCents != tt.wantCents {
				t.Errorf("balance = %d, want %d", acct.BalanceCents, tt.wantCents)
			}
		})
	}
}

func depositOf(h *BankHandler) http.HandlerFunc  { return h.Deposit }
func withdrawOf(h *BankHandler) http.HandlerFunc { return h.Withdraw }

func TestBankHandler_Transfer(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "success", body: `{"to_username":"bob","amount":"5"}`, wantStatus: http.StatusOK},
		{name: "no recipient", body: `{"amount":"5"}`, wantStatus: http.StatusBadRequest, wantError: "to_username and positive amount required"},
		{name: "no amount", body: `{"to_username":"bob"}`, wantStatus: http.StatusBadRequest, wantError: "to_username and positive amount required"},
		{name: "unknown recipient", body: `{"to_username":"zed","amount":"5"}`, wantStatus: http.StatusNotFound, wantError: "recipient not found"},
		{name: "self", body: `{"to_username":"alice","amount":"5"}`, wantStatus: http.StatusBadRequest, wantError: "cannot transfer to self"},
		{name: "insufficient", body: `{"to_username":"bob","amount":"500"}`, wantStatus: http.StatusBadRequest, wantError: "insufficient funds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newBankFixture(t)
			_ = f.ledger.Deposit(context.Background(), f.alice.UserID, 1000)

			rec := httptest.NewRecorder()
			f.h.Transfer(rec, f.asAlice(http.MethodPost, "/api/transfer", tt.body))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantError != "" {
				if body := decodeBody(t, rec); body["error"] != tt.wantError {
					t.Errorf("error = %v, want %q", body["error"], tt.wantError)
				}
			}
		})
	}
}

func TestBankHandler_Me(t *testing.T) {
	t.Parallel()

	f := newBankFixture(t)
	_ = f.ledger.Deposit(context.Background(), f.alice.UserID, 1250)

	rec := httptest.NewRecorder()
	f.h.Me(rec, f.asAlice(http.MethodGet, "/api/me", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["username"] != "alice" || body["balance"] != "12.50" {
		t.Errorf("body = %v", body)
	}
}

func TestBankHandler_Me_StaleSession(t *testing.T) {
	t.Parallel()

	f := newBankFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), &auth.Principal{UserID: "gone"}))

	rec := httptest.NewRecorder()
	f.h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if body := decodeBody(t, rec); body["auth"] != false {
		t.Errorf("body = %v, want auth:false", body)
	}
}

func TestBankHandler_Transactions(t *testing.T) {
	t.Parallel()

	f := newBankFixture(t)
	_ = f.ledger.Deposit(context.Background(), f.alice.UserID, 1000)
	_ = f.ledger.Transfer(context.Background(), f.alice.UserID, "bob", 250)

	rec := httptest.NewRecorder()
	f.h.Transactions(rec, f.asAlice(http.MethodGet, "/api/transactions?limit=10", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp transactionListResponse
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}

	first := resp.Items[0]
	if first.Type != "transfer_out" || first.Amount != "2.50" || first.Counterparty == nil || *first.Counterparty != "bob" {
		t.Errorf("first item = %+v", first)
	}
	if first.CreatedAt != "2024-03-01 09:30:00" {
		t.Errorf("created_at = %q", first.CreatedAt)
	}
	if resp.Items[1].Type != "deposit" || resp.Items[1].Counterparty != nil {
		t.Errorf("second item = %+v", resp.Items[1])
	}
	if !strings.Contains(rec.Body.String(), `"counterparty":null`) {
		t.Error("deposit should carry an explicit null counterparty")
	}
}

func TestBankHandler_Logout(t *testing.T) {
	t.Parallel()

	f := newBankFixture(t)
	rec := httptest.NewRecorder()
	f.h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/logout", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["ok"] != true {
		t.Errorf("body = %v", body)
	}
}
