package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/tellerapp/teller/internal/apiclient"
	"github.com/tellerapp/teller/internal/metrics"
	"github.com/tellerapp/teller/internal/model"
)

// ErrInFlight is returned when an action is invoked while the same action
// is still pending. No request is issued.
var ErrInFlight = errors.New("action already in progress")

// BankAPI is the subset of the API client the dashboard needs.
type BankAPI interface {
	Me(ctx context.Context) (model.UserSummary, error)
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Deposit(ctx context.Context, amount string) error
	Withdraw(ctx context.Context, amount string) error
	Transfer(ctx context.Context, toUsername, amount string) error
	Transactions(ctx context.Context, limit int) ([]model.Transaction, error)
}

// Renderer receives a fresh State after every change.
// Render is called with the App lock held and must not call back into App.
type Renderer interface {
	Render(State)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(State)

// Render calls f(s).
func (f RenderFunc) Render(s State) { f(s) }

// Config holds App dependencies.
type Config struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
	// TxLimit is how many transactions a refresh loads.
	TxLimit int
}

// App owns the dashboard State. Every mutation goes through update.
type App struct {
	api     BankAPI
	logger  *slog.Logger
	metrics metrics.Recorder
	txLimit int

	mu         sync.Mutex
	state      State
	renderers  []Renderer
	inFlight   map[Action]bool
	refreshGen uint64
	appliedGen uint64
}

// New creates an App in the LoggedOut state.
func New(api BankAPI, cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	limit := cfg.TxLimit
	if limit <= 0 {
		limit = model.TransactionLimit
	}

	return &App{
		api:      api,
		logger:   logger,
		metrics:  recorder,
		txLimit:  limit,
		inFlight: make(map[Action]bool),
	}
}

// Subscribe registers r and renders the current state to it once.
func (a *App) Subscribe(r Renderer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.renderers = append(a.renderers, r)
	r.Render(a.state.Clone())
}

// State returns a copy of the current state.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Clone()
}

// update applies fn to the state and publishes the result.
func (a *App) update(fn func(*State)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applyLocked(fn)
}

func (a *App) applyLocked(fn func(*State)) {
	fn(&a.state)
	snapshot := a.state.Clone()
	for _, r := range a.renderers {
		r.Render(snapshot.Clone())
	}
}

// Refresh re-derives the session from /api/me and, when signed in, loads
// recent transactions. The dashboard is only shown when both succeed; any
// failure shows the logged-out view and is not reported as a message.
//
// A refresh that finishes after a later one has been applied is dropped.
func (a *App) Refresh(ctx context.Context) error {
	a.mu.Lock()
	a.refreshGen++
	gen := a.refreshGen
	a.mu.Unlock()

	user, err := a.api.Me(ctx)
	var txs []model.Transaction
	if err == nil {
		txs, err = a.api.Transactions(ctx, a.txLimit)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if gen <= a.appliedGen {
		a.metrics.IncRefresh("stale")
		a.logger.Debug("dropping stale refresh", slog.Uint64("generation", gen))
		return err
	}
	a.appliedGen = gen

	if err != nil {
		a.metrics.IncRefresh(LoggedOut.String())
		if apiclient.IsUnauthorized(err) {
			a.logger.Debug("refresh: no session")
		} else {
			a.logger.Warn("refresh failed",
				slog.String("kind", string(apiclient.KindOf(err))),
				slog.String("error", err.Error()),
			)
		}
		a.applyLocked(func(s *State) { s.logOut() })
		return err
	}

	a.metrics.IncRefresh(LoggedIn.String())
	a.applyLocked(func(s *State) {
		s.Session = LoggedIn
		s.User = &user
		s.Transactions = txs
	})
	return nil
}

// LoadTransactions replaces the rendered list with the server's latest
// items. The previous list is discarded, never appended to.
//
// The result is dropped when the user is signed out by the time it arrives,
// or when a refresh started after this load has already been applied.
func (a *App) LoadTransactions(ctx context.Context) error {
	a.mu.Lock()
	startGen := a.refreshGen
	a.mu.Unlock()

	txs, err := a.api.Transactions(ctx, a.txLimit)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.appliedGen > startGen || !a.state.LoggedIn() {
		a.logger.Debug("dropping transaction load",
			slog.Bool("logged_in", a.state.LoggedIn()),
			slog.Uint64("applied_generation", a.appliedGen),
		)
		return nil
	}
	a.applyLocked(func(s *State) { s.Transactions = txs })
	return nil
}

// Login signs in and refreshes. Errors are shown in the auth area.
func (a *App) Login(ctx context.Context, username, password string) error {
	return a.run(ctx, actionSpec{action: ActionLogin, area: authArea}, func(ctx context.Context) error {
		return a.api.Login(ctx, username, password)
	})
}

// Register creates an account and refreshes. Errors are shown in the auth area.
func (a *App) Register(ctx context.Context, username, password string) error {
	return a.run(ctx, actionSpec{action: ActionRegister, area: authArea}, func(ctx context.Context) error {
		return a.api.Register(ctx, username, password)
	})
}

// Logout ends the session and always refreshes, whatever the outcome.
func (a *App) Logout(ctx context.Context) error {
	return a.run(ctx, actionSpec{action: ActionLogout, alwaysRefresh: true}, func(ctx context.Context) error {
		return a.api.Logout(ctx)
	})
}

// Deposit sends amount exactly as entered.
func (a *App) Deposit(ctx context.Context, amount string) error {
	return a.run(ctx, actionSpec{action: ActionDeposit, area: dashArea, success: MsgDepositOK}, func(ctx context.Context) error {
		return a.api.Deposit(ctx, amount)
	})
}

// Withdraw sends amount exactly as entered.
func (a *App) Withdraw(ctx context.Context, amount string) error {
	return a.run(ctx, actionSpec{action: ActionWithdraw, area: dashArea, success: MsgWithdrawOK}, func(ctx context.Context) error {
		return a.api.Withdraw(ctx, amount)
	})
}

// Transfer sends amount to toUsername exactly as entered.
func (a *App) Transfer(ctx context.Context, toUsername, amount string) error {
	return a.run(ctx, actionSpec{action: ActionTransfer, area: dashArea, success: MsgTransferOK}, func(ctx context.Context) error {
		return a.api.Transfer(ctx, toUsername, amount)
	})
}

type actionSpec struct {
	action Action
	area   messageArea
	// success replaces the area's message after a successful call.
	// Empty clears it.
	success string
	// alwaysRefresh skips the message update and refreshes on failure too.
	alwaysRefresh bool
}

func (a *App) run(ctx context.Context, spec actionSpec, call func(context.Context) error) error {
	token, ok := a.begin(spec.action)
	if !ok {
		a.metrics.IncAction(string(spec.action), "rejected")
		a.logger.Debug("action already in flight", slog.String("action", string(spec.action)))
		return ErrInFlight
	}
	defer a.end(spec.action)

	logger := a.logger.With(
		slog.String("action", string(spec.action)),
		slog.String("action_id", token),
	)

	err := call(ctx)
	if spec.alwaysRefresh {
		if err != nil {
			a.metrics.IncAction(string(spec.action), "failed")
			logFailure(logger, err)
		} else {
			a.metrics.IncAction(string(spec.action), "success")
			logger.Info("action succeeded")
		}
		_ = a.Refresh(ctx)
		return err
	}

	if err != nil {
		a.metrics.IncAction(string(spec.action), "failed")
		logFailure(logger, err)
		a.update(func(s *State) { s.setMessage(spec.area, err.Error()) })
		return err
	}

	a.metrics.IncAction(string(spec.action), "success")
	logger.Info("action succeeded")
	a.update(func(s *State) { s.setMessage(spec.area, spec.success) })
	_ = a.Refresh(ctx)
	return nil
}

// logFailure logs a failed action. Server rejections log at info, anything
// else at warn.
func logFailure(logger *slog.Logger, err error) {
	kind := apiclient.KindOf(err)
	level := slog.LevelWarn
	if kind == apiclient.KindStatus {
		level = slog.LevelInfo
	}
	logger.LogAttrs(context.Background(), level, "action failed",
		slog.String("kind", string(kind)),
		slog.Int("status_code", apiclient.StatusOf(err)),
		slog.String("error", err.Error()),
	)
}

// begin marks action as pending and returns a token identifying this run.
func (a *App) begin(action Action) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight[action] {
		return "", false
	}
	a.inFlight[action] = true
	return ulid.Make().String(), true
}

func (a *App) end(action Action) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inFlight, action)
}
