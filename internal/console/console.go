// Package console binds text commands to dashboard actions.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/tellerapp/teller/internal/app"
	"github.com/tellerapp/teller/internal/metrics"
)

// Dashboard is the set of operations commands can trigger.
type Dashboard interface {
	Refresh(ctx context.Context) error
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Deposit(ctx context.Context, amount string) error
	Withdraw(ctx context.Context, amount string) error
	Transfer(ctx context.Context, toUsername, amount string) error
}

// Prompt is printed before each command is read.
const Prompt = "teller> "

// errQuit ends the command loop.
var errQuit = errors.New("quit")

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

// Config holds optional Console collaborators.
type Config struct {
	Logger *slog.Logger
	// Stats, when set, backs the "stats" command.
	Stats metrics.Snapshotter
	// AfterCommand runs after every dispatched command.
	AfterCommand func(ctx context.Context)
}

// Console reads commands line by line and dispatches them.
type Console struct {
	dash     Dashboard
	out      io.Writer
	logger   *slog.Logger
	stats    metrics.Snapshotter
	after    func(ctx context.Context)
	commands map[string]command
}

// New creates a Console writing prompts and command feedback to out.
// Dashboard output is the renderer's job, not the console's.
func New(dash Dashboard, out io.Writer, cfg Config) *Console {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Console{
		dash:   dash,
		out:    out,
		logger: logger,
		stats:  cfg.Stats,
		after:  cfg.AfterCommand,
	}
	c.commands = c.bindings()
	return c
}

// Missing arguments are passed on as empty strings; the server decides
// what is valid.
func (c *Console) bindings() map[string]command {
	return map[string]command{
		"login": {
			usage: "login <username> <password>",
			help:  "sign in",
			run: func(ctx context.Context, args []string) error {
				return c.dash.Login(ctx, arg(args, 0), arg(args, 1))
			},
		},
		"register": {
			usage: "register <username> <password>",
			help:  "create an account and sign in",
			run: func(ctx context.Context, args []string) error {
				return c.dash.Register(ctx, arg(args, 0), arg(args, 1))
			},
		},
		"logout": {
			usage: "logout",
			help:  "sign out",
			run: func(ctx context.Context, args []string) error {
				return c.dash.Logout(ctx)
			},
		},
		"deposit": {
			usage: "deposit <amount>",
			help:  "add funds",
			run: func(ctx context.Context, args []string) error {
				return c.dash.Deposit(ctx, arg(args, 0))
			},
		},
		"withdraw": {
			usage: "withdraw <amount>",
			help:  "take funds out",
			run: func(ctx context.Context, args []string) error {
				return c.dash.Withdraw(ctx, arg(args, 0))
			},
		},
		"transfer": {
			usage: "transfer <to_username> <amount>",
			help:  "send funds to another user",
			run: func(ctx context.Context, args []string) error {
				return c.dash.Transfer(ctx, arg(args, 0), arg(args, 1))
			},
		},
		"refresh": {
			usage: "refresh",
			help:  "reload balance and transactions",
			run: func(ctx context.Context, args []string) error {
				// Refresh failures only change the view.
				_ = c.dash.Refresh(ctx)
				return nil
			},
		},
		"stats": {
			usage: "stats",
			help:  "show request counters",
			run: func(ctx context.Context, args []string) error {
				c.printStats()
				return nil
			},
		},
		"help": {
			usage: "help",
			help:  "list commands",
			run: func(ctx context.Context, args []string) error {
				c.printHelp()
				return nil
			},
		},
		"quit": {
			usage: "quit",
			help:  "exit",
			run: func(ctx context.Context, args []string) error {
				return errQuit
			},
		},
	}
}

// Run refreshes once, then executes commands from in until EOF, "quit",
// or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	_ = c.dash.Refresh(ctx)
	c.runAfter(ctx)

	lines, readErr := readLines(ctx, in)
	for {
		fmt.Fprint(c.out, Prompt)
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("read command: %w", err)
				}
				return nil
			}
			if err := c.Dispatch(ctx, line); errors.Is(err, errQuit) {
				return nil
			}
		}
	}
}

// readLines scans in on its own goroutine so a blocked read never holds up
// shutdown. The error channel yields once after lines is closed.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

// Dispatch runs a single command line. Action failures are already
// reflected in the dashboard state and are only logged here.
func (c *Console) Dispatch(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	name := strings.ToLower(fields[0])
	cmd, ok := c.commands[name]
	if !ok {
		fmt.Fprintf(c.out, "unknown command %q, type \"help\"\n", fields[0])
		return nil
	}

	err := cmd.run(ctx, fields[1:])
	switch {
	case errors.Is(err, errQuit):
		return err
	case errors.Is(err, app.ErrInFlight):
		fmt.Fprintf(c.out, "%s is still running\n", name)
	case err != nil:
		c.logger.Debug("command failed", slog.String("command", name), slog.String("error", err.Error()))
	}

	c.runAfter(ctx)
	return err
}

func (c *Console) runAfter(ctx context.Context) {
	if c.after != nil {
		c.after(ctx)
	}
}

func (c *Console) printHelp() {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := c.commands[name]
		fmt.Fprintf(c.out, "  %-34s %s\n", cmd.usage, cmd.help)
	}
}

func (c *Console) printStats() {
	if c.stats == nil {
		fmt.Fprintln(c.out, "stats not enabled")
		return
	}

	snap := c.stats.Snapshot()
	printCounts(c.out, "requests", snap.APIRequests)
	printCounts(c.out, "refreshes", snap.Refreshes)
	printCounts(c.out, "actions", snap.Actions)
	if snap.APIDurationCount > 0 {
		avg := float64(snap.APIDurationTotalNs) / float64(snap.APIDurationCount) / 1e6
		fmt.Fprintf(c.out, "avg request: %.1fms\n", avg)
	}
}

func printCounts(w io.Writer, label string, counts map[string]uint64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "%s:\n", label)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s=%d\n", k, counts[k])
	}
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
