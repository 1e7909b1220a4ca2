package view

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/tellerapp/teller/internal/app"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\033[H\033[2J"

// TextRenderer writes each State as a complete block of text.
// Nothing from a previous render is reused.
type TextRenderer struct {
	mu    sync.Mutex
	w     io.Writer
	clear bool
	err   error
}

// NewTextRenderer returns a renderer writing to w. With clear set, each
// block is preceded by a terminal clear sequence.
func NewTextRenderer(w io.Writer, clear bool) *TextRenderer {
	return &TextRenderer{w: w, clear: clear}
}

// Render implements app.Renderer.
func (r *TextRenderer) Render(s app.State) {
	block := Format(Project(s))

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clear {
		block = clearScreen + block
	}
	if _, err := io.WriteString(r.w, block); err != nil && r.err == nil {
		r.err = err
	}
}

// Err returns the first write error, if any.
func (r *TextRenderer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Format lays out v as plain text.
func Format(v View) string {
	var b bytes.Buffer

	b.WriteString("==== Teller ====\n")

	if v.ShowWelcome {
		fmt.Fprintf(&b, "Welcome, %s\n", v.UserName)
	}

	if v.ShowDashboard {
		fmt.Fprintf(&b, "Balance: $%s\n", v.Balance)
		b.WriteString("Recent transactions:\n")
		if len(v.TxList) == 0 {
			b.WriteString("  (none)\n")
		}
		for _, line := range v.TxList {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		if v.DashMsg != "" {
			fmt.Fprintf(&b, "> %s\n", v.DashMsg)
		}
	}

	if v.ShowLogin {
		b.WriteString("Not signed in. Use: login <user> <pass> | register <user> <pass>\n")
		if v.AuthMsg != "" {
			fmt.Fprintf(&b, "! %s\n", v.AuthMsg)
		}
	}

	b.WriteString("================\n")
	return b.String()
}
