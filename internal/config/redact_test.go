package config

import (
	"errors"
	"strings"
	"testing"
)

func TestRedactURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "redis://localhost:6379/0", want: "redis://localhost:6379/0"},
		{in: "redis://:hunter2@cache:6379", want: "redis://@cache:6379"},
		{in: "postgres://bank:hunter2@db:5432/bank", want: "postgres://bank@db:5432/bank"},
		{in: "postgres://db/bank?password=hunter2", want: "postgres://db/bank?password=redacted"},
		{in: "::not a url", want: "[redacted]"},
	}
	for _, tt := range tests {
		if got := RedactURL(tt.in); got != tt.want {
			t.Errorf("RedactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	dsn := "postgres://bank:hunter2@db:5432/bank"
	err := errors.New("dial " + dsn + ": connection refused (password=hunter2)")

	got := SanitizeError(err, dsn)
	if strings.Contains(got, "hunter2") {
		t.Errorf("secret leaked: %q", got)
	}
	if !strings.Contains(got, "connection refused") {
		t.Errorf("cause lost: %q", got)
	}
	if SanitizeError(nil) != "" {
		t.Error("nil error should render empty")
	}
}
