// Package testutil holds helpers shared by tests.
package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// EnvOrDefault returns the environment variable key, or fallback when unset.
func EnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// UniqueID returns prefix joined to a fresh ULID, for keys that must not
// collide across test runs against shared services.
func UniqueID(prefix string) string {
	return prefix + "-" + ulid.Make().String()
}

// UniqueUsername returns a lowercase username that is unique per call.
func UniqueUsername(prefix string) string {
	return strings.ToLower(prefix + "_" + ulid.Make().String())
}
