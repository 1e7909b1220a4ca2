package cache

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tellerapp/teller/internal/testutil"
)

func TestCache_SessionLifecycle(t *testing.T) {
	redisURL := testutil.RequireEnv(t, "REDIS_URL")
	ctx := context.Background()

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	profile := testutil.UniqueID("profile")
	baseURL := "http://localhost:8080"

	got, err := c.LoadSession(ctx, baseURL, profile)
	if err != nil {
		t.Fatalf("LoadSession() on empty error = %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil cookies before save, got %v", got)
	}

	want := []*http.Cookie{{Name: "session", Value: "signed-value"}}
	if err := c.SaveSession(ctx, baseURL, profile, want); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	got, err = c.LoadSession(ctx, baseURL, profile)
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if len(got) != 1 || got[0].Value != "signed-value" {
		t.Fatalf("unexpected cookies: %v", got)
	}

	if err := c.SaveSession(ctx, baseURL, profile, nil); err != nil {
		t.Fatalf("SaveSession(nil) error = %v", err)
	}
	got, _ = c.LoadSession(ctx, baseURL, profile)
	if got != nil {
		t.Errorf("expected session removed, got %v", got)
	}
}

func TestCache_SessionTTL(t *testing.T) {
	redisURL := testutil.RequireEnv(t, "REDIS_URL")
	ctx := context.Background()

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("ParseURL() error = %v", err)
	}
	prefix := testutil.UniqueID("ttl") + ":"
	c := NewWithClient(redis.NewClient(opt), WithKeyPrefix(prefix), WithSessionTTL(time.Minute))
	defer c.Close()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	baseURL := "http://localhost:8080"
	cookies := []*http.Cookie{{Name: "session", Value: "v"}}
	if err := c.SaveSession(ctx, baseURL, "default", cookies); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	defer c.DeleteSession(ctx, baseURL, "default")

	ttl, err := c.client.TTL(ctx, sessionKey(prefix, baseURL, "default")).Result()
	if err != nil {
		t.Fatalf("TTL() error = %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %s, want within (0, 1m]", ttl)
	}
}
