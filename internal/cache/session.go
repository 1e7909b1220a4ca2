package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// storedCookie is the persisted form of a session cookie.
// The jar only reports name and value, so nothing else is kept.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadSession returns the cookies saved for profile against baseURL.
// A missing entry is not an error and yields nil.
func (c *Cache) LoadSession(ctx context.Context, baseURL, profile string) ([]*http.Cookie, error) {
	data, err := c.client.Get(ctx, sessionKey(c.prefix, baseURL, profile)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	cookies, err := decodeCookies(data)
	if err != nil {
		// Corrupted entry - treat as miss
		return nil, nil //nolint:nilerr
	}
	return cookies, nil
}

// SaveSession stores cookies for profile, refreshing the TTL. An empty set
// deletes the entry.
func (c *Cache) SaveSession(ctx context.Context, baseURL, profile string, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return c.DeleteSession(ctx, baseURL, profile)
	}

	data, err := encodeCookies(cookies)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return c.client.Set(ctx, sessionKey(c.prefix, baseURL, profile), data, c.ttl).Err()
}

// DeleteSession removes the stored session for profile.
func (c *Cache) DeleteSession(ctx context.Context, baseURL, profile string) error {
	return c.client.Del(ctx, sessionKey(c.prefix, baseURL, profile)).Err()
}

// sessionKey derives the Redis key. The base URL is hashed so API hosts
// are not stored in key names.
func sessionKey(prefix, baseURL, profile string) string {
	hash := sha256.Sum256([]byte(baseURL))
	return prefix + hex.EncodeToString(hash[:8]) + ":" + profile
}

func encodeCookies(cookies []*http.Cookie) ([]byte, error) {
	stored := make([]storedCookie, 0, len(cookies))
	for _, ck := range cookies {
		stored = append(stored, storedCookie{Name: ck.Name, Value: ck.Value})
	}
	return json.Marshal(stored)
}

func decodeCookies(data []byte) ([]*http.Cookie, error) {
	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		if s.Name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: "/"})
	}
	return cookies, nil
}
