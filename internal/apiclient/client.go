// Package apiclient is the JSON-over-HTTP client for the banking API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"github.com/tellerapp/teller/internal/dto"
	"github.com/tellerapp/teller/internal/metrics"
)

const (
	// DefaultDialTimeout is the connection timeout.
	DefaultDialTimeout = 10 * time.Second
	// DefaultResponseHeaderTimeout is time to wait for response headers.
	DefaultResponseHeaderTimeout = 15 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second

	// maxResponseBody caps how much of a response body is read.
	maxResponseBody = 1 << 20
)

// HeaderRequestID is sent with every request so server logs can be correlated.
const HeaderRequestID = "X-Request-ID"

// UserAgent identifies the client to the server.
const UserAgent = "Teller/1.0"

// Options configures a Client.
type Options struct {
	BaseURL string

	// DialTimeout and ResponseHeaderTimeout bound the transport.
	// Zero values select the package defaults.
	DialTimeout           time.Duration
	ResponseHeaderTimeout time.Duration

	// RequestTimeout bounds a whole request. Zero means no limit.
	RequestTimeout time.Duration

	// Jar holds the session cookie. A fresh jar is created when nil.
	Jar http.CookieJar

	Logger  *slog.Logger
	Metrics metrics.Recorder
}

// Client talks to the banking API. Session state lives only in its cookie jar.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	jar      http.CookieJar
	validate *validator.Validate
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// New creates a Client for the API rooted at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https, got %q", opts.BaseURL)
	}

	jar := opts.Jar
	if jar == nil {
		jar, err = NewCookieJar()
		if err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return &Client{
		baseURL:  base,
		http:     NewHTTPClient(jar, opts.DialTimeout, opts.ResponseHeaderTimeout, opts.RequestTimeout),
		jar:      jar,
		validate: validator.New(),
		logger:   logger,
		metrics:  recorder,
	}, nil
}

// NewCookieJar returns a jar that scopes cookies by public suffix.
func NewCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}

// NewHTTPClient creates an HTTP client configured for API calls.
// It keeps cookies in jar and does not follow redirects.
func NewHTTPClient(jar http.CookieJar, dialTimeout, headerTimeout, requestTimeout time.Duration) *http.Client {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	if headerTimeout <= 0 {
		headerTimeout = DefaultResponseHeaderTimeout
	}

	return &http.Client{
		Timeout: requestTimeout,
		Jar:     jar,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   dialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: headerTimeout,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Cookies returns the cookies the jar would send to the API.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// SetCookies seeds the jar, e.g. with a session restored from storage.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.jar.SetCookies(c.baseURL, cookies)
}

// Do performs one API call. method defaults to GET. A non-nil body is sent
// as JSON. When out is non-nil a 2xx body is decoded into it and validated;
// otherwise the body is read and discarded.
//
// Every failure is an *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindNetwork, Message: MessageRequestFailed, Err: fmt.Errorf("encode request body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL.String() + path
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: MessageRequestFailed, Err: fmt.Errorf("build request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(req, requestID, start, &Error{Kind: KindNetwork, Message: MessageRequestFailed, Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return c.fail(req, requestID, start, &Error{
			Kind:    KindNetwork,
			Status:  resp.StatusCode,
			Message: MessageRequestFailed,
			Err:     fmt.Errorf("read response body: %w", err),
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(req, requestID, start, &Error{
			Kind:    KindStatus,
			Status:  resp.StatusCode,
			Message: errorMessage(raw),
		})
	}

	if out != nil {
		if err := c.decode(raw, out); err != nil {
			return c.fail(req, requestID, start, &Error{
				Kind:    KindSchema,
				Status:  resp.StatusCode,
				Message: MessageInvalidResponse,
				Err:     err,
			})
		}
	}

	duration := time.Since(start)
	c.metrics.IncAPIRequest("ok")
	c.metrics.ObserveAPIRequestDuration(duration)
	c.logger.Debug("api request",
		slog.String("request_id", requestID),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status_code", resp.StatusCode),
		slog.Float64("duration_ms", float64(duration.Microseconds())/1000),
	)
	return nil
}

// fail records and logs a failed request and returns apiErr unchanged.
func (c *Client) fail(req *http.Request, requestID string, start time.Time, apiErr *Error) error {
	duration := time.Since(start)
	c.metrics.IncAPIRequest(string(apiErr.Kind))
	c.metrics.ObserveAPIRequestDuration(duration)

	attrs := []slog.Attr{
		slog.String("request_id", requestID),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.String("kind", string(apiErr.Kind)),
		slog.Float64("duration_ms", float64(duration.Microseconds())/1000),
	}
	if apiErr.Status != 0 {
		attrs = append(attrs, slog.Int("status_code", apiErr.Status))
	}
	if apiErr.Err != nil {
		attrs = append(attrs, slog.String("error", apiErr.Err.Error()))
	}
	c.logger.LogAttrs(req.Context(), slog.LevelDebug, "api request failed", attrs...)

	return apiErr
}

func (c *Client) decode(raw []byte, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	err := c.validate.Struct(out)
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		// out is not a struct; nothing to validate
		return nil
	}
	if err != nil {
		return fmt.Errorf("validate response: %w", err)
	}
	return nil
}

// errorMessage extracts the server-provided error text from a failure body.
// Anything unreadable falls back to MessageRequestFailed.
func errorMessage(raw []byte) string {
	var body dto.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return MessageRequestFailed
	}
	if body.Error == "" {
		return MessageRequestFailed
	}
	return body.Error
}
