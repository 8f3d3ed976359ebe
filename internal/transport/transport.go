// Package transport builds the HTTP clients shared by the Akamai API clients.
// It handles authentication, connection lifecycle, request logging and metrics.
package transport

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrUnauthorized is returned when Akamai rejects the credentials of a call.
var ErrUnauthorized = errors.New("unauthorized: invalid Akamai credentials")

// Config holds the settings of an HTTP client.
type Config struct {
	Username string
	Password string
	Timeout  time.Duration

	// Log enables logging of every request and response body.
	Log bool
}

type options struct {
	logger  *slog.Logger
	metrics *Metrics
	base    http.RoundTripper
}

// Options represents an optional function to override client default values.
type Options func(*options)

// WithLogger sets the logger used when body logging is enabled.
func WithLogger(l *slog.Logger) Options {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics instruments the client with m.
func WithMetrics(m *Metrics) Options {
	return func(o *options) {
		o.metrics = m
	}
}

// WithBaseTransport sets the round tripper performing the actual requests.
func WithBaseTransport(rt http.RoundTripper) Options {
	return func(o *options) {
		o.base = rt
	}
}

// New returns an HTTP client for the named API client.
//
// Every request is sent with basic authentication and closes its connection once done.
func New(name string, conf Config, args ...Options) *http.Client {
	opts := options{
		logger: slog.Default(),
		base:   http.DefaultTransport,
	}
	for _, opt := range args {
		opt(&opts)
	}

	var rt http.RoundTripper = authRoundTripper{
		username: conf.Username,
		password: conf.Password,
		next:     opts.base,
	}
	if conf.Log {
		rt = logRoundTripper{log: opts.logger.With("client", name), next: rt}
	}
	if opts.metrics != nil {
		rt = opts.metrics.instrument(name, rt)
	}

	return &http.Client{
		Transport: rt,
		Timeout:   conf.Timeout,
	}
}

type authRoundTripper struct {
	username string
	password string
	next     http.RoundTripper
}

func (a authRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.SetBasicAuth(a.username, a.password)
	r.Close = true
	return a.next.RoundTrip(r)
}

type logRoundTripper struct {
	log  *slog.Logger
	next http.RoundTripper
}

func (l logRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	id := uuid.NewString()

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			return nil, err
		}
		r = r.Clone(r.Context())
		r.Body = io.NopCloser(bytes.NewReader(body))
	}
	l.log.Debug("Sending request", "request_id", id, "method", r.Method, "url", r.URL.Redacted(), "body", string(body))

	resp, err := l.next.RoundTrip(r)
	if err != nil {
		l.log.Debug("Request failed", "request_id", id, "error", err)
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	l.log.Debug("Received response", "request_id", id, "status", resp.StatusCode, "body", string(data))

	return resp, nil
}
