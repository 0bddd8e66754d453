// Package http is the client the remote store backend uses to read another
// hrref's record feed. Every read is a GET that is retried on transient
// failures, optionally behind a per-host circuit breaker and rate limiter.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/willibrandon/hrref/auth"
	"github.com/willibrandon/hrref/observability"
	"github.com/willibrandon/hrref/resilience"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "hrref/0.1.0"
)

// Config configures a Client. Zero values take the defaults.
type Config struct {
	Timeout       time.Duration
	UserAgent     string
	Transport     TransportConfig
	RetryConfig   *RetryConfig
	Logger        observability.Logger
	EnableTracing bool

	// CircuitBreakerConfig and RateLimiterConfig enable the per-host
	// policies when set.
	CircuitBreakerConfig *resilience.CircuitBreakerConfig
	RateLimiterConfig    *resilience.TokenBucketConfig

	// Authenticator adds credentials to every attempt. nil sends none.
	Authenticator auth.Authenticator
}

// DefaultConfig is the configuration NewClient(nil) uses.
func DefaultConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		Transport:   DefaultTransportConfig(),
		RetryConfig: DefaultRetryConfig(),
	}
}

// Client issues feed reads.
type Client struct {
	hc            *http.Client
	userAgent     string
	retry         *RetryConfig
	logger        observability.Logger
	breaker       *resilience.EndpointBreaker
	limiter       *resilience.EndpointLimiter
	authenticator auth.Authenticator
}

// NewClient builds a client from cfg; nil means DefaultConfig().
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	tc := cfg.Transport
	if tc == (TransportConfig{}) {
		tc = DefaultTransportConfig()
	}
	rt := NewTransport(tc)
	if cfg.EnableTracing {
		rt = observability.NewHTTPTracingTransport(rt, observability.TracerName)
	}

	c := &Client{
		hc:            &http.Client{Transport: rt, Timeout: cfg.Timeout},
		userAgent:     cfg.UserAgent,
		retry:         cfg.RetryConfig,
		logger:        cfg.Logger,
		authenticator: cfg.Authenticator,
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.retry == nil {
		c.retry = DefaultRetryConfig()
	}
	if c.logger == nil {
		c.logger = observability.NewNullLogger()
	}
	if cfg.CircuitBreakerConfig != nil {
		c.breaker = resilience.NewEndpointBreaker(*cfg.CircuitBreakerConfig)
	}
	if cfg.RateLimiterConfig != nil {
		c.limiter = resilience.NewEndpointLimiter(*cfg.RateLimiterConfig)
	}
	return c
}

// Get reads url as JSON. Transport errors and 429/502/503/504 are retried
// with backoff; once retries run out a retriable status is returned as the
// response. The rate limiter is charged once per Get and the circuit breaker
// sees the whole retry sequence as one call.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	host := req.URL.Host

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, host); err != nil {
			c.logger.WarnContext(ctx, "Rate limit wait for {Host} failed: {Error}", host, err)
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}
	if c.breaker == nil {
		return c.getWithRetry(ctx, req)
	}
	return c.breaker.Execute(ctx, host, func(ctx context.Context) (*http.Response, error) {
		return c.getWithRetry(ctx, req)
	})
}

func (c *Client) getWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, req.Clone(ctx))
		switch {
		case err != nil && !IsRetriable(err):
			return nil, err
		case err == nil && !IsRetriableStatus(resp.StatusCode):
			if attempt > 0 {
				c.logger.InfoContext(ctx, "GET {URL} succeeded after {Attempt} retries", req.URL.String(), attempt)
			}
			return resp, nil
		}

		if attempt == c.retry.MaxRetries {
			if err != nil {
				c.logger.ErrorContext(ctx, "GET {URL} failed after {MaxRetries} retries: {Error}",
					req.URL.String(), c.retry.MaxRetries, err)
				return nil, fmt.Errorf("after %d retries: %w", c.retry.MaxRetries, err)
			}
			return resp, nil
		}

		wait := c.retry.CalculateBackoff(attempt)
		cause := err
		if resp != nil {
			if d := ParseRetryAfter(resp.Header.Get("Retry-After")); d > 0 {
				wait = d
			}
			cause = fmt.Errorf("status %d", resp.StatusCode)
			_ = resp.Body.Close()
		}
		observability.RecordRetry(ctx, attempt+1, cause)
		c.logger.DebugContext(ctx, "GET {URL} retry {Attempt}/{MaxRetries} in {Backoff}ms: {Error}",
			req.URL.String(), attempt+1, c.retry.MaxRetries, wait.Milliseconds(), cause)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// send performs one attempt and records it.
func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.authenticator != nil {
		if err := c.authenticator.Authenticate(req); err != nil {
			return nil, fmt.Errorf("authenticate request: %w", err)
		}
	}

	host := req.URL.Host
	start := time.Now()
	resp, err := c.hc.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		observability.HTTPRequestsTotal.WithLabelValues(req.Method, "error", host).Inc()
		c.logger.WarnContext(ctx, "GET {URL} failed after {Duration}ms: {Error}",
			req.URL.String(), elapsed.Milliseconds(), err)
		return nil, err
	}

	observability.HTTPRequestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode), host).Inc()
	observability.HTTPRequestDuration.WithLabelValues(req.Method, host).Observe(elapsed.Seconds())
	c.logger.DebugContext(ctx, "GET {URL} → {StatusCode} in {Duration}ms",
		req.URL.String(), resp.StatusCode, elapsed.Milliseconds())
	return resp, nil
}

// Close drops idle connections and closes the HTTP/3 transport if used.
func (c *Client) Close() error {
	c.hc.CloseIdleConnections()
	if closer, ok := c.hc.Transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Option adjusts the Config built by NewClientWithOptions.
type Option func(*Config)

// NewClientWithOptions applies opts to DefaultConfig().
func NewClientWithOptions(opts ...Option) *Client {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return NewClient(cfg)
}

func WithTimeout(d time.Duration) Option { return func(c *Config) { c.Timeout = d } }

func WithUserAgent(ua string) Option { return func(c *Config) { c.UserAgent = ua } }

func WithLogger(l observability.Logger) Option { return func(c *Config) { c.Logger = l } }

func WithRetryConfig(r *RetryConfig) Option { return func(c *Config) { c.RetryConfig = r } }

func WithTracing() Option { return func(c *Config) { c.EnableTracing = true } }

func WithAuthenticator(a auth.Authenticator) Option {
	return func(c *Config) { c.Authenticator = a }
}

// WithMaxRetries keeps the default backoff and changes only the retry count.
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		r := *DefaultRetryConfig()
		if c.RetryConfig != nil {
			r = *c.RetryConfig
		}
		r.MaxRetries = n
		c.RetryConfig = &r
	}
}

func WithCircuitBreaker(cb resilience.CircuitBreakerConfig) Option {
	return func(c *Config) { c.CircuitBreakerConfig = &cb }
}

func WithRateLimiter(tb resilience.TokenBucketConfig) Option {
	return func(c *Config) { c.RateLimiterConfig = &tb }
}
