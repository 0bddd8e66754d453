package http

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"golang.org/x/net/http2"
)

// TransportConfig tunes the connection pool the remote store reads through.
type TransportConfig struct {
	EnableHTTP2 bool

	// EnableHTTP3 sends https reads over QUIC first. A failed QUIC attempt
	// is retried on the TCP transport.
	EnableHTTP3 bool

	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	DialTimeout         time.Duration

	// HeaderTimeout bounds the wait for response headers on each attempt.
	HeaderTimeout time.Duration

	TLSConfig *tls.Config
}

// DefaultTransportConfig talks HTTP/1.1 or HTTP/2. A remote store is usually
// a single host, so the pool stays small.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		EnableHTTP2:         true,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		DialTimeout:         10 * time.Second,
		HeaderTimeout:       10 * time.Second,
	}
}

// NewTransport builds the round tripper for cfg. The result implements
// io.Closer when HTTP/3 is enabled.
func NewTransport(cfg TransportConfig) http.RoundTripper {
	tcp := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.DialTimeout,
		ResponseHeaderTimeout: cfg.HeaderTimeout,
		TLSClientConfig:       cfg.TLSConfig,
	}
	if cfg.EnableHTTP2 {
		// On failure the transport keeps speaking HTTP/1.1.
		_ = http2.ConfigureTransport(tcp)
	}
	if !cfg.EnableHTTP3 {
		return tcp
	}

	tlsCfg := cfg.TLSConfig
	if tlsCfg == nil {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &quicFirst{
		tcp: tcp,
		h3:  &http3.Transport{TLSClientConfig: tlsCfg, QUICConfig: &quic.Config{}},
	}
}

// quicFirst tries HTTP/3 for https and falls back to tcp.
type quicFirst struct {
	tcp *http.Transport
	h3  *http3.Transport
}

func (t *quicFirst) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme == "https" {
		if resp, err := t.h3.RoundTrip(req); err == nil {
			return resp, nil
		}
	}
	return t.tcp.RoundTrip(req)
}

func (t *quicFirst) CloseIdleConnections() {
	t.tcp.CloseIdleConnections()
}

func (t *quicFirst) Close() error {
	return t.h3.Close()
}
