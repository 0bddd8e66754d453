package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"testing"
	"time"
)

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"network timeout", &net.DNSError{IsTimeout: true}, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"context deadline", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, false},
		{"other error", errors.New("other"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetriable(tt.err); got != tt.want {
				t.Errorf("IsRetriable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetriableStatus(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{200, false},
		{404, false},
		{429, true},
		{500, false},
		{502, true},
		{503, true},
		{504, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			if got := IsRetriableStatus(tt.code); got != tt.want {
				t.Errorf("IsRetriableStatus(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := DefaultRetryConfig()

	tests := []struct {
		attempt int
		wantMin time.Duration
		wantMax time.Duration
	}{
		{0, 180 * time.Millisecond, 220 * time.Millisecond},
		{1, 360 * time.Millisecond, 440 * time.Millisecond},
		{2, 720 * time.Millisecond, 880 * time.Millisecond},
		{20, 9 * time.Second, 11 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			backoff := cfg.CalculateBackoff(tt.attempt)
			if backoff < tt.wantMin || backoff > tt.wantMax {
				t.Errorf("CalculateBackoff(%d) = %v, want between %v and %v",
					tt.attempt, backoff, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "3", 3 * time.Second},
		{"negative", "-1", 0},
		{"capped", "86400", maxRetryAfter},
		{"past date", "Mon, 02 Jan 2006 15:04:05 GMT", 0},
		{"garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRetryAfter(tt.header); got != tt.want {
				t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestParseRetryAfter_FutureDate(t *testing.T) {
	header := time.Now().Add(30 * time.Second).UTC().Format(http.TimeFormat)

	got := ParseRetryAfter(header)
	if got <= 0 || got > 31*time.Second {
		t.Errorf("ParseRetryAfter(%q) = %v, want within (0, 31s]", header, got)
	}
}
