package netutil

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("bad request"), want: false},
		{name: "dial", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: true},
		{name: "read timeout", err: &net.OpError{Op: "read", Err: timeoutErr{}}, want: true},
		{name: "url wrapping dial", err: &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}, want: true},
		{name: "wrapped timeout", err: fmt.Errorf("send: %w", timeoutErr{}), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err); got != tt.want {
				t.Fatalf("ShouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryAfterIgnoresOtherErrors(t *testing.T) {
	if d, ok := RetryAfter(errors.New("boom")); ok || d != 0 {
		t.Fatalf("RetryAfter = %v, %v", d, ok)
	}
}
