package netutil

import (
	"errors"
	"net"
	"net/url"
	"time"

	tele "gopkg.in/telebot.v4"
)

// ShouldRetry reports whether a failed Telegram call is worth repeating: transient
// network failures and 429 flood responses.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := RetryAfter(err); ok {
		return true
	}
	return IsTransient(err)
}

// RetryAfter extracts the server-provided wait from a flood error.
func RetryAfter(err error) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	return 0, false
}

// IsTransient reports dial and timeout failures produced by net/http while contacting
// the Telegram API. The HTTP transport retries on these only.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() || opErr.Op == "dial" {
			return true
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return IsTransient(urlErr.Err)
		}
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
