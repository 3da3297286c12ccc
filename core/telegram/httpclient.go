package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/wordbot/core/telegram/netutil"
)

// ClientOptions tunes BuildHTTPClient; zero fields fall back to defaults.
type ClientOptions struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
}

func (o ClientOptions) withDefaults(longPoll time.Duration) ClientOptions {
	// getUpdates holds the connection open for the poll timeout, so the overall
	// deadline has to outlast it.
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if floor := longPoll + 10*time.Second; o.Timeout < floor {
		o.Timeout = floor
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	return o
}

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls. longPoll is the
// poller timeout, 0 in webhook mode.
func BuildHTTPClient(opts ClientOptions, longPoll time.Duration) *http.Client {
	opts = opts.withDefaults(longPoll)
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: opts.RetryAttempts,
			backoff:    opts.RetryBackoff,
		},
	}
}

type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := t.maxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		curr := req
		if attempt > 1 {
			// A consumed body without GetBody cannot be replayed.
			if req.Body != nil && req.GetBody == nil {
				return nil, lastErr
			}
			curr = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				curr.Body = body
			}
		}

		resp, err := base.RoundTrip(curr)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !netutil.IsTransient(err) || attempt == attempts {
			break
		}

		timer := time.NewTimer(t.backoff * time.Duration(attempt))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}
