package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPoller(t *testing.T) {
	t.Run("longpoll default timeout", func(t *testing.T) {
		p, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
		if !ok {
			t.Fatal("expected long poller")
		}
		if p.Timeout != defaultLongPollTimeout {
			t.Fatalf("timeout = %v", p.Timeout)
		}
		if len(p.AllowedUpdates) != 2 {
			t.Fatalf("allowed updates = %v", p.AllowedUpdates)
		}
	})

	t.Run("webhook", func(t *testing.T) {
		opts := PollerOptions{
			RunMode: "Webhook",
			Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"},
		}
		p, ok := BuildPoller(opts).(*tele.Webhook)
		if !ok {
			t.Fatal("expected webhook poller")
		}
		if p.Listen != "0.0.0.0:8443" || p.Endpoint.PublicURL != "https://example.org/hook" {
			t.Fatalf("webhook = %+v", p)
		}
		if opts.LongPollTimeout() != 0 {
			t.Fatalf("webhook long poll timeout = %v", opts.LongPollTimeout())
		}
	})
}

func TestHTTPClientOutlastsLongPoll(t *testing.T) {
	c := BuildHTTPClient(ClientOptions{Timeout: 5 * time.Second}, 60*time.Second)
	if c.Timeout != 70*time.Second {
		t.Fatalf("timeout = %v", c.Timeout)
	}
	c = BuildHTTPClient(ClientOptions{}, 0)
	if c.Timeout != 30*time.Second {
		t.Fatalf("default timeout = %v", c.Timeout)
	}
}
