package telegram

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/wordbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// AllowedUpdates lists the update kinds the bot subscribes to; documents arrive as messages.
var AllowedUpdates = []string{"message", "callback_query"}

// WebhookOptions declares webhook listener settings.
type WebhookOptions struct {
	Listen string
	Port   int
	URL    string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
}

// LongPollTimeout returns the effective long polling timeout, or 0 in webhook mode.
func (o PollerOptions) LongPollTimeout() time.Duration {
	if o.isWebhook() {
		return 0
	}
	if o.LongPollTimeoutSeconds <= 0 {
		return defaultLongPollTimeout
	}
	return time.Duration(o.LongPollTimeoutSeconds) * time.Second
}

func (o PollerOptions) isWebhook() bool {
	return strings.EqualFold(strings.TrimSpace(o.RunMode), coreconfig.RunModeWebhook)
}

// PollerOptionsFrom maps the telegram and webhook config sections.
func PollerOptionsFrom(cfg *coreconfig.Config) PollerOptions {
	return PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	}
}

// BuildPoller returns a Telebot poller based on provided options.
func BuildPoller(opts PollerOptions) tele.Poller {
	if opts.isWebhook() {
		return &tele.Webhook{
			Listen:         fmt.Sprintf("%s:%d", opts.Webhook.Listen, opts.Webhook.Port),
			Endpoint:       &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
			AllowedUpdates: AllowedUpdates,
		}
	}
	return &tele.LongPoller{
		Timeout:        opts.LongPollTimeout(),
		AllowedUpdates: AllowedUpdates,
	}
}
