package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions. nil makes the
// helpers send synchronously.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// enqueueWait bounds how long a reply waits for room in a saturated chat lane.
const enqueueWait = 30 * time.Second

// sendAsync queues run on the chat's lane. A full lane makes the caller wait rather than
// send directly, which would overtake replies still queued for the same chat.
func sendAsync(c tele.Context, chatID int64, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, chatID, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) {
		logger.Warn(ctx, logger.CompTG, "queue.full",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
		)
		waitCtx, cancel := context.WithTimeout(ctx, enqueueWait)
		defer cancel()
		err = disp.EnqueueWait(waitCtx, chatID, action, endpoint, run)
	}
	if err != nil {
		logger.Error(ctx, logger.CompTG, "queue.dropped",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			logger.Err(err),
		)
	}
	return err
}

// SendText sends raw text (no parse mode) to the chat of the update.
func SendText(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return SendTextTo(c, ChatID(c), text, markup)
}

// SendTextTo sends raw text to chatID. Messages queued for one chat are delivered in order.
func SendTextTo(c tele.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ReplyMarkup: markup}
	action := "send.text"
	if markup != nil {
		action = "send.keyboard"
	}
	err := sendAsync(c, chatID, action, "sendMessage", func() error {
		_, err := c.Bot().Send(tele.ChatID(chatID), text, opts)
		return err
	})
	if err == nil {
		CountMessage(c, markup != nil)
	}
	return err
}

// CountMessage records an outbound message on c for the handler summary log.
func CountMessage(c tele.Context, keyboard bool) {
	n, _ := c.Get(MessagesKey).(int)
	c.Set(MessagesKey, n+1)
	if keyboard {
		c.Set(KeyboardKey, true)
	}
}

// Counters returns the number of messages sent for the update and whether any of them
// carried a keyboard.
func Counters(c tele.Context) (int, bool) {
	n, _ := c.Get(MessagesKey).(int)
	kb, _ := c.Get(KeyboardKey).(bool)
	return n, kb
}
