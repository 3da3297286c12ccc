package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

const compSender = "tg.sender"

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize is the buffer of each worker lane.
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

type job struct {
	ctx      context.Context
	chatID   int64
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries. Jobs of one
// chat always land on the same worker lane, so messages of a chat keep their order.
type Dispatcher struct {
	opts  Options
	lanes []chan job

	mu     sync.RWMutex
	closed bool
	once   sync.Once
	wg     sync.WaitGroup

	sent atomic.Uint64
	errs atomic.Uint64
}

// NewDispatcher starts a dispatcher with sane defaults if options are zeroed.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 30 * time.Second
	}

	d := &Dispatcher{
		opts:  opts,
		lanes: make([]chan job, opts.Workers),
	}
	d.wg.Add(opts.Workers)
	for i := range d.lanes {
		d.lanes[i] = make(chan job, opts.QueueSize)
		go d.worker(d.lanes[i])
	}
	return d
}

// Enqueue schedules run on the lane owned by chatID. It fails with ErrQueueFull instead of
// waiting when the lane is saturated.
// The run closure must be idempotent if retries are desired.
func (d *Dispatcher) Enqueue(ctx context.Context, chatID int64, action, endpoint string, run func() error) error {
	return d.enqueue(ctx, job{ctx: ctx, chatID: chatID, action: action, endpoint: endpoint, run: run}, false)
}

// EnqueueWait is Enqueue that waits for room in the lane until ctx is done.
func (d *Dispatcher) EnqueueWait(ctx context.Context, chatID int64, action, endpoint string, run func() error) error {
	return d.enqueue(ctx, job{ctx: ctx, chatID: chatID, action: action, endpoint: endpoint, run: run}, true)
}

func (d *Dispatcher) enqueue(ctx context.Context, j job, wait bool) error {
	if j.run == nil {
		return errors.New("telegram sender: nil run function")
	}

	// Workers drain lanes without the lock, so a waiting sender never blocks Close for good.
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}

	lane := d.lanes[d.laneFor(j.chatID)]
	if !wait {
		select {
		case lane <- j:
			return nil
		default:
			return ErrQueueFull
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case lane <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) laneFor(chatID int64) int {
	n := int64(len(d.lanes))
	idx := chatID % n
	if idx < 0 {
		idx += n
	}
	return int(idx)
}

// SentCount returns the number of delivered jobs.
func (d *Dispatcher) SentCount() uint64 {
	return d.sent.Load()
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		for _, lane := range d.lanes {
			close(lane)
		}
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker(lane <-chan job) {
	defer d.wg.Done()
	for j := range lane {
		d.handleJob(j)
	}
}

func (d *Dispatcher) handleJob(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	// Replies must still go out after the update handler returned.
	deadlineCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	logger.Debug(ctx, compSender, "send.start", sendLogAttrs(ctx, j)...)

	attempts := d.opts.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := deadlineCtx.Err(); err != nil {
			lastErr = err
			break
		}

		err := j.run()
		if err == nil {
			if attempt > 1 {
				logger.Info(ctx, compSender, "send.retry.success",
					append(sendLogAttrs(ctx, j),
						slog.Int("attempt", attempt),
						slog.Duration("elapsed", time.Since(start)),
					)...,
				)
			}
			d.sent.Add(1)
			logger.Debug(ctx, compSender, "send.success",
				append(sendLogAttrs(ctx, j), slog.Duration("elapsed", time.Since(start)))...,
			)
			return
		}

		lastErr = err
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}

		delay := d.opts.RetryBackoff * time.Duration(attempt)
		if wait, ok := netutil.RetryAfter(err); ok && wait > delay {
			delay = wait
		}
		logger.Debug(ctx, compSender, "send.retry.backoff",
			append(sendLogAttrs(ctx, j),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)...,
		)
		timer := time.NewTimer(delay)
		select {
		case <-deadlineCtx.Done():
			timer.Stop()
			lastErr = deadlineCtx.Err()
			attempt = attempts
		case <-timer.C:
		}
	}

	d.errs.Add(1)
	logger.Error(ctx, compSender, "send.fail",
		append(sendLogAttrs(ctx, j),
			slog.String("err", sanitizeErrorMessage(lastErr)),
			slog.String("error_kind", classifyError(lastErr)),
			slog.Int("attempts", attempts),
			slog.Duration("elapsed", time.Since(start)),
		)...,
	)
}

func sendLogAttrs(ctx context.Context, j job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	if j.chatID != 0 && logger.ChatIDFrom(ctx) == 0 {
		attrs = append(attrs, slog.Int64("chat_id", j.chatID))
	}
	return attrs
}

func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if _, ok := netutil.RetryAfter(err); ok {
		return "flood"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return "timeout"
		}
		if opErr.Op == "dial" {
			return "dial"
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "timeout"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}

	status := httpStatusFromError(err)
	switch {
	case status >= 500:
		return "http_5xx"
	case status >= 400:
		return "http_4xx"
	}
	return "unknown"
}

// sanitizeErrorMessage prevents accidental leakage of Telegram bot tokens in logs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

func httpStatusFromError(err error) int {
	if err == nil {
		return 0
	}

	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	if _, ok := netutil.RetryAfter(err); ok {
		return http.StatusTooManyRequests
	}

	msg := err.Error()
	lastOpen := strings.LastIndex(msg, "(")
	lastClose := strings.LastIndex(msg, ")")
	if lastOpen >= 0 && lastClose > lastOpen+1 {
		if code, convErr := strconv.Atoi(strings.TrimSpace(msg[lastOpen+1 : lastClose])); convErr == nil {
			return code
		}
	}
	return 0
}
