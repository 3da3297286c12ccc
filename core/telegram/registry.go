package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/wordbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Hidden      bool
	Aliases     []string
}

// Registry holds bot commands, callback handlers and fallbacks.
type Registry struct {
	commands map[string]Command

	callbacksMu      sync.RWMutex
	callbacks        map[string]tele.HandlerFunc
	prefixes         map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc

	textFallback    tele.HandlerFunc
	documentHandler tele.HandlerFunc
}

// NewRegistry creates an empty Registry. Unknown callbacks are acknowledged silently.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]Command),
		callbacks: make(map[string]tele.HandlerFunc),
		prefixes:  make(map[string]tele.HandlerFunc),
		callbackNotFound: func(tele.Context) error {
			return nil
		},
	}
}

// RegisterCommand adds a new command. Invalid and duplicate registrations are logged and skipped.
func (r *Registry) RegisterCommand(name string, cmd Command) {
	ctx := context.Background()
	if name == "" || cmd.Handler == nil || cmd.Description == "" {
		logger.TWire.LogAttrs(ctx, slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "invalid"),
		)
		return
	}
	if name[0] != '/' {
		logger.TWire.LogAttrs(ctx, slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "no_slash_prefix"),
		)
		return
	}
	if _, exists := r.commands[name]; exists {
		logger.TWire.LogAttrs(ctx, slog.LevelWarn, "register.command.duplicate",
			slog.String("name", name),
		)
		return
	}
	r.commands[name] = cmd
}

// ListCommands returns the commands sorted by name, optionally without hidden ones.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	list := make([]tele.Command, 0, len(r.commands))
	for name, meta := range r.commands {
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: name, Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand finds a command by name or alias and returns its canonical name.
// Text after the command word and a "@botname" suffix are ignored.
func (r *Registry) LookupCommand(text string) (string, Command, bool) {
	name, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	name, _, _ = strings.Cut(name, "@")
	if name == "" {
		return "", Command{}, false
	}
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == name || "/"+alias == name {
				return key, cmd, true
			}
		}
	}
	return "", Command{}, false
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]Command {
	return r.commands
}

// RegisterCallback binds handler to an exact callback token.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	return r.register(r.callbacks, "callback", key, handler)
}

// RegisterCallbackPrefix binds handler to every token starting with prefix.
func (r *Registry) RegisterCallbackPrefix(prefix string, handler tele.HandlerFunc) error {
	return r.register(r.prefixes, "callback_prefix", prefix, handler)
}

func (r *Registry) register(into map[string]tele.HandlerFunc, kind, key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register."+kind+".skip",
			slog.String("key", key),
			slog.Bool("handler_nil", handler == nil),
		)
		return errors.New("invalid callback registration")
	}
	r.callbacksMu.Lock()
	defer r.callbacksMu.Unlock()
	if _, exists := into[key]; exists {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register."+kind+".duplicate",
			slog.String("key", key),
		)
		return fmt.Errorf("callback already registered: %s", key)
	}
	into[key] = handler
	return nil
}

// GetCallback returns the handler for token: an exact match first, then the longest prefix.
func (r *Registry) GetCallback(token string) (tele.HandlerFunc, bool) {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	if h, ok := r.callbacks[token]; ok {
		return h, true
	}
	var (
		best    string
		handler tele.HandlerFunc
	)
	for prefix, h := range r.prefixes {
		if strings.HasPrefix(token, prefix) && len(prefix) > len(best) {
			best, handler = prefix, h
		}
	}
	return handler, handler != nil
}

// ListCallbacks returns sorted keys (for diagnostics); prefixes end with "*".
func (r *Registry) ListCallbacks() []string {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	names := make([]string, 0, len(r.callbacks)+len(r.prefixes))
	for k := range r.callbacks {
		names = append(names, k)
	}
	for k := range r.prefixes {
		names = append(names, k+"*")
	}
	sort.Strings(names)
	return names
}

// SetCallbackNotFound replaces the fallback handler for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text that matches no command.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// SetDocumentHandler sets the handler for uploaded documents.
func (r *Registry) SetDocumentHandler(h tele.HandlerFunc) {
	r.documentHandler = h
}

// DocumentHandler returns the document handler, or nil.
func (r *Registry) DocumentHandler() tele.HandlerFunc {
	return r.documentHandler
}

// InitBotCommands publishes the visible commands in the Telegram command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if len(list) == 0 {
		return
	}
	if err := bot.SetCommands(list); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			logger.Err(err),
		)
	}
}
