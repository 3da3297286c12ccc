// Package bot connects the quiz dispatcher to telebot: updates become dispatch events and
// replies are rendered as inline keyboards sent through the ordered sender.
package bot

import (
	"context"
	"errors"
	"strings"

	tg "github.com/m3rciful/wordbot/core/telegram"
	"github.com/m3rciful/wordbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/wordbot/core/telegram/helpers"
	"github.com/m3rciful/wordbot/core/telegram/keyboard"
	"github.com/m3rciful/wordbot/trainer/dispatch"

	"github.com/samber/lo"
	tele "gopkg.in/telebot.v4"
)

// Dispatcher is the part of dispatch.Dispatcher the adapter needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev dispatch.Event) ([]dispatch.Reply, error)
}

// Adapter routes Telegram updates to a Dispatcher.
type Adapter struct {
	dispatcher Dispatcher
}

// NewAdapter returns an adapter for d.
func NewAdapter(d Dispatcher) *Adapter {
	return &Adapter{dispatcher: d}
}

// Register binds the adapter to the command, callback, text and document routes of reg.
func (a *Adapter) Register(reg *tg.Registry) error {
	reg.RegisterCommand(dispatch.CommandStart, tg.Command{
		Handler:     a.Handle,
		Description: "Main menu",
	})
	var errs []error
	for _, token := range []string{
		dispatch.TokenLearn,
		dispatch.TokenStatistics,
		dispatch.TokenReset,
		dispatch.TokenMainMenu,
	} {
		errs = append(errs, reg.RegisterCallback(token, a.Handle))
	}
	errs = append(errs, reg.RegisterCallbackPrefix(dispatch.TokenAnswerPrefix, a.Handle))
	reg.SetTextFallback(a.Handle)
	reg.SetDocumentHandler(a.Handle)
	return errors.Join(errs...)
}

// Handle converts c into an event, dispatches it and sends the replies in order.
func (a *Adapter) Handle(c tele.Context) error {
	ev, ok := EventFrom(c)
	if !ok {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	replies, err := a.dispatcher.Dispatch(ctx, ev)
	for _, r := range replies {
		if sendErr := tghelpers.SendTextTo(c, r.ChatID, r.Text, Markup(r)); sendErr != nil {
			err = errors.Join(err, sendErr)
		}
	}
	return err
}

// EventFrom decodes the update of c. ok is false for updates the quiz does not handle.
func EventFrom(c tele.Context) (dispatch.Event, bool) {
	chatID := tghelpers.ChatID(c)
	if chatID == 0 {
		return dispatch.Event{}, false
	}
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		token := callbacks.Token(upd.Callback)
		if token == "" {
			return dispatch.Event{}, false
		}
		return dispatch.Event{Kind: dispatch.KindButton, ChatID: chatID, Token: token}, true
	case upd.Message != nil && upd.Message.Document != nil:
		doc := upd.Message.Document
		return dispatch.Event{
			Kind:   dispatch.KindFile,
			ChatID: chatID,
			File:   dispatch.FileRef{ID: doc.FileID, Name: doc.FileName, Size: doc.FileSize},
		}, true
	case upd.Message != nil && upd.Message.Text != "":
		return dispatch.Event{Kind: dispatch.KindText, ChatID: chatID, Text: upd.Message.Text}, true
	}
	return dispatch.Event{}, false
}

// Markup renders the choices of r. Answer variants get a row each so long translations
// stay readable; menu buttons are laid out two per row.
func Markup(r dispatch.Reply) *tele.ReplyMarkup {
	if len(r.Choices) == 0 {
		return nil
	}
	buttons := lo.Map(r.Choices, func(ch dispatch.Choice, _ int) keyboard.InlineBtn {
		return keyboard.InlineBtn{Text: ch.Label, Data: ch.Token}
	})
	isAnswer := lo.ContainsBy(r.Choices, func(ch dispatch.Choice) bool {
		return strings.HasPrefix(ch.Token, dispatch.TokenAnswerPrefix)
	})
	if isAnswer {
		return keyboard.InlineButtons(buttons)
	}
	return keyboard.InlineButtonsNPerRow(buttons, 2)
}
