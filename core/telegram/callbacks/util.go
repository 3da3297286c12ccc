package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Token returns the callback token of a button press. Buttons are built with raw data,
// but a telebot-encoded "\f<unique>|<payload>" value is reduced to its unique part.
func Token(cb *tele.Callback) string {
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return strings.TrimSpace(cb.Unique)
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	key, _, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(key)
}

// ContextToken is Token for the callback of c.
func ContextToken(c tele.Context) string {
	return Token(c.Callback())
}

// HandlerName groups tokens for logging: "answer_3" becomes "answer".
func HandlerName(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return "unknown"
	}
	if head, _, ok := strings.Cut(token, "_"); ok && isDigits(token[len(head)+1:]) {
		return head
	}
	return token
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
