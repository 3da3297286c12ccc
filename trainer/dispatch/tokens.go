package dispatch

import (
	"strconv"
	"strings"
)

// Button tokens travel as raw callback data.
const (
	TokenLearn        = "learn_words_clicked"
	TokenStatistics   = "statistics_clicked"
	TokenReset        = "reset_clicked"
	TokenMainMenu     = "main_menu_clicked"
	TokenAnswerPrefix = "answer_"
)

// CommandStart opens the main menu.
const CommandStart = "/start"

// IsStartCommand reports whether text is /start, also in the "/start@bot" form Telegram
// uses in groups and with a deep-link payload after it.
func IsStartCommand(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return cmd == CommandStart
}

// AnswerToken returns the token of the variant at index.
func AnswerToken(index int) string {
	return TokenAnswerPrefix + strconv.Itoa(index)
}

// ParseAnswerToken extracts the variant index. ok is false when token is not an answer
// token at all; err is set when it is one but the index is malformed.
func ParseAnswerToken(token string) (index int, ok bool, err error) {
	rest, found := strings.CutPrefix(token, TokenAnswerPrefix)
	if !found {
		return 0, false, nil
	}
	index, err = strconv.Atoi(rest)
	if err != nil {
		return 0, true, err
	}
	return index, true, nil
}

// IsKnownToken reports whether token is handled by the dispatcher.
func IsKnownToken(token string) bool {
	switch token {
	case TokenLearn, TokenStatistics, TokenReset, TokenMainMenu:
		return true
	}
	return strings.HasPrefix(token, TokenAnswerPrefix)
}
