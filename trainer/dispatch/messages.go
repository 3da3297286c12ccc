package dispatch

import (
	"fmt"
	"unicode/utf8"

	"github.com/m3rciful/wordbot/trainer"
)

// MaxTextLength is the longest message text Telegram accepts, in characters.
const MaxTextLength = 4096

const (
	msgMenu          = "Main menu"
	msgAllLearned    = "You have learned all the words in the dictionary"
	msgEmpty         = "The dictionary is empty"
	msgResetDone     = "Progress has been reset"
	msgCorrect       = "Correct!"
	msgStale         = "Something went wrong or the session has expired!"
	msgSaveFailed    = "Could not save your progress, please try again later"
	msgLoadFailed    = "Could not load your dictionary, please try again later"
	msgFetchFailed   = "Could not download the file"
	msgImportFailed  = "Could not process the file: %v"
	msgImportTooBig  = "The file is too large, the limit is %d bytes"
	msgImportDone    = "File processed! %d new words were added to your dictionary."
	msgImportNothing = "File processed! No new words were found."
	msgEchoPrefix    = "You wrote: "

	labelLearn      = "Learn words"
	labelStatistics = "Statistics"
	labelReset      = "Reset progress"
	labelMainMenu   = "Main menu"
)

func incorrectText(w *trainer.Word) string {
	return fmt.Sprintf("Incorrect! %s is %s", w.Text, w.Translate)
}

func statisticsText(s trainer.Statistics) string {
	return fmt.Sprintf("Learned %d of %d words | %d%%", s.LearnedCount, s.TotalCount, s.Percent)
}

func menuChoices() []Choice {
	return []Choice{
		{Label: labelLearn, Token: TokenLearn},
		{Label: labelStatistics, Token: TokenStatistics},
		{Label: labelReset, Token: TokenReset},
	}
}

func questionChoices(q *trainer.Question) []Choice {
	choices := make([]Choice, 0, len(q.Variants)+1)
	for i, v := range q.Variants {
		choices = append(choices, Choice{Label: v.Translate, Token: AnswerToken(i)})
	}
	return append(choices, Choice{Label: labelMainMenu, Token: TokenMainMenu})
}

// truncate cuts s to at most MaxTextLength characters.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxTextLength {
		return s
	}
	return string([]rune(s)[:MaxTextLength])
}
