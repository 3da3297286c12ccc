// Package trainer holds the vocabulary quiz model: words, dictionaries, questions and the
// pure operations over them. Nothing in this package performs I/O beyond reading and
// writing caller-supplied streams.
package trainer

import (
	"strings"

	"github.com/samber/lo"
)

// Word is a single flashcard with its learning progress.
type Word struct {
	Text                string
	Translate           string
	CorrectAnswersCount int
}

// Key returns the case-insensitive identity used for deduplication.
func (w *Word) Key() string {
	return strings.ToLower(w.Text)
}

// Dictionary is the ordered word list of one chat. Entries are pointers so progress
// updates land on the stored instance.
type Dictionary []*Word

// Statistics summarises learning progress of a dictionary.
type Statistics struct {
	LearnedCount int
	TotalCount   int
	Percent      int
}

// Statistics reports progress against the learned threshold. ok is false for an empty
// dictionary.
func (d Dictionary) Statistics(learnedThreshold int) (Statistics, bool) {
	total := len(d)
	if total == 0 {
		return Statistics{}, false
	}
	learned := lo.CountBy(d, func(w *Word) bool {
		return w.CorrectAnswersCount >= learnedThreshold
	})
	return Statistics{
		LearnedCount: learned,
		TotalCount:   total,
		Percent:      learned * 100 / total,
	}, true
}

// ResetProgress zeroes every counter in place.
func (d Dictionary) ResetProgress() {
	for _, w := range d {
		w.CorrectAnswersCount = 0
	}
}

// Counts snapshots the counters so a failed persist can be undone with RestoreCounts.
func (d Dictionary) Counts() []int {
	return lo.Map(d, func(w *Word, _ int) int { return w.CorrectAnswersCount })
}

// RestoreCounts writes back counters captured by Counts. Extra values are ignored.
func (d Dictionary) RestoreCounts(counts []int) {
	for i, w := range d {
		if i >= len(counts) {
			return
		}
		w.CorrectAnswersCount = counts[i]
	}
}

// Keys returns the set of lowercase texts present in the dictionary.
func (d Dictionary) Keys() map[string]struct{} {
	return lo.Associate(d, func(w *Word) (string, struct{}) {
		return w.Key(), struct{}{}
	})
}

// Clone deep-copies the dictionary.
func (d Dictionary) Clone() Dictionary {
	return lo.Map(d, func(w *Word, _ int) *Word {
		cp := *w
		return &cp
	})
}
