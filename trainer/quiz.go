package trainer

import (
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"
)

// Question is one multiple-choice prompt. CorrectAnswer is always one of Variants.
type Question struct {
	Variants      []*Word
	CorrectAnswer *Word
}

// CorrectIndex returns the zero-based position of the correct answer, or -1.
func (q *Question) CorrectIndex() int {
	if q == nil {
		return -1
	}
	return slices.Index(q.Variants, q.CorrectAnswer)
}

// NextQuestion samples a question from words below the learned threshold. The correct
// answer is drawn from that sample; learned words only pad the variants up to
// variantCount. ok is false once every word is learned.
func NextQuestion(rnd *rand.Rand, d Dictionary, learnedThreshold, variantCount int) (*Question, bool) {
	unlearned := lo.Filter(d, func(w *Word, _ int) bool {
		return w.CorrectAnswersCount < learnedThreshold
	})
	if len(unlearned) == 0 || variantCount <= 0 {
		return nil, false
	}

	sample := takeRandom(rnd, unlearned, variantCount)
	correct := sample[rnd.IntN(len(sample))]

	variants := sample
	if missing := variantCount - len(sample); missing > 0 {
		learned := lo.Reject(d, func(w *Word, _ int) bool {
			return w.CorrectAnswersCount < learnedThreshold
		})
		variants = append(variants, takeRandom(rnd, learned, missing)...)
	}
	rnd.Shuffle(len(variants), func(i, j int) {
		variants[i], variants[j] = variants[j], variants[i]
	})

	return &Question{Variants: variants, CorrectAnswer: correct}, true
}

// takeRandom draws up to n distinct words without replacement. The input is not modified.
func takeRandom(rnd *rand.Rand, words []*Word, n int) []*Word {
	pool := slices.Clone(words)
	rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if n < len(pool) {
		pool = pool[:n]
	}
	return pool
}

// CheckAnswer reports whether index selects the correct variant and, if so, increments
// the counter of the stored word.
func CheckAnswer(q *Question, index int) bool {
	if q == nil || q.CorrectAnswer == nil {
		return false
	}
	if index < 0 || index != q.CorrectIndex() {
		return false
	}
	q.CorrectAnswer.CorrectAnswersCount++
	return true
}
