package questions

import (
	"math/rand"

	"quizcash/internal/store"
)

// ShuffledQuestion is one presentation of a question. Options are in
// shuffled order; OptionOrder[i] is the original index of the option
// now shown at position i, so clients answer in original index space.
// Grading always goes against OriginalCorrect; ShuffledCorrect is
// presentation-only and kept for audit.
type ShuffledQuestion struct {
	ID              string
	Category        string
	Level           string
	Text            string
	Options         [4]string
	OptionOrder     [4]int
	OriginalCorrect int
	ShuffledCorrect int
	TimeLimit       int
	Points          int
}

// ShuffleOptions permutes the four options uniformly and re-derives the
// correct index. Called per presentation, so the same question shown
// twice almost always looks different.
func ShuffleOptions(q *store.Question) ShuffledQuestion {
	perm := rand.Perm(4)

	out := ShuffledQuestion{
		ID:              q.ID,
		Category:        q.Category,
		Level:           q.Level,
		Text:            q.Text,
		OriginalCorrect: q.CorrectIndex,
		TimeLimit:       q.TimeLimit,
		Points:          q.Points,
	}
	for newIdx, origIdx := range perm {
		out.Options[newIdx] = q.Options[origIdx]
		out.OptionOrder[newIdx] = origIdx
		if origIdx == q.CorrectIndex {
			out.ShuffledCorrect = newIdx
		}
	}
	return out
}
