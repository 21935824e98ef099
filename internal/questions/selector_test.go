package questions

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"quizcash/internal/store"
)

type fakeCatalog struct {
	questions []store.Question
	listCalls int
}

func (f *fakeCatalog) ListRandomCandidates(_ context.Context, level string, excludeIDs []string, limit int) ([]store.Question, error) {
	f.listCalls++
	excluded := map[string]bool{}
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	out := []store.Question{}
	for _, q := range f.questions {
		if q.Level == level && q.IsActive && !excluded[q.ID] {
			out = append(out, q)
		}
	}
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCatalog) CountActiveQuestions(_ context.Context, level string) (int, error) {
	c := 0
	for _, q := range f.questions {
		if q.Level == level && q.IsActive {
			c++
		}
	}
	return c, nil
}

func makeQuestions(level string, n int) []store.Question {
	out := make([]store.Question, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, store.Question{
			ID:           fmt.Sprintf("%s-q%03d", level, i),
			Category:     "general",
			Level:        level,
			Text:         fmt.Sprintf("question %d", i),
			Options:      [4]string{"alpha", "beta", "gamma", "delta"},
			CorrectIndex: i % 4,
			TimeLimit:    10,
			Points:       10,
			IsActive:     true,
		})
	}
	return out
}

func TestSelectForSessionNoDuplicates(t *testing.T) {
	sel := NewSelector(&fakeCatalog{questions: makeQuestions("quick", 60)})
	got, err := sel.SelectForSession(context.Background(), "acct-1", "quick", 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, q := range got {
		if seen[q.ID] {
			t.Fatalf("duplicate question %s in one session", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestSelectForSessionAvoidsRecent(t *testing.T) {
	sel := NewSelector(&fakeCatalog{questions: makeQuestions("quick", 200)})
	first, err := sel.SelectForSession(context.Background(), "acct-1", "quick", 10)
	if err != nil {
		t.Fatalf("first select: %v", err)
	}
	second, err := sel.SelectForSession(context.Background(), "acct-1", "quick", 10)
	if err != nil {
		t.Fatalf("second select: %v", err)
	}
	firstIDs := map[string]bool{}
	for _, q := range first {
		firstIDs[q.ID] = true
	}
	for _, q := range second {
		if firstIDs[q.ID] {
			t.Fatalf("question %s repeated immediately despite recency filter", q.ID)
		}
	}
}

func TestSelectForSessionFallsBackWhenPoolStarved(t *testing.T) {
	// 12 questions, 10 per session: after one session the recency
	// filter leaves too few, so the unfiltered fallback must kick in.
	sel := NewSelector(&fakeCatalog{questions: makeQuestions("quick", 12)})
	if _, err := sel.SelectForSession(context.Background(), "acct-1", "quick", 10); err != nil {
		t.Fatalf("first select: %v", err)
	}
	got, err := sel.SelectForSession(context.Background(), "acct-1", "quick", 10)
	if err != nil {
		t.Fatalf("fallback select: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 questions from fallback, got %d", len(got))
	}
}

func TestSelectForSessionCapacityError(t *testing.T) {
	catalog := &fakeCatalog{questions: makeQuestions("best", 5)}
	sel := NewSelector(catalog)
	if _, err := sel.SelectForSession(context.Background(), "acct-1", "best", 10); err != ErrInsufficientPool {
		t.Fatalf("expected ErrInsufficientPool, got %v", err)
	}
	// The pool count rules the request out before any fetch.
	if catalog.listCalls != 0 {
		t.Fatalf("starved pool still fetched candidates %d times", catalog.listCalls)
	}
}

func TestShuffleCorrectIndexTracksAnswer(t *testing.T) {
	q := store.Question{
		ID:           "q1",
		Options:      [4]string{"one", "two", "three", "four"},
		CorrectIndex: 2,
	}
	sawDifferentOrder := false
	for i := 0; i < 200; i++ {
		sq := ShuffleOptions(&q)
		if sq.Options[sq.ShuffledCorrect] != "three" {
			t.Fatalf("shuffled correct index %d points at %q, want %q", sq.ShuffledCorrect, sq.Options[sq.ShuffledCorrect], "three")
		}
		if sq.OriginalCorrect != 2 {
			t.Fatalf("original correct index changed to %d", sq.OriginalCorrect)
		}
		if sq.OptionOrder[sq.ShuffledCorrect] != 2 {
			t.Fatalf("option order at shuffled correct = %d, want 2", sq.OptionOrder[sq.ShuffledCorrect])
		}
		seen := [4]bool{}
		for _, orig := range sq.OptionOrder {
			seen[orig] = true
		}
		if seen != [4]bool{true, true, true, true} {
			t.Fatalf("option order %v is not a permutation", sq.OptionOrder)
		}
		if sq.Options != q.Options {
			sawDifferentOrder = true
		}
	}
	if !sawDifferentOrder {
		t.Fatal("200 shuffles never changed the option order")
	}
}

func TestRecencyCacheBounds(t *testing.T) {
	c := NewRecencyCache(100)
	for i := 0; i < 150; i++ {
		c.Record("acct-1", fmt.Sprintf("q%03d", i))
	}
	recent := c.Recent("acct-1", 200)
	if len(recent) != 100 {
		t.Fatalf("expected cache capped at 100, got %d", len(recent))
	}
	if recent[0] != "q050" {
		t.Fatalf("expected oldest surviving entry q050, got %s", recent[0])
	}
	window := c.Recent("acct-1", 50)
	if len(window) != 50 || window[49] != "q149" {
		t.Fatalf("unexpected recent window: len=%d last=%s", len(window), window[len(window)-1])
	}
}
