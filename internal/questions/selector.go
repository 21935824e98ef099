// Package questions assembles non-repeating, option-shuffled question
// sets for game sessions.
package questions

import (
	"context"
	"errors"
	"math/rand"

	"quizcash/internal/store"
)

// ErrInsufficientPool means fewer active questions exist for the level
// than the session needs. Hard precondition: the caller must surface it,
// never truncate the set.
var ErrInsufficientPool = errors.New("insufficient_question_pool")

const (
	recentWindow  = 50
	cacheCapacity = 100
	overFetchCap  = 500
)

// Catalog is the storage the selector draws from. It must return
// candidates in uniform random order.
type Catalog interface {
	ListRandomCandidates(ctx context.Context, level string, excludeIDs []string, limit int) ([]store.Question, error)
	CountActiveQuestions(ctx context.Context, level string) (int, error)
}

type Selector struct {
	catalog Catalog
	recency *RecencyCache
}

func NewSelector(catalog Catalog) *Selector {
	return &Selector{catalog: catalog, recency: NewRecencyCache(cacheCapacity)}
}

// SelectForSession picks exactly count active questions of the level for
// the account, avoiding recently seen ones when possible, and shuffles
// each question's options. Selected ids are recorded as seen.
func (s *Selector) SelectForSession(ctx context.Context, accountID, level string, count int) ([]ShuffledQuestion, error) {
	total, err := s.catalog.CountActiveQuestions(ctx, level)
	if err != nil {
		return nil, err
	}
	if total < count {
		return nil, ErrInsufficientPool
	}

	exclude := s.recency.Recent(accountID, recentWindow)

	fetchCount := count * 3
	if fetchCount > overFetchCap {
		fetchCount = overFetchCap
	}
	candidates, err := s.catalog.ListRandomCandidates(ctx, level, exclude, fetchCount)
	if err != nil {
		return nil, err
	}
	if len(candidates) < count {
		// Recency filter starved the pool; retry without it.
		candidates, err = s.catalog.ListRandomCandidates(ctx, level, nil, count*2)
		if err != nil {
			return nil, err
		}
	}
	if len(candidates) < count {
		return nil, ErrInsufficientPool
	}

	out := make([]ShuffledQuestion, 0, count)
	ids := make([]string, 0, count)
	for _, idx := range rand.Perm(len(candidates))[:count] {
		q := candidates[idx]
		out = append(out, ShuffleOptions(&q))
		ids = append(ids, q.ID)
	}
	s.recency.Record(accountID, ids...)
	return out, nil
}
