// Package game runs the session lifecycle: staking, question dealing,
// grading and settlement.
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"quizcash/internal/config"
	"quizcash/internal/questions"
	"quizcash/internal/store"
)

type Engine struct {
	store    *store.Store
	selector *questions.Selector
	cfg      config.GameConfig
	feeRate  decimal.Decimal
}

func NewEngine(st *store.Store, sel *questions.Selector, cfg config.GameConfig) (*Engine, error) {
	rate, err := decimal.NewFromString(cfg.PlatformFeeRate)
	if err != nil {
		return nil, fmt.Errorf("parse platform fee rate %q: %w", cfg.PlatformFeeRate, err)
	}
	return &Engine{store: st, selector: sel, cfg: cfg, feeRate: rate}, nil
}

// StartResult is a freshly staked session plus the dealt questions.
// Questions carry ShuffledCorrect for the session map; the transport
// layer must not serialize it to the client.
type StartResult struct {
	Session   *store.GameSession
	Questions []questions.ShuffledQuestion
	StakeTx   *store.Transaction
}

// Start deals a session for the level, debiting the stake atomically
// with the session insert. Solo sessions begin active; multiplayer
// sessions wait for opponents.
func (e *Engine) Start(ctx context.Context, accountID, levelName string, stake decimal.Decimal) (*StartResult, error) {
	lvl, ok := LevelByName(levelName)
	if !ok {
		return nil, ErrInvalidLevel
	}
	if err := e.checkStake(stake); err != nil {
		return nil, err
	}
	busy, err := e.store.HasActiveSession(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, ErrSessionBusy
	}

	dealt, err := e.selector.SelectForSession(ctx, accountID, lvl.Pool, lvl.Questions)
	if err != nil {
		return nil, err
	}

	pot := stake.Mul(lvl.Multiplier)
	if !lvl.Solo() {
		// Multiplayer pots are the sum of stakes; the multiplier is 1
		// and the pot grows as opponents join.
		pot = stake
	}
	fee := pot.Mul(e.feeRate).Round(2)

	now := time.Now().UTC()
	g := &store.GameSession{
		ID:              store.NewID(),
		Code:            store.NewGameCode(),
		GameType:        lvl.GameType,
		Level:           lvl.Name,
		Status:          store.SessionActive,
		Stake:           stake,
		PlatformFee:     fee,
		TotalPot:        pot,
		MaxPlayers:      lvl.MaxPlayers,
		CurrentPlayers:  1,
		TotalQuestions:  lvl.Questions,
		RequiredCorrect: lvl.RequiredCorrect,
		TimePerQuestion: lvl.TimePerQuestion,
		QuestionMap:     make(map[string]store.QuestionMapEntry, len(dealt)),
		CreatedBy:       accountID,
		CreatedAt:       now,
	}
	if lvl.Solo() {
		g.StartedAt = &now
	} else {
		g.Status = store.SessionWaiting
	}
	for _, q := range dealt {
		g.QuestionMap[q.ID] = store.QuestionMapEntry{Correct: q.OriginalCorrect, Shuffled: q.ShuffledCorrect}
	}

	stakeTx, err := e.store.CreateSessionStaked(ctx, g)
	if err != nil {
		return nil, err
	}
	log.Info().Str("session", g.ID).Str("code", g.Code).Str("level", lvl.Name).
		Str("account", accountID).Str("stake", stake.String()).Msg("session started")
	return &StartResult{Session: g, Questions: dealt, StakeTx: stakeTx}, nil
}

type Answer struct {
	QuestionID  string `json:"question_id"`
	AnswerIndex int    `json:"answer"`
}

// AnswerResult is the per-question breakdown returned after grading.
// Indexes are in original option order, the space answers arrive in.
type AnswerResult struct {
	QuestionID   string `json:"question_id"`
	Text         string `json:"question"`
	YourAnswer   int    `json:"your_answer"`
	CorrectIndex int    `json:"correct_answer"`
	IsCorrect    bool   `json:"is_correct"`
	Explanation  string `json:"explanation,omitempty"`
}

type SubmitResult struct {
	Session *store.GameSession
	Outcome *store.SettlementOutcome
	Score   int
	Total   int
	Results []AnswerResult
}

// Submit grades one player's answers against the original correct
// indexes pinned in the session map and settles the session when it is
// ready. Duplicate submits surface store.ErrAlreadySettled.
func (e *Engine) Submit(ctx context.Context, sessionID, accountID string, answers []Answer) (*SubmitResult, error) {
	g, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := e.requireParticipant(ctx, g, accountID); err != nil {
		return nil, err
	}

	score, stats := grade(g.QuestionMap, answers)
	outcome, err := e.store.FinalizeSubmission(ctx, sessionID, accountID, score, stats)
	if err != nil {
		return nil, err
	}

	results := make([]AnswerResult, 0, len(answers))
	for _, a := range answers {
		entry, ok := g.QuestionMap[a.QuestionID]
		if !ok {
			continue
		}
		res := AnswerResult{
			QuestionID:   a.QuestionID,
			YourAnswer:   a.AnswerIndex,
			CorrectIndex: entry.Correct,
			IsCorrect:    a.AnswerIndex == entry.Correct,
		}
		if q, err := e.store.GetQuestion(ctx, a.QuestionID); err == nil {
			res.Text = q.Text
			res.Explanation = q.Explanation
		}
		results = append(results, res)
	}

	settled, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	log.Info().Str("session", sessionID).Str("account", accountID).
		Int("score", score).Bool("settled", outcome.Settled).Bool("won", outcome.Won).
		Msg("submission graded")
	return &SubmitResult{
		Session: settled,
		Outcome: outcome,
		Score:   score,
		Total:   g.TotalQuestions,
		Results: results,
	}, nil
}

// Join adds the account to a waiting multiplayer session, debiting its
// stake and growing the pot and fee.
func (e *Engine) Join(ctx context.Context, sessionID, accountID string) (*store.GameSession, error) {
	g, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if g.MaxPlayers <= 1 {
		return nil, ErrNotMultiplayer
	}
	busy, err := e.store.HasActiveSession(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, ErrSessionBusy
	}
	feeInc := g.Stake.Mul(e.feeRate).Round(2)
	joined, err := e.store.JoinSession(ctx, sessionID, accountID, feeInc)
	if err != nil {
		return nil, err
	}
	log.Info().Str("session", sessionID).Str("account", accountID).
		Int("players", joined.CurrentPlayers).Str("status", joined.Status).Msg("player joined")
	return joined, nil
}

// Quit forfeits the account's stake and removes it from the session.
func (e *Engine) Quit(ctx context.Context, sessionID, accountID string) (*store.GameSession, error) {
	g, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if g.MaxPlayers <= 1 && g.CreatedBy != accountID {
		return nil, ErrNotParticipant
	}
	quit, err := e.store.QuitSession(ctx, sessionID, accountID)
	if err != nil {
		return nil, err
	}
	log.Info().Str("session", sessionID).Str("account", accountID).Msg("player quit")
	return quit, nil
}

// Session returns a session with its players, for status polling.
func (e *Engine) Session(ctx context.Context, sessionID string) (*store.GameSession, []store.SessionPlayer, error) {
	g, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	players, err := e.store.SessionPlayers(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return g, players, nil
}

func (e *Engine) checkStake(stake decimal.Decimal) error {
	min := decimal.NewFromInt(e.cfg.MinStake)
	max := decimal.NewFromInt(e.cfg.MaxStake)
	if stake.LessThan(min) || stake.GreaterThan(max) {
		return ErrStakeOutOfRange
	}
	return nil
}

func (e *Engine) requireParticipant(ctx context.Context, g *store.GameSession, accountID string) error {
	if g.MaxPlayers <= 1 {
		if g.CreatedBy != accountID {
			return ErrNotParticipant
		}
		return nil
	}
	players, err := e.store.SessionPlayers(ctx, g.ID)
	if err != nil {
		return err
	}
	for _, p := range players {
		if p.AccountID == accountID {
			return nil
		}
	}
	return ErrNotParticipant
}

// grade scores answers against the original correct indexes pinned in
// the session map; the shuffled index is never trusted for scoring.
// Answers for questions outside the session are ignored.
func grade(questionMap map[string]store.QuestionMapEntry, answers []Answer) (int, []store.AnswerStat) {
	score := 0
	stats := make([]store.AnswerStat, 0, len(answers))
	seen := make(map[string]bool, len(answers))
	for _, a := range answers {
		entry, ok := questionMap[a.QuestionID]
		if !ok || seen[a.QuestionID] {
			continue
		}
		seen[a.QuestionID] = true
		correct := a.AnswerIndex == entry.Correct
		if correct {
			score++
		}
		stats = append(stats, store.AnswerStat{QuestionID: a.QuestionID, Correct: correct})
	}
	return score, stats
}
