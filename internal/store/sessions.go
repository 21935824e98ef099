package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var ErrSessionNotActive = errors.New("session_not_active")

const sessionColumns = `id, code, game_type, COALESCE(level, ''), status, stake, platform_fee, total_pot, max_players, current_players, total_questions, required_correct, time_per_question, question_map, created_by, COALESCE(winner_id, ''), started_at, completed_at, created_at`

func scanSession(row pgx.Row) (*GameSession, error) {
	var g GameSession
	var rawMap []byte
	err := row.Scan(&g.ID, &g.Code, &g.GameType, &g.Level, &g.Status, &g.Stake, &g.PlatformFee, &g.TotalPot,
		&g.MaxPlayers, &g.CurrentPlayers, &g.TotalQuestions, &g.RequiredCorrect, &g.TimePerQuestion,
		&rawMap, &g.CreatedBy, &g.WinnerID, &g.StartedAt, &g.CompletedAt, &g.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if len(rawMap) > 0 {
		if err := json.Unmarshal(rawMap, &g.QuestionMap); err != nil {
			return nil, err
		}
	}
	return &g, nil
}

// CreateSessionStaked persists a new session and debits the creator's
// stake as one atomic unit: either the session row, the player row, the
// balance decrement and the stake transaction all commit, or none do.
func (s *Store) CreateSessionStaked(ctx context.Context, g *GameSession) (*Transaction, error) {
	rawMap, err := json.Marshal(g.QuestionMap)
	if err != nil {
		return nil, err
	}
	var stakeTx *Transaction
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		acct, err := lockAccount(ctx, tx, g.CreatedBy)
		if err != nil {
			return err
		}
		if acct.Balance.LessThan(g.Stake) {
			return ErrInsufficientFunds
		}
		// Session row goes in first: the stake transaction references it.
		_, err = tx.Exec(ctx, `
			INSERT INTO game_sessions (id, code, game_type, level, status, stake, platform_fee, total_pot, max_players, current_players, total_questions, required_correct, time_per_question, question_map, created_by, started_at, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		`, g.ID, g.Code, g.GameType, nullable(g.Level), g.Status, g.Stake, g.PlatformFee, g.TotalPot,
			g.MaxPlayers, g.CurrentPlayers, g.TotalQuestions, g.RequiredCorrect, g.TimePerQuestion,
			rawMap, g.CreatedBy, g.StartedAt, g.CreatedAt)
		if err != nil {
			return mapUniqueViolation(err)
		}
		stakeTx, err = debitTx(ctx, tx, acct, g.Stake, TxStake, "STAKE-"+g.Code, g.ID, nil)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO session_players (session_id, account_id) VALUES ($1,$2)`, g.ID, g.CreatedBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stakeTx, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Store) GetSession(ctx context.Context, id string) (*GameSession, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE id = $1`, id)
	return scanSession(row)
}

func lockSession(ctx context.Context, tx pgx.Tx, id string) (*GameSession, error) {
	row := tx.QueryRow(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE id = $1 FOR UPDATE`, id)
	return scanSession(row)
}

func (s *Store) SessionPlayers(ctx context.Context, sessionID string) ([]SessionPlayer, error) {
	rows, err := s.Pool.Query(ctx, `SELECT session_id, account_id, score, submitted_at, quit_at FROM session_players WHERE session_id = $1 ORDER BY account_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SessionPlayer{}
	for rows.Next() {
		var p SessionPlayer
		if err := rows.Scan(&p.SessionID, &p.AccountID, &p.Score, &p.SubmittedAt, &p.QuitAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// JoinSession debits the joiner's stake and adds them to a waiting
// multiplayer session, activating it once capacity is reached. The pot
// grows by the stake and the platform fee by feeIncrement (the fee on
// one stake, computed by the caller who owns the fee rate).
func (s *Store) JoinSession(ctx context.Context, sessionID, accountID string, feeIncrement decimal.Decimal) (*GameSession, error) {
	var out *GameSession
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		g, err := lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if g.Status != SessionWaiting {
			return ErrSessionNotActive
		}
		if g.CurrentPlayers >= g.MaxPlayers {
			return ErrSessionNotActive
		}
		row := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM session_players WHERE session_id = $1 AND account_id = $2)`, sessionID, accountID)
		var already bool
		if err := row.Scan(&already); err != nil {
			return err
		}
		if already {
			return ErrDuplicateReference
		}
		acct, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if _, err := debitTx(ctx, tx, acct, g.Stake, TxStake, fmt.Sprintf("STAKE-%s-%s", g.Code, accountID), g.ID, nil); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO session_players (session_id, account_id) VALUES ($1,$2)`, g.ID, accountID); err != nil {
			return err
		}
		g.CurrentPlayers++
		g.TotalPot = g.TotalPot.Add(g.Stake)
		g.PlatformFee = g.PlatformFee.Add(feeIncrement)
		status := g.Status
		var startedAt *time.Time
		if g.CurrentPlayers >= g.MaxPlayers {
			status = SessionActive
			now := time.Now().UTC()
			startedAt = &now
		}
		if _, err := tx.Exec(ctx, `
			UPDATE game_sessions
			SET current_players = $1, total_pot = $2, platform_fee = $3, status = $4, started_at = COALESCE($5, started_at)
			WHERE id = $6
		`, g.CurrentPlayers, g.TotalPot, g.PlatformFee, status, startedAt, g.ID); err != nil {
			return err
		}
		g.Status = status
		if startedAt != nil {
			g.StartedAt = startedAt
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QuitSession forfeits the quitting player's stake: their player row is
// marked quit and the player count drops, with no refund.
func (s *Store) QuitSession(ctx context.Context, sessionID, accountID string) (*GameSession, error) {
	var out *GameSession
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		g, err := lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if g.Status != SessionWaiting && g.Status != SessionActive {
			return ErrAlreadySettled
		}
		tag, err := tx.Exec(ctx, `
			UPDATE session_players SET quit_at = now()
			WHERE session_id = $1 AND account_id = $2 AND quit_at IS NULL AND submitted_at IS NULL
		`, sessionID, accountID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		g.CurrentPlayers--
		status := g.Status
		var completedAt *time.Time
		if g.CurrentPlayers <= 0 {
			status = SessionQuit
			now := time.Now().UTC()
			completedAt = &now
		}
		if _, err := tx.Exec(ctx, `
			UPDATE game_sessions SET current_players = $1, status = $2, completed_at = COALESCE($3, completed_at)
			WHERE id = $4
		`, g.CurrentPlayers, status, completedAt, g.ID); err != nil {
			return err
		}
		g.Status = status
		// A quit can leave every remaining player already submitted; the
		// session must settle now, not wait for a submit that will never
		// come.
		if g.Status == SessionActive && g.MaxPlayers > 1 {
			outcome, err := settleMultiplayerIfReady(ctx, tx, g, accountID, 0)
			if err != nil {
				return err
			}
			if outcome.Settled {
				g.Status = SessionCompleted
				g.WinnerID = outcome.WinnerID
			}
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type AnswerStat struct {
	QuestionID string
	Correct    bool
}

type SettlementOutcome struct {
	Settled  bool
	Won      bool
	Prize    decimal.Decimal
	WinnerID string
	Refunded bool
}

// FinalizeSubmission records one player's graded score and, when the
// session is ready, settles it exactly once. The session row lock plus
// the status check form the compare-and-set: a concurrent duplicate
// submit observes completed and is rejected with ErrAlreadySettled.
func (s *Store) FinalizeSubmission(ctx context.Context, sessionID, accountID string, score int, stats []AnswerStat) (*SettlementOutcome, error) {
	var out *SettlementOutcome
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		g, err := lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		switch g.Status {
		case SessionActive:
		case SessionCompleted, SessionQuit:
			return ErrAlreadySettled
		default:
			return ErrSessionNotActive
		}

		row := tx.QueryRow(ctx, `SELECT submitted_at, quit_at FROM session_players WHERE session_id = $1 AND account_id = $2 FOR UPDATE`, sessionID, accountID)
		var submittedAt, quitAt *time.Time
		if err := row.Scan(&submittedAt, &quitAt); err != nil {
			return mapNotFound(err)
		}
		if quitAt != nil {
			return ErrNotFound
		}
		if submittedAt != nil {
			return ErrAlreadySettled
		}
		if _, err := tx.Exec(ctx, `UPDATE session_players SET score = $1, submitted_at = now() WHERE session_id = $2 AND account_id = $3`, score, sessionID, accountID); err != nil {
			return err
		}
		for _, st := range stats {
			if err := applyAnswerStats(ctx, tx, st.QuestionID, st.Correct); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE accounts SET games_played = games_played + 1 WHERE id = $1`, accountID); err != nil {
			return err
		}

		if g.MaxPlayers <= 1 {
			out, err = settleSolo(ctx, tx, g, accountID, score)
			return err
		}
		out, err = settleMultiplayerIfReady(ctx, tx, g, accountID, score)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func settleSolo(ctx context.Context, tx pgx.Tx, g *GameSession, accountID string, score int) (*SettlementOutcome, error) {
	won := score >= g.RequiredCorrect
	out := &SettlementOutcome{Settled: true, Won: won, Prize: decimal.Zero}
	var winnerID *string
	if won {
		winnerID = &accountID
		out.WinnerID = accountID
		out.Prize = g.TotalPot.Sub(g.PlatformFee)
	}
	tag, err := tx.Exec(ctx, `
		UPDATE game_sessions SET status = $1, winner_id = $2, completed_at = now()
		WHERE id = $3 AND status = $4
	`, SessionCompleted, winnerID, g.ID, SessionActive)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadySettled
	}
	if won {
		acct, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return nil, err
		}
		if _, err := creditTx(ctx, tx, acct, out.Prize, g.PlatformFee, TxWin, "WIN-"+g.Code, g.ID, nil); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE accounts SET wins = wins + 1 WHERE id = $1`, accountID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// settleMultiplayerIfReady settles once every player still in the
// session has submitted. Highest score takes the pot net of fee; a tie
// refunds every tied player's stake with no fee taken.
func settleMultiplayerIfReady(ctx context.Context, tx pgx.Tx, g *GameSession, accountID string, score int) (*SettlementOutcome, error) {
	rows, err := tx.Query(ctx, `SELECT account_id, score, submitted_at, quit_at FROM session_players WHERE session_id = $1 ORDER BY account_id`, g.ID)
	if err != nil {
		return nil, err
	}
	type playerRow struct {
		accountID   string
		score       *int
		submittedAt *time.Time
		quitAt      *time.Time
	}
	players := []playerRow{}
	for rows.Next() {
		var p playerRow
		if err := rows.Scan(&p.accountID, &p.score, &p.submittedAt, &p.quitAt); err != nil {
			rows.Close()
			return nil, err
		}
		players = append(players, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	best := -1
	var leaders []string
	for _, p := range players {
		if p.quitAt != nil {
			continue
		}
		if p.submittedAt == nil {
			// Someone still playing; session stays active.
			return &SettlementOutcome{Settled: false}, nil
		}
		switch {
		case *p.score > best:
			best = *p.score
			leaders = []string{p.accountID}
		case *p.score == best:
			leaders = append(leaders, p.accountID)
		}
	}

	if best < 0 {
		// No live players remain; the zero-player case flips the
		// session to quit instead.
		return &SettlementOutcome{Settled: false}, nil
	}

	out := &SettlementOutcome{Settled: true, Prize: decimal.Zero}
	var winnerID *string
	if len(leaders) == 1 {
		out.WinnerID = leaders[0]
		out.Won = leaders[0] == accountID
		out.Prize = g.TotalPot.Sub(g.PlatformFee)
		winnerID = &leaders[0]
	} else {
		out.Refunded = true
	}

	tag, err := tx.Exec(ctx, `
		UPDATE game_sessions SET status = $1, winner_id = $2, completed_at = now()
		WHERE id = $3 AND status = $4
	`, SessionCompleted, winnerID, g.ID, SessionActive)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadySettled
	}

	if len(leaders) == 1 {
		acct, err := lockAccount(ctx, tx, leaders[0])
		if err != nil {
			return nil, err
		}
		if _, err := creditTx(ctx, tx, acct, out.Prize, g.PlatformFee, TxWin, "WIN-"+g.Code, g.ID, nil); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE accounts SET wins = wins + 1 WHERE id = $1`, leaders[0]); err != nil {
			return nil, err
		}
		return out, nil
	}

	// Deterministic lock order across the tied accounts.
	sort.Strings(leaders)
	for _, id := range leaders {
		acct, err := lockAccount(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if _, err := creditTx(ctx, tx, acct, g.Stake, decimal.Zero, TxRefund, fmt.Sprintf("REFUND-%s-%s", g.Code, id), g.ID, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ExpireStaleSessions forfeits waiting multiplayer sessions older than
// the cutoff. Stakes stay debited per the forfeiture policy.
func (s *Store) ExpireStaleSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE game_sessions SET status = $1, completed_at = now()
		WHERE status = $2 AND created_at < now() - $3::interval
	`, SessionQuit, SessionWaiting, fmt.Sprintf("%f seconds", olderThan.Seconds()))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
