package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, balance, total_earned, total_withdrawn, games_played, wins, free_spins, last_spin_reset, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Balance, &a.TotalEarned, &a.TotalWithdrawn, &a.GamesPlayed, &a.Wins, &a.FreeSpins, &a.LastSpinReset, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &a, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*Account, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// EnsureAccount inserts the account if it does not exist yet and
// reports whether this call created it. The row starts with the given
// balance and a NULL spin-reset date, so the lazy daily reset grants
// the full allowance on the first spin.
func (s *Store) EnsureAccount(ctx context.Context, id string, initial decimal.Decimal) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO accounts (id, balance)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, id, initial)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// lockAccount takes the row lock that serializes every balance-affecting
// operation for the account.
func lockAccount(ctx context.Context, tx pgx.Tx, id string) (*Account, error) {
	row := tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	return scanAccount(row)
}

// HasActiveSession is a query-time join; the account row itself carries
// no current-game fields that could drift out of sync.
func (s *Store) HasActiveSession(ctx context.Context, accountID string) (bool, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM game_sessions g
			JOIN session_players p ON p.session_id = g.id
			WHERE p.account_id = $1 AND p.quit_at IS NULL AND g.status IN ($2, $3)
		)
	`, accountID, SessionWaiting, SessionActive)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

// ResetDailyFreeSpins restores the daily allowance for every account
// whose last reset is older than today. Returns affected rows.
func (s *Store) ResetDailyFreeSpins(ctx context.Context, allowance int) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE accounts
		SET free_spins = $1, last_spin_reset = CURRENT_DATE, updated_at = now()
		WHERE last_spin_reset IS NULL OR last_spin_reset < CURRENT_DATE
	`, allowance)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
