package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var ErrNoFreeSpins = errors.New("no_free_spins")

const spinColumns = `id, account_id, amount_won, used_free_spin, spin_cost, server_seed, client_seed, nonce, hash_result, random_number, created_at`

func scanSpin(row pgx.Row) (*SpinRecord, error) {
	var sp SpinRecord
	err := row.Scan(&sp.ID, &sp.AccountID, &sp.AmountWon, &sp.UsedFreeSpin, &sp.SpinCost, &sp.ServerSeed, &sp.ClientSeed, &sp.Nonce, &sp.HashResult, &sp.RandomNumber, &sp.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &sp, nil
}

// SpinDraw is the fairness outcome the caller derives for the nonce the
// store allocates inside the transaction.
type SpinDraw struct {
	Prize        decimal.Decimal
	ServerSeed   string
	ClientSeed   string
	Hash         string
	RandomNumber int
}

type SpinSettled struct {
	Record         *SpinRecord
	NewBalance     decimal.Decimal
	RemainingSpins int
}

// RecordSpin runs one spin as a single atomic unit: free-spin daily
// reset, spin charge (free counter or paid debit), nonce allocation from
// the account's prior spin count, prize credit and the spin row itself.
// The account row lock makes concurrent spins allocate distinct nonces.
func (s *Store) RecordSpin(ctx context.Context, accountID string, useFree bool, cost decimal.Decimal, dailyAllowance int, draw func(nonce int64) SpinDraw) (*SpinSettled, error) {
	var out *SpinSettled
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		acct, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if staleSpinReset(acct.LastSpinReset) {
			acct.FreeSpins = dailyAllowance
			if _, err := tx.Exec(ctx, `UPDATE accounts SET free_spins = $1, last_spin_reset = CURRENT_DATE WHERE id = $2`, acct.FreeSpins, acct.ID); err != nil {
				return err
			}
		}

		spinID := NewID()
		spinCost := decimal.Zero
		if useFree {
			if acct.FreeSpins <= 0 {
				return ErrNoFreeSpins
			}
			acct.FreeSpins--
			if _, err := tx.Exec(ctx, `UPDATE accounts SET free_spins = $1 WHERE id = $2`, acct.FreeSpins, acct.ID); err != nil {
				return err
			}
		} else {
			spinCost = cost
			if _, err := debitTx(ctx, tx, acct, cost, TxSpinPurchase, "SPINCOST-"+spinID, "", nil); err != nil {
				return err
			}
		}

		row := tx.QueryRow(ctx, `SELECT COUNT(1) FROM spins WHERE account_id = $1`, accountID)
		var prior int64
		if err := row.Scan(&prior); err != nil {
			return err
		}
		nonce := prior + 1

		d := draw(nonce)
		meta := map[string]any{
			"spin_id":       spinID,
			"server_seed":   d.ServerSeed,
			"client_seed":   d.ClientSeed,
			"nonce":         nonce,
			"random_number": d.RandomNumber,
		}
		if _, err := creditTx(ctx, tx, acct, d.Prize, decimal.Zero, TxSpinWin, "SPIN-"+spinID, "", meta); err != nil {
			return err
		}

		record := &SpinRecord{
			ID:           spinID,
			AccountID:    accountID,
			AmountWon:    d.Prize,
			UsedFreeSpin: useFree,
			SpinCost:     spinCost,
			ServerSeed:   d.ServerSeed,
			ClientSeed:   d.ClientSeed,
			Nonce:        nonce,
			HashResult:   d.Hash,
			RandomNumber: d.RandomNumber,
			CreatedAt:    time.Now().UTC(),
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO spins (id, account_id, amount_won, used_free_spin, spin_cost, server_seed, client_seed, nonce, hash_result, random_number, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`, record.ID, record.AccountID, record.AmountWon, record.UsedFreeSpin, record.SpinCost,
			record.ServerSeed, record.ClientSeed, record.Nonce, record.HashResult, record.RandomNumber, record.CreatedAt); err != nil {
			return mapUniqueViolation(err)
		}
		out = &SpinSettled{Record: record, NewBalance: acct.Balance, RemainingSpins: acct.FreeSpins}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func staleSpinReset(last *time.Time) bool {
	if last == nil {
		return true
	}
	now := time.Now().UTC()
	y1, m1, d1 := last.UTC().Date()
	y2, m2, d2 := now.Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

// BuySpinPackage debits the package cost and adds the spins to the
// account's counter in one unit.
func (s *Store) BuySpinPackage(ctx context.Context, accountID string, quantity int, cost decimal.Decimal) (*SpinSettled, error) {
	var out *SpinSettled
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		acct, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		meta := map[string]any{"quantity": quantity}
		if _, err := debitTx(ctx, tx, acct, cost, TxSpinPurchase, "BUYSPIN-"+NewID(), "", meta); err != nil {
			return err
		}
		acct.FreeSpins += quantity
		if _, err := tx.Exec(ctx, `UPDATE accounts SET free_spins = $1 WHERE id = $2`, acct.FreeSpins, acct.ID); err != nil {
			return err
		}
		out = &SpinSettled{NewBalance: acct.Balance, RemainingSpins: acct.FreeSpins}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetSpin(ctx context.Context, id string) (*SpinRecord, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+spinColumns+` FROM spins WHERE id = $1`, id)
	return scanSpin(row)
}

func (s *Store) ListSpins(ctx context.Context, accountID string, limit, offset int) ([]SpinRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+spinColumns+` FROM spins WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SpinRecord{}
	for rows.Next() {
		sp, err := scanSpin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sp)
	}
	return out, rows.Err()
}

func (s *Store) GetSpinStats(ctx context.Context, accountID string) (*SpinStats, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_won), 0),
		       COUNT(1),
		       COUNT(1) FILTER (WHERE used_free_spin),
		       COUNT(1) FILTER (WHERE NOT used_free_spin),
		       COALESCE(MAX(amount_won), 0)
		FROM spins WHERE account_id = $1
	`, accountID)
	var st SpinStats
	if err := row.Scan(&st.TotalWon, &st.TotalSpins, &st.FreeSpinsUsed, &st.PaidSpins, &st.BiggestWin); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) CountSpinsToday(ctx context.Context, accountID string) (int, error) {
	row := s.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM spins WHERE account_id = $1 AND created_at >= CURRENT_DATE`, accountID)
	var c int
	err := row.Scan(&c)
	return c, err
}
