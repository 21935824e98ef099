package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const txColumns = `id, account_id, reference, kind, amount, fee, status, COALESCE(session_id, ''), metadata, created_at, processed_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.AccountID, &t.Reference, &t.Kind, &t.Amount, &t.Fee, &t.Status, &t.SessionID, &t.Metadata, &t.CreatedAt, &t.ProcessedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &t, nil
}

func encodeMeta(meta any) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	return json.Marshal(meta)
}

func insertTransaction(ctx context.Context, tx pgx.Tx, t *Transaction) error {
	var sessionID *string
	if t.SessionID != "" {
		sessionID = &t.SessionID
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, account_id, reference, kind, amount, fee, status, session_id, metadata, created_at, processed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, t.ID, t.AccountID, t.Reference, t.Kind, t.Amount, t.Fee, t.Status, sessionID, t.Metadata, t.CreatedAt, t.ProcessedAt)
	return mapUniqueViolation(err)
}

func setBalance(ctx context.Context, tx pgx.Tx, accountID string, balance decimal.Decimal) error {
	_, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2`, balance, accountID)
	return err
}

// debitTx decrements the locked account's balance and records the paired
// completed transaction. Callers hold the account row lock.
func debitTx(ctx context.Context, tx pgx.Tx, acct *Account, amount decimal.Decimal, kind, reference, sessionID string, meta any) (*Transaction, error) {
	if acct.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}
	acct.Balance = acct.Balance.Sub(amount)
	if err := setBalance(ctx, tx, acct.ID, acct.Balance); err != nil {
		return nil, err
	}
	raw, err := encodeMeta(meta)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := &Transaction{
		ID:          NewID(),
		AccountID:   acct.ID,
		Reference:   reference,
		Kind:        kind,
		Amount:      amount,
		Fee:         decimal.Zero,
		Status:      TxCompleted,
		SessionID:   sessionID,
		Metadata:    raw,
		CreatedAt:   now,
		ProcessedAt: &now,
	}
	if err := insertTransaction(ctx, tx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// creditTx increments the locked account's balance and records the
// paired completed transaction. Win-type credits also accrue
// lifetime earnings.
func creditTx(ctx context.Context, tx pgx.Tx, acct *Account, amount, fee decimal.Decimal, kind, reference, sessionID string, meta any) (*Transaction, error) {
	acct.Balance = acct.Balance.Add(amount)
	if err := setBalance(ctx, tx, acct.ID, acct.Balance); err != nil {
		return nil, err
	}
	if kind == TxWin || kind == TxSpinWin {
		acct.TotalEarned = acct.TotalEarned.Add(amount)
		if _, err := tx.Exec(ctx, `UPDATE accounts SET total_earned = $1 WHERE id = $2`, acct.TotalEarned, acct.ID); err != nil {
			return nil, err
		}
	}
	raw, err := encodeMeta(meta)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := &Transaction{
		ID:          NewID(),
		AccountID:   acct.ID,
		Reference:   reference,
		Kind:        kind,
		Amount:      amount,
		Fee:         fee,
		Status:      TxCompleted,
		SessionID:   sessionID,
		Metadata:    raw,
		CreatedAt:   now,
		ProcessedAt: &now,
	}
	if err := insertTransaction(ctx, tx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Debit atomically decrements a balance and inserts the completed
// transaction record. Fails with ErrInsufficientFunds before any write.
func (s *Store) Debit(ctx context.Context, accountID string, amount decimal.Decimal, kind, reference string, meta any) (*Transaction, error) {
	var out *Transaction
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		acct, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		out, err = debitTx(ctx, tx, acct, amount, kind, reference, "", meta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Credit atomically increments a balance and inserts the completed
// transaction record. Credits never fail for amount-related reasons.
func (s *Store) Credit(ctx context.Context, accountID string, amount decimal.Decimal, kind, reference string, meta any) (*Transaction, error) {
	var out *Transaction
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		acct, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		out, err = creditTx(ctx, tx, acct, amount, decimal.Zero, kind, reference, "", meta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReserveWithdrawal holds the amount (balance decremented now) and
// records a pending withdrawal carrying processing metadata.
func (s *Store) ReserveWithdrawal(ctx context.Context, accountID string, amount decimal.Decimal, reference string, meta any) (*Transaction, error) {
	var out *Transaction
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		acct, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if acct.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		if err := setBalance(ctx, tx, acct.ID, acct.Balance.Sub(amount)); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE accounts SET total_withdrawn = total_withdrawn + $1 WHERE id = $2`, amount, acct.ID); err != nil {
			return err
		}
		raw, err := encodeMeta(meta)
		if err != nil {
			return err
		}
		out = &Transaction{
			ID:        NewID(),
			AccountID: acct.ID,
			Reference: reference,
			Kind:      TxWithdraw,
			Amount:    amount,
			Fee:       decimal.Zero,
			Status:    TxPending,
			Metadata:  raw,
			CreatedAt: time.Now().UTC(),
		}
		return insertTransaction(ctx, tx, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SettleWithdrawal finishes a pending withdrawal. Approval completes the
// record; rejection fails it and restores the held amount in the same
// transaction. The status flip is the paired record for the refund
// mutation, so no extra transaction row is inserted.
func (s *Store) SettleWithdrawal(ctx context.Context, transactionID string, approve bool) (*Transaction, error) {
	var out *Transaction
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, transactionID)
		t, err := scanTransaction(row)
		if err != nil {
			return err
		}
		if t.Kind != TxWithdraw {
			return ErrNotFound
		}
		if t.Status != TxPending {
			return ErrAlreadySettled
		}
		now := time.Now().UTC()
		status := TxCompleted
		if !approve {
			status = TxFailed
			acct, err := lockAccount(ctx, tx, t.AccountID)
			if err != nil {
				return err
			}
			if err := setBalance(ctx, tx, acct.ID, acct.Balance.Add(t.Amount)); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `UPDATE accounts SET total_withdrawn = total_withdrawn - $1 WHERE id = $2`, t.Amount, acct.ID); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE transactions SET status = $1, processed_at = $2 WHERE id = $3`, status, now, t.ID); err != nil {
			return err
		}
		t.Status = status
		t.ProcessedAt = &now
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (s *Store) GetTransactionByReference(ctx context.Context, reference string) (*Transaction, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE reference = $1`, reference)
	return scanTransaction(row)
}

// ListPendingWithdrawals returns the payout queue, oldest first.
func (s *Store) ListPendingWithdrawals(ctx context.Context, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE kind = $1 AND status = $2
		ORDER BY created_at ASC LIMIT $3 OFFSET $4
	`, TxWithdraw, TxPending, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Reference, &t.Kind, &t.Amount, &t.Fee, &t.Status, &t.SessionID, &t.Metadata, &t.CreatedAt, &t.ProcessedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ListTransactions(ctx context.Context, accountID, kind string, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows pgx.Rows
	var err error
	if kind == "" || kind == "all" {
		rows, err = s.Pool.Query(ctx, `SELECT `+txColumns+` FROM transactions WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, accountID, limit, offset)
	} else {
		rows, err = s.Pool.Query(ctx, `SELECT `+txColumns+` FROM transactions WHERE account_id = $1 AND kind = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`, accountID, kind, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Reference, &t.Kind, &t.Amount, &t.Fee, &t.Status, &t.SessionID, &t.Metadata, &t.CreatedAt, &t.ProcessedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
