// Package ledger is the domain API over the store's balance-mutating
// primitives. Every debit or credit leaves exactly one transaction
// record; nothing else in the codebase writes balances.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"quizcash/internal/store"
)

type Ledger struct {
	Store *store.Store
}

func New(s *store.Store) *Ledger {
	return &Ledger{Store: s}
}

func (l *Ledger) Debit(ctx context.Context, accountID string, amount decimal.Decimal, kind, reference string, meta any) (*store.Transaction, error) {
	return l.Store.Debit(ctx, accountID, amount, kind, reference, meta)
}

func (l *Ledger) Credit(ctx context.Context, accountID string, amount decimal.Decimal, kind, reference string, meta any) (*store.Transaction, error) {
	return l.Store.Credit(ctx, accountID, amount, kind, reference, meta)
}

// CreditDeposit completes a gateway-confirmed deposit. The gateway
// protocol lives outside the core; by the time this runs the money is
// confirmed and the credit cannot fail.
func (l *Ledger) CreditDeposit(ctx context.Context, accountID string, amount decimal.Decimal, reference string) (*store.Transaction, error) {
	return l.Store.Credit(ctx, accountID, amount, store.TxDeposit, reference, nil)
}

// CreditWelcomeBonus pays the one-off signup bonus. The caller (the
// auth layer sits outside this service) is responsible for invoking it
// exactly once per account; the unique reference backstops retries.
func (l *Ledger) CreditWelcomeBonus(ctx context.Context, accountID string, amount decimal.Decimal) (*store.Transaction, error) {
	reference := "BONUS-" + accountID
	return l.Store.Credit(ctx, accountID, amount, store.TxBonus, reference, nil)
}

// ReserveWithdrawal holds the amount against the balance and opens a
// pending withdrawal carrying the bank details and processing estimate.
func (l *Ledger) ReserveWithdrawal(ctx context.Context, accountID string, amount decimal.Decimal, bank BankDetails, processingDays int) (*store.Transaction, error) {
	meta := WithdrawMeta{
		Bank:                bank,
		ProcessingDays:      processingDays,
		EstimatedCompletion: time.Now().UTC().AddDate(0, 0, processingDays),
	}
	reference := NewReference("WDR")
	return l.Store.ReserveWithdrawal(ctx, accountID, amount, reference, meta)
}

// SettleWithdrawal approves or rejects a pending withdrawal; rejection
// refunds the held amount in the same atomic step.
func (l *Ledger) SettleWithdrawal(ctx context.Context, transactionID string, approve bool) (*store.Transaction, error) {
	return l.Store.SettleWithdrawal(ctx, transactionID, approve)
}

// Adjust applies an admin balance correction in either direction.
func (l *Ledger) Adjust(ctx context.Context, accountID string, amount decimal.Decimal, add bool, meta AdjustmentMeta) (*store.Transaction, error) {
	reference := NewReference("ADMIN")
	if add {
		return l.Store.Credit(ctx, accountID, amount, store.TxAdminAdjustment, reference, meta)
	}
	return l.Store.Debit(ctx, accountID, amount, store.TxAdminAdjustment, reference, meta)
}

// NewReference builds a globally unique external reference, e.g.
// WDR-20240101120000-01HX....
func NewReference(prefix string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().UTC().Format("20060102150405"), store.NewID()[:10])
}
