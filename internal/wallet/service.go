// Package wallet exposes balances, transaction history, deposits and
// the withdrawal flow.
package wallet

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"quizcash/internal/config"
	"quizcash/internal/ledger"
	"quizcash/internal/store"
)

var (
	ErrAmountOutOfRange   = errors.New("amount_out_of_range")
	ErrInvalidBankDetails = errors.New("invalid_bank_details")
)

// ProcessingPolicy maps a withdrawal amount to the advertised
// processing window in days. Injected so payout SLAs can change
// without touching the flow.
type ProcessingPolicy func(amount decimal.Decimal) int

// DefaultProcessingPolicy: small payouts next day, mid-size in two,
// everything above half a million in three.
func DefaultProcessingPolicy(amount decimal.Decimal) int {
	switch {
	case amount.LessThanOrEqual(decimal.NewFromInt(50000)):
		return 1
	case amount.LessThanOrEqual(decimal.NewFromInt(500000)):
		return 2
	default:
		return 3
	}
}

type Service struct {
	store  *store.Store
	ledger *ledger.Ledger
	cfg    config.GameConfig
	policy ProcessingPolicy
}

func NewService(st *store.Store, led *ledger.Ledger, cfg config.GameConfig, policy ProcessingPolicy) *Service {
	if policy == nil {
		policy = DefaultProcessingPolicy
	}
	return &Service{store: st, ledger: led, cfg: cfg, policy: policy}
}

func (s *Service) Balance(ctx context.Context, accountID string) (*store.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

// Transactions lists the account's ledger rows newest first, optionally
// filtered by kind.
func (s *Service) Transactions(ctx context.Context, accountID, kind string, limit, offset int) ([]store.Transaction, error) {
	return s.store.ListTransactions(ctx, accountID, kind, limit, offset)
}

// Deposit credits a confirmed top-up. The reference is the gateway's
// when it supplies one, otherwise a fresh DEP reference.
func (s *Service) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, reference string) (*store.Transaction, error) {
	if amount.LessThan(decimal.NewFromInt(s.cfg.MinDeposit)) {
		return nil, ErrAmountOutOfRange
	}
	if reference == "" {
		reference = ledger.NewReference("DEP")
	}
	tx, err := s.ledger.CreditDeposit(ctx, accountID, amount, reference)
	if err != nil {
		return nil, err
	}
	log.Info().Str("account", accountID).Str("reference", reference).
		Str("amount", amount.String()).Msg("deposit credited")
	return tx, nil
}

// Withdraw reserves the amount and opens a pending withdrawal. Returns
// the pending transaction and the advertised processing days.
func (s *Service) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, bank ledger.BankDetails) (*store.Transaction, int, error) {
	min := decimal.NewFromInt(s.cfg.MinWithdrawal)
	max := decimal.NewFromInt(s.cfg.MaxWithdrawal)
	if amount.LessThan(min) || amount.GreaterThan(max) {
		return nil, 0, ErrAmountOutOfRange
	}
	if strings.TrimSpace(bank.BankCode) == "" ||
		strings.TrimSpace(bank.AccountNumber) == "" ||
		strings.TrimSpace(bank.AccountName) == "" {
		return nil, 0, ErrInvalidBankDetails
	}
	days := s.policy(amount)
	tx, err := s.ledger.ReserveWithdrawal(ctx, accountID, amount, bank, days)
	if err != nil {
		return nil, 0, err
	}
	log.Info().Str("account", accountID).Str("reference", tx.Reference).
		Str("amount", amount.String()).Int("processing_days", days).Msg("withdrawal reserved")
	return tx, days, nil
}

// WithdrawalStatus looks a withdrawal up by its external reference.
func (s *Service) WithdrawalStatus(ctx context.Context, reference string) (*store.Transaction, *ledger.WithdrawMeta, error) {
	tx, err := s.store.GetTransactionByReference(ctx, reference)
	if err != nil {
		return nil, nil, err
	}
	if tx.Kind != store.TxWithdraw {
		return nil, nil, store.ErrNotFound
	}
	var meta *ledger.WithdrawMeta
	if len(tx.Metadata) > 0 {
		m, err := ledger.DecodeWithdrawMeta(tx.Metadata)
		if err == nil {
			meta = &m
		}
	}
	return tx, meta, nil
}

// SettleWithdrawal approves or rejects a pending withdrawal.
func (s *Service) SettleWithdrawal(ctx context.Context, transactionID string, approve bool) (*store.Transaction, error) {
	tx, err := s.ledger.SettleWithdrawal(ctx, transactionID, approve)
	if err != nil {
		return nil, err
	}
	log.Info().Str("transaction", transactionID).Bool("approved", approve).Msg("withdrawal settled")
	return tx, nil
}
