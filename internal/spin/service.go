// Package spin runs the provably fair prize wheel.
package spin

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"quizcash/internal/config"
	"quizcash/internal/fairness"
	"quizcash/internal/store"
)

var ErrUnknownPackage = errors.New("unknown_spin_package")

// Package is a purchasable bundle of spins.
type Package struct {
	Spins int             `json:"spins"`
	Cost  decimal.Decimal `json:"cost"`
}

var packages = []Package{
	{Spins: 10, Cost: decimal.NewFromInt(500)},
	{Spins: 25, Cost: decimal.NewFromInt(1000)},
	{Spins: 50, Cost: decimal.NewFromInt(1500)},
}

// Packages returns the purchasable bundles.
func Packages() []Package {
	out := make([]Package, len(packages))
	copy(out, packages)
	return out
}

type Service struct {
	store *store.Store
	cfg   config.GameConfig
}

func NewService(st *store.Store, cfg config.GameConfig) *Service {
	return &Service{store: st, cfg: cfg}
}

// Spin charges one spin (free counter or paid debit) and settles the
// prize in a single transaction. Seeds are generated up front; the
// nonce is allocated by the store under the account lock, so the draw
// runs as a callback once the nonce is known.
func (s *Service) Spin(ctx context.Context, accountID string, useFree bool) (*store.SpinSettled, error) {
	serverSeed := fairness.NewServerSeed()
	clientSeed := fairness.NewClientSeed(accountID)
	cost := decimal.NewFromInt(s.cfg.SpinCost)

	settled, err := s.store.RecordSpin(ctx, accountID, useFree, cost, s.cfg.FreeSpinsDaily, func(nonce int64) store.SpinDraw {
		out := fairness.Draw(serverSeed, clientSeed, nonce)
		return store.SpinDraw{
			Prize:        decimal.NewFromInt(out.Prize),
			ServerSeed:   serverSeed,
			ClientSeed:   clientSeed,
			Hash:         out.Hash,
			RandomNumber: out.RandomNumber,
		}
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("account", accountID).Str("spin", settled.Record.ID).
		Bool("free", useFree).Str("prize", settled.Record.AmountWon.String()).
		Int64("nonce", settled.Record.Nonce).Msg("wheel spun")
	return settled, nil
}

// VerifyResult discloses the spin's inputs alongside the recomputed
// outcome so anyone can replay the draw.
type VerifyResult struct {
	Spin  *store.SpinRecord
	Valid bool
}

// Verify recomputes a stored spin from its disclosed seeds and nonce
// and checks the recorded prize matches.
func (s *Service) Verify(ctx context.Context, spinID string) (*VerifyResult, error) {
	rec, err := s.store.GetSpin(ctx, spinID)
	if err != nil {
		return nil, err
	}
	valid := fairness.Verify(rec.ServerSeed, rec.ClientSeed, rec.Nonce, rec.AmountWon.IntPart())
	return &VerifyResult{Spin: rec, Valid: valid}, nil
}

// Config is the public wheel configuration, account-independent.
type Config struct {
	SpinCost decimal.Decimal
	Wheel    []fairness.Segment
	Packages []Package
}

func (s *Service) Config() Config {
	return Config{
		SpinCost: decimal.NewFromInt(s.cfg.SpinCost),
		Wheel:    fairness.Wheel,
		Packages: Packages(),
	}
}

type Status struct {
	FreeSpins  int
	SpinsToday int
	SpinCost   decimal.Decimal
	Wheel      []fairness.Segment
	Packages   []Package
}

// Status reports the account's spin allowance. The daily reset is
// applied lazily at spin time, so a stale counter is projected forward
// here rather than read raw.
func (s *Service) Status(ctx context.Context, accountID string) (*Status, error) {
	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	today, err := s.store.CountSpinsToday(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &Status{
		FreeSpins:  effectiveFreeSpins(acct.FreeSpins, acct.LastSpinReset, s.cfg.FreeSpinsDaily, time.Now().UTC()),
		SpinsToday: today,
		SpinCost:   decimal.NewFromInt(s.cfg.SpinCost),
		Wheel:      fairness.Wheel,
		Packages:   Packages(),
	}, nil
}

// History returns recent spins newest first, with lifetime aggregates.
func (s *Service) History(ctx context.Context, accountID string, limit, offset int) ([]store.SpinRecord, *store.SpinStats, error) {
	spins, err := s.store.ListSpins(ctx, accountID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.store.GetSpinStats(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	return spins, stats, nil
}

// Buy purchases one of the fixed spin bundles.
func (s *Service) Buy(ctx context.Context, accountID string, spins int) (*store.SpinSettled, error) {
	var pkg *Package
	for i := range packages {
		if packages[i].Spins == spins {
			pkg = &packages[i]
			break
		}
	}
	if pkg == nil {
		return nil, ErrUnknownPackage
	}
	settled, err := s.store.BuySpinPackage(ctx, accountID, pkg.Spins, pkg.Cost)
	if err != nil {
		return nil, err
	}
	log.Info().Str("account", accountID).Int("spins", pkg.Spins).
		Str("cost", pkg.Cost.String()).Msg("spin package bought")
	return settled, nil
}

func effectiveFreeSpins(current int, lastReset *time.Time, allowance int, now time.Time) int {
	if lastReset == nil {
		return allowance
	}
	y1, m1, d1 := lastReset.UTC().Date()
	y2, m2, d2 := now.Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		return allowance
	}
	return current
}
