package config

import "github.com/caarlos0/env/v11"

// GameConfig carries the platform's money policy. Amounts are whole
// currency units; the fee rate is a percentage of the pot taken on wins.
type GameConfig struct {
	PlatformFeeRate string `env:"PLATFORM_FEE_RATE" envDefault:"0.10"`

	InitialBalance int64 `env:"INITIAL_BALANCE" envDefault:"1000"`

	MinStake int64 `env:"MIN_STAKE" envDefault:"10"`
	MaxStake int64 `env:"MAX_STAKE" envDefault:"100000"`

	MinDeposit    int64 `env:"MIN_DEPOSIT" envDefault:"50"`
	MinWithdrawal int64 `env:"MIN_WITHDRAWAL" envDefault:"500"`
	MaxWithdrawal int64 `env:"MAX_WITHDRAWAL" envDefault:"5000000"`

	FreeSpinsDaily int   `env:"FREE_SPINS_DAILY" envDefault:"10"`
	SpinCost       int64 `env:"SPIN_COST" envDefault:"50"`
}

func LoadGame() (GameConfig, error) {
	var cfg GameConfig
	err := env.Parse(&cfg)
	return cfg, err
}
