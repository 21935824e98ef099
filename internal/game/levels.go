package game

import "github.com/shopspring/decimal"

// Game types. Quick and the tiered levels are solo; battle and duel
// wait for opponents before activating.
const (
	TypeQuick  = "quick"
	TypeLevel  = "level"
	TypeBattle = "battle"
	TypeDuel   = "1v1"
)

// Level is one pay-table row. RequiredCorrect is the win threshold for
// solo play; multiplayer rows leave it zero because the winner is
// decided by relative score.
type Level struct {
	Name            string
	GameType        string
	Pool            string
	Questions       int
	RequiredCorrect int
	Multiplier      decimal.Decimal
	MaxPlayers      int
	TimePerQuestion int
}

var levels = map[string]Level{
	"quick": {
		Name: "quick", GameType: TypeQuick, Pool: "quick",
		Questions: 10, RequiredCorrect: 10,
		Multiplier: decimal.NewFromInt(3),
		MaxPlayers: 1, TimePerQuestion: 10,
	},
	"good": {
		Name: "good", GameType: TypeLevel, Pool: "good",
		Questions: 45, RequiredCorrect: 40,
		Multiplier: decimal.RequireFromString("2.5"),
		MaxPlayers: 1, TimePerQuestion: 10,
	},
	"smart": {
		Name: "smart", GameType: TypeLevel, Pool: "smart",
		Questions: 65, RequiredCorrect: 58,
		Multiplier: decimal.RequireFromString("4.5"),
		MaxPlayers: 1, TimePerQuestion: 10,
	},
	"best": {
		Name: "best", GameType: TypeLevel, Pool: "best",
		Questions: 85, RequiredCorrect: 73,
		Multiplier: decimal.RequireFromString("6.5"),
		MaxPlayers: 1, TimePerQuestion: 10,
	},
	"battle": {
		Name: "battle", GameType: TypeBattle, Pool: "quick",
		Questions: 10,
		Multiplier: decimal.NewFromInt(1),
		MaxPlayers: 4, TimePerQuestion: 10,
	},
	"1v1": {
		Name: "1v1", GameType: TypeDuel, Pool: "quick",
		Questions: 10,
		Multiplier: decimal.NewFromInt(1),
		MaxPlayers: 2, TimePerQuestion: 10,
	},
}

// LevelByName resolves a pay-table row.
func LevelByName(name string) (Level, bool) {
	lvl, ok := levels[name]
	return lvl, ok
}

// Levels returns the pay-table in a stable order for listings.
func Levels() []Level {
	order := []string{"quick", "good", "smart", "best", "battle", "1v1"}
	out := make([]Level, 0, len(order))
	for _, name := range order {
		out = append(out, levels[name])
	}
	return out
}

// Solo reports whether the level settles on the creator's lone submit.
func (l Level) Solo() bool { return l.MaxPlayers <= 1 }
