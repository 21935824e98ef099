package store

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID             string
	Balance        decimal.Decimal
	TotalEarned    decimal.Decimal
	TotalWithdrawn decimal.Decimal
	GamesPlayed    int
	Wins           int
	FreeSpins      int
	LastSpinReset  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Transaction kinds. Every balance mutation inserts exactly one row
// with one of these kinds.
const (
	TxStake           = "stake"
	TxWin             = "win"
	TxDeposit         = "deposit"
	TxWithdraw        = "withdraw"
	TxSpinWin         = "spin_win"
	TxSpinPurchase    = "spin_purchase"
	TxAdminAdjustment = "admin_adjustment"
	TxRefund          = "refund"
	TxBonus           = "bonus"
)

const (
	TxPending   = "pending"
	TxCompleted = "completed"
	TxFailed    = "failed"
)

type Transaction struct {
	ID          string
	AccountID   string
	Reference   string
	Kind        string
	Amount      decimal.Decimal
	Fee         decimal.Decimal
	Status      string
	SessionID   string
	Metadata    json.RawMessage
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type Question struct {
	ID           string
	Category     string
	Level        string
	Difficulty   int
	Text         string
	Options      [4]string
	CorrectIndex int
	Explanation  string
	Points       int
	TimeLimit    int
	TimesUsed    int
	CorrectCount int
	WrongCount   int
	SuccessRate  float64
	IsActive     bool
	CreatedAt    time.Time
}

// Session statuses. Transitions are one-way:
// waiting -> active -> completed | quit.
const (
	SessionWaiting   = "waiting"
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionQuit      = "quit"
)

// QuestionMapEntry pins, per question, the original correct index used
// for grading and the shuffled index that was presented. Written once
// at session creation, never mutated.
type QuestionMapEntry struct {
	Correct  int `json:"correct"`
	Shuffled int `json:"shuffled"`
}

type GameSession struct {
	ID              string
	Code            string
	GameType        string
	Level           string
	Status          string
	Stake           decimal.Decimal
	PlatformFee     decimal.Decimal
	TotalPot        decimal.Decimal
	MaxPlayers      int
	CurrentPlayers  int
	TotalQuestions  int
	RequiredCorrect int
	TimePerQuestion int
	QuestionMap     map[string]QuestionMapEntry
	CreatedBy       string
	WinnerID        string
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
}

type SessionPlayer struct {
	SessionID   string
	AccountID   string
	Score       *int
	SubmittedAt *time.Time
	QuitAt      *time.Time
}

type SpinRecord struct {
	ID           string
	AccountID    string
	AmountWon    decimal.Decimal
	UsedFreeSpin bool
	SpinCost     decimal.Decimal
	ServerSeed   string
	ClientSeed   string
	Nonce        int64
	HashResult   string
	RandomNumber int
	CreatedAt    time.Time
}

type SpinStats struct {
	TotalWon      decimal.Decimal
	TotalSpins    int
	FreeSpinsUsed int
	PaidSpins     int
	BiggestWin    decimal.Decimal
}
