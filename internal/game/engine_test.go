package game

import (
	"testing"

	"github.com/shopspring/decimal"

	"quizcash/internal/config"
	"quizcash/internal/store"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(nil, nil, config.GameConfig{
		PlatformFeeRate: "0.10",
		MinStake:        10,
		MaxStake:        100000,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestLevelPayTable(t *testing.T) {
	cases := []struct {
		name       string
		questions  int
		required   int
		multiplier string
		maxPlayers int
	}{
		{"quick", 10, 10, "3", 1},
		{"good", 45, 40, "2.5", 1},
		{"smart", 65, 58, "4.5", 1},
		{"best", 85, 73, "6.5", 1},
		{"battle", 10, 0, "1", 4},
		{"1v1", 10, 0, "1", 2},
	}
	for _, tc := range cases {
		lvl, ok := LevelByName(tc.name)
		if !ok {
			t.Fatalf("level %s missing", tc.name)
		}
		if lvl.Questions != tc.questions || lvl.RequiredCorrect != tc.required || lvl.MaxPlayers != tc.maxPlayers {
			t.Errorf("%s: got questions=%d required=%d players=%d", tc.name, lvl.Questions, lvl.RequiredCorrect, lvl.MaxPlayers)
		}
		if !lvl.Multiplier.Equal(decimal.RequireFromString(tc.multiplier)) {
			t.Errorf("%s: multiplier %s, want %s", tc.name, lvl.Multiplier, tc.multiplier)
		}
	}
	if _, ok := LevelByName("legendary"); ok {
		t.Error("unknown level resolved")
	}
	if len(Levels()) != len(cases) {
		t.Errorf("Levels() returned %d rows, want %d", len(Levels()), len(cases))
	}
}

func TestCheckStakeBounds(t *testing.T) {
	e := testEngine(t)
	if err := e.checkStake(decimal.NewFromInt(9)); err != ErrStakeOutOfRange {
		t.Errorf("stake 9: got %v", err)
	}
	if err := e.checkStake(decimal.NewFromInt(10)); err != nil {
		t.Errorf("stake 10: got %v", err)
	}
	if err := e.checkStake(decimal.NewFromInt(100000)); err != nil {
		t.Errorf("stake 100000: got %v", err)
	}
	if err := e.checkStake(decimal.NewFromInt(100001)); err != ErrStakeOutOfRange {
		t.Errorf("stake 100001: got %v", err)
	}
}

func TestQuickPlayPayout(t *testing.T) {
	// Stake 100 at x3 is a 300 pot; 10% fee leaves a 270 prize.
	lvl, _ := LevelByName("quick")
	stake := decimal.NewFromInt(100)
	pot := stake.Mul(lvl.Multiplier)
	fee := pot.Mul(decimal.RequireFromString("0.10")).Round(2)
	prize := pot.Sub(fee)
	if !prize.Equal(decimal.NewFromInt(270)) {
		t.Fatalf("prize = %s, want 270", prize)
	}
}

func TestFractionalMultiplierPayout(t *testing.T) {
	lvl, _ := LevelByName("good")
	stake := decimal.NewFromInt(15)
	pot := stake.Mul(lvl.Multiplier)
	if !pot.Equal(decimal.RequireFromString("37.5")) {
		t.Fatalf("pot = %s, want 37.5", pot)
	}
	fee := pot.Mul(decimal.RequireFromString("0.10")).Round(2)
	if !fee.Equal(decimal.RequireFromString("3.75")) {
		t.Fatalf("fee = %s, want 3.75", fee)
	}
}

func TestGrade(t *testing.T) {
	qm := map[string]store.QuestionMapEntry{
		"q1": {Correct: 2, Shuffled: 0},
		"q2": {Correct: 1, Shuffled: 3},
		"q3": {Correct: 0, Shuffled: 2},
	}
	answers := []Answer{
		{QuestionID: "q1", AnswerIndex: 2},
		{QuestionID: "q2", AnswerIndex: 3}, // shuffled position, never trusted
		{QuestionID: "q3", AnswerIndex: 0},
		{QuestionID: "q9", AnswerIndex: 1}, // not in this session
	}
	score, stats := grade(qm, answers)
	if score != 2 {
		t.Fatalf("score = %d, want 2", score)
	}
	if len(stats) != 3 {
		t.Fatalf("stats for %d questions, want 3", len(stats))
	}
	want := map[string]bool{"q1": true, "q2": false, "q3": true}
	for _, st := range stats {
		if want[st.QuestionID] != st.Correct {
			t.Errorf("%s: correct=%v", st.QuestionID, st.Correct)
		}
	}
}

func TestGradeIgnoresDuplicateAnswers(t *testing.T) {
	qm := map[string]store.QuestionMapEntry{"q1": {Correct: 1, Shuffled: 3}}
	score, stats := grade(qm, []Answer{
		{QuestionID: "q1", AnswerIndex: 1},
		{QuestionID: "q1", AnswerIndex: 1},
	})
	if score != 1 || len(stats) != 1 {
		t.Fatalf("score=%d stats=%d, want 1/1", score, len(stats))
	}
}

func TestNewEngineRejectsBadFeeRate(t *testing.T) {
	if _, err := NewEngine(nil, nil, config.GameConfig{PlatformFeeRate: "ten percent"}); err == nil {
		t.Fatal("expected error for unparsable fee rate")
	}
}
