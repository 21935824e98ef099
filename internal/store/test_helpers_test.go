package store

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quizcash/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func openStore(t *testing.T) (*Store, context.Context, func()) {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip test db: %v", err)
	}
	dsn := cfg.TestPostgresDSN
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())
	base, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open base db: %v", err)
	}
	createSchemaSQL := fmt.Sprintf("CREATE SCHEMA %s", pgx.Identifier{schema}.Sanitize())
	if _, err := base.Exec(context.Background(), createSchemaSQL); err != nil {
		base.Close()
		t.Fatalf("create schema: %v", err)
	}
	base.Close()

	st, err := New(withSearchPath(dsn, schema))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := applySchema(st); err != nil {
		st.Close()
		t.Fatalf("apply schema: %v", err)
	}
	cleanup := func() {
		st.Close()
		base, err := pgxpool.New(context.Background(), dsn)
		if err == nil {
			dropSchemaSQL := fmt.Sprintf("DROP SCHEMA %s CASCADE", pgx.Identifier{schema}.Sanitize())
			_, _ = base.Exec(context.Background(), dropSchemaSQL)
			base.Close()
		}
	}
	return st, context.Background(), cleanup
}

func applySchema(st *Store) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	var path string
	for i := 0; i < 6; i++ {
		p := filepath.Join(dir, "migrations", "000001_init.up.sql")
		if _, err := os.Stat(p); err == nil {
			path = p
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if path == "" {
		return fmt.Errorf("000001_init.up.sql not found")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = st.Pool.Exec(context.Background(), string(b))
	return err
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustAccount(t *testing.T, st *Store, ctx context.Context, id string, balance string) {
	t.Helper()
	if _, err := st.EnsureAccount(ctx, id, dec(balance)); err != nil {
		t.Fatalf("ensure account %s: %v", id, err)
	}
}

func mustBalance(t *testing.T, st *Store, ctx context.Context, id string, want string) {
	t.Helper()
	acct, err := st.GetAccount(ctx, id)
	if err != nil {
		t.Fatalf("get account %s: %v", id, err)
	}
	if !acct.Balance.Equal(dec(want)) {
		t.Fatalf("account %s balance = %s, want %s", id, acct.Balance, want)
	}
}

func mustSeedQuestions(t *testing.T, st *Store, ctx context.Context, level string, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		q := &Question{
			Category:     "general",
			Level:        level,
			Difficulty:   1,
			Text:         fmt.Sprintf("%s question %d", level, i),
			Options:      [4]string{"a", "b", "c", "d"},
			CorrectIndex: i % 4,
			Points:       10,
			TimeLimit:    10,
			IsActive:     true,
		}
		if err := st.CreateQuestion(ctx, q); err != nil {
			t.Fatalf("seed question: %v", err)
		}
		ids = append(ids, q.ID)
	}
	return ids
}

// mustSession builds and stakes a session for creator with the given
// question ids, every answer pinned at shuffled index 0.
func mustSession(t *testing.T, st *Store, ctx context.Context, creator string, questionIDs []string, mutate func(*GameSession)) *GameSession {
	t.Helper()
	now := time.Now().UTC()
	g := &GameSession{
		ID:              NewID(),
		Code:            NewGameCode(),
		GameType:        "quick",
		Level:           "quick",
		Status:          SessionActive,
		Stake:           dec("100"),
		PlatformFee:     dec("30"),
		TotalPot:        dec("300"),
		MaxPlayers:      1,
		CurrentPlayers:  1,
		TotalQuestions:  len(questionIDs),
		RequiredCorrect: len(questionIDs),
		TimePerQuestion: 10,
		QuestionMap:     map[string]QuestionMapEntry{},
		CreatedBy:       creator,
		StartedAt:       &now,
		CreatedAt:       now,
	}
	for _, id := range questionIDs {
		g.QuestionMap[id] = QuestionMapEntry{Correct: 0, Shuffled: 0}
	}
	if mutate != nil {
		mutate(g)
	}
	if _, err := st.CreateSessionStaked(ctx, g); err != nil {
		t.Fatalf("create staked session: %v", err)
	}
	return g
}

func allCorrect(g *GameSession) []AnswerStat {
	stats := make([]AnswerStat, 0, len(g.QuestionMap))
	for id := range g.QuestionMap {
		stats = append(stats, AnswerStat{QuestionID: id, Correct: true})
	}
	return stats
}
