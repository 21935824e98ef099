package store

import "testing"

func TestEnsureAccountIdempotent(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	created, err := st.EnsureAccount(ctx, "acct-1", dec("1000"))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !created {
		t.Fatal("first ensure did not report creation")
	}
	if _, err := st.Debit(ctx, "acct-1", dec("100"), TxStake, "STAKE-E1", nil); err != nil {
		t.Fatalf("debit: %v", err)
	}
	// A second ensure must not reset the balance.
	created, err = st.EnsureAccount(ctx, "acct-1", dec("1000"))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if created {
		t.Fatal("second ensure reported creation")
	}
	mustBalance(t, st, ctx, "acct-1", "900")
}

func TestGetAccountNotFound(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	if _, err := st.GetAccount(ctx, "ghost"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHasActiveSession(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()
	mustAccount(t, st, ctx, "acct-1", "1000")
	mustAccount(t, st, ctx, "acct-2", "1000")
	ids := mustSeedQuestions(t, st, ctx, "quick", 2)

	busy, err := st.HasActiveSession(ctx, "acct-1")
	if err != nil {
		t.Fatalf("has active: %v", err)
	}
	if busy {
		t.Fatal("fresh account reported busy")
	}

	g := makeDuel(t, st, ctx, ids)
	if busy, _ = st.HasActiveSession(ctx, "acct-1"); !busy {
		t.Fatal("creator of waiting session not busy")
	}
	if _, err := st.JoinSession(ctx, g.ID, "acct-2", dec("10")); err != nil {
		t.Fatalf("join: %v", err)
	}
	if busy, _ = st.HasActiveSession(ctx, "acct-2"); !busy {
		t.Fatal("joiner of active session not busy")
	}

	if _, err := st.FinalizeSubmission(ctx, g.ID, "acct-1", 2, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := st.FinalizeSubmission(ctx, g.ID, "acct-2", 1, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if busy, _ = st.HasActiveSession(ctx, "acct-1"); busy {
		t.Fatal("settled session still reported busy")
	}
}

func TestResetDailyFreeSpins(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()
	mustAccount(t, st, ctx, "acct-1", "1000")
	mustAccount(t, st, ctx, "acct-2", "1000")
	if _, err := st.Pool.Exec(ctx, `UPDATE accounts SET free_spins = 0, last_spin_reset = CURRENT_DATE - 1 WHERE id = 'acct-1'`); err != nil {
		t.Fatalf("backdate: %v", err)
	}
	// acct-2 already got today's allowance; the sweep must skip it.
	if _, err := st.Pool.Exec(ctx, `UPDATE accounts SET free_spins = 10, last_spin_reset = CURRENT_DATE WHERE id = 'acct-2'`); err != nil {
		t.Fatalf("stamp: %v", err)
	}

	n, err := st.ResetDailyFreeSpins(ctx, 10)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n != 1 {
		t.Fatalf("reset %d accounts, want 1", n)
	}
	acct, _ := st.GetAccount(ctx, "acct-1")
	if acct.FreeSpins != 10 {
		t.Fatalf("free spins = %d, want 10", acct.FreeSpins)
	}
}
