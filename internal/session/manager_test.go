package session

import (
	"context"
	"testing"
	"time"

	"github.com/holychess/anarchess/internal/clock"
	"github.com/holychess/anarchess/pkg/gamedto"
)

type seqTokens struct{ n int }

func (s *seqTokens) NewToken() string {
	s.n++
	return map[int]string{1: "tok-1", 2: "tok-2", 3: "tok-3"}[s.n]
}

func newTestManager(t *testing.T, maxGames int) (*Manager, *memStore) {
	t.Helper()
	store := newMemStore()
	m := NewManager(
		Config{AbortMoveThreshold: 2, DrawCooldownMoves: 3},
		Deps{Store: store, Notifier: &recNotifier{}},
		ManagerOptions{MaxConcurrentGames: maxGames, Tokens: &seqTokens{}},
	)
	t.Cleanup(m.Shutdown)
	return m, store
}

func TestManagerCreateAndGet(t *testing.T) {
	m, _ := newTestManager(t, 10)
	tc := clock.TimeControl{Base: 10 * time.Minute, Increment: 5 * time.Second}

	a, err := m.CreateGame(context.Background(), testPlayers.white, testPlayers.black, tc, "test")
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if a.Token() != "tok-1" {
		t.Errorf("token = %q", a.Token())
	}

	got, err := m.Get("tok-1")
	if err != nil || got != a {
		t.Fatalf("Get returned %v, %v", got, err)
	}
	if _, err := m.Get("unknown"); err == nil {
		t.Error("Get(unknown) succeeded")
	}
	if m.Count() != 1 {
		t.Errorf("Count = %d", m.Count())
	}
}

func TestManagerEnforcesGameCap(t *testing.T) {
	m, _ := newTestManager(t, 1)
	tc := clock.TimeControl{Base: time.Minute}
	ctx := context.Background()

	if _, err := m.CreateGame(ctx, testPlayers.white, testPlayers.black, tc, "test"); err != nil {
		t.Fatalf("first CreateGame: %v", err)
	}
	_, err := m.CreateGame(ctx, testPlayers.white, testPlayers.black, tc, "test")
	if got := domainCode(t, err); got != gamedto.CodePersistence {
		t.Fatalf("cap error code = %q", got)
	}
}

func TestManagerResume(t *testing.T) {
	m, store := newTestManager(t, 10)
	tc := clock.TimeControl{Base: 10 * time.Minute}
	ctx := context.Background()

	a, err := m.CreateGame(ctx, testPlayers.white, testPlayers.black, tc, "test")
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if _, err := a.MovePiece(ctx, "u-white", "e2e4"); err != nil {
		t.Fatalf("MovePiece: %v", err)
	}

	// Drop the live actor; the durable record stays.
	m.Release("tok-1")
	if _, err := m.Get("tok-1"); err == nil {
		t.Fatal("released actor still registered")
	}

	revived, err := m.Resume(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	rec, err := revived.Snapshot(ctx)
	if err != nil || rec.MoveCount() != 1 {
		t.Fatalf("revived snapshot: %+v, %v", rec, err)
	}

	// Finished games resume as read-only records.
	if err := revived.RequestGameEnd(ctx, "u-white"); err != nil {
		t.Fatalf("RequestGameEnd: %v", err)
	}
	m.Release("tok-1")
	if _, err := m.Resume(ctx, "tok-1"); domainCode(t, err) != gamedto.CodeGameAlreadyOver {
		t.Errorf("resume of finished game: %v", err)
	}
	over, err := m.LoadRecord(ctx, "tok-1")
	if err != nil || over.Status != StatusOver {
		t.Fatalf("LoadRecord: %+v, %v", over, err)
	}

	if _, err := store.Load(ctx, "tok-1"); err != nil {
		t.Fatalf("durable record lost: %v", err)
	}
}
