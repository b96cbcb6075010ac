package clock

import (
	"testing"
	"time"

	"github.com/holychess/anarchess/internal/engine"
)

type fakeNow struct {
	t time.Time
}

func newFakeNow() *fakeNow {
	return &fakeNow{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeNow) now() time.Time          { return f.t }
func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestTickMoveChargesElapsedAndAddsIncrement(t *testing.T) {
	fn := newFakeNow()
	c := NewWithNow(TimeControl{Base: 10 * time.Minute, Increment: 5 * time.Second}, fn.now)

	fn.advance(2 * time.Second)
	c.TickMove(engine.White)

	white, black := c.Snapshot(engine.Black)
	if want := 603 * time.Second; white != want {
		t.Errorf("white = %v, want %v", white, want)
	}
	if want := 600 * time.Second; black != want {
		t.Errorf("black = %v, want %v", black, want)
	}
}

func TestTimeLeftIsIdempotent(t *testing.T) {
	fn := newFakeNow()
	c := NewWithNow(TimeControl{Base: time.Minute}, fn.now)
	fn.advance(10 * time.Second)

	first := c.TimeLeft(engine.White, true)
	second := c.TimeLeft(engine.White, true)
	if first != second {
		t.Errorf("reads differ at the same instant: %v vs %v", first, second)
	}
	if want := 50 * time.Second; first != want {
		t.Errorf("running side = %v, want %v", first, want)
	}
	if got := c.TimeLeft(engine.Black, false); got != time.Minute {
		t.Errorf("idle side = %v, want %v", got, time.Minute)
	}
}

func TestRunningSideBleedsWhileIdleSideHolds(t *testing.T) {
	fn := newFakeNow()
	c := NewWithNow(TimeControl{Base: 5 * time.Minute, Increment: 3 * time.Second}, fn.now)

	fn.advance(time.Second)
	c.TickMove(engine.White) // white 5m+2s, baseline rebased for black

	fn.advance(4 * time.Second)
	white, black := c.Snapshot(engine.Black)
	if want := 5*time.Minute + 2*time.Second; white != want {
		t.Errorf("white = %v, want %v", white, want)
	}
	if want := 5*time.Minute - 4*time.Second; black != want {
		t.Errorf("black = %v, want %v", black, want)
	}
}

func TestFreezeStopsTheBleed(t *testing.T) {
	fn := newFakeNow()
	c := NewWithNow(TimeControl{Base: time.Minute}, fn.now)

	fn.advance(10 * time.Second)
	c.Freeze()
	if !c.Frozen() {
		t.Fatal("clock not frozen")
	}

	fn.advance(time.Hour)
	if got := c.TimeLeft(engine.White, true); got != time.Minute {
		t.Errorf("frozen read = %v, want full minute", got)
	}

	c.TickMove(engine.White)
	if got := c.TimeLeft(engine.White, true); got != time.Minute {
		t.Errorf("TickMove mutated a frozen clock: %v", got)
	}
}

func TestCommitChargesWithoutIncrement(t *testing.T) {
	fn := newFakeNow()
	c := NewWithNow(TimeControl{Base: time.Minute, Increment: 5 * time.Second}, fn.now)

	fn.advance(10 * time.Second)
	c.Commit(engine.White)
	if got := c.TimeLeft(engine.White, false); got != 50*time.Second {
		t.Errorf("committed white = %v, want 50s", got)
	}

	// Overdraw floors at zero.
	fn.advance(2 * time.Minute)
	c.Commit(engine.White)
	if got := c.TimeLeft(engine.White, false); got != 0 {
		t.Errorf("overdrawn white = %v, want 0", got)
	}
}

func TestRestoreDoesNotChargeDowntime(t *testing.T) {
	fn := newFakeNow()
	c := Restore(TimeControl{Base: 10 * time.Minute, Increment: 5 * time.Second},
		90*time.Second, 45*time.Second, fn.now)

	white, black := c.Snapshot(engine.White)
	if white != 90*time.Second || black != 45*time.Second {
		t.Fatalf("restored snapshot = %v/%v, want 90s/45s", white, black)
	}

	fn.advance(3 * time.Second)
	c.TickMove(engine.White)
	if got := c.TimeLeft(engine.White, false); got != 92*time.Second {
		t.Errorf("white after restore+move = %v, want 92s", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	fn := newFakeNow()
	c := NewWithNow(TimeControl{Base: time.Minute, Increment: time.Second}, fn.now)
	cl := c.Clone()

	fn.advance(5 * time.Second)
	c.TickMove(engine.White)

	if got := cl.TimeLeft(engine.White, false); got != time.Minute {
		t.Errorf("tick on original leaked into clone: %v", got)
	}
}
