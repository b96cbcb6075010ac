package rating

import (
	"strings"
	"testing"
	"time"

	"github.com/holychess/anarchess/internal/clock"
	"github.com/holychess/anarchess/internal/session"
	"github.com/holychess/anarchess/pkg/gamedto"
)

func sampleRecord() *session.GameRecord {
	return &session.GameRecord{
		Token:       "tok-1",
		Source:      "lobby",
		White:       session.Player{UserID: "u-w", Name: "Alice"},
		Black:       session.Player{UserID: "u-b", Name: `Bob "the Rook"`},
		TimeControl: clock.TimeControl{Base: 10 * time.Minute, Increment: 5 * time.Second},
		History: []gamedto.HistoryEntry{
			{SAN: "e4", Color: "white"},
			{SAN: "e6", Color: "black"},
			{SAN: "O-O-O-O", Color: "white"},
		},
	}
}

func TestBuildGameText(t *testing.T) {
	res := gamedto.GameResult{
		Winner:  "white",
		Method:  gamedto.MethodResignation,
		By:      "black",
		EndedAt: time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC),
	}
	text := buildGameText(sampleRecord(), res)

	for _, want := range []string{
		"[Event \"Anarchess\"]",
		"[Site \"lobby\"]",
		"[Date \"2026.03.01\"]",
		"[White \"Alice\"]",
		"[Black \"Bob 'the Rook'\"]",
		"[TimeControl \"600+5\"]",
		"[Termination \"resignation\"]",
		"[Result \"1-0\"]",
		"1. e4 e6 2. O-O-O-O 1-0",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("game text missing %q:\n%s", want, text)
		}
	}
}

func TestResultTag(t *testing.T) {
	cases := []struct {
		res  gamedto.GameResult
		want string
	}{
		{gamedto.GameResult{Winner: "white", Method: gamedto.MethodTimeout}, "1-0"},
		{gamedto.GameResult{Winner: "black", Method: gamedto.MethodResignation}, "0-1"},
		{gamedto.GameResult{Method: gamedto.MethodDrawAgreement}, "1/2-1/2"},
		{gamedto.GameResult{Method: gamedto.MethodKingAdjacency}, "1/2-1/2"},
		{gamedto.GameResult{Method: gamedto.MethodAborted}, "*"},
	}
	for _, c := range cases {
		if got := resultTag(c.res); got != c.want {
			t.Errorf("resultTag(%+v) = %q, want %q", c.res, got, c.want)
		}
	}
}

func TestApplyElo(t *testing.T) {
	// Evenly matched: winner takes half the K factor.
	if got := applyElo(1200, 1200, 1); got != 1216 {
		t.Errorf("even win = %d, want 1216", got)
	}
	if got := applyElo(1200, 1200, 0); got != 1184 {
		t.Errorf("even loss = %d, want 1184", got)
	}
	if got := applyElo(1200, 1200, 0.5); got != 1200 {
		t.Errorf("even draw = %d, want 1200", got)
	}
	// An upset moves more points than an expected win.
	upset := applyElo(1200, 1400, 1) - 1200
	expected := applyElo(1400, 1200, 1) - 1400
	if upset <= expected {
		t.Errorf("upset gain %d not greater than favorite gain %d", upset, expected)
	}
}

func TestScoreFor(t *testing.T) {
	if scoreFor("white", "white") != 1 || scoreFor("white", "black") != 0 || scoreFor("", "white") != 0.5 {
		t.Error("scoreFor mapping wrong")
	}
}

func TestTimeControlClass(t *testing.T) {
	cases := []struct {
		base time.Duration
		want string
	}{
		{time.Minute, "bullet"},
		{5 * time.Minute, "blitz"},
		{10 * time.Minute, "rapid"},
		{time.Hour, "classical"},
	}
	for _, c := range cases {
		if got := timeControlClass(c.base); got != c.want {
			t.Errorf("timeControlClass(%v) = %q, want %q", c.base, got, c.want)
		}
	}
}
