package session

import (
	"time"

	"github.com/holychess/anarchess/internal/clock"
	"github.com/holychess/anarchess/internal/engine"
	"github.com/holychess/anarchess/pkg/gamedto"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusInitializing Status = "INITIALIZING"
	StatusInProgress   Status = "IN_PROGRESS"
	StatusOver         Status = "OVER"
)

// Player is one seat in a game.
type Player struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// DrawNegotiation is the draw-offer sub-state: at most one pending request
// plus a per-color cooldown of own-moves during which that color may not
// re-request after a decline.
type DrawNegotiation struct {
	ActiveRequester *engine.Color `json:"active_requester,omitempty"`
	Cooldown        [2]int        `json:"cooldown"`
}

// GameRecord is the durable per-game state. A crash-recovery load must
// reconstruct the live session verbatim from this shape.
type GameRecord struct {
	Token  string `json:"token"`
	Source string `json:"source,omitempty"`
	Status Status `json:"status"`
	White  Player `json:"white"`
	Black  Player `json:"black"`

	TimeControl clock.TimeControl      `json:"time_control"`
	InitialFEN  string                 `json:"initial_fen"`
	History     []gamedto.HistoryEntry `json:"history"`

	ClockWhiteMs int64     `json:"clock_white_ms"`
	ClockBlackMs int64     `json:"clock_black_ms"`
	ClockBasis   time.Time `json:"clock_basis"`

	Draw      DrawNegotiation       `json:"draw"`
	DrawState *engine.AutoDrawState `json:"draw_counters,omitempty"`
	Result    *gamedto.GameResult   `json:"result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MoveCount is the number of applied half-moves.
func (r *GameRecord) MoveCount() int { return len(r.History) }

// SideToMove derives turn from move-count parity.
func (r *GameRecord) SideToMove() engine.Color {
	if len(r.History)%2 == 0 {
		return engine.White
	}
	return engine.Black
}

// PlayerByColor returns the seat for a color.
func (r *GameRecord) PlayerByColor(c engine.Color) Player {
	if c == engine.White {
		return r.White
	}
	return r.Black
}

// ColorOf resolves a user to a color; false when the user is not seated.
func (r *GameRecord) ColorOf(userID string) (engine.Color, bool) {
	switch userID {
	case r.White.UserID:
		return engine.White, true
	case r.Black.UserID:
		return engine.Black, true
	}
	return engine.White, false
}

func (r *GameRecord) drawDTO() gamedto.DrawState {
	d := gamedto.DrawState{
		WhiteCooldown: r.Draw.Cooldown[engine.White],
		BlackCooldown: r.Draw.Cooldown[engine.Black],
	}
	if r.Draw.ActiveRequester != nil {
		d.ActiveRequester = r.Draw.ActiveRequester.String()
	}
	return d
}
