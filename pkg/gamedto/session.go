package gamedto

import "time"

// ClockSnapshot reports both remaining times in milliseconds at a moment.
type ClockSnapshot struct {
	WhiteMs int64 `json:"white_ms"`
	BlackMs int64 `json:"black_ms"`
}

// HistoryEntry is one applied move as stored and broadcast.
type HistoryEntry struct {
	Encoded    string `json:"encoded"`
	SAN        string `json:"san"`
	Color      string `json:"color"`
	TimeLeftMs int64  `json:"time_left_ms"`
}

// DrawState mirrors the session's draw-negotiation sub-state.
type DrawState struct {
	ActiveRequester string `json:"active_requester,omitempty"`
	WhiteCooldown   int    `json:"white_cooldown,omitempty"`
	BlackCooldown   int    `json:"black_cooldown,omitempty"`
}

// MoveMade is the payload fanned out after every applied move.
type MoveMade struct {
	Token             string        `json:"token"`
	Move              HistoryEntry  `json:"move"`
	SideToMove        string        `json:"side_to_move"`
	MoveNumber        int           `json:"move_number"`
	Clocks            ClockSnapshot `json:"clocks"`
	NextMoverUserID   string        `json:"next_mover_user_id"`
	LegalMovesEncoded []string      `json:"legal_moves_encoded"`
	HasForcedMoves    bool          `json:"has_forced_moves"`
}

// DrawStateChange is fanned out whenever draw negotiation state moves.
type DrawStateChange struct {
	Token    string    `json:"token"`
	Draw     DrawState `json:"draw"`
	Revision string    `json:"revision"`
}

// GameEnded is fanned out exactly once when a game terminates.
type GameEnded struct {
	Token       string        `json:"token"`
	Result      GameResult    `json:"result"`
	FinalClocks ClockSnapshot `json:"final_clocks"`
	Revision    string        `json:"revision"`
}

// GameResult describes why and how a game ended.
type GameResult struct {
	Winner  string    `json:"winner,omitempty"` // "white", "black" or "" for draws
	Method  string    `json:"method"`           // resignation, timeout, draw reasons, ...
	By      string    `json:"by,omitempty"`     // color that resigned, aborted or timed out
	EndedAt time.Time `json:"ended_at"`
}

// End methods, stable across the boundary.
const (
	MethodResignation   = "resignation"
	MethodAborted       = "aborted"
	MethodTimeout       = "timeout"
	MethodDrawAgreement = "draw_agreement"
	MethodRepetition    = "threefold_repetition"
	MethodFiftyMove     = "fifty_move_rule"
	MethodKingAdjacency = "king_adjacency"
)
