package session

import (
	"context"

	"github.com/holychess/anarchess/pkg/gamedto"
)

// Store persists game records. A Save must be durable before any observer
// notification is emitted; a failed Save leaves prior durable state intact.
type Store interface {
	Save(ctx context.Context, rec *GameRecord) error
	Load(ctx context.Context, token string) (*GameRecord, error)
}

// Notifier fans game events out to subscribers. Fire-and-forget from the
// actor's perspective: failures are logged, never rolled back.
type Notifier interface {
	NotifyMoveMade(ctx context.Context, ev *gamedto.MoveMade) error
	NotifyDrawStateChange(ctx context.Context, ev *gamedto.DrawStateChange) error
	NotifyGameEnded(ctx context.Context, ev *gamedto.GameEnded) error
}

// Finalizer archives a terminated game and applies the rating update.
// Invoked exactly once per terminated game, after the durable write.
type Finalizer interface {
	CreateArchive(ctx context.Context, rec *GameRecord) error
	UpdateRatingForResult(ctx context.Context, rec *GameRecord, result gamedto.GameResult) error
}

// TokenGenerator supplies opaque unique game tokens.
type TokenGenerator interface {
	NewToken() string
}
