package notify

import (
	"context"

	"github.com/holychess/anarchess/pkg/gamedto"
)

// Nop discards every event. Used when no broker is configured and in tests
// that don't assert on fan-out.
type Nop struct{}

func (Nop) NotifyMoveMade(context.Context, *gamedto.MoveMade) error               { return nil }
func (Nop) NotifyDrawStateChange(context.Context, *gamedto.DrawStateChange) error { return nil }
func (Nop) NotifyGameEnded(context.Context, *gamedto.GameEnded) error             { return nil }
