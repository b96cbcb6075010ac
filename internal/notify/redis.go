// Package notify fans game events out to interested subscribers over Redis
// pub/sub. Delivery is best effort: the session layer logs failures and moves
// on, durable state is never coupled to a publish.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/holychess/anarchess/pkg/gamedto"
)

const (
	kindMoveMade  = "move_made"
	kindDrawState = "draw_state_change"
	kindGameEnded = "game_ended"
)

// Envelope wraps every published event with its kind so subscribers can
// decode from a single channel.
type Envelope struct {
	Kind    string          `json:"kind"`
	Token   string          `json:"token"`
	Payload json.RawMessage `json:"payload"`
}

// RedisNotifier publishes game events to one channel per game plus a global
// firehose channel.
type RedisNotifier struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, prefix: "game_events"}
}

func (n *RedisNotifier) NotifyMoveMade(ctx context.Context, ev *gamedto.MoveMade) error {
	return n.publish(ctx, kindMoveMade, ev.Token, ev)
}

func (n *RedisNotifier) NotifyDrawStateChange(ctx context.Context, ev *gamedto.DrawStateChange) error {
	return n.publish(ctx, kindDrawState, ev.Token, ev)
}

func (n *RedisNotifier) NotifyGameEnded(ctx context.Context, ev *gamedto.GameEnded) error {
	return n.publish(ctx, kindGameEnded, ev.Token, ev)
}

func (n *RedisNotifier) publish(ctx context.Context, kind, token string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	env, err := json.Marshal(Envelope{Kind: kind, Token: token, Payload: raw})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.gameChannel(token), env).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", kind, err)
	}
	// Firehose is advisory; a game-channel success is enough.
	_ = n.rdb.Publish(ctx, n.prefix, env).Err()
	return nil
}

func (n *RedisNotifier) gameChannel(token string) string {
	return n.prefix + ":" + token
}

// Subscribe returns a pub/sub handle on one game's channel. The caller owns
// the handle and must Close it.
func (n *RedisNotifier) Subscribe(ctx context.Context, token string) *redis.PubSub {
	return n.rdb.Subscribe(ctx, n.gameChannel(token))
}
