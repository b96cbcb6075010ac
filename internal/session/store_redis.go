package session

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/holychess/anarchess/pkg/gamedto"
)

const recordTTL = 7 * 24 * time.Hour

// RedisStore keeps one JSON game record per token.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// NewRedisStoreFromURL dials redis and verifies connectivity.
func NewRedisStoreFromURL(redisURL string) (*RedisStore, *redis.Client, error) {
	opts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb}, rdb, nil
}

func (s *RedisStore) Save(ctx context.Context, rec *GameRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game record: %w", err)
	}
	if err := s.rdb.Set(ctx, gameKey(rec.Token), raw, recordTTL).Err(); err != nil {
		return fmt.Errorf("save game record: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, token string) (*GameRecord, error) {
	raw, err := s.rdb.Get(ctx, gameKey(token)).Bytes()
	if err == redis.Nil {
		return nil, gamedto.NewDomainError(gamedto.CodeGameNotFound, "game not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load game record: %w", err)
	}
	var rec GameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal game record: %w", err)
	}
	return &rec, nil
}

func gameKey(token string) string { return "game:" + strings.TrimSpace(token) }

// ParseRedisURL accepts redis:// and rediss:// URLs; the latter connects
// over TLS.
func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{Addr: u.Host, Password: pass, DB: db}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{ServerName: u.Hostname(), MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
