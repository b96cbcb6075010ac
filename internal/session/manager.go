package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/holychess/anarchess/internal/clock"
	"github.com/holychess/anarchess/internal/obslog"
	"github.com/holychess/anarchess/pkg/gamedto"
)

// UUIDTokenGenerator issues random game tokens.
type UUIDTokenGenerator struct{}

func (UUIDTokenGenerator) NewToken() string { return uuid.NewString() }

// Manager is the registry of live session actors. It routes by token and
// enforces the concurrent-game cap; all per-game logic lives in the actors.
type Manager struct {
	cfg      Config
	deps     Deps
	tokens   TokenGenerator
	maxGames int

	mu     sync.RWMutex
	actors map[string]*Actor
	closed bool
}

// ManagerOptions tune the registry.
type ManagerOptions struct {
	MaxConcurrentGames int
	Tokens             TokenGenerator
}

func NewManager(cfg Config, deps Deps, opts ManagerOptions) *Manager {
	tokens := opts.Tokens
	if tokens == nil {
		tokens = UUIDTokenGenerator{}
	}
	return &Manager{
		cfg:      cfg,
		deps:     deps,
		tokens:   tokens,
		maxGames: opts.MaxConcurrentGames,
		actors:   make(map[string]*Actor),
	}
}

// CreateGame mints a token, registers a new actor and starts the game.
func (m *Manager) CreateGame(ctx context.Context, white, black Player, tc clock.TimeControl, source string) (*Actor, error) {
	token := m.tokens.NewToken()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, gamedto.NewDomainError(gamedto.CodeGameNotFound, "manager shut down")
	}
	if m.maxGames > 0 && len(m.actors) >= m.maxGames {
		m.mu.Unlock()
		return nil, gamedto.DomainError{Code: gamedto.CodePersistence, Message: "concurrent game limit reached", Retryable: true}
	}
	a := NewActor(token, m.cfg, m.deps)
	m.actors[token] = a
	m.mu.Unlock()

	if err := a.Start(ctx, white, black, tc, source); err != nil {
		m.remove(token)
		a.Close()
		return nil, err
	}
	return a, nil
}

// Get returns the live actor for a token.
func (m *Manager) Get(token string) (*Actor, error) {
	m.mu.RLock()
	a, ok := m.actors[token]
	m.mu.RUnlock()
	if !ok {
		return nil, gamedto.NewDomainError(gamedto.CodeGameNotFound, "game not found")
	}
	return a, nil
}

// Resume loads a durable record and, when the game is still in progress,
// rebuilds a live actor for it. Finished games are returned read-only via
// LoadRecord instead.
func (m *Manager) Resume(ctx context.Context, token string) (*Actor, error) {
	if a, err := m.Get(token); err == nil {
		return a, nil
	}

	rec, err := m.deps.Store.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusInProgress {
		return nil, gamedto.NewDomainError(gamedto.CodeGameAlreadyOver, "game already over")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, gamedto.NewDomainError(gamedto.CodeGameNotFound, "manager shut down")
	}
	if a, ok := m.actors[token]; ok {
		return a, nil // lost the race to another resume
	}
	a, err := NewActorFromRecord(rec, m.cfg, m.deps)
	if err != nil {
		obslog.L().Error("game_resume_error", zap.String("token", token), zap.Error(err))
		return nil, err
	}
	m.actors[token] = a
	obslog.L().Info("game_resume", zap.String("token", token), zap.Int("moves", rec.MoveCount()))
	return a, nil
}

// LoadRecord fetches the durable record without registering an actor. Used
// for archival reads of finished games.
func (m *Manager) LoadRecord(ctx context.Context, token string) (*GameRecord, error) {
	return m.deps.Store.Load(ctx, token)
}

// Release drops a finished game's actor from the registry.
func (m *Manager) Release(token string) {
	if a := m.remove(token); a != nil {
		a.Close()
	}
}

// Shutdown closes every live actor. In-flight commands already queued may be
// abandoned; durable state is consistent because every mutation persisted
// before its effects became visible.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	actors := make([]*Actor, 0, len(m.actors))
	for _, a := range m.actors {
		actors = append(actors, a)
	}
	m.actors = make(map[string]*Actor)
	m.mu.Unlock()

	for _, a := range actors {
		a.Close()
	}
	obslog.L().Info("session_manager_shutdown", zap.Int("closed", len(actors)))
}

func (m *Manager) remove(token string) *Actor {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.actors[token]
	delete(m.actors, token)
	return a
}

// Count reports the number of live actors.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.actors)
}
