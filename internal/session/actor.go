// Package session owns one game's authoritative state behind a single-writer
// actor. Commands addressed to a game are serialized through one goroutine;
// every mutating branch persists durably before any notification is emitted.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/holychess/anarchess/internal/clock"
	"github.com/holychess/anarchess/internal/engine"
	"github.com/holychess/anarchess/internal/obslog"
	"github.com/holychess/anarchess/pkg/gamedto"
)

// Config holds the session rules shared by every game.
type Config struct {
	AbortMoveThreshold int
	DrawCooldownMoves  int
}

// Actor is the exclusive owner of one game's state. All access goes through
// the command queue; the run loop is the only goroutine touching the fields
// below it.
type Actor struct {
	token     string
	cfg       Config
	store     Store
	notifier  Notifier
	finalizer Finalizer
	calc      *engine.Calculator
	now       func() time.Time

	cmds      chan func()
	done      chan struct{}
	closeOnce sync.Once

	// Owned by the run loop.
	rec        *GameRecord
	board      *engine.Board
	clk        *clock.Clock
	counters   *engine.AutoDrawState
	legal      map[engine.Color]map[string]*engine.Move
	legalOrder map[engine.Color][]*engine.Move
	revision   int
	reminder   *time.Timer
}

// Deps bundles the collaborators every actor needs.
type Deps struct {
	Store     Store
	Notifier  Notifier
	Finalizer Finalizer
	Calc      *engine.Calculator
	Now       func() time.Time
}

// NewActor creates an un-started session for a fresh token and launches its
// command loop.
func NewActor(token string, cfg Config, deps Deps) *Actor {
	a := newActor(token, cfg, deps)
	a.rec = &GameRecord{Token: token, Status: StatusInitializing}
	go a.run()
	return a
}

// NewActorFromRecord rebuilds a live session from a durable record: the board
// is reconstructed by replaying the move history against the initial
// position. Missing prerequisite data is fatal, never defaulted.
func NewActorFromRecord(rec *GameRecord, cfg Config, deps Deps) (*Actor, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil game record")
	}
	if rec.White.UserID == "" || rec.Black.UserID == "" {
		return nil, fmt.Errorf("game %s: player descriptor missing from record", rec.Token)
	}
	if rec.DrawState == nil && rec.Status != StatusInitializing {
		return nil, fmt.Errorf("game %s: draw counters missing from record", rec.Token)
	}

	a := newActor(rec.Token, cfg, deps)
	a.rec = rec

	if rec.Status != StatusInitializing {
		board, err := engine.BoardFromFEN(rec.InitialFEN)
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", rec.Token, err)
		}
		for i, entry := range rec.History {
			mv, err := engine.DecodeMove(entry.Encoded)
			if err != nil {
				return nil, fmt.Errorf("game %s: history entry %d: %w", rec.Token, i, err)
			}
			board.ApplyMove(mv)
		}
		a.board = board
		a.counters = rec.DrawState
		a.clk = clock.Restore(rec.TimeControl,
			time.Duration(rec.ClockWhiteMs)*time.Millisecond,
			time.Duration(rec.ClockBlackMs)*time.Millisecond,
			a.now)
		if rec.Status == StatusOver {
			a.clk.Freeze()
			a.clearLegalCache()
		} else {
			a.recomputeLegal()
		}
	}

	go a.run()
	if rec.Status == StatusInProgress {
		a.enqueue(func() { a.scheduleReminder(a.clk.TimeLeft(rec.SideToMove(), true)) })
	}
	return a, nil
}

func newActor(token string, cfg Config, deps Deps) *Actor {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	calc := deps.Calc
	if calc == nil {
		calc = engine.NewCalculator(nil)
	}
	return &Actor{
		token:      token,
		cfg:        cfg,
		store:      deps.Store,
		notifier:   deps.Notifier,
		finalizer:  deps.Finalizer,
		calc:       calc,
		now:        now,
		cmds:       make(chan func(), 16),
		done:       make(chan struct{}),
		legal:      make(map[engine.Color]map[string]*engine.Move),
		legalOrder: make(map[engine.Color][]*engine.Move),
	}
}

func (a *Actor) Token() string { return a.token }

func (a *Actor) run() {
	for {
		select {
		case fn := <-a.cmds:
			fn()
		case <-a.done:
			// a.reminder is loop-owned; cancel it on the way out so no
			// other goroutine ever touches the field.
			if a.reminder != nil {
				a.reminder.Stop()
				a.reminder = nil
			}
			return
		}
	}
}

// Close stops the command loop, which cancels the timeout reminder as it
// exits. Pending commands are abandoned. Safe to call more than once.
func (a *Actor) Close() {
	a.closeOnce.Do(func() { close(a.done) })
}

// enqueue submits work to the loop without blocking a closed actor.
func (a *Actor) enqueue(fn func()) {
	select {
	case a.cmds <- fn:
	case <-a.done:
	}
}

// ask runs fn on the actor goroutine and waits for completion.
func (a *Actor) ask(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	wrapped := func() {
		defer close(ran)
		fn()
	}
	select {
	case a.cmds <- wrapped:
	case <-a.done:
		return gamedto.NewDomainError(gamedto.CodeGameNotFound, "session closed")
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		// The queued command still runs; only the wait is abandoned.
		return ctx.Err()
	case <-a.done:
		// The loop may have picked the command up just before closing.
		select {
		case <-ran:
			return nil
		default:
			return gamedto.NewDomainError(gamedto.CodeGameNotFound, "session closed")
		}
	}
}

// Start seeds the game: board, clocks, roster, legal-move cache, and the
// first timeout reminder. Valid only once; a second call is rejected.
func (a *Actor) Start(ctx context.Context, white, black Player, tc clock.TimeControl, source string) error {
	var err error
	if askErr := a.ask(ctx, func() { err = a.handleStart(ctx, white, black, tc, source) }); askErr != nil {
		return askErr
	}
	return err
}

// MovePiece applies a cached legal move for the side to move.
func (a *Actor) MovePiece(ctx context.Context, userID, moveKey string) (*gamedto.MoveMade, error) {
	var (
		ev  *gamedto.MoveMade
		err error
	)
	if askErr := a.ask(ctx, func() { ev, err = a.handleMove(ctx, userID, moveKey) }); askErr != nil {
		return nil, askErr
	}
	return ev, err
}

// RequestDraw records a draw offer, or finalizes a draw by agreement when the
// opponent already has one pending.
func (a *Actor) RequestDraw(ctx context.Context, userID string) error {
	var err error
	if askErr := a.ask(ctx, func() { err = a.handleRequestDraw(ctx, userID) }); askErr != nil {
		return askErr
	}
	return err
}

// DeclineDraw clears the opponent's pending offer and puts the requester's
// color on cooldown.
func (a *Actor) DeclineDraw(ctx context.Context, userID string) error {
	var err error
	if askErr := a.ask(ctx, func() { err = a.handleDeclineDraw(ctx, userID) }); askErr != nil {
		return askErr
	}
	return err
}

// RequestGameEnd aborts the game below the abort-move threshold, resigns it
// at or above.
func (a *Actor) RequestGameEnd(ctx context.Context, userID string) error {
	var err error
	if askErr := a.ask(ctx, func() { err = a.handleRequestGameEnd(ctx, userID) }); askErr != nil {
		return askErr
	}
	return err
}

// Snapshot returns a copy of the durable record plus a live clock reading.
// Valid at any lifecycle stage, including after termination.
func (a *Actor) Snapshot(ctx context.Context) (*GameRecord, error) {
	var rec *GameRecord
	if askErr := a.ask(ctx, func() { rec = a.snapshotRecord() }); askErr != nil {
		return nil, askErr
	}
	return rec, nil
}

// LegalMoveKeys returns the cached legal-move keys for a color and whether
// the set is restricted to forced moves.
func (a *Actor) LegalMoveKeys(ctx context.Context, color engine.Color) ([]string, bool, error) {
	var (
		keys   []string
		forced bool
	)
	if askErr := a.ask(ctx, func() {
		for _, mv := range a.legalOrder[color] {
			keys = append(keys, mv.Key())
		}
		forced = engine.HasForcedMoves(a.legalOrder[color])
	}); askErr != nil {
		return nil, false, askErr
	}
	return keys, forced, nil
}

// --- command handlers, run-loop only below this point ---

func (a *Actor) handleStart(ctx context.Context, white, black Player, tc clock.TimeControl, source string) error {
	if a.rec.Status != StatusInitializing {
		return gamedto.NewDomainError(gamedto.CodeAlreadyStarted, "game already started")
	}
	if white.UserID == "" || black.UserID == "" {
		return gamedto.NewDomainError(gamedto.CodeNotInGame, "both players required")
	}

	board := engine.NewStandardBoard()
	counters := engine.NewAutoDrawState()
	initialFEN := board.Fingerprint(engine.White)
	counters.RegisterInitialPosition(initialFEN)

	now := a.now()
	rec := &GameRecord{
		Token:       a.token,
		Source:      source,
		Status:      StatusInProgress,
		White:       white,
		Black:       black,
		TimeControl: tc,
		InitialFEN:  initialFEN,
		DrawState:   counters,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	clk := clock.NewWithNow(tc, a.now)
	rec.ClockWhiteMs = tc.Base.Milliseconds()
	rec.ClockBlackMs = tc.Base.Milliseconds()
	rec.ClockBasis = now

	if err := a.store.Save(ctx, rec); err != nil {
		return gamedto.DomainError{Code: gamedto.CodePersistence, Message: err.Error(), Retryable: true}
	}

	a.rec = rec
	a.board = board
	a.counters = counters
	a.clk = clk
	a.recomputeLegal()
	a.scheduleReminder(tc.Base)

	obslog.L().Info("game_start",
		zap.String("token", a.token),
		zap.String("white_id", white.UserID),
		zap.String("black_id", black.UserID),
		zap.Duration("base", tc.Base),
		zap.Duration("increment", tc.Increment),
		zap.String("source", source),
	)
	return nil
}

func (a *Actor) handleMove(ctx context.Context, userID, moveKey string) (*gamedto.MoveMade, error) {
	if err := a.requireInProgress(); err != nil {
		return nil, err
	}
	color, ok := a.rec.ColorOf(userID)
	if !ok {
		return nil, gamedto.NewDomainError(gamedto.CodeNotInGame, "user not in game")
	}
	if color != a.rec.SideToMove() {
		return nil, gamedto.NewDomainError(gamedto.CodeNotYourTurn, "not your turn")
	}
	mv, ok := a.legal[color][moveKey]
	if !ok {
		return nil, gamedto.NewDomainError(gamedto.CodeMoveInvalid, "move invalid")
	}

	// Snapshot for rollback: persistence failure must leave no mutation.
	undo := a.snapshotState()

	san := engine.EncodeSAN(a.board, mv, a.legalOrder[color])
	a.board.ApplyMove(mv)
	a.clk.TickMove(color)

	opponent := color.Opposite()
	resultingFen := a.board.Fingerprint(opponent)
	ended, endMethod := engine.TryEvaluateDraw(mv, resultingFen, a.board, a.counters)

	entry := gamedto.HistoryEntry{
		Encoded:    engine.EncodeMove(mv),
		SAN:        san,
		Color:      color.String(),
		TimeLeftMs: a.clk.TimeLeft(color, false).Milliseconds(),
	}
	a.rec.History = append(a.rec.History, entry)
	a.rec.UpdatedAt = a.now()
	a.syncClockSnapshot()

	// A move is an implicit decline of any outstanding draw request.
	impliedDecline := a.rec.Draw.ActiveRequester != nil
	a.rec.Draw.ActiveRequester = nil
	if a.rec.Draw.Cooldown[color] > 0 {
		a.rec.Draw.Cooldown[color]--
	}

	if ended {
		if err := a.terminate(ctx, gamedto.GameResult{Method: endMethod, EndedAt: a.now()}); err != nil {
			a.restoreState(undo)
			return nil, err
		}
		return nil, nil
	}

	a.recomputeLegal()
	if err := a.store.Save(ctx, a.rec); err != nil {
		a.restoreState(undo)
		return nil, gamedto.DomainError{Code: gamedto.CodePersistence, Message: err.Error(), Retryable: true}
	}

	white, black := a.clk.Snapshot(opponent)
	ev := &gamedto.MoveMade{
		Token:           a.token,
		Move:            entry,
		SideToMove:      opponent.String(),
		MoveNumber:      a.rec.MoveCount(),
		Clocks:          gamedto.ClockSnapshot{WhiteMs: white.Milliseconds(), BlackMs: black.Milliseconds()},
		NextMoverUserID: a.rec.PlayerByColor(opponent).UserID,
		HasForcedMoves:  engine.HasForcedMoves(a.legalOrder[opponent]),
	}
	for _, lm := range a.legalOrder[opponent] {
		ev.LegalMovesEncoded = append(ev.LegalMovesEncoded, engine.EncodeMove(lm))
	}

	a.notifyMoveMade(ctx, ev)
	if impliedDecline {
		a.notifyDrawState(ctx)
	}
	a.scheduleReminder(a.clk.TimeLeft(opponent, true))

	obslog.L().Info("game_move",
		zap.String("token", a.token),
		zap.String("user_id", userID),
		zap.String("san", san),
		zap.Int("move_number", a.rec.MoveCount()),
		zap.String("side_to_move", opponent.String()),
	)
	return ev, nil
}

func (a *Actor) handleRequestDraw(ctx context.Context, userID string) error {
	if err := a.requireInProgress(); err != nil {
		return err
	}
	color, ok := a.rec.ColorOf(userID)
	if !ok {
		return gamedto.NewDomainError(gamedto.CodeNotInGame, "user not in game")
	}

	if req := a.rec.Draw.ActiveRequester; req != nil {
		if *req == color {
			return nil // repeated request, not re-notified
		}
		// Opponent already offered: draw by agreement.
		return a.terminate(ctx, gamedto.GameResult{Method: gamedto.MethodDrawAgreement, EndedAt: a.now()})
	}
	if a.rec.Draw.Cooldown[color] > 0 {
		return gamedto.NewDomainError(gamedto.CodeDrawOnCooldown, "draw request on cooldown")
	}

	undo := a.snapshotState()
	c := color
	a.rec.Draw.ActiveRequester = &c
	a.rec.UpdatedAt = a.now()
	if err := a.store.Save(ctx, a.rec); err != nil {
		a.restoreState(undo)
		return gamedto.DomainError{Code: gamedto.CodePersistence, Message: err.Error(), Retryable: true}
	}
	a.notifyDrawState(ctx)
	obslog.L().Info("game_draw_request", zap.String("token", a.token), zap.String("by", color.String()))
	return nil
}

func (a *Actor) handleDeclineDraw(ctx context.Context, userID string) error {
	if err := a.requireInProgress(); err != nil {
		return err
	}
	color, ok := a.rec.ColorOf(userID)
	if !ok {
		return gamedto.NewDomainError(gamedto.CodeNotInGame, "user not in game")
	}
	req := a.rec.Draw.ActiveRequester
	if req == nil || *req == color {
		return nil // nothing from the opponent to decline
	}

	undo := a.snapshotState()
	requester := *req
	a.rec.Draw.ActiveRequester = nil
	a.rec.Draw.Cooldown[requester] = a.cfg.DrawCooldownMoves
	a.rec.UpdatedAt = a.now()
	if err := a.store.Save(ctx, a.rec); err != nil {
		a.restoreState(undo)
		return gamedto.DomainError{Code: gamedto.CodePersistence, Message: err.Error(), Retryable: true}
	}
	a.notifyDrawState(ctx)
	obslog.L().Info("game_draw_decline", zap.String("token", a.token), zap.String("by", color.String()))
	return nil
}

func (a *Actor) handleRequestGameEnd(ctx context.Context, userID string) error {
	if err := a.requireInProgress(); err != nil {
		return err
	}
	color, ok := a.rec.ColorOf(userID)
	if !ok {
		return gamedto.NewDomainError(gamedto.CodeNotInGame, "user not in game")
	}

	res := gamedto.GameResult{By: color.String(), EndedAt: a.now()}
	if a.rec.MoveCount() < a.cfg.AbortMoveThreshold {
		res.Method = gamedto.MethodAborted
	} else {
		res.Method = gamedto.MethodResignation
		res.Winner = color.Opposite().String()
	}
	return a.terminate(ctx, res)
}

// handleTimeoutCheck fires from the reminder timer, serialized with ordinary
// commands. No state change and no notification when time remains.
func (a *Actor) handleTimeoutCheck() {
	if a.rec.Status != StatusInProgress {
		return
	}
	side := a.rec.SideToMove()
	left := a.clk.TimeLeft(side, true)
	if left > 0 {
		a.scheduleReminder(left)
		return
	}
	res := gamedto.GameResult{
		Method:  gamedto.MethodTimeout,
		Winner:  side.Opposite().String(),
		By:      side.String(),
		EndedAt: a.now(),
	}
	if err := a.terminate(context.Background(), res); err != nil {
		obslog.L().Error("game_timeout_persist_error", zap.String("token", a.token), zap.Error(err))
		a.scheduleReminder(time.Second) // retry
	}
}

// terminate is the shared end path: freeze clock, set result, clear the
// legal-move cache, persist, then finalize and fan out.
func (a *Actor) terminate(ctx context.Context, res gamedto.GameResult) error {
	undo := a.snapshotState()

	a.clk.Commit(a.rec.SideToMove())
	a.clk.Freeze()
	a.syncClockSnapshot()
	a.rec.Result = &res
	a.rec.Status = StatusOver
	a.rec.Draw.ActiveRequester = nil
	a.rec.UpdatedAt = a.now()
	a.clearLegalCache()

	if err := a.store.Save(ctx, a.rec); err != nil {
		a.restoreState(undo)
		return gamedto.DomainError{Code: gamedto.CodePersistence, Message: err.Error(), Retryable: true}
	}

	if a.reminder != nil {
		a.reminder.Stop()
		a.reminder = nil
	}

	if a.finalizer != nil {
		if err := a.finalizer.CreateArchive(ctx, a.snapshotRecord()); err != nil {
			obslog.L().Error("game_archive_error", zap.String("token", a.token), zap.Error(err))
		}
		if err := a.finalizer.UpdateRatingForResult(ctx, a.snapshotRecord(), res); err != nil {
			obslog.L().Error("game_rating_error", zap.String("token", a.token), zap.Error(err))
		}
	}

	white, black := a.clk.Snapshot(a.rec.SideToMove())
	ev := &gamedto.GameEnded{
		Token:       a.token,
		Result:      res,
		FinalClocks: gamedto.ClockSnapshot{WhiteMs: white.Milliseconds(), BlackMs: black.Milliseconds()},
		Revision:    a.nextRevision(),
	}
	if a.notifier != nil {
		if err := a.notifier.NotifyGameEnded(ctx, ev); err != nil {
			obslog.L().Warn("notify_game_ended_error", zap.String("token", a.token), zap.Error(err))
		}
	}

	obslog.L().Info("game_end",
		zap.String("token", a.token),
		zap.String("method", res.Method),
		zap.String("winner", res.Winner),
		zap.String("by", res.By),
	)
	return nil
}

// --- helpers, run-loop only ---

func (a *Actor) requireInProgress() error {
	switch a.rec.Status {
	case StatusInProgress:
		return nil
	case StatusOver:
		return gamedto.NewDomainError(gamedto.CodeGameAlreadyOver, "game already over")
	default:
		return gamedto.NewDomainError(gamedto.CodeGameNotStarted, "game not started")
	}
}

func (a *Actor) recomputeLegal() {
	byColor := a.calc.LegalMovesByColor(a.board)
	for _, color := range []engine.Color{engine.White, engine.Black} {
		keyed := make(map[string]*engine.Move, len(byColor[color]))
		for _, mv := range byColor[color] {
			if _, dup := keyed[mv.Key()]; dup {
				continue // calculator already logged the collision
			}
			keyed[mv.Key()] = mv
		}
		a.legal[color] = keyed
		a.legalOrder[color] = byColor[color]
	}
}

func (a *Actor) clearLegalCache() {
	for _, color := range []engine.Color{engine.White, engine.Black} {
		a.legal[color] = map[string]*engine.Move{}
		a.legalOrder[color] = nil
	}
}

func (a *Actor) syncClockSnapshot() {
	side := a.rec.SideToMove()
	white, black := a.clk.Snapshot(side)
	a.rec.ClockWhiteMs = white.Milliseconds()
	a.rec.ClockBlackMs = black.Milliseconds()
	a.rec.ClockBasis = a.now()
}

type actorSnapshot struct {
	rec      GameRecord
	history  []gamedto.HistoryEntry
	board    *engine.Board
	clk      *clock.Clock
	counters engine.AutoDrawState
	fens     map[string]int
}

func (a *Actor) snapshotState() actorSnapshot {
	snap := actorSnapshot{
		rec:     *a.rec,
		history: append([]gamedto.HistoryEntry{}, a.rec.History...),
	}
	if a.board != nil {
		snap.board = a.board.Clone()
	}
	if a.clk != nil {
		snap.clk = a.clk.Clone()
	}
	if a.counters != nil {
		snap.counters = *a.counters
		snap.fens = make(map[string]int, len(a.counters.FenOccurrences))
		for k, v := range a.counters.FenOccurrences {
			snap.fens[k] = v
		}
	}
	return snap
}

func (a *Actor) restoreState(snap actorSnapshot) {
	rec := snap.rec
	rec.History = snap.history
	a.rec = &rec
	a.board = snap.board
	a.clk = snap.clk
	if snap.fens != nil {
		counters := snap.counters
		counters.FenOccurrences = snap.fens
		a.counters = &counters
		a.rec.DrawState = a.counters
	}
	if a.board != nil {
		a.recomputeLegal()
	}
}

func (a *Actor) snapshotRecord() *GameRecord {
	rec := *a.rec
	rec.History = append([]gamedto.HistoryEntry{}, a.rec.History...)
	if a.clk != nil && a.rec.Status == StatusInProgress {
		white, black := a.clk.Snapshot(a.rec.SideToMove())
		rec.ClockWhiteMs = white.Milliseconds()
		rec.ClockBlackMs = black.Milliseconds()
	}
	return &rec
}

// scheduleReminder is explicit cancel-then-reschedule: remaining time changes
// after every move, so a stale reminder must never fire unhandled.
func (a *Actor) scheduleReminder(d time.Duration) {
	if a.reminder != nil {
		a.reminder.Stop()
	}
	if d < 0 {
		d = 0
	}
	a.reminder = time.AfterFunc(d+10*time.Millisecond, func() {
		a.enqueue(a.handleTimeoutCheck)
	})
}

func (a *Actor) nextRevision() string {
	a.revision++
	return fmt.Sprintf("%s:%d", a.token, a.revision)
}

func (a *Actor) notifyMoveMade(ctx context.Context, ev *gamedto.MoveMade) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.NotifyMoveMade(ctx, ev); err != nil {
		obslog.L().Warn("notify_move_error", zap.String("token", a.token), zap.Error(err))
	}
}

func (a *Actor) notifyDrawState(ctx context.Context) {
	if a.notifier == nil {
		return
	}
	ev := &gamedto.DrawStateChange{
		Token:    a.token,
		Draw:     a.rec.drawDTO(),
		Revision: a.nextRevision(),
	}
	if err := a.notifier.NotifyDrawStateChange(ctx, ev); err != nil {
		obslog.L().Warn("notify_draw_error", zap.String("token", a.token), zap.Error(err))
	}
}
