// Package rating is the Postgres finalizer: it archives terminated games and
// applies the rating update for rated results. Aborted games are archived but
// never rated.
package rating

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/holychess/anarchess/internal/obslog"
	"github.com/holychess/anarchess/internal/session"
	"github.com/holychess/anarchess/pkg/gamedto"
)

const (
	defaultRating = 1200
	kFactor       = 32
)

type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CreateArchive upserts the finished game's archive row, including the
// rendered game text.
func (r *Repository) CreateArchive(ctx context.Context, rec *session.GameRecord) error {
	if r == nil || r.db == nil || rec == nil || rec.Result == nil {
		return nil
	}
	res := *rec.Result
	gameText := buildGameText(rec, res)
	duration := rec.UpdatedAt.Sub(rec.CreatedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	const q = `INSERT INTO games (
			token, white_id, white_name, black_id, black_name,
			source, time_control, result, result_method, result_by,
			move_count, game_text, started_at, ended_at, duration_ms
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
		) ON CONFLICT (token) DO UPDATE SET
			result=EXCLUDED.result,
			result_method=EXCLUDED.result_method,
			result_by=EXCLUDED.result_by,
			move_count=EXCLUDED.move_count,
			game_text=EXCLUDED.game_text,
			ended_at=EXCLUDED.ended_at,
			duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		rec.Token,
		rec.White.UserID, rec.White.Name,
		rec.Black.UserID, rec.Black.Name,
		rec.Source, formatTimeControl(rec), res.Winner, res.Method, res.By,
		rec.MoveCount(), gameText, rec.CreatedAt, res.EndedAt, duration,
	)
	if err != nil {
		return fmt.Errorf("archive game: %w", err)
	}
	return nil
}

// UpdateRatingForResult applies a standard Elo exchange inside one
// transaction. Aborts carry no rating consequence.
func (r *Repository) UpdateRatingForResult(ctx context.Context, rec *session.GameRecord, result gamedto.GameResult) error {
	if r == nil || r.db == nil || rec == nil {
		return nil
	}
	if result.Method == gamedto.MethodAborted {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rating tx: %w", err)
	}
	defer tx.Rollback()

	class := timeControlClass(rec.TimeControl.Base)
	whiteRating, err := ratingFor(ctx, tx, rec.White.UserID, class)
	if err != nil {
		return err
	}
	blackRating, err := ratingFor(ctx, tx, rec.Black.UserID, class)
	if err != nil {
		return err
	}

	whiteScore := scoreFor(result.Winner, "white")
	newWhite := applyElo(whiteRating, blackRating, whiteScore)
	newBlack := applyElo(blackRating, whiteRating, 1-whiteScore)

	if err := saveRating(ctx, tx, rec.White.UserID, rec.White.Name, class, newWhite, whiteScore); err != nil {
		return err
	}
	if err := saveRating(ctx, tx, rec.Black.UserID, rec.Black.Name, class, newBlack, 1-whiteScore); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rating tx: %w", err)
	}

	obslog.L().Info("rating_update",
		zap.String("token", rec.Token),
		zap.String("class", class),
		zap.Int("white_rating", newWhite),
		zap.Int("black_rating", newBlack),
	)
	return nil
}

func ratingFor(ctx context.Context, tx *sql.Tx, userID, class string) (int, error) {
	var rating int
	err := tx.QueryRowContext(ctx,
		`SELECT rating FROM player_ratings WHERE user_id = $1 AND class = $2 FOR UPDATE`,
		userID, class,
	).Scan(&rating)
	if err == sql.ErrNoRows {
		return defaultRating, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select rating: %w", err)
	}
	return rating, nil
}

func saveRating(ctx context.Context, tx *sql.Tx, userID, name, class string, rating int, score float64) error {
	wins, losses, draws := 0, 0, 0
	switch score {
	case 1:
		wins = 1
	case 0:
		losses = 1
	default:
		draws = 1
	}
	const q = `INSERT INTO player_ratings (
			user_id, name, class, rating, games_played, wins, losses, draws, updated_at, created_at
		) VALUES ($1, $2, $3, $4, 1, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (user_id, class)
		DO UPDATE SET
			name = EXCLUDED.name,
			rating = EXCLUDED.rating,
			games_played = player_ratings.games_played + 1,
			wins = player_ratings.wins + EXCLUDED.wins,
			losses = player_ratings.losses + EXCLUDED.losses,
			draws = player_ratings.draws + EXCLUDED.draws,
			updated_at = NOW()`
	if _, err := tx.ExecContext(ctx, q, userID, name, class, rating, wins, losses, draws); err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

func scoreFor(winner, color string) float64 {
	switch winner {
	case color:
		return 1
	case "":
		return 0.5
	default:
		return 0
	}
}

func applyElo(own, opponent int, score float64) int {
	expected := 1 / (1 + math.Pow(10, float64(opponent-own)/400))
	return own + int(math.Round(kFactor*(score-expected)))
}

// timeControlClass buckets a base time the way rating pools are split.
func timeControlClass(base time.Duration) string {
	switch {
	case base < 3*time.Minute:
		return "bullet"
	case base < 10*time.Minute:
		return "blitz"
	case base < 30*time.Minute:
		return "rapid"
	default:
		return "classical"
	}
}
