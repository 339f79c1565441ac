package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/scout/internal/store"
)

// SeasonRepository handles per-season stat line data access
type SeasonRepository struct {
	db *store.Database
}

// NewSeasonRepository creates a new season stats repository
func NewSeasonRepository(db *store.Database) *SeasonRepository {
	return &SeasonRepository{db: db}
}

// Get returns the cached line for (player, season, category). Traded players
// can have several team rows; the first by team name wins.
func (r *SeasonRepository) Get(ctx context.Context, playerID, season int, category store.Category) (*store.SeasonStatLine, error) {
	query := `
		SELECT player_id, season, team, category, stats, fetched_at
		FROM player_seasons
		WHERE player_id = $1 AND season = $2 AND category = $3
		ORDER BY team
		LIMIT 1
	`

	line := &store.SeasonStatLine{}
	err := r.db.DB().QueryRowContext(ctx, query, playerID, season, string(category)).Scan(
		&line.PlayerID, &line.Season, &line.Team, &line.Category, &line.Stats, &line.FetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("season %d %s for player %d: %w", season, category, playerID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying season stats: %w", err)
	}
	return line, nil
}

// ListByPlayer returns every cached line for a player and category, oldest season first
func (r *SeasonRepository) ListByPlayer(ctx context.Context, playerID int, category store.Category) ([]*store.SeasonStatLine, error) {
	query := `
		SELECT player_id, season, team, category, stats, fetched_at
		FROM player_seasons
		WHERE player_id = $1 AND category = $2
		ORDER BY season ASC, team ASC
	`

	rows, err := r.db.DB().QueryContext(ctx, query, playerID, string(category))
	if err != nil {
		return nil, fmt.Errorf("querying season stats: %w", err)
	}
	defer rows.Close()

	lines := []*store.SeasonStatLine{}
	for rows.Next() {
		line := &store.SeasonStatLine{}
		if err := rows.Scan(&line.PlayerID, &line.Season, &line.Team, &line.Category, &line.Stats, &line.FetchedAt); err != nil {
			return nil, fmt.Errorf("scanning season stats: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Upsert inserts or fully overwrites the line keyed on (player, season, team, category)
func (r *SeasonRepository) Upsert(ctx context.Context, line *store.SeasonStatLine) error {
	query := `
		INSERT INTO player_seasons (player_id, season, team, category, stats, fetched_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (player_id, season, team, category) DO UPDATE SET
			stats = EXCLUDED.stats,
			fetched_at = NOW()
		RETURNING fetched_at
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		line.PlayerID, line.Season, line.Team, string(line.Category), line.Stats,
	).Scan(&line.FetchedAt)
	if err != nil {
		return fmt.Errorf("upserting season stats: %w", err)
	}
	return nil
}
