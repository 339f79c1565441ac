package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/scout/internal/store"
)

const playerColumns = `
	player_id, full_name, first_name, last_name, position, team_name, team_id,
	bats, throws, birth_date, birth_city, birth_country, height, weight,
	debut_date, active, created_at, updated_at`

// PlayerRepository handles player profile data access
type PlayerRepository struct {
	db *store.Database
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *store.Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// GetByID finds a cached player profile by upstream id
func (r *PlayerRepository) GetByID(ctx context.Context, playerID int) (*store.PlayerProfile, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE player_id = $1`

	p, err := scanPlayer(r.db.DB().QueryRowContext(ctx, query, playerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %d: %w", playerID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying player: %w", err)
	}
	return p, nil
}

// SearchByName does a case-insensitive partial match over cached profiles
func (r *PlayerRepository) SearchByName(ctx context.Context, name string, limit int) ([]*store.PlayerProfile, error) {
	query := `SELECT ` + playerColumns + `
		FROM players
		WHERE full_name ILIKE $1
		ORDER BY active DESC, full_name
		LIMIT $2`

	rows, err := r.db.DB().QueryContext(ctx, query, "%"+name+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("querying players: %w", err)
	}
	defer rows.Close()

	players := []*store.PlayerProfile{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// Upsert inserts or overwrites a player profile keyed on player_id
func (r *PlayerRepository) Upsert(ctx context.Context, p *store.PlayerProfile) error {
	query := `
		INSERT INTO players (player_id, full_name, first_name, last_name, position, team_name, team_id,
			bats, throws, birth_date, birth_city, birth_country, height, weight, debut_date, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (player_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			position = EXCLUDED.position,
			team_name = EXCLUDED.team_name,
			team_id = EXCLUDED.team_id,
			bats = EXCLUDED.bats,
			throws = EXCLUDED.throws,
			birth_date = EXCLUDED.birth_date,
			birth_city = EXCLUDED.birth_city,
			birth_country = EXCLUDED.birth_country,
			height = EXCLUDED.height,
			weight = EXCLUDED.weight,
			debut_date = EXCLUDED.debut_date,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		p.PlayerID, p.FullName, p.FirstName, p.LastName, p.Position, p.TeamName, p.TeamID,
		p.Bats, p.Throws, p.BirthDate, p.BirthCity, p.BirthCountry, p.Height, p.Weight,
		p.DebutDate, p.Active,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting player: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayer(row rowScanner) (*store.PlayerProfile, error) {
	p := &store.PlayerProfile{}
	err := row.Scan(
		&p.PlayerID, &p.FullName, &p.FirstName, &p.LastName, &p.Position, &p.TeamName, &p.TeamID,
		&p.Bats, &p.Throws, &p.BirthDate, &p.BirthCity, &p.BirthCountry, &p.Height, &p.Weight,
		&p.DebutDate, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
