package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/scout/internal/store"
)

// ReportRepository handles scouting report data access
type ReportRepository struct {
	db *store.Database
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *store.Database) *ReportRepository {
	return &ReportRepository{db: db}
}

// Get returns the cached report for a player and season
func (r *ReportRepository) Get(ctx context.Context, playerID, season int) (*store.NarrativeReport, error) {
	query := `
		SELECT player_id, season, report, generated_at
		FROM scouting_reports
		WHERE player_id = $1 AND season = $2
	`

	rep := &store.NarrativeReport{}
	err := r.db.DB().QueryRowContext(ctx, query, playerID, season).Scan(
		&rep.PlayerID, &rep.Season, &rep.Report, &rep.GeneratedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report for player %d season %d: %w", playerID, season, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying report: %w", err)
	}
	return rep, nil
}

// Upsert inserts or overwrites the report for (player, season)
func (r *ReportRepository) Upsert(ctx context.Context, rep *store.NarrativeReport) error {
	query := `
		INSERT INTO scouting_reports (player_id, season, report, generated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (player_id, season) DO UPDATE SET
			report = EXCLUDED.report,
			generated_at = NOW()
		RETURNING generated_at
	`

	err := r.db.DB().QueryRowContext(ctx, query, rep.PlayerID, rep.Season, rep.Report).Scan(&rep.GeneratedAt)
	if err != nil {
		return fmt.Errorf("upserting report: %w", err)
	}
	return nil
}
