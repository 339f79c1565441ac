package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/scout/internal/ingest/mlb"
	"github.com/fortuna/scout/internal/logger"
	"github.com/fortuna/scout/internal/metrics"
	"github.com/fortuna/scout/internal/narrative"
	"github.com/fortuna/scout/internal/publisher"
	"github.com/fortuna/scout/internal/store"
	"github.com/fortuna/scout/internal/store/repository"
)

// PlayerStore is the profile cache.
type PlayerStore interface {
	GetByID(ctx context.Context, playerID int) (*store.PlayerProfile, error)
	Upsert(ctx context.Context, p *store.PlayerProfile) error
	SearchByName(ctx context.Context, name string, limit int) ([]*store.PlayerProfile, error)
}

// SeasonStore is the per-season stat line cache.
type SeasonStore interface {
	Get(ctx context.Context, playerID, season int, category store.Category) (*store.SeasonStatLine, error)
	Upsert(ctx context.Context, line *store.SeasonStatLine) error
	ListByPlayer(ctx context.Context, playerID int, category store.Category) ([]*store.SeasonStatLine, error)
}

// ReportStore is the scouting report cache.
type ReportStore interface {
	Get(ctx context.Context, playerID, season int) (*store.NarrativeReport, error)
	Upsert(ctx context.Context, rep *store.NarrativeReport) error
}

// StatsAPI is the subset of the MLB stats client the services call.
type StatsAPI interface {
	SearchPeople(ctx context.Context, name string) ([]mlb.PersonSummary, error)
	Person(ctx context.Context, id int) (*store.PlayerProfile, error)
	PlayerStats(ctx context.Context, id int, statType mlb.StatType, category store.Category) ([]mlb.StatSplit, error)
	GameLog(ctx context.Context, id, season int, category store.Category) ([]mlb.StatSplit, error)
	Schedule(ctx context.Context, date string) ([]mlb.ScheduledGame, error)
	TeamGamePks(ctx context.Context, teamID, season int) ([]int, error)
	GamePitches(ctx context.Context, gamePk, pitcherID int) ([]mlb.PitchLocation, error)
	Roster(ctx context.Context, teamID int) ([]mlb.RosterEntry, error)
	VsPlayer(ctx context.Context, pitcherID, batterID int) (*mlb.VsSplit, error)
}

// Deps carries every collaborator a service may need. Zero-valued Log,
// Publisher and Metrics are replaced with no-op versions.
type Deps struct {
	Players   PlayerStore
	Seasons   SeasonStore
	Reports   ReportStore
	API       StatsAPI
	Generator narrative.Generator
	Publisher publisher.Publisher
	Metrics   *metrics.Manager
	Log       logrus.FieldLogger
}

// NewDeps wires the PostgreSQL repositories behind db.
func NewDeps(db *store.Database, api StatsAPI, gen narrative.Generator, pub publisher.Publisher, m *metrics.Manager, log logrus.FieldLogger) Deps {
	return Deps{
		Players:   repository.NewPlayerRepository(db),
		Seasons:   repository.NewSeasonRepository(db),
		Reports:   repository.NewReportRepository(db),
		API:       api,
		Generator: gen,
		Publisher: pub,
		Metrics:   m,
		Log:       log,
	}
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	if d.Publisher == nil {
		d.Publisher = publisher.Nop{}
	}
	return d
}
