package service

import (
	"context"
	"fmt"
	"sort"
	"time"
	_ "time/tzdata"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/scout/internal/apperr"
	"github.com/fortuna/scout/internal/ingest/mlb"
	"github.com/fortuna/scout/internal/store"
)

const (
	// MaxSampledGames bounds how many game feeds a pitch-location request reads.
	MaxSampledGames = 12
	// MinVsAtBats is the smallest sample an opponent split must have to be listed.
	MinVsAtBats = 3

	scheduleZone = "America/New_York"
)

// GameService handles schedule and matchup lookups
type GameService struct {
	api     StatsAPI
	players *PlayerService
	log     logrus.FieldLogger
	now     func() time.Time
	loc     *time.Location
}

// NewGameService creates a new game service
func NewGameService(d Deps, players *PlayerService) *GameService {
	d = d.withDefaults()
	log := d.Log.WithField("component", "game-service")
	return &GameService{
		api:     d.API,
		players: players,
		log:     log,
		now:     time.Now,
		loc:     scheduleLocation(time.LoadLocation, log),
	}
}

// scheduleLocation resolves the zone that decides which date "today" is.
func scheduleLocation(load func(string) (*time.Location, error), log logrus.FieldLogger) *time.Location {
	loc, err := load(scheduleZone)
	if err != nil {
		log.WithError(err).Warn("Schedule time zone unavailable, using UTC")
		return time.UTC
	}
	return loc
}

// TodayGames lists the schedule for date (YYYY-MM-DD), defaulting to today on the US East Coast.
func (s *GameService) TodayGames(ctx context.Context, date string) ([]mlb.ScheduledGame, error) {
	if date == "" {
		date = s.now().In(s.loc).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, apperr.Validation("invalid date %q, want YYYY-MM-DD", date)
	}

	games, err := s.api.Schedule(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("fetching schedule: %w", err)
	}
	if games == nil {
		games = []mlb.ScheduledGame{}
	}
	return games, nil
}

// PitchLocations is the pitch-location payload for one pitcher and season.
type PitchLocations struct {
	Pitches      []mlb.PitchLocation `json:"pitches"`
	TotalPitches int                 `json:"total_pitches"`
	GamesSampled int                 `json:"games_sampled"`
}

// PitchLocations samples up to 12 of the pitcher's team's regular-season games
// and collects every tracked pitch the pitcher threw in them. A pitcher with no current
// team yields an empty set; a game whose feed fails is skipped.
func (s *GameService) PitchLocations(ctx context.Context, pitcherID, season int) (*PitchLocations, error) {
	out := &PitchLocations{Pitches: []mlb.PitchLocation{}}

	p, err := s.players.GetOrFetchProfile(ctx, pitcherID)
	if err != nil {
		return nil, err
	}
	if p.TeamID == 0 {
		return out, nil
	}

	pks, err := s.api.TeamGamePks(ctx, p.TeamID, season)
	if err != nil {
		return nil, fmt.Errorf("fetching team schedule: %w", err)
	}
	pks = mlb.SampleGames(pks, MaxSampledGames)
	out.GamesSampled = len(pks)

	for _, pk := range pks {
		pitches, err := s.api.GamePitches(ctx, pk, pitcherID)
		if err != nil {
			s.log.WithError(err).WithField("game_pk", pk).Warn("Skipping game feed")
			continue
		}
		out.Pitches = append(out.Pitches, pitches...)
	}
	out.TotalPitches = len(out.Pitches)
	return out, nil
}

// OpponentSplit is one batter's career line against a pitcher.
type OpponentSplit struct {
	PlayerID        int    `json:"player_id"`
	FullName        string `json:"full_name"`
	Position        string `json:"position"`
	AtBats          int    `json:"at_bats"`
	Hits            int    `json:"hits"`
	HomeRuns        int    `json:"home_runs"`
	Walks           int    `json:"walks"`
	StrikeOuts      int    `json:"strike_outs"`
	Avg             string `json:"avg"`
	OBP             string `json:"obp"`
	SLG             string `json:"slg"`
	OPS             string `json:"ops"`
	NumberOfPitches int    `json:"number_of_pitches"`
}

// OpponentSplits lists each non-pitcher on teamID's active roster with at
// least 3 career at-bats against pitcherID, most at-bats first.
func (s *GameService) OpponentSplits(ctx context.Context, pitcherID, teamID int) Result[OpponentSplit] {
	log := s.log.WithFields(logrus.Fields{"pitcher_id": pitcherID, "team_id": teamID})

	roster, err := s.api.Roster(ctx, teamID)
	if err != nil {
		log.WithError(err).Warn("Roster lookup failed")
		return failedResult[OpponentSplit](nil, err)
	}

	var lastErr error
	out := []OpponentSplit{}
	for _, r := range roster {
		if store.CategoryForPosition(r.Position) == store.Pitching {
			continue
		}
		vs, err := s.api.VsPlayer(ctx, pitcherID, r.PlayerID)
		if err != nil {
			log.WithError(err).WithField("batter_id", r.PlayerID).Warn("Skipping batter split")
			lastErr = err
			continue
		}
		if vs == nil || vs.AtBats < MinVsAtBats {
			continue
		}
		out = append(out, OpponentSplit{
			PlayerID:        r.PlayerID,
			FullName:        r.FullName,
			Position:        r.Position,
			AtBats:          vs.AtBats,
			Hits:            vs.Hits,
			HomeRuns:        vs.HomeRuns,
			Walks:           vs.Walks,
			StrikeOuts:      vs.StrikeOuts,
			Avg:             vs.Avg,
			OBP:             vs.OBP,
			SLG:             vs.SLG,
			OPS:             vs.OPS,
			NumberOfPitches: vs.NumberOfPitches,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].AtBats > out[j].AtBats })
	return partialResult(out, lastErr)
}
