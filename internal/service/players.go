package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/scout/internal/apperr"
	"github.com/fortuna/scout/internal/ingest/mlb"
	"github.com/fortuna/scout/internal/metrics"
	"github.com/fortuna/scout/internal/publisher"
	"github.com/fortuna/scout/internal/store"
)

// SearchLimit caps search results.
const SearchLimit = 25

// PlayerService handles player profile and stats lookups over the cache and upstream API
type PlayerService struct {
	players PlayerStore
	seasons SeasonStore
	api     StatsAPI
	pub     publisher.Publisher
	metrics *metrics.Manager
	log     logrus.FieldLogger
}

// NewPlayerService creates a new player service
func NewPlayerService(d Deps) *PlayerService {
	d = d.withDefaults()
	return &PlayerService{
		players: d.Players,
		seasons: d.Seasons,
		api:     d.API,
		pub:     d.Publisher,
		metrics: d.Metrics,
		log:     d.Log.WithField("component", "player-service"),
	}
}

// SearchPlayers returns up to 25 upstream matches for a name fragment. When
// the upstream search fails the result is marked failed and carries whatever
// the local cache matches instead.
func (s *PlayerService) SearchPlayers(ctx context.Context, query string) (Result[mlb.PersonSummary], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result[mlb.PersonSummary]{}, apperr.Validation("search query must not be empty")
	}

	people, err := s.api.SearchPeople(ctx, query)
	if err != nil {
		s.log.WithError(err).WithField("query", query).Warn("Upstream search failed, falling back to cache")
		return failedResult(s.searchCache(ctx, query), err), nil
	}

	if len(people) > SearchLimit {
		people = people[:SearchLimit]
	}
	return okResult(people), nil
}

func (s *PlayerService) searchCache(ctx context.Context, query string) []mlb.PersonSummary {
	cached, err := s.players.SearchByName(ctx, query, SearchLimit)
	if err != nil {
		s.log.WithError(err).Warn("Cached search failed")
		return nil
	}
	out := make([]mlb.PersonSummary, 0, len(cached))
	for _, p := range cached {
		out = append(out, mlb.PersonSummary{
			PlayerID: p.PlayerID,
			FullName: p.FullName,
			Position: p.Position,
			Team:     p.TeamName,
			Active:   p.Active,
		})
	}
	return out
}

// GetOrFetchProfile returns the cached profile, fetching and caching it on a miss.
func (s *PlayerService) GetOrFetchProfile(ctx context.Context, playerID int) (*store.PlayerProfile, error) {
	if playerID <= 0 {
		return nil, apperr.Validation("invalid player id %d", playerID)
	}

	p, err := s.players.GetByID(ctx, playerID)
	if err == nil {
		s.metrics.RecordCacheLookup("player", true)
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("reading cached player: %w", err)
	}
	s.metrics.RecordCacheLookup("player", false)

	return s.fetchProfile(ctx, playerID)
}

// RefreshProfile re-fetches a profile upstream and overwrites the cached row.
func (s *PlayerService) RefreshProfile(ctx context.Context, playerID int) (*store.PlayerProfile, error) {
	if playerID <= 0 {
		return nil, apperr.Validation("invalid player id %d", playerID)
	}
	return s.fetchProfile(ctx, playerID)
}

func (s *PlayerService) fetchProfile(ctx context.Context, playerID int) (*store.PlayerProfile, error) {
	p, err := s.api.Person(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("fetching player: %w", err)
	}
	if err := s.players.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("caching player: %w", err)
	}

	s.log.WithFields(logrus.Fields{"player_id": p.PlayerID, "name": p.FullName}).Info("Cached player profile")
	s.pub.Publish(ctx, publisher.EventProfileCached, map[string]interface{}{
		"player_id": p.PlayerID,
		"full_name": p.FullName,
	})
	return p, nil
}

// PlayerComparison is one player's column in a side-by-side comparison.
type PlayerComparison struct {
	Profile  *store.PlayerProfile `json:"profile"`
	Category store.Category       `json:"category"`
	Season   int                  `json:"season"`
	Team     string               `json:"team,omitempty"`
	Stats    store.StatMap        `json:"stats"`
}

// ComparePlayers lines up 2 or 3 players for one season, each in the category
// their position implies. A player that cannot be loaded is left out.
func (s *PlayerService) ComparePlayers(ctx context.Context, playerIDs []int, season int) ([]PlayerComparison, error) {
	if len(playerIDs) < 2 || len(playerIDs) > 3 {
		return nil, apperr.Validation("compare needs 2 or 3 players, got %d", len(playerIDs))
	}

	out := make([]PlayerComparison, 0, len(playerIDs))
	for _, id := range playerIDs {
		p, err := s.GetOrFetchProfile(ctx, id)
		if err != nil {
			s.log.WithError(err).WithField("player_id", id).Warn("Skipping player in comparison")
			continue
		}

		category := store.CategoryForPosition(p.Position)
		cmp := PlayerComparison{Profile: p, Category: category, Season: season, Stats: store.StatMap{}}

		lines := s.GetSeasonStats(ctx, id, []int{season}, category)
		if len(lines.Items) > 0 {
			cmp.Team = lines.Items[0].Team
			cmp.Stats = lines.Items[0].Stats
		}
		out = append(out, cmp)
	}
	return out, nil
}
