package service

import (
	"context"
	"errors"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/scout/internal/ingest/mlb"
	"github.com/fortuna/scout/internal/publisher"
	"github.com/fortuna/scout/internal/store"
)

// GetSeasonStats returns one line per requested season, in request order.
// Cached rows are served as-is; misses are filled from the upstream
// year-by-year history, fetched at most once per call. Seasons with no
// upstream row, or whose fetch or write fails, are left out.
func (s *PlayerService) GetSeasonStats(ctx context.Context, playerID int, seasons []int, category store.Category) Result[store.SeasonStatLine] {
	return s.seasonStats(ctx, playerID, seasons, category, false)
}

// RefreshSeasonStats is GetSeasonStats without the cache read.
func (s *PlayerService) RefreshSeasonStats(ctx context.Context, playerID int, seasons []int, category store.Category) Result[store.SeasonStatLine] {
	return s.seasonStats(ctx, playerID, seasons, category, true)
}

func (s *PlayerService) seasonStats(ctx context.Context, playerID int, seasons []int, category store.Category, refresh bool) Result[store.SeasonStatLine] {
	log := s.log.WithFields(logrus.Fields{"player_id": playerID, "category": category})

	var (
		history    []mlb.StatSplit
		historyErr error
		fetched    bool
		lastErr    error
	)
	loadHistory := func() ([]mlb.StatSplit, error) {
		if !fetched {
			history, historyErr = s.api.PlayerStats(ctx, playerID, mlb.StatYearByYear, category)
			fetched = true
		}
		return history, historyErr
	}

	out := make([]store.SeasonStatLine, 0, len(seasons))
	for _, season := range seasons {
		if !refresh {
			cached, err := s.seasons.Get(ctx, playerID, season, category)
			if err == nil {
				s.metrics.RecordCacheLookup("season", true)
				out = append(out, *cached)
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				log.WithError(err).WithField("season", season).Warn("Reading cached season failed")
			}
			s.metrics.RecordCacheLookup("season", false)
		}

		splits, err := loadHistory()
		if err != nil {
			log.WithError(err).WithField("season", season).Warn("Season stats unavailable")
			lastErr = err
			continue
		}

		split, ok := firstSplitFor(splits, season)
		if !ok {
			log.WithField("season", season).Debug("No upstream row for season")
			continue
		}

		line := store.SeasonStatLine{
			PlayerID: playerID,
			Season:   season,
			Team:     split.Team,
			Category: category,
			Stats:    split.Stats,
		}
		if err := s.seasons.Upsert(ctx, &line); err != nil {
			log.WithError(err).WithField("season", season).Warn("Caching season stats failed")
			lastErr = err
			continue
		}

		s.pub.Publish(ctx, publisher.EventSeasonCached, map[string]interface{}{
			"player_id": playerID,
			"season":    season,
			"category":  category,
			"team":      line.Team,
		})
		out = append(out, line)
	}

	return partialResult(out, lastErr)
}

// firstSplitFor picks the first row for season. A traded player's history
// lists one row per team; the first one wins.
func firstSplitFor(splits []mlb.StatSplit, season int) (mlb.StatSplit, bool) {
	for _, sp := range splits {
		if sp.Season == season {
			return sp, true
		}
	}
	return mlb.StatSplit{}, false
}

// GetCareerStats returns the full year-by-year history sorted by season.
// It always asks upstream and never touches the season cache.
func (s *PlayerService) GetCareerStats(ctx context.Context, playerID int, category store.Category) Result[store.SeasonStatLine] {
	splits, err := s.api.PlayerStats(ctx, playerID, mlb.StatYearByYear, category)
	if err != nil {
		s.log.WithError(err).WithField("player_id", playerID).Warn("Career stats failed")
		return failedResult[store.SeasonStatLine](nil, err)
	}

	out := make([]store.SeasonStatLine, 0, len(splits))
	for _, sp := range splits {
		out = append(out, store.SeasonStatLine{
			PlayerID: playerID,
			Season:   sp.Season,
			Team:     sp.Team,
			Category: category,
			Stats:    sp.Stats,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Season < out[j].Season })
	return okResult(out)
}

// GetGameLog returns one season's game-by-game rows. Nothing is cached.
func (s *PlayerService) GetGameLog(ctx context.Context, playerID, season int, category store.Category) Result[mlb.StatSplit] {
	rows, err := s.api.GameLog(ctx, playerID, season, category)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"player_id": playerID, "season": season}).Warn("Game log failed")
		return failedResult[mlb.StatSplit](nil, err)
	}
	return okResult(rows)
}

// CachedSeasons lists every season line already stored for a player.
func (s *PlayerService) CachedSeasons(ctx context.Context, playerID int, category store.Category) ([]store.SeasonStatLine, error) {
	lines, err := s.seasons.ListByPlayer(ctx, playerID, category)
	if err != nil {
		return nil, err
	}
	out := make([]store.SeasonStatLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, *l)
	}
	return out, nil
}
