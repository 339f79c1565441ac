package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/scout/internal/apperr"
	"github.com/fortuna/scout/internal/metrics"
	"github.com/fortuna/scout/internal/narrative"
	"github.com/fortuna/scout/internal/publisher"
	"github.com/fortuna/scout/internal/store"
)

// DefaultReportMaxTokens bounds generated report length.
const DefaultReportMaxTokens = 1500

// ReportService produces and caches scouting reports
type ReportService struct {
	reports   ReportStore
	players   *PlayerService
	gen       narrative.Generator
	pub       publisher.Publisher
	metrics   *metrics.Manager
	log       logrus.FieldLogger
	maxTokens int
}

// NewReportService creates a new report service
func NewReportService(d Deps, players *PlayerService, maxTokens int) *ReportService {
	d = d.withDefaults()
	if maxTokens <= 0 {
		maxTokens = DefaultReportMaxTokens
	}
	return &ReportService{
		reports:   d.Reports,
		players:   players,
		gen:       d.Generator,
		pub:       d.Publisher,
		metrics:   d.Metrics,
		log:       d.Log.WithField("component", "report-service"),
		maxTokens: maxTokens,
	}
}

// Generate returns a scouting report for (profile, season).
//
// Without a question and without force, a cached report is returned as-is
// and nothing is generated. Otherwise one generation call is made; the
// result is written to the cache only when no question was asked.
func (s *ReportService) Generate(ctx context.Context, p *store.PlayerProfile, career []store.SeasonStatLine, category store.Category, season int, question string, force bool) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" && !force {
		if text, ok, err := s.cachedReport(ctx, p.PlayerID, season); err != nil || ok {
			return text, err
		}
	}
	return s.generate(ctx, p, career, category, season, question)
}

// cachedReport reads the stored report once and records the lookup.
func (s *ReportService) cachedReport(ctx context.Context, playerID, season int) (string, bool, error) {
	cached, err := s.reports.Get(ctx, playerID, season)
	switch {
	case err == nil:
		s.metrics.RecordCacheLookup("report", true)
		s.metrics.RecordGeneration(metrics.OutcomeCached)
		return cached.Report, true, nil
	case errors.Is(err, store.ErrNotFound):
		s.metrics.RecordCacheLookup("report", false)
		return "", false, nil
	default:
		return "", false, fmt.Errorf("reading cached report: %w", err)
	}
}

// generate makes one generation call and caches the text when question is empty.
func (s *ReportService) generate(ctx context.Context, p *store.PlayerProfile, career []store.SeasonStatLine, category store.Category, season int, question string) (string, error) {
	log := s.log.WithFields(logrus.Fields{"player_id": p.PlayerID, "season": season})

	if s.gen == nil {
		return "", &apperr.GenerationError{Err: errors.New("no text generator configured")}
	}

	prompt := narrative.BuildPrompt(p, career, category, season, question)
	text, err := s.gen.Generate(ctx, prompt, s.maxTokens)
	if err != nil {
		s.metrics.RecordGeneration(metrics.OutcomeError)
		log.WithError(err).Error("Report generation failed")
		return "", &apperr.GenerationError{Err: err}
	}
	s.metrics.RecordGeneration(metrics.OutcomeOK)

	if question != "" {
		return text, nil
	}

	if err := s.reports.Upsert(ctx, &store.NarrativeReport{PlayerID: p.PlayerID, Season: season, Report: text}); err != nil {
		// The caller still gets the text; the next request regenerates.
		log.WithError(err).Error("Caching report failed")
		return text, nil
	}
	log.Info("Cached scouting report")
	s.pub.Publish(ctx, publisher.EventReportGenerated, map[string]interface{}{
		"player_id": p.PlayerID,
		"season":    season,
		"length":    len(text),
	})
	return text, nil
}

// GetCachedReport returns the stored report or nil when none exists.
func (s *ReportService) GetCachedReport(ctx context.Context, playerID, season int) (*store.NarrativeReport, error) {
	rep, err := s.reports.Get(ctx, playerID, season)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached report: %w", err)
	}
	return rep, nil
}

// ReportForPlayer loads the profile and career history for playerID and
// generates (or serves) its report. A career lookup failure still produces
// a report, written from the bio alone.
func (s *ReportService) ReportForPlayer(ctx context.Context, playerID, season int, question string, force bool) (string, error) {
	p, err := s.players.GetOrFetchProfile(ctx, playerID)
	if err != nil {
		return "", err
	}

	category := store.CategoryForPosition(p.Position)
	question = strings.TrimSpace(question)

	// Skip the career fetch when the cached report will be served anyway.
	if question == "" && !force {
		if text, ok, err := s.cachedReport(ctx, playerID, season); err != nil || ok {
			return text, err
		}
	}

	career := s.players.GetCareerStats(ctx, playerID, category)
	if career.Status == StatusFailed {
		s.log.WithError(career.Err).WithField("player_id", playerID).Warn("Generating report without stats")
	}

	return s.generate(ctx, p, career.Items, category, season, question)
}
