package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/fortuna/scout/internal/ingest/mlb"
	"github.com/fortuna/scout/internal/store"
)

// MockStatsAPI is a testify mock of the upstream client.
type MockStatsAPI struct {
	mock.Mock
}

func (m *MockStatsAPI) SearchPeople(ctx context.Context, name string) ([]mlb.PersonSummary, error) {
	args := m.Called(ctx, name)
	people, _ := args.Get(0).([]mlb.PersonSummary)
	return people, args.Error(1)
}

func (m *MockStatsAPI) Person(ctx context.Context, id int) (*store.PlayerProfile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*store.PlayerProfile)
	if p != nil {
		cp := *p
		p = &cp
	}
	return p, args.Error(1)
}

func (m *MockStatsAPI) PlayerStats(ctx context.Context, id int, statType mlb.StatType, category store.Category) ([]mlb.StatSplit, error) {
	args := m.Called(ctx, id, statType, category)
	splits, _ := args.Get(0).([]mlb.StatSplit)
	return splits, args.Error(1)
}

func (m *MockStatsAPI) GameLog(ctx context.Context, id, season int, category store.Category) ([]mlb.StatSplit, error) {
	args := m.Called(ctx, id, season, category)
	splits, _ := args.Get(0).([]mlb.StatSplit)
	return splits, args.Error(1)
}

func (m *MockStatsAPI) Schedule(ctx context.Context, date string) ([]mlb.ScheduledGame, error) {
	args := m.Called(ctx, date)
	games, _ := args.Get(0).([]mlb.ScheduledGame)
	return games, args.Error(1)
}

func (m *MockStatsAPI) TeamGamePks(ctx context.Context, teamID, season int) ([]int, error) {
	args := m.Called(ctx, teamID, season)
	pks, _ := args.Get(0).([]int)
	return pks, args.Error(1)
}

func (m *MockStatsAPI) GamePitches(ctx context.Context, gamePk, pitcherID int) ([]mlb.PitchLocation, error) {
	args := m.Called(ctx, gamePk, pitcherID)
	pitches, _ := args.Get(0).([]mlb.PitchLocation)
	return pitches, args.Error(1)
}

func (m *MockStatsAPI) Roster(ctx context.Context, teamID int) ([]mlb.RosterEntry, error) {
	args := m.Called(ctx, teamID)
	roster, _ := args.Get(0).([]mlb.RosterEntry)
	return roster, args.Error(1)
}

func (m *MockStatsAPI) VsPlayer(ctx context.Context, pitcherID, batterID int) (*mlb.VsSplit, error) {
	args := m.Called(ctx, pitcherID, batterID)
	vs, _ := args.Get(0).(*mlb.VsSplit)
	return vs, args.Error(1)
}

// MockGenerator is a testify mock of narrative.Generator.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	args := m.Called(ctx, prompt, maxTokens)
	return args.String(0), args.Error(1)
}

// memPlayers is an in-memory PlayerStore keyed on player id.
type memPlayers struct {
	mu      sync.Mutex
	rows    map[int]store.PlayerProfile
	inserts int
	updates int
}

func newMemPlayers() *memPlayers { return &memPlayers{rows: map[int]store.PlayerProfile{}} }

func (m *memPlayers) GetByID(_ context.Context, id int) (*store.PlayerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("player %d: %w", id, store.ErrNotFound)
	}
	return &p, nil
}

func (m *memPlayers) Upsert(_ context.Context, p *store.PlayerProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.PlayerID]; ok {
		m.updates++
	} else {
		m.inserts++
	}
	m.rows[p.PlayerID] = *p
	return nil
}

func (m *memPlayers) SearchByName(_ context.Context, name string, limit int) ([]*store.PlayerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*store.PlayerProfile{}
	for _, p := range m.rows {
		if strings.Contains(strings.ToLower(p.FullName), strings.ToLower(name)) {
			cp := p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type seasonKey struct {
	player   int
	season   int
	team     string
	category store.Category
}

// memSeasons is an in-memory SeasonStore.
type memSeasons struct {
	mu        sync.Mutex
	rows      map[seasonKey]store.SeasonStatLine
	upserts   int
	failWrite error
}

func newMemSeasons() *memSeasons { return &memSeasons{rows: map[seasonKey]store.SeasonStatLine{}} }

func (m *memSeasons) Get(_ context.Context, id, season int, category store.Category) (*store.SeasonStatLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found []store.SeasonStatLine
	for k, v := range m.rows {
		if k.player == id && k.season == season && k.category == category {
			found = append(found, v)
		}
	}
	if len(found) == 0 {
		return nil, store.ErrNotFound
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Team < found[j].Team })
	return &found[0], nil
}

func (m *memSeasons) Upsert(_ context.Context, line *store.SeasonStatLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	m.upserts++
	m.rows[seasonKey{line.PlayerID, line.Season, line.Team, line.Category}] = *line
	return nil
}

func (m *memSeasons) ListByPlayer(_ context.Context, id int, category store.Category) ([]*store.SeasonStatLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*store.SeasonStatLine{}
	for k, v := range m.rows {
		if k.player == id && k.category == category {
			cp := v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Season < out[j].Season })
	return out, nil
}

type reportKey struct{ player, season int }

// memReports is an in-memory ReportStore.
type memReports struct {
	mu      sync.Mutex
	rows    map[reportKey]store.NarrativeReport
	gets    int
	upserts int
}

func newMemReports() *memReports { return &memReports{rows: map[reportKey]store.NarrativeReport{}} }

func (m *memReports) Get(_ context.Context, id, season int) (*store.NarrativeReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	r, ok := m.rows[reportKey{id, season}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (m *memReports) Upsert(_ context.Context, r *store.NarrativeReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	m.rows[reportKey{r.PlayerID, r.Season}] = *r
	return nil
}

// recordingPublisher keeps every published event type.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

type fixture struct {
	api     *MockStatsAPI
	gen     *MockGenerator
	players *memPlayers
	seasons *memSeasons
	reports *memReports
	pub     *recordingPublisher

	playerSvc *PlayerService
	reportSvc *ReportService
	gameSvc   *GameService
}

func newFixture() *fixture {
	f := &fixture{
		api:     &MockStatsAPI{},
		gen:     &MockGenerator{},
		players: newMemPlayers(),
		seasons: newMemSeasons(),
		reports: newMemReports(),
		pub:     &recordingPublisher{},
	}
	d := Deps{
		Players:   f.players,
		Seasons:   f.seasons,
		Reports:   f.reports,
		API:       f.api,
		Generator: f.gen,
		Publisher: f.pub,
	}
	f.playerSvc = NewPlayerService(d)
	f.reportSvc = NewReportService(d, f.playerSvc, 0)
	f.gameSvc = NewGameService(d, f.playerSvc)
	return f
}

func split(season int, team string, stats store.StatMap) mlb.StatSplit {
	return mlb.StatSplit{Season: season, Team: team, Stats: stats}
}
