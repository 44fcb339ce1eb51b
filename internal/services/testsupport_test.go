package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"felsenapp/internal/models"
	"felsenapp/internal/repository"
	"felsenapp/pkg/logging"
	"felsenapp/pkg/metrics"
)

// fakeRepo is an in-memory ClimbRepository for service tests. Setting
// unreachable simulates a dead data store on every read.
type fakeRepo struct {
	sectors []*models.Sector
	rocks   []*models.Rock
	routes  []*models.Route
	ascents []*models.Ascent

	unreachable bool
	fetchCalls  int
	nextID      int64
}

var errConnRefused = errors.New("connection refused")

func (f *fakeRepo) ListSectors(ctx context.Context) ([]*models.Sector, error) {
	f.fetchCalls++
	if f.unreachable {
		return nil, errConnRefused
	}
	return f.sectors, nil
}

func (f *fakeRepo) ListRocks(ctx context.Context) ([]*models.Rock, error) {
	f.fetchCalls++
	if f.unreachable {
		return nil, errConnRefused
	}
	return f.rocks, nil
}

func (f *fakeRepo) ListRocksBySector(ctx context.Context, sectorID int64) ([]*models.Rock, error) {
	f.fetchCalls++
	if f.unreachable {
		return nil, errConnRefused
	}
	var out []*models.Rock
	for _, r := range f.rocks {
		if r.SectorID == sectorID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListRoutes(ctx context.Context) ([]*models.Route, error) {
	f.fetchCalls++
	if f.unreachable {
		return nil, errConnRefused
	}
	return f.routes, nil
}

func (f *fakeRepo) ListRoutesByRock(ctx context.Context, rockID int64) ([]*models.Route, error) {
	f.fetchCalls++
	if f.unreachable {
		return nil, errConnRefused
	}
	var out []*models.Route
	for _, r := range f.routes {
		if r.RockID == rockID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetRock(ctx context.Context, id int64) (*models.Rock, error) {
	if f.unreachable {
		return nil, errConnRefused
	}
	for _, r := range f.rocks {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, &repository.NotFoundError{Resource: "rock", ID: strconv.FormatInt(id, 10)}
}

func (f *fakeRepo) ListAscentsByUser(ctx context.Context, userID string) ([]*models.Ascent, error) {
	f.fetchCalls++
	if f.unreachable {
		return nil, errConnRefused
	}
	var out []*models.Ascent
	for _, a := range f.ascents {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateAscent(ctx context.Context, ascent *models.Ascent) error {
	if f.unreachable {
		return errConnRefused
	}
	f.nextID++
	ascent.ID = f.nextID
	f.ascents = append(f.ascents, ascent)
	return nil
}

func (f *fakeRepo) CreateSectorsBatch(ctx context.Context, sectors []*models.Sector) error {
	if f.unreachable {
		return errConnRefused
	}
	f.sectors = append(f.sectors, sectors...)
	return nil
}

func (f *fakeRepo) CreateRocksBatch(ctx context.Context, rocks []*models.Rock) error {
	if f.unreachable {
		return errConnRefused
	}
	f.rocks = append(f.rocks, rocks...)
	return nil
}

func (f *fakeRepo) CreateRoutesBatch(ctx context.Context, routes []*models.Route) error {
	if f.unreachable {
		return errConnRefused
	}
	f.routes = append(f.routes, routes...)
	return nil
}

func (f *fakeRepo) HealthCheck(ctx context.Context) error {
	if f.unreachable {
		return errConnRefused
	}
	return nil
}

func testLogger() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("test", "0.0.0", logging.ErrorLevel)
	logger.SetOutput(discard{})
	return logger
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// testCollector returns a metrics collector with a unique namespace per call
// so promauto registration does not collide across tests.
var collectorSeq int

func testCollector() *metrics.Collector {
	collectorSeq++
	return metrics.NewCollector("felsenapp_test_" + strconv.Itoa(collectorSeq))
}

func strPtr(s string) *string { return &s }
func i64Ptr(v int64) *int64   { return &v }
func fPtr(v float64) *float64 { return &v }
func intPtr(v int) *int       { return &v }

// ascentRow builds an ascent row for user u1 with the common fields set.
func ascentRow(rockID *int64, routeID *int64, date, style, partner string) *models.Ascent {
	a := &models.Ascent{
		UserID: "u1",
		RockID: rockID,
		Style:  style,
	}
	if date != "" {
		a.Date = strPtr(date)
	}
	if partner != "" {
		a.Partner = strPtr(partner)
	}
	a.RouteID = routeID
	return a
}

// fixedNow pins the statistics clock for stable year buckets.
var fixedNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newStatsService(repo repository.ClimbRepository, goalTarget int, ttl time.Duration) *StatisticsService {
	s := NewStatisticsService(repo, testLogger(), testCollector(), goalTarget, ttl)
	s.now = func() time.Time { return fixedNow }
	return s
}
