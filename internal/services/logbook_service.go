package services

import (
	"context"
	"fmt"
	"sort"

	"felsenapp/internal/models"
	"felsenapp/internal/repository"
	"felsenapp/pkg/logging"
	"felsenapp/pkg/metrics"
)

// StatsInvalidator drops cached statistics for one user after a write.
type StatsInvalidator interface {
	Invalidate(userID string)
}

// LogbookService handles logbook entries and the enriched read views that
// back the entry form and the recent-climbs list.
type LogbookService struct {
	repo    repository.ClimbRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	stats   StatsInvalidator
}

// NewLogbookService creates a new logbook service
func NewLogbookService(repo repository.ClimbRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, stats StatsInvalidator) *LogbookService {
	return &LogbookService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
		stats:   stats,
	}
}

// CreateAscent validates and persists a new logbook entry, then invalidates
// the user's cached statistics.
func (s *LogbookService) CreateAscent(ctx context.Context, userID string, entry *models.AscentEntry) (*models.Ascent, error) {
	if userID == "" {
		return nil, ErrNoUser
	}

	ascent, err := entry.ToAscent(userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateAscent(ctx, ascent); err != nil {
		return nil, fmt.Errorf("failed to save ascent: %w", err)
	}

	s.metrics.AscentsCreatedTotal.Inc()
	if s.stats != nil {
		s.stats.Invalidate(userID)
	}

	s.logger.Info(ctx, "[LOGBOOK_CREATE] Ascent recorded", logging.Fields{
		"ascent_id": ascent.ID,
		"rock_id":   ascent.RockID,
		"style":     ascent.Style,
	})

	return ascent, nil
}

// RecentAscents returns the user's most recent dated climbs, enriched with
// rock name and route grade, newest first. Repeat climbs of the same rock are
// not deduplicated; rows without a parseable date are skipped.
func (s *LogbookService) RecentAscents(ctx context.Context, userID string, limit int) ([]models.RecentAscent, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	if limit <= 0 {
		limit = 10
	}

	ascents, err := s.repo.ListAscentsByUser(ctx, userID)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list ascents", Err: err}
	}

	var dated []datedAscent
	for _, a := range ascents {
		if t, ok := models.ParseClimbDate(a.Date); ok {
			dated = append(dated, datedAscent{ascent: a, date: t})
		}
	}
	if len(dated) == 0 {
		return []models.RecentAscent{}, nil
	}

	// Stable sort keeps the fetched order (newest insert first) for climbs
	// logged on the same date.
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].date.After(dated[j].date)
	})
	if len(dated) > limit {
		dated = dated[:limit]
	}

	rocks, err := s.repo.ListRocks(ctx)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list rocks", Err: err}
	}
	routes, err := s.repo.ListRoutes(ctx)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list routes", Err: err}
	}

	rockNames := make(map[int64]string, len(rocks))
	for _, rock := range rocks {
		rockNames[rock.ID] = rock.Name
	}
	routeGrades := make(map[int64]*float64, len(routes))
	for _, route := range routes {
		routeGrades[route.ID] = route.Grade
	}

	recent := make([]models.RecentAscent, 0, len(dated))
	for _, d := range dated {
		row := models.RecentAscent{
			Date:    d.date.Format("2006-01-02"),
			Style:   d.ascent.Style,
			Partner: d.ascent.Partner,
		}

		switch {
		case d.ascent.RockID == nil:
			row.RockName = "Unknown rock"
		default:
			if name, ok := rockNames[*d.ascent.RockID]; ok {
				row.RockName = name
			} else {
				row.RockName = fmt.Sprintf("Rock #%d", *d.ascent.RockID)
			}
		}

		if d.ascent.RouteID != nil {
			row.Grade = routeGrades[*d.ascent.RouteID]
		}

		recent = append(recent, row)
	}

	return recent, nil
}

// SectorOverview returns all sectors with their rock counts, largest first.
func (s *LogbookService) SectorOverview(ctx context.Context) ([]models.SectorSummary, error) {
	sectors, err := s.repo.ListSectors(ctx)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list sectors", Err: err}
	}
	rocks, err := s.repo.ListRocks(ctx)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list rocks", Err: err}
	}

	counts := make(map[int64]int)
	for _, rock := range rocks {
		counts[rock.SectorID]++
	}

	summaries := make([]models.SectorSummary, 0, len(sectors))
	for _, sector := range sectors {
		summaries = append(summaries, models.SectorSummary{
			ID:        sector.ID,
			Name:      sector.Name,
			RockCount: counts[sector.ID],
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].RockCount > summaries[j].RockCount
	})

	return summaries, nil
}

// RocksBySector lists the rocks of one sector for the entry form cascade.
func (s *LogbookService) RocksBySector(ctx context.Context, sectorID int64) ([]*models.Rock, error) {
	rocks, err := s.repo.ListRocksBySector(ctx, sectorID)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list rocks by sector", Err: err}
	}
	return rocks, nil
}

// RoutesByRock lists the routes on one rock for the entry form cascade.
// Unknown rock ids surface as a NotFoundError.
func (s *LogbookService) RoutesByRock(ctx context.Context, rockID int64) ([]*models.Route, error) {
	if _, err := s.repo.GetRock(ctx, rockID); err != nil {
		return nil, err
	}

	routes, err := s.repo.ListRoutesByRock(ctx, rockID)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list routes by rock", Err: err}
	}
	return routes, nil
}
