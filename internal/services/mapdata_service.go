package services

import (
	"context"
	"sort"
	"time"

	"felsenapp/internal/models"
	"felsenapp/internal/repository"
	"felsenapp/pkg/logging"
	"felsenapp/pkg/metrics"
)

// Rock display status filters for the map.
const (
	StatusAll       = "all"
	StatusClimbed   = "climbed"
	StatusUnclimbed = "unclimbed"
)

// ValidStatus reports whether s is a recognized map status filter.
func ValidStatus(s string) bool {
	return s == StatusAll || s == StatusClimbed || s == StatusUnclimbed
}

// RockFilter narrows the rocks shown on the filter map.
type RockFilter struct {
	SectorName *string
	GradeMin   *float64
	GradeMax   *float64
	Status     string // all, climbed, unclimbed; blank means all
	StarOnly   bool
}

// MapDataService prepares rock features for the filter map: every rock with
// coordinates, joined with its sector name and flagged with route count,
// star, and per-user climbed status.
type MapDataService struct {
	repo    repository.ClimbRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewMapDataService creates a new map data service
func NewMapDataService(repo repository.ClimbRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *MapDataService {
	return &MapDataService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// MapRocks returns the filtered rock features. The map works without a user;
// an empty userID simply leaves every climbed flag false.
func (s *MapDataService) MapRocks(ctx context.Context, userID string, filter RockFilter) ([]models.RockMapFeature, error) {
	startTime := time.Now()

	sectors, err := s.repo.ListSectors(ctx)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list sectors", Err: err}
	}
	rocks, err := s.repo.ListRocks(ctx)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list rocks", Err: err}
	}
	routes, err := s.repo.ListRoutes(ctx)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list routes", Err: err}
	}

	climbed := make(map[int64]struct{})
	if userID != "" {
		ascents, err := s.repo.ListAscentsByUser(ctx, userID)
		if err != nil {
			return nil, &StoreUnavailableError{Op: "list ascents", Err: err}
		}
		for _, a := range ascents {
			if a.RockID != nil {
				climbed[*a.RockID] = struct{}{}
			}
		}
	}

	sectorNames := make(map[int64]string, len(sectors))
	for _, sector := range sectors {
		sectorNames[sector.ID] = sector.Name
	}

	routeCounts := make(map[int64]int)
	starRocks := make(map[int64]struct{})
	gradeMatch := make(map[int64]struct{})
	for _, route := range routes {
		routeCounts[route.RockID]++
		if route.HasStar {
			starRocks[route.RockID] = struct{}{}
		}
		if gradeInRange(route.Grade, filter.GradeMin, filter.GradeMax) {
			gradeMatch[route.RockID] = struct{}{}
		}
	}

	gradeFiltered := filter.GradeMin != nil || filter.GradeMax != nil

	features := make([]models.RockMapFeature, 0, len(rocks))
	for _, rock := range rocks {
		// The map can only place rocks with coordinates.
		if rock.Latitude == nil || rock.Longitude == nil {
			continue
		}

		sectorName, ok := sectorNames[rock.SectorID]
		if !ok {
			sectorName = "unknown"
		}
		if filter.SectorName != nil && sectorName != *filter.SectorName {
			continue
		}

		if gradeFiltered {
			if _, ok := gradeMatch[rock.ID]; !ok {
				continue
			}
		}

		_, isClimbed := climbed[rock.ID]
		switch filter.Status {
		case StatusClimbed:
			if !isClimbed {
				continue
			}
		case StatusUnclimbed:
			if isClimbed {
				continue
			}
		}

		_, hasStar := starRocks[rock.ID]
		if filter.StarOnly && !hasStar {
			continue
		}

		features = append(features, models.RockMapFeature{
			ID:         rock.ID,
			Name:       rock.Name,
			SectorName: sectorName,
			Latitude:   *rock.Latitude,
			Longitude:  *rock.Longitude,
			Elevation:  rock.Elevation,
			RouteCount: routeCounts[rock.ID],
			HasStar:    hasStar,
			Climbed:    isClimbed,
		})
	}

	sort.Slice(features, func(i, j int) bool {
		return features[i].ID < features[j].ID
	})

	s.logger.Debug(ctx, "[MAP_ROCKS] Map features prepared", logging.Fields{
		"total_rocks": len(rocks),
		"visible":     len(features),
		"duration_ms": time.Since(startTime).Milliseconds(),
	})

	return features, nil
}

// gradeInRange checks an optional grade against an optional range. Routes
// without a grade never match an active grade filter.
func gradeInRange(grade, min, max *float64) bool {
	if min == nil && max == nil {
		return true
	}
	if grade == nil {
		return false
	}
	if min != nil && *grade < *min {
		return false
	}
	if max != nil && *grade > *max {
		return false
	}
	return true
}
