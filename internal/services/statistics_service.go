package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"felsenapp/internal/models"
	"felsenapp/internal/repository"
	"felsenapp/pkg/logging"
	"felsenapp/pkg/metrics"
)

// ErrNoUser is returned when statistics are requested without a user id.
// It is surfaced before any query is made.
var ErrNoUser = errors.New("no user logged in")

// StoreUnavailableError wraps any data-store failure during a statistics
// fetch. Callers must show a transient error instead of zeroed statistics.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("data store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

func (e *StoreUnavailableError) IsTransient() bool {
	return true
}

// StatisticsService computes per-user climbing statistics from a fetched
// snapshot of the sector, rock, and ascent tables. Results are cached per
// user with explicit invalidation; the logbook service invalidates after
// every successful write.
type StatisticsService struct {
	repo       repository.ClimbRepository
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
	goalTarget int
	cacheTTL   time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry

	// now is swappable in tests so year buckets are stable.
	now func() time.Time
}

type cacheEntry struct {
	result    *models.StatisticsResult
	fetchedAt time.Time
}

// NewStatisticsService creates a new statistics service. goalTarget is the
// default rock count for the years-to-goal estimate; cacheTTL of zero keeps
// entries until explicit invalidation.
func NewStatisticsService(repo repository.ClimbRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, goalTarget int, cacheTTL time.Duration) *StatisticsService {
	return &StatisticsService{
		repo:       repo,
		logger:     logger,
		metrics:    metricsCollector,
		goalTarget: goalTarget,
		cacheTTL:   cacheTTL,
		cache:      make(map[string]cacheEntry),
		now:        time.Now,
	}
}

// Compute returns the statistics for one user, serving from the per-user
// cache when fresh. An empty ascent table is not an error; the result then
// carries NoAscents=true with all counts zero.
func (s *StatisticsService) Compute(ctx context.Context, userID string) (*models.StatisticsResult, error) {
	if userID == "" {
		return nil, ErrNoUser
	}

	if cached := s.lookup(userID); cached != nil {
		s.metrics.StatsCacheHits.Inc()
		return cached, nil
	}
	s.metrics.StatsCacheMisses.Inc()

	startTime := time.Now()

	sectors, err := s.repo.ListSectors(ctx)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list sectors", Err: err}
	}

	rocks, err := s.repo.ListRocks(ctx)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list rocks", Err: err}
	}

	ascents, err := s.repo.ListAscentsByUser(ctx, userID)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list ascents", Err: err}
	}

	s.metrics.StatsFetchRows.WithLabelValues("sectors").Observe(float64(len(sectors)))
	s.metrics.StatsFetchRows.WithLabelValues("rocks").Observe(float64(len(rocks)))
	s.metrics.StatsFetchRows.WithLabelValues("ascents").Observe(float64(len(ascents)))

	result := aggregate(sectors, rocks, ascents, s.goalTarget, s.now())

	duration := time.Since(startTime)
	s.metrics.StatsCalculationDuration.Observe(duration.Seconds())
	s.logger.Debug(ctx, "[STATS_COMPUTE] Statistics computed", logging.Fields{
		"ascent_rows":    len(ascents),
		"rock_rows":      len(rocks),
		"distinct_rocks": result.DistinctClimbedRocks,
		"duration_ms":    duration.Milliseconds(),
	})

	s.store(userID, result)

	return result, nil
}

// ComputeWithGoal is Compute with a caller-supplied goal target. The cached
// base result is not disturbed; only the estimate fields differ.
func (s *StatisticsService) ComputeWithGoal(ctx context.Context, userID string, target int) (*models.StatisticsResult, error) {
	result, err := s.Compute(ctx, userID)
	if err != nil {
		return nil, err
	}

	if target <= 0 || target == result.GoalTarget {
		return result, nil
	}

	adjusted := *result
	adjusted.GoalTarget = target
	adjusted.EstimatedYearsToGoal = estimateYearsToGoal(target, adjusted.DistinctClimbedRocks, adjusted.AverageYearlyNewPeaks)

	return &adjusted, nil
}

// Invalidate drops the cached result for one user. Called after logbook
// writes so the next read recomputes.
func (s *StatisticsService) Invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, userID)
}

func (s *StatisticsService) lookup(userID string) *models.StatisticsResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[userID]
	if !ok {
		return nil
	}
	if s.cacheTTL > 0 && s.now().Sub(entry.fetchedAt) > s.cacheTTL {
		return nil
	}
	return entry.result
}

func (s *StatisticsService) store(userID string, result *models.StatisticsResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[userID] = cacheEntry{result: result, fetchedAt: s.now()}
}

// datedAscent pairs an ascent with its parsed date. Rows with unparsable
// dates never enter date-bucketed aggregates.
type datedAscent struct {
	ascent *models.Ascent
	date   time.Time
}

// aggregate derives all statistics from one snapshot of the source tables.
// It is a pure function: identical inputs yield identical results, which is
// what makes the per-user cache and the tests straightforward.
func aggregate(sectors []*models.Sector, rocks []*models.Rock, ascents []*models.Ascent, goalTarget int, now time.Time) *models.StatisticsResult {
	result := &models.StatisticsResult{
		TotalRocks:        len(rocks),
		TotalAscents:      len(ascents),
		NoAscents:         len(ascents) == 0,
		StyleDistribution: make(map[string]int),
		GoalTarget:        goalTarget,
	}

	// Distinct climbed rocks/routes plus frequency tables, tracking first-seen
	// order so that mode selection is deterministic under ties.
	climbedRocks := make(map[int64]int)
	rockOrder := make([]int64, 0)
	climbedRoutes := make(map[int64]struct{})
	partnerCounts := make(map[string]int)
	partnerOrder := make([]string, 0)

	var dated []datedAscent

	for _, a := range ascents {
		if a.RockID != nil {
			if _, seen := climbedRocks[*a.RockID]; !seen {
				rockOrder = append(rockOrder, *a.RockID)
			}
			climbedRocks[*a.RockID]++
		}
		if a.RouteID != nil {
			climbedRoutes[*a.RouteID] = struct{}{}
		}
		if a.Partner != nil {
			if p := strings.TrimSpace(*a.Partner); p != "" {
				if _, seen := partnerCounts[p]; !seen {
					partnerOrder = append(partnerOrder, p)
				}
				partnerCounts[p]++
			}
		}
		if a.Style != "" {
			result.StyleDistribution[a.Style]++
		}
		if t, ok := models.ParseClimbDate(a.Date); ok {
			dated = append(dated, datedAscent{ascent: a, date: t})
		}
	}

	result.DistinctClimbedRocks = len(climbedRocks)
	result.DistinctClimbedRoutes = len(climbedRoutes)

	if result.TotalRocks > 0 {
		// Dangling rock ids count as climbed, so distinct can exceed the
		// rock table; the ratio is capped at 100.
		pct := float64(result.DistinctClimbedRocks) / float64(result.TotalRocks) * 100
		result.PercentComplete = math.Min(math.Round(pct*10)/10, 100)
	}

	result.YearlyDistinctPeaks = yearlyDistinctPeaks(dated, now)
	result.TopPartner = modeString(partnerCounts, partnerOrder)
	result.MostClimbedRock = mostClimbedRock(climbedRocks, rockOrder, rocks)
	result.PerSectorBreakdown = sectorBreakdown(sectors, rocks, climbedRocks)
	result.MonthlySeriesByStyle = monthlySeriesByStyle(dated)
	result.PartnerFrequency = partnerFrequency(partnerCounts, partnerOrder)
	result.AverageYearlyNewPeaks = averageYearlyNewPeaks(dated)
	result.EstimatedYearsToGoal = estimateYearsToGoal(goalTarget, result.DistinctClimbedRocks, result.AverageYearlyNewPeaks)

	return result
}

// yearlyDistinctPeaks buckets distinct climbed rocks into the three most
// recent calendar years present in the data. With no dated rows at all, the
// current year and the two before it are reported, all zero.
func yearlyDistinctPeaks(dated []datedAscent, now time.Time) []models.YearCount {
	yearSet := make(map[int]struct{})
	for _, d := range dated {
		yearSet[d.date.Year()] = struct{}{}
	}

	var years []int
	if len(yearSet) == 0 {
		current := now.Year()
		years = []int{current - 2, current - 1, current}
	} else {
		for y := range yearSet {
			years = append(years, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(years)))
		if len(years) > 3 {
			years = years[:3]
		}
		sort.Ints(years)
	}

	counts := make([]models.YearCount, 0, len(years))
	for _, y := range years {
		distinct := make(map[int64]struct{})
		for _, d := range dated {
			if d.date.Year() == y && d.ascent.RockID != nil {
				distinct[*d.ascent.RockID] = struct{}{}
			}
		}
		counts = append(counts, models.YearCount{Year: y, DistinctRocks: len(distinct)})
	}

	return counts
}

// modeString picks the most frequent value; ties go to the value that
// appeared first in the source rows.
func modeString(counts map[string]int, order []string) *string {
	var best *string
	bestCount := 0
	for i := range order {
		if counts[order[i]] > bestCount {
			best = &order[i]
			bestCount = counts[order[i]]
		}
	}
	return best
}

// mostClimbedRock resolves the modal rock id to its name, falling back to a
// placeholder when the rock row is missing from the fetched set.
func mostClimbedRock(counts map[int64]int, order []int64, rocks []*models.Rock) *string {
	if len(order) == 0 {
		return nil
	}

	bestID := order[0]
	bestCount := counts[bestID]
	for _, id := range order[1:] {
		if counts[id] > bestCount {
			bestID = id
			bestCount = counts[id]
		}
	}

	for _, rock := range rocks {
		if rock.ID == bestID {
			name := rock.Name
			return &name
		}
	}

	placeholder := fmt.Sprintf("Rock #%d", bestID)
	return &placeholder
}

// sectorBreakdown groups all rocks by sector and marks each as climbed or
// not. Sectors without rocks are still listed; rocks referencing an unknown
// sector are grouped under a placeholder name.
func sectorBreakdown(sectors []*models.Sector, rocks []*models.Rock, climbedRocks map[int64]int) []models.SectorBreakdown {
	groups := make(map[int64]*models.SectorBreakdown)

	for _, sector := range sectors {
		groups[sector.ID] = &models.SectorBreakdown{
			SectorID:   sector.ID,
			SectorName: sector.Name,
		}
	}

	for _, rock := range rocks {
		g, ok := groups[rock.SectorID]
		if !ok {
			g = &models.SectorBreakdown{
				SectorID:   rock.SectorID,
				SectorName: fmt.Sprintf("Sector #%d", rock.SectorID),
			}
			groups[rock.SectorID] = g
		}
		g.TotalRocks++
		if _, climbed := climbedRocks[rock.ID]; climbed {
			g.ClimbedRocks++
		}
	}

	breakdown := make([]models.SectorBreakdown, 0, len(groups))
	for _, g := range groups {
		breakdown = append(breakdown, *g)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].SectorID < breakdown[j].SectorID
	})

	return breakdown
}

// monthlySeriesByStyle builds the sparse month series per style. Months with
// zero ascents for a style are omitted, not zero-filled.
func monthlySeriesByStyle(dated []datedAscent) map[string]map[string]int {
	series := make(map[string]map[string]int)
	for _, d := range dated {
		style := d.ascent.Style
		if style == "" {
			continue
		}
		if series[style] == nil {
			series[style] = make(map[string]int)
		}
		series[style][d.date.Format("2006-01")]++
	}
	return series
}

// partnerFrequency returns partners ordered by descending ascent count,
// ties broken by first appearance.
func partnerFrequency(counts map[string]int, order []string) []models.PartnerCount {
	freq := make([]models.PartnerCount, 0, len(order))
	for _, p := range order {
		freq = append(freq, models.PartnerCount{Partner: p, Count: counts[p]})
	}
	sort.SliceStable(freq, func(i, j int) bool {
		return freq[i].Count > freq[j].Count
	})
	return freq
}

// averageYearlyNewPeaks is the mean, over years with at least one dated
// ascent, of the distinct rocks climbed in that year. Rocks climbed in two
// years count in both. Nil when no ascent has a parseable date.
func averageYearlyNewPeaks(dated []datedAscent) *float64 {
	perYear := make(map[int]map[int64]struct{})
	for _, d := range dated {
		year := d.date.Year()
		if perYear[year] == nil {
			perYear[year] = make(map[int64]struct{})
		}
		if d.ascent.RockID != nil {
			perYear[year][*d.ascent.RockID] = struct{}{}
		}
	}

	if len(perYear) == 0 {
		return nil
	}

	total := 0
	for _, rocks := range perYear {
		total += len(rocks)
	}
	avg := float64(total) / float64(len(perYear))
	return &avg
}

// estimateYearsToGoal projects the remaining years to reach the target rock
// count at the observed yearly pace. Nil when the pace is zero or unknown.
func estimateYearsToGoal(target, distinctClimbed int, avgYearly *float64) *float64 {
	if avgYearly == nil || *avgYearly <= 0 {
		return nil
	}
	years := float64(target-distinctClimbed) / *avgYearly
	return &years
}
