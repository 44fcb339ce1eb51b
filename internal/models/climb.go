package models

import (
	"time"
)

// Climbing styles as recorded in the logbook.
const (
	StyleVorstieg  = "Vorstieg"  // lead
	StyleNachstieg = "Nachstieg" // follow
	StyleSolo      = "Solo"
	StyleSpritze   = "Spritze" // top-rope style
)

// Styles lists all valid ascent styles in display order.
var Styles = []string{StyleVorstieg, StyleNachstieg, StyleSolo, StyleSpritze}

// ValidStyle reports whether s is a recognized ascent style.
func ValidStyle(s string) bool {
	for _, v := range Styles {
		if s == v {
			return true
		}
	}
	return false
}

// Sector represents a named climbing area grouping multiple rocks
type Sector struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Rock represents a named climbable peak/formation belonging to one sector.
// Coordinates and elevation are optional guidebook data, NULL as pointers.
type Rock struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	SectorID  int64     `json:"sector_id" db:"sector_id"`
	Latitude  *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64  `json:"longitude,omitempty" db:"longitude"`
	Elevation *float64  `json:"elevation,omitempty" db:"elevation"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Route represents a climbing path up a rock with an optional difficulty grade
type Route struct {
	ID        int64     `json:"id" db:"id"`
	RockID    int64     `json:"rock_id" db:"rock_id"`
	Name      string    `json:"name" db:"name"`
	Number    *string   `json:"number,omitempty" db:"number"`
	Grade     *float64  `json:"grade,omitempty" db:"grade"`
	HasStar   bool      `json:"has_star" db:"has_star"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Ascent represents a user's logged climb of a route on a rock.
// The date is stored as the raw submitted string; historical rows are not
// guaranteed parseable, so consumers must go through ParseClimbDate.
// Foreign keys are soft: referenced rocks/routes may no longer exist.
type Ascent struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	RockID    *int64    `json:"rock_id,omitempty" db:"rock_id"`
	RouteID   *int64    `json:"route_id,omitempty" db:"route_id"`
	Date      *string   `json:"date,omitempty" db:"date"`
	Partner   *string   `json:"partner,omitempty" db:"partner"`
	Style     string    `json:"style" db:"style"`
	Comment   *string   `json:"comment,omitempty" db:"comment"`
	Rating    *int      `json:"rating,omitempty" db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// climbDateLayouts are the accepted ascent date formats, tried in order.
var climbDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseClimbDate parses a stored ascent date string. The second return value
// is false for nil, blank, or unparsable input; such rows stay in
// unconditional aggregates but are excluded from date-bucketed ones.
func ParseClimbDate(raw *string) (time.Time, bool) {
	if raw == nil || *raw == "" {
		return time.Time{}, false
	}
	for _, layout := range climbDateLayouts {
		if t, err := time.Parse(layout, *raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// YearCount is the distinct-peak count for one calendar year.
type YearCount struct {
	Year          int `json:"year"`
	DistinctRocks int `json:"distinct_rocks"`
}

// SectorBreakdown is the per-area completion summary. SectorName falls back
// to a placeholder when rocks reference a sector absent from the sector table.
type SectorBreakdown struct {
	SectorID     int64  `json:"sector_id"`
	SectorName   string `json:"sector_name"`
	TotalRocks   int    `json:"total_rocks"`
	ClimbedRocks int    `json:"climbed_rocks"`
}

// PartnerCount is one row of the partner frequency table.
type PartnerCount struct {
	Partner string `json:"partner"`
	Count   int    `json:"count"`
}

// StatisticsResult holds the derived climbing statistics for one user.
// Every field is computed from a single fetched snapshot of the four source
// tables; results for identical backing data are identical.
type StatisticsResult struct {
	NoAscents             bool                      `json:"no_ascents"`
	TotalRocks            int                       `json:"total_rocks"`
	DistinctClimbedRocks  int                       `json:"distinct_climbed_rocks"`
	PercentComplete       float64                   `json:"percent_complete"`
	DistinctClimbedRoutes int                       `json:"distinct_climbed_routes"`
	TotalAscents          int                       `json:"total_ascents"`
	YearlyDistinctPeaks   []YearCount               `json:"yearly_distinct_peaks"`
	TopPartner            *string                   `json:"top_partner,omitempty"`
	MostClimbedRock       *string                   `json:"most_climbed_rock,omitempty"`
	StyleDistribution     map[string]int            `json:"style_distribution"`
	PerSectorBreakdown    []SectorBreakdown         `json:"per_sector_breakdown"`
	MonthlySeriesByStyle  map[string]map[string]int `json:"monthly_series_by_style"`
	PartnerFrequency      []PartnerCount            `json:"partner_frequency"`
	AverageYearlyNewPeaks *float64                  `json:"average_yearly_new_peaks,omitempty"`
	GoalTarget            int                       `json:"goal_target"`
	EstimatedYearsToGoal  *float64                  `json:"estimated_years_to_goal,omitempty"`
}

// RecentAscent is one row of the enriched recent-logbook view.
type RecentAscent struct {
	Date     string   `json:"date"`
	RockName string   `json:"rock_name"`
	Grade    *float64 `json:"grade,omitempty"`
	Style    string   `json:"style"`
	Partner  *string  `json:"partner,omitempty"`
}

// RockMapFeature is one rock prepared for the filter map: joined with its
// sector name and flagged with route count, star, and climbed status.
type RockMapFeature struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	SectorName string   `json:"sector_name"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Elevation  *float64 `json:"elevation,omitempty"`
	RouteCount int      `json:"route_count"`
	HasStar    bool     `json:"has_star"`
	Climbed    bool     `json:"climbed"`
}

// SectorSummary is one sector with its rock count, for the area overview.
type SectorSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	RockCount int    `json:"rock_count"`
}
