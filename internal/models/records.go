package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AscentEntry is a new logbook submission before persistence.
// Unlike historical Ascent rows, new entries must carry a parseable date.
type AscentEntry struct {
	Date    string  `json:"date"`
	RockID  int64   `json:"rock_id"`
	RouteID *int64  `json:"route_id,omitempty"`
	Partner string  `json:"partner"`
	Style   string  `json:"style"`
	Comment string  `json:"comment"`
	Rating  *int    `json:"rating,omitempty"`
}

// ToAscent validates the entry and converts it to a persistable Ascent.
func (e *AscentEntry) ToAscent(userID string) (*Ascent, error) {
	if userID == "" {
		return nil, &ValidationError{
			Field:   "user_id",
			Value:   userID,
			Message: "user id must not be empty",
		}
	}

	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return nil, &ValidationError{
			Field:   "date",
			Value:   e.Date,
			Message: "invalid date format, expected YYYY-MM-DD",
		}
	}

	if !ValidStyle(e.Style) {
		return nil, &ValidationError{
			Field:   "style",
			Value:   e.Style,
			Message: fmt.Sprintf("invalid style, expected one of %s", strings.Join(Styles, ", ")),
		}
	}

	if e.RockID <= 0 {
		return nil, &ValidationError{
			Field:   "rock_id",
			Value:   strconv.FormatInt(e.RockID, 10),
			Message: "rock_id must be a positive integer",
		}
	}

	if e.Rating != nil && (*e.Rating < 1 || *e.Rating > 3) {
		return nil, &ValidationError{
			Field:   "rating",
			Value:   strconv.Itoa(*e.Rating),
			Message: "rating must be between 1 and 3",
		}
	}

	rockID := e.RockID
	date := e.Date

	ascent := &Ascent{
		UserID:    userID,
		RockID:    &rockID,
		RouteID:   e.RouteID,
		Date:      &date,
		Style:     e.Style,
		Rating:    e.Rating,
		CreatedAt: time.Now().UTC(),
	}

	if p := strings.TrimSpace(e.Partner); p != "" {
		ascent.Partner = &p
	}
	if c := strings.TrimSpace(e.Comment); c != "" {
		ascent.Comment = &c
	}

	return ascent, nil
}

// RawSectorRecord is a single line from a sectors CSV file.
type RawSectorRecord struct {
	ID   string
	Name string
}

// ToSector converts a RawSectorRecord to a Sector.
func (r *RawSectorRecord) ToSector() (*Sector, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.ID), 10, 64)
	if err != nil || id <= 0 {
		return nil, &ValidationError{
			Field:   "id",
			Value:   r.ID,
			Message: "invalid sector id, expected positive integer",
		}
	}

	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, &ValidationError{
			Field:   "name",
			Value:   r.Name,
			Message: "sector name must not be empty",
		}
	}

	return &Sector{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RawRockRecord is a single line from a rocks CSV file.
// Latitude, longitude, and elevation may be blank in guidebook data.
type RawRockRecord struct {
	ID        string
	Name      string
	SectorID  string
	Latitude  string
	Longitude string
	Elevation string
}

// ToRock converts a RawRockRecord to a Rock.
// Blank coordinate fields become NULL, not zero.
func (r *RawRockRecord) ToRock() (*Rock, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.ID), 10, 64)
	if err != nil || id <= 0 {
		return nil, &ValidationError{
			Field:   "id",
			Value:   r.ID,
			Message: "invalid rock id, expected positive integer",
		}
	}

	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, &ValidationError{
			Field:   "name",
			Value:   r.Name,
			Message: "rock name must not be empty",
		}
	}

	sectorID, err := strconv.ParseInt(strings.TrimSpace(r.SectorID), 10, 64)
	if err != nil || sectorID <= 0 {
		return nil, &ValidationError{
			Field:   "sector_id",
			Value:   r.SectorID,
			Message: "invalid sector id, expected positive integer",
		}
	}

	rock := &Rock{
		ID:        id,
		Name:      name,
		SectorID:  sectorID,
		CreatedAt: time.Now().UTC(),
	}

	if rock.Latitude, err = parseOptionalFloat("latitude", r.Latitude); err != nil {
		return nil, err
	}
	if rock.Longitude, err = parseOptionalFloat("longitude", r.Longitude); err != nil {
		return nil, err
	}
	if rock.Elevation, err = parseOptionalFloat("elevation", r.Elevation); err != nil {
		return nil, err
	}

	return rock, nil
}

// RawRouteRecord is a single line from a routes CSV file.
type RawRouteRecord struct {
	ID     string
	RockID string
	Name   string
	Number string
	Grade  string
	Star   string
}

// ToRoute converts a RawRouteRecord to a Route.
func (r *RawRouteRecord) ToRoute() (*Route, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.ID), 10, 64)
	if err != nil || id <= 0 {
		return nil, &ValidationError{
			Field:   "id",
			Value:   r.ID,
			Message: "invalid route id, expected positive integer",
		}
	}

	rockID, err := strconv.ParseInt(strings.TrimSpace(r.RockID), 10, 64)
	if err != nil || rockID <= 0 {
		return nil, &ValidationError{
			Field:   "rock_id",
			Value:   r.RockID,
			Message: "invalid rock id, expected positive integer",
		}
	}

	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, &ValidationError{
			Field:   "name",
			Value:   r.Name,
			Message: "route name must not be empty",
		}
	}

	route := &Route{
		ID:        id,
		RockID:    rockID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if number := strings.TrimSpace(r.Number); number != "" {
		route.Number = &number
	}

	if route.Grade, err = parseOptionalFloat("grade", r.Grade); err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(r.Star)) {
	case "", "0", "false":
		route.HasStar = false
	case "1", "true":
		route.HasStar = true
	default:
		return nil, &ValidationError{
			Field:   "star",
			Value:   r.Star,
			Message: "invalid star flag, expected true/false/1/0 or blank",
		}
	}

	return route, nil
}

// parseOptionalFloat parses a CSV field that may be blank.
func parseOptionalFloat(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &ValidationError{
			Field:   field,
			Value:   raw,
			Message: fmt.Sprintf("invalid %s, expected decimal number", field),
		}
	}
	return &v, nil
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
