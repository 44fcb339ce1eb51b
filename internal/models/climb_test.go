package models

import (
	"testing"
	"time"
)

// TestAscentEntry_ToAscent tests logbook entry validation and conversion
func TestAscentEntry_ToAscent(t *testing.T) {
	rating := 2
	badRating := 5
	routeID := int64(100)

	tests := []struct {
		name        string
		entry       AscentEntry
		userID      string
		wantErr     bool
		checkValues func(*testing.T, *Ascent)
	}{
		{
			name: "valid entry with all fields",
			entry: AscentEntry{
				Date:    "2024-05-01",
				RockID:  10,
				RouteID: &routeID,
				Partner: "Ana",
				Style:   StyleVorstieg,
				Comment: "windy",
				Rating:  &rating,
			},
			userID:  "u1",
			wantErr: false,
			checkValues: func(t *testing.T, a *Ascent) {
				if a.UserID != "u1" {
					t.Errorf("UserID = %v, want %v", a.UserID, "u1")
				}
				if a.RockID == nil || *a.RockID != 10 {
					t.Errorf("RockID = %v, want 10", a.RockID)
				}
				if a.RouteID == nil || *a.RouteID != 100 {
					t.Errorf("RouteID = %v, want 100", a.RouteID)
				}
				if a.Date == nil || *a.Date != "2024-05-01" {
					t.Errorf("Date = %v, want 2024-05-01", a.Date)
				}
				if a.Partner == nil || *a.Partner != "Ana" {
					t.Errorf("Partner = %v, want Ana", a.Partner)
				}
				if a.Rating == nil || *a.Rating != 2 {
					t.Errorf("Rating = %v, want 2", a.Rating)
				}
			},
		},
		{
			name: "blank partner and comment become nil",
			entry: AscentEntry{
				Date:    "2024-05-01",
				RockID:  10,
				Partner: "   ",
				Style:   StyleSolo,
				Comment: "",
			},
			userID:  "u1",
			wantErr: false,
			checkValues: func(t *testing.T, a *Ascent) {
				if a.Partner != nil {
					t.Errorf("Partner = %v, want nil for blank input", *a.Partner)
				}
				if a.Comment != nil {
					t.Errorf("Comment = %v, want nil for blank input", *a.Comment)
				}
				if a.Rating != nil {
					t.Errorf("Rating = %v, want nil when omitted", *a.Rating)
				}
			},
		},
		{
			name: "invalid date format",
			entry: AscentEntry{
				Date:   "01.05.2024",
				RockID: 10,
				Style:  StyleVorstieg,
			},
			userID:  "u1",
			wantErr: true,
		},
		{
			name: "invalid style",
			entry: AscentEntry{
				Date:   "2024-05-01",
				RockID: 10,
				Style:  "Flash",
			},
			userID:  "u1",
			wantErr: true,
		},
		{
			name: "rating out of range",
			entry: AscentEntry{
				Date:   "2024-05-01",
				RockID: 10,
				Style:  StyleNachstieg,
				Rating: &badRating,
			},
			userID:  "u1",
			wantErr: true,
		},
		{
			name: "missing rock id",
			entry: AscentEntry{
				Date:  "2024-05-01",
				Style: StyleVorstieg,
			},
			userID:  "u1",
			wantErr: true,
		},
		{
			name: "missing user id",
			entry: AscentEntry{
				Date:   "2024-05-01",
				RockID: 10,
				Style:  StyleVorstieg,
			},
			userID:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ascent, err := tt.entry.ToAscent(tt.userID)

			if (err != nil) != tt.wantErr {
				t.Errorf("ToAscent() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.checkValues != nil {
				tt.checkValues(t, ascent)
			}
		})
	}
}

// TestParseClimbDate tests defensive date handling for historical rows
func TestParseClimbDate(t *testing.T) {
	plain := "2024-05-01"
	stamped := "2024-05-01T09:30:00Z"
	junk := "not-a-date"
	blank := ""

	tests := []struct {
		name     string
		raw      *string
		wantOK   bool
		wantDate time.Time
	}{
		{"plain date", &plain, true, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"rfc3339 timestamp", &stamped, true, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)},
		{"unparsable", &junk, false, time.Time{}},
		{"blank", &blank, false, time.Time{}},
		{"nil", nil, false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseClimbDate(tt.raw)
			if ok != tt.wantOK {
				t.Errorf("ParseClimbDate() ok = %v, want %v", ok, tt.wantOK)
				return
			}
			if ok && !got.Equal(tt.wantDate) {
				t.Errorf("ParseClimbDate() = %v, want %v", got, tt.wantDate)
			}
		})
	}
}

// TestRawRockRecord_ToRock tests guidebook CSV conversion
func TestRawRockRecord_ToRock(t *testing.T) {
	tests := []struct {
		name        string
		record      RawRockRecord
		wantErr     bool
		checkValues func(*testing.T, *Rock)
	}{
		{
			name: "valid record with coordinates",
			record: RawRockRecord{
				ID:        "10",
				Name:      "Falkenstein",
				SectorID:  "1",
				Latitude:  "50.9128",
				Longitude: "14.2107",
				Elevation: "381.5",
			},
			wantErr: false,
			checkValues: func(t *testing.T, r *Rock) {
				if r.ID != 10 {
					t.Errorf("ID = %v, want 10", r.ID)
				}
				if r.Name != "Falkenstein" {
					t.Errorf("Name = %v, want Falkenstein", r.Name)
				}
				if r.SectorID != 1 {
					t.Errorf("SectorID = %v, want 1", r.SectorID)
				}
				if r.Latitude == nil || *r.Latitude != 50.9128 {
					t.Errorf("Latitude = %v, want 50.9128", r.Latitude)
				}
				if r.Elevation == nil || *r.Elevation != 381.5 {
					t.Errorf("Elevation = %v, want 381.5", r.Elevation)
				}
			},
		},
		{
			name: "blank coordinates become nil",
			record: RawRockRecord{
				ID:       "11",
				Name:     "Kleiner Torstein",
				SectorID: "1",
			},
			wantErr: false,
			checkValues: func(t *testing.T, r *Rock) {
				if r.Latitude != nil {
					t.Error("Latitude should be nil for blank input")
				}
				if r.Longitude != nil {
					t.Error("Longitude should be nil for blank input")
				}
				if r.Elevation != nil {
					t.Error("Elevation should be nil for blank input")
				}
			},
		},
		{
			name: "non-numeric id",
			record: RawRockRecord{
				ID:       "abc",
				Name:     "Falkenstein",
				SectorID: "1",
			},
			wantErr: true,
		},
		{
			name: "empty name",
			record: RawRockRecord{
				ID:       "10",
				Name:     "  ",
				SectorID: "1",
			},
			wantErr: true,
		},
		{
			name: "garbage latitude",
			record: RawRockRecord{
				ID:       "10",
				Name:     "Falkenstein",
				SectorID: "1",
				Latitude: "north",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rock, err := tt.record.ToRock()

			if (err != nil) != tt.wantErr {
				t.Errorf("ToRock() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.checkValues != nil {
				tt.checkValues(t, rock)
			}
		})
	}
}

// TestRawRouteRecord_ToRoute tests route CSV conversion including star flags
func TestRawRouteRecord_ToRoute(t *testing.T) {
	tests := []struct {
		name        string
		record      RawRouteRecord
		wantErr     bool
		wantStar    bool
		wantGrade   *float64
	}{
		{
			name:     "star flag true",
			record:   RawRouteRecord{ID: "100", RockID: "10", Name: "Talseite", Grade: "7", Star: "true"},
			wantStar: true,
			wantGrade: func() *float64 { g := 7.0; return &g }(),
		},
		{
			name:     "star flag numeric",
			record:   RawRouteRecord{ID: "100", RockID: "10", Name: "Talseite", Star: "1"},
			wantStar: true,
		},
		{
			name:     "star flag blank",
			record:   RawRouteRecord{ID: "100", RockID: "10", Name: "Talseite"},
			wantStar: false,
		},
		{
			name:    "star flag garbage",
			record:  RawRouteRecord{ID: "100", RockID: "10", Name: "Talseite", Star: "maybe"},
			wantErr: true,
		},
		{
			name:    "grade garbage",
			record:  RawRouteRecord{ID: "100", RockID: "10", Name: "Talseite", Grade: "VIIb"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, err := tt.record.ToRoute()

			if (err != nil) != tt.wantErr {
				t.Errorf("ToRoute() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			if route.HasStar != tt.wantStar {
				t.Errorf("HasStar = %v, want %v", route.HasStar, tt.wantStar)
			}
			if tt.wantGrade != nil {
				if route.Grade == nil || *route.Grade != *tt.wantGrade {
					t.Errorf("Grade = %v, want %v", route.Grade, *tt.wantGrade)
				}
			}
		})
	}
}

// TestValidStyle tests the style whitelist
func TestValidStyle(t *testing.T) {
	for _, s := range Styles {
		if !ValidStyle(s) {
			t.Errorf("ValidStyle(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "vorstieg", "Toprope", "Flash"} {
		if ValidStyle(s) {
			t.Errorf("ValidStyle(%q) = true, want false", s)
		}
	}
}

// TestValidationError tests error handling
func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "date",
		Value:   "invalid",
		Message: "invalid date format",
	}

	if err.Error() != "invalid date format" {
		t.Errorf("Error() = %v, want %v", err.Error(), "invalid date format")
	}

	if err.IsTransient() {
		t.Error("ValidationError should not be transient")
	}
}
