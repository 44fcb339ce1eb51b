package services

import (
	"context"
	"errors"
	"testing"

	"felsenapp/internal/models"
	"felsenapp/internal/repository"
)

type recordingInvalidator struct {
	calls []string
}

func (r *recordingInvalidator) Invalidate(userID string) {
	r.calls = append(r.calls, userID)
}

func validEntry() *models.AscentEntry {
	return &models.AscentEntry{
		Date:    "2025-06-14",
		RockID:  10,
		RouteID: i64Ptr(100),
		Partner: "Ana",
		Style:   models.StyleVorstieg,
		Rating:  intPtr(2),
	}
}

func TestCreateAscent(t *testing.T) {
	repo := schrammsteineRepo()
	inv := &recordingInvalidator{}
	svc := NewLogbookService(repo, testLogger(), testCollector(), inv)

	before := len(repo.ascents)
	ascent, err := svc.CreateAscent(context.Background(), "u1", validEntry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ascent.ID == 0 {
		t.Error("expected assigned id")
	}
	if len(repo.ascents) != before+1 {
		t.Errorf("expected one new row, had %d now %d", before, len(repo.ascents))
	}
	if ascent.UserID != "u1" || ascent.Style != models.StyleVorstieg {
		t.Errorf("unexpected stored ascent: %+v", ascent)
	}
	if len(inv.calls) != 1 || inv.calls[0] != "u1" {
		t.Errorf("expected statistics invalidation for u1, got %v", inv.calls)
	}
}

func TestCreateAscent_NoUser(t *testing.T) {
	svc := NewLogbookService(&fakeRepo{}, testLogger(), testCollector(), nil)

	_, err := svc.CreateAscent(context.Background(), "", validEntry())
	if !errors.Is(err, ErrNoUser) {
		t.Errorf("expected ErrNoUser, got %v", err)
	}
}

func TestCreateAscent_InvalidEntry(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.AscentEntry)
	}{
		{"bad date", func(e *models.AscentEntry) { e.Date = "14.06.2025" }},
		{"missing rock", func(e *models.AscentEntry) { e.RockID = 0 }},
		{"unknown style", func(e *models.AscentEntry) { e.Style = "Toprope" }},
		{"rating too high", func(e *models.AscentEntry) { e.Rating = intPtr(4) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := schrammsteineRepo()
			inv := &recordingInvalidator{}
			svc := NewLogbookService(repo, testLogger(), testCollector(), inv)

			entry := validEntry()
			tt.mutate(entry)

			_, err := svc.CreateAscent(context.Background(), "u1", entry)
			var validationErr *models.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(inv.calls) != 0 {
				t.Error("rejected entry must not invalidate the cache")
			}
		})
	}
}

func TestRecentAscents(t *testing.T) {
	repo := &fakeRepo{
		rocks: []*models.Rock{
			{ID: 10, Name: "Falkenstein", SectorID: 1},
			{ID: 11, Name: "Kleiner Torstein", SectorID: 1},
		},
		routes: []*models.Route{
			{ID: 100, RockID: 10, Name: "Schusterweg", Grade: fPtr(3)},
		},
		ascents: []*models.Ascent{
			ascentRow(i64Ptr(10), i64Ptr(100), "2025-06-14", models.StyleVorstieg, "Ana"),
			ascentRow(i64Ptr(11), nil, "2025-08-02", models.StyleNachstieg, ""),
			ascentRow(i64Ptr(99), nil, "2025-07-20", models.StyleSolo, ""),
			ascentRow(i64Ptr(10), nil, "garbled", models.StyleVorstieg, ""),
			ascentRow(nil, nil, "2025-05-01", models.StyleSpritze, ""),
		},
	}
	svc := NewLogbookService(repo, testLogger(), testCollector(), nil)

	recent, err := svc.RecentAscents(context.Background(), "u1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Newest first, unparsable date skipped, limit applied.
	if len(recent) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(recent))
	}
	wantDates := []string{"2025-08-02", "2025-07-20", "2025-06-14"}
	for i, row := range recent {
		if row.Date != wantDates[i] {
			t.Errorf("row %d: expected date %s, got %s", i, wantDates[i], row.Date)
		}
	}

	if recent[0].RockName != "Kleiner Torstein" {
		t.Errorf("unexpected rock name: %s", recent[0].RockName)
	}
	if recent[1].RockName != "Rock #99" {
		t.Errorf("expected placeholder for dangling rock id, got %s", recent[1].RockName)
	}
	if recent[2].Grade == nil || *recent[2].Grade != 3 {
		t.Errorf("expected route grade joined in, got %v", recent[2].Grade)
	}
	if recent[2].Partner == nil || *recent[2].Partner != "Ana" {
		t.Errorf("expected partner carried over, got %v", recent[2].Partner)
	}
}

func TestRecentAscents_DefaultLimitAndEmpty(t *testing.T) {
	svc := NewLogbookService(&fakeRepo{}, testLogger(), testCollector(), nil)

	recent, err := svc.RecentAscents(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recent == nil || len(recent) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", recent)
	}

	if _, err := svc.RecentAscents(context.Background(), "", 5); !errors.Is(err, ErrNoUser) {
		t.Errorf("expected ErrNoUser, got %v", err)
	}
}

func TestSectorOverview(t *testing.T) {
	repo := &fakeRepo{
		sectors: []*models.Sector{
			{ID: 1, Name: "Rathen"},
			{ID: 2, Name: "Bielatal"},
			{ID: 3, Name: "Brand"},
		},
		rocks: []*models.Rock{
			{ID: 1, Name: "A", SectorID: 2},
			{ID: 2, Name: "B", SectorID: 2},
			{ID: 3, Name: "C", SectorID: 1},
		},
	}
	svc := NewLogbookService(repo, testLogger(), testCollector(), nil)

	summaries, err := svc.SectorOverview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summaries) != 3 {
		t.Fatalf("expected 3 sectors, got %d", len(summaries))
	}
	if summaries[0].Name != "Bielatal" || summaries[0].RockCount != 2 {
		t.Errorf("expected largest sector first, got %+v", summaries[0])
	}
	if summaries[2].Name != "Brand" || summaries[2].RockCount != 0 {
		t.Errorf("expected empty sector last with zero, got %+v", summaries[2])
	}
}

func TestRoutesByRock_UnknownRock(t *testing.T) {
	svc := NewLogbookService(schrammsteineRepo(), testLogger(), testCollector(), nil)

	_, err := svc.RoutesByRock(context.Background(), 404)
	var notFound *repository.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError, got %v", err)
	}

	routes, err := svc.RoutesByRock(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 1 || routes[0].Name != "Schusterweg" {
		t.Errorf("unexpected routes: %v", routes)
	}
}
