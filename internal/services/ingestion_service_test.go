package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGuidebook(t *testing.T, dir string, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeGuidebook(t, dir, "sectors.csv", strings.Join([]string{
		"id,name",
		"1,Schrammsteine",
		"2,Bielatal",
	}, "\n"))
	writeGuidebook(t, dir, "rocks.csv", strings.Join([]string{
		"id,name,sector_id,lat,lon,elev",
		"10,Falkenstein,1,50.91,14.18,382",
		"11,Kleiner Torstein,1,50.90,14.19,",
		"12,Herkulessäule,2,,,",
	}, "\n"))
	writeGuidebook(t, dir, "routes.csv", strings.Join([]string{
		"id,rock_id,name,number,grade,star",
		"100,10,Schusterweg,1,3,1",
		"101,10,Südriss,2,7,0",
		"102,11,Alter Weg,,2,",
	}, "\n"))

	repo := &fakeRepo{}
	svc := NewIngestionService(repo, testLogger(), testCollector())

	result, err := svc.IngestDirectory(context.Background(), dir, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SectorsLoaded != 2 || result.RocksLoaded != 3 || result.RoutesLoaded != 3 {
		t.Errorf("unexpected load counts: %+v", result)
	}
	if result.TotalRecords != 8 || result.SuccessfulRecords != 8 || result.FailedRecords != 0 {
		t.Errorf("unexpected record counts: %+v", result)
	}

	if len(repo.sectors) != 2 || len(repo.rocks) != 3 || len(repo.routes) != 3 {
		t.Errorf("store row counts wrong: %d sectors, %d rocks, %d routes",
			len(repo.sectors), len(repo.rocks), len(repo.routes))
	}

	var falkenstein, herkules bool
	for _, rock := range repo.rocks {
		switch rock.Name {
		case "Falkenstein":
			falkenstein = true
			if rock.Latitude == nil || *rock.Latitude != 50.91 || rock.Elevation == nil || *rock.Elevation != 382 {
				t.Errorf("unexpected coordinates: %+v", rock)
			}
		case "Herkulessäule":
			herkules = true
			if rock.Latitude != nil || rock.Longitude != nil {
				t.Errorf("blank coordinates should stay nil: %+v", rock)
			}
		}
	}
	if !falkenstein || !herkules {
		t.Error("expected both named rocks to be loaded")
	}

	for _, route := range repo.routes {
		if route.Name == "Schusterweg" && !route.HasStar {
			t.Error("expected star flag parsed from 1")
		}
		if route.Name == "Alter Weg" && route.HasStar {
			t.Error("blank star flag should parse as false")
		}
	}
}

func TestIngestDirectory_BadRowsReported(t *testing.T) {
	dir := t.TempDir()
	writeGuidebook(t, dir, "sectors.csv", strings.Join([]string{
		"id,name",
		"1,Schrammsteine",
		"x,Bad Sector",
	}, "\n"))
	writeGuidebook(t, dir, "rocks.csv", strings.Join([]string{
		"id,name,sector_id,lat,lon,elev",
		"10,Falkenstein,1,50.91,14.18,382",
		"11,Broken Rock,not-a-number,,,",
	}, "\n"))
	writeGuidebook(t, dir, "routes.csv", strings.Join([]string{
		"id,rock_id,name,number,grade,star",
		"100,10,Schusterweg,1,3,maybe",
	}, "\n"))

	repo := &fakeRepo{}
	svc := NewIngestionService(repo, testLogger(), testCollector())

	result, err := svc.IngestDirectory(context.Background(), dir, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FailedRecords != 3 {
		t.Errorf("expected 3 failed records, got %d", result.FailedRecords)
	}
	if result.SuccessfulRecords != 2 {
		t.Errorf("expected 2 successful records, got %d", result.SuccessfulRecords)
	}
	if len(result.Errors) != 3 {
		t.Errorf("expected 3 row errors reported, got %v", result.Errors)
	}
	if len(repo.sectors) != 1 || len(repo.rocks) != 1 || len(repo.routes) != 0 {
		t.Errorf("bad rows must not reach the store: %d sectors, %d rocks, %d routes",
			len(repo.sectors), len(repo.rocks), len(repo.routes))
	}
}

func TestIngestDirectory_MissingFile(t *testing.T) {
	dir := t.TempDir()
	writeGuidebook(t, dir, "sectors.csv", "id,name\n1,Schrammsteine")

	svc := NewIngestionService(&fakeRepo{}, testLogger(), testCollector())

	if _, err := svc.IngestDirectory(context.Background(), dir, 10); err == nil {
		t.Error("expected an error when a guidebook file is missing")
	}
}

func TestIngestDirectory_Rerun(t *testing.T) {
	dir := t.TempDir()
	writeGuidebook(t, dir, "sectors.csv", "id,name\n1,Schrammsteine")
	writeGuidebook(t, dir, "rocks.csv", "id,name,sector_id,lat,lon,elev\n10,Falkenstein,1,,,")
	writeGuidebook(t, dir, "routes.csv", "id,rock_id,name,number,grade,star\n100,10,Schusterweg,1,3,1")

	repo := &fakeRepo{}
	svc := NewIngestionService(repo, testLogger(), testCollector())

	for i := 0; i < 2; i++ {
		result, err := svc.IngestDirectory(context.Background(), dir, 10)
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
		if result.FailedRecords != 0 {
			t.Errorf("run %d: unexpected failures: %+v", i, result)
		}
	}
}
