package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"felsenapp/internal/models"
	"felsenapp/internal/repository"
	"felsenapp/pkg/logging"
	"felsenapp/pkg/metrics"
)

// Guidebook file names expected in the ingestion directory.
const (
	sectorsFile = "sectors.csv"
	rocksFile   = "rocks.csv"
	routesFile  = "routes.csv"
)

// IngestionService loads guidebook data (sectors, rocks, routes) from CSV
// files into the store. Re-running over the same files is idempotent.
type IngestionService struct {
	repo    repository.ClimbRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	SectorsLoaded     int
	RocksLoaded       int
	RoutesLoaded      int
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.ClimbRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestDirectory loads sectors.csv, rocks.csv, and routes.csv from dataDir.
// Sectors load first so rock rows land against known areas; bad rows are
// skipped and reported, not fatal.
func (s *IngestionService) IngestDirectory(ctx context.Context, dataDir string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting guidebook ingestion", logging.Fields{
		"data_dir":   dataDir,
		"batch_size": batchSize,
	})

	result := &IngestionResult{
		Errors: make([]string, 0),
	}

	if err := s.ingestSectors(ctx, filepath.Join(dataDir, sectorsFile), batchSize, result); err != nil {
		return nil, err
	}
	if err := s.ingestRocks(ctx, filepath.Join(dataDir, rocksFile), batchSize, result); err != nil {
		return nil, err
	}
	if err := s.ingestRoutes(ctx, filepath.Join(dataDir, routesFile), batchSize, result); err != nil {
		return nil, err
	}

	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[INGEST_COMPLETE] Guidebook ingestion completed", logging.Fields{
		"sectors":          result.SectorsLoaded,
		"rocks":            result.RocksLoaded,
		"routes":           result.RoutesLoaded,
		"failed_records":   result.FailedRecords,
		"duration_seconds": result.Duration.Seconds(),
	})

	return result, nil
}

func (s *IngestionService) ingestSectors(ctx context.Context, path string, batchSize int, result *IngestionResult) error {
	var batch []*models.Sector

	flush := func() error {
		if err := s.repo.CreateSectorsBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert sector batch: %w", err)
		}
		result.SectorsLoaded += len(batch)
		batch = batch[:0]
		return nil
	}

	err := s.readCSV(ctx, path, 2, func(fields []string) {
		result.TotalRecords++
		record := models.RawSectorRecord{ID: fields[0], Name: fields[1]}
		sector, err := record.ToSector()
		if err != nil {
			s.recordRowError(result, path, err)
			return
		}
		result.SuccessfulRecords++
		batch = append(batch, sector)
	}, func() error {
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}

	return flush()
}

func (s *IngestionService) ingestRocks(ctx context.Context, path string, batchSize int, result *IngestionResult) error {
	var batch []*models.Rock

	flush := func() error {
		if err := s.repo.CreateRocksBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert rock batch: %w", err)
		}
		result.RocksLoaded += len(batch)
		batch = batch[:0]
		return nil
	}

	err := s.readCSV(ctx, path, 6, func(fields []string) {
		result.TotalRecords++
		record := models.RawRockRecord{
			ID:        fields[0],
			Name:      fields[1],
			SectorID:  fields[2],
			Latitude:  fields[3],
			Longitude: fields[4],
			Elevation: fields[5],
		}
		rock, err := record.ToRock()
		if err != nil {
			s.recordRowError(result, path, err)
			return
		}
		result.SuccessfulRecords++
		batch = append(batch, rock)
	}, func() error {
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}

	return flush()
}

func (s *IngestionService) ingestRoutes(ctx context.Context, path string, batchSize int, result *IngestionResult) error {
	var batch []*models.Route

	flush := func() error {
		if err := s.repo.CreateRoutesBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert route batch: %w", err)
		}
		result.RoutesLoaded += len(batch)
		batch = batch[:0]
		return nil
	}

	err := s.readCSV(ctx, path, 6, func(fields []string) {
		result.TotalRecords++
		record := models.RawRouteRecord{
			ID:     fields[0],
			RockID: fields[1],
			Name:   fields[2],
			Number: fields[3],
			Grade:  fields[4],
			Star:   fields[5],
		}
		route, err := record.ToRoute()
		if err != nil {
			s.recordRowError(result, path, err)
			return
		}
		result.SuccessfulRecords++
		batch = append(batch, route)
	}, func() error {
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}

	return flush()
}

// readCSV streams a headered CSV file row by row. rowFn receives each data
// row with exactly wantFields columns; afterRow runs after every row so the
// caller can flush full batches.
func (s *IngestionService) readCSV(ctx context.Context, path string, wantFields int, rowFn func([]string), afterRow func() error) error {
	file, err := os.Open(path)
	if err != nil {
		s.metrics.RecordIngestionError("file_open")
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = wantFields

	// Skip header row
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil
		}
		s.metrics.RecordIngestionError("header_read")
		return fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.metrics.RecordIngestionError("row_read")
			s.logger.Warn(ctx, "[INGEST_ROW_ERROR] Skipping malformed CSV row", logging.Fields{
				"file": path,
			})
			continue
		}

		rowFn(fields)
		if err := afterRow(); err != nil {
			return err
		}
	}

	return nil
}

func (s *IngestionService) recordRowError(result *IngestionResult, path string, err error) {
	result.FailedRecords++
	s.metrics.RecordIngestionError("validation")
	if len(result.Errors) < 100 {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", filepath.Base(path), err))
	}
}
