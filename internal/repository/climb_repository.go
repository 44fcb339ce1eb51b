package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"felsenapp/internal/models"
	"felsenapp/pkg/database"
	"felsenapp/pkg/logging"
	"felsenapp/pkg/metrics"
)

// pageSize is the row cap per listing query. The full-table listings page
// through the store in windows of this size until a short page comes back.
const pageSize = 1000

// ClimbRepository provides data access for the climbing log
type ClimbRepository interface {
	// Guidebook reads
	ListSectors(ctx context.Context) ([]*models.Sector, error)
	ListRocks(ctx context.Context) ([]*models.Rock, error)
	ListRocksBySector(ctx context.Context, sectorID int64) ([]*models.Rock, error)
	ListRoutes(ctx context.Context) ([]*models.Route, error)
	ListRoutesByRock(ctx context.Context, rockID int64) ([]*models.Route, error)
	GetRock(ctx context.Context, id int64) (*models.Rock, error)

	// Logbook operations
	ListAscentsByUser(ctx context.Context, userID string) ([]*models.Ascent, error)
	CreateAscent(ctx context.Context, ascent *models.Ascent) error

	// Guidebook ingestion
	CreateSectorsBatch(ctx context.Context, sectors []*models.Sector) error
	CreateRocksBatch(ctx context.Context, rocks []*models.Rock) error
	CreateRoutesBatch(ctx context.Context, routes []*models.Route) error

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// climbRepository implements ClimbRepository
type climbRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewClimbRepository creates a new climbing-log repository
func NewClimbRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) ClimbRepository {
	return &climbRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ListSectors retrieves all sectors. The sector table is small enough that a
// single page always suffices.
func (r *climbRepository) ListSectors(ctx context.Context) ([]*models.Sector, error) {
	query := `
		SELECT id, name, created_at
		FROM sectors
		ORDER BY id
	`

	var sectors []*models.Sector
	if err := r.db.SelectContext(ctx, "list_sectors", &sectors, query); err != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}

	return sectors, nil
}

// ListRocks retrieves every rock, paging through the store until a short
// page is returned.
func (r *climbRepository) ListRocks(ctx context.Context) ([]*models.Rock, error) {
	query := `
		SELECT id, name, sector_id, latitude, longitude, elevation, created_at
		FROM rocks
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	var rocks []*models.Rock
	for offset := 0; ; offset += pageSize {
		var page []*models.Rock
		if err := r.db.SelectContext(ctx, "list_rocks", &page, query, pageSize, offset); err != nil {
			return nil, fmt.Errorf("failed to list rocks: %w", err)
		}

		rocks = append(rocks, page...)
		if len(page) < pageSize {
			break
		}
	}

	return rocks, nil
}

// ListRocksBySector retrieves the rocks of one sector.
func (r *climbRepository) ListRocksBySector(ctx context.Context, sectorID int64) ([]*models.Rock, error) {
	query := `
		SELECT id, name, sector_id, latitude, longitude, elevation, created_at
		FROM rocks
		WHERE sector_id = $1
		ORDER BY name
	`

	var rocks []*models.Rock
	if err := r.db.SelectContext(ctx, "list_rocks_by_sector", &rocks, query, sectorID); err != nil {
		return nil, fmt.Errorf("failed to list rocks for sector %d: %w", sectorID, err)
	}

	return rocks, nil
}

// ListRoutes retrieves every route, paging like ListRocks. The route table
// is the largest of the four (tens of thousands of rows).
func (r *climbRepository) ListRoutes(ctx context.Context) ([]*models.Route, error) {
	query := `
		SELECT id, rock_id, name, number, grade, has_star, created_at
		FROM routes
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	var routes []*models.Route
	for offset := 0; ; offset += pageSize {
		var page []*models.Route
		if err := r.db.SelectContext(ctx, "list_routes", &page, query, pageSize, offset); err != nil {
			return nil, fmt.Errorf("failed to list routes: %w", err)
		}

		routes = append(routes, page...)
		if len(page) < pageSize {
			break
		}
	}

	return routes, nil
}

// ListRoutesByRock retrieves the routes on one rock.
func (r *climbRepository) ListRoutesByRock(ctx context.Context, rockID int64) ([]*models.Route, error) {
	query := `
		SELECT id, rock_id, name, number, grade, has_star, created_at
		FROM routes
		WHERE rock_id = $1
		ORDER BY name
	`

	var routes []*models.Route
	if err := r.db.SelectContext(ctx, "list_routes_by_rock", &routes, query, rockID); err != nil {
		return nil, fmt.Errorf("failed to list routes for rock %d: %w", rockID, err)
	}

	return routes, nil
}

// GetRock retrieves a single rock by id
func (r *climbRepository) GetRock(ctx context.Context, id int64) (*models.Rock, error) {
	query := `
		SELECT id, name, sector_id, latitude, longitude, elevation, created_at
		FROM rocks
		WHERE id = $1
	`

	var rock models.Rock
	err := r.db.GetContext(ctx, "get_rock", &rock, query, id)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "rock",
			ID:       strconv.FormatInt(id, 10),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get rock: %w", err)
	}

	return &rock, nil
}

// ListAscentsByUser retrieves all logbook rows for one user, newest first.
func (r *climbRepository) ListAscentsByUser(ctx context.Context, userID string) ([]*models.Ascent, error) {
	query := `
		SELECT id, user_id, rock_id, route_id, date, partner, style, comment, rating, created_at
		FROM ascents
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`

	var ascents []*models.Ascent
	for offset := 0; ; offset += pageSize {
		var page []*models.Ascent
		if err := r.db.SelectContext(ctx, "list_ascents", &page, query, userID, pageSize, offset); err != nil {
			return nil, fmt.Errorf("failed to list ascents: %w", err)
		}

		ascents = append(ascents, page...)
		if len(page) < pageSize {
			break
		}
	}

	return ascents, nil
}

// CreateAscent inserts a new logbook entry
func (r *climbRepository) CreateAscent(ctx context.Context, ascent *models.Ascent) error {
	query := `
		INSERT INTO ascents (user_id, rock_id, route_id, date, partner, style, comment, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		ascent.UserID,
		ascent.RockID,
		ascent.RouteID,
		ascent.Date,
		ascent.Partner,
		ascent.Style,
		ascent.Comment,
		ascent.Rating,
		ascent.CreatedAt,
	).Scan(&ascent.ID)

	if err != nil {
		return fmt.Errorf("failed to create ascent: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_CREATE_ASCENT] Ascent created", logging.Fields{
		"ascent_id": ascent.ID,
		"rock_id":   ascent.RockID,
		"style":     ascent.Style,
	})

	return nil
}

// CreateSectorsBatch inserts sectors in a single transaction, skipping
// already-loaded ids so re-ingestion is idempotent.
func (r *climbRepository) CreateSectorsBatch(ctx context.Context, sectors []*models.Sector) error {
	if len(sectors) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sectors (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, sector := range sectors {
		if _, err := stmt.ExecContext(ctx, sector.ID, sector.Name, sector.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert sector %d: %w", sector.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CreateRocksBatch inserts rocks in a single transaction
func (r *climbRepository) CreateRocksBatch(ctx context.Context, rocks []*models.Rock) error {
	if len(rocks) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		r.metrics.IngestionBatchSize.Observe(float64(len(rocks)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Rock batch insert completed", logging.Fields{
			"count":       len(rocks),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rocks (id, name, sector_id, latitude, longitude, elevation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			sector_id = EXCLUDED.sector_id,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			elevation = EXCLUDED.elevation
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rock := range rocks {
		_, err := stmt.ExecContext(ctx,
			rock.ID,
			rock.Name,
			rock.SectorID,
			rock.Latitude,
			rock.Longitude,
			rock.Elevation,
			rock.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert rock %d: %w", rock.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(rocks)))

	return nil
}

// CreateRoutesBatch inserts routes in a single transaction
func (r *climbRepository) CreateRoutesBatch(ctx context.Context, routes []*models.Route) error {
	if len(routes) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		r.metrics.IngestionBatchSize.Observe(float64(len(routes)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Route batch insert completed", logging.Fields{
			"count":       len(routes),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO routes (id, rock_id, name, number, grade, has_star, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			rock_id = EXCLUDED.rock_id,
			name = EXCLUDED.name,
			number = EXCLUDED.number,
			grade = EXCLUDED.grade,
			has_star = EXCLUDED.has_star
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, route := range routes {
		_, err := stmt.ExecContext(ctx,
			route.ID,
			route.RockID,
			route.Name,
			route.Number,
			route.Grade,
			route.HasStar,
			route.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert route %d: %w", route.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(routes)))

	return nil
}

// HealthCheck performs a repository health check
func (r *climbRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
