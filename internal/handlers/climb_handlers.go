package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"felsenapp/internal/models"
	"felsenapp/internal/repository"
	"felsenapp/internal/services"
	"felsenapp/pkg/logging"
	"felsenapp/pkg/metrics"
)

// userIDHeader carries the authenticated user for the session-scoped
// endpoints. The auth proxy in front of the API sets it.
const userIDHeader = "X-User-ID"

// ClimbHandler handles the climbing log API endpoints
type ClimbHandler struct {
	statsService   *services.StatisticsService
	logbookService *services.LogbookService
	mapService     *services.MapDataService
	repo           repository.ClimbRepository
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewClimbHandler creates a new climb handler
func NewClimbHandler(
	statsService *services.StatisticsService,
	logbookService *services.LogbookService,
	mapService *services.MapDataService,
	repo repository.ClimbRepository,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ClimbHandler {
	return &ClimbHandler{
		statsService:   statsService,
		logbookService: logbookService,
		mapService:     mapService,
		repo:           repo,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// GetStatistics handles GET /api/statistics
func (h *ClimbHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/statistics").Observe(duration.Seconds())
	}()

	userID := r.Header.Get(userIDHeader)

	var result *models.StatisticsResult
	var err error

	if goalStr := r.URL.Query().Get("goal"); goalStr != "" {
		goal, convErr := strconv.Atoi(goalStr)
		if convErr != nil || goal <= 0 {
			h.sendError(w, r, "invalid goal, expected positive integer", http.StatusBadRequest)
			return
		}
		result, err = h.statsService.ComputeWithGoal(ctx, userID, goal)
	} else {
		result, err = h.statsService.Compute(ctx, userID)
	}

	if err != nil {
		h.handleServiceError(w, r, "/api/statistics", "compute statistics", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/statistics", "GET", "200")
	h.sendJSON(w, result, http.StatusOK)
}

// GetRecentAscents handles GET /api/ascents/recent
func (h *ClimbHandler) GetRecentAscents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/ascents/recent").Observe(duration.Seconds())
	}()

	userID := r.Header.Get(userIDHeader)

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > 100 {
			h.sendError(w, r, "invalid limit, expected integer between 1 and 100", http.StatusBadRequest)
			return
		}
		limit = l
	}

	recent, err := h.logbookService.RecentAscents(ctx, userID, limit)
	if err != nil {
		h.handleServiceError(w, r, "/api/ascents/recent", "list recent ascents", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/ascents/recent", "GET", "200")
	h.sendJSON(w, recent, http.StatusOK)
}

// CreateAscent handles POST /api/ascents
func (h *ClimbHandler) CreateAscent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/ascents").Observe(duration.Seconds())
	}()

	userID := r.Header.Get(userIDHeader)

	var entry models.AscentEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		h.sendError(w, r, "invalid JSON body", http.StatusBadRequest)
		return
	}

	ascent, err := h.logbookService.CreateAscent(ctx, userID, &entry)
	if err != nil {
		h.handleServiceError(w, r, "/api/ascents", "create ascent", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/ascents", "POST", "201")
	h.sendJSON(w, ascent, http.StatusCreated)
}

// ListSectors handles GET /api/sectors
func (h *ClimbHandler) ListSectors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summaries, err := h.logbookService.SectorOverview(ctx)
	if err != nil {
		h.handleServiceError(w, r, "/api/sectors", "list sectors", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/sectors", "GET", "200")
	h.sendJSON(w, summaries, http.StatusOK)
}

// ListSectorRocks handles GET /api/sectors/{id}/rocks
func (h *ClimbHandler) ListSectorRocks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sectorID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || sectorID <= 0 {
		h.sendError(w, r, "invalid sector id", http.StatusBadRequest)
		return
	}

	rocks, err := h.logbookService.RocksBySector(ctx, sectorID)
	if err != nil {
		h.handleServiceError(w, r, "/api/sectors/{id}/rocks", "list sector rocks", err)
		return
	}
	if rocks == nil {
		rocks = []*models.Rock{}
	}

	h.metrics.RecordAPIRequest("/api/sectors/{id}/rocks", "GET", "200")
	h.sendJSON(w, rocks, http.StatusOK)
}

// ListRockRoutes handles GET /api/rocks/{id}/routes
func (h *ClimbHandler) ListRockRoutes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rockID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || rockID <= 0 {
		h.sendError(w, r, "invalid rock id", http.StatusBadRequest)
		return
	}

	routes, err := h.logbookService.RoutesByRock(ctx, rockID)
	if err != nil {
		h.handleServiceError(w, r, "/api/rocks/{id}/routes", "list rock routes", err)
		return
	}
	if routes == nil {
		routes = []*models.Route{}
	}

	h.metrics.RecordAPIRequest("/api/rocks/{id}/routes", "GET", "200")
	h.sendJSON(w, routes, http.StatusOK)
}

// GetRockMap handles GET /api/rocks/map
func (h *ClimbHandler) GetRockMap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/rocks/map").Observe(duration.Seconds())
	}()

	// The map works without a user; climbed flags are then all false.
	userID := r.Header.Get(userIDHeader)

	var filter services.RockFilter

	if sector := r.URL.Query().Get("sector"); sector != "" {
		filter.SectorName = &sector
	}

	if minStr := r.URL.Query().Get("grade_min"); minStr != "" {
		min, err := strconv.ParseFloat(minStr, 64)
		if err != nil {
			h.sendError(w, r, "invalid grade_min, expected number", http.StatusBadRequest)
			return
		}
		filter.GradeMin = &min
	}

	if maxStr := r.URL.Query().Get("grade_max"); maxStr != "" {
		max, err := strconv.ParseFloat(maxStr, 64)
		if err != nil {
			h.sendError(w, r, "invalid grade_max, expected number", http.StatusBadRequest)
			return
		}
		filter.GradeMax = &max
	}

	if status := r.URL.Query().Get("status"); status != "" {
		if !services.ValidStatus(status) {
			h.sendError(w, r, "invalid status, expected all, climbed, or unclimbed", http.StatusBadRequest)
			return
		}
		filter.Status = status
	}

	if starStr := r.URL.Query().Get("star"); starStr != "" {
		star, err := strconv.ParseBool(starStr)
		if err != nil {
			h.sendError(w, r, "invalid star, expected boolean", http.StatusBadRequest)
			return
		}
		filter.StarOnly = star
	}

	features, err := h.mapService.MapRocks(ctx, userID, filter)
	if err != nil {
		h.handleServiceError(w, r, "/api/rocks/map", "build rock map", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/rocks/map", "GET", "200")
	h.sendJSON(w, features, http.StatusOK)
}

// HealthCheck handles GET /health. Liveness plus a data store round-trip;
// the service reports unhealthy when the store is unreachable.
func (h *ClimbHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.repo.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_ERROR] Data store unreachable", logging.Fields{}, err)
		h.metrics.RecordAPIError("store_unavailable", "/health")
		h.sendJSON(w, map[string]string{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, http.StatusServiceUnavailable)
		return
	}

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// handleServiceError maps service errors onto HTTP status codes. Transient
// store failures become 503 so clients know to retry instead of treating an
// empty logbook as truth.
func (h *ClimbHandler) handleServiceError(w http.ResponseWriter, r *http.Request, endpoint, op string, err error) {
	ctx := r.Context()

	var validationErr *models.ValidationError
	var notFoundErr *repository.NotFoundError
	var unavailableErr *services.StoreUnavailableError

	switch {
	case errors.Is(err, services.ErrNoUser):
		h.metrics.RecordAPIError("unauthenticated", endpoint)
		h.sendError(w, r, "no user logged in", http.StatusUnauthorized)
	case errors.As(err, &validationErr):
		h.metrics.RecordAPIError("validation", endpoint)
		h.sendError(w, r, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &notFoundErr):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, notFoundErr.Error(), http.StatusNotFound)
	case errors.As(err, &unavailableErr):
		h.logger.Error(ctx, "[API_STORE_ERROR] Data store unavailable", logging.Fields{
			"endpoint": endpoint,
			"op":       op,
		}, err)
		h.metrics.RecordAPIError("store_unavailable", endpoint)
		h.sendError(w, r, "data store temporarily unavailable, please retry", http.StatusServiceUnavailable)
	default:
		h.logger.Error(ctx, "[API_ERROR] Request failed", logging.Fields{
			"endpoint": endpoint,
			"op":       op,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "failed to "+op, http.StatusInternalServerError)
	}
}

// sendJSON sends a JSON response
func (h *ClimbHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *ClimbHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all climbing log API routes
func (h *ClimbHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/statistics", h.GetStatistics).Methods("GET")
	router.HandleFunc("/api/ascents/recent", h.GetRecentAscents).Methods("GET")
	router.HandleFunc("/api/ascents", h.CreateAscent).Methods("POST")
	router.HandleFunc("/api/sectors", h.ListSectors).Methods("GET")
	router.HandleFunc("/api/sectors/{id}/rocks", h.ListSectorRocks).Methods("GET")
	router.HandleFunc("/api/rocks/map", h.GetRockMap).Methods("GET")
	router.HandleFunc("/api/rocks/{id}/routes", h.ListRockRoutes).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
