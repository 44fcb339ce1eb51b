package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Felsenapp API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Felsenapp API",
			"description": "Climbing logbook and statistics service for the Saxon Switzerland climbing area, backed by PostgreSQL",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Felsenapp Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/statistics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get climbing statistics",
					"description": "Compute the aggregated climbing statistics for the calling user",
					"parameters": []map[string]interface{}{
						{
							"name":        "X-User-ID",
							"in":          "header",
							"description": "Authenticated user id",
							"required":    true,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "goal",
							"in":          "query",
							"description": "Override the goal rock count for the years-to-goal estimate",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 1201},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"no_ascents":               map[string]string{"type": "boolean"},
											"total_rocks":              map[string]string{"type": "integer"},
											"distinct_climbed_rocks":   map[string]string{"type": "integer"},
											"percent_complete":         map[string]string{"type": "number"},
											"distinct_climbed_routes":  map[string]string{"type": "integer"},
											"total_ascents":            map[string]string{"type": "integer"},
											"top_partner":              map[string]interface{}{"type": "string", "nullable": true},
											"most_climbed_rock":        map[string]interface{}{"type": "string", "nullable": true},
											"goal_target":              map[string]string{"type": "integer"},
											"estimated_years_to_goal":  map[string]interface{}{"type": "number", "nullable": true},
											"average_yearly_new_peaks": map[string]interface{}{"type": "number", "nullable": true},
										},
									},
								},
							},
						},
						"401": map[string]interface{}{
							"description": "No user logged in",
						},
						"503": map[string]interface{}{
							"description": "Data store unavailable, retry later",
						},
					},
				},
			},
			"/api/ascents/recent": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get recent ascents",
					"description": "List the calling user's most recent dated climbs, newest first",
					"parameters": []map[string]interface{}{
						{
							"name":        "X-User-ID",
							"in":          "header",
							"description": "Authenticated user id",
							"required":    true,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Maximum rows to return (default: 10)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 10},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "array",
										"items": map[string]interface{}{
											"type": "object",
											"properties": map[string]interface{}{
												"date":      map[string]string{"type": "string", "format": "date"},
												"rock_name": map[string]string{"type": "string"},
												"grade":     map[string]interface{}{"type": "number", "nullable": true},
												"style":     map[string]string{"type": "string"},
												"partner":   map[string]interface{}{"type": "string", "nullable": true},
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/ascents": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Record an ascent",
					"description": "Validate and store a new logbook entry for the calling user",
					"parameters": []map[string]interface{}{
						{
							"name":        "X-User-ID",
							"in":          "header",
							"description": "Authenticated user id",
							"required":    true,
							"schema":      map[string]string{"type": "string"},
						},
					},
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"required": []string{"date", "rock_id", "style"},
									"properties": map[string]interface{}{
										"date":     map[string]string{"type": "string", "format": "date"},
										"rock_id":  map[string]string{"type": "integer"},
										"route_id": map[string]interface{}{"type": "integer", "nullable": true},
										"partner":  map[string]string{"type": "string"},
										"style":    map[string]interface{}{"type": "string", "enum": []string{"Vorstieg", "Nachstieg", "Solo", "Spritze"}},
										"comment":  map[string]string{"type": "string"},
										"rating":   map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 3, "nullable": true},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"201": map[string]interface{}{
							"description": "Ascent recorded",
						},
						"400": map[string]interface{}{
							"description": "Validation failed",
						},
					},
				},
			},
			"/api/sectors": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List sectors",
					"description": "List all climbing sectors with their rock counts, largest first",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
					},
				},
			},
			"/api/sectors/{id}/rocks": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List rocks of a sector",
					"description": "List the rocks of one sector for the entry form cascade",
					"parameters": []map[string]interface{}{
						{
							"name":     "id",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "integer"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
					},
				},
			},
			"/api/rocks/{id}/routes": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List routes on a rock",
					"description": "List the routes on one rock for the entry form cascade",
					"parameters": []map[string]interface{}{
						{
							"name":     "id",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "integer"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
						"404": map[string]interface{}{
							"description": "Rock not found",
						},
					},
				},
			},
			"/api/rocks/map": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get filtered rock map features",
					"description": "Rocks with coordinates, joined with sector names and per-user climbed status",
					"parameters": []map[string]interface{}{
						{
							"name":        "X-User-ID",
							"in":          "header",
							"description": "Optional user id for climbed flags",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "sector",
							"in":          "query",
							"description": "Filter by sector name",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "grade_min",
							"in":          "query",
							"description": "Keep rocks with at least one route at or above this grade",
							"required":    false,
							"schema":      map[string]string{"type": "number"},
						},
						{
							"name":        "grade_max",
							"in":          "query",
							"description": "Keep rocks with at least one route at or below this grade",
							"required":    false,
							"schema":      map[string]string{"type": "number"},
						},
						{
							"name":        "status",
							"in":          "query",
							"description": "Filter by climbed status: all, climbed, or unclimbed",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "star",
							"in":          "query",
							"description": "Keep only rocks with a starred route",
							"required":    false,
							"schema":      map[string]string{"type": "boolean"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status": map[string]string{"type": "string"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
