package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Eco Monitor API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Eco Monitor API",
			"description": "Air quality monitoring platform with autonomous collection, forecasting, alerting and trend analysis",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Eco Monitor Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/run-agent/{task_type}": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Run a monitoring task",
					"description": "Execute one task synchronously: collect_data, analyze, forecast or check_alerts",
					"parameters": []map[string]interface{}{
						{
							"name":        "task_type",
							"in":          "path",
							"description": "Task to run",
							"required":    true,
							"schema": map[string]interface{}{
								"type": "string",
								"enum": []string{"collect_data", "analyze", "forecast", "check_alerts"},
							},
						},
						{
							"name":        "location",
							"in":          "query",
							"description": "Location filter for the analyze task (prefix match, or 'all')",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Task completed",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status":  map[string]string{"type": "string"},
											"message": map[string]string{"type": "string"},
											"data":    map[string]interface{}{"type": "object", "nullable": true},
										},
									},
								},
							},
						},
						"400": map[string]interface{}{
							"description": "Unknown task type",
						},
						"500": map[string]interface{}{
							"description": "Task failed; body carries the error envelope",
						},
					},
				},
			},
			"/api/data/measurements": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get recent measurements",
					"description": "Retrieve stored air quality measurements, newest first",
					"parameters": []map[string]interface{}{
						{
							"name":        "hours",
							"in":          "query",
							"description": "Lookback window in hours (default: 24)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 24},
						},
						{
							"name":        "location",
							"in":          "query",
							"description": "Filter by exact location name",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
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
												"id":            map[string]string{"type": "integer"},
												"location_name": map[string]string{"type": "string"},
												"latitude":      map[string]string{"type": "number"},
												"longitude":     map[string]string{"type": "number"},
												"timestamp":     map[string]string{"type": "string", "format": "date-time"},
												"pm25":          map[string]interface{}{"type": "number", "nullable": true},
												"pm10":          map[string]interface{}{"type": "number", "nullable": true},
												"no2":           map[string]interface{}{"type": "number", "nullable": true},
												"o3":            map[string]interface{}{"type": "number", "nullable": true},
												"co":            map[string]interface{}{"type": "number", "nullable": true},
												"temperature":   map[string]interface{}{"type": "number", "nullable": true},
												"humidity":      map[string]interface{}{"type": "number", "nullable": true},
												"created_at":    map[string]string{"type": "string", "format": "date-time"},
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/data/forecasts": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get recent forecasts",
					"description": "Retrieve stored PM2.5 forecasts, newest first",
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
												"id":             map[string]string{"type": "integer"},
												"location_name":  map[string]string{"type": "string"},
												"forecast_time":  map[string]string{"type": "string", "format": "date-time"},
												"predicted_pm25": map[string]string{"type": "number"},
												"predicted_pm10": map[string]string{"type": "number"},
												"predicted_aqi":  map[string]string{"type": "integer"},
												"confidence":     map[string]string{"type": "number"},
												"created_at":     map[string]string{"type": "string", "format": "date-time"},
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/data/alerts": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get alerts",
					"description": "Retrieve pollution alerts, newest first",
					"parameters": []map[string]interface{}{
						{
							"name":        "active_only",
							"in":          "query",
							"description": "Only unresolved alerts (default: true)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "boolean", "default": true},
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
												"id":            map[string]string{"type": "integer"},
												"location_name": map[string]string{"type": "string"},
												"alert_type":    map[string]string{"type": "string"},
												"severity":      map[string]string{"type": "string"},
												"message":       map[string]string{"type": "string"},
												"value":         map[string]string{"type": "number"},
												"threshold":     map[string]string{"type": "number"},
												"is_active":     map[string]string{"type": "boolean"},
												"created_at":    map[string]string{"type": "string", "format": "date-time"},
												"resolved_at":   map[string]interface{}{"type": "string", "format": "date-time", "nullable": true},
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/data/analyses": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get analysis reports",
					"description": "Retrieve persisted trend analyses, newest first",
					"parameters": []map[string]interface{}{
						{
							"name":        "hours",
							"in":          "query",
							"description": "Lookback window in hours (default: 168)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 168},
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
												"id":                map[string]string{"type": "integer"},
												"analysis_type":     map[string]string{"type": "string"},
												"location_name":     map[string]string{"type": "string"},
												"pm25_trend":        map[string]string{"type": "string"},
												"pm25_avg":          map[string]string{"type": "number"},
												"anomalies_count":   map[string]string{"type": "integer"},
												"summary":           map[string]string{"type": "string"},
												"detailed_analysis": map[string]string{"type": "string"},
												"period_start":      map[string]string{"type": "string", "format": "date-time"},
												"period_end":        map[string]string{"type": "string", "format": "date-time"},
												"created_at":        map[string]string{"type": "string", "format": "date-time"},
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/data/current": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get current status",
					"description": "Snapshot of the trailing hour: measurement count, active alerts and covered locations",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"timestamp":           map[string]string{"type": "string", "format": "date-time"},
											"measurements_count":  map[string]string{"type": "integer"},
											"active_alerts_count": map[string]string{"type": "integer"},
											"locations": map[string]interface{}{
												"type":  "array",
												"items": map[string]string{"type": "string"},
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/alerts/{id}/resolve": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Resolve an alert",
					"description": "Mark an active alert as resolved",
					"parameters": []map[string]interface{}{
						{
							"name":        "id",
							"in":          "path",
							"description": "Alert ID",
							"required":    true,
							"schema":      map[string]string{"type": "integer"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Alert resolved",
						},
						"404": map[string]interface{}{
							"description": "Alert not found",
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API and its store are reachable",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status":    map[string]string{"type": "string"},
											"timestamp": map[string]string{"type": "string", "format": "date-time"},
										},
									},
								},
							},
						},
						"503": map[string]interface{}{
							"description": "Store unreachable",
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
