// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/movies": {
            "get": {
                "description": "Recomputes rankings and returns all movies ordered by rating ascending. With title, returns only the first exact title match.",
                "produces": ["application/json"],
                "tags": ["Movies"],
                "summary": "List movies",
                "operationId": "listMovies",
                "parameters": [
                    {"type": "string", "description": "Exact title filter", "name": "title", "in": "query"},
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListMoviesResponse"}},
                    "304": {"description": "Not Modified"},
                    "404": {"description": "No movie with that title", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Fetches catalog details and stores an unrated movie. Repeating a request with the same Idempotency-Key returns the original movie with 200.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Movies"],
                "summary": "Add a movie from the catalog",
                "operationId": "createMovie",
                "parameters": [
                    {"type": "string", "description": "Idempotency key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Catalog id", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateMovieRequest"}}
                ],
                "responses": {
                    "200": {"description": "Replayed", "schema": {"$ref": "#/definitions/domain.Movie"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Movie"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Catalog record missing", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Catalog unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/movies/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Movies"],
                "summary": "Get a movie",
                "operationId": "getMovie",
                "parameters": [{"type": "integer", "description": "Movie ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Movie"}},
                    "400": {"description": "Bad id", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Movie not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Deleting a missing id succeeds.",
                "tags": ["Movies"],
                "summary": "Delete a movie",
                "operationId": "deleteMovie",
                "parameters": [{"type": "integer", "description": "Movie ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad id", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/movies/{id}/rating": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Movies"],
                "summary": "Rate a movie",
                "operationId": "rateMovie",
                "parameters": [
                    {"type": "integer", "description": "Movie ID", "name": "id", "in": "path", "required": true},
                    {"description": "Rating and review", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RateMovieRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Movie"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Movie not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Rating above 10", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/catalog/search": {
            "get": {
                "description": "Returns raw catalog matches; an unknown title yields an empty list.",
                "produces": ["application/json"],
                "tags": ["Catalog"],
                "summary": "Search the movie catalog",
                "operationId": "searchCatalog",
                "parameters": [{"type": "string", "description": "Title to search for", "name": "query", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SearchResponse"}},
                    "400": {"description": "Missing query", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Catalog unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "catalog.SearchResult": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "original_title": {"type": "string"},
                "release_date": {"type": "string"},
                "overview": {"type": "string"},
                "poster_path": {"type": "string"},
                "vote_average": {"type": "number"}
            }
        },
        "domain.Movie": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "catalog_id": {"type": "integer"},
                "title": {"type": "string"},
                "year": {"type": "string", "example": "(1999)"},
                "description": {"type": "string"},
                "rating": {"type": "number"},
                "ranking": {"type": "integer"},
                "review": {"type": "string"},
                "img_url": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handlers.CreateMovieRequest": {
            "type": "object",
            "required": ["catalog_id"],
            "properties": {"catalog_id": {"type": "integer", "example": 550}}
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "movie not found"},
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"}
            }
        },
        "handlers.ListMoviesResponse": {
            "type": "object",
            "properties": {"movies": {"type": "array", "items": {"$ref": "#/definitions/domain.Movie"}}}
        },
        "handlers.RateMovieRequest": {
            "type": "object",
            "required": ["rating"],
            "properties": {
                "rating": {"type": "number", "example": 7.5},
                "review": {"type": "string", "maxLength": 1000}
            }
        },
        "handlers.SearchResponse": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/catalog.SearchResult"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Top Movies API",
	Description:      "Personal ranked movie list backed by the TMDB catalog.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
