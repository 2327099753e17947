// Package docs registers the OpenAPI document served under /swagger.
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
        "/incidents": {
            "get": {
                "description": "Returns intercepted errors, newest first.",
                "produces": ["application/json"],
                "tags": ["Incidents"],
                "summary": "List recorded incidents",
                "operationId": "listIncidents",
                "parameters": [
                    {"type": "string", "example": "NOT_FOUND", "description": "Filter by envelope code", "name": "code", "in": "query"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Body"}},
                    "422": {"description": "Invalid code filter", "schema": {"$ref": "#/definitions/domain.Body"}}
                }
            }
        },
        "/incidents/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Incidents"],
                "summary": "Incident counts per code",
                "operationId": "incidentStats",
                "parameters": [
                    {"type": "string", "example": "2024-01-01T00:00:00Z", "description": "Only count incidents at or after this time (RFC3339)", "name": "since", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Body"}},
                    "400": {"description": "Malformed since", "schema": {"$ref": "#/definitions/domain.Body"}}
                }
            }
        },
        "/items": {
            "get": {
                "description": "Returns a page of items, newest first. Supports weak ETag via If-None-Match and may return 304.",
                "produces": ["application/json"],
                "tags": ["Items"],
                "summary": "List items (paginated)",
                "operationId": "listItems",
                "parameters": [
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Body"}, "headers": {"ETag": {"type": "string", "description": "Weak ETag for current result"}}},
                    "304": {"description": "Not Modified", "schema": {"type": "string"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/domain.Body"}}
                }
            },
            "post": {
                "description": "Creates an item. Names are unique.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Items"],
                "summary": "Create an item",
                "operationId": "createItem",
                "parameters": [
                    {"description": "Create item payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Body"}},
                    "400": {"description": "Malformed body", "schema": {"$ref": "#/definitions/domain.Body"}},
                    "409": {"description": "Duplicate name", "schema": {"$ref": "#/definitions/domain.Body"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/domain.Body"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/domain.Body"}}
                }
            }
        },
        "/items/export": {
            "get": {
                "description": "One \"id<TAB>name\" line per item on the first page (max 100). The body is plain text, not an envelope.",
                "produces": ["text/plain"],
                "tags": ["Items"],
                "summary": "Export items as text",
                "operationId": "exportItems",
                "responses": {
                    "200": {"description": "Item lines", "schema": {"type": "string"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/domain.Body"}}
                }
            }
        },
        "/items/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Items"],
                "summary": "Get an item",
                "operationId": "getItem",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Item ID (UUID)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Body"}},
                    "400": {"description": "Malformed ID", "schema": {"$ref": "#/definitions/domain.Body"}},
                    "404": {"description": "Item not found", "schema": {"$ref": "#/definitions/domain.Body"}}
                }
            },
            "delete": {
                "tags": ["Items"],
                "summary": "Delete an item",
                "operationId": "deleteItem",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Item ID (UUID)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content", "schema": {"type": "string"}},
                    "400": {"description": "Malformed ID", "schema": {"$ref": "#/definitions/domain.Body"}},
                    "404": {"description": "Item not found", "schema": {"$ref": "#/definitions/domain.Body"}}
                }
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Items"],
                "summary": "Update an item's description",
                "operationId": "updateItem",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Item ID (UUID)", "name": "id", "in": "path", "required": true},
                    {"description": "New description", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Body"}},
                    "400": {"description": "Malformed request", "schema": {"$ref": "#/definitions/domain.Body"}},
                    "404": {"description": "Item not found", "schema": {"$ref": "#/definitions/domain.Body"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/domain.Body"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Body": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "NOT_FOUND"},
                "data": {},
                "message": {"type": "string", "example": "Resource missing"}
            }
        },
        "handlers.CreateItemRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "description": {"type": "string", "maxLength": 2000, "example": "A small blue widget"},
                "name": {"type": "string", "maxLength": 128, "example": "widget"}
            }
        },
        "handlers.UpdateItemRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string", "maxLength": 2000, "example": "Now in red"}
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
	Title:            "Graceful Response API",
	Description:      "Items and incident log. Every body is a {code, message, data} envelope.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
