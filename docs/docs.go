// Package docs registers the OpenAPI description served under /swagger.
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
        "/api/v1/expenses/upload": {
            "post": {
                "security": [{"Bearer": []}],
                "description": "Extracts every debit of a CSV or PDF statement, classifies it and stores it as an expense",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Import a bank statement",
                "parameters": [
                    {"type": "file", "description": "Statement file (.csv or .pdf)", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.UploadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "415": {"description": "Unsupported Media Type", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/expenses/{id}/feedback": {
            "post": {
                "security": [{"Bearer": []}],
                "description": "Sends the expense description with the chosen category to the classification model",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Correct the category of an expense",
                "parameters": [
                    {"type": "string", "description": "Expense ID", "name": "id", "in": "path", "required": true},
                    {"description": "Correct category", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.FeedbackRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/ml/retrain": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["ml"],
                "summary": "Retrain the classification model",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/statements": {
            "get": {
                "security": [{"Bearer": []}],
                "description": "Returns the owner's import log, newest first",
                "produces": ["application/json"],
                "tags": ["statements"],
                "summary": "List imported statements",
                "parameters": [
                    {"type": "integer", "default": 20, "description": "Limit", "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "description": "Offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.StatementListResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "dto.ExpenseResponse": {
            "type": "object",
            "properties": {
                "amount": {"type": "string"},
                "category": {"type": "string"},
                "categoryId": {"type": "string"},
                "date": {"type": "string"},
                "description": {"type": "string"},
                "id": {"type": "string"}
            }
        },
        "dto.FeedbackRequest": {
            "type": "object",
            "required": ["categoryId"],
            "properties": {
                "categoryId": {"type": "string"}
            }
        },
        "dto.StatementListResponse": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "statements": {"type": "array", "items": {"$ref": "#/definitions/dto.StatementResponse"}}
            }
        },
        "dto.StatementResponse": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "error": {"type": "string"},
                "expense_count": {"type": "integer"},
                "file_name": {"type": "string"},
                "file_size": {"type": "integer"},
                "format": {"type": "string"},
                "id": {"type": "string"},
                "status": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "dto.UploadResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "error": {"type": "string"},
                "expenses": {"type": "array", "items": {"$ref": "#/definitions/dto.ExpenseResponse"}},
                "partial": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Expense Ingest API",
	Description:      "Imports bank statements and classifies every debit into a spending category.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
