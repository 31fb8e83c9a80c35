// Package docs registers the OpenAPI document served by the Swagger UI
// route. Regenerate with `swag init -g cmd/server/main.go` after changing
// handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Gateway"],
                "summary": "Inbound gateway (dispatch, webhook, access check)",
                "operationId": "inbound",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Webhook shared secret (when configured)",
                        "name": "X-Telegram-Bot-Api-Secret-Token",
                        "in": "header"
                    },
                    {
                        "description": "Union request body",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.InboundRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WebhookResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.DispatchResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Invalid gateway secret", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/lots": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Lots"],
                "summary": "List dispatched lots (paginated)",
                "operationId": "listLots",
                "parameters": [
                    {"type": "integer", "default": 1, "minimum": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "minimum": 1, "maximum": 100, "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListLotsResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.InboundRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "example": "CHECK_ACCESS"},
                "email": {"type": "string", "example": "maria@example.com"},
                "destination": {"type": "string", "example": "LIVE_GRATUITA"},
                "questions": {"type": "array", "items": {"$ref": "#/definitions/services.IncomingQuestion"}},
                "deliveryId": {"type": "string", "example": "882190456"},
                "sender": {"type": "object", "properties": {"id": {"type": "string"}}},
                "text": {"type": "string", "example": "/live https://youtu.be/abc12345678"},
                "replyContext": {"type": "object", "properties": {"text": {"type": "string"}}}
            }
        },
        "services.IncomingQuestion": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "author": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "handlers.DispatchResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean", "example": true},
                "lot_code": {"type": "string", "example": "250829-1432-7F3K"},
                "destination": {"type": "string", "example": "LIVE_GRATUITA"},
                "message_count": {"type": "integer", "example": 2}
            }
        },
        "handlers.WebhookResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean", "example": true},
                "ignored": {"type": "boolean"},
                "duplicate": {"type": "boolean"},
                "result": {"type": "string", "example": "applied"},
                "lot_code": {"type": "string"}
            }
        },
        "handlers.ListLotsResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean", "example": true},
                "lots": {"type": "array", "items": {"type": "object"}},
                "pagination": {"type": "object"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean", "example": false},
                "request_id": {"type": "string"},
                "code": {"type": "string", "example": "bad_request"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Q&A Dispatch Bot API",
	Description:      "Batch dispatch and operator command bot for the Q&A site.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
