// Package docs регистрирует описание HTTP API для swagger.
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
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Проверка состояния",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/tournaments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Список турниров",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/services.TournamentPayload"}}}}
                }
            }
        },
        "/tournaments/{tournamentID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Турнир по ID",
                "parameters": [
                    {"type": "integer", "description": "ID турнира", "name": "tournamentID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/services.TournamentPayload"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/webapp": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webapp"],
                "summary": "Действие веб-формы турнира",
                "parameters": [
                    {"description": "create_tournament, update_tournament или get_tournament", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.WebFormRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.WebFormResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "services.TournamentPayload": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "event_name": {"type": "string"},
                "event_datetime": {"type": "string", "example": "2025-07-01T18:30:00"},
                "location_name": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "number_of_teams": {"type": "integer"},
                "players_per_game": {"type": "integer"},
                "players_registered": {"type": "integer"},
                "round_robin_rounds": {"type": "integer"},
                "playoff_starts_at": {"type": "string"},
                "playoff_seeding": {"type": "string"},
                "competition_type": {"type": "string"},
                "comment": {"type": "string"},
                "status": {"type": "integer"},
                "created_by": {"type": "integer"}
            }
        },
        "services.WebFormRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "data": {"$ref": "#/definitions/services.TournamentPayload"},
                "tournament_id": {"type": "integer"}
            }
        },
        "services.WebFormResponse": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "data": {"$ref": "#/definitions/services.TournamentPayload"},
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tournament Bot API",
	Description:      "Веб-редактор турниров и события для подписчиков.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
