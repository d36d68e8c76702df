// Package docs registers the OpenAPI description served at /swagger/*.
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
        "/hackathon-details": {
            "get": {
                "produces": ["application/json"],
                "tags": ["hackathons"],
                "summary": "Active hackathon metadata",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Event"}},
                    "404": {"description": "No active hackathon", "schema": {"$ref": "#/definitions/handlers.envelope"}}
                }
            }
        },
        "/verify_email": {
            "post": {
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["submissions"],
                "summary": "Check registration and submission status of an email",
                "parameters": [{"name": "email", "in": "formData", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.envelope"}}}
            }
        },
        "/submit": {
            "post": {
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["submissions"],
                "summary": "Submit a project to the active hackathon",
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.SubmissionInput"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.envelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.envelope"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/handlers.envelope"}}
                }
            }
        },
        "/get_deadline": {
            "get": {
                "produces": ["application/json"],
                "tags": ["submissions"],
                "summary": "Deadline of the active hackathon",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.envelope"}}}
            }
        },
        "/submissions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["submissions"],
                "summary": "Submissions of the active hackathon",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.envelope"}}}
            }
        },
        "/winners": {
            "get": {
                "produces": ["application/json"],
                "tags": ["winners"],
                "summary": "Winners of the active hackathon, highest points first",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.envelope"}}}
            }
        },
        "/log_error": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "Report a browser-side error",
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/logging.ClientError"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.envelope"}}}
            }
        },
        "/admin/login": {
            "post": {
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Admin login",
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Credentials"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.envelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/handlers.envelope"}}
                }
            }
        },
        "/admin/hackathons": {
            "get": {
                "produces": ["application/json"],
                "tags": ["hackathons"],
                "summary": "All hackathons with collection sizes",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.envelope"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["hackathons"],
                "summary": "Create a hackathon",
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreateEventInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.envelope"}},
                    "409": {"description": "Another hackathon is active", "schema": {"$ref": "#/definitions/handlers.envelope"}}
                }
            }
        },
        "/admin/logs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "Recent error log lines",
                "parameters": [
                    {"name": "type", "in": "query", "type": "string", "default": "server"},
                    {"name": "lines", "in": "query", "type": "integer", "default": 100}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.envelope"}}}
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.envelope"}}}
            }
        }
    },
    "definitions": {
        "handlers.envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "models.Prize": {
            "type": "object",
            "properties": {
                "place": {"type": "string"},
                "title": {"type": "string"},
                "amount": {"type": "string"}
            }
        },
        "models.Event": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "deadline": {"type": "string", "example": "2025-04-01 18:00:00"},
                "rules": {"type": "array", "items": {"type": "string"}},
                "prizes": {"type": "array", "items": {"$ref": "#/definitions/models.Prize"}},
                "state": {"type": "string", "enum": ["active", "ended", "deactivated"]},
                "created_at": {"type": "string"},
                "ended_at": {"type": "string"},
                "deactivated_at": {"type": "string"},
                "logo_url": {"type": "string"}
            }
        },
        "models.Credentials": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "services.SubmissionInput": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "team_name": {"type": "string"},
                "project_name": {"type": "string"},
                "github_repo": {"type": "string"},
                "demo_video": {"type": "string"},
                "live_demo_url": {"type": "string"},
                "live_demo_credentials": {"type": "string"}
            }
        },
        "services.CreateEventInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "deadline": {"type": "string"},
                "rules": {"type": "array", "items": {"type": "string"}},
                "prizes": {"type": "array", "items": {"$ref": "#/definitions/models.Prize"}},
                "end_current": {"type": "boolean"}
            }
        },
        "logging.ClientError": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "source": {"type": "string"},
                "line": {"type": "integer"},
                "column": {"type": "integer"},
                "stack": {"type": "string"},
                "url": {"type": "string"},
                "user_agent": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Hackathon Portal API",
	Description:      "Submissions, participants, teams, winners and hackathon lifecycle.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
