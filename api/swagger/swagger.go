package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA ADP Admin Console",
        "description": "Console gateway over the school administration API. Rosters are served from a local query cache.",
        "version": "0.2.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Session", "description": "Sign-in, sign-out and account registration"},
        {"name": "Teachers", "description": "Teacher roster"},
        {"name": "Students", "description": "Student roster, addressed by admission number"},
        {"name": "Parents", "description": "Parent and guardian roster"},
        {"name": "Cache", "description": "Query cache diagnostics"}
    ],
    "paths": {
        "/session/login": {
            "post": {
                "tags": ["Session"],
                "summary": "Sign in",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginDraft"}}
                ],
                "responses": {
                    "200": {"description": "Signed in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid form", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Wrong credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/session/logout": {
            "post": {
                "tags": ["Session"],
                "summary": "Sign out and drop cached rosters",
                "responses": {"204": {"description": "Signed out"}}
            }
        },
        "/session": {
            "get": {
                "tags": ["Session"],
                "summary": "Current session",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/session/refresh": {
            "post": {
                "tags": ["Session"],
                "summary": "Refresh the access token",
                "responses": {
                    "200": {"description": "Refreshed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Session expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/register": {
            "post": {
                "tags": ["Session"],
                "summary": "Register a console user",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RegistrationDraft"}}
                ],
                "responses": {
                    "201": {"description": "Registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid form", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "parameters": [
                    {"in": "query", "name": "search", "type": "string"},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "refresh", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Register teacher",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/TeacherDraft"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid form", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Get teacher detail",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Teachers"],
                "summary": "Update teacher",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/TeacherDraft"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teachers/export": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Export the teacher roster",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "Attachment", "schema": {"type": "file"}}}
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"in": "query", "name": "search", "type": "string"},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "refresh", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Admit student",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/StudentDraft"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/StudentDraft"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Remove student",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Export the student roster",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "Attachment", "schema": {"type": "file"}}}
            }
        },
        "/parents": {
            "get": {
                "tags": ["Parents"],
                "summary": "List parents",
                "parameters": [
                    {"in": "query", "name": "search", "type": "string"},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "refresh", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Parents"],
                "summary": "Register parent",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ParentDraft"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/parents/{id}": {
            "get": {
                "tags": ["Parents"],
                "summary": "Get parent detail",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Parents"],
                "summary": "Update parent",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ParentDraft"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/parents/export": {
            "get": {
                "tags": ["Parents"],
                "summary": "Export the parent roster",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "Attachment", "schema": {"type": "file"}}}
            }
        },
        "/cache": {
            "get": {
                "tags": ["Cache"],
                "summary": "Inspect cached queries",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Cache"],
                "summary": "Drop every cached query",
                "responses": {"204": {"description": "Cleared"}}
            }
        },
        "/cache/invalidate": {
            "post": {
                "tags": ["Cache"],
                "summary": "Mark cached queries stale",
                "parameters": [{"in": "query", "name": "entity", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/cache/persist": {
            "post": {
                "tags": ["Cache"],
                "summary": "Write the cache snapshot to storage",
                "responses": {"204": {"description": "Persisted"}}
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Cache"],
                "summary": "Console metrics summary",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "LoginDraft": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RegistrationDraft": {
            "type": "object",
            "required": ["email", "password", "role", "organization"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string"},
                "organization": {"type": "string"}
            }
        },
        "TeacherDraft": {
            "type": "object",
            "required": ["name", "email", "mobile_no", "whatsapp_no", "address_1", "city", "state", "pincode"],
            "properties": {
                "name": {"type": "string"},
                "qualification": {"type": "string"},
                "email": {"type": "string"},
                "mobile_no": {"type": "string", "pattern": "^[0-9]{10}$"},
                "whatsapp_no": {"type": "string", "pattern": "^[0-9]{10}$"},
                "address_1": {"type": "string"},
                "address_2": {"type": "string"},
                "city": {"type": "string"},
                "state": {"type": "string"},
                "pincode": {"type": "string", "pattern": "^[0-9]{6}$"},
                "organization": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "StudentDraft": {
            "type": "object",
            "required": ["name", "parent", "class_room"],
            "properties": {
                "admission_no": {"type": "string"},
                "name": {"type": "string", "maxLength": 200},
                "parent": {"type": "string"},
                "class_room": {"type": "string"},
                "organization": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "ParentDraft": {
            "type": "object",
            "required": ["name", "email", "relation", "mobile_no", "whatsapp_no", "address_1", "city", "state", "pincode"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "relation": {"type": "string", "enum": ["Father", "Mother", "Sister", "Brother", "Guardian"]},
                "mobile_no": {"type": "string"},
                "whatsapp_no": {"type": "string"},
                "address_1": {"type": "string"},
                "address_2": {"type": "string"},
                "city": {"type": "string"},
                "state": {"type": "string"},
                "pincode": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
