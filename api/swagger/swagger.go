package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Labgate API",
        "description": "Lab attendance validation: rotating QR credentials, scan decisions and door controller signalling.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Credentials", "description": "Rotating badge of the signed-in student"},
        {"name": "Scanner", "description": "Scanning station and door controller"},
        {"name": "Attendance", "description": "Attendance administration"},
        {"name": "Exports", "description": "Asynchronous CSV/PDF attendance exports"}
    ],
    "paths": {
        "/me/credential": {
            "post": {
                "tags": ["Credentials"],
                "summary": "Start the caller's rotating credential",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Credential issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Subject not registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Credentials"],
                "summary": "Current credential of the caller",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Live credential", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No credential bound", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Credentials"],
                "summary": "Stop the caller's credential rotation",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Unbound"}}
            }
        },
        "/me/credential/qr.png": {
            "get": {
                "tags": ["Credentials"],
                "summary": "Current credential as a PNG QR code",
                "produces": ["image/png"],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "PNG image"}}
            }
        },
        "/me/credential/refresh": {
            "post": {
                "tags": ["Credentials"],
                "summary": "Rotate the caller's credential now",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Credential", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/scanner/{device}/scans": {
            "post": {
                "tags": ["Scanner"],
                "summary": "Submit a scanned credential",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "device", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScanRequest"}}
                ],
                "responses": {
                    "200": {"description": "Verdict and dispatch outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Scanner busy or cooling down", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scanner/{device}/signal/retry": {
            "post": {
                "tags": ["Scanner"],
                "summary": "Re-send the last verdict to the door controller",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "device", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Acknowledged", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Controller did not acknowledge", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Controller not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scanner/controller/status": {
            "get": {
                "tags": ["Scanner"],
                "summary": "Probe the door controller",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Controller status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "sessionId", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string", "format": "date"},
                    {"name": "dateTo", "in": "query", "type": "string", "format": "date"},
                    {"name": "openOnly", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["date", "time_in", "subject"]},
                    {"name": "order", "in": "query", "type": "string", "enum": ["asc", "desc"]}
                ],
                "responses": {"200": {"description": "Records", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/attendance/{id}/close": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Close an open attendance record",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Closed record", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already closed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/close": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Close every open record of a session for one day",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CloseSessionRequest"}}
                ],
                "responses": {"200": {"description": "Closed count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/attendance/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue an attendance export",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}],
                "responses": {"202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/attendance/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Job status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/attendance/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export via signed token",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ScanRequest": {
            "type": "object",
            "properties": {
                "payload": {"type": "string"},
                "session_id": {"type": "string"}
            }
        },
        "CloseSessionRequest": {
            "type": "object",
            "properties": {"date": {"type": "string", "format": "date"}}
        },
        "ExportRequest": {
            "type": "object",
            "required": ["dateFrom", "dateTo", "format"],
            "properties": {
                "sessionId": {"type": "string"},
                "subjectId": {"type": "string"},
                "dateFrom": {"type": "string", "format": "date"},
                "dateTo": {"type": "string", "format": "date"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
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
                "status": {"type": "integer"}
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
