package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SENAI School Manager API",
        "description": "Academic performance evaluation, dashboards and institutional documents",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and current user"},
        {"name": "Performance", "description": "Aggregates, classifications, rollups and students at risk"},
        {"name": "Records", "description": "Grade and attendance writes"},
        {"name": "Dashboard", "description": "Role landing pages"},
        {"name": "Documents", "description": "Report cards and enrollment declarations"},
        {"name": "Exports", "description": "CSV and PDF listings"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Inactive account or unknown role", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}/performance": {
            "get": {
                "tags": ["Performance"],
                "summary": "Student performance",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/report-card": {
            "get": {
                "tags": ["Performance"],
                "summary": "Student report card",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "Documents issued for a student",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/classes/{id}/performance": {
            "get": {
                "tags": ["Performance"],
                "summary": "Class performance",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/performance/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export class performance",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/classes/{id}/rollup": {
            "get": {
                "tags": ["Performance"],
                "summary": "Class rollup",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/RollupEnvelope"}}}
            }
        },
        "/courses/{id}/rollup": {
            "get": {
                "tags": ["Performance"],
                "summary": "Course rollup",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/RollupEnvelope"}}}
            }
        },
        "/institution/rollup": {
            "get": {
                "tags": ["Performance"],
                "summary": "Institution rollup",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/RollupEnvelope"}}}
            }
        },
        "/efficiency/courses": {
            "get": {
                "tags": ["Performance"],
                "summary": "Efficiency of every active course",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/at-risk": {
            "get": {
                "tags": ["Performance"],
                "summary": "Students at risk",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "class_id", "in": "query", "type": "string"},
                    {"name": "course_id", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/records": {
            "get": {
                "tags": ["Performance"],
                "summary": "List student records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "class_id", "in": "query", "type": "string"},
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "period", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Records"],
                "summary": "Save a student record",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertStudentRecordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Out-of-range values", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Dashboard of the current user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/documents": {
            "post": {
                "tags": ["Documents"],
                "summary": "Issue a document",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IssueDocumentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Student not actively enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/batch": {
            "post": {
                "tags": ["Documents"],
                "summary": "Queue report cards for a class",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchIssueRequest"}}
                ],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/documents/verify/{code}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Verify a validation code",
                "parameters": [{"name": "code", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/documents/download/{token}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download an issued document",
                "produces": ["application/pdf"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "PDF"},
                    "403": {"description": "Expired or tampered link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "File past retention", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "UpsertStudentRecordRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "allocation_id": {"type": "string"},
                "final_grade": {"type": "number", "minimum": 0, "maximum": 10},
                "final_average": {"type": "number", "minimum": 0, "maximum": 10},
                "attendance_pct": {"type": "number", "minimum": 0, "maximum": 100},
                "absences": {"type": "integer", "minimum": 0},
                "approval_status": {"type": "string"},
                "period": {"type": "string"}
            },
            "required": ["student_id", "allocation_id", "period"]
        },
        "IssueDocumentRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "type": {"type": "string", "enum": ["BOLETIM", "DECLARACAO"]}
            },
            "required": ["student_id", "type"]
        },
        "BatchIssueRequest": {
            "type": "object",
            "properties": {
                "class_id": {"type": "string"}
            },
            "required": ["class_id"]
        },
        "Rollup": {
            "type": "object",
            "properties": {
                "scope": {"type": "string", "enum": ["class", "course", "all"]},
                "scope_id": {"type": "string"},
                "name": {"type": "string"},
                "approved": {"type": "integer"},
                "recovery": {"type": "integer"},
                "failed": {"type": "integer"},
                "total_students_considered": {"type": "integer"},
                "aprovados_pct": {"type": "number"},
                "recuperacao_pct": {"type": "number"},
                "reprovados_pct": {"type": "number"}
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
                "meta": {"type": "object"}
            }
        },
        "RollupEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/Rollup"},
                "error": {"$ref": "#/definitions/APIError"},
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
