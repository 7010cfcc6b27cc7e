package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Vidyalaya Exam API",
        "description": "Exam lifecycle, marks entry and report-card service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Exams", "description": "Exam lifecycle and subject snapshots"},
        {"name": "Marks", "description": "Marks submission and entry sheets"},
        {"name": "ReportCards", "description": "Report-card generation, ranking and reads"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/exams": {
            "get": {
                "tags": ["Exams"],
                "summary": "List exams",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "academicYearId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Exams"],
                "summary": "Create a draft exam",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExamRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/{id}": {
            "get": {
                "tags": ["Exams"],
                "summary": "Get one exam with its subjects",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Exams"],
                "summary": "Update a draft exam",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateExamRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "State conflict"}
                }
            },
            "delete": {
                "tags": ["Exams"],
                "summary": "Delete an exam",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Exam has recorded results"}
                }
            }
        },
        "/exams/{id}/subjects": {
            "put": {
                "tags": ["Exams"],
                "summary": "Attach or refresh exam subjects",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/ExamSubjectInput"}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "State conflict"}
                }
            }
        },
        "/exams/{id}/subjects/{subjectId}": {
            "delete": {
                "tags": ["Exams"],
                "summary": "Remove a subject from a draft exam",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "subjectId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Subject has recorded results"}
                }
            }
        },
        "/exams/{id}/publish": {
            "post": {
                "tags": ["Exams"],
                "summary": "Publish a draft exam",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "State conflict"}
                }
            }
        },
        "/exams/{id}/lock": {
            "post": {
                "tags": ["Exams"],
                "summary": "Lock a published exam",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "State conflict"}
                }
            }
        },
        "/exams/{id}/unlock": {
            "post": {
                "tags": ["Exams"],
                "summary": "Unlock a locked exam",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "State conflict"}
                }
            }
        },
        "/marks": {
            "post": {
                "tags": ["Marks"],
                "summary": "Submit a batch of marks for one exam subject",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitMarksRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "No teaching assignment"},
                    "409": {"description": "Exam not published"}
                }
            }
        },
        "/marks/entry-sheet": {
            "get": {
                "tags": ["Marks"],
                "summary": "Fetch the roster and existing results for marks entry",
                "parameters": [
                    {"name": "examId", "in": "query", "required": true, "type": "string"},
                    {"name": "examSubjectId", "in": "query", "required": true, "type": "string"},
                    {"name": "sectionId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marks/entry-sheet/export": {
            "get": {
                "tags": ["Marks"],
                "summary": "Export the marks entry sheet as CSV or PDF",
                "parameters": [
                    {"name": "examId", "in": "query", "required": true, "type": "string"},
                    {"name": "examSubjectId", "in": "query", "required": true, "type": "string"},
                    {"name": "sectionId", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/report-cards/generate": {
            "post": {
                "tags": ["ReportCards"],
                "summary": "Generate and rank report cards for a class section",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportCardScope"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/publish": {
            "post": {
                "tags": ["ReportCards"],
                "summary": "Set the visibility flag for a class section's report cards",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PublishReportCardsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/{examId}/students/{studentId}": {
            "get": {
                "tags": ["ReportCards"],
                "summary": "Get one student's report card with subject breakdown",
                "parameters": [
                    {"name": "examId", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not published or not the caller's card"}
                }
            }
        }
    },
    "definitions": {
        "CreateExamRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "exam_type": {"type": "string"},
                "academic_year_id": {"type": "string"},
                "start_date": {"type": "string", "format": "date-time"},
                "end_date": {"type": "string", "format": "date-time"},
                "class_ids": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["name", "exam_type", "academic_year_id"]
        },
        "UpdateExamRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "exam_type": {"type": "string"},
                "start_date": {"type": "string", "format": "date-time"},
                "end_date": {"type": "string", "format": "date-time"}
            },
            "required": ["name", "exam_type"]
        },
        "ExamSubjectInput": {
            "type": "object",
            "properties": {
                "class_subject_id": {"type": "string"},
                "exam_date": {"type": "string", "format": "date-time"},
                "theory_full_marks": {"type": "number"},
                "practical_full_marks": {"type": "number"},
                "full_marks": {"type": "number"},
                "pass_marks": {"type": "number"}
            },
            "required": ["class_subject_id"]
        },
        "SubmitMarksRequest": {
            "type": "object",
            "properties": {
                "exam_id": {"type": "string"},
                "exam_subject_id": {"type": "string"},
                "section_id": {"type": "string"},
                "entries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/MarkEntryInput"}
                }
            },
            "required": ["exam_id", "exam_subject_id", "section_id", "entries"]
        },
        "MarkEntryInput": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "theory_marks": {"type": "number"},
                "practical_marks": {"type": "number"},
                "is_absent": {"type": "boolean"},
                "remark": {"type": "string"}
            },
            "required": ["student_id"]
        },
        "ReportCardScope": {
            "type": "object",
            "properties": {
                "exam_id": {"type": "string"},
                "class_id": {"type": "string"},
                "section_id": {"type": "string"}
            },
            "required": ["exam_id", "class_id", "section_id"]
        },
        "PublishReportCardsRequest": {
            "type": "object",
            "properties": {
                "exam_id": {"type": "string"},
                "class_id": {"type": "string"},
                "section_id": {"type": "string"},
                "published": {"type": "boolean"}
            },
            "required": ["exam_id", "class_id", "section_id", "published"]
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
