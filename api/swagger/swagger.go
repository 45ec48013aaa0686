package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academic Records API",
        "description": "Academic records and aggregation service: composite scores, GPA, attendance, balances and library fines",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Grades", "description": "Assessment records, composite scores and GPA"},
        {"name": "Attendance", "description": "Sessions, check-ins and attendance rates"},
        {"name": "Finance", "description": "Fee payments and balances"},
        {"name": "Library", "description": "Book loans and overdue fines"},
        {"name": "Ops", "description": "Operational metrics"}
    ],
    "paths": {
        "/assessments": {
            "post": {
                "tags": ["Grades"],
                "summary": "Record an assessment result",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordAssessmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Configuration or data error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/composites": {
            "get": {
                "tags": ["Grades"],
                "summary": "Get a composite score",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string", "required": true},
                    {"name": "unitId", "in": "query", "type": "string", "required": true},
                    {"name": "semesterId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentId}/gpa": {
            "get": {
                "tags": ["Grades"],
                "summary": "Get a student's GPA, cumulative or for one semester",
                "parameters": [
                    {"name": "studentId", "in": "path", "type": "string", "required": true},
                    {"name": "semesterId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentId}/transcript": {
            "get": {
                "tags": ["Grades"],
                "summary": "Get a student's transcript",
                "parameters": [
                    {"name": "studentId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/units/{unitId}/semesters/{semesterId}/recompute": {
            "post": {
                "tags": ["Grades"],
                "summary": "Recompute composites for every student in a unit",
                "parameters": [
                    {"name": "unitId", "in": "path", "type": "string", "required": true},
                    {"name": "semesterId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/sessions": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Register a held session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/records": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark a student's attendance for a session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/rates": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Get an attendance rate",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string", "required": true},
                    {"name": "unitId", "in": "query", "type": "string", "required": true},
                    {"name": "semesterId", "in": "query", "type": "string", "required": true},
                    {"name": "asOf", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/low": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List students under the attendance threshold",
                "parameters": [
                    {"name": "unitId", "in": "query", "type": "string", "required": true},
                    {"name": "semesterId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments": {
            "get": {
                "tags": ["Finance"],
                "summary": "List a student's payments",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Finance"],
                "summary": "Record a fee payment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordPaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments/{id}/verify": {
            "post": {
                "tags": ["Finance"],
                "summary": "Verify a payment",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/VerifyPaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already verified", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/balances": {
            "get": {
                "tags": ["Finance"],
                "summary": "Get a student's balance for a semester",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string", "required": true},
                    {"name": "semesterId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/loans": {
            "post": {
                "tags": ["Library"],
                "summary": "Register a book loan",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLoanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/loans/{id}/return": {
            "post": {
                "tags": ["Library"],
                "summary": "Return a book and freeze its fine",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ReturnLoanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already returned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/loans/{id}/fine": {
            "get": {
                "tags": ["Library"],
                "summary": "Get the fine for a loan",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "asOf", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/overdue-loans": {
            "get": {
                "tags": ["Library"],
                "summary": "List overdue loans with projected fines",
                "parameters": [
                    {"name": "asOf", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentId}/fines": {
            "get": {
                "tags": ["Library"],
                "summary": "Project fines over a student's open loans",
                "parameters": [
                    {"name": "studentId", "in": "path", "type": "string", "required": true},
                    {"name": "asOf", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ops/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Aggregated system metrics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RecordAssessmentRequest": {
            "type": "object",
            "required": ["student_id", "unit_id", "semester_id", "type_name", "max_score"],
            "properties": {
                "student_id": {"type": "string"},
                "unit_id": {"type": "string"},
                "semester_id": {"type": "string"},
                "type_name": {"type": "string"},
                "raw_score": {"type": "number"},
                "max_score": {"type": "number"},
                "supersedes": {"type": "string"},
                "recorded_by": {"type": "string"}
            }
        },
        "CreateSessionRequest": {
            "type": "object",
            "required": ["unit_id", "semester_id", "week_number", "session_type", "date"],
            "properties": {
                "unit_id": {"type": "string"},
                "semester_id": {"type": "string"},
                "week_number": {"type": "integer"},
                "session_type": {"type": "string", "enum": ["LECTURE", "TUTORIAL", "PRACTICAL", "SEMINAR"]},
                "date": {"type": "string", "format": "date-time"}
            }
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "required": ["session_id", "student_id", "present"],
            "properties": {
                "session_id": {"type": "string"},
                "student_id": {"type": "string"},
                "present": {"type": "boolean"},
                "marked_by": {"type": "string"}
            }
        },
        "RecordPaymentRequest": {
            "type": "object",
            "required": ["student_id", "amount", "method"],
            "properties": {
                "student_id": {"type": "string"},
                "amount": {"type": "number"},
                "method": {"type": "string", "enum": ["CASH", "BANK", "MOBILE", "CARD"]},
                "reference": {"type": "string"},
                "date": {"type": "string", "format": "date-time"}
            }
        },
        "VerifyPaymentRequest": {
            "type": "object",
            "properties": {
                "verified_by": {"type": "string"}
            }
        },
        "CreateLoanRequest": {
            "type": "object",
            "required": ["book_id", "student_id", "borrowed_date", "due_date"],
            "properties": {
                "book_id": {"type": "string"},
                "student_id": {"type": "string"},
                "borrowed_date": {"type": "string", "format": "date-time"},
                "due_date": {"type": "string", "format": "date-time"}
            }
        },
        "ReturnLoanRequest": {
            "type": "object",
            "properties": {
                "returned_at": {"type": "string", "format": "date-time"}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
