package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Library Seat Admin API",
        "description": "Derived seating chart and booking approval workflow for the library admin dashboard",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Seats", "description": "Derived seating chart, recomputed on every load"},
        {"name": "Bookings", "description": "Approval, rejection and bulk seat assignment"}
    ],
    "paths": {
        "/seats/chart": {
            "get": {
                "tags": ["Seats"],
                "summary": "Derived seating chart",
                "parameters": [
                    {"name": "refresh", "in": "query", "type": "boolean", "description": "Drop cached backend reads first"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SeatChartEnvelope"}},
                    "502": {"description": "Backend error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Backend unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/seats/chart/export": {
            "get": {
                "tags": ["Seats"],
                "summary": "Export the seating chart",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unknown format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/seats/preferred": {
            "get": {
                "tags": ["Seats"],
                "summary": "Preview the preferred seat for a student identifier",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing identifier", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/stats": {
            "get": {
                "tags": ["Seats"],
                "summary": "Library stats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List seat bookings",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["pending", "approved", "rejected"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}/approve": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Approve a booking into a seat",
                "description": "Fails with MANUAL_SEAT_REQUIRED when the library is full; retry with seat_number.",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ApproveBookingRequest"}}
                ],
                "responses": {
                    "200": {"description": "Approved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "SEAT_OUT_OF_RANGE or VALIDATION_ERROR", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Booking not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "MANUAL_SEAT_REQUIRED, SEAT_TAKEN or BOOKING_CLOSED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}/reject": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Reject a booking",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/RejectBookingRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "BOOKING_CLOSED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/bulk-assign": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Assign seats to every pending booking",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/BulkAssignRequest"}}
                ],
                "responses": {
                    "200": {"description": "Aggregate result", "schema": {"$ref": "#/definitions/BulkAssignEnvelope"}}
                }
            }
        },
        "/bookings/audits": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Assignment audit trail",
                "parameters": [
                    {"name": "bookingId", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Student": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "mobile_no": {"type": "string"},
                "address": {"type": "string"}
            }
        },
        "SeatAssignment": {
            "type": "object",
            "properties": {
                "seat_number": {"type": "integer"},
                "student": {"$ref": "#/definitions/Student"},
                "status": {"type": "string", "enum": ["derived"]}
            }
        },
        "SeatChart": {
            "type": "object",
            "properties": {
                "total_seats": {"type": "integer"},
                "occupied": {"type": "integer"},
                "assignments": {"type": "array", "items": {"$ref": "#/definitions/SeatAssignment"}},
                "free_seats": {"type": "array", "items": {"type": "integer"}},
                "unassigned": {"type": "array", "items": {"$ref": "#/definitions/Student"}}
            }
        },
        "ApproveBookingRequest": {
            "type": "object",
            "properties": {
                "seat_number": {"type": "integer", "minimum": 1}
            }
        },
        "RejectBookingRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string", "maxLength": 500}
            }
        },
        "BulkAssignRequest": {
            "type": "object",
            "properties": {
                "booking_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "BulkItemResult": {
            "type": "object",
            "properties": {
                "booking_id": {"type": "string"},
                "student_id": {"type": "string"},
                "seat_number": {"type": "integer"},
                "result": {"type": "string", "enum": ["succeeded", "failed", "unassigned"]},
                "error": {"type": "string"}
            }
        },
        "BulkAssignResult": {
            "type": "object",
            "properties": {
                "processed": {"type": "integer"},
                "succeeded": {"type": "integer"},
                "failed": {"type": "integer"},
                "unassigned": {"type": "integer"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/BulkItemResult"}}
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
        "SeatChartEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/SeatChart"},
                "meta": {"type": "object"}
            }
        },
        "BulkAssignEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/BulkAssignResult"}
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
