// Package docs is generated by swaggo/swag from the handler annotations in
// internal/transport/http/gin. Regenerate with `swag init -g cmd/showbook/main.go`.
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
        "/admin/theatres": {
            "post": {
                "summary": "Create theatre",
                "parameters": [
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateTheatreRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpgin.CreateTheatreResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/admin/theatres/{id}/shows": {
            "post": {
                "summary": "Create show with its seats",
                "parameters": [
                    {"type": "string", "description": "Theatre ID (uuid)", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateShowRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpgin.CreateShowResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "theatre not found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/bookings/{id}": {
            "get": {
                "summary": "Get booking",
                "parameters": [
                    {"type": "string", "description": "Booking ID (uuid)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Booking"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/cities/{city}/shows": {
            "get": {
                "summary": "Shows of a city on a day",
                "parameters": [
                    {"type": "string", "description": "City", "name": "city", "in": "path", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD, defaults to today (UTC)", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Show"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/shows/{id}": {
            "get": {
                "summary": "Get show with seat statuses",
                "parameters": [
                    {"type": "string", "description": "Show ID (uuid)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Show"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/shows/{id}/bookings": {
            "post": {
                "summary": "Book seats (idempotent)",
                "parameters": [
                    {"type": "string", "description": "Show ID (uuid)", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpgin.CreateBookingResponse"}, "headers": {"Idempotency-Key": {"type": "string", "description": "echo"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "402": {"description": "payment failed", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "show not found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "seat unavailable / idem in progress", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "500": {"description": "ledger write failed", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "summary": "Find user by email",
                "parameters": [
                    {"type": "string", "description": "Email", "name": "email", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            },
            "post": {
                "summary": "Register user",
                "parameters": [
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpgin.CreateUserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "email already registered", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/users/{id}/bookings": {
            "get": {
                "summary": "List bookings of a user",
                "parameters": [
                    {"type": "string", "description": "User ID (uuid)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Booking"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Address": {
            "type": "object",
            "properties": {"city": {"type": "string"}, "pincode": {"type": "string"}, "street": {"type": "string"}}
        },
        "domain.Booking": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer"},
                "created_at": {"type": "string"},
                "id": {"type": "string"},
                "seats": {"type": "array", "items": {"$ref": "#/definitions/domain.Seat"}},
                "show_id": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "domain.Seat": {
            "type": "object",
            "properties": {
                "category": {"type": "string", "enum": ["basic", "premium"]},
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["free", "held", "booked"]}
            }
        },
        "domain.Show": {
            "type": "object",
            "properties": {
                "base_price": {"type": "integer"},
                "ends_at": {"type": "string"},
                "id": {"type": "string"},
                "movie": {"type": "string"},
                "seats": {"type": "array", "items": {"$ref": "#/definitions/domain.Seat"}},
                "starts_at": {"type": "string"},
                "theatre_id": {"type": "string"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {"created_at": {"type": "string"}, "email": {"type": "string"}, "id": {"type": "string"}, "name": {"type": "string"}}
        },
        "httpgin.CreateBookingRequest": {
            "type": "object",
            "required": ["seat_ids", "user_id"],
            "properties": {"seat_ids": {"type": "array", "items": {"type": "string"}}, "user_id": {"type": "string"}}
        },
        "httpgin.CreateBookingResponse": {
            "type": "object",
            "properties": {"amount": {"type": "integer"}, "booking_id": {"type": "string"}}
        },
        "httpgin.CreateShowRequest": {
            "type": "object",
            "required": ["ends_at", "movie", "seats", "starts_at"],
            "properties": {
                "base_price": {"type": "integer", "minimum": 0},
                "ends_at": {"type": "string"},
                "movie": {"type": "string"},
                "seats": {"type": "array", "items": {"$ref": "#/definitions/httpgin.SeatInput"}},
                "starts_at": {"type": "string"}
            }
        },
        "httpgin.CreateShowResponse": {
            "type": "object",
            "properties": {"show_id": {"type": "string"}}
        },
        "httpgin.CreateTheatreRequest": {
            "type": "object",
            "required": ["city", "name"],
            "properties": {"city": {"type": "string"}, "name": {"type": "string"}, "pincode": {"type": "string"}, "street": {"type": "string"}}
        },
        "httpgin.CreateTheatreResponse": {
            "type": "object",
            "properties": {"theatre_id": {"type": "string"}}
        },
        "httpgin.CreateUserRequest": {
            "type": "object",
            "required": ["email", "name"],
            "properties": {"email": {"type": "string"}, "name": {"type": "string"}}
        },
        "httpgin.CreateUserResponse": {
            "type": "object",
            "properties": {"user_id": {"type": "string"}}
        },
        "httpgin.ErrorResponse": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "error": {"type": "string"}, "seat_id": {"type": "string"}}
        },
        "httpgin.SeatInput": {
            "type": "object",
            "required": ["category", "id"],
            "properties": {"category": {"type": "string", "enum": ["basic", "premium"]}, "id": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Showbook API",
	Description:      "Movie show catalog and seat booking service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
