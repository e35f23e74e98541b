// Package docs is generated by swaggo/swag from the handler annotations.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Service information",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Reports database connectivity and which models are loaded.",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/signup": {
            "post": {
                "description": "Creates an account. dob uses DD-MM-YYYY; user_type defaults to \"user\".",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a user",
                "parameters": [
                    {"description": "Signup request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.SignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "400": {"description": "Missing field, bad date, bad role or duplicate username", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "description": "Exchanges credentials for a 24h bearer token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Login request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/reset-password": {
            "post": {
                "description": "Tokens issued before the change stay valid until they expire.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Change a password",
                "parameters": [
                    {"description": "Reset request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ResetPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "401": {"description": "Wrong old password", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "404": {"description": "Unknown user", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/mole/predict": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Send exactly one of a multipart \"image\" file or JSON {\"image_data\": base64}.",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["predict"],
                "summary": "Classify a skin lesion",
                "parameters": [
                    {"type": "file", "description": "Image file", "name": "image", "in": "formData"},
                    {"description": "Base64 image", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/model.ImagePredictRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "400": {"description": "No image, bad image or shape mismatch", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "503": {"description": "Model unavailable", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/eye/predict": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Send exactly one of a multipart \"image\" file or JSON {\"image_data\": base64}.",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["predict"],
                "summary": "Classify an eye disease",
                "parameters": [
                    {"type": "file", "description": "Image file", "name": "image", "in": "formData"},
                    {"description": "Base64 image", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/model.ImagePredictRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "400": {"description": "No image, bad image or shape mismatch", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "503": {"description": "Model unavailable", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/period/predict": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Every feature of the loaded cycle model (cycle_length, period_length, age by default) must be present and numeric.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["predict"],
                "summary": "Predict the next cycle",
                "parameters": [
                    {"description": "Feature values", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "400": {"description": "Missing or non-numeric field", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "503": {"description": "Model unavailable", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a user",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/audit": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Recent audit events",
                "parameters": [
                    {"type": "string", "description": "Event type, e.g. auth.token_rejected", "name": "type", "in": "query"},
                    {"type": "string", "description": "User id", "name": "actor_id", "in": "query"},
                    {"type": "string", "description": "RFC3339 lower bound", "name": "from", "in": "query"},
                    {"type": "string", "description": "RFC3339 upper bound", "name": "to", "in": "query"},
                    {"type": "integer", "default": 1, "description": "Page", "name": "page", "in": "query"},
                    {"type": "integer", "default": 50, "description": "Page size", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "model.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "model.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/model.APIError"},
                "meta": {"$ref": "#/definitions/model.Meta"},
                "success": {"type": "boolean"}
            }
        },
        "model.Meta": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "page": {"type": "integer"},
                "request_id": {"type": "string"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "model.SignupRequest": {
            "type": "object",
            "properties": {
                "dob": {"type": "string", "example": "15-06-1990"},
                "password": {"type": "string"},
                "user_type": {"type": "string", "enum": ["user", "admin"]},
                "username": {"type": "string"}
            }
        },
        "model.LoginRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "model.ResetPasswordRequest": {
            "type": "object",
            "properties": {
                "new_password": {"type": "string"},
                "old_password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "model.ImagePredictRequest": {
            "type": "object",
            "properties": {
                "image_data": {"type": "string", "description": "base64, optionally with a data-URL header"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Medical Prediction API",
	Description:      "Token-authenticated image and tabular predictions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
