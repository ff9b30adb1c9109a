package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Portal API",
        "description": "Registration, course assignment, gradebook and posts for a school portal",
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
        {"name": "Registration", "description": "Account creation for every role"},
        {"name": "Courses", "description": "Course catalog and teacher assignments"},
        {"name": "Gradebook", "description": "Derived rosters and mark entry"},
        {"name": "Exports", "description": "Background gradebook exports"},
        {"name": "Posts", "description": "School feed"}
    ],
    "paths": {
        "/register/student": {
            "post": {
                "tags": ["Registration"],
                "summary": "Register a student",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/register/teacher": {
            "post": {
                "tags": ["Registration"],
                "summary": "Register a teacher with course assignments",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/register-teacher": {
            "post": {
                "tags": ["Registration"],
                "summary": "Register a teacher (legacy alias)",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/register/parent": {
            "post": {
                "tags": ["Registration"],
                "summary": "Register a parent",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/register/school-admin": {
            "post": {
                "tags": ["Registration"],
                "summary": "Register a school admin (multipart)",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/users/{userId}/profile-image": {
            "post": {
                "tags": ["Users"],
                "summary": "Upload a profile image",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "userId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teacher-courses/{teacherKey}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Courses assigned to a teacher",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "teacherKey", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teacher-students/{teacherKey}": {
            "get": {
                "tags": ["Gradebook"],
                "summary": "Rosters of every course a teacher teaches",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "teacherKey", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/taken-subjects/{grade}/{section}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Subjects already taught in a grade and section",
                "parameters": [{"name": "grade", "in": "path", "required": true, "type": "string"}, {"name": "section", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List the course catalog",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/course-students/{courseId}": {
            "get": {
                "tags": ["Gradebook"],
                "summary": "Roster and marks of a course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "courseId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/course-update-marks/{courseId}": {
            "post": {
                "tags": ["Gradebook"],
                "summary": "Overwrite marks for students of a course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "courseId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{studentId}/placement": {
            "patch": {
                "tags": ["Students"],
                "summary": "Change a student's grade or section",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "studentId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses/{courseId}/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a gradebook export",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "courseId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/posts": {
            "get": {
                "tags": ["Posts"],
                "summary": "List posts, newest first",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Posts"],
                "summary": "Publish a post (multipart)",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/posts/author/{userId}": {
            "get": {
                "tags": ["Posts"],
                "summary": "List posts written by one user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "userId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/posts/{postId}": {
            "put": {
                "tags": ["Posts"],
                "summary": "Edit a post",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "postId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Posts"],
                "summary": "Delete a post",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "postId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/posts/{postId}/like": {
            "post": {
                "tags": ["Posts"],
                "summary": "Like or unlike a post",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "postId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
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
                "success": {"type": "boolean"},
                "message": {"type": "string"},
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
