// Package docs 由 swag 注解整理的 OpenAPI 描述，通过 /swagger/index.html 浏览。
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
        "/api/v1/links": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["关系"],
                "summary": "建立双向信任关系",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.linkRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "delete": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["关系"],
                "summary": "删除双向信任关系",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.linkRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/links/import": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["关系"],
                "summary": "批量导入关系并异步重建缓存",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.importRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/users/{user_id}/peers": {
            "get": {
                "tags": ["关系"],
                "summary": "查询直接关系（1 跳）",
                "parameters": [{"type": "integer", "name": "user_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/users/{user_id}/circles": {
            "get": {
                "tags": ["关系"],
                "summary": "查询用户的 inner/trusted/extended",
                "parameters": [{"type": "integer", "name": "user_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/feed": {
            "get": {
                "tags": ["feed"],
                "summary": "全局 feed",
                "parameters": [
                    {"type": "integer", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "default": "all", "name": "circle", "in": "query", "enum": ["inner", "trusted", "extended", "all"]},
                    {"type": "string", "name": "filter", "in": "query", "enum": ["my_events", "all_events", "communities"]},
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "name": "per_page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/me/feed": {
            "get": {
                "tags": ["feed"],
                "summary": "我的 feed",
                "parameters": [
                    {"type": "integer", "name": "X-User-ID", "in": "header"},
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "name": "per_page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/communities": {
            "get": {
                "tags": ["社区"],
                "summary": "社区目录",
                "parameters": [
                    {"type": "integer", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "default": "all", "name": "circle", "in": "query", "enum": ["inner", "trusted", "extended", "all"]},
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "name": "per_page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/communities/{id}/feed": {
            "get": {
                "tags": ["feed"],
                "summary": "社区内全部会话",
                "parameters": [
                    {"type": "integer", "name": "X-User-ID", "in": "header"},
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "name": "per_page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/conversations": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["会话"],
                "summary": "发起会话（公开社区内发言即加入）",
                "parameters": [
                    {"type": "integer", "name": "X-User-ID", "in": "header", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/service.CreateConversationInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/conversations/{id}/replies": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["会话"],
                "summary": "回复会话，并与作者建立关系",
                "parameters": [
                    {"type": "integer", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.replyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "handler.linkRequest": {
            "type": "object",
            "required": ["user_a", "user_b"],
            "properties": {"user_a": {"type": "integer"}, "user_b": {"type": "integer"}}
        },
        "handler.importRequest": {
            "type": "object",
            "required": ["pairs"],
            "properties": {"pairs": {"type": "array", "items": {"$ref": "#/definitions/handler.linkRequest"}}}
        },
        "handler.replyRequest": {
            "type": "object",
            "required": ["content"],
            "properties": {"content": {"type": "string"}}
        },
        "service.CreateConversationInput": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "community_id": {"type": "integer"},
                "event_id": {"type": "integer"},
                "privacy": {"type": "string", "enum": ["public", "private"]}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {"code": {"type": "integer"}, "message": {"type": "string"}, "data": {}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "TrustCircle API",
	Description:      "信任圈（inner/trusted/extended）驱动的社区与会话 feed",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
