// Package docs serves the OpenAPI description of the HTTP API.
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
		"/schedules": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"schedules"
				],
				"summary": "List bookings",
				"parameters": [
					{
						"type": "string",
						"description": "First KST date (YYYY-MM-DD)",
						"name": "from",
						"in": "query",
						"required": true
					},
					{
						"type": "string",
						"description": "Last KST date (YYYY-MM-DD), inclusive",
						"name": "to",
						"in": "query",
						"required": true
					},
					{
						"type": "integer",
						"description": "Filter by student",
						"name": "studentId",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"description": "Page number (1-based)",
						"name": "page",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"description": "Page size",
						"name": "size",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.PaginatedResponse"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"schedules"
				],
				"summary": "Create a booking",
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.CreateScheduleRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.CreateScheduleResponse"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"503": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		},
		"/schedules/capacity": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"schedules"
				],
				"summary": "Capacity preview",
				"parameters": [
					{
						"type": "string",
						"description": "KST date (YYYY-MM-DD)",
						"name": "date",
						"in": "query",
						"required": true
					},
					{
						"type": "string",
						"description": "KST start time (HH:MM)",
						"name": "startTime",
						"in": "query",
						"required": true
					},
					{
						"type": "integer",
						"description": "Length in 3-hour slots (1-3)",
						"name": "durationSlots",
						"in": "query",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.CapacityResponse"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			}
		},
		"/schedules/export.ics": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"text/calendar"
				],
				"tags": [
					"schedules"
				],
				"summary": "Export bookings as iCalendar",
				"parameters": [
					{
						"type": "string",
						"description": "First KST date (YYYY-MM-DD)",
						"name": "from",
						"in": "query",
						"required": true
					},
					{
						"type": "string",
						"description": "Last KST date (YYYY-MM-DD), inclusive",
						"name": "to",
						"in": "query",
						"required": true
					},
					{
						"type": "integer",
						"description": "Filter by student",
						"name": "studentId",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			}
		},
		"/schedules/{id}": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"schedules"
				],
				"summary": "Get a booking",
				"parameters": [
					{
						"type": "integer",
						"format": "int64",
						"minimum": 1,
						"description": "Schedule ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.ScheduleResponse"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			},
			"patch": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"schedules"
				],
				"summary": "Update a booking",
				"parameters": [
					{
						"type": "integer",
						"format": "int64",
						"minimum": 1,
						"description": "Schedule ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"default": "single",
						"description": "single or future",
						"name": "scope",
						"in": "query"
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.UpdateScheduleRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.UpdateScheduleResponse"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"503": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"schedules"
				],
				"summary": "Delete a booking",
				"parameters": [
					{
						"type": "integer",
						"format": "int64",
						"minimum": 1,
						"description": "Schedule ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"default": "single",
						"description": "single or future",
						"name": "scope",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.DeleteScheduleResponse"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			}
		},
		"/me/schedules": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"me"
				],
				"summary": "Book my own class",
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.SelfScheduleRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.CreateScheduleResponse"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"503": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		},
		"/me/schedules/{id}": {
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"me"
				],
				"summary": "Cancel my class",
				"parameters": [
					{
						"type": "integer",
						"format": "int64",
						"minimum": 1,
						"description": "Schedule ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.DeleteScheduleResponse"
										}
									}
								}
							]
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			}
		},
		"/me/registration-window": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"me"
				],
				"summary": "Registration window",
				"parameters": [],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.RegistrationWindowResponse"
										}
									}
								}
							]
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			}
		},
		"/settings/capacity": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"settings"
				],
				"summary": "Get capacity setting",
				"parameters": [],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.CapacitySettingResponse"
										}
									}
								}
							]
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"settings"
				],
				"summary": "Update capacity setting",
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.UpdateCapacitySettingRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.CapacitySettingResponse"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		}
	},
	"definitions": {
		"dto.APIResponse": {
			"type": "object",
			"properties": {
				"data": {},
				"error": {
					"$ref": "#/definitions/dto.ErrorDetail"
				},
				"timestamp": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"dto.ErrorDetail": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"field": {
					"type": "string"
				},
				"severity": {
					"type": "string"
				},
				"details": {}
			}
		},
		"dto.ErrorResponse": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean"
				},
				"error": {
					"$ref": "#/definitions/dto.ErrorDetail"
				},
				"timestamp": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"dto.PaginationInfo": {
			"type": "object",
			"properties": {
				"currentPage": {
					"type": "integer"
				},
				"totalPages": {
					"type": "integer"
				},
				"pageSize": {
					"type": "integer"
				},
				"totalItems": {
					"type": "integer"
				}
			}
		},
		"dto.PaginatedResponse": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/dto.ScheduleResponse"
					}
				},
				"pagination": {
					"$ref": "#/definitions/dto.PaginationInfo"
				}
			}
		},
		"dto.CreateScheduleRequest": {
			"type": "object",
			"required": [
				"studentId",
				"date",
				"startTime",
				"durationSlots"
			],
			"properties": {
				"studentId": {
					"type": "integer"
				},
				"programId": {
					"type": "integer"
				},
				"date": {
					"type": "string",
					"example": "2025-01-06"
				},
				"startTime": {
					"type": "string",
					"example": "10:00"
				},
				"durationSlots": {
					"type": "integer",
					"minimum": 1,
					"maximum": 3
				},
				"recurring": {
					"type": "boolean"
				}
			}
		},
		"dto.SelfScheduleRequest": {
			"type": "object",
			"required": [
				"date",
				"startTime",
				"durationSlots"
			],
			"properties": {
				"programId": {
					"type": "integer"
				},
				"date": {
					"type": "string",
					"example": "2025-01-06"
				},
				"startTime": {
					"type": "string",
					"example": "10:00"
				},
				"durationSlots": {
					"type": "integer",
					"minimum": 1,
					"maximum": 3
				},
				"recurring": {
					"type": "boolean"
				}
			}
		},
		"dto.UpdateScheduleRequest": {
			"type": "object",
			"properties": {
				"studentId": {
					"type": "integer"
				},
				"programId": {
					"type": "integer"
				},
				"date": {
					"type": "string"
				},
				"startTime": {
					"type": "string"
				},
				"durationSlots": {
					"type": "integer",
					"minimum": 1,
					"maximum": 3
				}
			}
		},
		"dto.ScheduleResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"organizationId": {
					"type": "integer"
				},
				"studentId": {
					"type": "integer"
				},
				"programId": {
					"type": "integer"
				},
				"startTime": {
					"type": "string",
					"format": "date-time"
				},
				"endTime": {
					"type": "string",
					"format": "date-time"
				},
				"date": {
					"type": "string"
				},
				"localStartTime": {
					"type": "string"
				},
				"localEndTime": {
					"type": "string"
				},
				"kind": {
					"type": "string",
					"enum": [
						"STANDALONE",
						"SERIES_ROOT",
						"OCCURRENCE"
					]
				},
				"parentScheduleId": {
					"type": "integer"
				},
				"rrule": {
					"type": "string"
				},
				"isException": {
					"type": "boolean"
				}
			}
		},
		"dto.CreateScheduleResponse": {
			"type": "object",
			"properties": {
				"scheduleId": {
					"type": "integer"
				},
				"occurrenceCount": {
					"type": "integer"
				},
				"schedule": {
					"$ref": "#/definitions/dto.ScheduleResponse"
				}
			}
		},
		"dto.UpdateScheduleResponse": {
			"type": "object",
			"properties": {
				"updatedCount": {
					"type": "integer"
				},
				"schedule": {
					"$ref": "#/definitions/dto.ScheduleResponse"
				}
			}
		},
		"dto.DeleteScheduleResponse": {
			"type": "object",
			"properties": {
				"deletedCount": {
					"type": "integer"
				}
			}
		},
		"dto.CapacityResponse": {
			"type": "object",
			"properties": {
				"allowed": {
					"type": "boolean"
				},
				"currentCount": {
					"type": "integer"
				},
				"maxCount": {
					"type": "integer"
				}
			}
		},
		"dto.RegistrationWindowResponse": {
			"type": "object",
			"properties": {
				"from": {
					"type": "string"
				},
				"to": {
					"type": "string"
				},
				"openNextMonthDay": {
					"type": "integer"
				}
			}
		},
		"dto.UpdateCapacitySettingRequest": {
			"type": "object",
			"required": [
				"maxConcurrentStudents"
			],
			"properties": {
				"maxConcurrentStudents": {
					"type": "integer",
					"minimum": 1,
					"maximum": 100
				}
			}
		},
		"dto.CapacitySettingResponse": {
			"type": "object",
			"properties": {
				"organizationId": {
					"type": "integer"
				},
				"maxConcurrentStudents": {
					"type": "integer"
				},
				"updatedAt": {
					"type": "string",
					"format": "date-time"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and the JWT.",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "",
	BasePath:		 "/api/v1",
	Schemes:		  []string{},
	Title:			"Tutoring Back Office API",
	Description:	  "Class booking and scheduling for tutoring organizations. Times are Korea Standard Time.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
