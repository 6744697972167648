// Package docs 接口文档，与 api 包中的注释保持一致
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
        "/api/v1/expenses": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "消费记录"
                ],
                "summary": "获取消费记录列表",
                "parameters": [
                    {
                        "type": "string",
                        "description": "状态筛选 (unpaid / paid)",
                        "name": "status",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "获取成功",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/api.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/api.ExpenseView"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "请求参数错误",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    }
                }
            },
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "消费记录"
                ],
                "summary": "创建消费记录",
                "parameters": [
                    {
                        "description": "消费记录信息",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/api.ExpenseRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "创建成功",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/api.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/api.ExpenseView"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "请求参数错误",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    },
                    "500": {
                        "description": "存储错误",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    }
                }
            }
        },
        "/api/v1/expenses/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "消费记录"
                ],
                "summary": "获取消费记录详情",
                "parameters": [
                    {
                        "type": "string",
                        "description": "记录ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "获取成功",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/api.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/api.ExpenseView"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "404": {
                        "description": "记录不存在",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    }
                }
            },
            "put": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "消费记录"
                ],
                "summary": "修改消费记录",
                "parameters": [
                    {
                        "type": "string",
                        "description": "记录ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "消费记录信息",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/api.ExpenseRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "修改成功",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/api.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/api.ExpenseView"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "请求参数错误",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    },
                    "404": {
                        "description": "记录不存在",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    },
                    "409": {
                        "description": "已支付记录不可修改",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    }
                }
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "消费记录"
                ],
                "summary": "删除消费记录",
                "parameters": [
                    {
                        "type": "string",
                        "description": "记录ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "删除成功",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    },
                    "404": {
                        "description": "记录不存在",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    }
                }
            }
        },
        "/api/v1/expenses/{id}/pay": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "支付"
                ],
                "summary": "结清单条记录",
                "parameters": [
                    {
                        "type": "string",
                        "description": "记录ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "支付成功",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/api.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/api.HistoryView"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "404": {
                        "description": "记录不存在",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    },
                    "409": {
                        "description": "记录已支付",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    }
                }
            }
        },
        "/api/v1/expenses/{id}/toggle": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "支付"
                ],
                "summary": "切换支付状态",
                "parameters": [
                    {
                        "type": "string",
                        "description": "记录ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "切换成功",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/api.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/api.ExpenseView"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "404": {
                        "description": "记录不存在",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    }
                }
            }
        },
        "/api/v1/report/unpaid": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "报表"
                ],
                "summary": "未支付报表",
                "responses": {
                    "200": {
                        "description": "获取成功",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/api.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/api.ReportView"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "500": {
                        "description": "存储错误",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    }
                }
            }
        },
        "/api/v1/report/unpaid/{person}/pay": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "支付"
                ],
                "summary": "按人结清",
                "parameters": [
                    {
                        "type": "string",
                        "description": "姓名",
                        "name": "person",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "支付成功",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/api.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/api.HistoryView"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "404": {
                        "description": "没有未支付记录",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    }
                }
            }
        },
        "/api/v1/report/pay": {
            "post": {
                "description": "与路径参数版本相同，姓名中包含 / 等字符时使用",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "支付"
                ],
                "summary": "按人结清（请求体）",
                "parameters": [
                    {
                        "description": "姓名",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/api.PayPersonRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "支付成功",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/api.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/api.HistoryView"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "请求参数错误",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    },
                    "404": {
                        "description": "没有未支付记录",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    }
                }
            }
        },
        "/api/v1/history": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "报表"
                ],
                "summary": "支付历史",
                "responses": {
                    "200": {
                        "description": "获取成功",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/api.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/api.HistoryView"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "500": {
                        "description": "存储错误",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    }
                }
            }
        },
        "/api/v1/export/report": {
            "get": {
                "produces": [
                    "text/csv",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
                    "application/json"
                ],
                "tags": [
                    "导出"
                ],
                "summary": "导出未支付报表",
                "parameters": [
                    {
                        "type": "string",
                        "default": "csv",
                        "description": "导出格式 (csv / excel / json)",
                        "name": "format",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "导出文件",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "不支持的导出格式",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    }
                }
            }
        },
        "/api/v1/export/history": {
            "get": {
                "produces": [
                    "text/csv",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
                    "application/json"
                ],
                "tags": [
                    "导出"
                ],
                "summary": "导出支付历史",
                "parameters": [
                    {
                        "type": "string",
                        "default": "csv",
                        "description": "导出格式 (csv / excel / json)",
                        "name": "format",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "导出文件",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "不支持的导出格式",
                        "schema": {
                            "$ref": "#/definitions/api.Response"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "api.Response": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "integer"
                },
                "message": {
                    "type": "string"
                },
                "data": {}
            }
        },
        "api.ExpenseRequest": {
            "type": "object",
            "required": [
                "cost",
                "item",
                "person"
            ],
            "properties": {
                "person": {
                    "type": "string",
                    "example": "Martyna"
                },
                "item": {
                    "type": "string",
                    "example": "Groceries"
                },
                "cost": {
                    "type": "string",
                    "example": "50.75"
                }
            }
        },
        "api.PayPersonRequest": {
            "type": "object",
            "required": [
                "person"
            ],
            "properties": {
                "person": {
                    "type": "string",
                    "example": "Martyna"
                }
            }
        },
        "api.ExpenseView": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "person": {
                    "type": "string"
                },
                "item": {
                    "type": "string"
                },
                "cost": {
                    "type": "string",
                    "example": "50.75"
                },
                "cost_text": {
                    "type": "string",
                    "example": "USD 50.75"
                },
                "status": {
                    "type": "string",
                    "example": "unpaid"
                },
                "added_at": {
                    "type": "string"
                },
                "paid_at": {
                    "type": "string"
                },
                "paid_batch_id": {
                    "type": "string"
                }
            }
        },
        "api.PersonReportView": {
            "type": "object",
            "properties": {
                "person": {
                    "type": "string"
                },
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/api.ExpenseView"
                    }
                },
                "total": {
                    "type": "string",
                    "example": "70.75"
                },
                "total_text": {
                    "type": "string",
                    "example": "USD 70.75"
                }
            }
        },
        "api.ReportView": {
            "type": "object",
            "properties": {
                "currency": {
                    "type": "string",
                    "example": "USD"
                },
                "people": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/api.PersonReportView"
                    }
                },
                "grand_total": {
                    "type": "string",
                    "example": "70.75"
                },
                "grand_total_text": {
                    "type": "string",
                    "example": "USD 70.75"
                }
            }
        },
        "api.HistoryView": {
            "type": "object",
            "properties": {
                "batch_id": {
                    "type": "string"
                },
                "person": {
                    "type": "string"
                },
                "paid_at": {
                    "type": "string"
                },
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/api.ExpenseView"
                    }
                },
                "total": {
                    "type": "string",
                    "example": "70.75"
                },
                "total_text": {
                    "type": "string",
                    "example": "USD 70.75"
                }
            }
        }
    }
}`

// SwaggerInfo 接口文档基本信息
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "共享账本 API",
	Description:      "记录多人消费、按人汇总未支付金额、按批次结清并查看支付历史",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
