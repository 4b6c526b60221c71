package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PDA Bills API",
        "description": "Bill submission, departmental approval routing and balance ledger",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Bills", "description": "Bill submission and approval workflow"},
        {"name": "Balances", "description": "Employee balances and ledger entries"},
        {"name": "Employees", "description": "Employee directory"},
        {"name": "Artifacts", "description": "Signed bill voucher downloads"},
        {"name": "Authentication", "description": "Development token issuance"},
        {"name": "Observability", "description": "Workflow metrics"}
    ],
    "paths": {
        "/bills": {
            "get": {
                "tags": ["Bills"],
                "summary": "List bills",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["User", "Student Purchase", "Audit", "Finance Admin", "Accepted"]},
                    {"name": "category", "in": "query", "type": "string", "enum": ["Minor", "Major", "Consumables"]},
                    {"name": "awaiting", "in": "query", "type": "string", "enum": ["snp", "audit", "financeAdmin"]},
                    {"name": "employee_id", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Bills"],
                "summary": "Submit bill",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "Idempotency-Key", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBillRequest"}}
                ],
                "responses": {
                    "200": {"description": "Replayed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Insufficient balance", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bills/{id}": {
            "get": {
                "tags": ["Bills"],
                "summary": "Get bill",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Bills"],
                "summary": "Edit held bill",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EditBillRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not on hold", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Insufficient balance", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Bills"],
                "summary": "Delete bill",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/bills/{id}/actions": {
            "post": {
                "tags": ["Bills"],
                "summary": "Apply department decision",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BillActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Remark required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Wrong role", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bills/{id}/artifact": {
            "get": {
                "tags": ["Bills"],
                "summary": "Bill artifact links",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/artifacts/download": {
            "get": {
                "tags": ["Artifacts"],
                "summary": "Download artifact",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "produces": ["text/html", "application/pdf"],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/balances/me": {
            "get": {
                "tags": ["Balances"],
                "summary": "Own balance",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/balances/{employeeId}": {
            "get": {
                "tags": ["Balances"],
                "summary": "Employee balance",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "employeeId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Balances"],
                "summary": "Provision balance",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "employeeId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProvisionBalanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/balances/{employeeId}/entries": {
            "get": {
                "tags": ["Balances"],
                "summary": "Balance ledger",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "employeeId", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees": {
            "get": {
                "tags": ["Employees"],
                "summary": "List employees",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Employees"],
                "summary": "Create employee",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEmployeeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees/{id}": {
            "get": {
                "tags": ["Employees"],
                "summary": "Get employee",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Employees"],
                "summary": "Update employee",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateEmployeeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Employees"],
                "summary": "Delete employee",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Employee has bills", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dev/token": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Issue development token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DevTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Metrics summary",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateBillRequest": {
            "type": "object",
            "required": ["category", "value"],
            "properties": {
                "category": {"type": "string", "enum": ["Minor", "Major", "Consumables"]},
                "value": {"type": "string", "example": "10000.00"},
                "description": {"type": "string"}
            }
        },
        "EditBillRequest": {
            "type": "object",
            "required": ["category", "value"],
            "properties": {
                "category": {"type": "string", "enum": ["Minor", "Major", "Consumables"]},
                "value": {"type": "string", "example": "12000.00"},
                "description": {"type": "string"},
                "note": {"type": "string"}
            }
        },
        "BillActionRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string", "enum": ["Approve", "Hold", "Reject"]},
                "stage": {"type": "string", "enum": ["snp", "audit", "financeAdmin"]},
                "remark": {"type": "string"}
            }
        },
        "ProvisionBalanceRequest": {
            "type": "object",
            "properties": {
                "balance": {"type": "string", "example": "50000.00"}
            }
        },
        "CreateEmployeeRequest": {
            "type": "object",
            "required": ["name", "email", "department", "role"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "department": {"type": "string"},
                "role": {"type": "string", "enum": ["EMPLOYEE", "SNP", "AUDIT", "FINANCE_ADMIN", "ADMIN"]}
            }
        },
        "UpdateEmployeeRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "department": {"type": "string"},
                "role": {"type": "string", "enum": ["EMPLOYEE", "SNP", "AUDIT", "FINANCE_ADMIN", "ADMIN"]}
            }
        },
        "DevTokenRequest": {
            "type": "object",
            "required": ["user_id", "role", "department"],
            "properties": {
                "user_id": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string"},
                "department": {"type": "string"}
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
