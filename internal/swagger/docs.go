// Package Swagger go-employee-records
//
// An API to create, read, search, update and delete employee records.
//
//   Schemes: http, https
//   Version: 1.0
//   Host: localhost:8080
//   BasePath:/
//
//   Consumes:
//   - application/json
//
//   Produces:
//   - application/json
//
// swagger:meta
package swagger

import "github.com/antonio-alexander/go-employee-records/internal/data"

// swagger:response ErrorResponse
type ErrorResponse struct {
	// in:body
	Body data.ErrorResponse
}

// swagger:parameters CreateEmployee ReadEmployee SearchEmployees UpdateEmployee DeleteEmployee DeleteCache ReadCacheCounters DeleteCacheCounters ReadTimers DeleteTimers
type CorrelationIdParam struct {
	// in:header
	CorrelationId string `json:"Correlation-Id"`
}
