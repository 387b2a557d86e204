package swagger

import "github.com/antonio-alexander/go-employee-records/internal/data"

// swagger:route POST /employees Employee CreateEmployee
// Creates an employee, the email must be unique (case-insensitive).
//
// responses:
//   201: EmployeeResponse
//   400: ErrorResponse
//   500: ErrorResponse

// swagger:route GET /employees/{id} Employee ReadEmployee
// Reads an employee using its id, GET /employees?id={id} is equivalent.
//
// responses:
//   200: EmployeeResponse
//   400: ErrorResponse
//   404: ErrorResponse

// swagger:route GET /employees Employee SearchEmployees
// Searches employees by name or email and department, ordered by id.
//
// responses:
//   200: EmployeesResponse
//   400: ErrorResponse

// swagger:route PUT /employees/{id} Employee UpdateEmployee
// Updates the provided fields of an employee, PUT /employees?id={id} is equivalent.
//
// responses:
//   200: EmployeeResponse
//   400: ErrorResponse
//   404: ErrorResponse

// swagger:route DELETE /employees/{id} Employee DeleteEmployee
// Deletes an employee and returns the deleted record, DELETE /employees?id={id} is equivalent.
//
// responses:
//   200: EmployeeDeleteResponse
//   400: ErrorResponse
//   404: ErrorResponse

// swagger:response EmployeeResponse
type EmployeeResponse struct {
	// in:body
	Body data.Employee
}

// swagger:response EmployeesResponse
type EmployeesResponse struct {
	// in:body
	Body []data.Employee
}

// swagger:response EmployeeDeleteResponse
type EmployeeDeleteResponse struct {
	// in:body
	Body data.DeleteResponse
}

// swagger:parameters ReadEmployee UpdateEmployee DeleteEmployee
type EmployeeIdParam struct {
	// in:path
	// required: true
	Id int64 `json:"id"`
}

// swagger:parameters CreateEmployee UpdateEmployee
type EmployeeBodyParam struct {
	// in:body
	Body data.EmployeePartial
}

// swagger:parameters SearchEmployees
type EmployeeSearchParams struct {
	// matches first name, last name or email (case-insensitive)
	// in:query
	Search string `json:"search"`

	// in:query
	Department string `json:"department"`

	// in:query
	// minimum: 1
	// maximum: 100
	// default: 10
	Limit int `json:"limit"`

	// in:query
	// minimum: 0
	Offset int `json:"offset"`

	// returns a single employee instead of a list
	// in:query
	Id int64 `json:"id"`
}
