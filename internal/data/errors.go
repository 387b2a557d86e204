package data

import (
	"errors"
	"net/http"
)

const (
	CodeMissingFirstName      string = "MISSING_FIRST_NAME"
	CodeMissingLastName       string = "MISSING_LAST_NAME"
	CodeMissingEmail          string = "MISSING_EMAIL"
	CodeInvalidEmailFormat    string = "INVALID_EMAIL_FORMAT"
	CodeMissingPosition       string = "MISSING_POSITION"
	CodeMissingDepartment     string = "MISSING_DEPARTMENT"
	CodeMissingSalary         string = "MISSING_SALARY"
	CodeInvalidSalary         string = "INVALID_SALARY"
	CodeMissingHireDate       string = "MISSING_HIRE_DATE"
	CodeInvalidHireDateFormat string = "INVALID_HIRE_DATE_FORMAT"
	CodeEmailExists           string = "EMAIL_EXISTS"
	CodeInvalidFirstName      string = "INVALID_FIRST_NAME"
	CodeInvalidLastName       string = "INVALID_LAST_NAME"
	CodeInvalidEmail          string = "INVALID_EMAIL"
	CodeInvalidPosition       string = "INVALID_POSITION"
	CodeInvalidDepartment     string = "INVALID_DEPARTMENT"
	CodeInvalidHireDate       string = "INVALID_HIRE_DATE"
	CodeInvalidId             string = "INVALID_ID"
	CodeInvalidBody           string = "INVALID_BODY"
	CodeEmployeeNotFound      string = "EMPLOYEE_NOT_FOUND"
	CodeMutationDisabled      string = "MUTATION_DISABLED"
	CodeNotFound              string = "NOT_FOUND"
	CodeMethodNotAllowed      string = "METHOD_NOT_ALLOWED"
	CodeInternalError         string = "INTERNAL_ERROR"
)

// Error is an error that's safe to return to a caller: it has a stable
// code and the http status it maps to
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(code, message string, statusCode int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// AsError returns the *Error within err, anything else is reported as an
// internal error with a generic message
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal
}

var (
	ErrMissingFirstName      = NewError(CodeMissingFirstName, "first name is required", http.StatusBadRequest)
	ErrMissingLastName       = NewError(CodeMissingLastName, "last name is required", http.StatusBadRequest)
	ErrMissingEmail          = NewError(CodeMissingEmail, "email is required", http.StatusBadRequest)
	ErrInvalidEmailFormat    = NewError(CodeInvalidEmailFormat, "email format is invalid", http.StatusBadRequest)
	ErrMissingPosition       = NewError(CodeMissingPosition, "position is required", http.StatusBadRequest)
	ErrMissingDepartment     = NewError(CodeMissingDepartment, "department is required", http.StatusBadRequest)
	ErrMissingSalary         = NewError(CodeMissingSalary, "salary is required", http.StatusBadRequest)
	ErrInvalidSalary         = NewError(CodeInvalidSalary, "salary must be a positive number", http.StatusBadRequest)
	ErrMissingHireDate       = NewError(CodeMissingHireDate, "hire date is required", http.StatusBadRequest)
	ErrInvalidHireDateFormat = NewError(CodeInvalidHireDateFormat, "hire date must be formatted as YYYY-MM-DDTHH:MM:SS.sssZ", http.StatusBadRequest)
	ErrEmailExists           = NewError(CodeEmailExists, "an employee with this email already exists", http.StatusBadRequest)
	ErrInvalidFirstName      = NewError(CodeInvalidFirstName, "first name cannot be empty", http.StatusBadRequest)
	ErrInvalidLastName       = NewError(CodeInvalidLastName, "last name cannot be empty", http.StatusBadRequest)
	ErrInvalidEmail          = NewError(CodeInvalidEmail, "email must be a valid email address", http.StatusBadRequest)
	ErrInvalidPosition       = NewError(CodeInvalidPosition, "position cannot be empty", http.StatusBadRequest)
	ErrInvalidDepartment     = NewError(CodeInvalidDepartment, "department cannot be empty", http.StatusBadRequest)
	ErrInvalidHireDate       = NewError(CodeInvalidHireDate, "hire date must be formatted as YYYY-MM-DDTHH:MM:SS.sssZ", http.StatusBadRequest)
	ErrInvalidId             = NewError(CodeInvalidId, "employee id must be an integer", http.StatusBadRequest)
	ErrMissingId             = NewError(CodeInvalidId, "employee id is required", http.StatusBadRequest)
	ErrInvalidBody           = NewError(CodeInvalidBody, "request body must be a valid json object", http.StatusBadRequest)
	ErrEmployeeNotFound      = NewError(CodeEmployeeNotFound, "employee not found", http.StatusNotFound)
	ErrMutationDisabled      = NewError(CodeMutationDisabled, "mutation disabled", http.StatusServiceUnavailable)
	ErrRouteNotFound         = NewError(CodeNotFound, "route not found", http.StatusNotFound)
	ErrMethodNotAllowed      = NewError(CodeMethodNotAllowed, "method not allowed", http.StatusMethodNotAllowed)
	ErrInternal              = NewError(CodeInternalError, "internal server error", http.StatusInternalServerError)
)
