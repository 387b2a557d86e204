// Package validation sanitizes employee payloads and checks them against
// the field rules. Rules are evaluated in a fixed order and only the
// first violation is reported.
package validation

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/antonio-alexander/go-employee-records/internal/data"

	"github.com/go-playground/validator/v10"
)

const (
	tagEmailShape string = "email_shape"
	tagHireDate   string = "hire_date"
)

var (
	emailShape    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	hireDateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)
	validate      = newValidator()
)

// EmailChecker reports whether an employee other than excludeId already
// uses email
type EmailChecker interface {
	EmployeeEmailExists(ctx context.Context, email string, excludeId int64) (bool, error)
}

// the field order of these structs is the rule order, they must stay
// convertible from data.EmployeePartial. required only checks a pointer
// is set, min=1 rejects a blank (trimmed) value
type createRules struct {
	FirstName  *string  `validate:"required,min=1"`
	LastName   *string  `validate:"required,min=1"`
	Email      *string  `validate:"required,min=1,email_shape"`
	Position   *string  `validate:"required,min=1"`
	Department *string  `validate:"required,min=1"`
	Salary     *float64 `validate:"required,gt=0"`
	HireDate   *string  `validate:"required,min=1,hire_date"`
	Phone      *string
}

type updateRules struct {
	FirstName  *string  `validate:"omitnil,min=1"`
	LastName   *string  `validate:"omitnil,min=1"`
	Email      *string  `validate:"omitnil,min=1,email_shape"`
	Position   *string  `validate:"omitnil,min=1"`
	Department *string  `validate:"omitnil,min=1"`
	Salary     *float64 `validate:"omitnil,gt=0"`
	HireDate   *string  `validate:"omitnil,min=1,hire_date"`
	Phone      *string
}

// fields evaluated before the email uniqueness check
var identityFields = map[string]bool{
	"FirstName": true,
	"LastName":  true,
	"Email":     true,
}

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation(tagEmailShape, func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation(tagHireDate, func(fl validator.FieldLevel) bool {
		return hireDateShape.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func trim(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// Sanitize trims every string, lower-cases the email and collapses a
// blank phone to an empty string; the caller decides what an empty phone
// means for its write path
func Sanitize(partial data.EmployeePartial) data.EmployeePartial {
	sanitized := data.EmployeePartial{
		FirstName:  trim(partial.FirstName),
		LastName:   trim(partial.LastName),
		Email:      trim(partial.Email),
		Position:   trim(partial.Position),
		Department: trim(partial.Department),
		HireDate:   trim(partial.HireDate),
		Phone:      trim(partial.Phone),
	}
	if partial.Salary != nil {
		salary := *partial.Salary
		sanitized.Salary = &salary
	}
	if sanitized.Email != nil {
		email := strings.ToLower(*sanitized.Email)
		sanitized.Email = &email
	}
	return sanitized
}

func firstFieldError(err error) (validator.FieldError, error) {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil, err
	}
	if len(errs) == 0 {
		return nil, nil
	}
	return errs[0], nil
}

func createError(partial data.EmployeePartial, fieldErr validator.FieldError) error {
	switch fieldErr.StructField() {
	default:
		return data.ErrInternal
	case "FirstName":
		return data.ErrMissingFirstName
	case "LastName":
		return data.ErrMissingLastName
	case "Email":
		if fieldErr.Tag() == tagEmailShape {
			return data.ErrInvalidEmailFormat
		}
		return data.ErrMissingEmail
	case "Position":
		return data.ErrMissingPosition
	case "Department":
		return data.ErrMissingDepartment
	case "Salary":
		if partial.Salary == nil {
			return data.ErrMissingSalary
		}
		return data.ErrInvalidSalary
	case "HireDate":
		if fieldErr.Tag() == tagHireDate {
			return data.ErrInvalidHireDateFormat
		}
		return data.ErrMissingHireDate
	}
}

func updateError(fieldErr validator.FieldError) error {
	switch fieldErr.StructField() {
	default:
		return data.ErrInternal
	case "FirstName":
		return data.ErrInvalidFirstName
	case "LastName":
		return data.ErrInvalidLastName
	case "Email":
		return data.ErrInvalidEmail
	case "Position":
		return data.ErrInvalidPosition
	case "Department":
		return data.ErrInvalidDepartment
	case "Salary":
		return data.ErrInvalidSalary
	case "HireDate":
		return data.ErrInvalidHireDate
	}
}

func checkEmail(ctx context.Context, checker EmailChecker, email *string, excludeId int64) error {
	if checker == nil || email == nil {
		return nil
	}
	exists, err := checker.EmployeeEmailExists(ctx, *email, excludeId)
	if err != nil {
		return err
	}
	if exists {
		return data.ErrEmailExists
	}
	return nil
}

// validateStruct runs the struct rules and slots the uniqueness check in
// after the identity fields
func validateStruct(ctx context.Context, rules any, checker EmailChecker,
	email *string, excludeId int64, toError func(validator.FieldError) error) error {
	fieldErr, err := firstFieldError(validate.StructCtx(ctx, rules))
	if err != nil {
		return err
	}
	if fieldErr != nil && identityFields[fieldErr.StructField()] {
		return toError(fieldErr)
	}
	if err := checkEmail(ctx, checker, email, excludeId); err != nil {
		return err
	}
	if fieldErr != nil {
		return toError(fieldErr)
	}
	return nil
}

// ValidateCreate sanitizes and validates a complete employee, a blank
// phone is normalized to nil
func ValidateCreate(ctx context.Context, partial data.EmployeePartial, checker EmailChecker) (data.EmployeePartial, error) {
	sanitized := Sanitize(partial)
	if sanitized.Phone != nil && *sanitized.Phone == "" {
		sanitized.Phone = nil
	}
	if err := validateStruct(ctx, createRules(sanitized), checker, sanitized.Email, 0,
		func(fieldErr validator.FieldError) error {
			return createError(sanitized, fieldErr)
		}); err != nil {
		return data.EmployeePartial{}, err
	}
	return sanitized, nil
}

// ValidateUpdate sanitizes and validates the fields present in partial,
// the employee being updated is excluded from the uniqueness check. A
// blank phone is kept as an empty string and means the phone is cleared.
func ValidateUpdate(ctx context.Context, id int64, partial data.EmployeePartial, checker EmailChecker) (data.EmployeePartial, error) {
	sanitized := Sanitize(partial)
	if err := validateStruct(ctx, updateRules(sanitized), checker, sanitized.Email, id,
		updateError); err != nil {
		return data.EmployeePartial{}, err
	}
	return sanitized, nil
}
