package validation_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/antonio-alexander/go-employee-records/internal/data"
	"github.com/antonio-alexander/go-employee-records/internal/validation"

	"github.com/stretchr/testify/assert"
)

type emailChecker struct {
	emails  map[string]int64
	err     error
	checked []string
}

func (e *emailChecker) EmployeeEmailExists(_ context.Context, email string, excludeId int64) (bool, error) {
	e.checked = append(e.checked, email)
	if e.err != nil {
		return false, e.err
	}
	id, found := e.emails[email]
	return found && id != excludeId, nil
}

func str(s string) *string { return &s }

func num(f float64) *float64 { return &f }

func validPartial() data.EmployeePartial {
	return data.EmployeePartial{
		FirstName:  str("John"),
		LastName:   str("Doe"),
		Email:      str("john@test.com"),
		Position:   str("Dev"),
		Department: str("Engineering"),
		Salary:     num(75000),
		HireDate:   str("2023-01-01T00:00:00.000Z"),
	}
}

func TestValidateCreate(t *testing.T) {
	ctx := context.TODO()

	t.Run("Sanitized", func(t *testing.T) {
		partial := validPartial()
		partial.FirstName = str("  John ")
		partial.Email = str(" JOHN@Test.com ")
		partial.Phone = str("   ")
		sanitized, err := validation.ValidateCreate(ctx, partial, &emailChecker{})
		assert.Nil(t, err)
		assert.Equal(t, "John", *sanitized.FirstName)
		assert.Equal(t, "john@test.com", *sanitized.Email)
		assert.Nil(t, sanitized.Phone)
		assert.Equal(t, "   ", *partial.Phone)
	})

	cases := map[string]struct {
		mutate func(*data.EmployeePartial)
		err    *data.Error
	}{
		"missing_first_name":   {func(p *data.EmployeePartial) { p.FirstName = nil }, data.ErrMissingFirstName},
		"blank_first_name":     {func(p *data.EmployeePartial) { p.FirstName = str("  ") }, data.ErrMissingFirstName},
		"missing_last_name":    {func(p *data.EmployeePartial) { p.LastName = nil }, data.ErrMissingLastName},
		"missing_email":        {func(p *data.EmployeePartial) { p.Email = str("") }, data.ErrMissingEmail},
		"invalid_email":        {func(p *data.EmployeePartial) { p.Email = str("john@test") }, data.ErrInvalidEmailFormat},
		"email_with_space":     {func(p *data.EmployeePartial) { p.Email = str("jo hn@test.com") }, data.ErrInvalidEmailFormat},
		"missing_position":     {func(p *data.EmployeePartial) { p.Position = nil }, data.ErrMissingPosition},
		"missing_department":   {func(p *data.EmployeePartial) { p.Department = str(" ") }, data.ErrMissingDepartment},
		"missing_salary":       {func(p *data.EmployeePartial) { p.Salary = nil }, data.ErrMissingSalary},
		"zero_salary":          {func(p *data.EmployeePartial) { p.Salary = num(0) }, data.ErrInvalidSalary},
		"negative_salary":      {func(p *data.EmployeePartial) { p.Salary = num(-10) }, data.ErrInvalidSalary},
		"missing_hire_date":    {func(p *data.EmployeePartial) { p.HireDate = nil }, data.ErrMissingHireDate},
		"date_only_hire_date":  {func(p *data.EmployeePartial) { p.HireDate = str("2023-01-01") }, data.ErrInvalidHireDateFormat},
		"no_millis_hire_date":  {func(p *data.EmployeePartial) { p.HireDate = str("2023-01-01T00:00:00Z") }, data.ErrInvalidHireDateFormat},
		"first_violation_wins": {func(p *data.EmployeePartial) { p.LastName, p.Salary = nil, nil }, data.ErrMissingLastName},
		"nan_salary":           {func(p *data.EmployeePartial) { p.Salary = num(math.NaN()) }, data.ErrInvalidSalary},
		"nan_salary_in_order":  {func(p *data.EmployeePartial) { p.FirstName, p.Salary = str(""), num(math.NaN()) }, data.ErrMissingFirstName},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			partial := validPartial()
			c.mutate(&partial)
			_, err := validation.ValidateCreate(ctx, partial, &emailChecker{})
			assert.Equal(t, c.err, err)
		})
	}

	t.Run("EmailExists", func(t *testing.T) {
		checker := &emailChecker{emails: map[string]int64{"john@test.com": 1}}
		partial := validPartial()
		partial.Email = str("John@TEST.com")
		_, err := validation.ValidateCreate(ctx, partial, checker)
		assert.Equal(t, data.ErrEmailExists, err)
		assert.Equal(t, []string{"john@test.com"}, checker.checked)
	})

	t.Run("EmailCheckedBeforePosition", func(t *testing.T) {
		checker := &emailChecker{emails: map[string]int64{"john@test.com": 1}}
		partial := validPartial()
		partial.Position = nil
		_, err := validation.ValidateCreate(ctx, partial, checker)
		assert.Equal(t, data.ErrEmailExists, err)
	})

	t.Run("EmailNotCheckedWhenInvalid", func(t *testing.T) {
		checker := &emailChecker{}
		partial := validPartial()
		partial.Email = str("nope")
		_, err := validation.ValidateCreate(ctx, partial, checker)
		assert.Equal(t, data.ErrInvalidEmailFormat, err)
		assert.Empty(t, checker.checked)
	})

	t.Run("CheckerError", func(t *testing.T) {
		checkErr := errors.New("connection refused")
		_, err := validation.ValidateCreate(ctx, validPartial(), &emailChecker{err: checkErr})
		assert.Equal(t, checkErr, err)
	})
}

func TestValidateUpdate(t *testing.T) {
	ctx := context.TODO()

	t.Run("Empty", func(t *testing.T) {
		sanitized, err := validation.ValidateUpdate(ctx, 1, data.EmployeePartial{}, &emailChecker{})
		assert.Nil(t, err)
		assert.Equal(t, data.EmployeePartial{}, sanitized)
	})

	t.Run("PhoneCleared", func(t *testing.T) {
		sanitized, err := validation.ValidateUpdate(ctx, 1, data.EmployeePartial{Phone: str(" ")}, &emailChecker{})
		assert.Nil(t, err)
		if assert.NotNil(t, sanitized.Phone) {
			assert.Equal(t, "", *sanitized.Phone)
		}
	})

	t.Run("OwnEmail", func(t *testing.T) {
		checker := &emailChecker{emails: map[string]int64{"john@test.com": 1}}
		sanitized, err := validation.ValidateUpdate(ctx, 1, data.EmployeePartial{Email: str("JOHN@test.com")}, checker)
		assert.Nil(t, err)
		assert.Equal(t, "john@test.com", *sanitized.Email)
		_, err = validation.ValidateUpdate(ctx, 2, data.EmployeePartial{Email: str("john@test.com")}, checker)
		assert.Equal(t, data.ErrEmailExists, err)
	})

	cases := map[string]struct {
		partial data.EmployeePartial
		err     *data.Error
	}{
		"first_name": {data.EmployeePartial{FirstName: str("")}, data.ErrInvalidFirstName},
		"last_name":  {data.EmployeePartial{LastName: str(" ")}, data.ErrInvalidLastName},
		"email":      {data.EmployeePartial{Email: str("john")}, data.ErrInvalidEmail},
		"position":   {data.EmployeePartial{Position: str("")}, data.ErrInvalidPosition},
		"department": {data.EmployeePartial{Department: str("")}, data.ErrInvalidDepartment},
		"salary":     {data.EmployeePartial{Salary: num(-10)}, data.ErrInvalidSalary},
		"zero":       {data.EmployeePartial{Salary: num(0)}, data.ErrInvalidSalary},
		"nan":        {data.EmployeePartial{Salary: num(math.NaN())}, data.ErrInvalidSalary},
		"nan_order":  {data.EmployeePartial{FirstName: str(" "), Salary: num(math.NaN())}, data.ErrInvalidFirstName},
		"hire_date":  {data.EmployeePartial{HireDate: str("yesterday")}, data.ErrInvalidHireDate},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := validation.ValidateUpdate(ctx, 1, c.partial, &emailChecker{})
			assert.Equal(t, c.err, err)
		})
	}
}
