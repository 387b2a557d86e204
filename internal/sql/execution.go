package sql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/antonio-alexander/go-employee-records/internal/data"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
)

var (
	columnsInsert = []string{
		"first_name", "last_name", "email", "position", "department",
		"salary", "hire_date", "phone", "created_at", "updated_at",
	}
	columnsSelect = append([]string{"id"}, columnsInsert...)
)

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *sqlDb) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.QueryTimeout)
}

// mapError translates driver errors into the errors callers can act on,
// anything unrecognized is wrapped and treated as internal
func (s *sqlDb) mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return data.ErrEmployeeNotFound
	case s.isUnique(err):
		return data.ErrEmailExists
	}
	return errors.Wrap(err, "database error")
}

func valueOf(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func valueOfSalary(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// an empty phone is stored as null
func valueOfPhone(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func employeeUpdates(employeePartial data.EmployeePartial) map[string]any {
	updates := make(map[string]any)
	if employeePartial.FirstName != nil {
		updates["first_name"] = *employeePartial.FirstName
	}
	if employeePartial.LastName != nil {
		updates["last_name"] = *employeePartial.LastName
	}
	if employeePartial.Email != nil {
		updates["email"] = *employeePartial.Email
	}
	if employeePartial.Position != nil {
		updates["position"] = *employeePartial.Position
	}
	if employeePartial.Department != nil {
		updates["department"] = *employeePartial.Department
	}
	if employeePartial.Salary != nil {
		updates["salary"] = *employeePartial.Salary
	}
	if employeePartial.HireDate != nil {
		updates["hire_date"] = *employeePartial.HireDate
	}
	if employeePartial.Phone != nil {
		updates["phone"] = valueOfPhone(employeePartial.Phone)
	}
	return updates
}

// employeeCriteria matches the search term as a substring of any text
// column and the department exactly
func employeeCriteria(d *dialect, search data.EmployeeSearch) squirrel.And {
	criteria := squirrel.And{}
	if search.ID != nil {
		criteria = append(criteria, squirrel.Eq{"id": *search.ID})
	}
	if term := strings.TrimSpace(search.Search); term != "" {
		pattern := "%" + term + "%"
		criteria = append(criteria, squirrel.Or{
			d.like("first_name", pattern),
			d.like("last_name", pattern),
			d.like("email", pattern),
			d.like("position", pattern),
			d.like("department", pattern),
		})
	}
	if department := strings.TrimSpace(search.Department); department != "" {
		criteria = append(criteria, squirrel.Eq{"department": department})
	}
	return criteria
}

func employeeRead(ctx context.Context, db queryRower, builder squirrel.StatementBuilderType, id int64) (*data.Employee, error) {
	query, args, err := builder.Select(columnsSelect...).
		From(tableEmployees).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "unable to build read")
	}
	employee, err := employeeScan(db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, data.ErrEmployeeNotFound
		}
		return nil, errors.Wrap(err, "unable to read employee")
	}
	return employee, nil
}

func employeeScan(scanFx func(...any) error) (*data.Employee, error) {
	var phone sql.NullString

	employee := new(data.Employee)
	if err := scanFx(
		&employee.ID,
		&employee.FirstName,
		&employee.LastName,
		&employee.Email,
		&employee.Position,
		&employee.Department,
		&employee.Salary,
		&employee.HireDate,
		&phone,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if phone.Valid {
		employee.Phone = &phone.String
	}
	return employee, nil
}
