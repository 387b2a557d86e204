package logic

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/antonio-alexander/go-employee-records/internal"
	"github.com/antonio-alexander/go-employee-records/internal/cache"
	"github.com/antonio-alexander/go-employee-records/internal/data"
	"github.com/antonio-alexander/go-employee-records/internal/sql"
	"github.com/antonio-alexander/go-employee-records/internal/utilities"
	"github.com/antonio-alexander/go-employee-records/internal/validation"
)

const counterKeySearch string = "search"

type Logic interface {
	EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error)
	EmployeeUpdate(ctx context.Context, id int64, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) (*data.Employee, error)
}

type logic struct {
	sync.RWMutex
	sql   sql.Sql
	cache cache.Cache
	guard cache.Guard
	utilities.Logger
	utilities.Counter
	config struct {
		cacheEnabled   bool
		mutateDisabled bool
	}
}

func NewLogic(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Logic
} {
	l := &logic{
		Logger:  utilities.NewNullLogger(),
		Counter: utilities.NewCounter(),
	}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case sql.Sql:
			l.sql = v
		case cache.Cache:
			l.cache = v
		case utilities.Logger:
			l.Logger = v
		case utilities.Counter:
			l.Counter = v
		}
	}
	return l
}

func counterKeyEmployee(id int64) string {
	return fmt.Sprintf("employee_%d", id)
}

func (l *logic) Configure(envs map[string]string) error {
	l.Lock()
	defer l.Unlock()

	if cacheEnabled, ok := envs["LOGIC_CACHE_ENABLED"]; ok {
		l.config.cacheEnabled, _ = strconv.ParseBool(cacheEnabled)
	}
	if mutateDisabled, ok := envs["MUTATE_DISABLED"]; ok {
		l.config.mutateDisabled, _ = strconv.ParseBool(mutateDisabled)
	}
	return nil
}

func (l *logic) Open(ctx context.Context) error {
	l.Lock()
	defer l.Unlock()

	if l.sql == nil {
		return fmt.Errorf("sql not provided")
	}
	if l.config.cacheEnabled && l.cache == nil {
		l.Error(ctx, "cache enabled, but no cache provided; disabling cache")
		l.config.cacheEnabled = false
	}
	if l.config.cacheEnabled {
		l.Info(ctx, "cache enabled")
	}
	return nil
}

func (l *logic) Close(ctx context.Context) error {
	return nil
}

func (l *logic) cacheEnabled() bool {
	l.RLock()
	defer l.RUnlock()

	return l.config.cacheEnabled
}

func (l *logic) mutateDisabled() bool {
	l.RLock()
	defer l.RUnlock()

	return l.config.mutateDisabled
}

// invalidate evicts the employee and every cached search since any
// mutation can change which employees a search resolves to, generation
// must be read before the mutation reached sql
func (l *logic) invalidate(ctx context.Context, generation uint64, employee *data.Employee, evict bool) {
	if !l.cacheEnabled() {
		return
	}
	l.guard.Invalidate(generation, func(stale bool) {
		if err := l.cache.SearchesClear(ctx); err != nil {
			l.Error(ctx, "error while clearing cached searches: %s", err)
		}
		if employee == nil {
			return
		}
		// a concurrent mutation may have cached a newer copy
		if evict || stale {
			if err := l.cache.EmployeesDelete(ctx, employee.ID); err != nil {
				l.Error(ctx, "error while deleting employee (%d) from cache: %s", employee.ID, err)
			}
			return
		}
		if err := l.cache.EmployeesWrite(ctx, employee); err != nil {
			l.Error(ctx, "error while writing employee (%d) to cache: %s", employee.ID, err)
		}
	})
}

func (l *logic) EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error) {
	if l.mutateDisabled() {
		return nil, data.ErrMutationDisabled
	}
	employeePartial, err := validation.ValidateCreate(ctx, employeePartial, l.sql)
	if err != nil {
		return nil, err
	}
	generation := l.guard.Generation()
	employee, err := l.sql.EmployeeCreate(ctx, employeePartial)
	if err != nil {
		return nil, err
	}
	l.invalidate(ctx, generation, employee, false)
	l.Debug(ctx, "created employee: %d", employee.ID)
	return employee, nil
}

func (l *logic) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	if l.cacheEnabled() {
		employee, err := l.cache.EmployeeRead(ctx, id)
		if err == nil {
			l.IncrementHit(counterKeyEmployee(id))
			return employee, nil
		}
		l.IncrementMiss(counterKeyEmployee(id))
		l.Trace(ctx, "error while reading employee (%d) from cache: %s", id, err)
	}
	generation := l.guard.Generation()
	employee, err := l.sql.EmployeeRead(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.cacheEnabled() {
		ok, err := l.guard.Fill(generation, func() error {
			return l.cache.EmployeesWrite(ctx, employee)
		})
		switch {
		case err != nil:
			l.Error(ctx, "error while writing employee (%d) to cache: %s", id, err)
		case !ok:
			l.Trace(ctx, "employee (%d) invalidated while reading, not cached", id)
		}
	}
	return employee, nil
}

func (l *logic) EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	search.Normalize()
	if search.ID != nil {
		employee, err := l.EmployeeRead(ctx, *search.ID)
		if err != nil {
			return nil, err
		}
		return []*data.Employee{employee}, nil
	}
	if l.cacheEnabled() {
		employees, err := l.cache.SearchRead(ctx, search)
		if err == nil {
			l.IncrementHit(counterKeySearch)
			return employees, nil
		}
		l.IncrementMiss(counterKeySearch)
		l.Trace(ctx, "error while reading employees from cache: %s", err)
	}
	generation := l.guard.Generation()
	employees, err := l.sql.EmployeesSearch(ctx, search)
	if err != nil {
		return nil, err
	}
	if l.cacheEnabled() {
		ok, err := l.guard.Fill(generation, func() error {
			return l.cache.SearchWrite(ctx, search, employees...)
		})
		switch {
		case err != nil:
			l.Error(ctx, "error while writing employees to cache: %s", err)
		case !ok:
			l.Trace(ctx, "employees invalidated while searching, not cached")
		}
	}
	return employees, nil
}

func (l *logic) EmployeeUpdate(ctx context.Context, id int64, employeePartial data.EmployeePartial) (*data.Employee, error) {
	if l.mutateDisabled() {
		return nil, data.ErrMutationDisabled
	}
	employeePartial, err := validation.ValidateUpdate(ctx, id, employeePartial, l.sql)
	if err != nil {
		return nil, err
	}
	generation := l.guard.Generation()
	employee, err := l.sql.EmployeeUpdate(ctx, id, employeePartial)
	if err != nil {
		return nil, err
	}
	l.invalidate(ctx, generation, employee, false)
	l.Debug(ctx, "updated employee: %d", id)
	return employee, nil
}

func (l *logic) EmployeeDelete(ctx context.Context, id int64) (*data.Employee, error) {
	if l.mutateDisabled() {
		return nil, data.ErrMutationDisabled
	}
	generation := l.guard.Generation()
	employee, err := l.sql.EmployeeDelete(ctx, id)
	if err != nil {
		return nil, err
	}
	l.invalidate(ctx, generation, employee, true)
	l.Debug(ctx, "deleted employee: %d", id)
	return employee, nil
}
