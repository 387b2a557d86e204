package cache

import (
	"context"
	"errors"

	"github.com/antonio-alexander/go-employee-records/internal"
	"github.com/antonio-alexander/go-employee-records/internal/data"

	"github.com/antonio-alexander/go-stash/memory"
	"github.com/antonio-alexander/go-stash/redis"
)

const (
	TypeMemory      string = "memory"
	TypeRedis       string = "redis"
	TypeStashMemory string = "stash-memory"
	TypeStashRedis  string = "stash-redis"
)

var (
	ErrEmployeeNotCached = errors.New("employee not cached")
	ErrSearchNotCached   = errors.New("employee search not cached")
)

// Cache stores employees by id and the ordered ids a search resolved to,
// a search is only served when every employee it references is cached
type Cache interface {
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesWrite(ctx context.Context, employees ...*data.Employee) error
	EmployeesDelete(ctx context.Context, ids ...int64) error
	SearchRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error)
	SearchWrite(ctx context.Context, search data.EmployeeSearch, employees ...*data.Employee) error
	SearchesClear(ctx context.Context) error
}

// New creates the cache named by cacheType, it returns nil when caching
// isn't configured; the cache still has to be configured and opened
func New(cacheType string, parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	switch cacheType {
	default:
		return nil
	case TypeMemory:
		return NewMemory(parameters...)
	case TypeRedis:
		return NewRedis(parameters...)
	case TypeStashMemory:
		parameters = append(parameters, memory.New())
		return NewStash(parameters...)
	case TypeStashRedis:
		parameters = append(parameters, redis.New())
		return NewStash(parameters...)
	}
}

func copyEmployee(e *data.Employee) *data.Employee {
	employee := &data.Employee{}
	*employee = *e
	if e.Phone != nil {
		phone := *e.Phone
		employee.Phone = &phone
	}
	return employee
}
