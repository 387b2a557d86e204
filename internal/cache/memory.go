package cache

import (
	"context"
	"sync"

	"github.com/antonio-alexander/go-employee-records/internal"
	"github.com/antonio-alexander/go-employee-records/internal/data"
	"github.com/antonio-alexander/go-employee-records/internal/utilities"
)

type memoryCache struct {
	sync.RWMutex
	employees map[int64]*data.Employee //map[id]employee
	searches  map[string][]int64       //map[search][]id
	utilities.Logger
}

func NewMemory(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &memoryCache{
		Logger:    utilities.NewNullLogger(),
		employees: make(map[int64]*data.Employee),
		searches:  make(map[string][]int64),
	}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *memoryCache) Configure(envs map[string]string) error {
	return nil
}

func (c *memoryCache) Open(ctx context.Context) error {
	return c.Clear(ctx)
}

func (c *memoryCache) Close(ctx context.Context) error {
	return c.Clear(ctx)
}

func (c *memoryCache) Clear(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	clear(c.employees)
	clear(c.searches)
	return nil
}

func (c *memoryCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	c.RLock()
	defer c.RUnlock()

	employee, ok := c.employees[id]
	if !ok {
		return nil, ErrEmployeeNotCached
	}
	return copyEmployee(employee), nil
}

func (c *memoryCache) EmployeesWrite(ctx context.Context, employees ...*data.Employee) error {
	c.Lock()
	defer c.Unlock()

	for _, e := range employees {
		c.employees[e.ID] = copyEmployee(e)
	}
	return nil
}

func (c *memoryCache) EmployeesDelete(ctx context.Context, ids ...int64) error {
	c.Lock()
	defer c.Unlock()

	for _, id := range ids {
		delete(c.employees, id)
	}
	return nil
}

func (c *memoryCache) SearchRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	c.Lock()
	defer c.Unlock()

	searchKey, err := search.ToKey()
	if err != nil {
		return nil, err
	}
	ids, ok := c.searches[searchKey]
	if !ok {
		return nil, ErrSearchNotCached
	}
	employees := make([]*data.Employee, 0, len(ids))
	for _, id := range ids {
		e, ok := c.employees[id]
		if !ok {
			c.Trace(ctx, "employee %d evicted, invalidating search: %s", id, searchKey)
			delete(c.searches, searchKey)
			return nil, ErrSearchNotCached
		}
		employees = append(employees, copyEmployee(e))
	}
	return employees, nil
}

func (c *memoryCache) SearchWrite(ctx context.Context, search data.EmployeeSearch, employees ...*data.Employee) error {
	c.Lock()
	defer c.Unlock()

	searchKey, err := search.ToKey()
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(employees))
	for _, e := range employees {
		c.employees[e.ID] = copyEmployee(e)
		ids = append(ids, e.ID)
	}
	c.searches[searchKey] = ids
	return nil
}

func (c *memoryCache) SearchesClear(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	clear(c.searches)
	return nil
}
