package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/antonio-alexander/go-employee-records/internal"
	"github.com/antonio-alexander/go-employee-records/internal/data"
	"github.com/antonio-alexander/go-employee-records/internal/utilities"

	"github.com/antonio-alexander/go-stash"
)

const (
	prefixEmployee string = "employee:"
	prefixSearch   string = "search:"
)

type stashCache struct {
	sync.Mutex
	utilities.Logger
	stash interface {
		stash.Configurer
		stash.Parameterizer
		stash.Initializer
		stash.Shutdowner
	}
	stash.Stasher
	searchKeys map[string]struct{}
}

// NewStash creates a cache on top of a go-stash implementation, the stash
// must be provided as a parameter
func NewStash(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &stashCache{
		Logger:     utilities.NewNullLogger(),
		searchKeys: make(map[string]struct{}),
	}
	for _, p := range parameters {
		switch p := p.(type) {
		case utilities.Logger:
			c.Logger = p
		case interface {
			stash.Configurer
			stash.Parameterizer
			stash.Initializer
			stash.Shutdowner
			stash.Stasher
		}:
			c.stash = p
			c.Stasher = p
		}
	}
	if c.stash != nil {
		c.stash.SetParameters(parameters...)
	}
	return c
}

func employeeKey(id int64) string {
	return prefixEmployee + fmt.Sprint(id)
}

func (c *stashCache) Configure(envs map[string]string) error {
	if c.stash != nil {
		if err := c.stash.Configure(envs); err != nil {
			return err
		}
	}
	return nil
}

func (c *stashCache) Open(ctx context.Context) error {
	if c.stash == nil {
		return fmt.Errorf("stash not provided")
	}
	return c.stash.Initialize()
}

func (c *stashCache) Close(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Shutdown()
	}
	return nil
}

func (c *stashCache) Clear(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	clear(c.searchKeys)
	return c.Stasher.Clear()
}

func (c *stashCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	employee := &data.Employee{}
	if err := c.Stasher.Read(employeeKey(id), employee); err != nil {
		c.Trace(ctx, "cache miss for employee %d: %s", id, err)
		return nil, ErrEmployeeNotCached
	}
	c.Trace(ctx, "cache hit for employee: %d", id)
	return employee, nil
}

func (c *stashCache) EmployeesWrite(ctx context.Context, employees ...*data.Employee) error {
	for _, employee := range employees {
		if _, err := c.Stasher.Write(employeeKey(employee.ID), employee); err != nil {
			c.Error(ctx, "error while writing employee (%d): %s", employee.ID, err)
			return err
		}
		c.Trace(ctx, "cached employee: %d", employee.ID)
	}
	return nil
}

func (c *stashCache) EmployeesDelete(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		if err := c.Stasher.Delete(employeeKey(id)); err != nil {
			// deleting something that isn't cached isn't a failure
			c.Trace(ctx, "unable to evict employee (%d): %s", id, err)
			continue
		}
		c.Trace(ctx, "evicted cached employee: %d", id)
	}
	return nil
}

func (c *stashCache) SearchRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	searchKey, err := search.ToKey()
	if err != nil {
		return nil, err
	}
	var ids data.EmployeeIds
	if err := c.Stasher.Read(prefixSearch+searchKey, &ids); err != nil {
		c.Trace(ctx, "cache miss for employee search: %s", searchKey)
		return nil, ErrSearchNotCached
	}
	employees := make([]*data.Employee, 0, len(ids))
	for _, id := range ids {
		employee := &data.Employee{}
		if err := c.Stasher.Read(employeeKey(id), employee); err != nil {
			// a partial result is never returned, the search is invalidated
			// so the next read repopulates it
			c.Trace(ctx, "cache miss for employee search: %s", searchKey)
			if err := c.Stasher.Delete(prefixSearch + searchKey); err != nil {
				c.Error(ctx, "error while deleting search key (%s): %s",
					searchKey, err)
			}
			return nil, ErrSearchNotCached
		}
		employees = append(employees, employee)
	}
	c.Trace(ctx, "cache hit for employee search: %s", searchKey)
	return employees, nil
}

func (c *stashCache) SearchWrite(ctx context.Context, search data.EmployeeSearch, employees ...*data.Employee) error {
	searchKey, err := search.ToKey()
	if err != nil {
		c.Error(ctx, "error while creating search key: %s", err)
		return err
	}
	if err := c.EmployeesWrite(ctx, employees...); err != nil {
		return err
	}
	ids := make(data.EmployeeIds, 0, len(employees))
	for _, employee := range employees {
		ids = append(ids, employee.ID)
	}
	c.Lock()
	defer c.Unlock()

	if _, err := c.Stasher.Write(prefixSearch+searchKey, &ids); err != nil {
		c.Error(ctx, "error while writing search: %s", err)
		return err
	}
	c.searchKeys[searchKey] = struct{}{}
	c.Trace(ctx, "cached employees search: %s", searchKey)
	return nil
}

func (c *stashCache) SearchesClear(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	for searchKey := range c.searchKeys {
		if err := c.Stasher.Delete(prefixSearch + searchKey); err != nil {
			c.Trace(ctx, "unable to delete search key (%s): %s", searchKey, err)
		}
		delete(c.searchKeys, searchKey)
	}
	return nil
}
