package client

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-records/internal"
	"github.com/antonio-alexander/go-employee-records/internal/cache"
	"github.com/antonio-alexander/go-employee-records/internal/data"
	"github.com/antonio-alexander/go-employee-records/internal/utilities"

	"github.com/pkg/errors"
)

type Client interface {
	EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error)
	EmployeeUpdate(ctx context.Context, id int64, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) (*data.Employee, error)
	Healthcheck(ctx context.Context) error
	CacheClear(ctx context.Context) error
	CacheCountersRead(ctx context.Context) (*data.CacheCounters, error)
	CacheCountersClear(ctx context.Context) error
	TimersRead(ctx context.Context) (*data.Timers, error)
	TimersClear(ctx context.Context) error
}

type client struct {
	sync.RWMutex
	config struct {
		protocol      string
		address       string
		port          string
		timeout       time.Duration
		sslCaFile     string
		sslCrtFile    string
		sslKeyFile    string
		cacheDisabled bool
	}
	address string
	cache   cache.Cache
	guard   cache.Guard
	utilities.Logger
	*http.Client
}

// NewClient creates a client for the employee records service, if a cache
// is provided, reads are served from it until it's disabled
func NewClient(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Client
} {
	c := &client{
		Client: &http.Client{},
		Logger: utilities.NewNullLogger(),
	}
	c.config.protocol = "http"
	c.config.address = "localhost"
	c.config.port = "8080"
	c.config.timeout = 10 * time.Second
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case cache.Cache:
			c.cache = p
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *client) cacheEnabled() bool {
	return c.cache != nil && !c.config.cacheDisabled
}

func (c *client) uri(route string, a ...any) string {
	return c.address + fmt.Sprintf(route, a...)
}

// invalidate clears cached searches and writes (or evicts) the employee,
// generation must be read before the request was sent
func (c *client) invalidate(ctx context.Context, generation uint64, employee *data.Employee, evict bool) {
	if !c.cacheEnabled() {
		return
	}
	c.guard.Invalidate(generation, func(stale bool) {
		if err := c.cache.SearchesClear(ctx); err != nil {
			c.Error(ctx, "error while clearing cached searches: %s", err)
		}
		if evict || stale {
			if err := c.cache.EmployeesDelete(ctx, employee.ID); err != nil {
				c.Error(ctx, "error while deleting employee (%d) from cache: %s", employee.ID, err)
			}
			return
		}
		if err := c.cache.EmployeesWrite(ctx, employee); err != nil {
			c.Error(ctx, "error while writing employee (%d) to cache: %s", employee.ID, err)
		}
	})
}

func (c *client) Configure(envs map[string]string) error {
	c.Lock()
	defer c.Unlock()

	if address, ok := envs["CLIENT_ADDRESS"]; ok {
		c.config.address = address
	}
	if port, ok := envs["CLIENT_PORT"]; ok {
		c.config.port = port
	}
	if protocol, ok := envs["CLIENT_PROTOCOL"]; ok {
		c.config.protocol = protocol
	}
	if timeout, ok := envs["CLIENT_TIMEOUT"]; ok {
		i, err := strconv.ParseInt(timeout, 10, 64)
		if err != nil {
			return errors.Wrap(err, "CLIENT_TIMEOUT")
		}
		c.config.timeout = time.Duration(i) * time.Second
	}
	if sslCaFile, ok := envs["SSL_CA_FILE"]; ok {
		c.config.sslCaFile = sslCaFile
	}
	if sslKeyFile, ok := envs["SSL_KEY_FILE"]; ok {
		c.config.sslKeyFile = sslKeyFile
	}
	if sslCrtFile, ok := envs["SSL_CRT_FILE"]; ok {
		c.config.sslCrtFile = sslCrtFile
	}
	if cacheDisabled, ok := envs["CLIENT_CACHE_DISABLED"]; ok {
		c.config.cacheDisabled, _ = strconv.ParseBool(cacheDisabled)
	}
	return nil
}

func (c *client) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	switch c.config.protocol {
	default:
		return errors.Errorf("unsupported protocol: %s", c.config.protocol)
	case "http", "https":
		c.address = fmt.Sprintf("%s://%s", c.config.protocol,
			net.JoinHostPort(c.config.address, c.config.port))
	}
	if c.cache != nil && c.config.cacheDisabled {
		c.Info(ctx, "client: cache disabled")
	}
	c.Client.Timeout = c.config.timeout
	transport, err := newTransport(c.config.sslCaFile, c.config.sslCrtFile,
		c.config.sslKeyFile)
	if err != nil {
		return err
	}
	c.Client.Transport = transport
	return nil
}

func (c *client) Close(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.Client.CloseIdleConnections()
	return nil
}

func (c *client) EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error) {
	employee := &data.Employee{}
	generation := c.guard.Generation()
	if _, err := internal.DoRequest(ctx, c.Client, c.uri(data.RouteEmployees),
		http.MethodPost, &employeePartial, employee); err != nil {
		return nil, err
	}
	c.invalidate(ctx, generation, employee, false)
	return employee, nil
}

func (c *client) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	if c.cacheEnabled() {
		employee, err := c.cache.EmployeeRead(ctx, id)
		if err == nil {
			return employee, nil
		}
		c.Trace(ctx, "error while reading employee (%d) from cache: %s", id, err)
	}
	employee := &data.Employee{}
	generation := c.guard.Generation()
	if _, err := internal.DoRequest(ctx, c.Client, c.uri(data.RouteEmployeesIdf, id),
		http.MethodGet, nil, employee); err != nil {
		return nil, err
	}
	if c.cacheEnabled() {
		ok, err := c.guard.Fill(generation, func() error {
			return c.cache.EmployeesWrite(ctx, employee)
		})
		switch {
		case err != nil:
			c.Error(ctx, "error while writing employee (%d) to cache: %s", id, err)
		case !ok:
			c.Trace(ctx, "employee (%d) invalidated while reading, not cached", id)
		}
	}
	return employee, nil
}

func (c *client) EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	var employees []*data.Employee

	search.Normalize()
	if search.ID != nil {
		employee, err := c.EmployeeRead(ctx, *search.ID)
		if err != nil {
			return nil, err
		}
		return []*data.Employee{employee}, nil
	}
	if c.cacheEnabled() {
		employees, err := c.cache.SearchRead(ctx, search)
		if err == nil {
			return employees, nil
		}
		c.Trace(ctx, "error while reading employees from cache: %s", err)
	}
	generation := c.guard.Generation()
	if _, err := internal.DoRequest(ctx, c.Client, c.uri(data.RouteEmployees),
		http.MethodGet, search.ToParams(), &employees); err != nil {
		return nil, err
	}
	if c.cacheEnabled() {
		ok, err := c.guard.Fill(generation, func() error {
			return c.cache.SearchWrite(ctx, search, employees...)
		})
		switch {
		case err != nil:
			c.Error(ctx, "error while writing employees to cache: %s", err)
		case !ok:
			c.Trace(ctx, "employees invalidated while searching, not cached")
		}
	}
	return employees, nil
}

func (c *client) EmployeeUpdate(ctx context.Context, id int64, employeePartial data.EmployeePartial) (*data.Employee, error) {
	employee := &data.Employee{}
	generation := c.guard.Generation()
	if _, err := internal.DoRequest(ctx, c.Client, c.uri(data.RouteEmployeesIdf, id),
		http.MethodPut, &employeePartial, employee); err != nil {
		return nil, err
	}
	c.invalidate(ctx, generation, employee, false)
	return employee, nil
}

func (c *client) EmployeeDelete(ctx context.Context, id int64) (*data.Employee, error) {
	response := &data.DeleteResponse{}
	generation := c.guard.Generation()
	if _, err := internal.DoRequest(ctx, c.Client, c.uri(data.RouteEmployeesIdf, id),
		http.MethodDelete, nil, response); err != nil {
		return nil, err
	}
	if response.Employee == nil {
		response.Employee = &data.Employee{ID: id}
	}
	c.invalidate(ctx, generation, response.Employee, true)
	return response.Employee, nil
}

func (c *client) Healthcheck(ctx context.Context) error {
	_, err := internal.DoRequest(ctx, c.Client, c.uri(data.RouteHealthcheck), http.MethodGet, nil)
	return err
}

func (c *client) CacheClear(ctx context.Context) error {
	_, err := internal.DoRequest(ctx, c.Client, c.uri(data.RouteCache), http.MethodDelete, nil)
	return err
}

func (c *client) CacheCountersRead(ctx context.Context) (*data.CacheCounters, error) {
	counters := &data.CacheCounters{}
	if _, err := internal.DoRequest(ctx, c.Client, c.uri(data.RouteCacheCounters),
		http.MethodGet, nil, counters); err != nil {
		return nil, err
	}
	return counters, nil
}

func (c *client) CacheCountersClear(ctx context.Context) error {
	_, err := internal.DoRequest(ctx, c.Client, c.uri(data.RouteCacheCounters), http.MethodDelete, nil)
	return err
}

func (c *client) TimersRead(ctx context.Context) (*data.Timers, error) {
	timers := &data.Timers{}
	if _, err := internal.DoRequest(ctx, c.Client, c.uri(data.RouteTimers),
		http.MethodGet, nil, timers); err != nil {
		return nil, err
	}
	return timers, nil
}

func (c *client) TimersClear(ctx context.Context) error {
	_, err := internal.DoRequest(ctx, c.Client, c.uri(data.RouteTimers), http.MethodDelete, nil)
	return err
}
