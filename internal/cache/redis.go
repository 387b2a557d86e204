package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/antonio-alexander/go-employee-records/internal"
	"github.com/antonio-alexander/go-employee-records/internal/data"
	"github.com/antonio-alexander/go-employee-records/internal/utilities"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	hashKeyEmployees string = "employees"
	hashKeySearch    string = "employees_search"
)

type redisCache struct {
	redisClient *redis.Client
	config      struct {
		address  string
		port     string
		password string
		database int
		timeout  time.Duration
	}
	ownsClient bool
	utilities.Logger
}

// NewRedis creates a cache backed by two redis hashes, a *redis.Client can
// be provided in which case it's used as is
func NewRedis(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &redisCache{Logger: utilities.NewNullLogger()}
	c.config.address = "localhost"
	c.config.port = "6379"
	c.config.timeout = 10 * time.Second
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		case *redis.Client:
			c.redisClient = p
		}
	}
	return c
}

func (c *redisCache) Configure(envs map[string]string) error {
	if redisAddress, ok := envs["REDIS_ADDRESS"]; ok {
		c.config.address = redisAddress
	}
	if redisPort, ok := envs["REDIS_PORT"]; ok {
		c.config.port = redisPort
	}
	if redisPassword, ok := envs["REDIS_PASSWORD"]; ok {
		c.config.password = redisPassword
	}
	if redisDatabase, ok := envs["REDIS_DATABASE"]; ok {
		i, _ := strconv.ParseInt(redisDatabase, 10, 64)
		c.config.database = int(i)
	}
	if redisTimeout, ok := envs["REDIS_TIMEOUT"]; ok {
		if i, _ := strconv.ParseInt(redisTimeout, 10, 64); i > 0 {
			c.config.timeout = time.Duration(i) * time.Second
		}
	}
	return nil
}

func (c *redisCache) Open(ctx context.Context) error {
	if c.redisClient != nil {
		return nil
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(c.config.address, c.config.port),
		Password: c.config.password,
		DB:       c.config.database,
	})
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return errors.Wrap(err, "unable to ping redis")
	}
	c.redisClient, c.ownsClient = redisClient, true
	return nil
}

func (c *redisCache) Close(ctx context.Context) error {
	if !c.ownsClient {
		return nil
	}
	if err := c.redisClient.Close(); err != nil {
		c.Error(ctx, "error while shutting down redis client: %s", err)
	}
	c.redisClient, c.ownsClient = nil, false
	return nil
}

func (c *redisCache) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()

	if _, err := c.redisClient.Del(ctx, hashKeyEmployees, hashKeySearch).Result(); err != nil {
		return err
	}
	return nil
}

func (c *redisCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()

	value, err := c.redisClient.HGet(ctx, hashKeyEmployees, fmt.Sprint(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmployeeNotCached
		}
		return nil, err
	}
	employee := &data.Employee{}
	if err := employee.UnmarshalBinary([]byte(value)); err != nil {
		return nil, err
	}
	return employee, nil
}

func (c *redisCache) EmployeesWrite(ctx context.Context, employees ...*data.Employee) error {
	if len(employees) <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()

	values := make([]any, 0, 2*len(employees))
	for _, employee := range employees {
		bytes, err := employee.MarshalBinary()
		if err != nil {
			return err
		}
		values = append(values, fmt.Sprint(employee.ID), string(bytes))
	}
	if _, err := c.redisClient.HSet(ctx, hashKeyEmployees, values...).Result(); err != nil {
		return err
	}
	return nil
}

func (c *redisCache) EmployeesDelete(ctx context.Context, ids ...int64) error {
	if len(ids) <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()

	fields := make([]string, 0, len(ids))
	for _, id := range ids {
		fields = append(fields, fmt.Sprint(id))
	}
	if _, err := c.redisClient.HDel(ctx, hashKeyEmployees, fields...).Result(); err != nil {
		return err
	}
	return nil
}

func (c *redisCache) SearchRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()

	searchKey, err := search.ToKey()
	if err != nil {
		return nil, err
	}
	value, err := c.redisClient.HGet(ctx, hashKeySearch, searchKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSearchNotCached
		}
		return nil, err
	}
	var ids data.EmployeeIds
	if err := ids.UnmarshalBinary([]byte(value)); err != nil {
		return nil, err
	}
	employees := make([]*data.Employee, 0, len(ids))
	if len(ids) == 0 {
		return employees, nil
	}
	fields := make([]string, 0, len(ids))
	for _, id := range ids {
		fields = append(fields, fmt.Sprint(id))
	}
	values, err := c.redisClient.HMGet(ctx, hashKeyEmployees, fields...).Result()
	if err != nil {
		return nil, err
	}
	for i, value := range values {
		s, ok := value.(string)
		if !ok {
			c.Trace(ctx, "employee %s evicted, invalidating search: %s", fields[i], searchKey)
			if _, err := c.redisClient.HDel(ctx, hashKeySearch, searchKey).Result(); err != nil {
				c.Error(ctx, "error while deleting search key (%s): %s", searchKey, err)
			}
			return nil, ErrSearchNotCached
		}
		employee := &data.Employee{}
		if err := employee.UnmarshalBinary([]byte(s)); err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, nil
}

func (c *redisCache) SearchWrite(ctx context.Context, search data.EmployeeSearch, employees ...*data.Employee) error {
	searchKey, err := search.ToKey()
	if err != nil {
		return errors.Wrap(err, "unable to create search key")
	}
	if err := c.EmployeesWrite(ctx, employees...); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()

	ids := make(data.EmployeeIds, 0, len(employees))
	for _, employee := range employees {
		ids = append(ids, employee.ID)
	}
	bytes, err := ids.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := c.redisClient.HSet(ctx, hashKeySearch, searchKey, string(bytes)).Result(); err != nil {
		return err
	}
	return nil
}

func (c *redisCache) SearchesClear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()

	if _, err := c.redisClient.Del(ctx, hashKeySearch).Result(); err != nil {
		return err
	}
	return nil
}
