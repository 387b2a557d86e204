package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/antonio-alexander/go-employee-records/internal"
	"github.com/antonio-alexander/go-employee-records/internal/cache"
	"github.com/antonio-alexander/go-employee-records/internal/client"
	"github.com/antonio-alexander/go-employee-records/internal/data"
	"github.com/antonio-alexander/go-employee-records/internal/utilities"

	"github.com/pkg/errors"
)

var (
	Version   string
	GitCommit string
	GitBranch string
)

func init() {
	if Version = data.Version; Version == "" {
		Version = "<no_version_provided>"
	}
	if GitCommit = data.GitCommit; GitCommit == "" {
		GitCommit = "<no_git_commit>"
	}
	if GitBranch = data.GitBranch; GitBranch == "" {
		GitBranch = "<no_git_branch>"
	}
}

func main() {
	envs, err := internal.Envs(os.Environ())
	if err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(envs, osSignal); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
}

func seconds(envs map[string]string, key string, defaultValue time.Duration) time.Duration {
	if s := envs[key]; s != "" {
		if i, err := strconv.Atoi(s); err == nil && i > 0 {
			return time.Duration(i) * time.Second
		}
	}
	return defaultValue
}

func newEmployee(prefix string, i int) data.EmployeePartial {
	firstName := fmt.Sprintf("%s%d", prefix, i)
	lastName := "Scenario"
	email := fmt.Sprintf("%s.%d.%s@example.com", prefix, i, internal.GenerateId()[:8])
	position := "Engineer"
	department := data.Departments[i%len(data.Departments)]
	salary := float64(50000 + i*1000)
	hireDate := data.Timestamp(time.Now().AddDate(0, 0, -i))
	return data.EmployeePartial{
		FirstName:  &firstName,
		LastName:   &lastName,
		Email:      &email,
		Position:   &position,
		Department: &department,
		Salary:     &salary,
		HireDate:   &hireDate,
	}
}

// seeds employees, pages through them, searches by department and
// cleans up
func scenarioSeedAndBrowse(ctx context.Context, envs map[string]string, logger utilities.Logger,
	clients ...client.Client) error {
	const correlationId string = "scenario_seed_and_browse"
	const prefix string = "seed"

	var ids []int64

	if len(clients) < 1 {
		return errors.New("not enough clients provided")
	}
	c := clients[0]
	nEmployees := 25
	if s := envs["N_EMPLOYEES"]; s != "" {
		nEmployees, _ = strconv.Atoi(s)
	}
	ctx = internal.CtxWithCorrelationId(ctx, correlationId)
	defer func() {
		for _, id := range ids {
			if _, err := c.EmployeeDelete(ctx, id); err != nil {
				logger.Error(ctx, "error while deleting employee (%d): %s", id, err)
			}
		}
		logger.Info(ctx, "deleted %d employees", len(ids))
	}()

	// seed employees
	for i := range nEmployees {
		employee, err := c.EmployeeCreate(ctx, newEmployee(prefix, i))
		if err != nil {
			return err
		}
		ids = append(ids, employee.ID)
	}
	logger.Info(ctx, "created %d employees", len(ids))

	// page through the seeded employees
	var pages, found int
	for offset := 0; ; offset += data.DefaultLimit {
		employees, err := c.EmployeesSearch(ctx, data.EmployeeSearch{
			Search: prefix,
			Limit:  data.DefaultLimit,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(employees) == 0 {
			break
		}
		pages, found = pages+1, found+len(employees)
	}
	logger.Info(ctx, "browsed %d employees over %d pages", found, pages)

	// search by department
	for _, department := range data.Departments {
		employees, err := c.EmployeesSearch(ctx, data.EmployeeSearch{
			Department: department,
			Limit:      data.MaxLimit,
		})
		if err != nil {
			return err
		}
		logger.Info(ctx, "department %s: %d employees", department, len(employees))
	}
	return nil
}

// determine hit/miss ratio with concurrent reads while the employee is
// being updated (and the cache invalidated)
func scenarioStampedingHerd(ctx context.Context, envs map[string]string, logger utilities.Logger,
	clients ...client.Client) error {
	const correlationId string = "scenario_stampeding_herd"
	const minClients int = 2

	var wg sync.WaitGroup

	readInterval := seconds(envs, "SCENARIO_READ_INTERVAL", time.Second)
	updateInterval := seconds(envs, "SCENARIO_UPDATE_INTERVAL", 2*time.Second)
	scenarioDuration := seconds(envs, "SCENARIO_DURATION", 10*time.Second)
	if len(clients) < minClients {
		return errors.New("not enough clients provided")
	}
	ctx = internal.CtxWithCorrelationId(ctx, correlationId)

	// create employee using the first client
	employeeCreated, err := clients[0].EmployeeCreate(ctx, newEmployee("herd", 0))
	if err != nil {
		return err
	}
	id := employeeCreated.ID
	defer func() {
		if _, err := clients[0].EmployeeDelete(ctx, id); err != nil {
			logger.Error(ctx, "error while deleting employee (%d): %s", id, err)
			return
		}
		logger.Info(ctx, "deleted employee: %d", id)
	}()
	logger.Info(ctx, "created employee: %d", id)

	start, stop := make(chan struct{}), make(chan struct{})

	// writer
	wg.Add(1)
	go func(ctx context.Context, client client.Client) {
		defer wg.Done()

		tUpdate := time.NewTicker(updateInterval)
		defer tUpdate.Stop()
		<-start
		for i := 1; ; i++ {
			select {
			case <-stop:
				return
			case <-tUpdate.C:
				salary := employeeCreated.Salary + float64(i)
				if _, err := client.EmployeeUpdate(ctx, id, data.EmployeePartial{
					Salary: &salary,
				}); err != nil {
					logger.Error(ctx, "error while updating employee: %s", err)
				}
			}
		}
	}(ctx, clients[0])

	// readers
	for i := 1; i < len(clients); i++ {
		wg.Add(1)
		go func(clientNumber int, client client.Client) {
			defer wg.Done()

			ctx := internal.CtxWithCorrelationId(ctx, fmt.Sprintf("%s_%d", correlationId, clientNumber))
			tRead := time.NewTicker(readInterval)
			defer tRead.Stop()
			<-start
			for {
				select {
				case <-stop:
					return
				case <-tRead.C:
					if _, err := client.EmployeeRead(ctx, id); err != nil {
						logger.Error(ctx, "error while reading employee: %s", err)
					}
				}
			}
		}(i, clients[i])
	}

	// clear the cache and counters and start the go routines
	if err := clients[0].CacheClear(ctx); err != nil {
		return err
	}
	if err := clients[0].CacheCountersClear(ctx); err != nil {
		return err
	}
	close(start)
	select {
	case <-ctx.Done():
	case <-time.After(scenarioDuration):
	}
	close(stop)
	wg.Wait()

	cacheCounters, err := clients[0].CacheCountersRead(ctx)
	if err != nil {
		return err
	}
	ratio, total := cacheCounters.HitRatio(fmt.Sprintf("employee_%d", id))
	logger.Info(ctx, "cache hit ratio over %d reads: %0.2f%%", total, ratio)
	return nil
}

func Main(envs map[string]string, osSignal chan os.Signal) error {
	var clients []client.Client
	var wg sync.WaitGroup

	//create context
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer func() {
		cancel()
		wg.Wait()
	}()

	// create logger
	logger := utilities.NewLogger()
	if err := logger.Configure(envs); err != nil {
		return err
	}
	logger.Info(ctx, "scenarios: go-employee-records v%s (%s) built from: %s",
		Version, GitCommit, GitBranch)

	nClients := 2
	if s := envs["N_CLIENTS"]; s != "" {
		nClients, _ = strconv.Atoi(s)
	}
	for range nClients {
		//create cache
		cache := cache.New(envs["CACHE_TYPE"], logger)
		if cache != nil {
			if err := cache.Configure(envs); err != nil {
				return err
			}
			if err := cache.Open(ctx); err != nil {
				return err
			}
			defer func() {
				if err := cache.Close(context.Background()); err != nil {
					logger.Error(ctx, "error while closing cache: %s", err)
				}
			}()
		}

		//create client
		client := client.NewClient(cache, logger)
		if err := client.Configure(envs); err != nil {
			return err
		}
		if err := client.Open(ctx); err != nil {
			return err
		}
		defer func() {
			if err := client.Close(context.Background()); err != nil {
				logger.Error(ctx, "error while closing client: %s", err)
			}
		}()
		clients = append(clients, client)
	}

	// execute scenario
	switch scenario := envs["SCENARIO"]; scenario {
	default:
		return errors.Errorf("unsupported scenario: %s", scenario)
	case "seed_and_browse":
		logger.Info(ctx, "executing %s scenario", scenario)
		if err := scenarioSeedAndBrowse(ctx, envs, logger, clients...); err != nil {
			return errors.Wrapf(err, "scenario %s", scenario)
		}
	case "stampeding_herd":
		logger.Info(ctx, "executing %s scenario", scenario)
		if err := scenarioStampedingHerd(ctx, envs, logger, clients...); err != nil {
			return errors.Wrapf(err, "scenario %s", scenario)
		}
	}
	return nil
}
