package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

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
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func readEmployeeId(envs map[string]string) (int64, error) {
	id, err := strconv.ParseInt(envs["EMPLOYEE_ID"], 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "EMPLOYEE_ID")
	}
	return id, nil
}

func readEmployeePartial(envs map[string]string) (data.EmployeePartial, error) {
	var employeePartial data.EmployeePartial

	if err := json.Unmarshal([]byte(envs["EMPLOYEE_JSON"]), &employeePartial); err != nil {
		return data.EmployeePartial{}, errors.Wrap(err, "EMPLOYEE_JSON")
	}
	return employeePartial, nil
}

func readEmployeeSearch(envs map[string]string) (data.EmployeeSearch, error) {
	var search data.EmployeeSearch

	params := url.Values{}
	for key, parameter := range map[string]string{
		"EMPLOYEE_ID": data.ParameterId,
		"SEARCH":      data.ParameterSearch,
		"DEPARTMENT":  data.ParameterDepartment,
		"LIMIT":       data.ParameterLimit,
		"OFFSET":      data.ParameterOffset,
	} {
		if value := envs[key]; value != "" {
			params.Set(parameter, value)
		}
	}
	if err := search.FromParams(params); err != nil {
		return data.EmployeeSearch{}, err
	}
	return search, nil
}

func printJson(item any) error {
	bytes, err := json.MarshalIndent(item, "", " ")
	if err != nil {
		return err
	}
	fmt.Println(string(bytes))
	return nil
}

func execute(ctx context.Context, envs map[string]string, c client.Client) error {
	switch command := envs["COMMAND"]; command {
	default:
		return errors.Errorf("unsupported command: %s", command)
	case "healthcheck":
		return c.Healthcheck(ctx)
	case "employee_create":
		employeePartial, err := readEmployeePartial(envs)
		if err != nil {
			return err
		}
		employee, err := c.EmployeeCreate(ctx, employeePartial)
		if err != nil {
			return err
		}
		return printJson(employee)
	case "employee_read":
		id, err := readEmployeeId(envs)
		if err != nil {
			return err
		}
		employee, err := c.EmployeeRead(ctx, id)
		if err != nil {
			return err
		}
		return printJson(employee)
	case "employees_search":
		search, err := readEmployeeSearch(envs)
		if err != nil {
			return err
		}
		employees, err := c.EmployeesSearch(ctx, search)
		if err != nil {
			return err
		}
		return printJson(employees)
	case "employee_update":
		id, err := readEmployeeId(envs)
		if err != nil {
			return err
		}
		employeePartial, err := readEmployeePartial(envs)
		if err != nil {
			return err
		}
		employee, err := c.EmployeeUpdate(ctx, id, employeePartial)
		if err != nil {
			return err
		}
		return printJson(employee)
	case "employee_delete":
		id, err := readEmployeeId(envs)
		if err != nil {
			return err
		}
		employee, err := c.EmployeeDelete(ctx, id)
		if err != nil {
			return err
		}
		return printJson(&data.DeleteResponse{
			Message:  data.MessageEmployeeGone,
			Employee: employee,
		})
	case "cache_clear":
		return c.CacheClear(ctx)
	case "cache_counters_read":
		counters, err := c.CacheCountersRead(ctx)
		if err != nil {
			return err
		}
		return printJson(counters)
	case "cache_counters_clear":
		return c.CacheCountersClear(ctx)
	case "timers_read":
		timers, err := c.TimersRead(ctx)
		if err != nil {
			return err
		}
		return printJson(timers)
	case "timers_clear":
		return c.TimersClear(ctx)
	}
}

func Main(envs map[string]string, osSignal chan os.Signal) error {
	var wg sync.WaitGroup

	//create context
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer func() {
		cancel()
		wg.Wait()
	}()
	ctx = internal.CtxWithCorrelationId(ctx, internal.GenerateId())

	// create logger
	logger := utilities.NewLogger(os.Stderr)
	if err := logger.Configure(envs); err != nil {
		return err
	}
	logger.Info(ctx, "client: go-employee-records v%s (%s) built from: %s",
		Version, GitCommit, GitBranch)

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

	// execute command
	return execute(ctx, envs, client)
}
