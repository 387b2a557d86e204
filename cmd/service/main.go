package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/antonio-alexander/go-employee-records/internal"
	"github.com/antonio-alexander/go-employee-records/internal/cache"
	"github.com/antonio-alexander/go-employee-records/internal/data"
	"github.com/antonio-alexander/go-employee-records/internal/logic"
	"github.com/antonio-alexander/go-employee-records/internal/service"
	"github.com/antonio-alexander/go-employee-records/internal/sql"
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

func Main(envs map[string]string, osSignal chan os.Signal) error {
	var wg sync.WaitGroup

	//create context
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer cancel()

	// create utilities
	logger := utilities.NewLogger()
	if err := logger.Configure(envs); err != nil {
		return err
	}
	timers := utilities.NewTimers()
	metrics := utilities.NewMetrics()
	counter := utilities.NewCounter(metrics)

	//print version info
	logger.Info(ctx, "server: go-employee-records v%s (%s) built from: %s",
		Version, GitCommit, GitBranch)

	//create sql, configure and open
	sql := sql.NewSql(logger)
	if err := sql.Configure(envs); err != nil {
		return errors.Wrap(err, "sql")
	}
	if err := sql.Open(ctx); err != nil {
		return errors.Wrap(err, "sql")
	}
	defer func() {
		if err := sql.Close(context.Background()); err != nil {
			logger.Error(context.Background(), "error while closing sql: %s", err)
		}
	}()

	// create cache
	cache := cache.New(envs["CACHE_TYPE"], logger)
	if cache != nil {
		if err := cache.Configure(envs); err != nil {
			return errors.Wrap(err, "cache")
		}
		if err := cache.Open(ctx); err != nil {
			return errors.Wrap(err, "cache")
		}
		defer func() {
			if err := cache.Close(context.Background()); err != nil {
				logger.Error(context.Background(), "error while closing cache: %s", err)
			}
		}()
	}

	//create logic, configure and open
	logic := logic.NewLogic(sql, logger, counter, cache)
	if err := logic.Configure(envs); err != nil {
		return errors.Wrap(err, "logic")
	}
	if err := logic.Open(ctx); err != nil {
		return errors.Wrap(err, "logic")
	}
	defer func() {
		if err := logic.Close(context.Background()); err != nil {
			logger.Error(context.Background(), "error while closing logic: %s", err)
		}
	}()

	//create service, configure and open
	service := service.NewService(logic, cache, logger, counter, timers, metrics)
	if err := service.Configure(envs); err != nil {
		return errors.Wrap(err, "service")
	}
	if err := service.Open(ctx); err != nil {
		return errors.Wrap(err, "service")
	}
	logger.Info(ctx, "listening on: %s", service.Address())
	<-ctx.Done()
	wg.Wait()
	if err := service.Close(context.Background()); err != nil {
		logger.Error(context.Background(), "error while closing service: %s", err)
	}
	return nil
}
