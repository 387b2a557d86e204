package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-records/internal"
	"github.com/antonio-alexander/go-employee-records/internal/cache"
	"github.com/antonio-alexander/go-employee-records/internal/data"
	"github.com/antonio-alexander/go-employee-records/internal/logic"
	"github.com/antonio-alexander/go-employee-records/internal/utilities"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
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

type service struct {
	sync.RWMutex
	sync.WaitGroup
	config struct {
		address          string
		port             string
		shutdownTimeout  time.Duration
		allowedOrigins   []string
		allowedMethods   []string
		allowedHeaders   []string
		allowCredentials bool
		corsDisabled     bool
		corsDebug        bool
		timersEnabled    bool
		metricsEnabled   bool
	}
	*mux.Router
	*http.Server
	listener net.Listener
	cache    internal.Clearer
	metrics  *utilities.Metrics
	utilities.Logger
	utilities.Counter
	utilities.Timers
	logic.Logic
}

func NewService(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Addresser
} {
	router := mux.NewRouter()
	s := &service{
		Router: router,
		Server: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		Logger:  utilities.NewNullLogger(),
		Counter: utilities.NewCounter(),
		Timers:  utilities.NewTimers(),
		metrics: utilities.NewMetrics(),
	}
	s.config.port = "8080"
	s.config.shutdownTimeout = 10 * time.Second
	s.config.metricsEnabled = true
	s.config.allowedMethods = []string{http.MethodGet, http.MethodPost,
		http.MethodPut, http.MethodDelete}
	s.config.allowedHeaders = []string{"Content-Type", internal.HeaderCorrelationId}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case interface {
			cache.Cache
			internal.Clearer
		}:
			s.cache = p
		case logic.Logic:
			s.Logic = p
		case utilities.Counter:
			s.Counter = p
		case utilities.Timers:
			s.Timers = p
		case *utilities.Metrics:
			s.metrics = p
		case utilities.Logger:
			s.Logger = p
		}
	}
	return s
}

func (s *service) launchServer(ctx context.Context) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(s.config.address, s.config.port))
	if err != nil {
		return err
	}
	s.listener = listener
	if !s.config.corsDisabled {
		s.Server.Handler = cors.New(cors.Options{
			AllowedOrigins:   s.config.allowedOrigins,
			AllowCredentials: s.config.allowCredentials,
			AllowedMethods:   s.config.allowedMethods,
			AllowedHeaders:   s.config.allowedHeaders,
			Debug:            s.config.corsDebug,
		}).Handler(s.Router)
	}
	started := make(chan struct{})
	s.Add(1)
	go func() {
		defer s.WaitGroup.Done()

		close(started)
		if err := s.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Error(ctx, "error while serving: %s", err)
		}
	}()
	<-started
	s.Info(ctx, "started server: %s", listener.Addr())
	return nil
}

// middleware attaches the correlation id to the request context and
// records the request in the metrics
// routeUnmatched is the metrics label for requests that didn't match a
// route, the raw path isn't used so labels stay bounded
const routeUnmatched string = "unmatched"

func (s *service) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		tStart := time.Now()
		correlationId := getCorrelationId(request)
		writer.Header().Set(internal.HeaderCorrelationId, correlationId)
		ctx := internal.CtxWithCorrelationId(request.Context(), correlationId)
		request = request.WithContext(ctx)
		w := &statusWriter{ResponseWriter: writer, statusCode: http.StatusOK}
		defer func() {
			if r := recover(); r != nil {
				if r == http.ErrAbortHandler {
					panic(r)
				}
				s.Error(ctx, "recovered from panic: %v\n%s", r, debug.Stack())
				if w.wroteHeader {
					w.statusCode = http.StatusInternalServerError
				} else {
					handleResponse(ctx, s.Logger, w, data.ErrInternal, 0, nil)
				}
			}
			if !s.config.metricsEnabled {
				return
			}
			route := routeUnmatched
			if r := mux.CurrentRoute(request); r != nil {
				if template, err := r.GetPathTemplate(); err == nil {
					route = template
				}
			}
			s.metrics.Observe(route, request.Method, w.statusCode, time.Since(tStart))
		}()
		next.ServeHTTP(w, request)
	})
}

func (s *service) endpointNotFound(writer http.ResponseWriter, request *http.Request) {
	handleResponse(request.Context(), s.Logger, writer, data.ErrRouteNotFound, 0, nil)
}

func (s *service) endpointMethodNotAllowed(writer http.ResponseWriter, request *http.Request) {
	handleResponse(request.Context(), s.Logger, writer, data.ErrMethodNotAllowed, 0, nil)
}

// timer starts a timer for group, the returned function stops it
func (s *service) timer(ctx context.Context, group string) func() {
	if !s.config.timersEnabled {
		return func() {}
	}
	timerIndex := s.Timers.Start(group)
	return func() {
		elapsedTime := s.Timers.Stop(group, timerIndex)
		s.Trace(ctx, "%s took %v", group, time.Duration(elapsedTime))
	}
}

func (s *service) endpointDefault() func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		fmt.Fprintf(writer,
			"go-employee-records\n"+
				"Version: \"%s\"\n"+
				"Git Commit: \"%s\"\n"+
				"Git Branch: \"%s\"\n",
			Version, GitCommit, GitBranch)
	}
}

func (s *service) endpointHealthcheck(writer http.ResponseWriter, request *http.Request) {
	handleResponse(request.Context(), s.Logger, writer, nil, http.StatusOK,
		map[string]string{"status": "ok"})
}

func (s *service) endpointEmployeeCreate(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	defer s.timer(ctx, "employee_create")()

	employeePartial, err := decodeEmployeePartial(request)
	if err != nil {
		handleResponse(ctx, s.Logger, writer, err, 0, nil)
		return
	}
	employee, err := s.EmployeeCreate(ctx, employeePartial)
	if err != nil {
		handleResponse(ctx, s.Logger, writer, err, 0, nil)
		return
	}
	handleResponse(ctx, s.Logger, writer, nil, http.StatusCreated, employee)
	s.Trace(ctx, "executed employee_create: %d", employee.ID)
}

func (s *service) endpointEmployeeRead(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	defer s.timer(ctx, "employee_read")()

	id, err := idFromRequest(request)
	if err != nil {
		handleResponse(ctx, s.Logger, writer, err, 0, nil)
		return
	}
	employee, err := s.EmployeeRead(ctx, id)
	if err != nil {
		handleResponse(ctx, s.Logger, writer, err, 0, nil)
		return
	}
	handleResponse(ctx, s.Logger, writer, nil, http.StatusOK, employee)
	s.Trace(ctx, "executed employee_read: %d", employee.ID)
}

func (s *service) endpointEmployeesSearch(writer http.ResponseWriter, request *http.Request) {
	var search data.EmployeeSearch

	ctx := request.Context()
	defer s.timer(ctx, "employees_search")()

	if err := search.FromParams(request.URL.Query()); err != nil {
		handleResponse(ctx, s.Logger, writer, err, 0, nil)
		return
	}
	employees, err := s.EmployeesSearch(ctx, search)
	if err != nil {
		handleResponse(ctx, s.Logger, writer, err, 0, nil)
		return
	}
	if employees == nil {
		employees = []*data.Employee{}
	}
	handleResponse(ctx, s.Logger, writer, nil, http.StatusOK, employees)
	s.Trace(ctx, "executed employees_search: %d", len(employees))
}

func (s *service) endpointEmployeeUpdate(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	defer s.timer(ctx, "employee_update")()

	id, err := idFromRequest(request)
	if err != nil {
		handleResponse(ctx, s.Logger, writer, err, 0, nil)
		return
	}
	employeePartial, err := decodeEmployeePartial(request)
	if err != nil {
		handleResponse(ctx, s.Logger, writer, err, 0, nil)
		return
	}
	employee, err := s.EmployeeUpdate(ctx, id, employeePartial)
	if err != nil {
		handleResponse(ctx, s.Logger, writer, err, 0, nil)
		return
	}
	handleResponse(ctx, s.Logger, writer, nil, http.StatusOK, employee)
	s.Trace(ctx, "executed employee_update: %d", employee.ID)
}

func (s *service) endpointEmployeeDelete(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	defer s.timer(ctx, "employee_delete")()

	id, err := idFromRequest(request)
	if err != nil {
		handleResponse(ctx, s.Logger, writer, err, 0, nil)
		return
	}
	employee, err := s.EmployeeDelete(ctx, id)
	if err != nil {
		handleResponse(ctx, s.Logger, writer, err, 0, nil)
		return
	}
	handleResponse(ctx, s.Logger, writer, nil, http.StatusOK, &data.DeleteResponse{
		Message:  data.MessageEmployeeGone,
		Employee: employee,
	})
	s.Trace(ctx, "executed employee_delete: %d", id)
}

func (s *service) endpointCacheClear(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			handleResponse(ctx, s.Logger, writer, err, 0, nil)
			return
		}
		s.Trace(ctx, "executed cache_clear")
	}
	handleResponse(ctx, s.Logger, writer, nil, http.StatusNoContent, nil)
}

func (s *service) endpointCacheCountersRead(writer http.ResponseWriter, request *http.Request) {
	handleResponse(request.Context(), s.Logger, writer, nil, http.StatusOK, s.Counter.ReadAll())
}

func (s *service) endpointCacheCountersClear(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	s.Counter.Reset()
	handleResponse(ctx, s.Logger, writer, nil, http.StatusNoContent, nil)
	s.Trace(ctx, "executed cache_counters_clear")
}

func (s *service) endpointTimersRead(writer http.ResponseWriter, request *http.Request) {
	handleResponse(request.Context(), s.Logger, writer, nil, http.StatusOK, s.Timers.ReadAll())
}

func (s *service) endpointTimersClear(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	s.Timers.Clear()
	handleResponse(ctx, s.Logger, writer, nil, http.StatusNoContent, nil)
	s.Trace(ctx, "executed timers_clear")
}

func (s *service) buildRoutes() {
	s.Router.Use(s.middleware)
	// middleware only wraps matched routes
	s.Router.NotFoundHandler = s.middleware(http.HandlerFunc(s.endpointNotFound))
	s.Router.MethodNotAllowedHandler = s.middleware(http.HandlerFunc(s.endpointMethodNotAllowed))
	s.Router.HandleFunc("/", s.endpointDefault())
	s.Router.HandleFunc(data.RouteHealthcheck, s.endpointHealthcheck)
	s.Router.Handle(data.RouteMetrics, s.metrics.Handler())
	s.Router.HandleFunc(data.RouteEmployees, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			s.endpointMethodNotAllowed(w, r)
		case http.MethodGet:
			if r.URL.Query().Get(data.ParameterId) != "" {
				s.endpointEmployeeRead(w, r)
				return
			}
			s.endpointEmployeesSearch(w, r)
		case http.MethodPost:
			s.endpointEmployeeCreate(w, r)
		case http.MethodPut:
			s.endpointEmployeeUpdate(w, r)
		case http.MethodDelete:
			s.endpointEmployeeDelete(w, r)
		}
	})
	s.Router.HandleFunc(data.RouteEmployeesId, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			s.endpointMethodNotAllowed(w, r)
		case http.MethodGet:
			s.endpointEmployeeRead(w, r)
		case http.MethodPut:
			s.endpointEmployeeUpdate(w, r)
		case http.MethodDelete:
			s.endpointEmployeeDelete(w, r)
		}
	})
	s.Router.HandleFunc(data.RouteCacheCounters, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			s.endpointMethodNotAllowed(w, r)
		case http.MethodGet:
			s.endpointCacheCountersRead(w, r)
		case http.MethodDelete:
			s.endpointCacheCountersClear(w, r)
		}
	})
	s.Router.HandleFunc(data.RouteCache, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			s.endpointMethodNotAllowed(w, r)
		case http.MethodDelete:
			s.endpointCacheClear(w, r)
		}
	})
	s.Router.HandleFunc(data.RouteTimers, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			s.endpointMethodNotAllowed(w, r)
		case http.MethodGet:
			s.endpointTimersRead(w, r)
		case http.MethodDelete:
			s.endpointTimersClear(w, r)
		}
	})
}

func (s *service) Configure(envs map[string]string) error {
	s.Lock()
	defer s.Unlock()

	if address, ok := envs["SERVICE_ADDRESS"]; ok {
		s.config.address = address
	}
	if port, ok := envs["SERVICE_PORT"]; ok {
		s.config.port = port
	}
	if shutdownTimeoutString, ok := envs["SERVICE_SHUTDOWN_TIMEOUT"]; ok {
		if shutdownTimeoutInt, err := strconv.Atoi(shutdownTimeoutString); err == nil {
			if timeout := time.Duration(shutdownTimeoutInt) * time.Second; timeout > 0 {
				s.config.shutdownTimeout = timeout
			}
		}
	}
	if allowCredentialsString, ok := envs["SERVICE_CORS_ALLOW_CREDENTIALS"]; ok {
		if allowCredentials, err := strconv.ParseBool(allowCredentialsString); err == nil {
			s.config.allowCredentials = allowCredentials
		}
	}
	if allowedOrigins, ok := envs["SERVICE_CORS_ALLOWED_ORIGINS"]; ok && allowedOrigins != "" {
		s.config.allowedOrigins = strings.Split(allowedOrigins, ",")
	}
	if allowedMethods, ok := envs["SERVICE_CORS_ALLOWED_METHODS"]; ok && allowedMethods != "" {
		s.config.allowedMethods = strings.Split(allowedMethods, ",")
	}
	if allowedHeaders, ok := envs["SERVICE_CORS_ALLOWED_HEADERS"]; ok && allowedHeaders != "" {
		s.config.allowedHeaders = strings.Split(allowedHeaders, ",")
	}
	if corsDisabledString, ok := envs["SERVICE_CORS_DISABLED"]; ok {
		if corsDisabled, err := strconv.ParseBool(corsDisabledString); err == nil {
			s.config.corsDisabled = corsDisabled
		}
	}
	if corsDebug, ok := envs["SERVICE_CORS_DEBUG"]; ok {
		if corsDebug, err := strconv.ParseBool(corsDebug); err == nil {
			s.config.corsDebug = corsDebug
		}
	}
	if timersEnabled := envs["SERVICE_TIMERS_ENABLED"]; timersEnabled != "" {
		s.config.timersEnabled, _ = strconv.ParseBool(timersEnabled)
	}
	if metricsEnabled := envs["SERVICE_METRICS_ENABLED"]; metricsEnabled != "" {
		s.config.metricsEnabled, _ = strconv.ParseBool(metricsEnabled)
	}
	return nil
}

func (s *service) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.Logic == nil {
		return errors.New("logic not provided")
	}
	s.buildRoutes()
	if err := s.launchServer(ctx); err != nil {
		return err
	}
	return nil
}

func (s *service) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.shutdownTimeout)
	defer cancel()
	if err := s.Server.Shutdown(ctx); err != nil {
		s.Error(ctx, "error while shutting down the server: %s", err)
	}
	s.Wait()
	return nil
}

// Address returns the address the server is listening on, it's only
// valid once opened
func (s *service) Address() string {
	s.RLock()
	defer s.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
