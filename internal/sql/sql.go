package sql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-records/internal"
	"github.com/antonio-alexander/go-employee-records/internal/data"
	"github.com/antonio-alexander/go-employee-records/internal/utilities"

	"github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
)

const tableEmployees string = "employees"

type Sql interface {
	EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error)
	EmployeeUpdate(ctx context.Context, id int64, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) (*data.Employee, error)
	EmployeeEmailExists(ctx context.Context, email string, excludeId int64) (bool, error)
}

type sqlDb struct {
	sync.RWMutex
	config struct {
		Driver         string        `json:"driver"`
		File           string        `json:"file"`
		Hostname       string        `json:"hostname"`
		Port           string        `json:"port"`
		Username       string        `json:"username"`
		Password       string        `json:"password"`
		Database       string        `json:"database"`
		QueryTimeout   time.Duration `json:"query_timeout"`
		ConnectRetries uint          `json:"connect_retries"`
		ParseTime      bool          `json:"parse_time"`
		CreateSchema   bool          `json:"create_schema"`
	}
	*sql.DB
	*dialect
	utilities.Logger
	builder squirrel.StatementBuilderType
	ownsDB  bool
	opened  bool
}

// NewSql creates the employee storage, a *sql.DB can be provided in which
// case it's used as is and never closed
func NewSql(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Sql
} {
	s := &sqlDb{Logger: utilities.NewNullLogger()}
	s.config.Driver = DriverSqlite
	s.config.File = ":memory:"
	s.config.QueryTimeout = 10 * time.Second
	s.config.ConnectRetries = 5
	s.config.ParseTime = true
	s.config.CreateSchema = true
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			s.Logger = v
		case *sql.DB:
			s.DB = v
		}
	}
	return s
}

func (s *sqlDb) Configure(envs map[string]string) error {
	s.Lock()
	defer s.Unlock()

	if driver := envs["DATABASE_DRIVER"]; driver != "" {
		s.config.Driver = driver
	}
	if file := envs["DATABASE_FILE"]; file != "" {
		s.config.File = file
	}
	if databaseHost := envs["DATABASE_HOST"]; databaseHost != "" {
		s.config.Hostname = databaseHost
	}
	if databasePort := envs["DATABASE_PORT"]; databasePort != "" {
		s.config.Port = databasePort
	}
	if database := envs["DATABASE_NAME"]; database != "" {
		s.config.Database = database
	}
	if username := envs["DATABASE_USER"]; username != "" {
		s.config.Username = username
	}
	if password := envs["DATABASE_PASSWORD"]; password != "" {
		s.config.Password = password
	}
	if _, ok := envs["DATABASE_QUERY_TIMEOUT"]; ok {
		i, _ := strconv.ParseInt(envs["DATABASE_QUERY_TIMEOUT"], 10, 64)
		s.config.QueryTimeout = time.Duration(i) * time.Second
	}
	if _, ok := envs["DATABASE_CONNECT_RETRIES"]; ok {
		i, _ := strconv.ParseUint(envs["DATABASE_CONNECT_RETRIES"], 10, 64)
		s.config.ConnectRetries = uint(i)
	}
	if _, ok := envs["DATABASE_PARSE_TIME"]; ok {
		s.config.ParseTime, _ = strconv.ParseBool(envs["DATABASE_PARSE_TIME"])
	}
	if _, ok := envs["DATABASE_CREATE_SCHEMA"]; ok {
		s.config.CreateSchema, _ = strconv.ParseBool(envs["DATABASE_CREATE_SCHEMA"])
	}
	d, err := newDialect(s.config.Driver)
	if err != nil {
		return err
	}
	s.dialect = d
	return nil
}

func (s *sqlDb) dataSourceName() string {
	switch s.driverName {
	default:
		return s.config.File
	case DriverMysql:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=%t",
			s.config.Username, s.config.Password, s.config.Hostname,
			s.config.Port, s.config.Database, s.config.ParseTime)
	case "pgx":
		dsn := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(s.config.Username, s.config.Password),
			Host:     s.config.Hostname + ":" + s.config.Port,
			Path:     s.config.Database,
			RawQuery: "sslmode=disable",
		}
		return dsn.String()
	}
}

func (s *sqlDb) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.opened {
		return errors.New("sql already opened")
	}
	if s.dialect == nil {
		d, err := newDialect(s.config.Driver)
		if err != nil {
			return err
		}
		s.dialect = d
	}
	if s.DB == nil {
		db, err := sql.Open(s.driverName, s.dataSourceName())
		if err != nil {
			return errors.Wrap(err, "unable to open database")
		}
		if s.driverName == DriverSqlite {
			// an in-memory database only exists for the connection that
			// created it
			db.SetMaxOpenConns(1)
			db.SetMaxIdleConns(1)
			db.SetConnMaxLifetime(0)
		}
		s.DB, s.ownsDB = db, true
	}
	if _, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := s.PingContext(ctx); err != nil {
			s.Debug(ctx, "unable to ping database: %s", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(s.config.ConnectRetries+1)); err != nil {
		s.closeDB(ctx)
		return errors.Wrap(err, "unable to ping database")
	}
	if s.config.CreateSchema {
		if _, err := s.ExecContext(ctx, s.schema); err != nil {
			s.closeDB(ctx)
			return errors.Wrap(err, "unable to create schema")
		}
	}
	s.builder = squirrel.StatementBuilder.PlaceholderFormat(s.placeholder)
	s.opened = true
	s.Info(ctx, "opened %s database", s.driverName)
	return nil
}

func (s *sqlDb) closeDB(ctx context.Context) {
	if !s.ownsDB {
		return
	}
	if err := s.DB.Close(); err != nil {
		s.Error(ctx, "error while closing sql: %s", err)
	}
	s.DB, s.ownsDB = nil, false
}

func (s *sqlDb) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if !s.opened {
		return nil
	}
	s.closeDB(ctx)
	s.opened = false
	return nil
}

func (s *sqlDb) EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	now := data.Timestamp(time.Now())
	builder := s.builder.Insert(tableEmployees).
		Columns(columnsInsert...).
		Values(
			valueOf(employeePartial.FirstName),
			valueOf(employeePartial.LastName),
			valueOf(employeePartial.Email),
			valueOf(employeePartial.Position),
			valueOf(employeePartial.Department),
			valueOfSalary(employeePartial.Salary),
			valueOf(employeePartial.HireDate),
			valueOfPhone(employeePartial.Phone),
			now,
			now,
		)
	id, err := s.insert(ctx, builder)
	if err != nil {
		return nil, err
	}
	return employeeRead(ctx, s.DB, s.builder, id)
}

func (s *sqlDb) insert(ctx context.Context, builder squirrel.InsertBuilder) (int64, error) {
	var id int64

	if s.returning {
		query, args, err := builder.Suffix("RETURNING id").ToSql()
		if err != nil {
			return -1, errors.Wrap(err, "unable to build insert")
		}
		if err := s.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return -1, s.mapError(err)
		}
		return id, nil
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return -1, errors.Wrap(err, "unable to build insert")
	}
	result, err := s.ExecContext(ctx, query, args...)
	if err != nil {
		return -1, s.mapError(err)
	}
	if id, err = result.LastInsertId(); err != nil {
		return -1, errors.Wrap(err, "unable to read inserted id")
	}
	return id, nil
}

func (s *sqlDb) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	return employeeRead(ctx, s.DB, s.builder, id)
}

func (s *sqlDb) EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	search.Normalize()
	builder := s.builder.Select(columnsSelect...).
		From(tableEmployees).
		OrderBy("id").
		Limit(uint64(search.Limit)).
		Offset(uint64(search.Offset))
	if criteria := employeeCriteria(s.dialect, search); len(criteria) > 0 {
		builder = builder.Where(criteria)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "unable to build search")
	}
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()
	employees := make([]*data.Employee, 0, search.Limit)
	for rows.Next() {
		employee, err := employeeScan(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, "unable to scan employee")
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return employees, nil
}

func (s *sqlDb) EmployeeUpdate(ctx context.Context, id int64, employeePartial data.EmployeePartial) (*data.Employee, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := employeeRead(ctx, tx, s.builder, id); err != nil {
		return nil, err
	}
	updates := employeeUpdates(employeePartial)
	updates["updated_at"] = data.Timestamp(time.Now())
	query, args, err := s.builder.Update(tableEmployees).
		SetMap(updates).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "unable to build update")
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, s.mapError(err)
	}
	employee, err := employeeRead(ctx, tx, s.builder, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, s.mapError(err)
	}
	return employee, nil
}

func (s *sqlDb) EmployeeDelete(ctx context.Context, id int64) (*data.Employee, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()
	employee, err := employeeRead(ctx, tx, s.builder, id)
	if err != nil {
		return nil, err
	}
	query, args, err := s.builder.Delete(tableEmployees).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "unable to build delete")
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "unable to read rows affected")
	}
	if n == 0 {
		return nil, data.ErrEmployeeNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, s.mapError(err)
	}
	return employee, nil
}

func (s *sqlDb) EmployeeEmailExists(ctx context.Context, email string, excludeId int64) (bool, error) {
	var count int64

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	query, args, err := s.builder.Select("COUNT(*)").
		From(tableEmployees).
		Where(squirrel.Expr("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))).
		Where(squirrel.NotEq{"id": excludeId}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "unable to build email lookup")
	}
	if err := s.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, s.mapError(err)
	}
	return count > 0, nil
}
