package sql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	_ "github.com/glebarez/go-sqlite" //import for driver support
	_ "github.com/jackc/pgx/v5/stdlib" //import for driver support
)

const (
	DriverSqlite   string = "sqlite"
	DriverMysql    string = "mysql"
	DriverPostgres string = "postgres"

	mysqlErrDuplicateEntry uint16 = 1062
	pgErrUniqueViolation   string = "23505"
)

// dialect captures what differs between the supported databases
type dialect struct {
	driverName  string
	placeholder squirrel.PlaceholderFormat
	returning   bool
	schema      string
	like        func(column, pattern string) squirrel.Sqlizer
	isUnique    func(err error) bool
}

const schemaSqlite string = `CREATE TABLE IF NOT EXISTS employees (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL,
	position TEXT NOT NULL,
	department TEXT NOT NULL,
	salary REAL NOT NULL,
	hire_date TEXT NOT NULL,
	phone TEXT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	CONSTRAINT uq_employees_email UNIQUE (email)
);`

const schemaMysql string = `CREATE TABLE IF NOT EXISTS employees (
	id BIGINT NOT NULL AUTO_INCREMENT,
	first_name VARCHAR(255) NOT NULL,
	last_name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	position VARCHAR(255) NOT NULL,
	department VARCHAR(255) NOT NULL,
	salary DOUBLE NOT NULL,
	hire_date VARCHAR(24) NOT NULL,
	phone VARCHAR(64) NULL,
	created_at VARCHAR(24) NOT NULL,
	updated_at VARCHAR(24) NOT NULL,
	PRIMARY KEY (id),
	CONSTRAINT uq_employees_email UNIQUE (email)
);`

const schemaPostgres string = `CREATE TABLE IF NOT EXISTS employees (
	id BIGSERIAL PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL,
	position TEXT NOT NULL,
	department TEXT NOT NULL,
	salary DOUBLE PRECISION NOT NULL,
	hire_date TEXT NOT NULL,
	phone TEXT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	CONSTRAINT uq_employees_email UNIQUE (email)
);`

func like(column, pattern string) squirrel.Sqlizer {
	return squirrel.Like{column: pattern}
}

func ilike(column, pattern string) squirrel.Sqlizer {
	return squirrel.ILike{column: pattern}
}

func newDialect(driverName string) (*dialect, error) {
	switch strings.ToLower(driverName) {
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driverName)
	case "", DriverSqlite:
		return &dialect{
			driverName:  DriverSqlite,
			placeholder: squirrel.Question,
			schema:      schemaSqlite,
			like:        like,
			isUnique: func(err error) bool {
				return strings.Contains(err.Error(), "UNIQUE constraint failed")
			},
		}, nil
	case DriverMysql:
		return &dialect{
			driverName:  DriverMysql,
			placeholder: squirrel.Question,
			schema:      schemaMysql,
			like:        like,
			isUnique: func(err error) bool {
				var mysqlErr *mysql.MySQLError
				return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry
			},
		}, nil
	case DriverPostgres, "pgx":
		return &dialect{
			driverName:  "pgx",
			placeholder: squirrel.Dollar,
			returning:   true,
			schema:      schemaPostgres,
			like:        ilike,
			isUnique: func(err error) bool {
				var pgErr *pgconn.PgError
				return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
			},
		}, nil
	}
}
