package logic_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employee-records/internal"
	"github.com/antonio-alexander/go-employee-records/internal/cache"
	"github.com/antonio-alexander/go-employee-records/internal/data"
	"github.com/antonio-alexander/go-employee-records/internal/logic"
	"github.com/antonio-alexander/go-employee-records/internal/sql"
	"github.com/antonio-alexander/go-employee-records/internal/utilities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	envs = map[string]string{
		//sql
		"DATABASE_DRIVER":          "sqlite",
		"DATABASE_FILE":            ":memory:",
		"DATABASE_QUERY_TIMEOUT":   "10",
		"DATABASE_CONNECT_RETRIES": "1",
		//logic
		"MUTATE_DISABLED": "false",
	}
)

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
}

func str(s string) *string { return &s }

func num(f float64) *float64 { return &f }

func newPartial(department string) data.EmployeePartial {
	return data.EmployeePartial{
		FirstName:  str("John"),
		LastName:   str("Doe"),
		Email:      str(internal.GenerateId()[:12] + "@test.com"),
		Position:   str("Dev"),
		Department: str(department),
		Salary:     num(75000),
		HireDate:   str("2023-01-01T00:00:00.000Z"),
	}
}

func newDepartment() string {
	return "Dept-" + internal.GenerateId()[:8]
}

type logicTest struct {
	sql interface {
		internal.Configurer
		internal.Opener
		sql.Sql
	}
	cache interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
		cache.Cache
	}
	logic interface {
		internal.Configurer
		internal.Opener
	}
	counter utilities.Counter
	logic.Logic
}

func newLogicTest(cacheType string) *logicTest {
	sql := sql.NewSql()
	counter := utilities.NewCounter()
	parameters := []any{sql, counter}
	c := cache.New(cacheType)
	if c != nil {
		parameters = append(parameters, c)
	}
	logic := logic.NewLogic(parameters...)
	return &logicTest{
		sql:     sql,
		cache:   c,
		logic:   logic,
		counter: counter,
		Logic:   logic,
	}
}

func (l *logicTest) Configure(envs map[string]string) error {
	if err := l.sql.Configure(envs); err != nil {
		return err
	}
	if l.cache != nil {
		if err := l.cache.Configure(envs); err != nil {
			return err
		}
	}
	if err := l.logic.Configure(envs); err != nil {
		return err
	}
	return nil
}

func (l *logicTest) Open(ctx context.Context) error {
	if err := l.sql.Open(ctx); err != nil {
		return err
	}
	if l.cache != nil {
		if err := l.cache.Open(ctx); err != nil {
			return err
		}
	}
	if err := l.logic.Open(ctx); err != nil {
		return err
	}
	return nil
}

func (l *logicTest) Close(ctx context.Context) error {
	if err := l.logic.Close(ctx); err != nil {
		return err
	}
	if l.cache != nil {
		if err := l.cache.Close(ctx); err != nil {
			return err
		}
	}
	if err := l.sql.Close(ctx); err != nil {
		return err
	}
	return nil
}

func (l *logicTest) TestCreateRead(t *testing.T) {
	ctx := context.TODO()

	employeePartial := newPartial(newDepartment())
	employeePartial.Phone = str(" 555-0100 ")
	employeeCreated, err := l.EmployeeCreate(ctx, employeePartial)
	require.Nil(t, err)
	assert.Greater(t, employeeCreated.ID, int64(0))
	assert.Equal(t, *employeePartial.FirstName, employeeCreated.FirstName)
	assert.Equal(t, *employeePartial.LastName, employeeCreated.LastName)
	assert.Equal(t, *employeePartial.Email, employeeCreated.Email)
	assert.Equal(t, *employeePartial.Position, employeeCreated.Position)
	assert.Equal(t, *employeePartial.Department, employeeCreated.Department)
	assert.Equal(t, *employeePartial.Salary, employeeCreated.Salary)
	assert.Equal(t, *employeePartial.HireDate, employeeCreated.HireDate)
	assert.Equal(t, "555-0100", *employeeCreated.Phone)
	assert.NotEmpty(t, employeeCreated.CreatedAt)
	assert.NotEmpty(t, employeeCreated.UpdatedAt)

	employeeRead, err := l.EmployeeRead(ctx, employeeCreated.ID)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeRead)

	employeesRead, err := l.EmployeesSearch(ctx, data.EmployeeSearch{ID: &employeeCreated.ID})
	assert.Nil(t, err)
	assert.Equal(t, []*data.Employee{employeeCreated}, employeesRead)
}

func (l *logicTest) TestCreateInvalid(t *testing.T) {
	ctx := context.TODO()

	department := newDepartment()
	cases := map[string]struct {
		mutate func(*data.EmployeePartial)
		err    *data.Error
	}{
		"first_name": {func(p *data.EmployeePartial) { p.FirstName = nil }, data.ErrMissingFirstName},
		"last_name":  {func(p *data.EmployeePartial) { p.LastName = str("") }, data.ErrMissingLastName},
		"email":      {func(p *data.EmployeePartial) { p.Email = nil }, data.ErrMissingEmail},
		"email_fmt":  {func(p *data.EmployeePartial) { p.Email = str("john.test.com") }, data.ErrInvalidEmailFormat},
		"position":   {func(p *data.EmployeePartial) { p.Position = nil }, data.ErrMissingPosition},
		"department": {func(p *data.EmployeePartial) { p.Department = str(" ") }, data.ErrMissingDepartment},
		"salary":     {func(p *data.EmployeePartial) { p.Salary = nil }, data.ErrMissingSalary},
		"salary_neg": {func(p *data.EmployeePartial) { p.Salary = num(-1) }, data.ErrInvalidSalary},
		"hire_date":  {func(p *data.EmployeePartial) { p.HireDate = nil }, data.ErrMissingHireDate},
		"hire_fmt":   {func(p *data.EmployeePartial) { p.HireDate = str("01/01/2023") }, data.ErrInvalidHireDateFormat},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			employeePartial := newPartial(department)
			c.mutate(&employeePartial)
			employee, err := l.EmployeeCreate(ctx, employeePartial)
			assert.Equal(t, c.err, err)
			assert.Nil(t, employee)
		})
	}
	employees, err := l.EmployeesSearch(ctx, data.EmployeeSearch{Search: department})
	assert.Nil(t, err)
	assert.Empty(t, employees)
}

func (l *logicTest) TestEmailConflict(t *testing.T) {
	ctx := context.TODO()

	email := internal.GenerateId()[:12] + "@test.com"
	employeePartial := newPartial(newDepartment())
	employeePartial.Email = &email
	employeeCreated, err := l.EmployeeCreate(ctx, employeePartial)
	require.Nil(t, err)

	employeePartial = newPartial(newDepartment())
	employeePartial.Email = str(strings.ToUpper(email))
	employee, err := l.EmployeeCreate(ctx, employeePartial)
	assert.Equal(t, data.ErrEmailExists, err)
	assert.Nil(t, employee)

	other, err := l.EmployeeCreate(ctx, newPartial(newDepartment()))
	require.Nil(t, err)
	_, err = l.EmployeeUpdate(ctx, other.ID, data.EmployeePartial{Email: str(" " + strings.ToUpper(email))})
	assert.Equal(t, data.ErrEmailExists, err)

	// updating to its own email isn't a conflict
	employeeUpdated, err := l.EmployeeUpdate(ctx, employeeCreated.ID, data.EmployeePartial{Email: &email})
	assert.Nil(t, err)
	assert.Equal(t, email, employeeUpdated.Email)
}

func (l *logicTest) TestUpdatePartial(t *testing.T) {
	ctx := context.TODO()

	employeeCreated, err := l.EmployeeCreate(ctx, newPartial(newDepartment()))
	require.Nil(t, err)

	// timestamps have millisecond precision
	time.Sleep(5 * time.Millisecond)
	employeeUpdated, err := l.EmployeeUpdate(ctx, employeeCreated.ID, data.EmployeePartial{Salary: num(90000)})
	require.Nil(t, err)
	assert.Equal(t, 90000.0, employeeUpdated.Salary)
	assert.NotEqual(t, employeeCreated.UpdatedAt, employeeUpdated.UpdatedAt)
	expected := *employeeCreated
	expected.Salary, expected.UpdatedAt = employeeUpdated.Salary, employeeUpdated.UpdatedAt
	assert.Equal(t, &expected, employeeUpdated)

	employeeRead, err := l.EmployeeRead(ctx, employeeCreated.ID)
	assert.Nil(t, err)
	assert.Equal(t, employeeUpdated, employeeRead)

	// invalid salary leaves the employee unchanged
	employee, err := l.EmployeeUpdate(ctx, employeeCreated.ID, data.EmployeePartial{Salary: num(-10)})
	assert.Equal(t, data.ErrInvalidSalary, err)
	assert.Nil(t, employee)
	employeeRead, err = l.EmployeeRead(ctx, employeeCreated.ID)
	assert.Nil(t, err)
	assert.Equal(t, employeeUpdated, employeeRead)

	// phone is set, then cleared with an empty string
	employeeUpdated, err = l.EmployeeUpdate(ctx, employeeCreated.ID, data.EmployeePartial{Phone: str("555-0199")})
	assert.Nil(t, err)
	assert.Equal(t, "555-0199", *employeeUpdated.Phone)
	employeeUpdated, err = l.EmployeeUpdate(ctx, employeeCreated.ID, data.EmployeePartial{Phone: str("  ")})
	assert.Nil(t, err)
	assert.Nil(t, employeeUpdated.Phone)

	_, err = l.EmployeeUpdate(ctx, -1, data.EmployeePartial{Salary: num(1)})
	assert.Equal(t, data.ErrEmployeeNotFound, err)
}

func (l *logicTest) TestDelete(t *testing.T) {
	ctx := context.TODO()

	employeeCreated, err := l.EmployeeCreate(ctx, newPartial(newDepartment()))
	require.Nil(t, err)
	_, err = l.EmployeeRead(ctx, employeeCreated.ID)
	require.Nil(t, err)

	employeeDeleted, err := l.EmployeeDelete(ctx, employeeCreated.ID)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeDeleted)

	employee, err := l.EmployeeRead(ctx, employeeCreated.ID)
	assert.Equal(t, data.ErrEmployeeNotFound, err)
	assert.Nil(t, employee)
	_, err = l.EmployeeDelete(ctx, employeeCreated.ID)
	assert.Equal(t, data.ErrEmployeeNotFound, err)
}

func (l *logicTest) TestPagination(t *testing.T) {
	ctx := context.TODO()

	department := newDepartment()
	for range 5 {
		_, err := l.EmployeeCreate(ctx, newPartial(department))
		require.Nil(t, err)
	}
	first, err := l.EmployeesSearch(ctx, data.EmployeeSearch{Department: department, Limit: 2})
	assert.Nil(t, err)
	second, err := l.EmployeesSearch(ctx, data.EmployeeSearch{Department: department, Limit: 2, Offset: 2})
	assert.Nil(t, err)
	require.Len(t, first, 2)
	require.Len(t, second, 2)
	for _, employee := range first {
		assert.NotContains(t, second, employee)
	}

	department = newDepartment()
	for range 150 {
		_, err := l.EmployeeCreate(ctx, newPartial(department))
		require.Nil(t, err)
	}
	employees, err := l.EmployeesSearch(ctx, data.EmployeeSearch{Department: department, Limit: 100})
	assert.Nil(t, err)
	assert.Len(t, employees, 100)
	employees, err = l.EmployeesSearch(ctx, data.EmployeeSearch{Department: department, Limit: 1000})
	assert.Nil(t, err)
	assert.Len(t, employees, 100)
	employees, err = l.EmployeesSearch(ctx, data.EmployeeSearch{Department: department})
	assert.Nil(t, err)
	assert.Len(t, employees, data.DefaultLimit)
}

func (l *logicTest) TestSearch(t *testing.T) {
	ctx := context.TODO()

	department := newDepartment()
	for _, name := range [][2]string{{"John", "Doe"}, {"Jane", "Smith"}, {"Bob", "Johnson"}} {
		employeePartial := newPartial(department)
		employeePartial.FirstName, employeePartial.LastName = str(name[0]), str(name[1])
		_, err := l.EmployeeCreate(ctx, employeePartial)
		require.Nil(t, err)
	}
	employees, err := l.EmployeesSearch(ctx, data.EmployeeSearch{Search: "John", Department: department})
	assert.Nil(t, err)
	var names []string
	for _, employee := range employees {
		names = append(names, employee.FirstName+" "+employee.LastName)
	}
	assert.ElementsMatch(t, []string{"John Doe", "Bob Johnson"}, names)

	// the search term also matches the department
	employees, err = l.EmployeesSearch(ctx, data.EmployeeSearch{Search: department})
	assert.Nil(t, err)
	assert.Len(t, employees, 3)
}

func (l *logicTest) TestScenario(t *testing.T) {
	ctx := context.TODO()

	email := "JOHN." + internal.GenerateId()[:8] + "@Test.com"
	employee, err := l.EmployeeCreate(ctx, data.EmployeePartial{
		FirstName:  str("John"),
		LastName:   str("Doe"),
		Email:      &email,
		Position:   str("Dev"),
		Department: str("Engineering"),
		Salary:     num(75000),
		HireDate:   str("2023-01-01T00:00:00.000Z"),
	})
	require.Nil(t, err)
	assert.Equal(t, strings.ToLower(email), employee.Email)
	assert.Nil(t, employee.Phone)
}

func (l *logicTest) TestCache(t *testing.T) {
	ctx := context.TODO()

	department := newDepartment()
	employeeCreated, err := l.EmployeeCreate(ctx, newPartial(department))
	require.Nil(t, err)

	// the created employee is cached
	employeeCached, err := l.cache.EmployeeRead(ctx, employeeCreated.ID)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeCached)
	_, err = l.EmployeeRead(ctx, employeeCreated.ID)
	assert.Nil(t, err)
	hit, _ := l.counter.Read(fmt.Sprintf("employee_%d", employeeCreated.ID))
	assert.Equal(t, 1, hit)

	// searches are cached until the next mutation
	search := data.EmployeeSearch{Department: department}
	employees, err := l.EmployeesSearch(ctx, search)
	assert.Nil(t, err)
	assert.Len(t, employees, 1)
	employeesCached, err := l.cache.SearchRead(ctx, search)
	assert.Nil(t, err)
	assert.Equal(t, employees, employeesCached)
	_, err = l.EmployeeCreate(ctx, newPartial(department))
	assert.Nil(t, err)
	_, err = l.cache.SearchRead(ctx, search)
	assert.ErrorIs(t, err, cache.ErrSearchNotCached)
	employees, err = l.EmployeesSearch(ctx, search)
	assert.Nil(t, err)
	assert.Len(t, employees, 2)

	// updates replace the cached employee
	employeeUpdated, err := l.EmployeeUpdate(ctx, employeeCreated.ID, data.EmployeePartial{Position: str("Lead")})
	assert.Nil(t, err)
	employeeCached, err = l.cache.EmployeeRead(ctx, employeeCreated.ID)
	assert.Nil(t, err)
	assert.Equal(t, employeeUpdated, employeeCached)

	// deletes evict the cached employee
	_, err = l.EmployeeDelete(ctx, employeeCreated.ID)
	assert.Nil(t, err)
	_, err = l.cache.EmployeeRead(ctx, employeeCreated.ID)
	assert.ErrorIs(t, err, cache.ErrEmployeeNotCached)
	_, err = l.EmployeeRead(ctx, employeeCreated.ID)
	assert.Equal(t, data.ErrEmployeeNotFound, err)
}

func testLogic(t *testing.T, cacheType string, envs map[string]string) {
	c := newLogicTest(cacheType)

	ctx := context.TODO()
	err := c.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure testLogic")
	}
	err = c.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open testLogic")
	}
	defer func() {
		if err := c.Close(ctx); err != nil {
			t.Logf("error while closing testLogic: %s", err)
		}
	}()
	t.Run("Create and Read", c.TestCreateRead)
	t.Run("Create Invalid", c.TestCreateInvalid)
	t.Run("Email Conflict", c.TestEmailConflict)
	t.Run("Update Partial", c.TestUpdatePartial)
	t.Run("Delete", c.TestDelete)
	t.Run("Pagination", c.TestPagination)
	t.Run("Search", c.TestSearch)
	t.Run("Scenario", c.TestScenario)
	if c.cache != nil {
		t.Run("Cache", c.TestCache)
	}
}

func TestLogic(t *testing.T) {
	testLogic(t, "", envs)
}

func TestLogicMemory(t *testing.T) {
	cacheEnvs := map[string]string{"LOGIC_CACHE_ENABLED": "true"}
	for key, value := range envs {
		cacheEnvs[key] = value
	}
	testLogic(t, cache.TypeMemory, cacheEnvs)
}

func TestLogicMutateDisabled(t *testing.T) {
	ctx := context.TODO()
	l := logic.NewLogic(sql.NewSql())
	err := l.Configure(map[string]string{"MUTATE_DISABLED": "true"})
	require.Nil(t, err)

	_, err = l.EmployeeCreate(ctx, data.EmployeePartial{})
	assert.Equal(t, data.ErrMutationDisabled, err)
	_, err = l.EmployeeUpdate(ctx, 1, data.EmployeePartial{})
	assert.Equal(t, data.ErrMutationDisabled, err)
	_, err = l.EmployeeDelete(ctx, 1)
	assert.Equal(t, data.ErrMutationDisabled, err)
}

// blockingSql pauses the next read after it has read from sql, so a
// mutation can complete while the read is still in flight
type blockingSql struct {
	sql.Sql
	block   atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func newBlockingSql(s sql.Sql) *blockingSql {
	return &blockingSql{
		Sql:     s,
		read:    make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingSql) wait() {
	if b.block.CompareAndSwap(true, false) {
		b.read <- struct{}{}
		<-b.release
	}
}

func (b *blockingSql) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	employee, err := b.Sql.EmployeeRead(ctx, id)
	b.wait()
	return employee, err
}

func (b *blockingSql) EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	employees, err := b.Sql.EmployeesSearch(ctx, search)
	b.wait()
	return employees, err
}

func TestLogicCacheInFlightRead(t *testing.T) {
	ctx := context.TODO()
	s := sql.NewSql()
	blocking := newBlockingSql(s)
	c := cache.NewMemory()
	l := logic.NewLogic(blocking, c)
	require.Nil(t, s.Configure(envs))
	require.Nil(t, s.Open(ctx))
	defer func() {
		if err := s.Close(ctx); err != nil {
			t.Logf("error while closing sql: %s", err)
		}
	}()
	require.Nil(t, c.Configure(envs))
	require.Nil(t, c.Open(ctx))
	require.Nil(t, l.Configure(map[string]string{"LOGIC_CACHE_ENABLED": "true"}))
	require.Nil(t, l.Open(ctx))

	// read starts a read that blocks after sql has been read and
	// returns once the read completes
	read := func(fx func() error) <-chan error {
		chErr := make(chan error, 1)
		blocking.block.Store(true)
		go func() {
			chErr <- fx()
		}()
		<-blocking.read
		return chErr
	}

	t.Run("Read and Delete", func(t *testing.T) {
		employee, err := l.EmployeeCreate(ctx, newPartial(newDepartment()))
		require.Nil(t, err)
		require.Nil(t, c.Clear(ctx))

		chErr := read(func() error {
			_, err := l.EmployeeRead(ctx, employee.ID)
			return err
		})
		_, err = l.EmployeeDelete(ctx, employee.ID)
		require.Nil(t, err)
		blocking.release <- struct{}{}
		assert.Nil(t, <-chErr)

		// the deleted employee isn't written back
		_, err = c.EmployeeRead(ctx, employee.ID)
		assert.ErrorIs(t, err, cache.ErrEmployeeNotCached)
		_, err = l.EmployeeRead(ctx, employee.ID)
		assert.Equal(t, data.ErrEmployeeNotFound, err)
	})

	t.Run("Search and Delete", func(t *testing.T) {
		department := newDepartment()
		employee, err := l.EmployeeCreate(ctx, newPartial(department))
		require.Nil(t, err)
		require.Nil(t, c.Clear(ctx))
		search := data.EmployeeSearch{Department: department}

		chErr := read(func() error {
			employees, err := l.EmployeesSearch(ctx, search)
			if err == nil && len(employees) != 1 {
				return fmt.Errorf("expected 1 employee, found %d", len(employees))
			}
			return err
		})
		_, err = l.EmployeeDelete(ctx, employee.ID)
		require.Nil(t, err)
		blocking.release <- struct{}{}
		assert.Nil(t, <-chErr)

		// neither the search nor the deleted employee are cached
		_, err = c.SearchRead(ctx, search)
		assert.ErrorIs(t, err, cache.ErrSearchNotCached)
		_, err = c.EmployeeRead(ctx, employee.ID)
		assert.ErrorIs(t, err, cache.ErrEmployeeNotCached)
		employees, err := l.EmployeesSearch(ctx, search)
		assert.Nil(t, err)
		assert.Empty(t, employees)
	})

	t.Run("Read and Update", func(t *testing.T) {
		employee, err := l.EmployeeCreate(ctx, newPartial(newDepartment()))
		require.Nil(t, err)
		require.Nil(t, c.Clear(ctx))

		chErr := read(func() error {
			_, err := l.EmployeeRead(ctx, employee.ID)
			return err
		})
		employeeUpdated, err := l.EmployeeUpdate(ctx, employee.ID, data.EmployeePartial{Position: str("Lead")})
		require.Nil(t, err)
		blocking.release <- struct{}{}
		assert.Nil(t, <-chErr)

		// the updated employee isn't replaced by the earlier read
		employeeCached, err := c.EmployeeRead(ctx, employee.ID)
		assert.Nil(t, err)
		assert.Equal(t, employeeUpdated, employeeCached)
		employeeRead, err := l.EmployeeRead(ctx, employee.ID)
		assert.Nil(t, err)
		assert.Equal(t, "Lead", employeeRead.Position)
	})
}
