package data

import (
	"encoding/json"
	"time"
)

// TimestampFormat is the ISO-8601 layout used for createdAt, updatedAt and
// the hire date, it's always rendered in UTC
const TimestampFormat string = "2006-01-02T15:04:05.000Z"

// Departments are the department labels offered by clients; the service
// doesn't enforce them
var Departments = []string{
	"Engineering",
	"Marketing",
	"Sales",
	"HR",
	"Finance",
	"Operations",
}

type Employee struct {
	ID         int64   `json:"id"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	Position   string  `json:"position"`
	Department string  `json:"department"`
	Salary     float64 `json:"salary"`
	HireDate   string  `json:"hireDate"`
	Phone      *string `json:"phone"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

func (e *Employee) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Employee) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}

// Timestamp renders t using TimestampFormat
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}
