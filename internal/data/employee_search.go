package data

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit int = 10
	MaxLimit     int = 100
)

// EmployeeSearch describes a read: either a single employee by id or a
// filtered, paginated list
type EmployeeSearch struct {
	ID         *int64 `json:"id,omitempty"`
	Search     string `json:"search,omitempty"`
	Department string `json:"department,omitempty"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// Normalize applies the pagination defaults and caps the limit
func (e *EmployeeSearch) Normalize() {
	e.Search = strings.TrimSpace(e.Search)
	e.Department = strings.TrimSpace(e.Department)
	if e.Limit <= 0 {
		e.Limit = DefaultLimit
	}
	if e.Limit > MaxLimit {
		e.Limit = MaxLimit
	}
	if e.Offset < 0 {
		e.Offset = 0
	}
}

func (e *EmployeeSearch) ToParams() url.Values {
	params := make(url.Values)
	if e.ID != nil {
		params.Set(ParameterId, fmt.Sprint(*e.ID))
	}
	if e.Search != "" {
		params.Set(ParameterSearch, e.Search)
	}
	if e.Department != "" {
		params.Set(ParameterDepartment, e.Department)
	}
	if e.Limit > 0 {
		params.Set(ParameterLimit, strconv.Itoa(e.Limit))
	}
	if e.Offset > 0 {
		params.Set(ParameterOffset, strconv.Itoa(e.Offset))
	}
	return params
}

// FromParams populates the search from query parameters; a present but
// malformed id is the only error, malformed pagination falls back to
// the defaults
func (e *EmployeeSearch) FromParams(params url.Values) error {
	for key, values := range params {
		if len(values) <= 0 {
			continue
		}
		value := strings.TrimSpace(values[0])
		switch strings.ToLower(key) {
		case ParameterId:
			if value == "" {
				continue
			}
			id, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return ErrInvalidId
			}
			e.ID = &id
		case ParameterSearch:
			e.Search = value
		case ParameterDepartment:
			e.Department = value
		case ParameterLimit:
			e.Limit, _ = strconv.Atoi(value)
		case ParameterOffset:
			e.Offset, _ = strconv.Atoi(value)
		}
	}
	e.Normalize()
	return nil
}

// ToKey returns a deterministic key for the search, used for caching
func (e *EmployeeSearch) ToKey() (string, error) {
	search := *e
	search.Normalize()
	return search.ToParams().Encode(), nil
}

// EmployeeIds is the ordered result of a search, it's what gets cached for
// a search key
type EmployeeIds []int64

func (e *EmployeeIds) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *EmployeeIds) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}
