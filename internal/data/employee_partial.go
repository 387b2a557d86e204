package data

// EmployeePartial is the request body for creating or updating an employee,
// a nil field is a field that wasn't provided
type EmployeePartial struct {
	FirstName  *string  `json:"firstName,omitempty"`
	LastName   *string  `json:"lastName,omitempty"`
	Email      *string  `json:"email,omitempty"`
	Position   *string  `json:"position,omitempty"`
	Department *string  `json:"department,omitempty"`
	Salary     *float64 `json:"salary,omitempty"`
	HireDate   *string  `json:"hireDate,omitempty"`
	Phone      *string  `json:"phone,omitempty"`
}
