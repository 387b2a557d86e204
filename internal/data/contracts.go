package data

const (
	RouteEmployees      string = "/employees"
	RouteEmployeesId    string = RouteEmployees + "/{" + PathId + "}"
	RouteEmployeesIdf   string = RouteEmployees + "/%d"
	RouteHealthcheck    string = "/healthcheck"
	RouteMetrics        string = "/metrics"
	RouteCache          string = "/cache"
	RouteCacheCounters  string = RouteCache + "/counters"
	RouteTimers         string = "/timers"
	MessageEmployeeGone string = "Employee deleted successfully"
)

const PathId string = "id"

const (
	ParameterId         string = "id"
	ParameterSearch     string = "search"
	ParameterDepartment string = "department"
	ParameterLimit      string = "limit"
	ParameterOffset     string = "offset"
)

type DeleteResponse struct {
	Message  string    `json:"message"`
	Employee *Employee `json:"employee"`
}

type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}
