package service

import (
	"context"
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/antonio-alexander/go-employee-records/internal"
	"github.com/antonio-alexander/go-employee-records/internal/data"
	"github.com/antonio-alexander/go-employee-records/internal/utilities"

	"github.com/gorilla/mux"
)

type statusWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode, w.wroteHeader = statusCode, true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func getCorrelationId(request *http.Request) string {
	if correlationId := strings.TrimSpace(request.Header.Get(internal.HeaderCorrelationId)); correlationId != "" {
		return correlationId
	}
	return internal.GenerateId()
}

// idFromRequest reads the employee id from the path, falling back to the
// id query parameter
func idFromRequest(request *http.Request) (int64, error) {
	id, ok := mux.Vars(request)[data.PathId]
	if !ok {
		id = request.URL.Query().Get(data.ParameterId)
	}
	if id = strings.TrimSpace(id); id == "" {
		return 0, data.ErrMissingId
	}
	i, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, data.ErrInvalidId
	}
	return i, nil
}

// decodeEmployeePartial decodes the request body, a salary that isn't a
// number is decoded as NaN so it's reported as an invalid salary in rule
// order rather than failing the decode
func decodeEmployeePartial(request *http.Request) (data.EmployeePartial, error) {
	var body struct {
		data.EmployeePartial
		Salary json.RawMessage `json:"salary,omitempty"`
	}

	raw, err := io.ReadAll(request.Body)
	defer request.Body.Close()
	if err != nil {
		return data.EmployeePartial{}, data.ErrInvalidBody
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return data.EmployeePartial{}, data.ErrInvalidBody
	}
	employeePartial := body.EmployeePartial
	if len(body.Salary) > 0 && !bytes.Equal(body.Salary, []byte("null")) {
		var salary float64
		if err := json.Unmarshal(body.Salary, &salary); err != nil {
			salary = math.NaN()
		}
		employeePartial.Salary = &salary
	}
	return employeePartial, nil
}

// handleResponse writes item as json with statusCode, errors are written
// as {code, error}; anything that isn't a *data.Error is logged and
// reported as an internal error
func handleResponse(ctx context.Context, logger utilities.Logger, writer http.ResponseWriter, err error, statusCode int, item any) {
	var payload []byte

	if err == nil && item != nil {
		payload, err = json.Marshal(item)
	}
	if err != nil {
		e := data.AsError(err)
		if e.StatusCode == http.StatusInternalServerError {
			logger.Error(ctx, "internal error: %s", err)
		}
		statusCode = e.StatusCode
		if payload, err = json.Marshal(&data.ErrorResponse{
			Code:  e.Code,
			Error: e.Message,
		}); err != nil {
			logger.Error(ctx, "error handling response: %s", err)
			writer.WriteHeader(http.StatusInternalServerError)
			return
		}
	}
	if payload == nil {
		writer.WriteHeader(statusCode)
		return
	}
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	if _, err := writer.Write(payload); err != nil {
		logger.Error(ctx, "error handling response: %s", err)
	}
}
