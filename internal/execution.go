package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/antonio-alexander/go-employee-records/internal/data"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func GenerateId() string {
	return uuid.Must(uuid.NewRandom()).String()
}

// LaunchContext returns a context that's cancelled when a signal is received
// on osSignal or when the returned cancel function is called
func LaunchContext(wg *sync.WaitGroup, osSignal chan os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		select {
		case <-ctx.Done():
		case <-osSignal:
		}
	}()
	return ctx, cancel
}

// Envs reads the optional dotenv file (ENV_FILE or .env) and overlays the
// process environment on top of it; a missing dotenv file isn't an error
func Envs(environ []string) (map[string]string, error) {
	envs := make(map[string]string)
	for _, env := range environ {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
	envFile := envs["ENV_FILE"]
	if envFile == "" {
		envFile = ".env"
	}
	fileEnvs, err := godotenv.Read(envFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return envs, nil
		}
		return nil, err
	}
	for key, value := range fileEnvs {
		if _, ok := envs[key]; !ok {
			envs[key] = value
		}
	}
	return envs, nil
}

// DoRequest sends input as the json body (url.Values are sent as query
// parameters and []byte as is) and decodes a successful response into v.
// Error responses are returned as a *data.Error along with the status code.
func DoRequest(ctx context.Context, client *http.Client, uri, method string, input any, v ...any) (int, error) {
	var body io.Reader

	switch input := input.(type) {
	case nil:
	case url.Values:
		uri += "?" + input.Encode()
	case []byte:
		body = bytes.NewReader(input)
	default:
		byts, err := json.Marshal(input)
		if err != nil {
			return -1, err
		}
		body = bytes.NewReader(byts)
	}
	request, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return -1, err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if correlationId := CorrelationIdFromCtx(ctx); correlationId != "" {
		request.Header.Set(HeaderCorrelationId, correlationId)
	}
	response, err := client.Do(request)
	if err != nil {
		return -1, err
	}
	defer response.Body.Close()
	byts, err := io.ReadAll(response.Body)
	if err != nil {
		return response.StatusCode, err
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		errorResponse := &data.ErrorResponse{}
		if err := json.Unmarshal(byts, errorResponse); err != nil || errorResponse.Code == "" {
			return response.StatusCode, fmt.Errorf("%s: %s", response.Status, string(byts))
		}
		return response.StatusCode, data.NewError(errorResponse.Code,
			errorResponse.Error, response.StatusCode)
	}
	if len(v) > 0 && v[0] != nil && len(byts) > 0 {
		if err := json.Unmarshal(byts, v[0]); err != nil {
			return response.StatusCode, err
		}
	}
	return response.StatusCode, nil
}
