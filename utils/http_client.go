// Package utils provides the shared HTTP plumbing for inter-service calls.
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"taskhub/logging"
)

// InternalAuthHeader carries the shared internal-service credential. Routes
// under /internal reject requests without it.
const InternalAuthHeader = "X-Internal-Auth"

// NewHTTPClient returns the client used for all inter-service calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// NewBreaker returns a circuit breaker configured for one downstream service.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

// ServiceClient is a breaker-wrapped JSON client for one collaborator.
type ServiceClient struct {
	HTTP           *http.Client
	Breaker        *gobreaker.CircuitBreaker
	BaseURL        string
	InternalSecret string
}

// NewServiceClient wires a collaborator endpoint into a breaker-guarded client.
func NewServiceClient(name, baseURL string, timeout time.Duration, internalSecret string) *ServiceClient {
	return &ServiceClient{
		HTTP:           NewHTTPClient(timeout),
		Breaker:        NewBreaker(name),
		BaseURL:        baseURL,
		InternalSecret: internalSecret,
	}
}

// DoJSON performs one JSON request through the circuit breaker. A non-2xx
// response is an error; when out is non-nil the response body is decoded
// into it.
func (c *ServiceClient) DoJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	_, err := c.Breaker.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %v", err)
			}
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.InternalSecret != "" {
			req.Header.Set(InternalAuthHeader, c.InternalSecret)
		}

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			respBody, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, string(respBody))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return nil, fmt.Errorf("failed to decode response body: %v", err)
			}
		}
		return nil, nil
	})
	return err
}

// RequireInternalAuth guards internal-only routes with the shared secret.
func RequireInternalAuth(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(InternalAuthHeader) != secret {
			http.Error(w, "Access forbidden: invalid internal credentials", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
