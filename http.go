package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxResponseBytes = 1 << 20

// DefaultAuthPath is the base path of the auth service endpoints
const DefaultAuthPath = "/api/auth"

// ClientConfig is a static Config
type ClientConfig struct {
	BaseURL  string
	AuthPath string
}

func (c ClientConfig) GetBaseURL() string {
	return c.BaseURL
}

func (c ClientConfig) GetAuthPath() string {
	if c.AuthPath == "" {
		return DefaultAuthPath
	}
	return c.AuthPath
}

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// accountResponse is the update-account reply. Token is only present when
// the service reissued one.
type accountResponse struct {
	Token    string `json:"token,omitempty"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// responseError is the cause attached to a failure built from a non 2xx reply
type responseError struct {
	Operation string
	Status    int
	Message   string
}

func (e *responseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Operation, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Operation, e.Status)
}

func (g *Gateway) endpoint(path string) string {
	return strings.TrimRight(g.baseURL, "/") + path
}

func (g *Gateway) send(ctx context.Context, method, path string, payload any, token string) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.endpoint(path), body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := g.requestID(); id != "" {
		req.Header.Set(HeaderRequestID, id)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, b, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// apiMessage extracts the human readable message of an error reply
func apiMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var msg messageResponse
	if err := json.Unmarshal(body, &msg); err != nil {
		return ""
	}
	if msg.Message != "" {
		return msg.Message
	}
	return msg.Error
}
