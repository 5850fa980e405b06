package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultGraphVersion is the single Graph API version used by every call.
// The legacy flows drifted across versions; they are pinned together here.
const DefaultGraphVersion = "v19.0"

const defaultGraphBaseURL = "https://graph.facebook.com"

// GraphError is a non-2xx response from the Graph API with the provider's
// own error message preserved, so handlers can surface it verbatim.
type GraphError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph api error (http %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

// GraphClient performs Meta Graph API calls. Zero value is not usable;
// construct with NewGraphClient. BaseURL is overridable for tests.
type GraphClient struct {
	BaseURL string
	Version string
	http    *http.Client
}

// NewGraphClient creates a client against the production Graph API
func NewGraphClient() *GraphClient {
	return &GraphClient{
		BaseURL: defaultGraphBaseURL,
		Version: DefaultGraphVersion,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewGraphClientWithBase creates a client against a custom base URL (tests)
func NewGraphClientWithBase(baseURL string) *GraphClient {
	c := NewGraphClient()
	c.BaseURL = baseURL
	return c
}

// NormalizeAdAccountID ensures the act_ prefix is present exactly once
func NormalizeAdAccountID(id string) string {
	if strings.HasPrefix(id, "act_") {
		return id
	}
	return "act_" + id
}

func (g *GraphClient) endpoint(path string) string {
	return fmt.Sprintf("%s/%s/%s", g.BaseURL, g.Version, strings.TrimPrefix(path, "/"))
}

// PostForm sends a form-encoded POST to a versioned Graph path and decodes
// the JSON response
func (g *GraphClient) PostForm(ctx context.Context, path string, params url.Values) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(path), strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return g.do(req)
}

// Get sends a GET to a versioned Graph path with query parameters
func (g *GraphClient) Get(ctx context.Context, path string, params url.Values) (map[string]interface{}, error) {
	u := g.endpoint(path)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return g.do(req)
}

func (g *GraphClient) do(req *http.Request) (map[string]interface{}, error) {
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read graph response: %w", err)
	}

	var result map[string]interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			if resp.StatusCode >= 300 {
				return nil, &GraphError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
			}
			return nil, fmt.Errorf("parse graph response: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		return nil, graphErrorFrom(resp.StatusCode, result)
	}
	return result, nil
}

// graphErrorFrom extracts {"error": {"message", "code"}} from a failing body
func graphErrorFrom(status int, body map[string]interface{}) *GraphError {
	ge := &GraphError{StatusCode: status, Message: "unknown graph api error"}
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		return ge
	}
	if msg, ok := errObj["message"].(string); ok && msg != "" {
		ge.Message = msg
	}
	if code, ok := errObj["code"].(float64); ok {
		ge.Code = int(code)
	}
	return ge
}

// stringField reads a top-level string field from a decoded response
func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
