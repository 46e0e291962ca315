// internal/upstream/client.go
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"junketops-service/internal/normalize"
	xerrors "junketops-service/internal/pkg/errors"
)

// Client talks to one host of the backend junket API. Every endpoint
// answers with the same envelope: {success, data, message}. The data
// member may be an array or a single object depending on the endpoint
// generation, so decoding stays shape-tolerant.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// BaseURL identifies the host, used when naming fallback strategies.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, path string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", xerrors.ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", xerrors.ErrUpstream, path, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s: %w", xerrors.ErrUpstream, path, xerrors.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", xerrors.ErrUpstream, path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", xerrors.ErrUpstream, path, err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return nil, fmt.Errorf("%w: %s rejected request: %s", xerrors.ErrUpstream, path, msg)
	}

	return &env, nil
}

// getList fetches an endpoint expected to yield a collection. Array
// data decodes directly; object data is unwrapped from the usual
// wrapper keys or, failing that, treated as a single record.
func (c *Client) getList(ctx context.Context, path string) ([]normalize.Raw, error) {
	env, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 {
		return []normalize.Raw{}, nil
	}

	var list []normalize.Raw
	if err := json.Unmarshal(env.Data, &list); err == nil {
		return list, nil
	}

	var obj normalize.Raw
	if err := json.Unmarshal(env.Data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %s data is neither array nor object", xerrors.ErrUpstream, path)
	}
	for _, key := range []string{"items", "list", "records", "rows", "customers", "data"} {
		if wrapped := normalize.List(obj, key); wrapped != nil {
			return wrapped, nil
		}
	}
	return []normalize.Raw{obj}, nil
}

// getObject fetches an endpoint expected to yield a single record.
func (c *Client) getObject(ctx context.Context, path string) (normalize.Raw, error) {
	env, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var obj normalize.Raw
	if err := json.Unmarshal(env.Data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %s did not return an object", xerrors.ErrUpstream, path)
	}
	return obj, nil
}
