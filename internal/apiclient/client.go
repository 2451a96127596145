// Package apiclient calls the helper backend's JSON endpoints and folds every
// outcome, including transport and decoding failures, into one result shape.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ocp-installer-helper/internal/model"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient}
}

// do sends one JSON request and returns the status code and raw body. Each
// call is a single attempt.
func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}) (int, []byte, error) {
	if body == nil {
		return c.send(ctx, method, endpoint, "", nil)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.send(ctx, method, endpoint, "application/json", bytes.NewReader(data))
}

func (c *Client) send(ctx context.Context, method, endpoint, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return 0, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}
	return resp.StatusCode, raw, nil
}

// into decodes the response body into out.
func (c *Client) into(ctx context.Context, method, endpoint string, body, out interface{}) error {
	status, raw, err := c.do(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	return jsonUnmarshal(raw, out, status)
}

// jsonUnmarshal decodes raw into out. A body that is not JSON is returned
// as the error text.
func jsonUnmarshal(raw []byte, out interface{}, status int) error {
	if err := json.Unmarshal(raw, out); err != nil {
		text := strings.TrimSpace(string(raw))
		if text == "" {
			text = fmt.Sprintf("empty response (HTTP %d)", status)
		}
		return &DecodeError{Status: status, Body: text}
	}
	return nil
}

// DecodeError carries a response body that was not valid JSON.
type DecodeError struct {
	Status int
	Body   string
}

func (e *DecodeError) Error() string {
	return e.Body
}

// Call issues a request and returns the uniform action result. It never
// fails: transport errors and undecodable bodies become Success=false with
// the cause in Error.
func (c *Client) Call(ctx context.Context, method, endpoint string, body interface{}) model.Result {
	var res model.Result
	if err := c.into(ctx, method, endpoint, body, &res); err != nil {
		return model.Result{Success: false, Error: err.Error()}
	}
	return res
}

func (c *Client) postForm(ctx context.Context, endpoint string, values url.Values) model.Result {
	status, raw, err := c.send(ctx, http.MethodPost, endpoint, "application/x-www-form-urlencoded", strings.NewReader(values.Encode()))
	if err != nil {
		return model.Result{Success: false, Error: err.Error()}
	}
	var res model.Result
	if err := jsonUnmarshal(raw, &res, status); err != nil {
		return model.Result{Success: false, Error: err.Error()}
	}
	return res
}
