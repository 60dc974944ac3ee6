// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package ckan is a client for the read-only parts of the CKAN action API
// (https://docs.ckan.org/en/latest/api/) used to discover datasets and pick
// downloadable resources from them.
package ckan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Client issues requests against a single CKAN API root. A Client holds no
// mutable state, so it can be shared between goroutines.
type Client struct {
	// HTTP client used for all requests
	Client http.Client
	// the CKAN API root, always with a trailing slash
	// (e.g. https://demo.ckan.org/api/3/)
	base *url.URL
}

// creates a client for the CKAN API rooted at the given absolute URL. The
// given timeout applies to each request; zero leaves the transport default.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, InvalidEndpointError{Endpoint: baseURL, Message: err.Error()}
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, InvalidEndpointError{Endpoint: baseURL, Message: "not an absolute URL"}
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	base.RawQuery = ""
	base.Fragment = ""

	// NOTE: we prevent redirects from HTTPS -> HTTP!
	return &Client{
		Client: SecureHttpClient(timeout),
		base:   base,
	}, nil
}

// returns the base URL of the CKAN API
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Params holds query parameters for a CKAN action. Values may be strings,
// integers, booleans, or string slices. A slice is encoded by repeating its
// key once per element, so array parameters should be named with CKAN's
// "key[]" convention.
type Params map[string]any

// encodes the parameters as URL query values
func (p Params) Values() url.Values {
	values := url.Values{}
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		switch v := p[key].(type) {
		case nil:
			// omitted
		case string:
			values.Add(key, v)
		case int:
			values.Add(key, strconv.Itoa(v))
		case int64:
			values.Add(key, strconv.FormatInt(v, 10))
		case bool:
			values.Add(key, strconv.FormatBool(v))
		case []string:
			for _, elem := range v {
				values.Add(key, elem)
			}
		case []int:
			for _, elem := range v {
				values.Add(key, strconv.Itoa(elem))
			}
		default:
			values.Add(key, fmt.Sprint(v))
		}
	}
	return values
}

// returns the absolute URL for the given CKAN action
func (c *Client) actionURL(action string) string {
	return c.base.ResolveReference(&url.URL{Path: "action/" + action}).String()
}

// performs a GET request for the given action, returning the resulting
// response body and/or error
func (c *Client) get(ctx context.Context, action string, values url.Values) ([]byte, error) {
	endpoint := c.actionURL(action)
	res, err := url.Parse(endpoint)
	if err != nil {
		return nil, RequestFailureError{Endpoint: endpoint, Err: err}
	}
	res.RawQuery = values.Encode()
	slog.Debug(fmt.Sprintf("GET: %s", res.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.String(), http.NoBody)
	if err != nil {
		return nil, RequestFailureError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, RequestFailureError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain the body so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return nil, RequestFailureError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, RequestFailureError{Endpoint: endpoint, Err: err}
	}
	return body, nil
}

// the JSON envelope wrapped around every CKAN action response
type envelope struct {
	Success *bool           `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"__type"`
	} `json:"error"`
}

// performs the given action and returns its validated result payload
func (c *Client) call(ctx context.Context, action string, params Params) (json.RawMessage, error) {
	body, err := c.get(ctx, action, params.Values())
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, c.invalidResponse(action, params, fmt.Sprintf("malformed JSON envelope: %s", err.Error()))
	}
	if env.Success == nil {
		return nil, c.invalidResponse(action, params, "missing success flag")
	}
	if !*env.Success {
		if env.Error != nil && env.Error.Message != "" {
			return nil, c.invalidResponse(action, params, fmt.Sprintf("request unsuccessful: %s", env.Error.Message))
		}
		return nil, c.invalidResponse(action, params, "request unsuccessful")
	}
	if len(env.Result) == 0 || bytes.Equal(env.Result, []byte("null")) {
		return nil, c.invalidResponse(action, params, "missing result")
	}
	return env.Result, nil
}

// returns an InvalidResponseError for the given action, params, and message
func (c *Client) invalidResponse(action string, params Params, message string) error {
	return InvalidResponseError{
		Endpoint: c.BaseURL(),
		Action:   action,
		Params:   params.Values(),
		Message:  message,
	}
}
