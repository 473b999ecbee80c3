// Package submit implements the widget's wire contract: one JSON POST of the
// field values to a configured URL, where success means the response body
// parses as JSON and is truthy.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/conneroisu/formify/internal/errors"
	"github.com/conneroisu/formify/internal/fields"
	"github.com/conneroisu/formify/internal/version"
)

// Submitter delivers field values to a form backend. ok reports whether the
// backend acknowledged the submission with a truthy JSON body.
type Submitter interface {
	Submit(ctx context.Context, values fields.Values) (ok bool, err error)
}

// maxResponseBytes bounds how much of a response body is decoded.
const maxResponseBytes = 1 << 20

// HTTPSubmitter posts values as JSON with a plain http.Client.
type HTTPSubmitter struct {
	URL    string
	Client *http.Client
	Header http.Header
}

// NewHTTPSubmitter creates a submitter for url. A nil client means
// http.DefaultClient.
func NewHTTPSubmitter(url string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSubmitter{URL: url, Client: client}
}

// Submit sends one POST. The HTTP status is not consulted: like a browser
// fetch followed by res.json(), only the body decides the outcome.
func (s *HTTPSubmitter) Submit(ctx context.Context, values fields.Values) (bool, error) {
	body, err := json.Marshal(values)
	if err != nil {
		return false, errors.NewInternalError(errors.ErrCodeInternalError, "encoding submission", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return false, errors.ErrSubmitFailed(s.URL, err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	for k, vs := range s.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return false, errors.ErrSubmitFailed(s.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, errors.ErrSubmitFailed(s.URL, fmt.Errorf("reading response: %w", err))
	}

	var result interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return false, errors.ErrSubmitFailed(s.URL, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)).
			WithContext("status", resp.StatusCode)
	}

	return Truthy(result), nil
}

// Truthy applies JavaScript truthiness to a decoded JSON value: false, null,
// 0 and "" are falsy; objects and arrays, even empty ones, are truthy.
func Truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// Func adapts a function to the Submitter interface.
type Func func(ctx context.Context, values fields.Values) (bool, error)

// Submit calls f.
func (f Func) Submit(ctx context.Context, values fields.Values) (bool, error) {
	return f(ctx, values)
}
