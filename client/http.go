package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"VRFOracle/internal/api"
	"VRFOracle/internal/oracle"
)

// APIError is a call rejected by the node. When Code names a ledger
// rejection, errors.Is matches the corresponding oracle sentinel.
type APIError struct {
	Status  int    // Status is the HTTP status code
	Code    string // Code is the oracle or transport error code
	Message string // Message is the node's description
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Unwrap returns the oracle sentinel for Code, if any.
func (e *APIError) Unwrap() error {
	return oracle.ErrorForCode(oracle.Code(e.Code))
}

// envelope returns a fresh signed envelope for the client's wallet.
func (c *Client) envelope() (api.Signed, error) {
	if c.wallet == nil {
		return api.Signed{}, ErrNoWallet
	}

	return api.NewSigned(c.wallet.Identity()), nil
}

// postSigned signs body with the wallet key and POSTs it. result may be nil.
func (c *Client) postSigned(ctx context.Context, path string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body:\n%w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request:\n%w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.SignatureHeader, api.SignBody(c.wallet.privKey, data))

	return c.do(req, result)
}

// get performs a GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request:\n%w", err)
	}

	return c.do(req, result)
}

// do sends req and decodes a 2xx JSON body into result, or the error body
// into an *APIError.
func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s:\n%w", req.Method, req.URL.Path, err)
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}

		var body api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Code, apiErr.Message = body.Code, body.Error
		}

		return apiErr
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if raw, ok := result.(*[]byte); ok {
		*raw, err = io.ReadAll(resp.Body)
		return err
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
