// Package rpc implements a small JSON-RPC client for the read-only subset of
// the htmlcoin node's administrative interface that the exporter consumes.
//
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

type (
	// Options carries what's necessary to reach a node.
	//
	Options struct {
		// URL is the full address of the rpc interface, e.g.
		// `http://127.0.0.1:4889`.
		//
		URL string

		User     string
		Password string

		// Timeout bounds each individual call. Zero means no timeout
		// other than the one carried by the caller's context.
		//
		Timeout time.Duration

		Log logr.Logger
	}

	// Client is a connection to a node, meant to be used for a single
	// collection pass and then closed.
	//
	Client struct {
		url      string
		user     string
		password string
		timeout  time.Duration

		transport  *http.Transport
		httpClient *http.Client
		nextID     uint64

		log logr.Logger
	}

	// Request is the JSON-RPC 1.0 envelope bitcoin-derived nodes expect.
	//
	Request struct {
		Jsonrpc string `json:"jsonrpc"`
		ID      uint64 `json:"id"`
		Method  string `json:"method"`
		Params  []any  `json:"params"`
	}

	// Response is the envelope the node replies with.
	//
	Response struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
		ID     uint64          `json:"id"`
	}
)

// Dial prepares a client with its own transport so that releasing it (see
// Close) doesn't affect any other pass.
//
func Dial(opts Options) (*Client, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url '%s': %w", opts.URL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme '%s' in '%s'",
			u.Scheme, opts.URL)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &Client{
		url:        u.String(),
		user:       opts.User,
		password:   opts.Password,
		timeout:    opts.Timeout,
		transport:  transport,
		httpClient: &http.Client{Transport: transport},
		log:        opts.Log.WithName("rpc"),
	}, nil
}

// Close releases the connections held by the client.
//
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// call performs `method` and decodes its result into `result`.
//
// `required` names the fields (dot-separated for nested objects) that must be
// present and non-null in the result, checked on every element when the
// result is a list. A `null` result is not an error: `false` is returned and
// `result` is left untouched.
//
func (c *Client) call(
	ctx context.Context, method string, params []any, result any,
	required ...string,
) (bool, error) {
	if params == nil {
		params = []any{}
	}

	request := &Request{
		Jsonrpc: "1.0",
		ID:      atomic.AddUint64(&c.nextID, 1),
		Method:  method,
		Params:  params,
	}

	buffer, err := json.Marshal(request)
	if err != nil {
		return false, fmt.Errorf("marshal %s request: %w", method, err)
	}

	c.log.V(1).Info("request", "method", method, "body", string(buffer))

	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url,
		bytes.NewReader(buffer))
	if err != nil {
		return false, fmt.Errorf("new %s request: %w", method, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.user, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s rpc call: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read %s response: %w", method, err)
	}

	c.log.V(1).Info("response",
		"method", method,
		"status", resp.StatusCode,
		"body", string(body),
	)

	if resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden {
		return false, &HTTPError{Method: method, StatusCode: resp.StatusCode}
	}

	var envelope Response
	if err := json.Unmarshal(body, &envelope); err != nil {
		// the node only answers with non-json bodies when something
		// other than the rpc method itself went wrong.
		if resp.StatusCode != http.StatusOK {
			return false, &HTTPError{
				Method:     method,
				StatusCode: resp.StatusCode,
			}
		}

		return false, &DecodeError{Method: method, Err: err}
	}

	if envelope.ID != request.ID {
		return false, &DecodeError{
			Method: method,
			Err: fmt.Errorf("response id %d doesn't match request id %d",
				envelope.ID, request.ID),
		}
	}

	if envelope.Error != nil {
		envelope.Error.Method = method
		return false, envelope.Error
	}

	if resp.StatusCode != http.StatusOK {
		return false, &HTTPError{Method: method, StatusCode: resp.StatusCode}
	}

	if isNull(envelope.Result) {
		return false, nil
	}

	if err := checkRequired(method, envelope.Result, required); err != nil {
		return false, err
	}

	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return false, &DecodeError{Method: method, Err: err}
	}

	return true, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
