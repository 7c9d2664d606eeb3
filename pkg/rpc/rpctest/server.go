// Package rpctest provides an in-process fake node answering JSON-RPC calls
// with canned results, for tests of anything built on top of pkg/rpc.
//
package rpctest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cirocosta/htmlcoin-exporter/pkg/rpc"
)

const (
	User     = "htmlcoin"
	Password = "testpasswd"
)

type (
	// HandlerFunc computes the result of a call from its parameters.
	//
	HandlerFunc func(params []json.RawMessage) (any, *rpc.RPCError)

	// Server is a fake node. Methods without a response configured are
	// answered with the "method not found" error a real node would give.
	//
	Server struct {
		*httptest.Server

		mu       sync.Mutex
		handlers map[string]HandlerFunc
		calls    []Call
	}

	Call struct {
		Method string
		Params []json.RawMessage
	}

	request struct {
		ID     uint64            `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}

	response struct {
		Result any           `json:"result"`
		Error  *rpc.RPCError `json:"error"`
		ID     uint64        `json:"id"`
	}
)

// NewServer starts a fake node that is shut down when the test finishes.
//
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{handlers: map[string]HandlerFunc{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)

	return s
}

// Options gives the rpc options needed to reach the server.
//
func (s *Server) Options() rpc.Options {
	return rpc.Options{URL: s.URL, User: User, Password: Password}
}

// SetResult makes `method` always answer with `result`.
//
func (s *Server) SetResult(method string, result any) {
	s.SetHandler(method, func(_ []json.RawMessage) (any, *rpc.RPCError) {
		return result, nil
	})
}

// SetError makes `method` always fail with the given rpc error.
//
func (s *Server) SetError(method string, code int64, message string) {
	s.SetHandler(method, func(_ []json.RawMessage) (any, *rpc.RPCError) {
		return nil, &rpc.RPCError{Code: code, Message: message}
	})
}

func (s *Server) SetHandler(method string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers[method] = fn
}

// Calls returns the calls received so far, in order.
//
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Call(nil), s.calls...)
}

// Methods returns the names of the methods called so far, in order.
//
func (s *Server) Methods() []string {
	methods := []string{}
	for _, call := range s.Calls() {
		methods = append(methods, call.Method)
	}

	return methods
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "only POST is allowed", http.StatusMethodNotAllowed)
		return
	}

	user, password, ok := r.BasicAuth()
	if !ok || user != User || password != Password {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: req.Method, Params: req.Params})
	handler, found := s.handlers[req.Method]
	s.mu.Unlock()

	resp := response{ID: req.ID}
	status := http.StatusOK

	if !found {
		resp.Error = &rpc.RPCError{Code: -32601, Message: "Method not found"}
		status = http.StatusNotFound
	} else {
		resp.Result, resp.Error = handler(req.Params)
		if resp.Error != nil {
			status = http.StatusInternalServerError
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
