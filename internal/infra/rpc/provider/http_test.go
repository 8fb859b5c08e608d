package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPProvider_Call(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected method POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %s", ct)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
			return
		}
		if req["jsonrpc"] != "2.0" || req["method"] != "eth_getTransactionCount" {
			t.Errorf("unexpected request %v", req)
		}
		params, _ := req["params"].([]any)
		if len(params) != 2 || params[1] != "pending" {
			t.Errorf("unexpected params %v", params)
		}

		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x2a"}`))
	}))
	defer server.Close()

	p := NewHTTPProvider("mock", server.URL, 5*time.Second)
	result, err := p.Call(context.Background(), "eth_getTransactionCount", []any{"0xabc", "pending"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "0x2a" {
		t.Errorf("expected 0x2a, got %v", result)
	}

	health := p.GetHealth()
	if !health.Available || health.ErrorRate != 0 {
		t.Errorf("unexpected health %+v", health)
	}
	if health.MonitorStats == nil || health.MonitorStats.Requests != 1 {
		t.Errorf("expected 1 monitored request, got %+v", health.MonitorStats)
	}
}

func TestHTTPProvider_NullResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`))
	}))
	defer server.Close()

	p := NewHTTPProvider("mock", server.URL, 5*time.Second)
	result, err := p.Call(context.Background(), "eth_getTransactionReceipt", []any{"0x01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %v", result)
	}
}

func TestHTTPProvider_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"nonce too low"}}`))
	}))
	defer server.Close()

	p := NewHTTPProvider("mock", server.URL, 5*time.Second)
	_, err := p.Call(context.Background(), "eth_sendRawTransaction", []any{"0x00"})

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *RPCError, got %T (%v)", err, err)
	}
	if rpcErr.Code != -32000 || rpcErr.Message != "nonce too low" {
		t.Errorf("unexpected rpc error %+v", rpcErr)
	}
	if p.GetHealth().ErrorRate != 1 {
		t.Errorf("expected error rate 1, got %v", p.GetHealth().ErrorRate)
	}
}

func TestHTTPProvider_RateLimited(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewHTTPProvider("mock", server.URL, 5*time.Second)
	_, err := p.Call(context.Background(), "eth_gasPrice", nil)

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 status error, got %v", err)
	}
	if p.IsAvailable() {
		t.Error("expected provider to be unavailable while throttled")
	}

	// Throttled provider short-circuits without hitting the server.
	if _, err := p.Call(context.Background(), "eth_gasPrice", nil); !errors.Is(err, ErrThrottled) {
		t.Errorf("expected ErrThrottled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 server call, got %d", calls)
	}
}

func TestHTTPProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewHTTPProvider("mock", server.URL, 5*time.Second)
	_, err := p.Call(context.Background(), "eth_chainId", nil)

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 status error, got %v", err)
	}
}
