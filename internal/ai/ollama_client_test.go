package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func TestOllamaGenerateSuccess(t *testing.T) {
	var captured chatRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":           map[string]any{"role": "assistant", "content": "hello from ollama"},
			"model":             "llama3:latest",
			"done":              true,
			"done_reason":       "stop",
			"total_duration":    1500000000,
			"prompt_eval_count": 12,
			"eval_count":        4,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 2*time.Second, RetryPolicy{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Generate(ctx, GenerateRequest{
		Model:    "llama3:latest",
		Messages: []Message{{Role: "user", Content: "hi"}},
		Options:  GenerateOptions{NumPredict: 16},
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != "hello from ollama" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.RequestID == "" {
		t.Fatalf("expected a generated request id")
	}
	if resp.Usage.Total() != 16 || resp.DoneReason != "stop" || resp.Elapsed != 1500*time.Millisecond {
		t.Fatalf("response = %+v", resp)
	}
	if captured.Stream {
		t.Fatalf("request must not stream")
	}
	if captured.Model != "llama3:latest" || len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Fatalf("captured request = %+v", captured)
	}
	if captured.Options["num_predict"] != float64(16) || len(captured.Options) != 1 {
		t.Fatalf("options = %v", captured.Options)
	}
}

func TestOllamaGenerateErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusBadRequest, func(err error) bool { var e *BadRequestError; return errors.As(err, &e) }},
		{http.StatusNotFound, func(err error) bool { var e *ModelNotFoundError; return errors.As(err, &e) }},
		{http.StatusInternalServerError, func(err error) bool { var e *ServerError; return errors.As(err, &e) }},
		{http.StatusTeapot, func(err error) bool { var e *APIError; return errors.As(err, &e) }},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(map[string]any{"error": "nope"})
			}))
			defer srv.Close()
			c := NewOllamaClient(srv.URL, 2*time.Second, RetryPolicy{})
			_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
			if err == nil || !tc.check(err) {
				t.Fatalf("status %d: unexpected error %T %v", tc.status, err, err)
			}
		})
	}
}

func TestOllamaGenerateRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]any{"content": "ok"}})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 2*time.Second, RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != "ok" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("text=%q calls=%d", resp.Text(), calls)
	}
}

func TestOllamaGenerateDoesNotRetryMissingModel(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "model 'x' not found"})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 2*time.Second, RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "x", Messages: []Message{{Role: "user", Content: "hi"}}})
	var nf *ModelNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want ModelNotFoundError", err)
	}
	if nf.Message != "model 'x' not found" {
		t.Fatalf("message = %q", nf.Message)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestOllamaGenerateUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot open local listener: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c := NewOllamaClient("http://"+addr, time.Second, RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond})
	_, err = c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	var ue *UnreachableError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %T %v, want UnreachableError", err, err)
	}
}

func TestOllamaGenerateEmptyMessages(t *testing.T) {
	c := NewOllamaClient("http://localhost:11434", 2*time.Second, RetryPolicy{})
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3:latest", Messages: []Message{}})
	if err == nil || err.Error() != "messages cannot be empty" {
		t.Fatalf("expected 'messages cannot be empty' error, got: %v", err)
	}
	_, err = c.Generate(context.Background(), GenerateRequest{Messages: []Message{{Role: "user", Content: "x"}}})
	if err == nil || err.Error() != "model cannot be empty" {
		t.Fatalf("expected 'model cannot be empty' error, got: %v", err)
	}
}

func TestOllamaListModels(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"models":[
			{"name":"deepseek-coder:latest","size":776080839,"modified_at":"2024-05-01T10:00:00Z","details":{"family":"llama","parameter_size":"1B"}},
			{"name":"llama3:latest","size":4661224676,"modified_at":"2024-06-01T10:00:00Z","details":{"family":"llama","parameter_size":"8.0B"}}
		]}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL+"/", 2*time.Second, RetryPolicy{})
	got, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(got) != 2 || got[0].Name != "deepseek-coder:latest" || got[1].ParameterSize != "8.0B" {
		t.Fatalf("models = %+v", got)
	}
	if got[0].ModifiedAt.Year() != 2024 {
		t.Fatalf("modified_at not parsed: %v", got[0].ModifiedAt)
	}
}

func TestOllamaGenerateOmitsEmptyOptions(t *testing.T) {
	var raw map[string]any
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]any{"content": "ok"}})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 2*time.Second, RetryPolicy{})
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["options"]; ok {
		t.Fatalf("options should be omitted: %v", raw)
	}
	if raw["stream"] != false {
		t.Fatalf("stream = %v", raw["stream"])
	}
	if resp.Model != "m" {
		t.Fatalf("model should fall back to the requested one, got %q", resp.Model)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&ServerError{APIError: &APIError{StatusCode: 503}}, true},
		{&ModelNotFoundError{APIError: &APIError{StatusCode: 404}}, false},
		{&UnreachableError{Err: io.ErrUnexpectedEOF}, true},
		{&UnreachableError{Err: syscall.ECONNREFUSED}, false},
		{errors.New("decode failed"), false},
	}
	for _, tc := range cases {
		if got := retryable(tc.err); got != tc.want {
			t.Errorf("retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestBackoffStopsOnCancel(t *testing.T) {
	b := &backoff{next: time.Hour, max: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("wait = %v", err)
	}
}
