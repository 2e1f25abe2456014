package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestHTTPFetcher_Verify(t *testing.T) {
	tests := []struct {
		name          string
		handler       http.HandlerFunc
		ctxFunc       func() (context.Context, context.CancelFunc)
		expectedError string
	}{
		{
			name: "Success - Valid Image",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodHead {
					t.Errorf("expected HEAD, got %s", r.Method)
				}
				w.Header().Set("Content-Type", "image/jpeg")
			},
		},
		{
			name: "Error - 404 Not Found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/jpeg")
				w.WriteHeader(http.StatusNotFound)
			},
			expectedError: "unexpected status code: 404",
		},
		{
			name: "Error - Invalid Content Type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
			},
			expectedError: "url is not an image",
		},
		{
			name: "Success - HEAD Refused, GET Accepted",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodHead {
					w.WriteHeader(http.StatusMethodNotAllowed)
					return
				}
				w.Header().Set("Content-Type", "image/png")
				_, _ = w.Write([]byte("png"))
			},
		},
		{
			name: "Error - Context Cancelled",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/jpeg")
			},
			ctxFunc: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx, cancel
			},
			expectedError: "context canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			var ctx context.Context
			var cancel context.CancelFunc
			if tt.ctxFunc != nil {
				ctx, cancel = tt.ctxFunc()
			} else {
				ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
			}
			defer cancel()

			err := NewHTTPFetcher(zap.NewNop()).Verify(ctx, server.URL+"/cover.jpg")

			if tt.expectedError != "" {
				if err == nil {
					t.Fatalf("expected error containing '%s', got nil", tt.expectedError)
				}
				if !strings.Contains(err.Error(), tt.expectedError) {
					t.Errorf("expected error '%s' to contain '%s'", err.Error(), tt.expectedError)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/webp")
	}))
	defer server.Close()

	if err := NewHTTPFetcher(zap.NewNop()).Verify(context.Background(), server.URL); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestHTTPFetcher_RejectsNonHTTP(t *testing.T) {
	for _, u := range []string{"file:///home/me/cover.png", "data:image/png;base64,AAAA"} {
		err := NewHTTPFetcher(zap.NewNop()).Verify(context.Background(), u)
		if !errors.Is(err, ErrUnsupportedScheme) {
			t.Errorf("%s: expected ErrUnsupportedScheme, got %v", u, err)
		}
	}
}
