package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestServeHTTP_ListenFailureReturnsError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// Binding the same address must surface the error instead of
	// pretending the server ran.
	srv := &http.Server{Addr: ln.Addr().String(), Handler: http.NewServeMux()}
	if err := serveHTTP(context.Background(), srv, time.Second, slog.Default()); err == nil {
		t.Fatal("expected an error for an already-bound port")
	}
}

func TestServeHTTP_CleanShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}

	done := make(chan error, 1)
	go func() {
		done <- serveHTTP(ctx, srv, time.Second, slog.Default())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serveHTTP returned %v, want nil after shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serveHTTP did not return after cancellation")
	}
}
