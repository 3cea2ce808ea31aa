package main

import (
	"context"
	"net/http"
	"testing"
	"time"
)

type ctxRecorder struct {
	err      error
	deadline bool
}

func (r *ctxRecorder) Close(ctx context.Context) {
	r.err = ctx.Err()
	_, r.deadline = ctx.Deadline()
}

func TestShutdownFlushGetsItsOwnDeadline(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0"}
	rec := &ctxRecorder{}

	// a zero grace period leaves the drain context expired
	shutdown(srv, rec, 0, time.Second)

	if rec.err != nil {
		t.Fatalf("flush context already done: %v", rec.err)
	}
	if !rec.deadline {
		t.Error("flush context has no deadline")
	}
}
