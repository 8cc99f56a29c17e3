package main

import (
	"net/http"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingWaiter stands in for the notification dispatcher.
type countingWaiter struct {
	waits atomic.Int32
}

func (w *countingWaiter) Wait() { w.waits.Add(1) }

func TestServe_ListenFailureWaitsForNotifications(t *testing.T) {
	server := &http.Server{Addr: "127.0.0.1:-1"}
	waiter := &countingWaiter{}

	err := serve(server, waiter, make(chan os.Signal), time.Second, zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error")
	assert.Equal(t, int32(1), waiter.waits.Load())
}

func TestServe_SignalShutsDownAndWaits(t *testing.T) {
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	waiter := &countingWaiter{}
	shutdown := make(chan os.Signal, 1)

	done := make(chan error, 1)
	go func() {
		done <- serve(server, waiter, shutdown, time.Second, zerolog.Nop())
	}()
	shutdown <- syscall.SIGTERM

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after shutdown signal")
	}
	assert.Equal(t, int32(1), waiter.waits.Load())
}
