package main

import (
	"net/http"
	"os"
	osSignal "os/signal"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func stubSignal(t *testing.T, sig os.Signal) {
	t.Helper()
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})

	signalNotify = func(ch chan<- os.Signal, _ ...os.Signal) {
		go func() {
			ch <- sig
		}()
	}
}

func TestShutdownSignals(t *testing.T) {
	stubSignal(t, syscall.SIGTERM)

	server := &http.Server{}
	called := make(chan struct{}, 1)
	server.RegisterOnShutdown(func() {
		called <- struct{}{}
	})

	core, logs := observer.New(zapcore.InfoLevel)
	shutdown(server, time.Millisecond, zap.New(core))

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatalf("expected server shutdown callback to execute")
	}

	entries := logs.FilterMessage("shutting down server").All()
	if len(entries) != 1 {
		t.Fatalf("expected one shutdown log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["signal"]; got != syscall.SIGTERM.String() {
		t.Fatalf("expected signal field %q, got %v", syscall.SIGTERM.String(), got)
	}
}

func TestShutdownLogsInterrupt(t *testing.T) {
	stubSignal(t, os.Interrupt)

	core, logs := observer.New(zapcore.InfoLevel)
	shutdown(&http.Server{}, time.Millisecond, zap.New(core))

	entries := logs.FilterField(zap.String("signal", os.Interrupt.String())).All()
	if len(entries) != 1 {
		t.Fatalf("expected shutdown entry tagged with the interrupt signal, got %d", len(entries))
	}
}
