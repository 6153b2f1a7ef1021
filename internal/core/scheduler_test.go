package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartReloadScheduler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	applied := make(chan *Dataset, 10)
	load := func(context.Context) (*Dataset, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("first reload fails")
		}
		return NewDataset("reloaded", NewRegistry(RegistryOptions{})), nil
	}

	done := make(chan struct{})
	go func() {
		StartReloadScheduler(ctx, 5*time.Millisecond, load, func(ds *Dataset) { applied <- ds })
		close(done)
	}()

	select {
	case ds := <-applied:
		if ds.Source != "reloaded" {
			t.Errorf("Source = %q, want reloaded", ds.Source)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no dataset applied")
	}
	if calls.Load() < 2 {
		t.Errorf("load calls = %d, want the failed call retried", calls.Load())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestStartReloadScheduler_Disabled(t *testing.T) {
	called := false
	StartReloadScheduler(context.Background(), 0, func(context.Context) (*Dataset, error) {
		called = true
		return nil, nil
	}, func(*Dataset) {})
	if called {
		t.Error("load called with a zero interval")
	}
}
