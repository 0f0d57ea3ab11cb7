package cliconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("max_cpu_percent = 70.0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	reloads := make(chan FileConfig, 4)
	w := NewConfigWatcher(path, func(fc FileConfig) {
		reloads <- fc
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watch a moment to attach before writing.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("max_cpu_percent = 55.0\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case fc := <-reloads:
		if fc.MaxCPUPercent != 55 {
			t.Errorf("reloaded MaxCPUPercent = %v, want 55", fc.MaxCPUPercent)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never reloaded after write")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}

func TestConfigWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("max_cpu_percent = 70.0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	reloads := make(chan FileConfig, 4)
	w := NewConfigWatcher(path, func(fc FileConfig) {
		reloads <- fc
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write sibling: %v", err)
	}

	select {
	case <-reloads:
		t.Fatal("watcher reloaded on an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConfigWatcherSurvivesBadReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("max_cpu_percent = 70.0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	reloads := make(chan FileConfig, 4)
	w := NewConfigWatcher(path, func(fc FileConfig) {
		reloads <- fc
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	// A broken write must not kill the watcher.
	if err := os.WriteFile(path, []byte("max_cpu_percent = [broken"), 0o644); err != nil {
		t.Fatalf("write broken config: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	if err := os.WriteFile(path, []byte("max_cpu_percent = 42.0\n"), 0o644); err != nil {
		t.Fatalf("write fixed config: %v", err)
	}

	select {
	case fc := <-reloads:
		if fc.MaxCPUPercent != 42 {
			t.Errorf("reloaded MaxCPUPercent = %v, want 42", fc.MaxCPUPercent)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never recovered after a broken config write")
	}
}
