package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestNewFSNotifyWatcher(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "original.txt")
	comparison := filepath.Join(dir, "comparison.txt")
	writeFile(t, original, "a")
	writeFile(t, comparison, "b")

	tests := []struct {
		name    string
		paths   []string
		wantErr bool
	}{
		{name: "正常系: 同じディレクトリの2ファイル", paths: []string{original, comparison}},
		{name: "異常系: ファイル指定なし", paths: nil, wantErr: true},
		{name: "異常系: 存在しないディレクトリ", paths: []string{filepath.Join(dir, "missing", "x.txt")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewFSNotifyWatcher(tt.paths, 0)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFSNotifyWatcher() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer func() { _ = w.Stop() }()

			if w.debounce != DefaultDebounce {
				t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
			}
			if len(w.files) != len(tt.paths) {
				t.Errorf("files = %d, want %d", len(w.files), len(tt.paths))
			}
		})
	}
}

func TestFSNotifyWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "contract.txt")
	writeFile(t, target, "v1")

	w, err := NewFSNotifyWatcher([]string{target}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher() error = %v", err)
	}
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	changes := w.Watch(ctx)

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(target, []byte("v2"), 0o644)
		_ = os.WriteFile(target, []byte("v3"), 0o644)
	}()

	select {
	case got := <-changes:
		if got != target {
			t.Errorf("changed path = %s, want %s", got, target)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for change")
	}

	// 2回の書き込みは1件にまとめられる
	select {
	case got := <-changes:
		t.Errorf("unexpected second change: %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFSNotifyWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "contract.txt")
	writeFile(t, target, "v1")

	w, err := NewFSNotifyWatcher([]string{target}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher() error = %v", err)
	}
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	changes := w.Watch(ctx)
	writeFile(t, filepath.Join(dir, "notes.txt"), "other")

	select {
	case got := <-changes:
		t.Errorf("unexpected change for unwatched file: %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFSNotifyWatcher_ClosesOnCancel(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "contract.txt")
	writeFile(t, target, "v1")

	w, err := NewFSNotifyWatcher([]string{target}, 0)
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher() error = %v", err)
	}
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	changes := w.Watch(ctx)
	cancel()

	select {
	case _, ok := <-changes:
		if ok {
			t.Error("channel should be closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
}
