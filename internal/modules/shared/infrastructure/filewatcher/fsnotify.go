package filewatcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 連続した書き込みをまとめる待ち時間
const DefaultDebounce = 300 * time.Millisecond

// FSNotifyWatcher 指定ファイルの変更を監視する
//
// fsnotify はディレクトリ単位で監視するため、各ファイルの親ディレクトリを登録し
// 対象ファイル以外のイベントは捨てる。
type FSNotifyWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
}

// NewFSNotifyWatcher 新しいFSNotifyWatcherを作成
func NewFSNotifyWatcher(paths []string, debounce time.Duration) (*FSNotifyWatcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		files[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	return &FSNotifyWatcher{
		watcher:  w,
		files:    files,
		debounce: debounce,
	}, nil
}

// Watch 変更されたファイルのパスを流すチャネルを返す
//
// debounce 期間内の連続イベントは最後の1件にまとめる。ctx の終了でチャネルは閉じる。
func (w *FSNotifyWatcher) Watch(ctx context.Context) <-chan string {
	changes := make(chan string, 1)

	go func() {
		defer close(changes)

		var (
			timer   *time.Timer
			timerC  <-chan time.Time
			pending string
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatched(event.Name) {
					continue
				}
				// エディタの保存はWrite以外にCreate/Renameとして届くことがある
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}

				pending = filepath.Clean(event.Name)
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					timer.Reset(w.debounce)
				}
				timerC = timer.C
			case <-timerC:
				timerC = nil
				select {
				case changes <- pending:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("File watcher error", "error", err)
			}
		}
	}()

	return changes
}

// Stop 監視を停止
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *FSNotifyWatcher) isWatched(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return w.files[abs]
}
