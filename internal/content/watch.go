package content

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads the content file whenever it changes on disk and hands the
// new portfolio to onChange. Files that fail to parse are logged and skipped,
// so the previous content stays live. It blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Portfolio)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	// Watch the directory so editors that replace the file atomically are
	// still seen.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	target := filepath.Clean(path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				pending = time.After(reloadDebounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("content watcher: %v", err)
		case <-pending:
			pending = nil
			p, err := Load(path)
			if err != nil {
				log.Printf("content reload failed: %v", err)
				continue
			}
			log.Printf("content reloaded from %s", path)
			onChange(p)
		}
	}
}
