package sessionlog

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/grovetools/spawn/errors"
)

// firstEntryRetry bounds how long Watch waits for a new file's first line.
const firstEntryRetry = 500 * time.Millisecond

// Watch calls fn for every session created under root after Watch starts,
// until ctx is done. New date directories are picked up as they appear.
func Watch(ctx context.Context, root string, fn func(SessionInfo)) error {
	if root == "" {
		root = DefaultRoot()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create session log root").
			WithDetail("root", root)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(root); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to watch session log root").
			WithDetail("root", root)
	}
	// Existing date directories; today's usually already exists.
	if dirs, err := os.ReadDir(root); err == nil {
		for _, d := range dirs {
			if d.IsDir() {
				_ = watcher.Add(filepath.Join(root, d.Name()))
			}
		}
	}

	seen := make(map[string]bool)
	report := func(path string) {
		if seen[path] {
			return
		}
		if _, ok := sessionIDFromFile(filepath.Base(path)); !ok {
			return
		}
		if session, ok := waitForSessionInfo(ctx, path); ok {
			seen[path] = true
			fn(session)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return errors.Wrap(err, errors.ErrCodeInternal, "session watcher failed")

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}

			info, err := os.Stat(ev.Name)
			if err != nil {
				continue
			}
			if !info.IsDir() {
				report(ev.Name)
				continue
			}
			if filepath.Dir(ev.Name) != filepath.Clean(root) {
				continue
			}
			_ = watcher.Add(ev.Name)
			// Files created before the watch was added produce no event.
			if files, err := os.ReadDir(ev.Name); err == nil {
				for _, f := range files {
					report(filepath.Join(ev.Name, f.Name()))
				}
			}
		}
	}
}

// waitForSessionInfo polls a freshly created file until its first entry is
// complete. The writer creates the file before writing session_start.
func waitForSessionInfo(ctx context.Context, path string) (SessionInfo, bool) {
	deadline := time.Now().Add(firstEntryRetry)
	for {
		if info, err := readSessionInfo(path); err == nil {
			return info, true
		}
		if time.Now().After(deadline) {
			return SessionInfo{}, false
		}
		select {
		case <-ctx.Done():
			return SessionInfo{}, false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
