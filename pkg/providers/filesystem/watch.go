// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/fileproc"
)

// RecrawlFunc triggers a full re-crawl of one repository. The watcher
// calls it at most once per debounce window, regardless of how many
// individual filesystem events fired within it.
type RecrawlFunc func(repoID uuid.UUID)

// Watch debounces filesystem change notifications under root into calls to
// trigger, stopping when ctx is cancelled. It never returns until ctx is
// done or the watcher fails to start; callers run it in its own goroutine.
func Watch(ctx context.Context, root string, repoID uuid.UUID, debounce time.Duration, trigger RecrawlFunc) error {
	fswatch, err := fsnotify.NewWatcher()
	if err != nil {
		return klaskerrors.WrapWithMessage(err, "create filesystem watcher")
	}
	defer fswatch.Close()

	if err := addRecursive(fswatch, root); err != nil {
		return err
	}

	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	var mu sync.Mutex
	var timer *time.Timer
	scheduleTrigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() { trigger(repoID) })
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return nil

		case event, ok := <-fswatch.Events:
			if !ok {
				return nil
			}
			if shouldIgnore(event) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fswatch.Add(event.Name)
				}
			}
			scheduleTrigger()

		case _, ok := <-fswatch.Errors:
			if !ok {
				return nil
			}
		}
	}
}

// addRecursive adds root and every non-ignored subdirectory to fswatch.
// fsnotify does not recurse on its own.
func addRecursive(fswatch *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && fileproc.IgnoredDir(info.Name()) {
			return filepath.SkipDir
		}
		return fswatch.Add(path)
	})
}

// shouldIgnore drops events that can't represent content worth re-crawling.
func shouldIgnore(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0
}
