package skills

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a Loader's search directories and triggers a reload
// whenever a skill file is added, removed, or edited, so operators can drop
// a new SKILL.md in without restarting the agent.
type Watcher struct {
	loader *Loader
	fsw    *fsnotify.Watcher
	done   chan struct{}
}

// NewWatcher creates a Watcher for loader's directories. Returns an error if
// the underlying OS watch cannot be established (e.g. inotify limits).
func NewWatcher(loader *Loader) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{loader: loader, fsw: fsw, done: make(chan struct{})}

	for _, root := range []string{loader.workspaceDir, loader.globalDir, loader.extraDir} {
		if root == "" {
			continue
		}
		dir := filepath.Join(root, skillsSubdir)
		if err := fsw.Add(dir); err != nil {
			// Directory may not exist yet — that's fine, skills just
			// haven't been added for this agent. Log once and move on.
			slog.Debug("skills watcher: directory not watched", "dir", dir, "error", err)
		}
	}

	return w, nil
}

// Start begins watching in a background goroutine, reloading the loader on
// every filesystem event until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				return
			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".md" {
					continue
				}
				slog.Debug("skills watcher: reloading", "event", event.Op.String(), "file", event.Name)
				w.loader.Reload()
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				slog.Warn("skills watcher error", "error", err)
			}
		}
	}()
	return nil
}

// Stop closes the underlying filesystem watch.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsw.Close()
}
