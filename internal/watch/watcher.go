// Package watch follows the installed-package registry and turns changes to
// it into lifecycle events.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/danieljhkim/pkglink/internal/events"
	"github.com/danieljhkim/pkglink/internal/repository"
)

const (
	// DefaultDebounce is how long the watcher waits for writes to settle.
	DefaultDebounce = 200 * time.Millisecond

	// ReloadMaxRetries bounds how often a half-written registry is re-read.
	ReloadMaxRetries = 5
)

// Loader reads the current registry snapshot.
type Loader func() (*repository.Repository, error)

// Publisher receives the events produced by a reload.
type Publisher interface {
	Publish(evs ...events.Event) error
}

// Watcher watches the registry file and publishes the difference between
// successive snapshots.
type Watcher struct {
	registry string
	load     Loader
	pub      Publisher
	logger   zerolog.Logger

	// Debounce delays a reload until writes have been quiet this long
	Debounce time.Duration

	// NewBackOff builds the retry policy for one reload
	NewBackOff func() backoff.BackOff

	mu      sync.Mutex
	current *repository.Repository
}

// New creates a Watcher for the registry file at registryPath.
func New(registryPath string, load Loader, pub Publisher, logger zerolog.Logger) *Watcher {
	return &Watcher{
		registry: filepath.Clean(registryPath),
		load:     load,
		pub:      pub,
		logger:   logger,
		Debounce: DefaultDebounce,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = time.Second
			return backoff.WithMaxRetries(b, ReloadMaxRetries)
		},
	}
}

// Prime records the snapshot later reloads are compared against. A missing
// registry counts as empty.
func (w *Watcher) Prime() error {
	repo, err := w.load()
	if err != nil {
		if !errors.Is(err, repository.ErrRegistryNotFound) {
			return err
		}
		repo = repository.New()
	}
	w.mu.Lock()
	w.current = repo
	w.mu.Unlock()
	return nil
}

// Reload re-reads the registry, retrying while it is unreadable, and
// publishes the events that lead from the previous snapshot to the new one.
// On failure the previous snapshot is kept.
func (w *Watcher) Reload(ctx context.Context) ([]events.Event, error) {
	var next *repository.Repository
	attempt := 0

	op := func() error {
		attempt++
		repo, err := w.load()
		if err != nil {
			w.logger.Debug().Err(err).Int("attempt", attempt).Msg("Registry not readable yet")
			return err
		}
		next = repo
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(w.NewBackOff(), ctx)); err != nil {
		return nil, fmt.Errorf("failed to reload registry: %w", err)
	}

	w.mu.Lock()
	prev := w.current
	w.current = next
	w.mu.Unlock()

	evs := Diff(prev, next)
	if len(evs) == 0 {
		return nil, nil
	}
	if err := w.pub.Publish(evs...); err != nil {
		return evs, err
	}
	return evs, nil
}

// Run primes the watcher and then reloads on every change to the registry
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.registry)
	if stat, err := os.Stat(dir); err != nil || !stat.IsDir() {
		return fmt.Errorf("registry directory %s does not exist", dir)
	}

	if err := w.Prime(); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	// Package managers usually replace the registry with a rename, so watch
	// the directory rather than the file.
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info().Str("registry", w.registry).Msg("Watching registry")

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.registry {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			w.logger.Trace().Str("op", ev.Op.String()).Msg("Registry changed")
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			evs, err := w.Reload(ctx)
			if err != nil {
				w.logger.Error().Err(err).Msg("Registry reload failed")
				continue
			}
			if len(evs) > 0 {
				w.logger.Info().Int("events", len(evs)).Msg("Registry changes published")
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}
