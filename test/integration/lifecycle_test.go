package integration

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/pkglink/internal/events"
	"github.com/danieljhkim/pkglink/internal/executor"
	"github.com/danieljhkim/pkglink/internal/watch"
)

// lifecycle feeds registry changes through the event bus to a dispatcher.
type lifecycle struct {
	h   *harness
	bus *events.Bus

	mu   sync.Mutex
	errs []error
}

func newLifecycle(t *testing.T, h *harness, links map[string]any) *lifecycle {
	t.Helper()

	x, cfg := h.executor(t, links, executor.Options{})
	dispatcher := events.NewDispatcher(cfg, x, zerolog.Nop())

	l := &lifecycle{h: h, bus: events.NewBus(zerolog.Nop())}
	t.Cleanup(func() { _ = l.bus.Close() })

	err := l.bus.Subscribe(context.Background(), func(ctx context.Context, ev events.Event) error {
		if err := dispatcher.Handle(ctx, ev); err != nil {
			l.mu.Lock()
			l.errs = append(l.errs, err)
			l.mu.Unlock()
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	return l
}

// apply publishes the difference between two registry states. Publish
// returns once every event has been handled.
func (l *lifecycle) apply(t *testing.T, change func()) []events.Event {
	t.Helper()
	before := l.h.repo()
	change()
	evs := watch.Diff(before, l.h.repo())
	if err := l.bus.Publish(evs...); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, err := range l.errs {
		t.Errorf("handler error: %v", err)
	}
	l.errs = nil
	return evs
}

func TestLifecycle_InstallUpdateUninstall(t *testing.T) {
	h := newHarness(t)
	h.write(t, "web/keep.txt", "mine")

	l := newLifecycle(t, h, map[string]any{
		"acme/ui": map[string]any{
			"dir":     "web/assets",
			"files":   map[string]any{"dist/ui.js": "js/ui.js", "dist/ui.css": "css/ui.css"},
			"options": map[string]any{"copy": true, "deleteOrphans": true},
		},
	})
	before := h.snapshot(t)

	evs := l.apply(t, func() {
		h.install(t, "acme/ui", "1.0.0", map[string]string{"dist/ui.js": "v1", "dist/ui.css": "css1"})
		h.install(t, "acme/other", "1.0.0", map[string]string{"x": "x"})
	})
	if len(evs) != 2 {
		t.Fatalf("expected 2 install events, got %d", len(evs))
	}
	if got := h.read(t, "web/assets/js/ui.js"); got != "v1" {
		t.Errorf("after install ui.js = %q", got)
	}

	evs = l.apply(t, func() {
		h.install(t, "acme/ui", "1.1.0", map[string]string{"dist/ui.js": "v2"})
	})
	if len(evs) != 1 || evs[0].Operation != events.OpUpdate {
		t.Fatalf("expected one update event, got %+v", evs)
	}
	if got := h.read(t, "web/assets/js/ui.js"); got != "v2" {
		t.Errorf("after update ui.js = %q", got)
	}
	// The stylesheet no longer ships, so relinking clears it.
	if h.exists("web/assets/css/ui.css") {
		t.Error("expected css/ui.css to be gone after the update")
	}

	evs = l.apply(t, func() {
		h.uninstall(t, "acme/ui")
		h.uninstall(t, "acme/other")
	})
	if len(evs) != 2 {
		t.Fatalf("expected 2 uninstall events, got %d", len(evs))
	}
	if h.exists("web/assets") {
		t.Error("expected web/assets to be pruned")
	}
	if got := h.read(t, "web/keep.txt"); got != "mine" {
		t.Errorf("foreign file changed: %q", got)
	}

	if got := h.snapshot(t); !reflect.DeepEqual(got, before) {
		t.Errorf("tree after uninstall = %v, want %v", got, before)
	}
}

func TestLifecycle_FailingPackageDoesNotBlockOthers(t *testing.T) {
	h := newHarness(t)
	x, cfg := h.executor(t, map[string]any{
		// Symlink mode cannot work on the in-memory filesystem.
		"acme/links": "web/links",
		"acme/copy":  map[string]any{"dir": "web/copy", "options": map[string]any{"copy": true}},
	}, executor.Options{Strict: true})

	dispatcher := events.NewDispatcher(cfg, x, zerolog.Nop())
	bus := events.NewBus(zerolog.Nop())
	defer func() { _ = bus.Close() }()

	var mu sync.Mutex
	failed := map[string]bool{}
	err := bus.Subscribe(context.Background(), func(ctx context.Context, ev events.Event) error {
		err := dispatcher.Handle(ctx, ev)
		if err != nil {
			mu.Lock()
			failed[ev.Package.Name] = true
			mu.Unlock()
		}
		return err
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	links := h.install(t, "acme/links", "1.0.0", map[string]string{"a": "a"})
	copied := h.install(t, "acme/copy", "1.0.0", map[string]string{"b": "b"})
	if err := bus.Publish(events.New(events.OpInstall, links), events.New(events.OpInstall, copied)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !failed["acme/links"] || failed["acme/copy"] {
		t.Errorf("failed = %v, want only acme/links", failed)
	}
	if got := h.read(t, "web/copy/b"); got != "b" {
		t.Errorf("web/copy/b = %q", got)
	}
}
