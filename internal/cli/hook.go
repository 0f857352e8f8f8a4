package cli

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/pkglink/internal/events"
	"github.com/danieljhkim/pkglink/internal/executor"
	"github.com/danieljhkim/pkglink/internal/logging"
)

func newHookCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Apply package lifecycle events read from stdin",
		Long: `Read package lifecycle events, one JSON object per line, from stdin and
link or unlink the affected packages. Install and update link, uninstall
unlinks. Packages without a mapping are ignored.

  {"operation": "install", "package": "acme/widgets"}

Failures are reported but the command always exits 0 so the package
manager's own run is never aborted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.runHook(cmd, strict)
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Stop a package at its first filesystem error")
	return cmd
}

func (a *app) runHook(cmd *cobra.Command, strict bool) {
	evs, err := events.Decode(cmd.InOrStdin())
	if err != nil {
		a.fail(err)
		return
	}
	if len(evs) == 0 {
		a.printer.Summary(false)
		return
	}

	env, err := loadEnvironment(&a.opts)
	if err != nil {
		a.fail(err)
		return
	}

	bus := events.NewBus(logging.For("events"))
	defer bus.Close()

	dispatcher := events.NewDispatcher(env.links, env.executor(executor.Options{Strict: strict}), logging.For("hook"))

	var mu sync.Mutex
	var failures []error
	handle := func(ctx context.Context, ev events.Event) error {
		err := dispatcher.Handle(ctx, ev)
		if err != nil {
			mu.Lock()
			failures = append(failures, err)
			mu.Unlock()
		}
		return err
	}

	if err := bus.Subscribe(cmd.Context(), handle); err != nil {
		a.fail(err)
		return
	}
	publishErr := bus.Publish(evs...)

	mu.Lock()
	defer mu.Unlock()
	for _, err := range failures {
		a.printer.Error(err)
	}
	if publishErr != nil {
		a.printer.Error(publishErr)
	}
	a.printer.Summary(len(failures) > 0 || publishErr != nil)
}
