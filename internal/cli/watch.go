package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/pkglink/internal/events"
	"github.com/danieljhkim/pkglink/internal/executor"
	"github.com/danieljhkim/pkglink/internal/logging"
	"github.com/danieljhkim/pkglink/internal/repository"
	"github.com/danieljhkim/pkglink/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Link and unlink packages as the installed registry changes",
		Long: `Watch the package manager's installed registry and apply every change:
new packages are linked, updated packages relinked and removed packages
unlinked. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(&a.opts)
			if err != nil {
				return a.fail(err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bus := events.NewBus(logging.For("events"))
			defer bus.Close()

			dispatcher := events.NewDispatcher(env.links, env.executor(executor.Options{Strict: strict}), logging.For("watch"))
			if err := bus.Subscribe(ctx, func(ctx context.Context, ev events.Event) error {
				err := dispatcher.Handle(ctx, ev)
				if err != nil {
					a.printer.Error(err)
				}
				return err
			}); err != nil {
				return a.fail(err)
			}

			load := func() (*repository.Repository, error) {
				return repository.LoadInstalled(env.afs, env.paths.Registry, env.paths.VendorDir)
			}
			w := watch.New(env.paths.Registry, load, bus, logging.For("watch"))

			a.printer.Info("Watching " + env.resolver.Display(env.paths.Registry) + " (Ctrl+C to stop)")
			if err := w.Run(ctx); err != nil {
				return a.fail(err)
			}
			a.printer.Summary(false)
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Stop a package at its first filesystem error")
	return cmd
}
