package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the link configuration",
		Long: `Load the manifest and report invalid package mappings and packages whose
destination directories collide. Configured packages that are not installed
are reported as warnings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(&a.opts)
			if err != nil {
				return a.fail(err)
			}

			a.printer.LabelValue("Manifest", env.paths.Manifest)
			a.printer.LabelValue("Registry", env.paths.Registry)
			keys := make([]string, 0, len(env.manifest.Overrides))
			for key := range env.manifest.Overrides {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				a.printer.LabelValue("Override", fmt.Sprintf("%s=%t", key, env.manifest.Overrides[key]))
			}
			fmt.Fprintln(a.printer.out)

			for _, name := range env.links.Packages() {
				if _, ok := env.repo.Get(name); !ok {
					a.printer.Warning(fmt.Sprintf("%s is configured but not installed", name))
				}
			}

			errs := env.links.Validate()
			for _, err := range errs {
				a.printer.Error(err)
			}
			if len(errs) == 0 {
				a.printer.Success(fmt.Sprintf("%s configured", countNoun(len(env.links.Packages()), "package", "packages")))
			}

			a.printer.Summary(len(errs) > 0)
			if len(errs) > 0 {
				return errReported
			}
			return nil
		},
	}
}
