package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/pkglink/internal/engine"
	"github.com/danieljhkim/pkglink/internal/linkdef"
	"github.com/danieljhkim/pkglink/internal/repository"
)

// packageStatus is the status of one configured package.
type packageStatus struct {
	Package   string               `json:"package" yaml:"package"`
	Version   string               `json:"version,omitempty" yaml:"version,omitempty"`
	Installed bool                 `json:"installed" yaml:"installed"`
	Dir       string               `json:"dir,omitempty" yaml:"dir,omitempty"`
	Mode      string               `json:"mode,omitempty" yaml:"mode,omitempty"`
	Entries   []engine.EntryStatus `json:"entries" yaml:"entries"`
	Error     string               `json:"error,omitempty" yaml:"error,omitempty"`
}

func newStatusCmd(a *app) *cobra.Command {
	var jsonOutput, yamlOutput bool

	cmd := &cobra.Command{
		Use:   "status [package...]",
		Short: "Show the state of linked files",
		Long: `Show, for every destination of the configured packages, whether it is
linked, copied, modified since it was copied, missing or replaced by
something else.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput && yamlOutput {
				return errors.New("--json and --yaml are mutually exclusive")
			}

			env, err := loadEnvironment(&a.opts)
			if err != nil {
				return a.fail(err)
			}

			candidates := env.unlinkCandidates()
			var pkgs []repository.Package
			if len(args) == 0 {
				for _, name := range env.links.Packages() {
					pkg, _ := candidates.Get(name)
					pkgs = append(pkgs, pkg)
				}
			} else {
				pkgs, err = repository.ResolveNames(candidates, args)
				if err != nil {
					return a.fail(err)
				}
			}

			statuses := make([]packageStatus, 0, len(pkgs))
			failed := false
			for _, pkg := range pkgs {
				st := env.packageStatus(pkg)
				if st.Error != "" {
					failed = true
				}
				statuses = append(statuses, st)
			}

			switch {
			case jsonOutput:
				if err := outputJSON(cmd.OutOrStdout(), statuses); err != nil {
					return err
				}
			case yamlOutput:
				if err := outputYAML(cmd.OutOrStdout(), statuses); err != nil {
					return err
				}
			default:
				a.printStatus(env, statuses)
			}

			if failed {
				return errReported
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&yamlOutput, "yaml", false, "Output in YAML format")
	return cmd
}

func (env *environment) packageStatus(pkg repository.Package) packageStatus {
	_, installed := env.repo.Get(pkg.Name)
	st := packageStatus{
		Package:   pkg.Name,
		Version:   pkg.Version,
		Installed: installed,
		Entries:   []engine.EntryStatus{},
	}

	cfg, err := env.links.Get(pkg.Name)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Dir = env.resolver.Display(env.resolver.ToAbsolute(cfg.Dir))

	def, err := linkdef.New(pkg, env.repo, cfg)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Mode = def.Mode()

	if !installed {
		return st
	}

	entries, err := env.engine.Status(def)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Entries = entries
	return st
}

func (a *app) printStatus(env *environment, statuses []packageStatus) {
	if len(statuses) == 0 {
		a.printer.EmptyState("No packages configured")
		return
	}

	for _, st := range statuses {
		a.printer.Section(st.Package)
		if st.Error != "" {
			a.printer.Error(errors.New(st.Error))
			continue
		}
		a.printer.LabelValue("Directory", st.Dir)
		a.printer.LabelValue("Mode", st.Mode)
		if !st.Installed {
			a.printer.LabelValue("Installed", "no")
			continue
		}
		if st.Version != "" {
			a.printer.LabelValue("Version", st.Version)
		}
		fmt.Fprintln(a.printer.out)

		rows := make([][]string, 0, len(st.Entries))
		for _, entry := range st.Entries {
			rows = append(rows, []string{entry.State, env.resolver.Display(entry.Dest), entry.Detail})
		}
		a.printer.Table([]string{"STATE", "DESTINATION", "DETAIL"}, rows)
	}
}
