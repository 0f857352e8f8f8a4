package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/pkglink/internal/config"
	"github.com/danieljhkim/pkglink/internal/engine"
	"github.com/danieljhkim/pkglink/internal/executor"
	"github.com/danieljhkim/pkglink/internal/fsops"
	"github.com/danieljhkim/pkglink/internal/hash"
	"github.com/danieljhkim/pkglink/internal/linkconfig"
	"github.com/danieljhkim/pkglink/internal/logging"
	"github.com/danieljhkim/pkglink/internal/pathres"
	"github.com/danieljhkim/pkglink/internal/repository"
)

// errReported marks a failure whose details have already been printed.
var errReported = errors.New(summaryFailure)

// globalOptions holds the root command's persistent flags.
type globalOptions struct {
	workingDir string
	manifest   string
	verbose    int
}

// environment is everything a command needs to act on a project.
type environment struct {
	paths    *config.Paths
	manifest *config.Manifest
	links    *linkconfig.Configuration
	repo     *repository.Repository
	resolver *pathres.Resolver
	engine   *engine.Engine
	afs      afero.Fs
}

// loadEnvironment reads the manifest, the link configuration and the
// installed registry for the project selected by opts.
func loadEnvironment(opts *globalOptions) (*environment, error) {
	paths, err := config.DefaultPaths(opts.workingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get project paths: %w", err)
	}

	resolver, err := pathres.NewWithRoot(paths.Root)
	if err != nil {
		return nil, err
	}

	manifest, err := config.LoadManifest(paths, opts.manifest)
	if err != nil {
		return nil, err
	}

	links, err := linkconfig.Parse(manifest.Section)
	if err != nil {
		return nil, err
	}

	afs := afero.NewOsFs()
	repo, err := repository.LoadInstalled(afs, paths.Registry, paths.VendorDir)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrRegistryNotFound):
		log := logger()
		log.Debug().Str("registry", paths.Registry).Msg("No installed packages")
		repo = repository.New()
	default:
		return nil, err
	}

	eng := engine.New(fsops.New(afs), hash.NewSHA256Hasher(afs), resolver, logging.For("engine"))
	eng.Protect(paths.VendorDir, paths.Manifest)

	return &environment{
		paths:    paths,
		manifest: manifest,
		links:    links,
		repo:     repo,
		resolver: resolver,
		engine:   eng,
		afs:      afs,
	}, nil
}

// executor creates a batch executor for this environment.
func (env *environment) executor(opts executor.Options) *executor.Executor {
	return executor.New(env.links, env.repo, env.engine, opts, logging.For("executor"))
}

// unlinkCandidates returns the installed packages followed by configured
// packages that are no longer installed, so leftovers of removed packages can
// still be unlinked by name.
func (env *environment) unlinkCandidates() *repository.Repository {
	pkgs := env.repo.Packages()
	for _, name := range env.links.Packages() {
		if _, ok := env.repo.Get(name); !ok {
			pkgs = append(pkgs, repository.Package{Name: name})
		}
	}
	return repository.New(pkgs...)
}

// logger returns the component logger for the cli.
func logger() zerolog.Logger {
	return logging.For("cli")
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML writes v as YAML.
func outputYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
