package watch

import (
	"sort"

	"github.com/danieljhkim/pkglink/internal/events"
	"github.com/danieljhkim/pkglink/internal/repository"
)

// Diff compares two registry snapshots and returns the lifecycle events that
// turn from into to, sorted by package name. A nil snapshot is empty.
//
// Removed packages produce uninstall events carrying the old package, added
// packages produce install events and packages whose version or install path
// changed produce update events carrying the new package.
func Diff(from, to *repository.Repository) []events.Event {
	before := index(from)
	after := index(to)

	var out []events.Event
	for name, prev := range before {
		next, ok := after[name]
		switch {
		case !ok:
			out = append(out, events.New(events.OpUninstall, prev))
		case prev.Version != next.Version || prev.InstallPath != next.InstallPath:
			out = append(out, events.New(events.OpUpdate, next))
		}
	}
	for name, next := range after {
		if _, ok := before[name]; !ok {
			out = append(out, events.New(events.OpInstall, next))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Package.Name < out[j].Package.Name
	})
	return out
}

func index(repo *repository.Repository) map[string]repository.Package {
	if repo == nil {
		return nil
	}
	m := make(map[string]repository.Package, repo.Len())
	for _, pkg := range repo.Packages() {
		m[pkg.Name] = pkg
	}
	return m
}
