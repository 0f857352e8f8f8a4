package repository

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/bmatcuk/doublestar/v4"
)

// ResolveNames maps user-supplied names onto installed packages.
//
// Each name is tried, in order, as an exact package name, as a glob
// ("acme/*", "**/assets") which must match at least one package, and finally
// as a case-insensitive match on the full name or on the part after the
// vendor prefix. A name that matches several packages is ambiguous.
//
// The result keeps the order of names; a package matched twice appears once.
func ResolveNames(repo *Repository, names []string) ([]Package, error) {
	var resolved []Package
	seen := make(map[string]bool)

	add := func(pkgs ...Package) {
		for _, pkg := range pkgs {
			if seen[pkg.Name] {
				continue
			}
			seen[pkg.Name] = true
			resolved = append(resolved, pkg)
		}
	}

	for _, name := range names {
		pkgs, err := resolveName(repo, name)
		if err != nil {
			return nil, err
		}
		add(pkgs...)
	}

	return resolved, nil
}

func resolveName(repo *Repository, name string) ([]Package, error) {
	if pkg, ok := repo.Get(name); ok {
		return []Package{pkg}, nil
	}

	if isGlob(name) {
		var matches []Package
		for _, pkg := range repo.packages {
			if ok, _ := doublestar.Match(name, pkg.Name); ok {
				matches = append(matches, pkg)
			}
		}
		if len(matches) == 0 {
			return nil, &NotFoundError{Name: name}
		}
		return matches, nil
	}

	lower := strings.ToLower(name)
	var candidates []Package
	for _, pkg := range repo.packages {
		full := strings.ToLower(pkg.Name)
		if full == lower || shortName(full) == lower {
			candidates = append(candidates, pkg)
		}
	}

	switch len(candidates) {
	case 1:
		return candidates, nil
	case 0:
		return nil, &NotFoundError{Name: name, Suggestion: suggest(repo, name)}
	default:
		names := make([]string, len(candidates))
		for i, pkg := range candidates {
			names[i] = pkg.Name
		}
		sort.Strings(names)
		return nil, &AmbiguousNameError{Name: name, Candidates: names}
	}
}

func isGlob(name string) bool {
	return strings.ContainsAny(name, "*?[{")
}

func shortName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// suggest returns the closest installed name, if it is close enough to be a
// plausible typo.
func suggest(repo *Repository, name string) string {
	best := ""
	bestDist := -1
	lower := strings.ToLower(name)
	for _, pkg := range repo.packages {
		dist := levenshtein.ComputeDistance(lower, strings.ToLower(pkg.Name))
		if bestDist < 0 || dist < bestDist {
			best, bestDist = pkg.Name, dist
		}
	}

	maxDist := len(name) / 3
	if maxDist < 2 {
		maxDist = 2
	}
	if bestDist < 0 || bestDist > maxDist {
		return ""
	}
	return best
}
