// Package events carries package lifecycle notifications (install, update,
// uninstall) from the host package manager to the link executor.
//
// Events travel over a watermill channel that blocks each publish until the
// subscriber acknowledges it, so events are applied strictly one at a time in
// the order they were produced.
package events

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/tidwall/gjson"

	"github.com/danieljhkim/pkglink/internal/repository"
)

// Operation is the lifecycle step that produced an event.
type Operation string

const (
	OpInstall   Operation = "install"
	OpUpdate    Operation = "update"
	OpUninstall Operation = "uninstall"
)

// Valid reports whether op is a known lifecycle operation.
func (op Operation) Valid() bool {
	switch op {
	case OpInstall, OpUpdate, OpUninstall:
		return true
	}
	return false
}

// Event is a single lifecycle notification.
type Event struct {
	ID        string             `json:"id"`
	Operation Operation          `json:"operation"`
	Package   repository.Package `json:"package"`
}

// New creates an event with a fresh ID.
func New(op Operation, pkg repository.Package) Event {
	return Event{
		ID:        ulid.Make().String(),
		Operation: op,
		Package:   pkg,
	}
}

// DecodeError reports a malformed event line.
type DecodeError struct {
	Line   int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid event on line %d: %s", e.Line, e.Reason)
}

// Decode reads newline-delimited JSON events from r. Blank lines are
// ignored. The package may be given as a bare name or as an object with the
// registry fields:
//
//	{"operation": "install", "package": "acme/widgets"}
//	{"operation": "update", "package": {"name": "acme/widgets", "version": "2.0.0"}}
func Decode(r io.Reader) ([]Event, error) {
	var out []Event

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		ev, err := decodeLine(text)
		if err != nil {
			return nil, &DecodeError{Line: line, Reason: err.Error()}
		}
		out = append(out, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return out, nil
}

func decodeLine(text string) (Event, error) {
	if !gjson.Valid(text) {
		return Event{}, errors.New("not valid JSON")
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return Event{}, errors.New("expected an object")
	}

	op := Operation(strings.ToLower(root.Get("operation").String()))
	if !op.Valid() {
		return Event{}, fmt.Errorf("unknown operation %q", root.Get("operation").String())
	}

	var pkg repository.Package
	switch p := root.Get("package"); {
	case p.Type == gjson.String:
		pkg.Name = p.String()
	case p.IsObject():
		pkg = repository.Package{
			Name:        p.Get("name").String(),
			Version:     p.Get("version").String(),
			Type:        p.Get("type").String(),
			InstallPath: p.Get("install-path").String(),
		}
	default:
		return Event{}, errors.New(`"package" must be a name or an object`)
	}
	if strings.TrimSpace(pkg.Name) == "" {
		return Event{}, errors.New("package name is empty")
	}

	ev := New(op, pkg)
	if id := root.Get("id").String(); id != "" {
		ev.ID = id
	}
	return ev, nil
}
