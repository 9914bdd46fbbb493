// Package target maps target names to emission backends.
package target

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/extract/internal/emit"
	"github.com/roach88/extract/internal/ir"
	"github.com/roach88/extract/internal/pybe"
)

// Options are the cosmetic settings a backend accepts. Zero values select
// each backend's defaults.
type Options struct {
	IndentWidth int
	Imports     []string
}

// domainOptions prefixes options hashes.
const domainOptions = "extract/options/v1"

// Hash identifies the options in the session ledger: the same module
// rendered for the same target with equal option hashes must produce the
// same output. Nil and empty import lists hash equal.
func (o Options) Hash() (string, error) {
	imports := make([]any, len(o.Imports))
	for i, line := range o.Imports {
		imports[i] = line
	}
	canonical, err := ir.MarshalCanonical(map[string]any{
		"indent_width": json.Number(strconv.Itoa(o.IndentWidth)),
		"imports":      imports,
	})
	if err != nil {
		return "", fmt.Errorf("hash options: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(domainOptions))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Target describes one registered backend.
type Target struct {
	Name      string
	Aliases   []string
	Extension string
	// Summary is a one-line description shown by "extract targets".
	Summary string
	New     func(w io.Writer, opts Options) emit.Emitter
}

// ErrUnknownTarget is wrapped by Lookup when no target matches.
var ErrUnknownTarget = errors.New("unknown target")

var targets = []Target{
	{
		Name:      "python",
		Aliases:   []string{"py"},
		Extension: ".py",
		Summary:   "Python 3 source",
		New: func(w io.Writer, opts Options) emit.Emitter {
			return pybe.New(w, pybe.Options{
				IndentWidth: opts.IndentWidth,
				Imports:     opts.Imports,
			})
		},
	},
	{
		Name:      "trace",
		Extension: ".trace",
		Summary:   "protocol calls, one per line, indented by nesting",
		New: func(w io.Writer, _ Options) emit.Emitter {
			return emit.NewRecorder(w)
		},
	},
}

// Lookup returns the target registered under name or one of its aliases.
// Names are case-insensitive.
func Lookup(name string) (Target, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, t := range targets {
		if t.Name == key {
			return t, nil
		}
		for _, a := range t.Aliases {
			if a == key {
				return t, nil
			}
		}
	}
	return Target{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownTarget, name, strings.Join(Names(), ", "))
}

// All returns every registered target sorted by name.
func All() []Target {
	out := make([]Target, len(targets))
	copy(out, targets)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the primary names of all targets, sorted.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.Name
	}
	return names
}
