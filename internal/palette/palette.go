// Package palette holds the phase color sets a roadmap can choose from.
package palette

import (
	"sort"

	"github.com/zulandar/roadmap/internal/config"
)

// DefaultID is the built-in color set, also used for unknown ids.
const DefaultID = 0

// DefaultName labels the built-in color set in selectors.
const DefaultName = "All Secondary Brand Colors (Default)"

var defaultColors = []string{"#4156A1", "#427E93", "#008473", "#6F7D1C", "#D14905"}

// Set is one named list of phase colors.
type Set struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
}

// Registry is the built-in color set plus any configured extras.
type Registry struct {
	sets map[int]Set
}

// New returns a registry with the built-in set and extra. Extras never
// replace the built-in set.
func New(extra []config.ColorSetConfig) *Registry {
	r := &Registry{sets: map[int]Set{
		DefaultID: {ID: DefaultID, Name: DefaultName, Colors: defaultColors},
	}}
	for _, cs := range extra {
		if cs.ID == DefaultID || len(cs.Colors) == 0 {
			continue
		}
		r.sets[cs.ID] = Set{ID: cs.ID, Name: cs.Name, Colors: append([]string(nil), cs.Colors...)}
	}
	return r
}

// Lookup returns the colors of set id, or the built-in colors when id is
// unknown. The result is a copy.
func (r *Registry) Lookup(id int) []string {
	s, ok := r.sets[id]
	if !ok {
		s = r.sets[DefaultID]
	}
	return append([]string(nil), s.Colors...)
}

// Has reports whether id names a configured set.
func (r *Registry) Has(id int) bool {
	_, ok := r.sets[id]
	return ok
}

// Names returns every set ordered by id, for the color pattern selector.
func (r *Registry) Names() []Set {
	out := make([]Set, 0, len(r.sets))
	for _, s := range r.sets {
		out = append(out, Set{ID: s.ID, Name: s.Name, Colors: append([]string(nil), s.Colors...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
