// Package harvest defines the common output model every collector feeds and
// the normalizer/writer that turns a run's results into one dated artifact.
package harvest

import "context"

// Unit is one discussion unit: the label a source's comments are filed
// under (a video title, a post title, or a synthetic label) plus the
// comment texts collected for it.
type Unit struct {
	Label    string
	Comments []string
}

// Result accumulates discussion units in discovery order. Labels are unique
// within one run; adding to a known label appends to its comments.
type Result struct {
	units []Unit
	index map[string]int
}

// NewResult returns an empty Result.
func NewResult() *Result {
	return &Result{index: make(map[string]int)}
}

// Add files comments under label, creating the unit on first sight.
// Empty comment slices still create the unit so a zero-yield unit is
// visible to callers deciding whether to keep it.
func (r *Result) Add(label string, comments ...string) {
	i, ok := r.index[label]
	if !ok {
		i = len(r.units)
		r.units = append(r.units, Unit{Label: label})
		r.index[label] = i
	}
	r.units[i].Comments = append(r.units[i].Comments, comments...)
}

// Units returns the discussion units in discovery order.
func (r *Result) Units() []Unit {
	return r.units
}

// TotalComments is the flattened comment count across all units.
func (r *Result) TotalComments() int {
	total := 0
	for _, u := range r.units {
		total += len(u.Comments)
	}
	return total
}

// UnitCount is the number of discussion units.
func (r *Result) UnitCount() int {
	return len(r.units)
}

// Collector is the contract every source implements: produce titled comment
// groups for one free-text movie title query.
type Collector interface {
	Source() string
	Collect(ctx context.Context, query string) (*Result, error)
}
