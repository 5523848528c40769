package runs

import "sort"

// StatusFilter tracks which run statuses the operator wants listed.
//
// The zero-ish state (and the state after clearing the last concrete
// selection) is "all": no status constraint is sent to the listing
// endpoint. The all state and concrete selections are mutually
// exclusive by construction; there is no sentinel value that can leak
// into the selected set.
type StatusFilter struct {
	all      bool
	selected map[Status]struct{}
}

// NewStatusFilter returns a filter in the all state.
func NewStatusFilter() *StatusFilter {
	return &StatusFilter{all: true, selected: make(map[Status]struct{})}
}

// SelectAll clears every concrete selection and restores the all state.
func (f *StatusFilter) SelectAll() {
	f.all = true
	for status := range f.selected {
		delete(f.selected, status)
	}
}

// Toggle flips membership of one concrete status. Selecting anything
// leaves the all state; deselecting the last concrete status returns
// to it.
func (f *StatusFilter) Toggle(status Status) {
	if f.all {
		f.all = false
		f.selected[status] = struct{}{}
		return
	}
	if _, ok := f.selected[status]; ok {
		delete(f.selected, status)
		if len(f.selected) == 0 {
			f.all = true
		}
		return
	}
	f.selected[status] = struct{}{}
}

// All reports whether the filter places no status constraint.
func (f *StatusFilter) All() bool {
	return f.all
}

// Selected returns the concrete selections in a stable order. It is
// empty in the all state.
func (f *StatusFilter) Selected() []Status {
	if f.all {
		return nil
	}
	out := make([]Status, 0, len(f.selected))
	for status := range f.selected {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Params returns the repeated state query parameter values for the
// listing endpoint; empty means unfiltered.
func (f *StatusFilter) Params() []string {
	selected := f.Selected()
	if len(selected) == 0 {
		return nil
	}
	params := make([]string, len(selected))
	for i, status := range selected {
		params[i] = string(status)
	}
	return params
}
