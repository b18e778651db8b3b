package analysis

import "fmt"

// Diagnostics accumulates analysis errors instead of halting at the first
// one (spec §4.4). Grounded on holocm-holo-build's ErrorCollector: a
// nil-safe, append-only list with an Addf convenience.
type Diagnostics struct {
	errs []error
}

// Add appends err if it is non-nil.
func (d *Diagnostics) Add(err error) {
	if err != nil {
		d.errs = append(d.errs, err)
	}
}

// Addf formats and appends an error.
func (d *Diagnostics) Addf(format string, args ...interface{}) {
	d.errs = append(d.errs, fmt.Errorf(format, args...))
}

// Errs returns the accumulated errors, or nil if none were recorded.
func (d *Diagnostics) Errs() []error {
	return d.errs
}

// HasErrors reports whether any diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool {
	return len(d.errs) > 0
}
