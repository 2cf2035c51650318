package core

import "github.com/pkg/errors"

// Sentinel errors for the taxonomy in the design's error-handling section.
// Capacity-exceeded and missing-model are not Go errors: they are
// report-only paths: each pass logs a warning and stops early once
// areaExceeded reports the area budget reached.
var (
	// ErrConfiguration marks a missing-input failure: no core area block,
	// no active corner, no resize library, or a nil buffer cell. These
	// fail before any NETLIST/TIMER mutation happens.
	ErrConfiguration = errors.New("configuration error")

	// ErrInternal marks an invariant violation the CORE cannot recover
	// from (an unreachable accounting branch, a handle that resolved to
	// nothing NETLIST recognizes). Carries a short site tag via Wrapf.
	ErrInternal = errors.New("internal error")
)

// configErrorf wraps ErrConfiguration with call-site context.
func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

// internalErrorf wraps ErrInternal with a short site tag.
func internalErrorf(site, format string, args ...interface{}) error {
	return errors.Wrapf(ErrInternal, site+": "+format, args...)
}
