package core

import (
	"os"

	"github.com/inconshreveable/log15"
)

// newLogger returns the structured logger an entry point uses for its
// start/per-edit/end events (see SPEC_FULL.md 4.13). Held on the Core
// value, never package-global, so two Core instances never interleave
// each other's log context.
func newLogger() log15.Logger {
	log := log15.New("pkg", "resizer")
	log.SetHandler(log15.LvlFilterHandler(log15.LvlDebug, log15.StreamHandler(os.Stderr, log15.LogfmtFormat())))
	return log
}
