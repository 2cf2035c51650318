package core

import (
	"github.com/inconshreveable/log15"

	"github.com/vic/rsz/pkg/geom"
)

// driverEntry is one row of the level-ordered driver list (LevelDriverList
// in the design). Sorted ascending by (Level, PathName) so every ordered
// pass visits drivers in a lexicographically stable order.
type driverEntry struct {
	pin   PinID
	level int
	path  string
}

// Counters tracks the CORE's running totals across its lifetime, reset
// only where the design explicitly says so (TargetLoadMap/TargetSlews are
// per-resize-call; Counters are not).
type Counters struct {
	InsertedBufferCount int
	ResizeCount         int
	DesignArea          float64
	MaxArea             float64
}

// Core is the single owner of all CORE-owned state (design note: "global
// mutable state: avoid -- all counters, maps, and caches live on a single
// CORE value"). Every entry point is a method on *Core.
type Core struct {
	nl      Netlist
	timer   Timer
	steiner Steiner
	log     log15.Logger
	opts    Options

	wireRC WireRC
	corner Corner
	libs   []LibID

	// Target-Load Model (C4): rebuilt from scratch on each resize call.
	targetLoad     map[CellID]float64
	targetSlewRise float64
	targetSlewFall float64

	// LevelDriverList (C11/C5/C8 shared cache).
	levelDriverList []driverEntry
	levelListValid  bool

	dontUse map[CellID]bool

	// UniqueIndex (C2): two monotone counters.
	netUnique  uint64
	instUnique uint64

	counters Counters

	// ResizedMultiOutputSet: instances whose first output has already been
	// visited during the current resize pass.
	resizedMultiOutput map[InstID]bool

	haveEstimatedParasitics bool
}

// New constructs a Core bound to the given external services and
// configuration. Options are validated before any service is touched
// (missing-input failures never reach NETLIST/TIMER).
func New(nl Netlist, timer Timer, steiner Steiner, opts Options) (*Core, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if nl == nil || timer == nil || steiner == nil {
		return nil, configErrorf("netlist, timer and steiner services must be non-nil")
	}

	corner, ok := timer.ResolveCorner(opts.CornerName)
	if !ok {
		return nil, configErrorf("unknown corner %q", opts.CornerName)
	}

	c := &Core{
		nl:      nl,
		timer:   timer,
		steiner: steiner,
		log:     newLogger(),
		opts:    opts,
		wireRC:  opts.WireRC,
		corner:  corner,
		dontUse: map[CellID]bool{},

		resizedMultiOutput: map[InstID]bool{},
	}
	c.wireRC.Corner = corner

	coreRect := nl.GetCoreArea()
	dbuPerMicron := nl.GetDbUnitsPerMicron()
	coreAreaSqMicrons := rectAreaSqMicrons(coreRect, dbuPerMicron)

	c.counters.DesignArea = nl.DesignAreaSnapshot()
	c.counters.MaxArea = coreAreaSqMicrons * opts.MaxUtilization

	return c, nil
}

// rectAreaSqMicrons converts a DBU rectangle's area to square microns. A
// degenerate (zero-area) core returns 0 -- callers combine this with
// Utilization()'s own zero-area special case (design note: "degenerate
// geometry").
func rectAreaSqMicrons(r geom.Rect, dbuPerMicron geom.DbuPerMicron) float64 {
	if r.Empty() {
		return 0
	}
	wMicrons := dbuPerMicron.DbuToMeters(r.MaxX-r.MinX) * 1e6
	hMicrons := dbuPerMicron.DbuToMeters(r.MaxY-r.MinY) * 1e6
	return wMicrons * hMicrons
}

// SetLibs registers the resize libraries used by resizePreamble / the
// sizer's equivalent-cell search and by the tie/dont-use resolution.
func (c *Core) SetLibs(libs []LibID) {
	c.libs = libs
	c.dontUse = dontUseSet(c.nl, libs, c.opts.DontUse)
}

// Stats is the public, read-only snapshot of Counters plus the derived
// utilization ratio.
type Stats struct {
	InsertedBufferCount int
	ResizeCount         int
	DesignArea          float64
	MaxArea             float64
	Utilization         float64
}

// GetStats returns a snapshot of the CORE's running counters.
func (c *Core) GetStats() Stats {
	return Stats{
		InsertedBufferCount: c.counters.InsertedBufferCount,
		ResizeCount:         c.counters.ResizeCount,
		DesignArea:          c.counters.DesignArea,
		MaxArea:             c.counters.MaxArea,
		Utilization:         c.Utilization(),
	}
}

// Utilization returns DesignArea divided by the core area in square
// microns; a degenerate (zero-area) core returns 1.0 per the design's
// degenerate-geometry error-handling rule.
func (c *Core) Utilization() float64 {
	coreRect := c.nl.GetCoreArea()
	if coreRect.Empty() {
		return 1.0
	}
	areaSqMicrons := rectAreaSqMicrons(coreRect, c.nl.GetDbUnitsPerMicron())
	if areaSqMicrons <= 0 {
		return 1.0
	}
	return c.counters.DesignArea / areaSqMicrons
}

// areaExceeded reports the soft-abort condition: design_area >= max_area,
// fuzzy-greater-equal per the design's tolerance rule.
func (c *Core) areaExceeded() bool {
	return geom.FuzzyGreaterEqual(c.counters.DesignArea, c.counters.MaxArea, 1e-6)
}

// invalidateLevelList marks LevelDriverList invalid; called whenever an
// edit adds, removes, or re-masters an instance (invariant 2).
func (c *Core) invalidateLevelList() {
	c.levelListValid = false
}

// invalidateParasitics deletes the cached parasitic model of every net
// touching inst (invariant 3), called on every pin/master change.
func (c *Core) invalidateParasitics(inst InstID) {
	for _, pin := range c.nl.InstancePins(inst) {
		if net, ok := c.nl.PinNet(pin); ok {
			c.timer.DeleteParasitics(net)
		}
	}
}

// createInstance mints a placed instance, bumps design_area atomically
// with its creation (invariant 5), and invalidates the level list.
func (c *Core) createInstance(name string, cell CellID, at geom.Point) InstID {
	inst := c.nl.MakeInstance(name, cell)
	c.nl.SetLocation(inst, at)
	c.nl.SetPlaced(inst, true)
	c.counters.DesignArea += c.nl.CellArea(cell)
	c.invalidateLevelList()
	return inst
}

// deleteInstance removes inst and credits its area back out of design_area.
func (c *Core) deleteInstance(inst InstID) {
	cell := c.nl.InstanceCell(inst)
	c.nl.DeleteInstance(inst)
	c.counters.DesignArea -= c.nl.CellArea(cell)
	c.invalidateLevelList()
}
