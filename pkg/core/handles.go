// Package core implements the resizer CORE: the fixed sequence of local
// netlist transformations (gate sizing, buffering, tie-fanout repair,
// Steiner-guided net repair, hold repair, clock-inverter cloning) described
// by the design. The CORE never owns the netlist, the timing graph, or
// Steiner trees -- it holds integer handles into those external services
// and asks the services to resolve them. See services.go.
package core

// CellID, InstID, NetID and PinID are opaque handles into the NETLIST
// service's arenas. The CORE never holds a pointer into NETLIST's storage,
// only these handles, per the "graph ownership" design note: edits are
// modify-in-arena, deletion tombstones an entry.
type (
	CellID int64
	InstID int64
	NetID  int64
	PinID  int64
	LibID  int64
)

// InvalidID is returned by lookups that fail; zero is a valid handle value
// for the fake harness (its arenas are 0-indexed), so handles use -1 as the
// not-found sentinel instead of the zero value.
const InvalidID = -1

// Valid reports whether a handle was resolved.
func (c CellID) Valid() bool { return c != InvalidID }
func (i InstID) Valid() bool { return i != InvalidID }
func (n NetID) Valid() bool  { return n != InvalidID }
func (p PinID) Valid() bool  { return p != InvalidID }
func (l LibID) Valid() bool  { return l != InvalidID }

// SteinerPtID is an opaque handle into a single Steiner tree's internal
// point numbering (driver, load-pin, and branch points all get one).
type SteinerPtID int64

// NullSteinerPt is the sentinel returned by Left/Right for an absent child,
// mirroring STEINER's null_pt.
const NullSteinerPt SteinerPtID = -1

// Direction is a pin's signal direction.
type Direction int

const (
	DirUnknown Direction = iota
	DirInput
	DirOutput
)

// MinMax selects which corner-relative extreme a timing query resolves to.
type MinMax int

const (
	Min MinMax = iota
	Max
)

// RiseFall selects a transition edge.
type RiseFall int

const (
	Rise RiseFall = iota
	Fall
)

// Corner is an opaque PVT/operating-condition selector. The CORE treats it
// as a label; only TIMER interprets it. Non-goal: no multi-corner
// optimization, so the CORE holds exactly one active corner at a time.
type Corner int64
