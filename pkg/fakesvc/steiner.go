package fakesvc

import (
	"fmt"

	"github.com/vic/rsz/pkg/core"
	"github.com/vic/rsz/pkg/geom"
)

// Steiner is the fake STEINER implementation. It never computes an
// actual Steiner-minimal tree: every net is built as a "chain-star" --
// a binary chain of zero-length bend points co-located with the driver,
// each contributing one real Manhattan-distance branch out to a single
// load pin. The result satisfies SteinerTree's binary Left/Right model
// and gives every load its own direct branch, which is all the net
// repair walker's tests need.
type Steiner struct {
	nl *Netlist
}

// NewSteiner constructs a fake Steiner bound to nl.
func NewSteiner(nl *Netlist) *Steiner {
	return &Steiner{nl: nl}
}

type steinerPt struct {
	loc        geom.Point
	pin        core.PinID
	hasPin     bool
	left, right core.SteinerPtID
}

// Tree is the fake SteinerTree: a flat slice of points, indexed by
// SteinerPtID, built once by MakeSteinerTree and never mutated after.
type Tree struct {
	pts      []steinerPt
	branches []core.SteinerBranch
	driver   core.SteinerPtID
}

func (t *Tree) NumBranches() int                   { return len(t.branches) }
func (t *Tree) Branch(i int) core.SteinerBranch     { return t.branches[i] }
func (t *Tree) Location(pt core.SteinerPtID) geom.Point { return t.pts[pt].loc }
func (t *Tree) DriverPt() core.SteinerPtID          { return t.driver }

func (t *Tree) Left(pt core.SteinerPtID) core.SteinerPtID {
	if pt == core.NullSteinerPt {
		return core.NullSteinerPt
	}
	return t.pts[pt].left
}

func (t *Tree) Right(pt core.SteinerPtID) core.SteinerPtID {
	if pt == core.NullSteinerPt {
		return core.NullSteinerPt
	}
	return t.pts[pt].right
}

func (t *Tree) Pin(pt core.SteinerPtID) (core.PinID, bool) {
	p := t.pts[pt]
	return p.pin, p.hasPin
}

func (t *Tree) SteinerPtOf(pin core.PinID) (core.SteinerPtID, bool) {
	for i, p := range t.pts {
		if p.hasPin && p.pin == pin {
			return core.SteinerPtID(i), true
		}
	}
	return core.NullSteinerPt, false
}

func manhattan(a, b geom.Point) int64 {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// MakeSteinerTree builds a chain-star tree for net: point 0 is the root at
// the driver's location, each load pin is a leaf hung as the left child of
// a chain point, and consecutive chain points are joined by zero-length
// bend points at the driver location.
// When includeDriverLoad is true and the net's driver is itself a load
// (a top-level output port wired straight through), the driver pin is
// appended as one more leaf after the other loads.
func (s *Steiner) MakeSteinerTree(net core.NetID, includeDriverLoad bool) (core.SteinerTree, error) {
	drivers := s.nl.Drivers(net)
	if len(drivers) == 0 {
		return nil, fmt.Errorf("makeSteinerTree: net %s has no driver", s.nl.NetName(net))
	}
	driverPin := drivers[0]
	driverLoc := s.nl.PinLocation(driverPin)

	var loads []core.PinID
	for _, p := range s.nl.NetPins(net) {
		if p == driverPin {
			continue
		}
		if s.nl.IsLoad(p) {
			loads = append(loads, p)
		}
	}
	if includeDriverLoad && s.nl.IsLoad(driverPin) {
		loads = append(loads, driverPin)
	}

	t := &Tree{}

	root := core.SteinerPtID(len(t.pts))
	t.pts = append(t.pts, steinerPt{loc: driverLoc, left: core.NullSteinerPt, right: core.NullSteinerPt})
	t.driver = root

	if len(loads) == 0 {
		// Driver with no loads: a single degenerate point, no branches.
		return t, nil
	}

	cur := root
	for i, load := range loads {
		loadLoc := s.nl.PinLocation(load)
		leaf := core.SteinerPtID(len(t.pts))
		t.pts = append(t.pts, steinerPt{loc: loadLoc, pin: load, hasPin: true, left: core.NullSteinerPt, right: core.NullSteinerPt})

		t.pts[cur].left = leaf
		t.branches = append(t.branches, core.SteinerBranch{
			P1: cur, P2: leaf,
			Pin1: driverPin, HasPin1: cur == root,
			Pin2: load, HasPin2: true,
			LengthDBU: manhattan(t.pts[cur].loc, loadLoc),
		})

		if i == len(loads)-1 {
			break
		}

		bend := core.SteinerPtID(len(t.pts))
		t.pts = append(t.pts, steinerPt{loc: t.pts[cur].loc, left: core.NullSteinerPt, right: core.NullSteinerPt})
		t.pts[cur].right = bend
		t.branches = append(t.branches, core.SteinerBranch{
			P1: cur, P2: bend,
			HasPin1: cur == root,
			Pin1:    driverPin,
			LengthDBU: 0,
		})
		cur = bend
	}

	return t, nil
}
