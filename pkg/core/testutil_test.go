package core

import (
	"fmt"
	"testing"

	"github.com/vic/rsz/pkg/fakesvc"
	"github.com/vic/rsz/pkg/geom"
)

// testDesign bundles the fake services and the library/cell handles every
// component test builds against: a small and a large buffer, one inverter, one tie
// cell, and a 2-input AND gate, wired into a standard core rectangle.
type testDesign struct {
	nl      *fakesvc.Netlist
	timer   *fakesvc.Timer
	steiner *fakesvc.Steiner
	lib     LibID

	and2, buf1, buf4, inv1, tie0 CellID
}

func newTestDesign() *testDesign {
	coreRect := geom.Rect{MinX: 0, MinY: 0, MaxX: 1_000_000, MaxY: 1_000_000}
	nl := fakesvc.NewNetlist(coreRect, 1000)

	var lib LibID = 0
	td := &testDesign{nl: nl, lib: lib}

	td.buf1 = nl.AddBufferCell(lib, "BUF_X1", 1.0, 1e-15, 1e3, 20e-12, false)
	td.buf4 = nl.AddBufferCell(lib, "BUF_X4", 4.0, 4e-15, 250.0, 15e-12, false)
	td.inv1 = nl.AddBufferCell(lib, "INV_X1", 1.0, 1e-15, 1e3, 18e-12, true)
	td.tie0 = nl.AddTieCell(lib, "TIELO_X1", 0.5)
	nl.SetDriveStrength(td.tie0, 600.0, 10e-12)

	td.and2 = nl.AddCell(lib, "AND2_X1", 1.5,
		map[string]float64{"A": 1e-15, "B": 1e-15},
		map[string]Direction{"A": DirInput, "B": DirInput, "Z": DirOutput},
		[]Arc{{FromPort: "A", ToPort: "Z"}, {FromPort: "B", ToPort: "Z"}})
	nl.SetDriveStrength(td.and2, 800.0, 25e-12)

	td.timer = fakesvc.NewTimer(nl)
	td.timer.AddCorner("typical")
	td.steiner = fakesvc.NewSteiner(nl)
	return td
}

// newCore constructs a Core bound to td with the given option tweaks
// applied on top of a sane default (typical corner, unconstrained area,
// a small nonzero wire RC so parasitic estimation has something to do).
func (td *testDesign) newCore(t *testing.T, tweak func(*Options)) *Core {
	t.Helper()
	opts := DefaultOptions()
	opts.CornerName = "typical"
	opts.MaxUtilization = 1.0
	opts.WireRC = WireRC{Res: 0.05, Cap: 2e-16, ClkRes: 0.05, ClkCap: 2e-16}
	opts.SeparationMeters = 1e-6
	opts.MaxWireLengthMeters = 5e-4
	if tweak != nil {
		tweak(&opts)
	}

	c, err := New(td.nl, td.timer, td.steiner, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.SetLibs([]LibID{td.lib})
	return c
}

// addDriverWithFanout builds one AND2 instance driving n AND2 loads over a
// fresh net, returning the driver's output net and pin.
func (td *testDesign) addDriverWithFanout(name string, at geom.Point, n int) (NetID, PinID) {
	drvInst := td.nl.AddInstance(name, td.and2, at, 1000, 1000)
	a := td.nl.AddNet(name+"_a", false, false, false)
	b := td.nl.AddNet(name+"_b", false, false, false)
	out := td.nl.AddNet(name+"_out", false, false, false)
	td.nl.ConnectPin(drvInst, "A", a)
	td.nl.ConnectPin(drvInst, "B", b)
	outPin := td.nl.ConnectPin(drvInst, "Z", out)

	for i := 0; i < n; i++ {
		loadInst := td.nl.AddInstance(fmt.Sprintf("%s_load%d", name, i), td.and2, geom.Point{X: at.X + int64(i+1)*50_000, Y: at.Y}, 1000, 1000)
		td.nl.ConnectPin(loadInst, "A", out)
		sink := td.nl.AddNet(fmt.Sprintf("%s_load%d_sink", name, i), false, false, false)
		td.nl.ConnectPin(loadInst, "B", sink)
	}
	return out, outPin
}
