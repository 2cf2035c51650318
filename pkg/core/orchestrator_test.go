package core

import (
	"testing"

	"github.com/vic/rsz/pkg/geom"
)

func TestRemoveBuffersMergesNetsAcrossBuffer(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)

	driver := td.nl.AddInstance("drv", td.and2, geom.Point{X: 100_000, Y: 100_000}, 1000, 1000)
	dB := td.nl.AddNet("drv_b", false, false, false)
	dOut := td.nl.AddNet("drv_out", false, false, false)
	td.nl.ConnectPin(driver, "B", dB)
	td.nl.ConnectPin(driver, "Z", dOut)

	buf := td.nl.AddInstance("buf", td.buf1, geom.Point{X: 200_000, Y: 100_000}, 500, 500)
	bufOut := td.nl.AddNet("buf_out", false, false, false)
	inPort, outPort := td.nl.BufferPorts(td.buf1)
	td.nl.ConnectPin(buf, inPort, dOut)
	td.nl.ConnectPin(buf, outPort, bufOut)

	load := td.nl.AddInstance("load", td.and2, geom.Point{X: 300_000, Y: 100_000}, 1000, 1000)
	loadB := td.nl.AddNet("load_b", false, false, false)
	td.nl.ConnectPin(load, "A", bufOut)
	td.nl.ConnectPin(load, "B", loadB)

	before := len(td.nl.AllInstances())
	if _, err := c.RemoveBuffers(); err != nil {
		t.Fatalf("RemoveBuffers: %v", err)
	}
	if _, ok := td.nl.FindInstance("buf"); ok {
		t.Fatal("buffer instance should have been removed")
	}
	if got := len(td.nl.AllInstances()); got != before-1 {
		t.Fatalf("instance count = %d, want %d", got, before-1)
	}
	if _, ok := td.nl.FindNet("buf_out"); ok {
		t.Fatal("buffer's output net should have been merged away")
	}
}

func TestResizePreambleRejectsEmptyLibs(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)
	if err := c.ResizePreamble(nil); err == nil {
		t.Fatal("expected a configuration error with no libraries")
	}
}

func TestResizePreambleSetsLibs(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)
	if err := c.ResizePreamble([]LibID{td.lib}); err != nil {
		t.Fatalf("ResizePreamble: %v", err)
	}
	if len(c.libs) != 1 || c.libs[0] != td.lib {
		t.Fatalf("libs = %v, want [%v]", c.libs, td.lib)
	}
}

func TestReportLongWiresRanksByLengthAndTruncates(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)

	_, _ = td.addDriverWithFanout("near", geom.Point{X: 10_000, Y: 10_000}, 1)
	_, _ = td.addDriverWithFanout("far", geom.Point{X: 900_000, Y: 900_000}, 2)

	wires, err := c.ReportLongWires(1, 2)
	if err != nil {
		t.Fatalf("ReportLongWires: %v", err)
	}
	if len(wires) != 1 {
		t.Fatalf("len(wires) = %d, want 1", len(wires))
	}
	// near_out is 50um of wire; far_out has two loads, 50um + 100um.
	if wires[0].NetName != "far_out" {
		t.Fatalf("longest wire = %q, want %q", wires[0].NetName, "far_out")
	}
}

func TestFindFloatingNetsDetectsDriverlessNet(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)

	floatingNet := td.nl.AddNet("floating", false, false, false)
	inst := td.nl.AddInstance("g", td.and2, geom.Point{X: 50_000, Y: 50_000}, 1000, 1000)
	td.nl.ConnectPin(inst, "A", floatingNet)

	found := c.FindFloatingNets()
	ok := false
	for _, n := range found {
		if n == floatingNet {
			ok = true
		}
	}
	if !ok {
		t.Fatalf("expected net %v among floating nets, got %v", floatingNet, found)
	}
}

func TestFindMaxWireLengthShrinksWithHeavierWireCap(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, func(o *Options) {
		o.WireRC.Cap = 2e-16
	})
	c.SetLibs([]LibID{td.lib})
	c.buildTargetLoadMap()

	lenLight := c.FindMaxWireLength(td.buf1)

	heavy := td.newCore(t, func(o *Options) {
		o.WireRC.Cap = 2e-14
	})
	heavy.SetLibs([]LibID{td.lib})
	heavy.buildTargetLoadMap()
	lenHeavy := heavy.FindMaxWireLength(td.buf1)

	if !(lenHeavy < lenLight) {
		t.Fatalf("expected a heavier wire cap per meter to shrink the max length: light=%v heavy=%v", lenLight, lenHeavy)
	}
}

func TestFindMaxSlewWireLengthRespectsExplicitLimit(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)
	c.SetLibs([]LibID{td.lib})

	lenTight := c.FindMaxSlewWireLength(td.buf1, Rise, 1e-11)
	lenLoose := c.FindMaxSlewWireLength(td.buf1, Rise, 1e-8)
	if !(lenTight < lenLoose) {
		t.Fatalf("expected a tighter slew limit to shrink the max length: tight=%v loose=%v", lenTight, lenLoose)
	}
}
