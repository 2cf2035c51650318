package core

import (
	"testing"

	"github.com/vic/rsz/pkg/geom"
)

func TestEstimateWireParasiticsAddsWireCapOnLongNet(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)

	_, outPin := td.addDriverWithFanout("g", geom.Point{X: 100_000, Y: 100_000}, 2)

	corner, _ := td.timer.ResolveCorner("typical")
	before := td.timer.LoadCap(outPin, corner)

	if err := c.EstimateWireParasitics(); err != nil {
		t.Fatalf("EstimateWireParasitics: %v", err)
	}

	after := td.timer.LoadCap(outPin, corner)
	if !(after > before) {
		t.Fatalf("expected wire parasitic capacitance to add load: before=%v after=%v", before, after)
	}
}

func TestEnsureWireParasiticIsIdempotent(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)
	net, outPin := td.addDriverWithFanout("g", geom.Point{X: 100_000, Y: 100_000}, 2)

	if err := c.ensureWireParasitic(outPin); err != nil {
		t.Fatalf("ensureWireParasitic: %v", err)
	}
	if !td.timer.HasParasitic(net) {
		t.Fatal("expected a cached parasitic after ensureWireParasitic")
	}

	corner, _ := td.timer.ResolveCorner("typical")
	capAfterFirst := td.timer.LoadCap(outPin, corner)

	if err := c.ensureWireParasitic(outPin); err != nil {
		t.Fatalf("ensureWireParasitic (second call): %v", err)
	}
	capAfterSecond := td.timer.LoadCap(outPin, corner)

	if capAfterFirst != capAfterSecond {
		t.Fatalf("ensureWireParasitic should be a no-op once cached: first=%v second=%v", capAfterFirst, capAfterSecond)
	}
}

func TestEstimateOneNetSkipsTopLevelPortNet(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)

	inNet := td.nl.AddNet("port_net", false, false, false)
	td.nl.AddTopPort("A", DirInput, inNet)
	gate := td.nl.AddInstance("g", td.and2, geom.Point{X: 500_000, Y: 500_000}, 1000, 1000)
	td.nl.ConnectPin(gate, "A", inNet)

	if err := c.estimateOneNet(inNet); err != nil {
		t.Fatalf("estimateOneNet: %v", err)
	}
	if td.timer.HasParasitic(inNet) {
		t.Fatal("a net touching a top-level port should not get a wire parasitic model")
	}
}

func TestReduceToPiElmoreZeroCapNetwork(t *testing.T) {
	p := newParasiticNetwork()
	p.node("driver")
	got := reduceToPiElmore(p, "driver")
	if got.TotalCap != 0 || got.TotalRes != 0 {
		t.Fatalf("reduceToPiElmore on a capless network = %+v, want zero value", got)
	}
}

func TestReduceToPiElmoreSingleSegment(t *testing.T) {
	p := newParasiticNetwork()
	p.addCap("driver", 1e-15)
	p.addCap("load", 2e-15)
	p.addResistor("driver", "load", 1000.0)

	got := reduceToPiElmore(p, "driver")
	// Summed as float64 at run time, as the reduction does (3e-15 plus one ulp).
	driverCap, loadCap := 1e-15, 2e-15
	wantCap := driverCap + loadCap
	if got.TotalCap != wantCap {
		t.Fatalf("TotalCap = %v, want %v", got.TotalCap, wantCap)
	}
	// Elmore delay at the driver is R_shared(driver, load) * C_load = 1000 * 2e-15,
	// the driver's own capacitance contributes nothing (zero shared resistance).
	wantRes := (1000.0 * 2e-15) / wantCap
	if got.TotalRes != wantRes {
		t.Fatalf("TotalRes = %v, want %v", got.TotalRes, wantRes)
	}
}
