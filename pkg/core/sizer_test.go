package core

import (
	"testing"

	"github.com/vic/rsz/pkg/geom"
)

func TestSelectBestCellUpsizesForHeavierLoad(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)
	td.timer.SetEquivCells(td.buf1, []CellID{td.buf1, td.buf4})
	c.buildTargetLoadMap()

	heavyLoad := 50 * td.nl.PortCap(td.buf1, "A")
	best := c.selectBestCell(td.buf1, heavyLoad, false)
	if best != td.buf4 {
		t.Fatalf("selectBestCell(heavy load) = %v, want the larger buffer %v", best, td.buf4)
	}
}

func TestSelectBestCellUpsizeOnlyRespectsFloor(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)
	td.timer.SetEquivCells(td.buf4, []CellID{td.buf1, td.buf4})
	c.buildTargetLoadMap()

	// td.buf4's own target load is the floor; with upsizeOnly set, a
	// smaller equivalent (buf1, whose target load is lower) must never
	// be selected even if its ratio looks better for a tiny load.
	tinyLoad := 0.1 * td.nl.PortCap(td.buf4, "A")
	best := c.selectBestCell(td.buf4, tinyLoad, true)
	if best == td.buf1 {
		t.Fatalf("selectBestCell(upsizeOnly) picked a smaller cell than the floor")
	}
}

func TestResizeToTargetSlewRequiresLibrary(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)
	c.libs = nil
	if _, err := c.ResizeToTargetSlew(); err == nil {
		t.Fatal("expected a configuration error with no resize library registered")
	}
}

func TestResizeToTargetSlewRunsOverDriverFanout(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)
	td.addDriverWithFanout("g", geom.Point{X: 100_000, Y: 100_000}, 3)

	if _, err := c.ResizeToTargetSlew(); err != nil {
		t.Fatalf("ResizeToTargetSlew: %v", err)
	}
	if c.targetLoad == nil {
		t.Fatal("expected buildTargetLoadMap to have populated targetLoad")
	}
}
