package core

import (
	"fmt"
	"testing"

	"github.com/vic/rsz/pkg/geom"
)

func TestTieLocationPicksStrictlyClosestSide(t *testing.T) {
	bbox := geom.Rect{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000}
	coreRect := geom.Rect{MinX: -1_000_000, MinY: -1_000_000, MaxX: 1_000_000, MaxY: 1_000_000}

	// A load far to the right of the box should land on the right side.
	load := geom.Point{X: 10_000, Y: 500}
	got := tieLocation(load, bbox, 10, coreRect)
	want := geom.Point{X: 1010, Y: 500}
	if got != want {
		t.Fatalf("tieLocation = %+v, want %+v", got, want)
	}
}

func TestTieLocationClampsToCoreRect(t *testing.T) {
	bbox := geom.Rect{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000}
	coreRect := geom.Rect{MinX: 0, MinY: 0, MaxX: 1005, MaxY: 1005}
	load := geom.Point{X: 10_000, Y: 500}

	got := tieLocation(load, bbox, 10, coreRect)
	if got.X > coreRect.MaxX {
		t.Fatalf("tieLocation.X = %d, exceeds core rect max %d", got.X, coreRect.MaxX)
	}
}

func TestRepairTieFanoutSplitsSharedTieAcrossLoads(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)

	tieNet := td.nl.AddNet("tie_net", false, false, false)
	tieInst := td.nl.AddInstance("tie0", td.tie0, geom.Point{X: 500_000, Y: 500_000}, 500, 500)
	td.nl.ConnectPin(tieInst, "Z", tieNet)

	var loadAPins []PinID
	for i := 0; i < 3; i++ {
		loadInst := td.nl.AddInstance(fmt.Sprintf("load%d", i), td.and2, geom.Point{X: int64(600_000 + i*10_000), Y: 500_000}, 1000, 1000)
		pin := td.nl.ConnectPin(loadInst, "A", tieNet)
		loadAPins = append(loadAPins, pin)
		bNet := td.nl.AddNet(fmt.Sprintf("b%d", i), false, false, false)
		td.nl.ConnectPin(loadInst, "B", bNet)
	}

	stats, err := c.RepairTieFanout(1e-6)
	if err != nil {
		t.Fatalf("RepairTieFanout: %v", err)
	}
	_ = stats

	seen := make(map[NetID]bool)
	for _, pin := range loadAPins {
		net, ok := td.nl.PinNet(pin)
		if !ok {
			t.Fatalf("load pin lost its net after tie-fanout repair")
		}
		if seen[net] {
			t.Fatalf("two loads still share net %v after tie-fanout repair", net)
		}
		seen[net] = true
	}

	if _, ok := td.nl.FindNet("tie_net"); ok {
		t.Fatal("original shared tie net should have been deleted")
	}
}
