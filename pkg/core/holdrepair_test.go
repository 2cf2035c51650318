package core

import (
	"testing"

	"github.com/vic/rsz/pkg/geom"
)

func TestRepairHoldViolationsRejectsNonBufferCell(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)
	if _, err := c.RepairHoldViolations(nil, td.and2, false); err == nil {
		t.Fatal("expected a configuration error with a non-buffer cell")
	}
}

// TestRepairHoldViolationsInsertsBuffersForFailingEndpoint builds a small
// two-stage chain (d1 -> g2) and drives it through RepairHoldViolationsAll.
// The endpoint is g2's input pin; TIMER.Fanins walks back to d1's output,
// and TIMER.Fanouts from there reaches g2's own output pin -- the "load"
// the hold pass measures and buffers, per the fake TIMER's documented
// Fanins/Fanouts contracts. The fake TIMER's slacks are fixed, so every
// pass finds the same failure and inserts again; the area budget (2 square
// microns of a 1e6 square-micron core) ends the loop after the first pass.
func TestRepairHoldViolationsInsertsBuffersForFailingEndpoint(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, func(o *Options) {
		o.MaxUtilization = 2e-6
	})

	d1 := td.nl.AddInstance("d1", td.and2, geom.Point{X: 100_000, Y: 100_000}, 1000, 1000)
	d1A := td.nl.AddNet("d1_a", false, false, false)
	d1B := td.nl.AddNet("d1_b", false, false, false)
	d1Out := td.nl.AddNet("d1_out", false, false, false)
	td.nl.ConnectPin(d1, "A", d1A)
	td.nl.ConnectPin(d1, "B", d1B)
	td.nl.ConnectPin(d1, "Z", d1Out)

	g2 := td.nl.AddInstance("g2", td.and2, geom.Point{X: 300_000, Y: 100_000}, 1000, 1000)
	g2B := td.nl.AddNet("g2_b", false, false, false)
	g2Out := td.nl.AddNet("g2_out", false, false, false)
	endpoint := td.nl.ConnectPin(g2, "A", d1Out)
	td.nl.ConnectPin(g2, "B", g2B)
	g2Z := td.nl.ConnectPin(g2, "Z", g2Out)

	// Negative hold slack at both the endpoint (to qualify as failing) and
	// g2's own output (the "load" the hold pass buffers), with a positive
	// setup slack so allowSetup=false's min(-holdSlack, setupSlack) still
	// resolves to the hold-driven delay.
	td.timer.SetSlacks(endpoint, -5e-11, 2e-10, -5e-11, 2e-10)
	td.timer.SetSlacks(g2Z, -5e-11, 2e-10, -5e-11, 2e-10)
	td.timer.SetEndpoints([]PinID{endpoint})

	before := c.GetStats().InsertedBufferCount
	stats, err := c.RepairHoldViolationsAll(td.buf1, false)
	if err != nil {
		t.Fatalf("RepairHoldViolationsAll: %v", err)
	}
	if stats.InsertedBufferCount <= before {
		t.Fatalf("expected at least one hold buffer inserted, got delta %d", stats.InsertedBufferCount-before)
	}
}

func TestRepairHoldViolationsNoFailuresIsNoop(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)
	td.addDriverWithFanout("g", geom.Point{X: 100_000, Y: 100_000}, 2)
	td.timer.SetEndpoints(nil)

	stats, err := c.RepairHoldViolationsAll(td.buf1, false)
	if err != nil {
		t.Fatalf("RepairHoldViolationsAll: %v", err)
	}
	if stats.InsertedBufferCount != 0 {
		t.Fatalf("expected no buffers inserted with no endpoints, got %d", stats.InsertedBufferCount)
	}
}
