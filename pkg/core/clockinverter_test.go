package core

import (
	"testing"

	"github.com/vic/rsz/pkg/geom"
)

func TestRepairClkInvertersDeSharesSharedInverter(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)

	clkRoot := td.nl.AddInstance("clkroot", td.tie0, geom.Point{X: 10_000, Y: 10_000}, 500, 500)
	clkNet := td.nl.AddNet("clk_root", false, false, false)
	clkRootOut := td.nl.ConnectPin(clkRoot, "Z", clkNet)

	invInst := td.nl.AddInstance("invclk", td.inv1, geom.Point{X: 100_000, Y: 10_000}, 500, 500)
	td.nl.ConnectPin(invInst, "A", clkNet)
	invOutNet := td.nl.AddNet("inv_out", false, false, false)
	invOut := td.nl.ConnectPin(invInst, "Z", invOutNet)

	reg1 := td.nl.AddInstance("reg1", td.and2, geom.Point{X: 200_000, Y: 0}, 500, 500)
	reg1Clk := td.nl.ConnectPin(reg1, "A", invOutNet)
	reg1B := td.nl.AddNet("reg1_b", false, false, false)
	td.nl.ConnectPin(reg1, "B", reg1B)

	reg2 := td.nl.AddInstance("reg2", td.and2, geom.Point{X: 200_000, Y: 50_000}, 500, 500)
	reg2Clk := td.nl.ConnectPin(reg2, "A", invOutNet)
	reg2B := td.nl.AddNet("reg2_b", false, false, false)
	td.nl.ConnectPin(reg2, "B", reg2B)

	td.timer.SetClockLeafDrivers([]PinID{clkRootOut})
	td.timer.MarkRegisterClockPin(reg1Clk)
	td.timer.MarkRegisterClockPin(reg2Clk)
	_ = invOut

	if _, err := c.RepairClkInverters(); err != nil {
		t.Fatalf("RepairClkInverters: %v", err)
	}

	if _, ok := td.nl.FindInstance("invclk"); ok {
		t.Fatal("shared inverter instance should have been deleted")
	}
	if _, ok := td.nl.FindNet("inv_out"); ok {
		t.Fatal("shared inverter's output net should have been deleted")
	}

	net1, ok1 := td.nl.PinNet(reg1Clk)
	net2, ok2 := td.nl.PinNet(reg2Clk)
	if !ok1 || !ok2 {
		t.Fatal("register clock pins lost their net")
	}
	if net1 == net2 {
		t.Fatal("register clock pins should each have their own cloned inverter net")
	}
}

func TestRepairClkInvertersNoInvertersIsNoop(t *testing.T) {
	td := newTestDesign()
	c := td.newCore(t, nil)
	td.addDriverWithFanout("g", geom.Point{X: 100_000, Y: 100_000}, 2)
	td.timer.SetClockLeafDrivers(nil)

	before := len(td.nl.AllInstances())
	if _, err := c.RepairClkInverters(); err != nil {
		t.Fatalf("RepairClkInverters: %v", err)
	}
	if after := len(td.nl.AllInstances()); after != before {
		t.Fatalf("instance count changed with no clock leaf drivers: before=%d after=%d", before, after)
	}
}
