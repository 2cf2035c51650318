// Command rsz demos the resizer CORE against the in-memory fake harness:
// it builds a small combinational design by hand, then drives it through
// the standard pass sequence (preamble, resize, port buffering, tie
// fanout repair, net repair, hold repair, clock-inverter cloning) and
// prints the resulting stats.
package main

import (
	"fmt"
	"os"

	"github.com/vic/rsz/pkg/core"
	"github.com/vic/rsz/pkg/fakesvc"
	"github.com/vic/rsz/pkg/geom"
)

func buildDesign() (*fakesvc.Netlist, *fakesvc.Timer, *fakesvc.Steiner, core.LibID) {
	coreRect := geom.Rect{MinX: 0, MinY: 0, MaxX: 200_000, MaxY: 200_000}
	nl := fakesvc.NewNetlist(coreRect, 1000)

	var lib core.LibID = 0

	buf1 := nl.AddBufferCell(lib, "BUF_X1", 1.0, 1e-15, 1e3, 20e-12, false)
	buf4 := nl.AddBufferCell(lib, "BUF_X4", 4.0, 4e-15, 250.0, 15e-12, false)
	inv1 := nl.AddBufferCell(lib, "INV_X1", 1.0, 1e-15, 1e3, 18e-12, true)
	and2 := nl.AddCell(lib, "AND2_X1", 1.5,
		map[string]float64{"A": 1e-15, "B": 1e-15},
		map[string]core.Direction{"A": core.DirInput, "B": core.DirInput, "Z": core.DirOutput},
		[]core.Arc{{FromPort: "A", ToPort: "Z"}, {FromPort: "B", ToPort: "Z"}})
	tie0 := nl.AddTieCell(lib, "TIELO_X1", 0.5)

	nl.SetDriveStrength(and2, 800.0, 25e-12)
	nl.SetDriveStrength(tie0, 600.0, 10e-12)

	top := nl.AddInstance("top", and2, geom.Point{}, 0, 0)
	nl.SetTopInstance(top)

	inA := nl.AddNet("inA", false, false, false)
	inB := nl.AddNet("inB", false, false, false)
	outZ := nl.AddNet("outZ", false, false, false)

	nl.AddTopPort("A", core.DirInput, inA)
	nl.AddTopPort("B", core.DirInput, inB)
	nl.AddTopPort("Z", core.DirOutput, outZ)

	gate := nl.AddInstance("g1", and2, geom.Point{X: 50_000, Y: 50_000}, 2000, 2000)
	nl.ConnectPin(gate, "A", inA)
	nl.ConnectPin(gate, "B", inB)
	nl.ConnectPin(gate, "Z", outZ)

	for i, loc := range []geom.Point{
		{X: 100_000, Y: 20_000},
		{X: 120_000, Y: 40_000},
		{X: 140_000, Y: 60_000},
		{X: 160_000, Y: 80_000},
	} {
		name := fmt.Sprintf("load%d", i)
		loadInst := nl.AddInstance(name, and2, loc, 2000, 2000)
		nl.ConnectPin(loadInst, "A", outZ)
		sink := nl.AddNet(name+"_sink", false, false, false)
		nl.ConnectPin(loadInst, "Z", sink)
	}

	timer := fakesvc.NewTimer(nl)
	timer.AddCorner("typical")

	_ = buf1
	_ = buf4
	_ = inv1

	steiner := fakesvc.NewSteiner(nl)
	return nl, timer, steiner, lib
}

func run() error {
	nl, timer, steiner, lib := buildDesign()

	opts := core.DefaultOptions()
	opts.CornerName = "typical"
	opts.MaxUtilization = 0.9
	opts.WireRC = core.WireRC{Res: 0.05, Cap: 2e-16, ClkRes: 0.05, ClkCap: 2e-16}
	opts.SeparationMeters = 1e-6
	opts.MaxWireLengthMeters = 5e-4

	c, err := core.New(nl, timer, steiner, opts)
	if err != nil {
		return fmt.Errorf("core.New: %w", err)
	}
	c.SetLibs([]core.LibID{lib})

	bufCell, ok := nl.FindCellByName(lib, "BUF_X1")
	if !ok {
		return fmt.Errorf("buffer cell not registered")
	}

	if err := c.ResizePreamble([]core.LibID{lib}); err != nil {
		return fmt.Errorf("resize preamble: %w", err)
	}
	if _, err := c.ResizeToTargetSlew(); err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	if _, err := c.BufferInputs(bufCell); err != nil {
		return fmt.Errorf("buffer inputs: %w", err)
	}
	if _, err := c.BufferOutputs(bufCell); err != nil {
		return fmt.Errorf("buffer outputs: %w", err)
	}
	if _, err := c.RepairTieFanout(opts.SeparationMeters); err != nil {
		return fmt.Errorf("repair tie fanout: %w", err)
	}
	if _, err := c.RepairDesign(opts.MaxWireLengthMeters, bufCell); err != nil {
		return fmt.Errorf("repair design: %w", err)
	}
	if _, err := c.RepairHoldViolationsAll(bufCell, opts.AllowSetupViolations); err != nil {
		return fmt.Errorf("repair hold violations: %w", err)
	}
	if _, err := c.RepairClkInverters(); err != nil {
		return fmt.Errorf("repair clock inverters: %w", err)
	}

	floating := c.FindFloatingNets()
	fmt.Printf("Final utilization: %.4f\n", c.Utilization())
	fmt.Printf("Remaining floating nets: %d\n", len(floating))
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
