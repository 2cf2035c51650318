package core

import (
	"fmt"
	"math"
	"sort"
)

// RemoveBuffers deletes every buffer/inverter instance in the design,
// merging each one's input and output nets back into one so downstream
// passes start from an unbuffered netlist. Special and clock nets are
// left untouched (property 6/7).
func (c *Core) RemoveBuffers() (Stats, error) {
	var candidates []InstID
	for _, inst := range c.nl.AllInstances() {
		cell := c.nl.InstanceCell(inst)
		if c.nl.IsBuffer(cell) || c.nl.IsInverter(cell) {
			candidates = append(candidates, inst)
		}
	}

	removed := 0
	for _, inst := range candidates {
		ok, err := c.removeOneBuffer(inst)
		if err != nil {
			return Stats{}, err
		}
		if ok {
			removed++
		}
	}

	stats := c.GetStats()
	c.log.Info("remove_buffers: done", "removed", removed)
	return stats, nil
}

func (c *Core) removeOneBuffer(inst InstID) (bool, error) {
	var inPin, outPin PinID
	for _, pin := range c.nl.InstancePins(inst) {
		switch c.nl.PinDirection(pin) {
		case DirInput:
			inPin = pin
		case DirOutput:
			outPin = pin
		}
	}

	inNet, ok1 := c.nl.PinNet(inPin)
	outNet, ok2 := c.nl.PinNet(outPin)
	if !ok1 || !ok2 {
		return false, nil
	}
	if c.nl.IsSpecial(inNet) || c.nl.IsSpecial(outNet) {
		return false, nil
	}
	if c.timer.IsClock(inNet) || c.timer.IsClock(outNet) {
		return false, nil
	}

	for _, pin := range c.nl.NetPins(outNet) {
		if pin == outPin {
			continue
		}
		c.nl.Reconnect(pin, inNet)
	}
	c.nl.DeleteNet(outNet)
	c.timer.DeleteParasitics(inNet)
	c.deleteInstance(inst)
	return true, nil
}

// ResizePreamble is the one-time setup resizeToTargetSlew depends on:
// register the resize libraries and ask TIMER to build the equivalent-cell
// sets those libraries imply.
func (c *Core) ResizePreamble(libs []LibID) error {
	if len(libs) == 0 {
		return configErrorf("resizePreamble: no resize libraries given")
	}
	c.SetLibs(libs)
	c.timer.MakeEquivCells(libs)
	c.log.Info("resize_preamble: done", "libs", len(libs))
	return nil
}

// LongWire is one row of the ReportLongWires ranking.
type LongWire struct {
	NetName      string
	LengthMeters float64
}

// ReportLongWires ranks every driven non-power/ground/special net by its
// total Steiner wire length and returns the top n, formatted to digits
// decimal places in the log line emitted for each. Nets with no driver
// have no Steiner tree and are not ranked.
func (c *Core) ReportLongWires(n, digits int) ([]LongWire, error) {
	dbuPerMicron := c.nl.GetDbUnitsPerMicron()
	var wires []LongWire
	for _, net := range c.nl.AllNets() {
		if c.nl.IsPower(net) || c.nl.IsGround(net) || c.nl.IsSpecial(net) {
			continue
		}
		if len(c.nl.Drivers(net)) == 0 {
			continue
		}
		tree, err := c.steiner.MakeSteinerTree(net, true)
		if err != nil {
			return nil, internalErrorf("reportLongWires", "steiner tree for net %d: %v", net, err)
		}
		wires = append(wires, LongWire{
			NetName:      c.nl.NetName(net),
			LengthMeters: totalWireLengthMeters(tree, dbuPerMicron),
		})
	}

	sort.Slice(wires, func(i, j int) bool { return wires[i].LengthMeters > wires[j].LengthMeters })
	if n < len(wires) {
		wires = wires[:n]
	}

	format := fmt.Sprintf("%%.%df", digits)
	for _, w := range wires {
		c.log.Info("long_wire", "net", w.NetName, "length_m", fmt.Sprintf(format, w.LengthMeters))
	}
	return wires, nil
}

// FindFloatingNets returns every non-power/ground/special net with no
// driver or no load pin.
func (c *Core) FindFloatingNets() []NetID {
	var floating []NetID
	for _, net := range c.nl.AllNets() {
		if c.nl.IsPower(net) || c.nl.IsGround(net) || c.nl.IsSpecial(net) {
			continue
		}
		hasDriver := len(c.nl.Drivers(net)) > 0
		hasLoad := false
		for _, pin := range c.nl.NetPins(net) {
			if c.nl.IsLoad(pin) {
				hasLoad = true
				break
			}
		}
		if !hasDriver || !hasLoad {
			floating = append(floating, net)
		}
	}

	fmt.Printf("Found %d floating-net violations.\n", len(floating))
	c.log.Info("find_floating_nets: done", "count", len(floating))
	return floating
}

// bisectDoublingLength is the shared binary search findMaxWireLength and
// findMaxSlewWireLength both run: double the upper bound until violated
// flips true (the objective's sign flip), then binary search to 1%
// relative tolerance.
func bisectDoublingLength(violated func(lengthMeters float64) bool) float64 {
	const maxLengthMeters = 1e6 // 1000 km: far past any real design, a sane ceiling
	lo, hi := 0.0, 1e-6
	for !violated(hi) {
		lo = hi
		hi *= 2
		if hi > maxLengthMeters {
			return hi
		}
	}
	for (hi-lo)/hi > 0.01 {
		mid := (lo + hi) / 2
		if violated(mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// FindMaxWireLength binary-searches the longest 2-pin wire cell can drive
// before its rise or fall output slew, at zero input slew, exceeds the
// active target slew. Requires a prior resize pass (buildTargetLoadMap)
// to have populated TargetSlews.
func (c *Core) FindMaxWireLength(cell CellID) float64 {
	if c.wireRC.Cap <= 0 {
		return math.Inf(1)
	}
	violated := func(lengthMeters float64) bool {
		load := c.wireRC.Cap * lengthMeters
		_, riseSlew := c.timer.GateDelay(cell, Rise, 0, load)
		_, fallSlew := c.timer.GateDelay(cell, Fall, 0, load)
		return riseSlew > c.targetSlewRise || fallSlew > c.targetSlewFall
	}
	return bisectDoublingLength(violated)
}

// FindMaxSlewWireLength binary-searches the longest 2-pin wire cell can
// drive, on the given transition, before its output slew exceeds maxSlew.
func (c *Core) FindMaxSlewWireLength(cell CellID, rf RiseFall, maxSlew float64) float64 {
	if c.wireRC.Cap <= 0 {
		return math.Inf(1)
	}
	violated := func(lengthMeters float64) bool {
		load := c.wireRC.Cap * lengthMeters
		_, outSlew := c.timer.GateDelay(cell, rf, 0, load)
		return outSlew > maxSlew
	}
	return bisectDoublingLength(violated)
}
