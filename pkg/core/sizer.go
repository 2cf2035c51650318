package core

import "fmt"

// bufferDelay is the average rise/fall intrinsic delay of a buffer or
// inverter cell driving load, evaluated at the target slews -- the tie
// break the sizer uses to avoid swapping in a "delay buffer" (a
// functionally-equivalent cell with extra intrinsic delay) purely to chase
// a marginally better load match.
func (c *Core) bufferDelay(cell CellID, load float64) float64 {
	dRise, _ := c.timer.GateDelay(cell, Rise, c.targetSlewRise, load)
	dFall, _ := c.timer.GateDelay(cell, Fall, c.targetSlewFall, load)
	return (dRise + dFall) / 2
}

func ratioOf(target, load float64) float64 {
	if target <= 0 && load <= 0 {
		return 1
	}
	lo, hi := target, load
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi <= 0 {
		return 0
	}
	return lo / hi
}

func netHasFanout(nl Netlist, net NetID) bool {
	for _, pin := range nl.NetPins(net) {
		if nl.IsLoad(pin) {
			return true
		}
	}
	return false
}

func instanceOutputPinCount(nl Netlist, inst InstID) int {
	count := 0
	for _, pin := range nl.InstancePins(inst) {
		if nl.PinDirection(pin) == DirOutput {
			count++
		}
	}
	return count
}

// selectBestCell runs the tie-break policy in 4.5 of the design across
// every non-don't-use equivalent of cell, given the observed load_cap.
// upsizeOnly enforces the multi-output discipline (second+ output pin of
// an already-visited instance only accepts a strictly larger target
// load).
func (c *Core) selectBestCell(cell CellID, loadCap float64, upsizeOnly bool) CellID {
	isBufInv := c.nl.IsBuffer(cell) || c.nl.IsInverter(cell)

	best := cell
	bestTarget := c.targetLoad[cell]
	bestRatio := ratioOf(bestTarget, loadCap)
	bestDelay := 0.0
	if isBufInv {
		bestDelay = c.bufferDelay(cell, loadCap)
	}

	for _, e := range c.timer.EquivCells(cell) {
		if e == cell || c.dontUse[e] {
			continue
		}
		targetE := c.targetLoad[e]
		ratioE := ratioOf(targetE, loadCap)

		if upsizeOnly && targetE <= bestTarget {
			continue
		}

		if isBufInv {
			delayE := c.bufferDelay(e, loadCap)
			if (delayE < bestDelay && ratioE > 0.9*bestRatio) ||
				(ratioE > bestRatio && delayE < 1.1*bestDelay) {
				best, bestTarget, bestRatio, bestDelay = e, targetE, ratioE, delayE
			}
			continue
		}

		if ratioE > bestRatio {
			best, bestTarget, bestRatio = e, targetE, ratioE
		}
	}
	return best
}

// resizeInstance swaps inst's master to newCell if it differs from the
// current one, keeping design_area and the parasitic-invalidation
// invariant consistent with the swap.
func (c *Core) resizeInstance(inst InstID, newCell CellID) error {
	current := c.nl.InstanceCell(inst)
	if newCell == current {
		return nil
	}
	oldArea := c.nl.CellArea(current)
	if err := c.nl.ReplaceCell(inst, newCell); err != nil {
		return internalErrorf("resizeInstance", "replace cell on inst %d: %v", inst, err)
	}
	c.counters.DesignArea += c.nl.CellArea(newCell) - oldArea
	c.invalidateParasitics(inst)
	c.counters.ResizeCount++
	c.log.Debug("resize", "inst", c.nl.InstanceName(inst), "from", c.nl.CellName(current), "to", c.nl.CellName(newCell))
	return nil
}

// resizeOneDriver applies one driver-pin step of the sizer: skip guards,
// compute the observed load, pick the best equivalent cell, swap if it
// differs. An instance with no usable target-load entry is left as it is
// and nil is returned, mirroring the design's missing-model rule.
func (c *Core) resizeOneDriver(pin PinID) error {
	net, ok := c.nl.PinNet(pin)
	if !ok || !net.Valid() {
		return nil
	}
	if c.timer.IsConstant(pin) || c.nl.IsSpecial(net) || c.timer.IsClock(net) {
		return nil
	}
	if !netHasFanout(c.nl, net) {
		return nil
	}

	inst, ok := c.nl.PinInstance(pin)
	if !ok {
		return nil // top-level port driver: not a sizeable instance
	}

	if err := c.ensureWireParasitic(pin); err != nil {
		return err
	}
	loadCap := c.timer.LoadCap(pin, c.corner)
	if loadCap <= 0 {
		return nil
	}

	cell := c.nl.InstanceCell(inst)
	if _, ok := c.targetLoad[cell]; !ok {
		return nil // missing-model: silently skipped, never fatal
	}

	upsizeOnly := false
	if instanceOutputPinCount(c.nl, inst) > 1 {
		if c.resizedMultiOutput[inst] {
			upsizeOnly = true
		} else {
			c.resizedMultiOutput[inst] = true
		}
	}

	best := c.selectBestCell(cell, loadCap, upsizeOnly)
	return c.resizeInstance(inst, best)
}

// ResizeToTargetSlew is the `resize` entry point (C11/C5): rebuild the
// target-load model, then walk every driver in reverse level order,
// resizing each to the best-matching equivalent cell.
func (c *Core) ResizeToTargetSlew() (Stats, error) {
	if len(c.libs) == 0 {
		return Stats{}, configErrorf("no resize library registered; call SetLibs first")
	}
	c.log.Info("resize: start")
	c.timer.EnsureGraph()
	c.timer.DelaysInvalid()
	c.timer.ArrivalsInvalid()

	c.buildTargetLoadMap()
	c.resizedMultiOutput = make(map[InstID]bool)
	before := c.counters.ResizeCount

	for _, pin := range c.driversDescending() {
		if c.areaExceeded() {
			c.log.Warn("resize: max utilization reached")
			break
		}
		if err := c.resizeOneDriver(pin); err != nil {
			return Stats{}, err
		}
	}

	stats := c.GetStats()
	resized := stats.ResizeCount - before
	fmt.Printf("Resized %d instances.\n", resized)
	c.log.Info("resize: done", "resized", resized)
	return stats, nil
}
