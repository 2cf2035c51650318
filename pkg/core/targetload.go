package core

import "math"

const (
	bisectStartLoad = 1e-12  // 1 pF
	bisectMinStep    = 1e-16 // 0.1 fF
)

// computeTargetSlews drives every non-don't-use buffer in every resize
// library twice (zero input slew, then the resulting slew fed back in --
// one fixed-point iteration) against a 10x-input-cap load, and returns the
// mean rise/fall output slew weighted by arc count across every library.
func (c *Core) computeTargetSlews() (rise, fall float64) {
	var riseSum, fallSum float64
	var riseCount, fallCount int

	for _, lib := range c.libs {
		for _, cell := range c.nl.CellsInLib(lib) {
			if c.dontUse[cell] || !c.nl.IsBuffer(cell) {
				continue
			}
			inPort, _ := c.nl.BufferPorts(cell)
			load := 10 * c.nl.PortCap(cell, inPort)

			for _, arc := range c.nl.CellArcs(cell) {
				if arc.IsCheck || arc.IsTristate {
					continue
				}
				_, riseSlew1 := c.timer.GateDelay(cell, Rise, 0, load)
				_, riseSlew2 := c.timer.GateDelay(cell, Rise, riseSlew1, load)
				riseSum += riseSlew2
				riseCount++

				_, fallSlew1 := c.timer.GateDelay(cell, Fall, 0, load)
				_, fallSlew2 := c.timer.GateDelay(cell, Fall, fallSlew1, load)
				fallSum += fallSlew2
				fallCount++
			}
		}
	}

	if riseCount > 0 {
		rise = riseSum / float64(riseCount)
	}
	if fallCount > 0 {
		fall = fallSum / float64(fallCount)
	}
	return rise, fall
}

// bisectTargetLoad finds the load capacitance that drives cell's output to
// targetSlew on the given edge: starts at 1 pF, steps by 1 pF, halves the
// step on overshoot, and stops once the step drops below 0.1 fF or the
// measured slew stops changing between iterations.
func bisectTargetLoad(timer Timer, cell CellID, rf RiseFall, targetSlew float64) float64 {
	load := bisectStartLoad
	step := bisectStartLoad
	prevSlew := math.NaN()

	for step >= bisectMinStep {
		_, slew := timer.GateDelay(cell, rf, 0, load)
		if slew > targetSlew {
			load -= step
			if load < 0 {
				load = 0
			}
			step /= 2
			// The next probe re-measures the last good load; it must not
			// be mistaken for the slew having stopped changing.
			prevSlew = math.NaN()
			continue
		}
		if !math.IsNaN(prevSlew) && math.Abs(slew-prevSlew) <= 1e-15 {
			break
		}
		prevSlew = slew
		load += step
	}
	return load
}

// computeTargetLoad is the per-cell target load: the minimum, across
// output rise/fall directions, of the mean-over-arcs bisected load. Cells
// with no usable (non-check, non-tristate) arc get target_load = 0 -- the
// design's missing-model rule, silently skipped by the sizer rather than
// fatal.
func (c *Core) computeTargetLoad(cell CellID, targetRise, targetFall float64) float64 {
	var riseSum, fallSum float64
	var riseCount, fallCount int

	for _, arc := range c.nl.CellArcs(cell) {
		if arc.IsCheck || arc.IsTristate {
			continue
		}
		riseSum += bisectTargetLoad(c.timer, cell, Rise, targetRise)
		riseCount++
		fallSum += bisectTargetLoad(c.timer, cell, Fall, targetFall)
		fallCount++
	}

	if riseCount == 0 && fallCount == 0 {
		return 0
	}
	riseMean, fallMean := math.Inf(1), math.Inf(1)
	if riseCount > 0 {
		riseMean = riseSum / float64(riseCount)
	}
	if fallCount > 0 {
		fallMean = fallSum / float64(fallCount)
	}
	return math.Min(riseMean, fallMean)
}

// buildTargetLoadMap rebuilds TargetSlews and TargetLoadMap from scratch,
// as required at the start of every resize entry point. Every cell across
// every registered library gets an entry.
func (c *Core) buildTargetLoadMap() {
	c.targetSlewRise, c.targetSlewFall = c.computeTargetSlews()

	c.targetLoad = make(map[CellID]float64)
	for _, lib := range c.libs {
		for _, cell := range c.nl.CellsInLib(lib) {
			if _, done := c.targetLoad[cell]; done {
				continue
			}
			c.targetLoad[cell] = c.computeTargetLoad(cell, c.targetSlewRise, c.targetSlewFall)
		}
	}
}
