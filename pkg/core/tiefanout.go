package core

import "github.com/vic/rsz/pkg/geom"

// tieLocation picks the side of bbox strictly nearest loadPin, offset
// outward by separationDBU, and returns the load's own location if no
// side is strictly closest than every other. The result is then clamped
// into coreRect (a no-op if coreRect is empty).
func tieLocation(loadPin geom.Point, bbox geom.Rect, separationDBU int64, coreRect geom.Rect) geom.Point {
	midY := (bbox.MinY + bbox.MaxY) / 2
	midX := (bbox.MinX + bbox.MaxX) / 2

	candidates := [4]geom.Point{
		{X: bbox.MinX - separationDBU, Y: midY}, // left
		{X: bbox.MaxX + separationDBU, Y: midY}, // right
		{X: midX, Y: bbox.MinY - separationDBU}, // bottom
		{X: midX, Y: bbox.MaxY + separationDBU}, // top
	}

	var dists [4]int64
	for i, p := range candidates {
		dists[i] = geom.Manhattan(loadPin, p)
	}

	best := -1
	for i, d := range dists {
		strictlyClosest := true
		for j, other := range dists {
			if i == j {
				continue
			}
			if d >= other {
				strictlyClosest = false
				break
			}
		}
		if strictlyClosest {
			best = i
			break
		}
	}

	var chosen geom.Point
	if best < 0 {
		chosen = loadPin
	} else {
		chosen = candidates[best]
	}
	return geom.ClosestPointInRect(coreRect, chosen)
}

// repairTieFanoutOne splits every fanout of tieInst's output net so each
// load gets its own tie instance and net, then deletes the shared original.
// This is a single-tie-instance transform; RepairTieFanout calls it once
// per tie instance found in the design.
func (c *Core) repairTieFanoutOne(tieInst InstID, separationMeters float64) error {
	if !c.nl.IsFuncOneZero(c.nl.InstanceCell(tieInst)) {
		return configErrorf("repairTieFanout: instance %d is not a tie cell", tieInst)
	}

	var outPin PinID
	found := false
	for _, pin := range c.nl.InstancePins(tieInst) {
		if c.nl.PinDirection(pin) == DirOutput {
			outPin, found = pin, true
			break
		}
	}
	if !found {
		return internalErrorf("repairTieFanout", "tie instance %d has no output pin", tieInst)
	}
	net, ok := c.nl.PinNet(outPin)
	if !ok || !net.Valid() {
		return nil
	}

	dbuPerMicron := c.nl.GetDbUnitsPerMicron()
	separationDBU := dbuPerMicron.MetersToDbu(separationMeters)
	coreRect := c.nl.GetCoreArea()
	tieCell := c.nl.InstanceCell(tieInst)
	tieCellName := c.nl.CellName(tieCell)

	for _, load := range c.nl.NetPins(net) {
		if load == outPin {
			continue
		}
		loadInst, ok := c.nl.PinInstance(load)
		if !ok {
			continue
		}

		newNetName := c.makeUniqueNetName()
		newNet := c.nl.MakeNet(newNetName)

		bbox := c.nl.InstanceBBox(loadInst)
		at := tieLocation(c.nl.PinLocation(load), bbox, separationDBU, coreRect)

		instName := c.makeUniqueInstName(tieCellName, true)
		clone := c.createInstance(instName, tieCell, at)

		// The clone has no pins yet; it shares the original tie's master,
		// so the original's output port name is the clone's too.
		c.nl.ConnectPin(clone, c.nl.PinPort(outPin), newNet)
		c.nl.Reconnect(load, newNet)
		c.log.Debug("repair_tie_fanout_one", "tie", tieInst, "clone", instName)
	}

	c.nl.DeleteNet(net)
	c.deleteInstance(tieInst)
	return nil
}

// RepairTieFanout runs repairTieFanoutOne across every tie instance in the
// design (an instance of a constant-output, isFuncOneZero cell).
func (c *Core) RepairTieFanout(separationMeters float64) (Stats, error) {
	var ties []InstID
	for _, inst := range c.nl.AllInstances() {
		if c.nl.IsFuncOneZero(c.nl.InstanceCell(inst)) {
			ties = append(ties, inst)
		}
	}

	for _, tie := range ties {
		if c.areaExceeded() {
			c.log.Warn("repair_tie_fanout: max utilization reached")
			break
		}
		if err := c.repairTieFanoutOne(tie, separationMeters); err != nil {
			return Stats{}, err
		}
	}

	stats := c.GetStats()
	c.log.Info("repair_tie_fanout: done", "ties", len(ties))
	return stats, nil
}
