package core

import "sort"

// pinPath returns the lexicographic sort key for a driver pin: the
// instance name and port concatenated, or the port name alone for a
// top-level port. Matches the design's "pin-path-name" tie-break.
func (c *Core) pinPath(pin PinID) string {
	if inst, ok := c.nl.PinInstance(pin); ok {
		return c.nl.InstanceName(inst) + "/" + c.nl.PinPort(pin)
	}
	return c.nl.PinPort(pin)
}

// ensureLevelDriverList rebuilds LevelDriverList if invalid, in ascending
// (level, pin-path-name) order. Rebuilding always starts from a fresh
// Levelize() call so that any structural edit since the last build is
// reflected (invariant 2).
func (c *Core) ensureLevelDriverList() {
	if c.levelListValid {
		return
	}
	c.timer.Levelize()

	seen := make(map[PinID]bool)
	var entries []driverEntry
	for _, net := range c.nl.AllNets() {
		for _, pin := range c.nl.Drivers(net) {
			if seen[pin] {
				continue
			}
			seen[pin] = true
			entries = append(entries, driverEntry{
				pin:   pin,
				level: c.timer.Level(pin),
				path:  c.pinPath(pin),
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].level != entries[j].level {
			return entries[i].level < entries[j].level
		}
		return entries[i].path < entries[j].path
	})

	c.levelDriverList = entries
	c.levelListValid = true
}

// driversAscending returns driver pins in ascending level order.
func (c *Core) driversAscending() []PinID {
	c.ensureLevelDriverList()
	pins := make([]PinID, len(c.levelDriverList))
	for i, e := range c.levelDriverList {
		pins[i] = e.pin
	}
	return pins
}

// driversDescending returns driver pins in descending (reverse) level
// order, the order the gate sizer and net repair walk in.
func (c *Core) driversDescending() []PinID {
	c.ensureLevelDriverList()
	n := len(c.levelDriverList)
	pins := make([]PinID, n)
	for i, e := range c.levelDriverList {
		pins[n-1-i] = e.pin
	}
	return pins
}
