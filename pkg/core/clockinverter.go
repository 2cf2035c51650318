package core

// cloneInverterLoad creates a fresh instance of invCell at load's
// location, wired to the same input net as the original inverter and a
// brand-new output net, then moves load onto that new net.
func (c *Core) cloneInverterLoad(origIn PinID, invCell CellID, load PinID) error {
	inNet, ok := c.nl.PinNet(origIn)
	if !ok {
		return nil
	}

	instName := c.makeUniqueInstName(c.nl.CellName(invCell), true)
	at := c.nl.PinLocation(load)
	clone := c.createInstance(instName, invCell, at)

	inPort, outPort := c.nl.BufferPorts(invCell)
	newNetName := c.makeUniqueNetName()
	newNet := c.nl.MakeNet(newNetName)

	c.nl.ConnectPin(clone, inPort, inNet)
	c.nl.ConnectPin(clone, outPort, newNet)
	c.nl.Reconnect(load, newNet)
	c.log.Debug("clone_inverter_load", "clone", instName, "load", load)
	return nil
}

// repairClkInverterInstance clones inst once per load on its output net,
// then deletes the now-unshared original inverter and its output net.
func (c *Core) repairClkInverterInstance(inst InstID) error {
	cell := c.nl.InstanceCell(inst)

	var inPin, outPin PinID
	for _, pin := range c.nl.InstancePins(inst) {
		switch c.nl.PinDirection(pin) {
		case DirInput:
			inPin = pin
		case DirOutput:
			outPin = pin
		}
	}

	net, ok := c.nl.PinNet(outPin)
	if !ok || !net.Valid() {
		return nil
	}

	var loads []PinID
	for _, pin := range c.nl.NetPins(net) {
		if pin != outPin {
			loads = append(loads, pin)
		}
	}
	for _, load := range loads {
		if err := c.cloneInverterLoad(inPin, cell, load); err != nil {
			return err
		}
	}

	c.nl.DeleteNet(net)
	c.deleteInstance(inst)
	return nil
}

// RepairClkInverters BFS-walks forward from every clock leaf pin's driver,
// stopping at register clock pins, collecting every inverter instance the
// walk crosses, then de-shares each one so clock-tree synthesis sees
// exactly one inverter per sink.
func (c *Core) RepairClkInverters() (Stats, error) {
	c.timer.EnsureClkNetwork()

	seenPin := make(map[PinID]bool)
	seenInst := make(map[InstID]bool)
	var inverters []InstID

	queue := append([]PinID{}, c.timer.ClockLeafDrivers()...)
	for _, p := range queue {
		seenPin[p] = true
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if c.timer.IsRegisterClockPin(p) {
			continue
		}
		if inst, ok := c.nl.PinInstance(p); ok && c.nl.IsInverter(c.nl.InstanceCell(inst)) {
			if !seenInst[inst] {
				seenInst[inst] = true
				inverters = append(inverters, inst)
			}
		}

		for _, next := range c.timer.Fanouts(p) {
			if seenPin[next] {
				continue
			}
			seenPin[next] = true
			queue = append(queue, next)
		}
	}

	for _, inst := range inverters {
		if c.areaExceeded() {
			c.log.Warn("repair_clk_inverters: max utilization reached")
			break
		}
		if err := c.repairClkInverterInstance(inst); err != nil {
			return Stats{}, err
		}
	}

	stats := c.GetStats()
	c.log.Info("repair_clk_inverters: done", "inverters", len(inverters))
	return stats, nil
}
