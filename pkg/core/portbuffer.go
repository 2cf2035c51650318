package core

import (
	"fmt"

	"github.com/vic/rsz/pkg/geom"
)

// bufferPort inserts bufCell between port's net and everything else that
// was connected to it: a fresh net is minted to carry the old connections,
// and the buffer is wired so the port's own net only ever touches the
// buffer's port-facing terminal. Symmetric in direction -- an input port
// drives the buffer's input side, an output port is driven by the buffer's
// output side -- so the same rewiring logic covers both bufferInputs and
// bufferOutputs.
func (c *Core) bufferPort(port PinID, bufCell CellID) error {
	direction := c.nl.PinDirection(port)

	oldNet, ok := c.nl.PinNet(port)
	if !ok || !oldNet.Valid() {
		return nil
	}
	if c.nl.IsSpecial(oldNet) {
		return nil
	}
	if direction == DirInput && c.timer.IsClock(oldNet) {
		return nil
	}

	newNetName := c.makeUniqueNetName()
	newNet := c.nl.MakeNet(newNetName)

	for _, pin := range c.nl.NetPins(oldNet) {
		if pin == port {
			continue
		}
		c.nl.Reconnect(pin, newNet)
	}
	c.timer.DeleteParasitics(oldNet)

	cellName := c.nl.CellName(bufCell)
	instName := c.makeUniqueInstName(cellName, true)

	var at geom.Point
	if direction == DirInput {
		at = geom.ClosestPointInRect(c.nl.GetCoreArea(), c.nl.PinLocation(port))
	} else {
		at = c.nl.PinLocation(port)
	}
	inst := c.createInstance(instName, bufCell, at)

	inPort, outPort := c.nl.BufferPorts(bufCell)
	if direction == DirInput {
		c.nl.ConnectPin(inst, inPort, oldNet)
		c.nl.ConnectPin(inst, outPort, newNet)
	} else {
		c.nl.ConnectPin(inst, inPort, newNet)
		c.nl.ConnectPin(inst, outPort, oldNet)
	}

	c.counters.InsertedBufferCount++
	c.log.Debug("buffer_port", "port", c.nl.PinPort(port), "buffer", instName)
	return nil
}

// BufferInputs inserts bufCell at every non-special, non-clock top-level
// input port.
func (c *Core) BufferInputs(bufCell CellID) (Stats, error) {
	return c.bufferPorts(DirInput, bufCell)
}

// BufferOutputs inserts bufCell at every non-special top-level output port.
func (c *Core) BufferOutputs(bufCell CellID) (Stats, error) {
	return c.bufferPorts(DirOutput, bufCell)
}

func (c *Core) bufferPorts(direction Direction, bufCell CellID) (Stats, error) {
	if !c.nl.IsBuffer(bufCell) {
		return Stats{}, configErrorf("bufferPorts: cell %d is not a buffer", bufCell)
	}

	before := c.counters.InsertedBufferCount
	for _, port := range c.nl.TopLevelPorts() {
		if c.nl.PinDirection(port) != direction {
			continue
		}
		if err := c.bufferPort(port, bufCell); err != nil {
			return Stats{}, err
		}
	}

	stats := c.GetStats()
	inserted := stats.InsertedBufferCount - before
	if direction == DirInput {
		fmt.Printf("Inserted %d input buffers.\n", inserted)
	} else {
		fmt.Printf("Inserted %d output buffers.\n", inserted)
	}
	c.log.Info("buffer_ports", "direction", int(direction), "inserted", inserted)
	return stats, nil
}
