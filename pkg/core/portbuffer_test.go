package core

import (
	"testing"

	"github.com/vic/rsz/pkg/geom"
)

// wirePorts wires one top-level input port and one top-level output port
// through a single AND2 gate, the minimal shape bufferPort needs.
func (td *testDesign) wirePorts(t *testing.T) (in, out PinID) {
	t.Helper()
	inNet := td.nl.AddNet("in", false, false, false)
	bNet := td.nl.AddNet("b", false, false, false)
	outNet := td.nl.AddNet("out", false, false, false)

	inPin := td.nl.AddTopPort("A", DirInput, inNet)
	outPin := td.nl.AddTopPort("Z", DirOutput, outNet)

	gate := td.nl.AddInstance("g", td.and2, geom.Point{X: 500_000, Y: 500_000}, 1000, 1000)
	td.nl.ConnectPin(gate, "A", inNet)
	td.nl.ConnectPin(gate, "B", bNet)
	td.nl.ConnectPin(gate, "Z", outNet)

	// Give B a constant driver so it doesn't show up as floating.
	tieInst := td.nl.AddInstance("tie_b", td.tie0, geom.Point{X: 400_000, Y: 400_000}, 500, 500)
	td.nl.ConnectPin(tieInst, "Z", bNet)

	return inPin, outPin
}

func TestBufferInputsInsertsOneBufferPerInputPort(t *testing.T) {
	td := newTestDesign()
	td.wirePorts(t)
	c := td.newCore(t, nil)

	before := len(td.nl.AllInstances())
	stats, err := c.BufferInputs(td.buf1)
	if err != nil {
		t.Fatalf("BufferInputs: %v", err)
	}
	if stats.InsertedBufferCount != 1 {
		t.Fatalf("InsertedBufferCount = %d, want 1", stats.InsertedBufferCount)
	}
	if got := len(td.nl.AllInstances()); got != before+1 {
		t.Fatalf("instance count = %d, want %d", got, before+1)
	}
}

func TestBufferOutputsInsertsOneBufferPerOutputPort(t *testing.T) {
	td := newTestDesign()
	td.wirePorts(t)
	c := td.newCore(t, nil)

	stats, err := c.BufferOutputs(td.buf1)
	if err != nil {
		t.Fatalf("BufferOutputs: %v", err)
	}
	if stats.InsertedBufferCount != 1 {
		t.Fatalf("InsertedBufferCount = %d, want 1", stats.InsertedBufferCount)
	}
}

func TestBufferPortRejectsNonBufferCell(t *testing.T) {
	td := newTestDesign()
	td.wirePorts(t)
	c := td.newCore(t, nil)

	if _, err := c.BufferInputs(td.and2); err == nil {
		t.Fatal("expected a configuration error buffering with a non-buffer cell")
	}
}

func TestBufferPortPreservesOriginalNetOnPortSide(t *testing.T) {
	td := newTestDesign()
	inPin, _ := td.wirePorts(t)
	originalNet, _ := td.nl.PinNet(inPin)
	c := td.newCore(t, nil)

	if _, err := c.BufferInputs(td.buf1); err != nil {
		t.Fatalf("BufferInputs: %v", err)
	}

	// The port pin must still sit on its original net; the buffer's
	// output, not the port, now drives the gate.
	net, ok := td.nl.PinNet(inPin)
	if !ok || net != originalNet {
		t.Fatalf("input port net changed: got %v, want original %v", net, originalNet)
	}
	if !td.nl.IsDriver(inPin) {
		t.Fatal("input port pin should still be the driver of its (unchanged) net")
	}
}
