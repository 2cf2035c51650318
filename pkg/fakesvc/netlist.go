// Package fakesvc is the in-memory TIMER/NETLIST/STEINER harness the core
// package's own tests and the demo command drive the resizer through --
// never linked into anything that edits a real design. Arenas are plain
// index-into-slice, with a deleted flag tombstoning a removed entry
// instead of compacting the slice, mirroring deltanet's node-arena style.
package fakesvc

import (
	"fmt"

	"github.com/vic/rsz/pkg/core"
	"github.com/vic/rsz/pkg/geom"
)

type cellDef struct {
	name           string
	lib            core.LibID
	area           float64
	isBuffer       bool
	isInverter     bool
	isTie          bool
	inPort         string
	outPort        string
	portCap        map[string]float64
	portDir        map[string]core.Direction
	arcs           []core.Arc
	driveRes       float64
	intrinsicDelay float64
}

type instDef struct {
	name    string
	cell    core.CellID
	loc     geom.Point
	halfW   int64
	halfH   int64
	placed  bool
	deleted bool
}

type pinDef struct {
	inst      core.InstID // InvalidID for a top-level port
	port      string
	dir       core.Direction
	net       core.NetID
	topLevel  bool
	deleted   bool
}

type netDef struct {
	name     string
	pins     []core.PinID
	isPower  bool
	isGround bool
	isSpecial bool
	deleted  bool
}

// Netlist is the fake NETLIST implementation.
type Netlist struct {
	cells []cellDef
	insts []instDef
	nets  []netDef
	pins  []pinDef

	instByName map[string]core.InstID
	netByName  map[string]core.NetID
	libs       map[core.LibID][]core.CellID

	coreRect     geom.Rect
	dbuPerMicron geom.DbuPerMicron
	initialArea  float64

	topInst  core.InstID
	topPorts []core.PinID
}

// NewNetlist constructs an empty fake netlist over the given core
// rectangle (pass geom.Rect{} for a degenerate/no-core design).
func NewNetlist(coreRect geom.Rect, dbuPerMicron geom.DbuPerMicron) *Netlist {
	return &Netlist{
		instByName: make(map[string]core.InstID),
		netByName:  make(map[string]core.NetID),
		libs:       make(map[core.LibID][]core.CellID),

		coreRect:     coreRect,
		dbuPerMicron: dbuPerMicron,
		topInst:      core.InstID(core.InvalidID),
	}
}

// --- Test/demo setup API (not part of core.Netlist) ---

// AddCell registers a plain logic cell in lib with the given area and
// per-port input capacitances.
func (nl *Netlist) AddCell(lib core.LibID, name string, area float64, portCap map[string]float64, portDir map[string]core.Direction, arcs []core.Arc) core.CellID {
	id := core.CellID(len(nl.cells))
	nl.cells = append(nl.cells, cellDef{name: name, lib: lib, area: area, portCap: portCap, portDir: portDir, arcs: arcs})
	nl.libs[lib] = append(nl.libs[lib], id)
	return id
}

// AddBufferCell registers a single-input single-output buffer (or, if
// inverter is true, an inverter) cell.
func (nl *Netlist) AddBufferCell(lib core.LibID, name string, area, inCap, driveRes, intrinsicDelay float64, inverter bool) core.CellID {
	id := core.CellID(len(nl.cells))
	nl.cells = append(nl.cells, cellDef{
		name: name, lib: lib, area: area,
		isBuffer: !inverter, isInverter: inverter,
		inPort: "A", outPort: "Z",
		portCap:        map[string]float64{"A": inCap},
		portDir:        map[string]core.Direction{"A": core.DirInput, "Z": core.DirOutput},
		arcs:           []core.Arc{{FromPort: "A", ToPort: "Z"}},
		driveRes:       driveRes,
		intrinsicDelay: intrinsicDelay,
	})
	nl.libs[lib] = append(nl.libs[lib], id)
	return id
}

// AddTieCell registers a constant-output (tie) cell with a single output
// port "Z".
func (nl *Netlist) AddTieCell(lib core.LibID, name string, area float64) core.CellID {
	id := core.CellID(len(nl.cells))
	nl.cells = append(nl.cells, cellDef{
		name: name, lib: lib, area: area, isTie: true,
		outPort: "Z", portCap: map[string]float64{},
		portDir: map[string]core.Direction{"Z": core.DirOutput},
	})
	nl.libs[lib] = append(nl.libs[lib], id)
	return id
}

// SetDriveStrength sets the linear-delay-model parameters GateDelay uses
// for cell: delay = intrinsicDelay + driveRes*loadCap.
func (nl *Netlist) SetDriveStrength(cell core.CellID, driveRes, intrinsicDelay float64) {
	nl.cells[cell].driveRes = driveRes
	nl.cells[cell].intrinsicDelay = intrinsicDelay
}

func (nl *Netlist) cellAt(c core.CellID) *cellDef { return &nl.cells[c] }

// AddInstance creates a placed instance of cell at loc with the given
// bounding-box half-width/half-height (for InstanceBBox / tie-fanout
// placement).
func (nl *Netlist) AddInstance(name string, cell core.CellID, loc geom.Point, halfW, halfH int64) core.InstID {
	id := core.InstID(len(nl.insts))
	nl.insts = append(nl.insts, instDef{name: name, cell: cell, loc: loc, halfW: halfW, halfH: halfH, placed: true})
	nl.instByName[name] = id
	nl.initialArea += nl.cells[cell].area
	return id
}

// SetTopInstance designates inst (usually unused by a flat fake design,
// but required so PinInstance/IsTopLevelPort have an unambiguous answer)
// as the module boundary; pins connected via AddTopPort belong to it.
func (nl *Netlist) SetTopInstance(inst core.InstID) { nl.topInst = inst }

// AddNet creates an empty net.
func (nl *Netlist) AddNet(name string, power, ground, special bool) core.NetID {
	id := core.NetID(len(nl.nets))
	nl.nets = append(nl.nets, netDef{name: name, isPower: power, isGround: ground, isSpecial: special})
	nl.netByName[name] = id
	return id
}

// AddTopPort connects a new top-level port pin of the given direction to
// net.
func (nl *Netlist) AddTopPort(port string, dir core.Direction, net core.NetID) core.PinID {
	id := core.PinID(len(nl.pins))
	nl.pins = append(nl.pins, pinDef{inst: core.InstID(core.InvalidID), port: port, dir: dir, net: net, topLevel: true})
	nl.nets[net].pins = append(nl.nets[net].pins, id)
	nl.topPorts = append(nl.topPorts, id)
	return id
}

// --- core.Netlist ---

func (nl *Netlist) CellName(c core.CellID) string       { return nl.cells[c].name }
func (nl *Netlist) CellArea(c core.CellID) float64       { return nl.cells[c].area }
func (nl *Netlist) IsBuffer(c core.CellID) bool          { return nl.cells[c].isBuffer }
func (nl *Netlist) IsInverter(c core.CellID) bool        { return nl.cells[c].isInverter }
func (nl *Netlist) IsFuncOneZero(c core.CellID) bool     { return nl.cells[c].isTie }
func (nl *Netlist) CellArcs(c core.CellID) []core.Arc    { return nl.cells[c].arcs }
func (nl *Netlist) CellsInLib(lib core.LibID) []core.CellID {
	return append([]core.CellID{}, nl.libs[lib]...)
}

func (nl *Netlist) PortCap(c core.CellID, port string) float64 {
	return nl.cells[c].portCap[port]
}

func (nl *Netlist) BufferPorts(c core.CellID) (string, string) {
	return nl.cells[c].inPort, nl.cells[c].outPort
}

func (nl *Netlist) FindCellByName(lib core.LibID, name string) (core.CellID, bool) {
	for _, id := range nl.libs[lib] {
		if nl.cells[id].name == name {
			return id, true
		}
	}
	return core.CellID(core.InvalidID), false
}

func (nl *Netlist) MakeInstance(name string, cell core.CellID) core.InstID {
	id := core.InstID(len(nl.insts))
	nl.insts = append(nl.insts, instDef{name: name, cell: cell})
	nl.instByName[name] = id
	return id
}

func (nl *Netlist) DeleteInstance(inst core.InstID) {
	nl.insts[inst].deleted = true
	delete(nl.instByName, nl.insts[inst].name)
}

func (nl *Netlist) ReplaceCell(inst core.InstID, cell core.CellID) error {
	if nl.insts[inst].deleted {
		return fmt.Errorf("instance %d is deleted", inst)
	}
	nl.insts[inst].cell = cell
	return nil
}

func (nl *Netlist) InstanceCell(inst core.InstID) core.CellID { return nl.insts[inst].cell }
func (nl *Netlist) SetLocation(inst core.InstID, p geom.Point) { nl.insts[inst].loc = p }
func (nl *Netlist) Location(inst core.InstID) geom.Point        { return nl.insts[inst].loc }

func (nl *Netlist) InstanceBBox(inst core.InstID) geom.Rect {
	d := nl.insts[inst]
	return geom.Rect{MinX: d.loc.X - d.halfW, MinY: d.loc.Y - d.halfH, MaxX: d.loc.X + d.halfW, MaxY: d.loc.Y + d.halfH}
}

func (nl *Netlist) SetPlaced(inst core.InstID, placed bool) { nl.insts[inst].placed = placed }
func (nl *Netlist) InstanceName(inst core.InstID) string     { return nl.insts[inst].name }

func (nl *Netlist) FindInstance(name string) (core.InstID, bool) {
	id, ok := nl.instByName[name]
	return id, ok
}

func (nl *Netlist) TopInstance() core.InstID { return nl.topInst }

func (nl *Netlist) InstancePins(inst core.InstID) []core.PinID {
	var out []core.PinID
	for i, p := range nl.pins {
		if !p.deleted && !p.topLevel && p.inst == inst {
			out = append(out, core.PinID(i))
		}
	}
	return out
}

func (nl *Netlist) MakeNet(name string) core.NetID {
	id := core.NetID(len(nl.nets))
	nl.nets = append(nl.nets, netDef{name: name})
	nl.netByName[name] = id
	return id
}

func (nl *Netlist) DeleteNet(net core.NetID) {
	nl.nets[net].deleted = true
	delete(nl.netByName, nl.nets[net].name)
}

func (nl *Netlist) NetName(net core.NetID) string { return nl.nets[net].name }

func (nl *Netlist) FindNet(name string) (core.NetID, bool) {
	id, ok := nl.netByName[name]
	return id, ok
}

func (nl *Netlist) NetPins(net core.NetID) []core.PinID {
	var out []core.PinID
	for _, p := range nl.nets[net].pins {
		if !nl.pins[p].deleted {
			out = append(out, p)
		}
	}
	return out
}

func (nl *Netlist) Drivers(net core.NetID) []core.PinID {
	var out []core.PinID
	for _, p := range nl.nets[net].pins {
		if !nl.pins[p].deleted && nl.IsDriver(p) {
			out = append(out, p)
		}
	}
	return out
}

func (nl *Netlist) IsPower(net core.NetID) bool   { return nl.nets[net].isPower }
func (nl *Netlist) IsGround(net core.NetID) bool  { return nl.nets[net].isGround }
func (nl *Netlist) IsSpecial(net core.NetID) bool { return nl.nets[net].isSpecial || nl.nets[net].isPower || nl.nets[net].isGround }

func (nl *Netlist) ConnectPin(inst core.InstID, port string, net core.NetID) core.PinID {
	cell := nl.insts[inst].cell
	dir := nl.cells[cell].portDir[port]
	id := core.PinID(len(nl.pins))
	nl.pins = append(nl.pins, pinDef{inst: inst, port: port, dir: dir, net: net})
	nl.nets[net].pins = append(nl.nets[net].pins, id)
	return id
}

func (nl *Netlist) DisconnectPin(pin core.PinID) {
	p := &nl.pins[pin]
	if p.net.Valid() {
		nl.removeFromNet(p.net, pin)
	}
	p.net = core.NetID(core.InvalidID)
}

func (nl *Netlist) Reconnect(pin core.PinID, net core.NetID) {
	p := &nl.pins[pin]
	if p.net.Valid() {
		nl.removeFromNet(p.net, pin)
	}
	p.net = net
	nl.nets[net].pins = append(nl.nets[net].pins, pin)
}

func (nl *Netlist) removeFromNet(net core.NetID, pin core.PinID) {
	pins := nl.nets[net].pins
	for i, p := range pins {
		if p == pin {
			nl.nets[net].pins = append(pins[:i], pins[i+1:]...)
			return
		}
	}
}

func (nl *Netlist) PinNet(pin core.PinID) (core.NetID, bool) {
	p := nl.pins[pin]
	return p.net, p.net.Valid()
}

func (nl *Netlist) PinDirection(pin core.PinID) core.Direction { return nl.pins[pin].dir }

func (nl *Netlist) PinLocation(pin core.PinID) geom.Point {
	p := nl.pins[pin]
	if p.topLevel || !p.inst.Valid() {
		return geom.Point{}
	}
	return nl.insts[p.inst].loc
}

func (nl *Netlist) PinPort(pin core.PinID) string { return nl.pins[pin].port }

func (nl *Netlist) PinInstance(pin core.PinID) (core.InstID, bool) {
	p := nl.pins[pin]
	if p.topLevel {
		return core.InstID(core.InvalidID), false
	}
	return p.inst, true
}

func (nl *Netlist) IsTopLevelPort(pin core.PinID) bool { return nl.pins[pin].topLevel }

func (nl *Netlist) IsDriver(pin core.PinID) bool {
	p := nl.pins[pin]
	if p.topLevel {
		return p.dir == core.DirInput // a primary input drives the design internally
	}
	return p.dir == core.DirOutput
}

func (nl *Netlist) IsLoad(pin core.PinID) bool {
	p := nl.pins[pin]
	if p.topLevel {
		return p.dir == core.DirOutput // a primary output is a load on its net
	}
	return p.dir == core.DirInput
}

func (nl *Netlist) GetCoreArea() geom.Rect                     { return nl.coreRect }
func (nl *Netlist) GetDbUnitsPerMicron() geom.DbuPerMicron      { return nl.dbuPerMicron }
func (nl *Netlist) DesignAreaSnapshot() float64                 { return nl.initialArea }

func (nl *Netlist) AllNets() []core.NetID {
	var out []core.NetID
	for i, n := range nl.nets {
		if !n.deleted {
			out = append(out, core.NetID(i))
		}
	}
	return out
}

func (nl *Netlist) AllInstances() []core.InstID {
	var out []core.InstID
	for i, inst := range nl.insts {
		if !inst.deleted {
			out = append(out, core.InstID(i))
		}
	}
	return out
}

func (nl *Netlist) TopLevelPorts() []core.PinID {
	var out []core.PinID
	for _, p := range nl.topPorts {
		if !nl.pins[p].deleted {
			out = append(out, p)
		}
	}
	return out
}
