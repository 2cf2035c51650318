package core

import "github.com/vic/rsz/pkg/geom"

// LimitCheck is the (value, limit, slack) triple TIMER returns for a
// max-capacitance / max-slew / max-fanout query on a pin.
type LimitCheck struct {
	Value float64
	Limit float64
	Slack float64 // Limit - Value; negative means violation
}

// Violated reports whether the checked quantity exceeds its limit.
func (c LimitCheck) Violated() bool { return c.Slack < 0 }

// Arc is one input->output timing arc of a cell's liberty view.
type Arc struct {
	FromPort   string
	ToPort     string
	IsCheck    bool // setup/hold check arc, not a propagation arc
	IsTristate bool
}

// Slacks4 is TIMER's 2x2 [rise/fall][min/max] slack matrix for a vertex.
type Slacks4 struct {
	Rise [2]float64 // indexed by MinMax
	Fall [2]float64
}

// Parasitic is the reduced pi-Elmore model the CORE builds for a net and
// hands to TIMER; TIMER treats it as opaque beyond using it for delay calc.
type Parasitic struct {
	// DriveResistance-facing summary used by the fake TIMER's delay model;
	// a real STA engine would instead walk the detailed RC network this
	// was reduced from (see parasitics.go), which the CORE discards after
	// building this summary.
	TotalCap float64
	TotalRes float64
}

// Netlist is the physical-database service the CORE consumes: cells,
// instances, nets, pins, placement, and the handful of edit operations
// the CORE is allowed to perform. The CORE is netlist's exclusive writer
// during a single entry-point call (see design note on shared resources).
type Netlist interface {
	// Cells (library view).
	CellName(c CellID) string
	CellArea(c CellID) float64
	IsBuffer(c CellID) bool
	IsInverter(c CellID) bool
	IsFuncOneZero(c CellID) bool // constant-output (tie) cell
	PortCap(c CellID, port string) float64
	CellArcs(c CellID) []Arc
	BufferPorts(c CellID) (inPort, outPort string) // valid for IsBuffer/IsInverter cells
	CellsInLib(lib LibID) []CellID
	FindCellByName(lib LibID, name string) (CellID, bool)

	// Instances.
	MakeInstance(name string, cell CellID) InstID
	DeleteInstance(inst InstID)
	ReplaceCell(inst InstID, cell CellID) error
	InstanceCell(inst InstID) CellID
	SetLocation(inst InstID, p geom.Point)
	Location(inst InstID) geom.Point
	InstanceBBox(inst InstID) geom.Rect
	SetPlaced(inst InstID, placed bool)
	InstanceName(inst InstID) string
	FindInstance(name string) (InstID, bool)
	TopInstance() InstID
	InstancePins(inst InstID) []PinID

	// Nets.
	MakeNet(name string) NetID
	DeleteNet(net NetID)
	NetName(net NetID) string
	FindNet(name string) (NetID, bool)
	NetPins(net NetID) []PinID
	Drivers(net NetID) []PinID
	IsPower(net NetID) bool
	IsGround(net NetID) bool
	IsSpecial(net NetID) bool

	// Pins.
	ConnectPin(inst InstID, port string, net NetID) PinID
	DisconnectPin(pin PinID)
	Reconnect(pin PinID, net NetID) // moves an already-connected pin to net
	PinNet(pin PinID) (NetID, bool)
	PinDirection(pin PinID) Direction
	PinLocation(pin PinID) geom.Point
	PinPort(pin PinID) string
	PinInstance(pin PinID) (InstID, bool) // false for a top-level port pin
	IsTopLevelPort(pin PinID) bool
	IsDriver(pin PinID) bool
	IsLoad(pin PinID) bool

	// Design-wide queries.
	GetCoreArea() geom.Rect
	GetDbUnitsPerMicron() geom.DbuPerMicron
	DesignAreaSnapshot() float64 // pre-existing area before the CORE ever edited anything
	AllNets() []NetID
	AllInstances() []InstID
	TopLevelPorts() []PinID
}

// Timer is the opaque STA service the CORE consumes. It never exposes
// delay-calculation internals -- only the queries the CORE's local
// decisions need.
type Timer interface {
	Levelize()
	EnsureGraph()
	EnsureClkNetwork()
	ResolveCorner(name string) (Corner, bool)
	DelaysInvalid()
	ArrivalsInvalid()
	DeleteParasitics(net NetID)
	SetParasitic(net NetID, p Parasitic)
	HasParasitic(net NetID) bool

	LoadCap(pin PinID, corner Corner) float64
	GateDelay(cell CellID, rf RiseFall, inSlew float64, loadCap float64) (delay, outSlew float64)

	Level(pin PinID) int
	IsConstant(pin PinID) bool
	IsClock(net NetID) bool

	VertexSlack(pin PinID, mm MinMax) float64
	VertexSlacks(pin PinID) Slacks4
	CheckSlew(pin PinID) LimitCheck
	CheckCapacitance(pin PinID) LimitCheck
	CheckFanout(pin PinID) LimitCheck

	FindRequireds()
	FindDelays()

	EquivCells(cell CellID) []CellID
	MakeEquivCells(libs []LibID)

	// Fanins returns the driver pins feeding the instance that `pin`
	// belongs to, one hop back in the timing graph (i.e. its input pins'
	// driving vertices). Used by the hold-repair fanin-cone walk.
	Fanins(pin PinID) []PinID
	// Fanouts returns the driver pins one hop forward: the output pins of
	// instances whose input is loaded directly by `pin`'s net. Used by the
	// clock-inverter BFS.
	Fanouts(pin PinID) []PinID
	ClockLeafDrivers() []PinID
	IsRegisterClockPin(pin PinID) bool
	Endpoints() []PinID

	BufferSelfDelay(cell CellID) float64
}

// SteinerBranch is one rectilinear segment of a Steiner tree.
type SteinerBranch struct {
	P1, P2       SteinerPtID
	Pin1, Pin2   PinID // InvalidID (via PinID.Valid) if this endpoint has no pin
	HasPin1      bool
	HasPin2      bool
	LengthDBU    int64
}

// SteinerTree is the rectilinear tree STEINER built for one net.
type SteinerTree interface {
	NumBranches() int
	Branch(i int) SteinerBranch
	Left(pt SteinerPtID) SteinerPtID  // NullSteinerPt if absent
	Right(pt SteinerPtID) SteinerPtID // NullSteinerPt if absent
	Location(pt SteinerPtID) geom.Point
	Pin(pt SteinerPtID) (PinID, bool)
	SteinerPtOf(pin PinID) (SteinerPtID, bool)
	DriverPt() SteinerPtID
}

// Steiner is the tree-construction service the CORE consumes.
type Steiner interface {
	MakeSteinerTree(net NetID, includeDriverLoad bool) (SteinerTree, error)
}
