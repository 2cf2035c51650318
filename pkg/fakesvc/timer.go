package fakesvc

import (
	"math"

	"github.com/vic/rsz/pkg/core"
)

// Timer is the fake STA implementation: no real delay calculator, just a
// linear drive-resistance model plus test-settable slack/limit tables so
// scenarios can dial in exactly the violation (or lack of one) under test.
type Timer struct {
	nl *Netlist

	corners map[string]core.Corner

	parasitics map[core.NetID]core.Parasitic

	levels map[core.PinID]int

	clockNets       map[core.NetID]bool
	constantOutputs map[core.PinID]bool

	slackMin   map[core.PinID][2]float64 // [rise, fall]
	slackMax   map[core.PinID][2]float64

	slewLimit   map[core.PinID]core.LimitCheck
	capLimit    map[core.PinID]core.LimitCheck
	fanoutLimit map[core.PinID]core.LimitCheck

	equiv map[core.CellID][]core.CellID

	clockLeafDrivers  []core.PinID
	registerClockPins map[core.PinID]bool
	endpoints         []core.PinID
}

// NewTimer constructs a fake Timer bound to nl.
func NewTimer(nl *Netlist) *Timer {
	return &Timer{
		nl:                nl,
		corners:           map[string]core.Corner{"typical": 0},
		parasitics:        make(map[core.NetID]core.Parasitic),
		clockNets:         make(map[core.NetID]bool),
		constantOutputs:   make(map[core.PinID]bool),
		slackMin:          make(map[core.PinID][2]float64),
		slackMax:          make(map[core.PinID][2]float64),
		slewLimit:         make(map[core.PinID]core.LimitCheck),
		capLimit:          make(map[core.PinID]core.LimitCheck),
		fanoutLimit:       make(map[core.PinID]core.LimitCheck),
		equiv:             make(map[core.CellID][]core.CellID),
		registerClockPins: make(map[core.PinID]bool),
	}
}

// --- test/demo setup API ---

func (t *Timer) AddCorner(name string) core.Corner {
	id := core.Corner(len(t.corners))
	t.corners[name] = id
	return id
}

func (t *Timer) MarkClock(net core.NetID) { t.clockNets[net] = true }

// SetSlacks sets pin's 2x2 [rise/fall][min/max] slack matrix; mm=Min
// feeds VertexSlack(pin, Min) (hold), mm=Max feeds VertexSlack(pin, Max)
// (setup).
func (t *Timer) SetSlacks(pin core.PinID, riseMin, riseMax, fallMin, fallMax float64) {
	t.slackMin[pin] = [2]float64{riseMin, fallMin}
	t.slackMax[pin] = [2]float64{riseMax, fallMax}
}

func (t *Timer) SetSlewLimit(pin core.PinID, value, limit float64) {
	t.slewLimit[pin] = core.LimitCheck{Value: value, Limit: limit, Slack: limit - value}
}

func (t *Timer) SetCapLimit(pin core.PinID, value, limit float64) {
	t.capLimit[pin] = core.LimitCheck{Value: value, Limit: limit, Slack: limit - value}
}

func (t *Timer) SetFanoutLimit(pin core.PinID, value, limit float64) {
	t.fanoutLimit[pin] = core.LimitCheck{Value: value, Limit: limit, Slack: limit - value}
}

func (t *Timer) SetEquivCells(cell core.CellID, equivalents []core.CellID) {
	t.equiv[cell] = equivalents
}

func (t *Timer) SetClockLeafDrivers(pins []core.PinID) { t.clockLeafDrivers = pins }
func (t *Timer) MarkRegisterClockPin(pin core.PinID)   { t.registerClockPins[pin] = true }
func (t *Timer) SetEndpoints(pins []core.PinID)        { t.endpoints = pins }

// --- core.Timer ---

func (t *Timer) Levelize()         { t.levels = make(map[core.PinID]int) }
func (t *Timer) EnsureGraph()      {}
func (t *Timer) EnsureClkNetwork() {}
func (t *Timer) DelaysInvalid()    {}
func (t *Timer) ArrivalsInvalid()  {}
func (t *Timer) FindRequireds()    {}
func (t *Timer) FindDelays()       {}

func (t *Timer) ResolveCorner(name string) (core.Corner, bool) {
	c, ok := t.corners[name]
	return c, ok
}

func (t *Timer) DeleteParasitics(net core.NetID) { delete(t.parasitics, net) }
func (t *Timer) SetParasitic(net core.NetID, p core.Parasitic) { t.parasitics[net] = p }
func (t *Timer) HasParasitic(net core.NetID) bool {
	_, ok := t.parasitics[net]
	return ok
}

// LoadCap sums every load pin's input capacitance on pin's net plus any
// cached wire parasitic capacitance.
func (t *Timer) LoadCap(pin core.PinID, corner core.Corner) float64 {
	net, ok := t.nl.PinNet(pin)
	if !ok {
		return 0
	}
	cap := 0.0
	if p, ok := t.parasitics[net]; ok {
		cap += p.TotalCap
	}
	for _, load := range t.nl.NetPins(net) {
		if load == pin || !t.nl.IsLoad(load) {
			continue
		}
		inst, ok := t.nl.PinInstance(load)
		if !ok {
			continue
		}
		cap += t.nl.PortCap(t.nl.InstanceCell(inst), t.nl.PinPort(load))
	}
	return cap
}

// GateDelay is a linear RC model: delay = intrinsicDelay + driveRes*load,
// outSlew tracks delay plus a fraction of the input slew.
func (t *Timer) GateDelay(cell core.CellID, rf core.RiseFall, inSlew, loadCap float64) (float64, float64) {
	cd := t.nl.cellAt(cell)
	delay := cd.intrinsicDelay + cd.driveRes*loadCap
	outSlew := 2*delay + 0.2*inSlew
	return delay, outSlew
}

func (t *Timer) Level(pin core.PinID) int {
	if t.levels == nil {
		t.levels = make(map[core.PinID]int)
	}
	return t.levelOf(pin, make(map[core.PinID]bool))
}

func (t *Timer) levelOf(pin core.PinID, visiting map[core.PinID]bool) int {
	if lv, ok := t.levels[pin]; ok {
		return lv
	}
	if visiting[pin] {
		return 0 // combinational loop guard; never expected in a valid design
	}
	visiting[pin] = true
	best := -1
	for _, fin := range t.Fanins(pin) {
		if lv := t.levelOf(fin, visiting); lv > best {
			best = lv
		}
	}
	lv := best + 1
	t.levels[pin] = lv
	return lv
}

func (t *Timer) IsConstant(pin core.PinID) bool {
	net, ok := t.nl.PinNet(pin)
	if !ok {
		return false
	}
	for _, d := range t.nl.Drivers(net) {
		if inst, ok := t.nl.PinInstance(d); ok && t.nl.IsFuncOneZero(t.nl.InstanceCell(inst)) {
			return true
		}
	}
	return false
}

func (t *Timer) IsClock(net core.NetID) bool { return t.clockNets[net] }

func (t *Timer) VertexSlack(pin core.PinID, mm core.MinMax) float64 {
	if mm == core.Min {
		rf := t.slackMin[pin]
		return math.Min(rf[0], rf[1])
	}
	rf := t.slackMax[pin]
	return math.Min(rf[0], rf[1])
}

func (t *Timer) VertexSlacks(pin core.PinID) core.Slacks4 {
	min, max := t.slackMin[pin], t.slackMax[pin]
	return core.Slacks4{
		Rise: [2]float64{min[0], max[0]},
		Fall: [2]float64{min[1], max[1]},
	}
}

func defaultLimitCheck() core.LimitCheck {
	return core.LimitCheck{Value: 0, Limit: math.Inf(1), Slack: math.Inf(1)}
}

func (t *Timer) CheckSlew(pin core.PinID) core.LimitCheck {
	if c, ok := t.slewLimit[pin]; ok {
		return c
	}
	return defaultLimitCheck()
}

func (t *Timer) CheckCapacitance(pin core.PinID) core.LimitCheck {
	if c, ok := t.capLimit[pin]; ok {
		return c
	}
	return defaultLimitCheck()
}

func (t *Timer) CheckFanout(pin core.PinID) core.LimitCheck {
	if c, ok := t.fanoutLimit[pin]; ok {
		return c
	}
	return defaultLimitCheck()
}

func (t *Timer) EquivCells(cell core.CellID) []core.CellID {
	return append([]core.CellID{}, t.equiv[cell]...)
}

// MakeEquivCells is a no-op: the fake harness always uses explicitly
// test-registered equivalence sets (SetEquivCells) rather than deriving
// them from liberty function hashes, since this harness never loads a
// real liberty library.
func (t *Timer) MakeEquivCells(libs []core.LibID) {}

func (t *Timer) Fanins(pin core.PinID) []core.PinID {
	inst, ok := t.nl.PinInstance(pin)
	if !ok {
		return nil
	}
	var out []core.PinID
	for _, p := range t.nl.InstancePins(inst) {
		if t.nl.PinDirection(p) != core.DirInput {
			continue
		}
		net, ok := t.nl.PinNet(p)
		if !ok {
			continue
		}
		out = append(out, t.nl.Drivers(net)...)
	}
	return out
}

func (t *Timer) Fanouts(pin core.PinID) []core.PinID {
	net, ok := t.nl.PinNet(pin)
	if !ok {
		return nil
	}
	var out []core.PinID
	for _, load := range t.nl.NetPins(net) {
		if load == pin || !t.nl.IsLoad(load) {
			continue
		}
		inst, ok := t.nl.PinInstance(load)
		if !ok {
			continue
		}
		for _, p := range t.nl.InstancePins(inst) {
			if t.nl.PinDirection(p) == core.DirOutput {
				out = append(out, p)
			}
		}
	}
	return out
}

func (t *Timer) ClockLeafDrivers() []core.PinID { return append([]core.PinID{}, t.clockLeafDrivers...) }
func (t *Timer) IsRegisterClockPin(pin core.PinID) bool { return t.registerClockPins[pin] }
func (t *Timer) Endpoints() []core.PinID                { return append([]core.PinID{}, t.endpoints...) }

func (t *Timer) BufferSelfDelay(cell core.CellID) float64 {
	return t.nl.cellAt(cell).intrinsicDelay
}
