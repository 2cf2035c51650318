package core

import (
	"fmt"
	"math"

	"github.com/vic/rsz/pkg/geom"
)

const repairLengthMargin = 0.05

// netLimits is the per-net bound set the Steiner walker enforces: max
// capacitance and max fanout come from TIMER's limit checks on the
// driver pin, max length is the caller's configured budget.
type netLimits struct {
	maxCap    float64
	maxFanout float64
	maxLength float64 // meters
}

// repairAccum is the (wire_length, pin_cap, fanout, load_pins) tuple the
// Steiner walk merges post-order, from leaves back up toward the driver.
type repairAccum struct {
	wireLength float64 // meters accumulated since the last repeater
	pinCap     float64 // farads accumulated since the last repeater
	fanout     int
	loadPins   []PinID
}

func mergeAccum(a, b repairAccum) repairAccum {
	loadPins := make([]PinID, 0, len(a.loadPins)+len(b.loadPins))
	loadPins = append(loadPins, a.loadPins...)
	loadPins = append(loadPins, b.loadPins...)
	return repairAccum{
		wireLength: a.wireLength + b.wireLength,
		pinCap:     a.pinCap + b.pinCap,
		fanout:     a.fanout + b.fanout,
		loadPins:   loadPins,
	}
}

// accumPressure is the highest fraction-of-limit across the three axes;
// > 1 means some axis is in violation.
func accumPressure(a repairAccum, lim netLimits) float64 {
	p := 0.0
	if lim.maxLength > 0 {
		p = math.Max(p, a.wireLength/lim.maxLength)
	}
	if lim.maxCap > 0 {
		p = math.Max(p, a.pinCap/lim.maxCap)
	}
	if lim.maxFanout > 0 {
		p = math.Max(p, float64(a.fanout)/lim.maxFanout)
	}
	return p
}

func edgeLengths(tree SteinerTree) map[[2]SteinerPtID]int64 {
	m := make(map[[2]SteinerPtID]int64, tree.NumBranches()*2)
	for i := 0; i < tree.NumBranches(); i++ {
		b := tree.Branch(i)
		m[[2]SteinerPtID{b.P1, b.P2}] = b.LengthDBU
		m[[2]SteinerPtID{b.P2, b.P1}] = b.LengthDBU
	}
	return m
}

func totalWireLengthMeters(tree SteinerTree, dbuPerMicron geom.DbuPerMicron) float64 {
	var total int64
	for i := 0; i < tree.NumBranches(); i++ {
		total += tree.Branch(i).LengthDBU
	}
	return geom.LengthMeters(total, dbuPerMicron)
}

// repairWalker holds the state of one repairNet call: the tree being
// walked, its per-net limits, and the repeater cell to insert. Kept
// scoped to a single net, discarded on return (design note "scoped
// resources").
type repairWalker struct {
	c            *Core
	net          NetID
	tree         SteinerTree
	lim          netLimits
	repeaterCell CellID
	edges        map[[2]SteinerPtID]int64
	results      map[SteinerPtID]repairAccum
}

type walkFrame struct {
	pt       SteinerPtID
	prevPt   SteinerPtID
	childIdx int
	leftAcc  repairAccum
	rightAcc repairAccum
}

// walk runs the iterative, explicit-stack post-order traversal from the
// driver point outward. Recursion is avoided deliberately: Steiner trees
// can be thousands of points deep on large designs (design note
// "recursion depth").
func (w *repairWalker) walk() (repairAccum, error) {
	root := w.tree.DriverPt()
	stack := []*walkFrame{{pt: root, prevPt: NullSteinerPt}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]

		if f.childIdx == 0 {
			f.childIdx = 1
			if left := w.tree.Left(f.pt); left != NullSteinerPt {
				stack = append(stack, &walkFrame{pt: left, prevPt: f.pt})
				continue
			}
		}
		if f.childIdx == 1 {
			if left := w.tree.Left(f.pt); left != NullSteinerPt {
				f.leftAcc = w.results[left]
				delete(w.results, left)
			}
			f.childIdx = 2
			if right := w.tree.Right(f.pt); right != NullSteinerPt {
				stack = append(stack, &walkFrame{pt: right, prevPt: f.pt})
				continue
			}
		}
		if right := w.tree.Right(f.pt); right != NullSteinerPt {
			f.rightAcc = w.results[right]
			delete(w.results, right)
		}

		merged, err := w.mergeChildren(f)
		if err != nil {
			return repairAccum{}, err
		}
		merged = mergeAccum(merged, w.pointBase(f.pt))

		if f.prevPt != NullSteinerPt {
			segLen := w.edges[[2]SteinerPtID{f.pt, f.prevPt}]
			merged, err = w.walkSegment(f.pt, f.prevPt, segLen, merged)
			if err != nil {
				return repairAccum{}, err
			}
		}

		w.results[f.pt] = merged
		stack = stack[:len(stack)-1]
	}

	return w.results[root], nil
}

// mergeChildren implements the "insert a repeater at the current point on
// the higher-of-(cap,length,fanout) child" rule: pick whichever child's
// accumulation is under more pressure, repair it in place if it already
// violates a limit, then merge both children together.
func (w *repairWalker) mergeChildren(f *walkFrame) (repairAccum, error) {
	haveLeft := w.tree.Left(f.pt) != NullSteinerPt
	haveRight := w.tree.Right(f.pt) != NullSteinerPt

	switch {
	case haveLeft && haveRight:
		heavy, light := f.leftAcc, f.rightAcc
		if accumPressure(f.rightAcc, w.lim) > accumPressure(f.leftAcc, w.lim) {
			heavy, light = f.rightAcc, f.leftAcc
		}
		if accumPressure(heavy, w.lim) > 1 {
			var err error
			heavy, err = w.insertRepeater(heavy, w.tree.Location(f.pt))
			if err != nil {
				return repairAccum{}, err
			}
		}
		return mergeAccum(heavy, light), nil
	case haveLeft:
		return f.leftAcc, nil
	case haveRight:
		return f.rightAcc, nil
	default:
		return repairAccum{}, nil
	}
}

// pointBase is the leaf contribution of pt itself: a load pin's own input
// capacitance, or nothing for a bare Steiner branch point / the driver.
func (w *repairWalker) pointBase(pt SteinerPtID) repairAccum {
	pin, ok := w.tree.Pin(pt)
	if !ok || !w.c.nl.IsLoad(pin) {
		return repairAccum{}
	}
	inst, ok := w.c.nl.PinInstance(pin)
	if !ok {
		return repairAccum{fanout: 1, loadPins: []PinID{pin}}
	}
	cap := w.c.nl.PortCap(w.c.nl.InstanceCell(inst), w.c.nl.PinPort(pin))
	return repairAccum{pinCap: cap, fanout: 1, loadPins: []PinID{pin}}
}

// walkSegment walks backward from pt towards prevPt (the parent, nearer
// the driver), inserting repeaters whenever the cumulative wire length or
// pin capacitance since the last repeater crosses its limit. Each
// repeater sits at buf_dist = length - (wire_length - bound*(1-margin))
// measured from pt, matching the design's repeater placement formula.
func (w *repairWalker) walkSegment(pt, prevPt SteinerPtID, segLenDBU int64, merged repairAccum) (repairAccum, error) {
	dbuPerMicron := w.c.nl.GetDbUnitsPerMicron()
	totalLen := geom.LengthMeters(segLenDBU, dbuPerMicron)
	if totalLen <= 0 {
		return merged, nil
	}

	wireCap := w.c.wireRC.Cap
	if w.c.timer.IsClock(w.net) {
		wireCap = w.c.wireRC.ClkCap
	}

	ptLoc := w.tree.Location(pt)
	prevLoc := w.tree.Location(prevPt)

	acc := merged
	consumed := 0.0
	remaining := totalLen

	for {
		stepCap := wireCap * remaining
		candLen := acc.wireLength + remaining
		candCap := acc.pinCap + stepCap

		overLen := w.lim.maxLength > 0 && candLen > w.lim.maxLength
		overCap := w.lim.maxCap > 0 && candCap > w.lim.maxCap
		if !overLen && !overCap {
			acc.wireLength = candLen
			acc.pinCap = candCap
			return acc, nil
		}

		bound := w.lim.maxLength
		if overCap && wireCap > 0 {
			capBound := (w.lim.maxCap - acc.pinCap) / wireCap
			if !overLen || capBound < bound {
				bound = capBound
			}
		}
		budget := bound*(1-repairLengthMargin) - acc.wireLength
		if budget < 0 {
			budget = 0
		}
		if budget > remaining {
			budget = remaining
		}
		bufDist := consumed + budget

		frac := 0.0
		if totalLen > 0 {
			frac = bufDist / totalLen
		}
		at := geom.Point{
			X: ptLoc.X + int64(frac*float64(prevLoc.X-ptLoc.X)),
			Y: ptLoc.Y + int64(frac*float64(prevLoc.Y-ptLoc.Y)),
		}

		next, err := w.insertRepeater(acc, at)
		if err != nil {
			return repairAccum{}, err
		}
		// A real insertion returns the new repeater's own input pin as the
		// only load; a declined one returns acc unchanged.
		declined := len(next.loadPins) == len(acc.loadPins) &&
			(len(acc.loadPins) == 0 || next.loadPins[0] == acc.loadPins[0])
		if declined {
			// insertRepeater declined the placement (outside the core);
			// accept the violation rather than loop forever.
			acc.wireLength = candLen
			acc.pinCap = candCap
			return acc, nil
		}
		acc = next

		consumed = bufDist
		remaining = totalLen - consumed
		if remaining <= 0 {
			return acc, nil
		}
	}
}

// insertRepeater is makeRepeater: split the current accumulation's load
// pins onto a fresh net driven by a new repeater instance, leaving the
// original net carrying only the path back to the driver. Skipped
// (returns acc unchanged) if at falls outside the core rectangle -- the
// degenerate-geometry rule never forces an out-of-core placement.
func (w *repairWalker) insertRepeater(acc repairAccum, at geom.Point) (repairAccum, error) {
	c := w.c
	coreRect := c.nl.GetCoreArea()
	if !coreRect.Empty() && !coreRect.Contains(at) {
		return acc, nil
	}

	cellName := c.nl.CellName(w.repeaterCell)
	instName := c.makeUniqueInstName(cellName, true)
	inst := c.createInstance(instName, w.repeaterCell, at)

	newNetName := c.makeUniqueNetName()
	newNet := c.nl.MakeNet(newNetName)
	for _, pin := range acc.loadPins {
		c.nl.Reconnect(pin, newNet)
	}

	inPort, outPort := c.nl.BufferPorts(w.repeaterCell)
	inPin := c.nl.ConnectPin(inst, inPort, w.net)
	outPin := c.nl.ConnectPin(inst, outPort, newNet)

	c.timer.DeleteParasitics(w.net)
	c.counters.InsertedBufferCount++
	c.log.Debug("insert_repeater", "net", w.net, "buffer", instName)

	if err := c.resizeOneDriver(outPin); err != nil {
		return repairAccum{}, err
	}

	inCap := c.nl.PortCap(w.repeaterCell, inPort)
	return repairAccum{pinCap: inCap, fanout: 1, loadPins: []PinID{inPin}}, nil
}

// repairOneNet runs the Steiner walk for a single net if it is eligible
// (not special, and clock-eligibility matching wantClock), resizing its
// driver afterward to match the repaired load. Shared by RepairDesign,
// RepairClkNets, and the public single-net RepairNet entry point.
func (c *Core) repairOneNet(net NetID, maxLengthMeters float64, repeaterCell CellID, wantClock bool) (bool, error) {
	if c.nl.IsSpecial(net) {
		return false, nil
	}
	isClock := c.timer.IsClock(net)
	if isClock != wantClock {
		return false, nil
	}

	drivers := c.nl.Drivers(net)
	if len(drivers) == 0 {
		return false, nil
	}
	pin := drivers[0]
	if inst, ok := c.nl.PinInstance(pin); ok && c.nl.IsFuncOneZero(c.nl.InstanceCell(inst)) {
		return false, nil
	}

	tree, err := c.steiner.MakeSteinerTree(net, true)
	if err != nil {
		return false, internalErrorf("repairNet", "steiner tree for net %d: %v", net, err)
	}

	capChk := c.timer.CheckCapacitance(pin)
	fanoutChk := c.timer.CheckFanout(pin)
	slewChk := c.timer.CheckSlew(pin)
	length := totalWireLengthMeters(tree, c.nl.GetDbUnitsPerMicron())

	if !capChk.Violated() && !fanoutChk.Violated() && !slewChk.Violated() && length <= maxLengthMeters {
		return false, nil
	}

	lim := netLimits{maxCap: capChk.Limit, maxFanout: fanoutChk.Limit, maxLength: maxLengthMeters}
	w := &repairWalker{
		c: c, net: net, tree: tree, lim: lim, repeaterCell: repeaterCell,
		edges: edgeLengths(tree), results: map[SteinerPtID]repairAccum{},
	}
	if _, err := w.walk(); err != nil {
		return false, err
	}
	if err := c.resizeOneDriver(pin); err != nil {
		return false, err
	}
	return true, nil
}

// RepairNet runs net repair on exactly one net, regardless of whether it
// is a clock net -- the single-net public entry point.
func (c *Core) RepairNet(net NetID, maxLengthMeters float64, repeaterCell CellID) (Stats, error) {
	if !c.nl.IsBuffer(repeaterCell) {
		return Stats{}, configErrorf("repairNet: cell is not a buffer")
	}
	isClock := c.timer.IsClock(net)
	if _, err := c.repairOneNet(net, maxLengthMeters, repeaterCell, isClock); err != nil {
		return Stats{}, err
	}
	return c.GetStats(), nil
}

// RepairDesign walks every non-clock driver in reverse level order,
// repairing any net whose driver pin violates max_cap/max_fanout/max_slew
// or whose total wire length exceeds maxLengthMeters.
func (c *Core) RepairDesign(maxLengthMeters float64, repeaterCell CellID) (Stats, error) {
	return c.repairDesignPass(maxLengthMeters, repeaterCell, false)
}

// RepairClkNets is RepairDesign's clock-net counterpart, for use ahead of
// clock-tree synthesis once the clock network has been built.
func (c *Core) RepairClkNets(maxLengthMeters float64, repeaterCell CellID) (Stats, error) {
	c.timer.EnsureClkNetwork()
	return c.repairDesignPass(maxLengthMeters, repeaterCell, true)
}

func (c *Core) repairDesignPass(maxLengthMeters float64, repeaterCell CellID, wantClock bool) (Stats, error) {
	if !c.nl.IsBuffer(repeaterCell) {
		return Stats{}, configErrorf("repairDesign: cell is not a buffer")
	}
	c.log.Info("repair_design: start", "clock", wantClock)
	c.timer.EnsureGraph()
	c.timer.FindRequireds()
	c.timer.DelaysInvalid()
	c.timer.ArrivalsInvalid()

	before := c.counters.InsertedBufferCount
	nets := 0
	for _, pin := range c.driversDescending() {
		if c.areaExceeded() {
			c.log.Warn("repair_design: max utilization reached")
			break
		}
		net, ok := c.nl.PinNet(pin)
		if !ok || !net.Valid() {
			continue
		}
		repaired, err := c.repairOneNet(net, maxLengthMeters, repeaterCell, wantClock)
		if err != nil {
			return Stats{}, err
		}
		if repaired {
			nets++
		}
	}

	stats := c.GetStats()
	buffers := stats.InsertedBufferCount - before
	fmt.Printf("Inserted %d buffers in %d nets.\n", buffers, nets)
	c.log.Info("repair_design: done", "nets", nets, "buffers", buffers)
	return stats, nil
}
