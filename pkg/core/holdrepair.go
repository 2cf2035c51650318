package core

import (
	"fmt"
	"math"
	"sort"

	"github.com/vic/rsz/pkg/geom"
)

// failingEndpoints filters endpoints to those with negative hold slack.
func (c *Core) failingEndpoints(endpoints []PinID) []PinID {
	var failing []PinID
	for _, e := range endpoints {
		if c.timer.VertexSlack(e, Min) < 0 {
			failing = append(failing, e)
		}
	}
	return failing
}

// faninCone walks backward from every failing endpoint via TIMER.Fanins,
// collecting every distinct non-clock driver vertex reached.
func (c *Core) faninCone(failing []PinID) []PinID {
	seen := make(map[PinID]bool)
	var cone []PinID
	queue := append([]PinID{}, failing...)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, fin := range c.timer.Fanins(p) {
			if seen[fin] {
				continue
			}
			seen[fin] = true
			if net, ok := c.nl.PinNet(fin); ok && c.timer.IsClock(net) {
				continue
			}
			cone = append(cone, fin)
			queue = append(queue, fin)
		}
	}
	return cone
}

// slackGap is min_over_rf(max_slack - min_slack), the tie-break between
// two fanins with identical hold slack.
func (c *Core) slackGap(pin PinID) float64 {
	s := c.timer.VertexSlacks(pin)
	riseGap := s.Rise[Max] - s.Rise[Min]
	fallGap := s.Fall[Max] - s.Fall[Min]
	return math.Min(riseGap, fallGap)
}

// sortConeByUrgency orders the fanin cone ascending by hold slack (worst
// first), then descending by slackGap, then descending by level.
func (c *Core) sortConeByUrgency(cone []PinID) {
	sort.Slice(cone, func(i, j int) bool {
		si := c.timer.VertexSlack(cone[i], Min)
		sj := c.timer.VertexSlack(cone[j], Min)
		if si != sj {
			return si < sj
		}
		gi, gj := c.slackGap(cone[i]), c.slackGap(cone[j])
		if gi != gj {
			return gi > gj
		}
		return c.timer.Level(cone[i]) > c.timer.Level(cone[j])
	})
}

func lerpPoint(a, b geom.Point, frac float64) geom.Point {
	return geom.Point{
		X: a.X + int64(frac*float64(b.X-a.X)),
		Y: a.Y + int64(frac*float64(b.Y-a.Y)),
	}
}

func centroid(nl Netlist, pins []PinID) geom.Point {
	var sumX, sumY int64
	for _, p := range pins {
		loc := nl.PinLocation(p)
		sumX += loc.X
		sumY += loc.Y
	}
	n := int64(len(pins))
	if n == 0 {
		return geom.Point{}
	}
	return geom.Point{X: sumX / n, Y: sumY / n}
}

// insertHoldBuffers chains n delay buffers in series between drvr's net
// and loads, spread at even intervals along drvr->centroid(loads), then
// reconnects every load onto the far end of the chain.
func (c *Core) insertHoldBuffers(drvr PinID, loads []PinID, n int, bufferCell CellID) error {
	net, ok := c.nl.PinNet(drvr)
	if !ok || !net.Valid() {
		return nil
	}

	driverLoc := c.nl.PinLocation(drvr)
	target := centroid(c.nl, loads)
	cellName := c.nl.CellName(bufferCell)
	inPort, outPort := c.nl.BufferPorts(bufferCell)

	cur := net
	for i := 1; i <= n; i++ {
		frac := float64(i) / float64(n+1)
		at := lerpPoint(driverLoc, target, frac)

		instName := c.makeUniqueInstName(cellName, true)
		inst := c.createInstance(instName, bufferCell, at)

		c.nl.ConnectPin(inst, inPort, cur)
		newNetName := c.makeUniqueNetName()
		newNet := c.nl.MakeNet(newNetName)
		c.nl.ConnectPin(inst, outPort, newNet)

		cur = newNet
		c.counters.InsertedBufferCount++
	}

	for _, load := range loads {
		c.nl.Reconnect(load, cur)
	}
	c.timer.DeleteParasitics(net)
	c.log.Debug("insert_hold_buffers", "driver", drvr, "count", n)
	return nil
}

// holdRepairPass runs one pass over the worst max(10, 0.2*|failing|)
// fanins in the failing cone, inserting delay buffers on each fanin's
// qualifying loads. Returns the number of buffers inserted.
func (c *Core) holdRepairPass(failing []PinID, bufferCell CellID, allowSetup bool) (int, error) {
	cone := c.faninCone(failing)
	if len(cone) == 0 {
		return 0, nil
	}
	c.sortConeByUrgency(cone)

	limit := int(0.2 * float64(len(failing)))
	if limit < 10 {
		limit = 10
	}
	if limit > len(cone) {
		limit = len(cone)
	}

	// selfDelay is the OUTER buffer_self_delay: the design's hold-repair
	// open question resolves the buffer_delay/buffer_delay self-division
	// by treating this outer, per-cell self-delay as the divisor and the
	// per-load minimum delay (D below) as the dividend.
	selfDelay := c.timer.BufferSelfDelay(bufferCell)

	inserted := 0
	for _, fin := range cone[:limit] {
		if c.areaExceeded() {
			break
		}

		var loads []PinID
		bestDelay := math.Inf(1)
		for _, load := range c.timer.Fanouts(fin) {
			holdSlack := c.timer.VertexSlack(load, Min)
			if holdSlack >= 0 {
				continue
			}
			var delay float64
			if allowSetup {
				delay = -holdSlack
			} else {
				setupSlack := c.timer.VertexSlack(load, Max)
				delay = math.Min(-holdSlack, setupSlack)
			}
			if delay <= 0 {
				continue
			}
			loads = append(loads, load)
			if delay < bestDelay {
				bestDelay = delay
			}
		}
		if len(loads) == 0 {
			continue
		}

		n := int(math.Ceil(bestDelay / selfDelay))
		if n < 1 {
			n = 1
		}
		if err := c.insertHoldBuffers(fin, loads, n, bufferCell); err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

// RepairHoldViolations repeatedly passes over endpoints' fanin cones,
// inserting delay buffers until no endpoint fails hold or a pass makes
// no progress (property 3: monotone progress).
func (c *Core) RepairHoldViolations(endpoints []PinID, bufferCell CellID, allowSetup bool) (Stats, error) {
	if !c.nl.IsBuffer(bufferCell) {
		return Stats{}, configErrorf("repairHoldViolations: cell is not a buffer")
	}
	c.log.Info("repair_hold: start")
	c.timer.FindRequireds()

	total := 0
	failing := c.failingEndpoints(endpoints)
	for len(failing) > 0 {
		if c.areaExceeded() {
			c.log.Warn("repair_hold: max utilization reached")
			break
		}
		progressed, err := c.holdRepairPass(failing, bufferCell, allowSetup)
		if err != nil {
			return Stats{}, err
		}
		total += progressed
		if progressed == 0 {
			break
		}
		c.timer.FindRequireds()
		failing = c.failingEndpoints(endpoints)
	}

	stats := c.GetStats()
	fmt.Printf("Inserted %d hold buffers.\n", total)
	c.log.Info("repair_hold: done", "buffers", total)
	return stats, nil
}

// RepairHoldViolationsAt is the explicit-single-endpoint variant.
func (c *Core) RepairHoldViolationsAt(endpoint PinID, bufferCell CellID, allowSetup bool) (Stats, error) {
	return c.RepairHoldViolations([]PinID{endpoint}, bufferCell, allowSetup)
}

// RepairHoldViolationsAll runs hold repair over every endpoint TIMER
// knows about -- the no-explicit-endpoint variant.
func (c *Core) RepairHoldViolationsAll(bufferCell CellID, allowSetup bool) (Stats, error) {
	return c.RepairHoldViolations(c.timer.Endpoints(), bufferCell, allowSetup)
}
