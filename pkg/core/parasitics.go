package core

import (
	"strconv"

	"github.com/vic/rsz/pkg/geom"
)

// parasiticNode is one node of the detailed pi-model network built while
// walking a Steiner tree: either a pin (the node is keyed by PinID) or an
// internal Steiner branch point (keyed by (net, steiner point)).
type parasiticNode struct {
	key string
	cap float64
}

type parasiticEdge struct {
	a, b string
	res  float64
}

// parasiticNetwork is the detailed, scratch RC graph built for exactly one
// net by estimateOneNet. It is reduced to a single Parasitic summary and
// then discarded -- it never outlives one call (design note: "scoped
// resources... created and destroyed within a single entry point").
type parasiticNetwork struct {
	nodes map[string]*parasiticNode
	edges []parasiticEdge
	adj   map[string][]int
}

func newParasiticNetwork() *parasiticNetwork {
	return &parasiticNetwork{
		nodes: make(map[string]*parasiticNode),
		adj:   make(map[string][]int),
	}
}

func (p *parasiticNetwork) node(key string) *parasiticNode {
	n, ok := p.nodes[key]
	if !ok {
		n = &parasiticNode{key: key}
		p.nodes[key] = n
	}
	return n
}

func (p *parasiticNetwork) addCap(key string, cap float64) {
	p.node(key).cap += cap
}

func (p *parasiticNetwork) addResistor(a, b string, res float64) {
	p.node(a)
	p.node(b)
	idx := len(p.edges)
	p.edges = append(p.edges, parasiticEdge{a: a, b: b, res: res})
	p.adj[a] = append(p.adj[a], idx)
	p.adj[b] = append(p.adj[b], idx)
}

// findParasiticNode resolves a Steiner point to its parasitic-graph key.
// If the point coincides with a pin, the key is the pin; otherwise it is
// the (net, steiner point) pair. Per the design's open question on
// findParasiticNode: an absent pin alias is treated identically to "no
// alias" -- both route the key through the steiner-point branch, never
// through a stale or partially-resolved pin handle.
func findParasiticNode(net NetID, tree SteinerTree, pt SteinerPtID) string {
	if pin, ok := tree.Pin(pt); ok {
		return "pin:" + strconv.FormatInt(int64(pin), 10)
	}
	return "net:" + strconv.FormatInt(int64(net), 10) + ":pt:" + strconv.FormatInt(int64(pt), 10)
}

const connectivityPlaceholderRes = 1e-3 // 1 mOhm, for a zero-length branch between distinct nodes

// estimateOneNet builds, reduces, and discards the detailed parasitic
// network for one net, leaving only the reduced Parasitic in TIMER.
// Nets with a top-level-port pin are skipped entirely: a pad's input
// capacitance would dominate the Elmore delay and the wire model adds
// nothing useful. Nets with no driver have no Steiner tree and are skipped
// too.
func (c *Core) estimateOneNet(net NetID) error {
	for _, pin := range c.nl.NetPins(net) {
		if c.nl.IsTopLevelPort(pin) {
			return nil
		}
	}
	if len(c.nl.Drivers(net)) == 0 {
		return nil
	}

	tree, err := c.steiner.MakeSteinerTree(net, true)
	if err != nil {
		return internalErrorf("estimateOneNet", "steiner tree for net %d: %v", net, err)
	}

	// isClock chooses the clock RC table directly from TIMER's predicate.
	// The design's open question flags a source inversion here
	// ("is_clk = !isClock(net)"); this implementation uses the direct
	// predicate, never the inverted one.
	isClock := c.timer.IsClock(net)
	res, cap := c.wireRC.Res, c.wireRC.Cap
	if isClock {
		res, cap = c.wireRC.ClkRes, c.wireRC.ClkCap
	}

	p := newParasiticNetwork()
	dbuPerMicron := c.nl.GetDbUnitsPerMicron()

	for i := 0; i < tree.NumBranches(); i++ {
		b := tree.Branch(i)
		k1 := findParasiticNode(net, tree, b.P1)
		k2 := findParasiticNode(net, tree, b.P2)

		if b.LengthDBU == 0 {
			if k1 != k2 {
				p.addResistor(k1, k2, connectivityPlaceholderRes)
			}
			continue
		}

		lengthMeters := geom.LengthMeters(b.LengthDBU, dbuPerMicron)
		halfCap := cap * lengthMeters / 2
		p.addCap(k1, halfCap)
		p.addCap(k2, halfCap)
		p.addResistor(k1, k2, res*lengthMeters)
	}

	driverKey := findParasiticNode(net, tree, tree.DriverPt())
	parasitic := reduceToPiElmore(p, driverKey)
	c.timer.SetParasitic(net, parasitic)
	return nil
}

// reduceToPiElmore collapses the detailed RC tree to a single (TotalCap,
// TotalRes) summary: TotalCap is the sum of every node's capacitance;
// TotalRes is the Elmore-delay-equivalent resistance seen from the driver,
// i.e. (Elmore delay at the driver) / TotalCap, where the Elmore delay at
// the driver is the sum over every node k of R_shared(driver,k) * C_k. For
// a tree, R_shared(driver,k) is just the resistance along the unique path
// from driver to k, so a single DFS accumulating path resistance and
// subtree capacitance computes it in one pass.
func reduceToPiElmore(p *parasiticNetwork, driverKey string) Parasitic {
	var totalCap float64
	for _, nd := range p.nodes {
		totalCap += nd.cap
	}
	if totalCap <= 0 {
		return Parasitic{TotalCap: 0, TotalRes: 0}
	}

	visited := make(map[string]bool, len(p.nodes))
	var elmoreSum float64

	type frame struct {
		key      string
		pathRes  float64
	}
	stack := []frame{{key: driverKey, pathRes: 0}}
	visited[driverKey] = true
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if nd, ok := p.nodes[f.key]; ok {
			elmoreSum += f.pathRes * nd.cap
		}
		for _, edgeIdx := range p.adj[f.key] {
			e := p.edges[edgeIdx]
			next := e.a
			if next == f.key {
				next = e.b
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			stack = append(stack, frame{key: next, pathRes: f.pathRes + e.res})
		}
	}

	return Parasitic{TotalCap: totalCap, TotalRes: elmoreSum / totalCap}
}

// ensureWireParasitic builds the parasitic model for drvrPin's net if
// TIMER doesn't already have one cached. Idempotent and safe to call
// lazily from any pass that needs an up-to-date load capacitance.
func (c *Core) ensureWireParasitic(drvrPin PinID) error {
	net, ok := c.nl.PinNet(drvrPin)
	if !ok {
		return nil
	}
	if c.nl.IsPower(net) || c.nl.IsGround(net) {
		return nil
	}
	if c.timer.HasParasitic(net) {
		return nil
	}
	return c.estimateOneNet(net)
}

// EstimateWireParasitics iterates every non-power/ground net in the design
// and (re)builds its parasitic model (driverless and top-level-port nets
// are skipped, see estimateOneNet). This is the bulk entry point; most
// callers instead rely on ensureWireParasitic's lazy, per-net path.
func (c *Core) EstimateWireParasitics() error {
	c.log.Info("estimate_wire_parasitics: start")
	count := 0
	for _, net := range c.nl.AllNets() {
		if c.nl.IsPower(net) || c.nl.IsGround(net) {
			continue
		}
		if err := c.estimateOneNet(net); err != nil {
			return err
		}
		count++
	}
	c.haveEstimatedParasitics = true
	c.log.Info("estimate_wire_parasitics: done", "nets", count)
	return nil
}
