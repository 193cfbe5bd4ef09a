package solver

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

const eps = 1e-9

var errNegativeCycle = errors.New("negative cycle in residual network")

type arc struct {
	to     int
	cap    int
	flow   int
	cost   float64
	forced bool
}

// network is a min-cost flow network. Arc 2k is a forward arc and 2k+1 its
// residual twin; lower bounds are modelled as forced arcs carrying a large
// negative cost.
type network struct {
	arcs []arc
	out  [][]int
	big  float64
}

const (
	source = 0
	sink   = 1
)

func newNetwork(big float64) *network {
	return &network{out: make([][]int, 2), big: big}
}

func (n *network) addNode() int {
	n.out = append(n.out, nil)
	return len(n.out) - 1
}

func (n *network) addArc(from, to, capacity int, cost float64, forced bool) int {
	if forced {
		cost -= n.big
	}
	id := len(n.arcs)
	n.arcs = append(n.arcs,
		arc{to: to, cap: capacity, cost: cost, forced: forced},
		arc{to: from, cap: 0, cost: -cost},
	)
	n.out[from] = append(n.out[from], id)
	n.out[to] = append(n.out[to], id+1)
	return id
}

func (n *network) residualCap(id int) int {
	if id%2 == 0 {
		return n.arcs[id].cap - n.arcs[id].flow
	}
	return n.arcs[id-1].flow
}

func (n *network) push(id, units int) {
	if id%2 == 0 {
		n.arcs[id].flow += units
	} else {
		n.arcs[id-1].flow -= units
	}
}

// saturated reports whether every forced arc carries its full capacity.
func (n *network) saturated() bool {
	for k := 0; k < len(n.arcs); k += 2 {
		if a := n.arcs[k]; a.forced && a.flow != a.cap {
			return false
		}
	}
	return true
}

// minCostFlow augments along successive shortest paths until no path with
// negative cost remains.
func (n *network) minCostFlow() error {
	for {
		r := n.residual()
		sp, ok := path.BellmanFordFrom(simple.Node(source), r)
		if !ok {
			return errNegativeCycle
		}
		nodes, w := sp.To(sink)
		if len(nodes) < 2 || w > -eps {
			return nil
		}
		route := make([]int, 0, len(nodes)-1)
		units := math.MaxInt
		for k := 1; k < len(nodes); k++ {
			id := r.arc[edgeKey{nodes[k-1].ID(), nodes[k].ID()}]
			route = append(route, id)
			units = min(units, n.residualCap(id))
		}
		for _, id := range route {
			n.push(id, units)
		}
	}
}

func (n *network) residual() *residualGraph {
	r := &residualGraph{
		from: make([][]graph.Node, len(n.out)),
		arc:  make(map[edgeKey]int),
		arcs: n.arcs,
	}
	for u, ids := range n.out {
		for _, id := range ids {
			if n.residualCap(id) <= 0 {
				continue
			}
			key := edgeKey{int64(u), int64(n.arcs[id].to)}
			prev, seen := r.arc[key]
			if !seen {
				r.from[u] = append(r.from[u], simple.Node(key.v))
			} else if n.arcs[prev].cost <= n.arcs[id].cost {
				continue
			}
			r.arc[key] = id
		}
	}
	return r
}

type edgeKey struct{ u, v int64 }

// residualGraph is a read-only view of the arcs with spare capacity. Its
// iteration order is fixed so shortest paths, and hence solutions, are
// reproducible.
type residualGraph struct {
	from [][]graph.Node
	arc  map[edgeKey]int
	arcs []arc
}

func (r *residualGraph) Node(id int64) graph.Node {
	if id < 0 || id >= int64(len(r.from)) {
		return nil
	}
	return simple.Node(id)
}

func (r *residualGraph) Nodes() graph.Nodes {
	nodes := make([]graph.Node, len(r.from))
	for i := range nodes {
		nodes[i] = simple.Node(i)
	}
	return iterator.NewOrderedNodes(nodes)
}

func (r *residualGraph) From(id int64) graph.Nodes {
	if id < 0 || id >= int64(len(r.from)) || len(r.from[id]) == 0 {
		return graph.Empty
	}
	return iterator.NewOrderedNodes(r.from[id])
}

func (r *residualGraph) HasEdgeBetween(xid, yid int64) bool {
	_, a := r.arc[edgeKey{xid, yid}]
	_, b := r.arc[edgeKey{yid, xid}]
	return a || b
}

func (r *residualGraph) Edge(uid, vid int64) graph.Edge {
	id, ok := r.arc[edgeKey{uid, vid}]
	if !ok {
		return nil
	}
	return simple.WeightedEdge{F: simple.Node(uid), T: simple.Node(vid), W: r.arcs[id].cost}
}

func (r *residualGraph) Weight(xid, yid int64) (float64, bool) {
	if xid == yid {
		return 0, true
	}
	id, ok := r.arc[edgeKey{xid, yid}]
	if !ok {
		return math.Inf(1), false
	}
	return r.arcs[id].cost, true
}
