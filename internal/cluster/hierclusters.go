package cluster

import (
	"github.com/JiancunWang/klayout/pkg/dsscollections"
	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/pkg/geom"
)

// ClusterID identifies one connected cluster within a single cell. IDs are
// only meaningful together with the cell they were produced for.
type ClusterID int

// ShapeInst pairs a shape with the layer it was taken from.
type ShapeInst struct {
	Layer dsslayout.LayerID
	Shape geom.Shape
}

// connection records that a cluster includes, at one child instance
// placement, the geometry of a whole cluster of a child cell.
type connection struct {
	childCell    dsslayout.CellIndex
	trans        geom.Transform
	childCluster ClusterID
}

type clusterNode struct {
	own         []ShapeInst
	connections []connection
	layers      map[dsslayout.LayerID]bool
	bbox        geom.Box
	hasBBox     bool
}

func newClusterNode() *clusterNode {
	return &clusterNode{layers: make(map[dsslayout.LayerID]bool)}
}

func (n *clusterNode) extendBBox(b geom.Box) {
	if b.IsEmpty() {
		return
	}
	if !n.hasBBox {
		n.bbox = b
		n.hasBBox = true
		return
	}
	n.bbox = geom.NewBox(
		geom.Point{X: minI64(n.bbox.P0.X, b.P0.X), Y: minI64(n.bbox.P0.Y, b.P0.Y)},
		geom.Point{X: maxI64(n.bbox.P1.X, b.P1.X), Y: maxI64(n.bbox.P1.Y, b.P1.Y)},
	)
}

func (n *clusterNode) absorb(other *clusterNode) {
	n.own = append(n.own, other.own...)
	n.connections = append(n.connections, other.connections...)
	for l := range other.layers {
		n.layers[l] = true
	}
	n.extendBBox(other.bbox)
}

func interact(conn *Connectivity, a, b *clusterNode) bool {
	for la := range a.layers {
		for lb := range b.layers {
			if conn.Interacts(la, lb) {
				return true
			}
		}
	}
	return false
}

// cellClusters is a union-find over the cluster nodes discovered within one
// cell: each own shape and each promoted child connection starts in its own
// singleton node, then nodes are merged as interactions are found.
type cellClusters struct {
	parent []int
	nodes  []*clusterNode
}

func (cc *cellClusters) newNode() ClusterID {
	id := ClusterID(len(cc.parent))
	cc.parent = append(cc.parent, int(id))
	cc.nodes = append(cc.nodes, newClusterNode())
	return id
}

func (cc *cellClusters) find(id ClusterID) ClusterID {
	i := int(id)
	for cc.parent[i] != i {
		cc.parent[i] = cc.parent[cc.parent[i]]
		i = cc.parent[i]
	}
	return ClusterID(i)
}

func (cc *cellClusters) union(a, b ClusterID) ClusterID {
	ra, rb := cc.find(a), cc.find(b)
	if ra == rb {
		return ra
	}
	cc.nodes[ra].absorb(cc.nodes[rb])
	cc.nodes[rb] = nil
	cc.parent[rb] = int(ra)
	return ra
}

func (cc *cellClusters) liveRoots() []ClusterID {
	var out []ClusterID
	for i := range cc.parent {
		if cc.parent[i] == i && cc.nodes[i] != nil {
			out = append(out, ClusterID(i))
		}
	}
	return out
}

// HierClusters builds, and holds, the per-cell cluster graph for one set of
// layers under one Connectivity across an entire cell hierarchy (spec
// section 4.4: "build hierarchical clusters of polygon references ... using
// the connectivity"). Built bottom-up: every cell's own local clusters are
// formed first, then each child instance's root clusters are promoted into
// the parent as candidate clusters and merged wherever they interact with
// the parent's own geometry.
type HierClusters struct {
	layout      *dsslayout.Layout
	layers      []dsslayout.LayerID
	conn        *Connectivity
	perCell     map[dsslayout.CellIndex]*cellClusters
	connectedUp map[dsslayout.CellIndex]map[ClusterID]bool
}

// Build constructs the cluster graph for every cell reachable from top.
func Build(layout *dsslayout.Layout, top dsslayout.CellIndex, layers []dsslayout.LayerID, conn *Connectivity) *HierClusters {
	hc := &HierClusters{
		layout:      layout,
		layers:      layers,
		conn:        conn,
		perCell:     make(map[dsslayout.CellIndex]*cellClusters),
		connectedUp: make(map[dsslayout.CellIndex]map[ClusterID]bool),
	}
	for _, idx := range postOrder(layout, top) {
		hc.buildCell(idx)
	}
	return hc
}

func (hc *HierClusters) buildCell(idx dsslayout.CellIndex) {
	cc := &cellClusters{}
	hc.perCell[idx] = cc

	cell := hc.layout.Cell(idx)
	if cell == nil {
		return
	}

	for _, layer := range hc.layers {
		for _, sh := range cell.Shapes(layer) {
			id := cc.newNode()
			node := cc.nodes[id]
			node.own = append(node.own, ShapeInst{Layer: layer, Shape: sh})
			node.layers[layer] = true
			node.extendBBox(sh.BBox())
		}
	}

	for _, inst := range cell.Insts {
		childCC := hc.perCell[inst.CellIndex]
		if childCC == nil {
			continue
		}
		for _, rootID := range childCC.liveRoots() {
			childNode := childCC.nodes[rootID]
			id := cc.newNode()
			node := cc.nodes[id]
			node.connections = append(node.connections, connection{childCell: inst.CellIndex, trans: inst.Trans, childCluster: rootID})
			for l := range childNode.layers {
				node.layers[l] = true
			}
			node.extendBBox(inst.Trans.ApplyBox(childNode.bbox))
			hc.markConnectedUp(inst.CellIndex, rootID)
		}
	}

	mergeTouching(hc.conn, cc)
}

// mergeTouching repeatedly unions any two live clusters whose layers
// interact and whose bounding boxes touch, until no more merges are found.
// A bbox-touch test is a deliberately cheap over-approximation of true
// polygon adjacency (spec's original uses a proper interaction scan); this
// is adequate for the shapes local operations build out of DSS deliver.
func mergeTouching(conn *Connectivity, cc *cellClusters) {
	changed := true
	for changed {
		changed = false
		roots := cc.liveRoots()
		for i := 0; i < len(roots); i++ {
			for j := i + 1; j < len(roots); j++ {
				ra, rb := cc.find(roots[i]), cc.find(roots[j])
				if ra == rb {
					continue
				}
				na, nb := cc.nodes[ra], cc.nodes[rb]
				if na.hasBBox && nb.hasBBox && na.bbox.Touches(nb.bbox) && interact(conn, na, nb) {
					cc.union(ra, rb)
					changed = true
				}
			}
		}
	}
}

func (hc *HierClusters) markConnectedUp(cell dsslayout.CellIndex, id ClusterID) {
	m := hc.connectedUp[cell]
	if m == nil {
		m = make(map[ClusterID]bool)
		hc.connectedUp[cell] = m
	}
	m[id] = true
}

// ConnectedClusters is a view of one cell's clusters within a HierClusters.
type ConnectedClusters struct {
	hc   *HierClusters
	cell dsslayout.CellIndex
}

// ClustersPerCell returns the cluster view for one cell (spec section 6:
// "clusters_per_cell").
func (hc *HierClusters) ClustersPerCell(cell dsslayout.CellIndex) *ConnectedClusters {
	return &ConnectedClusters{hc: hc, cell: cell}
}

// AllIDs returns every top-level cluster id formed within this cell.
func (c *ConnectedClusters) AllIDs() []ClusterID {
	pc := c.hc.perCell[c.cell]
	if pc == nil {
		return nil
	}
	return pc.liveRoots()
}

// IsRoot reports whether this cluster has no upward connection to any
// parent cell (spec section 4.4: "clusters with no upward connection to a
// parent cell").
func (c *ConnectedClusters) IsRoot(id ClusterID) bool {
	return !c.hc.connectedUp[c.cell][id]
}

// ClusterShape is one shape reached while walking a cluster recursively,
// together with the transform that carries it from its own cell's frame
// into the frame of the cell the walk started from.
type ClusterShape struct {
	Layer dsslayout.LayerID
	Shape geom.Shape
	Trans geom.Transform
}

type walkFrame struct {
	cell  dsslayout.CellIndex
	id    ClusterID
	trans geom.Transform
}

// EachClusterShape walks every shape on layer belonging to cluster id of
// cell, including those reached through child-cell connections, calling fn
// once per shape with its accumulated transform into cell's frame (spec
// section 6: "recursive_cluster_shape_iterator"). Uses an explicit stack
// rather than recursion so cluster depth is not bounded by goroutine stack
// growth.
func (hc *HierClusters) EachClusterShape(layer dsslayout.LayerID, cell dsslayout.CellIndex, id ClusterID, fn func(ClusterShape)) {
	st := dsscollections.NewStack[walkFrame](8)
	st.Push(walkFrame{cell: cell, id: id, trans: geom.Identity()})

	for !st.IsEmpty() {
		fr, _ := st.Pop()
		pc := hc.perCell[fr.cell]
		if pc == nil {
			continue
		}
		node := pc.nodes[pc.find(fr.id)]
		if node == nil {
			continue
		}
		for _, si := range node.own {
			if si.Layer != layer {
				continue
			}
			fn(ClusterShape{Layer: layer, Shape: si.Shape.Transformed(fr.trans), Trans: fr.trans})
		}
		for _, c := range node.connections {
			st.Push(walkFrame{cell: c.childCell, id: c.childCluster, trans: fr.trans.Concat(c.trans)})
		}
	}
}

// postOrder returns every cell reachable from top, children before parents,
// each cell visited exactly once even if multiply instantiated. Built with
// an explicit frame stack instead of recursion (spec's ambient-stack choice
// of iterative hierarchy walks over recursive ones).
func postOrder(layout *dsslayout.Layout, top dsslayout.CellIndex) []dsslayout.CellIndex {
	visited := make(map[dsslayout.CellIndex]bool)
	queued := make(map[dsslayout.CellIndex]bool)
	var order []dsslayout.CellIndex

	type frame struct {
		cell dsslayout.CellIndex
		next int
	}
	st := dsscollections.NewStack[*frame](16)
	st.Push(&frame{cell: top})
	queued[top] = true

	for !st.IsEmpty() {
		fr, _ := st.Peek()
		cell := layout.Cell(fr.cell)
		if cell == nil || fr.next >= len(cell.Insts) {
			st.Pop()
			if !visited[fr.cell] {
				visited[fr.cell] = true
				order = append(order, fr.cell)
			}
			continue
		}
		child := cell.Insts[fr.next].CellIndex
		fr.next++
		if !visited[child] && !queued[child] {
			queued[child] = true
			st.Push(&frame{cell: child})
		}
	}
	return order
}

// ReachableCells returns every cell index reachable from top, including
// top itself, in unspecified order (spec section 4.4: "collect the set C of
// all cells reachable from cell").
func ReachableCells(layout *dsslayout.Layout, top dsslayout.CellIndex) []dsslayout.CellIndex {
	return postOrder(layout, top)
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
