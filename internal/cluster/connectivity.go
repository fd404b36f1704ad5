// Package cluster implements the hierarchical cluster engine device
// extraction and the local-operations family build on: given a set of
// layers and a Connectivity describing which layer pairs interact, it groups
// touching shapes into clusters across the whole cell hierarchy, reporting
// which clusters are "root" (no upward connection into a parent cell) and
// letting callers walk a cluster's shapes with their accumulated transform
// (spec sections 4.4 and 6, "hier_clusters<Shape> + connected_clusters +
// recursive_cluster_shape_iterator").
package cluster

import "github.com/JiancunWang/klayout/internal/dsslayout"

// Connectivity records which layers interact with which, symmetric by
// construction. Two shapes are considered for clustering only if their
// layers are connected here (spec section 6, "Connectivity: layer-pair
// adjacency used to drive clustering").
type Connectivity struct {
	pairs map[layerPair]bool
}

type layerPair struct {
	a, b dsslayout.LayerID
}

func makePair(a, b dsslayout.LayerID) layerPair {
	if a > b {
		a, b = b, a
	}
	return layerPair{a: a, b: b}
}

// NewConnectivity creates an empty connectivity graph.
func NewConnectivity() *Connectivity {
	return &Connectivity{pairs: make(map[layerPair]bool)}
}

// Connect declares that layer interacts with itself: shapes on the same
// layer cluster together when they touch.
func (c *Connectivity) Connect(layer dsslayout.LayerID) {
	c.pairs[makePair(layer, layer)] = true
}

// ConnectLayers declares that shapes on a and b cluster together when they
// touch. Symmetric: ConnectLayers(a, b) and ConnectLayers(b, a) are
// equivalent.
func (c *Connectivity) ConnectLayers(a, b dsslayout.LayerID) {
	c.pairs[makePair(a, b)] = true
}

// Interacts reports whether layers a and b are connected.
func (c *Connectivity) Interacts(a, b dsslayout.LayerID) bool {
	return c.pairs[makePair(a, b)]
}
