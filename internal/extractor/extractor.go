// Package extractor implements the device extraction driver: given a set of
// deep layers sharing one working layout and initial cell, it clusters their
// geometry hierarchically, materializes per-cell device regions, and calls
// into extractor-specific hooks to turn those regions into Devices attached
// to a Netlist (spec section 4.4: "DeviceExtractor driver"). Concrete
// extractors (e.g. a MOS transistor extractor) implement the Hooks
// interface; Driver supplies everything else, the way the teacher's
// analyzer package splits BaseAnalyzer (shared machinery) from the
// per-profiler Analyzer implementations.
package extractor

import (
	"strconv"

	"github.com/JiancunWang/klayout/internal/cluster"
	"github.com/JiancunWang/klayout/internal/dss"
	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/internal/netlist"
	"github.com/JiancunWang/klayout/pkg/dsserrors"
	"github.com/JiancunWang/klayout/pkg/geom"
)

// Region is the per-layer shape bag extract() materializes for one root
// cluster before handing it to ExtractDevices (spec section 4.4, step 3:
// "materialize one Region per input layer ... Pass the vector of regions to
// extract_devices").
type Region struct {
	Layer  dsslayout.LayerID
	Shapes []geom.Shape
}

// Insert appends a shape to the region.
func (r *Region) Insert(s geom.Shape) {
	r.Shapes = append(r.Shapes, s)
}

// Hooks is the subclass extension-point set spec section 4.4 names:
// create_device_classes, get_connectivity and extract_devices.
type Hooks interface {
	// CreateDeviceClasses registers every device class this extractor can
	// produce via d.RegisterDeviceClass, called once from Initialize.
	CreateDeviceClasses(d *Driver)
	// GetConnectivity returns the layer connectivity extract uses to build
	// device clusters over layers.
	GetConnectivity(layout *dsslayout.Layout, layers []dsslayout.LayerID) *cluster.Connectivity
	// ExtractDevices inspects one root cluster's materialized regions and
	// creates zero or more devices via d.CreateDevice/d.DefineTerminal*.
	ExtractDevices(d *Driver, layerGeometry []*Region)
}

// Driver runs the extraction workflow described in spec section 4.4 and
// exposes the create_device/define_terminal primitives a Hooks
// implementation calls while extracting. It carries per-extraction state
// (current cell, current circuit) the way the original's member fields do;
// callers do not use a Driver from more than one goroutine concurrently,
// matching the store's own "caller serializes" concurrency contract.
type Driver struct {
	hooks Hooks

	netlist       *netlist.Netlist
	classes       []*netlist.DeviceClass
	deviceNameSeq int

	layout    *dsslayout.Layout
	layers    []dsslayout.LayerID
	cellIndex dsslayout.CellIndex
	circuit   *netlist.Circuit
}

// NewDriver creates a Driver bound to hooks. Call Initialize before Extract.
func NewDriver(hooks Hooks) *Driver {
	return &Driver{hooks: hooks}
}

// Initialize clears local state, stores the netlist, and calls
// create_device_classes (spec section 4.4, step 1).
func (d *Driver) Initialize(nl *netlist.Netlist) {
	d.netlist = nl
	d.classes = nil
	d.deviceNameSeq = 0
	d.hooks.CreateDeviceClasses(d)
}

// RegisterDeviceClass publishes and indexes a device class for later
// CreateDevice(classIndex) calls.
func (d *Driver) RegisterDeviceClass(dc *netlist.DeviceClass) int {
	d.netlist.AddDeviceClass(dc)
	d.classes = append(d.classes, dc)
	return len(d.classes) - 1
}

// CreateDevice creates a new, sequentially-named device of the given class
// within the circuit currently being extracted.
func (d *Driver) CreateDevice(classIndex int) (*netlist.Device, error) {
	if d.circuit == nil {
		return nil, dsserrors.New(dsserrors.CodeEmptyLayout, "create_device called outside extract")
	}
	if classIndex < 0 || classIndex >= len(d.classes) {
		return nil, dsserrors.ErrIndexOutOfRange
	}
	d.deviceNameSeq++
	dev := &netlist.Device{ID: d.deviceNameSeq, Name: strconv.Itoa(d.deviceNameSeq), Class: d.classes[classIndex]}
	d.circuit.AddDevice(dev)
	return dev, nil
}

// DefineTerminalPolygon inserts polygon as a terminal shape of device on the
// geometryIndex-th input layer, carrying the (device, terminal) property
// (spec section 4.4: "define_terminal contracts").
func (d *Driver) DefineTerminalPolygon(device *netlist.Device, terminalID, geometryIndex int, polygon geom.Polygon) error {
	if geometryIndex < 0 || geometryIndex >= len(d.layers) {
		return dsserrors.ErrIndexOutOfRange
	}
	layer := d.layers[geometryIndex]
	d.layout.AnnotateTerminal(d.cellIndex, layer, polygon, device.ID, terminalID)
	device.SetTerminal(terminalID, layer)
	return nil
}

// DefineTerminalBox is DefineTerminalPolygon for a box-shaped terminal.
func (d *Driver) DefineTerminalBox(device *netlist.Device, terminalID, geometryIndex int, box geom.Box) error {
	return d.DefineTerminalPolygon(device, terminalID, geometryIndex, box.AsPolygon())
}

// DefineTerminalPoint is DefineTerminalPolygon for a point-shaped terminal,
// replacing the point with a 2x2 dbu square centered on it so it survives
// rasterization (spec section 4.4).
func (d *Driver) DefineTerminalPoint(device *netlist.Device, terminalID, geometryIndex int, p geom.Point) error {
	b := geom.NewBox(geom.Point{X: p.X - 1, Y: p.Y - 1}, geom.Point{X: p.X + 1, Y: p.Y + 1})
	return d.DefineTerminalBox(device, terminalID, geometryIndex, b)
}

// ExtractFromRegions asserts every region is deep, shares one working
// layout and initial cell, and runs Extract over their layers (spec
// section 4.4, step 2).
func (d *Driver) ExtractFromRegions(store *dss.ShapeStore, regions []*dss.DeepLayer) error {
	if len(regions) == 0 {
		return dsserrors.New(dsserrors.CodeEmptyLayout, "extract requires at least one region")
	}

	layoutIdx := regions[0].LayoutIndex()
	for _, r := range regions[1:] {
		if r.LayoutIndex() != layoutIdx {
			return dsserrors.ErrNotSingular
		}
	}

	layout, err := store.Layout(layoutIdx)
	if err != nil {
		return err
	}
	cell, err := store.InitialCell(layoutIdx)
	if err != nil {
		return err
	}

	layers := make([]dsslayout.LayerID, len(regions))
	for i, r := range regions {
		layers[i] = r.LayerIndex()
	}

	return d.Extract(layout, cell, layers)
}

// Extract runs device extraction over layers within cell's subtree of
// layout, as described in spec section 4.4, step 3.
func (d *Driver) Extract(layout *dsslayout.Layout, cell dsslayout.CellIndex, layers []dsslayout.LayerID) error {
	if d.netlist == nil {
		return dsserrors.New(dsserrors.CodeEmptyLayout, "extract called before initialize")
	}

	d.layout = layout
	d.layers = layers

	conn := d.hooks.GetConnectivity(layout, layers)
	clusters := cluster.Build(layout, cell, layers, conn)

	for _, ci := range cluster.ReachableCells(layout, cell) {
		d.cellIndex = ci

		circuit, ok := d.netlist.CircuitByCell(ci)
		if !ok {
			circuit = netlist.NewCircuit()
			circuit.SetCellIndex(ci)
			if c := layout.Cell(ci); c != nil {
				circuit.SetName(c.Name)
			}
			d.netlist.AddCircuit(circuit)
		}
		d.circuit = circuit

		cc := clusters.ClustersPerCell(ci)
		for _, id := range cc.AllIDs() {
			if !cc.IsRoot(id) {
				continue
			}

			layerGeometry := make([]*Region, len(layers))
			for li, layer := range layers {
				region := &Region{Layer: layer}
				clusters.EachClusterShape(layer, ci, id, func(cs cluster.ClusterShape) {
					region.Insert(cs.Shape)
				})
				layerGeometry[li] = region
			}

			d.hooks.ExtractDevices(d, layerGeometry)
		}
	}

	return nil
}
