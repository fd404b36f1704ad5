// Package netlist implements the small netlist model the device extractor
// populates: a Netlist holding DeviceClasses and Circuits, each Circuit
// holding the Devices extracted from one cell (spec section 6: "Netlist,
// Circuit, Device, DeviceClass: netlist model with add_circuit,
// add_device_class, add_device, set_cell_index, set_name").
package netlist

import (
	"sync"

	"github.com/JiancunWang/klayout/internal/dsslayout"
)

// DeviceClass names one family of devices a DeviceExtractor can produce
// (e.g. "NMOS", "Resistor"). Extractors register these during
// create_device_classes before any extraction runs.
type DeviceClass struct {
	Name string
}

// Device is one extracted component, belonging to exactly one Circuit and
// naming the DeviceClass it was created from.
type Device struct {
	ID    int
	Name  string
	Class *DeviceClass

	terminals map[int]Terminal
}

// Terminal records the layer on which one named pin of a Device was
// materialized. The property id is not stored here; it lives on the shapes
// (spec section 4.4: define_terminal's "(device_id, terminal_id)" encoding,
// carried by dsslayout.Layout.AnnotateTerminal under property-name id 0).
type Terminal struct {
	Layer dsslayout.LayerID
}

// SetTerminal records that terminalID was placed on layer. Used by tests
// and introspection; the property encoding itself lives in the shapes
// AnnotateTerminal writes, not here.
func (d *Device) SetTerminal(terminalID int, layer dsslayout.LayerID) {
	if d.terminals == nil {
		d.terminals = make(map[int]Terminal)
	}
	d.terminals[terminalID] = Terminal{Layer: layer}
}

// Terminal returns the recorded terminal placement, if any.
func (d *Device) Terminal(terminalID int) (Terminal, bool) {
	t, ok := d.terminals[terminalID]
	return t, ok
}

// Circuit groups the devices extracted from one cell of the working
// layout. NewCircuit leaves the name empty; the extractor sets it to the
// cell's name when it creates a fresh circuit (spec section 4.4, step 3:
// "create one named after the cell").
type Circuit struct {
	CellIndex dsslayout.CellIndex
	Name      string
	Devices   []*Device
}

// NewCircuit creates an empty circuit.
func NewCircuit() *Circuit {
	return &Circuit{}
}

// SetCellIndex records which cell this circuit was extracted from.
func (c *Circuit) SetCellIndex(idx dsslayout.CellIndex) { c.CellIndex = idx }

// SetName sets the circuit's display name.
func (c *Circuit) SetName(name string) { c.Name = name }

// AddDevice appends d to this circuit.
func (c *Circuit) AddDevice(d *Device) {
	c.Devices = append(c.Devices, d)
}

// Netlist is the top-level container a DeviceExtractor populates: the set
// of device classes it can produce, and one Circuit per cell the extractor
// walked, whether or not that cell holds a device.
type Netlist struct {
	mu       sync.Mutex
	classes  []*DeviceClass
	circuits []*Circuit
	byCell   map[dsslayout.CellIndex]*Circuit
}

// New creates an empty netlist.
func New() *Netlist {
	return &Netlist{byCell: make(map[dsslayout.CellIndex]*Circuit)}
}

// AddDeviceClass registers a device class, publishing it for later
// create_device(class_index) lookups (spec section 4.4, step 1:
// "register_device_class to publish and index each class").
func (n *Netlist) AddDeviceClass(dc *DeviceClass) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.classes = append(n.classes, dc)
}

// DeviceClasses returns every registered device class, in registration
// order.
func (n *Netlist) DeviceClasses() []*DeviceClass {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*DeviceClass, len(n.classes))
	copy(out, n.classes)
	return out
}

// AddCircuit attaches a circuit to the netlist, indexed by its cell.
func (n *Netlist) AddCircuit(c *Circuit) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.circuits = append(n.circuits, c)
	n.byCell[c.CellIndex] = c
}

// Circuits returns every circuit, in the order they were added.
func (n *Netlist) Circuits() []*Circuit {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Circuit, len(n.circuits))
	copy(out, n.circuits)
	return out
}

// CircuitByCell looks up the circuit already attached for a cell, if any
// (spec section 4.4, step 3: "reuse its circuit if present").
func (n *Netlist) CircuitByCell(cell dsslayout.CellIndex) (*Circuit, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.byCell[cell]
	return c, ok
}
