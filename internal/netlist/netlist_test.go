package netlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JiancunWang/klayout/internal/dsslayout"
)

func TestNetlist_AddDeviceClassIndexesInOrder(t *testing.T) {
	n := New()
	nmos := &DeviceClass{Name: "NMOS"}
	pmos := &DeviceClass{Name: "PMOS"}
	n.AddDeviceClass(nmos)
	n.AddDeviceClass(pmos)

	classes := n.DeviceClasses()
	require.Len(t, classes, 2)
	assert.Same(t, nmos, classes[0])
	assert.Same(t, pmos, classes[1])
}

func TestNetlist_AddCircuitIsFindableByCell(t *testing.T) {
	n := New()
	c := NewCircuit()
	c.SetCellIndex(dsslayout.CellIndex(3))
	c.SetName("INV")
	n.AddCircuit(c)

	found, ok := n.CircuitByCell(dsslayout.CellIndex(3))
	require.True(t, ok)
	assert.Same(t, c, found)
	assert.Equal(t, "INV", found.Name)

	_, ok = n.CircuitByCell(dsslayout.CellIndex(99))
	assert.False(t, ok)
}

func TestCircuit_AddDeviceAccumulates(t *testing.T) {
	c := NewCircuit()
	class := &DeviceClass{Name: "R"}
	d1 := &Device{ID: 1, Name: "1", Class: class}
	d2 := &Device{ID: 2, Name: "2", Class: class}
	c.AddDevice(d1)
	c.AddDevice(d2)
	assert.Equal(t, []*Device{d1, d2}, c.Devices)
}

func TestDevice_SetAndGetTerminal(t *testing.T) {
	d := &Device{ID: 1, Name: "1"}
	_, ok := d.Terminal(0)
	assert.False(t, ok)

	d.SetTerminal(0, dsslayout.LayerID(5))
	got, ok := d.Terminal(0)
	require.True(t, ok)
	assert.Equal(t, dsslayout.LayerID(5), got.Layer)
}
