package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JiancunWang/klayout/internal/cluster"
	"github.com/JiancunWang/klayout/internal/dss"
	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/internal/dssiter"
	"github.com/JiancunWang/klayout/internal/extractor"
	"github.com/JiancunWang/klayout/internal/netlist"
	"github.com/JiancunWang/klayout/pkg/dssconfig"
	"github.com/JiancunWang/klayout/pkg/dsstelemetry"
	"github.com/JiancunWang/klayout/pkg/geom"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Build a synthetic layout and run a toy device extractor over it",
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, span := dsstelemetry.StartSpan(cmd.Context(), "dssdemo.extract")
	defer dsstelemetry.EndSpan(span, nil)

	cfg, err := dssconfig.Load(configPath)
	if err != nil {
		return err
	}
	cfg.Store.Threads = threads

	layout, topCell, diffLayer, polyLayer := buildSampleLayout()

	store := dss.New(cfg.Store)
	defer store.Close()

	diffDeep, err := store.CreatePolygonLayer(ctx, &dssiter.Iterator{Source: layout, TopCell: topCell, Layer: diffLayer, MaxDepth: -1}, cfg.Store.MaxAreaRatio, cfg.Store.MaxVertexCount, geom.Identity())
	if err != nil {
		return fmt.Errorf("staging diffusion layer: %w", err)
	}
	polyDeep, err := store.CreatePolygonLayer(ctx, &dssiter.Iterator{Source: layout, TopCell: topCell, Layer: polyLayer, MaxDepth: -1}, cfg.Store.MaxAreaRatio, cfg.Store.MaxVertexCount, geom.Identity())
	if err != nil {
		return fmt.Errorf("staging poly layer: %w", err)
	}

	driver := extractor.NewDriver(&mosfetHooks{diffusion: 0, poly: 1})
	nl := netlist.New()
	driver.Initialize(nl)

	if err := driver.ExtractFromRegions(store, []*dss.DeepLayer{diffDeep, polyDeep}); err != nil {
		return fmt.Errorf("extracting devices: %w", err)
	}

	printNetlist(nl)
	return nil
}

// buildSampleLayout constructs a two-level hierarchy: TOP instantiates CELL
// twice, and CELL carries one overlapping diffusion/poly rectangle pair on
// two layers, giving the extractor something to cluster and extract.
func buildSampleLayout() (layout *dsslayout.Layout, top dsslayout.CellIndex, diffusion, poly dsslayout.LayerID) {
	layout = dsslayout.New()
	diffusion = layout.InsertLayer()
	poly = layout.InsertLayer()

	cell := layout.CreateCell("CELL")
	layout.InsertShape(cell, diffusion, geom.NewBoxShape(geom.NewBox(geom.Point{X: 0, Y: 0}, geom.Point{X: 100, Y: 40})))
	layout.InsertShape(cell, poly, geom.NewBoxShape(geom.NewBox(geom.Point{X: 40, Y: -10}, geom.Point{X: 60, Y: 50})))

	top = layout.CreateCell("TOP")
	layout.InsertInstance(top, cell, geom.Identity())
	layout.InsertInstance(top, cell, geom.Transform{Mag: 1, Disp: geom.Point{X: 200, Y: 0}})

	return layout, top, diffusion, poly
}

// mosfetHooks is a toy extractor.Hooks implementation: every root cluster
// that carries both a diffusion and a poly region becomes one MOSFET
// device, with terminal 0 on the bbox of the diffusion region's first shape
// and terminal 1 on the bbox of the poly region's first shape.
type mosfetHooks struct {
	diffusion, poly int
	mosfetClass     int
}

func (h *mosfetHooks) CreateDeviceClasses(d *extractor.Driver) {
	h.mosfetClass = d.RegisterDeviceClass(&netlist.DeviceClass{Name: "MOSFET"})
}

func (h *mosfetHooks) GetConnectivity(layout *dsslayout.Layout, layers []dsslayout.LayerID) *cluster.Connectivity {
	conn := cluster.NewConnectivity()
	for _, l := range layers {
		conn.Connect(l)
	}
	conn.ConnectLayers(layers[h.diffusion], layers[h.poly])
	return conn
}

func (h *mosfetHooks) ExtractDevices(d *extractor.Driver, regions []*extractor.Region) {
	diff := regions[h.diffusion]
	gate := regions[h.poly]
	if len(diff.Shapes) == 0 || len(gate.Shapes) == 0 {
		return
	}

	dev, err := d.CreateDevice(h.mosfetClass)
	if err != nil {
		logger.Warn("create_device failed: %v", err)
		return
	}

	if p, ok := diff.Shapes[0].AsPolygon(0); ok {
		_ = d.DefineTerminalBox(dev, 0, h.diffusion, p.BBox())
	}
	if p, ok := gate.Shapes[0].AsPolygon(0); ok {
		_ = d.DefineTerminalBox(dev, 1, h.poly, p.BBox())
	}
}

func printNetlist(nl *netlist.Netlist) {
	for _, c := range nl.Circuits() {
		fmt.Printf("circuit %s (cell %d)\n", c.Name, c.CellIndex)
		for _, dev := range c.Devices {
			fmt.Printf("  device %s: %s\n", dev.Name, dev.Class.Name)
		}
	}
}
