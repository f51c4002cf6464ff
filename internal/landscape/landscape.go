package landscape

import "fmt"

// FuelFlag toggles the presence of an optional band group in the record.
type FuelFlag int32

const (
	// FuelsAbsent marks a band group as not present (wire value 20).
	FuelsAbsent FuelFlag = 20
	// FuelsPresent marks a band group as present (wire value 21).
	FuelsPresent FuelFlag = 21
)

// Canonical layer names in wire order.
const (
	LayerElevation = "elevation"
	LayerSlope     = "slope"
	LayerAspect    = "aspect"
	LayerFuel      = "fuel"
	LayerCover     = "cover"
	LayerHeight    = "height"
	LayerBase      = "base"
	LayerDensity   = "density"
	LayerDuff      = "duff"
	LayerWoody     = "woody"
)

// RequiredLayerNames are the bands present in every record, in wire order.
var RequiredLayerNames = []string{LayerElevation, LayerSlope, LayerAspect, LayerFuel, LayerCover}

// CrownLayerNames are the canopy bands present when CrownFuels is set.
var CrownLayerNames = []string{LayerHeight, LayerBase, LayerDensity}

// GroundLayerNames are the surface bands present when GroundFuels is set.
var GroundLayerNames = []string{LayerDuff, LayerWoody}

// LayerNames is the full canonical layer ordering used throughout the codec.
var LayerNames = func() []string {
	names := make([]string, 0, 10)
	names = append(names, RequiredLayerNames...)
	names = append(names, CrownLayerNames...)
	names = append(names, GroundLayerNames...)
	return names
}()

// Landscape is the in-memory form of a terrain record: grid geometry,
// projection metadata, and the ten named layers.
type Landscape struct {
	CrownFuels  FuelFlag
	GroundFuels FuelFlag
	Latitude    int32

	LoEast  float64
	HiEast  float64
	LoNorth float64
	HiNorth float64

	NumNorth int32
	NumEast  int32

	UTMEast  float64
	UTMWest  float64
	UTMNorth float64
	UTMSouth float64

	UnitsGrid int32
	ResX      float64
	ResY      float64

	Description string
	Projection  string

	layers map[string]Layer
}

// New creates a landscape with zeroed layers of the given shape and both
// optional band groups absent.
func New(numNorth, numEast int) *Landscape {
	ls := &Landscape{
		CrownFuels:  FuelsAbsent,
		GroundFuels: FuelsAbsent,
		NumNorth:    int32(numNorth),
		NumEast:     int32(numEast),
		layers:      make(map[string]Layer, len(LayerNames)),
	}
	for _, name := range LayerNames {
		ls.layers[name] = NewLayer(NewGrid(numNorth, numEast))
	}
	return ls
}

// Layer returns the named layer. Unknown names return an error rather than a
// zero layer so callers cannot silently read an absent band.
func (ls *Landscape) Layer(name string) (Layer, error) {
	l, ok := ls.layers[name]
	if !ok {
		return Layer{}, fmt.Errorf("landscape: unknown layer %q", name)
	}
	return l, nil
}

// SetLayer replaces the named layer. The layer's summary must already reflect
// its data (NewLayer and Layer.WithGrid guarantee this).
func (ls *Landscape) SetLayer(name string, l Layer) error {
	if _, ok := ls.layers[name]; !ok {
		return fmt.Errorf("landscape: unknown layer %q", name)
	}
	ls.layers[name] = l
	return nil
}

// SetLayerGrid replaces the named layer's raster, deriving a fresh summary.
func (ls *Landscape) SetLayerGrid(name string, g Grid) error {
	l, err := ls.Layer(name)
	if err != nil {
		return err
	}
	return ls.SetLayer(name, l.WithGrid(g))
}

// CrownPresent reports whether the canopy bands are in the record.
func (ls *Landscape) CrownPresent() (bool, error) {
	return flagPresent("crown_fuels", ls.CrownFuels)
}

// GroundPresent reports whether the surface bands are in the record.
func (ls *Landscape) GroundPresent() (bool, error) {
	return flagPresent("ground_fuels", ls.GroundFuels)
}

func flagPresent(name string, f FuelFlag) (bool, error) {
	switch f {
	case FuelsAbsent:
		return false, nil
	case FuelsPresent:
		return true, nil
	default:
		return false, fmt.Errorf("landscape: %s has invalid value %d", name, int32(f))
	}
}

// bandNames returns the per-cell band ordering implied by the fuel flags.
func (ls *Landscape) bandNames() ([]string, error) {
	crown, err := ls.CrownPresent()
	if err != nil {
		return nil, err
	}
	ground, err := ls.GroundPresent()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(LayerNames))
	names = append(names, RequiredLayerNames...)
	if crown {
		names = append(names, CrownLayerNames...)
	}
	if ground {
		names = append(names, GroundLayerNames...)
	}
	return names, nil
}

// Center returns the UTM midpoint of the grid extent.
func (ls *Landscape) Center() (x, y float64) {
	return (ls.UTMWest + ls.UTMEast) / 2, (ls.UTMSouth + ls.UTMNorth) / 2
}

// Size returns the UTM width and height of the grid extent.
func (ls *Landscape) Size() (w, h float64) {
	return ls.UTMEast - ls.UTMWest, ls.UTMNorth - ls.UTMSouth
}

// Area returns the UTM area of the grid extent.
func (ls *Landscape) Area() float64 {
	w, h := ls.Size()
	return w * h
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (ls *Landscape) Clone() *Landscape {
	cp := *ls
	cp.layers = make(map[string]Layer, len(ls.layers))
	for name, l := range ls.layers {
		l.grid = l.grid.Clone()
		cp.layers[name] = l
	}
	return &cp
}
