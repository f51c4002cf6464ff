package landscape

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
)

// Wire layout constants. All integers are little-endian.
const (
	HeaderLength      = 7316
	layerSummaryLen   = 412 // 3 x int32 + NumVals x int32
	fileStringLen     = 256
	descriptionLen    = 512
	layerSummariesOff = 44
	gridDimsOff       = 4164
	utmBoundsOff      = 4172
	unitsGridOff      = 4204
	resolutionOff     = 4208
	unitOptsOff       = 4224
	fileStringsOff    = 4244
	descriptionOff    = 6804
)

// ErrFormat is wrapped by every fixed-layout violation the codec detects.
var ErrFormat = errors.New("malformed landscape record")

// ErrShape is wrapped when layer rasters disagree with the declared grid dims.
var ErrShape = errors.New("layer shape mismatch")

// Decode parses a complete binary terrain record. The header must be exactly
// HeaderLength bytes and the body must carry one full int16 band set per cell;
// trailing bytes beyond the expected body are ignored.
func Decode(data []byte) (*Landscape, error) {
	if len(data) < HeaderLength {
		return nil, fmt.Errorf("%w: record is %d bytes, header needs %d", ErrFormat, len(data), HeaderLength)
	}
	header := data[:HeaderLength]
	ls := &Landscape{layers: make(map[string]Layer, len(LayerNames))}

	ls.CrownFuels = FuelFlag(int32le(header[0:]))
	ls.GroundFuels = FuelFlag(int32le(header[4:]))
	ls.Latitude = int32le(header[8:])
	ls.LoEast = float64le(header[12:])
	ls.HiEast = float64le(header[20:])
	ls.LoNorth = float64le(header[28:])
	ls.HiNorth = float64le(header[36:])

	ls.NumEast = int32le(header[gridDimsOff:])
	ls.NumNorth = int32le(header[gridDimsOff+4:])
	if ls.NumNorth < 0 || ls.NumEast < 0 {
		return nil, fmt.Errorf("%w: negative grid dims %dx%d", ErrFormat, ls.NumNorth, ls.NumEast)
	}

	ls.UTMEast = float64le(header[utmBoundsOff:])
	ls.UTMWest = float64le(header[utmBoundsOff+8:])
	ls.UTMNorth = float64le(header[utmBoundsOff+16:])
	ls.UTMSouth = float64le(header[utmBoundsOff+24:])
	ls.UnitsGrid = int32le(header[unitsGridOff:])
	ls.ResX = float64le(header[resolutionOff:])
	ls.ResY = float64le(header[resolutionOff+8:])
	ls.Description = cString(header[descriptionOff : descriptionOff+descriptionLen])

	for idx, name := range LayerNames {
		var l Layer
		off := layerSummariesOff + idx*layerSummaryLen
		l.Lo = int32le(header[off:])
		l.Hi = int32le(header[off+4:])
		l.Num = int32le(header[off+8:])
		for v := 0; v < NumVals; v++ {
			l.Vals[v] = int32le(header[off+12+4*v:])
		}
		l.UnitOpts = int16le(header[unitOptsOff+2*idx:])
		l.File = cString(header[fileStringsOff+idx*fileStringLen : fileStringsOff+(idx+1)*fileStringLen])
		l.grid = NewGrid(int(ls.NumNorth), int(ls.NumEast))
		ls.layers[name] = l
	}

	if err := decodeBody(ls, data[HeaderLength:]); err != nil {
		return nil, err
	}
	return ls, nil
}

func decodeBody(ls *Landscape, body []byte) error {
	bands, err := ls.bandNames()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}
	cells := int(ls.NumNorth) * int(ls.NumEast)
	need := cells * len(bands) * 2
	if len(body) < need {
		return fmt.Errorf("%w: body is %d bytes, %d cells x %d bands need %d", ErrFormat, len(body), cells, len(bands), need)
	}

	grids := make([]Grid, len(bands))
	for b, name := range bands {
		grids[b] = ls.layers[name].grid
	}
	off := 0
	for i := 0; i < int(ls.NumNorth); i++ {
		for j := 0; j < int(ls.NumEast); j++ {
			for b := range bands {
				grids[b].Set(i, j, int16le(body[off:]))
				off += 2
			}
		}
	}
	// Re-derive summaries so decoded layers obey the data invariant even when
	// the header carried stale tables.
	for _, name := range bands {
		ls.layers[name] = ls.layers[name].Rederived()
	}
	return nil
}

// Encode serializes the landscape to the binary record. Every layer summary is
// re-derived from its current raster before writing; stale tables are never
// trusted. All required layers must match the declared grid shape.
func Encode(ls *Landscape) ([]byte, error) {
	bands, err := ls.bandNames()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	for _, name := range bands {
		g := ls.layers[name].grid
		if g.Rows() != int(ls.NumNorth) || g.Cols() != int(ls.NumEast) {
			return nil, fmt.Errorf("%w: layer %q is %dx%d, landscape declares %dx%d",
				ErrShape, name, g.Rows(), g.Cols(), ls.NumNorth, ls.NumEast)
		}
	}

	var buf bytes.Buffer
	cells := int(ls.NumNorth) * int(ls.NumEast)
	buf.Grow(HeaderLength + cells*len(bands)*2)

	putInt32(&buf, int32(ls.CrownFuels))
	putInt32(&buf, int32(ls.GroundFuels))
	putInt32(&buf, ls.Latitude)
	putFloat64(&buf, ls.LoEast)
	putFloat64(&buf, ls.HiEast)
	putFloat64(&buf, ls.LoNorth)
	putFloat64(&buf, ls.HiNorth)

	for _, name := range LayerNames {
		l := ls.layers[name].Rederived()
		ls.layers[name] = l
		putInt32(&buf, l.Lo)
		putInt32(&buf, l.Hi)
		putInt32(&buf, l.Num)
		for _, v := range l.Vals {
			putInt32(&buf, v)
		}
	}

	putInt32(&buf, ls.NumEast)
	putInt32(&buf, ls.NumNorth)
	putFloat64(&buf, ls.UTMEast)
	putFloat64(&buf, ls.UTMWest)
	putFloat64(&buf, ls.UTMNorth)
	putFloat64(&buf, ls.UTMSouth)
	putInt32(&buf, ls.UnitsGrid)
	putFloat64(&buf, ls.ResX)
	putFloat64(&buf, ls.ResY)

	for _, name := range LayerNames {
		putInt16(&buf, ls.layers[name].UnitOpts)
	}
	for _, name := range LayerNames {
		if err := putPaddedString(&buf, ls.layers[name].File, fileStringLen); err != nil {
			return nil, fmt.Errorf("layer %q file reference: %w", name, err)
		}
	}
	if err := putPaddedString(&buf, ls.Description, descriptionLen); err != nil {
		return nil, fmt.Errorf("description: %w", err)
	}

	if buf.Len() != HeaderLength {
		return nil, fmt.Errorf("%w: wrote %d header bytes, want %d", ErrFormat, buf.Len(), HeaderLength)
	}

	for i := 0; i < int(ls.NumNorth); i++ {
		for j := 0; j < int(ls.NumEast); j++ {
			for _, name := range bands {
				putInt16(&buf, ls.layers[name].grid.At(i, j))
			}
		}
	}
	return buf.Bytes(), nil
}

// ReadFile loads the record and its projection sidecar from prefix.lcp and
// prefix.prj.
func ReadFile(prefix string) (*Landscape, error) {
	data, err := os.ReadFile(prefix + ".lcp")
	if err != nil {
		return nil, fmt.Errorf("read landscape: %w", err)
	}
	ls, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s.lcp: %w", prefix, err)
	}
	proj, err := os.ReadFile(prefix + ".prj")
	if err != nil {
		return nil, fmt.Errorf("read projection: %w", err)
	}
	ls.Projection = string(proj)
	return ls, nil
}

// WriteFile stores the record and its projection sidecar at prefix.lcp and
// prefix.prj.
func WriteFile(ls *Landscape, prefix string) error {
	data, err := Encode(ls)
	if err != nil {
		return fmt.Errorf("encode landscape: %w", err)
	}
	if err := os.WriteFile(prefix+".lcp", data, 0o644); err != nil {
		return fmt.Errorf("write landscape: %w", err)
	}
	if err := os.WriteFile(prefix+".prj", []byte(ls.Projection), 0o644); err != nil {
		return fmt.Errorf("write projection: %w", err)
	}
	return nil
}

func int16le(b []byte) int16 { return int16(binary.LittleEndian.Uint16(b)) }

func int32le(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) }

func float64le(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func putInt16(buf *bytes.Buffer, v int16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	buf.Write(b[:])
}

func putInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func putFloat64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func putPaddedString(buf *bytes.Buffer, s string, length int) error {
	if len(s) > length {
		return fmt.Errorf("%w: string %q exceeds %d bytes", ErrFormat, s, length)
	}
	buf.WriteString(s)
	buf.Write(make([]byte, length-len(s)))
	return nil
}

// cString trims a null-padded fixed-width field to its string content.
func cString(b []byte) string {
	s := string(b)
	if idx := strings.IndexByte(s, 0); idx >= 0 {
		s = s[:idx]
	}
	return s
}
