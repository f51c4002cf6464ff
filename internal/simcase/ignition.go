package simcase

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/peterstace/simplefeatures/geom"
)

// WriteIgnitionFile stores an ignition shape as a single-feature GeoJSON
// collection.
func WriteIgnitionFile(path string, ignition geom.Geometry) error {
	data, err := json.Marshal(map[string]any{
		"type": "FeatureCollection",
		"features": []map[string]any{{
			"type":       "Feature",
			"geometry":   ignition,
			"properties": map[string]any{},
		}},
	})
	if err != nil {
		return fmt.Errorf("encode ignition: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write ignition: %w", err)
	}
	return nil
}

// ReadIgnitionFile loads the first feature's geometry from an ignition file.
func ReadIgnitionFile(path string) (geom.Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("read ignition: %w", err)
	}
	var fc struct {
		Features []struct {
			Geometry json.RawMessage `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		return geom.Geometry{}, fmt.Errorf("%s: parse ignition: %w", path, err)
	}
	if len(fc.Features) == 0 {
		return geom.Geometry{}, fmt.Errorf("%s: ignition file has no features", path)
	}
	g, err := geom.UnmarshalGeoJSON(fc.Features[0].Geometry, geom.NoValidate{})
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("%s: ignition geometry: %w", path, err)
	}
	return g, nil
}
