package perimeter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/peterstace/simplefeatures/geom"
)

// ElapsedKey is the attribute carrying the elapsed simulation time on each
// boundary feature.
const ElapsedKey = "Elapsed_Mi"

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// Read parses a GeoJSON feature collection of boundary records. Geometries
// are accepted without validation: repair happens during merging.
func Read(data []byte) ([]Record, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse feature collection: %w", err)
	}
	records := make([]Record, 0, len(fc.Features))
	for i, f := range fc.Features {
		g, err := geom.UnmarshalGeoJSON(f.Geometry, geom.NoValidate{})
		if err != nil {
			return nil, fmt.Errorf("feature %d geometry: %w", i, err)
		}
		elapsed, err := elapsedMinutes(f.Properties)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		records = append(records, Record{ElapsedMinutes: elapsed, Boundary: g})
	}
	return records, nil
}

// ReadFile reads a boundary feature collection from disk.
func ReadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read perimeters: %w", err)
	}
	records, err := Read(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Write serializes boundary records as a GeoJSON feature collection.
func Write(records []Record) ([]byte, error) {
	features := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		features = append(features, map[string]any{
			"type":       "Feature",
			"geometry":   rec.Boundary,
			"properties": map[string]any{ElapsedKey: rec.ElapsedMinutes},
		})
	}
	return json.Marshal(map[string]any{
		"type":     "FeatureCollection",
		"features": features,
	})
}

// WriteFile stores boundary records on disk, creating parent directories.
func WriteFile(path string, records []Record) error {
	data, err := Write(records)
	if err != nil {
		return fmt.Errorf("encode perimeters: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write perimeters: %w", err)
	}
	return nil
}

func elapsedMinutes(props map[string]any) (float64, error) {
	raw, ok := props[ElapsedKey]
	if !ok {
		return 0, fmt.Errorf("missing %s attribute", ElapsedKey)
	}
	v, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("%s attribute is %T, want number", ElapsedKey, raw)
	}
	return v, nil
}
