package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/pedflow/internal/crossing"
	"github.com/banshee-data/pedflow/internal/fsutil"
	"github.com/banshee-data/pedflow/internal/units"
)

// DefaultConfigPath is the path to the example analysis configuration.
const DefaultConfigPath = "config/analysis.example.json"

// Defaults for fields omitted from the configuration file.
const (
	DefaultFrameInterval     = 100
	DefaultBoundingBoxMargin = 10.0
	DefaultOutputDir         = "Output"
	DefaultVelocityUnits     = units.MPS
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// AnalysisConfig is the root of an analysis configuration file. Pointer
// fields are optional; the Get* methods supply their defaults.
type AnalysisConfig struct {
	FPSOverride        *float64 `json:"fps_override,omitempty"`
	Workers            *int     `json:"workers,omitempty"`
	OutputDir          *string  `json:"output_dir,omitempty"`
	VelocityUnits      *string  `json:"velocity_units,omitempty"`
	BoundingBoxMarginM *float64 `json:"bounding_box_margin_m,omitempty"`
	ResultsDB          *string  `json:"results_db,omitempty"`

	MeasurementAreas []AreaConfig    `json:"measurement_areas"`
	MethodEdie       *EdieConfig     `json:"method_edie,omitempty"`
	MethodVariants   *VariantsConfig `json:"method_variants,omitempty"`
}

// AreaConfig describes one measurement area. Polygons and bounding boxes use
// Vertices; a bounding box may instead give its two opposite corners. Lines
// use Start and End.
type AreaConfig struct {
	ID       int            `json:"id"`
	Type     string         `json:"type"`
	Vertices [][2]float64   `json:"vertices,omitempty"`
	Holes    [][][2]float64 `json:"holes,omitempty"`
	Start    *[2]float64    `json:"start,omitempty"`
	End      *[2]float64    `json:"end,omitempty"`
	ZPos     *float64       `json:"z_pos,omitempty"`

	LengthInMovementDirection           *float64 `json:"length_in_movement_direction,omitempty"`
	LengthOrthogonalToMovementDirection *float64 `json:"length_orthogonal_to_movement_direction,omitempty"`
}

// EdieConfig enables the Edie method on a set of areas.
type EdieConfig struct {
	Enabled *bool            `json:"enabled,omitempty"`
	Areas   []EdieAreaConfig `json:"areas"`
}

// EdieAreaConfig selects one area for the Edie method.
type EdieAreaConfig struct {
	ID            int     `json:"id"`
	FrameInterval *int    `json:"frame_interval,omitempty"`
	Policy        *string `json:"policy,omitempty"`
}

// VariantsConfig enables the detection variant comparison.
type VariantsConfig struct {
	Enabled      *bool     `json:"enabled,omitempty"`
	Areas        []AreaRef `json:"areas"`
	RealVelocity *float64  `json:"real_velocity,omitempty"`
}

// AreaRef refers to a measurement area by id.
type AreaRef struct {
	ID int `json:"id"`
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file on disk.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	return LoadAnalysisConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadAnalysisConfigFS loads an AnalysisConfig through fsys.
// The file must have a .json extension and be under 1MB.
func LoadAnalysisConfigFS(fsys fsutil.FileSystem, path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &AnalysisConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks values that can be judged without building geometry.
// Degenerate polygons are not errors here; BuildRegions skips them.
func (c *AnalysisConfig) Validate() error {
	if c.FPSOverride != nil && *c.FPSOverride < 0 {
		return invalid("fps_override must be non-negative, got %v", *c.FPSOverride)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return invalid("workers must be non-negative, got %d", *c.Workers)
	}
	if c.VelocityUnits != nil && !units.IsValid(*c.VelocityUnits) {
		return invalid("velocity_units must be one of %s, got %q", units.GetValidUnitsString(), *c.VelocityUnits)
	}
	if c.BoundingBoxMarginM != nil && *c.BoundingBoxMarginM < 0 {
		return invalid("bounding_box_margin_m must be non-negative, got %v", *c.BoundingBoxMarginM)
	}

	seen := make(map[int]bool)
	for _, a := range c.MeasurementAreas {
		if seen[a.ID] {
			return invalid("measurement area id %d is used twice", a.ID)
		}
		seen[a.ID] = true
		if err := a.validate(); err != nil {
			return err
		}
	}

	if e := c.MethodEdie; e.IsEnabled() {
		for _, a := range e.Areas {
			if a.FrameInterval != nil && *a.FrameInterval <= 0 {
				return invalid("method_edie area %d: frame_interval must be positive, got %d", a.ID, *a.FrameInterval)
			}
			if _, err := crossing.ByName(a.GetPolicy()); err != nil {
				return invalid("method_edie area %d: %v", a.ID, err)
			}
		}
	}
	if v := c.MethodVariants; v.IsEnabled() && v.RealVelocity != nil && *v.RealVelocity <= 0 {
		return invalid("method_variants real_velocity must be positive, got %v", *v.RealVelocity)
	}
	return nil
}

func (a AreaConfig) validate() error {
	switch a.Type {
	case "BoundingBox", "Polygon":
		if a.Start != nil || a.End != nil {
			return invalid("area %d: %s takes vertices, not start/end", a.ID, a.Type)
		}
	case "Line":
		if a.Start == nil || a.End == nil {
			return invalid("area %d: Line needs start and end", a.ID)
		}
	default:
		return invalid("area %d: unknown type %q", a.ID, a.Type)
	}
	for _, l := range []*float64{a.LengthInMovementDirection, a.LengthOrthogonalToMovementDirection} {
		if l != nil && *l < 0 {
			return invalid("area %d: lengths must be non-negative", a.ID)
		}
	}
	return nil
}

// GetFPSOverride returns fps_override, or 0 to use the trajectory header.
func (c *AnalysisConfig) GetFPSOverride() float64 {
	if c.FPSOverride == nil {
		return 0
	}
	return *c.FPSOverride
}

// GetWorkers returns workers, or 0 for one per CPU.
func (c *AnalysisConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetOutputDir returns the output_dir value or the default.
func (c *AnalysisConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return DefaultOutputDir
	}
	return *c.OutputDir
}

// GetVelocityUnits returns the velocity_units value or the default.
func (c *AnalysisConfig) GetVelocityUnits() string {
	if c.VelocityUnits == nil {
		return DefaultVelocityUnits
	}
	return *c.VelocityUnits
}

// GetBoundingBoxMargin returns the bounding_box_margin_m value or the default.
func (c *AnalysisConfig) GetBoundingBoxMargin() float64 {
	if c.BoundingBoxMarginM == nil {
		return DefaultBoundingBoxMargin
	}
	return *c.BoundingBoxMarginM
}

// GetResultsDB returns the sqlite path, or "" when results are not stored.
func (c *AnalysisConfig) GetResultsDB() string {
	if c.ResultsDB == nil {
		return ""
	}
	return *c.ResultsDB
}

// IsEnabled reports whether the method section is present and not disabled.
func (e *EdieConfig) IsEnabled() bool {
	return e != nil && (e.Enabled == nil || *e.Enabled)
}

// IsEnabled reports whether the method section is present and not disabled.
func (v *VariantsConfig) IsEnabled() bool {
	return v != nil && (v.Enabled == nil || *v.Enabled)
}

// GetRealVelocity returns real_velocity, or 0 when unknown.
func (v *VariantsConfig) GetRealVelocity() float64 {
	if v == nil || v.RealVelocity == nil {
		return 0
	}
	return *v.RealVelocity
}

// GetFrameInterval returns frame_interval or the default.
func (a EdieAreaConfig) GetFrameInterval() int {
	if a.FrameInterval == nil {
		return DefaultFrameInterval
	}
	return *a.FrameInterval
}

// GetPolicy returns the boundary policy name or the default.
func (a EdieAreaConfig) GetPolicy() string {
	if a.Policy == nil || *a.Policy == "" {
		return crossing.EdieDefault.Name
	}
	return *a.Policy
}
