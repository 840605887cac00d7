// Package config loads the cube controller's JSON configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/ledcube/internal/cube"
	"github.com/banshee-data/ledcube/internal/serialport"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/cube.defaults.json"

// CubeConfig is the root configuration for the controller. Every field is
// optional; the Get* methods supply defaults for anything left unset, so
// partial configs are safe.
type CubeConfig struct {
	// Serial link
	Port         *string `json:"port,omitempty"`
	BaudRate     *int    `json:"baud_rate,omitempty"`
	DataBits     *int    `json:"data_bits,omitempty"`
	StopBits     *int    `json:"stop_bits,omitempty"`
	Parity       *string `json:"parity,omitempty"`
	WriteTimeout *string `json:"write_timeout,omitempty"` // duration string like "500ms"

	// Frame flush
	FlushInterval *string `json:"flush_interval,omitempty"` // duration string like "40ms"
	FlushDisable  *bool   `json:"flush_disable,omitempty"`
	PrefixEscape  *bool   `json:"prefix_escape,omitempty"`
	SkipUnchanged *bool   `json:"skip_unchanged,omitempty"`

	// Cube
	Dimension *int `json:"dimension,omitempty"`

	// Assets and capture
	FontPath    *string `json:"font_path,omitempty"`
	CapturePath *string `json:"capture_path,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyCubeConfig returns a CubeConfig with all fields set to nil.
func EmptyCubeConfig() *CubeConfig {
	return &CubeConfig{}
}

// DefaultCubeConfig returns a CubeConfig with every field populated with
// its default value.
func DefaultCubeConfig() *CubeConfig {
	return &CubeConfig{
		Port:          ptrString("/dev/ttyUSB0"),
		BaudRate:      ptrInt(serialport.DefaultBaudRate),
		DataBits:      ptrInt(8),
		StopBits:      ptrInt(1),
		Parity:        ptrString("N"),
		WriteTimeout:  ptrString("500ms"),
		FlushInterval: ptrString("40ms"),
		FlushDisable:  ptrBool(false),
		PrefixEscape:  ptrBool(true),
		SkipUnchanged: ptrBool(false),
		Dimension:     ptrInt(cube.Dimension),
		FontPath:      ptrString(""),
		CapturePath:   ptrString(""),
	}
}

// LoadCubeConfig loads a CubeConfig from a JSON file.
// The file must have a .json extension and be no larger than 1MB.
func LoadCubeConfig(path string) (*CubeConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyCubeConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *CubeConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/cube/codec/
	}
	for _, path := range candidates {
		if cfg, err := LoadCubeConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *CubeConfig) Validate() error {
	for name, v := range map[string]*string{
		"write_timeout":  c.WriteTimeout,
		"flush_interval": c.FlushInterval,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *v)
		}
	}

	if c.Dimension != nil && *c.Dimension < 1 {
		return fmt.Errorf("dimension must be at least 1, got %d", *c.Dimension)
	}

	if _, err := c.PortOptions().Normalise(); err != nil {
		return fmt.Errorf("invalid serial settings: %w", err)
	}

	return nil
}

func parseDurationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}

// GetPort returns the serial device path or the default.
func (c *CubeConfig) GetPort() string {
	if c.Port == nil || *c.Port == "" {
		return "/dev/ttyUSB0"
	}
	return *c.Port
}

// GetWriteTimeout parses and returns WriteTimeout as a time.Duration.
func (c *CubeConfig) GetWriteTimeout() time.Duration {
	return parseDurationOr(c.WriteTimeout, serialport.DefaultWriteTimeout)
}

// GetFlushInterval parses and returns FlushInterval as a time.Duration.
func (c *CubeConfig) GetFlushInterval() time.Duration {
	return parseDurationOr(c.FlushInterval, 40*time.Millisecond)
}

// GetFlushDisable returns the flush_disable value or the default.
func (c *CubeConfig) GetFlushDisable() bool {
	if c.FlushDisable == nil {
		return false
	}
	return *c.FlushDisable
}

// GetPrefixEscape returns the prefix_escape value or the default.
func (c *CubeConfig) GetPrefixEscape() bool {
	if c.PrefixEscape == nil {
		return true
	}
	return *c.PrefixEscape
}

// GetSkipUnchanged returns the skip_unchanged value or the default.
func (c *CubeConfig) GetSkipUnchanged() bool {
	if c.SkipUnchanged == nil {
		return false
	}
	return *c.SkipUnchanged
}

// GetDimension returns the cube edge length or the default.
func (c *CubeConfig) GetDimension() int {
	if c.Dimension == nil {
		return cube.Dimension
	}
	return *c.Dimension
}

// GetFontPath returns the font file path; empty means the built-in font.
func (c *CubeConfig) GetFontPath() string {
	if c.FontPath == nil {
		return ""
	}
	return *c.FontPath
}

// GetCapturePath returns the capture file path; empty disables capture.
func (c *CubeConfig) GetCapturePath() string {
	if c.CapturePath == nil {
		return ""
	}
	return *c.CapturePath
}

// PortOptions converts the serial fields into serialport.PortOptions. Unset
// fields are left zero so Normalise fills in the defaults.
func (c *CubeConfig) PortOptions() serialport.PortOptions {
	var opts serialport.PortOptions
	if c.BaudRate != nil {
		opts.BaudRate = *c.BaudRate
	}
	if c.DataBits != nil {
		opts.DataBits = *c.DataBits
	}
	if c.StopBits != nil {
		opts.StopBits = *c.StopBits
	}
	if c.Parity != nil {
		opts.Parity = *c.Parity
	}
	opts.WriteTimeout = c.GetWriteTimeout()
	return opts
}
