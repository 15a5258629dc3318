package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/flightcompare/internal/kinematics"
	"github.com/banshee-data/flightcompare/internal/reconcile"
	"github.com/banshee-data/flightcompare/internal/units"
)

// ExampleConfigPath is the checked-in example configuration.
const ExampleConfigPath = "config/flightcompare.example.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// ServerConfig is the runtime configuration of the comparison server and
// CLI. Every field is optional; the Get* methods supply defaults for
// fields left unset, so partial files are safe.
type ServerConfig struct {
	Listen *string `json:"listen,omitempty" yaml:"listen,omitempty" validate:"omitempty,hostname_port"`

	// Staging
	UploadDir   *string `json:"upload_dir,omitempty" yaml:"upload_dir,omitempty" validate:"omitempty,min=1"`
	SamplesDir  *string `json:"samples_dir,omitempty" yaml:"samples_dir,omitempty" validate:"omitempty,min=1"`
	SampleFileA *string `json:"sample_file_a,omitempty" yaml:"sample_file_a,omitempty" validate:"omitempty,endswith=.gpx"`
	SampleFileB *string `json:"sample_file_b,omitempty" yaml:"sample_file_b,omitempty" validate:"omitempty,endswith=.gpx"`
	UploadMaxMB *int    `json:"upload_max_mb,omitempty" yaml:"upload_max_mb,omitempty" validate:"omitempty,min=1,max=512"`
	// UploadRetention is how long staged uploads are kept, e.g. "72h".
	UploadRetention *string `json:"upload_retention,omitempty" yaml:"upload_retention,omitempty"`

	DBPath *string `json:"db_path,omitempty" yaml:"db_path,omitempty" validate:"omitempty,min=1"`

	// Logging
	LogFile       *string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogMaxSizeMB  *int    `json:"log_max_size_mb,omitempty" yaml:"log_max_size_mb,omitempty" validate:"omitempty,min=1"`
	LogMaxBackups *int    `json:"log_max_backups,omitempty" yaml:"log_max_backups,omitempty" validate:"omitempty,min=0"`

	// Response cache
	CacheTTL      *string `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`
	CacheCapacity *int    `json:"cache_capacity,omitempty" yaml:"cache_capacity,omitempty" validate:"omitempty,min=1"`

	// Pipeline
	SpeedUnits          *string `json:"speed_units,omitempty" yaml:"speed_units,omitempty"`
	ReconcileMode       *string `json:"reconcile_mode,omitempty" yaml:"reconcile_mode,omitempty"`
	MovingAverageWindow *string `json:"moving_average_window,omitempty" yaml:"moving_average_window,omitempty"`
	RequestTimeout      *string `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`

	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty" validate:"omitempty,dive,required"`
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// DefaultServerConfig returns a config with every field populated with
// its default.
func DefaultServerConfig() *ServerConfig {
	c := &ServerConfig{}
	return &ServerConfig{
		Listen:              ptrString(c.GetListen()),
		UploadDir:           ptrString(c.GetUploadDir()),
		SamplesDir:          ptrString(c.GetSamplesDir()),
		SampleFileA:         ptrString(c.GetSampleFileA()),
		SampleFileB:         ptrString(c.GetSampleFileB()),
		UploadMaxMB:         ptrInt(c.GetUploadMaxMB()),
		UploadRetention:     ptrString(c.GetUploadRetention().String()),
		DBPath:              ptrString(c.GetDBPath()),
		LogFile:             ptrString(c.GetLogFile()),
		LogMaxSizeMB:        ptrInt(c.GetLogMaxSizeMB()),
		LogMaxBackups:       ptrInt(c.GetLogMaxBackups()),
		CacheTTL:            ptrString(c.GetCacheTTL().String()),
		CacheCapacity:       ptrInt(c.GetCacheCapacity()),
		SpeedUnits:          ptrString(c.GetSpeedUnits()),
		ReconcileMode:       ptrString(c.GetReconcileMode().String()),
		MovingAverageWindow: ptrString(c.GetMovingAverageWindow().String()),
		RequestTimeout:      ptrString(c.GetRequestTimeout().String()),
		CORSOrigins:         c.GetCORSOrigins(),
	}
}

// LoadServerConfig loads a ServerConfig from a .json, .yaml or .yml file.
// The file must be under 1MB.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ServerConfig{}
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadExampleConfig loads ExampleConfigPath, searching parent
// directories. Panics if the file cannot be loaded, intended for test setup.
func MustLoadExampleConfig() *ServerConfig {
	candidates := []string{
		ExampleConfigPath,
		"../../" + ExampleConfigPath,
		"../../../" + ExampleConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadServerConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + ExampleConfigPath + " - run tests from repository root")
}

var validate = validator.New()

// Validate checks that the configuration values are valid.
func (c *ServerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	durations := map[string]*string{
		"upload_retention":      c.UploadRetention,
		"cache_ttl":             c.CacheTTL,
		"moving_average_window": c.MovingAverageWindow,
		"request_timeout":       c.RequestTimeout,
	}
	for name, v := range durations {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, *v)
		}
	}

	if c.SpeedUnits != nil {
		if err := units.ValidateSpeedUnit(*c.SpeedUnits); err != nil {
			return err
		}
	}
	if c.ReconcileMode != nil {
		if _, err := reconcile.ParseMode(*c.ReconcileMode); err != nil {
			return err
		}
	}
	return nil
}

func durationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func stringOr(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func (c *ServerConfig) GetListen() string      { return stringOr(c.Listen, ":8000") }
func (c *ServerConfig) GetUploadDir() string   { return stringOr(c.UploadDir, "uploads") }
func (c *ServerConfig) GetSamplesDir() string  { return stringOr(c.SamplesDir, "samples") }
func (c *ServerConfig) GetSampleFileA() string { return stringOr(c.SampleFileA, "flight1_6.gpx") }
func (c *ServerConfig) GetSampleFileB() string { return stringOr(c.SampleFileB, "flight1_17.gpx") }
func (c *ServerConfig) GetUploadMaxMB() int    { return intOr(c.UploadMaxMB, 32) }
func (c *ServerConfig) GetDBPath() string      { return stringOr(c.DBPath, "flightcompare.db") }
func (c *ServerConfig) GetLogFile() string     { return stringOr(c.LogFile, "") }
func (c *ServerConfig) GetLogMaxSizeMB() int   { return intOr(c.LogMaxSizeMB, 20) }
func (c *ServerConfig) GetLogMaxBackups() int  { return intOr(c.LogMaxBackups, 5) }
func (c *ServerConfig) GetCacheCapacity() int  { return intOr(c.CacheCapacity, 64) }
func (c *ServerConfig) GetSpeedUnits() string  { return stringOr(c.SpeedUnits, units.MPS) }

// GetUploadRetention returns how long staged uploads are kept.
func (c *ServerConfig) GetUploadRetention() time.Duration {
	return durationOr(c.UploadRetention, 72*time.Hour)
}

// GetCacheTTL returns the lifetime of cached comparison responses.
func (c *ServerConfig) GetCacheTTL() time.Duration {
	return durationOr(c.CacheTTL, 30*time.Minute)
}

// GetMovingAverageWindow returns the trailing speed average width.
func (c *ServerConfig) GetMovingAverageWindow() time.Duration {
	return durationOr(c.MovingAverageWindow, kinematics.DefaultAverageWindow)
}

// GetRequestTimeout bounds a single comparison request.
func (c *ServerConfig) GetRequestTimeout() time.Duration {
	return durationOr(c.RequestTimeout, 60*time.Second)
}

// GetReconcileMode returns the timestamp repair mode, ModeTwoPass when
// unset or invalid.
func (c *ServerConfig) GetReconcileMode() reconcile.Mode {
	if c.ReconcileMode == nil {
		return reconcile.ModeTwoPass
	}
	m, err := reconcile.ParseMode(*c.ReconcileMode)
	if err != nil {
		return reconcile.ModeTwoPass
	}
	return m
}

// GetCORSOrigins returns the allowed CORS origins, "*" when unset.
func (c *ServerConfig) GetCORSOrigins() []string {
	if len(c.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return c.CORSOrigins
}
