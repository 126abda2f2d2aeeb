package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/reflow-ui/reflow/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reflow.json"

	// DefaultInspectorPort is the default inspector port.
	DefaultInspectorPort = 7433

	// DefaultInspectorHost is the default inspector host.
	DefaultInspectorHost = "localhost"

	// DefaultMaxRunsPerFlush is the default cycle-guard bound.
	DefaultMaxRunsPerFlush = 100

	// DefaultBudgetWindow is the default run-budget window.
	DefaultBudgetWindow = "1s"

	// DefaultNamespace is the default Prometheus metrics namespace.
	DefaultNamespace = "reflow"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "reflow"
)

// Config represents the complete reflow.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Scheduler contains flush scheduler settings.
	Scheduler SchedulerConfig `json:"scheduler,omitempty"`

	// Inspector contains inspector server settings.
	Inspector InspectorConfig `json:"inspector,omitempty"`

	// Telemetry contains metrics and tracing settings.
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`

	// Debug enables verbose runtime logging.
	Debug bool `json:"debug,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// SchedulerConfig contains flush scheduler settings.
type SchedulerConfig struct {
	// MaxRunsPerFlush bounds how often one effect may re-run per flush
	// before the cycle guard aborts.
	MaxRunsPerFlush int `json:"maxRunsPerFlush,omitempty"`

	// BudgetMaxRuns caps effect runs per budget window. Zero disables the
	// budget.
	BudgetMaxRuns int `json:"budgetMaxRuns,omitempty"`

	// BudgetWindow is the sliding window for the run budget (e.g. "1s").
	BudgetWindow string `json:"budgetWindow,omitempty"`
}

// InspectorConfig contains inspector server settings.
type InspectorConfig struct {
	// Enabled controls whether the inspector server starts.
	Enabled bool `json:"enabled,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to serve the inspector on.
	Port int `json:"port,omitempty"`

	// OpenBrowser opens the inspector UI automatically on start.
	OpenBrowser bool `json:"openBrowser,omitempty"`
}

// TelemetryConfig contains metrics and tracing settings.
type TelemetryConfig struct {
	// Prometheus enables the Prometheus scheduler hooks.
	Prometheus bool `json:"prometheus,omitempty"`

	// Namespace is the Prometheus metrics namespace.
	Namespace string `json:"namespace,omitempty"`

	// Subsystem is the Prometheus metrics subsystem.
	Subsystem string `json:"subsystem,omitempty"`

	// OTel enables the OpenTelemetry scheduler hooks.
	OTel bool `json:"otel,omitempty"`

	// TracerName is the OpenTelemetry tracer name.
	TracerName string `json:"tracerName,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Scheduler: SchedulerConfig{
			MaxRunsPerFlush: DefaultMaxRunsPerFlush,
			BudgetWindow:    DefaultBudgetWindow,
		},
		Inspector: InspectorConfig{
			Enabled: true,
			Host:    DefaultInspectorHost,
			Port:    DefaultInspectorPort,
		},
		Telemetry: TelemetryConfig{
			Namespace:  DefaultNamespace,
			TracerName: DefaultTracerName,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for reflow.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E060").
				WithDetail("No reflow.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'reflow init' to create one")
		}
		return nil, errors.New("E061").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E061").
			WithDetail("Failed to parse reflow.json: " + err.Error()).
			WithSuggestion("Check that reflow.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E061").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E061").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Scheduler.MaxRunsPerFlush == 0 {
		c.Scheduler.MaxRunsPerFlush = DefaultMaxRunsPerFlush
	}
	if c.Scheduler.BudgetWindow == "" {
		c.Scheduler.BudgetWindow = DefaultBudgetWindow
	}

	if c.Inspector.Host == "" {
		c.Inspector.Host = DefaultInspectorHost
	}
	if c.Inspector.Port == 0 {
		c.Inspector.Port = DefaultInspectorPort
	}

	if c.Telemetry.Namespace == "" {
		c.Telemetry.Namespace = DefaultNamespace
	}
	if c.Telemetry.TracerName == "" {
		c.Telemetry.TracerName = DefaultTracerName
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Inspector.Port < 0 || c.Inspector.Port > 65535 {
		return errors.New("E062").
			WithDetail("Inspector port must be between 0 and 65535")
	}
	if c.Scheduler.MaxRunsPerFlush < 1 {
		return errors.New("E062").
			WithDetail("scheduler.maxRunsPerFlush must be at least 1")
	}
	if c.Scheduler.BudgetMaxRuns < 0 {
		return errors.New("E062").
			WithDetail("scheduler.budgetMaxRuns must not be negative")
	}
	if _, err := c.BudgetWindow(); err != nil {
		return errors.New("E062").
			WithDetail("scheduler.budgetWindow is not a valid duration: " + err.Error()).
			WithExample(`"budgetWindow": "500ms"`)
	}
	return nil
}

// BudgetWindow parses the run-budget window duration.
func (c *Config) BudgetWindow() (time.Duration, error) {
	if c.Scheduler.BudgetWindow == "" {
		return time.Second, nil
	}
	return time.ParseDuration(c.Scheduler.BudgetWindow)
}

// InspectorAddress returns the address string for the inspector server.
func (c *Config) InspectorAddress() string {
	return c.Inspector.Host + ":" + strconv.Itoa(c.Inspector.Port)
}

// InspectorURL returns the full URL for the inspector server.
func (c *Config) InspectorURL() string {
	return "http://" + c.InspectorAddress()
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing reflow.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E060").
				WithDetail("No reflow.json found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'reflow init' to create one")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
