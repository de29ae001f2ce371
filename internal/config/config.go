package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Network settings for discovery and the description document
	Network NetworkConfig `yaml:"network"`

	// Device identity overrides
	Device DeviceConfig `yaml:"device"`

	// Media reachability probe tuning
	Probe ProbeConfig `yaml:"probe"`

	// Logging settings
	Log LogConfig `yaml:"log"`
}

// NetworkConfig represents discovery protocol settings
type NetworkConfig struct {
	MulticastAddress   string `yaml:"multicast_address"`
	MulticastPort      int    `yaml:"multicast_port"`
	HTTPPort           int    `yaml:"http_port"`
	AnnounceIntervalS  int    `yaml:"announce_interval_s"`
	DiscoveryIntervalS int    `yaml:"discovery_interval_s"`
	MaxAgeS            int    `yaml:"max_age_s"`
	JitterMaxMS        int    `yaml:"jitter_max_ms"`
	StartupTimeoutS    int    `yaml:"startup_timeout_s"`
}

// DeviceConfig represents device identity fields exposed in announcements
// and the description document
type DeviceConfig struct {
	FriendlyName     string `yaml:"friendly_name,omitempty"`
	Manufacturer     string `yaml:"manufacturer,omitempty"`
	ManufacturerURL  string `yaml:"manufacturer_url,omitempty"`
	ModelDescription string `yaml:"model_description,omitempty"`
	ModelName        string `yaml:"model_name,omitempty"`
	ModelNumber      string `yaml:"model_number,omitempty"`
	ModelURL         string `yaml:"model_url,omitempty"`
}

// ProbeConfig represents media reachability probe settings
type ProbeConfig struct {
	Attempts int `yaml:"attempts"`
	TimeoutS int `yaml:"timeout_s"`
	BackoffS int `yaml:"backoff_s"`
}

// LogConfig represents logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Network: NetworkConfig{
			MulticastAddress:   "239.255.255.250",
			MulticastPort:      1900,
			HTTPPort:           8080,
			AnnounceIntervalS:  30,
			DiscoveryIntervalS: 60,
			MaxAgeS:            1800,
			JitterMaxMS:        3000,
			StartupTimeoutS:    5,
		},
		Device: DeviceConfig{},
		Probe: ProbeConfig{
			Attempts: 3,
			TimeoutS: 5,
			BackoffS: 1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// AnnounceInterval returns the announce cycle period
func (n NetworkConfig) AnnounceInterval() time.Duration {
	return time.Duration(n.AnnounceIntervalS) * time.Second
}

// DiscoveryInterval returns the discovery cycle period
func (n NetworkConfig) DiscoveryInterval() time.Duration {
	return time.Duration(n.DiscoveryIntervalS) * time.Second
}

// MaxAge returns how long a peer survives without being seen
func (n NetworkConfig) MaxAge() time.Duration {
	return time.Duration(n.MaxAgeS) * time.Second
}

// JitterMax returns the upper bound of the search-response delay
func (n NetworkConfig) JitterMax() time.Duration {
	return time.Duration(n.JitterMaxMS) * time.Millisecond
}

// StartupTimeout returns how long service startup may take before
// degrading to a no-discovery mode
func (n NetworkConfig) StartupTimeout() time.Duration {
	return time.Duration(n.StartupTimeoutS) * time.Second
}

// Timeout returns the per-attempt probe timeout
func (p ProbeConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutS) * time.Second
}

// Backoff returns the wait between probe attempts
func (p ProbeConfig) Backoff() time.Duration {
	return time.Duration(p.BackoffS) * time.Second
}
