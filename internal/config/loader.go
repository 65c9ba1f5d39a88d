package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".sismoscrape"

// XDGConfigFile is the file name looked up in the XDG config directory.
const XDGConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// SourceSection configures the document source.
type SourceSection struct {
	URL         string            `yaml:"url,omitempty"`
	Timeout     time.Duration     `yaml:"timeout,omitempty"`
	SettleDelay time.Duration     `yaml:"settle_delay,omitempty"`
	UserAgent   string            `yaml:"user_agent,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	MaxBodySize int64             `yaml:"max_body_size,omitempty"`
}

// ExtractSection configures how the table is located and read.
type ExtractSection struct {
	Tag   string `yaml:"tag,omitempty"`
	Class string `yaml:"class,omitempty"`

	// SkipHeaderRow is a pointer so that an explicit false is distinguishable
	// from an absent key.
	SkipHeaderRow *bool `yaml:"skip_header_row,omitempty"`
	MaxRows       int   `yaml:"max_rows,omitempty"`
}

// StoreSection configures the store backend.
type StoreSection struct {
	Kind      string `yaml:"kind,omitempty"`
	TableName string `yaml:"table_name,omitempty"`
	DBDir     string `yaml:"db_dir,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
}

// LogSection configures logging.
type LogSection struct {
	Format  string `yaml:"format,omitempty"`
	Verbose *bool  `yaml:"verbose,omitempty"`
}

// MetricsSection configures metrics publication.
type MetricsSection struct {
	PushgatewayURL string `yaml:"pushgateway_url,omitempty"`
}

// File represents the structure of the .sismoscrape configuration file.
// Absent keys leave the corresponding Config values untouched.
type File struct {
	Source  SourceSection  `yaml:"source,omitempty"`
	Extract ExtractSection `yaml:"extract,omitempty"`
	Store   StoreSection   `yaml:"store,omitempty"`
	Log     LogSection     `yaml:"log,omitempty"`
	Metrics MetricsSection `yaml:"metrics,omitempty"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .sismoscrape in the current directory
// 3. Look for .sismoscrape in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// ApplyFile overlays the values set in f onto c.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}

	src := f.Source
	if src.URL != "" {
		c.SourceURL = src.URL
	}
	if src.Timeout != 0 {
		c.Timeout = src.Timeout
	}
	if src.SettleDelay != 0 {
		c.SettleDelay = src.SettleDelay
	}
	if src.UserAgent != "" {
		c.UserAgent = src.UserAgent
	}
	if len(src.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range src.Headers {
			c.Headers[k] = v
		}
	}
	if src.MaxBodySize != 0 {
		c.MaxBodySize = src.MaxBodySize
	}

	ext := f.Extract
	if ext.Tag != "" {
		c.TableTag = ext.Tag
	}
	if ext.Class != "" {
		c.TableClass = ext.Class
	}
	if ext.SkipHeaderRow != nil {
		c.SkipHeaderRow = *ext.SkipHeaderRow
	}
	if ext.MaxRows != 0 {
		c.MaxRows = ext.MaxRows
	}

	st := f.Store
	if st.Kind != "" {
		c.Store = st.Kind
	}
	if st.TableName != "" {
		c.TableName = st.TableName
	}
	if st.DBDir != "" {
		c.DBDir = st.DBDir
	}
	if st.Region != "" {
		c.AWSRegion = st.Region
	}
	if st.Endpoint != "" {
		c.DynamoDBEndpoint = st.Endpoint
	}

	if f.Log.Format != "" {
		c.LogFormat = f.Log.Format
	}
	if f.Log.Verbose != nil {
		c.Verbose = *f.Log.Verbose
	}

	if f.Metrics.PushgatewayURL != "" {
		c.PushgatewayURL = f.Metrics.PushgatewayURL
	}
}

// Load builds a Config from defaults, the configuration file and the
// environment. An explicitly given configPath must exist; otherwise a
// missing file is not an error.
func Load(configPath string, lookup LookupFunc) (*Config, error) {
	cfg := NewConfig()
	cfg.ConfigFilePath = configPath

	path := FindConfigFile(configPath)
	if path == "" && configPath != "" {
		return nil, ErrConfigNotFound
	}

	if path != "" {
		f, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg.ApplyFile(f)
		cfg.ConfigFilePath = path
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	return cfg, nil
}
