package config

import (
	"net/url"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/sismoscrape/internal/model"
	"github.com/nao1215/sismoscrape/internal/store"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sismoscrape"

	// DefaultSourceURL is the IGP page listing the latest reported earthquakes.
	DefaultSourceURL = "https://ultimosismo.igp.gob.pe/ultimo-sismo/sismos-reportados"

	// DefaultTableName is the store table written when none is configured.
	DefaultTableName = store.DefaultTableName

	// DefaultTimeout bounds the whole HTTP exchange with the source.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRows is the number of rows kept from the table.
	DefaultMaxRows = 10

	// DefaultMaxBodySize limits the response body read from the source.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultTableTag is the element the extractor looks for.
	DefaultTableTag = "table"

	// DefaultStore is the backend used when none is configured.
	DefaultStore = string(store.KindSQLite)

	// Log formats.
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// dynamoDBTableName matches the names DynamoDB accepts.
var dynamoDBTableName = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,255}$`)

// Config holds all configuration options for a scrape run.
// It is populated from defaults, the config file, the environment and CLI
// flags, and passed to the components that need it.
type Config struct {
	// SourceURL is the page holding the report table.
	SourceURL string

	// Timeout bounds each request to the source.
	Timeout time.Duration

	// SettleDelay is waited after the page is read. Zero disables it.
	SettleDelay time.Duration

	// UserAgent overrides the browser-like default User-Agent.
	UserAgent string

	// Headers are extra request headers sent to the source.
	Headers map[string]string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// TableTag and TableClass select the table in the page. An empty class
	// matches any element with the tag.
	TableTag   string
	TableClass string

	// SkipHeaderRow drops the first row of the table even when it has no
	// header cells. Disable it for tables without a header row, otherwise
	// their first data row is lost.
	SkipHeaderRow bool

	// MaxRows caps the number of rows kept.
	MaxRows int

	// Store is the backend kind: sqlite, dynamodb or memory.
	Store string

	// TableName is the store table that receives the rows.
	TableName string

	// DBDir is the directory of the SQLite database.
	// Defaults to XDG data directory (~/.local/share/sismoscrape on Linux).
	DBDir string

	// AWSRegion is the DynamoDB region. Empty uses the SDK's resolution.
	AWSRegion string

	// DynamoDBEndpoint overrides the DynamoDB endpoint, e.g. DynamoDB Local.
	DynamoDBEndpoint string

	// PushgatewayURL is where run metrics are pushed. Empty disables pushing.
	PushgatewayURL string

	// LogFormat is text or json.
	LogFormat string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the file is searched for; see FindConfigFile.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		SourceURL:     DefaultSourceURL,
		Timeout:       DefaultTimeout,
		MaxBodySize:   DefaultMaxBodySize,
		TableTag:      DefaultTableTag,
		SkipHeaderRow: true,
		MaxRows:       DefaultMaxRows,
		Store:         DefaultStore,
		TableName:     DefaultTableName,
		DBDir:         XDGDataDir(),
		LogFormat:     LogFormatText,
		Headers:       make(map[string]string),
	}
}

// XDGDataDir returns the XDG data directory for sismoscrape.
// On Linux: ~/.local/share/sismoscrape
// On macOS: ~/Library/Application Support/sismoscrape
// On Windows: %LOCALAPPDATA%\sismoscrape
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sismoscrape.
// On Linux: ~/.config/sismoscrape
// On macOS: ~/Library/Application Support/sismoscrape
// On Windows: %APPDATA%\sismoscrape
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// StoreKind returns Store as a store.Kind.
func (c *Config) StoreKind() store.Kind {
	return store.Kind(c.Store)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidSourceURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.SettleDelay < 0 {
		return ErrInvalidSettleDelay
	}

	if c.MaxRows <= 0 {
		return ErrInvalidMaxRows
	}

	if c.MaxBodySize < 0 || c.MaxBodySize > model.MaxDocumentSize {
		return ErrInvalidMaxBodySize
	}

	kind := c.StoreKind()
	if !kind.Valid() {
		return ErrUnknownStore
	}

	switch kind {
	case store.KindSQLite:
		if !store.ValidTableName(c.TableName) {
			return ErrInvalidTableName
		}
	case store.KindDynamoDB:
		if !dynamoDBTableName.MatchString(c.TableName) {
			return ErrInvalidTableName
		}
	case store.KindMemory:
		if c.TableName == "" {
			return ErrInvalidTableName
		}
	}

	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return ErrInvalidLogFormat
	}

	return nil
}
