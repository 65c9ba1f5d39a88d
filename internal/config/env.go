package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables read by ApplyEnv.
const (
	EnvSourceURL        = "SISMOSCRAPE_SOURCE_URL"
	EnvTableName        = "TABLE_NAME"
	EnvStore            = "SISMOSCRAPE_STORE"
	EnvDBDir            = "SISMOSCRAPE_DB_DIR"
	EnvDynamoDBEndpoint = "SISMOSCRAPE_DYNAMODB_ENDPOINT"
	EnvPushgatewayURL   = "SISMOSCRAPE_PUSHGATEWAY_URL"
	EnvLogFormat        = "SISMOSCRAPE_LOG_FORMAT"
	EnvTimeout          = "SISMOSCRAPE_TIMEOUT"
	EnvSettleDelay      = "SISMOSCRAPE_SETTLE_DELAY"
	EnvVerbose          = "SISMOSCRAPE_VERBOSE"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays values from the environment onto c. A nil lookup reads
// the process environment. Empty values are ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	if v, ok := get(EnvSourceURL); ok {
		c.SourceURL = v
	}
	if v, ok := get(EnvTableName); ok {
		c.TableName = v
	}
	if v, ok := get(EnvStore); ok {
		c.Store = v
	}
	if v, ok := get(EnvDBDir); ok {
		c.DBDir = v
	}
	if v, ok := get(EnvDynamoDBEndpoint); ok {
		c.DynamoDBEndpoint = v
	}
	if v, ok := get(EnvPushgatewayURL); ok {
		c.PushgatewayURL = v
	}
	if v, ok := get(EnvLogFormat); ok {
		c.LogFormat = v
	}

	if v, ok := get(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v, ok := get(EnvSettleDelay); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSettleDelay, err)
		}
		c.SettleDelay = d
	}
	if v, ok := get(EnvVerbose); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvVerbose, err)
		}
		c.Verbose = b
	}

	return nil
}
