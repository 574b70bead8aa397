package config

import "time"

// Storage backend constants
const (
	StorageTypeMemory    = "memory"
	StorageTypeRedis     = "redis"
	StorageTypeMemcached = "memcached"
	StorageTypeDynamoDB  = "dynamodb"
	// StorageTypeNone disables persistence; every storage call fails and is absorbed.
	StorageTypeNone = "none"
)

// Catalog source constants
const (
	SourceTypeHTTP = "http"
	SourceTypeS3   = "s3"
	SourceTypeDir  = "dir"
)

// Config is the root configuration of the loader, its CLI and the catalog server.
type Config struct {
	Loader        LoaderConfig        `mapstructure:"loader"`
	Ambient       AmbientConfig       `mapstructure:"ambient"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Source        SourceConfig        `mapstructure:"source"`
	Server        ServerConfig        `mapstructure:"server"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// LoaderConfig configures catalog loading and the persistent cache.
type LoaderConfig struct {
	// Entrypoint is the base URL catalogs are fetched from: {entrypoint}/{name}/i18n.json.
	Entrypoint string `mapstructure:"entrypoint"`
	// Namespace prefixes every persistent cache key.
	Namespace string `mapstructure:"namespace"`
	// MaxAge is how long a cache record survives the expiry sweep.
	MaxAge time.Duration `mapstructure:"max_age"`
	// Debug bypasses the persistent cache, like the wiki's debug mode.
	Debug bool `mapstructure:"debug"`
	// CacheVersion is the default minimum cache version requested.
	CacheVersion int `mapstructure:"cache_version"`
	// OverridesFile is a YAML or JSON file of per-gadget message overrides.
	OverridesFile string `mapstructure:"overrides_file"`
}

// AmbientConfig carries the page and user context the host page would expose.
type AmbientConfig struct {
	ContentLanguage     string `mapstructure:"content_language"`
	PageContentLanguage string `mapstructure:"page_content_language"`
	PageContentModel    string `mapstructure:"page_content_model"`
	UserLanguage        string `mapstructure:"user_language"`
	UserVariant         string `mapstructure:"user_variant"`
}

// StorageConfig selects the key/value backend of the persistent cache.
type StorageConfig struct {
	Type string `mapstructure:"type"`
	// Quota caps the memory backend in bytes; 0 means unlimited.
	Quota     int                    `mapstructure:"quota"`
	Redis     RedisStorageConfig     `mapstructure:"redis"`
	Memcached MemcachedStorageConfig `mapstructure:"memcached"`
	DynamoDB  DynamoDBStorageConfig  `mapstructure:"dynamodb"`
}

// RedisStorageConfig configures the Redis backend.
type RedisStorageConfig struct {
	URL              string        `mapstructure:"url"`
	MaxConns         int           `mapstructure:"max_conns"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
	Prefix           string        `mapstructure:"prefix"`
}

// MemcachedStorageConfig configures the memcached backend.
type MemcachedStorageConfig struct {
	Addresses []string      `mapstructure:"addresses"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Prefix    string        `mapstructure:"prefix"`
}

// DynamoDBStorageConfig configures the DynamoDB backend. The table must have
// a string partition key "pk" and a string sort key "sk".
type DynamoDBStorageConfig struct {
	Table            string        `mapstructure:"table"`
	Region           string        `mapstructure:"region"`
	Endpoint         string        `mapstructure:"endpoint"`
	Partition        string        `mapstructure:"partition"`
	AccessKeyID      string        `mapstructure:"access_key_id"`
	SecretAccessKey  string        `mapstructure:"secret_access_key"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// SourceConfig selects where catalogs are fetched from.
type SourceConfig struct {
	Type string           `mapstructure:"type"`
	HTTP HTTPSourceConfig `mapstructure:"http"`
	S3   S3SourceConfig   `mapstructure:"s3"`
	Dir  DirSourceConfig  `mapstructure:"dir"`
}

// HTTPSourceConfig configures the HTTP fetcher.
type HTTPSourceConfig struct {
	// Timeout bounds a single request; 0 leaves failure detection to the transport.
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxFailures  int           `mapstructure:"max_failures"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`
	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// S3SourceConfig configures the S3 fetcher and the publish command.
type S3SourceConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	Prefix          string `mapstructure:"prefix"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// DirSourceConfig configures the local directory fetcher.
type DirSourceConfig struct {
	Root string `mapstructure:"root"`
}

// ServerConfig configures the catalog server.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CatalogRoot  string        `mapstructure:"catalog_root"`
	CacheMaxAge  time.Duration `mapstructure:"cache_max_age"`
}

// ObservabilityConfig configures logging and tracing.
type ObservabilityConfig struct {
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	Tracing   TracingConfig `mapstructure:"tracing"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Loader: LoaderConfig{
			Entrypoint: "http://localhost:8080",
			Namespace:  "i18n-cache-",
			MaxAge:     48 * time.Hour,
		},
		Ambient: AmbientConfig{
			ContentLanguage: "en",
			UserLanguage:    "en",
		},
		Storage: StorageConfig{
			Type: StorageTypeMemory,
			Redis: RedisStorageConfig{
				MaxConns:         10,
				OperationTimeout: 2 * time.Second,
				Prefix:           "i18nloader",
			},
			Memcached: MemcachedStorageConfig{
				Timeout: 500 * time.Millisecond,
				Prefix:  "i18nloader",
			},
			DynamoDB: DynamoDBStorageConfig{
				Partition:        "i18nloader",
				OperationTimeout: 2 * time.Second,
			},
		},
		Source: SourceConfig{
			Type: SourceTypeHTTP,
			HTTP: HTTPSourceConfig{
				MaxFailures:  5,
				ResetTimeout: 30 * time.Second,
			},
			Dir: DirSourceConfig{Root: "./catalogs"},
		},
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			CatalogRoot:  "./catalogs",
			CacheMaxAge:  5 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "text",
			Tracing: TracingConfig{
				SampleRate:  1.0,
				ServiceName: "i18nloader",
			},
		},
	}
}
