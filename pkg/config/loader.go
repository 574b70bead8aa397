package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader defines the interface for loading configuration
type Loader interface {
	Load() (*Config, error)
	Validate(*Config) error
}

// ViperLoader implements Loader using Viper for configuration management
type ViperLoader struct {
	configFile string
	envPrefix  string
}

// NewViperLoader creates a new ViperLoader
// configFile: path to configuration file (optional, can be empty)
// envPrefix: prefix for environment variables (e.g., "I18N")
func NewViperLoader(configFile, envPrefix string) *ViperLoader {
	return &ViperLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
	}
}

// Load loads configuration with precedence: ENV > file > defaults
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()

	l.setDefaults(v, DefaultConfig())

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	v.SetEnvPrefix(l.envPrefix)
	l.bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindEnvVars explicitly binds environment variables for nested structs
func (l *ViperLoader) bindEnvVars(v *viper.Viper) {
	// Loader
	v.BindEnv("loader.entrypoint", l.prefixedEnv("ENTRYPOINT"))
	v.BindEnv("loader.namespace", l.prefixedEnv("NAMESPACE"))
	v.BindEnv("loader.max_age", l.prefixedEnv("MAX_AGE"))
	v.BindEnv("loader.debug", l.prefixedEnv("DEBUG"))
	v.BindEnv("loader.cache_version", l.prefixedEnv("CACHE_VERSION"))
	v.BindEnv("loader.overrides_file", l.prefixedEnv("OVERRIDES_FILE"))

	// Ambient
	v.BindEnv("ambient.content_language", l.prefixedEnv("CONTENT_LANGUAGE"))
	v.BindEnv("ambient.page_content_language", l.prefixedEnv("PAGE_CONTENT_LANGUAGE"))
	v.BindEnv("ambient.page_content_model", l.prefixedEnv("PAGE_CONTENT_MODEL"))
	v.BindEnv("ambient.user_language", l.prefixedEnv("USER_LANGUAGE"))
	v.BindEnv("ambient.user_variant", l.prefixedEnv("USER_VARIANT"))

	// Storage
	v.BindEnv("storage.type", l.prefixedEnv("STORAGE_TYPE"))
	v.BindEnv("storage.quota", l.prefixedEnv("STORAGE_QUOTA"))
	v.BindEnv("storage.redis.url", l.prefixedEnv("REDIS_URL"))
	v.BindEnv("storage.redis.max_conns", l.prefixedEnv("REDIS_MAX_CONNS"))
	v.BindEnv("storage.redis.operation_timeout", l.prefixedEnv("REDIS_OPERATION_TIMEOUT"))
	v.BindEnv("storage.redis.prefix", l.prefixedEnv("REDIS_PREFIX"))
	v.BindEnv("storage.memcached.addresses", l.prefixedEnv("MEMCACHED_ADDRESSES"))
	v.BindEnv("storage.memcached.timeout", l.prefixedEnv("MEMCACHED_TIMEOUT"))
	v.BindEnv("storage.memcached.prefix", l.prefixedEnv("MEMCACHED_PREFIX"))
	v.BindEnv("storage.dynamodb.table", l.prefixedEnv("DYNAMODB_TABLE"))
	v.BindEnv("storage.dynamodb.region", l.prefixedEnv("DYNAMODB_REGION"), "AWS_REGION")
	v.BindEnv("storage.dynamodb.endpoint", l.prefixedEnv("DYNAMODB_ENDPOINT"))
	v.BindEnv("storage.dynamodb.partition", l.prefixedEnv("DYNAMODB_PARTITION"))
	v.BindEnv("storage.dynamodb.access_key_id", l.prefixedEnv("DYNAMODB_ACCESS_KEY_ID"), "AWS_ACCESS_KEY_ID")
	v.BindEnv("storage.dynamodb.secret_access_key", l.prefixedEnv("DYNAMODB_SECRET_ACCESS_KEY"), "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("storage.dynamodb.operation_timeout", l.prefixedEnv("DYNAMODB_OPERATION_TIMEOUT"))

	// Source
	v.BindEnv("source.type", l.prefixedEnv("SOURCE_TYPE"))
	v.BindEnv("source.http.timeout", l.prefixedEnv("HTTP_TIMEOUT"))
	v.BindEnv("source.http.max_failures", l.prefixedEnv("HTTP_MAX_FAILURES"))
	v.BindEnv("source.http.reset_timeout", l.prefixedEnv("HTTP_RESET_TIMEOUT"))
	v.BindEnv("source.http.rate_limit", l.prefixedEnv("HTTP_RATE_LIMIT"))
	v.BindEnv("source.http.burst", l.prefixedEnv("HTTP_BURST"))
	v.BindEnv("source.s3.bucket", l.prefixedEnv("S3_BUCKET"))
	v.BindEnv("source.s3.region", l.prefixedEnv("S3_REGION"), "AWS_REGION")
	v.BindEnv("source.s3.endpoint", l.prefixedEnv("S3_ENDPOINT"))
	v.BindEnv("source.s3.prefix", l.prefixedEnv("S3_PREFIX"))
	v.BindEnv("source.s3.use_path_style", l.prefixedEnv("S3_USE_PATH_STYLE"))
	v.BindEnv("source.s3.access_key_id", l.prefixedEnv("S3_ACCESS_KEY_ID"), "AWS_ACCESS_KEY_ID")
	v.BindEnv("source.s3.secret_access_key", l.prefixedEnv("S3_SECRET_ACCESS_KEY"), "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("source.dir.root", l.prefixedEnv("DIR_ROOT"))

	// Server
	v.BindEnv("server.port", l.prefixedEnv("SERVER_PORT"))
	v.BindEnv("server.read_timeout", l.prefixedEnv("SERVER_READ_TIMEOUT"))
	v.BindEnv("server.write_timeout", l.prefixedEnv("SERVER_WRITE_TIMEOUT"))
	v.BindEnv("server.catalog_root", l.prefixedEnv("SERVER_CATALOG_ROOT"))
	v.BindEnv("server.cache_max_age", l.prefixedEnv("SERVER_CACHE_MAX_AGE"))

	// Observability
	v.BindEnv("observability.log_level", l.prefixedEnv("LOG_LEVEL"))
	v.BindEnv("observability.log_format", l.prefixedEnv("LOG_FORMAT"))
	v.BindEnv("observability.tracing.enabled", l.prefixedEnv("TRACING_ENABLED"))
	v.BindEnv("observability.tracing.endpoint", l.prefixedEnv("TRACING_ENDPOINT"))
	v.BindEnv("observability.tracing.sample_rate", l.prefixedEnv("TRACING_SAMPLE_RATE"))
	v.BindEnv("observability.tracing.service_name", l.prefixedEnv("TRACING_SERVICE_NAME"))
}

func (l *ViperLoader) prefixedEnv(suffix string) string {
	prefix := strings.TrimSpace(l.envPrefix)
	if prefix == "" {
		prefix = "I18N"
	}
	return fmt.Sprintf("%s_%s", strings.ToUpper(prefix), suffix)
}

// setDefaults sets default values in Viper from the default config
func (l *ViperLoader) setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("loader.entrypoint", cfg.Loader.Entrypoint)
	v.SetDefault("loader.namespace", cfg.Loader.Namespace)
	v.SetDefault("loader.max_age", cfg.Loader.MaxAge)
	v.SetDefault("loader.debug", cfg.Loader.Debug)
	v.SetDefault("loader.cache_version", cfg.Loader.CacheVersion)
	v.SetDefault("loader.overrides_file", cfg.Loader.OverridesFile)

	v.SetDefault("ambient.content_language", cfg.Ambient.ContentLanguage)
	v.SetDefault("ambient.page_content_language", cfg.Ambient.PageContentLanguage)
	v.SetDefault("ambient.page_content_model", cfg.Ambient.PageContentModel)
	v.SetDefault("ambient.user_language", cfg.Ambient.UserLanguage)
	v.SetDefault("ambient.user_variant", cfg.Ambient.UserVariant)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.quota", cfg.Storage.Quota)
	v.SetDefault("storage.redis.url", cfg.Storage.Redis.URL)
	v.SetDefault("storage.redis.max_conns", cfg.Storage.Redis.MaxConns)
	v.SetDefault("storage.redis.operation_timeout", cfg.Storage.Redis.OperationTimeout)
	v.SetDefault("storage.redis.prefix", cfg.Storage.Redis.Prefix)
	v.SetDefault("storage.memcached.addresses", cfg.Storage.Memcached.Addresses)
	v.SetDefault("storage.memcached.timeout", cfg.Storage.Memcached.Timeout)
	v.SetDefault("storage.memcached.prefix", cfg.Storage.Memcached.Prefix)
	v.SetDefault("storage.dynamodb.table", cfg.Storage.DynamoDB.Table)
	v.SetDefault("storage.dynamodb.region", cfg.Storage.DynamoDB.Region)
	v.SetDefault("storage.dynamodb.endpoint", cfg.Storage.DynamoDB.Endpoint)
	v.SetDefault("storage.dynamodb.partition", cfg.Storage.DynamoDB.Partition)
	v.SetDefault("storage.dynamodb.access_key_id", cfg.Storage.DynamoDB.AccessKeyID)
	v.SetDefault("storage.dynamodb.secret_access_key", cfg.Storage.DynamoDB.SecretAccessKey)
	v.SetDefault("storage.dynamodb.operation_timeout", cfg.Storage.DynamoDB.OperationTimeout)

	v.SetDefault("source.type", cfg.Source.Type)
	v.SetDefault("source.http.timeout", cfg.Source.HTTP.Timeout)
	v.SetDefault("source.http.max_failures", cfg.Source.HTTP.MaxFailures)
	v.SetDefault("source.http.reset_timeout", cfg.Source.HTTP.ResetTimeout)
	v.SetDefault("source.http.rate_limit", cfg.Source.HTTP.RateLimit)
	v.SetDefault("source.http.burst", cfg.Source.HTTP.Burst)
	v.SetDefault("source.s3.bucket", cfg.Source.S3.Bucket)
	v.SetDefault("source.s3.region", cfg.Source.S3.Region)
	v.SetDefault("source.s3.endpoint", cfg.Source.S3.Endpoint)
	v.SetDefault("source.s3.prefix", cfg.Source.S3.Prefix)
	v.SetDefault("source.s3.use_path_style", cfg.Source.S3.UsePathStyle)
	v.SetDefault("source.s3.access_key_id", cfg.Source.S3.AccessKeyID)
	v.SetDefault("source.s3.secret_access_key", cfg.Source.S3.SecretAccessKey)
	v.SetDefault("source.dir.root", cfg.Source.Dir.Root)

	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.catalog_root", cfg.Server.CatalogRoot)
	v.SetDefault("server.cache_max_age", cfg.Server.CacheMaxAge)

	v.SetDefault("observability.log_level", cfg.Observability.LogLevel)
	v.SetDefault("observability.log_format", cfg.Observability.LogFormat)
	v.SetDefault("observability.tracing.enabled", cfg.Observability.Tracing.Enabled)
	v.SetDefault("observability.tracing.endpoint", cfg.Observability.Tracing.Endpoint)
	v.SetDefault("observability.tracing.sample_rate", cfg.Observability.Tracing.SampleRate)
	v.SetDefault("observability.tracing.service_name", cfg.Observability.Tracing.ServiceName)
}

// Validate normalizes cfg in place and reports every invalid setting at once.
func (l *ViperLoader) Validate(cfg *Config) error {
	var errs []error

	cfg.Storage.Type = strings.ToLower(strings.TrimSpace(cfg.Storage.Type))
	cfg.Source.Type = strings.ToLower(strings.TrimSpace(cfg.Source.Type))
	cfg.Storage.Memcached.Addresses = normalizeStringSlice(cfg.Storage.Memcached.Addresses)
	cfg.Observability.LogLevel = strings.ToLower(strings.TrimSpace(cfg.Observability.LogLevel))
	cfg.Observability.LogFormat = strings.ToLower(strings.TrimSpace(cfg.Observability.LogFormat))

	if cfg.Loader.Namespace == "" {
		errs = append(errs, errors.New("loader.namespace is required"))
	}
	if cfg.Loader.MaxAge <= 0 {
		errs = append(errs, fmt.Errorf("invalid loader.max_age: %s (must be positive)", cfg.Loader.MaxAge))
	}
	if cfg.Loader.CacheVersion < 0 {
		errs = append(errs, errors.New("loader.cache_version cannot be negative"))
	}

	validStorageTypes := []string{StorageTypeMemory, StorageTypeRedis, StorageTypeMemcached, StorageTypeDynamoDB, StorageTypeNone}
	if !contains(validStorageTypes, cfg.Storage.Type) {
		errs = append(errs, fmt.Errorf("invalid storage.type: %s (must be one of: %v)", cfg.Storage.Type, validStorageTypes))
	}
	if cfg.Storage.Quota < 0 {
		errs = append(errs, errors.New("storage.quota cannot be negative"))
	}
	switch cfg.Storage.Type {
	case StorageTypeRedis:
		if cfg.Storage.Redis.URL == "" {
			errs = append(errs, errors.New("storage.redis.url is required when storage.type is redis"))
		}
	case StorageTypeMemcached:
		if len(cfg.Storage.Memcached.Addresses) == 0 {
			errs = append(errs, errors.New("storage.memcached.addresses is required when storage.type is memcached"))
		}
	case StorageTypeDynamoDB:
		if cfg.Storage.DynamoDB.Table == "" {
			errs = append(errs, errors.New("storage.dynamodb.table is required when storage.type is dynamodb"))
		}
		if cfg.Storage.DynamoDB.Region == "" {
			errs = append(errs, errors.New("storage.dynamodb.region is required when storage.type is dynamodb"))
		}
	}

	validSourceTypes := []string{SourceTypeHTTP, SourceTypeS3, SourceTypeDir}
	if !contains(validSourceTypes, cfg.Source.Type) {
		errs = append(errs, fmt.Errorf("invalid source.type: %s (must be one of: %v)", cfg.Source.Type, validSourceTypes))
	}
	switch cfg.Source.Type {
	case SourceTypeHTTP:
		if cfg.Loader.Entrypoint == "" {
			errs = append(errs, errors.New("loader.entrypoint is required when source.type is http"))
		}
	case SourceTypeS3:
		if cfg.Source.S3.Bucket == "" {
			errs = append(errs, errors.New("source.s3.bucket is required when source.type is s3"))
		}
		if cfg.Source.S3.Region == "" {
			errs = append(errs, errors.New("source.s3.region is required when source.type is s3"))
		}
	case SourceTypeDir:
		if cfg.Source.Dir.Root == "" {
			errs = append(errs, errors.New("source.dir.root is required when source.type is dir"))
		}
	}
	if cfg.Source.HTTP.MaxFailures < 0 {
		errs = append(errs, errors.New("source.http.max_failures cannot be negative"))
	}
	if cfg.Source.HTTP.RateLimit < 0 {
		errs = append(errs, errors.New("source.http.rate_limit cannot be negative"))
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server.port: %d (must be between 1 and 65535)", cfg.Server.Port))
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, cfg.Observability.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid observability.log_level: %s (must be one of: %v)", cfg.Observability.LogLevel, validLogLevels))
	}
	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, cfg.Observability.LogFormat) {
		errs = append(errs, fmt.Errorf("invalid observability.log_format: %s (must be one of: %v)", cfg.Observability.LogFormat, validLogFormats))
	}
	if cfg.Observability.Tracing.Enabled && cfg.Observability.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("observability.tracing.endpoint is required when tracing is enabled"))
	}
	if rate := cfg.Observability.Tracing.SampleRate; rate < 0 || rate > 1 {
		errs = append(errs, fmt.Errorf("invalid observability.tracing.sample_rate: %v (must be between 0 and 1)", rate))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// contains checks if a string slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// normalizeStringSlice removes empty strings and trims whitespace
func normalizeStringSlice(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
