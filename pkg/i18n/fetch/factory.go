package fetch

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nimburion/i18nloader/pkg/config"
	"github.com/nimburion/i18nloader/pkg/observability/logger"
	"github.com/nimburion/i18nloader/pkg/store/s3"
)

// NewFromConfig builds the guarded fetcher selected by cfg.Source.
func NewFromConfig(cfg *config.Config, log logger.Logger) (*Guarded, error) {
	guard := GuardConfig{
		Timeout:      cfg.Source.HTTP.Timeout,
		MaxFailures:  cfg.Source.HTTP.MaxFailures,
		ResetTimeout: cfg.Source.HTTP.ResetTimeout,
		RateLimit:    cfg.Source.HTTP.RateLimit,
		Burst:        cfg.Source.HTTP.Burst,
	}

	var next Fetcher
	switch strings.ToLower(strings.TrimSpace(cfg.Source.Type)) {
	case "", config.SourceTypeHTTP:
		guard.Kind = config.SourceTypeHTTP
		next = NewHTTPFetcher(cfg.Loader.Entrypoint, &http.Client{Timeout: cfg.Source.HTTP.Timeout})
	case config.SourceTypeS3:
		guard.Kind = config.SourceTypeS3
		adapter, err := s3.NewAdapter(s3.Config{
			Bucket:          cfg.Source.S3.Bucket,
			Region:          cfg.Source.S3.Region,
			Endpoint:        cfg.Source.S3.Endpoint,
			AccessKeyID:     cfg.Source.S3.AccessKeyID,
			SecretAccessKey: cfg.Source.S3.SecretAccessKey,
			UsePathStyle:    cfg.Source.S3.UsePathStyle,
			Prefix:          cfg.Source.S3.Prefix,
		}, log)
		if err != nil {
			return nil, err
		}
		next = NewS3Fetcher(adapter)
	case config.SourceTypeDir:
		guard.Kind = config.SourceTypeDir
		next = NewDirFetcher(cfg.Source.Dir.Root)
	default:
		return nil, fmt.Errorf("unsupported source.type %q (supported: http, s3, dir)", cfg.Source.Type)
	}
	return Guard(next, guard, log), nil
}
