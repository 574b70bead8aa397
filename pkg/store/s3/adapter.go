package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awss3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/nimburion/i18nloader/pkg/observability/logger"
	"github.com/nimburion/i18nloader/pkg/store"
)

// Config defines the bucket holding published catalogs.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	UsePathStyle    bool
	// Prefix is prepended to every object key, e.g. "gadgets".
	Prefix           string
	OperationTimeout time.Duration
}

// ObjectInfo represents a minimal S3 object descriptor for list responses.
type ObjectInfo struct {
	Key          string
	ETag         string
	Size         int64
	LastModified time.Time
}

type s3API interface {
	HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

// Adapter reads and writes catalog objects in an S3 bucket.
type Adapter struct {
	client s3API
	logger logger.Logger
	config Config

	mu     sync.RWMutex
	closed bool
}

// NewAdapter creates an S3 adapter and verifies the bucket is reachable.
func NewAdapter(cfg Config, log logger.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, errors.New("aws region is required")
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 10 * time.Second
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	adapter := newAdapter(client, cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OperationTimeout)
	defer cancel()
	if err := adapter.Ping(ctx); err != nil {
		return nil, err
	}

	adapter.logger.Info("S3 catalog bucket ready", "bucket", cfg.Bucket, "region", cfg.Region, "prefix", cfg.Prefix)
	return adapter, nil
}

func newAdapter(client s3API, cfg Config, log logger.Logger) *Adapter {
	return &Adapter{client: client, logger: logger.OrNop(log), config: cfg}
}

// Ping verifies that the configured bucket is accessible.
func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.ensureOpen(); err != nil {
		return err
	}
	_, err := a.client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(a.config.Bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 ping failed: %w", err)
	}
	return nil
}

// Upload stores payload under key (relative to the configured prefix) and
// returns its ETag without quotes.
func (a *Adapter) Upload(ctx context.Context, key string, payload []byte, contentType string, metadata map[string]string) (string, error) {
	if err := a.ensureOpen(); err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("object key is required")
	}

	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	input := &awss3.PutObjectInput{
		Bucket: aws.String(a.config.Bucket),
		Key:    aws.String(a.objectKey(key)),
		Body:   bytes.NewReader(payload),
	}
	if strings.TrimSpace(contentType) != "" {
		input.ContentType = aws.String(contentType)
	}
	if len(metadata) > 0 {
		input.Metadata = metadata
	}

	resp, err := a.client.PutObject(opCtx, input)
	if err != nil {
		return "", fmt.Errorf("failed to upload object %q: %w", key, err)
	}
	return strings.Trim(strings.TrimSpace(aws.ToString(resp.ETag)), "\""), nil
}

// Download fetches an object. A missing object yields store.ErrNotFound.
func (a *Adapter) Download(ctx context.Context, key string) ([]byte, error) {
	if err := a.ensureOpen(); err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("object key is required")
	}

	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	resp, err := a.client.GetObject(opCtx, &awss3.GetObjectInput{
		Bucket: aws.String(a.config.Bucket),
		Key:    aws.String(a.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *awss3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("object %q: %w", key, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download object %q: %w", key, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %q: %w", key, err)
	}
	return payload, nil
}

// List returns the objects under prefix (relative to the configured prefix),
// following continuation tokens.
func (a *Adapter) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := a.ensureOpen(); err != nil {
		return nil, err
	}

	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	var (
		out   []ObjectInfo
		token *string
	)
	for {
		resp, err := a.client.ListObjectsV2(opCtx, &awss3.ListObjectsV2Input{
			Bucket:            aws.String(a.config.Bucket),
			Prefix:            aws.String(a.objectKey(prefix)),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %q: %w", prefix, err)
		}
		for _, item := range resp.Contents {
			info := toObjectInfo(item)
			info.Key = a.relativeKey(info.Key)
			out = append(out, info)
		}
		if !aws.ToBool(resp.IsTruncated) || resp.NextContinuationToken == nil {
			return out, nil
		}
		token = resp.NextContinuationToken
	}
}

// HealthCheck verifies the adapter can reach the bucket within a short timeout.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	hcCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.Ping(hcCtx); err != nil {
		a.logger.Error("S3 health check failed", "error", err)
		return fmt.Errorf("s3 health check failed: %w", err)
	}
	return nil
}

// Close marks the adapter as closed.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

func (a *Adapter) objectKey(key string) string {
	prefix := strings.Trim(a.config.Prefix, "/")
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix + "/"
	}
	return path.Join(prefix, key)
}

func (a *Adapter) relativeKey(key string) string {
	prefix := strings.Trim(a.config.Prefix, "/")
	if prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, prefix+"/")
}

func (a *Adapter) withOperationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.OperationTimeout)
}

func (a *Adapter) ensureOpen() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return errors.New("s3 adapter is closed")
	}
	return nil
}

func toObjectInfo(item awss3types.Object) ObjectInfo {
	return ObjectInfo{
		Key:          aws.ToString(item.Key),
		ETag:         strings.Trim(strings.TrimSpace(aws.ToString(item.ETag)), "\""),
		Size:         aws.ToInt64(item.Size),
		LastModified: aws.ToTime(item.LastModified),
	}
}
