// Package dynamodb keeps the persistent catalog cache in a DynamoDB table.
//
// Every item of one cache lives under a single partition key, with the
// storage key as sort key, so listing keys is a Query on that partition.
// The table needs a string partition key "pk" and a string sort key "sk".
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/nimburion/i18nloader/pkg/observability/logger"
	"github.com/nimburion/i18nloader/pkg/store"
)

const (
	attrPartition = "pk"
	attrKey       = "sk"
	attrValue     = "value"

	// DefaultPartition groups the cache items when Config.Partition is empty.
	DefaultPartition = "i18nloader"
)

// Config holds DynamoDB storage configuration.
type Config struct {
	Table     string
	Region    string
	Endpoint  string
	Partition string

	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	OperationTimeout time.Duration
}

type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Adapter is a store.Storage kept in one partition of a DynamoDB table.
type Adapter struct {
	client    dynamoAPI
	logger    logger.Logger
	table     string
	partition string
	timeout   time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewAdapter builds the DynamoDB client and checks that the table is active.
// It does not create tables.
func NewAdapter(cfg Config, log logger.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, errors.New("dynamodb table is required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, errors.New("aws region is required")
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

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	adapter := newAdapter(client, cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), adapter.timeout)
	defer cancel()
	if err := adapter.Ping(ctx); err != nil {
		return nil, err
	}

	adapter.logger.Info("DynamoDB cache table ready", "table", cfg.Table, "region", cfg.Region, "partition", adapter.partition)
	return adapter, nil
}

func newAdapter(client dynamoAPI, cfg Config, log logger.Logger) *Adapter {
	partition := strings.TrimSpace(cfg.Partition)
	if partition == "" {
		partition = DefaultPartition
	}
	timeout := cfg.OperationTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		client:    client,
		logger:    logger.OrNop(log),
		table:     cfg.Table,
		partition: partition,
		timeout:   timeout,
	}
}

// GetItem implements store.Storage.
func (a *Adapter) GetItem(key string) (string, error) {
	if err := a.ensureOpen(); err != nil {
		return "", err
	}
	ctx, cancel := a.opContext()
	defer cancel()

	out, err := a.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(a.table),
		Key:            a.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("dynamodb get %q: %w", key, err)
	}
	if out.Item == nil {
		return "", store.ErrNotFound
	}
	value, ok := out.Item[attrValue].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("dynamodb item %q has no string value", key)
	}
	return value.Value, nil
}

// SetItem implements store.Storage. Values over the DynamoDB item size limit
// fail with store.ErrQuotaExceeded.
func (a *Adapter) SetItem(key, value string) error {
	if err := a.ensureOpen(); err != nil {
		return err
	}
	ctx, cancel := a.opContext()
	defer cancel()

	item := a.itemKey(key)
	item[attrValue] = &types.AttributeValueMemberS{Value: value}
	_, err := a.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(a.table), Item: item})
	switch {
	case err == nil:
		return nil
	case isItemTooLarge(err):
		return fmt.Errorf("%w: %s", store.ErrQuotaExceeded, err)
	case IsThrottlingError(err):
		a.logger.Warn("dynamodb write throttled", "key", key)
	}
	return fmt.Errorf("dynamodb put %q: %w", key, err)
}

// RemoveItem implements store.Storage. Removing a missing key succeeds.
func (a *Adapter) RemoveItem(key string) error {
	if err := a.ensureOpen(); err != nil {
		return err
	}
	ctx, cancel := a.opContext()
	defer cancel()

	if _, err := a.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(a.table),
		Key:       a.itemKey(key),
	}); err != nil {
		return fmt.Errorf("dynamodb delete %q: %w", key, err)
	}
	return nil
}

// Keys implements store.Storage with a paged Query over the partition.
func (a *Adapter) Keys() ([]string, error) {
	if err := a.ensureOpen(); err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext()
	defer cancel()

	input := &dynamodb.QueryInput{
		TableName:              aws.String(a.table),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": attrPartition,
			"#sk": attrKey,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: a.partition},
		},
		ProjectionExpression: aws.String("#sk"),
	}

	var keys []string
	for {
		out, err := a.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("dynamodb query keys: %w", err)
		}
		for _, item := range out.Items {
			if sk, ok := item[attrKey].(*types.AttributeValueMemberS); ok {
				keys = append(keys, sk.Value)
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return keys, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Ping verifies that the table exists and is active.
func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.ensureOpen(); err != nil {
		return err
	}
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	out, err := a.client.DescribeTable(opCtx, &dynamodb.DescribeTableInput{TableName: aws.String(a.table)})
	if err != nil {
		return fmt.Errorf("dynamodb ping failed: %w", err)
	}
	if out.Table == nil || out.Table.TableStatus != types.TableStatusActive {
		status := "unknown"
		if out.Table != nil {
			status = string(out.Table.TableStatus)
		}
		return fmt.Errorf("dynamodb table %s is %s", a.table, status)
	}
	return nil
}

// HealthCheck reports whether the cache table is reachable.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	hcCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.Ping(hcCtx); err != nil {
		a.logger.Error("DynamoDB health check failed", "error", err)
		return fmt.Errorf("dynamodb health check failed: %w", err)
	}
	return nil
}

// Close marks the adapter closed; the SDK client holds no connections to release.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

func (a *Adapter) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPartition: &types.AttributeValueMemberS{Value: a.partition},
		attrKey:       &types.AttributeValueMemberS{Value: key},
	}
}

func (a *Adapter) ensureOpen() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return fmt.Errorf("dynamodb adapter is closed: %w", store.ErrUnavailable)
	}
	return nil
}

func (a *Adapter) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.timeout)
}

func (a *Adapter) withOperationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}

// IsThrottlingError reports whether err is a provisioned throughput rejection.
func IsThrottlingError(err error) bool {
	if err == nil {
		return false
	}
	var pte *types.ProvisionedThroughputExceededException
	return errors.As(err, &pte)
}

func isItemTooLarge(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "ValidationException" {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.ErrorMessage()), "item size")
}
