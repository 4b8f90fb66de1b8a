package memoize

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI captures the subset of DynamoDB client methods used by the adapter.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

const (
	dynamoEnsureTableMaxAttempts = 20
	dynamoEnsureTableRetryDelay  = 150 * time.Millisecond
)

// DynamoCache memoizes into a DynamoDB table. Entries carry an expiry
// attribute checked on lookup; DynamoDB TTL reaping, if enabled on the
// table, is a bonus the adapter does not depend on.
type DynamoCache struct {
	client DynamoAPI
	table  string
	prefix string
	ttl    time.Duration
	codec  Codec
}

// NewDynamoCache creates a DynamoDB-backed cache, creating the table when
// it does not exist yet.
func NewDynamoCache(ctx context.Context, client DynamoAPI, table string, opts ...CacheOption) (*DynamoCache, error) {
	if client == nil {
		return nil, errors.New("memoize: dynamo cache requires a client")
	}
	if table == "" {
		return nil, errors.New("memoize: dynamo cache requires a table name")
	}
	if err := ensureDynamoTable(ctx, client, table); err != nil {
		return nil, err
	}
	cfg := resolveCacheConfig(opts)
	return &DynamoCache{
		client: client,
		table:  table,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		codec:  cfg.Codec,
	}, nil
}

// NewDynamoLocalClient builds a client aimed at a local DynamoDB endpoint
// (dynamodb-local, localstack) with static throwaway credentials.
func NewDynamoLocalClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")),
	)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func (c *DynamoCache) Driver() Driver { return DriverDynamo }

func (c *DynamoCache) Lookup(ctx context.Context, key string) (any, bool) {
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.table),
		Key:       map[string]types.AttributeValue{"k": &types.AttributeValueMemberS{Value: c.cacheKey(key)}},
	})
	if err != nil || out.Item == nil {
		return nil, false
	}
	if dynamoExpired(out.Item) {
		_, _ = c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(c.table),
			Key:       map[string]types.AttributeValue{"k": &types.AttributeValueMemberS{Value: c.cacheKey(key)}},
		})
		return nil, false
	}
	attr, ok := out.Item["v"].(*types.AttributeValueMemberB)
	if !ok {
		return nil, false
	}
	value, err := c.codec.Decode(attr.Value)
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *DynamoCache) Store(ctx context.Context, key string, value any) bool {
	body, err := c.codec.Encode(value)
	if err != nil {
		return false
	}
	exp := time.Now().Add(c.ttl).UnixMilli()
	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item: map[string]types.AttributeValue{
			"k":  &types.AttributeValueMemberS{Value: c.cacheKey(key)},
			"v":  &types.AttributeValueMemberB{Value: body},
			"ea": &types.AttributeValueMemberN{Value: strconv.FormatInt(exp, 10)},
		},
	})
	return err == nil
}

func (c *DynamoCache) cacheKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func dynamoExpired(item map[string]types.AttributeValue) bool {
	attr, ok := item["ea"].(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	exp, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return false
	}
	return time.Now().UnixMilli() > exp
}

func ensureDynamoTable(ctx context.Context, client DynamoAPI, table string) error {
	var lastErr error
	for attempt := 1; attempt <= dynamoEnsureTableMaxAttempts; attempt++ {
		_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
		if err == nil {
			return nil
		}

		var rnfe *types.ResourceNotFoundException
		if errors.As(err, &rnfe) {
			_, createErr := client.CreateTable(ctx, &dynamodb.CreateTableInput{
				TableName: aws.String(table),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("k"), KeyType: types.KeyTypeHash},
				},
				AttributeDefinitions: []types.AttributeDefinition{
					{AttributeName: aws.String("k"), AttributeType: types.ScalarAttributeTypeS},
				},
				BillingMode: types.BillingModePayPerRequest,
			})
			if createErr == nil {
				return nil
			}
			var inUse *types.ResourceInUseException
			if errors.As(createErr, &inUse) {
				return nil
			}
			if !isDynamoStartupRetryable(createErr) {
				return createErr
			}
			lastErr = createErr
		} else {
			if !isDynamoStartupRetryable(err) {
				return err
			}
			lastErr = err
		}

		if attempt == dynamoEnsureTableMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dynamoEnsureTableRetryDelay):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("dynamo table ensure failed")
	}
	return fmt.Errorf("memoize: ensure dynamo table %q: %w", table, lastErr)
}

func isDynamoStartupRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "request send failed") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "eof")
}

var _ Cache = (*DynamoCache)(nil)
