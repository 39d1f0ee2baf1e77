package dal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"fieldops-scheduler/models"
	"fieldops-scheduler/utils/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

var (
	// ErrItemNotFound is returned by GetItem when no item has the key.
	ErrItemNotFound = errors.New("item not found")
	// ErrConditionFailed is returned when a conditional write loses.
	ErrConditionFailed = errors.New("condition check failed")
)

type DynamoDBClient struct {
	client *dynamodb.Client
	config *models.Config
	logger logger.Logger
}

// NewDynamoDBClient creates a new DynamoDB client
func NewDynamoDBClient(ctx context.Context, cfg *models.Config, log logger.Logger) (*DynamoDBClient, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}

	// Use static credentials if provided
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		// Override endpoint for local DynamoDB
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})

	log.Info("DynamoDB client initialized")
	return &DynamoDBClient{
		client: client,
		config: cfg,
		logger: log,
	}, nil
}

// GetItem loads one item by primary key into result.
func (db *DynamoDBClient) GetItem(ctx context.Context, cfg models.QueryConfig, result interface{}) error {
	input := &dynamodb.GetItemInput{
		TableName:      aws.String(cfg.TableName),
		Key:            keyOf(cfg.KeyName, cfg.KeyValue),
		ConsistentRead: aws.Bool(cfg.Consistent),
	}

	output, err := db.client.GetItem(ctx, input)
	if err != nil {
		db.logger.Errorf("Failed to get item from %s: %v", cfg.TableName, err)
		return err
	}

	if output.Item == nil {
		return ErrItemNotFound
	}

	return attributevalue.UnmarshalMap(output.Item, result)
}

// PutItem stores an item, replacing any item with the same key.
func (db *DynamoDBClient) PutItem(ctx context.Context, tableName string, item interface{}) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = db.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      av,
	})
	return err
}

// PutItemIfNotExists stores an item only if no item with its key exists.
// It returns ErrConditionFailed when the key is taken.
func (db *DynamoDBClient) PutItemIfNotExists(ctx context.Context, tableName, keyName string, item interface{}) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = db.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(tableName),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": keyName},
	})
	return translateError(err)
}

// PutItemIf replaces an item when every condition holds on the stored one.
// It returns ErrConditionFailed when a condition does not hold.
func (db *DynamoDBClient) PutItemIf(ctx context.Context, tableName string, item interface{}, conditions map[string]interface{}) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	names := make(map[string]string)
	values := make(map[string]types.AttributeValue)
	condition, err := buildCondition(conditions, names, values)
	if err != nil {
		return err
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      av,
	}
	if condition != "" {
		input.ConditionExpression = aws.String(condition)
		input.ExpressionAttributeNames = names
		if len(values) > 0 {
			input.ExpressionAttributeValues = values
		}
	}

	_, err = db.client.PutItem(ctx, input)
	return translateError(err)
}

// UpdateItem sets the given attributes on an existing item.
func (db *DynamoDBClient) UpdateItem(ctx context.Context, tableName, key, keyValue string, updates map[string]interface{}) error {
	return db.UpdateItemIf(ctx, tableName, key, keyValue, updates, nil)
}

// UpdateItemIf sets the given attributes when every condition holds. A
// condition with a nil value requires the attribute to be absent. It returns
// ErrConditionFailed when a condition does not hold.
func (db *DynamoDBClient) UpdateItemIf(ctx context.Context, tableName, key, keyValue string, updates, conditions map[string]interface{}) error {
	expr, err := buildUpdate(updates, conditions)
	if err != nil {
		return err
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                aws.String(tableName),
		Key:                      keyOf(key, keyValue),
		UpdateExpression:         aws.String(expr.update),
		ExpressionAttributeNames: expr.names,
	}
	if len(expr.values) > 0 {
		input.ExpressionAttributeValues = expr.values
	}
	if expr.condition != "" {
		input.ConditionExpression = aws.String(expr.condition)
	}

	_, err = db.client.UpdateItem(ctx, input)
	return translateError(err)
}

// DeleteItem deletes an item from DynamoDB
func (db *DynamoDBClient) DeleteItem(ctx context.Context, tableName, key, value string) error {
	_, err := db.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(tableName),
		Key:       keyOf(key, value),
	})
	return err
}

// QueryByIndex queries a global secondary index, following pagination.
func (db *DynamoDBClient) QueryByIndex(ctx context.Context, tableName, indexName, keyName, keyValue string, results interface{}) error {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(tableName),
		IndexName:              aws.String(indexName),
		KeyConditionExpression: aws.String("#kn0 = :kv0"),
		ExpressionAttributeNames: map[string]string{
			"#kn0": keyName,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":kv0": &types.AttributeValueMemberS{Value: keyValue},
		},
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(db.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			db.logger.Errorf("Failed to query %s on %s: %v", tableName, indexName, err)
			return err
		}
		items = append(items, page.Items...)
	}

	return attributevalue.UnmarshalListOfMaps(items, results)
}

// Scan reads the whole table, following pagination.
func (db *DynamoDBClient) Scan(ctx context.Context, tableName string, results interface{}) error {
	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewScanPaginator(db.client, &dynamodb.ScanInput{
		TableName: aws.String(tableName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			db.logger.Errorf("Failed to scan %s: %v", tableName, err)
			return err
		}
		items = append(items, page.Items...)
	}

	return attributevalue.UnmarshalListOfMaps(items, results)
}

// CreateTable creates a table
func (db *DynamoDBClient) CreateTable(ctx context.Context, input *dynamodb.CreateTableInput) error {
	_, err := db.client.CreateTable(ctx, input)
	return err
}

// DescribeTable describes a table
func (db *DynamoDBClient) DescribeTable(ctx context.Context, tableName string) (*dynamodb.DescribeTableOutput, error) {
	return db.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
}

// DeleteTable deletes a table
func (db *DynamoDBClient) DeleteTable(ctx context.Context, input *dynamodb.DeleteTableInput) error {
	_, err := db.client.DeleteTable(ctx, input)
	return err
}

func keyOf(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

type updateExpression struct {
	update    string
	condition string
	names     map[string]string
	values    map[string]types.AttributeValue
}

// buildUpdate renders SET, REMOVE and condition expressions. A nil update
// value removes the attribute. Fields are sorted so the expression is stable.
func buildUpdate(updates, conditions map[string]interface{}) (*updateExpression, error) {
	if len(updates) == 0 {
		return nil, errors.New("no attributes to update")
	}

	expr := &updateExpression{
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
	}

	var sets, removes []string
	for i, field := range sortedKeys(updates) {
		name := fmt.Sprintf("#u%d", i)
		expr.names[name] = field
		if updates[field] == nil {
			removes = append(removes, name)
			continue
		}
		value := fmt.Sprintf(":u%d", i)
		av, err := attributevalue.Marshal(updates[field])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", field, err)
		}
		expr.values[value] = av
		sets = append(sets, name+" = "+value)
	}

	var clauses []string
	if len(sets) > 0 {
		clauses = append(clauses, "SET "+strings.Join(sets, ", "))
	}
	if len(removes) > 0 {
		clauses = append(clauses, "REMOVE "+strings.Join(removes, ", "))
	}
	expr.update = strings.Join(clauses, " ")

	condition, err := buildCondition(conditions, expr.names, expr.values)
	if err != nil {
		return nil, err
	}
	expr.condition = condition

	return expr, nil
}

// buildCondition renders an AND of equality checks into names and values.
// A nil value requires the attribute to be absent.
func buildCondition(conditions map[string]interface{}, names map[string]string, values map[string]types.AttributeValue) (string, error) {
	conds := make([]string, 0, len(conditions))
	for i, field := range sortedKeys(conditions) {
		name := fmt.Sprintf("#c%d", i)
		names[name] = field
		if conditions[field] == nil {
			conds = append(conds, "attribute_not_exists("+name+")")
			continue
		}
		value := fmt.Sprintf(":c%d", i)
		av, err := attributevalue.Marshal(conditions[field])
		if err != nil {
			return "", fmt.Errorf("failed to marshal condition %s: %w", field, err)
		}
		values[value] = av
		conds = append(conds, name+" = "+value)
	}
	return strings.Join(conds, " AND "), nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// translateError maps a lost conditional write to ErrConditionFailed.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%w: %s", ErrConditionFailed, ccf.ErrorMessage())
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
		return fmt.Errorf("%w: %s", ErrConditionFailed, apiErr.ErrorMessage())
	}

	return err
}

// PrintPrettyJSON renders v as indented JSON for debug logging.
func PrintPrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("Failed to generate JSON: %v", err)
	}
	return string(b)
}
