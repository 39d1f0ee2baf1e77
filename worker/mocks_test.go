package worker

import (
	"context"
	"time"

	"fieldops-scheduler/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/mock"
)

// MockGenerator implements services.JobGenerationServiceInterface for testing
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) RunDue(ctx context.Context, now time.Time) (*models.GenerationReport, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GenerationReport), args.Error(1)
}

func (m *MockGenerator) GeneratePlan(ctx context.Context, plan *models.SchedulePlan, now time.Time) models.PlanOutcome {
	return m.Called(ctx, plan, now).Get(0).(models.PlanOutcome)
}

// MockDB implements dal.DatabaseClientInterface for testing. Only the table
// management calls are expected by the worker.
type MockDB struct {
	mock.Mock
}

func (m *MockDB) GetItem(ctx context.Context, config models.QueryConfig, result interface{}) error {
	return m.Called(ctx, config, result).Error(0)
}

func (m *MockDB) PutItem(ctx context.Context, tableName string, item interface{}) error {
	return m.Called(ctx, tableName, item).Error(0)
}

func (m *MockDB) UpdateItem(ctx context.Context, tableName, key, keyValue string, updates map[string]interface{}) error {
	return m.Called(ctx, tableName, key, keyValue, updates).Error(0)
}

func (m *MockDB) DeleteItem(ctx context.Context, tableName, key, value string) error {
	return m.Called(ctx, tableName, key, value).Error(0)
}

func (m *MockDB) PutItemIfNotExists(ctx context.Context, tableName, keyName string, item interface{}) error {
	return m.Called(ctx, tableName, keyName, item).Error(0)
}

func (m *MockDB) PutItemIf(ctx context.Context, tableName string, item interface{}, conditions map[string]interface{}) error {
	return m.Called(ctx, tableName, item, conditions).Error(0)
}

func (m *MockDB) UpdateItemIf(ctx context.Context, tableName, key, keyValue string, updates, conditions map[string]interface{}) error {
	return m.Called(ctx, tableName, key, keyValue, updates, conditions).Error(0)
}

func (m *MockDB) QueryByIndex(ctx context.Context, tableName, indexName, keyName, keyValue string, results interface{}) error {
	return m.Called(ctx, tableName, indexName, keyName, keyValue, results).Error(0)
}

func (m *MockDB) Scan(ctx context.Context, tableName string, results interface{}) error {
	return m.Called(ctx, tableName, results).Error(0)
}

func (m *MockDB) CreateTable(ctx context.Context, input *dynamodb.CreateTableInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockDB) DescribeTable(ctx context.Context, tableName string) (*dynamodb.DescribeTableOutput, error) {
	args := m.Called(ctx, tableName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.DescribeTableOutput), args.Error(1)
}

func (m *MockDB) DeleteTable(ctx context.Context, input *dynamodb.DeleteTableInput) error {
	return m.Called(ctx, input).Error(0)
}
