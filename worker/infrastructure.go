package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldops-scheduler/dal"
	"fieldops-scheduler/infrastructure"
	"fieldops-scheduler/models"
	"fieldops-scheduler/utils/logger"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

const (
	tableCreateRetries = 3
	tableRetryDelay    = 2 * time.Second
	tableActiveTimeout = 2 * time.Minute
	tablePollInterval  = 2 * time.Second
)

// InfrastructureSetup creates the scheduler tables from the embedded schema
// when they are missing.
type InfrastructureSetup struct {
	db     dal.DatabaseClientInterface
	config *models.Config
	logger logger.Logger

	retryDelay   time.Duration
	pollInterval time.Duration
}

func NewInfrastructureSetup(db dal.DatabaseClientInterface, cfg *models.Config, log logger.Logger) *InfrastructureSetup {
	return &InfrastructureSetup{
		db:           db,
		config:       cfg,
		logger:       log,
		retryDelay:   tableRetryDelay,
		pollInterval: tablePollInterval,
	}
}

// tableNames returns the prefixed name of every table in the schema.
func (is *InfrastructureSetup) tableNames() []string {
	keys := infrastructure.SchemaKeys()
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, is.config.TableName(key))
	}
	return names
}

// EnsureTables creates missing tables and waits for them to become active.
// Tables are handled one at a time to stay clear of control-plane throttling.
func (is *InfrastructureSetup) EnsureTables(ctx context.Context) ([]models.TableStatus, error) {
	var statuses []models.TableStatus

	for _, name := range is.tableNames() {
		status, err := is.ensureTable(ctx, name)
		if err != nil {
			is.logger.Errorf("Failed to ensure table %s: %v", name, err)
			return statuses, err
		}
		statuses = append(statuses, models.TableStatus{Name: name, Status: status, CheckedAt: time.Now().UTC()})
	}

	is.logger.Infof("Verified %d scheduler tables", len(statuses))
	return statuses, nil
}

func (is *InfrastructureSetup) ensureTable(ctx context.Context, name string) (string, error) {
	for attempt := 0; attempt <= tableCreateRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * is.retryDelay
			is.logger.Infof("Retrying table creation for %s in %v (attempt %d/%d)", name, delay, attempt+1, tableCreateRetries+1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		exists, err := is.tableExists(ctx, name)
		if err != nil {
			is.logger.Warnf("Failed to check if table %s exists: %v", name, err)
			continue
		}
		if exists {
			is.logger.Debugf("Table %s already exists", name)
			return "EXISTS", nil
		}

		input, err := infrastructure.GetTables(name)
		if err != nil {
			return "", fmt.Errorf("failed to build table input: %w", err)
		}

		if err := is.db.CreateTable(ctx, input); err != nil {
			// Another replica won the race.
			if isResourceInUse(err) {
				return "EXISTS", is.waitForActive(ctx, name)
			}
			is.logger.Warnf("Attempt %d failed to create table %s: %v", attempt+1, name, err)
			continue
		}

		is.logger.Infof("Created table %s", name)
		return "CREATED", is.waitForActive(ctx, name)
	}

	return "", fmt.Errorf("failed to create table %s after %d attempts", name, tableCreateRetries+1)
}

func (is *InfrastructureSetup) tableExists(ctx context.Context, name string) (bool, error) {
	if _, err := is.db.DescribeTable(ctx, name); err != nil {
		if isTableNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (is *InfrastructureSetup) waitForActive(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, tableActiveTimeout)
	defer cancel()

	ticker := time.NewTicker(is.pollInterval)
	defer ticker.Stop()

	for {
		desc, err := is.db.DescribeTable(ctx, name)
		if err == nil && desc.Table != nil && desc.Table.TableStatus == types.TableStatusActive {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("table %s did not become active: %w", name, ctx.Err())
		case <-ticker.C:
		}
	}
}

func isTableNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ResourceNotFoundException"
	}

	return strings.Contains(err.Error(), "ResourceNotFoundException")
}

func isResourceInUse(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceInUseException"
}
