package models

// QueryConfig addresses a single item by its string partition key.
type QueryConfig struct {
	TableName string
	KeyName   string
	KeyValue  string
	// Consistent requests a strongly consistent read. Reads that feed a
	// compare-and-swap write must set it.
	Consistent bool
}
