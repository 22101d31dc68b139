package database

// SQL schemas for all ClickHouse tables

const (
	// InferenceModelsTableSQL creates the inference_models table.
	// Rows are immutable; a new upload gets the next version for its name.
	InferenceModelsTableSQL = `
		CREATE TABLE IF NOT EXISTS inference_models (
			name String,
			version UInt32,
			activation LowCardinality(String),
			network String,
			created_at DateTime64(3)
		) ENGINE = ReplacingMergeTree(created_at)
		ORDER BY (name, version)
	`
)

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		InferenceModelsTableSQL,
	}
}
