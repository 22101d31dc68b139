package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"garden-controller/internal/models"
)

// ErrModelNotFound is returned when the registry holds no model under a name
var ErrModelNotFound = errors.New("model not found")

// queryTimeout bounds every registry statement
const queryTimeout = 10 * time.Second

type ClickHouseDB struct {
	conn driver.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(addr, database, username, password string) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Printf("Connected to ClickHouse at %s", addr)

	db := &ClickHouseDB{conn: conn}

	// Initialize schema
	if err := db.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables() {
		if err := db.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Println("Database schema initialized successfully")
	return nil
}

// LoadLatestModel returns the highest version stored under name
func (db *ClickHouseDB) LoadLatestModel(ctx context.Context, name string) (*models.ModelRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT name, version, activation, network, created_at
		FROM inference_models FINAL
		WHERE name = ?
		ORDER BY version DESC
		LIMIT 1
	`

	var record models.ModelRecord
	row := db.conn.QueryRow(ctx, query, name)
	err := row.Scan(&record.Name, &record.Version, &record.Activation, &record.Network, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model %q: %w", name, err)
	}

	return &record, nil
}

// SaveModel stores record under the next free version for its name and
// returns that version. Concurrent publishers of one name are not coordinated.
func (db *ClickHouseDB) SaveModel(ctx context.Context, record *models.ModelRecord) (uint32, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var latest uint32
	row := db.conn.QueryRow(ctx, `SELECT max(version) FROM inference_models WHERE name = ?`, record.Name)
	if err := row.Scan(&latest); err != nil {
		return 0, fmt.Errorf("failed to read latest version of %q: %w", record.Name, err)
	}

	version := latest + 1
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO inference_models (name, version, activation, network, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		record.Name,
		version,
		record.Activation,
		record.Network,
		createdAt,
	)

	if err != nil {
		return 0, fmt.Errorf("failed to insert model %q: %w", record.Name, err)
	}

	log.Printf("Saved model to ClickHouse: Name=%s, Version=%d", record.Name, version)
	return version, nil
}

// Close closes the ClickHouse connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		if err := db.conn.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
		log.Println("ClickHouse connection closed")
	}
	return nil
}
