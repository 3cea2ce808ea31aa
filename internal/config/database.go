package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"solar_planner/pkg/logger"

	influxdb3 "github.com/InfluxCommunity/influxdb3-go/v2/influxdb3"
	_ "github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Database is an open connection backing the project store
type Database interface {
	Close() error
	GetType() string
}

// FileDatabase keeps store slots as JSON files in a directory
type FileDatabase struct {
	Dir string
}

// MemoryDatabase keeps store slots in process memory
type MemoryDatabase struct{}

// SQLiteDatabase wraps a SQLite handle
type SQLiteDatabase struct {
	DB   *sql.DB
	Path string
}

// MongoDatabase wraps MongoDB client
type MongoDatabase struct {
	Client     *mongo.Client
	Database   *mongo.Database
	Collection *mongo.Collection
}

// PostgresDatabase wraps a gorm handle on PostgreSQL
type PostgresDatabase struct {
	DB *gorm.DB
}

// InfluxDatabase wraps InfluxDB v3 client
type InfluxDatabase struct {
	Client   *influxdb3.Client
	Database string
}

// InitDatabase creates the connection for the configured store
func InitDatabase(cfg *Config) (Database, error) {
	switch cfg.StoreType {
	case StoreFile:
		return initFile(cfg)
	case StoreMemory:
		return &MemoryDatabase{}, nil
	case StoreSQLite:
		return initSQLite(cfg)
	case StoreMongo:
		return initMongo(cfg)
	case StorePostgres:
		return initPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.StoreType)
	}
}

func initFile(cfg *Config) (*FileDatabase, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir failed: %w", err)
	}
	logger.Infof("✓ File store ready: %s", cfg.DataDir)
	return &FileDatabase{Dir: cfg.DataDir}, nil
}

func (f *FileDatabase) Close() error    { return nil }
func (f *FileDatabase) GetType() string { return StoreFile }

func (m *MemoryDatabase) Close() error    { return nil }
func (m *MemoryDatabase) GetType() string { return StoreMemory }

// SQLite initialization
func initSQLite(cfg *Config) (*SQLiteDatabase, error) {
	if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir failed: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.SQLitePath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping failed: %w", err)
	}

	logger.Infof("✓ SQLite connected: %s", cfg.SQLitePath)
	return &SQLiteDatabase{DB: db, Path: cfg.SQLitePath}, nil
}

func (s *SQLiteDatabase) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

func (s *SQLiteDatabase) GetType() string { return StoreSQLite }

// MongoDB initialization
func initMongo(cfg *Config) (*MongoDatabase, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(5)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect failed: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	database := client.Database(cfg.MongoDB)
	collection := database.Collection(cfg.MongoCollection)

	logger.Infof("✓ MongoDB connected: %s/%s", cfg.MongoDB, cfg.MongoCollection)

	return &MongoDatabase{
		Client:     client,
		Database:   database,
		Collection: collection,
	}, nil
}

func (m *MongoDatabase) Close() error {
	if m.Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.Client.Disconnect(ctx)
	}
	return nil
}

func (m *MongoDatabase) GetType() string { return StoreMongo }

// PostgreSQL initialization
func initPostgres(cfg *Config) (*PostgresDatabase, error) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres connect failed: %w", err)
	}

	logger.Info("✓ PostgreSQL connected")
	return &PostgresDatabase{DB: db}, nil
}

func (p *PostgresDatabase) Close() error {
	if p.DB == nil {
		return nil
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *PostgresDatabase) GetType() string { return StorePostgres }

// InitSnapshotDatabase connects to InfluxDB for sizing snapshots.
// It returns nil when snapshots are disabled.
func InitSnapshotDatabase(cfg *Config) (*InfluxDatabase, error) {
	if !cfg.SnapshotEnabled {
		return nil, nil
	}

	logger.Infof("⚡ Initializing InfluxDB v3 connection (url=%s, database=%s, token=%s)",
		cfg.InfluxURL, cfg.InfluxDatabase, maskToken(cfg.InfluxToken))

	clientConfig := influxdb3.ClientConfig{
		Host:     cfg.InfluxURL,
		Database: cfg.InfluxDatabase,
		WriteOptions: &influxdb3.WriteOptions{
			DefaultTags: map[string]string{
				"source": "solar_planner",
			},
		},
	}

	// InfluxDB v3 Core may run without auth
	if cfg.InfluxToken != "" {
		clientConfig.Token = cfg.InfluxToken
	}

	client, err := influxdb3.New(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("influx client creation failed: %w", err)
	}

	logger.Infof("✓ InfluxDB connected: %s", cfg.InfluxDatabase)

	return &InfluxDatabase{
		Client:   client,
		Database: cfg.InfluxDatabase,
	}, nil
}

func (i *InfluxDatabase) Close() error {
	if i.Client != nil {
		return i.Client.Close()
	}
	return nil
}

// Helper to mask token in logs
func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
