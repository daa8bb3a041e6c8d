package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connections
type DB struct {
	SQL   *gorm.DB
	Mongo *mongo.Client

	logger *slog.Logger
}

// InitDB opens the relational store selected by cfg.DBDriver, and MongoDB
// when content is kept there
func InitDB(cfg *Config, log *slog.Logger) (*DB, error) {
	log = log.With("component", "config.DB")

	sqlDB, err := OpenSQL(cfg.DBDriver, cfg.SQLitePath, cfg.PostgresConnStr)
	if err != nil {
		return nil, err
	}
	log.Info("Connected to relational store", "driver", cfg.DBDriver)

	db := &DB{SQL: sqlDB, logger: log}

	if cfg.ContentStore == "mongo" {
		if cfg.MongoURI == "" {
			db.CloseDB()
			return nil, fmt.Errorf("MONGO_URI environment variable not set")
		}
		db.Mongo, err = initMongo(cfg.MongoURI)
		if err != nil {
			db.CloseDB()
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		log.Info("Connected to MongoDB")
	}

	return db, nil
}

// OpenSQL opens and pings a gorm connection. SQLite is limited to a
// single connection so that all writes are serialized.
func OpenSQL(driver, sqlitePath, postgresConnStr string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		if postgresConnStr == "" {
			return nil, fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
		db, err = gorm.Open(postgres.Open(postgresConnStr), gormCfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqliteDSN(sqlitePath)), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	if err != nil {
		// gorm hands back the pool even when its initial ping fails
		closeSQL(db)
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	}
	if err = sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	return db, nil
}

func closeSQL(db *gorm.DB) {
	if db == nil || db.Config == nil || db.ConnPool == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// initMongo initializes the MongoDB connection
func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.SQL != nil {
		sqlDB, err := db.SQL.DB()
		if err != nil {
			db.logger.Error("Error getting SQL DB from GORM", "error", err)
		} else if err := sqlDB.Close(); err != nil {
			db.logger.Error("Error closing relational store", "error", err)
		} else {
			db.logger.Info("Relational store closed.")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.logger.Error("Error closing MongoDB connection", "error", err)
		} else {
			db.logger.Info("MongoDB connection closed.")
		}
	}
}
