package common

import (
	"database/sql"
	"fmt"
	"os"
	"time"
)

// DSN builds a PostgreSQL connection string from cfg.
func (cfg PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)
}

// InitializeDatabase opens a pooled PostgreSQL connection per cfg and
// optionally executes a schema file (e.g. to create the rule-source
// table ahead of EnsureTable). An empty schemaFilePath skips that step.
func InitializeDatabase(cfg PostgresConfig, schemaFilePath string) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}
	if schemaFilePath == "" {
		return db, nil
	}

	queryString, fileErr := os.ReadFile(schemaFilePath)
	if fileErr != nil {
		return nil, fileErr
	}
	if _, err := db.Exec(string(queryString)); err != nil {
		return nil, err
	}
	return db, nil
}
