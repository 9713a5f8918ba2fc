package storage

import (
	"context"
	"fmt"
)

// Backend persists one raw JSON document per key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// OpenBackend opens the backend named by driver.
func OpenBackend(driver, jsonPath, sqlitePath string) (Backend, error) {
	switch driver {
	case "", DriverJSON:
		return NewJSONBackend(jsonPath)
	case DriverSQLite:
		return NewSQLiteBackend(sqlitePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
