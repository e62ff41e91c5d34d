package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage handles persistent storage of provider credentials
type SQLiteStorage struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	storage := &SQLiteStorage{
		db:   db,
		path: dbPath,
	}

	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStorage) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS provider_configs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider_name TEXT NOT NULL UNIQUE,
		config_data TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_provider_name ON provider_configs(provider_name);
	`

	_, err := s.db.Exec(query)
	return err
}

// retryOperation executes a database operation with retry logic for SQLITE_BUSY errors
func (s *SQLiteStorage) retryOperation(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked") {
			lastErr = err
			if attempt < maxRetries {
				backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
				time.Sleep(backoff)
				continue
			}
		} else {
			return err
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

// SaveProviderConfig saves provider credentials to SQLite
func (s *SQLiteStorage) SaveProviderConfig(providerName string, config map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return s.retryOperation(func() error {
		query := `
		INSERT INTO provider_configs (provider_name, config_data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(provider_name)
		DO UPDATE SET
			config_data = excluded.config_data,
			updated_at = CURRENT_TIMESTAMP
		`

		_, err := s.db.Exec(query, providerName, string(configJSON))
		if err != nil {
			return fmt.Errorf("failed to save provider config: %w", err)
		}

		return nil
	}, 3)
}

// LoadProviderConfig loads provider credentials from SQLite
func (s *SQLiteStorage) LoadProviderConfig(providerName string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config map[string]string
	err := s.retryOperation(func() error {
		query := `SELECT config_data FROM provider_configs WHERE provider_name = ?`

		var configJSON string
		err := s.db.QueryRow(query, providerName).Scan(&configJSON)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("no configuration found for provider: %s", providerName)
			}
			return fmt.Errorf("failed to load provider config: %w", err)
		}

		if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}

		return nil
	}, 3)

	return config, err
}

// LoadAllProviderConfigs loads all provider credentials from SQLite
func (s *SQLiteStorage) LoadAllProviderConfigs() (map[string]map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var configs map[string]map[string]string
	err := s.retryOperation(func() error {
		query := `SELECT provider_name, config_data FROM provider_configs ORDER BY provider_name`

		rows, err := s.db.Query(query)
		if err != nil {
			return fmt.Errorf("failed to query provider configs: %w", err)
		}
		defer rows.Close()

		configs = make(map[string]map[string]string)

		for rows.Next() {
			var providerName, configJSON string
			if err := rows.Scan(&providerName, &configJSON); err != nil {
				return fmt.Errorf("failed to scan row: %w", err)
			}

			var config map[string]string
			if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
				log.Printf("Warning: failed to unmarshal config for provider %s: %v", providerName, err)
				continue
			}

			configs[providerName] = config
		}

		return rows.Err()
	}, 3)

	if err != nil {
		return nil, err
	}

	return configs, nil
}

// DeleteProviderConfig deletes provider credentials from SQLite
func (s *SQLiteStorage) DeleteProviderConfig(providerName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		query := `DELETE FROM provider_configs WHERE provider_name = ?`

		result, err := s.db.Exec(query, providerName)
		if err != nil {
			return fmt.Errorf("failed to delete provider config: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows: %w", err)
		}

		if affected == 0 {
			return fmt.Errorf("no configuration found for provider: %s", providerName)
		}

		return nil
	}, 3)
}

// Close closes the underlying database connection
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}
