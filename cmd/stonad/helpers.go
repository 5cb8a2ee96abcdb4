package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/solheim/stonadskjerne/internal/storage"
	"github.com/spf13/viper"
)

// openStorage opens the configured database, falling back to the
// standard local data path.
func openStorage() (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "stonad", "stonad.db")
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}
