package database

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/refreshmon/refreshmon/internal/models"
)

// MemoryPath opens a private database that lives as long as the connection
const MemoryPath = ":memory:"

// busyTimeoutMs lets the CLI read history while the daemon is writing a run
const busyTimeoutMs = 5000

// DB is the check history database
type DB struct {
	*gorm.DB
	path string
}

// DefaultPath returns ~/.local/share/refreshmon/history.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(home, ".local", "share", "refreshmon", "history.db"), nil
}

// Connect opens the history database at path, creating its directory when
// needed. An empty path selects DefaultPath.
func Connect(path string) (*DB, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrapf(err, "create history directory for %s", path)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open history database %s", path)
	}

	db := &DB{DB: gdb, path: path}
	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// dsn adds the per-connection pragmas. WAL keeps readers off the writer's lock.
func dsn(path string) string {
	if path == MemoryPath {
		return path
	}
	return path + "?_journal_mode=WAL&_busy_timeout=" + strconv.Itoa(busyTimeoutMs)
}

func (db *DB) configure() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return errors.Wrap(err, "access sql handle")
	}
	if db.path == MemoryPath {
		// every pooled connection would get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}
	return db.Exec("SELECT 1").Error
}

// Path returns the database location
func (db *DB) Path() string {
	return db.path
}

// Initialize creates or migrates the check_runs and error_logs tables
func (db *DB) Initialize() error {
	if err := db.AutoMigrate(&models.CheckRun{}, &models.ErrorLog{}); err != nil {
		return errors.Wrap(err, "migrate history schema")
	}
	return nil
}

// Close releases the underlying connection pool
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return errors.Wrap(err, "access sql handle")
	}
	return sqlDB.Close()
}
