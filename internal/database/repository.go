package database

import (
	"time"

	"github.com/refreshmon/refreshmon/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles the check history and error log
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateCheckRun inserts a completed check cycle
func (r *Repository) CreateCheckRun(run *models.CheckRun) error {
	result := r.db.Create(run)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert check run")
	}
	return nil
}

// GetRunsSince retrieves all check runs since a given time, oldest first
func (r *Repository) GetRunsSince(since time.Time) ([]*models.CheckRun, error) {
	var runs []*models.CheckRun
	result := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&runs)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query check runs")
	}

	return runs, nil
}

// GetLatestRun retrieves the most recent check run, or nil when there is none
func (r *Repository) GetLatestRun() (*models.CheckRun, error) {
	var run models.CheckRun
	result := r.db.Order("timestamp DESC").First(&run)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest check run")
	}
	return &run, nil
}

// DeleteRunsBefore soft deletes runs older than before
func (r *Repository) DeleteRunsBefore(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&models.CheckRun{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old check runs")
	}
	return result.RowsAffected, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// GetErrorsSince retrieves error logs since a given time, newest first
func (r *Repository) GetErrorsSince(since time.Time, limit int) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	query := r.db.Where("timestamp >= ?", since).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&logs); result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// Clear removes the whole history
func (r *Repository) Clear() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM check_runs").Error; err != nil {
			return errors.Wrap(err, "failed to clear check runs")
		}
		if err := tx.Exec("DELETE FROM error_logs").Error; err != nil {
			return errors.Wrap(err, "failed to clear error logs")
		}
		return nil
	})
}
