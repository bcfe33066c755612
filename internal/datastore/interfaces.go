// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines the
// operations available on stored classification results.
type Interface interface {
	Open() error
	Save(classification *Classification, scores []Score) error
	Get(uuid string) (Classification, error)
	GetRecent(limit int) ([]Classification, error)
	CountByLabel() (map[string]int64, error)
	Close() error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the enabled output settings.
// Returns nil when no output is enabled; callers treat that as no-op
// persistence.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// Save stores a classification and its associated per-label scores as a
// single transaction.
func (ds *DataStore) Save(classification *Classification, scores []Score) error {
	tx := ds.DB.Begin()
	if tx.Error != nil {
		return errors.New(fmt.Errorf("starting transaction: %w", tx.Error)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(classification).Error; err != nil {
		tx.Rollback()
		return errors.New(fmt.Errorf("saving classification: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	for i := range scores {
		scores[i].ClassificationID = classification.ID
		if err := tx.Create(&scores[i]).Error; err != nil {
			tx.Rollback()
			return errors.New(fmt.Errorf("saving score: %w", err)).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Build()
		}
	}

	if err := tx.Commit().Error; err != nil {
		return errors.New(fmt.Errorf("committing transaction: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// Get retrieves a classification by its UUID, including per-label scores.
func (ds *DataStore) Get(uuid string) (Classification, error) {
	var classification Classification
	err := ds.DB.Preload("Scores").Where("uuid = ?", uuid).First(&classification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Classification{}, errors.Newf("classification %s not found", uuid).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return Classification{}, errors.New(fmt.Errorf("getting classification: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return classification, nil
}

// GetRecent returns the most recent classifications, newest first.
func (ds *DataStore) GetRecent(limit int) ([]Classification, error) {
	var classifications []Classification
	err := ds.DB.Preload("Scores").
		Order("created_at DESC").
		Limit(limit).
		Find(&classifications).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("getting recent classifications: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return classifications, nil
}

// CountByLabel returns the number of stored classifications per label.
func (ds *DataStore) CountByLabel() (map[string]int64, error) {
	type row struct {
		Label string
		Count int64
	}
	var rows []row
	err := ds.DB.Model(&Classification{}).
		Select("label, count(*) as count").
		Where("invalid = ?", false).
		Group("label").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("counting classifications: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Label] = r.Count
	}
	return counts, nil
}

// Close closes the underlying database connection.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return fmt.Errorf("getting underlying database: %w", err)
	}
	return sqlDB.Close()
}

// performAutoMigration runs GORM auto-migration for the data model.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Classification{}, &Score{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}
	return nil
}

// createGormLogger creates a GORM logger that only reports slow queries and
// errors.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
}
