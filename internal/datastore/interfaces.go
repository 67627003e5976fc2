// interfaces.go: defines the interface for detection store operations.
package datastore

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/birdstation/ebird-engine/internal/conf"
)

// TxStore is the subset of store operations available inside a transaction.
type TxStore interface {
	Get(id uint) (Note, error)
	Delete(id uint) error
	ClearNoteClipPath(id uint) error
}

// Interface abstracts the underlying database implementation and defines the
// operations the engine performs against the detection store.
type Interface interface {
	TxStore
	Open() error
	Close() error
	Save(note *Note) error
	GetNoteClipPath(id uint) (string, error)
	GetDetectionPage(offset, limit int) ([]Note, error)
	CountDetections() (int64, error)
	// Transaction runs fn inside a single database transaction. Any error
	// returned by fn rolls the whole unit of work back.
	Transaction(fn func(tx TxStore) error) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a detection store instance based on the configured backend.
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

// Save inserts a new detection record.
func (ds *DataStore) Save(note *Note) error {
	if err := ds.DB.Create(note).Error; err != nil {
		return fmt.Errorf("saving note: %w", err)
	}
	return nil
}

// Get retrieves a detection by its ID.
func (ds *DataStore) Get(id uint) (Note, error) {
	var note Note
	if err := ds.DB.First(&note, id).Error; err != nil {
		return Note{}, fmt.Errorf("getting note with ID %d: %w", id, err)
	}
	return note, nil
}

// Delete removes a detection record.
func (ds *DataStore) Delete(id uint) error {
	result := ds.DB.Delete(&Note{}, id)
	if result.Error != nil {
		return fmt.Errorf("deleting note with ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("deleting note with ID %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// GetNoteClipPath retrieves the path to the audio clip associated with a note.
func (ds *DataStore) GetNoteClipPath(id uint) (string, error) {
	var clipPath struct {
		ClipName string
	}

	err := ds.DB.Model(&Note{}).
		Select("clip_name").
		Where("id = ?", id).
		First(&clipPath).Error
	if err != nil {
		return "", fmt.Errorf("failed to retrieve clip path: %w", err)
	}

	return clipPath.ClipName, nil
}

// ClearNoteClipPath empties the clip path field of a note.
func (ds *DataStore) ClearNoteClipPath(id uint) error {
	err := ds.DB.Model(&Note{}).Where("id = ?", id).Update("clip_name", "").Error
	if err != nil {
		return fmt.Errorf("failed to clear clip path for note ID %d: %w", id, err)
	}
	return nil
}

// GetDetectionPage retrieves a page of detections ordered by ID. The bulk
// cleanup operator iterates the store through this.
func (ds *DataStore) GetDetectionPage(offset, limit int) ([]Note, error) {
	var notes []Note
	err := ds.DB.Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("error getting detection page at offset %d: %w", offset, err)
	}
	return notes, nil
}

// CountDetections returns the total number of stored detections.
func (ds *DataStore) CountDetections() (int64, error) {
	var count int64
	if err := ds.DB.Model(&Note{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("error counting detections: %w", err)
	}
	return count, nil
}

// Transaction runs fn inside a single database transaction.
func (ds *DataStore) Transaction(fn func(tx TxStore) error) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&DataStore{DB: tx})
	})
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Note{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}

	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}
