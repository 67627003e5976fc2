// Package regionpack provides read-only access to installed region packs:
// externally produced, versioned SQLite datasets of per-cell, per-species
// occurrence statistics. A pack is attached for the duration of one logical
// operation and detached afterwards; its contents are never written.
package regionpack

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/birdstation/ebird-engine/internal/errors"
	"github.com/birdstation/ebird-engine/internal/logging"
)

// Package-level logger specific to the region pack service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "regionpack.log")
	serviceLevelVar.Set(slog.LevelInfo)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "regionpack", serviceLevelVar)
	if err != nil {
		// Fallback: log error to standard log and disable service logging
		log.Printf("Failed to initialize regionpack file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "regionpack")
		closeLogger = func() error { return nil }
	}
}

// ErrPackNotFound is returned by Attach when no installed pack matches the
// requested name.
var ErrPackNotFound = errors.NewStd("region pack not found")

// PathResolver maps a region pack name to the file holding it. Pack
// installation paths are a deployment concern; the store only consumes
// resolved paths.
type PathResolver interface {
	Resolve(packName string) (string, error)
}

// DirResolver resolves pack names against a single installation directory
// using the <dir>/<name>.db convention.
type DirResolver struct {
	Dir string
}

// Resolve returns the expected path of the named pack.
func (r DirResolver) Resolve(packName string) (string, error) {
	if packName == "" {
		return "", errors.Newf("region pack name must not be empty").
			Category(errors.CategoryValidation).
			Component("regionpack").
			Build()
	}
	return filepath.Join(r.Dir, packName+".db"), nil
}

// Store attaches region packs on demand. It holds no open handles itself;
// each Attach yields an independent Pack scoped to one logical operation,
// so concurrent callers do not share mutable state.
type Store struct {
	resolver PathResolver
}

// NewStore creates a Store using the given path resolver.
func NewStore(resolver PathResolver) *Store {
	return &Store{resolver: resolver}
}

// Attach resolves and opens the named pack read-only, verifying that its
// grid resolution matches the configured one. A mismatch is a configuration
// error, not something to silently tolerate: every cell lookup would miss.
func (s *Store) Attach(ctx context.Context, packName string, expectedResolution int) (*Pack, error) {
	path, err := s.resolver.Resolve(packName)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.Newf("%w: %q (looked in %s)", ErrPackNotFound, packName, path).
			Category(errors.CategoryNotFound).
			Context("pack_name", packName).
			Context("path", path).
			Component("regionpack").
			Build()
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&immutable=1", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Newf("failed to open region pack %q: %w", packName, err).
			Category(errors.CategoryRegionPack).
			Context("pack_name", packName).
			Context("path", path).
			Component("regionpack").
			Build()
	}

	pack := &Pack{db: db, Name: packName}

	var meta PackMeta
	if err := db.WithContext(ctx).First(&meta).Error; err != nil {
		pack.Detach()
		return nil, errors.Newf("failed to read metadata of region pack %q: %w", packName, err).
			Category(errors.CategoryRegionPack).
			Context("pack_name", packName).
			Component("regionpack").
			Build()
	}
	pack.Resolution = meta.Resolution

	if meta.Resolution != expectedResolution {
		pack.Detach()
		return nil, errors.Newf("region pack %q has grid resolution %d, configuration expects %d",
			packName, meta.Resolution, expectedResolution).
			Category(errors.CategoryConfiguration).
			Context("pack_name", packName).
			Context("pack_resolution", meta.Resolution).
			Context("configured_resolution", expectedResolution).
			Component("regionpack").
			Build()
	}

	logger.Debug("region pack attached",
		"pack_name", packName,
		"resolution", meta.Resolution,
		"path", path)

	return pack, nil
}
