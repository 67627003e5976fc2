// Package diskmanager owns the audio artifacts on disk: the exported clips
// referenced by detection records.
package diskmanager

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/birdstation/ebird-engine/internal/conf"
	"github.com/birdstation/ebird-engine/internal/errors"
)

// ClipStore deletes audio artifacts belonging to detection records.
type ClipStore interface {
	// Delete removes the clip file. A clip that is already gone is not an
	// error; the caller only needs the record and the file to agree.
	Delete(clipName string) error
}

// DiskClipStore resolves clip names under the configured audio export
// directory and deletes them from the filesystem.
type DiskClipStore struct {
	basePath string
}

// NewDiskClipStore creates a ClipStore rooted at the audio export path.
func NewDiskClipStore(settings *conf.Settings) *DiskClipStore {
	return &DiskClipStore{basePath: settings.Audio.Export.Path}
}

func (s *DiskClipStore) Delete(clipName string) error {
	if clipName == "" {
		return nil
	}

	path := clipName
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.basePath, path)
	}

	// Refuse paths that escape the export directory.
	if s.basePath != "" {
		rel, err := filepath.Rel(s.basePath, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return errors.Newf("clip path %q escapes the audio export directory", clipName).
				Category(errors.CategoryValidation).
				Context("clip_name", clipName).
				Component("diskmanager").
				Build()
		}
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Newf("failed to delete clip %s: %w", path, err).
			Category(errors.CategoryFileIO).
			Context("clip_name", clipName).
			Component("diskmanager").
			Build()
	}
	return nil
}
