// datastore_test.go: tests against a real SQLite database, not mocks,
// to exercise actual GORM behavior.
package datastore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdstation/ebird-engine/internal/conf"
)

// createTestSettings returns settings pointing the SQLite store at a
// temporary database file.
func createTestSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	return settings
}

// createDatabase opens a fresh store and registers cleanup.
func createDatabase(t *testing.T, settings *conf.Settings) Interface {
	t.Helper()
	ds := New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() {
		require.NoError(t, ds.Close())
	})
	return ds
}

func testNote(name string) *Note {
	return &Note{
		SourceNode:     "test-node",
		Date:           "2025-06-15",
		Time:           "06:30:45",
		ScientificName: name,
		CommonName:     "Test Bird",
		Confidence:     0.91,
		Latitude:       60.1699,
		Longitude:      24.9384,
		ClipName:       "clip_001.wav",
	}
}

func TestSaveAndGet(t *testing.T) {
	t.Parallel()
	ds := createDatabase(t, createTestSettings(t))

	note := testNote("Turdus merula")
	note.EBirdConfidenceTier = "common"
	note.EBirdConfidenceBoost = 1.4
	note.EBirdH3Cell = "85089969fffffff"
	note.EBirdRegionPack = "eu-north-2025.05"
	require.NoError(t, ds.Save(note))
	require.NotZero(t, note.ID)

	got, err := ds.Get(note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Turdus merula", got.ScientificName)
	assert.Equal(t, "common", got.EBirdConfidenceTier)
	assert.InDelta(t, 1.4, got.EBirdConfidenceBoost, 1e-9)
	assert.True(t, got.HasEBirdAnnotation())
}

func TestDelete(t *testing.T) {
	t.Parallel()
	ds := createDatabase(t, createTestSettings(t))

	note := testNote("Turdus merula")
	require.NoError(t, ds.Save(note))
	require.NoError(t, ds.Delete(note.ID))

	_, err := ds.Get(note.ID)
	assert.Error(t, err)

	// Deleting a missing record is an error, not a silent no-op
	assert.Error(t, ds.Delete(note.ID))
}

func TestGetDetectionPage(t *testing.T) {
	t.Parallel()
	ds := createDatabase(t, createTestSettings(t))

	for i := 0; i < 5; i++ {
		require.NoError(t, ds.Save(testNote("Parus major")))
	}

	page, err := ds.GetDetectionPage(0, 3)
	require.NoError(t, err)
	assert.Len(t, page, 3)

	page, err = ds.GetDetectionPage(3, 3)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	count, err := ds.CountDetections()
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}

func TestClipPath(t *testing.T) {
	t.Parallel()
	ds := createDatabase(t, createTestSettings(t))

	note := testNote("Parus major")
	require.NoError(t, ds.Save(note))

	path, err := ds.GetNoteClipPath(note.ID)
	require.NoError(t, err)
	assert.Equal(t, "clip_001.wav", path)

	require.NoError(t, ds.ClearNoteClipPath(note.ID))
	path, err = ds.GetNoteClipPath(note.ID)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestTransactionRollback(t *testing.T) {
	t.Parallel()
	ds := createDatabase(t, createTestSettings(t))

	note := testNote("Pica pica")
	require.NoError(t, ds.Save(note))

	sentinel := assert.AnError
	err := ds.Transaction(func(tx TxStore) error {
		if err := tx.Delete(note.ID); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// The delete inside the failed transaction must have been rolled back
	got, err := ds.Get(note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.ID, got.ID)
}

func TestTransactionCommit(t *testing.T) {
	t.Parallel()
	ds := createDatabase(t, createTestSettings(t))

	note := testNote("Pica pica")
	require.NoError(t, ds.Save(note))

	require.NoError(t, ds.Transaction(func(tx TxStore) error {
		return tx.Delete(note.ID)
	}))

	_, err := ds.Get(note.ID)
	assert.Error(t, err)
}
