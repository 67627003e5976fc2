// model.go defines the detection store data model.
package datastore

import "time"

// Note represents a single detection record.
//
// The five EBird* fields are owned by the regional confidence engine. They
// are written once when a detection is accepted by the filter gate and never
// mutated afterward; the bulk cleanup operator and reporting read them.
type Note struct {
	ID             uint   `gorm:"primaryKey"`
	SourceNode     string
	Date           string `gorm:"index:idx_notes_date"`
	Time           string `gorm:"index:idx_notes_time"`
	BeginTime      time.Time
	EndTime        time.Time
	SpeciesCode    string
	ScientificName string  `gorm:"index:idx_notes_sciname"`
	CommonName     string  `gorm:"index:idx_notes_comname"`
	Confidence     float64
	Latitude       float64
	Longitude      float64
	ClipName       string

	// Regional confidence annotation, write-once at detection creation
	EBirdConfidenceTier  string  `gorm:"type:varchar(16)"`
	EBirdConfidenceBoost float64
	EBirdH3Cell          string `gorm:"index:idx_notes_ebird_cell"` // hex string form
	EBirdRingDistance    int
	EBirdRegionPack      string
}

// HasEBirdAnnotation reports whether the regional confidence fields have
// been written onto this note.
func (n *Note) HasEBirdAnnotation() bool {
	return n.EBirdConfidenceTier != ""
}
