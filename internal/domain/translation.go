package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// TranslationStatus represents the lifecycle state of a translation request.
// Values include TranslationStatusPending, TranslationStatusProcessing,
// TranslationStatusCompleted, and TranslationStatusFailed.
type TranslationStatus string

const (
	TranslationStatusPending    TranslationStatus = "pending"
	TranslationStatusProcessing TranslationStatus = "processing"
	TranslationStatusCompleted  TranslationStatus = "completed"
	TranslationStatusFailed     TranslationStatus = "failed"
)

// Terminal reports whether the status is final. Completed and failed records
// are never mutated again.
func (s TranslationStatus) Terminal() bool {
	return s == TranslationStatusCompleted || s == TranslationStatusFailed
}

// JSONMap is a custom type for storing string maps as JSON in the database.
// A nil map is stored and read back as SQL NULL.
type JSONMap map[string]string

// Value implements the driver.Valuer interface for database serialization.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan JSONMap")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// Translation represents a translation request and its lifecycle state.
// OriginalContent is a snapshot of the submitted fields taken at creation
// time; TranslatedContent stays nil until the request completes.
type Translation struct {
	ID                string            `gorm:"type:text;primaryKey" json:"id"`
	Name              string            `gorm:"type:text;not null" json:"name"`
	Title             string            `gorm:"type:text;not null" json:"title"`
	Description       string            `gorm:"type:text;not null" json:"description"`
	SourceLanguage    string            `gorm:"type:text;default:en" json:"source_language"`
	TargetLanguage    string            `gorm:"type:text;index:idx_translations_target_language;default:es" json:"target_language"`
	OriginalContent   JSONMap           `gorm:"type:text;not null" json:"original_content"`
	TranslatedContent JSONMap           `gorm:"type:text" json:"translated_content"`
	Status            TranslationStatus `gorm:"type:text;index:idx_translations_status_created,priority:1;default:pending" json:"status"`
	ErrorMessage      string            `gorm:"type:text" json:"error_message,omitempty"`
	ProcessedAt       *time.Time        `gorm:"index:idx_translations_processed_at" json:"processed_at"`
	CreatedAt         time.Time         `gorm:"index:idx_translations_status_created,priority:2" json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// TableName returns the database table name for Translation.
func (Translation) TableName() string {
	return "translations"
}
