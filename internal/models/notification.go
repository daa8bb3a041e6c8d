package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Notification is one recipient's copy of an event.
// (EventID, RecipientID) is unique: replaying an event never adds rows.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	EventID     string    `json:"event_id" gorm:"size:128;not null;uniqueIndex:idx_event_recipient"`
	RecipientID uint      `json:"recipient_id" gorm:"not null;uniqueIndex:idx_event_recipient;index"`
	Type        string    `json:"type" gorm:"size:30;not null"`
	ActorID     uint      `json:"actor_id" gorm:"not null"`
	ContentID   *uint     `json:"content_id"`
	Metadata    Metadata  `json:"metadata" gorm:"column:metadata_json;type:text"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read" gorm:"not null;default:false"`

	// Score is attached at delivery time and never stored
	Score int64 `json:"score,omitempty" gorm:"-"`
}

// Metadata is an opaque JSON object stored as text
type Metadata json.RawMessage

// Value implements driver.Valuer
func (m Metadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return string(m), nil
}

// Scan implements sql.Scanner
func (m *Metadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = nil
	case string:
		*m = Metadata(v)
	case []byte:
		*m = append((*m)[:0], v...)
	default:
		return errors.New("metadata: unsupported column type")
	}
	return nil
}

// MarshalJSON emits the stored object as-is
func (m Metadata) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("null"), nil
	}
	return m, nil
}

// UnmarshalJSON keeps a copy of the raw object
func (m *Metadata) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = nil
		return nil
	}
	*m = append((*m)[:0], data...)
	return nil
}

// IngestResult is returned for each accepted event
type IngestResult struct {
	Recipients []uint `json:"recipients"`
	Created    int    `json:"created"`
}
