package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// HistoryRecord is one successful generation kept in the local history.
type HistoryRecord struct {
	ID        string    `json:"id,omitempty"`
	Prompt    string    `json:"prompt"`
	ImageURL  string    `json:"imageUrl"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHistoryRecord builds a record with a fresh ID.
func NewHistoryRecord(prompt, imageURL string, at time.Time) HistoryRecord {
	return HistoryRecord{
		ID:        uuid.NewString(),
		Prompt:    strings.TrimSpace(prompt),
		ImageURL:  strings.TrimSpace(imageURL),
		Timestamp: at.UTC(),
	}
}

// WithID returns the record with an ID, assigning a new one when it is empty.
func (r HistoryRecord) WithID() HistoryRecord {
	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.NewString()
	}
	return r
}

// DefaultHistoryLimit bounds the persisted history when no limit is configured.
const DefaultHistoryLimit = 200

// PrependHistory inserts record at the head of records and drops the oldest
// entries beyond limit. A limit of 0 keeps everything. Records without an ID,
// such as ones written by the browser UI, get one. records is not modified.
func PrependHistory(records []HistoryRecord, record HistoryRecord, limit int) []HistoryRecord {
	out := make([]HistoryRecord, 0, len(records)+1)
	out = append(out, record.WithID())
	for _, existing := range records {
		out = append(out, existing.WithID())
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
