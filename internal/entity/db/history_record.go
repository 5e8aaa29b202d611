package db

import "time"

// HistoryRecord stores one generation history entry. Seq orders inserts so
// records with the same timestamp keep their insertion order.
type HistoryRecord struct {
	Seq       uint      `gorm:"primarykey;autoIncrement" json:"-"`
	RecordID  string    `gorm:"column:record_id;type:varchar(64);uniqueIndex" json:"id"`
	Prompt    string    `gorm:"column:prompt;type:text" json:"prompt"`
	ImageURL  string    `gorm:"column:image_url;type:text" json:"imageUrl"`
	Timestamp time.Time `gorm:"column:timestamp;index" json:"timestamp"`
}

// TableName 指定表名
func (HistoryRecord) TableName() string {
	return "history_records"
}
