package sql

import (
	"context"
	"errors"
	"fmt"
	"imagestudio/internal/entity"
	"imagestudio/internal/entity/converter"
	"imagestudio/internal/entity/db"

	"gorm.io/gorm"
)

// GormHistoryStore keeps the history in the history_records table. Append
// inserts and trims inside one transaction, so concurrent writers never lose
// records.
type GormHistoryStore struct {
	db    *gorm.DB
	limit int
}

// NewGormHistoryStore creates a new store; limit 0 disables trimming.
func NewGormHistoryStore(gdb *gorm.DB, limit int) *GormHistoryStore {
	return &GormHistoryStore{db: gdb, limit: limit}
}

// Migrate creates or updates the history table.
func (r *GormHistoryStore) Migrate() error {
	return r.db.AutoMigrate(&db.HistoryRecord{})
}

func (r *GormHistoryStore) Load(ctx context.Context) ([]entity.HistoryRecord, error) {
	var rows []db.HistoryRecord
	if err := r.db.WithContext(ctx).Order("seq DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return converter.HistoryRowsToRecords(rows), nil
}

func (r *GormHistoryStore) Append(ctx context.Context, record entity.HistoryRecord) error {
	row := converter.HistoryRecordToRow(record.WithID())
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert history record: %w", err)
		}
		return r.trim(tx)
	})
}

// trim deletes every row older than the newest limit rows.
func (r *GormHistoryStore) trim(tx *gorm.DB) error {
	if r.limit <= 0 {
		return nil
	}
	var cutoff db.HistoryRecord
	err := tx.Select("seq").Order("seq DESC").Offset(r.limit).Limit(1).Take(&cutoff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find history cutoff: %w", err)
	}
	if err := tx.Where("seq <= ?", cutoff.Seq).Delete(&db.HistoryRecord{}).Error; err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}
