package converter

import (
	"imagestudio/internal/entity"
	"imagestudio/internal/entity/db"
)

// HistoryRecordToRow converts an entity.HistoryRecord to its table row.
func HistoryRecordToRow(r entity.HistoryRecord) db.HistoryRecord {
	return db.HistoryRecord{
		RecordID:  r.ID,
		Prompt:    r.Prompt,
		ImageURL:  r.ImageURL,
		Timestamp: r.Timestamp.UTC(),
	}
}

// HistoryRowToRecord converts a table row back to an entity.HistoryRecord.
func HistoryRowToRecord(row db.HistoryRecord) entity.HistoryRecord {
	return entity.HistoryRecord{
		ID:        row.RecordID,
		Prompt:    row.Prompt,
		ImageURL:  row.ImageURL,
		Timestamp: row.Timestamp.UTC(),
	}
}

// HistoryRowsToRecords keeps the order of rows.
func HistoryRowsToRecords(rows []db.HistoryRecord) []entity.HistoryRecord {
	records := make([]entity.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, HistoryRowToRecord(row))
	}
	return records
}
