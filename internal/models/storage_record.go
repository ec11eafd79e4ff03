package models

import "time"

// StorageRecord is one keyed blob in the database-backed store.
type StorageRecord struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (StorageRecord) TableName() string {
	return "storage_records"
}
