package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/remind-me/personal/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBBlobStore keeps blobs in the storage_records table.
type DBBlobStore struct {
	db *gorm.DB
}

func NewDBBlobStore(db *gorm.DB) *DBBlobStore {
	return &DBBlobStore{db: db}
}

func (s *DBBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("invalid storage key %q", key)
	}
	var record models.StorageRecord
	err := s.db.WithContext(ctx).Where(&models.StorageRecord{Key: key}).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return record.Value, nil
}

func (s *DBBlobStore) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("invalid storage key %q", key)
	}
	record := models.StorageRecord{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&record).Error
}

func (s *DBBlobStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return s.db.WithContext(ctx).
		Where(&models.StorageRecord{Key: key}).
		Delete(&models.StorageRecord{}).Error
}
