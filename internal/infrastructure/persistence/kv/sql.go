package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warrantyhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore persists values as rows of the kv_entries table. Apply runs in
// one database transaction.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLStore creates a store on an open GORM connection. The kv_entries
// table must exist (see the migrations directory).
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the value for key
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry models.KVEntryModel
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return entry.EntryValue, nil
}

// Apply upserts and deletes rows in a single transaction
func (s *SQLStore) Apply(ctx context.Context, ops ...Op) error {
	if len(ops) == 0 {
		return nil
	}
	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			if op.Delete {
				if err := tx.Where("entry_key = ?", op.Key).Delete(&models.KVEntryModel{}).Error; err != nil {
					return fmt.Errorf("delete %s: %w", op.Key, err)
				}
				continue
			}
			entry := models.KVEntryModel{EntryKey: op.Key, EntryValue: op.Value, UpdatedAt: now}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "entry_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
			}).Create(&entry).Error
			if err != nil {
				return fmt.Errorf("put %s: %w", op.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply %d ops: %w", len(ops), err)
	}
	return nil
}

// Ping checks the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close is a no-op; the connection is owned by persistence.Database
func (s *SQLStore) Close() error {
	return nil
}

// Ensure SQLStore implements Store
var _ Store = (*SQLStore)(nil)
