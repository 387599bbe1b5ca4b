package models

import "time"

// KVEntryModel is the GORM row backing one key of the SQL key-value store
type KVEntryModel struct {
	EntryKey   string    `gorm:"column:entry_key;type:varchar(191);primaryKey"`
	EntryValue []byte    `gorm:"column:entry_value;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

// TableName returns the table name for GORM
func (KVEntryModel) TableName() string {
	return "kv_entries"
}
