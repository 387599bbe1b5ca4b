package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupKVTestDB creates an in-memory SQLite database with the kv_entries table
func setupKVTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Every pooled connection would get its own empty :memory: database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.Exec(`
		CREATE TABLE kv_entries (
			entry_key TEXT PRIMARY KEY,
			entry_value BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error
	require.NoError(t, err)

	return db
}

func TestSQLStore_GetApply(t *testing.T) {
	ctx := context.Background()
	store := NewSQLStore(setupKVTestDB(t))

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "admins")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("insert then overwrite", func(t *testing.T) {
		require.NoError(t, store.Apply(ctx, Put("admins", []byte(`[]`))))
		require.NoError(t, store.Apply(ctx, Put("admins", []byte(`[{"id":"x"}]`))))

		v, err := store.Get(ctx, "admins")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"x"}]`, string(v))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Apply(ctx, Put("adminSession", []byte(`{}`))))
		require.NoError(t, store.Apply(ctx, Del("adminSession")))

		_, err := store.Get(ctx, "adminSession")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		assert.NoError(t, store.Apply(ctx))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}

func TestSQLStore_ApplyRollsBack(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	store := NewSQLStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "kv_entries"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "kv_entries"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err = store.Apply(context.Background(),
		Put("warrantyRegistrations", []byte(`[]`)),
		Put("productInstances", []byte(`[]`)),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "productInstances")
	assert.NoError(t, mock.ExpectationsWereMet())
}
