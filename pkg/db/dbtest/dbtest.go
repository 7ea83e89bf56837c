// Package dbtest opens isolated sqlite databases with the full schema for package tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepulse-backend/pkg/db"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
)

// Open returns a migrated in-memory database private to the calling test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	conn, err := db.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := models.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// SeedStore inserts a connected store and returns it.
func SeedStore(t testing.TB, conn *gorm.DB, mutate ...func(*models.Store)) models.Store {
	t.Helper()
	store := models.Store{
		Name:        "Acme Apparel",
		ShopName:    "acme-apparel",
		AccessToken: "shpat_test",
	}
	for _, fn := range mutate {
		fn(&store)
	}
	if err := conn.Create(&store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}
