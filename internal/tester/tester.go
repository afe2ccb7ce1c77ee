package tester

import (
	"os"
	"path/filepath"

	"github.com/betagouv/grist-core/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	root string
	db   *gorm.DB
)

// Setup creates a throwaway sqlite database and data directories under a
// fresh temp dir. Call once per package from TestMain.
func Setup() {
	Cleanup()

	_ = os.Setenv("ENV", "test")

	var err error
	root, err = os.MkdirTemp("", "grist-housekeeping-test-")
	if err != nil {
		panic(err)
	}

	for _, dir := range []string{"db", "docs", "cache", "attach"} {
		if err := os.MkdirAll(filepath.Join(root, dir), os.ModePerm); err != nil {
			panic(err)
		}
	}

	db, err = gorm.Open(sqlite.Open(filepath.Join(root, "db", "grist.db")), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	if err := model.Migrate(db); err != nil {
		panic(err)
	}
}

func TestDB() *gorm.DB {
	return db
}

// DataDir is where tests place document files.
func DataDir() string {
	return filepath.Join(root, "docs")
}

// CacheDir is where tests place cached document copies.
func CacheDir() string {
	return filepath.Join(root, "cache")
}

// AttachDir is a scratch root for file-backed attachment stores.
func AttachDir() string {
	return filepath.Join(root, "attach")
}

// Reset wipes every table so tests start from an empty store.
func Reset() {
	for _, m := range []interface{}{&model.Document{}, &model.Workspace{}, &model.TransferJob{}} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(m).Error; err != nil {
			panic(err)
		}
	}
}

func Cleanup() {
	if root != "" {
		_ = os.RemoveAll(root)
		root = ""
	}
}
