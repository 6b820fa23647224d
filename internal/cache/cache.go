// Package cache stores scan results in sqlite, keyed by file identity and
// sampling ratio.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kikiluvv/framescan/internal/scanner"
)

// Entry is one cached scan.
type Entry struct {
	ID        uint      `gorm:"primaryKey"`
	CacheKey  string    `gorm:"uniqueIndex;not null"`
	Path      string    `gorm:"index;not null"`
	Result    string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName implements gorm's tabler.
func (Entry) TableName() string {
	return "scan_results"
}

// Store is a sqlite backed result cache.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate cache: %w", err)
	}
	return &Store{db: db}, nil
}

// KeyFor identifies path by its absolute name, size and modification time
// together with the clamped sampling ratio.
func KeyFor(path string, ratio float64) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	st, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !st.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", abs)
	}
	return abs + "|" +
		strconv.FormatInt(st.Size(), 10) + "|" +
		strconv.FormatInt(st.ModTime().UnixNano(), 10) + "|" +
		strconv.FormatFloat(scanner.ClampRatio(ratio), 'f', -1, 64), nil
}

// Get returns the cached result for key.
func (s *Store) Get(key string) (scanner.Result, bool, error) {
	var entry Entry
	err := s.db.Where("cache_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return scanner.Result{}, false, nil
	}
	if err != nil {
		return scanner.Result{}, false, err
	}

	var res scanner.Result
	if err := json.Unmarshal([]byte(entry.Result), &res); err != nil {
		return scanner.Result{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return res.Normalize(), true, nil
}

// Put stores res under key, replacing an older entry. Fallback results are
// ignored.
func (s *Store) Put(key, path string, res scanner.Result) error {
	if res.IsFallback() {
		return nil
	}

	data, err := json.Marshal(res.Normalize())
	if err != nil {
		return err
	}

	entry := Entry{CacheKey: key, Path: path, Result: string(data)}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"path", "result", "updated_at"}),
	}).Create(&entry).Error
}

// Count returns the number of cached results.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.Model(&Entry{}).Count(&n).Error
	return n, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
