package mirror

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// mirrorRecord is the row layout of the mirror_records table
type mirrorRecord struct {
	Collection string    `gorm:"primaryKey;size:64"`
	Key        string    `gorm:"column:record_key;primaryKey;size:128"`
	Data       []byte    `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (mirrorRecord) TableName() string {
	return "mirror_records"
}

// SQLStore persists records in a SQLite database through GORM
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLStore opens (or creates) the SQLite file at path. Use ":memory:" for a throwaway store.
func OpenSQLStore(path string, log gormlogger.Interface) (*SQLStore, error) {
	if log == nil {
		log = gormlogger.Default.LogMode(gormlogger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 log,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open mirror database: %w", err)
	}

	// sqlite serialises writers; one connection keeps ":memory:" databases shared
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return NewSQLStore(db)
}

// NewSQLStore wraps an existing connection and migrates the mirror table
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&mirrorRecord{}); err != nil {
		return nil, fmt.Errorf("migrate mirror table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Put upserts a record on (collection, key)
func (s *SQLStore) Put(ctx context.Context, collection string, record Record) error {
	return s.PutAll(ctx, collection, []Record{record})
}

// PutAll upserts records in one transaction
func (s *SQLStore) PutAll(ctx context.Context, collection string, records []Record) error {
	if err := validate(collection, records...); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	rows := toRows(collection, records)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsert(tx, rows)
	})
	if err != nil {
		return fmt.Errorf("put %s records: %w", collection, err)
	}
	return nil
}

// ReplaceAll deletes the collection and writes records in one transaction
func (s *SQLStore) ReplaceAll(ctx context.Context, collection string, records []Record) error {
	if err := validate(collection, records...); err != nil {
		return err
	}

	rows := toRows(collection, records)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ?", collection).Delete(&mirrorRecord{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return upsert(tx, rows)
	})
	if err != nil {
		return fmt.Errorf("replace %s records: %w", collection, err)
	}
	return nil
}

func toRows(collection string, records []Record) []mirrorRecord {
	rows := make([]mirrorRecord, 0, len(records))
	for _, r := range stamp(records, time.Now().UTC()) {
		rows = append(rows, mirrorRecord{
			Collection: collection,
			Key:        r.Key,
			Data:       r.Data,
			UpdatedAt:  r.UpdatedAt,
		})
	}
	return rows
}

func upsert(tx *gorm.DB, rows []mirrorRecord) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).CreateInBatches(rows, 200).Error
}

// GetAll returns a collection ordered by key
func (s *SQLStore) GetAll(ctx context.Context, collection string) ([]Record, error) {
	var rows []mirrorRecord
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("record_key ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get %s records: %w", collection, err)
	}

	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{Key: r.Key, Data: r.Data, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

// Clear deletes every record in the collection
func (s *SQLStore) Clear(ctx context.Context, collection string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Delete(&mirrorRecord{}).Error
	if err != nil {
		return fmt.Errorf("clear %s: %w", collection, err)
	}
	return nil
}

// Close closes the underlying database
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ Store = (*SQLStore)(nil)
