package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"listing-catalog/internal/models"
	"listing-catalog/internal/repository"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB implements repository.PropertyRepository over MySQL.
type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB wraps an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.Listing{},
		&models.PurgeLog{},
	)
}

func (gdb *GormDB) FindByID(id string) (*models.Listing, error) {
	var l models.Listing
	err := gdb.db.Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (gdb *GormDB) FindActiveByAddressExact(address, excludeID string) ([]models.Listing, error) {
	var listings []models.Listing
	err := gdb.db.
		Where("archived = ? AND deleted = ? AND id <> ?", false, false, excludeID).
		Where("LOWER(TRIM(address)) = LOWER(TRIM(?))", address).
		Order("created_at ASC, id ASC").
		Find(&listings).Error
	return listings, err
}

func (gdb *GormDB) FindActiveByAddressTokens(tokens []string, excludeID string) ([]models.Listing, error) {
	query := gdb.db.Where("archived = ? AND deleted = ? AND id <> ?", false, false, excludeID)
	for _, token := range tokens {
		query = query.Where("LOWER(address) LIKE ?", "%"+strings.ToLower(token)+"%")
	}

	var listings []models.Listing
	err := query.Order("created_at ASC, id ASC").Find(&listings).Error
	return listings, err
}

func (gdb *GormDB) FindAllActive() ([]models.Listing, error) {
	var listings []models.Listing
	err := gdb.db.
		Where("archived = ? AND deleted = ? AND status <> ?", false, false, models.ListingStatusPending).
		Order("created_at ASC, id ASC").
		Find(&listings).Error
	return listings, err
}

func (gdb *GormDB) FindPending() ([]models.Listing, error) {
	var listings []models.Listing
	err := gdb.db.
		Where("status = ? AND deleted = ?", models.ListingStatusPending, false).
		Order("created_at DESC, id DESC").
		Find(&listings).Error
	return listings, err
}

func (gdb *GormDB) FindDeletedBefore(cutoff time.Time) ([]models.Listing, error) {
	var listings []models.Listing
	err := gdb.db.
		Where("deleted = ? AND deleted_at < ?", true, cutoff).
		Order("created_at ASC, id ASC").
		Find(&listings).Error
	return listings, err
}

// Save upserts a listing by id, preserving the original created_at
func (gdb *GormDB) Save(l *models.Listing) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}

	var existing models.Listing
	result := gdb.db.Where("id = ?", l.ID).First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return gdb.db.Create(l).Error
	} else if result.Error != nil {
		return result.Error
	}

	l.CreatedAt = existing.CreatedAt
	return gdb.db.Save(l).Error
}

func (gdb *GormDB) Delete(id string) error {
	result := gdb.db.Where("id = ?", id).Delete(&models.Listing{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (gdb *GormDB) RecordPurge(entry *models.PurgeLog) error {
	return gdb.db.Create(entry).Error
}

func (gdb *GormDB) RecentPurgeLogs(limit int) ([]models.PurgeLog, error) {
	var logs []models.PurgeLog
	err := gdb.db.Order("purged_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
