// Package gormstore implements the store interfaces on gorm over sqlite.
package gormstore

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dkozlov/converse/internal/domain"
)

// Open opens (or creates) the sqlite database at path and migrates the
// schema. Pass ":memory:" for an in-process throwaway database.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Group{},
		&domain.GroupMember{},
		&domain.Message{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}
