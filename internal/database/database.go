package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Client wraps the gorm.DB instance.
type Client struct {
	db *gorm.DB
}

// Tx is the store handle of a single unit of work. It is only valid inside
// the function passed to Client.Transaction.
type Tx struct {
	db *gorm.DB
}

// models in dependency order.
func models() []any {
	return []any{
		&Media{},
		&Movie{},
		&Show{},
		&Torrent{},
		&MediaFile{},
	}
}

// New creates a new database connection and performs migrations.
// If reset is true, all tables are dropped and recreated.
func New(dbpath string, reset bool) (*Client, error) {
	if dir := filepath.Dir(dbpath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbpath+"?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	c := &Client{db: db}
	if reset {
		if err := c.dropTables(); err != nil {
			return nil, err
		}
		log.Warn("dropped all tables", "database", dbpath)
	}

	if err := c.migrate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) migrate() error {
	if err := c.db.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (c *Client) dropTables() error {
	all := models()
	// children first
	for i := len(all) - 1; i >= 0; i-- {
		if err := c.db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return nil
}

// Reset drops and recreates all tables.
func (c *Client) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.dropTables(); err != nil {
		log.Error("failed to reset database", "error", err)
		return err
	}
	return c.migrate()
}

// Transaction runs fn as one unit of work. The transaction is committed if fn
// returns nil and rolled back if it returns an error or panics.
func (c *Client) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	return c.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&Tx{db: db})
	})
}

// Close closes the underlying database connection.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
