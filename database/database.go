package database

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"yatube/models"
)

// Dialector returns the gorm dialector for a configured driver name.
func Dialector(driver, databaseURL string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(databaseURL), nil
	case "postgres":
		return postgres.Open(databaseURL), nil
	case "sqlite":
		return sqlite.Open(databaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func Initialize(driver, databaseURL, logLevel string) (*gorm.DB, error) {
	dialector, err := Dialector(driver, databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(ParseLogLevel(logLevel)),
		DisableForeignKeyConstraintWhenMigrating: driver == "mysql",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// ParseLogLevel maps silent|error|warn|info onto gorm's logger levels.
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	addCustomIndexes(db)
	return nil
}

// addCustomIndexes creates the composite indexes the listing queries sort
// by. Failures are logged: not every dialect supports IF NOT EXISTS.
func addCustomIndexes(db *gorm.DB) {
	indexes := []struct{ name, ddl string }{
		{"idx_posts_created_id", "CREATE INDEX IF NOT EXISTS idx_posts_created_id ON posts(created DESC, id DESC)"},
		{"idx_posts_group_created", "CREATE INDEX IF NOT EXISTS idx_posts_group_created ON posts(group_id, created DESC)"},
		{"idx_posts_author_created", "CREATE INDEX IF NOT EXISTS idx_posts_author_created ON posts(author_id, created DESC)"},
		{"idx_comments_post_created", "CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments(post_id, created)"},
	}
	for _, idx := range indexes {
		if db.Migrator().HasIndex(&models.Post{}, idx.name) || db.Migrator().HasIndex(&models.Comment{}, idx.name) {
			continue
		}
		if err := db.Exec(idx.ddl).Error; err != nil {
			slog.Warn("could not create index", "index", idx.name, "error", err)
		}
	}
}

// SeedData populates an empty database with a few groups for development.
func SeedData(db *gorm.DB) error {
	var groupCount int64
	if err := db.Model(&models.Group{}).Count(&groupCount).Error; err != nil {
		return fmt.Errorf("count groups: %w", err)
	}

	if groupCount > 0 {
		slog.Info("database already has groups, skipping seed")
		return nil
	}

	groups := []models.Group{
		{
			Title:       "Leo Tolstoy",
			Slug:        "tolstoy",
			Description: "Posts about the life and works of Leo Tolstoy.",
		},
		{
			Title:       "Cats",
			Slug:        "cats",
			Description: "Pictures and stories about cats.",
		},
		{
			Title:       "Go",
			Slug:        "golang",
			Description: "Notes on writing Go.",
		},
	}

	for _, group := range groups {
		if err := db.Create(&group).Error; err != nil {
			slog.Warn("could not create seed group", "slug", group.Slug, "error", err)
		}
	}

	slog.Info("database seeded", "groups", len(groups))
	return nil
}
