package db

import (
	"errors"
	"log/slog"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres using DATABASE_URL.
func Open() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

// Migrate runs GORM auto-migrations for the core tables.
// SQL migrations under db/migrations remain the source of truth for
// production; AutoMigrate keeps test databases in step with the models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db connection is nil")
	}
	if err := conn.AutoMigrate(
		&County{},
		&Constituency{},
		&Ward{},
		&Position{},
		&Party{},
		&User{},
		&Candidate{},
		&Poll{},
		&PollCandidate{},
		&PollResponse{},
		&IssueCategory{},
		&Issue{},
		&IssueUpvote{},
		&IssueComment{},
		&Event{},
	); err != nil {
		return err
	}
	slog.Info("database migration complete")
	return nil
}
