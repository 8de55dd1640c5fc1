package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the DDL for every table the service owns.  All statements
// are idempotent (CREATE TABLE IF NOT EXISTS) so Migrate can run on every
// process start without guards.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(20)  NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		full_name     VARCHAR(100) NOT NULL DEFAULT '',
		role          VARCHAR(16)  NOT NULL DEFAULT 'citizen',
		is_active     TINYINT(1)   NOT NULL DEFAULT 1,
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS appeal_statuses (
		id   BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(50) NOT NULL,
		UNIQUE KEY uq_appeal_statuses_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS appeal_categories (
		id   BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(50) NOT NULL,
		UNIQUE KEY uq_appeal_categories_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS appeals (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id     BIGINT UNSIGNED NOT NULL,
		category_id BIGINT UNSIGNED NOT NULL,
		status_id   BIGINT UNSIGNED NOT NULL,
		address     VARCHAR(255) NOT NULL,
		description TEXT,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY ix_appeals_user (user_id),
		KEY ix_appeals_status (status_id),
		KEY ix_appeals_category (category_id),
		CONSTRAINT fk_appeals_user     FOREIGN KEY (user_id)     REFERENCES users(id),
		CONSTRAINT fk_appeals_status   FOREIGN KEY (status_id)   REFERENCES appeal_statuses(id),
		CONSTRAINT fk_appeals_category FOREIGN KEY (category_id) REFERENCES appeal_categories(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS appeal_attachments (
		id        BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		appeal_id BIGINT UNSIGNED NOT NULL,
		url       VARCHAR(1024) NOT NULL,
		file_size BIGINT NOT NULL DEFAULT 0,
		file_type VARCHAR(16) NOT NULL DEFAULT '',
		position  INT NOT NULL DEFAULT 0,
		KEY ix_appeal_attachments_appeal (appeal_id),
		CONSTRAINT fk_appeal_attachments_appeal FOREIGN KEY (appeal_id) REFERENCES appeals(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS messages (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		appeal_id  BIGINT UNSIGNED NOT NULL,
		sender_id  BIGINT UNSIGNED NOT NULL,
		content    TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY ix_messages_appeal (appeal_id),
		CONSTRAINT fk_messages_appeal FOREIGN KEY (appeal_id) REFERENCES appeals(id),
		CONSTRAINT fk_messages_sender FOREIGN KEY (sender_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS message_attachments (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		message_id BIGINT UNSIGNED NOT NULL,
		url        VARCHAR(1024) NOT NULL,
		file_size  BIGINT NOT NULL DEFAULT 0,
		file_type  VARCHAR(16) NOT NULL DEFAULT '',
		position   INT NOT NULL DEFAULT 0,
		KEY ix_message_attachments_message (message_id),
		CONSTRAINT fk_message_attachments_message FOREIGN KEY (message_id) REFERENCES messages(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS device_tokens (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id     BIGINT UNSIGNED NOT NULL,
		fcm_token   VARCHAR(512) NOT NULL,
		device_type VARCHAR(32) NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_device_tokens_token (fcm_token),
		KEY ix_device_tokens_user (user_id),
		CONSTRAINT fk_device_tokens_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// seedStatuses and seedCategories are the initial reference data.  The
// status labels are load-bearing: the workflow engine compares against
// "New", "Needs Clarification", "Rejected" and "Completed" by name.
var seedStatuses = []string{
	"New",
	"In Progress",
	"Needs Clarification",
	"Rejected",
	"Completed",
}

var seedCategories = []string{
	"Room merge",
	"Bathroom relocation",
	"Kitchen relocation",
	"Openings in load-bearing walls",
	"Other",
}

// Migrate creates every table the service needs.  Safe to call on every
// startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, ddl := range schema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Seed inserts the initial appeal statuses and categories.  Each table is
// seeded only when it is completely empty, so renames and additions made
// by inspectors at runtime are never overwritten.
func Seed(ctx context.Context, db *sql.DB) error {
	if err := seedNames(ctx, db, "appeal_statuses", seedStatuses); err != nil {
		return err
	}
	return seedNames(ctx, db, "appeal_categories", seedCategories)
}

func seedNames(ctx context.Context, db *sql.DB, table string, names []string) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return fmt.Errorf("seed %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	for _, name := range names {
		if _, err := db.ExecContext(ctx, "INSERT INTO "+table+" (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("seed %s: %w", table, err)
		}
	}
	return nil
}
