package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by Migrate.  Every statement is idempotent.
// bookings.experience_id deliberately has no foreign key: bookings remain
// as historical records when an experience is removed.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS experiences (
		id          CHAR(36)      NOT NULL PRIMARY KEY,
		name        VARCHAR(255)  NOT NULL,
		location    VARCHAR(255)  NOT NULL,
		description TEXT          NOT NULL,
		image       VARCHAR(1024) NOT NULL,
		price       DECIMAL(12,2) NOT NULL,
		created_at  DATETIME(3)   NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		CHECK (price > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS experience_dates (
		experience_id CHAR(36)    NOT NULL,
		position      INT         NOT NULL,
		date          VARCHAR(32) NOT NULL,
		PRIMARY KEY (experience_id, position),
		CONSTRAINT fk_dates_experience FOREIGN KEY (experience_id) REFERENCES experiences(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS experience_slots (
		experience_id CHAR(36)     NOT NULL,
		position      INT          NOT NULL,
		time_label    VARCHAR(32)  NOT NULL,
		available     INT UNSIGNED NOT NULL,
		PRIMARY KEY (experience_id, time_label),
		CONSTRAINT fk_slots_experience FOREIGN KEY (experience_id) REFERENCES experiences(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS promos (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		code           VARCHAR(64)     NOT NULL,
		discount_type  ENUM('percentage','flat') NOT NULL,
		discount_value DECIMAL(12,2)   NOT NULL,
		max_uses       INT UNSIGNED    NOT NULL,
		current_uses   INT UNSIGNED    NOT NULL DEFAULT 0,
		active         TINYINT(1)      NOT NULL DEFAULT 1,
		created_at     DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_promos_code (code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id              CHAR(36)      NOT NULL PRIMARY KEY,
		reference_id    VARCHAR(16)   NOT NULL,
		full_name       VARCHAR(255)  NOT NULL,
		email           VARCHAR(255)  NOT NULL,
		experience_id   CHAR(36)      NOT NULL,
		experience_name VARCHAR(255)  NOT NULL,
		date            VARCHAR(32)   NOT NULL,
		time_label      VARCHAR(32)   NOT NULL,
		quantity        INT UNSIGNED  NOT NULL,
		subtotal        DECIMAL(12,2) NOT NULL,
		taxes           DECIMAL(12,2) NOT NULL,
		total           DECIMAL(12,2) NOT NULL,
		promo_code      VARCHAR(64)   NULL,
		discount        DECIMAL(12,2) NULL,
		created_at      DATETIME(3)   NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_bookings_reference (reference_id),
		KEY idx_bookings_experience (experience_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the API needs when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
