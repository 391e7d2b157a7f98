package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by Migrate. Every statement is idempotent.
//
// reservations.active_slot is 1 while a row blocks its slot and NULL once
// cancelled. MySQL unique indexes admit any number of NULLs, so the index
// on (table_id, reservation_date, time_slot, active_slot) permits many
// cancelled rows per slot but only one live one.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id       BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name          VARCHAR(120)    NOT NULL,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL DEFAULT '',
		role          ENUM('customer','admin') NOT NULL DEFAULT 'customer',
		created_at    TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS dining_tables (
		table_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		capacity INT UNSIGNED    NOT NULL,
		PRIMARY KEY (table_id),
		CONSTRAINT chk_dining_tables_capacity CHECK (capacity > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		reservation_id   BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id          BIGINT UNSIGNED NOT NULL,
		table_id         BIGINT UNSIGNED NOT NULL,
		reservation_date DATE            NOT NULL,
		time_slot        TIME            NOT NULL,
		status           ENUM('confirmed','cancelled','pending') NOT NULL DEFAULT 'confirmed',
		special_requests VARCHAR(500)    NULL,
		active_slot      TINYINT GENERATED ALWAYS AS (IF(status <> 'cancelled', 1, NULL)) STORED,
		created_at       TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at       TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (reservation_id),
		UNIQUE KEY uq_reservations_active_slot (table_id, reservation_date, time_slot, active_slot),
		KEY idx_reservations_user (user_id),
		CONSTRAINT fk_reservations_user FOREIGN KEY (user_id) REFERENCES users (user_id),
		CONSTRAINT fk_reservations_table FOREIGN KEY (table_id) REFERENCES dining_tables (table_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS menu (
		menu_id        BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name           VARCHAR(120)    NOT NULL,
		description    VARCHAR(500)    NULL,
		category       VARCHAR(60)     NOT NULL,
		price          DECIMAL(10,2)   NOT NULL,
		stock_quantity INT UNSIGNED    NOT NULL DEFAULT 0,
		PRIMARY KEY (menu_id),
		KEY idx_menu_category (category),
		CONSTRAINT chk_menu_price CHECK (price >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS orders (
		order_id       BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id        BIGINT UNSIGNED NOT NULL,
		reservation_id BIGINT UNSIGNED NULL,
		total_price    DECIMAL(10,2)   NOT NULL DEFAULT 0,
		created_at     TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (order_id),
		KEY idx_orders_user (user_id),
		CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users (user_id),
		CONSTRAINT fk_orders_reservation FOREIGN KEY (reservation_id) REFERENCES reservations (reservation_id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS order_items (
		order_item_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		order_id      BIGINT UNSIGNED NOT NULL,
		menu_id       BIGINT UNSIGNED NOT NULL,
		quantity      INT UNSIGNED    NOT NULL,
		unit_price    DECIMAL(10,2)   NOT NULL,
		PRIMARY KEY (order_item_id),
		KEY idx_order_items_order (order_id),
		CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders (order_id) ON DELETE CASCADE,
		CONSTRAINT fk_order_items_menu FOREIGN KEY (menu_id) REFERENCES menu (menu_id),
		CONSTRAINT chk_order_items_quantity CHECK (quantity > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS dish_reviews (
		review_id  BIGINT UNSIGNED  NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED  NOT NULL,
		menu_id    BIGINT UNSIGNED  NOT NULL,
		rating     TINYINT UNSIGNED NOT NULL,
		comment    VARCHAR(1000)    NULL,
		created_at TIMESTAMP        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (review_id),
		KEY idx_dish_reviews_menu (menu_id),
		CONSTRAINT fk_dish_reviews_user FOREIGN KEY (user_id) REFERENCES users (user_id),
		CONSTRAINT fk_dish_reviews_menu FOREIGN KEY (menu_id) REFERENCES menu (menu_id),
		CONSTRAINT chk_dish_reviews_rating CHECK (rating BETWEEN 1 AND 5)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS staff_ratings (
		rating_id  BIGINT UNSIGNED  NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED  NOT NULL,
		staff_name VARCHAR(120)     NOT NULL,
		rating     TINYINT UNSIGNED NOT NULL,
		comment    VARCHAR(1000)    NULL,
		created_at TIMESTAMP        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (rating_id),
		CONSTRAINT fk_staff_ratings_user FOREIGN KEY (user_id) REFERENCES users (user_id),
		CONSTRAINT chk_staff_ratings_rating CHECK (rating BETWEEN 1 AND 5)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`DROP PROCEDURE IF EXISTS del_reservation`,

	`CREATE PROCEDURE del_reservation(IN p_reservation_id BIGINT UNSIGNED)
	BEGIN
		DELETE FROM reservations WHERE reservation_id = p_reservation_id;
	END`,
}

// Migrate creates the tables, the slot uniqueness index and the
// del_reservation routine when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// SeedTables inserts the given capacities when dining_tables is empty.
func SeedTables(ctx context.Context, db *sql.DB, capacities []int) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dining_tables`).Scan(&n); err != nil {
		return 0, err
	}
	if n > 0 || len(capacities) == 0 {
		return 0, nil
	}
	for _, c := range capacities {
		if _, err := db.ExecContext(ctx, `INSERT INTO dining_tables (capacity) VALUES (?)`, c); err != nil {
			return 0, err
		}
	}
	return len(capacities), nil
}
