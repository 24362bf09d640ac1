package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'guest' CHECK (role IN ('admin', 'family', 'guest')),
    confirmed     INTEGER NOT NULL DEFAULT 1,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
    id             INTEGER PRIMARY KEY,
    name           TEXT NOT NULL,
    brand          TEXT,
    category       TEXT NOT NULL CHECK (category IN ('FIREARM', 'AMMO', 'FILAMENT', 'INSTRUMENT', 'OTHER')),
    date_purchased TEXT,
    vendor         TEXT,
    price_paid     TEXT NOT NULL DEFAULT '0',
    currency       TEXT,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);

CREATE TABLE IF NOT EXISTS item_images (
    item_id  INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    key      TEXT NOT NULL,
    PRIMARY KEY (item_id, position)
);

CREATE TABLE IF NOT EXISTS ammo_details (
    id               INTEGER PRIMARY KEY,
    item_id          INTEGER NOT NULL UNIQUE REFERENCES items(id) ON DELETE CASCADE,
    caliber          TEXT NOT NULL,
    quantity         INTEGER NOT NULL CHECK (quantity >= 0),
    unit             TEXT NOT NULL CHECK (unit IN ('ROUNDS', 'BOX', 'CASE')),
    rounds_per_unit  INTEGER NOT NULL CHECK (rounds_per_unit >= 1),
    rounds_available INTEGER CHECK (rounds_available >= 0),
    bullet_weight    INTEGER NOT NULL DEFAULT 0,
    bullet_type      TEXT,
    notes            TEXT
);

CREATE INDEX IF NOT EXISTS idx_ammo_details_caliber ON ammo_details(caliber);

CREATE TABLE IF NOT EXISTS firearm_details (
    id            INTEGER PRIMARY KEY,
    item_id       INTEGER NOT NULL UNIQUE REFERENCES items(id) ON DELETE CASCADE,
    type          TEXT,
    action        TEXT,
    caliber       TEXT,
    serial_number TEXT,
    barrel_length TEXT,
    notes         TEXT
);

CREATE TABLE IF NOT EXISTS filament_details (
    id           INTEGER PRIMARY KEY,
    item_id      INTEGER NOT NULL UNIQUE REFERENCES items(id) ON DELETE CASCADE,
    material     TEXT NOT NULL,
    color        TEXT,
    diameter_mm  REAL NOT NULL DEFAULT 0,
    weight_grams INTEGER NOT NULL DEFAULT 0,
    notes        TEXT
);

CREATE TABLE IF NOT EXISTS instrument_details (
    id            INTEGER PRIMARY KEY,
    item_id       INTEGER NOT NULL UNIQUE REFERENCES items(id) ON DELETE CASCADE,
    type          TEXT,
    serial_number TEXT,
    condition     TEXT,
    notes         TEXT
);

CREATE TABLE IF NOT EXISTS notification_people (
    id                INTEGER PRIMARY KEY,
    name              TEXT NOT NULL,
    phone             TEXT,
    email             TEXT,
    preferred_channel TEXT NOT NULL CHECK (preferred_channel IN ('SMS', 'WHATSAPP', 'EMAIL')),
    active            INTEGER NOT NULL DEFAULT 1,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ammo_thresholds (
    id         INTEGER PRIMARY KEY,
    caliber    TEXT NOT NULL,
    min_rounds INTEGER NOT NULL CHECK (min_rounds > 0),
    person_id  INTEGER NOT NULL REFERENCES notification_people(id),
    enabled    INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ammo_thresholds_caliber ON ammo_thresholds(caliber);

CREATE TABLE IF NOT EXISTS trips (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    type        TEXT NOT NULL CHECK (type IN ('LEISURE', 'WORK', 'FLYING', 'FAMILY')),
    start_date  TEXT NOT NULL,
    end_date    TEXT NOT NULL,
    city        TEXT,
    country     TEXT,
    lat         REAL NOT NULL DEFAULT 0,
    lon         REAL NOT NULL DEFAULT 0,
    timezone    TEXT,
    notes       TEXT,
    CHECK (end_date >= start_date)
);

CREATE TABLE IF NOT EXISTS days (
    date         TEXT PRIMARY KEY,
    status       TEXT NOT NULL CHECK (status IN ('WORKING_HOME', 'WORKING_OFFICE', 'TRAVEL', 'VACATION', 'WEEKEND_HOLIDAY', 'PTO', 'CHOICE_DAY')),
    trip_id      INTEGER REFERENCES trips(id) ON DELETE SET NULL,
    trip_name    TEXT,
    pto_fraction REAL NOT NULL DEFAULT 0 CHECK (pto_fraction >= 0 AND pto_fraction <= 1),
    location     TEXT
);

CREATE TABLE IF NOT EXISTS events (
    id         INTEGER PRIMARY KEY,
    title      TEXT NOT NULL,
    start_at   TEXT NOT NULL,
    end_at     TEXT NOT NULL,
    timezone   TEXT NOT NULL,
    is_all_day INTEGER NOT NULL DEFAULT 0,
    trip_id    INTEGER REFERENCES trips(id) ON DELETE SET NULL,
    location   TEXT,
    url        TEXT
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
