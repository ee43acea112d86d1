package postgres

import (
	"context"

	"github.com/example/marina-booking/internal/db"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	email TEXT UNIQUE NOT NULL,
	company TEXT NOT NULL DEFAULT '',
	vessel_name TEXT NOT NULL DEFAULT '',
	password_bcrypt TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS slots (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	hourly_rate NUMERIC(10,2) NOT NULL CHECK (hourly_rate >= 0)
);

CREATE TABLE IF NOT EXISTS pricing_rules (
	id BIGSERIAL PRIMARY KEY,
	slot_id BIGINT NOT NULL REFERENCES slots(id) ON DELETE CASCADE,
	hour SMALLINT NOT NULL CHECK (hour BETWEEN 0 AND 23),
	day_of_week SMALLINT NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
	multiplier NUMERIC(6,3) NOT NULL CHECK (multiplier > 0)
);

CREATE TABLE IF NOT EXISTS reservations (
	id TEXT PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	slot_id BIGINT NOT NULL REFERENCES slots(id),
	start_at TIMESTAMP NOT NULL,
	end_at TIMESTAMP NOT NULL,
	total_price NUMERIC(10,2) NOT NULL CHECK (total_price >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (start_at < end_at)
);

CREATE INDEX IF NOT EXISTS idx_pricing_rules_lookup ON pricing_rules(slot_id, hour, day_of_week);
CREATE INDEX IF NOT EXISTS idx_reservations_slot_time ON reservations(slot_id, start_at);
CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id);
`

func Migrate(ctx context.Context, d *db.DB) error {
	return d.Exec(ctx, schemaSQL)
}
