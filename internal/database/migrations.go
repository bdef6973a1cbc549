package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createWalletsTable,
		createWalletTransactionsTable,
		createEventsTable,
		createTicketTiersTable,
		createBookingsTable,
		createBookingTicketsTable,
		createIndexes,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    name VARCHAR(200) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'user',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    registered_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (role IN ('user', 'organizer', 'admin'))
);`

const createWalletsTable = `
CREATE TABLE IF NOT EXISTS wallets (
    user_id INTEGER PRIMARY KEY REFERENCES users(user_id) ON DELETE CASCADE,
    balance DECIMAL(12,2) NOT NULL DEFAULT 0,
    currency VARCHAR(3) NOT NULL DEFAULT 'USD',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (balance >= 0)
);`

const createWalletTransactionsTable = `
CREATE TABLE IF NOT EXISTS wallet_transactions (
    id UUID PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    type VARCHAR(10) NOT NULL,
    amount DECIMAL(12,2) NOT NULL,
    description TEXT NOT NULL,
    booking_id INTEGER,
    payment_method VARCHAR(20) NOT NULL DEFAULT 'wallet',
    status VARCHAR(20) NOT NULL DEFAULT 'completed',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (type IN ('credit', 'debit', 'refund')),
    CHECK (amount > 0),
    CHECK (payment_method IN ('stripe', 'paypal', 'bank_transfer', 'wallet', 'refund')),
    CHECK (status IN ('pending', 'completed', 'failed', 'cancelled'))
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id SERIAL PRIMARY KEY,
    title VARCHAR(500) NOT NULL,
    description TEXT,
    organizer_id INTEGER NOT NULL REFERENCES users(user_id),
    status VARCHAR(20) NOT NULL DEFAULT 'draft',
    starts_at TIMESTAMP NOT NULL,
    ends_at TIMESTAMP NOT NULL,
    currency VARCHAR(3) NOT NULL DEFAULT 'USD',
    capacity_total INTEGER,
    capacity_sold INTEGER NOT NULL DEFAULT 0,
    revenue_total DECIMAL(14,2) NOT NULL DEFAULT 0,
    revenue_platform DECIMAL(14,2) NOT NULL DEFAULT 0,
    revenue_organizer DECIMAL(14,2) NOT NULL DEFAULT 0,
    tickets_sold INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('draft', 'published', 'cancelled', 'completed')),
    CHECK (capacity_sold >= 0)
);`

const createTicketTiersTable = `
CREATE TABLE IF NOT EXISTS ticket_tiers (
    id SERIAL PRIMARY KEY,
    event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    name VARCHAR(100) NOT NULL,
    price DECIMAL(12,2) NOT NULL DEFAULT 0,
    quantity INTEGER,
    sold INTEGER NOT NULL DEFAULT 0,

    UNIQUE(event_id, name),
    CHECK (price >= 0),
    CHECK (sold >= 0)
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id SERIAL PRIMARY KEY,
    reference VARCHAR(40) UNIQUE NOT NULL,
    user_id INTEGER NOT NULL REFERENCES users(user_id),
    event_id INTEGER NOT NULL REFERENCES events(id),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
    payment_method VARCHAR(20) NOT NULL DEFAULT 'stripe',
    total_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
    currency VARCHAR(3) NOT NULL DEFAULT 'USD',
    attendee_name VARCHAR(200) NOT NULL,
    attendee_email VARCHAR(255) NOT NULL,
    attendee_phone VARCHAR(50),
    special_requirements TEXT,
    check_in_status VARCHAR(20) NOT NULL DEFAULT 'not_checked_in',
    check_in_time TIMESTAMP,
    notes TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('pending', 'confirmed', 'cancelled', 'refunded')),
    CHECK (payment_status IN ('pending', 'paid', 'failed', 'refunded')),
    CHECK (payment_method IN ('stripe', 'paypal', 'bank_transfer', 'wallet')),
    CHECK (check_in_status IN ('not_checked_in', 'checked_in', 'no_show'))
);`

const createBookingTicketsTable = `
CREATE TABLE IF NOT EXISTS booking_tickets (
    id SERIAL PRIMARY KEY,
    booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    tier_name VARCHAR(100) NOT NULL,
    unit_price DECIMAL(12,2) NOT NULL,
    quantity INTEGER NOT NULL,
    line_total DECIMAL(12,2) NOT NULL,

    CHECK (quantity >= 1)
);`

const createIndexes = `
CREATE INDEX IF NOT EXISTS wallet_transactions_user_idx ON wallet_transactions (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS bookings_user_idx ON bookings (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS bookings_event_idx ON bookings (event_id, created_at DESC);
CREATE INDEX IF NOT EXISTS events_starts_at_idx ON events (starts_at);`
