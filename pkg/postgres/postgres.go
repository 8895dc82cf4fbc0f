package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/eventshow/eventshow/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(150) UNIQUE NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			first_name VARCHAR(150) NOT NULL DEFAULT '',
			last_name VARCHAR(150) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS profiles (
			id SERIAL PRIMARY KEY,
			user_id INTEGER UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			birthdate DATE NOT NULL,
			location VARCHAR(255) NOT NULL DEFAULT '',
			picture VARCHAR(512) NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			token CHAR(8) UNIQUE NOT NULL,
			eventpoints BIGINT NOT NULL DEFAULT 0,
			payment_customer_id VARCHAR(255) NOT NULL DEFAULT '',
			payment_account_id VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100) UNIQUE NOT NULL,
			picture VARCHAR(512) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id SERIAL PRIMARY KEY,
			host_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
			category_id INTEGER NOT NULL REFERENCES categories(id),
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date DATE NOT NULL,
			start_time TIME NOT NULL,
			end_time TIME,
			location VARCHAR(255) NOT NULL DEFAULT '',
			picture VARCHAR(512) NOT NULL DEFAULT '',
			language VARCHAR(50) NOT NULL DEFAULT '',
			pets BOOLEAN NOT NULL DEFAULT FALSE,
			parking_nearby BOOLEAN NOT NULL DEFAULT FALSE,
			extra_info TEXT NOT NULL DEFAULT '',
			price_cents BIGINT NOT NULL,
			capacity INTEGER NOT NULL,
			min_age INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS enrollments (
			id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, event_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ratings (
			id SERIAL PRIMARY KEY,
			reviewer_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reviewed_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			role VARCHAR(10) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (reviewer_id, event_id, reviewed_id)
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			charge_id VARCHAR(255) NOT NULL DEFAULT '',
			amount_cents BIGINT NOT NULL,
			discount BIGINT NOT NULL DEFAULT 0,
			points_consumed BIGINT NOT NULL DEFAULT 0,
			is_paid_for BOOLEAN NOT NULL DEFAULT FALSE,
			reversed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id SERIAL PRIMARY KEY,
			event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			subject VARCHAR(255) NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Seed the starter categories; 'Evento' is the default.
		`INSERT INTO categories (name) VALUES
			('Evento'), ('Food & Drink'), ('Music'), ('Sports'), ('Culture'), ('Outdoors')
			ON CONFLICT (name) DO NOTHING`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_events_host_id ON events(host_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_category_id ON events(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_date ON events(date)`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_event_id ON enrollments(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_user_id ON enrollments(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_event_status ON enrollments(event_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_reviewed_id ON ratings(reviewed_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_event_id ON transactions(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_event_id ON messages(event_id, created_at)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
