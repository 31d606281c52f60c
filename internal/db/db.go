package db

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres and bootstraps the schema.
func Init(dsn string) {
	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	ensureSchema()
}

// ensureSchema creates all tables if missing. Statements are idempotent so
// the bootstrap is safe to run on every start.
func ensureSchema() {
	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			phone TEXT,
			type TEXT NOT NULL DEFAULT 'client' CHECK (type IN ('client','artisan','admin')),
			skills TEXT[] NOT NULL DEFAULT '{}',
			location TEXT,
			place_id TEXT,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			country TEXT NOT NULL DEFAULT 'Nigeria',
			projects INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			commission_percent NUMERIC(5,2) NOT NULL DEFAULT 5,
			charge_percent NUMERIC(5,2) NOT NULL DEFAULT 1.5,
			distance NUMERIC(12,2) NOT NULL DEFAULT 100000,
			admin_id UUID REFERENCES users(id),
			referral_bonus_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
			minimum_bonus_payout NUMERIC(14,2) NOT NULL DEFAULT 0,
			delivery_fee NUMERIC(14,2) NOT NULL DEFAULT 0,
			minimum_ios_version NUMERIC(6,2) NOT NULL DEFAULT 0,
			minimum_android_version NUMERIC(6,2) NOT NULL DEFAULT 0,
			bank_name TEXT,
			account_name TEXT,
			account_number TEXT,
			bank_code TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			current_balance NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (current_balance >= 0),
			pending_balance NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (pending_balance >= 0),
			pin TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS wallet_history (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			wallet_id UUID NOT NULL REFERENCES wallets(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			amount NUMERIC(14,2) NOT NULL,
			previous_balance NUMERIC(14,2) NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('credit','debit')),
			description TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wallet_history_user ON wallet_history(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS chats (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			type TEXT NOT NULL DEFAULT 'user',
			last_message_id UUID,
			last_message_by UUID,
			last_message_at TIMESTAMPTZ,
			new_message_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS chat_users (
			chat_id UUID NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			PRIMARY KEY (chat_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			chat_id UUID NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			sender_id UUID NOT NULL,
			type TEXT NOT NULL DEFAULT 'text',
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			service TEXT NOT NULL,
			description TEXT NOT NULL,
			created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			currency TEXT NOT NULL DEFAULT 'NGN' CHECK (currency IN ('NGN','GHS')),
			budget NUMERIC(14,2) NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending','assigned','accepted','in-progress','completed')),
			assigned_to UUID REFERENCES users(id),
			bid_id UUID,
			price NUMERIC(14,2),
			initial_charge NUMERIC(14,2),
			skills TEXT[] NOT NULL DEFAULT '{}',
			images TEXT[] NOT NULL DEFAULT '{}',
			location TEXT,
			place_id TEXT,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			country TEXT NOT NULL DEFAULT 'Nigeria',
			saved_by UUID[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status, created_at)`,
		`CREATE TABLE IF NOT EXISTS bids (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			job_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			artisan_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			client_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			chat_id UUID NOT NULL REFERENCES chats(id),
			price NUMERIC(14,2) NOT NULL CHECK (price >= 0),
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending','accepted','rejected','in-progress','delivered','completed','cancelled')),
			transaction_id UUID REFERENCES wallet_history(id),
			date_delivered TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// one live bid per artisan per job; a rejected bid may be re-placed
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bids_job_artisan_live
			ON bids(job_id, artisan_id) WHERE status <> 'rejected'`,
		`CREATE INDEX IF NOT EXISTS idx_bids_job ON bids(job_id)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT,
			payload UUID,
			channel TEXT NOT NULL DEFAULT 'in-app',
			read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS funding (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount NUMERIC(14,2) NOT NULL,
			charge NUMERIC(14,2) NOT NULL DEFAULT 0,
			reference TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','success','failed')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS withdrawals (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount NUMERIC(14,2) NOT NULL,
			charge NUMERIC(14,2) NOT NULL DEFAULT 0,
			reference TEXT,
			status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','success','failed')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS banks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			bank_name TEXT NOT NULL,
			bank_code TEXT NOT NULL,
			account_number TEXT NOT NULL,
			account_name TEXT NOT NULL,
			recipient_code TEXT,
			type TEXT NOT NULL DEFAULT 'nuban',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			job_id UUID NOT NULL UNIQUE REFERENCES jobs(id) ON DELETE CASCADE,
			artisan_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			client_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, s := range stmts {
		if _, err := Conn.Exec(ctx, s); err != nil {
			log.Printf("schema bootstrap failed: %v", err)
		}
	}
}

// Close releases the pool.
func Close() {
	if Conn != nil {
		Conn.Close()
	}
}
