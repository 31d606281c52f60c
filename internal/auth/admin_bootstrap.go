package auth

import (
	"context"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/talenter-ng/talenter/internal/db"
)

// EnsureAdmin creates the platform admin account on first start and wires it
// into settings as the commission wallet owner. Controlled by ADMIN_EMAIL and
// ADMIN_PASSWORD; skipped when either is unset.
func EnsureAdmin() {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("admin bootstrap skipped: ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return
	}
	ctx := context.Background()

	var adminID string
	err := db.Conn.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&adminID)
	if err != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), 12)
		if err != nil {
			log.Printf("admin bootstrap failed: %v", err)
			return
		}
		err = db.Conn.QueryRow(ctx, `
			INSERT INTO users (first_name, last_name, email, password, type)
			VALUES ('Platform', 'Admin', $1, $2, 'admin') RETURNING id`,
			email, string(hashed)).Scan(&adminID)
		if err != nil {
			log.Printf("admin bootstrap failed: %v", err)
			return
		}
		log.Printf("admin account created: %s", email)
	}

	_, _ = db.Conn.Exec(ctx, `INSERT INTO settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`)
	if _, err := db.Conn.Exec(ctx,
		`UPDATE settings SET admin_id = $1 WHERE id = 1 AND admin_id IS NULL`, adminID); err != nil {
		log.Printf("admin bootstrap failed to update settings: %v", err)
	}
}
