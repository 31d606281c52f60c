package wallet

import "time"

type Wallet struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	CurrentBalance float64   `json:"current_balance"`
	PendingBalance float64   `json:"pending_balance"`
	Pin            string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

type EntryType string

const (
	EntryCredit EntryType = "credit"
	EntryDebit  EntryType = "debit"
)

// Entry is an append-only ledger row. Every balance mutation on a wallet
// produces exactly one entry for that wallet.
type Entry struct {
	ID              string    `json:"id"`
	WalletID        string    `json:"wallet_id"`
	UserID          string    `json:"user_id"`
	Amount          float64   `json:"amount"`
	PreviousBalance float64   `json:"previous_balance"`
	Type            EntryType `json:"type"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}
