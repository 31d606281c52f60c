package wallet

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/db"
	"github.com/talenter-ng/talenter/internal/settings"
)

// TransferResult is what orchestrators need back from a transfer: the debit
// wallet after the mutation, the debit-side ledger entry (bids reference it),
// and the commission captured.
type TransferResult struct {
	DebitWallet   Wallet  `json:"debit_wallet"`
	DebitEntryID  string  `json:"debit_entry_id"`
	InitialCharge float64 `json:"initial_charge"`
}

// forUpdate lazily creates and row-locks one wallet. The insert is a no-op
// when the wallet exists, so concurrent first-touch is idempotent.
func forUpdate(ctx context.Context, tx pgx.Tx, owner string) (*Wallet, error) {
	if _, err := tx.Exec(ctx,
		`INSERT INTO wallets (owner_id) VALUES ($1) ON CONFLICT (owner_id) DO NOTHING`, owner); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not create wallet", err)
	}
	var w Wallet
	err := tx.QueryRow(ctx,
		`SELECT id, owner_id, current_balance, pending_balance, COALESCE(pin, ''), created_at
		 FROM wallets WHERE owner_id = $1 FOR UPDATE`, owner).
		Scan(&w.ID, &w.OwnerID, &w.CurrentBalance, &w.PendingBalance, &w.Pin, &w.CreatedAt)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not lock wallet", err)
	}
	return &w, nil
}

// lockWallets locks the wallets of the given owners in sorted owner-id order
// so two transfers touching the same pair can never deadlock.
func lockWallets(ctx context.Context, tx pgx.Tx, owners ...string) (map[string]*Wallet, error) {
	uniq := make([]string, 0, len(owners))
	seen := make(map[string]bool, len(owners))
	for _, o := range owners {
		if !seen[o] {
			seen[o] = true
			uniq = append(uniq, o)
		}
	}
	sort.Strings(uniq)

	wallets := make(map[string]*Wallet, len(uniq))
	for _, o := range uniq {
		w, err := forUpdate(ctx, tx, o)
		if err != nil {
			return nil, err
		}
		wallets[o] = w
	}
	return wallets, nil
}

func persist(ctx context.Context, tx pgx.Tx, wallets map[string]*Wallet, entries []Entry) (map[string]string, error) {
	for _, w := range wallets {
		if _, err := tx.Exec(ctx,
			`UPDATE wallets SET current_balance = $1, pending_balance = $2 WHERE id = $3`,
			w.CurrentBalance, w.PendingBalance, w.ID); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "could not update wallet balance", err)
		}
	}
	ids := make(map[string]string, len(entries))
	for _, e := range entries {
		var id string
		err := tx.QueryRow(ctx,
			`INSERT INTO wallet_history (wallet_id, user_id, amount, previous_balance, type, description)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			e.WalletID, e.UserID, e.Amount, e.PreviousBalance, e.Type, e.Description).Scan(&id)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "could not record wallet history", err)
		}
		// first entry per wallet wins; transfers only ever write one per wallet
		if _, ok := ids[e.WalletID]; !ok {
			ids[e.WalletID] = id
		}
	}
	return ids, nil
}

// TransferTx runs an escrow transfer inside the caller's transaction so job
// and bid updates commit atomically with the money movement.
func TransferTx(ctx context.Context, tx pgx.Tx, debitOwner, creditOwner string, amount float64, description string) (TransferResult, error) {
	s, err := settings.Get(ctx)
	if err != nil {
		return TransferResult{}, err
	}
	if s.AdminID == "" {
		return TransferResult{}, apperr.E(apperr.KindInternal, "platform admin account is not configured")
	}
	wallets, err := lockWallets(ctx, tx, debitOwner, creditOwner, s.AdminID)
	if err != nil {
		return TransferResult{}, err
	}
	out, err := ApplyTransfer(wallets[debitOwner], wallets[creditOwner], wallets[s.AdminID], amount, s.CommissionPercent, description)
	if err != nil {
		return TransferResult{}, err
	}
	entryIDs, err := persist(ctx, tx, wallets, out.Entries)
	if err != nil {
		return TransferResult{}, err
	}
	debit := wallets[debitOwner]
	return TransferResult{
		DebitWallet:   *debit,
		DebitEntryID:  entryIDs[debit.ID],
		InitialCharge: out.InitialCharge,
	}, nil
}

// TransferWithPenaltyTx unwinds an escrowed transfer with the cancellation
// penalty, inside the caller's transaction.
func TransferWithPenaltyTx(ctx context.Context, tx pgx.Tx, debitOwner, creditOwner string, amount float64, description string, initialCharge float64) (TransferResult, error) {
	s, err := settings.Get(ctx)
	if err != nil {
		return TransferResult{}, err
	}
	if s.AdminID == "" {
		return TransferResult{}, apperr.E(apperr.KindInternal, "platform admin account is not configured")
	}
	wallets, err := lockWallets(ctx, tx, debitOwner, creditOwner, s.AdminID)
	if err != nil {
		return TransferResult{}, err
	}
	out, err := ApplyPenaltyTransfer(wallets[debitOwner], wallets[creditOwner], wallets[s.AdminID], amount, initialCharge, s.CommissionPercent, description)
	if err != nil {
		return TransferResult{}, err
	}
	entryIDs, err := persist(ctx, tx, wallets, out.Entries)
	if err != nil {
		return TransferResult{}, err
	}
	debit := wallets[debitOwner]
	return TransferResult{
		DebitWallet:  *debit,
		DebitEntryID: entryIDs[debit.ID],
	}, nil
}

// ReleaseTx moves the escrowed remainder of a completed job into the owner's
// current balance, inside the caller's transaction.
func ReleaseTx(ctx context.Context, tx pgx.Tx, owner string, price float64, description string, initialCharge float64) (Wallet, error) {
	wallets, err := lockWallets(ctx, tx, owner)
	if err != nil {
		return Wallet{}, err
	}
	out, err := ApplyRelease(wallets[owner], price, initialCharge, description)
	if err != nil {
		return Wallet{}, err
	}
	if _, err := persist(ctx, tx, wallets, out.Entries); err != nil {
		return Wallet{}, err
	}
	return *wallets[owner], nil
}

// CheckBalance verifies the owner's wallet can cover amount without moving
// money. Used by the client-side bid acceptance as a pre-check.
func CheckBalance(ctx context.Context, amount float64, owner string) (float64, error) {
	w, err := Get(ctx, owner)
	if err != nil {
		return 0, err
	}
	if w.CurrentBalance < amount {
		return 0, insufficient(w.CurrentBalance, amount)
	}
	return w.CurrentBalance, nil
}

// Get returns the owner's wallet, creating it lazily on first use.
func Get(ctx context.Context, owner string) (Wallet, error) {
	if _, err := db.Conn.Exec(ctx,
		`INSERT INTO wallets (owner_id) VALUES ($1) ON CONFLICT (owner_id) DO NOTHING`, owner); err != nil {
		return Wallet{}, apperr.Wrap(apperr.KindInternal, "could not create wallet", err)
	}
	var w Wallet
	err := db.Conn.QueryRow(ctx,
		`SELECT id, owner_id, current_balance, pending_balance, COALESCE(pin, ''), created_at
		 FROM wallets WHERE owner_id = $1`, owner).
		Scan(&w.ID, &w.OwnerID, &w.CurrentBalance, &w.PendingBalance, &w.Pin, &w.CreatedAt)
	if err != nil {
		return Wallet{}, apperr.Wrap(apperr.KindInternal, "could not fetch wallet", err)
	}
	return w, nil
}

// History returns the owner's ledger entries, newest first.
func History(ctx context.Context, owner string) ([]Entry, error) {
	rows, err := db.Conn.Query(ctx,
		`SELECT id, wallet_id, user_id, amount, previous_balance, type, description, created_at
		 FROM wallet_history WHERE user_id = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not fetch wallet history", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.WalletID, &e.UserID, &e.Amount, &e.PreviousBalance, &e.Type, &e.Description, &e.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "could not read wallet history", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
