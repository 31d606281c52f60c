package wallet

import (
	"context"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/talenter-ng/talenter/internal/alerts"
	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/db"
	"github.com/talenter-ng/talenter/internal/paystack"
	"github.com/talenter-ng/talenter/internal/settings"
)

// GetWallet returns the authenticated user's wallet with its ledger history.
func GetWallet(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	ctx := c.Request().Context()

	w, err := Get(ctx, uid)
	if err != nil {
		return apperr.Respond(c, err)
	}
	histories, err := History(ctx, uid)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Wallet", echo.Map{"wallet": w, "wallet_histories": histories})
}

type setPinRequest struct {
	Pin string `json:"pin"`
}

// SetPin stores a bcrypt-hashed 4-digit transaction pin on the wallet.
func SetPin(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	var req setPinRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "invalid request body"))
	}
	if len(req.Pin) != 4 {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "your wallet pin must include 4 numbers"))
	}
	for _, r := range req.Pin {
		if r < '0' || r > '9' {
			return apperr.Respond(c, apperr.E(apperr.KindInvalid, "your wallet pin must include 4 numbers"))
		}
	}
	ctx := c.Request().Context()
	if _, err := Get(ctx, uid); err != nil {
		return apperr.Respond(c, err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Pin), 12)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not hash pin", err))
	}
	if _, err := db.Conn.Exec(ctx, `UPDATE wallets SET pin = $1 WHERE owner_id = $2`, string(hashed), uid); err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not set pin", err))
	}

	var email string
	_ = db.Conn.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, uid).Scan(&email)
	if email != "" {
		_ = alerts.EnqueueEmail(email, "Transaction Pin Updated",
			"Your Talenter wallet transaction pin was just changed. If this was not you, contact support immediately.")
	}
	return apperr.OK(c, "Successfully set transaction pin", nil)
}

type fundRequest struct {
	Reference string `json:"reference"`
}

// Fund credits the wallet from a verified Paystack payment reference.
// The reference is unique, so replaying a confirmation cannot double-credit.
func Fund(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	var req fundRequest
	if err := c.Bind(&req); err != nil || req.Reference == "" {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "payment reference is required"))
	}
	ctx := c.Request().Context()

	amount, err := paystack.VerifyTransaction(ctx, req.Reference)
	if err != nil {
		return apperr.Respond(c, err)
	}
	s, err := settings.Get(ctx)
	if err != nil {
		return apperr.Respond(c, err)
	}
	charge := Commission(amount, s.ChargePercent)
	credit := Round2(amount - charge)

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "transaction start failed", err))
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx,
		`INSERT INTO funding (user_id, amount, charge, reference, status)
		 VALUES ($1, $2, $3, $4, 'success') ON CONFLICT (reference) DO NOTHING`,
		uid, amount, charge, req.Reference)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not record funding", err))
	}
	if res.RowsAffected() == 0 {
		return apperr.Respond(c, apperr.E(apperr.KindConflict, "payment reference already used"))
	}

	w, err := forUpdate(ctx, tx, uid)
	if err != nil {
		return apperr.Respond(c, err)
	}
	prev := w.CurrentBalance
	w.CurrentBalance = Round2(w.CurrentBalance + credit)
	if _, err := persist(ctx, tx, map[string]*Wallet{uid: w}, []Entry{{
		WalletID: w.ID, UserID: uid, Amount: credit, PreviousBalance: prev,
		Type: EntryCredit, Description: "Wallet funding",
	}}); err != nil {
		return apperr.Respond(c, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "commit failed", err))
	}

	_ = alerts.Notify(ctx, []string{uid}, alerts.Details{
		Type:    "Wallet",
		Title:   "Wallet Funded",
		Message: "Your wallet has been funded",
	}, "", true)
	return apperr.OK(c, "Wallet funded", w)
}

type withdrawRequest struct {
	Amount float64 `json:"amount"`
	Pin    string  `json:"pin"`
	BankID string  `json:"bank_id"`
}

// Withdraw debits the wallet and pays out to a saved bank account via
// Paystack. If the external transfer fails the debit is compensated and the
// withdrawal marked failed.
func Withdraw(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	var req withdrawRequest
	if err := c.Bind(&req); err != nil || req.Amount <= 0 || req.BankID == "" {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "amount and bank_id are required"))
	}
	ctx := c.Request().Context()

	w, err := Get(ctx, uid)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if w.Pin == "" {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "set a transaction pin before withdrawing"))
	}
	if bcrypt.CompareHashAndPassword([]byte(w.Pin), []byte(req.Pin)) != nil {
		return apperr.Respond(c, apperr.E(apperr.KindForbidden, "incorrect transaction pin"))
	}

	var recipientCode string
	err = db.Conn.QueryRow(ctx,
		`SELECT COALESCE(recipient_code, '') FROM banks WHERE id = $1 AND user_id = $2`,
		req.BankID, uid).Scan(&recipientCode)
	if err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindNotFound, "bank account does not exist"))
	}
	if recipientCode == "" {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "bank account is not set up for transfers"))
	}

	s, err := settings.Get(ctx)
	if err != nil {
		return apperr.Respond(c, err)
	}
	charge := Commission(req.Amount, s.ChargePercent)
	payout := Round2(req.Amount - charge)

	var withdrawalID string
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "transaction start failed", err))
	}
	defer tx.Rollback(ctx)

	lw, err := forUpdate(ctx, tx, uid)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if lw.CurrentBalance < req.Amount {
		return apperr.Respond(c, insufficient(lw.CurrentBalance, req.Amount))
	}
	prev := lw.CurrentBalance
	lw.CurrentBalance = Round2(lw.CurrentBalance - req.Amount)
	if _, err := persist(ctx, tx, map[string]*Wallet{uid: lw}, []Entry{{
		WalletID: lw.ID, UserID: uid, Amount: req.Amount, PreviousBalance: prev,
		Type: EntryDebit, Description: "Wallet withdrawal",
	}}); err != nil {
		return apperr.Respond(c, err)
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO withdrawals (user_id, amount, charge, status) VALUES ($1, $2, $3, 'pending') RETURNING id`,
		uid, req.Amount, charge).Scan(&withdrawalID)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not record withdrawal", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "commit failed", err))
	}

	transferCode, err := paystack.InitiateTransfer(ctx, recipientCode, payout, "Wallet withdrawal")
	if err != nil {
		refundWithdrawal(ctx, uid, req.Amount, withdrawalID)
		return apperr.Respond(c, err)
	}
	_, _ = db.Conn.Exec(ctx,
		`UPDATE withdrawals SET status = 'success', reference = $1 WHERE id = $2`, transferCode, withdrawalID)

	return apperr.OK(c, "Withdrawal initiated", echo.Map{
		"withdrawal_id": withdrawalID,
		"amount":        req.Amount,
		"charge":        charge,
	})
}

// refundWithdrawal compensates a debit whose external payout failed.
func refundWithdrawal(ctx context.Context, uid string, amount float64, withdrawalID string) {
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return
	}
	defer tx.Rollback(ctx)
	w, err := forUpdate(ctx, tx, uid)
	if err != nil {
		return
	}
	prev := w.CurrentBalance
	w.CurrentBalance = Round2(w.CurrentBalance + amount)
	if _, err := persist(ctx, tx, map[string]*Wallet{uid: w}, []Entry{{
		WalletID: w.ID, UserID: uid, Amount: amount, PreviousBalance: prev,
		Type: EntryCredit, Description: "Withdrawal reversal",
	}}); err != nil {
		return
	}
	if _, err := tx.Exec(ctx, `UPDATE withdrawals SET status = 'failed' WHERE id = $1`, withdrawalID); err != nil {
		return
	}
	_ = tx.Commit(ctx)
}

// AdminAllTransactions returns the whole ledger, newest first.
func AdminAllTransactions(c echo.Context) error {
	ctx := c.Request().Context()
	rows, err := db.Conn.Query(ctx,
		`SELECT id, wallet_id, user_id, amount, previous_balance, type, description, created_at
		 FROM wallet_history ORDER BY created_at DESC LIMIT 500`)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch transactions", err))
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.WalletID, &e.UserID, &e.Amount, &e.PreviousBalance, &e.Type, &e.Description, &e.CreatedAt); err != nil {
			return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not read transactions", err))
		}
		entries = append(entries, e)
	}
	return apperr.OK(c, "Transactions", entries)
}
