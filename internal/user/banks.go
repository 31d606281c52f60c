package user

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/db"
	"github.com/talenter-ng/talenter/internal/paystack"
)

type BankAccount struct {
	ID            string    `json:"id"`
	BankName      string    `json:"bank_name"`
	BankCode      string    `json:"bank_code"`
	AccountNumber string    `json:"account_number"`
	AccountName   string    `json:"account_name"`
	Type          string    `json:"type"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListBanks proxies the Paystack bank directory for the add-account form.
func ListBanks(c echo.Context) error {
	banks, err := paystack.ListBanks(c.Request().Context(), c.QueryParam("text"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Banks", banks)
}

// ResolveAccount resolves an account number to its registered name so the
// user can confirm before saving.
func ResolveAccount(c echo.Context) error {
	accountNumber := c.QueryParam("account_number")
	bankCode := c.QueryParam("bank_code")
	if accountNumber == "" || bankCode == "" {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "account_number and bank_code are required"))
	}
	name, err := paystack.ResolveAccountName(c.Request().Context(), accountNumber, bankCode)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Account resolved", echo.Map{"account_name": name})
}

type addBankRequest struct {
	BankName      string `json:"bank_name"`
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	Type          string `json:"type"`
}

// AddBank verifies the account with Paystack, registers a transfer recipient
// and saves the account for withdrawals.
func AddBank(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	var req addBankRequest
	if err := c.Bind(&req); err != nil || req.BankName == "" || req.BankCode == "" || req.AccountNumber == "" {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "bank_name, bank_code and account_number are required"))
	}
	if req.Type == "" {
		req.Type = "nuban"
	}
	ctx := c.Request().Context()

	accountName, err := paystack.ResolveAccountName(ctx, req.AccountNumber, req.BankCode)
	if err != nil {
		return apperr.Respond(c, err)
	}
	recipientCode, err := paystack.CreateTransferRecipient(ctx, accountName, req.AccountNumber, req.BankCode, req.Type)
	if err != nil {
		return apperr.Respond(c, err)
	}

	var b BankAccount
	err = db.Conn.QueryRow(ctx, `
		INSERT INTO banks (user_id, bank_name, bank_code, account_number, account_name, recipient_code, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, bank_name, bank_code, account_number, account_name, type, created_at`,
		uid, req.BankName, req.BankCode, req.AccountNumber, accountName, recipientCode, req.Type).
		Scan(&b.ID, &b.BankName, &b.BankCode, &b.AccountNumber, &b.AccountName, &b.Type, &b.CreatedAt)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not save bank account", err))
	}
	return apperr.Created(c, "Bank account added", b)
}

// MyBanks lists the caller's saved bank accounts.
func MyBanks(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	rows, err := db.Conn.Query(c.Request().Context(), `
		SELECT id, bank_name, bank_code, account_number, account_name, type, created_at
		FROM banks WHERE user_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch bank accounts", err))
	}
	defer rows.Close()

	banks := make([]BankAccount, 0)
	for rows.Next() {
		var b BankAccount
		if err := rows.Scan(&b.ID, &b.BankName, &b.BankCode, &b.AccountNumber, &b.AccountName, &b.Type, &b.CreatedAt); err != nil {
			return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not read bank accounts", err))
		}
		banks = append(banks, b)
	}
	return apperr.OK(c, "Bank accounts", banks)
}

// DeleteBank removes one of the caller's saved bank accounts.
func DeleteBank(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	res, err := db.Conn.Exec(c.Request().Context(),
		`DELETE FROM banks WHERE id = $1 AND user_id = $2`, c.Param("id"), uid)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not delete bank account", err))
	}
	if res.RowsAffected() == 0 {
		return apperr.Respond(c, apperr.E(apperr.KindNotFound, "bank account does not exist"))
	}
	return apperr.OK(c, "Bank account deleted", nil)
}
