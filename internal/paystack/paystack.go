package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/talenter-ng/talenter/internal/apperr"
)

// Thin wrapper over the Paystack REST API. Settlement of real money is
// external to the wallet ledger; callers only consume success/failure and
// the settled amount.

const baseURL = "https://api.paystack.co"

var httpClient = &http.Client{Timeout: 10 * time.Second}

func secretKey() string { return os.Getenv("PAYSTACK_KEY") }

func call(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "paystack request encode failed", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "paystack request build failed", err)
	}
	req.Header.Set("Authorization", "Bearer "+secretKey())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindExternal, "paystack is unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apperr.Ef(apperr.KindExternal, "paystack request failed with status %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperr.Wrap(apperr.KindExternal, "paystack response decode failed", err)
		}
	}
	return nil
}

type Bank struct {
	ID      int    `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Type    string `json:"type"`
}

// ListBanks returns NGN banks, optionally filtered by a name substring.
func ListBanks(ctx context.Context, text string) ([]Bank, error) {
	var payload struct {
		Data []Bank `json:"data"`
	}
	if err := call(ctx, http.MethodGet, "/bank?currency=NGN", nil, &payload); err != nil {
		return nil, err
	}
	if text == "" {
		return payload.Data, nil
	}
	var banks []Bank
	for _, b := range payload.Data {
		if strings.Contains(strings.ToLower(b.Name), strings.ToLower(text)) {
			banks = append(banks, b)
		}
	}
	return banks, nil
}

// ResolveAccountName resolves an account number to its registered name.
func ResolveAccountName(ctx context.Context, accountNumber, bankCode string) (string, error) {
	var payload struct {
		Data struct {
			AccountName string `json:"account_name"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/bank/resolve?account_number=%s&bank_code=%s",
		url.QueryEscape(accountNumber), url.QueryEscape(bankCode))
	if err := call(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return "", err
	}
	if payload.Data.AccountName == "" {
		return "", apperr.E(apperr.KindInvalid, "account could not be resolved")
	}
	return payload.Data.AccountName, nil
}

// CreateTransferRecipient registers a bank account for payouts and returns
// the recipient code used by InitiateTransfer.
func CreateTransferRecipient(ctx context.Context, accountName, accountNumber, bankCode, accountType string) (string, error) {
	body := map[string]string{
		"type":           accountType,
		"name":           accountName,
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       "NGN",
	}
	var payload struct {
		Data struct {
			RecipientCode string `json:"recipient_code"`
		} `json:"data"`
	}
	if err := call(ctx, http.MethodPost, "/transferrecipient", body, &payload); err != nil {
		return "", err
	}
	return payload.Data.RecipientCode, nil
}

// InitiateTransfer starts a payout. Amount is in naira; Paystack expects kobo.
func InitiateTransfer(ctx context.Context, recipientCode string, amount float64, reason string) (string, error) {
	body := map[string]any{
		"source":    "balance",
		"amount":    int64(amount * 100),
		"recipient": recipientCode,
		"reason":    reason,
	}
	var payload struct {
		Data struct {
			TransferCode string `json:"transfer_code"`
			Status       string `json:"status"`
		} `json:"data"`
	}
	if err := call(ctx, http.MethodPost, "/transfer", body, &payload); err != nil {
		return "", err
	}
	return payload.Data.TransferCode, nil
}

// VerifyTransaction confirms an inbound payment reference and returns the
// settled amount in naira.
func VerifyTransaction(ctx context.Context, reference string) (float64, error) {
	var payload struct {
		Data struct {
			Status string `json:"status"`
			Amount int64  `json:"amount"` // kobo
		} `json:"data"`
	}
	if err := call(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &payload); err != nil {
		return 0, err
	}
	if payload.Data.Status != "success" {
		return 0, apperr.Ef(apperr.KindInvalid, "transaction %s was not successful", reference)
	}
	return float64(payload.Data.Amount) / 100, nil
}

// Balance returns the platform's available Paystack balance in naira.
func Balance(ctx context.Context) (float64, error) {
	var payload struct {
		Data []struct {
			Balance int64 `json:"balance"` // kobo
		} `json:"data"`
	}
	if err := call(ctx, http.MethodGet, "/balance", nil, &payload); err != nil {
		return 0, err
	}
	if len(payload.Data) == 0 {
		return 0, nil
	}
	return float64(payload.Data[0].Balance) / 100, nil
}
