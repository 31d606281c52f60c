package settings

import (
	"context"

	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/db"
)

// Settings is the platform's singleton configuration row. Rates are read
// fresh on every money operation so a change only affects future transfers.
type Settings struct {
	CommissionPercent     float64 `json:"commission_percent"`
	ChargePercent         float64 `json:"charge_percent"`
	Distance              float64 `json:"distance"`
	AdminID               string  `json:"admin_id"`
	ReferralBonusPercent  float64 `json:"referral_bonus_percent"`
	MinimumBonusPayout    float64 `json:"minimum_bonus_payout"`
	DeliveryFee           float64 `json:"delivery_fee"`
	MinimumIOSVersion     float64 `json:"minimum_ios_version"`
	MinimumAndroidVersion float64 `json:"minimum_android_version"`
	BankName              string  `json:"bank_name,omitempty"`
	AccountName           string  `json:"account_name,omitempty"`
	AccountNumber         string  `json:"account_number,omitempty"`
	BankCode              string  `json:"bank_code,omitempty"`
}

const selectCols = `commission_percent, charge_percent, distance,
	COALESCE(admin_id::text, ''), referral_bonus_percent, minimum_bonus_payout,
	delivery_fee, minimum_ios_version, minimum_android_version,
	COALESCE(bank_name, ''), COALESCE(account_name, ''),
	COALESCE(account_number, ''), COALESCE(bank_code, '')`

// Get returns the settings row, creating it with defaults on first use.
// The insert is a no-op when the row exists, so concurrent first reads are safe.
func Get(ctx context.Context) (Settings, error) {
	_, err := db.Conn.Exec(ctx, `INSERT INTO settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return Settings{}, apperr.Wrap(apperr.KindInternal, "settings bootstrap failed", err)
	}
	var s Settings
	err = db.Conn.QueryRow(ctx, `SELECT `+selectCols+` FROM settings WHERE id = 1`).Scan(
		&s.CommissionPercent, &s.ChargePercent, &s.Distance, &s.AdminID,
		&s.ReferralBonusPercent, &s.MinimumBonusPayout, &s.DeliveryFee,
		&s.MinimumIOSVersion, &s.MinimumAndroidVersion,
		&s.BankName, &s.AccountName, &s.AccountNumber, &s.BankCode,
	)
	if err != nil {
		return Settings{}, apperr.Wrap(apperr.KindInternal, "could not load settings", err)
	}
	return s, nil
}

// UpdateParams carries partial settings updates; nil fields are untouched.
type UpdateParams struct {
	CommissionPercent     *float64 `json:"commission_percent"`
	ChargePercent         *float64 `json:"charge_percent"`
	Distance              *float64 `json:"distance"`
	AdminID               *string  `json:"admin_id"`
	ReferralBonusPercent  *float64 `json:"referral_bonus_percent"`
	MinimumBonusPayout    *float64 `json:"minimum_bonus_payout"`
	DeliveryFee           *float64 `json:"delivery_fee"`
	MinimumIOSVersion     *float64 `json:"minimum_ios_version"`
	MinimumAndroidVersion *float64 `json:"minimum_android_version"`
	BankName              *string  `json:"bank_name"`
	AccountName           *string  `json:"account_name"`
	AccountNumber         *string  `json:"account_number"`
	BankCode              *string  `json:"bank_code"`
}

// Update applies the non-nil fields and returns the fresh settings.
func Update(ctx context.Context, p UpdateParams) (Settings, error) {
	if p.CommissionPercent != nil && (*p.CommissionPercent < 0 || *p.CommissionPercent > 100) {
		return Settings{}, apperr.E(apperr.KindInvalid, "commission_percent must be between 0 and 100")
	}
	if p.ChargePercent != nil && (*p.ChargePercent < 0 || *p.ChargePercent > 100) {
		return Settings{}, apperr.E(apperr.KindInvalid, "charge_percent must be between 0 and 100")
	}
	if _, err := Get(ctx); err != nil {
		return Settings{}, err
	}
	_, err := db.Conn.Exec(ctx, `
		UPDATE settings SET
			commission_percent = COALESCE($1, commission_percent),
			charge_percent = COALESCE($2, charge_percent),
			distance = COALESCE($3, distance),
			admin_id = COALESCE($4::uuid, admin_id),
			referral_bonus_percent = COALESCE($5, referral_bonus_percent),
			minimum_bonus_payout = COALESCE($6, minimum_bonus_payout),
			delivery_fee = COALESCE($7, delivery_fee),
			minimum_ios_version = COALESCE($8, minimum_ios_version),
			minimum_android_version = COALESCE($9, minimum_android_version),
			bank_name = COALESCE($10, bank_name),
			account_name = COALESCE($11, account_name),
			account_number = COALESCE($12, account_number),
			bank_code = COALESCE($13, bank_code)
		WHERE id = 1`,
		p.CommissionPercent, p.ChargePercent, p.Distance, p.AdminID,
		p.ReferralBonusPercent, p.MinimumBonusPayout, p.DeliveryFee,
		p.MinimumIOSVersion, p.MinimumAndroidVersion,
		p.BankName, p.AccountName, p.AccountNumber, p.BankCode,
	)
	if err != nil {
		return Settings{}, apperr.Wrap(apperr.KindInternal, "could not update settings", err)
	}
	return Get(ctx)
}
