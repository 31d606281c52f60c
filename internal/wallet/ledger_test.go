package wallet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talenter-ng/talenter/internal/apperr"
)

func mkWallet(id, owner string, current, pending float64) *Wallet {
	return &Wallet{ID: id, OwnerID: owner, CurrentBalance: current, PendingBalance: pending}
}

func TestCommission(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		percent float64
		want    float64
	}{
		{"five percent of 10000", 10000, 5, 500},
		{"zero percent", 10000, 0, 0},
		{"rounds to 2dp", 333.33, 7.5, 25},
		{"small amount", 0.10, 5, 0.01},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Commission(tc.amount, tc.percent))
		})
	}
}

func TestApplyTransfer(t *testing.T) {
	client := mkWallet("w1", "client", 15000, 0)
	artisan := mkWallet("w2", "artisan", 0, 0)
	admin := mkWallet("w3", "admin", 0, 0)

	out, err := ApplyTransfer(client, artisan, admin, 10000, 5, "Payment for Fix sink")
	require.NoError(t, err)

	assert.Equal(t, 500.0, out.InitialCharge)
	assert.Equal(t, 5000.0, client.CurrentBalance)
	assert.Equal(t, 500.0, admin.CurrentBalance)
	assert.Equal(t, 9500.0, artisan.PendingBalance)
	assert.Equal(t, 0.0, artisan.CurrentBalance)

	require.Len(t, out.Entries, 3)
	assert.Equal(t, EntryDebit, out.Entries[0].Type)
	assert.Equal(t, 10000.0, out.Entries[0].Amount)
	assert.Equal(t, 15000.0, out.Entries[0].PreviousBalance)
	assert.Equal(t, EntryCredit, out.Entries[1].Type)
	assert.Equal(t, 500.0, out.Entries[1].Amount)
	assert.Equal(t, EntryCredit, out.Entries[2].Type)
	assert.Equal(t, 9500.0, out.Entries[2].Amount)
}

func TestApplyTransferInsufficient(t *testing.T) {
	client := mkWallet("w1", "client", 9999.99, 0)
	artisan := mkWallet("w2", "artisan", 0, 0)
	admin := mkWallet("w3", "admin", 0, 0)

	_, err := ApplyTransfer(client, artisan, admin, 10000, 5, "Payment")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientBalance, apperr.KindOf(err))

	// nothing moved
	assert.Equal(t, 9999.99, client.CurrentBalance)
	assert.Equal(t, 0.0, artisan.PendingBalance)
	assert.Equal(t, 0.0, admin.CurrentBalance)
}

func TestApplyTransferRejectsNonPositive(t *testing.T) {
	client := mkWallet("w1", "client", 100, 0)
	artisan := mkWallet("w2", "artisan", 0, 0)
	admin := mkWallet("w3", "admin", 0, 0)

	for _, amount := range []float64{0, -50} {
		_, err := ApplyTransfer(client, artisan, admin, amount, 5, "Payment")
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	}
}

func TestApplyPenaltyTransfer(t *testing.T) {
	// artisan accepted a 10000 job (initial charge 500, 9500 held in pending)
	// and then cancels; penalty is a fresh 500 commission plus the unrefunded
	// initial charge, and the client is restored in full.
	artisan := mkWallet("w2", "artisan", 2000, 9500)
	client := mkWallet("w1", "client", 5000, 0)
	admin := mkWallet("w3", "admin", 500, 0)

	out, err := ApplyPenaltyTransfer(artisan, client, admin, 10000, 500, 5, "Refund for Fix sink")
	require.NoError(t, err)

	assert.Equal(t, 1000.0, out.Entries[0].Amount) // charge 500 + initial charge 500
	assert.Equal(t, 1000.0, artisan.CurrentBalance)
	assert.Equal(t, 0.0, artisan.PendingBalance)
	assert.Equal(t, 15000.0, client.CurrentBalance)
	assert.Equal(t, 1000.0, admin.CurrentBalance)

	require.Len(t, out.Entries, 3)
	assert.Equal(t, EntryDebit, out.Entries[0].Type)
	assert.Equal(t, 500.0, out.Entries[1].Amount)
	assert.Equal(t, 10000.0, out.Entries[2].Amount)
}

func TestApplyPenaltyTransferInsufficientCurrent(t *testing.T) {
	artisan := mkWallet("w2", "artisan", 999, 9500)
	client := mkWallet("w1", "client", 0, 0)
	admin := mkWallet("w3", "admin", 0, 0)

	_, err := ApplyPenaltyTransfer(artisan, client, admin, 10000, 500, 5, "Refund")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientBalance, apperr.KindOf(err))
	assert.Equal(t, 999.0, artisan.CurrentBalance)
	assert.Equal(t, 9500.0, artisan.PendingBalance)
}

func TestApplyRelease(t *testing.T) {
	artisan := mkWallet("w2", "artisan", 200, 9500)

	out, err := ApplyRelease(artisan, 10000, 500, "Earnings for Fix sink")
	require.NoError(t, err)

	assert.Equal(t, 9700.0, artisan.CurrentBalance)
	assert.Equal(t, 0.0, artisan.PendingBalance)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, EntryCredit, out.Entries[0].Type)
	assert.Equal(t, 9500.0, out.Entries[0].Amount)
	assert.Equal(t, 200.0, out.Entries[0].PreviousBalance)
}

func TestApplyReleaseInsufficientPending(t *testing.T) {
	artisan := mkWallet("w2", "artisan", 0, 100)
	_, err := ApplyRelease(artisan, 10000, 500, "Earnings")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientBalance, apperr.KindOf(err))
}

// Escrow then cancel must leave the client exactly where they started and the
// platform holding two commissions.
func TestEscrowThenCancelRoundTrip(t *testing.T) {
	client := mkWallet("w1", "client", 20000, 0)
	artisan := mkWallet("w2", "artisan", 3000, 0)
	admin := mkWallet("w3", "admin", 0, 0)

	out, err := ApplyTransfer(client, artisan, admin, 10000, 5, "Payment")
	require.NoError(t, err)

	_, err = ApplyPenaltyTransfer(artisan, client, admin, 10000, out.InitialCharge, 5, "Refund")
	require.NoError(t, err)

	assert.Equal(t, 20000.0, client.CurrentBalance)
	assert.Equal(t, 0.0, client.PendingBalance)
	assert.Equal(t, 2000.0, artisan.CurrentBalance)
	assert.Equal(t, 0.0, artisan.PendingBalance)
	assert.Equal(t, 1000.0, admin.CurrentBalance)
}

// Escrow then release must pay the artisan price minus the commission.
func TestEscrowThenReleaseRoundTrip(t *testing.T) {
	client := mkWallet("w1", "client", 10000, 0)
	artisan := mkWallet("w2", "artisan", 0, 0)
	admin := mkWallet("w3", "admin", 0, 0)

	out, err := ApplyTransfer(client, artisan, admin, 10000, 5, "Payment")
	require.NoError(t, err)

	_, err = ApplyRelease(artisan, 10000, out.InitialCharge, "Earnings")
	require.NoError(t, err)

	assert.Equal(t, 0.0, client.CurrentBalance)
	assert.Equal(t, 9500.0, artisan.CurrentBalance)
	assert.Equal(t, 0.0, artisan.PendingBalance)
	assert.Equal(t, 500.0, admin.CurrentBalance)
}

func TestInsufficientMessage(t *testing.T) {
	err := insufficient(150.50, 2000)
	var e *apperr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "your balance of 150.50 is less than 2000.00, please top up your wallet", e.Message)
}
