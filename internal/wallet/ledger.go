package wallet

import (
	"math"

	"github.com/talenter-ng/talenter/internal/apperr"
)

// The ledger core is pure: it mutates in-memory wallets and emits the history
// entries the mutation requires. Persistence happens in service.go inside a
// transaction that holds row locks on every wallet touched.

// Round2 rounds a monetary amount to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Commission is the platform's cut of amount at the given percent rate.
func Commission(amount, percent float64) float64 {
	return Round2(amount * percent / 100)
}

// Outcome of a ledger mutation: the entries to append and, for an escrow
// transfer, the commission captured as the job's initial charge.
type Outcome struct {
	InitialCharge float64
	Entries       []Entry
}

func insufficient(have, need float64) error {
	return apperr.Ef(apperr.KindInsufficientBalance,
		"your balance of %.2f is less than %.2f, please top up your wallet", have, need)
}

// ApplyTransfer moves amount into escrow: the debit wallet pays in full, the
// platform takes its commission, and the remainder is held in the credit
// wallet's pending balance until the job completes.
func ApplyTransfer(debit, credit, admin *Wallet, amount, percent float64, description string) (Outcome, error) {
	if amount <= 0 {
		return Outcome{}, apperr.E(apperr.KindInvalid, "transfer amount must be positive")
	}
	charge := Commission(amount, percent)
	if debit.CurrentBalance < amount {
		return Outcome{}, insufficient(debit.CurrentBalance, amount)
	}

	entries := []Entry{
		{WalletID: debit.ID, UserID: debit.OwnerID, Amount: amount, PreviousBalance: debit.CurrentBalance, Type: EntryDebit, Description: description},
		{WalletID: admin.ID, UserID: admin.OwnerID, Amount: charge, PreviousBalance: admin.CurrentBalance, Type: EntryCredit, Description: description},
		{WalletID: credit.ID, UserID: credit.OwnerID, Amount: Round2(amount - charge), PreviousBalance: credit.CurrentBalance, Type: EntryCredit, Description: description},
	}

	debit.CurrentBalance = Round2(debit.CurrentBalance - amount)
	admin.CurrentBalance = Round2(admin.CurrentBalance + charge)
	credit.PendingBalance = Round2(credit.PendingBalance + amount - charge)

	return Outcome{InitialCharge: charge, Entries: entries}, nil
}

// ApplyPenaltyTransfer unwinds an escrowed transfer after the debit party
// cancels. The canceller pays a fresh commission on top of the original
// initial charge, which is not refunded; the credit wallet is restored in
// full, financed by the held escrow plus the penalty.
func ApplyPenaltyTransfer(debit, credit, admin *Wallet, amount, initialCharge, percent float64, description string) (Outcome, error) {
	if amount <= 0 {
		return Outcome{}, apperr.E(apperr.KindInvalid, "transfer amount must be positive")
	}
	charge := Commission(amount, percent)
	debitAmount := Round2(charge + initialCharge)
	held := Round2(amount - initialCharge)
	if debit.CurrentBalance < debitAmount {
		return Outcome{}, insufficient(debit.CurrentBalance, debitAmount)
	}
	if debit.PendingBalance < held {
		return Outcome{}, insufficient(debit.PendingBalance, held)
	}

	entries := []Entry{
		{WalletID: debit.ID, UserID: debit.OwnerID, Amount: debitAmount, PreviousBalance: debit.CurrentBalance, Type: EntryDebit, Description: description},
		{WalletID: admin.ID, UserID: admin.OwnerID, Amount: charge, PreviousBalance: admin.CurrentBalance, Type: EntryCredit, Description: description},
		{WalletID: credit.ID, UserID: credit.OwnerID, Amount: amount, PreviousBalance: credit.CurrentBalance, Type: EntryCredit, Description: description},
	}

	debit.PendingBalance = Round2(debit.PendingBalance - held)
	debit.CurrentBalance = Round2(debit.CurrentBalance - debitAmount)
	admin.CurrentBalance = Round2(admin.CurrentBalance + charge)
	credit.CurrentBalance = Round2(credit.CurrentBalance + amount)

	return Outcome{InitialCharge: charge, Entries: entries}, nil
}

// ApplyRelease moves the escrowed remainder of a completed job from pending
// to current balance.
func ApplyRelease(w *Wallet, price, initialCharge float64, description string) (Outcome, error) {
	amount := Round2(price - initialCharge)
	if amount <= 0 {
		return Outcome{}, apperr.E(apperr.KindInvalid, "release amount must be positive")
	}
	if w.PendingBalance < amount {
		return Outcome{}, insufficient(w.PendingBalance, amount)
	}

	entries := []Entry{
		{WalletID: w.ID, UserID: w.OwnerID, Amount: amount, PreviousBalance: w.CurrentBalance, Type: EntryCredit, Description: description},
	}

	w.PendingBalance = Round2(w.PendingBalance - amount)
	w.CurrentBalance = Round2(w.CurrentBalance + amount)

	return Outcome{Entries: entries}, nil
}
