package service

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/nhasan-dev/wallet-ledger/internal/domain"
	"github.com/nhasan-dev/wallet-ledger/internal/models"
	"github.com/nhasan-dev/wallet-ledger/internal/repository"
)

// Eligibility predicates shared by every transfer-engine operation. They are
// pure checks over already-loaded records; the engine calls them inside the
// atomic unit so party state is evaluated at the instant of the operation.

// requireParty rejects deleted, inactive, blocked, and unapproved-agent
// parties. label names the party in error messages ("sender", "agent", ...).
func requireParty(u *models.User, label string) error {
	if u == nil || u.Deleted {
		return domain.Errorf(domain.KindNotFound, "%s not found", label)
	}
	switch u.ActiveStatus {
	case domain.UserActive:
	case domain.UserInactive:
		return domain.Errorf(domain.KindStateConflict, "%s account is inactive", label)
	case domain.UserBlocked:
		return domain.Errorf(domain.KindStateConflict, "%s account is blocked", label)
	default:
		return domain.Errorf(domain.KindStateConflict, "%s account is in an unknown state", label)
	}
	if u.Role == domain.RoleAgent && u.AgentStatus != domain.AgentApproved {
		return domain.Errorf(domain.KindStateConflict, "%s is not an approved agent", label)
	}
	return nil
}

// requireRole gates an operation on the party's role.
func requireRole(u *models.User, role domain.Role, message string) error {
	if u == nil || u.Role != role {
		return domain.E(domain.KindAuthorization, message)
	}
	return nil
}

// requireOpenWallet rejects blocked wallets.
func requireOpenWallet(w *models.Wallet, label string) error {
	if w == nil {
		return domain.Errorf(domain.KindNotFound, "%s wallet not found", label)
	}
	if w.Status == domain.WalletBlocked {
		return domain.Errorf(domain.KindStateConflict, "%s wallet is blocked", label)
	}
	return nil
}

// requireSufficient checks the fee-inclusive total against the balance of an
// already-locked wallet, so the check and the debit are one indivisible step.
func requireSufficient(w *models.Wallet, total decimal.Decimal) error {
	if w.Balance.LessThan(total) {
		return domain.Errorf(domain.KindInsufficient,
			"insufficient balance: have %s, need %s", w.Balance.StringFixed(2), total.StringFixed(2))
	}
	return nil
}

// requireAmount validates the transacted amount before the unit begins.
func requireAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.E(domain.KindValidation, "amount must be positive")
	}
	return nil
}

// asNotFound converts a store miss into a classified not-found failure and
// passes every other error through untouched.
func asNotFound(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.E(domain.KindNotFound, message)
	}
	return err
}
