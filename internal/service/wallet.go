package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhasan-dev/wallet-ledger/internal/domain"
	"github.com/nhasan-dev/wallet-ledger/internal/models"
	"github.com/nhasan-dev/wallet-ledger/internal/observability"
	"github.com/nhasan-dev/wallet-ledger/internal/repository"
)

// WalletService is the transfer engine: every balance-affecting operation
// lives here, each one wrapped in a single atomic unit against the store.
type WalletService struct {
	store   repository.Store
	feeRate decimal.Decimal
}

func NewWalletService(store repository.Store, feeRate decimal.Decimal) *WalletService {
	return &WalletService{store: store, feeRate: feeRate}
}

// newTransactionID mints the opaque ledger identifier. Random, so it is
// collision-free without consulting ledger state. Both entries of a
// dual-wallet operation share it.
func newTransactionID() string {
	return "TXN-" + uuid.NewString()
}

// AddMoney credits the actor's own wallet. Holders only: agents fund their
// float through cash movements and admins hold no wallet balance of their own.
func (s *WalletService) AddMoney(ctx context.Context, actorID uuid.UUID, amount decimal.Decimal) (*models.TransactionEntry, error) {
	if err := requireAmount(amount); err != nil {
		return nil, err
	}

	var entry *models.TransactionEntry
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		actor, err := tx.GetUser(ctx, actorID)
		if err != nil {
			return asNotFound(err, "user not found")
		}
		if err := requireRole(actor, domain.RoleHolder, "you can not add money to your own wallet"); err != nil {
			return err
		}
		if err := requireParty(actor, "your"); err != nil {
			return err
		}

		wallet, err := tx.GetWalletForUpdate(ctx, actorID)
		if err != nil {
			return asNotFound(err, "your wallet not found")
		}
		if err := requireOpenWallet(wallet, "your"); err != nil {
			return err
		}

		if err := tx.AddToBalance(ctx, wallet.ID, amount); err != nil {
			return err
		}

		entry = &models.TransactionEntry{
			ID:            uuid.New(),
			TransactionID: newTransactionID(),
			WalletID:      wallet.ID,
			InitiatedBy:   actorID,
			Amount:        amount,
			Fee:           decimal.Zero,
			Commission:    decimal.Zero,
			Type:          domain.EntryAddMoney,
		}
		return tx.InsertEntry(ctx, entry)
	})
	if err != nil {
		observability.IncrementOperationRejected("add_money", string(domain.KindOf(err)))
		return nil, err
	}
	observability.IncrementLedgerEntry(string(domain.EntryAddMoney))
	return entry, nil
}

// SendMoney moves amount from one holder to another. The receiver side is
// recorded as CASH_IN to stay output-compatible with existing consumers.
func (s *WalletService) SendMoney(ctx context.Context, senderID, receiverID uuid.UUID, amount decimal.Decimal) (*models.TransactionEntry, error) {
	if err := requireAmount(amount); err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, domain.E(domain.KindValidation, "you can not send money to yourself")
	}

	var entry *models.TransactionEntry
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		sender, err := tx.GetUser(ctx, senderID)
		if err != nil {
			return asNotFound(err, "sender not found")
		}
		if err := requireRole(sender, domain.RoleHolder, "only account holders can send money"); err != nil {
			return err
		}
		if err := requireParty(sender, "sender"); err != nil {
			return err
		}

		receiver, err := tx.GetUser(ctx, receiverID)
		if err != nil {
			return asNotFound(err, "receiver not found")
		}
		if err := requireRole(receiver, domain.RoleHolder, "money can only be sent to account holders"); err != nil {
			return err
		}
		if err := requireParty(receiver, "receiver"); err != nil {
			return err
		}

		entry, err = s.moveFunds(ctx, tx, movement{
			debitorID:   senderID,
			creditorID:  receiverID,
			initiatorID: senderID,
			receiverID:  receiverID,
			amount:      amount,
			feeRate:     decimal.Zero,
			debitType:   domain.EntrySendMoney,
			creditType:  domain.EntryCashIn,
			debitLabel:  "sender",
			creditLabel: "receiver",
		})
		return err
	})
	if err != nil {
		observability.IncrementOperationRejected("send_money", string(domain.KindOf(err)))
		return nil, err
	}
	observability.IncrementLedgerEntry(string(domain.EntrySendMoney))
	observability.IncrementLedgerEntry(string(domain.EntryCashIn))
	return entry, nil
}

// CashIn lets an approved agent credit a holder's wallet against physical
// cash taken over the counter. No fee on cash-in.
func (s *WalletService) CashIn(ctx context.Context, agentID, holderID uuid.UUID, amount decimal.Decimal) (*models.TransactionEntry, error) {
	if err := requireAmount(amount); err != nil {
		return nil, err
	}
	if agentID == holderID {
		return nil, domain.E(domain.KindValidation, "you can not cash in to yourself")
	}

	var entry *models.TransactionEntry
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		agent, err := tx.GetUser(ctx, agentID)
		if err != nil {
			return asNotFound(err, "agent not found")
		}
		if err := requireRole(agent, domain.RoleAgent, "only agents can cash in"); err != nil {
			return err
		}
		if err := requireParty(agent, "agent"); err != nil {
			return err
		}

		holder, err := tx.GetUser(ctx, holderID)
		if err != nil {
			return asNotFound(err, "receiver not found")
		}
		if err := requireRole(holder, domain.RoleHolder, "cash in must go to an account holder"); err != nil {
			return err
		}
		if err := requireParty(holder, "receiver"); err != nil {
			return err
		}

		entry, err = s.moveFunds(ctx, tx, movement{
			debitorID:   agentID,
			creditorID:  holderID,
			initiatorID: agentID,
			receiverID:  holderID,
			amount:      amount,
			feeRate:     decimal.Zero,
			debitType:   domain.EntryCashIn,
			creditType:  domain.EntryCashIn,
			debitLabel:  "agent",
			creditLabel: "receiver",
		})
		return err
	})
	if err != nil {
		observability.IncrementOperationRejected("cash_in", string(domain.KindOf(err)))
		return nil, err
	}
	observability.IncrementLedgerEntry(string(domain.EntryCashIn))
	return entry, nil
}

// CashOut debits the holder amount plus the proportional fee and credits the
// whole fee-inclusive total to the agent; the fee reappears on the agent
// entry as commission.
func (s *WalletService) CashOut(ctx context.Context, holderID, agentID uuid.UUID, amount decimal.Decimal) (*models.TransactionEntry, error) {
	return s.cashOutVia(ctx, holderID, agentID, holderID, amount, domain.EntryCashOut, "cash_out")
}

// Withdraw is the agent-initiated cash-out: the agent names the holder whose
// wallet is debited, and the agent's own wallet is credited the fee-inclusive
// total. Same economics as CashOut, initiated from the other side.
func (s *WalletService) Withdraw(ctx context.Context, agentID, holderID uuid.UUID, amount decimal.Decimal) (*models.TransactionEntry, error) {
	return s.cashOutVia(ctx, holderID, agentID, agentID, amount, domain.EntryWithdraw, "withdraw")
}

func (s *WalletService) cashOutVia(ctx context.Context, holderID, agentID, initiatorID uuid.UUID, amount decimal.Decimal, entryType domain.EntryType, op string) (*models.TransactionEntry, error) {
	if err := requireAmount(amount); err != nil {
		return nil, err
	}
	if holderID == agentID {
		return nil, domain.E(domain.KindValidation, "holder and agent must be different accounts")
	}

	var entry *models.TransactionEntry
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		holder, err := tx.GetUser(ctx, holderID)
		if err != nil {
			return asNotFound(err, "holder not found")
		}
		if err := requireRole(holder, domain.RoleHolder, "cash out only moves money from an account holder"); err != nil {
			return err
		}
		if err := requireParty(holder, "holder"); err != nil {
			return err
		}

		agent, err := tx.GetUser(ctx, agentID)
		if err != nil {
			return asNotFound(err, "agent not found")
		}
		if err := requireRole(agent, domain.RoleAgent, "cash out must go through an agent"); err != nil {
			return err
		}
		if err := requireParty(agent, "agent"); err != nil {
			return err
		}

		receiverID := holderID
		if initiatorID == holderID {
			receiverID = agentID
		}
		entry, err = s.moveFunds(ctx, tx, movement{
			debitorID:   holderID,
			creditorID:  agentID,
			initiatorID: initiatorID,
			receiverID:  receiverID,
			amount:      amount,
			feeRate:     s.feeRate,
			debitType:   entryType,
			creditType:  entryType,
			debitLabel:  "holder",
			creditLabel: "agent",
		})
		return err
	})
	if err != nil {
		observability.IncrementOperationRejected(op, string(domain.KindOf(err)))
		return nil, err
	}
	observability.IncrementLedgerEntry(string(entryType))
	return entry, nil
}

// movement describes one fee-inclusive transfer between two wallets. It is
// the shared primitive behind peer transfer, cash-in and both cash-out
// variants, so the fee arithmetic exists exactly once.
type movement struct {
	debitorID   uuid.UUID
	creditorID  uuid.UUID
	initiatorID uuid.UUID
	receiverID  uuid.UUID
	amount      decimal.Decimal
	feeRate     decimal.Decimal
	debitType   domain.EntryType
	creditType  domain.EntryType
	debitLabel  string
	creditLabel string
}

// moveFunds locks both wallets, checks status and sufficiency, applies the
// two balance deltas and appends the linked entry pair. Wallets are locked
// in a fixed id order so concurrent opposite transfers cannot deadlock.
// Returns the debit-side (initiator-canonical) entry.
func (s *WalletService) moveFunds(ctx context.Context, tx repository.Tx, m movement) (*models.TransactionEntry, error) {
	fee := domain.Fee(m.amount, m.feeRate)
	total := domain.FeeInclusiveTotal(m.amount, m.feeRate)

	firstID, secondID := m.debitorID, m.creditorID
	if firstID.String() > secondID.String() {
		firstID, secondID = secondID, firstID
	}
	wallets := make(map[uuid.UUID]*models.Wallet, 2)
	for _, userID := range []uuid.UUID{firstID, secondID} {
		label := m.debitLabel
		if userID == m.creditorID {
			label = m.creditLabel
		}
		w, err := tx.GetWalletForUpdate(ctx, userID)
		if err != nil {
			return nil, asNotFound(err, label+" wallet not found")
		}
		wallets[userID] = w
	}

	debitWallet, creditWallet := wallets[m.debitorID], wallets[m.creditorID]
	if err := requireOpenWallet(debitWallet, m.debitLabel); err != nil {
		return nil, err
	}
	if err := requireOpenWallet(creditWallet, m.creditLabel); err != nil {
		return nil, err
	}
	if err := requireSufficient(debitWallet, total); err != nil {
		return nil, err
	}

	if err := tx.AddToBalance(ctx, debitWallet.ID, total.Neg()); err != nil {
		return nil, fmt.Errorf("debit %s wallet: %w", m.debitLabel, err)
	}
	if err := tx.AddToBalance(ctx, creditWallet.ID, total); err != nil {
		return nil, fmt.Errorf("credit %s wallet: %w", m.creditLabel, err)
	}

	transactionID := newTransactionID()
	receiverID := m.receiverID

	debitEntry := &models.TransactionEntry{
		ID:            uuid.New(),
		TransactionID: transactionID,
		WalletID:      debitWallet.ID,
		InitiatedBy:   m.initiatorID,
		ReceivedBy:    &receiverID,
		Amount:        m.amount,
		Fee:           fee,
		Commission:    decimal.Zero,
		Type:          m.debitType,
	}
	if err := tx.InsertEntry(ctx, debitEntry); err != nil {
		return nil, err
	}

	creditEntry := &models.TransactionEntry{
		ID:            uuid.New(),
		TransactionID: transactionID,
		WalletID:      creditWallet.ID,
		InitiatedBy:   m.initiatorID,
		ReceivedBy:    &receiverID,
		Amount:        m.amount,
		Fee:           decimal.Zero,
		Commission:    fee,
		Type:          m.creditType,
	}
	if err := tx.InsertEntry(ctx, creditEntry); err != nil {
		return nil, err
	}

	return debitEntry, nil
}

// UpdateWalletStatus is the administrative block/unblock action. The change
// must be genuine and the target wallet must belong to a holder.
func (s *WalletService) UpdateWalletStatus(ctx context.Context, actorID, walletID uuid.UUID, status domain.WalletStatus) (*models.Wallet, error) {
	if !domain.ValidWalletStatus(status) {
		return nil, domain.Errorf(domain.KindValidation, "unknown wallet status %q", status)
	}

	var wallet *models.Wallet
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		actor, err := tx.GetUser(ctx, actorID)
		if err != nil {
			return asNotFound(err, "user not found")
		}
		if err := requireRole(actor, domain.RoleAdmin, "only admins can change wallet status"); err != nil {
			return err
		}

		wallet, err = tx.GetWalletByIDForUpdate(ctx, walletID)
		if err != nil {
			return asNotFound(err, "wallet not found")
		}

		owner, err := tx.GetUser(ctx, wallet.UserID)
		if err != nil {
			return asNotFound(err, "wallet owner not found")
		}
		if err := requireRole(owner, domain.RoleHolder, "only holder wallets can be blocked or unblocked"); err != nil {
			return err
		}

		if wallet.Status == status {
			return domain.Errorf(domain.KindStateConflict, "wallet is already %s", status)
		}
		if err := tx.SetWalletStatus(ctx, walletID, status); err != nil {
			return err
		}
		wallet.Status = status
		return nil
	})
	if err != nil {
		observability.IncrementOperationRejected("wallet_status", string(domain.KindOf(err)))
		return nil, err
	}
	return wallet, nil
}

// MyWallet returns the caller's wallet.
func (s *WalletService) MyWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.store.GetWalletByUser(ctx, userID)
	if err != nil {
		return nil, asNotFound(err, "wallet not found")
	}
	return wallet, nil
}

// ListWallets serves the admin read path.
func (s *WalletService) ListWallets(ctx context.Context, params repository.ListParams) ([]models.Wallet, int, error) {
	return s.store.ListWallets(ctx, params)
}
