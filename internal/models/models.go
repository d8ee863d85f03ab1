package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhasan-dev/wallet-ledger/internal/domain"
)

type User struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
	Address      string              `json:"address"`
	PasswordHash string              `json:"-"`
	Role         domain.Role         `json:"role"`
	ActiveStatus domain.ActiveStatus `json:"active_status"`
	AgentStatus  domain.AgentStatus  `json:"agent_status"`
	Deleted      bool                `json:"deleted"`
	CreatedAt    time.Time           `json:"created_at"`
}

type Wallet struct {
	ID        uuid.UUID           `json:"id"`
	UserID    uuid.UUID           `json:"user_id"`
	Balance   decimal.Decimal     `json:"balance"`
	Status    domain.WalletStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// TransactionEntry is one side of a money movement. Entries are append-only:
// nothing in the codebase updates or deletes a row once written. Dual-wallet
// operations produce two entries sharing one TransactionID.
type TransactionEntry struct {
	ID            uuid.UUID        `json:"id"`
	TransactionID string           `json:"transaction_id"`
	WalletID      uuid.UUID        `json:"wallet_id"`
	InitiatedBy   uuid.UUID        `json:"initiated_by"`
	ReceivedBy    *uuid.UUID       `json:"received_by,omitempty"`
	Amount        decimal.Decimal  `json:"amount"`
	Fee           decimal.Decimal  `json:"fee"`
	Commission    decimal.Decimal  `json:"commission"`
	Type          domain.EntryType `json:"type"`
	CreatedAt     time.Time        `json:"created_at"`
}
