package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhasan-dev/wallet-ledger/internal/domain"
	"github.com/nhasan-dev/wallet-ledger/internal/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint (email, phone,
	// one-wallet-per-user) is violated.
	ErrDuplicate = errors.New("record already exists")
)

// ListParams is the read-path contract: the HTTP layer translates query
// syntax into these and the store stays unaware of HTTP.
type ListParams struct {
	Page     int
	PageSize int
	SortBy   string
	SortDesc bool
	Search   string
}

// Normalize clamps paging values to sane bounds.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Tx is the set of mutations available inside one atomic unit. Every
// balance-affecting operation runs entirely through a Tx so that either all
// of its writes commit or none do.
type Tx interface {
	CreateUser(ctx context.Context, user *models.User) error
	CreateWallet(ctx context.Context, wallet *models.Wallet) error

	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetWalletForUpdate loads a wallet by owning user and locks it for the
	// remainder of the unit, so the sufficiency check and the balance delta
	// cannot be interleaved by a concurrent operation.
	GetWalletForUpdate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	// GetWalletByIDForUpdate is the same lock keyed by wallet id.
	GetWalletByIDForUpdate(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error)

	AddToBalance(ctx context.Context, walletID uuid.UUID, delta decimal.Decimal) error
	SetWalletStatus(ctx context.Context, walletID uuid.UUID, status domain.WalletStatus) error
	SetAgentStatus(ctx context.Context, userID uuid.UUID, status domain.AgentStatus) error
	SetActiveStatus(ctx context.Context, userID uuid.UUID, status domain.ActiveStatus) error

	InsertEntry(ctx context.Context, entry *models.TransactionEntry) error
}

// Store is the persistence contract the services are written against.
// Reads outside RunInTx see committed state only.
type Store interface {
	// RunInTx executes fn within one atomic unit. Any error returned by fn
	// rolls the whole unit back.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error

	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetWalletByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	GetWalletByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error)

	ListUsers(ctx context.Context, params ListParams) ([]models.User, int, error)
	ListWallets(ctx context.Context, params ListParams) ([]models.Wallet, int, error)
	// ListEntriesForUser returns entries where the user is initiator or
	// receiver, newest first.
	ListEntriesForUser(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.TransactionEntry, int, error)
	ListEntries(ctx context.Context, params ListParams) ([]models.TransactionEntry, int, error)
}
