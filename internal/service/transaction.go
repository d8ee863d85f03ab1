package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/nhasan-dev/wallet-ledger/internal/models"
	"github.com/nhasan-dev/wallet-ledger/internal/repository"
)

// TransactionService is the read path over the append-only ledger.
type TransactionService struct {
	store repository.Store
}

func NewTransactionService(store repository.Store) *TransactionService {
	return &TransactionService{store: store}
}

// ForUser returns the entries where the caller appears as initiator or
// receiver, newest first.
func (s *TransactionService) ForUser(ctx context.Context, userID uuid.UUID, params repository.ListParams) ([]models.TransactionEntry, int, error) {
	return s.store.ListEntriesForUser(ctx, userID, params)
}

// All is the admin view over the whole ledger.
func (s *TransactionService) All(ctx context.Context, params repository.ListParams) ([]models.TransactionEntry, int, error) {
	return s.store.ListEntries(ctx, params)
}
