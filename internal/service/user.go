package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhasan-dev/wallet-ledger/internal/domain"
	"github.com/nhasan-dev/wallet-ledger/internal/models"
	"github.com/nhasan-dev/wallet-ledger/internal/repository"
)

// UserService owns the identity directory: registration and the
// administrative state changes on users.
type UserService struct {
	store          repository.Store
	openingBalance decimal.Decimal
	bcryptCost     int
}

func NewUserService(store repository.Store, openingBalance decimal.Decimal, bcryptCost int) *UserService {
	return &UserService{store: store, openingBalance: openingBalance, bcryptCost: bcryptCost}
}

type RegisterParams struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
	Role     domain.Role
}

// Register creates the user and their wallet in one atomic unit: the wallet
// opens with the configured balance, and if the wallet insert fails the user
// row does not survive either. Agents start out PENDING until an admin
// approves them.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if params.Role != domain.RoleHolder && params.Role != domain.RoleAgent {
		return nil, domain.Errorf(domain.KindValidation, "role must be %s or %s", domain.RoleHolder, domain.RoleAgent)
	}
	if len(params.Password) < 8 {
		return nil, domain.E(domain.KindValidation, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	agentStatus := domain.AgentNotAgent
	if params.Role == domain.RoleAgent {
		agentStatus = domain.AgentPending
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         params.Name,
		Email:        strings.ToLower(strings.TrimSpace(params.Email)),
		Phone:        strings.TrimSpace(params.Phone),
		Address:      params.Address,
		PasswordHash: string(hash),
		Role:         params.Role,
		ActiveStatus: domain.UserActive,
		AgentStatus:  agentStatus,
	}

	err = s.store.RunInTx(ctx, func(tx repository.Tx) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.E(domain.KindStateConflict, "a user with this email or phone already exists")
			}
			return err
		}
		wallet := &models.Wallet{
			ID:      uuid.New(),
			UserID:  user.ID,
			Balance: s.openingBalance,
			Status:  domain.WalletUnblocked,
		}
		return tx.CreateWallet(ctx, wallet)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ChangeAgentStatus approves or suspends an agent. Admin-gated at the route;
// the target must actually be an agent and not deleted.
func (s *UserService) ChangeAgentStatus(ctx context.Context, targetID uuid.UUID, status domain.AgentStatus) (*models.User, error) {
	if !domain.ValidAgentStatus(status) {
		return nil, domain.Errorf(domain.KindValidation, "agent status must be %s or %s", domain.AgentApproved, domain.AgentSuspended)
	}

	var user *models.User
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		var err error
		user, err = tx.GetUser(ctx, targetID)
		if err != nil {
			return asNotFound(err, "agent not found")
		}
		if user.Deleted {
			return domain.E(domain.KindNotFound, "agent not found")
		}
		if user.Role != domain.RoleAgent {
			return domain.E(domain.KindStateConflict, "this user is not an agent, so their agent status can not change")
		}
		if err := tx.SetAgentStatus(ctx, targetID, status); err != nil {
			return err
		}
		user.AgentStatus = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ChangeActiveStatus activates, deactivates or blocks a user account.
func (s *UserService) ChangeActiveStatus(ctx context.Context, targetID uuid.UUID, status domain.ActiveStatus) (*models.User, error) {
	if !domain.ValidActiveStatus(status) {
		return nil, domain.Errorf(domain.KindValidation, "unknown active status %q", status)
	}

	var user *models.User
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		var err error
		user, err = tx.GetUser(ctx, targetID)
		if err != nil {
			return asNotFound(err, "user not found")
		}
		if user.Deleted {
			return domain.E(domain.KindNotFound, "user not found")
		}
		if user.Role == domain.RoleAdmin {
			return domain.E(domain.KindAuthorization, "admin accounts can not be deactivated")
		}
		if user.ActiveStatus == status {
			return domain.Errorf(domain.KindStateConflict, "user is already %s", status)
		}
		if err := tx.SetActiveStatus(ctx, targetID, status); err != nil {
			return err
		}
		user.ActiveStatus = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns a single non-deleted user.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "user not found")
	}
	if user.Deleted {
		return nil, domain.E(domain.KindNotFound, "user not found")
	}
	return user, nil
}

// ListUsers serves the admin read path with search/sort/pagination.
func (s *UserService) ListUsers(ctx context.Context, params repository.ListParams) ([]models.User, int, error) {
	return s.store.ListUsers(ctx, params)
}
