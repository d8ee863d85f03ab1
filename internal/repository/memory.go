package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhasan-dev/wallet-ledger/internal/domain"
	"github.com/nhasan-dev/wallet-ledger/internal/models"
)

// Memory is a concurrency-safe in-memory Store. It backs unit tests and the
// "memory" storage driver for local development.
//
// RunInTx snapshots the whole state, lets fn mutate the snapshot, and swaps
// it in only on success, so an aborted unit leaves nothing behind. That is
// the same all-or-nothing contract the Postgres store gets from transactions. The
// single mutex also serializes units, which satisfies the isolation
// requirement trivially.
type Memory struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	users        map[uuid.UUID]models.User
	userByEmail  map[string]uuid.UUID
	userByPhone  map[string]uuid.UUID
	wallets      map[uuid.UUID]models.Wallet
	walletByUser map[uuid.UUID]uuid.UUID
	entries      []models.TransactionEntry
	entryIDs     map[uuid.UUID]struct{}
}

func NewMemory() *Memory {
	return &Memory{state: memState{
		users:        make(map[uuid.UUID]models.User),
		userByEmail:  make(map[string]uuid.UUID),
		userByPhone:  make(map[string]uuid.UUID),
		wallets:      make(map[uuid.UUID]models.Wallet),
		walletByUser: make(map[uuid.UUID]uuid.UUID),
		entryIDs:     make(map[uuid.UUID]struct{}),
	}}
}

func (s *memState) clone() memState {
	c := memState{
		users:        make(map[uuid.UUID]models.User, len(s.users)),
		userByEmail:  make(map[string]uuid.UUID, len(s.userByEmail)),
		userByPhone:  make(map[string]uuid.UUID, len(s.userByPhone)),
		wallets:      make(map[uuid.UUID]models.Wallet, len(s.wallets)),
		walletByUser: make(map[uuid.UUID]uuid.UUID, len(s.walletByUser)),
		entries:      make([]models.TransactionEntry, len(s.entries)),
		entryIDs:     make(map[uuid.UUID]struct{}, len(s.entryIDs)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.userByEmail {
		c.userByEmail[k] = v
	}
	for k, v := range s.userByPhone {
		c.userByPhone[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.walletByUser {
		c.walletByUser[k] = v
	}
	copy(c.entries, s.entries)
	for k := range s.entryIDs {
		c.entryIDs[k] = struct{}{}
	}
	return c
}

func (m *Memory) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(&memTx{state: &snapshot}); err != nil {
		return err
	}
	m.state = snapshot
	return nil
}

func (m *Memory) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.getUser(id)
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.state.userByEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return m.state.getUser(id)
}

func (m *Memory) GetWalletByUser(_ context.Context, userID uuid.UUID) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.getWalletByUser(userID)
}

func (m *Memory) GetWalletByID(_ context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.getWallet(walletID)
}

func (m *Memory) ListUsers(_ context.Context, params ListParams) ([]models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	params = params.Normalize()

	var users []models.User
	needle := strings.ToLower(params.Search)
	for _, u := range m.state.users {
		if u.Deleted {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Name), needle) &&
			!strings.Contains(strings.ToLower(u.Email), needle) &&
			!strings.Contains(u.Phone, needle) {
			continue
		}
		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool {
		switch strings.ToLower(params.SortBy) {
		case "name":
			if params.SortDesc {
				return users[i].Name > users[j].Name
			}
			return users[i].Name < users[j].Name
		case "email":
			if params.SortDesc {
				return users[i].Email > users[j].Email
			}
			return users[i].Email < users[j].Email
		default:
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
	})
	total := len(users)
	return paginate(users, params), total, nil
}

func (m *Memory) ListWallets(_ context.Context, params ListParams) ([]models.Wallet, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	params = params.Normalize()

	wallets := make([]models.Wallet, 0, len(m.state.wallets))
	for _, w := range m.state.wallets {
		wallets = append(wallets, w)
	}
	sort.Slice(wallets, func(i, j int) bool {
		return wallets[i].CreatedAt.After(wallets[j].CreatedAt)
	})
	total := len(wallets)
	return paginate(wallets, params), total, nil
}

func (m *Memory) ListEntriesForUser(_ context.Context, userID uuid.UUID, params ListParams) ([]models.TransactionEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	params = params.Normalize()

	var entries []models.TransactionEntry
	for i := len(m.state.entries) - 1; i >= 0; i-- { // newest first
		e := m.state.entries[i]
		if e.InitiatedBy == userID || (e.ReceivedBy != nil && *e.ReceivedBy == userID) {
			entries = append(entries, e)
		}
	}
	total := len(entries)
	return paginate(entries, params), total, nil
}

func (m *Memory) ListEntries(_ context.Context, params ListParams) ([]models.TransactionEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	params = params.Normalize()

	entries := make([]models.TransactionEntry, 0, len(m.state.entries))
	for i := len(m.state.entries) - 1; i >= 0; i-- {
		entries = append(entries, m.state.entries[i])
	}
	total := len(entries)
	return paginate(entries, params), total, nil
}

func paginate[T any](items []T, params ListParams) []T {
	start := params.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + params.PageSize
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

func (s *memState) getUser(id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *memState) getWallet(id uuid.UUID) (*models.Wallet, error) {
	w, ok := s.wallets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (s *memState) getWalletByUser(userID uuid.UUID) (*models.Wallet, error) {
	id, ok := s.walletByUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.getWallet(id)
}

// memTx mutates the snapshot owned by the enclosing RunInTx call.
type memTx struct {
	state *memState
}

func (t *memTx) CreateUser(_ context.Context, user *models.User) error {
	email := strings.ToLower(user.Email)
	if _, exists := t.state.userByEmail[email]; exists {
		return ErrDuplicate
	}
	if _, exists := t.state.userByPhone[user.Phone]; exists {
		return ErrDuplicate
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	t.state.users[user.ID] = *user
	t.state.userByEmail[email] = user.ID
	t.state.userByPhone[user.Phone] = user.ID
	return nil
}

func (t *memTx) CreateWallet(_ context.Context, wallet *models.Wallet) error {
	if _, exists := t.state.walletByUser[wallet.UserID]; exists {
		return ErrDuplicate
	}
	now := time.Now()
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = now
		wallet.UpdatedAt = now
	}
	t.state.wallets[wallet.ID] = *wallet
	t.state.walletByUser[wallet.UserID] = wallet.ID
	return nil
}

func (t *memTx) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	return t.state.getUser(id)
}

func (t *memTx) GetWalletForUpdate(_ context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return t.state.getWalletByUser(userID)
}

func (t *memTx) GetWalletByIDForUpdate(_ context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	return t.state.getWallet(walletID)
}

func (t *memTx) AddToBalance(_ context.Context, walletID uuid.UUID, delta decimal.Decimal) error {
	w, ok := t.state.wallets[walletID]
	if !ok {
		return ErrNotFound
	}
	w.Balance = w.Balance.Add(delta)
	w.UpdatedAt = time.Now()
	t.state.wallets[walletID] = w
	return nil
}

func (t *memTx) SetWalletStatus(_ context.Context, walletID uuid.UUID, status domain.WalletStatus) error {
	w, ok := t.state.wallets[walletID]
	if !ok {
		return ErrNotFound
	}
	w.Status = status
	w.UpdatedAt = time.Now()
	t.state.wallets[walletID] = w
	return nil
}

func (t *memTx) SetAgentStatus(_ context.Context, userID uuid.UUID, status domain.AgentStatus) error {
	u, ok := t.state.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.AgentStatus = status
	t.state.users[userID] = u
	return nil
}

func (t *memTx) SetActiveStatus(_ context.Context, userID uuid.UUID, status domain.ActiveStatus) error {
	u, ok := t.state.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.ActiveStatus = status
	t.state.users[userID] = u
	return nil
}

func (t *memTx) InsertEntry(_ context.Context, entry *models.TransactionEntry) error {
	if _, exists := t.state.entryIDs[entry.ID]; exists {
		return ErrDuplicate
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	t.state.entries = append(t.state.entries, *entry)
	t.state.entryIDs[entry.ID] = struct{}{}
	return nil
}
