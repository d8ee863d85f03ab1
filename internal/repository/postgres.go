package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nhasan-dev/wallet-ledger/internal/domain"
	"github.com/nhasan-dev/wallet-ledger/internal/models"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RunInTx executes fn within a database transaction.
func (s *Postgres) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Postgres) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return getUser(ctx, s.db, `WHERE id = $1`, id)
}

func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return getUser(ctx, s.db, `WHERE email = $1`, email)
}

func (s *Postgres) GetWalletByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return getWallet(ctx, s.db, `WHERE user_id = $1`, userID)
}

func (s *Postgres) GetWalletByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	return getWallet(ctx, s.db, `WHERE id = $1`, walletID)
}

var userSortColumns = map[string]string{
	"created_at": "created_at",
	"name":       "name",
	"email":      "email",
	"role":       "role",
}

func (s *Postgres) ListUsers(ctx context.Context, params ListParams) ([]models.User, int, error) {
	params = params.Normalize()

	where := `WHERE deleted = FALSE`
	args := []any{}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where += ` AND (name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1)`
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, email, phone, address, password_hash, role, active_status, agent_status, deleted, created_at
		FROM users %s ORDER BY %s LIMIT %d OFFSET %d`,
		where, orderBy(userSortColumns, params, "created_at DESC"), params.PageSize, params.Offset())

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

var walletSortColumns = map[string]string{
	"created_at": "created_at",
	"balance":    "balance",
	"status":     "status",
}

func (s *Postgres) ListWallets(ctx context.Context, params ListParams) ([]models.Wallet, int, error) {
	params = params.Normalize()

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM wallets`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wallets: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, balance, status, created_at, updated_at
		FROM wallets ORDER BY %s LIMIT %d OFFSET %d`,
		orderBy(walletSortColumns, params, "created_at DESC"), params.PageSize, params.Offset())

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []models.Wallet
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Balance, &w.Status, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, total, rows.Err()
}

const entryColumns = `id, transaction_id, wallet_id, initiated_by, received_by, amount, fee, commission, type, created_at`

func (s *Postgres) ListEntriesForUser(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.TransactionEntry, int, error) {
	params = params.Normalize()

	var total int
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE initiated_by = $1 OR received_by = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE initiated_by = $1 OR received_by = $1
		ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		entryColumns, params.PageSize, params.Offset())

	return s.queryEntries(ctx, total, query, userID)
}

func (s *Postgres) ListEntries(ctx context.Context, params ListParams) ([]models.TransactionEntry, int, error) {
	params = params.Normalize()

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		entryColumns, params.PageSize, params.Offset())

	return s.queryEntries(ctx, total, query)
}

func (s *Postgres) queryEntries(ctx context.Context, total int, query string, args ...any) ([]models.TransactionEntry, int, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var entries []models.TransactionEntry
	for rows.Next() {
		var e models.TransactionEntry
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.WalletID, &e.InitiatedBy, &e.ReceivedBy,
			&e.Amount, &e.Fee, &e.Commission, &e.Type, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// pgTx implements Tx over an open pgx transaction.
type pgTx struct {
	q querier
}

func (t *pgTx) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, address, password_hash, role, active_status, agent_status, deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING created_at`
	err := t.q.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.Phone, user.Address, user.PasswordHash,
		user.Role, user.ActiveStatus, user.AgentStatus, user.Deleted).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", mapPgError(err))
	}
	return nil
}

func (t *pgTx) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	query := `
		INSERT INTO wallets (id, user_id, balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := t.q.QueryRow(ctx, query,
		wallet.ID, wallet.UserID, wallet.Balance, wallet.Status).Scan(&wallet.CreatedAt, &wallet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create wallet: %w", mapPgError(err))
	}
	return nil
}

func (t *pgTx) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return getUser(ctx, t.q, `WHERE id = $1`, id)
}

func (t *pgTx) GetWalletForUpdate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return getWallet(ctx, t.q, `WHERE user_id = $1 FOR UPDATE`, userID)
}

func (t *pgTx) GetWalletByIDForUpdate(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	return getWallet(ctx, t.q, `WHERE id = $1 FOR UPDATE`, walletID)
}

func (t *pgTx) AddToBalance(ctx context.Context, walletID uuid.UUID, delta decimal.Decimal) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE id = $2`, delta, walletID)
	if err != nil {
		return fmt.Errorf("update balance: %w", mapPgError(err))
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("update balance: %w", ErrNotFound)
	}
	return nil
}

func (t *pgTx) SetWalletStatus(ctx context.Context, walletID uuid.UUID, status domain.WalletStatus) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE wallets SET status = $1, updated_at = NOW() WHERE id = $2`, status, walletID)
	if err != nil {
		return fmt.Errorf("update wallet status: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("update wallet status: %w", ErrNotFound)
	}
	return nil
}

func (t *pgTx) SetAgentStatus(ctx context.Context, userID uuid.UUID, status domain.AgentStatus) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE users SET agent_status = $1 WHERE id = $2`, status, userID)
	if err != nil {
		return fmt.Errorf("update agent status: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("update agent status: %w", ErrNotFound)
	}
	return nil
}

func (t *pgTx) SetActiveStatus(ctx context.Context, userID uuid.UUID, status domain.ActiveStatus) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE users SET active_status = $1 WHERE id = $2`, status, userID)
	if err != nil {
		return fmt.Errorf("update active status: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("update active status: %w", ErrNotFound)
	}
	return nil
}

func (t *pgTx) InsertEntry(ctx context.Context, entry *models.TransactionEntry) error {
	query := `
		INSERT INTO transactions (id, transaction_id, wallet_id, initiated_by, received_by, amount, fee, commission, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at`
	err := t.q.QueryRow(ctx, query,
		entry.ID, entry.TransactionID, entry.WalletID, entry.InitiatedBy, entry.ReceivedBy,
		entry.Amount, entry.Fee, entry.Commission, entry.Type).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", mapPgError(err))
	}
	return nil
}

func getUser(ctx context.Context, q querier, where string, arg any) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, name, email, phone, address, password_hash, role, active_status, agent_status, deleted, created_at
		FROM users ` + where
	if err := scanUser(q.QueryRow(ctx, query, arg), user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func getWallet(ctx context.Context, q querier, where string, arg any) (*models.Wallet, error) {
	wallet := &models.Wallet{}
	query := `SELECT id, user_id, balance, status, created_at, updated_at FROM wallets ` + where
	err := q.QueryRow(ctx, query, arg).Scan(
		&wallet.ID, &wallet.UserID, &wallet.Balance, &wallet.Status, &wallet.CreatedAt, &wallet.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return wallet, nil
}

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.PasswordHash,
		&u.Role, &u.ActiveStatus, &u.AgentStatus, &u.Deleted, &u.CreatedAt)
}

func orderBy(allowed map[string]string, params ListParams, fallback string) string {
	col, ok := allowed[strings.ToLower(params.SortBy)]
	if !ok {
		return fallback
	}
	if params.SortDesc {
		return col + " DESC"
	}
	return col + " ASC"
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return ErrDuplicate
	}
	return err
}
