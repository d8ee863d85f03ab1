package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhasan-dev/wallet-ledger/internal/api"
	"github.com/nhasan-dev/wallet-ledger/internal/config"
	"github.com/nhasan-dev/wallet-ledger/internal/domain"
	"github.com/nhasan-dev/wallet-ledger/internal/idempotency"
	"github.com/nhasan-dev/wallet-ledger/internal/models"
	"github.com/nhasan-dev/wallet-ledger/internal/repository"
	"github.com/nhasan-dev/wallet-ledger/internal/service"
)

const (
	testJWTSecret   = "test-secret-0123456789-test-secret"
	testJWTIssuer   = "wallet-ledger-test"
	testJWTAudience = "wallet-api-test"
	testPassword    = "correct horse"
)

type apiEnv struct {
	router http.Handler
	store  repository.Store
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()

	store := repository.NewMemory()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		HTTPPort:           "0",
		StorageDriver:      "memory",
		JWTSecret:          testJWTSecret,
		JWTIssuer:          testJWTIssuer,
		JWTAudience:        testJWTAudience,
		JWTTTL:             time.Hour,
		BcryptCost:         bcrypt.MinCost,
		FeeRate:            decimal.RequireFromString("0.0185"),
		OpeningBalance:     decimal.NewFromInt(50),
		PublicRateLimitRPS: 1000,
		AuthRateLimitRPS:   1000,
		IdempotencyTTL:     time.Hour,
	}

	authSvc := service.NewAuthService(store, []byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	router := api.NewRouter(api.Deps{
		Config:       cfg,
		Logger:       zap.NewNop(),
		Redis:        rdb,
		Idempotency:  idempotency.NewStore(rdb, cfg.IdempotencyTTL),
		Auth:         authSvc,
		Users:        service.NewUserService(store, cfg.OpeningBalance, cfg.BcryptCost),
		Wallets:      service.NewWalletService(store, cfg.FeeRate),
		Transactions: service.NewTransactionService(store),
	})
	return &apiEnv{router: router, store: store}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// register creates an account over HTTP and logs it in.
func (e *apiEnv) register(t *testing.T, name string, role domain.Role) (uuid.UUID, string) {
	t.Helper()
	w := e.do(t, "POST", "/api/v1/user/register", "", map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"phone":    "+880" + name,
		"password": testPassword,
		"role":     string(role),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	return user.ID, e.login(t, name+"@example.com")
}

func (e *apiEnv) login(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// seedAdmin writes an admin account straight into the store; admins are not
// self-registered.
func (e *apiEnv) seedAdmin(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &models.User{
		ID:           uuid.New(),
		Name:         "root",
		Email:        "root@example.com",
		Phone:        "+8800000000000",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		ActiveStatus: domain.UserActive,
		AgentStatus:  domain.AgentNotAgent,
	}
	require.NoError(t, e.store.RunInTx(context.Background(), func(tx repository.Tx) error {
		return tx.CreateUser(context.Background(), admin)
	}))
	return e.login(t, admin.Email)
}

// approveAgent registers an agent and flips it to APPROVED through the admin
// endpoint.
func (e *apiEnv) approveAgent(t *testing.T, name, adminToken string) (uuid.UUID, string) {
	t.Helper()
	id, token := e.register(t, name, domain.RoleAgent)
	w := e.do(t, "PATCH", "/api/v1/user/change-agent-status/"+id.String(), adminToken,
		map[string]string{"status": "APPROVED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return id, token
}

func (e *apiEnv) walletBalance(t *testing.T, token string) decimal.Decimal {
	t.Helper()
	w := e.do(t, "GET", "/api/v1/wallet/my-wallet", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var wallet models.Wallet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wallet))
	return wallet.Balance
}

func TestRFC7807ProblemDetails(t *testing.T) {
	e := setupAPI(t)

	w := e.do(t, "GET", "/api/v1/wallet/my-wallet", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["type"])
	assert.Equal(t, float64(http.StatusUnauthorized), body["status"])
	assert.NotEmpty(t, body["detail"])
	assert.Equal(t, "/api/v1/wallet/my-wallet", body["instance"])
	assert.NotEmpty(t, body["request_id"])
}

func TestRegisterOpensWalletOverHTTP(t *testing.T) {
	e := setupAPI(t)
	_, token := e.register(t, "amina", domain.RoleHolder)

	balance := e.walletBalance(t, token)
	assert.True(t, decimal.NewFromInt(50).Equal(balance), "got %s", balance)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := setupAPI(t)
	e.register(t, "amina", domain.RoleHolder)

	w := e.do(t, "POST", "/api/v1/user/register", "", map[string]string{
		"name":     "imposter",
		"email":    "amina@example.com",
		"phone":    "+880999",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	e := setupAPI(t)
	e.register(t, "amina", domain.RoleHolder)

	w := e.do(t, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    "amina@example.com",
		"password": "nope",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSendMoneyEndToEnd(t *testing.T) {
	e := setupAPI(t)
	_, senderToken := e.register(t, "amina", domain.RoleHolder)
	receiverID, receiverToken := e.register(t, "badal", domain.RoleHolder)

	w := e.do(t, "POST", "/api/v1/wallet/add-money", senderToken,
		map[string]string{"amount": "200"}, "Idempotency-Key", uuid.NewString())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, "POST", "/api/v1/wallet/send-money/"+receiverID.String(), senderToken,
		map[string]string{"amount": "75.50"}, "Idempotency-Key", uuid.NewString())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var entry models.TransactionEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, domain.EntrySendMoney, entry.Type)

	assert.True(t, decimal.RequireFromString("174.5").Equal(e.walletBalance(t, senderToken)))
	assert.True(t, decimal.RequireFromString("125.5").Equal(e.walletBalance(t, receiverToken)))
}

func TestSendMoneyInsufficientReturns400(t *testing.T) {
	e := setupAPI(t)
	_, senderToken := e.register(t, "amina", domain.RoleHolder)
	receiverID, _ := e.register(t, "badal", domain.RoleHolder)

	w := e.do(t, "POST", "/api/v1/wallet/send-money/"+receiverID.String(), senderToken,
		map[string]string{"amount": "1000"}, "Idempotency-Key", uuid.NewString())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMoneyUnknownReceiverReturns404(t *testing.T) {
	e := setupAPI(t)
	_, senderToken := e.register(t, "amina", domain.RoleHolder)

	w := e.do(t, "POST", "/api/v1/wallet/send-money/"+uuid.NewString(), senderToken,
		map[string]string{"amount": "10"}, "Idempotency-Key", uuid.NewString())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCashOutThroughAgent(t *testing.T) {
	e := setupAPI(t)
	adminToken := e.seedAdmin(t)
	_, holderToken := e.register(t, "amina", domain.RoleHolder)
	agentID, agentToken := e.approveAgent(t, "bashir", adminToken)

	w := e.do(t, "POST", "/api/v1/wallet/add-money", holderToken,
		map[string]string{"amount": "150"}, "Idempotency-Key", uuid.NewString())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, "POST", "/api/v1/wallet/cash-out/"+agentID.String(), holderToken,
		map[string]string{"amount": "100"}, "Idempotency-Key", uuid.NewString())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var entry models.TransactionEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.True(t, decimal.RequireFromString("1.85").Equal(entry.Fee))

	assert.True(t, decimal.RequireFromString("98.15").Equal(e.walletBalance(t, holderToken)))
	assert.True(t, decimal.RequireFromString("151.85").Equal(e.walletBalance(t, agentToken)))
}

func TestRoleGates(t *testing.T) {
	e := setupAPI(t)
	adminToken := e.seedAdmin(t)
	holderID, holderToken := e.register(t, "amina", domain.RoleHolder)
	_, agentToken := e.approveAgent(t, "bashir", adminToken)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
	}{
		{"holder lists users", "GET", "/api/v1/user/all-users", holderToken, nil},
		{"agent lists wallets", "GET", "/api/v1/wallet/all-wallet", agentToken, nil},
		{"agent adds money", "POST", "/api/v1/wallet/add-money", agentToken, map[string]string{"amount": "10"}},
		{"holder cashes in", "POST", "/api/v1/wallet/cash-in/" + holderID.String(), holderToken, map[string]string{"amount": "10"}},
		{"agent views full ledger", "GET", "/api/v1/transaction/all-transaction", agentToken, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(t, tc.method, tc.path, tc.token, tc.body, "Idempotency-Key", uuid.NewString())
			assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
		})
	}
}

func TestIdempotencyReplay(t *testing.T) {
	e := setupAPI(t)
	_, token := e.register(t, "amina", domain.RoleHolder)
	key := uuid.NewString()

	first := e.do(t, "POST", "/api/v1/wallet/add-money", token,
		map[string]string{"amount": "25"}, "Idempotency-Key", key)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := e.do(t, "POST", "/api/v1/wallet/add-money", token,
		map[string]string{"amount": "25"}, "Idempotency-Key", key)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotent-Replay"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	// The deposit applied once.
	assert.True(t, decimal.NewFromInt(75).Equal(e.walletBalance(t, token)))

	t.Run("key reuse with different body", func(t *testing.T) {
		w := e.do(t, "POST", "/api/v1/wallet/add-money", token,
			map[string]string{"amount": "99"}, "Idempotency-Key", key)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
	t.Run("missing key", func(t *testing.T) {
		w := e.do(t, "POST", "/api/v1/wallet/add-money", token, map[string]string{"amount": "25"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminWalletStatusFlow(t *testing.T) {
	e := setupAPI(t)
	adminToken := e.seedAdmin(t)
	_, holderToken := e.register(t, "amina", domain.RoleHolder)

	w := e.do(t, "GET", "/api/v1/wallet/my-wallet", holderToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var wallet models.Wallet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wallet))

	w = e.do(t, "PATCH", "/api/v1/wallet/update-wallet-status/"+wallet.ID.String(), adminToken,
		map[string]string{"status": "BLOCKED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Blocked wallet rejects deposits.
	w = e.do(t, "POST", "/api/v1/wallet/add-money", holderToken,
		map[string]string{"amount": "10"}, "Idempotency-Key", uuid.NewString())
	assert.Equal(t, http.StatusConflict, w.Code)

	// Blocking twice is a state conflict.
	w = e.do(t, "PATCH", "/api/v1/wallet/update-wallet-status/"+wallet.ID.String(), adminToken,
		map[string]string{"status": "BLOCKED"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, "PATCH", "/api/v1/wallet/update-wallet-status/"+wallet.ID.String(), adminToken,
		map[string]string{"status": "UNBLOCKED"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTransactionListings(t *testing.T) {
	e := setupAPI(t)
	adminToken := e.seedAdmin(t)
	receiverID, receiverToken := e.register(t, "badal", domain.RoleHolder)
	_, senderToken := e.register(t, "amina", domain.RoleHolder)

	w := e.do(t, "POST", "/api/v1/wallet/send-money/"+receiverID.String(), senderToken,
		map[string]string{"amount": "20"}, "Idempotency-Key", uuid.NewString())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, "GET", "/api/v1/transaction/single-user-transactions", receiverToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Data  []models.TransactionEntry `json:"data"`
		Total int                       `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, 2, listing.Total)

	w = e.do(t, "GET", "/api/v1/transaction/all-transaction?page=1&page_size=1", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, 2, listing.Total)
	assert.Len(t, listing.Data, 1)
}

func TestUserListingAndLookup(t *testing.T) {
	e := setupAPI(t)
	adminToken := e.seedAdmin(t)
	holderID, _ := e.register(t, "amina", domain.RoleHolder)
	e.register(t, "badal", domain.RoleHolder)

	w := e.do(t, "GET", "/api/v1/user/all-users?search=amina", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Data  []models.User `json:"data"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, 1, listing.Total)

	w = e.do(t, "GET", "/api/v1/user/"+holderID.String(), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, "GET", "/api/v1/user/"+uuid.NewString(), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	e := setupAPI(t)

	w := e.do(t, "GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, "GET", "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, "GET", "/openapi.yaml", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Wallet Ledger API")
}
