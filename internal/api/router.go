package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/nhasan-dev/wallet-ledger/internal/api/handler"
	"github.com/nhasan-dev/wallet-ledger/internal/api/middleware"
	"github.com/nhasan-dev/wallet-ledger/internal/api/spec"
	"github.com/nhasan-dev/wallet-ledger/internal/config"
	"github.com/nhasan-dev/wallet-ledger/internal/domain"
	"github.com/nhasan-dev/wallet-ledger/internal/idempotency"
	"github.com/nhasan-dev/wallet-ledger/internal/service"
)

// Deps carries everything the router needs wired in by the app.
type Deps struct {
	Config       *config.Config
	Logger       *zap.Logger
	DB           *pgxpool.Pool // nil with the memory driver
	Redis        redis.Cmdable // nil when redis is not configured
	Idempotency  *idempotency.Store
	Auth         *service.AuthService
	Users        *service.UserService
	Wallets      *service.WalletService
	Transactions *service.TransactionService
}

// NewRouter assembles the full HTTP surface: public auth routes, the
// role-gated v1 API, and the operational endpoints.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Trace)
	r.Use(middleware.Recover(d.Logger))
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.Metrics)

	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Users)
	walletHandler := handler.NewWalletHandler(d.Wallets)
	txnHandler := handler.NewTransactionHandler(d.Transactions)
	healthHandler := handler.NewHealthHandler(d.DB, d.Redis)

	// Operational surface.
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.PublicRateLimiter(d.Config.PublicRateLimitRPS))
			r.Post("/user/register", userHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.Auth))
			r.Use(middleware.AuthRateLimiter(d.Config.AuthRateLimitRPS))

			idem := middleware.Idempotency(d.Idempotency, d.Logger)

			r.Route("/user", func(r chi.Router) {
				r.With(middleware.RequireRole(domain.RoleAdmin)).Get("/all-users", userHandler.ListUsers)
				r.With(middleware.RequireRole(domain.RoleAdmin)).Get("/{id}", userHandler.GetUser)
				r.With(middleware.RequireRole(domain.RoleAdmin)).Patch("/change-agent-status/{id}", userHandler.ChangeAgentStatus)
				r.With(middleware.RequireRole(domain.RoleAdmin)).Patch("/change-active-status/{id}", userHandler.ChangeActiveStatus)
			})

			r.Route("/wallet", func(r chi.Router) {
				r.With(middleware.RequireRole(domain.RoleHolder, domain.RoleAgent)).Get("/my-wallet", walletHandler.MyWallet)
				r.With(middleware.RequireRole(domain.RoleAdmin)).Get("/all-wallet", walletHandler.ListWallets)
				r.With(middleware.RequireRole(domain.RoleAdmin)).Patch("/update-wallet-status/{walletId}", walletHandler.UpdateWalletStatus)

				r.With(middleware.RequireRole(domain.RoleHolder), idem).Post("/add-money", walletHandler.AddMoney)
				r.With(middleware.RequireRole(domain.RoleHolder), idem).Post("/send-money/{receiverId}", walletHandler.SendMoney)
				r.With(middleware.RequireRole(domain.RoleAgent), idem).Post("/cash-in/{receiverId}", walletHandler.CashIn)
				r.With(middleware.RequireRole(domain.RoleHolder), idem).Post("/cash-out/{agentId}", walletHandler.CashOut)
				r.With(middleware.RequireRole(domain.RoleAgent), idem).Post("/withdraw-money/{userId}", walletHandler.Withdraw)
			})

			r.Route("/transaction", func(r chi.Router) {
				r.With(middleware.RequireRole(domain.RoleHolder, domain.RoleAgent)).Get("/single-user-transactions", txnHandler.MyTransactions)
				r.With(middleware.RequireRole(domain.RoleAdmin)).Get("/all-transaction", txnHandler.AllTransactions)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.RespondJSON(w, http.StatusNotFound, map[string]string{"error": "route not found"})
	})

	return r
}
