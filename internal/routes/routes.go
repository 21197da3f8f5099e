package routes

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ronaldoarch/postenobicho-sub001/internal/betting"
	"github.com/ronaldoarch/postenobicho-sub001/internal/bonus"
	"github.com/ronaldoarch/postenobicho-sub001/internal/config"
	"github.com/ronaldoarch/postenobicho-sub001/internal/credit"
	"github.com/ronaldoarch/postenobicho-sub001/internal/deposit"
	"github.com/ronaldoarch/postenobicho-sub001/internal/identity"
	"github.com/ronaldoarch/postenobicho-sub001/internal/middleware"
	"github.com/ronaldoarch/postenobicho-sub001/internal/notification"
	"github.com/ronaldoarch/postenobicho-sub001/internal/payout"
	"github.com/ronaldoarch/postenobicho-sub001/internal/quotation"
	"github.com/ronaldoarch/postenobicho-sub001/internal/store"
	"github.com/ronaldoarch/postenobicho-sub001/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// may be nil in development; Store, Identity and Quotes are required.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Logger    zerolog.Logger
	Store     store.Store
	Identity  identity.Repository
	Quotes    *quotation.Resolver
	Corrector *payout.Corrector
	Notifier  notification.Notifier
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Store == nil || d.Identity == nil || d.Quotes == nil {
		return errors.New("routes: store, identity and quotes are required")
	}
	if d.Notifier == nil {
		d.Notifier = notification.NewLoggerNotifier(d.Logger)
	}
	if d.Corrector == nil {
		d.Corrector = payout.NewCorrector(d.Store.Wagers(), d.Quotes, d.Logger,
			payout.WithTolerance(d.Cfg.Payout.Tolerance),
			payout.WithBatchSize(d.Cfg.Payout.BatchSize))
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID(d.Logger))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	identitySvc := identity.NewService(d.Identity)
	policy := bonus.Policy{
		FirstDepositPercent: d.Cfg.Bonus.FirstDepositPercent,
		FirstDepositCap:     d.Cfg.Bonus.FirstDepositCap,
		RolloverMultiplier:  d.Cfg.Bonus.RolloverMultiplier,
	}
	depositSvc := deposit.NewService(d.Store, identitySvc, policy, d.Notifier, d.Logger)
	creditSvc := credit.NewService(d.Store, d.Notifier, d.Logger)
	walletSvc := wallet.NewService(d.Store, d.Notifier, d.Logger)
	bettingSvc := betting.NewService(d.Store, d.Quotes, d.Notifier, d.Logger,
		betting.WithAutoRelease(d.Cfg.Bonus.AutoRelease))

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterDepositRoutes(api, deposit.NewHandler(depositSvc), middleware.RateLimit(d.Cache, "webhook", d.Cfg.WebhookRateLimit))
	RegisterQuotationRoutes(api, quotation.NewHandler(d.Quotes))
	accountAuth := middleware.AccountAuth(d.Cfg.AccountTokenSecret, d.Logger)
	RegisterWalletRoutes(api, wallet.NewHandler(walletSvc), accountAuth)
	RegisterWagerRoutes(api, betting.NewHandler(bettingSvc), accountAuth)

	admin := api.Group("/admin",
		middleware.AdminKey(d.Cfg.AdminKeyHash, d.Logger),
		middleware.Idempotency(d.Cache, middleware.IdempotencyOptions{TTL: d.Cfg.IdempotencyTTL}, d.Logger),
	)
	RegisterAdminRoutes(admin, AdminHandlers{
		Credits:    credit.NewHandler(creditSvc),
		Wagers:     betting.NewHandler(bettingSvc),
		Payouts:    payout.NewHandler(d.Corrector),
		Quotations: quotation.NewHandler(d.Quotes),
	})
	RegisterIdentityRoutes(admin, identity.NewHandler(identitySvc))

	return nil
}
