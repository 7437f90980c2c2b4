package main

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/resumekit/modules/billing"
	"github.com/dmitrymomot/resumekit/modules/resumes"
	"github.com/dmitrymomot/resumekit/pkg/auth"
	"github.com/dmitrymomot/resumekit/pkg/config"
	"github.com/dmitrymomot/resumekit/pkg/httpserver"
	"github.com/dmitrymomot/resumekit/pkg/logger"
	"github.com/dmitrymomot/resumekit/pkg/pg"
	"github.com/dmitrymomot/resumekit/pkg/redis"
	"github.com/dmitrymomot/resumekit/pkg/subscription"
)

type appConfig struct {
	Log    logger.Config
	HTTP   httpserver.Config
	DB     pg.Config
	Redis  redis.Config
	Stripe subscription.StripeConfig
	Prices subscription.PriceIDs
	Subs   subscription.Config

	DebugEndpoints bool `env:"DEBUG_ENDPOINTS" envDefault:"false"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Log)
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, cfg.DB)
	if err != nil {
		log.Error("failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.DB, log); err != nil {
		log.Error("failed to apply migrations", logger.Error(err))
		os.Exit(1)
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}
	defer redisClient.Close()

	gateway, err := subscription.NewStripeGateway(cfg.Stripe)
	if err != nil {
		log.Error("failed to initialize billing gateway", logger.Error(err))
		os.Exit(1)
	}

	planStore := subscription.NewPostgresStore(pool)
	// TODO: replace with the Clerk-backed IdentityStore once the identity
	// service exposes customer metadata writes.
	identity := subscription.NewMemoryIdentityStore()

	resolver := subscription.NewResolver(planStore, cfg.Prices, log)
	reconciler := subscription.NewReconciler(planStore, gateway, identity, cfg.Prices, log)
	subsService := subscription.NewService(cfg.Subs, planStore, gateway, identity, resolver, cfg.Prices, log)

	resumeStore := resumes.NewPostgresStore(pool)
	counter := resumes.NewCounter(resumeStore, resumes.NewRedisCountCache(redisClient), log)
	resumesService := resumes.NewService(resumeStore, counter, subsService, log)

	var billingOpts []billing.ModuleOption
	if cfg.DebugEndpoints {
		billingOpts = append(billingOpts, billing.WithDebugEndpoints())
	}
	billingModule := billing.NewModule(subsService, reconciler, gateway, log, billingOpts...)
	resumesModule := resumes.NewModule(resumesService, log)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware)

	r.Get("/health", healthHandler(
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))
	r.Mount("/billing", billingModule.Handle())
	r.Mount("/resumes", resumesModule.Handle())

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil {
		log.Error("http server failed", logger.Error(err))
		os.Exit(1)
	}
}

// healthHandler reports 200 only when every dependency check passes.
func healthHandler(checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
