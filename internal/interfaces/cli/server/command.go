package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	accessUC "github.com/veyra-hq/veyra/internal/application/access/usecases"
	authUC "github.com/veyra-hq/veyra/internal/application/auth/usecases"
	entitlementUC "github.com/veyra-hq/veyra/internal/application/entitlement/usecases"
	rbacUC "github.com/veyra-hq/veyra/internal/application/rbac/usecases"
	"github.com/veyra-hq/veyra/internal/domain/access"
	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/infrastructure/auth"
	"github.com/veyra-hq/veyra/internal/infrastructure/cache"
	"github.com/veyra-hq/veyra/internal/infrastructure/config"
	"github.com/veyra-hq/veyra/internal/infrastructure/database"
	"github.com/veyra-hq/veyra/internal/infrastructure/metrics"
	"github.com/veyra-hq/veyra/internal/infrastructure/permission"
	"github.com/veyra-hq/veyra/internal/infrastructure/persistence/migrations"
	"github.com/veyra-hq/veyra/internal/infrastructure/pubsub"
	"github.com/veyra-hq/veyra/internal/infrastructure/repository"
	accesshandlers "github.com/veyra-hq/veyra/internal/interfaces/http/handlers/access"
	adminhandlers "github.com/veyra-hq/veyra/internal/interfaces/http/handlers/admin"
	authhandlers "github.com/veyra-hq/veyra/internal/interfaces/http/handlers/auth"
	"github.com/veyra-hq/veyra/internal/interfaces/http/middleware"
	"github.com/veyra-hq/veyra/internal/interfaces/http/routes"
	"github.com/veyra-hq/veyra/internal/shared/biztime"
	"github.com/veyra-hq/veyra/internal/shared/catalog"
	"github.com/veyra-hq/veyra/internal/shared/goroutine"
	"github.com/veyra-hq/veyra/internal/shared/logger"
	"github.com/veyra-hq/veyra/internal/shared/services/markdown"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the Veyra HTTP server with the specified configuration.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run pending database migrations on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("starting server",
		"environment", env,
		"auto_migrate", autoMigrate)

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	log := logger.NewLogger()

	if autoMigrate {
		if env == "production" {
			logger.Warn("auto-migration is enabled in production")
		}
		if err := migrations.NewRunner(log).Up(database.Get()); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	pingCancel()

	// Persistence and permission stores.
	entitlementRepo := repository.NewOrgEntitlementRepository(database.Get(), log)
	delegationRepo := repository.NewDelegationRepository(database.Get(), log)
	orgRepo := repository.NewOrganizationRepository(database.Get(), log)
	userRepo := repository.NewUserRepository(database.Get(), log)

	enforcer, err := permission.NewEnforcer(database.Get(), log)
	if err != nil {
		return fmt.Errorf("failed to initialize permission enforcer: %w", err)
	}

	// Resolution pipeline.
	cat := catalog.Default()
	evaluator := entitlement.NewEvaluator(cat, entitlementRepo, log)
	permissionStore := rbac.NewStore(enforcer, delegationRepo, log)
	resolver := access.NewResolver(evaluator, permissionStore, log)

	accessMetrics := metrics.NewAccessMetrics(prometheus.DefaultRegisterer)
	snapshotTTL := time.Duration(cfg.Access.SnapshotTTLMinutes) * time.Minute
	snapshotCache := cache.NewRedisSnapshotCache(redisClient, snapshotTTL, log)
	eventBus := pubsub.NewRedisEntitlementBus(redisClient, log)

	// Changes published by the worker or another instance must evict the
	// local snapshot keys too.
	subCtx, subCancel := context.WithCancel(context.Background())
	defer subCancel()
	goroutine.SafeGo(log, "entitlement-change-subscriber", func() {
		err := eventBus.SubscribeStatusChanges(subCtx, func(event entitlement.ModuleStatusChanged) {
			if err := snapshotCache.DeleteByOrg(subCtx, event.OrgID); err != nil {
				log.Warnw("failed to invalidate snapshots", "error", err, "org_id", event.OrgID)
			}
		})
		if err != nil && subCtx.Err() == nil {
			log.Errorw("entitlement change subscription stopped", "error", err)
		}
	})

	jwtService := auth.NewJWTService(
		cfg.Auth.JWT.Secret,
		cfg.Auth.JWT.AccessExpMinutes,
		cfg.Auth.JWT.RefreshExpDays,
	)
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.Auth.Password.BcryptCost)

	// Use cases.
	loginUC := authUC.NewLoginUseCase(userRepo, passwordHasher, jwtService, log)
	refreshUC := authUC.NewRefreshUseCase(userRepo, jwtService, log)

	resolveAccessUC := accessUC.NewResolveAccessUseCase(resolver, accessMetrics, log)
	getSnapshotUC := accessUC.NewGetSnapshotUseCase(evaluator, permissionStore, snapshotCache, log)
	introspectUC := accessUC.NewIntrospectUseCase(permissionStore, log)

	provisionUC := entitlementUC.NewProvisionOrganizationUseCase(entitlementRepo, orgRepo, cat, log)
	setStatusUC := entitlementUC.NewSetModuleStatusUseCase(entitlementRepo, cat, eventBus, snapshotCache, log)
	startTrialUC := entitlementUC.NewStartTrialUseCase(entitlementRepo, cat, eventBus, snapshotCache, log)
	listEntitlementsUC := entitlementUC.NewListEntitlementsUseCase(entitlementRepo, log)

	getGrantsUC := rbacUC.NewGetRoleGrantsUseCase(enforcer, log)
	updateGrantsUC := rbacUC.NewUpdateRoleGrantsUseCase(enforcer, cat, log)
	grantDelegationUC := rbacUC.NewGrantDelegationUseCase(permissionStore, delegationRepo, userRepo, log)
	revokeDelegationUC := rbacUC.NewRevokeDelegationUseCase(delegationRepo, userRepo, log)
	listDelegationsUC := rbacUC.NewListDelegationsUseCase(delegationRepo, log)

	// HTTP surface.
	authMiddleware := middleware.NewAuthMiddleware(jwtService, log)
	accessMiddleware := middleware.NewAccessMiddleware(resolveAccessUC, cat, markdown.NewMarkdownService(), log)

	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(log))
	engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	engine.Use(middleware.SecurityHeaders())
	engine.Use(middleware.ErrorHandler())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	routes.SetupAuthRoutes(engine, &routes.AuthRouteConfig{
		AuthHandler: authhandlers.NewHandler(loginUC, refreshUC, cfg.Auth, log),
	})
	routes.SetupAccessRoutes(engine, &routes.AccessRouteConfig{
		AccessHandler:  accesshandlers.NewHandler(getSnapshotUC, introspectUC, log),
		AuthMiddleware: authMiddleware,
	})
	routes.SetupAdminRoutes(engine, &routes.AdminRouteConfig{
		EntitlementHandler: adminhandlers.NewEntitlementHandler(provisionUC, setStatusUC, startTrialUC, listEntitlementsUC, log),
		RoleHandler:        adminhandlers.NewRoleHandler(getGrantsUC, updateGrantsUC, log),
		DelegationHandler:  adminhandlers.NewDelegationHandler(grantDelegationUC, revokeDelegationUC, listDelegationsUC, log),
		AuthMiddleware:     authMiddleware,
		AccessMiddleware:   accessMiddleware,
	})

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			"address", cfg.Server.GetAddr(),
			"mode", cfg.Server.Mode)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	subCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}

	logger.Info("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
