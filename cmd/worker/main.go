package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veyra-hq/veyra/internal/application/entitlement/usecases"
	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/infrastructure/cache"
	"github.com/veyra-hq/veyra/internal/infrastructure/config"
	"github.com/veyra-hq/veyra/internal/infrastructure/database"
	"github.com/veyra-hq/veyra/internal/infrastructure/email"
	"github.com/veyra-hq/veyra/internal/infrastructure/pubsub"
	"github.com/veyra-hq/veyra/internal/infrastructure/repository"
	"github.com/veyra-hq/veyra/internal/infrastructure/scheduler"
	"github.com/veyra-hq/veyra/internal/shared/biztime"
	"github.com/veyra-hq/veyra/internal/shared/catalog"
	"github.com/veyra-hq/veyra/internal/shared/goroutine"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger()
	log.Infow("starting trial reconciliation worker", "environment", env)

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		log.Fatalw("failed to initialize business timezone", "error", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	entitlementRepo := repository.NewOrgEntitlementRepository(database.Get(), log)
	userRepo := repository.NewUserRepository(database.Get(), log)
	cat := catalog.Default()

	snapshotTTL := time.Duration(cfg.Access.SnapshotTTLMinutes) * time.Minute
	snapshotCache := cache.NewRedisSnapshotCache(redisClient, snapshotTTL, log)
	eventBus := pubsub.NewRedisEntitlementBus(redisClient, log)

	notifier := email.NewSMTPTrialNotifier(email.SMTPConfig{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		Username:    cfg.Email.Username,
		Password:    cfg.Email.Password,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		BaseURL:     cfg.Server.BaseURL,
	}, userRepo, cat, log)

	expireTrials := usecases.NewExpireTrialsUseCase(entitlementRepo, eventBus, snapshotCache, notifier, log)

	manager, err := scheduler.NewManager(log)
	if err != nil {
		log.Fatalw("failed to create scheduler", "error", err)
	}

	interval := time.Duration(cfg.Access.ReconcileIntervalMinutes) * time.Minute
	if err := manager.RegisterTrialReconciliation(expireTrials, interval); err != nil {
		log.Fatalw("failed to register trial reconciliation job", "error", err)
	}

	// Status changes made by the server must also evict snapshots built by
	// this process's redis keyspace.
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

	manager.Start()
	log.Infow("trial reconciliation worker started", "interval", interval.String())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Infow("received signal, shutting down", "signal", sig.String())

	subCancel()

	done := make(chan struct{})
	goroutine.SafeGo(log, "scheduler-shutdown", func() {
		if err := manager.Shutdown(); err != nil {
			log.Errorw("scheduler shutdown failed", "error", err)
		}
		close(done)
	})

	grace := time.Duration(cfg.Worker.ShutdownGraceSeconds) * time.Second
	select {
	case <-done:
		log.Infow("trial reconciliation worker stopped")
	case <-time.After(grace):
		log.Warnw("shutdown grace period elapsed, exiting", "grace", grace.String())
	}
}
