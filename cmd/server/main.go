package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"wrldrelief/internal/asset"
	"wrldrelief/internal/attestation"
	"wrldrelief/internal/campaign"
	"wrldrelief/internal/campaign/adapters"
	"wrldrelief/internal/event"
	"wrldrelief/internal/jwt"
	"wrldrelief/internal/platform/config"
	"wrldrelief/internal/platform/httpserver"
	"wrldrelief/internal/platform/logger"
	"wrldrelief/internal/platform/metrics"
	"wrldrelief/internal/platform/redis"
	"wrldrelief/internal/registry"
	httptransport "wrldrelief/internal/transport/http"
	"wrldrelief/internal/userdir"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var db *sql.DB
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		log.Info("postgres connected")
	}

	rdb, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info("redis connected")
	}

	// User directory: postgres when configured, in-memory otherwise, with an
	// optional redis read-through cache in front.
	var userStore userdir.Store
	if db != nil {
		userStore = userdir.NewPostgresStore(db)
	} else {
		userStore = userdir.NewInMemoryStore()
	}
	if rdb != nil {
		userStore = userdir.NewCachedStore(userStore, rdb.Client, cfg.DirectoryCacheTTL)
	}
	users := userdir.NewService(userStore, log)

	// Event pipeline: synchronous store plus an optional Kafka fan-out.
	eventStore := event.NewInMemoryStore()
	var pubOpts []event.Option
	pubOpts = append(pubOpts, event.WithLogger(log))

	sink, err := event.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return err
	}
	var inbox chan event.Event
	if sink != nil {
		inbox = make(chan event.Event, 256)
		pubOpts = append(pubOpts, event.WithInbox(inbox))
		defer sink.Close()
		log.Info("kafka sink enabled", "topic", cfg.KafkaTopic)
	}
	events := event.NewPublisher(eventStore, pubOpts...)

	var disasterStore registry.Store
	if db != nil {
		disasterStore = registry.NewPostgresStore(db)
	} else {
		disasterStore = registry.NewInMemoryStore()
	}
	disasters := registry.NewService(disasterStore, adapters.NewAuthorizer(users), events, log)

	attestations := attestation.NewService(attestation.NewInMemoryStore(), log)
	escrow := asset.NewLedger("USDT")
	governance := asset.NewReliefToken()

	factory := campaign.NewFactory(
		adapters.NewUserDirectory(users),
		disasters,
		campaign.Template{
			Asset:        escrow,
			Attestations: attestations,
			Governance:   governance,
		},
		events, log, m,
	)

	if cfg.AdminAddr != "" {
		if err := users.Bootstrap(ctx, cfg.AdminAddr, "platform admin"); err != nil {
			return err
		}
		log.Info("admin bootstrapped", "address", cfg.AdminAddr)
	}

	tokens := jwt.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	router := httptransport.NewRouter(
		httptransport.NewCampaignHandler(factory, log),
		httptransport.NewRegistryHandler(disasters, log),
		httptransport.NewUserHandler(users, log),
		httptransport.NewAttestationHandler(attestations, governance, log),
		tokens,
		tokens,
		m,
		log,
	)
	srv := httpserver.New(cfg.Addr, router.Handler())

	g, ctx := errgroup.WithContext(ctx)

	if sink != nil {
		worker := event.NewWorker(sink, inbox, log)
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
