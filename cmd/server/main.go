// main wires the raffle service: stores (PostgreSQL or in-memory), the HTTP
// transport, the sweep supervisor that enforces window expiry and
// confirmation timeouts, and the audit outbox relay. Business logic lives in
// the internal packages.
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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"tombola/internal/audit"
	"tombola/internal/live"
	"tombola/internal/platform/config"
	"tombola/internal/platform/httpserver"
	"tombola/internal/platform/logger"
	platformredis "tombola/internal/platform/redis"
	"tombola/internal/raffle/handler"
	"tombola/internal/raffle/metrics"
	"tombola/internal/raffle/service"
	"tombola/internal/raffle/store"
	drawStore "tombola/internal/raffle/store/draw"
	participantStore "tombola/internal/raffle/store/participant"
	raffleStore "tombola/internal/raffle/store/raffle"
	"tombola/internal/schedule"
)

func main() {
	cfg := config.Load()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		raffles      service.RaffleStore
		participants service.ParticipantStore
		draws        service.DrawStore
		txRunner     service.TxRunner
		auditStore   audit.Store
		relay        *audit.Relay
	)

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		if err := store.EnsureSchema(ctx, db); err != nil {
			return err
		}

		raffles = raffleStore.NewPostgres(db)
		participants = participantStore.NewPostgres(db)
		draws = drawStore.NewPostgres(db)
		txRunner = store.NewSQLTx(db)

		outbox := audit.NewPostgresStore(db, cfg.AuditTopic)
		auditStore = outbox
		if len(cfg.KafkaBrokers) > 0 {
			relay, err = audit.NewRelay(ctx, outbox, cfg.KafkaBrokers, cfg.AuditTopic, log)
			if err != nil {
				return err
			}
		}
		log.Info("using postgresql store")
	} else {
		raffles = raffleStore.NewInMemory()
		participants = participantStore.NewInMemory()
		draws = drawStore.NewInMemory()
		txRunner = store.NewMemoryTx()
		auditStore = audit.NewInMemoryStore()
		log.Info("using in-memory store; state is lost on restart")
	}

	var counter service.LiveCounter
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		counter = live.NewRedisCounter(redisClient.Client)
		log.Info("live participant counter backed by redis")
	} else {
		counter = live.NewMemoryCounter()
	}

	m := metrics.New()
	svc := service.New(raffles, participants, draws, txRunner,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(audit.NewPublisher(auditStore)),
		service.WithLiveCounter(counter),
	)

	h := handler.New(svc, log, m)
	router := httpserver.NewRouter(h)
	srv := httpserver.New(cfg.Addr, router)

	supervisor := schedule.New(svc,
		schedule.WithLogger(log),
		schedule.WithMetrics(m),
		schedule.WithInterval(cfg.SweepInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := supervisor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if relay != nil {
		g.Go(func() error {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
