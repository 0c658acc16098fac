// Command server runs the custos governance gateway. main wires
// dependencies and lifecycle; business logic lives in internal packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"custos/internal/escalation"
	escalationhandler "custos/internal/escalation/handler"
	escalationmetrics "custos/internal/escalation/metrics"
	"custos/internal/forecast"
	forecasthandler "custos/internal/forecast/handler"
	"custos/internal/governance"
	governancehandler "custos/internal/governance/handler"
	"custos/internal/jwttoken"
	"custos/internal/marketing"
	marketinghandler "custos/internal/marketing/handler"
	"custos/internal/operations"
	operationshandler "custos/internal/operations/handler"
	"custos/internal/platform/config"
	"custos/internal/platform/httpserver"
	"custos/internal/platform/kafka"
	"custos/internal/platform/logger"
	"custos/internal/platform/postgres"
	redisplatform "custos/internal/platform/redis"
	"custos/internal/policy"
	httptransport "custos/internal/transport/http"
	"custos/pkg/platform/audit"
	"custos/pkg/platform/audit/consumer"
	"custos/pkg/platform/audit/outbox"
	memorystore "custos/pkg/platform/audit/store/memory"
	pgstore "custos/pkg/platform/audit/store/postgres"
	"custos/pkg/platform/audit/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Policies: operator file overlays the built-in tables.
	policies := policy.Default()
	if cfg.PolicyFile != "" {
		policies, err = policy.Load(cfg.PolicyFile)
		if err != nil {
			log.Error("policy file rejected", "path", cfg.PolicyFile, "error", err)
			os.Exit(1)
		}
	}

	// Audit store: Postgres outbox when configured, memory otherwise.
	var auditStore audit.Store = memorystore.NewInMemoryStore()
	var outboxStore *pgstore.Store
	db, err := postgres.Open(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		outboxStore = pgstore.New(db)
		auditStore = outboxStore
		log.Info("audit trail on postgres outbox")
	}
	auditor := audit.NewPublisher(auditStore, audit.WithLogger(log))

	// Escalation queue: Redis when configured, memory otherwise.
	var queue escalation.QueueStore = escalation.NewInMemoryQueue()
	redisClient, err := redisplatform.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		queue = escalation.NewRedisQueue(redisClient)
		log.Info("escalation queue on redis")
	}

	escalationSvc, err := escalation.NewService(
		(map[string]*escalation.Evaluator)(policies), queue, auditor,
		escalationmetrics.New(), log, cfg.AgentID,
	)
	if err != nil {
		log.Error("escalation service init failed", "error", err)
		os.Exit(1)
	}

	operationsSvc, err := operations.NewService(escalationSvc, auditor, log, cfg.AgentID, nil, nil)
	if err != nil {
		log.Error("operations service init failed", "error", err)
		os.Exit(1)
	}
	forecastSvc, err := forecast.NewService(escalationSvc, auditor, nil, log, cfg.AgentID)
	if err != nil {
		log.Error("forecast service init failed", "error", err)
		os.Exit(1)
	}
	marketingSvc, err := marketing.NewService(escalationSvc, auditor, log, cfg.AgentID)
	if err != nil {
		log.Error("marketing service init failed", "error", err)
		os.Exit(1)
	}
	governanceSvc, err := governance.NewService(escalationSvc, auditor, log, cfg.AgentID)
	if err != nil {
		log.Error("governance service init failed", "error", err)
		os.Exit(1)
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "custos", "custos-reviewers")
	security := make(chan audit.Event, 256)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:     log,
		Tokens:     tokens,
		AgentID:    cfg.AgentID,
		Security:   security,
		Escalation: escalationhandler.New(escalationSvc, log),
		Operations: operationshandler.New(operationsSvc, log),
		Forecast:   forecasthandler.New(forecastSvc, log),
		Marketing:  marketinghandler.New(marketingSvc, log),
		Governance: governancehandler.New(governanceSvc, log),
	})
	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting custos gateway", "addr", cfg.Addr, "policies", policies.Names())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Security events persist off the request path.
	auditWorker := worker.NewWorker(auditStore, security)
	group.Go(func() error {
		err := auditWorker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// Audit pipeline: outbox relay to Kafka plus the materializing consumer.
	// Both need Postgres and brokers. The trail is readable from Postgres
	// either way; the pipeline only propagates it downstream.
	if outboxStore != nil && len(cfg.Kafka.Brokers) > 0 {
		topics := outbox.DefaultTopics(cfg.Kafka.TopicPrefix)
		if err := kafka.EnsureTopics(ctx, cfg.Kafka.Brokers, topics.Names()); err != nil {
			log.Error("kafka topic setup failed", "error", err)
			os.Exit(1)
		}

		producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Error("kafka producer init failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		relay := outbox.NewRelay(outboxStore, producer, topics, log)
		group.Go(func() error {
			err := relay.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})

		kafkaConsumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, topics.Names(), log)
		if err != nil {
			log.Error("kafka consumer init failed", "error", err)
			os.Exit(1)
		}
		defer kafkaConsumer.Close()

		materializer := consumer.NewMaterializer(outboxStore, log)
		group.Go(func() error {
			err := kafkaConsumer.Run(ctx, kafka.HandlerFunc(func(ctx context.Context, topic string, key, value []byte) error {
				return materializer.Handle(ctx, consumer.Message{Topic: topic, Key: key, Value: value})
			}))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		group.Go(func() error {
			<-ctx.Done()
			kafkaConsumer.Close()
			return nil
		})
		log.Info("audit pipeline running", "topics", topics.Names())
	}

	if err := group.Wait(); err != nil {
		log.Error("gateway stopped", "error", err)
		os.Exit(1)
	}
	log.Info("gateway stopped")
}
