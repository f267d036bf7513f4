// CRM Automation Worker — обработчик событий автоматизации.
//
// Worker:
//   - потребляет события task.completed из RabbitMQ
//   - создаёт зависимые задачи и оценивает готовность этапа
//   - периодическим sweep'ом подбирает заказы, по которым событие потеряно
//
// Workers масштабируются горизонтально: дедупликацию обеспечивает
// уникальный индекс, взаимное исключение — advisory lock заказа.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aslan-crm/automation/internal/cache"
	"github.com/aslan-crm/automation/internal/engine"
	"github.com/aslan-crm/automation/internal/mq"
	"github.com/aslan-crm/automation/internal/notify"
	"github.com/aslan-crm/automation/internal/repo"
	"github.com/aslan-crm/automation/internal/sweeper"
	"github.com/aslan-crm/automation/internal/telemetry"
	"github.com/aslan-crm/automation/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting crm-automation-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Создаём репозитории
	settingRepo := repo.NewSettingRepo(pool)
	chainRepo := repo.NewChainRepo(pool)
	zadachaRepo := repo.NewZadachaRepo(pool)
	zakazRepo := repo.NewZakazRepo(pool)
	notificationRepo := repo.NewNotificationRepo(pool)
	subRepo := repo.NewSubscriptionRepo(pool)
	locker := repo.NewOrderLocker(pool)

	// Redis-кэш: worker читает настройки и цепочку на каждом событии
	var settings engine.SettingStore = settingRepo
	var chain engine.ChainStore = chainRepo

	redisClient, err := cache.New(cache.URLFromEnv(), cache.DefaultTTL, logger)
	if err == nil {
		err = redisClient.Ping(ctx)
	}
	if err != nil {
		logger.Warn("Redis not available, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		logger.Info("Redis connected")
		settings = cache.NewCachedSettingStore(settingRepo, redisClient)
		chain = cache.NewCachedChainStore(chainRepo, redisClient)
	}

	// RabbitMQ
	var publisher *mq.Publisher
	var events engine.EventSink
	var mqConn *mq.Connection
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in sweep-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
		events = publisher
	}

	// Движок автоматизации
	notifier := notify.New(notificationRepo, subRepo, notify.VAPIDFromEnv(), logger)
	materializer := engine.NewMaterializer(settings, zadachaRepo, notifier, logger)
	evaluator := engine.NewEvaluator(zakazRepo, zadachaRepo, settings, chain, locker, materializer, events, logger)
	resolver := engine.NewResolver(zakazRepo, zadachaRepo, settings, materializer, evaluator, logger)

	// Потребитель tasks.completed
	var w *worker.Worker
	if mqConn != nil {
		w = worker.New(worker.Config{
			Resolver: resolver,
			Conn:     mqConn,
			Logger:   logger,
		})
		if err := w.Start(ctx); err != nil {
			logger.Error("failed to start worker", "error", err)
			os.Exit(1)
		}
	}

	// Периодический sweep: страховка от потерянных событий
	sw := sweeper.New(sweeper.Config{
		Orders:    zakazRepo,
		Stages:    chainRepo,
		Evaluator: evaluator,
		Logger:    logger,
		CronExpr:  sweeper.CronExprFromEnv(),
	})
	if err := sw.Start(); err != nil {
		logger.Error("failed to start sweeper", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	sw.Stop()
	if w != nil {
		w.Stop()
	}
	logger.Info("crm-automation-worker stopped")
}
