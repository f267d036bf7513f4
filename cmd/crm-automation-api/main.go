// CRM Automation API — HTTP-сервис автоматизации этапов производства.
//
// Отвечает за:
//   - настройки автоматизации и цепочку этапов (CRUD для UI)
//   - ручной запуск проверки готовности этапа и создания зависимых задач
//   - завершение задач с публикацией события task.completed
//   - push-уведомления и подписки работников
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aslan-crm/automation/internal/api"
	"github.com/aslan-crm/automation/internal/cache"
	"github.com/aslan-crm/automation/internal/engine"
	"github.com/aslan-crm/automation/internal/mq"
	"github.com/aslan-crm/automation/internal/notify"
	"github.com/aslan-crm/automation/internal/repo"
	"github.com/aslan-crm/automation/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_automation_api_http_requests_total",
		Help: "Total HTTP requests handled by crm-automation-api",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting crm-automation-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Создаём репозитории
	settingRepo := repo.NewSettingRepo(pool)
	chainRepo := repo.NewChainRepo(pool)
	zadachaRepo := repo.NewZadachaRepo(pool)
	zakazRepo := repo.NewZakazRepo(pool)
	notificationRepo := repo.NewNotificationRepo(pool)
	subRepo := repo.NewSubscriptionRepo(pool)
	locker := repo.NewOrderLocker(pool)

	// Redis-кэш настроек и цепочки. Без Redis сервис работает,
	// читая напрямую из БД.
	var settingCache *cache.CachedSettingStore
	var chainCache *cache.CachedChainStore
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
		settingCache = cache.NewCachedSettingStore(settingRepo, redisClient)
		chainCache = cache.NewCachedChainStore(chainRepo, redisClient)
		settings = settingCache
		chain = chainCache
	}

	// RabbitMQ: события task.completed и order.advanced. Без брокера
	// завершение задач обрабатывает только периодический sweep.
	var publisher *mq.Publisher
	var events engine.EventSink
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, events disabled", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
		events = publisher
	}

	// Push-уведомления
	notifier := notify.New(notificationRepo, subRepo, notify.VAPIDFromEnv(), logger)

	// Движок автоматизации
	materializer := engine.NewMaterializer(settings, zadachaRepo, notifier, logger)
	evaluator := engine.NewEvaluator(zakazRepo, zadachaRepo, settings, chain, locker, materializer, events, logger)
	resolver := engine.NewResolver(zakazRepo, zadachaRepo, settings, materializer, evaluator, logger)

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		SettingRepo:  settingRepo,
		ChainRepo:    chainRepo,
		ZadachaRepo:  zadachaRepo,
		SubRepo:      subRepo,
		Evaluator:    evaluator,
		Resolver:     resolver,
		Notifier:     notifier,
		Publisher:    publisher,
		SettingCache: settingCache,
		ChainCache:   chainCache,
		Logger:       logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
