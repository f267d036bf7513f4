package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aslan-crm/automation/internal/domain"
	"github.com/aslan-crm/automation/internal/engine"
)

// DefaultCronExpr — расписание обхода по умолчанию (каждые 5 минут).
const DefaultCronExpr = "*/5 * * * *"

// OrderSource — выборка заказов для переоценки.
type OrderSource interface {
	ListByStages(ctx context.Context, stageIDs []string, limit int) ([]domain.Zakaz, error)
}

// StageSource — этапы, с которых настроен активный переход.
type StageSource interface {
	ListActiveFromStages(ctx context.Context) ([]string, error)
}

// Evaluator — оценка готовности этапа заказа.
type Evaluator interface {
	EvaluateAndAdvance(ctx context.Context, orderID int64) (*engine.EvalResult, error)
}

// Sweeper периодически переоценивает заказы на этапах с активной
// автоматизацией. Это страховка от потерянных событий: если оценка
// после завершения задачи оборвалась (рестарт, обрыв сети), заказ
// доберёт переход на ближайшем обходе.
type Sweeper struct {
	orders    OrderSource
	stages    StageSource
	evaluator Evaluator
	logger    *slog.Logger
	batchSize int

	cronExpr string
	cron     *cron.Cron
}

// Config — конфигурация Sweeper.
type Config struct {
	Orders    OrderSource
	Stages    StageSource
	Evaluator Evaluator
	Logger    *slog.Logger
	CronExpr  string // default: DefaultCronExpr
	BatchSize int    // количество заказов за один обход (default: 100)
}

// New создаёт новый Sweeper.
func New(cfg Config) *Sweeper {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	cronExpr := cfg.CronExpr
	if cronExpr == "" {
		cronExpr = DefaultCronExpr
	}

	return &Sweeper{
		orders:    cfg.Orders,
		stages:    cfg.Stages,
		evaluator: cfg.Evaluator,
		logger:    cfg.Logger,
		batchSize: batchSize,
		cronExpr:  cronExpr,
		cron:      cron.New(),
	}
}

// CronExprFromEnv возвращает расписание обхода из окружения.
func CronExprFromEnv() string {
	if expr := os.Getenv("SWEEP_CRON"); expr != "" {
		return expr
	}
	return DefaultCronExpr
}

// Start запускает периодический обход.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := s.Sweep(ctx); err != nil {
			s.logger.Error("sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sweep %q: %w", s.cronExpr, err)
	}

	s.cron.Start()
	s.logger.Info("sweeper started", "cron", s.cronExpr)
	return nil
}

// Stop останавливает обход и дожидается завершения текущего.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("sweeper stopped")
}

// Sweep выполняет один обход.
//
// 1. Берёт этапы с активным звеном цепочки
// 2. Выбирает заказы на этих этапах
// 3. Прогоняет оценку готовности по каждому
//
// Ошибка оценки одного заказа не блокирует остальные. Конкурентная
// оценка того же заказа (событие пришло во время обхода) безопасна:
// Evaluator под локом вернёт busy одному из вызовов.
func (s *Sweeper) Sweep(ctx context.Context) error {
	stages, err := s.stages.ListActiveFromStages(ctx)
	if err != nil {
		return fmt.Errorf("list active stages: %w", err)
	}
	if len(stages) == 0 {
		return nil
	}

	orders, err := s.orders.ListByStages(ctx, stages, s.batchSize)
	if err != nil {
		return fmt.Errorf("list orders for sweep: %w", err)
	}
	if len(orders) == 0 {
		return nil
	}

	var advanced, failed int
	for i := range orders {
		result, err := s.evaluator.EvaluateAndAdvance(ctx, orders[i].ID)
		if err != nil {
			failed++
			s.logger.Error("sweep evaluation failed", "order_id", orders[i].ID, "error", err)
			continue
		}
		if result.Advanced {
			advanced++
		}
	}

	s.logger.Info("sweep completed",
		"orders", len(orders),
		"advanced", advanced,
		"failed", failed,
	)
	return nil
}
