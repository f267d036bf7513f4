package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/engine"
	"github.com/aslan-crm/automation/internal/mq"
)

const defaultPrefetch = 5

// DependentResolver — обработка завершённой задачи движком.
type DependentResolver interface {
	ResolveDependents(ctx context.Context, completedTaskID int64, settingID uuid.UUID) (*engine.ResolveResult, error)
}

// Worker потребляет события task.completed и прогоняет их через движок.
type Worker struct {
	resolver DependentResolver
	conn     *mq.Connection
	consumer *mq.Consumer
	prefetch int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	Resolver DependentResolver
	Conn     *mq.Connection
	Prefetch int // default: 5
	Logger   *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		resolver: cfg.Resolver,
		conn:     cfg.Conn,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Start запускает потребление tasks.completed.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueTasksCompleted),
		Handler:  w.handleTaskCompleted,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("task consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started", "queue", mq.QueueTasksCompleted)
	return nil
}

// Stop останавливает Worker и дожидается завершения обработки.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()
	w.logger.Info("worker stopped")
}
