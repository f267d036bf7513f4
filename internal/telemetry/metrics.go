package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики движка автоматизации.
var (
	// OrdersAdvanced — количество переводов заказов на следующий этап.
	OrdersAdvanced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_automation_orders_advanced_total",
		Help: "Orders moved to the next stage by the automation engine",
	}, []string{"from_stage", "to_stage"})

	// TasksMaterialized — количество задач, созданных из настроек.
	TasksMaterialized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_automation_tasks_materialized_total",
		Help: "Tasks created from automation settings",
	}, []string{"stage_id"})

	// TaskCreateFailures — неудачные вставки задач (пропущены, батч продолжен).
	TaskCreateFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_automation_task_create_failures_total",
		Help: "Task inserts that failed and were skipped",
	})

	// LockBusySkips — оценки, пропущенные из-за занятого advisory lock.
	LockBusySkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_automation_lock_busy_skips_total",
		Help: "Stage evaluations skipped because the per-order lock was held",
	})

	// EvaluationsTotal — все вызовы оценки готовности этапа.
	EvaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_automation_evaluations_total",
		Help: "Stage completion evaluations performed",
	})

	// NotificationsSent — успешно доставленные push-уведомления.
	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_automation_notifications_sent_total",
		Help: "Push notifications delivered to endpoints",
	})

	// NotificationsFailed — неудачные доставки push-уведомлений.
	NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_automation_notifications_failed_total",
		Help: "Push notification deliveries that failed",
	})
)
