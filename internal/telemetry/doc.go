// Package telemetry обеспечивает наблюдаемость автоматизации.
//
// Включает:
//   - logging.go — structured logging через slog, контекстные атрибуты
//     заказа/задачи/этапа
//   - metrics.go — Prometheus-счётчики движка (переводы заказов,
//     материализация задач, пропуски по локу, push-уведомления)
//
// Все сервисы используют единый формат логирования и экспортируют
// метрики на /metrics endpoint.
package telemetry
