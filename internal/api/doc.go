// Package api — HTTP API сервиса автоматизации этапов.
//
// Структура:
//   - handler.go              — Handler с зависимостями
//   - routes.go               — маршруты (net/http ServeMux, method patterns)
//   - automation_handler.go   — оценка готовности этапа и зависимые задачи
//   - settings_handler.go     — CRUD настроек автоматизации
//   - chain_handler.go        — цепочка переходов этапов
//   - task_handler.go         — завершение задачи
//   - notification_handler.go — уведомления и push-подписки
//   - dto.go                  — структуры запросов/ответов
//   - middleware.go           — логирование, recovery
//   - response.go             — JSON-хелперы и маппинг ошибок
package api
