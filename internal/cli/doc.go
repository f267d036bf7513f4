// Package cli реализует инструмент командной строки автоматизации.
//
// # Обзор
//
// CLI — клиентская утилита для администрирования автоматизации этапов:
// настройки задач, цепочка этапов, ручной запуск проверки готовности.
// Работает через HTTP API и не импортирует внутренние пакеты сервиса.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для API автоматизации. Инкапсулирует запросы, парсинг
// ответов (data/list/error обёртки) и преобразование ошибок API
// в ошибки Go.
//
//	client := cli.NewClient("http://localhost:8080")
//	settings, err := client.ListSettings()
//
// ## Output
//
// Форматирование вывода. Два режима:
//   - таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения — в stderr, поэтому вывод
// можно отдавать в pipe: crm-automation settings list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - settings: list, stages, create, apply, delete
//   - chain: list, enable, disable, reorder
//   - task: complete
//   - check / resolve: ручной запуск движка
//   - notify: send
//
// Каждая группа создаётся фабричной функцией (NewSettingsCmd и т.д.),
// принимающей clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
