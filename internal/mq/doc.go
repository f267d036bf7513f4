// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - task.completed  — задача завершена/подтверждена, нужно создать
//     зависимые задачи и проверить готовность этапа
//   - order.advanced  — заказ переведён на следующий этап (для
//     realtime-обновления клиентов CRM)
//
// Exchanges:
//   - crm.tasks   — события задач
//   - crm.orders  — события заказов
//   - crm.dlq     — dead letter queue
package mq
