// Package worker — event-driven обработчик завершения задач.
//
// Worker потребляет события task.completed из RabbitMQ и для каждого:
//   - создаёт зависимые задачи (Resolver)
//   - запускает оценку готовности этапа (Evaluator, внутри Resolver'а)
//
// Workers масштабируются горизонтально: дедупликацию задач обеспечивает
// уникальный индекс, взаимное исключение оценки — advisory lock заказа.
package worker
