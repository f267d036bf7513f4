// Package engine содержит движок автоматизации этапов производства.
//
// Включает:
//   - materializer.go — создание немедленных задач этапа из настроек
//   - resolver.go     — создание зависимых задач после завершения родительской
//   - evaluator.go    — оценка готовности этапа и перевод заказа дальше
//   - template.go     — подстановка данных заказа в шаблоны задач
//
// Все операции идемпотентны: существование задачи проверяется по паре
// (заказ, настройка), перевод этапа защищён advisory lock'ом заказа,
// поэтому повторный вызов любой операции безопасен.
package engine
