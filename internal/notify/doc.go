// Package notify — web push уведомления исполнителям.
//
// Уведомление сначала пишется в историю (notifications), затем
// рассылается на все подписки пользователя по Web Push Protocol
// с VAPID-подписью. Доставка best-effort: ошибка push не считается
// ошибкой операции, а мёртвые подписки (404/410 от push-сервиса)
// удаляются на месте.
package notify
