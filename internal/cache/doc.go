// Package cache — кэш читающих запросов поверх Redis.
//
// Настройки автоматизации и цепочка этапов меняются редко, а читаются
// на каждом событии задачи. Декораторы CachedSettingStore и
// CachedChainStore кэшируют ответы репозиториев на время TTL
// (по умолчанию 5 минут) и инвалидируются при записи через API.
//
// Кэш строго best-effort: любая ошибка Redis логируется и трактуется
// как промах, запрос уходит в Postgres.
package cache
