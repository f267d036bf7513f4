package api

import (
	"context"
	"log/slog"

	"github.com/aslan-crm/automation/internal/cache"
	"github.com/aslan-crm/automation/internal/engine"
	"github.com/aslan-crm/automation/internal/mq"
	"github.com/aslan-crm/automation/internal/notify"
	"github.com/aslan-crm/automation/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	settingRepo *repo.SettingRepo
	chainRepo   *repo.ChainRepo
	zadachaRepo *repo.ZadachaRepo
	subRepo     *repo.SubscriptionRepo

	evaluator *engine.Evaluator
	resolver  *engine.Resolver
	notifier  *notify.Notifier
	publisher *mq.Publisher

	// Кэши для инвалидации после записи; nil, если кэш не подключён.
	settingCache *cache.CachedSettingStore
	chainCache   *cache.CachedChainStore

	logger *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	SettingRepo *repo.SettingRepo
	ChainRepo   *repo.ChainRepo
	ZadachaRepo *repo.ZadachaRepo
	SubRepo     *repo.SubscriptionRepo

	Evaluator *engine.Evaluator
	Resolver  *engine.Resolver
	Notifier  *notify.Notifier
	Publisher *mq.Publisher

	SettingCache *cache.CachedSettingStore
	ChainCache   *cache.CachedChainStore

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		settingRepo:  cfg.SettingRepo,
		chainRepo:    cfg.ChainRepo,
		zadachaRepo:  cfg.ZadachaRepo,
		subRepo:      cfg.SubRepo,
		evaluator:    cfg.Evaluator,
		resolver:     cfg.Resolver,
		notifier:     cfg.Notifier,
		publisher:    cfg.Publisher,
		settingCache: cfg.SettingCache,
		chainCache:   cfg.ChainCache,
		logger:       cfg.Logger,
	}
}

// invalidateSettings сбрасывает кэш настроек этапов, если кэш подключён.
func (h *Handler) invalidateSettings(ctx context.Context, stageIDs ...string) {
	if h.settingCache == nil {
		return
	}
	for _, stageID := range stageIDs {
		h.settingCache.InvalidateStage(ctx, stageID)
	}
}

// invalidateChain сбрасывает кэш цепочки, если кэш подключён.
func (h *Handler) invalidateChain(ctx context.Context) {
	if h.chainCache == nil {
		return
	}
	h.chainCache.Invalidate(ctx)
}
