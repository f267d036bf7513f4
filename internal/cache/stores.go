package cache

import (
	"context"

	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/domain"
)

// Ключи кэша.
const (
	keySettingsByStage   = "automation:settings:stage:"
	keySettingsImmediate = "automation:settings:immediate:"
	keyChainFromStage    = "automation:chain:from:"
)

// SettingSource — читающая часть репозитория настроек.
type SettingSource interface {
	ListByStage(ctx context.Context, stageID string) ([]domain.AutomationSetting, error)
	ListImmediateByStage(ctx context.Context, stageID string) ([]domain.AutomationSetting, error)
	ListDependents(ctx context.Context, parentID uuid.UUID) ([]domain.AutomationSetting, error)
}

// CachedSettingStore — кэширующий декоратор над репозиторием настроек.
type CachedSettingStore struct {
	src   SettingSource
	cache *Client
}

// NewCachedSettingStore создаёт декоратор.
func NewCachedSettingStore(src SettingSource, cache *Client) *CachedSettingStore {
	return &CachedSettingStore{src: src, cache: cache}
}

// ListByStage возвращает настройки этапа, по возможности из кэша.
func (s *CachedSettingStore) ListByStage(ctx context.Context, stageID string) ([]domain.AutomationSetting, error) {
	key := keySettingsByStage + stageID

	var cached []domain.AutomationSetting
	if s.cache.getJSON(ctx, key, &cached) {
		return cached, nil
	}

	settings, err := s.src.ListByStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	s.cache.setJSON(ctx, key, settings)
	return settings, nil
}

// ListImmediateByStage возвращает немедленные настройки этапа.
func (s *CachedSettingStore) ListImmediateByStage(ctx context.Context, stageID string) ([]domain.AutomationSetting, error) {
	key := keySettingsImmediate + stageID

	var cached []domain.AutomationSetting
	if s.cache.getJSON(ctx, key, &cached) {
		return cached, nil
	}

	settings, err := s.src.ListImmediateByStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	s.cache.setJSON(ctx, key, settings)
	return settings, nil
}

// ListDependents не кэшируется: вызывается только по событию завершения
// конкретной задачи, выигрыш от кэша нулевой.
func (s *CachedSettingStore) ListDependents(ctx context.Context, parentID uuid.UUID) ([]domain.AutomationSetting, error) {
	return s.src.ListDependents(ctx, parentID)
}

// InvalidateStage сбрасывает кэш настроек этапа. Вызывается API после
// create/update/delete настройки.
func (s *CachedSettingStore) InvalidateStage(ctx context.Context, stageID string) {
	s.cache.invalidate(ctx,
		keySettingsByStage+stageID,
		keySettingsImmediate+stageID,
	)
}

// ChainSource — читающая часть репозитория цепочки.
type ChainSource interface {
	GetByFromStage(ctx context.Context, fromStageID string) (*domain.StageChainLink, error)
}

// CachedChainStore — кэширующий декоратор над репозиторием цепочки.
type CachedChainStore struct {
	src   ChainSource
	cache *Client
}

// NewCachedChainStore создаёт декоратор.
func NewCachedChainStore(src ChainSource, cache *Client) *CachedChainStore {
	return &CachedChainStore{src: src, cache: cache}
}

// GetByFromStage возвращает звено цепочки, по возможности из кэша.
// Отсутствие звена (ErrNotFound) не кэшируется.
func (s *CachedChainStore) GetByFromStage(ctx context.Context, fromStageID string) (*domain.StageChainLink, error) {
	key := keyChainFromStage + fromStageID

	var cached domain.StageChainLink
	if s.cache.getJSON(ctx, key, &cached) {
		return &cached, nil
	}

	link, err := s.src.GetByFromStage(ctx, fromStageID)
	if err != nil {
		return nil, err
	}
	s.cache.setJSON(ctx, key, *link)
	return link, nil
}

// Invalidate сбрасывает кэш всей цепочки. Звеньев не больше, чем этапов
// в словаре, поэтому удаляются ключи всех известных этапов.
func (s *CachedChainStore) Invalidate(ctx context.Context) {
	keys := make([]string, 0, len(domain.StageNames))
	for stageID := range domain.StageNames {
		keys = append(keys, keyChainFromStage+stageID)
	}
	s.cache.invalidate(ctx, keys...)
}
