package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/domain"
)

// ListSettings возвращает все настройки автоматизации.
// GET /api/v1/automation/settings
func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingRepo.ListAll(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, settings, len(settings))
}

// ListSettingsByStages возвращает настройки, сгруппированные по этапам.
// GET /api/v1/automation/settings/stages
func (h *Handler) ListSettingsByStages(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingRepo.ListAll(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	// Список отсортирован по (stage_id, position), группировка сохраняет
	// порядок следования этапов.
	var groups []StageGroup
	index := make(map[string]int)
	for _, s := range settings {
		i, ok := index[s.StageID]
		if !ok {
			i = len(groups)
			index[s.StageID] = i
			groups = append(groups, StageGroup{
				StageID:   s.StageID,
				StageName: domain.StageName(s.StageID),
			})
		}
		groups[i].Settings = append(groups[i].Settings, s)
	}

	List(w, groups, len(groups))
}

// CreateSetting создаёт настройку автоматизации.
// POST /api/v1/automation/settings
func (h *Handler) CreateSetting(w http.ResponseWriter, r *http.Request) {
	var req CreateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	now := time.Now()
	setting := domain.AutomationSetting{
		ID:                      uuid.New(),
		StageID:                 req.StageID,
		StageName:               domain.StageName(req.StageID),
		TaskName:                req.TaskName,
		TaskOrderPosition:       req.TaskOrderPosition,
		ResponsibleUserID:       req.ResponsibleUserID,
		DispatcherID:            req.DispatcherID,
		DispatcherPercentage:    req.DispatcherPercentage,
		TaskTitleTemplate:       req.TaskTitleTemplate,
		TaskDescriptionTemplate: req.TaskDescriptionTemplate,
		PaymentAmount:           req.PaymentAmount,
		DurationDays:            req.DurationDays,
		StartCondition:          req.StartCondition,
		DependsOnTaskID:         req.DependsOnTaskID,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if err := setting.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}

	// Граф зависимостей проверяется на записи: этап с новой настройкой
	// не должен содержать циклов и висячих родителей.
	stageSettings, err := h.settingRepo.ListByStage(r.Context(), setting.StageID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}
	if err := domain.ValidateDependencies(append(stageSettings, setting)); err != nil {
		InvalidState(w, err.Error())
		return
	}

	if err := h.settingRepo.Create(r.Context(), &setting); HandleRepoError(w, h.logger, err, "") {
		return
	}

	h.invalidateSettings(r.Context(), setting.StageID)
	Created(w, setting)
}

// UpdateSettings обновляет набор настроек.
//
// Best-effort, как в UI настроек: первая ошибка возвращается, уже
// применённые обновления не откатываются.
// PUT /api/v1/automation/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if len(req.Settings) == 0 {
		BadRequest(w, "settings list is empty")
		return
	}

	stages := make(map[string]bool)
	for i := range req.Settings {
		s := &req.Settings[i]
		if s.ID == uuid.Nil {
			BadRequest(w, "setting id is required")
			return
		}
		if err := s.Validate(); err != nil {
			BadRequest(w, err.Error())
			return
		}
		s.UpdatedAt = time.Now()
		stages[s.StageID] = true
	}

	// Проверяем граф по каждому затронутому этапу с учётом обновлений.
	updated := make(map[uuid.UUID]*domain.AutomationSetting, len(req.Settings))
	for i := range req.Settings {
		updated[req.Settings[i].ID] = &req.Settings[i]
	}
	for stageID := range stages {
		current, err := h.settingRepo.ListByStage(r.Context(), stageID)
		if HandleRepoError(w, h.logger, err, "") {
			return
		}
		merged := make([]domain.AutomationSetting, 0, len(current))
		for _, s := range current {
			if u, ok := updated[s.ID]; ok {
				merged = append(merged, *u)
			} else {
				merged = append(merged, s)
			}
		}
		if err := domain.ValidateDependencies(merged); err != nil {
			InvalidState(w, err.Error())
			return
		}
	}

	err := h.settingRepo.UpdateMany(r.Context(), req.Settings)

	// Кэш сбрасывается даже при частичном успехе: часть обновлений
	// уже применена.
	stageIDs := make([]string, 0, len(stages))
	for stageID := range stages {
		stageIDs = append(stageIDs, stageID)
	}
	h.invalidateSettings(r.Context(), stageIDs...)

	if HandleRepoError(w, h.logger, err, "setting not found") {
		return
	}
	Success(w, req.Settings)
}

// DeleteSetting удаляет настройку.
// DELETE /api/v1/automation/settings/{id}
func (h *Handler) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid setting id")
		return
	}

	setting, err := h.settingRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "setting not found") {
		return
	}

	// Настройку-родителя удалять нельзя: зависимые остались бы
	// с висячей ссылкой.
	dependents, err := h.settingRepo.ListDependents(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}
	if len(dependents) > 0 {
		InvalidState(w, "other settings depend on this one")
		return
	}

	if err := h.settingRepo.Delete(r.Context(), id); HandleRepoError(w, h.logger, err, "setting not found") {
		return
	}

	h.invalidateSettings(r.Context(), setting.StageID)
	NoContent(w)
}
