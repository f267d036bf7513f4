package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/domain"
	"github.com/aslan-crm/automation/internal/repo"
)

// fakeStore — in-memory реализация хранилищ движка для тестов.
type fakeStore struct {
	mu       sync.Mutex
	orders   map[int64]*domain.Zakaz
	tasks    map[int64]*domain.Zadacha
	settings []domain.AutomationSetting
	links    map[string]*domain.StageChainLink
	nextID   int64

	// getOrderHook вызывается внутри GetByID — для тестов конкурентности.
	getOrderHook func()

	// failTaskInsert заставляет Create возвращать ошибку для заданных настроек.
	failTaskInsert map[uuid.UUID]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:         make(map[int64]*domain.Zakaz),
		tasks:          make(map[int64]*domain.Zadacha),
		links:          make(map[string]*domain.StageChainLink),
		failTaskInsert: make(map[uuid.UUID]error),
	}
}

// --- OrderStore ---

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*domain.Zakaz, error) {
	if f.getOrderHook != nil {
		f.getOrderHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return repo.ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	return nil
}

// --- TaskStore ---

func (f *fakeStore) NextID(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStore) Create(ctx context.Context, task *domain.Zadacha) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.AutomationSettingID != nil {
		if err, ok := f.failTaskInsert[*task.AutomationSettingID]; ok {
			return err
		}
		for _, existing := range f.tasks {
			if existing.ZakazID == task.ZakazID &&
				existing.AutomationSettingID != nil &&
				*existing.AutomationSettingID == *task.AutomationSettingID {
				return repo.ErrAlreadyExists
			}
		}
	}
	if _, ok := f.tasks[task.ID]; ok {
		return repo.ErrAlreadyExists
	}
	cp := *task
	f.tasks[task.ID] = &cp
	return nil
}

func (f *fakeStore) TaskGetByID(ctx context.Context, id int64) (*domain.Zadacha, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *task
	return &cp, nil
}

func (f *fakeStore) ListByOrderAndStage(ctx context.Context, orderID int64, stageID string) ([]domain.Zadacha, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var tasks []domain.Zadacha
	for _, task := range f.tasks {
		if task.ZakazID == orderID && task.StageID == stageID {
			tasks = append(tasks, *task)
		}
	}
	return tasks, nil
}

func (f *fakeStore) ExistsForSetting(ctx context.Context, orderID int64, settingID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, task := range f.tasks {
		if task.ZakazID == orderID &&
			task.AutomationSettingID != nil &&
			*task.AutomationSettingID == settingID {
			return true, nil
		}
	}
	return false, nil
}

// --- SettingStore ---

func (f *fakeStore) ListByStage(ctx context.Context, stageID string) ([]domain.AutomationSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AutomationSetting
	for _, s := range f.settings {
		if s.StageID == stageID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) ListImmediateByStage(ctx context.Context, stageID string) ([]domain.AutomationSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AutomationSetting
	for _, s := range f.settings {
		if s.StageID == stageID && s.IsImmediate() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) ListDependents(ctx context.Context, parentID uuid.UUID) ([]domain.AutomationSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AutomationSetting
	for _, s := range f.settings {
		if s.DependsOnTaskID != nil && *s.DependsOnTaskID == parentID {
			out = append(out, s)
		}
	}
	return out, nil
}

// --- ChainStore ---

func (f *fakeStore) GetByFromStage(ctx context.Context, fromStageID string) (*domain.StageChainLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[fromStageID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *link
	return &cp, nil
}

// --- Вспомогательные методы сборки фикстур ---

func (f *fakeStore) addOrder(id int64, title, stage string) {
	f.orders[id] = &domain.Zakaz{ID: id, Title: title, Status: stage}
}

func (f *fakeStore) addImmediateSetting(stage, name string, responsible *uuid.UUID) domain.AutomationSetting {
	s := domain.AutomationSetting{
		ID:                      uuid.New(),
		StageID:                 stage,
		StageName:               domain.StageName(stage),
		TaskName:                name,
		TaskOrderPosition:       len(f.settings) + 1,
		ResponsibleUserID:       responsible,
		TaskTitleTemplate:       name + " по заказу #{order_id}",
		TaskDescriptionTemplate: name,
		PaymentAmount:           1000,
		DurationDays:            2,
		StartCondition:          domain.StartImmediate,
	}
	f.settings = append(f.settings, s)
	return s
}

func (f *fakeStore) addDependentSetting(stage, name string, responsible *uuid.UUID, parent uuid.UUID) domain.AutomationSetting {
	s := domain.AutomationSetting{
		ID:                      uuid.New(),
		StageID:                 stage,
		StageName:               domain.StageName(stage),
		TaskName:                name,
		TaskOrderPosition:       len(f.settings) + 1,
		ResponsibleUserID:       responsible,
		TaskTitleTemplate:       name + " по заказу #{order_id}",
		TaskDescriptionTemplate: name,
		PaymentAmount:           500,
		DurationDays:            1,
		StartCondition:          domain.StartAfterTask,
		DependsOnTaskID:         &parent,
	}
	f.settings = append(f.settings, s)
	return s
}

func (f *fakeStore) addLink(from string, to *string, active bool) {
	f.links[from] = &domain.StageChainLink{
		ID:          uuid.New(),
		FromStageID: from,
		ToStageID:   to,
		IsActive:    active,
	}
}

func (f *fakeStore) completeTask(orderID int64, settingID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, task := range f.tasks {
		if task.ZakazID == orderID &&
			task.AutomationSettingID != nil &&
			*task.AutomationSettingID == settingID {
			task.Status = domain.TaskStatusCompleted
		}
	}
}

func (f *fakeStore) taskBySetting(orderID int64, settingID uuid.UUID) *domain.Zadacha {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, task := range f.tasks {
		if task.ZakazID == orderID &&
			task.AutomationSettingID != nil &&
			*task.AutomationSettingID == settingID {
			cp := *task
			return &cp
		}
	}
	return nil
}

func (f *fakeStore) taskCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

func (f *fakeStore) orderStatus(id int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id].Status
}

// taskStoreAdapter подставляет TaskGetByID под имя GetByID интерфейса
// TaskStore: у fakeStore это имя занято OrderStore.
type taskStoreAdapter struct{ *fakeStore }

func (a taskStoreAdapter) GetByID(ctx context.Context, id int64) (*domain.Zadacha, error) {
	return a.TaskGetByID(ctx, id)
}

// fakeLocker — взаимное исключение на заказ без ожидания.
type fakeLocker struct {
	mu   sync.Mutex
	held map[int64]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[int64]bool)}
}

func (l *fakeLocker) WithOrderLock(ctx context.Context, orderID int64, fn func(ctx context.Context) error) (bool, error) {
	l.mu.Lock()
	if l.held[orderID] {
		l.mu.Unlock()
		return false, nil
	}
	l.held[orderID] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, orderID)
		l.mu.Unlock()
	}()

	return true, fn(ctx)
}

// fakeNotifier записывает отправленные уведомления.
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []int64 // task ids
	fail  bool
	calls int
}

func (n *fakeNotifier) NotifyNewTask(ctx context.Context, userID uuid.UUID, title string, taskID, orderID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.fail {
		return errors.New("push gateway unavailable")
	}
	n.sent = append(n.sent, taskID)
	return nil
}

// fakeEventSink записывает опубликованные события перевода заказа.
type fakeEventSink struct {
	mu     sync.Mutex
	events []advancedEvent
}

type advancedEvent struct {
	orderID   int64
	fromStage string
	toStage   string
	taskIDs   []int64
}

func (s *fakeEventSink) OrderAdvanced(_ context.Context, orderID int64, fromStage, toStage string, taskIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, advancedEvent{orderID, fromStage, toStage, taskIDs})
	return nil
}

// newEngine собирает движок поверх фейков.
func newEngine(store *fakeStore, locker *fakeLocker, notifier *fakeNotifier) (*Materializer, *Evaluator, *Resolver) {
	tasks := taskStoreAdapter{store}
	materializer := NewMaterializer(store, tasks, notifier, nil)
	evaluator := NewEvaluator(store, tasks, store, store, locker, materializer, nil, nil)
	resolver := NewResolver(store, tasks, store, materializer, evaluator, nil)
	return materializer, evaluator, resolver
}
